package auth

import (
	"context"

	"github.com/go-authgate/basicgate/internal/core"
)

type identityKey struct{}

// WithIdentity attaches the authenticated identity to ctx.
func WithIdentity(ctx context.Context, id *core.LoginResult) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the identity stored by WithIdentity, or nil.
func IdentityFromContext(ctx context.Context) *core.LoginResult {
	id, _ := ctx.Value(identityKey{}).(*core.LoginResult)
	return id
}
