package auth

import (
	"context"
	"errors"

	"github.com/go-authgate/basicgate/internal/core"
	"github.com/go-authgate/basicgate/internal/models"

	"golang.org/x/crypto/bcrypt"
)

// UserLookup finds users by name.
type UserLookup interface {
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// dummyHash is compared against when the user does not exist so that
// unknown and known usernames take about the same time to reject.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("basicgate-dummy-password"), bcrypt.DefaultCost)

var _ core.AuthProvider = (*LocalAuthProvider)(nil)

// LocalAuthProvider handles local database authentication
type LocalAuthProvider struct {
	users UserLookup
}

// NewLocalAuthProvider creates a new local authentication provider
func NewLocalAuthProvider(users UserLookup) *LocalAuthProvider {
	return &LocalAuthProvider{users: users}
}

// Authenticate verifies credentials against the bcrypt hash of a local user.
// Inactive users and users without a local password never authenticate.
func (p *LocalAuthProvider) Authenticate(
	ctx context.Context,
	username, password string,
) (*core.AuthResult, error) {
	user, err := p.users.GetUserByUsername(ctx, username)
	if err != nil {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, ErrInvalidCredentials
	}

	if user.PasswordHash == "" || !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword(
		[]byte(user.PasswordHash),
		[]byte(password),
	); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	return &core.AuthResult{
		Username: user.Username,
		Email:    user.Email,
		FullName: user.FullName,
		Success:  true,
	}, nil
}

// Name returns provider name for logging
func (p *LocalAuthProvider) Name() string {
	return models.AuthSourceLocal
}
