package middleware

import (
	"github.com/go-authgate/basicgate/internal/auth"
	"github.com/go-authgate/basicgate/internal/core"

	"github.com/gin-gonic/gin"
)

// Context keys set by BasicAuth
const (
	ContextUserID   = "user_id"
	ContextUsername = "username"
	ContextIdentity = "identity"
)

func setIdentity(c *gin.Context, id *core.LoginResult) {
	c.Set(ContextIdentity, id)
	c.Set(ContextUserID, id.UserID)
	c.Set(ContextUsername, id.Username)
	c.Request = c.Request.WithContext(auth.WithIdentity(c.Request.Context(), id))
}

// Identity returns the identity attached by BasicAuth, or nil when the
// route is not protected.
func Identity(c *gin.Context) *core.LoginResult {
	v, ok := c.Get(ContextIdentity)
	if !ok {
		return auth.IdentityFromContext(c.Request.Context())
	}
	id, _ := v.(*core.LoginResult)
	return id
}
