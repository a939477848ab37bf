package middleware

import (
	"github.com/go-authgate/basicgate/internal/auth"

	"github.com/gin-gonic/gin"
)

// BasicAuth requires valid HTTP Basic credentials. Rejected requests get the
// guard's 401 challenge and the handler chain is aborted.
func BasicAuth(g *auth.Guard) gin.HandlerFunc {
	return func(c *gin.Context) {
		out := g.Authorize(c.Request)
		if !out.Allowed() {
			g.Challenge(c.Writer)
			c.Abort()
			return
		}

		setIdentity(c, out.Identity)
		c.Next()
	}
}
