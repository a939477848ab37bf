package middleware

import (
	"net/http"

	"github.com/go-authgate/basicgate/internal/services"

	"github.com/gin-gonic/gin"
)

// ContextUser holds the *models.User loaded by RequireAdmin.
const ContextUser = "user"

// RequireAdmin must run after BasicAuth. It reloads the caller from the store
// so that role changes apply without waiting for the user cache to expire.
func RequireAdmin(userService *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := Identity(c)
		if id == nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":   "forbidden",
				"message": "Unauthorized access",
			})
			return
		}

		user, err := userService.GetUserByID(c.Request.Context(), id.UserID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":   "forbidden",
				"message": "User not found",
			})
			return
		}

		if !user.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":   "forbidden",
				"message": "Admin access required",
			})
			return
		}

		c.Set(ContextUser, user)
		c.Next()
	}
}
