package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-authgate/basicgate/internal/middleware"
	"github.com/go-authgate/basicgate/internal/models"
	"github.com/go-authgate/basicgate/internal/services"

	"github.com/gin-gonic/gin"
)

// APIHandler serves the endpoints behind the Basic auth guard.
type APIHandler struct {
	userService *services.UserService
}

func NewAPIHandler(us *services.UserService) *APIHandler {
	return &APIHandler{userService: us}
}

// UserProfile is the public view of a user. It never includes the password hash.
type UserProfile struct {
	ID          string     `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	FullName    string     `json:"full_name,omitempty"`
	Role        string     `json:"role"`
	AuthSource  string     `json:"auth_source"`
	External    bool       `json:"external"`
	Active      bool       `json:"active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func newUserProfile(u *models.User) UserProfile {
	return UserProfile{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		FullName:    u.FullName,
		Role:        u.Role,
		AuthSource:  u.AuthSource,
		External:    u.IsExternal(),
		Active:      u.IsActive,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}

func (h *APIHandler) currentUser(c *gin.Context) (*models.User, bool) {
	id := middleware.Identity(c)
	if id == nil {
		// Only reachable when the route is mounted without BasicAuth.
		c.AbortWithStatus(http.StatusUnauthorized)
		return nil, false
	}

	user, err := h.userService.GetUserByID(c.Request.Context(), id.UserID)
	if err != nil {
		log.Printf("[API] Failed to load user=%s: %v", id.Username, err)
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": "User not found",
		})
		return nil, false
	}
	return user, true
}

// User handles GET /api/v1/user.
func (h *APIHandler) User(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, newUserProfile(user))
}

// PostsUpdate handles GET /api/v1/posts/update and reports when the
// authenticated account was last active.
func (h *APIHandler) PostsUpdate(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	last := user.UpdatedAt
	if user.LastLoginAt != nil {
		last = *user.LastLoginAt
	}
	c.JSON(http.StatusOK, gin.H{"time": last.UTC().Format(time.RFC3339)})
}

// SetUserActiveRequest is the body of PUT /api/v1/admin/users/:id/active.
type SetUserActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// SetUserActive handles PUT /api/v1/admin/users/:id/active. Deactivated users
// are refused by the guard from their next request on.
func (h *APIHandler) SetUserActive(c *gin.Context) {
	var req SetUserActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Body must be {\"active\": true|false}",
		})
		return
	}

	targetID := c.Param("id")
	if id := middleware.Identity(c); id != nil && id.UserID == targetID && !*req.Active {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Admins cannot deactivate themselves",
		})
		return
	}

	user, err := h.userService.SetUserActive(c.Request.Context(), targetID, *req.Active)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "not_found",
				"message": "User not found",
			})
			return
		}
		log.Printf("[API] Failed to update user=%s: %v", targetID, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "server_error",
			"message": "Failed to update user",
		})
		return
	}
	c.JSON(http.StatusOK, newUserProfile(user))
}
