package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthChecker is implemented by the store and the user cache.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// HealthHandler reports whether the store and the user cache are reachable.
type HealthHandler struct {
	db      HealthChecker
	cache   HealthChecker
	timeout time.Duration
}

func NewHealthHandler(db, cache HealthChecker) *HealthHandler {
	return &HealthHandler{db: db, cache: cache, timeout: 2 * time.Second}
}

// Check handles GET /health.
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	status := http.StatusOK
	body := gin.H{
		"status":   "healthy",
		"database": "connected",
		"cache":    "connected",
	}

	if err := h.db.Health(ctx); err != nil {
		status = http.StatusServiceUnavailable
		body["status"] = "unhealthy"
		body["database"] = "disconnected"
	}
	if h.cache != nil {
		if err := h.cache.Health(ctx); err != nil {
			status = http.StatusServiceUnavailable
			body["status"] = "unhealthy"
			body["cache"] = "disconnected"
		}
	}

	c.JSON(status, body)
}
