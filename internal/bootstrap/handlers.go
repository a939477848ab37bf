package bootstrap

import (
	"github.com/go-authgate/basicgate/internal/core"
	"github.com/go-authgate/basicgate/internal/handlers"
	"github.com/go-authgate/basicgate/internal/middleware"
	"github.com/go-authgate/basicgate/internal/models"
	"github.com/go-authgate/basicgate/internal/services"
	"github.com/go-authgate/basicgate/internal/store"

	"github.com/gin-gonic/gin"
)

// handlerSet holds all HTTP handlers
type handlerSet struct {
	health       *handlers.HealthHandler
	api          *handlers.APIHandler
	requireAdmin gin.HandlerFunc
}

// initializeHandlers creates all HTTP handlers
func initializeHandlers(
	db *store.Store,
	userCache core.Cache[models.User],
	userService *services.UserService,
) handlerSet {
	return handlerSet{
		health: handlers.NewHealthHandler(db, userCache),
		api:    handlers.NewAPIHandler(userService),

		requireAdmin: middleware.RequireAdmin(userService),
	}
}
