package bootstrap

import (
	"github.com/go-authgate/basicgate/internal/auth"
	"github.com/go-authgate/basicgate/internal/config"
	"github.com/go-authgate/basicgate/internal/core"
	"github.com/go-authgate/basicgate/internal/metrics"
	"github.com/go-authgate/basicgate/internal/models"
	"github.com/go-authgate/basicgate/internal/services"
	"github.com/go-authgate/basicgate/internal/store"
)

// initializeServices builds the user directory consulted by the guard
func initializeServices(
	cfg *config.Config,
	db *store.Store,
	userCache core.Cache[models.User],
	prometheusMetrics metrics.Recorder,
) (*services.UserService, error) {
	users := services.NewCachedUserStore(db, userCache, cfg.UserCacheTTL)

	// The local provider needs password hashes, which the user cache drops.
	localProvider := auth.NewLocalAuthProvider(db)
	httpAPIProvider, err := initializeHTTPAPIAuthProvider(cfg)
	if err != nil {
		return nil, err
	}

	return services.NewUserService(
		db,
		users,
		localProvider,
		httpAPIProvider,
		cfg.AuthMode,
		prometheusMetrics,
	), nil
}
