package bootstrap

import (
	"context"
	"net/http"

	"github.com/go-authgate/basicgate/internal/auth"
	"github.com/go-authgate/basicgate/internal/config"
	"github.com/go-authgate/basicgate/internal/core"
	"github.com/go-authgate/basicgate/internal/metrics"
	"github.com/go-authgate/basicgate/internal/models"
	"github.com/go-authgate/basicgate/internal/services"
	"github.com/go-authgate/basicgate/internal/store"

	"github.com/appleboy/graceful"
	"github.com/gin-gonic/gin"
)

// Application holds all initialized components
type Application struct {
	Config *config.Config

	// Core infrastructure
	DB              *store.Store
	MetricsRecorder metrics.Recorder
	UserCache       core.Cache[models.User]

	// Services
	UserService *services.UserService
	Guard       *auth.Guard

	// HTTP
	HandlerSet handlerSet
	Router     *gin.Engine
	Server     *http.Server
}

// New wires every component without starting the HTTP server.
func New(ctx context.Context, cfg *config.Config) (*Application, error) {
	app := &Application{Config: cfg}

	// Phase 1: Validate configuration
	if err := validateAllConfiguration(cfg); err != nil {
		return nil, err
	}

	// Phase 2: Initialize infrastructure
	if err := app.initializeInfrastructure(ctx); err != nil {
		return nil, err
	}

	// Phase 3: Initialize business layer
	if err := app.initializeBusinessLayer(); err != nil {
		app.closeInfrastructure()
		return nil, err
	}

	// Phase 4: Initialize HTTP layer
	app.initializeHTTPLayer()

	return app, nil
}

// initializeInfrastructure sets up database, metrics and the user cache
func (app *Application) initializeInfrastructure(ctx context.Context) error {
	var err error

	// Database
	app.DB, err = initializeDatabase(ctx, app.Config)
	if err != nil {
		return err
	}

	// Metrics
	app.MetricsRecorder = initializeMetrics(app.Config)

	// User cache
	app.UserCache, err = initializeUserCache(ctx, app.Config)
	if err != nil {
		_ = app.DB.Close()
		return err
	}

	return nil
}

// initializeBusinessLayer sets up the user directory and the guard
func (app *Application) initializeBusinessLayer() error {
	var err error
	app.UserService, err = initializeServices(
		app.Config,
		app.DB,
		app.UserCache,
		app.MetricsRecorder,
	)
	if err != nil {
		return err
	}

	app.Guard = auth.NewGuard(
		app.UserService,
		auth.WithRealm(app.Config.Realm),
		auth.WithChallengeMessage(app.Config.ChallengeMessage),
		auth.WithRecorder(app.MetricsRecorder),
	)
	return nil
}

// initializeHTTPLayer sets up handlers, router, and server
func (app *Application) initializeHTTPLayer() {
	app.HandlerSet = initializeHandlers(app.DB, app.UserCache, app.UserService)
	app.Router = setupRouter(app.Config, app.HandlerSet, app.Guard, app.MetricsRecorder)
	app.Server = createHTTPServer(app.Config, app.Router)
}

func (app *Application) closeInfrastructure() {
	if app.UserCache != nil {
		_ = app.UserCache.Close()
	}
	if app.DB != nil {
		_ = app.DB.Close()
	}
}

// Start serves HTTP until SIGINT/SIGTERM, then shuts everything down.
func (app *Application) Start() {
	m := graceful.NewManager()

	// Add jobs
	addServerRunningJob(m, app.Server)
	addServerShutdownJob(m, app.Server)
	addCacheShutdownJob(m, app.UserCache)
	addDatabaseShutdownJob(m, app.DB)

	// Wait for graceful shutdown
	<-m.Done()
}
