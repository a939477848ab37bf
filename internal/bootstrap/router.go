package bootstrap

import (
	"log"

	"github.com/go-authgate/basicgate/internal/auth"
	"github.com/go-authgate/basicgate/internal/config"
	"github.com/go-authgate/basicgate/internal/metrics"
	"github.com/go-authgate/basicgate/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// setupRouter configures the Gin router with all routes and middleware
func setupRouter(
	cfg *config.Config,
	h handlerSet,
	guard *auth.Guard,
	prometheusMetrics metrics.Recorder,
) *gin.Engine {
	// Setup Gin mode
	setupGinMode(cfg)
	r := gin.New()

	// Setup middleware
	r.Use(metrics.HTTPMetricsMiddleware(prometheusMetrics))
	r.Use(gin.Logger(), gin.Recovery())

	// Health check endpoint
	r.GET("/health", h.health.Check)

	// Setup metrics endpoint
	setupMetricsEndpoint(r, cfg)

	// Protected API
	api := r.Group("/api/v1")
	api.Use(middleware.BasicAuth(guard))
	{
		api.GET("/user", h.api.User)
		api.GET("/posts/update", h.api.PostsUpdate)

		admin := api.Group("/admin", h.requireAdmin)
		admin.PUT("/users/:id/active", h.api.SetUserActive)
	}

	// Log server startup info
	logServerStartup(cfg)

	return r
}

// setupMetricsEndpoint configures the Prometheus metrics endpoint
func setupMetricsEndpoint(r *gin.Engine, cfg *config.Config) {
	switch {
	case !cfg.MetricsEnabled:
		log.Printf("Prometheus metrics disabled")
	case cfg.MetricsToken != "":
		log.Printf("Prometheus metrics enabled at /metrics with Bearer token authentication")
		r.GET(
			"/metrics",
			middleware.MetricsAuthMiddleware(cfg.MetricsToken),
			gin.WrapH(promhttp.Handler()),
		)
	default:
		log.Printf("Prometheus metrics enabled at /metrics (no authentication)")
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
}

// setupGinMode sets Gin mode based on environment configuration
func setupGinMode(cfg *config.Config) {
	if gin.Mode() == gin.TestMode {
		return
	}
	mode := ginModeMap[cfg.IsProduction]
	gin.SetMode(mode)
	log.Printf("Gin mode: %s", ginModeLogMessage[cfg.IsProduction])
}

var ginModeMap = map[bool]string{
	true:  gin.ReleaseMode,
	false: gin.DebugMode,
}

var ginModeLogMessage = map[bool]string{
	true:  "Release (production)",
	false: "Debug (development)",
}

// logServerStartup logs server startup information
func logServerStartup(cfg *config.Config) {
	log.Printf("Authentication mode: %s", cfg.AuthMode)
	log.Printf("Basic auth realm: %q", cfg.Realm)
	log.Printf("BasicGate server starting on %s", cfg.ServerAddr)
	log.Printf("Protected API: %s/api/v1/", cfg.ServerAddr)
	log.Printf("Default user: admin (check logs for password if first run)")
}
