package bootstrap

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-authgate/basicgate/internal/config"
	"github.com/go-authgate/basicgate/internal/core"
	"github.com/go-authgate/basicgate/internal/models"
	"github.com/go-authgate/basicgate/internal/store"

	"github.com/appleboy/graceful"
)

// createHTTPServer creates the HTTP server instance
func createHTTPServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// addServerRunningJob adds the HTTP server running job
func addServerRunningJob(m *graceful.Manager, srv *http.Server) {
	m.AddRunningJob(func(ctx context.Context) error {
		errCh := make(chan error, 1)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()

		select {
		case err := <-errCh:
			log.Printf("Failed to start server: %v", err)
			return err
		case <-ctx.Done():
			return nil
		}
	})
}

// addServerShutdownJob adds HTTP server shutdown handler
func addServerShutdownJob(m *graceful.Manager, srv *http.Server) {
	m.AddShutdownJob(func() error {
		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server forced to shutdown: %v", err)
			return err
		}

		log.Println("Server exited")
		return nil
	})
}

// addCacheShutdownJob closes the user cache on shutdown
func addCacheShutdownJob(m *graceful.Manager, userCache core.Cache[models.User]) {
	if userCache == nil {
		return
	}

	m.AddShutdownJob(func() error {
		if err := userCache.Close(); err != nil {
			log.Printf("Error closing user cache: %v", err)
			return err
		}
		log.Println("User cache closed")
		return nil
	})
}

// addDatabaseShutdownJob closes the database connection on shutdown
func addDatabaseShutdownJob(m *graceful.Manager, db *store.Store) {
	if db == nil {
		return
	}

	m.AddShutdownJob(func() error {
		log.Println("Closing database connection...")
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
			return err
		}
		log.Println("Database connection closed")
		return nil
	})
}
