package bootstrap

import (
	"fmt"
	"log"

	"github.com/go-authgate/basicgate/internal/auth"
	"github.com/go-authgate/basicgate/internal/client"
	"github.com/go-authgate/basicgate/internal/config"
	"github.com/go-authgate/basicgate/internal/core"
)

// initializeHTTPAPIAuthProvider creates the HTTP API auth provider when
// AUTH_MODE=http_api. It returns a nil interface otherwise.
func initializeHTTPAPIAuthProvider(cfg *config.Config) (core.AuthProvider, error) {
	if cfg.AuthMode != config.AuthModeHTTPAPI {
		return nil, nil
	}

	retryClient, err := client.NewDirectoryClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP API auth client: %w", err)
	}
	log.Printf("HTTP API authentication enabled: %s (signing=%s)", cfg.HTTPAPIURL, cfg.HTTPAPIAuthMode)
	return auth.NewHTTPAPIAuthProvider(cfg.HTTPAPIURL, retryClient), nil
}
