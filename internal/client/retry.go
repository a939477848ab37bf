package client

import (
	"fmt"

	"github.com/go-authgate/basicgate/internal/config"

	httpclient "github.com/appleboy/go-httpclient"
	retry "github.com/appleboy/go-httpretry"
)

const defaultAuthHeader = "X-API-Secret"

// NewDirectoryClient builds the HTTP client used to reach an external user
// directory. Requests are signed according to HTTP_API_AUTH_MODE and retried
// on network errors and 5xx/429 responses.
func NewDirectoryClient(cfg *config.Config) (*retry.Client, error) {
	switch cfg.HTTPAPIAuthMode {
	case httpclient.AuthModeSimple, httpclient.AuthModeHMAC:
		if cfg.HTTPAPIAuthSecret == "" {
			return nil, fmt.Errorf("secret is required for %s request signing", cfg.HTTPAPIAuthMode)
		}
	}

	authMode := cfg.HTTPAPIAuthMode
	if authMode == "" {
		authMode = httpclient.AuthModeNone
	}

	headerName := cfg.HTTPAPIAuthHeader
	if headerName == "" {
		headerName = defaultAuthHeader
	}

	authClient, err := httpclient.NewAuthClient(
		authMode,
		cfg.HTTPAPIAuthSecret,
		httpclient.WithTimeout(cfg.HTTPAPITimeout),
		httpclient.WithHeaderName(headerName),
		httpclient.WithInsecureSkipVerify(cfg.HTTPAPIInsecureSkipVerify),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth client: %w", err)
	}

	retryClient, err := retry.NewRealtimeClient(
		retry.WithHTTPClient(authClient),
		retry.WithMaxRetries(cfg.HTTPAPIMaxRetries),
		retry.WithInitialRetryDelay(cfg.HTTPAPIRetryDelay),
		retry.WithMaxRetryDelay(cfg.HTTPAPIMaxRetryDelay),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create retry client: %w", err)
	}

	return retryClient, nil
}
