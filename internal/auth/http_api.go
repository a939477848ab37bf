package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-authgate/basicgate/internal/core"
	"github.com/go-authgate/basicgate/internal/models"

	retry "github.com/appleboy/go-httpretry"
)

// maxResponseBody bounds how much of the directory response is read.
const maxResponseBody = 1 << 20

var _ core.AuthProvider = (*HTTPAPIAuthProvider)(nil)

// HTTPAPIAuthProvider delegates credential checks to an external user directory over HTTP.
type HTTPAPIAuthProvider struct {
	url    string
	client *retry.Client
}

// NewHTTPAPIAuthProvider posts credentials to url through client, which is
// expected to sign and retry requests.
func NewHTTPAPIAuthProvider(url string, client *retry.Client) *HTTPAPIAuthProvider {
	return &HTTPAPIAuthProvider{url: url, client: client}
}

// APIAuthRequest is the request payload sent to external API
type APIAuthRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// APIAuthResponse is the expected response from external API
type APIAuthResponse struct {
	Success  bool   `json:"success"`
	UserID   string `json:"user_id,omitempty"`
	Email    string `json:"email,omitempty"`
	FullName string `json:"full_name,omitempty"`
	Message  string `json:"message,omitempty"`
}

// Authenticate posts the credentials to the directory and interprets its verdict.
// A 401/403 or success=false is reported as ErrHTTPAPIAuthFailed.
func (p *HTTPAPIAuthProvider) Authenticate(
	ctx context.Context,
	username, password string,
) (*core.AuthResult, error) {
	payload, err := json.Marshal(APIAuthRequest{
		Username: username,
		Password: password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := p.client.Post(
		ctx,
		p.url,
		retry.WithBody("application/json", bytes.NewReader(payload)),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHTTPAPIConnection, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response", ErrHTTPAPIInvalidResp)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, ErrHTTPAPIAuthFailed
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var authResp APIAuthResponse
		if err := json.Unmarshal(body, &authResp); err == nil && authResp.Message != "" {
			return nil, fmt.Errorf(
				"%w: HTTP %d - %s",
				ErrHTTPAPIInvalidResp,
				resp.StatusCode,
				authResp.Message,
			)
		}
		// Limit body preview to avoid overwhelming logs
		preview := string(body)
		if len(preview) > 200 {
			preview = preview[:200] + "..."
		}
		return nil, fmt.Errorf(
			"%w: HTTP %d - %s",
			ErrHTTPAPIInvalidResp,
			resp.StatusCode,
			preview,
		)
	}

	var authResp APIAuthResponse
	if err := json.Unmarshal(body, &authResp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHTTPAPIInvalidResp, err)
	}

	if !authResp.Success {
		return nil, ErrHTTPAPIAuthFailed
	}

	if authResp.UserID == "" {
		return nil, fmt.Errorf(
			"%w: external API returned success=true but missing user_id",
			ErrHTTPAPIInvalidResp,
		)
	}

	return &core.AuthResult{
		Username:   username,
		ExternalID: authResp.UserID,
		Email:      authResp.Email,
		FullName:   authResp.FullName,
		Success:    true,
	}, nil
}

// Name returns provider name for logging
func (p *HTTPAPIAuthProvider) Name() string {
	return models.AuthSourceHTTPAPI
}
