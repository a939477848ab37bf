package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-authgate/basicgate/internal/client"
	"github.com/go-authgate/basicgate/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAPIConfig(url string) *config.Config {
	return &config.Config{
		HTTPAPIURL:           url,
		HTTPAPITimeout:       5 * time.Second,
		HTTPAPIAuthMode:      config.HTTPAPIAuthModeNone,
		HTTPAPIMaxRetries:    2,
		HTTPAPIRetryDelay:    time.Millisecond,
		HTTPAPIMaxRetryDelay: 5 * time.Millisecond,
	}
}

func newProvider(t *testing.T, cfg *config.Config) *HTTPAPIAuthProvider {
	t.Helper()
	retryClient, err := client.NewDirectoryClient(cfg)
	require.NoError(t, err)
	return NewHTTPAPIAuthProvider(cfg.HTTPAPIURL, retryClient)
}

func TestHTTPAPIAuthProvider_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req APIAuthRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "bob", req.Username)
		assert.Equal(t, "right", req.Password)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(APIAuthResponse{
			Success:  true,
			UserID:   "ext-bob",
			Email:    "bob@example.com",
			FullName: "Bob",
		})
	}))
	defer server.Close()

	res, err := newProvider(t, testAPIConfig(server.URL)).
		Authenticate(context.Background(), "bob", "right")
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, "bob", res.Username)
	assert.Equal(t, "ext-bob", res.ExternalID)
	assert.Equal(t, "bob@example.com", res.Email)
}

func TestHTTPAPIAuthProvider_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
		wantMsg string
	}{
		{
			name:    "success false",
			status:  http.StatusOK,
			body:    `{"success":false,"message":"bad password"}`,
			wantErr: ErrHTTPAPIAuthFailed,
		},
		{
			name:    "401",
			status:  http.StatusUnauthorized,
			body:    `{"success":false}`,
			wantErr: ErrHTTPAPIAuthFailed,
		},
		{
			name:    "missing user id",
			status:  http.StatusOK,
			body:    `{"success":true}`,
			wantErr: ErrHTTPAPIInvalidResp,
			wantMsg: "missing user_id",
		},
		{
			name:    "non json",
			status:  http.StatusOK,
			body:    `<html>oops</html>`,
			wantErr: ErrHTTPAPIInvalidResp,
		},
		{
			name:    "400 with message",
			status:  http.StatusBadRequest,
			body:    `{"message":"username required"}`,
			wantErr: ErrHTTPAPIInvalidResp,
			wantMsg: "HTTP 400 - username required",
		},
		{
			name:    "400 long body truncated",
			status:  http.StatusBadRequest,
			body:    strings.Repeat("x", 500),
			wantErr: ErrHTTPAPIInvalidResp,
			wantMsg: "...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := newProvider(t, testAPIConfig(server.URL)).
				Authenticate(context.Background(), "bob", "pw")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestHTTPAPIAuthProvider_RetriesServerErrors(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req APIAuthRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username != "bob" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if atomic.AddInt32(&attempts, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(APIAuthResponse{Success: true, UserID: "ext-bob"})
	}))
	defer server.Close()

	res, err := newProvider(t, testAPIConfig(server.URL)).
		Authenticate(context.Background(), "bob", "right")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, int32(2), atomic.LoadInt32(&attempts))
}

func TestHTTPAPIAuthProvider_ConnectionError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := newProvider(t, testAPIConfig(url)).
		Authenticate(context.Background(), "bob", "right")
	assert.ErrorIs(t, err, ErrHTTPAPIConnection)
}

func TestHTTPAPIAuthProvider_SimpleSigned(t *testing.T) {
	const secret = "directory-secret"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Directory-Key") != secret {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"success":false,"message":"bad key"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(APIAuthResponse{Success: true, UserID: "ext-bob"})
	}))
	defer server.Close()

	cfg := testAPIConfig(server.URL)
	cfg.HTTPAPIAuthMode = config.HTTPAPIAuthModeSimple
	cfg.HTTPAPIAuthHeader = "X-Directory-Key"
	cfg.HTTPAPIAuthSecret = secret

	res, err := newProvider(t, cfg).Authenticate(context.Background(), "bob", "right")
	require.NoError(t, err)
	assert.True(t, res.Success)

	cfg.HTTPAPIAuthSecret = "wrong-secret"
	_, err = newProvider(t, cfg).Authenticate(context.Background(), "bob", "right")
	assert.ErrorIs(t, err, ErrHTTPAPIAuthFailed)
}

func TestHTTPAPIAuthProvider_HMACSigned(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, h := range []string{"X-Signature", "X-Timestamp", "X-Nonce"} {
			if r.Header.Get(h) == "" {
				w.WriteHeader(http.StatusForbidden)
				return
			}
		}
		_ = json.NewEncoder(w).Encode(APIAuthResponse{Success: true, UserID: "ext-bob"})
	}))
	defer server.Close()

	cfg := testAPIConfig(server.URL)
	res, err := newProvider(t, cfg).Authenticate(context.Background(), "bob", "right")
	require.ErrorIs(t, err, ErrHTTPAPIAuthFailed, "unsigned requests are refused")
	assert.Nil(t, res)

	cfg.HTTPAPIAuthMode = config.HTTPAPIAuthModeHMAC
	cfg.HTTPAPIAuthSecret = "directory-secret"
	res, err = newProvider(t, cfg).Authenticate(context.Background(), "bob", "right")
	require.NoError(t, err)
	assert.True(t, res.Success)
}
