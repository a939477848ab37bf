package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-authgate/basicgate/internal/auth"
	"github.com/go-authgate/basicgate/internal/config"
	"github.com/go-authgate/basicgate/internal/core"
	"github.com/go-authgate/basicgate/internal/metrics"
	"github.com/go-authgate/basicgate/internal/models"
	"github.com/go-authgate/basicgate/internal/store"
)

var (
	// ErrInvalidCredentials is returned for unknown users, wrong passwords
	// and every credential rejected by an external directory.
	ErrInvalidCredentials = auth.ErrInvalidCredentials
	ErrUserNotFound       = errors.New("user not found")
	ErrAuthProviderFailed = errors.New("authentication provider failed")
	ErrUserSyncFailed     = errors.New("failed to sync user from external provider")
)

var _ core.UserDirectory = (*UserService)(nil)

// UserService is the user directory consulted by the Basic auth guard.
// Existing users authenticate against the backend recorded in their
// auth_source; unknown users are tried against the HTTP API in http_api mode.
type UserService struct {
	store           *store.Store
	users           *CachedUserStore
	localProvider   core.AuthProvider
	httpAPIProvider core.AuthProvider
	authMode        string
	metrics         core.Recorder
	now             func() time.Time
}

func NewUserService(
	s *store.Store,
	users *CachedUserStore,
	localProvider core.AuthProvider,
	httpAPIProvider core.AuthProvider,
	authMode string,
	m core.Recorder,
) *UserService {
	if m == nil {
		m = metrics.NewNoopMetrics()
	}
	return &UserService{
		store:           s,
		users:           users,
		localProvider:   localProvider,
		httpAPIProvider: httpAPIProvider,
		authMode:        authMode,
		metrics:         m,
		now:             time.Now,
	}
}

// Login implements core.UserDirectory. Rejected credentials are reported as
// ErrInvalidCredentials; any other error means the directory could not decide.
func (s *UserService) Login(ctx context.Context, username, password string) (*core.LoginResult, error) {
	if username == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.authenticate(ctx, username, password)
	if err != nil {
		source := s.authMode
		if user != nil {
			source = user.AuthSource
		}
		if errors.Is(err, ErrInvalidCredentials) {
			s.metrics.RecordLogin(source, false)
		}
		return nil, err
	}

	if err := s.store.UpdateLastLogin(ctx, user.ID, s.now()); err != nil {
		s.metrics.RecordDatabaseQueryError("update_last_login")
		log.Printf("[Directory] Failed to record login for user=%s: %v", user.Username, err)
	}

	s.metrics.RecordLogin(user.AuthSource, true)
	return &core.LoginResult{
		Success:  true,
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		FullName: user.FullName,
		Source:   user.AuthSource,
	}, nil
}

func (s *UserService) authenticate(ctx context.Context, username, password string) (*models.User, error) {
	existingUser, err := s.users.GetUserByUsername(ctx, username)
	switch {
	case err == nil:
		return s.authenticateExistingUser(ctx, existingUser, password)
	case !errors.Is(err, store.ErrRecordNotFound):
		s.metrics.RecordDatabaseQueryError("get_user_by_username")
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if s.authMode == config.AuthModeHTTPAPI {
		return s.authenticateAndCreateExternalUser(ctx, username, password)
	}

	// Unknown local user: still pay for a hash comparison.
	if s.localProvider != nil {
		_, _ = s.localProvider.Authenticate(ctx, username, password)
	}
	return nil, ErrInvalidCredentials
}

// authenticateExistingUser authenticates based on user's auth_source
func (s *UserService) authenticateExistingUser(
	ctx context.Context,
	user *models.User,
	password string,
) (*models.User, error) {
	if !user.IsActive {
		return user, ErrInvalidCredentials
	}

	if user.IsExternal() {
		if s.httpAPIProvider == nil {
			return user, fmt.Errorf("%w: HTTP API provider not configured", ErrAuthProviderFailed)
		}
		result, err := s.callExternal(ctx, user.Username, password)
		if err != nil {
			return user, err
		}

		// Sync user data on successful external auth
		updated, syncErr := s.syncExternalUser(ctx, result)
		if syncErr != nil {
			log.Printf("[Directory] Sync failed for user=%s: %v", user.Username, syncErr)
			return user, nil
		}
		return updated, nil
	}

	if s.localProvider == nil {
		return user, fmt.Errorf("%w: local provider not configured", ErrAuthProviderFailed)
	}
	result, err := s.localProvider.Authenticate(ctx, user.Username, password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return user, ErrInvalidCredentials
		}
		return user, fmt.Errorf("%w: %v", ErrAuthProviderFailed, err)
	}
	if result == nil || !result.Success {
		return user, ErrInvalidCredentials
	}
	return user, nil
}

// authenticateAndCreateExternalUser tries external auth and creates new user
func (s *UserService) authenticateAndCreateExternalUser(
	ctx context.Context,
	username, password string,
) (*models.User, error) {
	if s.httpAPIProvider == nil {
		return nil, fmt.Errorf("%w: HTTP API provider not configured", ErrAuthProviderFailed)
	}

	result, err := s.callExternal(ctx, username, password)
	if err != nil {
		return nil, err
	}

	user, err := s.syncExternalUser(ctx, result)
	if err != nil {
		log.Printf("[Directory] Failed to create user=%s: %v", username, err)
		return nil, fmt.Errorf("%w: %v", ErrUserSyncFailed, err)
	}

	log.Printf("[Directory] New external user created: %s", username)
	return user, nil
}

// callExternal maps provider failures onto the directory's two outcomes:
// rejected credentials, or an unavailable directory.
func (s *UserService) callExternal(
	ctx context.Context,
	username, password string,
) (*core.AuthResult, error) {
	start := time.Now()
	result, err := s.httpAPIProvider.Authenticate(ctx, username, password)
	s.metrics.RecordExternalAPICall(s.httpAPIProvider.Name(), time.Since(start))

	if err != nil {
		if errors.Is(err, auth.ErrHTTPAPIAuthFailed) || errors.Is(err, auth.ErrInvalidCredentials) {
			return nil, ErrInvalidCredentials
		}
		kind := externalFailureKind(err)
		s.metrics.RecordExternalAPIError(s.httpAPIProvider.Name(), kind)
		log.Printf("[Directory] External directory failed (%s) user=%s: %v", kind, username, err)
		return nil, fmt.Errorf("%w: %v", ErrAuthProviderFailed, err)
	}
	if result == nil || !result.Success {
		return nil, ErrInvalidCredentials
	}
	return result, nil
}

func externalFailureKind(err error) string {
	switch {
	case errors.Is(err, auth.ErrHTTPAPIConnection):
		return "unreachable"
	case errors.Is(err, auth.ErrHTTPAPIInvalidResp):
		return "bad_response"
	default:
		return "other"
	}
}

// syncExternalUser creates or updates local user record from external auth result
func (s *UserService) syncExternalUser(
	ctx context.Context,
	result *core.AuthResult,
) (*models.User, error) {
	user, err := s.store.UpsertExternalUser(
		ctx,
		result.Username,
		result.ExternalID,
		models.AuthSourceHTTPAPI,
		result.Email,
		result.FullName,
	)
	if err != nil {
		if !errors.Is(err, store.ErrUsernameConflict) {
			s.metrics.RecordDatabaseQueryError("upsert_external_user")
		}
		return nil, fmt.Errorf("failed to upsert external user: %w", err)
	}

	s.users.Invalidate(ctx, user.Username)
	return user, nil
}

// GetUserByID reads straight from the store so that fields updated on every
// login, such as LastLoginAt, are current.
func (s *UserService) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		if !errors.Is(err, store.ErrRecordNotFound) {
			s.metrics.RecordDatabaseQueryError("get_user_by_id")
		}
		return nil, ErrUserNotFound
	}
	return user, nil
}

// SetUserActive enables or disables an account and drops its cached entry so
// the change applies to the next login on every instance sharing the cache.
func (s *UserService) SetUserActive(ctx context.Context, id string, active bool) (*models.User, error) {
	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.store.SetUserActive(ctx, id, active); err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.metrics.RecordDatabaseQueryError("set_user_active")
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	s.users.Invalidate(ctx, user.Username)

	log.Printf("[Directory] User %s active=%t", user.Username, active)
	user.IsActive = active
	return user, nil
}
