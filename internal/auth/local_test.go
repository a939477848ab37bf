package auth

import (
	"context"
	"testing"

	"github.com/go-authgate/basicgate/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type mapLookup map[string]*models.User

func (m mapLookup) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	if u, ok := m[username]; ok {
		return u, nil
	}
	return nil, ErrInvalidCredentials
}

func hash(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func TestLocalAuthProvider_Authenticate(t *testing.T) {
	users := mapLookup{
		"bob": {
			Username:     "bob",
			Email:        "bob@example.com",
			PasswordHash: hash(t, "right"),
			IsActive:     true,
		},
		"disabled": {
			Username:     "disabled",
			PasswordHash: hash(t, "right"),
			IsActive:     false,
		},
		"external": {
			Username:   "external",
			IsActive:   true,
			AuthSource: models.AuthSourceHTTPAPI,
		},
	}
	p := NewLocalAuthProvider(users)
	ctx := context.Background()

	t.Run("valid password", func(t *testing.T) {
		res, err := p.Authenticate(ctx, "bob", "right")
		require.NoError(t, err)
		assert.True(t, res.Success)
		assert.Equal(t, "bob", res.Username)
		assert.Equal(t, "bob@example.com", res.Email)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := p.Authenticate(ctx, "bob", "wrong")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := p.Authenticate(ctx, "nobody", "right")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("inactive user", func(t *testing.T) {
		_, err := p.Authenticate(ctx, "disabled", "right")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("user without local password", func(t *testing.T) {
		_, err := p.Authenticate(ctx, "external", "")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestLocalAuthProvider_Name(t *testing.T) {
	assert.Equal(t, "local", NewLocalAuthProvider(mapLookup{}).Name())
}
