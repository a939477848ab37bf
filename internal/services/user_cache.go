package services

import (
	"context"
	"log"
	"time"

	"github.com/go-authgate/basicgate/internal/core"
	"github.com/go-authgate/basicgate/internal/models"
	"github.com/go-authgate/basicgate/internal/store"
)

const userCacheKeyPrefix = "user:name:"

// CachedUserStore serves username lookups from a cache in front of the store.
// Misses, including unknown users, are not cached. Password hashes never
// enter the cache: returned users have an empty PasswordHash, and local
// password checks read the store directly.
type CachedUserStore struct {
	store *store.Store
	cache core.Cache[models.User]
	ttl   time.Duration
}

func NewCachedUserStore(s *store.Store, c core.Cache[models.User], ttl time.Duration) *CachedUserStore {
	return &CachedUserStore{store: s, cache: c, ttl: ttl}
}

// GetUserByUsername returns store.ErrRecordNotFound for unknown users.
func (c *CachedUserStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := c.cache.GetWithFetch(
		ctx,
		userCacheKeyPrefix+username,
		c.ttl,
		func(ctx context.Context, _ string) (models.User, error) {
			u, err := c.store.GetUserByUsername(ctx, username)
			if err != nil {
				return models.User{}, err
			}
			u.PasswordHash = ""
			return *u, nil
		},
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Invalidate drops the cached entry for username.
func (c *CachedUserStore) Invalidate(ctx context.Context, username string) {
	if err := c.cache.Delete(ctx, userCacheKeyPrefix+username); err != nil {
		log.Printf("[Directory] Failed to invalidate cache for user=%s: %v", username, err)
	}
}
