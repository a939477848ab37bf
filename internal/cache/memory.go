package cache

import (
	"context"
	"sync"
	"time"

	"github.com/go-authgate/basicgate/internal/core"
)

type entry[T any] struct {
	value     T
	expiresAt time.Time
}

func (e entry[T]) expired(now time.Time) bool {
	return !now.Before(e.expiresAt)
}

var _ core.Cache[struct{}] = (*MemoryCache[struct{}])(nil)

// MemoryCache is a process-local cache with lazy expiration.
// Expired entries are dropped on read and swept on every write.
// Suitable for single-instance deployments.
type MemoryCache[T any] struct {
	mu      sync.RWMutex
	entries map[string]entry[T]
}

// NewMemoryCache creates an empty memory cache.
func NewMemoryCache[T any]() *MemoryCache[T] {
	return &MemoryCache[T]{
		entries: make(map[string]entry[T]),
	}
}

// Get returns the cached value or ErrCacheMiss.
func (m *MemoryCache[T]) Get(_ context.Context, key string) (T, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok || e.expired(time.Now()) {
		var zero T
		return zero, ErrCacheMiss
	}
	return e.value, nil
}

// Set stores value under key for ttl. A non-positive ttl is a no-op.
func (m *MemoryCache[T]) Set(_ context.Context, key string, value T, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	now := time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()

	for k, e := range m.entries {
		if e.expired(now) {
			delete(m.entries, k)
		}
	}
	m.entries[key] = entry[T]{value: value, expiresAt: now.Add(ttl)}
	return nil
}

// Delete removes key from the cache.
func (m *MemoryCache[T]) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

// Len reports the number of stored entries, including expired ones not yet swept.
func (m *MemoryCache[T]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Close drops every entry.
func (m *MemoryCache[T]) Close() error {
	m.mu.Lock()
	m.entries = make(map[string]entry[T])
	m.mu.Unlock()
	return nil
}

// Health always succeeds for the memory cache.
func (m *MemoryCache[T]) Health(context.Context) error {
	return nil
}

// GetWithFetch implements cache-aside without stampede protection.
func (m *MemoryCache[T]) GetWithFetch(
	ctx context.Context,
	key string,
	ttl time.Duration,
	fetchFunc func(ctx context.Context, key string) (T, error),
) (T, error) {
	return getWithFetch[T](ctx, m, key, ttl, fetchFunc)
}

// getWithFetch is the shared cache-aside path: a failed Set does not fail the read.
func getWithFetch[T any](
	ctx context.Context,
	c core.Cache[T],
	key string,
	ttl time.Duration,
	fetchFunc func(ctx context.Context, key string) (T, error),
) (T, error) {
	if value, err := c.Get(ctx, key); err == nil {
		return value, nil
	}

	value, err := fetchFunc(ctx, key)
	if err != nil {
		var zero T
		return zero, err
	}

	_ = c.Set(ctx, key, value, ttl)
	return value, nil
}
