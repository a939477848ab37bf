package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-authgate/basicgate/internal/core"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/rueidisaside"
)

var _ core.Cache[struct{}] = (*RueidisAsideCache[struct{}])(nil)

// AsideOptions configures the client-side cache of a RueidisAsideCache.
type AsideOptions struct {
	RedisOptions
	ClientTTL   time.Duration // local copy lifetime; Redis invalidates it earlier on change
	SizePerConn int           // client-side cache size per connection, in MB
}

// RueidisAsideCache keeps a local copy of hot keys and lets Redis invalidate
// it over RESP3. Concurrent misses for the same key across instances are
// collapsed into a single fetch by rueidisaside's lock.
type RueidisAsideCache[T any] struct {
	client    rueidisaside.CacheAsideClient
	keyPrefix string
	clientTTL time.Duration
}

// NewRueidisAsideCache connects to Redis with client-side caching enabled.
func NewRueidisAsideCache[T any](ctx context.Context, opts AsideOptions) (*RueidisAsideCache[T], error) {
	client, err := rueidisaside.NewClient(rueidisaside.ClientOption{
		ClientOption: rueidis.ClientOption{
			InitAddress:       []string{opts.Addr},
			Password:          opts.Password,
			SelectDB:          opts.DB,
			CacheSizeEachConn: opts.SizePerConn * 1024 * 1024,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create rueidisaside client: %w", err)
	}

	if err := client.Client().Do(ctx, client.Client().B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &RueidisAsideCache[T]{
		client:    client,
		keyPrefix: opts.KeyPrefix,
		clientTTL: opts.ClientTTL,
	}, nil
}

func (r *RueidisAsideCache[T]) key(k string) string {
	return r.keyPrefix + k
}

// Get reads through the client-side cache. A missing key is ErrCacheMiss and
// is not filled.
func (r *RueidisAsideCache[T]) Get(ctx context.Context, key string) (T, error) {
	var zero T

	str, err := r.client.Get(ctx, r.clientTTL, r.key(key), func(context.Context, string) (string, error) {
		return "", ErrCacheMiss
	})
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return zero, ErrCacheMiss
		}
		return zero, fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}
	if str == "" {
		return zero, ErrCacheMiss
	}
	return decode[T](str)
}

// GetWithFetch loads key through rueidisaside. On a miss fetchFunc runs once
// per key while other callers wait for its result; errors from fetchFunc are
// returned unchanged and nothing is stored.
func (r *RueidisAsideCache[T]) GetWithFetch(
	ctx context.Context,
	key string,
	ttl time.Duration,
	fetchFunc func(ctx context.Context, key string) (T, error),
) (T, error) {
	var zero T
	var fetchErr error

	str, err := r.client.Get(ctx, ttl, r.key(key), func(ctx context.Context, _ string) (string, error) {
		value, err := fetchFunc(ctx, key)
		if err != nil {
			fetchErr = err
			return "", err
		}
		encoded, err := json.Marshal(value)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidValue, err)
		}
		return string(encoded), nil
	})
	if err != nil {
		if fetchErr != nil && errors.Is(err, fetchErr) {
			return zero, fetchErr
		}
		return zero, fmt.Errorf("failed to get with fetch: %w", err)
	}
	return decode[T](str)
}

// Set stores value with a plain SET; tracking clients drop their copies.
func (r *RueidisAsideCache[T]) Set(ctx context.Context, key string, value T, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}

	cmd := r.client.Client().B().Set().
		Key(r.key(key)).
		Value(string(encoded)).
		Ex(ttl).
		Build()
	if err := r.client.Client().Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}
	return nil
}

// Delete removes key from Redis and, through invalidation, from every client.
func (r *RueidisAsideCache[T]) Delete(ctx context.Context, key string) error {
	cmd := r.client.Client().B().Del().Key(r.key(key)).Build()
	if err := r.client.Client().Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}
	return nil
}

// Close closes the Redis connection.
func (r *RueidisAsideCache[T]) Close() error {
	r.client.Close()
	return nil
}

// Health pings Redis.
func (r *RueidisAsideCache[T]) Health(ctx context.Context) error {
	cmd := r.client.Client().B().Ping().Build()
	if err := r.client.Client().Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}
	return nil
}

func decode[T any](str string) (T, error) {
	var value T
	if err := json.Unmarshal([]byte(str), &value); err != nil {
		var zero T
		return zero, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	return value, nil
}
