package bootstrap

import (
	"context"
	"fmt"
	"log"

	"github.com/go-authgate/basicgate/internal/cache"
	"github.com/go-authgate/basicgate/internal/config"
	"github.com/go-authgate/basicgate/internal/core"
	"github.com/go-authgate/basicgate/internal/metrics"
	"github.com/go-authgate/basicgate/internal/models"
)

const userCacheKeyPrefix = "basicgate:users:"

// initializeMetrics initializes Prometheus metrics
func initializeMetrics(cfg *config.Config) metrics.Recorder {
	prometheusMetrics := metrics.Init(cfg.MetricsEnabled)
	if cfg.MetricsEnabled {
		log.Println("Prometheus metrics initialized")
	} else {
		log.Println("Metrics disabled (using noop implementation)")
	}
	return prometheusMetrics
}

// initializeUserCache initializes the user cache (always enabled, defaults to memory)
func initializeUserCache(ctx context.Context, cfg *config.Config) (core.Cache[models.User], error) {
	if cfg.CacheInitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.CacheInitTimeout)
		defer cancel()
	}

	redisOpts := cache.RedisOptions{
		Addr:      cfg.RedisAddr,
		Password:  cfg.RedisPassword,
		DB:        cfg.RedisDB,
		KeyPrefix: userCacheKeyPrefix,
	}

	switch cfg.UserCacheType {
	case config.UserCacheTypeRedisAside:
		c, err := cache.NewRueidisAsideCache[models.User](ctx, cache.AsideOptions{
			RedisOptions: redisOpts,
			ClientTTL:    cfg.UserCacheClientTTL,
			SizePerConn:  cfg.UserCacheSizePerConn,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize redis-aside user cache: %w", err)
		}
		log.Printf(
			"User cache: redis-aside (addr=%s, db=%d, ttl=%s, client_ttl=%s, cache_size_per_conn=%dMB)",
			cfg.RedisAddr,
			cfg.RedisDB,
			cfg.UserCacheTTL,
			cfg.UserCacheClientTTL,
			cfg.UserCacheSizePerConn,
		)
		return c, nil

	case config.UserCacheTypeRedis:
		c, err := cache.NewRueidisCache[models.User](ctx, redisOpts)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize redis user cache: %w", err)
		}
		log.Printf("User cache: redis (addr=%s, db=%d, ttl=%s)", cfg.RedisAddr, cfg.RedisDB, cfg.UserCacheTTL)
		return c, nil

	default: // memory
		log.Printf("User cache: memory (single instance only, ttl=%s)", cfg.UserCacheTTL)
		return cache.NewMemoryCache[models.User](), nil
	}
}
