package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Authentication mode constants
const (
	AuthModeLocal   = "local"
	AuthModeHTTPAPI = "http_api"
)

// Database driver constants
const (
	DatabaseDriverSQLite   = "sqlite"
	DatabaseDriverPostgres = "postgres"
)

// User cache type constants
const (
	UserCacheTypeMemory = "memory"
	UserCacheTypeRedis  = "redis"
	// UserCacheTypeRedisAside adds rueidis client-side caching with
	// server-assisted invalidation on top of Redis.
	UserCacheTypeRedisAside = "redis-aside"
)

// HTTP API request signing modes
const (
	HTTPAPIAuthModeNone   = "none"
	HTTPAPIAuthModeSimple = "simple"
	HTTPAPIAuthModeHMAC   = "hmac"
)

// Challenge defaults sent with every 401 response.
const (
	DefaultRealm            = "del.icio.us API"
	DefaultChallengeMessage = "Use of the API calls requires authentication."
)

type Config struct {
	// Server settings
	ServerAddr   string
	IsProduction bool

	// Challenge settings
	Realm            string
	ChallengeMessage string

	// Database
	DatabaseDriver       string // "sqlite" or "postgres"
	DatabaseDSN          string
	DefaultAdminPassword string // random when empty

	// Authentication
	AuthMode string // "local" or "http_api"

	// HTTP API directory
	HTTPAPIURL                string
	HTTPAPITimeout            time.Duration
	HTTPAPIInsecureSkipVerify bool
	HTTPAPIAuthMode           string // "none", "simple", or "hmac"
	HTTPAPIAuthSecret         string
	HTTPAPIAuthHeader         string // header name for simple mode (default: "X-API-Secret")
	HTTPAPIMaxRetries         int
	HTTPAPIRetryDelay         time.Duration
	HTTPAPIMaxRetryDelay      time.Duration

	// User cache
	UserCacheType        string // "memory", "redis" or "redis-aside"
	UserCacheTTL         time.Duration
	UserCacheClientTTL   time.Duration // redis-aside local cache TTL
	UserCacheSizePerConn int           // redis-aside client cache size in MB

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Metrics
	MetricsEnabled bool
	MetricsToken   string // Bearer token for /metrics, empty disables auth

	// Startup timeouts
	DBInitTimeout    time.Duration
	CacheInitTimeout time.Duration
}

func Load() *Config {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	driver := getEnv("DATABASE_DRIVER", DatabaseDriverSQLite)
	var dsn string
	if driver == DatabaseDriverSQLite {
		dsn = getEnv("DATABASE_DSN", getEnv("DATABASE_PATH", "basicgate.db"))
	} else {
		dsn = getEnv("DATABASE_DSN", "")
	}

	return &Config{
		ServerAddr:   getEnv("SERVER_ADDR", ":8080"),
		IsProduction: getEnv("ENVIRONMENT", "") == "production",

		Realm:            getEnv("AUTH_REALM", DefaultRealm),
		ChallengeMessage: getEnv("AUTH_CHALLENGE_MESSAGE", DefaultChallengeMessage),

		DatabaseDriver:       driver,
		DatabaseDSN:          dsn,
		DefaultAdminPassword: getEnv("DEFAULT_ADMIN_PASSWORD", ""),

		AuthMode: getEnv("AUTH_MODE", AuthModeLocal),

		HTTPAPIURL:                getEnv("HTTP_API_URL", ""),
		HTTPAPITimeout:            getEnvDuration("HTTP_API_TIMEOUT", 10*time.Second),
		HTTPAPIInsecureSkipVerify: getEnvBool("HTTP_API_INSECURE_SKIP_VERIFY", false),
		HTTPAPIAuthMode:           getEnv("HTTP_API_AUTH_MODE", HTTPAPIAuthModeNone),
		HTTPAPIAuthSecret:         getEnv("HTTP_API_AUTH_SECRET", ""),
		HTTPAPIAuthHeader:         getEnv("HTTP_API_AUTH_HEADER", "X-API-Secret"),
		HTTPAPIMaxRetries:         getEnvInt("HTTP_API_MAX_RETRIES", 3),
		HTTPAPIRetryDelay:         getEnvDuration("HTTP_API_RETRY_DELAY", 1*time.Second),
		HTTPAPIMaxRetryDelay:      getEnvDuration("HTTP_API_MAX_RETRY_DELAY", 10*time.Second),

		UserCacheType: getEnv("USER_CACHE_TYPE", UserCacheTypeMemory),
		UserCacheTTL:  getEnvDuration("USER_CACHE_TTL", 5*time.Minute),

		UserCacheClientTTL:   getEnvDuration("USER_CACHE_CLIENT_TTL", 30*time.Second),
		UserCacheSizePerConn: getEnvInt("USER_CACHE_SIZE_PER_CONN", 32),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		MetricsEnabled: getEnvBool("METRICS_ENABLED", false),
		MetricsToken:   getEnv("METRICS_TOKEN", ""),

		DBInitTimeout:    getEnvDuration("DB_INIT_TIMEOUT", 30*time.Second),
		CacheInitTimeout: getEnvDuration("CACHE_INIT_TIMEOUT", 5*time.Second),
	}
}

// Validate checks enum-valued settings and mode-specific requirements.
func (c *Config) Validate() error {
	switch c.AuthMode {
	case AuthModeLocal:
	case AuthModeHTTPAPI:
		if c.HTTPAPIURL == "" {
			return errors.New("HTTP_API_URL is required when AUTH_MODE=http_api")
		}
	default:
		return fmt.Errorf("invalid AUTH_MODE value: %q (must be one of: local, http_api)", c.AuthMode)
	}

	switch c.HTTPAPIAuthMode {
	case HTTPAPIAuthModeNone, "":
	case HTTPAPIAuthModeSimple, HTTPAPIAuthModeHMAC:
		if c.AuthMode == AuthModeHTTPAPI && c.HTTPAPIAuthSecret == "" {
			return fmt.Errorf(
				"HTTP_API_AUTH_SECRET is required when HTTP_API_AUTH_MODE=%s",
				c.HTTPAPIAuthMode,
			)
		}
	default:
		return fmt.Errorf(
			"invalid HTTP_API_AUTH_MODE value: %q (must be one of: none, simple, hmac)",
			c.HTTPAPIAuthMode,
		)
	}

	if c.DatabaseDriver != DatabaseDriverSQLite && c.DatabaseDriver != DatabaseDriverPostgres {
		return fmt.Errorf(
			"invalid DATABASE_DRIVER value: %q (must be one of: sqlite, postgres)",
			c.DatabaseDriver,
		)
	}

	switch c.UserCacheType {
	case UserCacheTypeMemory, UserCacheTypeRedis:
	case UserCacheTypeRedisAside:
		if c.UserCacheSizePerConn <= 0 {
			return fmt.Errorf(
				"USER_CACHE_SIZE_PER_CONN must be positive, got %d",
				c.UserCacheSizePerConn,
			)
		}
	default:
		return fmt.Errorf(
			"invalid USER_CACHE_TYPE value: %q (must be one of: memory, redis, redis-aside)",
			c.UserCacheType,
		)
	}
	if c.UserCacheTTL < 0 {
		return fmt.Errorf("USER_CACHE_TTL must not be negative, got %s", c.UserCacheTTL)
	}

	if c.Realm == "" {
		return errors.New("AUTH_REALM must not be empty")
	}
	if strings.ContainsRune(c.Realm, '"') {
		return fmt.Errorf("AUTH_REALM must not contain a double quote: %q", c.Realm)
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var i int
		if _, err := fmt.Sscanf(value, "%d", &i); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
