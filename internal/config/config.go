package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Session store backends selectable through SESSION_STORE.
const (
	SessionStoreCookie = "cookie"
	SessionStoreRedis  = "redis"
)

// Config aggregates runtime configuration for the web front end.
type Config struct {
	App        AppConfig
	API        APIConfig
	Session    SessionConfig
	Redis      RedisConfig
	Cache      CacheConfig
	Navigation NavigationConfig
	Logger     LoggerConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
	LoginRatePerMinute    int
}

// APIConfig points at the villa REST API.
type APIConfig struct {
	BaseURL        string
	TimeoutSeconds int
}

// SessionConfig describes where the browser credential is kept.
type SessionConfig struct {
	Store        string
	CookieName   string
	CookieSecure bool
	TTLHours     int
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

// CacheConfig tunes the catalog cache.
type CacheConfig struct {
	CatalogTTLSeconds int
}

// NavigationConfig bounds redirect chains.
type NavigationConfig struct {
	MaxRedirects int
}

// LoggerConfig configures logging behavior. File, when set, receives a
// rotated copy of the log stream.
type LoggerConfig struct {
	Level  string
	Output string
	File   string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	store := strings.ToLower(getEnv("SESSION_STORE", SessionStoreCookie))
	switch store {
	case SessionStoreCookie, SessionStoreRedis:
	default:
		return nil, fmt.Errorf("invalid SESSION_STORE %q: want %q or %q", store, SessionStoreCookie, SessionStoreRedis)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "villa-web"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "3000"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
			LoginRatePerMinute:    getEnvAsInt("LOGIN_RATE_LIMIT_PER_MINUTE", 20),
		},
		API: APIConfig{
			BaseURL:        strings.TrimRight(getEnv("VILLA_API_BASE_URL", "http://localhost:8080"), "/"),
			TimeoutSeconds: getEnvAsInt("VILLA_API_TIMEOUT_SECONDS", 15),
		},
		Session: SessionConfig{
			Store:        store,
			CookieName:   getEnv("SESSION_COOKIE_NAME", "auth_token"),
			CookieSecure: getEnvAsBool("SESSION_COOKIE_SECURE", false),
			TTLHours:     getEnvAsInt("SESSION_TTL_HOURS", 24),
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Cache: CacheConfig{
			CatalogTTLSeconds: getEnvAsInt("CATALOG_CACHE_TTL_SECONDS", 300),
		},
		Navigation: NavigationConfig{
			MaxRedirects: getEnvAsInt("NAV_MAX_REDIRECTS", 8),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Output: strings.ToLower(getEnv("LOG_OUTPUT", "stdout")),
			File:   os.Getenv("LOG_FILE"),
		},
	}

	if cfg.Session.Store == SessionStoreRedis && !cfg.Redis.Enabled {
		return nil, fmt.Errorf("SESSION_STORE=redis requires REDIS_ENABLED=true")
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Timeout returns the per-call API timeout.
func (a APIConfig) Timeout() time.Duration {
	if a.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// TTL returns how long a stored credential is kept by the browser or redis.
func (s SessionConfig) TTL() time.Duration {
	if s.TTLHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(s.TTLHours) * time.Hour
}

// CatalogTTL returns the catalog cache entry lifetime.
func (c CacheConfig) CatalogTTL() time.Duration {
	if c.CatalogTTLSeconds <= 0 {
		return 0
	}
	return time.Duration(c.CatalogTTLSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
