package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/fbraun/melodia/internal/cache"
	"github.com/fbraun/melodia/internal/search"
)

// Store backend constants
const (
	StorePostgrest = "postgrest"
	StoreSQLite    = "sqlite"
)

// Config holds the application configuration
type Config struct {
	Server  ServerConfig
	Store   StoreConfig
	Cache   cache.Config
	Logging LoggingConfig
	Search  search.Config
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port string
}

// StoreConfig holds record store configuration
type StoreConfig struct {
	Backend      string
	PostgrestURL string
	PostgrestKey string
	SQLitePath   string
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Pretty bool
}

// New creates a new config with the given parameters
func New(server ServerConfig, store StoreConfig, cacheConfig cache.Config, logging LoggingConfig, searchConfig search.Config) (*Config, error) {
	cfg := &Config{
		Server:  server,
		Store:   store,
		Cache:   cacheConfig,
		Logging: logging,
		Search:  searchConfig,
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// FromEnv builds a config from environment variables, loading a .env
// file from the working directory when one exists
func FromEnv() (*Config, error) {
	// A missing .env file is fine, the environment still applies
	_ = godotenv.Load()

	return New(
		ServerConfig{
			Port: envOr("MELODIA_PORT", "8080"),
		},
		StoreConfig{
			Backend:      envOr("MELODIA_STORE_BACKEND", StoreSQLite),
			PostgrestURL: os.Getenv("MELODIA_POSTGREST_URL"),
			PostgrestKey: os.Getenv("MELODIA_POSTGREST_KEY"),
			SQLitePath:   envOr("MELODIA_SQLITE_PATH", "melodia.db"),
		},
		cache.Config{
			Backend:   envOr("MELODIA_CACHE_BACKEND", cache.BackendMemory),
			RedisAddr: os.Getenv("MELODIA_REDIS_ADDR"),
		},
		LoggingConfig{
			Level:  envOr("MELODIA_LOG_LEVEL", "info"),
			Pretty: os.Getenv("MELODIA_LOG_PRETTY") == "true",
		},
		search.Config{},
	)
}

// validate validates the configuration values
func (c *Config) validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port cannot be empty")
	}

	switch c.Store.Backend {
	case StorePostgrest:
		if c.Store.PostgrestURL == "" {
			return fmt.Errorf("postgrest URL cannot be empty")
		}
	case StoreSQLite:
		if c.Store.SQLitePath == "" {
			return fmt.Errorf("sqlite path cannot be empty")
		}
	default:
		return fmt.Errorf("unknown store backend: %s", c.Store.Backend)
	}

	switch c.Cache.Backend {
	case cache.BackendMemory:
	case cache.BackendRedis:
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("redis address cannot be empty")
		}
	default:
		return fmt.Errorf("unknown cache backend: %s", c.Cache.Backend)
	}

	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
