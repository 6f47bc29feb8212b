package cache

// Backend constants
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config holds configuration for cache backends
type Config struct {
	Backend   string `json:"backend"` // memory or redis
	RedisAddr string `json:"redis_addr,omitempty"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Backend: BackendMemory,
	}
}
