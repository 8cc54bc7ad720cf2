// Package config loads server configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Storage backend selectors.
const (
	StorageMemory   = "memory"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
)

// Config holds the full server configuration. It is read once at
// startup and treated as immutable afterwards.
type Config struct {
	// Server
	Host string
	Port int

	// Storage
	StorageType string
	DatabaseURL string
	RedisURL    string

	// Auth
	JWTSecret     string
	TokenDuration time.Duration

	// Rate limiting (requests per second per user, with burst)
	RateLimitRPS   float64
	RateLimitBurst int
}

// Load reads configuration from environment variables, after loading a
// .env file if one is present. Missing required variables are an error.
func Load() (*Config, error) {
	// A missing .env is fine; real environments set variables directly.
	_ = godotenv.Load()

	cfg := &Config{
		Host:           getEnvString("HOST", ""),
		Port:           getEnvInt("PORT", 8080),
		StorageType:    getEnvString("STORAGE_TYPE", StorageMemory),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisURL:       os.Getenv("REDIS_URL"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		TokenDuration:  getEnvDuration("TOKEN_DURATION", 24*time.Hour),
		RateLimitRPS:   getEnvFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 20),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("required environment variable JWT_SECRET is not set")
	}

	switch cfg.StorageType {
	case StorageMemory:
	case StorageRedis:
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("STORAGE_TYPE=redis requires REDIS_URL")
		}
	case StoragePostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("STORAGE_TYPE=postgres requires DATABASE_URL")
		}
	default:
		return nil, fmt.Errorf("unknown STORAGE_TYPE %q", cfg.StorageType)
	}

	return cfg, nil
}

// Addr returns the listen address in host:port form.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvFloat(key string, defaultVal float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
