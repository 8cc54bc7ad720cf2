// Package factory wires application components together.
package factory

import (
	"errors"
	"io"
	"log/slog"

	"github.com/mcoot/tictacgo/internal/dependencies/clock"
	"github.com/mcoot/tictacgo/internal/dependencies/random"
	"github.com/mcoot/tictacgo/internal/services/auth"
	"github.com/mcoot/tictacgo/internal/services/game"
	"github.com/mcoot/tictacgo/internal/services/stats"
	"github.com/mcoot/tictacgo/internal/storage"
	"github.com/mcoot/tictacgo/internal/storage/memory"
	"github.com/mcoot/tictacgo/internal/storage/postgres"
	redisstorage "github.com/mcoot/tictacgo/internal/storage/redis"
)

// Storage type constants
const (
	StorageTypeMemory   = "memory"
	StorageTypeRedis    = "redis"
	StorageTypePostgres = "postgres"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	GameController *game.Controller
	AuthService    *auth.Service
	StatsService   *stats.Service
}

// Config holds configuration for the application factory
type Config struct {
	// AuthConfig holds configuration for the auth service.
	// The secret is required; other zero values take defaults.
	AuthConfig auth.Config
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory", "redis" or
	// "postgres"). If empty, defaults to "memory".
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// DatabaseURL is the Postgres connection string (required if
	// StorageType is "postgres")
	DatabaseURL string
	// Recorder receives game lifecycle events (optional)
	Recorder game.Recorder
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create storage based on type
	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	case StorageTypePostgres:
		if cfg.DatabaseURL == "" {
			return nil, errors.New("DatabaseURL required when StorageType is postgres")
		}
		pgStore, err := postgres.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		store = pgStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory', 'redis' or 'postgres'")
	}

	// Create external dependencies
	clk := clock.New()
	rnd := random.New()

	// Fill in auth defaults where unset
	authCfg := cfg.AuthConfig
	if authCfg.Secret == "" {
		return nil, errors.New("AuthConfig.Secret is required")
	}
	defaults := auth.DefaultConfig()
	if authCfg.TokenDuration == 0 {
		authCfg.TokenDuration = defaults.TokenDuration
	}
	if authCfg.Issuer == "" {
		authCfg.Issuer = defaults.Issuer
	}

	return newWithDependencies(store, clk, rnd, authCfg, cfg.Recorder, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	clk clock.Clock,
	rnd random.Random,
	authCfg auth.Config,
	recorder game.Recorder,
	logger *slog.Logger,
) *App {
	gameController := game.NewController(store, clk, rnd, recorder, logger)
	authService := auth.New(store, clk, authCfg, logger)
	statsService := stats.New(store)

	return &App{
		Storage:        store,
		Clock:          clk,
		Random:         rnd,
		GameController: gameController,
		AuthService:    authService,
		StatsService:   statsService,
	}
}
