package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/time/rate"

	"github.com/mcoot/tictacgo/internal/api"
	apimiddleware "github.com/mcoot/tictacgo/internal/api/middleware"
	"github.com/mcoot/tictacgo/internal/config"
	"github.com/mcoot/tictacgo/internal/factory"
	"github.com/mcoot/tictacgo/internal/metrics"
	"github.com/mcoot/tictacgo/internal/services/auth"
	"github.com/mcoot/tictacgo/internal/storage/postgres"
	redisstorage "github.com/mcoot/tictacgo/internal/storage/redis"
)

func main() {
	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Run schema migrations before opening the pool
	if cfg.StorageType == config.StoragePostgres {
		if err := postgres.RunMigrations(cfg.DatabaseURL); err != nil {
			logger.Error("migrations failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	collector := metrics.NewCollector()

	// Build factory config
	factoryCfg := factory.Config{
		Logger:      logger,
		StorageType: cfg.StorageType,
		DatabaseURL: cfg.DatabaseURL,
		Recorder:    collector,
		AuthConfig: auth.Config{
			Secret:        cfg.JWTSecret,
			TokenDuration: cfg.TokenDuration,
		},
	}

	if cfg.StorageType == config.StorageRedis {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.RedisURL
		factoryCfg.RedisConfig = &redisCfg
	}

	app, err := factory.New(factoryCfg)
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() { _ = app.Storage.Close() }()

	// Per-user rate limiting
	rlCfg := apimiddleware.DefaultRateLimiterConfig()
	rlCfg.Rate = rate.Limit(cfg.RateLimitRPS)
	rlCfg.Burst = cfg.RateLimitBurst
	rateLimiter := apimiddleware.NewRateLimiter(rlCfg)
	defer rateLimiter.Stop()

	// Create API router
	router := api.NewRouter(api.RouterConfig{
		Logger:         logger,
		AuthService:    app.AuthService,
		GameController: app.GameController,
		StatsService:   app.StatsService,
		Metrics:        collector,
		RateLimiter:    rateLimiter,
	})

	// Create server
	serverConfig := api.DefaultServerConfig()
	serverConfig.Host = cfg.Host
	serverConfig.Port = cfg.Port
	server := api.NewServer(router, serverConfig, logger)

	// Handle graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()
	}()

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started",
		slog.String("addr", server.Addr()),
		slog.String("storage", cfg.StorageType),
	)

	// Wait for shutdown or error
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	case <-ctx.Done():
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	logger.Info("server stopped")
}
