package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/tictacgo/internal/api/handler"
	"github.com/mcoot/tictacgo/internal/api/middleware"
	"github.com/mcoot/tictacgo/internal/metrics"
	"github.com/mcoot/tictacgo/internal/services/auth"
	"github.com/mcoot/tictacgo/internal/services/game"
	"github.com/mcoot/tictacgo/internal/services/stats"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger         *slog.Logger
	AuthService    *auth.Service
	GameController game.ControllerInterface
	StatsService   *stats.Service
	Metrics        *metrics.Collector
	RateLimiter    *middleware.RateLimiter
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	userHandler := handler.NewUserHandler(cfg.AuthService, cfg.StatsService)
	gameHandler := handler.NewGameHandler(cfg.GameController)

	// Create middleware
	authMiddleware := middleware.Auth(cfg.AuthService)
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// Metrics endpoint outside the API prefix and its middleware
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics.Handler()).Methods(http.MethodGet)
	}

	// The rate limiter keys by the authenticated user, so it must run
	// after auth. Subrouter middleware runs after the parent's, so it is
	// attached per-subrouter rather than on the API root.
	rateLimitMiddleware := func(next http.Handler) http.Handler { return next }
	if cfg.RateLimiter != nil {
		rateLimitMiddleware = cfg.RateLimiter.Middleware()
	}

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)
	if cfg.Metrics != nil {
		api.Use(middleware.Metrics(cfg.Metrics))
	}

	// User routes (no auth required for registering/logging in; the rate
	// limiter falls back to keying by remote address here)
	api.Handle("/users/register", rateLimitMiddleware(http.HandlerFunc(userHandler.Register))).Methods(http.MethodPost)
	api.Handle("/users/login", rateLimitMiddleware(http.HandlerFunc(userHandler.Login))).Methods(http.MethodPost)

	// Protected user routes
	userProtected := api.PathPrefix("/users").Subrouter()
	userProtected.Use(authMiddleware)
	userProtected.Use(rateLimitMiddleware)
	userProtected.HandleFunc("/me", userHandler.GetMe).Methods(http.MethodGet)
	userProtected.HandleFunc("/me/stats", userHandler.GetStats).Methods(http.MethodGet)

	// Game routes (all require auth)
	games := api.PathPrefix("/games").Subrouter()
	games.Use(authMiddleware)
	games.Use(rateLimitMiddleware)
	games.HandleFunc("", gameHandler.Create).Methods(http.MethodPost)
	games.HandleFunc("", gameHandler.List).Methods(http.MethodGet)
	games.HandleFunc("/{id}", gameHandler.Get).Methods(http.MethodGet)
	games.HandleFunc("/{id}/join", gameHandler.Join).Methods(http.MethodPost)
	games.HandleFunc("/{id}/moves", gameHandler.Move).Methods(http.MethodPost)
	games.HandleFunc("/{id}/history", gameHandler.History).Methods(http.MethodGet)

	// Health check endpoint (no auth)
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
