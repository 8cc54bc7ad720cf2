package middleware

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/mcoot/tictacgo/internal/api/apierr"
)

// RateLimiterConfig holds per-user rate limit settings
type RateLimiterConfig struct {
	Rate            rate.Limit
	Burst           int
	CleanupInterval time.Duration
	IdleTimeout     time.Duration
}

// DefaultRateLimiterConfig returns sensible rate limit defaults
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		Rate:            10,
		Burst:           20,
		CleanupInterval: 5 * time.Minute,
		IdleTimeout:     15 * time.Minute,
	}
}

type userLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter enforces a per-user request rate. Keys are user IDs for
// authenticated requests, so it must be placed after Auth in the chain.
type RateLimiter struct {
	config RateLimiterConfig

	mu       sync.Mutex
	limiters map[string]*userLimiter

	stopCh chan struct{}
}

// NewRateLimiter creates a RateLimiter and starts its cleanup loop
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	rl := &RateLimiter{
		config:   config,
		limiters: make(map[string]*userLimiter),
		stopCh:   make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// Stop terminates the cleanup goroutine
func (rl *RateLimiter) Stop() {
	close(rl.stopCh)
}

// Middleware returns the rate limiting middleware
func (rl *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := rl.keyFor(r)
			if !rl.allow(key) {
				apierr.WriteError(w, apierr.NewRateLimitedError())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// keyFor prefers the authenticated user, falling back to the remote
// address for unauthenticated endpoints.
func (rl *RateLimiter) keyFor(r *http.Request) string {
	if user := GetUser(r.Context()); user != nil {
		return string(user.ID)
	}
	return r.RemoteAddr
}

func (rl *RateLimiter) allow(key string) bool {
	rl.mu.Lock()
	ul, ok := rl.limiters[key]
	if !ok {
		ul = &userLimiter{limiter: rate.NewLimiter(rl.config.Rate, rl.config.Burst)}
		rl.limiters[key] = ul
	}
	ul.lastAccess = time.Now()
	rl.mu.Unlock()

	return ul.limiter.Allow()
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopCh:
			return
		case <-ticker.C:
			rl.cleanup()
		}
	}
}

func (rl *RateLimiter) cleanup() {
	cutoff := time.Now().Add(-rl.config.IdleTimeout)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, ul := range rl.limiters {
		if ul.lastAccess.Before(cutoff) {
			delete(rl.limiters, key)
		}
	}
}
