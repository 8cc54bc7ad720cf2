// Package metrics collects and exposes Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mcoot/tictacgo/internal/model"
)

// Collector gathers game and HTTP metrics
type Collector struct {
	registry *prometheus.Registry

	gamesCreated  prometheus.Counter
	gamesFinished *prometheus.CounterVec
	gameMoves     prometheus.Histogram

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// NewCollector creates a Collector with its own registry
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		gamesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tictacgo_games_created_total",
			Help: "Total games created",
		}),
		gamesFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tictacgo_games_finished_total",
			Help: "Total games finished, by result",
		}, []string{"result"}),
		gameMoves: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tictacgo_game_moves",
			Help:    "Moves played in finished games",
			Buckets: []float64{5, 6, 7, 8, 9},
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tictacgo_http_requests_total",
			Help: "Total HTTP requests",
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tictacgo_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"method", "path"}),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		c.gamesCreated,
		c.gamesFinished,
		c.gameMoves,
		c.httpRequests,
		c.httpDuration,
	)

	return c
}

// RecordGameCreated counts a newly created game
func (c *Collector) RecordGameCreated() {
	c.gamesCreated.Inc()
}

// RecordGameFinished counts a finished game by result
func (c *Collector) RecordGameFinished(winner model.Winner, moveCount int) {
	result := "draw"
	switch winner {
	case model.WinnerX:
		result = "x"
	case model.WinnerO:
		result = "o"
	}
	c.gamesFinished.WithLabelValues(result).Inc()
	c.gameMoves.Observe(float64(moveCount))
}

// RecordHTTPRequest counts a handled HTTP request.
// The path should be the route template, not the raw URL, to bound
// cardinality.
func (c *Collector) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	path = normalizePath(path)
	c.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// Handler exposes the registry in Prometheus text format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func normalizePath(path string) string {
	trimmed := strings.TrimSuffix(path, "/")
	if trimmed == "" {
		return "/"
	}
	return trimmed
}
