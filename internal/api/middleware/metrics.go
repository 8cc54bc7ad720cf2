package middleware

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/mcoot/tictacgo/internal/metrics"
	"github.com/mcoot/tictacgo/internal/middleware"
)

// Metrics creates middleware that records request counts and latency.
// The route template from mux is used as the path label so that IDs in
// URLs do not blow up metric cardinality.
func Metrics(collector *metrics.Collector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			wrapped := middleware.NewResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			path := r.URL.Path
			if route := mux.CurrentRoute(r); route != nil {
				if tmpl, err := route.GetPathTemplate(); err == nil {
					path = tmpl
				}
			}

			collector.RecordHTTPRequest(r.Method, path, wrapped.Status(), time.Since(start))
		})
	}
}
