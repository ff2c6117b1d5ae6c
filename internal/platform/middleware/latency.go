package middleware

import (
	"net/http"
	"strconv"
	"time"

	"rollbook/internal/platform/metrics"
)

// Latency records request duration and count. A nil metrics disables the
// middleware so tests can skip registration.
func Latency(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)

			status := strconv.Itoa(sw.status)
			m.RequestDuration.WithLabelValues(r.Method, status).Observe(time.Since(start).Seconds())
			m.RequestsTotal.WithLabelValues(r.Method, status).Inc()
		})
	}
}
