// Package metrics provides Prometheus instrumentation for the pledge
// service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// SnapshotRefreshesTotal counts poller refresh outcomes per pledge.
	SnapshotRefreshesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pledge_snapshot_refreshes_total",
		Help: "Total snapshot refresh attempts",
	}, []string{"outcome"})

	// RefreshDuration tracks how long a full refresh cycle takes.
	RefreshDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pledge_refresh_duration_seconds",
		Help:    "Duration of a full snapshot refresh cycle",
		Buckets: prometheus.DefBuckets,
	})

	// TrackedPledges is the number of pledges currently in the store.
	TrackedPledges = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pledge_tracked_pledges",
		Help: "Number of tracked pledges",
	})

	// WebSocketClients tracks connected WebSocket clients.
	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pledge_websocket_clients",
		Help: "Number of connected WebSocket clients",
	})

	// PreviewsTotal counts preview simulations by kind and result.
	PreviewsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pledge_previews_total",
		Help: "Total preview simulations served",
	}, []string{"kind", "result"})

	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pledge_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pledge_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware returns an HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()

		// Use the raw path for the label; the route surface is small
		// enough that cardinality stays bounded.
		path := r.URL.Path
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
