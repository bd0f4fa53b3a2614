// Package metrics exposes Prometheus collectors for the oEmbed resolver
// service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	oembedResolvesTotal          *prometheus.CounterVec
	oembedResolveDurationSeconds *prometheus.HistogramVec
	oembedCacheHitsTotal         prometheus.Counter
	httpRequestsTotal            *prometheus.CounterVec
	httpRequestDurationSeconds   *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		oembedResolvesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oembed_resolves_total",
				Help: "Total number of oEmbed fetches, labeled by endpoint kind and outcome.",
			},
			[]string{"endpoint", "outcome"},
		)

		oembedResolveDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "oembed_resolve_duration_seconds",
				Help:    "Histogram of oEmbed fetch latencies, labeled by endpoint kind.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"endpoint"},
		)

		oembedCacheHitsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "oembed_cache_hits_total",
				Help: "Total number of resolves served from the per-scope cache.",
			},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveResolve records one oEmbed fetch attempt.
func ObserveResolve(endpoint string, outcome string, duration time.Duration) {
	oembedResolvesTotal.WithLabelValues(endpoint, outcome).Inc()
	oembedResolveDurationSeconds.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// ObserveCacheHit increments the cache hit counter.
func ObserveCacheHit() {
	oembedCacheHitsTotal.Inc()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
