// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Upstream metrics
	UpstreamRequests *prometheus.CounterVec
	UpstreamErrors   *prometheus.CounterVec
	FallbacksTotal   *prometheus.CounterVec

	// Cache metrics
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter

	// Rate limiter metrics
	RateLimitDenials *prometheus.CounterVec

	// Signal metrics
	SignalCyclesTotal *prometheus.CounterVec
	LastSignalCycle   prometheus.Gauge

	// Stream metrics
	StreamClients prometheus.Gauge
	TicksRelayed  prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "velocitysol"
	}

	return &Metrics{
		RequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by endpoint and status",
		}, []string{"endpoint", "status"}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),

		UpstreamRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "requests_total",
			Help:      "Total number of upstream fetches by provider",
		}, []string{"provider"}),
		UpstreamErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "errors_total",
			Help:      "Total number of upstream fetch errors by provider",
		}, []string{"provider"}),
		FallbacksTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "fallbacks_total",
			Help:      "Total number of served responses by source tier",
		}, []string{"operation", "source"}),

		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Total number of cache hits",
		}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Total number of cache misses",
		}),

		RateLimitDenials: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ratelimit",
			Name:      "denials_total",
			Help:      "Total number of locally denied upstream calls by service",
		}, []string{"service"}),

		SignalCyclesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "signals",
			Name:      "cycles_total",
			Help:      "Total number of signal generation cycles by status",
		}, []string{"status"}),
		LastSignalCycle: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "signals",
			Name:      "last_cycle_timestamp",
			Help:      "Unix timestamp of the last successful signal cycle",
		}),

		StreamClients: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "clients",
			Help:      "Current number of connected WebSocket clients",
		}),
		TicksRelayed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "ticks_relayed_total",
			Help:      "Total number of price ticks relayed to clients",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordRequest records one served HTTP request.
func RecordRequest(endpoint, status string, seconds float64) {
	DefaultMetrics.RequestsTotal.WithLabelValues(endpoint, status).Inc()
	DefaultMetrics.RequestDuration.WithLabelValues(endpoint).Observe(seconds)
}

// RecordUpstream records one upstream fetch attempt and its outcome.
func RecordUpstream(provider string, err error) {
	DefaultMetrics.UpstreamRequests.WithLabelValues(provider).Inc()
	if err != nil {
		DefaultMetrics.UpstreamErrors.WithLabelValues(provider).Inc()
	}
}

// RecordSource records which source tier ultimately served an operation.
func RecordSource(operation, source string) {
	DefaultMetrics.FallbacksTotal.WithLabelValues(operation, source).Inc()
}

// RecordCacheLookup records a cache hit or miss.
func RecordCacheLookup(hit bool) {
	if hit {
		DefaultMetrics.CacheHits.Inc()
	} else {
		DefaultMetrics.CacheMisses.Inc()
	}
}

// RecordRateLimitDenial increments the denial counter for a service.
func RecordRateLimitDenial(service string) {
	DefaultMetrics.RateLimitDenials.WithLabelValues(service).Inc()
}

// RecordSignalCycle records one scheduled signal generation cycle.
func RecordSignalCycle(status string, completedAtUnix int64) {
	DefaultMetrics.SignalCyclesTotal.WithLabelValues(status).Inc()
	if status == "success" {
		DefaultMetrics.LastSignalCycle.Set(float64(completedAtUnix))
	}
}
