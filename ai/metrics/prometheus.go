// Package metrics exports routing and capability metrics in Prometheus format.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "playground"

// PrometheusExporter implements the observer interfaces of the routers,
// the orchestrator and the capability adapters.
type PrometheusExporter struct {
	registry *prometheus.Registry

	// Routing metrics
	decisions *prometheus.CounterVec
	fallbacks *prometheus.CounterVec

	// Query metrics
	queries        *prometheus.CounterVec
	queryLatency   *prometheus.HistogramVec
	activeSessions prometheus.Gauge

	// Capability metrics
	invocations       *prometheus.CounterVec
	invocationLatency *prometheus.HistogramVec

	// Cache metrics
	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec
}

// Config configures the Prometheus exporter.
type Config struct {
	// Registry to use (if nil, creates a new one)
	Registry *prometheus.Registry

	// Buckets for latency histograms (in seconds)
	LatencyBuckets []float64

	// RuntimeCollectors adds the Go and process collectors.
	RuntimeCollectors bool
}

// DefaultConfig returns default Prometheus configuration.
func DefaultConfig() Config {
	return Config{
		LatencyBuckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
	}
}

// NewPrometheusExporter creates a new Prometheus metrics exporter.
func NewPrometheusExporter(cfg Config) *PrometheusExporter {
	if len(cfg.LatencyBuckets) == 0 {
		cfg.LatencyBuckets = DefaultConfig().LatencyBuckets
	}

	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	e := &PrometheusExporter{registry: registry}

	e.decisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "router",
			Name:      "decisions_total",
			Help:      "Routing decisions by router, target and method",
		},
		[]string{"decided_by", "target", "method"},
	)

	e.fallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "router",
			Name:      "fallback_decisions_total",
			Help:      "Routing decisions taken by the fallback branch",
		},
		[]string{"decided_by"},
	)

	e.queries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orchestrator",
			Name:      "queries_total",
			Help:      "Handled queries by capability and terminal state",
		},
		[]string{"capability", "state"},
	)

	e.queryLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "orchestrator",
			Name:      "query_latency_seconds",
			Help:      "End-to-end query latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"capability"},
	)

	e.activeSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "orchestrator",
			Name:      "active_sessions",
			Help:      "Number of live sessions",
		},
	)

	e.invocations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "capability",
			Name:      "invocations_total",
			Help:      "Capability invocations by outcome (ok or failure kind)",
		},
		[]string{"capability", "outcome"},
	)

	e.invocationLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "capability",
			Name:      "latency_seconds",
			Help:      "Capability invocation latency in seconds, retries included",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"capability"},
	)

	e.cacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "router",
			Name:      "cache_hits_total",
			Help:      "Total number of routing cache hits",
		},
		[]string{"cache_type"},
	)

	e.cacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "router",
			Name:      "cache_misses_total",
			Help:      "Total number of routing cache misses",
		},
		[]string{"cache_type"},
	)

	registry.MustRegister(
		e.decisions,
		e.fallbacks,
		e.queries,
		e.queryLatency,
		e.activeSessions,
		e.invocations,
		e.invocationLatency,
		e.cacheHits,
		e.cacheMisses,
	)
	if cfg.RuntimeCollectors {
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	return e
}

// RecordDecision records one routing decision.
func (e *PrometheusExporter) RecordDecision(decidedBy, target, method string, fallback bool) {
	e.decisions.WithLabelValues(decidedBy, target, method).Inc()
	if fallback {
		e.fallbacks.WithLabelValues(decidedBy).Inc()
	}
}

// RecordQuery records a handled query.
func (e *PrometheusExporter) RecordQuery(capability, state string, latency time.Duration) {
	e.queries.WithLabelValues(capability, state).Inc()
	e.queryLatency.WithLabelValues(capability).Observe(latency.Seconds())
}

// ObserveInvocation records one adapter invocation; kind is "" on success.
func (e *PrometheusExporter) ObserveInvocation(capability, kind string, latency time.Duration) {
	outcome := "ok"
	if kind != "" {
		outcome = kind
	}
	e.invocations.WithLabelValues(capability, outcome).Inc()
	e.invocationLatency.WithLabelValues(capability).Observe(latency.Seconds())
}

// RecordCacheHit records a cache hit.
func (e *PrometheusExporter) RecordCacheHit(cacheType string) {
	e.cacheHits.WithLabelValues(cacheType).Inc()
}

// RecordCacheMiss records a cache miss.
func (e *PrometheusExporter) RecordCacheMiss(cacheType string) {
	e.cacheMisses.WithLabelValues(cacheType).Inc()
}

// SetActiveSessions sets the number of live sessions.
func (e *PrometheusExporter) SetActiveSessions(count int) {
	e.activeSessions.Set(float64(count))
}

// Handler returns an HTTP handler for the metrics endpoint.
func (e *PrometheusExporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

// ServeHTTP implements http.Handler for the metrics endpoint.
func (e *PrometheusExporter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	e.Handler().ServeHTTP(w, r)
}

// GetRegistry returns the Prometheus registry.
func (e *PrometheusExporter) GetRegistry() *prometheus.Registry {
	return e.registry
}
