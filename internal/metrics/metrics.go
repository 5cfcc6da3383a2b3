// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "neographql"

// Metrics owns a private registry so tests can create as many instances as
// they like without colliding on the global one.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	cypherDuration *prometheus.HistogramVec
	cypherErrors   *prometheus.CounterVec
	resolverTotal  *prometheus.CounterVec
	buildInfo      *prometheus.GaugeVec
}

// New creates and registers every collector, plus Go runtime and process
// collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, path and status code.",
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		cypherDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cypher_duration_seconds",
			Help:      "Cypher execution latency by access mode.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"mode"}),
		cypherErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cypher_errors_total",
			Help:      "Failed Cypher executions by access mode.",
		}, []string{"mode"}),
		resolverTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolver_calls_total",
			Help:      "Generated root resolver calls by field and outcome.",
		}, []string{"field", "outcome"}),
		buildInfo: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "build_info",
			Help:      "Build version, always 1.",
		}, []string{"version"}),
	}

	m.registry.MustRegister(
		m.httpRequests,
		m.httpDuration,
		m.cypherDuration,
		m.cypherErrors,
		m.resolverTotal,
		m.buildInfo,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// SetBuildInfo records the running version.
func (m *Metrics) SetBuildInfo(version string) {
	m.buildInfo.WithLabelValues(version).Set(1)
}

// ObserveRequest implements the HTTP middleware observer.
func (m *Metrics) ObserveRequest(method, path string, status int, duration time.Duration) {
	m.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// ObserveQuery implements the graph database observer.
func (m *Metrics) ObserveQuery(mode string, duration time.Duration, err error) {
	m.cypherDuration.WithLabelValues(mode).Observe(duration.Seconds())
	if err != nil {
		m.cypherErrors.WithLabelValues(mode).Inc()
	}
}

// ObserveResolver counts a generated root field invocation.
func (m *Metrics) ObserveResolver(field string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.resolverTotal.WithLabelValues(field, outcome).Inc()
}
