// Package metrics exposes Prometheus instrumentation for the front-end
// services. Each Metrics value owns its registry so servers and tests do
// not share global state.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Run outcomes
const (
	OutcomeOK          = "ok"
	OutcomeLexError    = "lex_error"
	OutcomeSyntaxError = "syntax_error"
	OutcomeRejected    = "rejected"
)

// Metrics holds all collectors of one process
type Metrics struct {
	registry *prometheus.Registry

	runs          *prometheus.CounterVec
	runDuration   *prometheus.HistogramVec
	tokens        prometheus.Histogram
	diagnostics   *prometheus.CounterVec
	httpRequests  *prometheus.CounterVec
	rateLimited   prometheus.Counter
	wsConnections prometheus.Gauge
}

// New creates the collectors and registers them, together with the Go
// runtime and process collectors, on a fresh registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mbasic_runs_total",
				Help: "Number of front-end runs by origin and outcome",
			}, []string{"origin", "outcome"},
		),

		runDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mbasic_run_duration_seconds",
				Help:    "Latency of lexing and parsing one program",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
			}, []string{"origin"},
		),

		tokens: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "mbasic_tokens_per_run",
				Help:    "Number of tokens (excluding EOF) per successfully lexed program",
				Buckets: prometheus.ExponentialBuckets(1, 4, 8),
			},
		),

		diagnostics: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mbasic_diagnostics_total",
				Help: "Number of reported diagnostics by kind",
			}, []string{"kind"},
		),

		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mbasic_http_requests_total",
				Help: "HTTP requests by route, method and status code",
			}, []string{"route", "method", "code"},
		),

		rateLimited: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "mbasic_http_rate_limited_total",
				Help: "HTTP requests and WebSocket messages rejected by the rate limiter",
			},
		),

		wsConnections: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "mbasic_websocket_connections",
				Help: "Currently open WebSocket connections",
			},
		),
	}

	m.registry.MustRegister(
		m.runs, m.runDuration, m.tokens, m.diagnostics,
		m.httpRequests, m.rateLimited, m.wsConnections,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveRun records one front-end run. tokens is ignored for lex errors
// and rejected input.
func (m *Metrics) ObserveRun(origin, outcome string, tokens int, d time.Duration) {
	m.runs.WithLabelValues(origin, outcome).Inc()
	if outcome == OutcomeRejected {
		return
	}
	m.runDuration.WithLabelValues(origin).Observe(d.Seconds())
	if outcome != OutcomeLexError {
		m.tokens.Observe(float64(tokens))
	}
}

// ObserveDiagnostic counts a diagnostic of the given kind code
func (m *Metrics) ObserveDiagnostic(kind string) {
	m.diagnostics.WithLabelValues(kind).Inc()
}

// ObserveHTTP counts a served HTTP request
func (m *Metrics) ObserveHTTP(route, method string, code int) {
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
}

// RateLimited counts a request rejected by the limiter
func (m *Metrics) RateLimited() {
	m.rateLimited.Inc()
}

// WebSocketOpened and WebSocketClosed track open connections
func (m *Metrics) WebSocketOpened() { m.wsConnections.Inc() }
func (m *Metrics) WebSocketClosed() { m.wsConnections.Dec() }
