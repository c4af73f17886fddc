// Package metrics exposes Prometheus metrics for tool invocations, upstream
// fetches and the HTTP surface.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Fetch modes.
const (
	ModeStatic = "static"
	ModeRender = "render"
)

// Fetch results.
const (
	ResultOK       = "ok"
	ResultNotFound = "not_found"
	ResultError    = "error"
)

// Manager owns the registry and every collector.
type Manager struct {
	namespace string
	subsystem string
	buckets   []float64
	registry  *prometheus.Registry

	toolInvocations *prometheus.CounterVec
	toolDuration    *prometheus.HistogramVec

	upstreamFetches *prometheus.CounterVec
	upstreamLatency *prometheus.HistogramVec
	breakerState    prometheus.Gauge

	lookupCache *prometheus.CounterVec

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// NewManager creates a Manager on a fresh registry unless WithRegistry is given.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace: "vesta",
		subsystem: "",
		buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}
	m.init()
	return m
}

func (m *Manager) init() {
	auto := promauto.With(m.registry)

	m.toolInvocations = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "tool_invocations_total",
		Help:      "Tool invocations by tool and outcome",
	}, []string{"tool", "outcome"})

	m.toolDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "tool_duration_seconds",
		Help:      "Tool invocation latency",
		Buckets:   m.buckets,
	}, []string{"tool"})

	m.upstreamFetches = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "upstream_fetches_total",
		Help:      "Page fetches against basketball-reference by mode and result",
	}, []string{"mode", "result"})

	m.upstreamLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "upstream_fetch_duration_seconds",
		Help:      "Page fetch latency by mode",
		Buckets:   m.buckets,
	}, []string{"mode"})

	m.breakerState = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "upstream_breaker_state",
		Help:      "Upstream circuit breaker state (0 closed, 1 half-open, 2 open)",
	})

	m.lookupCache = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "lookup_cache_total",
		Help:      "Player locator cache lookups by result",
	}, []string{"result"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route, method and status code",
	}, []string{"route", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route and method",
		Buckets:   m.buckets,
	}, []string{"route", "method"})
}

// Registry returns the backing registry.
func (m *Manager) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordToolInvocation counts one finished tool call.
func (m *Manager) RecordToolInvocation(tool, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.toolInvocations.WithLabelValues(tool, outcome).Inc()
	m.toolDuration.WithLabelValues(tool).Observe(d.Seconds())
}

// RecordUpstreamFetch counts one upstream page fetch by mode and result.
func (m *Manager) RecordUpstreamFetch(mode, result string, d time.Duration) {
	if m == nil {
		return
	}
	m.upstreamFetches.WithLabelValues(mode, result).Inc()
	m.upstreamLatency.WithLabelValues(mode).Observe(d.Seconds())
}

// SetBreakerState publishes the numeric breaker state.
func (m *Manager) SetBreakerState(state int) {
	if m == nil {
		return
	}
	m.breakerState.Set(float64(state))
}

// RecordLookupCache counts a locator cache hit or miss.
func (m *Manager) RecordLookupCache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.lookupCache.WithLabelValues("hit").Inc()
		return
	}
	m.lookupCache.WithLabelValues("miss").Inc()
}

// RecordHTTPRequest counts one served HTTP request.
func (m *Manager) RecordHTTPRequest(route, method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(route, method).Observe(d.Seconds())
}
