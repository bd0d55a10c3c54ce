// Package daemon implements DaemonHost + StdioProxy (spec §4.12): the
// long-lived HTTP/SSE process each module can run as, the PID-file-based
// lifecycle controller, and the stdio-to-HTTP bridge for editors that only
// speak stdio MCP.
package daemon

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics mirrors cie's own promhttp.Handler() mount at /metrics, scoped to
// the counters/histograms the daemon's own execution path can report:
// plan executions, subprocess duration, and strategy cache hits.
type Metrics struct {
	PlanExecutions   *prometheus.CounterVec
	SubprocessSecs   *prometheus.HistogramVec
	StrategyCacheHit *prometheus.CounterVec
}

// NewMetrics registers every collector against a fresh registry so repeated
// calls in tests don't panic on duplicate registration.
func NewMetrics() (*Metrics, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		PlanExecutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ninja_plan_executions_total",
			Help: "Total plan/quick-task executions by module and overall status.",
		}, []string{"module", "status"}),
		SubprocessSecs: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ninja_subprocess_duration_seconds",
			Help:    "Duration of CLI operator subprocess invocations.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
		}, []string{"module", "operator"}),
		StrategyCacheHit: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ninja_strategy_cache_total",
			Help: "Strategy cache hit/miss counts by module.",
		}, []string{"module", "result"}),
	}
	reg.MustRegister(m.PlanExecutions, m.SubprocessSecs, m.StrategyCacheHit)
	return m, reg
}

// ObservePlan records one finished execution's outcome and wall-clock time.
func (m *Metrics) ObservePlan(module, operator, status string, d time.Duration) {
	m.PlanExecutions.WithLabelValues(module, status).Inc()
	m.SubprocessSecs.WithLabelValues(module, operator).Observe(d.Seconds())
}

// ObserveCache records a strategy cache hit or miss.
func (m *Metrics) ObserveCache(module string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.StrategyCacheHit.WithLabelValues(module, result).Inc()
}

// Handler returns the /metrics endpoint for reg, the way cie mounts
// promhttp.Handler() directly on its mux.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
