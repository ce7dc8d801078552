// Package metrics holds the Prometheus collectors for lifecycle operations
// and console sessions.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome label values.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Metrics groups every collector the engine exports.
type Metrics struct {
	registry prometheus.Gatherer

	lifecycleTotal   *prometheus.CounterVec
	lifecycleSeconds *prometheus.HistogramVec

	consoleActive prometheus.Gauge
	consoleTotal  *prometheus.CounterVec
	consoleBytes  *prometheus.CounterVec
}

// New creates the collectors and registers them on reg. A nil reg creates a
// private registry, which keeps tests isolated.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		registry: reg,
		lifecycleTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cloudemu",
			Subsystem: "lifecycle",
			Name:      "operations_total",
			Help:      "Lifecycle operations by resource kind, operation and outcome.",
		}, []string{"kind", "op", "outcome"}),
		lifecycleSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "cloudemu",
			Subsystem: "lifecycle",
			Name:      "operation_duration_seconds",
			Help:      "Lifecycle operation latency, runtime round-trips included.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"kind", "op"}),
		consoleActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "cloudemu",
			Subsystem: "console",
			Name:      "sessions_active",
			Help:      "Console sessions currently relaying.",
		}),
		consoleTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cloudemu",
			Subsystem: "console",
			Name:      "sessions_total",
			Help:      "Console sessions by terminal result.",
		}, []string{"result"}),
		consoleBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cloudemu",
			Subsystem: "console",
			Name:      "bytes_total",
			Help:      "Bytes relayed by console sessions.",
		}, []string{"direction"}),
	}
	reg.MustRegister(m.lifecycleTotal, m.lifecycleSeconds, m.consoleActive, m.consoleTotal, m.consoleBytes)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveLifecycle records one controller operation. Safe on a nil receiver.
func (m *Metrics) ObserveLifecycle(kind, op string, seconds float64, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	m.lifecycleTotal.WithLabelValues(kind, op, outcome).Inc()
	m.lifecycleSeconds.WithLabelValues(kind, op).Observe(seconds)
}

// ConsoleOpened marks a session entering the relay phase.
func (m *Metrics) ConsoleOpened() {
	if m == nil {
		return
	}
	m.consoleActive.Inc()
}

// ConsoleClosed marks a relaying session as finished.
func (m *Metrics) ConsoleClosed() {
	if m == nil {
		return
	}
	m.consoleActive.Dec()
}

// ConsoleResult counts a session by how it ended (relayed, rejected, not_running, attach_failed).
func (m *Metrics) ConsoleResult(result string) {
	if m == nil {
		return
	}
	m.consoleTotal.WithLabelValues(result).Inc()
}

// ConsoleBytes adds n relayed bytes in direction "in" or "out".
func (m *Metrics) ConsoleBytes(direction string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.consoleBytes.WithLabelValues(direction).Add(float64(n))
}
