// Package metrics exposes Prometheus counters for payment processing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "orderpay"

// Sweep kinds.
const (
	SweepExpired   = "expired"
	SweepAdvanced  = "advanced"
	SweepReapplied = "reapplied"
)

// Metrics groups the collectors updated by use cases and workers.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	attempts       *prometheus.CounterVec
	callbacks      *prometheus.CounterVec
	gatewayLatency *prometheus.HistogramVec
	sweeper        *prometheus.CounterVec
	inconsistent   prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_attempts_total",
			Help:      "Payment attempts by gateway and initiation outcome.",
		}, []string{"gateway", "outcome"}),
		callbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "callbacks_total",
			Help:      "Gateway callbacks by reconciliation outcome.",
		}, []string{"gateway", "outcome"}),
		gatewayLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "gateway_latency_seconds",
			Help:      "Latency of payment initiation calls to gateways.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"gateway"}),
		sweeper: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweeper_resolved_total",
			Help:      "Attempts handled by the background sweeper.",
		}, []string{"kind"}),
		inconsistent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inconsistent_state_total",
			Help:      "Detected ledger and order inconsistencies.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.attempts, m.callbacks, m.gatewayLatency, m.sweeper, m.inconsistent)
	}
	return m
}

// NewRegistry returns a registry with the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func (m *Metrics) AttemptInitiated(gateway, outcome string) {
	if m == nil {
		return
	}
	m.attempts.WithLabelValues(gateway, outcome).Inc()
}

func (m *Metrics) CallbackHandled(gateway, outcome string) {
	if m == nil {
		return
	}
	m.callbacks.WithLabelValues(gateway, outcome).Inc()
}

func (m *Metrics) ObserveGateway(gateway string, d time.Duration) {
	if m == nil {
		return
	}
	m.gatewayLatency.WithLabelValues(gateway).Observe(d.Seconds())
}

func (m *Metrics) SweepResolved(kind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.sweeper.WithLabelValues(kind).Add(float64(n))
}

func (m *Metrics) Inconsistent() {
	if m == nil {
		return
	}
	m.inconsistent.Inc()
}
