// Package metrics exposes Prometheus collectors for the message pool and the
// bootstrap protocol.
//
// A nil *Metrics is valid and records nothing, so library code can take an
// optional collector set without branching.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "asyncpool"

// Elimination reasons.
const (
	ReasonExpired = "expired"
	ReasonEvicted = "evicted"
)

// Bootstrap directions.
const (
	DirectionSent     = "sent"
	DirectionReceived = "received"
)

// Metrics groups the collectors registered for one pool.
type Metrics struct {
	poolSize         prometheus.Gauge
	eliminated       *prometheus.CounterVec
	triggered        prometheus.Counter
	executed         prometheus.Counter
	executedGas      prometheus.Counter
	settleDuration   prometheus.Histogram
	bootstrapParts   *prometheus.CounterVec
	bootstrapEntries *prometheus.CounterVec
}

// New registers the collectors on reg. Registering twice on the same
// registerer panics, like any promauto constructor.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		poolSize: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pool_size",
			Help:      "Number of messages currently stored in the pool.",
		}),
		eliminated: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "eliminated_total",
			Help:      "Messages removed by settlement, by reason.",
		}, []string{"reason"}),
		triggered: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "triggered_total",
			Help:      "Messages whose trigger fired and became executable.",
		}),
		executed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "taken_total",
			Help:      "Messages taken from the pool for execution.",
		}),
		executedGas: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "taken_gas_total",
			Help:      "Sum of max_gas of messages taken for execution.",
		}),
		settleDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "settle_duration_seconds",
			Help:      "Time spent settling one slot, commit included.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}),
		bootstrapParts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bootstrap_parts_total",
			Help:      "Bootstrap chunks streamed, by direction.",
		}, []string{"direction"}),
		bootstrapEntries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bootstrap_entries_total",
			Help:      "Pool entries streamed during bootstrap, by direction.",
		}, []string{"direction"}),
	}
}

// SetPoolSize records the current pool length.
func (m *Metrics) SetPoolSize(n int) {
	if m == nil {
		return
	}
	m.poolSize.Set(float64(n))
}

// Eliminated counts n removed messages for reason.
func (m *Metrics) Eliminated(reason string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.eliminated.WithLabelValues(reason).Add(float64(n))
}

// Triggered counts n activated messages.
func (m *Metrics) Triggered(n int) {
	if m == nil || n == 0 {
		return
	}
	m.triggered.Add(float64(n))
}

// Taken counts n messages taken for execution, reserving gas in total.
func (m *Metrics) Taken(n int, gas uint64) {
	if m == nil || n == 0 {
		return
	}
	m.executed.Add(float64(n))
	m.executedGas.Add(float64(gas))
}

// ObserveSettle records the duration of one settlement.
func (m *Metrics) ObserveSettle(d time.Duration) {
	if m == nil {
		return
	}
	m.settleDuration.Observe(d.Seconds())
}

// BootstrapPart counts one chunk of entries in the given direction.
func (m *Metrics) BootstrapPart(direction string, entries int) {
	if m == nil {
		return
	}
	m.bootstrapParts.WithLabelValues(direction).Inc()
	m.bootstrapEntries.WithLabelValues(direction).Add(float64(entries))
}
