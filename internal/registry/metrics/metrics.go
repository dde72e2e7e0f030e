package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the registry module.
type Metrics struct {
	// Completed writes by record kind and outcome
	Writes *prometheus.CounterVec

	// Rejections by reason (unauthorized, forbidden, conflict, ...)
	Rejections *prometheus.CounterVec

	// Bumps consumed by successful derivations
	DerivationBump prometheus.Histogram

	// End-to-end operation latency
	OperationLatency *prometheus.HistogramVec
}

// New registers the registry metrics with the default registerer.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers with reg; tests pass a fresh registry.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Writes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "folio_registry_writes_total",
			Help: "Registry records written by kind and outcome",
		}, []string{"kind", "outcome"}), // outcome: "created", "updated"

		Rejections: f.NewCounterVec(prometheus.CounterOpts{
			Name: "folio_registry_rejections_total",
			Help: "Rejected registry operations by operation and error code",
		}, []string{"operation", "code"}),

		DerivationBump: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "folio_registry_derivation_bump",
			Help:    "Bump value found for derived addresses",
			Buckets: []float64{240, 248, 251, 253, 254, 255},
		}),

		OperationLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "folio_registry_operation_duration_seconds",
			Help:    "Duration of registry operations including storage",
			Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),
	}
}

func (m *Metrics) IncrementWrite(kind, outcome string) {
	if m != nil {
		m.Writes.WithLabelValues(kind, outcome).Inc()
	}
}

func (m *Metrics) IncrementRejection(operation, code string) {
	if m != nil {
		m.Rejections.WithLabelValues(operation, code).Inc()
	}
}

func (m *Metrics) ObserveBump(bump uint8) {
	if m != nil {
		m.DerivationBump.Observe(float64(bump))
	}
}

func (m *Metrics) ObserveLatency(operation string, d time.Duration) {
	if m != nil {
		m.OperationLatency.WithLabelValues(operation).Observe(d.Seconds())
	}
}
