package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for appointment scheduling.
type Metrics struct {
	// Status changes applied by the clock, labelled by old and new status
	StatusChanges *prometheus.CounterVec

	// Explicit appointment actions by outcome kind ("ok", "already_assigned", ...)
	ActionOutcomes *prometheus.CounterVec

	SweepDuration prometheus.Histogram
}

// New registers the metrics on the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		StatusChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "nannyhub_appointment_status_changes_total",
			Help: "Appointment status changes applied by the status sweep",
		}, []string{"from", "to"}),

		ActionOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "nannyhub_appointment_actions_total",
			Help: "Appointment actions by action and outcome",
		}, []string{"action", "outcome"}),

		SweepDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "nannyhub_status_sweep_duration_seconds",
			Help:    "Duration of a full appointment status sweep",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
	}
}

func (m *Metrics) IncrementStatusChange(from, to string) {
	if m != nil {
		m.StatusChanges.WithLabelValues(from, to).Inc()
	}
}

func (m *Metrics) IncrementActionOutcome(action, outcome string) {
	if m != nil {
		m.ActionOutcomes.WithLabelValues(action, outcome).Inc()
	}
}

func (m *Metrics) ObserveSweepDuration(d time.Duration) {
	if m != nil {
		m.SweepDuration.Observe(d.Seconds())
	}
}
