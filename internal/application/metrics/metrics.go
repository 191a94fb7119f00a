package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the application module.
// Tracks transition volume, denials, and critical path durations.
type Metrics struct {
	Transitions          *prometheus.CounterVec
	TransitionsDenied    *prometheus.CounterVec
	ChangeStatusDuration prometheus.Histogram
}

// New creates a Metrics instance with all application module metrics
// registered on the default registry.
func New() *Metrics {
	return &Metrics{
		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "origen_application_transitions_total",
			Help: "Total number of successful application status transitions",
		}, []string{"from", "to"}),
		TransitionsDenied: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "origen_application_transitions_denied_total",
			Help: "Total number of refused status transitions",
		}, []string{"reason"}),
		ChangeStatusDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "origen_application_change_status_duration_seconds",
			Help:    "Duration of ChangeStatus operations (review critical path)",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// RecordTransition records a successful transition between two statuses.
func (m *Metrics) RecordTransition(from, to string) {
	m.Transitions.WithLabelValues(from, to).Inc()
}

// RecordDenied records a refused transition with its denial reason.
func (m *Metrics) RecordDenied(reason string) {
	m.TransitionsDenied.WithLabelValues(reason).Inc()
}

// ObserveChangeStatus records the duration of a ChangeStatus operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveChangeStatus(start time.Time) {
	m.ChangeStatusDuration.Observe(time.Since(start).Seconds())
}
