package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the verification module.
type Metrics struct {
	Verifications  *prometheus.CounterVec
	KYCCompletions prometheus.Counter
}

// New creates a Metrics instance with all verification module metrics
// registered on the default registry.
func New() *Metrics {
	return &Metrics{
		Verifications: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "origen_verification_writes_total",
			Help: "Total number of field verification writes by outcome",
		}, []string{"field", "method", "outcome"}),
		KYCCompletions: promauto.NewCounter(prometheus.CounterOpts{
			Name: "origen_verification_kyc_completions_total",
			Help: "Total number of persons whose KYC status reached verified",
		}),
	}
}

// RecordApplied records a verification write that changed the record.
func (m *Metrics) RecordApplied(field, method string) {
	m.Verifications.WithLabelValues(field, method, "applied").Inc()
}

// RecordLockedNoop records a write suppressed by the lock rule.
func (m *Metrics) RecordLockedNoop(field, method string) {
	m.Verifications.WithLabelValues(field, method, "locked_noop").Inc()
}

// RecordKYCCompleted records a person-level KYC completion.
func (m *Metrics) RecordKYCCompleted() {
	m.KYCCompletions.Inc()
}
