package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the tenant module.
type Metrics struct {
	TenantsCreated   prometheus.Counter
	LifecycleChanges *prometheus.CounterVec
}

// New creates a Metrics instance with all tenant module metrics registered
// on the default registry.
func New() *Metrics {
	return &Metrics{
		TenantsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "origen_tenants_created_total",
			Help: "Total number of tenants created",
		}),
		LifecycleChanges: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "origen_tenant_lifecycle_changes_total",
			Help: "Total number of tenant activations and deactivations",
		}, []string{"action"}),
	}
}

// RecordCreated records a tenant creation.
func (m *Metrics) RecordCreated() {
	m.TenantsCreated.Inc()
}

// RecordLifecycle records an activation or deactivation.
func (m *Metrics) RecordLifecycle(action string) {
	m.LifecycleChanges.WithLabelValues(action).Inc()
}
