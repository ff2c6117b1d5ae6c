// Package metrics provides observability for the membership module.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks mutation counts, validation outcomes, and critical path
// durations for the membership module.
type Metrics struct {
	MembershipsCreated prometheus.Counter
	MembershipsUpdated prometheus.Counter
	MembershipsDeleted prometheus.Counter
	ValidationFailures prometheus.Counter
	CreateDuration     prometheus.Histogram
	ListDuration       prometheus.Histogram
}

// New creates a Metrics instance with all membership metrics registered on
// the default registry.
func New() *Metrics {
	return &Metrics{
		MembershipsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rollbook_memberships_created_total",
			Help: "Total number of memberships created",
		}),
		MembershipsUpdated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rollbook_memberships_updated_total",
			Help: "Total number of memberships updated",
		}),
		MembershipsDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rollbook_memberships_deleted_total",
			Help: "Total number of memberships soft-deleted",
		}),
		ValidationFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rollbook_membership_validation_failures_total",
			Help: "Total number of candidates rejected by the rule evaluator",
		}),
		CreateDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "rollbook_membership_create_duration_seconds",
			Help:    "Duration of membership create operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		ListDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "rollbook_membership_list_duration_seconds",
			Help:    "Duration of membership list operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// ObserveCreate records the duration of a create operation.
func (m *Metrics) ObserveCreate(start time.Time) {
	m.CreateDuration.Observe(time.Since(start).Seconds())
}

// ObserveList records the duration of a list operation.
func (m *Metrics) ObserveList(start time.Time) {
	m.ListDuration.Observe(time.Since(start).Seconds())
}
