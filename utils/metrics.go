package utils

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all prometheus metrics for the booking engine.
type Metrics struct {
	BookingsCreated   prometheus.Counter
	ConflictsRejected prometheus.Counter
	JobsFailed        *prometheus.CounterVec
	NotificationsSent prometheus.Counter
}

var AppMetrics *Metrics

// NewMetrics creates new prometheus metrics
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		BookingsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_created_total",
			Help:      "The total number of bookings created",
		}),
		ConflictsRejected: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_conflicts_total",
			Help:      "The total number of booking requests rejected for conflicts",
		}),
		JobsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_failed_total",
			Help:      "Scheduled jobs that exhausted their retry budget",
		}, []string{"task"}),
		NotificationsSent: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_sent_total",
			Help:      "The total number of notifications dispatched",
		}),
	}
}

// GetMetrics returns the global metrics registry, initializing it on first use.
func GetMetrics() *Metrics {
	if AppMetrics == nil {
		AppMetrics = NewMetrics("reservely")
	}
	return AppMetrics
}
