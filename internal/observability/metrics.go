// Package observability holds the Prometheus collectors for the service.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	intakeEntries = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "hydration",
		Subsystem: "intake",
		Name:      "entries_recorded_total",
		Help:      "Number of intake entries written to the remote store.",
	})
	intakeMilliliters = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "hydration",
		Subsystem: "intake",
		Name:      "milliliters_recorded_total",
		Help:      "Sum of milliliters written to the remote store.",
	})
	cacheFallbacks = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "hydration",
		Subsystem: "cache",
		Name:      "fallback_reads_total",
		Help:      "Daily totals served from the local cache because the remote store failed.",
	})
	goalNotifications = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hydration",
		Subsystem: "notify",
		Name:      "goal_notifications_total",
		Help:      "Goal-reached notifications by delivery result.",
	}, []string{"result"})
)

func init() {
	prometheus.MustRegister(intakeEntries, intakeMilliliters, cacheFallbacks, goalNotifications)
}

// RecordIntake counts one stored entry of amountML milliliters.
func RecordIntake(amountML int) {
	if amountML <= 0 {
		return
	}
	intakeEntries.Inc()
	intakeMilliliters.Add(float64(amountML))
}

// RecordCacheFallback counts a total served from the local cache.
func RecordCacheFallback() {
	cacheFallbacks.Inc()
}

// RecordGoalNotification counts a notification attempt.
func RecordGoalNotification(err error) {
	if err != nil {
		goalNotifications.WithLabelValues("error").Inc()
		return
	}
	goalNotifications.WithLabelValues("ok").Inc()
}
