package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus metrics for event ingestion and the daily aggregation job
var (
	EventsIngestedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "site_attendance_events_ingested_total",
			Help: "Total number of attendance events accepted",
		},
		[]string{"event_type", "noise"},
	)

	EventsRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "site_attendance_events_rejected_total",
			Help: "Total number of attendance events rejected before persistence",
		},
		[]string{"reason"},
	)

	NotificationsFailedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "site_attendance_notifications_failed_total",
			Help: "Total number of notification hook calls that returned an error",
		},
	)

	AggregationRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "site_attendance_aggregation_runs_total",
			Help: "Total number of daily aggregation runs by outcome",
		},
		[]string{"outcome"},
	)

	AggregationGroupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "site_attendance_aggregation_groups_total",
			Help: "Total number of employee/site groups processed by outcome",
		},
		[]string{"outcome"},
	)

	AggregationEventsProcessedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "site_attendance_aggregation_events_processed_total",
			Help: "Total number of events marked processed by the aggregation job",
		},
	)

	// AggregationSessionsTotal counts enter/exit pairing outcomes of committed groups
	AggregationSessionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "site_attendance_aggregation_sessions_total",
			Help: "Presence sessions seen by the daily aggregation, by kind (closed, orphan_enter, open)",
		},
		[]string{"kind"},
	)

	AggregationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "site_attendance_aggregation_duration_seconds",
			Help:    "Duration of a single tenant aggregation run",
			Buckets: prometheus.DefBuckets,
		},
	)

	SettingsCacheHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "site_attendance_settings_cache_total",
			Help: "Settings cache lookups by result",
		},
		[]string{"result"},
	)
)

var registerOnce sync.Once

// Register registers all Prometheus metrics with the default registry. Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(EventsIngestedTotal)
		prometheus.MustRegister(EventsRejectedTotal)
		prometheus.MustRegister(NotificationsFailedTotal)
		prometheus.MustRegister(AggregationRunsTotal)
		prometheus.MustRegister(AggregationGroupsTotal)
		prometheus.MustRegister(AggregationEventsProcessedTotal)
		prometheus.MustRegister(AggregationSessionsTotal)
		prometheus.MustRegister(AggregationDuration)
		prometheus.MustRegister(SettingsCacheHitsTotal)
	})
}
