// Package metrics holds the Prometheus collectors of the check-in service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

var (
	// LedgerOperationsTotal counts ledger commands by operation and outcome
	LedgerOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkin_ledger_operations_total",
			Help: "Total number of ledger operations",
		},
		[]string{"operation", "outcome"},
	)

	// LedgerOperationDuration tracks ledger command latency including retries
	LedgerOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "checkin_ledger_operation_duration_seconds",
			Help:    "Duration of ledger operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// LedgerRetriesTotal counts transaction retries after a conflict
	LedgerRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkin_ledger_retries_total",
			Help: "Total number of ledger transaction retries",
		},
		[]string{"reason"},
	)

	// UnitsAllocatedTotal counts inventory units moved to guests
	UnitsAllocatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "checkin_units_allocated_total",
			Help: "Total inventory units allocated to guests",
		},
	)

	// UnitsReturnedTotal counts inventory units returned by reversals
	UnitsReturnedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "checkin_units_returned_total",
			Help: "Total inventory units returned to stock by reversals",
		},
	)

	// ActivityAppendFailuresTotal counts ledger changes committed without their audit row
	ActivityAppendFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "checkin_activity_append_failures_total",
			Help: "Total activity log appends that failed inside a committed ledger transaction",
		},
	)

	// ActivityPublishFailuresTotal counts activity entries not forwarded to Kafka
	ActivityPublishFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "checkin_activity_publish_failures_total",
			Help: "Total activity entries that could not be published to the activity stream",
		},
	)

	// NotifierSignalsTotal counts change signals by backend and result
	NotifierSignalsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkin_notifier_signals_total",
			Help: "Total change signals handled by the notifier",
		},
		[]string{"backend", "result"},
	)

	// AnalyticsDuration tracks analytics computation latency
	AnalyticsDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "checkin_analytics_duration_seconds",
			Help:    "Duration of analytics requests in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"granularity", "source"},
	)

	// AnalyticsCacheTotal counts snapshot cache lookups
	AnalyticsCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkin_analytics_cache_total",
			Help: "Total analytics snapshot cache lookups",
		},
		[]string{"result"},
	)

	// StreamSubscribers is the number of open dashboard streams
	StreamSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "checkin_stream_subscribers",
			Help: "Number of connected dashboard stream clients",
		},
	)

	// KafkaMessagesTotal counts produced and consumed messages by topic and result
	KafkaMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkin_kafka_messages_total",
			Help: "Total Kafka messages produced or consumed",
		},
		[]string{"topic", "result"},
	)

	// HTTPRequestsTotal counts API requests
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkin_service_requests_total",
			Help: "Total number of requests to checkin service",
		},
		[]string{"method", "endpoint", "status"},
	)

	// HTTPRequestDuration tracks API latency
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "checkin_service_request_duration_seconds",
			Help:    "Duration of checkin service requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	RateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "checkin_rate_limited_requests_total",
			Help: "Total API requests rejected by the rate limiter",
		},
	)
)

// RecordLedgerOperation records the outcome and latency of one ledger command
func RecordLedgerOperation(operation, outcome string, duration time.Duration) {
	LedgerOperationsTotal.WithLabelValues(operation, outcome).Inc()
	LedgerOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordAnalytics records one analytics request served from source (cache or compute)
func RecordAnalytics(granularity, source string, duration time.Duration) {
	AnalyticsDuration.WithLabelValues(granularity, source).Observe(duration.Seconds())
}
