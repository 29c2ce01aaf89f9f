package metrics

import "github.com/prometheus/client_golang/prometheus"

// Prometheus metrics for notification reconciliation
var (
	NotificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_notifications_total",
			Help: "Total number of gateway notifications handled, by message type and outcome",
		},
		[]string{"message_type", "status"},
	)

	MatchStrategyTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_notification_match_strategy_total",
			Help: "Lookup strategy that resolved a notification to an order",
		},
		[]string{"strategy"},
	)

	AnnotationFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "order_note_annotation_failures_total",
			Help: "Order notes that could not be composed or persisted",
		},
	)

	NotificationProcessingDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_notification_processing_duration_seconds",
			Help:    "Duration of notification handling",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"message_type"},
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"handler", "method", "status"},
	)
)

// Register registers all Prometheus metrics
func Register() {
	prometheus.MustRegister(NotificationsTotal)
	prometheus.MustRegister(MatchStrategyTotal)
	prometheus.MustRegister(AnnotationFailuresTotal)
	prometheus.MustRegister(NotificationProcessingDuration)
	prometheus.MustRegister(HTTPRequestsTotal)
}
