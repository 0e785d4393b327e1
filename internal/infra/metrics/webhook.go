package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		WebhookRequests,
		WebhookDuration,
	)
}

var (
	// Count of webhook deliveries grouped by result and bounded reason.
	// result: ok|fail
	// reason (fail only): bad_payload|bad_checksum|unknown_order|complete_error|fail_error|unknown
	WebhookRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_webhook_requests_total",
			Help: "Count of gateway webhook deliveries by result and reason.",
		},
		[]string{"result", "reason"},
	)

	// Latency of the webhook handler grouped by result.
	WebhookDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_webhook_duration_seconds",
			Help:    "Duration of the gateway webhook handler in seconds.",
			Buckets: []float64{0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"result"},
	)
)
