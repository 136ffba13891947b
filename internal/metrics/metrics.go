// Package metrics defines Prometheus metrics for the relay daemon.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "botlist_relay_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "botlist_relay_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	UpvotesReceived = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "botlist_relay_upvotes_received_total",
			Help: "Upvote notifications accepted by the webhook receiver",
		},
	)

	WebhookRejections = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "botlist_relay_webhook_rejections_total",
			Help: "Webhook requests rejected during validation",
		},
	)

	WSConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "botlist_relay_websocket_connections",
			Help: "Active WebSocket subscribers",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestDuration, RequestsTotal,
		UpvotesReceived, WebhookRejections,
		WSConnections,
	)
}
