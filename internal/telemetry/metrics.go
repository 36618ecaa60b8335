package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	CourierErrors   *prometheus.CounterVec
	WebhookEvents   *prometheus.CounterVec
}

// NewMetrics creates and registers Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "courier_requests_total",
				Help: "Total number of courier API requests by operation, carrier, and status",
			},
			[]string{"operation", "carrier", "status"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "courier_request_duration_seconds",
				Help:    "Courier API request duration in seconds by operation and carrier",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "carrier"},
		),
		CourierErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "courier_api_errors_total",
				Help: "Total courier API errors by carrier and error type",
			},
			[]string{"carrier", "error_type"},
		),
		WebhookEvents: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "courier_webhook_events_total",
				Help: "Total inbound webhook deliveries by topic and outcome",
			},
			[]string{"topic", "outcome"},
		),
	}
}

// RecordRequest records a courier API request metric.
func (m *Metrics) RecordRequest(operation, carrier, status string, duration float64) {
	m.RequestsTotal.WithLabelValues(operation, carrier, status).Inc()
	m.RequestDuration.WithLabelValues(operation, carrier).Observe(duration)
}

// RecordError records a courier API error metric.
func (m *Metrics) RecordError(carrier, errorType string) {
	m.CourierErrors.WithLabelValues(carrier, errorType).Inc()
}

// RecordWebhook records an inbound webhook delivery metric.
func (m *Metrics) RecordWebhook(topic, outcome string) {
	m.WebhookEvents.WithLabelValues(topic, outcome).Inc()
}
