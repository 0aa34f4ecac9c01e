// Package telemetry holds the Prometheus business metrics.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BusinessMetrics holds Prometheus metrics for business-level observability.
type BusinessMetrics struct {
	// Checkout funnel
	CheckoutStarted  prometheus.Counter
	CheckoutFailed   prometheus.Counter
	SessionsCreated  prometheus.Counter

	// Orders
	OrdersCreated     prometheus.Counter
	OrderValue        prometheus.Histogram
	OrderStatusChange *prometheus.CounterVec

	// Webhooks
	WebhookReceived  *prometheus.CounterVec
	WebhookProcessed *prometheus.CounterVec
	WebhookFailed    *prometheus.CounterVec
	WebhookLatency   prometheus.Histogram

	// Returns and refunds
	ReturnsRequested prometheus.Counter
	RefundsIssued    prometheus.Counter
	RefundsFailed    prometheus.Counter
	RefundAmount     prometheus.Counter

	// QR lookups
	QRLookups      prometheus.Counter
	QRLookupMisses prometheus.Counter

	// Auth
	Signups     prometheus.Counter
	Logins      prometheus.Counter
	LoginFailed prometheus.Counter
}

// NewBusinessMetrics creates all business metrics and registers them with
// the default registry.
func NewBusinessMetrics(namespace string) *BusinessMetrics {
	return NewBusinessMetricsWith(prometheus.DefaultRegisterer, namespace)
}

// NewBusinessMetricsWith registers the metrics with reg. Tests pass a fresh
// registry so each instance registers cleanly.
func NewBusinessMetricsWith(reg prometheus.Registerer, namespace string) *BusinessMetrics {
	if namespace == "" {
		namespace = "ember"
	}
	subsystem := "business"
	auto := promauto.With(reg)

	return &BusinessMetrics{
		CheckoutStarted: auto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "checkout_started_total",
			Help:      "Total checkout session requests",
		}),
		CheckoutFailed: auto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "checkout_failed_total",
			Help:      "Total checkout session requests rejected or failed at the gateway",
		}),
		SessionsCreated: auto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "checkout_sessions_created_total",
			Help:      "Total hosted checkout sessions opened",
		}),

		OrdersCreated: auto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "orders_created_total",
			Help:      "Total orders materialized from paid sessions",
		}),
		OrderValue: auto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "order_value_dollars",
			Help:      "Distribution of order totals in dollars",
			Buckets:   []float64{10, 25, 50, 100, 200, 500},
		}),
		OrderStatusChange: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "order_status_changes_total",
			Help:      "Total order status transitions",
		}, []string{"to"}),

		WebhookReceived: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "webhook_received_total",
			Help:      "Total webhook events received",
		}, []string{"event_type"}),
		WebhookProcessed: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "webhook_processed_total",
			Help:      "Total webhook events processed successfully",
		}, []string{"event_type"}),
		WebhookFailed: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "webhook_failed_total",
			Help:      "Total webhook events that failed processing",
		}, []string{"event_type"}),
		WebhookLatency: auto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "webhook_latency_seconds",
			Help:      "Webhook handling latency",
			Buckets:   prometheus.DefBuckets,
		}),

		ReturnsRequested: auto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "returns_requested_total",
			Help:      "Total return requests created",
		}),
		RefundsIssued: auto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "refunds_issued_total",
			Help:      "Total refunds completed at the gateway",
		}),
		RefundsFailed: auto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "refunds_failed_total",
			Help:      "Total refund attempts rejected by the gateway",
		}),
		RefundAmount: auto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "refund_amount_dollars_total",
			Help:      "Total dollars refunded",
		}),

		QRLookups: auto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "qr_lookups_total",
			Help:      "Total QR code lookups",
		}),
		QRLookupMisses: auto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "qr_lookup_misses_total",
			Help:      "Total QR code lookups for unknown codes",
		}),

		Signups: auto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "signups_total",
			Help:      "Total accounts created",
		}),
		Logins: auto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "logins_total",
			Help:      "Total successful logins",
		}),
		LoginFailed: auto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "login_failed_total",
			Help:      "Total failed login attempts",
		}),
	}
}
