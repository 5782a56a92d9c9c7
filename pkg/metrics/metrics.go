// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chefbazaar_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chefbazaar_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "route"},
	)

	HTTPActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chefbazaar_http_active_requests",
			Help: "Current number of in-flight HTTP requests",
		},
	)

	CheckoutSessionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chefbazaar_checkout_sessions_total",
			Help: "Checkout sessions opened, by outcome",
		},
		[]string{"outcome"},
	)

	PaymentsConfirmedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chefbazaar_payments_confirmed_total",
			Help: "Payments recorded for the first time",
		},
	)

	DuplicateConfirmationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chefbazaar_payment_duplicate_confirmations_total",
			Help: "Confirmation callbacks for transactions that were already recorded",
		},
	)

	ProviderLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chefbazaar_checkout_provider_duration_seconds",
			Help:    "Latency of checkout provider calls",
			Buckets: prometheus.DefBuckets,
		},
	)

	// 0 closed, 1 half-open, 2 open.
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "chefbazaar_circuit_breaker_state",
			Help: "Circuit breaker state",
		},
		[]string{"name"},
	)

	AuditEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chefbazaar_audit_events_total",
			Help: "Audit events processed, by result",
		},
		[]string{"result"},
	)
)

// RecordHTTPRequest records a finished request.
func RecordHTTPRequest(method, route string, status int, elapsed time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
