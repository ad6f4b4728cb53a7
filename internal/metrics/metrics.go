// Package metrics exposes the Prometheus instruments for the gateway
// server: operation counters labelled by provider and outcome, plus a
// latency histogram per provider.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the gateway instruments registered on one registry.
type Metrics struct {
	registry *prometheus.Registry

	paymentsTotal  *prometheus.CounterVec
	refundsTotal   *prometheus.CounterVec
	webhooksTotal  *prometheus.CounterVec
	gatewayLatency *prometheus.HistogramVec
}

// New creates a Metrics set on its own registry, so tests stay hermetic
// and the server can mount exactly what it registered.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		paymentsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "unipay_payments_total",
			Help: "Payment creation attempts by provider and outcome.",
		}, []string{"provider", "outcome"}),
		refundsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "unipay_refunds_total",
			Help: "Refund attempts by provider and outcome.",
		}, []string{"provider", "outcome"}),
		webhooksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "unipay_webhooks_total",
			Help: "Webhook deliveries by provider and outcome.",
		}, []string{"provider", "outcome"}),
		gatewayLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "unipay_gateway_latency_seconds",
			Help:    "Wall time of gateway adapter calls by provider.",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
	}
}

// Registry returns the underlying registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObservePayment records one payment attempt.
func (m *Metrics) ObservePayment(provider string, ok bool, elapsed time.Duration) {
	m.paymentsTotal.WithLabelValues(provider, outcome(ok)).Inc()
	m.gatewayLatency.WithLabelValues(provider).Observe(elapsed.Seconds())
}

// ObserveRefund records one refund attempt.
func (m *Metrics) ObserveRefund(provider string, ok bool, elapsed time.Duration) {
	m.refundsTotal.WithLabelValues(provider, outcome(ok)).Inc()
	m.gatewayLatency.WithLabelValues(provider).Observe(elapsed.Seconds())
}

// ObserveWebhook records one webhook delivery.
func (m *Metrics) ObserveWebhook(provider string, ok bool) {
	m.webhooksTotal.WithLabelValues(provider, outcome(ok)).Inc()
}

// PaymentsTotal exposes the counter for tests.
func (m *Metrics) PaymentsTotal() *prometheus.CounterVec { return m.paymentsTotal }

// WebhooksTotal exposes the counter for tests.
func (m *Metrics) WebhooksTotal() *prometheus.CounterVec { return m.webhooksTotal }

func outcome(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
