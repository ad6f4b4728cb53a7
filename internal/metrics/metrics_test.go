package metrics

import (
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, m *Metrics, vec string, labels ...string) float64 {
	t.Helper()
	var metric dto.Metric
	switch vec {
	case "payments":
		require.NoError(t, m.PaymentsTotal().WithLabelValues(labels...).Write(&metric))
	case "webhooks":
		require.NoError(t, m.WebhooksTotal().WithLabelValues(labels...).Write(&metric))
	default:
		t.Fatalf("unknown vec %s", vec)
	}
	return metric.GetCounter().GetValue()
}

func TestObservePayment(t *testing.T) {
	m := New()
	m.ObservePayment("stripe", true, 120*time.Millisecond)
	m.ObservePayment("stripe", true, 80*time.Millisecond)
	m.ObservePayment("stripe", false, 40*time.Millisecond)

	assert.Equal(t, float64(2), counterValue(t, m, "payments", "stripe", "success"))
	assert.Equal(t, float64(1), counterValue(t, m, "payments", "stripe", "failure"))
	assert.Zero(t, counterValue(t, m, "payments", "razorpay", "success"))
}

func TestObserveWebhook(t *testing.T) {
	m := New()
	m.ObserveWebhook("razorpay", false)
	assert.Equal(t, float64(1), counterValue(t, m, "webhooks", "razorpay", "failure"))
}

func TestRegistriesAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.ObservePayment("stripe", true, time.Millisecond)

	families, err := b.Registry().Gather()
	require.NoError(t, err)
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			assert.Zero(t, metric.GetCounter().GetValue(),
				"a fresh Metrics set must start empty")
		}
	}
}

func TestRegistryGathersAllInstruments(t *testing.T) {
	m := New()
	m.ObservePayment("stripe", true, time.Millisecond)
	m.ObserveRefund("stripe", true, time.Millisecond)
	m.ObserveWebhook("stripe", true)

	families, err := m.Registry().Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	assert.True(t, names["unipay_payments_total"])
	assert.True(t, names["unipay_refunds_total"])
	assert.True(t, names["unipay_webhooks_total"])
	assert.True(t, names["unipay_gateway_latency_seconds"])
}
