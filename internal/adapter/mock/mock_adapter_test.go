package mock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pushparaj13811/unipay/internal/adapter"
	"github.com/Pushparaj13811/unipay/internal/provider"
	"github.com/Pushparaj13811/unipay/internal/unipayid"
)

func TestDefaultsProduceCoherentPayment(t *testing.T) {
	m := New(provider.Stripe)
	res, err := m.CreatePayment(context.Background(), adapter.CreatePaymentInput{
		Money: adapter.Money{Amount: 100, Currency: "USD"},
	})
	require.NoError(t, err)

	assert.Equal(t, provider.Stripe, res.Provider)
	assert.Equal(t, adapter.CheckoutHosted, res.CheckoutMode)
	require.NotNil(t, res.Hosted)
	assert.Nil(t, res.SDK)

	p, nativeID, err := unipayid.Parse(res.UnipayID)
	require.NoError(t, err)
	assert.Equal(t, provider.Stripe, p)
	assert.Equal(t, res.ProviderID, nativeID)
}

func TestSDKPreferenceSwitchesVariant(t *testing.T) {
	m := New(provider.Razorpay)
	res, err := m.CreatePayment(context.Background(), adapter.CreatePaymentInput{
		Money:                 adapter.Money{Amount: 100, Currency: "INR"},
		PreferredCheckoutMode: adapter.CheckoutSDK,
	})
	require.NoError(t, err)
	assert.Equal(t, adapter.CheckoutSDK, res.CheckoutMode)
	assert.Nil(t, res.Hosted)
	require.NotNil(t, res.SDK)
}

func TestWithCapabilitiesPinsProvider(t *testing.T) {
	m := New(provider.Stripe).WithCapabilities(adapter.Capabilities{
		Provider:            provider.Razorpay, // deliberately wrong
		SupportedCurrencies: []string{"USD"},
	})
	assert.Equal(t, provider.Stripe, m.Capabilities().Provider)
}

func TestOverridesTakePrecedence(t *testing.T) {
	m := New(provider.Stripe)
	m.GetPaymentFunc = func(ctx context.Context, providerID string) (*adapter.Payment, error) {
		return &adapter.Payment{ProviderID: "override"}, nil
	}
	p, err := m.GetPayment(context.Background(), "cs_1")
	require.NoError(t, err)
	assert.Equal(t, "override", p.ProviderID)
}
