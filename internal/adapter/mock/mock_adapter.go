// Package mock provides a configurable in-memory GatewayAdapter for tests
// and local development. Every operation can be overridden through a
// function field; unset operations fall back to a plausible default.
package mock

import (
	"context"

	"github.com/google/uuid"

	"github.com/Pushparaj13811/unipay/internal/adapter"
	"github.com/Pushparaj13811/unipay/internal/provider"
	"github.com/Pushparaj13811/unipay/internal/unipayid"
)

// Adapter is a mock implementation of adapter.GatewayAdapter.
type Adapter struct {
	Tag  provider.Provider
	Caps adapter.Capabilities

	CreatePaymentFunc   func(ctx context.Context, input adapter.CreatePaymentInput) (*adapter.CreatePaymentResult, error)
	GetPaymentFunc      func(ctx context.Context, providerID string) (*adapter.Payment, error)
	CreateRefundFunc    func(ctx context.Context, providerID string, input *adapter.CreateRefundInput) (*adapter.Refund, error)
	GetRefundFunc       func(ctx context.Context, providerRefundID string) (*adapter.Refund, error)
	ListRefundsFunc     func(ctx context.Context, providerID string) ([]adapter.Refund, error)
	VerifySignatureFunc func(req adapter.WebhookRequest, cfg adapter.WebhookConfig) adapter.WebhookVerification
	ParseEventFunc      func(req adapter.WebhookRequest) (*adapter.WebhookEvent, error)
}

// New creates a mock adapter for the given provider tag. The default
// capability declaration supports both checkout modes and a broad currency
// set; pass different Capabilities via WithCapabilities for narrower tests.
func New(tag provider.Provider) *Adapter {
	return &Adapter{
		Tag: tag,
		Caps: adapter.Capabilities{
			Provider: tag,
			Features: map[adapter.Capability]bool{
				adapter.CapHostedCheckout: true,
				adapter.CapSDKCheckout:    true,
				adapter.CapFullRefund:     true,
				adapter.CapPartialRefund:  true,
				adapter.CapWebhooks:       true,
				adapter.CapMetadata:       true,
				adapter.CapIdempotency:    true,
			},
			SupportedCurrencies: []string{"USD", "EUR", "GBP", "INR"},
		},
	}
}

// WithCapabilities replaces the capability declaration. The Provider field
// is forced to the adapter's own tag to keep the declaration consistent.
func (m *Adapter) WithCapabilities(caps adapter.Capabilities) *Adapter {
	caps.Provider = m.Tag
	m.Caps = caps
	return m
}

func (m *Adapter) Provider() provider.Provider        { return m.Tag }
func (m *Adapter) Capabilities() adapter.Capabilities { return m.Caps }

func (m *Adapter) CreatePayment(ctx context.Context, input adapter.CreatePaymentInput) (*adapter.CreatePaymentResult, error) {
	if m.CreatePaymentFunc != nil {
		return m.CreatePaymentFunc(ctx, input)
	}
	nativeID := "pay_" + uuid.NewString()
	uid, err := unipayid.Create(m.Tag, nativeID)
	if err != nil {
		return nil, err
	}
	res := &adapter.CreatePaymentResult{
		Provider:     m.Tag,
		ProviderID:   nativeID,
		UnipayID:     uid,
		Status:       adapter.PaymentPending,
		CheckoutMode: adapter.CheckoutHosted,
		Hosted:       &adapter.HostedCheckout{RedirectURL: "https://checkout.example.com/" + nativeID},
		Raw:          map[string]any{"mock": true},
	}
	if input.PreferredCheckoutMode == adapter.CheckoutSDK {
		res.CheckoutMode = adapter.CheckoutSDK
		res.Hosted = nil
		res.SDK = &adapter.SDKCheckout{ProviderData: map[string]any{"client_secret": "sec_" + nativeID}}
	}
	return res, nil
}

func (m *Adapter) GetPayment(ctx context.Context, providerID string) (*adapter.Payment, error) {
	if m.GetPaymentFunc != nil {
		return m.GetPaymentFunc(ctx, providerID)
	}
	uid, err := unipayid.Create(m.Tag, providerID)
	if err != nil {
		return nil, err
	}
	return &adapter.Payment{
		Provider:   m.Tag,
		ProviderID: providerID,
		UnipayID:   uid,
		Status:     adapter.PaymentSucceeded,
	}, nil
}

func (m *Adapter) CreateRefund(ctx context.Context, providerID string, input *adapter.CreateRefundInput) (*adapter.Refund, error) {
	if m.CreateRefundFunc != nil {
		return m.CreateRefundFunc(ctx, providerID, input)
	}
	var amount int64
	if input != nil {
		amount = input.Amount
	}
	return &adapter.Refund{
		Provider:         m.Tag,
		ProviderRefundID: "rf_" + uuid.NewString(),
		PaymentID:        providerID,
		Money:            adapter.Money{Amount: amount},
		Status:           adapter.RefundPending,
	}, nil
}

func (m *Adapter) GetRefund(ctx context.Context, providerRefundID string) (*adapter.Refund, error) {
	if m.GetRefundFunc != nil {
		return m.GetRefundFunc(ctx, providerRefundID)
	}
	return &adapter.Refund{
		Provider:         m.Tag,
		ProviderRefundID: providerRefundID,
		Status:           adapter.RefundSucceeded,
	}, nil
}

func (m *Adapter) ListRefunds(ctx context.Context, providerID string) ([]adapter.Refund, error) {
	if m.ListRefundsFunc != nil {
		return m.ListRefundsFunc(ctx, providerID)
	}
	return nil, nil
}

func (m *Adapter) VerifyWebhookSignature(req adapter.WebhookRequest, cfg adapter.WebhookConfig) adapter.WebhookVerification {
	if m.VerifySignatureFunc != nil {
		return m.VerifySignatureFunc(req, cfg)
	}
	return adapter.WebhookVerification{IsValid: true}
}

func (m *Adapter) ParseWebhookEvent(req adapter.WebhookRequest) (*adapter.WebhookEvent, error) {
	if m.ParseEventFunc != nil {
		return m.ParseEventFunc(req)
	}
	return &adapter.WebhookEvent{Provider: m.Tag, Type: adapter.EventUnknown}, nil
}
