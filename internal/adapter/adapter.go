// Package adapter defines the contract every payment gateway adapter
// implements and the normalized request/response shapes exchanged with it.
// Adapters own all provider-specific concerns: serialization, retry,
// idempotency headers, error mapping, and webhook signature cryptography.
// The orchestrator never looks inside a vendor payload; it only routes.
package adapter

import (
	"context"
	"strings"

	"github.com/Pushparaj13811/unipay/internal/provider"
)

// Capability is a named feature flag an adapter declares support for.
type Capability string

const (
	CapHostedCheckout Capability = "HOSTED_CHECKOUT"
	CapSDKCheckout    Capability = "SDK_CHECKOUT"
	CapFullRefund     Capability = "FULL_REFUND"
	CapPartialRefund  Capability = "PARTIAL_REFUND"
	CapWebhooks       Capability = "WEBHOOKS"
	CapMetadata       Capability = "METADATA"
	CapIdempotency    Capability = "IDEMPOTENCY"
)

// CheckoutMode selects how payment completion is driven.
type CheckoutMode string

const (
	CheckoutHosted CheckoutMode = "hosted"
	CheckoutSDK    CheckoutMode = "sdk"
)

// RequiredCapability maps a checkout mode to the capability flag an adapter
// must declare in order to serve it.
func (m CheckoutMode) RequiredCapability() Capability {
	if m == CheckoutSDK {
		return CapSDKCheckout
	}
	return CapHostedCheckout
}

// Capabilities is the immutable per-provider declaration attached to each
// registered adapter. Exactly one instance exists per adapter and its
// Provider field matches the adapter's own tag.
type Capabilities struct {
	Provider            provider.Provider
	Features            map[Capability]bool
	SupportedCurrencies []string // ISO-4217, compared case-insensitively
	MinAmount           int64    // smallest currency unit; 0 means no floor
	MaxAmount           int64    // smallest currency unit; 0 means no ceiling
	MaxMetadataEntries  int      // 0 means unbounded
}

// Has reports whether the capability flag is declared.
func (c Capabilities) Has(cap Capability) bool {
	return c.Features[cap]
}

// SupportsCurrency reports whether the ISO-4217 code is in the declared
// currency set. Comparison ignores case.
func (c Capabilities) SupportsCurrency(currency string) bool {
	for _, cur := range c.SupportedCurrencies {
		if strings.EqualFold(cur, currency) {
			return true
		}
	}
	return false
}

// Money is an amount in the smallest unit of an ISO-4217 currency.
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// Customer is the optional payer information forwarded to the gateway.
type Customer struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// CreatePaymentInput is the gateway-agnostic payment creation request.
type CreatePaymentInput struct {
	Money                 Money             `json:"money"`
	SuccessURL            string            `json:"successUrl,omitempty"`
	CancelURL             string            `json:"cancelUrl,omitempty"`
	Customer              *Customer         `json:"customer,omitempty"`
	OrderReference        string            `json:"orderReference,omitempty"`
	Description           string            `json:"description,omitempty"`
	Metadata              map[string]string `json:"metadata,omitempty"`
	IdempotencyKey        string            `json:"idempotencyKey,omitempty"`
	ExpiresInSeconds      int64             `json:"expiresInSeconds,omitempty"`
	PreferredCheckoutMode CheckoutMode      `json:"preferredCheckoutMode,omitempty"`
}

// PaymentStatus is the normalized lifecycle state reported by adapters.
type PaymentStatus string

const (
	PaymentPending        PaymentStatus = "pending"
	PaymentRequiresAction PaymentStatus = "requires_action"
	PaymentSucceeded      PaymentStatus = "succeeded"
	PaymentFailed         PaymentStatus = "failed"
	PaymentExpired        PaymentStatus = "expired"
	PaymentRefunded       PaymentStatus = "refunded"
)

// HostedCheckout carries the redirect URL for gateway-hosted completion.
type HostedCheckout struct {
	RedirectURL string `json:"redirectUrl"`
}

// SDKCheckout carries the opaque provider payload a frontend SDK needs.
type SDKCheckout struct {
	ProviderData map[string]any `json:"providerData"`
}

// CreatePaymentResult is the outcome of creating a payment. It is a tagged
// variant on CheckoutMode: exactly one of Hosted or SDK is non-nil, matching
// the mode. Raw holds the unmodified adapter response as an escape hatch.
type CreatePaymentResult struct {
	Provider     provider.Provider `json:"provider"`
	ProviderID   string            `json:"providerId"`
	UnipayID     string            `json:"unipayId"`
	Status       PaymentStatus     `json:"status"`
	CheckoutMode CheckoutMode      `json:"checkoutMode"`
	Hosted       *HostedCheckout   `json:"hosted,omitempty"`
	SDK          *SDKCheckout      `json:"sdk,omitempty"`
	Raw          map[string]any    `json:"raw,omitempty"`
}

// Payment is the normalized view of an existing payment.
type Payment struct {
	Provider   provider.Provider `json:"provider"`
	ProviderID string            `json:"providerId"`
	UnipayID   string            `json:"unipayId"`
	Money      Money             `json:"money"`
	Status     PaymentStatus     `json:"status"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Raw        map[string]any    `json:"raw,omitempty"`
}

// RefundStatus is the normalized refund lifecycle state.
type RefundStatus string

const (
	RefundPending   RefundStatus = "pending"
	RefundSucceeded RefundStatus = "succeeded"
	RefundFailed    RefundStatus = "failed"
)

// CreateRefundInput requests a refund. A zero Amount means full refund.
type CreateRefundInput struct {
	Amount   int64             `json:"amount,omitempty"`
	Reason   string            `json:"reason,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Refund is the normalized view of a refund.
type Refund struct {
	Provider         provider.Provider `json:"provider"`
	ProviderRefundID string            `json:"providerRefundId"`
	PaymentID        string            `json:"paymentId"`
	Money            Money             `json:"money"`
	Status           RefundStatus      `json:"status"`
	Raw              map[string]any    `json:"raw,omitempty"`
}

// WebhookRequest is the raw inbound webhook call: body bytes as received
// plus the header map with original casing.
type WebhookRequest struct {
	Body    []byte
	Headers map[string]string
}

// Header performs a case-insensitive header lookup.
func (r WebhookRequest) Header(name string) string {
	for k, v := range r.Headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// WebhookConfig holds the per-provider webhook verification settings.
type WebhookConfig struct {
	Secret           string
	ToleranceSeconds int64 // 0 means the adapter's default tolerance
}

// WebhookVerification is the outcome of signature verification. It is a
// result value, never an error: adapters report invalid signatures through
// IsValid=false and Reason.
type WebhookVerification struct {
	IsValid bool
	Reason  string
}

// WebhookEventType is the normalized classification of a webhook event.
type WebhookEventType string

const (
	EventPaymentSucceeded WebhookEventType = "payment.succeeded"
	EventPaymentFailed    WebhookEventType = "payment.failed"
	EventPaymentExpired   WebhookEventType = "payment.expired"
	EventRefundSucceeded  WebhookEventType = "refund.succeeded"
	EventRefundFailed     WebhookEventType = "refund.failed"
	EventUnknown          WebhookEventType = "unknown"
)

// WebhookEvent is the normalized webhook payload handed back to callers.
type WebhookEvent struct {
	Provider   provider.Provider `json:"provider"`
	Type       WebhookEventType  `json:"type"`
	ProviderID string            `json:"providerId,omitempty"`
	RefundID   string            `json:"refundId,omitempty"`
	Money      *Money            `json:"money,omitempty"`
	Raw        map[string]any    `json:"raw,omitempty"`
}

// GatewayAdapter is implemented once per provider. Implementations must be
// safe for concurrent use; the orchestrator does not serialize calls.
type GatewayAdapter interface {
	// Provider returns the tag this adapter serves.
	Provider() provider.Provider

	// Capabilities returns the adapter's immutable capability declaration.
	Capabilities() Capabilities

	CreatePayment(ctx context.Context, input CreatePaymentInput) (*CreatePaymentResult, error)
	GetPayment(ctx context.Context, providerID string) (*Payment, error)
	CreateRefund(ctx context.Context, providerID string, input *CreateRefundInput) (*Refund, error)
	GetRefund(ctx context.Context, providerRefundID string) (*Refund, error)
	ListRefunds(ctx context.Context, providerID string) ([]Refund, error)

	// VerifyWebhookSignature never returns an error; verification failures
	// come back as a result with IsValid=false.
	VerifyWebhookSignature(req WebhookRequest, cfg WebhookConfig) WebhookVerification

	// ParseWebhookEvent is only called after signature verification passed.
	ParseWebhookEvent(req WebhookRequest) (*WebhookEvent, error)
}
