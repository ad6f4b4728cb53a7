// Package orchestrator owns the adapter registry and routes every payment,
// refund, and webhook operation to the right gateway adapter. It validates
// its configuration once at construction and enforces the cross-cutting
// checks (currency support, checkout mode, webhook signatures) before
// delegating; adapter failures pass through to the caller unchanged.
package orchestrator

import (
	"context"
	"sync/atomic"

	"github.com/Pushparaj13811/unipay/internal/adapter"
	"github.com/Pushparaj13811/unipay/internal/payerror"
	"github.com/Pushparaj13811/unipay/internal/provider"
	"github.com/Pushparaj13811/unipay/internal/resolver"
	"github.com/Pushparaj13811/unipay/internal/unipayid"
)

// Config carries everything an Orchestrator needs. Adapters keep their
// slice order; that order is the registry iteration order the strategies
// see. The registry and webhook map are read-only after construction.
type Config struct {
	Adapters        []adapter.GatewayAdapter
	WebhookConfigs  map[provider.Provider]adapter.WebhookConfig
	DefaultProvider provider.Provider
	Strategy        resolver.Strategy // empty means first-available
	CustomResolver  resolver.Func     // required when Strategy is custom
	AmountRoutes    []resolver.AmountRoute
}

// Options tunes a single CreatePayment call.
type Options struct {
	// Provider forces a specific gateway, bypassing the configured
	// strategy. It must be registered.
	Provider provider.Provider
}

// Orchestrator is safe for concurrent use. The only mutable state is the
// round-robin cursor, which is advanced atomically.
type Orchestrator struct {
	adapters        []adapter.GatewayAdapter
	byProvider      map[provider.Provider]adapter.GatewayAdapter
	webhookConfigs  map[provider.Provider]adapter.WebhookConfig
	defaultProvider provider.Provider
	strategy        resolver.Strategy
	customResolver  resolver.Func
	amountRoutes    []resolver.AmountRoute
	rrCursor        atomic.Uint64
}

// New validates the configuration and builds a ready Orchestrator.
// Validation failures are fatal configuration errors; a constructed
// Orchestrator never fails for configuration reasons afterwards.
func New(cfg Config) (*Orchestrator, error) {
	if len(cfg.Adapters) == 0 {
		return nil, payerror.New(payerror.CodeMissingProvider,
			"at least one gateway adapter is required")
	}

	byProvider := make(map[provider.Provider]adapter.GatewayAdapter, len(cfg.Adapters))
	for _, a := range cfg.Adapters {
		p := a.Provider()
		if _, dup := byProvider[p]; dup {
			return nil, payerror.NewFor(payerror.CodeDuplicateProvider, p,
				"provider %s is registered twice", p)
		}
		if caps := a.Capabilities(); caps.Provider != p {
			return nil, payerror.NewFor(payerror.CodeInvalidInput, p,
				"adapter for %s declares capabilities for %s", p, caps.Provider)
		}
		byProvider[p] = a
	}

	strategy := cfg.Strategy
	if strategy == "" {
		strategy = resolver.StrategyFirstAvailable
	}
	if !strategy.IsKnown() {
		return nil, payerror.New(payerror.CodeInvalidResolutionStrategy,
			"unknown resolution strategy %q", strategy)
	}
	if strategy == resolver.StrategyCustom && cfg.CustomResolver == nil {
		return nil, payerror.New(payerror.CodeInvalidResolutionStrategy,
			"custom strategy requires a resolver function")
	}
	if strategy == resolver.StrategyByAmount && len(cfg.AmountRoutes) == 0 {
		return nil, payerror.New(payerror.CodeInvalidResolutionStrategy,
			"by-amount strategy requires at least one amount route")
	}

	webhooks := make(map[provider.Provider]adapter.WebhookConfig, len(cfg.WebhookConfigs))
	for p, wc := range cfg.WebhookConfigs {
		webhooks[p] = wc
	}

	return &Orchestrator{
		adapters:        cfg.Adapters,
		byProvider:      byProvider,
		webhookConfigs:  webhooks,
		defaultProvider: cfg.DefaultProvider,
		strategy:        strategy,
		customResolver:  cfg.CustomResolver,
		amountRoutes:    cfg.AmountRoutes,
	}, nil
}

// resolveProvider picks the gateway for a payment request. An explicit
// override short-circuits the strategy entirely. A strategy answer that is
// not actually registered (a misbehaving custom resolver, typically) is
// rejected rather than trusted.
func (o *Orchestrator) resolveProvider(input resolver.Input, opts *Options) (provider.Provider, error) {
	if opts != nil && opts.Provider != "" {
		if _, ok := o.byProvider[opts.Provider]; !ok {
			return "", payerror.NewFor(payerror.CodeProviderNotFound, opts.Provider,
				"provider %s is not registered", opts.Provider)
		}
		return opts.Provider, nil
	}

	var (
		p  provider.Provider
		ok bool
	)
	switch o.strategy {
	case resolver.StrategyFirstAvailable:
		p, ok = resolver.FirstAvailable(o.adapters, o.defaultProvider)
	case resolver.StrategyRoundRobin:
		p, ok = resolver.RoundRobin(o.adapters, &o.rrCursor)
	case resolver.StrategyByCurrency:
		p, ok = resolver.ByCurrency(o.adapters, input.Currency, o.defaultProvider)
	case resolver.StrategyByAmount:
		p, ok = resolver.ByAmount(o.adapters, o.amountRoutes, input.Amount, input.Currency, o.defaultProvider)
	case resolver.StrategyCustom:
		p, ok = resolver.Custom(o.customResolver, input, o.adapters)
	}
	if !ok {
		return "", payerror.New(payerror.CodeNoProviderAvailable,
			"no provider available for %d %s via %s strategy",
			input.Amount, input.Currency, o.strategy)
	}
	if _, registered := o.byProvider[p]; !registered {
		return "", payerror.NewFor(payerror.CodeProviderNotFound, p,
			"strategy %s selected unregistered provider %s", o.strategy, p)
	}
	return p, nil
}

// CreatePayment resolves a gateway, checks that it can satisfy the request,
// and delegates. The adapter's result is returned unmodified, including its
// raw escape-hatch payload.
func (o *Orchestrator) CreatePayment(ctx context.Context, input adapter.CreatePaymentInput, opts *Options) (*adapter.CreatePaymentResult, error) {
	rin := resolver.Input{
		Amount:       input.Money.Amount,
		Currency:     input.Money.Currency,
		CheckoutMode: input.PreferredCheckoutMode,
	}
	p, err := o.resolveProvider(rin, opts)
	if err != nil {
		return nil, err
	}
	gw := o.byProvider[p]
	caps := gw.Capabilities()

	if !caps.SupportsCurrency(input.Money.Currency) {
		return nil, payerror.NewFor(payerror.CodeUnsupportedCurrency, p,
			"provider %s does not support currency %s", p, input.Money.Currency)
	}
	if mode := input.PreferredCheckoutMode; mode != "" {
		if mode != adapter.CheckoutHosted && mode != adapter.CheckoutSDK {
			return nil, payerror.New(payerror.CodeInvalidInput,
				"unknown checkout mode %q", mode)
		}
		if !caps.Has(mode.RequiredCapability()) {
			return nil, payerror.NewFor(payerror.CodeUnsupportedCheckoutMode, p,
				"provider %s does not support %s checkout", p, mode)
		}
	}

	return gw.CreatePayment(ctx, input)
}

// GetPayment fetches a payment addressed by its correlation ID.
func (o *Orchestrator) GetPayment(ctx context.Context, unipayID string) (*adapter.Payment, error) {
	gw, nativeID, err := o.adapterForUnipayID(unipayID)
	if err != nil {
		return nil, err
	}
	return gw.GetPayment(ctx, nativeID)
}

// GetPaymentByProviderID fetches a payment addressed by provider plus the
// gateway's own payment ID, skipping correlation-ID decoding.
func (o *Orchestrator) GetPaymentByProviderID(ctx context.Context, p provider.Provider, providerID string) (*adapter.Payment, error) {
	gw, err := o.adapterFor(p)
	if err != nil {
		return nil, err
	}
	return gw.GetPayment(ctx, providerID)
}

// CreateRefund issues a refund against a payment addressed by correlation
// ID. A nil input requests a full refund.
func (o *Orchestrator) CreateRefund(ctx context.Context, unipayID string, input *adapter.CreateRefundInput) (*adapter.Refund, error) {
	gw, nativeID, err := o.adapterForUnipayID(unipayID)
	if err != nil {
		return nil, err
	}
	return gw.CreateRefund(ctx, nativeID, input)
}

// GetRefund fetches a refund by provider plus native refund ID.
func (o *Orchestrator) GetRefund(ctx context.Context, p provider.Provider, providerRefundID string) (*adapter.Refund, error) {
	gw, err := o.adapterFor(p)
	if err != nil {
		return nil, err
	}
	return gw.GetRefund(ctx, providerRefundID)
}

// ListRefunds lists refunds for a payment addressed by correlation ID.
func (o *Orchestrator) ListRefunds(ctx context.Context, unipayID string) ([]adapter.Refund, error) {
	gw, nativeID, err := o.adapterForUnipayID(unipayID)
	if err != nil {
		return nil, err
	}
	return gw.ListRefunds(ctx, nativeID)
}

// HandleWebhook verifies and parses an inbound webhook for the addressed
// provider. Missing webhook configuration is reported per call rather than
// at construction, since configs are optional and provider-specific.
// ParseWebhookEvent runs only after the signature checked out.
func (o *Orchestrator) HandleWebhook(p provider.Provider, req adapter.WebhookRequest) (*adapter.WebhookEvent, error) {
	gw, cfg, err := o.webhookTarget(p)
	if err != nil {
		return nil, err
	}
	verification := gw.VerifyWebhookSignature(req, cfg)
	if !verification.IsValid {
		return nil, payerror.NewFor(payerror.CodeWebhookSignatureInvalid, p,
			"webhook signature verification failed: %s", verification.Reason)
	}
	event, err := gw.ParseWebhookEvent(req)
	if err != nil {
		return nil, &payerror.Error{
			Code:     payerror.CodeWebhookParsingFailed,
			Provider: p,
			Message:  "parsing webhook event",
			Err:      err,
		}
	}
	return event, nil
}

// VerifyWebhookSignature runs signature verification and hands the result
// back as a value, for callers that branch on validity instead of catching
// an error. Lookup failures still error.
func (o *Orchestrator) VerifyWebhookSignature(p provider.Provider, req adapter.WebhookRequest) (adapter.WebhookVerification, error) {
	gw, cfg, err := o.webhookTarget(p)
	if err != nil {
		return adapter.WebhookVerification{}, err
	}
	return gw.VerifyWebhookSignature(req, cfg), nil
}

// ProviderCapabilities returns the capability declaration of a registered
// provider. The second value is false when the provider is unregistered;
// that is an absence, not an error.
func (o *Orchestrator) ProviderCapabilities(p provider.Provider) (adapter.Capabilities, bool) {
	gw, ok := o.byProvider[p]
	if !ok {
		return adapter.Capabilities{}, false
	}
	return gw.Capabilities(), true
}

// RegisteredProviders lists the registered providers in registration order.
func (o *Orchestrator) RegisteredProviders() []provider.Provider {
	out := make([]provider.Provider, 0, len(o.adapters))
	for _, a := range o.adapters {
		out = append(out, a.Provider())
	}
	return out
}

// IsProviderAvailable reports whether an adapter is registered for p.
func (o *Orchestrator) IsProviderAvailable(p provider.Provider) bool {
	_, ok := o.byProvider[p]
	return ok
}

func (o *Orchestrator) adapterFor(p provider.Provider) (adapter.GatewayAdapter, error) {
	gw, ok := o.byProvider[p]
	if !ok {
		return nil, payerror.NewFor(payerror.CodeProviderNotFound, p,
			"provider %s is not registered", p)
	}
	return gw, nil
}

func (o *Orchestrator) adapterForUnipayID(unipayID string) (adapter.GatewayAdapter, string, error) {
	p, nativeID, err := unipayid.Parse(unipayID)
	if err != nil {
		return nil, "", err
	}
	gw, err := o.adapterFor(p)
	if err != nil {
		return nil, "", err
	}
	return gw, nativeID, nil
}

func (o *Orchestrator) webhookTarget(p provider.Provider) (adapter.GatewayAdapter, adapter.WebhookConfig, error) {
	gw, err := o.adapterFor(p)
	if err != nil {
		return nil, adapter.WebhookConfig{}, err
	}
	cfg, ok := o.webhookConfigs[p]
	if !ok {
		return nil, adapter.WebhookConfig{}, payerror.NewFor(payerror.CodeMissingWebhookConfig, p,
			"no webhook config registered for provider %s", p)
	}
	return gw, cfg, nil
}
