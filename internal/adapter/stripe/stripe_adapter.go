// Package stripe implements the GatewayAdapter contract on top of the
// Stripe Checkout Sessions and Refunds APIs. Requests are form-encoded,
// retried on 429/5xx within a small budget, and carry an Idempotency-Key
// header. Webhook signatures follow the Stripe-Signature scheme:
// HMAC-SHA256 over "<timestamp>.<body>" with a shared signing secret.
package stripe

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Pushparaj13811/unipay/internal/adapter"
	"github.com/Pushparaj13811/unipay/internal/provider"
	"github.com/Pushparaj13811/unipay/internal/unipayid"
)

const (
	defaultAPIBaseURL = "https://api.stripe.com/v1"

	signatureHeader         = "Stripe-Signature"
	defaultToleranceSeconds = 300

	retryAttempts = 2
	retryDelay    = 500 * time.Millisecond
)

// Adapter talks to the Stripe API.
type Adapter struct {
	apiKey     string
	httpClient *http.Client
	apiBaseURL string

	// now is swapped out in webhook tolerance tests.
	now func() time.Time
}

// New creates a Stripe adapter. A nil client gets a 10s-timeout default.
func New(apiKey string, client *http.Client) *Adapter {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Adapter{
		apiKey:     apiKey,
		httpClient: client,
		apiBaseURL: defaultAPIBaseURL,
		now:        time.Now,
	}
}

// WithBaseURL points the adapter at a different API host, for tests.
func (a *Adapter) WithBaseURL(base string) *Adapter {
	a.apiBaseURL = strings.TrimRight(base, "/")
	return a
}

func (a *Adapter) Provider() provider.Provider {
	return provider.Stripe
}

func (a *Adapter) Capabilities() adapter.Capabilities {
	return adapter.Capabilities{
		Provider: provider.Stripe,
		Features: map[adapter.Capability]bool{
			adapter.CapHostedCheckout: true,
			adapter.CapFullRefund:     true,
			adapter.CapPartialRefund:  true,
			adapter.CapWebhooks:       true,
			adapter.CapMetadata:       true,
			adapter.CapIdempotency:    true,
		},
		SupportedCurrencies: []string{"USD", "EUR", "GBP", "AUD", "CAD", "INR", "JPY", "SGD"},
		MaxMetadataEntries:  50,
	}
}

type apiError struct {
	Error struct {
		Type        string `json:"type"`
		Code        string `json:"code"`
		Message     string `json:"message"`
		DeclineCode string `json:"decline_code"`
	} `json:"error"`
}

// CreatePayment creates a Checkout Session. Stripe only offers hosted
// checkout through this surface, which matches the declared capabilities.
func (a *Adapter) CreatePayment(ctx context.Context, input adapter.CreatePaymentInput) (*adapter.CreatePaymentResult, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("line_items[0][price_data][currency]", strings.ToLower(input.Money.Currency))
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(input.Money.Amount, 10))
	form.Set("line_items[0][quantity]", "1")
	name := input.Description
	if name == "" {
		name = "Payment"
	}
	form.Set("line_items[0][price_data][product_data][name]", name)
	if input.SuccessURL != "" {
		form.Set("success_url", input.SuccessURL)
	}
	if input.CancelURL != "" {
		form.Set("cancel_url", input.CancelURL)
	}
	if input.OrderReference != "" {
		form.Set("client_reference_id", input.OrderReference)
	}
	if input.Customer != nil && input.Customer.Email != "" {
		form.Set("customer_email", input.Customer.Email)
	}
	if input.ExpiresInSeconds > 0 {
		form.Set("expires_at", strconv.FormatInt(a.now().Unix()+input.ExpiresInSeconds, 10))
	}
	for k, v := range input.Metadata {
		form.Set(fmt.Sprintf("metadata[%s]", k), v)
	}

	body, err := a.postForm(ctx, "/checkout/sessions", form, input.IdempotencyKey)
	if err != nil {
		return nil, err
	}

	var session map[string]any
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, fmt.Errorf("stripe: decoding checkout session: %w", err)
	}
	sessionID, _ := session["id"].(string)
	redirectURL, _ := session["url"].(string)
	uid, err := unipayid.Create(provider.Stripe, sessionID)
	if err != nil {
		return nil, err
	}
	return &adapter.CreatePaymentResult{
		Provider:     provider.Stripe,
		ProviderID:   sessionID,
		UnipayID:     uid,
		Status:       adapter.PaymentPending,
		CheckoutMode: adapter.CheckoutHosted,
		Hosted:       &adapter.HostedCheckout{RedirectURL: redirectURL},
		Raw:          session,
	}, nil
}

func (a *Adapter) GetPayment(ctx context.Context, providerID string) (*adapter.Payment, error) {
	body, err := a.get(ctx, "/checkout/sessions/"+url.PathEscape(providerID))
	if err != nil {
		return nil, err
	}
	var session map[string]any
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, fmt.Errorf("stripe: decoding checkout session: %w", err)
	}
	uid, err := unipayid.Create(provider.Stripe, providerID)
	if err != nil {
		return nil, err
	}
	amount, _ := session["amount_total"].(float64)
	currency, _ := session["currency"].(string)
	return &adapter.Payment{
		Provider:   provider.Stripe,
		ProviderID: providerID,
		UnipayID:   uid,
		Money:      adapter.Money{Amount: int64(amount), Currency: strings.ToUpper(currency)},
		Status:     mapSessionStatus(session),
		Raw:        session,
	}, nil
}

// CreateRefund refunds the payment intent behind a checkout session. A nil
// or zero-amount input refunds in full.
func (a *Adapter) CreateRefund(ctx context.Context, providerID string, input *adapter.CreateRefundInput) (*adapter.Refund, error) {
	intentID, err := a.paymentIntentFor(ctx, providerID)
	if err != nil {
		return nil, err
	}
	form := url.Values{}
	form.Set("payment_intent", intentID)
	if input != nil {
		if input.Amount > 0 {
			form.Set("amount", strconv.FormatInt(input.Amount, 10))
		}
		if input.Reason != "" {
			form.Set("reason", input.Reason)
		}
		for k, v := range input.Metadata {
			form.Set(fmt.Sprintf("metadata[%s]", k), v)
		}
	}
	body, err := a.postForm(ctx, "/refunds", form, "")
	if err != nil {
		return nil, err
	}
	return a.decodeRefund(body, providerID)
}

func (a *Adapter) GetRefund(ctx context.Context, providerRefundID string) (*adapter.Refund, error) {
	body, err := a.get(ctx, "/refunds/"+url.PathEscape(providerRefundID))
	if err != nil {
		return nil, err
	}
	return a.decodeRefund(body, "")
}

func (a *Adapter) ListRefunds(ctx context.Context, providerID string) ([]adapter.Refund, error) {
	intentID, err := a.paymentIntentFor(ctx, providerID)
	if err != nil {
		return nil, err
	}
	body, err := a.get(ctx, "/refunds?payment_intent="+url.QueryEscape(intentID))
	if err != nil {
		return nil, err
	}
	var list struct {
		Data []map[string]any `json:"data"`
	}
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("stripe: decoding refund list: %w", err)
	}
	refunds := make([]adapter.Refund, 0, len(list.Data))
	for _, raw := range list.Data {
		encoded, err := json.Marshal(raw)
		if err != nil {
			continue
		}
		rf, err := a.decodeRefund(encoded, providerID)
		if err != nil {
			return nil, err
		}
		refunds = append(refunds, *rf)
	}
	return refunds, nil
}

// VerifyWebhookSignature checks the Stripe-Signature header: a comma-joined
// list of t=<unix> and one or more v1=<hex hmac> entries. The signed payload
// is "<t>.<body>". Timestamps older than the tolerance are rejected.
func (a *Adapter) VerifyWebhookSignature(req adapter.WebhookRequest, cfg adapter.WebhookConfig) adapter.WebhookVerification {
	header := req.Header(signatureHeader)
	if header == "" {
		return adapter.WebhookVerification{Reason: "missing " + signatureHeader + " header"}
	}
	var timestamp string
	var candidates []string
	for _, part := range strings.Split(header, ",") {
		k, v, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch k {
		case "t":
			timestamp = v
		case "v1":
			candidates = append(candidates, v)
		}
	}
	if timestamp == "" || len(candidates) == 0 {
		return adapter.WebhookVerification{Reason: "malformed " + signatureHeader + " header"}
	}
	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return adapter.WebhookVerification{Reason: "non-numeric signature timestamp"}
	}
	tolerance := cfg.ToleranceSeconds
	if tolerance <= 0 {
		tolerance = defaultToleranceSeconds
	}
	if age := a.now().Unix() - ts; age > tolerance || age < -tolerance {
		return adapter.WebhookVerification{Reason: "signature timestamp outside tolerance"}
	}

	mac := hmac.New(sha256.New, []byte(cfg.Secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(req.Body)
	expected := hex.EncodeToString(mac.Sum(nil))
	for _, candidate := range candidates {
		if hmac.Equal([]byte(expected), []byte(candidate)) {
			return adapter.WebhookVerification{IsValid: true}
		}
	}
	return adapter.WebhookVerification{Reason: "no matching v1 signature"}
}

func (a *Adapter) ParseWebhookEvent(req adapter.WebhookRequest) (*adapter.WebhookEvent, error) {
	var envelope struct {
		Type string `json:"type"`
		Data struct {
			Object map[string]any `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(req.Body, &envelope); err != nil {
		return nil, fmt.Errorf("stripe: decoding webhook payload: %w", err)
	}
	event := &adapter.WebhookEvent{
		Provider: provider.Stripe,
		Type:     mapEventType(envelope.Type),
		Raw:      envelope.Data.Object,
	}
	obj := envelope.Data.Object
	if id, ok := obj["id"].(string); ok {
		if strings.HasPrefix(id, "re_") {
			event.RefundID = id
			if pi, ok := obj["payment_intent"].(string); ok {
				event.ProviderID = pi
			}
		} else {
			event.ProviderID = id
		}
	}
	if amount, ok := obj["amount_total"].(float64); ok {
		currency, _ := obj["currency"].(string)
		event.Money = &adapter.Money{Amount: int64(amount), Currency: strings.ToUpper(currency)}
	} else if amount, ok := obj["amount"].(float64); ok {
		currency, _ := obj["currency"].(string)
		event.Money = &adapter.Money{Amount: int64(amount), Currency: strings.ToUpper(currency)}
	}
	return event, nil
}

func mapEventType(t string) adapter.WebhookEventType {
	switch t {
	case "checkout.session.completed", "payment_intent.succeeded":
		return adapter.EventPaymentSucceeded
	case "checkout.session.expired":
		return adapter.EventPaymentExpired
	case "payment_intent.payment_failed":
		return adapter.EventPaymentFailed
	case "refund.created", "charge.refunded", "refund.updated":
		return adapter.EventRefundSucceeded
	case "refund.failed", "charge.refund.updated":
		return adapter.EventRefundFailed
	default:
		return adapter.EventUnknown
	}
}

func mapSessionStatus(session map[string]any) adapter.PaymentStatus {
	status, _ := session["status"].(string)
	paymentStatus, _ := session["payment_status"].(string)
	switch {
	case paymentStatus == "paid":
		return adapter.PaymentSucceeded
	case status == "expired":
		return adapter.PaymentExpired
	case status == "open":
		return adapter.PaymentPending
	default:
		return adapter.PaymentPending
	}
}

func (a *Adapter) paymentIntentFor(ctx context.Context, sessionID string) (string, error) {
	body, err := a.get(ctx, "/checkout/sessions/"+url.PathEscape(sessionID))
	if err != nil {
		return "", err
	}
	var session struct {
		PaymentIntent string `json:"payment_intent"`
	}
	if err := json.Unmarshal(body, &session); err != nil {
		return "", fmt.Errorf("stripe: decoding checkout session: %w", err)
	}
	if session.PaymentIntent == "" {
		return "", fmt.Errorf("stripe: checkout session %s has no payment intent", sessionID)
	}
	return session.PaymentIntent, nil
}

func (a *Adapter) decodeRefund(body []byte, paymentID string) (*adapter.Refund, error) {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("stripe: decoding refund: %w", err)
	}
	id, _ := raw["id"].(string)
	amount, _ := raw["amount"].(float64)
	currency, _ := raw["currency"].(string)
	status, _ := raw["status"].(string)
	rf := &adapter.Refund{
		Provider:         provider.Stripe,
		ProviderRefundID: id,
		PaymentID:        paymentID,
		Money:            adapter.Money{Amount: int64(amount), Currency: strings.ToUpper(currency)},
		Status:           adapter.RefundPending,
		Raw:              raw,
	}
	if pi, ok := raw["payment_intent"].(string); ok && rf.PaymentID == "" {
		rf.PaymentID = pi
	}
	switch status {
	case "succeeded":
		rf.Status = adapter.RefundSucceeded
	case "failed", "canceled":
		rf.Status = adapter.RefundFailed
	}
	return rf, nil
}

func (a *Adapter) postForm(ctx context.Context, path string, form url.Values, idempotencyKey string) ([]byte, error) {
	if idempotencyKey == "" {
		idempotencyKey = uuid.NewString()
	}
	return a.do(ctx, http.MethodPost, path, form.Encode(), idempotencyKey)
}

func (a *Adapter) get(ctx context.Context, path string) ([]byte, error) {
	return a.do(ctx, http.MethodGet, path, "", "")
}

// do executes the request with a small retry budget for 429 and 5xx
// responses, then maps non-2xx bodies onto Stripe's error envelope.
// The request is rebuilt per attempt so the form body can be re-sent.
func (a *Adapter) do(ctx context.Context, method, path, formBody, idempotencyKey string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= retryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryDelay):
			}
		}

		var reqBody io.Reader
		if formBody != "" {
			reqBody = strings.NewReader(formBody)
		}
		req, err := http.NewRequestWithContext(ctx, method, a.apiBaseURL+path, reqBody)
		if err != nil {
			return nil, fmt.Errorf("stripe: building request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+a.apiKey)
		if formBody != "" {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
		if idempotencyKey != "" {
			req.Header.Set("Idempotency-Key", idempotencyKey)
		}

		resp, err := a.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("stripe: http request failed: %w", err)
			continue
		}
		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = fmt.Errorf("stripe: reading response body: %w", readErr)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			lastErr = fmt.Errorf("stripe: HTTP %d: %s", resp.StatusCode, string(body))
			continue
		}
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return body, nil
		}

		var apiErr apiError
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
			code := apiErr.Error.Code
			if apiErr.Error.DeclineCode != "" {
				code = apiErr.Error.DeclineCode
			}
			return nil, fmt.Errorf("stripe: %s (%s)", apiErr.Error.Message, code)
		}
		return nil, fmt.Errorf("stripe: HTTP %d: %s", resp.StatusCode, string(body))
	}
	return nil, lastErr
}
