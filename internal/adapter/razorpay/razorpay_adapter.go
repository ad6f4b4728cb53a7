// Package razorpay implements the GatewayAdapter contract over the
// Razorpay Orders, Payments, and Refunds APIs using key-id/key-secret
// basic auth. Checkout runs through the Razorpay frontend SDK: creating a
// payment yields an order ID plus key material the SDK consumes, so this
// adapter declares SDK checkout only. Webhooks carry an
// X-Razorpay-Signature header holding the hex HMAC-SHA256 of the raw body.
package razorpay

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Pushparaj13811/unipay/internal/adapter"
	"github.com/Pushparaj13811/unipay/internal/provider"
	"github.com/Pushparaj13811/unipay/internal/unipayid"
)

const (
	defaultAPIBaseURL = "https://api.razorpay.com/v1"
	signatureHeader   = "X-Razorpay-Signature"
)

// Adapter talks to the Razorpay API.
type Adapter struct {
	keyID      string
	keySecret  string
	httpClient *http.Client
	apiBaseURL string
}

// New creates a Razorpay adapter. A nil client gets a 10s-timeout default.
func New(keyID, keySecret string, client *http.Client) *Adapter {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Adapter{
		keyID:      keyID,
		keySecret:  keySecret,
		httpClient: client,
		apiBaseURL: defaultAPIBaseURL,
	}
}

// WithBaseURL points the adapter at a different API host, for tests.
func (a *Adapter) WithBaseURL(base string) *Adapter {
	a.apiBaseURL = strings.TrimRight(base, "/")
	return a
}

func (a *Adapter) Provider() provider.Provider {
	return provider.Razorpay
}

func (a *Adapter) Capabilities() adapter.Capabilities {
	return adapter.Capabilities{
		Provider: provider.Razorpay,
		Features: map[adapter.Capability]bool{
			adapter.CapSDKCheckout:   true,
			adapter.CapFullRefund:    true,
			adapter.CapPartialRefund: true,
			adapter.CapWebhooks:      true,
			adapter.CapMetadata:      true,
		},
		SupportedCurrencies: []string{"INR", "USD", "EUR", "SGD", "AED"},
		MaxMetadataEntries:  15,
	}
}

// CreatePayment creates a Razorpay order and returns the data the frontend
// checkout SDK needs to drive the payment.
func (a *Adapter) CreatePayment(ctx context.Context, input adapter.CreatePaymentInput) (*adapter.CreatePaymentResult, error) {
	payload := map[string]any{
		"amount":   input.Money.Amount,
		"currency": strings.ToUpper(input.Money.Currency),
	}
	if input.OrderReference != "" {
		payload["receipt"] = input.OrderReference
	}
	if len(input.Metadata) > 0 {
		payload["notes"] = input.Metadata
	}

	body, err := a.request(ctx, http.MethodPost, "/orders", payload)
	if err != nil {
		return nil, err
	}
	var order map[string]any
	if err := json.Unmarshal(body, &order); err != nil {
		return nil, fmt.Errorf("razorpay: decoding order: %w", err)
	}
	orderID, _ := order["id"].(string)
	uid, err := unipayid.Create(provider.Razorpay, orderID)
	if err != nil {
		return nil, err
	}
	sdkData := map[string]any{
		"key":      a.keyID,
		"order_id": orderID,
		"amount":   input.Money.Amount,
		"currency": strings.ToUpper(input.Money.Currency),
	}
	if input.Customer != nil {
		prefill := map[string]any{}
		if input.Customer.Name != "" {
			prefill["name"] = input.Customer.Name
		}
		if input.Customer.Email != "" {
			prefill["email"] = input.Customer.Email
		}
		if input.Customer.Phone != "" {
			prefill["contact"] = input.Customer.Phone
		}
		if len(prefill) > 0 {
			sdkData["prefill"] = prefill
		}
	}
	return &adapter.CreatePaymentResult{
		Provider:     provider.Razorpay,
		ProviderID:   orderID,
		UnipayID:     uid,
		Status:       adapter.PaymentPending,
		CheckoutMode: adapter.CheckoutSDK,
		SDK:          &adapter.SDKCheckout{ProviderData: sdkData},
		Raw:          order,
	}, nil
}

func (a *Adapter) GetPayment(ctx context.Context, providerID string) (*adapter.Payment, error) {
	body, err := a.request(ctx, http.MethodGet, "/orders/"+url.PathEscape(providerID), nil)
	if err != nil {
		return nil, err
	}
	var order map[string]any
	if err := json.Unmarshal(body, &order); err != nil {
		return nil, fmt.Errorf("razorpay: decoding order: %w", err)
	}
	uid, err := unipayid.Create(provider.Razorpay, providerID)
	if err != nil {
		return nil, err
	}
	amount, _ := order["amount"].(float64)
	currency, _ := order["currency"].(string)
	return &adapter.Payment{
		Provider:   provider.Razorpay,
		ProviderID: providerID,
		UnipayID:   uid,
		Money:      adapter.Money{Amount: int64(amount), Currency: strings.ToUpper(currency)},
		Status:     mapOrderStatus(order),
		Raw:        order,
	}, nil
}

// CreateRefund refunds the captured payment behind an order. Razorpay
// refunds address the payment entity, so the order's payments are listed
// first to find the captured one.
func (a *Adapter) CreateRefund(ctx context.Context, providerID string, input *adapter.CreateRefundInput) (*adapter.Refund, error) {
	paymentID, err := a.capturedPaymentFor(ctx, providerID)
	if err != nil {
		return nil, err
	}
	payload := map[string]any{}
	if input != nil {
		if input.Amount > 0 {
			payload["amount"] = input.Amount
		}
		if len(input.Metadata) > 0 {
			payload["notes"] = input.Metadata
		}
	}
	body, err := a.request(ctx, http.MethodPost, "/payments/"+url.PathEscape(paymentID)+"/refund", payload)
	if err != nil {
		return nil, err
	}
	return decodeRefund(body, providerID)
}

func (a *Adapter) GetRefund(ctx context.Context, providerRefundID string) (*adapter.Refund, error) {
	body, err := a.request(ctx, http.MethodGet, "/refunds/"+url.PathEscape(providerRefundID), nil)
	if err != nil {
		return nil, err
	}
	return decodeRefund(body, "")
}

func (a *Adapter) ListRefunds(ctx context.Context, providerID string) ([]adapter.Refund, error) {
	paymentID, err := a.capturedPaymentFor(ctx, providerID)
	if err != nil {
		return nil, err
	}
	body, err := a.request(ctx, http.MethodGet, "/payments/"+url.PathEscape(paymentID)+"/refunds", nil)
	if err != nil {
		return nil, err
	}
	var list struct {
		Items []map[string]any `json:"items"`
	}
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("razorpay: decoding refund list: %w", err)
	}
	refunds := make([]adapter.Refund, 0, len(list.Items))
	for _, raw := range list.Items {
		encoded, err := json.Marshal(raw)
		if err != nil {
			continue
		}
		rf, err := decodeRefund(encoded, providerID)
		if err != nil {
			return nil, err
		}
		refunds = append(refunds, *rf)
	}
	return refunds, nil
}

// VerifyWebhookSignature compares the X-Razorpay-Signature header against
// the hex HMAC-SHA256 of the raw body. Razorpay signatures carry no
// timestamp, so ToleranceSeconds is not consulted here.
func (a *Adapter) VerifyWebhookSignature(req adapter.WebhookRequest, cfg adapter.WebhookConfig) adapter.WebhookVerification {
	signature := req.Header(signatureHeader)
	if signature == "" {
		return adapter.WebhookVerification{Reason: "missing " + signatureHeader + " header"}
	}
	mac := hmac.New(sha256.New, []byte(cfg.Secret))
	mac.Write(req.Body)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return adapter.WebhookVerification{Reason: "signature mismatch"}
	}
	return adapter.WebhookVerification{IsValid: true}
}

func (a *Adapter) ParseWebhookEvent(req adapter.WebhookRequest) (*adapter.WebhookEvent, error) {
	var envelope struct {
		Event   string `json:"event"`
		Payload struct {
			Payment struct {
				Entity map[string]any `json:"entity"`
			} `json:"payment"`
			Refund struct {
				Entity map[string]any `json:"entity"`
			} `json:"refund"`
		} `json:"payload"`
	}
	if err := json.Unmarshal(req.Body, &envelope); err != nil {
		return nil, fmt.Errorf("razorpay: decoding webhook payload: %w", err)
	}
	event := &adapter.WebhookEvent{
		Provider: provider.Razorpay,
		Type:     mapEventType(envelope.Event),
	}
	if entity := envelope.Payload.Payment.Entity; entity != nil {
		event.Raw = entity
		if orderID, ok := entity["order_id"].(string); ok {
			event.ProviderID = orderID
		}
		if amount, ok := entity["amount"].(float64); ok {
			currency, _ := entity["currency"].(string)
			event.Money = &adapter.Money{Amount: int64(amount), Currency: strings.ToUpper(currency)}
		}
	}
	if entity := envelope.Payload.Refund.Entity; entity != nil {
		if event.Raw == nil {
			event.Raw = entity
		}
		if id, ok := entity["id"].(string); ok {
			event.RefundID = id
		}
	}
	return event, nil
}

func mapEventType(event string) adapter.WebhookEventType {
	switch event {
	case "payment.captured", "order.paid":
		return adapter.EventPaymentSucceeded
	case "payment.failed":
		return adapter.EventPaymentFailed
	case "refund.processed":
		return adapter.EventRefundSucceeded
	case "refund.failed":
		return adapter.EventRefundFailed
	default:
		return adapter.EventUnknown
	}
}

func mapOrderStatus(order map[string]any) adapter.PaymentStatus {
	status, _ := order["status"].(string)
	switch status {
	case "paid":
		return adapter.PaymentSucceeded
	case "attempted":
		return adapter.PaymentRequiresAction
	default:
		return adapter.PaymentPending
	}
}

func (a *Adapter) capturedPaymentFor(ctx context.Context, orderID string) (string, error) {
	body, err := a.request(ctx, http.MethodGet, "/orders/"+url.PathEscape(orderID)+"/payments", nil)
	if err != nil {
		return "", err
	}
	var list struct {
		Items []struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"items"`
	}
	if err := json.Unmarshal(body, &list); err != nil {
		return "", fmt.Errorf("razorpay: decoding order payments: %w", err)
	}
	for _, item := range list.Items {
		if item.Status == "captured" {
			return item.ID, nil
		}
	}
	return "", fmt.Errorf("razorpay: order %s has no captured payment", orderID)
}

func decodeRefund(body []byte, paymentID string) (*adapter.Refund, error) {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("razorpay: decoding refund: %w", err)
	}
	id, _ := raw["id"].(string)
	amount, _ := raw["amount"].(float64)
	currency, _ := raw["currency"].(string)
	status, _ := raw["status"].(string)
	rf := &adapter.Refund{
		Provider:         provider.Razorpay,
		ProviderRefundID: id,
		PaymentID:        paymentID,
		Money:            adapter.Money{Amount: int64(amount), Currency: strings.ToUpper(currency)},
		Status:           adapter.RefundPending,
		Raw:              raw,
	}
	if pid, ok := raw["payment_id"].(string); ok && rf.PaymentID == "" {
		rf.PaymentID = pid
	}
	switch status {
	case "processed":
		rf.Status = adapter.RefundSucceeded
	case "failed":
		rf.Status = adapter.RefundFailed
	}
	return rf, nil
}

func (a *Adapter) request(ctx context.Context, method, path string, payload map[string]any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("razorpay: encoding request: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, a.apiBaseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("razorpay: building request: %w", err)
	}
	req.SetBasicAuth(a.keyID, a.keySecret)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("razorpay: http request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("razorpay: reading response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Error struct {
				Code        string `json:"code"`
				Description string `json:"description"`
			} `json:"error"`
		}
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Description != "" {
			return nil, fmt.Errorf("razorpay: %s (%s)", apiErr.Error.Description, apiErr.Error.Code)
		}
		return nil, fmt.Errorf("razorpay: HTTP %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}
