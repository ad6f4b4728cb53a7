// Package payerror defines the typed errors surfaced by the orchestration
// layer. Every failure carries a machine-readable code so callers can branch
// without string matching, plus the offending provider where one is known.
package payerror

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Pushparaj13811/unipay/internal/provider"
)

// Code is a machine-readable error classification.
type Code string

const (
	// Configuration errors, raised at construction time.
	CodeMissingProvider           Code = "MISSING_PROVIDER"
	CodeDuplicateProvider         Code = "DUPLICATE_PROVIDER"
	CodeInvalidResolutionStrategy Code = "INVALID_RESOLUTION_STRATEGY"

	// Resolution errors, raised per request.
	CodeNoProviderAvailable     Code = "NO_PROVIDER_AVAILABLE"
	CodeProviderNotFound        Code = "PROVIDER_NOT_FOUND"
	CodeUnsupportedCurrency     Code = "UNSUPPORTED_CURRENCY"
	CodeUnsupportedCheckoutMode Code = "UNSUPPORTED_CHECKOUT_MODE"

	// Identifier errors.
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeInvalidUnipayID Code = "INVALID_UNIPAY_ID"

	// Webhook errors.
	CodeMissingWebhookConfig    Code = "MISSING_WEBHOOK_CONFIG"
	CodeWebhookSignatureInvalid Code = "WEBHOOK_SIGNATURE_INVALID"
	CodeWebhookParsingFailed    Code = "WEBHOOK_PARSING_FAILED"
)

// Error is the concrete error type for all orchestration failures.
type Error struct {
	Code     Code
	Provider provider.Provider // zero when no single provider is at fault
	Message  string
	Err      error // wrapped cause, if any
}

func (e *Error) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("%s (%s): %s", e.Code, e.Provider, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is makes errors.Is match on the code alone, so sentinel-style
// comparisons like errors.Is(err, &Error{Code: CodeProviderNotFound}) work.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// New builds an Error without a provider attribution.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// NewFor builds an Error attributed to a specific provider.
func NewFor(code Code, p provider.Provider, format string, args ...any) *Error {
	return &Error{Code: code, Provider: p, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an Error around a cause.
func Wrap(code Code, err error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

// CodeOf extracts the code from any error produced by this library.
// It returns the empty code for nil and for foreign errors.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// HTTPStatus maps an error to the HTTP status a gateway front end should
// answer with. Foreign (adapter-originated) errors map to 502.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeMissingProvider, CodeDuplicateProvider, CodeInvalidResolutionStrategy:
		return http.StatusInternalServerError
	case CodeNoProviderAvailable, CodeProviderNotFound, CodeUnsupportedCurrency,
		CodeUnsupportedCheckoutMode, CodeInvalidInput, CodeInvalidUnipayID,
		CodeWebhookParsingFailed:
		return http.StatusBadRequest
	case CodeMissingWebhookConfig:
		return http.StatusNotFound
	case CodeWebhookSignatureInvalid:
		return http.StatusUnauthorized
	default:
		return http.StatusBadGateway
	}
}
