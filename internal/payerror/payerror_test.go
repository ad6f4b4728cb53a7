package payerror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pushparaj13811/unipay/internal/provider"
)

func TestErrorMessage(t *testing.T) {
	err := NewFor(CodeUnsupportedCurrency, provider.Stripe,
		"provider %s does not support currency %s", provider.Stripe, "XYZ")
	assert.Contains(t, err.Error(), "stripe")
	assert.Contains(t, err.Error(), "XYZ")
	assert.Contains(t, err.Error(), string(CodeUnsupportedCurrency))
}

func TestWrapAndUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(CodeWebhookParsingFailed, cause, "parsing event")

	assert.ErrorIs(t, err, cause)

	var pe *Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, CodeWebhookParsingFailed, pe.Code)

	attributed := &Error{Code: CodeWebhookParsingFailed, Provider: provider.Razorpay, Message: "parsing event", Err: cause}
	assert.ErrorIs(t, attributed, cause)
	assert.Equal(t, provider.Razorpay, attributed.Provider)
}

func TestIsMatchesOnCode(t *testing.T) {
	err := fmt.Errorf("handler: %w",
		NewFor(CodeProviderNotFound, provider.PayU, "provider payu is not registered"))

	assert.ErrorIs(t, err, &Error{Code: CodeProviderNotFound})
	assert.NotErrorIs(t, err, &Error{Code: CodeNoProviderAvailable})
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeInvalidUnipayID,
		CodeOf(New(CodeInvalidUnipayID, "bad id")))
	assert.Equal(t, CodeInvalidUnipayID,
		CodeOf(fmt.Errorf("wrapped: %w", New(CodeInvalidUnipayID, "bad id"))),
		"CodeOf must see through wrapping")
	assert.Equal(t, Code(""), CodeOf(errors.New("plain")))
	assert.Equal(t, Code(""), CodeOf(nil))
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		code Code
		want int
	}{
		{CodeMissingProvider, http.StatusInternalServerError},
		{CodeDuplicateProvider, http.StatusInternalServerError},
		{CodeInvalidResolutionStrategy, http.StatusInternalServerError},
		{CodeNoProviderAvailable, http.StatusBadRequest},
		{CodeProviderNotFound, http.StatusBadRequest},
		{CodeUnsupportedCurrency, http.StatusBadRequest},
		{CodeUnsupportedCheckoutMode, http.StatusBadRequest},
		{CodeInvalidInput, http.StatusBadRequest},
		{CodeInvalidUnipayID, http.StatusBadRequest},
		{CodeWebhookParsingFailed, http.StatusBadRequest},
		{CodeMissingWebhookConfig, http.StatusNotFound},
		{CodeWebhookSignatureInvalid, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, HTTPStatus(New(tc.code, "x")), "%s", tc.code)
	}

	assert.Equal(t, http.StatusBadGateway, HTTPStatus(errors.New("gateway exploded")),
		"unclassified errors are treated as upstream failures")
}
