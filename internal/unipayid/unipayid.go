// Package unipayid encodes a (provider, native ID) pair into one opaque
// correlation token of the form "provider:nativeId" and decodes it back.
// The native ID may itself contain the separator; parsing only splits on
// the first occurrence, so no escaping is needed.
package unipayid

import (
	"strings"

	"github.com/Pushparaj13811/unipay/internal/payerror"
	"github.com/Pushparaj13811/unipay/internal/provider"
)

// Separator joins the provider tag and the provider-native ID.
const Separator = ":"

// Create builds a correlation ID from a known provider tag and a native ID.
// The native ID must be non-empty after trimming whitespace.
func Create(p provider.Provider, nativeID string) (string, error) {
	if strings.TrimSpace(nativeID) == "" {
		return "", payerror.NewFor(payerror.CodeInvalidInput, p,
			"provider native id must not be empty")
	}
	return string(p) + Separator + nativeID, nil
}

// Parse decodes a correlation ID into its provider tag and native ID.
// The split happens on the first separator only, so native IDs containing
// the separator round-trip intact.
func Parse(id string) (provider.Provider, string, error) {
	if id == "" {
		return "", "", payerror.New(payerror.CodeInvalidUnipayID,
			"unipay id must not be empty")
	}
	head, tail, found := strings.Cut(id, Separator)
	if !found {
		return "", "", payerror.New(payerror.CodeInvalidUnipayID,
			"unipay id %q has no %q separator", id, Separator)
	}
	p, ok := provider.Parse(head)
	if !ok {
		return "", "", payerror.New(payerror.CodeInvalidUnipayID,
			"unipay id %q names unknown provider %q", id, head)
	}
	if strings.TrimSpace(tail) == "" {
		return "", "", payerror.NewFor(payerror.CodeInvalidUnipayID, p,
			"unipay id %q has an empty native id", id)
	}
	return p, tail, nil
}

// IsValid reports whether id parses cleanly. It never returns an error.
func IsValid(id string) bool {
	_, _, err := Parse(id)
	return err == nil
}

// ProviderOf extracts the provider tag from a correlation ID on a
// best-effort basis. The second return value is false for any malformed
// input.
func ProviderOf(id string) (provider.Provider, bool) {
	p, _, err := Parse(id)
	if err != nil {
		return "", false
	}
	return p, true
}
