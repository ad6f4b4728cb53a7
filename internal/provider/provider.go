// Package provider defines the closed set of payment gateways the library
// knows about. The set is extended only by adding a new tag here together
// with an adapter implementing it; there is no dynamic registration.
package provider

import "strings"

// Provider identifies a single payment gateway.
type Provider string

const (
	Stripe   Provider = "stripe"
	Razorpay Provider = "razorpay"
	PayU     Provider = "payu"
	PayPal   Provider = "paypal"
	Cashfree Provider = "cashfree"
	PhonePe  Provider = "phonepe"
)

// All lists every known provider tag in a stable order.
func All() []Provider {
	return []Provider{Stripe, Razorpay, PayU, PayPal, Cashfree, PhonePe}
}

// IsKnown reports whether p is a member of the known provider set.
func (p Provider) IsKnown() bool {
	switch p {
	case Stripe, Razorpay, PayU, PayPal, Cashfree, PhonePe:
		return true
	}
	return false
}

// String returns the wire form of the tag.
func (p Provider) String() string {
	return string(p)
}

// Parse maps a string onto a known provider tag. Matching is
// case-insensitive; the second return value is false for anything outside
// the known set.
func Parse(s string) (Provider, bool) {
	p := Provider(strings.ToLower(strings.TrimSpace(s)))
	if p.IsKnown() {
		return p, true
	}
	return "", false
}
