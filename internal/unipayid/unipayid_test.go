package unipayid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pushparaj13811/unipay/internal/payerror"
	"github.com/Pushparaj13811/unipay/internal/provider"
)

func TestCreate(t *testing.T) {
	id, err := Create(provider.Stripe, "cs_test_123")
	require.NoError(t, err)
	assert.Equal(t, "stripe:cs_test_123", id)
}

func TestCreate_RejectsEmptyNativeID(t *testing.T) {
	for _, nativeID := range []string{"", "   ", "\t\n"} {
		_, err := Create(provider.Razorpay, nativeID)
		require.Error(t, err)
		assert.Equal(t, payerror.CodeInvalidInput, payerror.CodeOf(err))
	}
}

func TestParse(t *testing.T) {
	p, nativeID, err := Parse("razorpay:order_Abc123")
	require.NoError(t, err)
	assert.Equal(t, provider.Razorpay, p)
	assert.Equal(t, "order_Abc123", nativeID)
}

func TestParse_NativeIDContainingSeparator(t *testing.T) {
	// Only the first separator splits; the rest belongs to the native ID.
	p, nativeID, err := Parse("payu:txn:2024:0042")
	require.NoError(t, err)
	assert.Equal(t, provider.PayU, p)
	assert.Equal(t, "txn:2024:0042", nativeID)
}

func TestParse_Malformed(t *testing.T) {
	cases := []struct {
		name string
		id   string
	}{
		{"empty", ""},
		{"no separator", "stripe_cs_test_123"},
		{"unknown provider", "braintree:tok_1"},
		{"empty native id", "stripe:"},
		{"whitespace native id", "stripe:   "},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := Parse(tc.id)
			require.Error(t, err)
			assert.Equal(t, payerror.CodeInvalidUnipayID, payerror.CodeOf(err))
		})
	}
}

func TestRoundTrip(t *testing.T) {
	nativeIDs := []string{"pay_1", "a:b:c", "  leading-space-kept", "x"}
	for _, p := range provider.All() {
		for _, nativeID := range nativeIDs {
			id, err := Create(p, nativeID)
			require.NoError(t, err)
			gotProvider, gotNative, err := Parse(id)
			require.NoError(t, err, "id %q", id)
			assert.Equal(t, p, gotProvider)
			assert.Equal(t, nativeID, gotNative)
		}
	}
}

func TestIsValid(t *testing.T) {
	assert.True(t, IsValid("stripe:cs_1"))
	assert.False(t, IsValid(""))
	assert.False(t, IsValid("stripe"))
	assert.False(t, IsValid("nope:cs_1"))
}

func TestProviderOf(t *testing.T) {
	p, ok := ProviderOf("cashfree:order_9")
	require.True(t, ok)
	assert.Equal(t, provider.Cashfree, p)

	_, ok = ProviderOf("not-a-unipay-id")
	assert.False(t, ok)
}
