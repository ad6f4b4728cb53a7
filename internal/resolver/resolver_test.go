package resolver

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pushparaj13811/unipay/internal/adapter"
	"github.com/Pushparaj13811/unipay/internal/adapter/mock"
	"github.com/Pushparaj13811/unipay/internal/provider"
)

func adapters(ps ...provider.Provider) []adapter.GatewayAdapter {
	out := make([]adapter.GatewayAdapter, 0, len(ps))
	for _, p := range ps {
		out = append(out, mock.New(p))
	}
	return out
}

func currencyAdapter(p provider.Provider, currencies ...string) adapter.GatewayAdapter {
	return mock.New(p).WithCapabilities(adapter.Capabilities{
		SupportedCurrencies: currencies,
	})
}

func TestFirstAvailable(t *testing.T) {
	regs := adapters(provider.Stripe, provider.Razorpay)

	p, ok := FirstAvailable(regs, "")
	require.True(t, ok)
	assert.Equal(t, provider.Stripe, p, "no default picks the first-registered adapter")

	p, ok = FirstAvailable(regs, provider.Razorpay)
	require.True(t, ok)
	assert.Equal(t, provider.Razorpay, p, "a registered default wins")

	p, ok = FirstAvailable(regs, provider.PayPal)
	require.True(t, ok)
	assert.Equal(t, provider.Stripe, p, "an unregistered default is ignored")

	_, ok = FirstAvailable(nil, provider.Stripe)
	assert.False(t, ok)
}

func TestRoundRobin_StrictRotation(t *testing.T) {
	regs := adapters(provider.Stripe, provider.Razorpay)
	var cursor atomic.Uint64

	var seen []provider.Provider
	for i := 0; i < 3; i++ {
		p, ok := RoundRobin(regs, &cursor)
		require.True(t, ok)
		seen = append(seen, p)
	}
	assert.Equal(t, []provider.Provider{provider.Stripe, provider.Razorpay, provider.Stripe}, seen)
}

func TestRoundRobin_ConcurrentCallsStayFair(t *testing.T) {
	regs := adapters(provider.Stripe, provider.Razorpay)
	var cursor atomic.Uint64

	const calls = 100
	counts := make(map[provider.Provider]*atomic.Int64)
	counts[provider.Stripe] = new(atomic.Int64)
	counts[provider.Razorpay] = new(atomic.Int64)

	var wg sync.WaitGroup
	for i := 0; i < calls; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, ok := RoundRobin(regs, &cursor)
			require.True(t, ok)
			counts[p].Add(1)
		}()
	}
	wg.Wait()

	assert.EqualValues(t, calls/2, counts[provider.Stripe].Load())
	assert.EqualValues(t, calls/2, counts[provider.Razorpay].Load())
}

func TestRoundRobin_EmptyRegistry(t *testing.T) {
	var cursor atomic.Uint64
	_, ok := RoundRobin(nil, &cursor)
	assert.False(t, ok)
}

func TestByCurrency(t *testing.T) {
	regs := []adapter.GatewayAdapter{
		currencyAdapter(provider.Stripe, "USD", "EUR"),
		currencyAdapter(provider.Razorpay, "INR"),
	}

	p, ok := ByCurrency(regs, "inr", "")
	require.True(t, ok)
	assert.Equal(t, provider.Razorpay, p, "currency match is case-insensitive")

	_, ok = ByCurrency(regs, "GBP", "")
	assert.False(t, ok, "no match and no default yields no provider")

	// The default wins even though its own currency list excludes GBP;
	// the orchestrator's currency check catches that later.
	p, ok = ByCurrency(regs, "GBP", provider.Razorpay)
	require.True(t, ok)
	assert.Equal(t, provider.Razorpay, p)

	_, ok = ByCurrency(regs, "GBP", provider.PayPal)
	assert.False(t, ok, "an unregistered default is no fallback")
}

func TestByAmount_OrderedFirstMatch(t *testing.T) {
	regs := adapters(provider.Stripe, provider.Razorpay)
	routes := []AmountRoute{
		{Currency: "USD", MaxAmount: 10000, Provider: provider.Stripe},
		{Currency: "USD", MaxAmount: 0, Provider: provider.Razorpay}, // unbounded
	}

	p, ok := ByAmount(regs, routes, 5000, "USD", "")
	require.True(t, ok)
	assert.Equal(t, provider.Stripe, p)

	p, ok = ByAmount(regs, routes, 50000, "USD", "")
	require.True(t, ok)
	assert.Equal(t, provider.Razorpay, p)

	p, ok = ByAmount(regs, routes, 5000, "usd", "")
	require.True(t, ok)
	assert.Equal(t, provider.Stripe, p, "route currency match ignores case")
}

func TestByAmount_Fallbacks(t *testing.T) {
	regs := adapters(provider.Stripe, provider.Razorpay)
	routes := []AmountRoute{{Currency: "USD", MaxAmount: 10000, Provider: provider.Stripe}}

	p, ok := ByAmount(regs, routes, 5000, "EUR", provider.Razorpay)
	require.True(t, ok)
	assert.Equal(t, provider.Razorpay, p, "no EUR route falls back to the default")

	_, ok = ByAmount(regs, routes, 5000, "EUR", "")
	assert.False(t, ok)

	// A route whose provider is unregistered is skipped.
	orphanRoutes := []AmountRoute{
		{Currency: "USD", MaxAmount: 0, Provider: provider.PayPal},
		{Currency: "USD", MaxAmount: 0, Provider: provider.Stripe},
	}
	p, ok = ByAmount(regs, orphanRoutes, 100, "USD", "")
	require.True(t, ok)
	assert.Equal(t, provider.Stripe, p)
}

func TestCustom(t *testing.T) {
	regs := adapters(provider.Stripe, provider.Razorpay)

	fn := func(input Input, known []provider.Provider) (provider.Provider, bool) {
		assert.Equal(t, []provider.Provider{provider.Stripe, provider.Razorpay}, known)
		if input.Currency == "INR" {
			return provider.Razorpay, true
		}
		return "", false
	}

	p, ok := Custom(fn, Input{Currency: "INR"}, regs)
	require.True(t, ok)
	assert.Equal(t, provider.Razorpay, p)

	_, ok = Custom(fn, Input{Currency: "USD"}, regs)
	assert.False(t, ok, "custom has no further fallback")

	_, ok = Custom(nil, Input{}, regs)
	assert.False(t, ok)
}
