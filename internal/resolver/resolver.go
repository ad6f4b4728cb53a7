// Package resolver implements the provider selection strategies. Each
// strategy is a pure function over the ordered adapter list; only
// round-robin carries state, and that cursor is owned by the caller and
// advanced atomically.
package resolver

import (
	"strings"
	"sync/atomic"

	"github.com/Pushparaj13811/unipay/internal/adapter"
	"github.com/Pushparaj13811/unipay/internal/provider"
)

// Strategy names a provider resolution algorithm.
type Strategy string

const (
	StrategyFirstAvailable Strategy = "first-available"
	StrategyRoundRobin     Strategy = "round-robin"
	StrategyByCurrency     Strategy = "by-currency"
	StrategyByAmount       Strategy = "by-amount"
	StrategyCustom         Strategy = "custom"
)

// IsKnown reports whether s names one of the implemented strategies.
func (s Strategy) IsKnown() bool {
	switch s {
	case StrategyFirstAvailable, StrategyRoundRobin, StrategyByCurrency,
		StrategyByAmount, StrategyCustom:
		return true
	}
	return false
}

// Input is the request subset the strategies select on.
type Input struct {
	Amount       int64
	Currency     string
	CheckoutMode adapter.CheckoutMode
}

// AmountRoute sends payments up to MaxAmount in Currency to Provider.
// MaxAmount <= 0 means no upper bound. Routes are evaluated in order and
// the first structural match wins.
type AmountRoute struct {
	Currency  string
	MaxAmount int64
	Provider  provider.Provider
}

// Matches reports whether the route covers the given amount and currency.
func (r AmountRoute) Matches(amount int64, currency string) bool {
	if !strings.EqualFold(r.Currency, currency) {
		return false
	}
	return r.MaxAmount <= 0 || amount <= r.MaxAmount
}

// Func is a caller-supplied custom resolver. It receives the request and
// the registered providers in registration order, and returns false when
// it declines to pick one.
type Func func(input Input, known []provider.Provider) (provider.Provider, bool)

// FirstAvailable returns the default provider when it is registered,
// otherwise the first-registered adapter. It only fails on an empty list.
func FirstAvailable(adapters []adapter.GatewayAdapter, def provider.Provider) (provider.Provider, bool) {
	if len(adapters) == 0 {
		return "", false
	}
	if def != "" && isRegistered(adapters, def) {
		return def, true
	}
	return adapters[0].Provider(), true
}

// RoundRobin indexes the ordered adapter list with the shared cursor and
// advances it by one. The single atomic add keeps rotation strict under
// concurrent callers.
func RoundRobin(adapters []adapter.GatewayAdapter, cursor *atomic.Uint64) (provider.Provider, bool) {
	if len(adapters) == 0 {
		return "", false
	}
	idx := (cursor.Add(1) - 1) % uint64(len(adapters))
	return adapters[idx].Provider(), true
}

// ByCurrency returns the first adapter in registration order whose declared
// currency set contains the request currency. When none matches and a
// registered default exists, the default wins even if its own currency list
// omits the currency; the orchestrator's currency check still runs after
// resolution, so an unsupported default fails there.
func ByCurrency(adapters []adapter.GatewayAdapter, currency string, def provider.Provider) (provider.Provider, bool) {
	for _, a := range adapters {
		if a.Capabilities().SupportsCurrency(currency) {
			return a.Provider(), true
		}
	}
	if def != "" && isRegistered(adapters, def) {
		return def, true
	}
	return "", false
}

// ByAmount scans the ordered route list and returns the first route whose
// currency and amount bounds match and whose provider is registered. A
// registered default is the fallback when no route matches.
func ByAmount(adapters []adapter.GatewayAdapter, routes []AmountRoute, amount int64, currency string, def provider.Provider) (provider.Provider, bool) {
	for _, r := range routes {
		if r.Matches(amount, currency) && isRegistered(adapters, r.Provider) {
			return r.Provider, true
		}
	}
	if def != "" && isRegistered(adapters, def) {
		return def, true
	}
	return "", false
}

// Custom delegates to the caller-supplied function. There is no further
// fallback.
func Custom(fn Func, input Input, adapters []adapter.GatewayAdapter) (provider.Provider, bool) {
	if fn == nil {
		return "", false
	}
	known := make([]provider.Provider, 0, len(adapters))
	for _, a := range adapters {
		known = append(known, a.Provider())
	}
	return fn(input, known)
}

func isRegistered(adapters []adapter.GatewayAdapter, p provider.Provider) bool {
	for _, a := range adapters {
		if a.Provider() == p {
			return true
		}
	}
	return false
}
