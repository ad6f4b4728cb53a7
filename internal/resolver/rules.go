package resolver

import (
	"fmt"

	"github.com/Knetic/govaluate"

	"github.com/Pushparaj13811/unipay/internal/provider"
)

// RuleConfig pairs a routing expression with the provider it selects.
// Expressions see the parameters "amount", "currency", and "checkout_mode",
// e.g. `amount > 500000 && currency == 'USD'`.
type RuleConfig struct {
	Name       string
	Expression string
	Provider   provider.Provider
}

type compiledRule struct {
	name     string
	expr     *govaluate.EvaluableExpression
	provider provider.Provider
}

// RuleResolver evaluates ordered routing rules; the first rule whose
// expression is true selects its provider. It plugs into the custom
// strategy through Func.
type RuleResolver struct {
	rules []compiledRule
}

// NewRuleResolver compiles the rule expressions up front so malformed
// rules fail at construction, not per request.
func NewRuleResolver(rules []RuleConfig) (*RuleResolver, error) {
	if len(rules) == 0 {
		return nil, fmt.Errorf("at least one routing rule is required")
	}
	compiled := make([]compiledRule, 0, len(rules))
	for _, rc := range rules {
		if !rc.Provider.IsKnown() {
			return nil, fmt.Errorf("rule %q selects unknown provider %q", rc.Name, rc.Provider)
		}
		expr, err := govaluate.NewEvaluableExpression(rc.Expression)
		if err != nil {
			return nil, fmt.Errorf("rule %q: compiling expression: %w", rc.Name, err)
		}
		compiled = append(compiled, compiledRule{name: rc.Name, expr: expr, provider: rc.Provider})
	}
	return &RuleResolver{rules: compiled}, nil
}

// Func returns the Resolve method in the shape the custom strategy expects.
func (rr *RuleResolver) Func() Func {
	return rr.Resolve
}

// Resolve evaluates the rules in order against the request. Rules that
// error at evaluation time are skipped; a rule selecting an unregistered
// provider is skipped as well so a later rule can still match.
func (rr *RuleResolver) Resolve(input Input, known []provider.Provider) (provider.Provider, bool) {
	params := map[string]any{
		"amount":        float64(input.Amount),
		"currency":      input.Currency,
		"checkout_mode": string(input.CheckoutMode),
	}
	for _, rule := range rr.rules {
		res, err := rule.expr.Evaluate(params)
		if err != nil {
			continue
		}
		matched, ok := res.(bool)
		if !ok || !matched {
			continue
		}
		for _, p := range known {
			if p == rule.provider {
				return rule.provider, true
			}
		}
	}
	return "", false
}
