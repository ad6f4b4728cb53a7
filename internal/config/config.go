// Package config loads the gateway server configuration from the
// environment, with an optional .env file for local development.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/Pushparaj13811/unipay/internal/provider"
	"github.com/Pushparaj13811/unipay/internal/resolver"
)

// Config is the gateway server configuration.
type Config struct {
	Env      string
	HTTPAddr string

	Strategy        resolver.Strategy
	DefaultProvider provider.Provider

	StripeAPIKey        string
	StripeWebhookSecret string

	RazorpayKeyID         string
	RazorpayKeySecret     string
	RazorpayWebhookSecret string

	WebhookToleranceSeconds int64

	// UseMockAdapters swaps in mock gateways, for local development
	// without vendor credentials.
	UseMockAdapters bool
}

// Load reads the environment. A missing .env file is not an error.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		Env:      env("UNIPAY_ENV", "dev"),
		HTTPAddr: env("UNIPAY_HTTP_ADDR", ":8080"),

		Strategy: resolver.Strategy(env("UNIPAY_STRATEGY", string(resolver.StrategyFirstAvailable))),

		StripeAPIKey:        env("STRIPE_API_KEY", ""),
		StripeWebhookSecret: env("STRIPE_WEBHOOK_SECRET", ""),

		RazorpayKeyID:         env("RAZORPAY_KEY_ID", ""),
		RazorpayKeySecret:     env("RAZORPAY_KEY_SECRET", ""),
		RazorpayWebhookSecret: env("RAZORPAY_WEBHOOK_SECRET", ""),

		WebhookToleranceSeconds: envInt64("UNIPAY_WEBHOOK_TOLERANCE_SEC", 300),

		UseMockAdapters: envBool("UNIPAY_USE_MOCK_ADAPTERS", false),
	}
	if p, ok := provider.Parse(env("UNIPAY_DEFAULT_PROVIDER", "")); ok {
		cfg.DefaultProvider = p
	}
	return cfg
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envBool(k string, def bool) bool {
	v := strings.ToLower(os.Getenv(k))
	if v == "" {
		return def
	}
	return v == "1" || v == "true" || v == "yes"
}

func envInt64(k string, def int64) int64 {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}
