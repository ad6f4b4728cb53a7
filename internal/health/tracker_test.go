package health

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Pushparaj13811/unipay/internal/provider"
)

func TestOpensAfterThreshold(t *testing.T) {
	tr := NewTracker(Config{FailureThreshold: 3})

	for i := 0; i < 2; i++ {
		tr.RecordFailure(provider.Stripe)
	}
	assert.Equal(t, Closed, tr.StateOf(provider.Stripe))
	assert.True(t, tr.Allow(provider.Stripe))

	tr.RecordFailure(provider.Stripe)
	assert.Equal(t, Open, tr.StateOf(provider.Stripe))
	assert.False(t, tr.Allow(provider.Stripe))
}

func TestSuccessResetsFailureStreak(t *testing.T) {
	tr := NewTracker(Config{FailureThreshold: 2})

	tr.RecordFailure(provider.Stripe)
	tr.RecordSuccess(provider.Stripe)
	tr.RecordFailure(provider.Stripe)
	assert.Equal(t, Closed, tr.StateOf(provider.Stripe),
		"non-consecutive failures must not open the circuit")
}

func TestHalfOpenProbe(t *testing.T) {
	tr := NewTracker(Config{
		FailureThreshold:  1,
		OpenTimeout:       10 * time.Millisecond,
		HalfOpenSuccesses: 2,
	})

	tr.RecordFailure(provider.Razorpay)
	assert.False(t, tr.Allow(provider.Razorpay))

	time.Sleep(20 * time.Millisecond)
	assert.True(t, tr.Allow(provider.Razorpay), "expired open circuit admits a probe")
	assert.Equal(t, HalfOpen, tr.StateOf(provider.Razorpay))

	tr.RecordSuccess(provider.Razorpay)
	assert.Equal(t, HalfOpen, tr.StateOf(provider.Razorpay))
	tr.RecordSuccess(provider.Razorpay)
	assert.Equal(t, Closed, tr.StateOf(provider.Razorpay))
}

func TestFailedProbeReopens(t *testing.T) {
	tr := NewTracker(Config{
		FailureThreshold: 1,
		OpenTimeout:      10 * time.Millisecond,
	})

	tr.RecordFailure(provider.Stripe)
	time.Sleep(20 * time.Millisecond)
	assert.True(t, tr.Allow(provider.Stripe))

	tr.RecordFailure(provider.Stripe)
	assert.Equal(t, Open, tr.StateOf(provider.Stripe))
	assert.False(t, tr.Allow(provider.Stripe))
}

func TestProvidersAreIndependent(t *testing.T) {
	tr := NewTracker(Config{FailureThreshold: 1})

	tr.RecordFailure(provider.Stripe)
	assert.False(t, tr.Allow(provider.Stripe))
	assert.True(t, tr.Allow(provider.Razorpay))
}

func TestSnapshot(t *testing.T) {
	tr := NewTracker(Config{FailureThreshold: 1})
	tr.RecordFailure(provider.Stripe)

	snap := tr.Snapshot([]provider.Provider{provider.Stripe, provider.Razorpay})
	assert.Equal(t, map[provider.Provider]string{
		provider.Stripe:   "open",
		provider.Razorpay: "closed",
	}, snap)
}
