// Package health tracks per-provider gateway health with a circuit
// breaker. The gateway server consults it before dispatching so a failing
// vendor API is not hammered; the orchestrator core itself never retries
// or reroutes, so this lives entirely outside it.
package health

import (
	"sync"
	"time"

	"github.com/Pushparaj13811/unipay/internal/provider"
)

// State is the circuit state for one provider.
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

const (
	defaultFailureThreshold  = 5
	defaultOpenTimeout       = 30 * time.Second
	defaultHalfOpenSuccesses = 2
)

type providerState struct {
	state                State
	consecutiveFailures  int
	consecutiveSuccesses int
	openUntil            time.Time
}

// Config tunes the breaker thresholds. Zero values take the defaults.
type Config struct {
	FailureThreshold  int           // consecutive failures that open the circuit
	OpenTimeout       time.Duration // how long an open circuit stays open
	HalfOpenSuccesses int           // successes needed in half-open to close
}

// Tracker is an in-memory circuit breaker keyed by provider. Safe for
// concurrent use.
type Tracker struct {
	mu        sync.Mutex
	providers map[provider.Provider]*providerState

	failureThreshold  int
	openTimeout       time.Duration
	halfOpenSuccesses int
}

// NewTracker creates a Tracker with the given thresholds.
func NewTracker(cfg Config) *Tracker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = defaultFailureThreshold
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = defaultOpenTimeout
	}
	if cfg.HalfOpenSuccesses <= 0 {
		cfg.HalfOpenSuccesses = defaultHalfOpenSuccesses
	}
	return &Tracker{
		providers:         make(map[provider.Provider]*providerState),
		failureThreshold:  cfg.FailureThreshold,
		openTimeout:       cfg.OpenTimeout,
		halfOpenSuccesses: cfg.HalfOpenSuccesses,
	}
}

func (t *Tracker) stateFor(p provider.Provider) *providerState {
	ps, ok := t.providers[p]
	if !ok {
		ps = &providerState{state: Closed}
		t.providers[p] = ps
	}
	return ps
}

// Allow reports whether calls to p should proceed. An expired open circuit
// transitions to half-open here, so probe traffic flows again.
func (t *Tracker) Allow(p provider.Provider) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	ps := t.stateFor(p)
	switch ps.state {
	case Open:
		if time.Now().After(ps.openUntil) {
			ps.state = HalfOpen
			ps.consecutiveSuccesses = 0
			return true
		}
		return false
	default:
		return true
	}
}

// RecordFailure notes a failed gateway call.
func (t *Tracker) RecordFailure(p provider.Provider) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ps := t.stateFor(p)
	switch ps.state {
	case Closed:
		ps.consecutiveFailures++
		if ps.consecutiveFailures >= t.failureThreshold {
			ps.state = Open
			ps.openUntil = time.Now().Add(t.openTimeout)
		}
	case HalfOpen:
		// A failed probe re-opens immediately.
		ps.state = Open
		ps.openUntil = time.Now().Add(t.openTimeout)
		ps.consecutiveFailures = 0
		ps.consecutiveSuccesses = 0
	}
}

// RecordSuccess notes a successful gateway call.
func (t *Tracker) RecordSuccess(p provider.Provider) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ps := t.stateFor(p)
	switch ps.state {
	case Closed:
		ps.consecutiveFailures = 0
	case HalfOpen:
		ps.consecutiveSuccesses++
		if ps.consecutiveSuccesses >= t.halfOpenSuccesses {
			ps.state = Closed
			ps.consecutiveFailures = 0
			ps.consecutiveSuccesses = 0
		}
	}
}

// StateOf returns the current circuit state without transitioning it.
func (t *Tracker) StateOf(p provider.Provider) State {
	t.mu.Lock()
	defer t.mu.Unlock()
	ps, ok := t.providers[p]
	if !ok {
		return Closed
	}
	return ps.state
}

// Snapshot reports the circuit state for each given provider, for the
// health endpoint.
func (t *Tracker) Snapshot(providers []provider.Provider) map[provider.Provider]string {
	out := make(map[provider.Provider]string, len(providers))
	for _, p := range providers {
		out[p] = t.StateOf(p).String()
	}
	return out
}
