package breaker

import (
	"context"
	"sync"
	"time"
)

// State represents the current state of a circuit breaker.
type State int

const (
	// StateClosed allows calls to pass through.
	StateClosed State = iota
	// StateOpen fails calls fast without invoking the downstream.
	StateOpen
	// StateHalfOpen permits a single trial call to probe recovery.
	StateHalfOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

const (
	// DefaultFailureThreshold opens the circuit after this many consecutive failures.
	DefaultFailureThreshold = 5
	// DefaultResetTimeout is how long an open circuit waits before permitting a trial call.
	DefaultResetTimeout = 60 * time.Second
)

// CircuitBreaker guards a single downstream dependency. Safe for concurrent
// use. State lives only in memory and resets on process restart.
type CircuitBreaker struct {
	mu sync.RWMutex

	name             string
	failureThreshold int
	resetTimeout     time.Duration
	now              func() time.Time

	state           State
	failures        int
	lastFailureTime time.Time
	trialInFlight   bool
}

// Option configures a CircuitBreaker.
type Option func(*CircuitBreaker)

// WithFailureThreshold sets how many consecutive failures open the circuit.
func WithFailureThreshold(n int) Option {
	return func(cb *CircuitBreaker) {
		if n > 0 {
			cb.failureThreshold = n
		}
	}
}

// WithResetTimeout sets how long the circuit stays open before a trial call.
func WithResetTimeout(d time.Duration) Option {
	return func(cb *CircuitBreaker) {
		if d > 0 {
			cb.resetTimeout = d
		}
	}
}

// WithClock injects the time source, making open/half-open transitions
// deterministic in tests.
func WithClock(now func() time.Time) Option {
	return func(cb *CircuitBreaker) {
		if now != nil {
			cb.now = now
		}
	}
}

// New creates a circuit breaker for the named downstream dependency.
func New(name string, opts ...Option) *CircuitBreaker {
	cb := &CircuitBreaker{
		name:             name,
		failureThreshold: DefaultFailureThreshold,
		resetTimeout:     DefaultResetTimeout,
		now:              time.Now,
		state:            StateClosed,
	}
	for _, opt := range opts {
		opt(cb)
	}
	return cb
}

// Name returns the name of the downstream dependency this breaker guards.
func (cb *CircuitBreaker) Name() string {
	return cb.name
}

// Execute wraps a single downstream call. When the circuit is open it returns
// ErrOpen without invoking op. A successful call resets the failure count; a
// failed call increments it and timestamps the failure.
func (cb *CircuitBreaker) Execute(ctx context.Context, op func(ctx context.Context) error) error {
	if !cb.allow() {
		return ErrOpen
	}

	err := op(ctx)
	if err != nil {
		cb.recordFailure()
		return err
	}

	cb.recordSuccess()
	return nil
}

// allow decides whether a call may proceed, transitioning an expired open
// circuit to half-open. In half-open only one trial call is permitted at a
// time; concurrent callers fail fast until the trial resolves.
func (cb *CircuitBreaker) allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return true

	case StateOpen:
		if cb.now().Sub(cb.lastFailureTime) >= cb.resetTimeout {
			cb.state = StateHalfOpen
			cb.trialInFlight = true
			return true
		}
		return false

	case StateHalfOpen:
		if cb.trialInFlight {
			return false
		}
		cb.trialInFlight = true
		return true

	default:
		return false
	}
}

func (cb *CircuitBreaker) recordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		cb.failures = 0
	case StateHalfOpen:
		// Trial call succeeded, the downstream has recovered.
		cb.state = StateClosed
		cb.failures = 0
		cb.trialInFlight = false
	}
}

func (cb *CircuitBreaker) recordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.lastFailureTime = cb.now()

	switch cb.state {
	case StateClosed:
		cb.failures++
		if cb.failures >= cb.failureThreshold {
			cb.state = StateOpen
		}
	case StateHalfOpen:
		// Trial call failed, reopen immediately.
		cb.state = StateOpen
		cb.failures = cb.failureThreshold
		cb.trialInFlight = false
	}
}

// State returns the current state, accounting for the automatic open to
// half-open transition that the next call would observe.
func (cb *CircuitBreaker) State() State {
	cb.mu.RLock()
	defer cb.mu.RUnlock()

	if cb.state == StateOpen && cb.now().Sub(cb.lastFailureTime) >= cb.resetTimeout {
		return StateHalfOpen
	}
	return cb.state
}

// Reset force-returns the breaker to closed. Operator action for recovering
// without a process restart.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.state = StateClosed
	cb.failures = 0
	cb.trialInFlight = false
	cb.lastFailureTime = time.Time{}
}

// Stats provides visibility into breaker state for monitoring.
type Stats struct {
	Name            string
	State           string
	Failures        int
	LastFailureTime time.Time
}

// Stats returns a snapshot of the breaker's internal counters.
func (cb *CircuitBreaker) Stats() Stats {
	cb.mu.RLock()
	defer cb.mu.RUnlock()

	return Stats{
		Name:            cb.name,
		State:           cb.state.String(),
		Failures:        cb.failures,
		LastFailureTime: cb.lastFailureTime,
	}
}
