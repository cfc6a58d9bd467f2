package ratelimit

import (
	"sync"
	"time"
)

// DefaultCleanupInterval is how often stale entries are swept.
const DefaultCleanupInterval = 5 * time.Minute

// Result reports the outcome of a rate limit check.
type Result struct {
	// Allowed indicates whether the attempt may proceed.
	Allowed bool
	// Limit is the configured attempt ceiling.
	Limit int
	// Remaining is how many attempts are left in the current window.
	Remaining int
	// RetryAfter is how long to wait before the next attempt is allowed.
	// Zero when the attempt was allowed.
	RetryAfter time.Duration
	// BlockedUntil is set when the key is serving a block penalty.
	BlockedUntil *time.Time
}

// entry tracks one client key's attempt history.
// A missing entry means "no history" and is treated as not limited.
type entry struct {
	attempts     int
	firstAttempt time.Time
	blockedUntil *time.Time
}

// Limiter is a sliding-window rate limiter for a single action class.
// Safe for concurrent use. Per-process and in-memory; see package docs.
type Limiter struct {
	mu      sync.Mutex
	entries map[string]*entry

	cfg             Config
	now             func() time.Time
	cleanupInterval time.Duration

	stop     chan struct{}
	stopOnce sync.Once
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock injects the time source for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

// WithCleanupInterval sets how often the background sweep runs. A
// non-positive interval disables the sweep; lazy eviction still applies.
func WithCleanupInterval(d time.Duration) Option {
	return func(l *Limiter) {
		l.cleanupInterval = d
	}
}

// New creates a limiter for one action class and starts its sweep goroutine.
// Callers must Close the limiter when done with it.
func New(cfg Config, opts ...Option) *Limiter {
	l := &Limiter{
		entries:         make(map[string]*entry),
		cfg:             cfg,
		now:             time.Now,
		cleanupInterval: DefaultCleanupInterval,
		stop:            make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}

	if l.cleanupInterval > 0 {
		go l.sweepLoop()
	}

	return l
}

// Close stops the background sweep.
func (l *Limiter) Close() {
	l.stopOnce.Do(func() { close(l.stop) })
}

// Allow records one attempt for key and reports whether it may proceed.
// Reaching MaxAttempts blocks the key for the configured block duration.
func (l *Limiter) Allow(key string) *Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e := l.entries[key]

	if e != nil {
		// Lazy eviction: an expired block or window resets organically
		// on the next check.
		if e.blockedUntil != nil {
			if now.Before(*e.blockedUntil) {
				return &Result{
					Allowed:      false,
					Limit:        l.cfg.MaxAttempts,
					Remaining:    0,
					RetryAfter:   e.blockedUntil.Sub(now),
					BlockedUntil: e.blockedUntil,
				}
			}
			e = nil
		} else if now.Sub(e.firstAttempt) >= l.cfg.Window {
			e = nil
		}
	}

	if e == nil {
		e = &entry{firstAttempt: now}
		l.entries[key] = e
	}

	e.attempts++
	if e.attempts >= l.cfg.MaxAttempts {
		blockedUntil := now.Add(l.cfg.BlockDuration)
		e.blockedUntil = &blockedUntil

		// The attempt that reaches the ceiling is still allowed; the
		// block applies from the next one.
		return &Result{
			Allowed:      true,
			Limit:        l.cfg.MaxAttempts,
			Remaining:    0,
			BlockedUntil: e.blockedUntil,
		}
	}

	return &Result{
		Allowed:   true,
		Limit:     l.cfg.MaxAttempts,
		Remaining: l.cfg.MaxAttempts - e.attempts,
	}
}

// Status reports the current state for key without recording an attempt.
func (l *Limiter) Status(key string) *Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e := l.entries[key]
	if e == nil {
		return &Result{Allowed: true, Limit: l.cfg.MaxAttempts, Remaining: l.cfg.MaxAttempts}
	}

	if e.blockedUntil != nil && now.Before(*e.blockedUntil) {
		return &Result{
			Allowed:      false,
			Limit:        l.cfg.MaxAttempts,
			Remaining:    0,
			RetryAfter:   e.blockedUntil.Sub(now),
			BlockedUntil: e.blockedUntil,
		}
	}
	if e.blockedUntil != nil || now.Sub(e.firstAttempt) >= l.cfg.Window {
		return &Result{Allowed: true, Limit: l.cfg.MaxAttempts, Remaining: l.cfg.MaxAttempts}
	}

	return &Result{
		Allowed:   true,
		Limit:     l.cfg.MaxAttempts,
		Remaining: max(0, l.cfg.MaxAttempts-e.attempts),
	}
}

// Reset clears the history for key. Operator action.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.entries, key)
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.entries)
}

func (l *Limiter) sweepLoop() {
	ticker := time.NewTicker(l.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.Sweep()
		case <-l.stop:
			return
		}
	}
}

// Sweep removes entries whose window and block have both expired. Exported
// so tests can trigger eviction without waiting on the ticker.
func (l *Limiter) Sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for key, e := range l.entries {
		if e.blockedUntil != nil {
			if !now.Before(*e.blockedUntil) {
				delete(l.entries, key)
			}
			continue
		}
		if now.Sub(e.firstAttempt) >= l.cfg.Window {
			delete(l.entries, key)
		}
	}
}
