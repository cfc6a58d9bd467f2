package retry

import (
	"math"
	"math/rand"
	"time"
)

// BackoffStrategy calculates the delay before a retry attempt.
// Attempt starts at 1 for the first retry. Implementations must be safe for
// concurrent use.
type BackoffStrategy interface {
	NextInterval(attempt int) time.Duration
}

// Exponential implements exponential backoff with optional jitter.
// Formula: min(InitialInterval * Multiplier^(attempt-1), MaxInterval),
// scaled by 1 ± JitterFactor.
type Exponential struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	JitterFactor    float64
}

// NextInterval returns the exponentially growing delay for the given attempt.
func (e Exponential) NextInterval(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	initial := e.InitialInterval
	if initial == 0 {
		initial = time.Second
	}
	maxInterval := e.MaxInterval
	if maxInterval == 0 {
		maxInterval = 30 * time.Second
	}
	multiplier := e.Multiplier
	if multiplier == 0 {
		multiplier = 2
	}

	interval := float64(initial) * math.Pow(multiplier, float64(attempt-1))

	// Jitter spreads simultaneous retries apart. Zero jitter is allowed
	// for deterministic behavior.
	if e.JitterFactor > 0 {
		interval *= 1 + (rand.Float64()*2-1)*e.JitterFactor
	}

	if interval > float64(maxInterval) {
		interval = float64(maxInterval)
	}

	return time.Duration(interval)
}

// Fixed returns the same delay for every attempt.
type Fixed struct {
	Interval time.Duration
}

func (f Fixed) NextInterval(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return f.Interval
}

// Ladder walks a fixed sequence of delays, holding the last step for all
// further attempts. A capped ladder gives human-facing retry messaging a
// predictable ceiling, unlike unbounded exponential growth.
type Ladder struct {
	Steps []time.Duration
}

func (l Ladder) NextInterval(attempt int) time.Duration {
	if attempt <= 0 || len(l.Steps) == 0 {
		return 0
	}
	idx := attempt - 1
	if idx >= len(l.Steps) {
		idx = len(l.Steps) - 1
	}
	return l.Steps[idx]
}

// DefaultBackoff returns the exponential strategy used for in-attempt
// delivery retries: 1s base, doubled per attempt, capped at 30s. The cap
// keeps a single delivery attempt's internal retries well under the job
// queue's own re-arm cadence.
func DefaultBackoff() BackoffStrategy {
	return Exponential{
		InitialInterval: time.Second,
		MaxInterval:     30 * time.Second,
		Multiplier:      2,
	}
}
