package retry

import (
	"context"
	"time"

	"github.com/AnswerPath/social-autopilot-sub000/pkg/apierr"
)

// DefaultMaxRetries bounds how many times a failed operation is re-attempted
// within a single call to Do.
const DefaultMaxRetries = 3

// Classifier normalizes a raw failure into a classified error. The default
// is apierr.Classify; collaborators returning tagged errors can substitute
// their own.
type Classifier func(err error) *apierr.Error

type options struct {
	maxRetries int
	backoff    BackoffStrategy
	classify   Classifier
	sleep      func(ctx context.Context, d time.Duration) error
}

// Option configures a call to Do.
type Option func(*options)

// WithMaxRetries sets how many retries follow the initial attempt.
func WithMaxRetries(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.maxRetries = n
		}
	}
}

// WithBackoff sets the delay strategy between attempts.
func WithBackoff(b BackoffStrategy) Option {
	return func(o *options) {
		if b != nil {
			o.backoff = b
		}
	}
}

// WithClassifier overrides how failures are normalized into classified errors.
func WithClassifier(c Classifier) Option {
	return func(o *options) {
		if c != nil {
			o.classify = c
		}
	}
}

// WithSleep injects the wait function, letting tests skip real delays.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(o *options) {
		if sleep != nil {
			o.sleep = sleep
		}
	}
}

// Do executes op, retrying transient failures with backoff. Every failure is
// normalized through the classifier; non-retryable classes propagate
// immediately regardless of remaining attempts. The returned error is always
// a classified *apierr.Error wrapping the final cause.
//
// Context cancellation is honored between attempts: a canceled context stops
// the loop and returns the classified last error.
func Do(ctx context.Context, op func(ctx context.Context) error, opts ...Option) error {
	o := &options{
		maxRetries: DefaultMaxRetries,
		backoff:    DefaultBackoff(),
		classify:   func(err error) *apierr.Error { return apierr.Classify(err) },
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		opt(o)
	}

	var lastErr *apierr.Error
	for attempt := 0; attempt <= o.maxRetries; attempt++ {
		if attempt > 0 {
			if err := o.sleep(ctx, o.backoff.NextInterval(attempt)); err != nil {
				return lastErr
			}
		}

		err := op(ctx)
		if err == nil {
			return nil
		}

		lastErr = o.classify(err)
		if !lastErr.Retryable {
			return lastErr
		}
	}

	return lastErr
}

// sleepContext waits for d or until the context is done, whichever first.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
