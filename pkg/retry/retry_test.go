package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnswerPath/social-autopilot-sub000/pkg/apierr"
	"github.com/AnswerPath/social-autopilot-sub000/pkg/retry"
)

// noSleep records requested delays without waiting.
func noSleep(delays *[]time.Duration) func(ctx context.Context, d time.Duration) error {
	return func(ctx context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return ctx.Err()
	}
}

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	t.Parallel()

	calls := 0
	err := retry.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_RetriesTransientFailure(t *testing.T) {
	t.Parallel()

	var delays []time.Duration
	calls := 0
	err := retry.Do(context.Background(),
		func(ctx context.Context) error {
			calls++
			if calls < 3 {
				return errors.New("503 service unavailable")
			}
			return nil
		},
		retry.WithSleep(noSleep(&delays)),
	)

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, delays)
}

func TestDo_RateLimitClassification(t *testing.T) {
	t.Parallel()

	// 429 is transient: the penalty window expires on its own, so rate
	// limits are retried with backoff until the budget runs out.
	var delays []time.Duration
	calls := 0
	err := retry.Do(context.Background(),
		func(ctx context.Context) error {
			calls++
			return errors.New("429 too many requests")
		},
		retry.WithSleep(noSleep(&delays)),
		retry.WithMaxRetries(3),
	)

	require.Error(t, err)
	assert.Equal(t, 4, calls)

	// An explicit classifier can still opt rate limits out of retries.
	calls = 0
	err = retry.Do(context.Background(),
		func(ctx context.Context) error {
			calls++
			return errors.New("429 too many requests")
		},
		retry.WithSleep(noSleep(&delays)),
		retry.WithMaxRetries(3),
		retry.WithClassifier(func(err error) *apierr.Error {
			return apierr.New(apierr.TypeRateLimit, err.Error(), apierr.WithRetryable(false), apierr.WithCause(err))
		}),
	)

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_NonRetryablePropagatesImmediately(t *testing.T) {
	t.Parallel()

	var delays []time.Duration
	calls := 0
	err := retry.Do(context.Background(),
		func(ctx context.Context) error {
			calls++
			return errors.New("401 unauthorized")
		},
		retry.WithSleep(noSleep(&delays)),
		retry.WithMaxRetries(5),
	)

	require.Error(t, err)
	assert.Equal(t, 1, calls, "authentication failures must not be retried")
	assert.Empty(t, delays)

	var aerr *apierr.Error
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, apierr.TypeAuthentication, aerr.Type)
}

func TestDo_ExhaustsRetries(t *testing.T) {
	t.Parallel()

	var delays []time.Duration
	calls := 0
	cause := errors.New("connection refused")
	err := retry.Do(context.Background(),
		func(ctx context.Context) error {
			calls++
			return cause
		},
		retry.WithSleep(noSleep(&delays)),
		retry.WithMaxRetries(2),
	)

	require.Error(t, err)
	assert.Equal(t, 3, calls, "initial attempt plus two retries")

	var aerr *apierr.Error
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, apierr.TypeNetworkError, aerr.Type)
	assert.ErrorIs(t, err, cause)
}

func TestDo_ContextCancellationStopsRetries(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := retry.Do(ctx,
		func(ctx context.Context) error {
			calls++
			cancel()
			return errors.New("network is unreachable")
		},
		retry.WithMaxRetries(5),
	)

	require.Error(t, err)
	assert.Equal(t, 1, calls)

	var aerr *apierr.Error
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, apierr.TypeNetworkError, aerr.Type)
}

func TestDo_CustomBackoff(t *testing.T) {
	t.Parallel()

	var delays []time.Duration
	_ = retry.Do(context.Background(),
		func(ctx context.Context) error { return errors.New("timeout") },
		retry.WithSleep(noSleep(&delays)),
		retry.WithMaxRetries(3),
		retry.WithBackoff(retry.Fixed{Interval: 250 * time.Millisecond}),
	)

	assert.Equal(t, []time.Duration{250 * time.Millisecond, 250 * time.Millisecond, 250 * time.Millisecond}, delays)
}
