package publisher_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnswerPath/social-autopilot-sub000/pkg/apierr"
	"github.com/AnswerPath/social-autopilot-sub000/pkg/breaker"
	"github.com/AnswerPath/social-autopilot-sub000/pkg/retry"
	"github.com/AnswerPath/social-autopilot-sub000/publisher"
)

func noSleep(ctx context.Context, d time.Duration) error { return ctx.Err() }

func TestResilient_Post(t *testing.T) {
	t.Parallel()

	req := publisher.PostRequest{UserID: uuid.New(), Content: "hello"}

	t.Run("success passes through", func(t *testing.T) {
		t.Parallel()

		inner := publisher.PosterFunc(func(ctx context.Context, req publisher.PostRequest) (*publisher.PostResult, error) {
			return &publisher.PostResult{ExternalID: "ext-1"}, nil
		})
		r := publisher.NewResilient(inner, breaker.New("platform"))

		res, err := r.Post(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, "ext-1", res.ExternalID)
	})

	t.Run("transient failures are retried within one delivery", func(t *testing.T) {
		t.Parallel()

		calls := 0
		inner := publisher.PosterFunc(func(ctx context.Context, req publisher.PostRequest) (*publisher.PostResult, error) {
			calls++
			if calls < 3 {
				return nil, apierr.New(apierr.TypeServiceUnavailable, "503")
			}
			return &publisher.PostResult{ExternalID: "ext-2"}, nil
		})
		r := publisher.NewResilient(inner, breaker.New("platform"),
			publisher.WithRetryOptions(retry.WithSleep(noSleep)))

		res, err := r.Post(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, "ext-2", res.ExternalID)
		assert.Equal(t, 3, calls)
	})

	t.Run("auth failures are not retried", func(t *testing.T) {
		t.Parallel()

		calls := 0
		inner := publisher.PosterFunc(func(ctx context.Context, req publisher.PostRequest) (*publisher.PostResult, error) {
			calls++
			return nil, apierr.New(apierr.TypeAuthentication, "401 Unauthorized")
		})
		r := publisher.NewResilient(inner, breaker.New("platform"),
			publisher.WithRetryOptions(retry.WithSleep(noSleep)))

		_, err := r.Post(context.Background(), req)
		require.Error(t, err)
		assert.Equal(t, 1, calls)

		var classified *apierr.Error
		require.True(t, errors.As(err, &classified))
		assert.Equal(t, apierr.TypeAuthentication, classified.Type)
		assert.False(t, classified.Retryable)
	})

	t.Run("open breaker fails fast without calling downstream", func(t *testing.T) {
		t.Parallel()

		calls := 0
		inner := publisher.PosterFunc(func(ctx context.Context, req publisher.PostRequest) (*publisher.PostResult, error) {
			calls++
			return nil, apierr.New(apierr.TypeAuthentication, "401")
		})
		r := publisher.NewResilient(inner, breaker.New("platform", breaker.WithFailureThreshold(2)),
			publisher.WithRetryOptions(retry.WithSleep(noSleep)))

		for _i := 0; _i < 2; _i++ {
			_, err := r.Post(context.Background(), req)
			require.Error(t, err)
		}
		require.Equal(t, 2, calls)

		_, err := r.Post(context.Background(), req)
		require.ErrorIs(t, err, breaker.ErrOpen)
		assert.Equal(t, 2, calls, "downstream untouched while open")
	})

	t.Run("breaker recovers through a trial call", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
		clock := func() time.Time { return now }

		healthy := false
		inner := publisher.PosterFunc(func(ctx context.Context, req publisher.PostRequest) (*publisher.PostResult, error) {
			if !healthy {
				return nil, apierr.New(apierr.TypeServerError, "500")
			}
			return &publisher.PostResult{ExternalID: "ext-3"}, nil
		})
		cb := breaker.New("platform",
			breaker.WithFailureThreshold(1),
			breaker.WithResetTimeout(time.Minute),
			breaker.WithClock(clock))
		r := publisher.NewResilient(inner, cb,
			publisher.WithRetryOptions(retry.WithSleep(noSleep), retry.WithMaxRetries(0)))

		_, err := r.Post(context.Background(), req)
		require.Error(t, err)
		require.Equal(t, breaker.StateOpen, cb.State())

		healthy = true
		now = now.Add(time.Minute)

		res, err := r.Post(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, "ext-3", res.ExternalID)
		assert.Equal(t, breaker.StateClosed, cb.State())
	})

	t.Run("opaque errors come back classified and tagged", func(t *testing.T) {
		t.Parallel()

		inner := publisher.PosterFunc(func(ctx context.Context, req publisher.PostRequest) (*publisher.PostResult, error) {
			return nil, errors.New("401 unauthorized: token expired")
		})
		r := publisher.NewResilient(inner, breaker.New("platform"),
			publisher.WithRetryOptions(retry.WithSleep(noSleep)))

		_, err := r.Post(context.Background(), req)
		require.Error(t, err)

		var classified *apierr.Error
		require.True(t, errors.As(err, &classified))
		assert.Equal(t, apierr.TypeAuthentication, classified.Type)
	})
}
