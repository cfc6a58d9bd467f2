package publisher

import (
	"context"

	"github.com/AnswerPath/social-autopilot-sub000/pkg/apierr"
	"github.com/AnswerPath/social-autopilot-sub000/pkg/breaker"
	"github.com/AnswerPath/social-autopilot-sub000/pkg/retry"
)

// Resilient wraps a Poster with a circuit breaker and classified retries.
//
// The two layers compose deliberately: the retry layer re-attempts transient
// failures within a single delivery, while the breaker fails whole deliveries
// fast once the downstream is persistently down, without waiting out a
// downstream timeout. The job queue's own backoff ladder operates above both
// and re-arms the job across sweeps. See DESIGN.md for the compounding
// trade-off.
type Resilient struct {
	inner     Poster
	cb        *breaker.CircuitBreaker
	service   string
	retryOpts []retry.Option
}

// ResilientOption configures a Resilient wrapper.
type ResilientOption func(*Resilient)

// WithRetryOptions passes options to the classified retry layer.
func WithRetryOptions(opts ...retry.Option) ResilientOption {
	return func(r *Resilient) {
		r.retryOpts = opts
	}
}

// NewResilient wraps inner with the given breaker. The service name tags
// classified errors for logging and alert routing.
func NewResilient(inner Poster, cb *breaker.CircuitBreaker, opts ...ResilientOption) *Resilient {
	r := &Resilient{
		inner:   inner,
		cb:      cb,
		service: cb.Name(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Post delivers one post through the breaker and retry layers. It never
// panics; a panicking inner Poster is a programmer error and propagates.
// Returns breaker.ErrOpen without calling downstream when the circuit is
// open, otherwise the final classified error after retries are exhausted.
func (r *Resilient) Post(ctx context.Context, req PostRequest) (*PostResult, error) {
	var result *PostResult

	err := r.cb.Execute(ctx, func(ctx context.Context) error {
		return retry.Do(ctx, func(ctx context.Context) error {
			res, err := r.inner.Post(ctx, req)
			if err != nil {
				return err
			}
			result = res
			return nil
		}, r.retryOpts...)
	})
	if err != nil {
		if breaker.IsOpen(err) {
			return nil, err
		}
		return nil, apierr.Classify(err,
			apierr.WithService(r.service),
			apierr.WithUserID(req.UserID.String()),
		)
	}

	return result, nil
}
