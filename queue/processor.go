package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/AnswerPath/social-autopilot-sub000/pkg/retry"
	"github.com/AnswerPath/social-autopilot-sub000/publisher"
)

// DefaultBatchSize bounds how many due jobs one sweep claims.
const DefaultBatchSize = 50

// DefaultPostTimeout bounds a single delivery attempt, wrapper retries
// included.
const DefaultPostTimeout = 2 * time.Minute

// RetryLadder returns the fixed re-arm delays between delivery attempts:
// first retry after 1 minute, second after 5, third and beyond after 30.
// A capped ladder keeps "your post will retry" messaging predictable.
func RetryLadder() retry.Ladder {
	return retry.Ladder{Steps: []time.Duration{time.Minute, 5 * time.Minute, 30 * time.Minute}}
}

// Processor claims due jobs and drives them through delivery.
type Processor struct {
	repo   Repository
	poster publisher.Poster

	batchSize   int
	postTimeout time.Duration
	backoff     retry.BackoffStrategy
	now         func() time.Time
	logger      *slog.Logger
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithBatchSize caps the jobs claimed per sweep.
func WithBatchSize(n int) ProcessorOption {
	return func(p *Processor) {
		if n > 0 {
			p.batchSize = n
		}
	}
}

// WithPostTimeout bounds each delivery attempt.
func WithPostTimeout(d time.Duration) ProcessorOption {
	return func(p *Processor) {
		if d > 0 {
			p.postTimeout = d
		}
	}
}

// WithBackoff replaces the re-arm delay ladder.
func WithBackoff(b retry.BackoffStrategy) ProcessorOption {
	return func(p *Processor) {
		if b != nil {
			p.backoff = b
		}
	}
}

// WithClock injects the time source for deterministic tests.
func WithClock(now func() time.Time) ProcessorOption {
	return func(p *Processor) {
		if now != nil {
			p.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ProcessorOption {
	return func(p *Processor) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewProcessor creates a queue processor delivering through poster.
func NewProcessor(repo Repository, poster publisher.Poster, opts ...ProcessorOption) (*Processor, error) {
	if repo == nil {
		return nil, ErrRepositoryNil
	}
	if poster == nil {
		return nil, ErrPosterNil
	}

	p := &Processor{
		repo:        repo,
		poster:      poster,
		batchSize:   DefaultBatchSize,
		postTimeout: DefaultPostTimeout,
		backoff:     RetryLadder(),
		now:         time.Now,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// RetryDelay returns the wait before the given delivery retry. retryCount is
// the job's retry count after incrementing: the first retry waits 1 minute.
func (p *Processor) RetryDelay(retryCount int) time.Duration {
	return p.backoff.NextInterval(retryCount)
}

// ProcessQueue performs one sweep: select due jobs, claim each with a
// conditional update, and deliver. Multiple concurrent sweeps are safe; a
// job claimed by another worker is recorded as skipped. Per-job failures
// never abort the batch.
func (p *Processor) ProcessQueue(ctx context.Context) (*SweepResult, error) {
	now := p.now()

	due, err := p.repo.DueJobs(ctx, now, p.batchSize)
	if err != nil {
		return nil, fmt.Errorf("select due jobs: %w", err)
	}

	result := &SweepResult{Results: make([]JobResult, 0, len(due))}
	for _, job := range due {
		jr := p.processJob(ctx, job)
		if jr.Outcome != OutcomeSkipped {
			result.Processed++
		}
		result.Results = append(result.Results, jr)
	}

	if result.Processed > 0 {
		p.logger.InfoContext(ctx, "queue sweep complete",
			slog.Int("due", len(due)),
			slog.Int("processed", result.Processed))
	}
	return result, nil
}

// processJob claims and delivers one job. A panicking collaborator is
// accounted exactly like a structured failure.
func (p *Processor) processJob(ctx context.Context, job *Job) (jr JobResult) {
	jr = JobResult{JobID: job.ID}

	claimed, err := p.repo.ClaimJob(ctx, job.ID, p.now())
	if err != nil {
		jr.Outcome = OutcomeSkipped
		jr.Error = err.Error()
		p.logger.ErrorContext(ctx, "claim failed",
			slog.String("job_id", job.ID.String()),
			slog.String("error", err.Error()))
		return jr
	}
	if !claimed {
		// Another worker won the conditional update. Normal under
		// concurrent sweeps; skip silently.
		jr.Outcome = OutcomeSkipped
		return jr
	}

	defer func() {
		if r := recover(); r != nil {
			p.logger.ErrorContext(ctx, "poster panicked",
				slog.String("job_id", job.ID.String()),
				slog.Any("panic", r))
			jr = p.settleFailure(ctx, job, fmt.Errorf("poster panic: %v", r))
		}
	}()

	postCtx, cancel := context.WithTimeout(ctx, p.postTimeout)
	defer cancel()

	res, err := p.poster.Post(postCtx, publisher.PostRequest{
		UserID:    job.UserID,
		Content:   job.Content,
		MediaRefs: job.MediaRefs,
	})
	if err != nil {
		return p.settleFailure(ctx, job, err)
	}

	if err := p.repo.MarkPublished(ctx, job.ID, res.ExternalID, p.now()); err != nil {
		jr.Outcome = OutcomeFailed
		jr.Error = err.Error()
		p.logger.ErrorContext(ctx, "failed to settle published job",
			slog.String("job_id", job.ID.String()),
			slog.String("error", err.Error()))
		return jr
	}

	jr.Outcome = OutcomePublished
	jr.PostedRef = res.ExternalID
	p.logger.InfoContext(ctx, "job published",
		slog.String("job_id", job.ID.String()),
		slog.String("posted_ref", res.ExternalID))
	return jr
}

// settleFailure applies retry accounting to a claimed job that failed
// delivery: re-arm on the backoff ladder while retry budget remains,
// terminally fail otherwise.
func (p *Processor) settleFailure(ctx context.Context, job *Job, cause error) JobResult {
	jr := JobResult{JobID: job.ID, Error: cause.Error()}
	now := p.now()
	newCount := job.RetryCount + 1

	if newCount < job.MaxRetries {
		nextAt := now.Add(p.RetryDelay(newCount))
		if err := p.repo.ScheduleRetry(ctx, job.ID, newCount, nextAt, cause.Error(), now); err != nil {
			jr.Outcome = OutcomeFailed
			jr.Error = err.Error()
			return jr
		}
		jr.Outcome = OutcomeScheduledRetry
		jr.NextAttemptAt = &nextAt
		p.logger.WarnContext(ctx, "delivery failed, retry scheduled",
			slog.String("job_id", job.ID.String()),
			slog.Int("retry_count", newCount),
			slog.Time("next_attempt_at", nextAt),
			slog.String("error", cause.Error()))
		return jr
	}

	if err := p.repo.MarkFailed(ctx, job.ID, newCount, cause.Error(), now); err != nil {
		jr.Outcome = OutcomeFailed
		jr.Error = err.Error()
		return jr
	}
	jr.Outcome = OutcomeFailed
	p.logger.ErrorContext(ctx, "delivery retries exhausted",
		slog.String("job_id", job.ID.String()),
		slog.Int("retry_count", newCount),
		slog.String("error", cause.Error()))
	return jr
}

// Enqueue forces the job into approved with a zero retry count. Manual
// approval of a pending_approval row, or immediate queueing of a draft.
func (p *Processor) Enqueue(ctx context.Context, jobID uuid.UUID) error {
	ok, err := p.repo.Approve(ctx, jobID, p.now())
	if err != nil {
		return err
	}
	if !ok {
		if _, err := p.repo.GetJob(ctx, jobID); err != nil {
			return err
		}
		return ErrNotApprovable
	}
	return nil
}

// Reject moves a pending_approval job to the terminal rejected state.
func (p *Processor) Reject(ctx context.Context, jobID uuid.UUID) error {
	ok, err := p.repo.RejectPending(ctx, jobID, p.now())
	if err != nil {
		return err
	}
	if !ok {
		if _, err := p.repo.GetJob(ctx, jobID); err != nil {
			return err
		}
		return ErrNotRejectable
	}
	return nil
}

// RetryFailed manually re-arms a terminally failed job. Legal only while the
// job retains retry budget (retry_count < max_retries); the next attempt is
// delayed by the ladder step for the next retry count.
func (p *Processor) RetryFailed(ctx context.Context, jobID uuid.UUID) error {
	job, err := p.repo.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Status != StatusFailed || job.RetryCount >= job.MaxRetries {
		return ErrNotRetryable
	}

	now := p.now()
	nextAt := now.Add(p.RetryDelay(job.RetryCount + 1))
	ok, err := p.repo.RearmFailed(ctx, jobID, nextAt, now)
	if err != nil {
		return err
	}
	if !ok {
		// Raced with another operator action between read and update.
		return ErrNotRetryable
	}

	p.logger.InfoContext(ctx, "failed job re-armed",
		slog.String("job_id", jobID.String()),
		slog.Time("next_attempt_at", nextAt))
	return nil
}

// Cancel cancels the user's job from any non-terminal, non-processing state.
// A job already claimed runs to completion first; cancellation is
// cooperative by design.
func (p *Processor) Cancel(ctx context.Context, jobID, userID uuid.UUID) error {
	ok, err := p.repo.CancelJob(ctx, jobID, userID, p.now())
	if err != nil {
		return err
	}
	if !ok {
		job, err := p.repo.GetJob(ctx, jobID)
		if err != nil {
			return err
		}
		// Another user's job is indistinguishable from a missing one.
		if job.UserID != userID {
			return ErrJobNotFound
		}
		return ErrNotCancellable
	}
	return nil
}

// Metrics aggregates queue depth and failure counts. Read-only.
func (p *Processor) Metrics(ctx context.Context) (*Metrics, error) {
	counts, err := p.repo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	oldest, err := p.repo.OldestPendingAt(ctx)
	if err != nil {
		return nil, err
	}

	failedLastHour, err := p.repo.FailedCountSince(ctx, p.now().Add(-time.Hour))
	if err != nil {
		return nil, err
	}

	return &Metrics{
		Pending:         counts[StatusApproved] + counts[StatusPendingApproval],
		Processing:      counts[StatusProcessing],
		Failed:          counts[StatusFailed],
		Published:       counts[StatusPublished],
		OldestPendingAt: oldest,
		FailedLastHour:  failedLastHour,
	}, nil
}
