package queue

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository encapsulates the persistence operations the Processor needs.
// All status transitions that matter for correctness are single conditional
// writes; implementations must report whether the conditional matched so
// callers can distinguish "lost the race" from "done".
type Repository interface {
	// GetJob returns the job or ErrJobNotFound.
	GetJob(ctx context.Context, id uuid.UUID) (*Job, error)

	// DueJobs returns up to limit jobs in a claimable status with
	// scheduled_at <= now, oldest-due first.
	DueJobs(ctx context.Context, now time.Time, limit int) ([]*Job, error)

	// ClaimJob atomically moves the job into processing, clearing its
	// error column: UPDATE ... WHERE id = $1 AND status IN (approved,
	// pending_approval). Returns false when zero rows matched, meaning
	// another worker already claimed it.
	ClaimJob(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)

	// MarkPublished settles a processing job as published, storing the
	// downstream reference and resetting the retry count.
	MarkPublished(ctx context.Context, id uuid.UUID, postedRef string, now time.Time) error

	// ScheduleRetry re-arms a processing job as approved with the next
	// attempt time, incremented retry count, and failure message.
	ScheduleRetry(ctx context.Context, id uuid.UUID, retryCount int, nextAttemptAt time.Time, errMsg string, now time.Time) error

	// MarkFailed settles a processing job as terminally failed.
	MarkFailed(ctx context.Context, id uuid.UUID, retryCount int, errMsg string, now time.Time) error

	// Approve forces the job into approved with a zero retry count.
	// Conditional on the job not being terminal or processing.
	Approve(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)

	// RejectPending moves a pending_approval job to rejected.
	RejectPending(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)

	// RearmFailed moves a failed job with remaining retry budget back to
	// approved with the given next attempt time. Conditional on status =
	// failed AND retry_count < max_retries.
	RearmFailed(ctx context.Context, id uuid.UUID, nextAttemptAt time.Time, now time.Time) (bool, error)

	// CancelJob cancels the user's job. Conditional on a non-terminal,
	// non-processing status; a job mid-claim runs to completion.
	CancelJob(ctx context.Context, id uuid.UUID, userID uuid.UUID, now time.Time) (bool, error)

	// CountByStatus returns job counts per status.
	CountByStatus(ctx context.Context) (map[Status]int, error)

	// OldestPendingAt returns the earliest scheduled_at among claimable
	// jobs, or nil when none are waiting.
	OldestPendingAt(ctx context.Context) (*time.Time, error)

	// FailedCountSince counts jobs whose last failure happened at or
	// after the given instant.
	FailedCountSince(ctx context.Context, since time.Time) (int, error)
}
