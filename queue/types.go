package queue

import (
	"time"

	"github.com/google/uuid"
)

// Status represents the delivery state of a job.
type Status string

const (
	StatusDraft           Status = "draft"
	StatusScheduled       Status = "scheduled"
	StatusPendingApproval Status = "pending_approval"
	StatusApproved        Status = "approved"
	StatusProcessing      Status = "processing"
	StatusPublished       Status = "published"
	StatusFailed          Status = "failed"
	StatusCancelled       Status = "cancelled"
	StatusRejected        Status = "rejected"
)

// Terminal reports whether the status ends the job's lifecycle.
func (s Status) Terminal() bool {
	switch s {
	case StatusPublished, StatusFailed, StatusCancelled, StatusRejected:
		return true
	default:
		return false
	}
}

// claimableStatuses are the states ProcessQueue selects and claims from.
var claimableStatuses = []Status{StatusApproved, StatusPendingApproval}

// Claimable reports whether a due job in this status may be claimed.
func (s Status) Claimable() bool {
	for _, c := range claimableStatuses {
		if s == c {
			return true
		}
	}
	return false
}

const (
	// DefaultMaxRetries bounds automatic delivery retries per job.
	DefaultMaxRetries = 3
	// DefaultConflictWindowMinutes is the symmetric scheduling conflict
	// window around a job's delivery time.
	DefaultConflictWindowMinutes = 5
)

// Job is one scheduled delivery, persisted in the jobs table.
type Job struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Content   string    `json:"content"`
	MediaRefs []string  `json:"media_refs,omitempty"`

	// ScheduledAt is stored in UTC; UserTimezone preserves the IANA zone
	// the user scheduled in, for display and rescheduling.
	ScheduledAt  time.Time `json:"scheduled_at"`
	UserTimezone string    `json:"user_timezone"`

	Status      Status     `json:"status"`
	RetryCount  int        `json:"retry_count"`
	MaxRetries  int        `json:"max_retries"`
	LastRetryAt *time.Time `json:"last_retry_at,omitempty"`
	Error       *string    `json:"error,omitempty"`

	// PostedRef is the identifier the downstream platform returned on a
	// successful publish. Set exactly when Status is published.
	PostedRef *string `json:"posted_ref,omitempty"`

	ConflictWindowMinutes int `json:"conflict_window_minutes"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Outcome describes what happened to one claimed (or skipped) job during a
// sweep.
type Outcome string

const (
	OutcomePublished      Outcome = "published"
	OutcomeScheduledRetry Outcome = "scheduled_retry"
	OutcomeFailed         Outcome = "failed"
	OutcomeSkipped        Outcome = "skipped"
)

// JobResult records one job's outcome within a sweep. Per-job outcomes are
// independent; a failure never aborts the rest of the batch.
type JobResult struct {
	JobID         uuid.UUID  `json:"job_id"`
	Outcome       Outcome    `json:"outcome"`
	PostedRef     string     `json:"posted_ref,omitempty"`
	Error         string     `json:"error,omitempty"`
	NextAttemptAt *time.Time `json:"next_attempt_at,omitempty"`
}

// SweepResult summarizes one ProcessQueue invocation.
type SweepResult struct {
	// Processed counts jobs this sweep actually claimed.
	Processed int         `json:"processed"`
	Results   []JobResult `json:"results"`
}

// Metrics is a read-only aggregation over queue state.
type Metrics struct {
	// Pending counts approved and pending_approval jobs.
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Failed     int `json:"failed"`
	Published  int `json:"published"`

	OldestPendingAt *time.Time `json:"oldest_pending_at,omitempty"`
	FailedLastHour  int        `json:"failed_last_hour"`
}
