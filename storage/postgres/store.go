package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AnswerPath/social-autopilot-sub000/pkg/pg"
	"github.com/AnswerPath/social-autopilot-sub000/queue"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store is the PostgreSQL-backed job repository.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a job store over the given pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Migrate applies the embedded schema migrations.
func (s *Store) Migrate(ctx context.Context, log *slog.Logger) error {
	return pg.Migrate(ctx, s.pool, migrations, log)
}

const jobColumns = `id, user_id, content, media_refs, scheduled_at, user_timezone,
	status, retry_count, max_retries, last_retry_at, error, posted_ref,
	conflict_window_minutes, created_at, updated_at`

func scanJob(row pgx.Row) (*queue.Job, error) {
	var job queue.Job
	err := row.Scan(
		&job.ID, &job.UserID, &job.Content, &job.MediaRefs, &job.ScheduledAt,
		&job.UserTimezone, &job.Status, &job.RetryCount, &job.MaxRetries,
		&job.LastRetryAt, &job.Error, &job.PostedRef,
		&job.ConflictWindowMinutes, &job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, queue.ErrJobNotFound
		}
		return nil, fmt.Errorf("scan job: %w", err)
	}
	job.ScheduledAt = job.ScheduledAt.UTC()
	return &job, nil
}

// CreateJob inserts a new job row.
func (s *Store) CreateJob(ctx context.Context, job *queue.Job) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO jobs (`+jobColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		job.ID, job.UserID, job.Content, job.MediaRefs, job.ScheduledAt,
		job.UserTimezone, job.Status, job.RetryCount, job.MaxRetries,
		job.LastRetryAt, job.Error, job.PostedRef,
		job.ConflictWindowMinutes, job.CreatedAt, job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

// GetJob returns the job or queue.ErrJobNotFound.
func (s *Store) GetJob(ctx context.Context, id uuid.UUID) (*queue.Job, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id)
	return scanJob(row)
}

// GetUserJob returns the job when it belongs to userID.
func (s *Store) GetUserJob(ctx context.Context, id, userID uuid.UUID) (*queue.Job, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE id = $1 AND user_id = $2`, id, userID)
	return scanJob(row)
}

// JobsInWindow returns the user's jobs in conflict-relevant statuses with
// scheduled_at inside [from, to], boundaries inclusive, excluding excludeID.
func (s *Store) JobsInWindow(ctx context.Context, userID uuid.UUID, from, to time.Time, excludeID uuid.UUID) ([]*queue.Job, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+jobColumns+`
		FROM jobs
		WHERE user_id = $1
		  AND id <> $2
		  AND status IN ('scheduled', 'pending_approval', 'approved')
		  AND scheduled_at BETWEEN $3 AND $4
		ORDER BY scheduled_at`,
		userID, excludeID, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("select window: %w", err)
	}
	defer rows.Close()

	var jobs []*queue.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// UpdateSchedule moves the job to a new delivery time, timezone, and status.
func (s *Store) UpdateSchedule(ctx context.Context, id uuid.UUID, scheduledAt time.Time, timezone string, status queue.Status, now time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE jobs
		SET scheduled_at = $2, user_timezone = $3, status = $4, updated_at = $5
		WHERE id = $1`,
		id, scheduledAt, timezone, status, now,
	)
	if err != nil {
		return fmt.Errorf("update schedule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return queue.ErrJobNotFound
	}
	return nil
}

// DueJobs returns up to limit claimable jobs due at now, oldest first.
func (s *Store) DueJobs(ctx context.Context, now time.Time, limit int) ([]*queue.Job, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+jobColumns+`
		FROM jobs
		WHERE status IN ('approved', 'pending_approval')
		  AND scheduled_at <= $1
		ORDER BY scheduled_at
		LIMIT $2`,
		now, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("select due jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*queue.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// ClaimJob atomically moves the job into processing. The WHERE clause is the
// entire concurrency story: zero rows affected means another worker won.
func (s *Store) ClaimJob(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE jobs
		SET status = 'processing', error = NULL, updated_at = $2
		WHERE id = $1 AND status IN ('approved', 'pending_approval')`,
		id, now,
	)
	if err != nil {
		return false, fmt.Errorf("claim job: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// MarkPublished settles a processing job as published.
func (s *Store) MarkPublished(ctx context.Context, id uuid.UUID, postedRef string, now time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE jobs
		SET status = 'published', posted_ref = $2, retry_count = 0, error = NULL, updated_at = $3
		WHERE id = $1`,
		id, postedRef, now,
	)
	if err != nil {
		return fmt.Errorf("mark published: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return queue.ErrJobNotFound
	}
	return nil
}

// ScheduleRetry re-arms a processing job as approved with the next attempt
// time and failure message.
func (s *Store) ScheduleRetry(ctx context.Context, id uuid.UUID, retryCount int, nextAttemptAt time.Time, errMsg string, now time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE jobs
		SET status = 'approved', retry_count = $2, scheduled_at = $3,
		    last_retry_at = $4, error = $5, updated_at = $4
		WHERE id = $1`,
		id, retryCount, nextAttemptAt, now, errMsg,
	)
	if err != nil {
		return fmt.Errorf("schedule retry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return queue.ErrJobNotFound
	}
	return nil
}

// MarkFailed settles a processing job as terminally failed.
func (s *Store) MarkFailed(ctx context.Context, id uuid.UUID, retryCount int, errMsg string, now time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE jobs
		SET status = 'failed', retry_count = $2, last_retry_at = $3, error = $4, updated_at = $3
		WHERE id = $1`,
		id, retryCount, now, errMsg,
	)
	if err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return queue.ErrJobNotFound
	}
	return nil
}

// Approve forces the job into approved with a zero retry count.
func (s *Store) Approve(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE jobs
		SET status = 'approved', retry_count = 0, updated_at = $2
		WHERE id = $1
		  AND status NOT IN ('processing', 'published', 'failed', 'cancelled', 'rejected')`,
		id, now,
	)
	if err != nil {
		return false, fmt.Errorf("approve job: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// RejectPending moves a pending_approval job to rejected.
func (s *Store) RejectPending(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE jobs
		SET status = 'rejected', updated_at = $2
		WHERE id = $1 AND status = 'pending_approval'`,
		id, now,
	)
	if err != nil {
		return false, fmt.Errorf("reject job: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// RearmFailed moves a failed job with remaining retry budget back to approved.
func (s *Store) RearmFailed(ctx context.Context, id uuid.UUID, nextAttemptAt time.Time, now time.Time) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE jobs
		SET status = 'approved', scheduled_at = $2, updated_at = $3
		WHERE id = $1 AND status = 'failed' AND retry_count < max_retries`,
		id, nextAttemptAt, now,
	)
	if err != nil {
		return false, fmt.Errorf("rearm job: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// CancelJob cancels the user's job from any non-terminal, non-processing state.
func (s *Store) CancelJob(ctx context.Context, id, userID uuid.UUID, now time.Time) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE jobs
		SET status = 'cancelled', updated_at = $3
		WHERE id = $1 AND user_id = $2
		  AND status NOT IN ('processing', 'published', 'failed', 'cancelled', 'rejected')`,
		id, userID, now,
	)
	if err != nil {
		return false, fmt.Errorf("cancel job: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// CountByStatus returns job counts per status.
func (s *Store) CountByStatus(ctx context.Context) (map[queue.Status]int, error) {
	rows, err := s.pool.Query(ctx, `SELECT status, count(*) FROM jobs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[queue.Status]int)
	for rows.Next() {
		var status queue.Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

// OldestPendingAt returns the earliest scheduled_at among claimable jobs.
func (s *Store) OldestPendingAt(ctx context.Context) (*time.Time, error) {
	var oldest *time.Time
	err := s.pool.QueryRow(ctx, `
		SELECT min(scheduled_at) FROM jobs
		WHERE status IN ('approved', 'pending_approval')`,
	).Scan(&oldest)
	if err != nil {
		return nil, fmt.Errorf("oldest pending: %w", err)
	}
	if oldest != nil {
		t := oldest.UTC()
		oldest = &t
	}
	return oldest, nil
}

// FailedCountSince counts jobs whose last failure happened at or after since.
func (s *Store) FailedCountSince(ctx context.Context, since time.Time) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `
		SELECT count(*) FROM jobs
		WHERE status = 'failed' AND last_retry_at >= $1`,
		since,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed count: %w", err)
	}
	return count, nil
}
