package queue

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore implements the queue and scheduler repository interfaces in
// memory. It backs tests and local development; production uses
// storage/postgres. The single mutex makes every conditional transition
// atomic, mirroring the rows-affected semantics of the SQL store.
type MemoryStore struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*Job
}

// NewMemoryStore creates an empty in-memory job store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[uuid.UUID]*Job)}
}

// CreateJob inserts a new job row.
func (s *MemoryStore) CreateJob(ctx context.Context, job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := cloneJob(job)
	s.jobs[job.ID] = cp
	return nil
}

// GetJob returns a copy of the job or ErrJobNotFound.
func (s *MemoryStore) GetJob(ctx context.Context, id uuid.UUID) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	return cloneJob(job), nil
}

// GetUserJob returns the job when it belongs to userID.
func (s *MemoryStore) GetUserJob(ctx context.Context, id, userID uuid.UUID) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok || job.UserID != userID {
		return nil, ErrJobNotFound
	}
	return cloneJob(job), nil
}

// JobsInWindow returns the user's jobs in conflict-relevant statuses with
// scheduled_at inside [from, to], boundaries inclusive, excluding excludeID.
func (s *MemoryStore) JobsInWindow(ctx context.Context, userID uuid.UUID, from, to time.Time, excludeID uuid.UUID) ([]*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*Job
	for _, job := range s.jobs {
		if job.UserID != userID || job.ID == excludeID {
			continue
		}
		switch job.Status {
		case StatusScheduled, StatusPendingApproval, StatusApproved:
		default:
			continue
		}
		if job.ScheduledAt.Before(from) || job.ScheduledAt.After(to) {
			continue
		}
		out = append(out, cloneJob(job))
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	return out, nil
}

// UpdateSchedule moves the job to a new delivery time, timezone, and status.
func (s *MemoryStore) UpdateSchedule(ctx context.Context, id uuid.UUID, scheduledAt time.Time, timezone string, status Status, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	job.ScheduledAt = scheduledAt
	job.UserTimezone = timezone
	job.Status = status
	job.UpdatedAt = now
	return nil
}

// DueJobs implements Repository.
func (s *MemoryStore) DueJobs(ctx context.Context, now time.Time, limit int) ([]*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []*Job
	for _, job := range s.jobs {
		if job.Status.Claimable() && !job.ScheduledAt.After(now) {
			due = append(due, cloneJob(job))
		}
	}

	// Oldest-due first so a backlog drains without starving early jobs.
	sort.Slice(due, func(i, j int) bool { return due[i].ScheduledAt.Before(due[j].ScheduledAt) })
	if len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

// ClaimJob implements Repository.
func (s *MemoryStore) ClaimJob(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok || !job.Status.Claimable() {
		return false, nil
	}
	job.Status = StatusProcessing
	job.Error = nil
	job.UpdatedAt = now
	return true, nil
}

// MarkPublished implements Repository.
func (s *MemoryStore) MarkPublished(ctx context.Context, id uuid.UUID, postedRef string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	job.Status = StatusPublished
	job.PostedRef = &postedRef
	job.RetryCount = 0
	job.Error = nil
	job.UpdatedAt = now
	return nil
}

// ScheduleRetry implements Repository.
func (s *MemoryStore) ScheduleRetry(ctx context.Context, id uuid.UUID, retryCount int, nextAttemptAt time.Time, errMsg string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	job.Status = StatusApproved
	job.RetryCount = retryCount
	job.ScheduledAt = nextAttemptAt
	lastRetry := now
	job.LastRetryAt = &lastRetry
	job.Error = &errMsg
	job.UpdatedAt = now
	return nil
}

// MarkFailed implements Repository.
func (s *MemoryStore) MarkFailed(ctx context.Context, id uuid.UUID, retryCount int, errMsg string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	job.Status = StatusFailed
	job.RetryCount = retryCount
	lastRetry := now
	job.LastRetryAt = &lastRetry
	job.Error = &errMsg
	job.UpdatedAt = now
	return nil
}

// Approve implements Repository.
func (s *MemoryStore) Approve(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return false, nil
	}
	if job.Status.Terminal() || job.Status == StatusProcessing {
		return false, nil
	}
	job.Status = StatusApproved
	job.RetryCount = 0
	job.UpdatedAt = now
	return true, nil
}

// RejectPending implements Repository.
func (s *MemoryStore) RejectPending(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok || job.Status != StatusPendingApproval {
		return false, nil
	}
	job.Status = StatusRejected
	job.UpdatedAt = now
	return true, nil
}

// RearmFailed implements Repository.
func (s *MemoryStore) RearmFailed(ctx context.Context, id uuid.UUID, nextAttemptAt time.Time, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok || job.Status != StatusFailed || job.RetryCount >= job.MaxRetries {
		return false, nil
	}
	job.Status = StatusApproved
	job.ScheduledAt = nextAttemptAt
	job.UpdatedAt = now
	return true, nil
}

// CancelJob implements Repository.
func (s *MemoryStore) CancelJob(ctx context.Context, id, userID uuid.UUID, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok || job.UserID != userID {
		return false, nil
	}
	if job.Status.Terminal() || job.Status == StatusProcessing {
		return false, nil
	}
	job.Status = StatusCancelled
	job.UpdatedAt = now
	return true, nil
}

// CountByStatus implements Repository.
func (s *MemoryStore) CountByStatus(ctx context.Context) (map[Status]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[Status]int)
	for _, job := range s.jobs {
		counts[job.Status]++
	}
	return counts, nil
}

// OldestPendingAt implements Repository.
func (s *MemoryStore) OldestPendingAt(ctx context.Context) (*time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var oldest *time.Time
	for _, job := range s.jobs {
		if !job.Status.Claimable() {
			continue
		}
		if oldest == nil || job.ScheduledAt.Before(*oldest) {
			at := job.ScheduledAt
			oldest = &at
		}
	}
	return oldest, nil
}

// FailedCountSince implements Repository.
func (s *MemoryStore) FailedCountSince(ctx context.Context, since time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, job := range s.jobs {
		if job.Status == StatusFailed && job.LastRetryAt != nil && !job.LastRetryAt.Before(since) {
			count++
		}
	}
	return count, nil
}

// cloneJob copies a job so callers cannot mutate stored state.
func cloneJob(job *Job) *Job {
	cp := *job
	if job.MediaRefs != nil {
		cp.MediaRefs = append([]string(nil), job.MediaRefs...)
	}
	if job.LastRetryAt != nil {
		t := *job.LastRetryAt
		cp.LastRetryAt = &t
	}
	if job.Error != nil {
		e := *job.Error
		cp.Error = &e
	}
	if job.PostedRef != nil {
		r := *job.PostedRef
		cp.PostedRef = &r
	}
	return &cp
}
