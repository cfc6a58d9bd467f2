package scheduler

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/AnswerPath/social-autopilot-sub000/queue"
)

// DefaultReviewThreshold is the content length above which a post requires
// manual approval before delivery.
const DefaultReviewThreshold = 500

// defaultFlaggedTerms route promotional-sounding content through manual
// approval. Lowercase; matching is case-insensitive.
var defaultFlaggedTerms = []string{
	"buy now",
	"limited time",
	"act fast",
	"click here",
	"discount",
	"free money",
	"giveaway",
	"winner",
}

// Repository encapsulates the persistence the scheduling service needs.
// queue.MemoryStore and storage/postgres satisfy it.
type Repository interface {
	CreateJob(ctx context.Context, job *queue.Job) error
	GetUserJob(ctx context.Context, id, userID uuid.UUID) (*queue.Job, error)
	// JobsInWindow returns the user's jobs in states {scheduled,
	// pending_approval, approved} with scheduled_at in [from, to],
	// boundaries inclusive, excluding excludeID.
	JobsInWindow(ctx context.Context, userID uuid.UUID, from, to time.Time, excludeID uuid.UUID) ([]*queue.Job, error)
	UpdateSchedule(ctx context.Context, id uuid.UUID, scheduledAt time.Time, timezone string, status queue.Status, now time.Time) error
}

// Service validates and persists schedule requests.
type Service struct {
	repo            Repository
	now             func() time.Time
	reviewThreshold int
	flaggedTerms    []string
	logger          *slog.Logger
}

// Option configures the Service.
type Option func(*Service)

// WithClock injects the time source for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithReviewThreshold sets the content length that triggers manual approval.
func WithReviewThreshold(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.reviewThreshold = n
		}
	}
}

// WithFlaggedTerms replaces the promotional terms requiring approval.
func WithFlaggedTerms(terms ...string) Option {
	return func(s *Service) {
		s.flaggedTerms = terms
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a scheduling service.
func New(repo Repository, opts ...Option) (*Service, error) {
	if repo == nil {
		return nil, ErrRepositoryNil
	}

	s := &Service{
		repo:            repo,
		now:             time.Now,
		reviewThreshold: DefaultReviewThreshold,
		flaggedTerms:    defaultFlaggedTerms,
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Conflict describes one job colliding with a requested slot. Content is
// truncated so a human can recognize the post and pick a new time.
type Conflict struct {
	JobID          uuid.UUID `json:"job_id"`
	ScheduledAt    time.Time `json:"scheduled_at"`
	ContentPreview string    `json:"content_preview"`
}

// ConflictCheck is the outcome of conflict detection around one instant.
type ConflictCheck struct {
	HasConflict   bool       `json:"has_conflict"`
	WindowMinutes int        `json:"window_minutes"`
	Conflicts     []Conflict `json:"conflicts,omitempty"`
}

const previewLength = 80

// DetectConflicts finds the user's jobs in states {scheduled,
// pending_approval, approved} whose scheduled_at falls within the symmetric
// window [t − w, t + w], boundaries inclusive. excludeID skips the job being
// rescheduled; pass uuid.Nil for a fresh schedule.
func (s *Service) DetectConflicts(ctx context.Context, userID uuid.UUID, t time.Time, excludeID uuid.UUID, windowMinutes int) (*ConflictCheck, error) {
	if windowMinutes <= 0 {
		windowMinutes = queue.DefaultConflictWindowMinutes
	}
	window := time.Duration(windowMinutes) * time.Minute

	jobs, err := s.repo.JobsInWindow(ctx, userID, t.Add(-window), t.Add(window), excludeID)
	if err != nil {
		return nil, err
	}

	check := &ConflictCheck{
		HasConflict:   len(jobs) > 0,
		WindowMinutes: windowMinutes,
	}
	for _, job := range jobs {
		preview := job.Content
		if len(preview) > previewLength {
			preview = preview[:previewLength] + "…"
		}
		check.Conflicts = append(check.Conflicts, Conflict{
			JobID:          job.ID,
			ScheduledAt:    job.ScheduledAt,
			ContentPreview: preview,
		})
	}
	return check, nil
}

// ScheduleInput is one schedule request in the user's local time.
type ScheduleInput struct {
	UserID    uuid.UUID
	Content   string
	MediaRefs []string

	Date     string // DateLayout
	Time     string // TimeLayout
	Timezone string // IANA name

	// Draft persists the post without queueing it for delivery.
	Draft bool

	// Optional overrides; zero values take the queue defaults.
	MaxRetries            int
	ConflictWindowMinutes int
}

// ScheduleResult carries the persisted job and the conflict check that
// cleared (or blocked) it.
type ScheduleResult struct {
	Job           *queue.Job     `json:"job,omitempty"`
	ConflictCheck *ConflictCheck `json:"conflict_check"`
}

// SchedulePost validates a schedule request and persists the job row. On
// conflict nothing is written: the result carries the colliding jobs and
// the error is ErrScheduleConflict.
func (s *Service) SchedulePost(ctx context.Context, input ScheduleInput) (*ScheduleResult, error) {
	if strings.TrimSpace(input.Content) == "" {
		return nil, ErrContentRequired
	}

	scheduledAt, err := ResolveLocalTime(input.Date, input.Time, input.Timezone)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := ValidateScheduleTime(now, scheduledAt); err != nil {
		return nil, err
	}

	check, err := s.DetectConflicts(ctx, input.UserID, scheduledAt, uuid.Nil, input.ConflictWindowMinutes)
	if err != nil {
		return nil, err
	}
	if check.HasConflict {
		// Abort without writing; the caller reschedules by hand.
		return &ScheduleResult{ConflictCheck: check}, ErrScheduleConflict
	}

	maxRetries := input.MaxRetries
	if maxRetries <= 0 {
		maxRetries = queue.DefaultMaxRetries
	}
	windowMinutes := input.ConflictWindowMinutes
	if windowMinutes <= 0 {
		windowMinutes = queue.DefaultConflictWindowMinutes
	}

	job := &queue.Job{
		ID:                    uuid.New(),
		UserID:                input.UserID,
		Content:               input.Content,
		MediaRefs:             input.MediaRefs,
		ScheduledAt:           scheduledAt,
		UserTimezone:          input.Timezone,
		Status:                s.initialStatus(input),
		MaxRetries:            maxRetries,
		ConflictWindowMinutes: windowMinutes,
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	if err := s.repo.CreateJob(ctx, job); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "post scheduled",
		slog.String("job_id", job.ID.String()),
		slog.String("user_id", job.UserID.String()),
		slog.Time("scheduled_at", job.ScheduledAt),
		slog.String("status", string(job.Status)))

	return &ScheduleResult{Job: job, ConflictCheck: check}, nil
}

// GetPost returns the user's job.
func (s *Service) GetPost(ctx context.Context, jobID, userID uuid.UUID) (*queue.Job, error) {
	return s.repo.GetUserJob(ctx, jobID, userID)
}

// ReschedulePost moves an existing job to a new slot through the same
// validation and conflict pipeline, excluding the job itself from conflict
// detection. An empty timezone keeps the job's stored zone.
func (s *Service) ReschedulePost(ctx context.Context, jobID, userID uuid.UUID, newDate, newTime, timezone string) (*ScheduleResult, error) {
	job, err := s.repo.GetUserJob(ctx, jobID, userID)
	if err != nil {
		return nil, err
	}

	if timezone == "" {
		timezone = job.UserTimezone
	}

	scheduledAt, err := ResolveLocalTime(newDate, newTime, timezone)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := ValidateScheduleTime(now, scheduledAt); err != nil {
		return nil, err
	}

	check, err := s.DetectConflicts(ctx, userID, scheduledAt, jobID, job.ConflictWindowMinutes)
	if err != nil {
		return nil, err
	}
	if check.HasConflict {
		return &ScheduleResult{ConflictCheck: check}, ErrScheduleConflict
	}

	if err := s.repo.UpdateSchedule(ctx, jobID, scheduledAt, timezone, job.Status, now); err != nil {
		return nil, err
	}

	job.ScheduledAt = scheduledAt
	job.UserTimezone = timezone
	job.UpdatedAt = now

	s.logger.InfoContext(ctx, "post rescheduled",
		slog.String("job_id", jobID.String()),
		slog.Time("scheduled_at", scheduledAt))

	return &ScheduleResult{Job: job, ConflictCheck: check}, nil
}

// initialStatus derives where a new post enters the state machine. Long
// content, flagged promotional terms, and media all require a human look
// before delivery.
func (s *Service) initialStatus(input ScheduleInput) queue.Status {
	if input.Draft {
		return queue.StatusDraft
	}
	if len(input.Content) > s.reviewThreshold || len(input.MediaRefs) > 0 {
		return queue.StatusPendingApproval
	}

	lower := strings.ToLower(input.Content)
	for _, term := range s.flaggedTerms {
		if strings.Contains(lower, term) {
			return queue.StatusPendingApproval
		}
	}
	return queue.StatusScheduled
}
