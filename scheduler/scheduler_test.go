package scheduler_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnswerPath/social-autopilot-sub000/queue"
	"github.com/AnswerPath/social-autopilot-sub000/scheduler"
)

// fixedNow is a quiet Thursday noon UTC; every test schedules relative to it.
var fixedNow = time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

func newService(t *testing.T, store *queue.MemoryStore) *scheduler.Service {
	t.Helper()

	svc, err := scheduler.New(store, scheduler.WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, err)
	return svc
}

func scheduleAt(t *testing.T, svc *scheduler.Service, userID uuid.UUID, clock string) *queue.Job {
	t.Helper()

	res, err := svc.SchedulePost(context.Background(), scheduler.ScheduleInput{
		UserID:   userID,
		Content:  "hello world",
		Date:     "2026-01-15",
		Time:     clock,
		Timezone: "UTC",
	})
	require.NoError(t, err)
	return res.Job
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("nil repository", func(t *testing.T) {
		t.Parallel()

		_, err := scheduler.New(nil)
		require.ErrorIs(t, err, scheduler.ErrRepositoryNil)
	})
}

func TestSchedulePost(t *testing.T) {
	t.Parallel()

	t.Run("persists a scheduled job", func(t *testing.T) {
		t.Parallel()

		store := queue.NewMemoryStore()
		svc := newService(t, store)
		userID := uuid.New()

		res, err := svc.SchedulePost(context.Background(), scheduler.ScheduleInput{
			UserID:   userID,
			Content:  "launch announcement",
			Date:     "2026-01-15",
			Time:     "18:00",
			Timezone: "America/New_York",
		})
		require.NoError(t, err)
		require.NotNil(t, res.Job)

		assert.Equal(t, queue.StatusScheduled, res.Job.Status)
		assert.Equal(t, time.Date(2026, 1, 15, 23, 0, 0, 0, time.UTC), res.Job.ScheduledAt)
		assert.Equal(t, "America/New_York", res.Job.UserTimezone)
		assert.Equal(t, queue.DefaultMaxRetries, res.Job.MaxRetries)
		assert.Equal(t, queue.DefaultConflictWindowMinutes, res.Job.ConflictWindowMinutes)
		assert.False(t, res.ConflictCheck.HasConflict)

		stored, err := store.GetUserJob(context.Background(), res.Job.ID, userID)
		require.NoError(t, err)
		assert.Equal(t, res.Job.ScheduledAt, stored.ScheduledAt)
	})

	t.Run("rejects empty content", func(t *testing.T) {
		t.Parallel()

		svc := newService(t, queue.NewMemoryStore())

		_, err := svc.SchedulePost(context.Background(), scheduler.ScheduleInput{
			UserID:   uuid.New(),
			Content:  "   ",
			Date:     "2026-01-15",
			Time:     "18:00",
			Timezone: "UTC",
		})
		require.ErrorIs(t, err, scheduler.ErrContentRequired)
	})

	t.Run("rejects past time", func(t *testing.T) {
		t.Parallel()

		svc := newService(t, queue.NewMemoryStore())

		_, err := svc.SchedulePost(context.Background(), scheduler.ScheduleInput{
			UserID:   uuid.New(),
			Content:  "too late",
			Date:     "2026-01-15",
			Time:     "11:59",
			Timezone: "UTC",
		})
		require.ErrorIs(t, err, scheduler.ErrScheduleInPast)
	})

	t.Run("rejects time beyond a year", func(t *testing.T) {
		t.Parallel()

		svc := newService(t, queue.NewMemoryStore())

		_, err := svc.SchedulePost(context.Background(), scheduler.ScheduleInput{
			UserID:   uuid.New(),
			Content:  "next winter",
			Date:     "2027-01-16",
			Time:     "12:00",
			Timezone: "UTC",
		})
		require.ErrorIs(t, err, scheduler.ErrScheduleTooFar)
	})

	t.Run("rejects unknown timezone", func(t *testing.T) {
		t.Parallel()

		svc := newService(t, queue.NewMemoryStore())

		_, err := svc.SchedulePost(context.Background(), scheduler.ScheduleInput{
			UserID:   uuid.New(),
			Content:  "somewhere",
			Date:     "2026-01-15",
			Time:     "18:00",
			Timezone: "Atlantis/Capital",
		})
		require.ErrorIs(t, err, scheduler.ErrInvalidTimezone)
	})

	t.Run("conflict aborts without writing", func(t *testing.T) {
		t.Parallel()

		store := queue.NewMemoryStore()
		svc := newService(t, store)
		userID := uuid.New()

		existing := scheduleAt(t, svc, userID, "18:00")

		res, err := svc.SchedulePost(context.Background(), scheduler.ScheduleInput{
			UserID:   userID,
			Content:  "colliding post",
			Date:     "2026-01-15",
			Time:     "18:03",
			Timezone: "UTC",
		})
		require.ErrorIs(t, err, scheduler.ErrScheduleConflict)
		require.NotNil(t, res)
		assert.Nil(t, res.Job)
		require.Len(t, res.ConflictCheck.Conflicts, 1)
		assert.Equal(t, existing.ID, res.ConflictCheck.Conflicts[0].JobID)
		assert.Equal(t, existing.ScheduledAt, res.ConflictCheck.Conflicts[0].ScheduledAt)

		// Nothing was persisted for the rejected request.
		counts, err := store.CountByStatus(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, counts[queue.StatusScheduled])
	})

	t.Run("window boundaries are inclusive", func(t *testing.T) {
		t.Parallel()

		store := queue.NewMemoryStore()
		svc := newService(t, store)
		userID := uuid.New()

		scheduleAt(t, svc, userID, "18:00")

		// Inside the window collides.
		_, err := svc.SchedulePost(context.Background(), scheduler.ScheduleInput{
			UserID: userID, Content: "edge", Date: "2026-01-15", Time: "18:04", Timezone: "UTC",
		})
		require.ErrorIs(t, err, scheduler.ErrScheduleConflict)

		// Exactly 5 minutes after collides.
		_, err = svc.SchedulePost(context.Background(), scheduler.ScheduleInput{
			UserID: userID, Content: "edge", Date: "2026-01-15", Time: "18:05", Timezone: "UTC",
		})
		require.ErrorIs(t, err, scheduler.ErrScheduleConflict)

		// Exactly 5 minutes before collides too.
		_, err = svc.SchedulePost(context.Background(), scheduler.ScheduleInput{
			UserID: userID, Content: "edge", Date: "2026-01-15", Time: "17:55", Timezone: "UTC",
		})
		require.ErrorIs(t, err, scheduler.ErrScheduleConflict)

		// Six minutes clears the window.
		_, err = svc.SchedulePost(context.Background(), scheduler.ScheduleInput{
			UserID: userID, Content: "clear", Date: "2026-01-15", Time: "18:06", Timezone: "UTC",
		})
		require.NoError(t, err)
	})

	t.Run("other users never conflict", func(t *testing.T) {
		t.Parallel()

		svc := newService(t, queue.NewMemoryStore())

		scheduleAt(t, svc, uuid.New(), "18:00")

		_, err := svc.SchedulePost(context.Background(), scheduler.ScheduleInput{
			UserID: uuid.New(), Content: "same slot, different account",
			Date: "2026-01-15", Time: "18:00", Timezone: "UTC",
		})
		require.NoError(t, err)
	})

	t.Run("terminal jobs never conflict", func(t *testing.T) {
		t.Parallel()

		store := queue.NewMemoryStore()
		svc := newService(t, store)
		userID := uuid.New()

		existing := scheduleAt(t, svc, userID, "18:00")
		_, err := store.CancelJob(context.Background(), existing.ID, userID, fixedNow)
		require.NoError(t, err)

		_, err = svc.SchedulePost(context.Background(), scheduler.ScheduleInput{
			UserID: userID, Content: "slot freed by cancellation",
			Date: "2026-01-15", Time: "18:00", Timezone: "UTC",
		})
		require.NoError(t, err)
	})

	t.Run("conflict preview truncates content", func(t *testing.T) {
		t.Parallel()

		store := queue.NewMemoryStore()
		svc := newService(t, store)
		userID := uuid.New()

		long := strings.Repeat("a", 200)
		_, err := svc.SchedulePost(context.Background(), scheduler.ScheduleInput{
			UserID: userID, Content: long, Date: "2026-01-15", Time: "18:00", Timezone: "UTC",
		})
		require.NoError(t, err)

		res, err := svc.SchedulePost(context.Background(), scheduler.ScheduleInput{
			UserID: userID, Content: "colliding", Date: "2026-01-15", Time: "18:02", Timezone: "UTC",
		})
		require.ErrorIs(t, err, scheduler.ErrScheduleConflict)
		require.Len(t, res.ConflictCheck.Conflicts, 1)
		assert.Less(t, len(res.ConflictCheck.Conflicts[0].ContentPreview), len(long))
	})
}

func TestSchedulePost_InitialStatus(t *testing.T) {
	t.Parallel()

	schedule := func(t *testing.T, input scheduler.ScheduleInput) queue.Status {
		t.Helper()

		svc := newService(t, queue.NewMemoryStore())
		input.Date = "2026-01-15"
		input.Time = "18:00"
		input.Timezone = "UTC"
		if input.UserID == uuid.Nil {
			input.UserID = uuid.New()
		}

		res, err := svc.SchedulePost(context.Background(), input)
		require.NoError(t, err)
		return res.Job.Status
	}

	t.Run("plain short content is scheduled", func(t *testing.T) {
		t.Parallel()

		got := schedule(t, scheduler.ScheduleInput{Content: "shipping notes for the week"})
		assert.Equal(t, queue.StatusScheduled, got)
	})

	t.Run("draft flag wins", func(t *testing.T) {
		t.Parallel()

		got := schedule(t, scheduler.ScheduleInput{Content: "not ready yet", Draft: true})
		assert.Equal(t, queue.StatusDraft, got)
	})

	t.Run("long content needs approval", func(t *testing.T) {
		t.Parallel()

		got := schedule(t, scheduler.ScheduleInput{Content: strings.Repeat("x", scheduler.DefaultReviewThreshold+1)})
		assert.Equal(t, queue.StatusPendingApproval, got)
	})

	t.Run("media needs approval", func(t *testing.T) {
		t.Parallel()

		got := schedule(t, scheduler.ScheduleInput{Content: "check this out", MediaRefs: []string{"img-1"}})
		assert.Equal(t, queue.StatusPendingApproval, got)
	})

	t.Run("flagged terms need approval", func(t *testing.T) {
		t.Parallel()

		got := schedule(t, scheduler.ScheduleInput{Content: "Buy NOW while stock lasts"})
		assert.Equal(t, queue.StatusPendingApproval, got)
	})
}

func TestReschedulePost(t *testing.T) {
	t.Parallel()

	t.Run("moves the job to the new slot", func(t *testing.T) {
		t.Parallel()

		store := queue.NewMemoryStore()
		svc := newService(t, store)
		userID := uuid.New()

		job := scheduleAt(t, svc, userID, "18:00")

		res, err := svc.ReschedulePost(context.Background(), job.ID, userID, "2026-01-16", "09:00", "")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 1, 16, 9, 0, 0, 0, time.UTC), res.Job.ScheduledAt)
		assert.Equal(t, "UTC", res.Job.UserTimezone)

		stored, err := store.GetUserJob(context.Background(), job.ID, userID)
		require.NoError(t, err)
		assert.Equal(t, res.Job.ScheduledAt, stored.ScheduledAt)
	})

	t.Run("excludes itself from conflict detection", func(t *testing.T) {
		t.Parallel()

		svc := newService(t, queue.NewMemoryStore())
		userID := uuid.New()

		job := scheduleAt(t, svc, userID, "18:00")

		// Two minutes inside its own window; only the job itself is there.
		_, err := svc.ReschedulePost(context.Background(), job.ID, userID, "2026-01-15", "18:02", "")
		require.NoError(t, err)
	})

	t.Run("conflicts with another job", func(t *testing.T) {
		t.Parallel()

		svc := newService(t, queue.NewMemoryStore())
		userID := uuid.New()

		other := scheduleAt(t, svc, userID, "18:00")
		job := scheduleAt(t, svc, userID, "18:30")

		res, err := svc.ReschedulePost(context.Background(), job.ID, userID, "2026-01-15", "18:04", "")
		require.ErrorIs(t, err, scheduler.ErrScheduleConflict)
		require.Len(t, res.ConflictCheck.Conflicts, 1)
		assert.Equal(t, other.ID, res.ConflictCheck.Conflicts[0].JobID)
	})

	t.Run("unknown job", func(t *testing.T) {
		t.Parallel()

		svc := newService(t, queue.NewMemoryStore())

		_, err := svc.ReschedulePost(context.Background(), uuid.New(), uuid.New(), "2026-01-16", "09:00", "UTC")
		require.ErrorIs(t, err, queue.ErrJobNotFound)
	})

	t.Run("wrong owner", func(t *testing.T) {
		t.Parallel()

		svc := newService(t, queue.NewMemoryStore())
		job := scheduleAt(t, svc, uuid.New(), "18:00")

		_, err := svc.ReschedulePost(context.Background(), job.ID, uuid.New(), "2026-01-16", "09:00", "")
		require.ErrorIs(t, err, queue.ErrJobNotFound)
	})
}
