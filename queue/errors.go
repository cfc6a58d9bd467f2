package queue

import "errors"

var (
	// ErrRepositoryNil is returned when a nil repository is provided.
	ErrRepositoryNil = errors.New("repository cannot be nil")

	// ErrPosterNil is returned when a nil posting collaborator is provided.
	ErrPosterNil = errors.New("poster cannot be nil")

	// ErrJobNotFound is returned when the referenced job does not exist.
	ErrJobNotFound = errors.New("job not found")

	// ErrNotApprovable is returned when Enqueue targets a job that is
	// already processing or terminal.
	ErrNotApprovable = errors.New("job cannot be approved in its current state")

	// ErrNotRejectable is returned when Reject targets a job that is not
	// awaiting approval.
	ErrNotRejectable = errors.New("job is not awaiting approval")

	// ErrNotRetryable is returned when a manual retry targets a job that
	// is not failed or has no retry budget left.
	ErrNotRetryable = errors.New("job is not eligible for manual retry")

	// ErrNotCancellable is returned when Cancel targets a job that is
	// terminal or currently processing.
	ErrNotCancellable = errors.New("job cannot be cancelled in its current state")
)
