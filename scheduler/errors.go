package scheduler

import "errors"

var (
	// ErrRepositoryNil is returned when a nil repository is provided.
	ErrRepositoryNil = errors.New("repository cannot be nil")

	// ErrContentRequired is returned for an empty post body.
	ErrContentRequired = errors.New("post content is required")

	// ErrScheduleInPast is returned when the requested time is not
	// strictly in the future.
	ErrScheduleInPast = errors.New("scheduled time must be in the future")

	// ErrScheduleTooFar is returned when the requested time is more than
	// a year out.
	ErrScheduleTooFar = errors.New("scheduled time is too far in the future")

	// ErrInvalidTimezone is returned for an unknown IANA zone name.
	ErrInvalidTimezone = errors.New("invalid timezone")

	// ErrInvalidDateTime is returned when the date or time string does
	// not parse.
	ErrInvalidDateTime = errors.New("invalid date or time")

	// ErrScheduleConflict is returned when another job occupies the
	// conflict window. The accompanying ConflictCheck lists the
	// colliding jobs.
	ErrScheduleConflict = errors.New("schedule conflicts with another post")
)
