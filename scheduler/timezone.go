package scheduler

import (
	"errors"
	"time"
)

const (
	// DateLayout is the wire format for schedule dates.
	DateLayout = "2006-01-02"
	// TimeLayout is the wire format for schedule times of day.
	TimeLayout = "15:04"
)

// ResolveLocalTime converts a user's local (date, clock, timezone) triple to
// a UTC instant under IANA rules.
//
// DST edges resolve deterministically: a local time that does not exist
// (spring-forward gap) normalizes forward onto the valid side of the gap,
// and an ambiguous local time (fall-back overlap) maps to the single
// instant time.Date selects for the zone. The same triple always yields the
// same UTC instant across runs; it is never an error and never two
// different instants.
func ResolveLocalTime(date, clock, timezone string) (time.Time, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return time.Time{}, errors.Join(ErrInvalidTimezone, err)
	}

	d, err := time.Parse(DateLayout, date)
	if err != nil {
		return time.Time{}, errors.Join(ErrInvalidDateTime, err)
	}
	c, err := time.Parse(TimeLayout, clock)
	if err != nil {
		return time.Time{}, errors.Join(ErrInvalidDateTime, err)
	}

	local := time.Date(d.Year(), d.Month(), d.Day(), c.Hour(), c.Minute(), 0, 0, loc)
	return local.UTC(), nil
}

// MaxScheduleAhead is how far out a post may be scheduled.
const MaxScheduleAhead = 365 * 24 * time.Hour

// ValidateScheduleTime rejects instants not strictly in the future and
// instants more than 365 days out. Pure function, no I/O.
func ValidateScheduleTime(now, t time.Time) error {
	if !t.After(now) {
		return ErrScheduleInPast
	}
	if t.Sub(now) > MaxScheduleAhead {
		return ErrScheduleTooFar
	}
	return nil
}
