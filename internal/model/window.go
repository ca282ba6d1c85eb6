package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidWindow is returned when a time window cannot be constructed,
// either because a time-of-day value does not parse as "15:04" or because
// the end does not come strictly after the start.
var ErrInvalidWindow = errors.New("invalid time window")

// TimeWindow is a half-open interval [Start, End) on a single calendar
// date.  Start and End are minutes from midnight, which keeps overlap
// arithmetic trivial and avoids time zone surprises: the date and the
// times-of-day are interpreted together, always in UTC.
//
// Fields:
//  Date  – calendar date in "2006-01-02" form.
//  Start – start of the window, minutes from midnight (inclusive).
//  End   – end of the window, minutes from midnight (exclusive).
type TimeWindow struct {
	Date  string // bookings.booking_date
	Start int    // bookings.start_time, minutes from midnight
	End   int    // bookings.end_time, minutes from midnight
}

// NewTimeWindow builds a TimeWindow from a "2006-01-02" date and two
// "15:04" times of day.  It returns ErrInvalidWindow when either time
// fails to parse, when the date is malformed, or when end <= start.
func NewTimeWindow(date, startTime, endTime string) (TimeWindow, error) {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return TimeWindow{}, fmt.Errorf("%w: bad date %q", ErrInvalidWindow, date)
	}
	start, err := parseTimeOfDay(startTime)
	if err != nil {
		return TimeWindow{}, fmt.Errorf("%w: bad start %q", ErrInvalidWindow, startTime)
	}
	end, err := parseTimeOfDay(endTime)
	if err != nil {
		return TimeWindow{}, fmt.Errorf("%w: bad end %q", ErrInvalidWindow, endTime)
	}
	if end <= start {
		return TimeWindow{}, fmt.Errorf("%w: end %q not after start %q", ErrInvalidWindow, endTime, startTime)
	}
	return TimeWindow{Date: date, Start: start, End: end}, nil
}

// Overlaps reports whether two windows intersect.  Windows on different
// dates never overlap, and because intervals are half-open, windows that
// merely touch (one ending exactly when the other starts) do not either.
func (w TimeWindow) Overlaps(other TimeWindow) bool {
	if w.Date != other.Date {
		return false
	}
	return w.Start < other.End && other.Start < w.End
}

// StartTime returns the window start formatted as "15:04".
func (w TimeWindow) StartTime() string { return formatTimeOfDay(w.Start) }

// EndTime returns the window end formatted as "15:04".
func (w TimeWindow) EndTime() string { return formatTimeOfDay(w.End) }

// StartsAt combines the window's date and start time into a UTC instant.
// It is used by the reminder sweeper to compare against the clock.
func (w TimeWindow) StartsAt() time.Time {
	d, _ := time.Parse("2006-01-02", w.Date)
	return d.Add(time.Duration(w.Start) * time.Minute).UTC()
}

func parseTimeOfDay(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

func formatTimeOfDay(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
