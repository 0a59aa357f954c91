// Package scheduling decides whether a dentist's slot is free.
//
// Times are minutes since midnight. An appointment occupies the half-open
// interval [start, start+duration); a zero duration is a point event.
package scheduling

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidClock = errors.New("invalid time, expected HH:mm")

// ParseClock converts "HH:mm" (or "HH:mm:ss", seconds ignored) to minutes
// since midnight.
func ParseClock(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	if len(parts[0]) != 2 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	return h*60 + m, nil
}

// FormatClock renders minutes since midnight as HH:mm. Values past midnight
// wrap, matching how an end time of 23:45+30m reads on a clock.
func FormatClock(minutes int) string {
	minutes = ((minutes % 1440) + 1440) % 1440
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ParseDuration converts an "HH:mm" duration to minutes. Unlike ParseClock
// it allows any hour count.
func ParseDuration(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid duration %q, expected HH:mm", s)
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || h < 0 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid duration %q, expected HH:mm", s)
	}
	return h*60 + m, nil
}

// FormatDuration renders a minute count as HH:mm without wrapping.
func FormatDuration(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// Interval is a half-open range of minutes.
type Interval struct {
	Start int
	End   int
}

func NewInterval(start, duration int) Interval {
	if duration < 0 {
		duration = 0
	}
	return Interval{Start: start, End: start + duration}
}

func (i Interval) IsPoint() bool { return i.Start == i.End }

// Overlaps reports whether two intervals share any minute. Touching ends do
// not overlap. A point overlaps an interval that contains it, including the
// interval's start, and another point only when both are equal.
func (i Interval) Overlaps(o Interval) bool {
	switch {
	case i.IsPoint() && o.IsPoint():
		return i.Start == o.Start
	case i.IsPoint():
		return o.Start <= i.Start && i.Start < o.End
	case o.IsPoint():
		return i.Start <= o.Start && o.Start < i.End
	default:
		return i.Start < o.End && i.End > o.Start
	}
}

// Booking is an existing appointment that holds its slot.
type Booking struct {
	AppointmentID uint
	State         string
	Interval      Interval
}

// FindConflict returns the first booking whose interval overlaps candidate.
func FindConflict(candidate Interval, existing []Booking) (Booking, bool) {
	for _, b := range existing {
		if candidate.Overlaps(b.Interval) {
			return b, true
		}
	}
	return Booking{}, false
}
