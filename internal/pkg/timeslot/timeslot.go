// Package timeslot provides clock-time interval arithmetic for availability
// schedules. All intervals are half-open [Start, End) and expressed in
// minutes since midnight.
package timeslot

import (
	"errors"
	"fmt"
	"iter"
)

// MinDurationMinutes is the shortest interval a tutor may offer.
const MinDurationMinutes = 30

// MinutesPerDay is the number of minutes in a day; valid minute values are [0, MinutesPerDay).
const MinutesPerDay = 24 * 60

var (
	ErrBadTimeFormat  = errors.New("time must be in HH:MM format")
	ErrEndBeforeStart = errors.New("end time must be after start time")
	ErrTooShort       = fmt.Errorf("minimum duration is %d minutes", MinDurationMinutes)
)

// Interval is a half-open [Start, End) clock-time range in minutes since midnight.
type Interval struct {
	Start int
	End   int
}

// MinutesSinceMidnight parses an "HH:MM" string into a minute-of-day value
// in [0, 1439]. It returns ErrBadTimeFormat on malformed input.
func MinutesSinceMidnight(s string) (int, error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, ErrBadTimeFormat
	}
	for _, i := range []int{0, 1, 3, 4} {
		if s[i] < '0' || s[i] > '9' {
			return 0, ErrBadTimeFormat
		}
	}
	h := int(s[0]-'0')*10 + int(s[1]-'0')
	m := int(s[3]-'0')*10 + int(s[4]-'0')
	if h > 23 || m > 59 {
		return 0, ErrBadTimeFormat
	}
	return h*60 + m, nil
}

// FormatMinutes renders a minute-of-day value as "HH:MM".
func FormatMinutes(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// Overlaps reports whether two half-open intervals intersect.
// Touching endpoints (a.End == b.Start) do not overlap.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start < other.End && iv.End > other.Start
}

// Validate checks that the interval is well-formed and at least
// MinDurationMinutes long.
func (iv Interval) Validate() error {
	if iv.End <= iv.Start {
		return ErrEndBeforeStart
	}
	if iv.End-iv.Start < MinDurationMinutes {
		return ErrTooShort
	}
	return nil
}

// Boundaries returns the bookable slot start times within the interval,
// stepping by slotLen minutes. A boundary is yielded only while a full slot
// still fits (boundary + slotLen <= End). The sequence is finite and can be
// ranged over more than once.
func Boundaries(iv Interval, slotLen int) iter.Seq[int] {
	return func(yield func(int) bool) {
		if slotLen <= 0 {
			return
		}
		for b := iv.Start; b+slotLen <= iv.End; b += slotLen {
			if !yield(b) {
				return
			}
		}
	}
}
