package availability

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/lumabee/tutor-booking-backend/internal/pkg/apperror"
	"github.com/lumabee/tutor-booking-backend/internal/pkg/timeslot"
)

// WeeklySchedule maps day-of-week (0=Sunday) to that day's bookable
// intervals, sorted by start time.
type WeeklySchedule map[int][]timeslot.Interval

type Service interface {
	// WeeklySchedule returns the tutor's active rules grouped by day.
	// An empty schedule is returned if the tutor has no rules.
	WeeklySchedule(ctx context.Context, tutorID string) (WeeklySchedule, error)

	// Replace validates the given schedule and atomically replaces the
	// tutor's stored rule set. Nothing is written on validation failure.
	Replace(ctx context.Context, tutorID string, schedule WeeklySchedule) error

	// SlotsForDate resolves the concrete bookable start instants for one
	// date. Dates outside the booking window yield an empty result, not an
	// error. Already-booked times are not excluded here; booking creation
	// is the authority that rejects conflicts.
	SlotsForDate(ctx context.Context, tutorID string, date time.Time, slotLen int) ([]time.Time, error)

	// BookableDates lists the dates within [from, to] (clamped to the
	// booking window) on which the tutor has any active availability.
	BookableDates(ctx context.Context, tutorID string, from, to time.Time) ([]time.Time, error)
}

type service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) Service {
	return &service{
		repo: repo,
		now:  time.Now,
	}
}

func (s *service) WeeklySchedule(ctx context.Context, tutorID string) (WeeklySchedule, error) {
	rules, err := s.repo.ListActiveByTutor(ctx, tutorID)
	if err != nil {
		return nil, err
	}

	schedule := make(WeeklySchedule)
	for _, r := range rules {
		schedule[r.DayOfWeek] = append(schedule[r.DayOfWeek], timeslot.Interval{
			Start: r.StartMinute,
			End:   r.EndMinute,
		})
	}
	return schedule, nil
}

func (s *service) Replace(ctx context.Context, tutorID string, schedule WeeklySchedule) error {
	if err := validateSchedule(schedule); err != nil {
		return err
	}

	var rules []*Rule
	for _, day := range sortedDays(schedule) {
		for _, iv := range schedule[day] {
			rules = append(rules, &Rule{
				TutorID:     tutorID,
				DayOfWeek:   day,
				StartMinute: iv.Start,
				EndMinute:   iv.End,
				IsActive:    true,
			})
		}
	}

	return s.repo.ReplaceForTutor(ctx, tutorID, rules)
}

func (s *service) SlotsForDate(ctx context.Context, tutorID string, date time.Time, slotLen int) ([]time.Time, error) {
	if slotLen <= 0 {
		slotLen = DefaultSlotLengthMinutes
	}

	day := startOfDay(date)
	if !s.inBookingWindow(day) {
		return nil, nil
	}

	schedule, err := s.WeeklySchedule(ctx, tutorID)
	if err != nil {
		return nil, err
	}

	intervals := schedule[int(day.Weekday())]
	var slots []time.Time
	for _, iv := range intervals {
		for b := range timeslot.Boundaries(iv, slotLen) {
			slots = append(slots, day.Add(time.Duration(b)*time.Minute))
		}
	}
	return slots, nil
}

func (s *service) BookableDates(ctx context.Context, tutorID string, from, to time.Time) ([]time.Time, error) {
	today := startOfDay(s.now().UTC())
	windowEnd := today.AddDate(0, 0, BookingWindowDays)

	from = startOfDay(from)
	to = startOfDay(to)
	if from.Before(today) {
		from = today
	}
	if to.After(windowEnd) {
		to = windowEnd
	}
	if to.Before(from) {
		return nil, nil
	}

	schedule, err := s.WeeklySchedule(ctx, tutorID)
	if err != nil {
		return nil, err
	}
	if len(schedule) == 0 {
		return nil, nil
	}

	weekdays := make([]rrule.Weekday, 0, len(schedule))
	for _, day := range sortedDays(schedule) {
		weekdays = append(weekdays, rruleWeekdays[day])
	}

	r, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Dtstart:   from,
		Byweekday: weekdays,
	})
	if err != nil {
		return nil, fmt.Errorf("build recurrence rule failed: %w", err)
	}

	return r.Between(from, to, true), nil
}

// rruleWeekdays maps our Sunday=0 convention onto rrule weekday constants.
var rruleWeekdays = [7]rrule.Weekday{
	rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA,
}

func validateSchedule(schedule WeeklySchedule) error {
	for day, intervals := range schedule {
		if day < 0 || day > 6 {
			return ErrInvalidDay
		}
		for i, iv := range intervals {
			if err := iv.Validate(); err != nil {
				return apperror.Wrap(err, http.StatusBadRequest, err.Error())
			}
			// Pairwise overlap check; rule sets are small.
			for _, other := range intervals[i+1:] {
				if iv.Overlaps(other) {
					return ErrOverlappingRules
				}
			}
		}
	}
	return nil
}

func (s *service) inBookingWindow(day time.Time) bool {
	today := startOfDay(s.now().UTC())
	windowEnd := today.AddDate(0, 0, BookingWindowDays)
	return !day.Before(today) && !day.After(windowEnd)
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func sortedDays(schedule WeeklySchedule) []int {
	days := make([]int, 0, len(schedule))
	for day := range schedule {
		days = append(days, day)
	}
	sort.Ints(days)
	return days
}
