package availability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumabee/tutor-booking-backend/internal/pkg/timeslot"
)

// fakeRepository keeps rules in memory, ordered by day then start time.
type fakeRepository struct {
	rules map[string][]*Rule
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{rules: make(map[string][]*Rule)}
}

func (f *fakeRepository) ListActiveByTutor(_ context.Context, tutorID string) ([]*Rule, error) {
	var out []*Rule
	for _, r := range f.rules[tutorID] {
		if r.IsActive {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRepository) ReplaceForTutor(_ context.Context, tutorID string, rules []*Rule) error {
	f.rules[tutorID] = rules
	return nil
}

func newTestService(repo Repository, now time.Time) *service {
	s := NewService(repo).(*service)
	s.now = func() time.Time { return now }
	return s
}

func mustMinutes(t *testing.T, s string) int {
	t.Helper()
	m, err := timeslot.MinutesSinceMidnight(s)
	require.NoError(t, err)
	return m
}

func interval(t *testing.T, start, end string) timeslot.Interval {
	t.Helper()
	return timeslot.Interval{Start: mustMinutes(t, start), End: mustMinutes(t, end)}
}

// Monday 2026-03-02, fixed reference time for the booking window.
var testNow = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

func TestReplaceRejectsOverlappingIntervals(t *testing.T) {
	svc := newTestService(newFakeRepository(), testNow)

	schedule := WeeklySchedule{
		1: {interval(t, "09:00", "10:00"), interval(t, "09:30", "10:30")},
	}

	err := svc.Replace(context.Background(), "tutor-1", schedule)
	require.ErrorIs(t, err, ErrOverlappingRules)
}

func TestReplaceRejectsInvalidIntervals(t *testing.T) {
	svc := newTestService(newFakeRepository(), testNow)

	tests := []struct {
		name     string
		schedule WeeklySchedule
	}{
		{
			name:     "end before start",
			schedule: WeeklySchedule{1: {interval(t, "10:00", "09:00")}},
		},
		{
			name:     "shorter than 30 minutes",
			schedule: WeeklySchedule{1: {interval(t, "09:00", "09:15")}},
		},
		{
			name:     "invalid day",
			schedule: WeeklySchedule{7: {interval(t, "09:00", "10:00")}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Replace(context.Background(), "tutor-1", tt.schedule)
			assert.Error(t, err)
		})
	}
}

func TestReplaceDoesNotWriteOnValidationFailure(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo, testNow)

	good := WeeklySchedule{1: {interval(t, "09:00", "11:00")}}
	require.NoError(t, svc.Replace(context.Background(), "tutor-1", good))

	bad := WeeklySchedule{1: {interval(t, "09:00", "10:00"), interval(t, "09:30", "10:30")}}
	require.Error(t, svc.Replace(context.Background(), "tutor-1", bad))

	// The previously saved schedule is untouched.
	schedule, err := svc.WeeklySchedule(context.Background(), "tutor-1")
	require.NoError(t, err)
	assert.Equal(t, good, schedule)
}

func TestReplaceIsIdempotent(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo, testNow)

	schedule := WeeklySchedule{
		1: {interval(t, "09:00", "11:00"), interval(t, "13:00", "15:00")},
		3: {interval(t, "10:00", "12:00")},
	}

	require.NoError(t, svc.Replace(context.Background(), "tutor-1", schedule))
	first, err := svc.WeeklySchedule(context.Background(), "tutor-1")
	require.NoError(t, err)

	require.NoError(t, svc.Replace(context.Background(), "tutor-1", schedule))
	second, err := svc.WeeklySchedule(context.Background(), "tutor-1")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestWeeklyScheduleEmptyForUnknownTutor(t *testing.T) {
	svc := newTestService(newFakeRepository(), testNow)

	schedule, err := svc.WeeklySchedule(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, schedule)
}

func TestSlotsForDate(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo, testNow)

	// Mondays 09:00-11:00.
	require.NoError(t, svc.Replace(context.Background(), "tutor-1", WeeklySchedule{
		1: {interval(t, "09:00", "11:00")},
	}))

	// Next Monday is inside the window.
	monday := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)

	slots, err := svc.SlotsForDate(context.Background(), "tutor-1", monday, 60)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{
		time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC),
	}, slots)
}

func TestSlotsForDateNoRuleForWeekday(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo, testNow)

	require.NoError(t, svc.Replace(context.Background(), "tutor-1", WeeklySchedule{
		1: {interval(t, "09:00", "11:00")},
	}))

	// Tuesday has no rule.
	tuesday := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	slots, err := svc.SlotsForDate(context.Background(), "tutor-1", tuesday, 60)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestSlotsForDateOutsideBookingWindow(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo, testNow)

	require.NoError(t, svc.Replace(context.Background(), "tutor-1", WeeklySchedule{
		1: {interval(t, "09:00", "11:00")},
	}))

	tests := []struct {
		name string
		date time.Time
	}{
		{name: "in the past", date: testNow.AddDate(0, 0, -7)},
		{name: "beyond 30 days", date: testNow.AddDate(0, 0, 35)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slots, err := svc.SlotsForDate(context.Background(), "tutor-1", tt.date, 60)
			require.NoError(t, err)
			assert.Empty(t, slots)
		})
	}
}

func TestSlotsForDateMultipleIntervals(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo, testNow)

	require.NoError(t, svc.Replace(context.Background(), "tutor-1", WeeklySchedule{
		1: {interval(t, "09:00", "10:00"), interval(t, "14:00", "16:00")},
	}))

	monday := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	slots, err := svc.SlotsForDate(context.Background(), "tutor-1", monday, 60)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{
		time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 9, 14, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 9, 15, 0, 0, 0, time.UTC),
	}, slots)
}

func TestBookableDates(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo, testNow)

	// Mondays and Thursdays.
	require.NoError(t, svc.Replace(context.Background(), "tutor-1", WeeklySchedule{
		1: {interval(t, "09:00", "11:00")},
		4: {interval(t, "09:00", "11:00")},
	}))

	from := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC)

	dates, err := svc.BookableDates(context.Background(), "tutor-1", from, to)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{
		time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), // Monday
		time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC), // Thursday
	}, dates)
}

func TestBookableDatesClampedToWindow(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo, testNow)

	require.NoError(t, svc.Replace(context.Background(), "tutor-1", WeeklySchedule{
		1: {interval(t, "09:00", "11:00")},
	}))

	// Request goes far past the window; results must stop at today+30d.
	from := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	dates, err := svc.BookableDates(context.Background(), "tutor-1", from, to)
	require.NoError(t, err)
	require.NotEmpty(t, dates)

	windowEnd := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	for _, d := range dates {
		assert.False(t, d.After(windowEnd), "date %v beyond booking window", d)
	}
}

func TestBookableDatesEmptySchedule(t *testing.T) {
	svc := newTestService(newFakeRepository(), testNow)

	dates, err := svc.BookableDates(context.Background(), "tutor-1", testNow, testNow.AddDate(0, 0, 7))
	require.NoError(t, err)
	assert.Empty(t, dates)
}
