package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeRepository keeps bookings in memory keyed by ID.
type fakeRepository struct {
	bookings map[string]*Booking
	nextID   int
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{bookings: make(map[string]*Booking)}
}

func (f *fakeRepository) Create(_ context.Context, b *Booking) error {
	for _, existing := range f.bookings {
		if existing.TutorID != b.TutorID || existing.Status == StatusCancelled {
			continue
		}
		if b.SessionAt.Before(existing.SessionEnd()) && existing.SessionAt.Before(b.SessionEnd()) {
			return ErrTimeConflict
		}
	}
	f.nextID++
	b.ID = string(rune('a' + f.nextID))
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt
	copied := *b
	f.bookings[b.ID] = &copied
	return nil
}

func (f *fakeRepository) GetByID(_ context.Context, id string) (*Booking, error) {
	b, ok := f.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *b
	return &copied, nil
}

func (f *fakeRepository) List(_ context.Context, _ Filter) ([]*Booking, int, error) {
	var out []*Booking
	for _, b := range f.bookings {
		copied := *b
		out = append(out, &copied)
	}
	return out, len(out), nil
}

func (f *fakeRepository) UpdateStatus(_ context.Context, id string, from []Status, to Status) (bool, error) {
	b, ok := f.bookings[id]
	if !ok {
		return false, nil
	}
	for _, s := range from {
		if b.Status == s {
			b.Status = to
			b.UpdatedAt = time.Now()
			return true, nil
		}
	}
	return false, nil
}

type fakeRates struct {
	rates map[string]int64
}

func (f *fakeRates) TutorHourlyRate(_ context.Context, tutorID string) (int64, error) {
	rate, ok := f.rates[tutorID]
	if !ok {
		return 0, ErrRateUnavailable
	}
	return rate, nil
}

type fakeSlots struct {
	slots []time.Time
}

func (f *fakeSlots) SlotsForDate(_ context.Context, _ string, _ time.Time, _ int) ([]time.Time, error) {
	return f.slots, nil
}

type fakeNotifier struct {
	sent []string // recipient user IDs in order
}

func (f *fakeNotifier) Notify(_ context.Context, userID, _, _, _ string) error {
	f.sent = append(f.sent, userID)
	return nil
}

// Monday 2026-03-02, fixed reference time.
var testNow = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

type fixture struct {
	repo     *fakeRepository
	rates    *fakeRates
	slots    *fakeSlots
	notifier *fakeNotifier
	svc      *service
}

func newFixture() *fixture {
	f := &fixture{
		repo:     newFakeRepository(),
		rates:    &fakeRates{rates: map[string]int64{"tutor-1": 5000}},
		slots:    &fakeSlots{},
		notifier: &fakeNotifier{},
	}
	f.svc = NewService(f.repo, f.rates, f.slots, f.notifier, zap.NewNop()).(*service)
	f.svc.now = func() time.Time { return testNow }

	// Tutor works 09:00-12:00 on the reference day.
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	for h := 9; h < 12; h++ {
		f.slots.slots = append(f.slots.slots, day.Add(time.Duration(h)*time.Hour))
	}
	return f
}

func validRequest() CreateRequest {
	return CreateRequest{
		TutorID:       "tutor-1",
		SessionAt:     time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		DurationHours: 1,
		Subject:       "Algebra",
	}
}

func TestCreateBooking(t *testing.T) {
	f := newFixture()

	b, err := f.svc.Create(context.Background(), "student-1", validRequest())
	require.NoError(t, err)

	assert.Equal(t, StatusPending, b.Status)
	assert.Equal(t, int64(5000), b.TotalAmountCents)
	assert.Equal(t, []string{"tutor-1"}, f.notifier.sent)
}

func TestCreateFreezesTotalAmount(t *testing.T) {
	f := newFixture()

	b, err := f.svc.Create(context.Background(), "student-1", validRequest())
	require.NoError(t, err)
	require.Equal(t, int64(5000), b.TotalAmountCents)

	// A later rate change must not affect the stored booking.
	f.rates.rates["tutor-1"] = 9000

	stored, err := f.svc.GetByID(context.Background(), b.ID, "student-1", "student")
	require.NoError(t, err)
	assert.Equal(t, int64(5000), stored.TotalAmountCents)
}

func TestCreateMultiHourAmount(t *testing.T) {
	f := newFixture()

	req := validRequest()
	req.DurationHours = 3

	b, err := f.svc.Create(context.Background(), "student-1", req)
	require.NoError(t, err)
	assert.Equal(t, int64(15000), b.TotalAmountCents)
}

func TestCreateRejectsInvalidDuration(t *testing.T) {
	f := newFixture()

	for _, hours := range []int{0, -1, 5} {
		req := validRequest()
		req.DurationHours = hours
		_, err := f.svc.Create(context.Background(), "student-1", req)
		assert.ErrorIs(t, err, ErrInvalidDuration, "duration %d", hours)
	}
}

func TestCreateRejectsEmptySubject(t *testing.T) {
	f := newFixture()

	req := validRequest()
	req.Subject = "   "
	_, err := f.svc.Create(context.Background(), "student-1", req)
	assert.ErrorIs(t, err, ErrSubjectRequired)
}

func TestCreateRejectsPastStart(t *testing.T) {
	f := newFixture()

	req := validRequest()
	req.SessionAt = testNow.Add(-time.Hour)
	_, err := f.svc.Create(context.Background(), "student-1", req)
	assert.ErrorIs(t, err, ErrStartTimePast)
}

func TestCreateRejectsOffSlotStart(t *testing.T) {
	f := newFixture()

	req := validRequest()
	req.SessionAt = time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	_, err := f.svc.Create(context.Background(), "student-1", req)
	assert.ErrorIs(t, err, ErrSlotUnavailable)
}

func TestCreateRejectsSessionSpillingPastAvailability(t *testing.T) {
	f := newFixture()

	// 11:00 start with 2 hours would run to 13:00, past the 12:00 end.
	req := validRequest()
	req.SessionAt = time.Date(2026, 3, 2, 11, 0, 0, 0, time.UTC)
	req.DurationHours = 2
	_, err := f.svc.Create(context.Background(), "student-1", req)
	assert.ErrorIs(t, err, ErrSlotUnavailable)
}

func TestCreateRejectsTutorTimeConflict(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Create(context.Background(), "student-1", validRequest())
	require.NoError(t, err)

	_, err = f.svc.Create(context.Background(), "student-2", validRequest())
	assert.ErrorIs(t, err, ErrTimeConflict)
}

func TestCancelledBookingFreesTheSlot(t *testing.T) {
	f := newFixture()

	b, err := f.svc.Create(context.Background(), "student-1", validRequest())
	require.NoError(t, err)

	_, err = f.svc.Cancel(context.Background(), b.ID, "student-1", "student")
	require.NoError(t, err)

	_, err = f.svc.Create(context.Background(), "student-2", validRequest())
	assert.NoError(t, err)
}

func TestConfirmIsIdempotent(t *testing.T) {
	f := newFixture()

	b, err := f.svc.Create(context.Background(), "student-1", validRequest())
	require.NoError(t, err)

	changed, err := f.svc.Confirm(context.Background(), b.ID)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = f.svc.Confirm(context.Background(), b.ID)
	require.NoError(t, err)
	assert.False(t, changed)

	stored, err := f.svc.GetByID(context.Background(), b.ID, "student-1", "student")
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, stored.Status)
}

func TestConfirmRejectsTerminalStates(t *testing.T) {
	f := newFixture()

	b, err := f.svc.Create(context.Background(), "student-1", validRequest())
	require.NoError(t, err)

	_, err = f.svc.Cancel(context.Background(), b.ID, "student-1", "student")
	require.NoError(t, err)

	_, err = f.svc.Confirm(context.Background(), b.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCancelPermissions(t *testing.T) {
	f := newFixture()

	b, err := f.svc.Create(context.Background(), "student-1", validRequest())
	require.NoError(t, err)

	_, err = f.svc.Cancel(context.Background(), b.ID, "stranger", "student")
	assert.ErrorIs(t, err, ErrPermissionDenied)

	_, err = f.svc.Cancel(context.Background(), b.ID, "tutor-1", "tutor")
	assert.NoError(t, err)
}

func TestCancelNotifiesCounterpart(t *testing.T) {
	f := newFixture()

	b, err := f.svc.Create(context.Background(), "student-1", validRequest())
	require.NoError(t, err)
	f.notifier.sent = nil

	_, err = f.svc.Cancel(context.Background(), b.ID, "tutor-1", "tutor")
	require.NoError(t, err)
	assert.Equal(t, []string{"student-1"}, f.notifier.sent)
}

func TestMarkCompleted(t *testing.T) {
	f := newFixture()

	b, err := f.svc.Create(context.Background(), "student-1", validRequest())
	require.NoError(t, err)

	_, err = f.svc.Confirm(context.Background(), b.ID)
	require.NoError(t, err)

	// Session has not ended yet at the reference time.
	_, err = f.svc.MarkCompleted(context.Background(), b.ID, "tutor-1", "tutor")
	assert.ErrorIs(t, err, ErrSessionNotElapsed)

	f.svc.now = func() time.Time { return testNow.Add(4 * time.Hour) }

	// Only the tutor or an admin may complete.
	_, err = f.svc.MarkCompleted(context.Background(), b.ID, "student-1", "student")
	assert.ErrorIs(t, err, ErrPermissionDenied)

	done, err := f.svc.MarkCompleted(context.Background(), b.ID, "tutor-1", "tutor")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, done.Status)
}

func TestMarkCompletedRequiresConfirmed(t *testing.T) {
	f := newFixture()
	f.svc.now = func() time.Time { return testNow.Add(24 * time.Hour) }

	b := &Booking{
		StudentID:     "student-1",
		TutorID:       "tutor-1",
		SessionAt:     time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		DurationHours: 1,
		Subject:       "Algebra",
		Status:        StatusPending,
	}
	require.NoError(t, f.repo.Create(context.Background(), b))

	_, err := f.svc.MarkCompleted(context.Background(), b.ID, "tutor-1", "tutor")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestStatusTransitionTable(t *testing.T) {
	tests := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusCompleted, false},
		{StatusConfirmed, StatusCompleted, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusConfirmed, StatusPending, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCompleted, StatusConfirmed, false},
		{StatusCancelled, StatusConfirmed, false},
		{StatusCancelled, StatusCompleted, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to),
			"%s -> %s", tt.from, tt.to)
	}
}
