package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/lumabee/tutor-booking-backend/internal/booking"
	"github.com/lumabee/tutor-booking-backend/internal/pkg/apperror"
)

// fakeRepository keeps sessions and events in memory.
type fakeRepository struct {
	sessions map[string]*Session // keyed by provider session ID
	events   map[string]*EventRecord
	nextID   int
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		sessions: make(map[string]*Session),
		events:   make(map[string]*EventRecord),
	}
}

func (f *fakeRepository) CreateSession(_ context.Context, s *Session) error {
	for _, existing := range f.sessions {
		if existing.BookingID == s.BookingID && existing.PaymentStatus == SessionPending {
			return ErrCheckoutInFlight
		}
	}
	f.nextID++
	s.ID = fmt.Sprintf("ps-%d", f.nextID)
	s.CreatedAt = time.Now()
	s.UpdatedAt = s.CreatedAt
	copied := *s
	f.sessions[s.ProviderSessionID] = &copied
	return nil
}

func (f *fakeRepository) GetSessionByProviderID(_ context.Context, providerSessionID string) (*Session, error) {
	s, ok := f.sessions[providerSessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	copied := *s
	return &copied, nil
}

func (f *fakeRepository) HasActiveSession(_ context.Context, bookingID string) (bool, error) {
	for _, s := range f.sessions {
		if s.BookingID == bookingID && s.PaymentStatus == SessionPending {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepository) MarkSessionTerminal(_ context.Context, providerSessionID string, status SessionStatus, amountPaidCents *int64) (bool, error) {
	s, ok := f.sessions[providerSessionID]
	if !ok || s.PaymentStatus != SessionPending {
		return false, nil
	}
	s.PaymentStatus = status
	s.AmountPaidCents = amountPaidCents
	s.UpdatedAt = time.Now()
	return true, nil
}

func (f *fakeRepository) RecordEvent(_ context.Context, e *EventRecord) (bool, error) {
	if _, ok := f.events[e.ProviderEventID]; ok {
		return false, nil
	}
	e.CreatedAt = time.Now()
	copied := *e
	f.events[e.ProviderEventID] = &copied
	return true, nil
}

func (f *fakeRepository) GetEvent(_ context.Context, providerEventID string) (*EventRecord, error) {
	e, ok := f.events[providerEventID]
	if !ok {
		return nil, ErrEventNotFound
	}
	copied := *e
	return &copied, nil
}

func (f *fakeRepository) MarkEventProcessed(_ context.Context, providerEventID string) error {
	if e, ok := f.events[providerEventID]; ok {
		now := time.Now()
		e.Processed = true
		e.ProcessedAt = &now
	}
	return nil
}

type fakeProvider struct {
	created  int
	sessions map[string]*CheckoutSession
}

func (f *fakeProvider) CreateCheckoutSession(_ context.Context, params CheckoutParams) (*CheckoutSession, error) {
	f.created++
	cs := &CheckoutSession{
		ID:        fmt.Sprintf("cs_%d", f.created),
		URL:       "https://pay.example.com/cs",
		BookingID: params.BookingID,
	}
	f.sessions[cs.ID] = cs
	return cs, nil
}

func (f *fakeProvider) RetrieveSession(_ context.Context, providerSessionID string) (*CheckoutSession, error) {
	cs, ok := f.sessions[providerSessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return cs, nil
}

// fakeBookings implements BookingReader and BookingConfirmer with the
// real lifecycle rules.
type fakeBookings struct {
	bookings map[string]*booking.Booking
	confirms int
}

func (f *fakeBookings) GetByID(_ context.Context, id string) (*booking.Booking, error) {
	b, ok := f.bookings[id]
	if !ok {
		return nil, booking.ErrNotFound
	}
	copied := *b
	return &copied, nil
}

func (f *fakeBookings) Confirm(_ context.Context, id string) (bool, error) {
	b, ok := f.bookings[id]
	if !ok {
		return false, booking.ErrNotFound
	}
	switch b.Status {
	case booking.StatusConfirmed:
		return false, nil
	case booking.StatusPending:
		b.Status = booking.StatusConfirmed
		f.confirms++
		return true, nil
	default:
		return false, booking.ErrInvalidTransition
	}
}

type fakeNotifier struct {
	sent []string
}

func (f *fakeNotifier) Notify(_ context.Context, userID, _, _, _ string) error {
	f.sent = append(f.sent, userID)
	return nil
}

type fixture struct {
	repo     *fakeRepository
	provider *fakeProvider
	bookings *fakeBookings
	notifier *fakeNotifier
	svc      Service
}

func newFixture() *fixture {
	f := &fixture{
		repo:     newFakeRepository(),
		provider: &fakeProvider{sessions: make(map[string]*CheckoutSession)},
		bookings: &fakeBookings{bookings: make(map[string]*booking.Booking)},
		notifier: &fakeNotifier{},
	}
	f.bookings.bookings["bk-1"] = &booking.Booking{
		ID:               "bk-1",
		StudentID:        "student-1",
		TutorID:          "tutor-1",
		Subject:          "Algebra",
		TutorName:        "Ada Lovelace",
		TotalAmountCents: 5000,
		Status:           booking.StatusPending,
	}
	f.svc = NewService(f.repo, f.provider, f.bookings, f.bookings, f.notifier, zap.NewNop())
	return f
}

func (f *fixture) checkout(t *testing.T) *Session {
	t.Helper()
	sess, url, err := f.svc.InitiateCheckout(context.Background(), "bk-1", "student-1", "student@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, url)
	return sess
}

func completedEvent(id, sessionID string, amount int64) Event {
	return Event{ID: id, Type: EventCheckoutCompleted, SessionID: sessionID, AmountCents: amount}
}

func TestInitiateCheckout(t *testing.T) {
	f := newFixture()

	sess := f.checkout(t)
	assert.Equal(t, "bk-1", sess.BookingID)
	assert.Equal(t, SessionPending, sess.PaymentStatus)
	assert.Equal(t, 1, f.provider.created)
}

func TestInitiateCheckoutRequiresOwner(t *testing.T) {
	f := newFixture()

	_, _, err := f.svc.InitiateCheckout(context.Background(), "bk-1", "student-2", "other@example.com")
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestInitiateCheckoutRequiresPendingBooking(t *testing.T) {
	f := newFixture()
	f.bookings.bookings["bk-1"].Status = booking.StatusCancelled

	_, _, err := f.svc.InitiateCheckout(context.Background(), "bk-1", "student-1", "student@example.com")
	assert.ErrorIs(t, err, ErrBookingNotPayable)
}

func TestInitiateCheckoutSingleFlight(t *testing.T) {
	f := newFixture()

	f.checkout(t)

	_, _, err := f.svc.InitiateCheckout(context.Background(), "bk-1", "student-1", "student@example.com")
	assert.ErrorIs(t, err, ErrCheckoutInFlight)
	assert.Equal(t, 1, f.provider.created)
}

// failingSessionRepo makes CreateSession fail after the provider
// session already exists.
type failingSessionRepo struct {
	*fakeRepository
	createErr error
}

func (f *failingSessionRepo) CreateSession(ctx context.Context, s *Session) error {
	if f.createErr != nil {
		return f.createErr
	}
	return f.fakeRepository.CreateSession(ctx, s)
}

func TestInitiateCheckoutLogsOrphanedProviderSession(t *testing.T) {
	f := newFixture()
	repo := &failingSessionRepo{fakeRepository: f.repo, createErr: errors.New("connection reset")}
	core, logs := observer.New(zap.WarnLevel)
	svc := NewService(repo, f.provider, f.bookings, f.bookings, f.notifier, zap.New(core))

	_, _, err := svc.InitiateCheckout(context.Background(), "bk-1", "student-1", "student@example.com")
	require.Error(t, err)

	entries := logs.FilterMessage("orphaned provider checkout session").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "cs_1", entries[0].ContextMap()["provider_session_id"])
}

type failingProvider struct{}

func (failingProvider) CreateCheckoutSession(context.Context, CheckoutParams) (*CheckoutSession, error) {
	return nil, fmt.Errorf("%w: create checkout session: %w", ErrPaymentProvider, errors.New("api timeout"))
}

func (failingProvider) RetrieveSession(context.Context, string) (*CheckoutSession, error) {
	return nil, fmt.Errorf("%w: retrieve checkout session: %w", ErrPaymentProvider, errors.New("api timeout"))
}

func TestProviderFailureSurfacesAsBadGateway(t *testing.T) {
	f := newFixture()
	svc := NewService(f.repo, failingProvider{}, f.bookings, f.bookings, f.notifier, zap.NewNop())

	_, _, err := svc.InitiateCheckout(context.Background(), "bk-1", "student-1", "student@example.com")
	require.ErrorIs(t, err, ErrPaymentProvider)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusBadGateway, appErr.Code)
}

func TestCheckoutCompletedConfirmsBooking(t *testing.T) {
	f := newFixture()
	sess := f.checkout(t)

	err := f.svc.HandleEvent(context.Background(), completedEvent("evt-1", sess.ProviderSessionID, 5000))
	require.NoError(t, err)

	assert.Equal(t, booking.StatusConfirmed, f.bookings.bookings["bk-1"].Status)

	stored, err := f.repo.GetSessionByProviderID(context.Background(), sess.ProviderSessionID)
	require.NoError(t, err)
	assert.Equal(t, SessionPaid, stored.PaymentStatus)
	require.NotNil(t, stored.AmountPaidCents)
	assert.Equal(t, int64(5000), *stored.AmountPaidCents)

	assert.Equal(t, []string{"student-1"}, f.notifier.sent)
}

func TestDuplicateEventAppliedOnce(t *testing.T) {
	f := newFixture()
	sess := f.checkout(t)

	evt := completedEvent("evt-1", sess.ProviderSessionID, 5000)
	require.NoError(t, f.svc.HandleEvent(context.Background(), evt))
	require.NoError(t, f.svc.HandleEvent(context.Background(), evt))
	require.NoError(t, f.svc.HandleEvent(context.Background(), evt))

	assert.Equal(t, 1, f.bookings.confirms)
	assert.Equal(t, []string{"student-1"}, f.notifier.sent)
}

func TestDistinctEventsForSameSessionConfirmOnce(t *testing.T) {
	f := newFixture()
	sess := f.checkout(t)

	require.NoError(t, f.svc.HandleEvent(context.Background(), completedEvent("evt-1", sess.ProviderSessionID, 5000)))
	require.NoError(t, f.svc.HandleEvent(context.Background(), completedEvent("evt-2", sess.ProviderSessionID, 5000)))

	assert.Equal(t, 1, f.bookings.confirms)
}

func TestEventForUnknownSessionIsAcknowledged(t *testing.T) {
	f := newFixture()

	err := f.svc.HandleEvent(context.Background(), completedEvent("evt-1", "cs_unknown", 5000))
	assert.NoError(t, err)
}

func TestPaymentForCancelledBookingIsKept(t *testing.T) {
	f := newFixture()
	sess := f.checkout(t)

	f.bookings.bookings["bk-1"].Status = booking.StatusCancelled

	err := f.svc.HandleEvent(context.Background(), completedEvent("evt-1", sess.ProviderSessionID, 5000))
	require.NoError(t, err)

	// The payment record stays for manual reconciliation; the booking
	// does not come back to life.
	stored, err := f.repo.GetSessionByProviderID(context.Background(), sess.ProviderSessionID)
	require.NoError(t, err)
	assert.Equal(t, SessionPaid, stored.PaymentStatus)
	assert.Equal(t, booking.StatusCancelled, f.bookings.bookings["bk-1"].Status)
	assert.Empty(t, f.notifier.sent)
}

func TestPaymentFailedClosesSession(t *testing.T) {
	f := newFixture()
	sess := f.checkout(t)

	err := f.svc.HandleEvent(context.Background(), Event{
		ID: "evt-1", Type: EventPaymentFailed, SessionID: sess.ProviderSessionID,
	})
	require.NoError(t, err)

	stored, err := f.repo.GetSessionByProviderID(context.Background(), sess.ProviderSessionID)
	require.NoError(t, err)
	assert.Equal(t, SessionFailed, stored.PaymentStatus)
	assert.Equal(t, booking.StatusPending, f.bookings.bookings["bk-1"].Status)
	assert.Equal(t, []string{"student-1"}, f.notifier.sent)
}

func TestFailedCheckoutAllowsRetry(t *testing.T) {
	f := newFixture()
	sess := f.checkout(t)

	require.NoError(t, f.svc.HandleEvent(context.Background(), Event{
		ID: "evt-1", Type: EventCheckoutExpired, SessionID: sess.ProviderSessionID,
	}))

	_, _, err := f.svc.InitiateCheckout(context.Background(), "bk-1", "student-1", "student@example.com")
	assert.NoError(t, err)
	assert.Equal(t, 2, f.provider.created)
}

func TestUnknownEventTypeIsIgnored(t *testing.T) {
	f := newFixture()
	sess := f.checkout(t)

	err := f.svc.HandleEvent(context.Background(), Event{
		ID: "evt-1", Type: "invoice_created", SessionID: sess.ProviderSessionID,
	})
	require.NoError(t, err)

	stored, err := f.repo.GetSessionByProviderID(context.Background(), sess.ProviderSessionID)
	require.NoError(t, err)
	assert.Equal(t, SessionPending, stored.PaymentStatus)
}

func TestVerifyCheckoutPullsMissedPayment(t *testing.T) {
	f := newFixture()
	sess := f.checkout(t)

	// The provider marks the session paid but the webhook never arrives.
	f.provider.sessions[sess.ProviderSessionID].Paid = true
	f.provider.sessions[sess.ProviderSessionID].AmountTotalCents = 5000

	verified, err := f.svc.VerifyCheckout(context.Background(), sess.ProviderSessionID, "student-1")
	require.NoError(t, err)

	assert.Equal(t, SessionPaid, verified.PaymentStatus)
	assert.Equal(t, booking.StatusConfirmed, f.bookings.bookings["bk-1"].Status)
}

func TestVerifyCheckoutRequiresOwner(t *testing.T) {
	f := newFixture()
	sess := f.checkout(t)

	_, err := f.svc.VerifyCheckout(context.Background(), sess.ProviderSessionID, "student-2")
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestVerifyCheckoutClosesExpiredSession(t *testing.T) {
	f := newFixture()
	sess := f.checkout(t)

	// The provider let the session expire but the webhook never arrived.
	f.provider.sessions[sess.ProviderSessionID].Expired = true

	verified, err := f.svc.VerifyCheckout(context.Background(), sess.ProviderSessionID, "student-1")
	require.NoError(t, err)
	assert.Equal(t, SessionExpired, verified.PaymentStatus)

	// The dead session no longer blocks a fresh checkout.
	_, _, err = f.svc.InitiateCheckout(context.Background(), "bk-1", "student-1", "student@example.com")
	assert.NoError(t, err)
	assert.Equal(t, 2, f.provider.created)
}

func TestVerifyCheckoutLeavesUnpaidPending(t *testing.T) {
	f := newFixture()
	sess := f.checkout(t)

	verified, err := f.svc.VerifyCheckout(context.Background(), sess.ProviderSessionID, "student-1")
	require.NoError(t, err)
	assert.Equal(t, SessionPending, verified.PaymentStatus)
}
