package booking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lumabee/tutor-booking-backend/internal/availability"
	"github.com/lumabee/tutor-booking-backend/internal/user"
)

// RateProvider supplies the tutor's hourly rate in cents.
// Satisfied by user.Service.
type RateProvider interface {
	TutorHourlyRate(ctx context.Context, tutorID string) (int64, error)
}

// SlotResolver resolves a tutor's bookable start instants for a date.
// Satisfied by availability.Service.
type SlotResolver interface {
	SlotsForDate(ctx context.Context, tutorID string, date time.Time, slotLen int) ([]time.Time, error)
}

// Notifier delivers a notification to a user. Satisfied by
// notification.Service.
type Notifier interface {
	Notify(ctx context.Context, userID, title, message, link string) error
}

const (
	MinDurationHours = 1
	MaxDurationHours = 4
)

type CreateRequest struct {
	TutorID       string
	SessionAt     time.Time
	DurationHours int
	Subject       string
	Notes         string
}

type Service interface {
	// Create books a pending session for the student. The start time must
	// be one of the tutor's resolved slots and the whole session must fit
	// inside the tutor's availability. The total amount is computed from
	// the tutor's hourly rate at creation time and never changes after.
	Create(ctx context.Context, studentID string, req CreateRequest) (*Booking, error)

	// GetByID returns the booking if the actor is a participant or admin.
	GetByID(ctx context.Context, id, actorID, actorRole string) (*Booking, error)

	List(ctx context.Context, filter Filter) ([]*Booking, int, error)

	// Cancel moves a pending or confirmed booking to cancelled. Either
	// participant or an admin may cancel.
	Cancel(ctx context.Context, id, actorID, actorRole string) (*Booking, error)

	// Confirm moves a pending booking to confirmed. It is the only path
	// into the confirmed state and is idempotent: confirming an already
	// confirmed booking reports false with no error.
	Confirm(ctx context.Context, id string) (bool, error)

	// MarkCompleted moves a confirmed booking to completed once the
	// session end has passed. Only the tutor or an admin may call it.
	MarkCompleted(ctx context.Context, id, actorID, actorRole string) (*Booking, error)
}

type service struct {
	repo     Repository
	rates    RateProvider
	slots    SlotResolver
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(
	repo Repository,
	rates RateProvider,
	slots SlotResolver,
	notifier Notifier,
	logger *zap.Logger,
) Service {
	return &service{
		repo:     repo,
		rates:    rates,
		slots:    slots,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *service) Create(ctx context.Context, studentID string, req CreateRequest) (*Booking, error) {
	if req.DurationHours < MinDurationHours || req.DurationHours > MaxDurationHours {
		return nil, ErrInvalidDuration
	}

	subject := strings.TrimSpace(req.Subject)
	if subject == "" {
		return nil, ErrSubjectRequired
	}

	sessionAt := req.SessionAt.UTC()
	if !sessionAt.After(s.now().UTC()) {
		return nil, ErrStartTimePast
	}

	rate, err := s.rates.TutorHourlyRate(ctx, req.TutorID)
	if err != nil {
		return nil, err
	}
	if rate <= 0 {
		return nil, ErrRateUnavailable
	}

	if err := s.checkWithinAvailability(ctx, req.TutorID, sessionAt, req.DurationHours); err != nil {
		return nil, err
	}

	b := &Booking{
		StudentID:        studentID,
		TutorID:          req.TutorID,
		SessionAt:        sessionAt,
		DurationHours:    req.DurationHours,
		Subject:          subject,
		Notes:            strings.TrimSpace(req.Notes),
		TotalAmountCents: rate * int64(req.DurationHours),
		Status:           StatusPending,
	}

	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}

	s.notify(ctx, b.TutorID, "New booking request",
		fmt.Sprintf("You have a new %s session request on %s.", b.Subject, b.SessionAt.Format(time.RFC1123)),
		"/bookings/"+b.ID)

	return b, nil
}

// checkWithinAvailability verifies that every hour of the session starts
// on a slot the resolver would offer, so a multi-hour booking cannot
// spill past the end of a tutor's availability interval.
func (s *service) checkWithinAvailability(ctx context.Context, tutorID string, sessionAt time.Time, hours int) error {
	slots, err := s.slots.SlotsForDate(ctx, tutorID, sessionAt, availability.DefaultSlotLengthMinutes)
	if err != nil {
		return err
	}

	for h := 0; h < hours; h++ {
		target := sessionAt.Add(time.Duration(h) * time.Hour)
		if !containsInstant(slots, target) {
			return ErrSlotUnavailable
		}
	}
	return nil
}

func containsInstant(slots []time.Time, t time.Time) bool {
	for _, slot := range slots {
		if slot.Equal(t) {
			return true
		}
	}
	return false
}

func (s *service) GetByID(ctx context.Context, id, actorID, actorRole string) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canAccess(b, actorID, actorRole) {
		return nil, ErrPermissionDenied
	}
	return b, nil
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Booking, int, error) {
	return s.repo.List(ctx, filter)
}

func (s *service) Cancel(ctx context.Context, id, actorID, actorRole string) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canAccess(b, actorID, actorRole) {
		return nil, ErrPermissionDenied
	}
	if !b.Status.CanTransitionTo(StatusCancelled) {
		return nil, ErrInvalidTransition
	}

	changed, err := s.repo.UpdateStatus(ctx, id, []Status{StatusPending, StatusConfirmed}, StatusCancelled)
	if err != nil {
		return nil, err
	}
	if !changed {
		// Lost a race with another transition.
		return nil, ErrInvalidTransition
	}
	b.Status = StatusCancelled

	counterpart := b.TutorID
	if actorID == b.TutorID {
		counterpart = b.StudentID
	}
	s.notify(ctx, counterpart, "Booking cancelled",
		fmt.Sprintf("The %s session on %s was cancelled.", b.Subject, b.SessionAt.Format(time.RFC1123)),
		"/bookings/"+b.ID)

	return b, nil
}

func (s *service) Confirm(ctx context.Context, id string) (bool, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return false, err
	}

	switch b.Status {
	case StatusConfirmed:
		return false, nil
	case StatusPending:
		return s.repo.UpdateStatus(ctx, id, []Status{StatusPending}, StatusConfirmed)
	default:
		return false, ErrInvalidTransition
	}
}

func (s *service) MarkCompleted(ctx context.Context, id, actorID, actorRole string) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actorID != b.TutorID && actorRole != string(user.RoleAdmin) {
		return nil, ErrPermissionDenied
	}
	if !b.Status.CanTransitionTo(StatusCompleted) {
		return nil, ErrInvalidTransition
	}
	if s.now().UTC().Before(b.SessionEnd()) {
		return nil, ErrSessionNotElapsed
	}

	changed, err := s.repo.UpdateStatus(ctx, id, []Status{StatusConfirmed}, StatusCompleted)
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, ErrInvalidTransition
	}
	b.Status = StatusCompleted

	s.notify(ctx, b.StudentID, "Session completed",
		fmt.Sprintf("Your %s session with %s is marked as completed.", b.Subject, b.TutorName),
		"/bookings/"+b.ID)

	return b, nil
}

func canAccess(b *Booking, actorID, actorRole string) bool {
	return actorID == b.StudentID || actorID == b.TutorID || actorRole == string(user.RoleAdmin)
}

func (s *service) notify(ctx context.Context, userID, title, message, link string) {
	if err := s.notifier.Notify(ctx, userID, title, message, link); err != nil {
		s.logger.Warn("send booking notification failed",
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}
}
