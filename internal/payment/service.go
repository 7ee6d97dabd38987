package payment

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/lumabee/tutor-booking-backend/internal/booking"
)

// BookingReader fetches bookings without actor checks. Satisfied by
// booking.Repository.
type BookingReader interface {
	GetByID(ctx context.Context, id string) (*booking.Booking, error)
}

// BookingConfirmer is the single path into the confirmed booking state.
// Satisfied by booking.Service.
type BookingConfirmer interface {
	Confirm(ctx context.Context, id string) (bool, error)
}

// Notifier delivers a notification to a user. Satisfied by
// notification.Service.
type Notifier interface {
	Notify(ctx context.Context, userID, title, message, link string) error
}

type Service interface {
	// InitiateCheckout opens a provider checkout for a pending booking
	// owned by the actor. At most one checkout per booking may be in
	// flight at a time. It returns the stored session and the provider's
	// hosted payment page URL.
	InitiateCheckout(ctx context.Context, bookingID, actorID, actorEmail string) (*Session, string, error)

	// HandleEvent applies one normalized provider event exactly once.
	// Redelivered events and events for unknown sessions are acknowledged
	// without effect.
	HandleEvent(ctx context.Context, evt Event) error

	// VerifyCheckout pulls the session state from the provider and
	// reconciles it, covering the case where the webhook was lost.
	VerifyCheckout(ctx context.Context, providerSessionID, actorID string) (*Session, error)
}

type service struct {
	repo      Repository
	provider  Provider
	bookings  BookingReader
	confirmer BookingConfirmer
	notifier  Notifier
	logger    *zap.Logger
}

func NewService(
	repo Repository,
	provider Provider,
	bookings BookingReader,
	confirmer BookingConfirmer,
	notifier Notifier,
	logger *zap.Logger,
) Service {
	return &service{
		repo:      repo,
		provider:  provider,
		bookings:  bookings,
		confirmer: confirmer,
		notifier:  notifier,
		logger:    logger,
	}
}

func (s *service) InitiateCheckout(ctx context.Context, bookingID, actorID, actorEmail string) (*Session, string, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, "", err
	}
	if b.StudentID != actorID {
		return nil, "", ErrPermissionDenied
	}
	if b.Status != booking.StatusPending {
		return nil, "", ErrBookingNotPayable
	}

	active, err := s.repo.HasActiveSession(ctx, bookingID)
	if err != nil {
		return nil, "", err
	}
	if active {
		return nil, "", ErrCheckoutInFlight
	}

	cs, err := s.provider.CreateCheckoutSession(ctx, CheckoutParams{
		BookingID:     b.ID,
		AmountCents:   b.TotalAmountCents,
		Description:   fmt.Sprintf("%s session with %s", b.Subject, b.TutorName),
		CustomerEmail: actorEmail,
	})
	if err != nil {
		return nil, "", err
	}

	sess := &Session{
		BookingID:         b.ID,
		ProviderSessionID: cs.ID,
		PaymentStatus:     SessionPending,
	}
	if err := s.repo.CreateSession(ctx, sess); err != nil {
		// The provider session we just created has no local record,
		// whether a concurrent request won the race after our pre-check
		// or the insert itself failed. Log it so it can be reconciled by
		// hand; it will expire at the provider on its own.
		s.logger.Warn("orphaned provider checkout session",
			zap.String("booking_id", b.ID),
			zap.String("provider_session_id", cs.ID),
			zap.Error(err),
		)
		return nil, "", err
	}

	return sess, cs.URL, nil
}

func (s *service) HandleEvent(ctx context.Context, evt Event) error {
	payload := evt.Payload
	if len(payload) == 0 {
		payload = []byte("{}")
	}

	inserted, err := s.repo.RecordEvent(ctx, &EventRecord{
		ProviderEventID: evt.ID,
		EventType:       string(evt.Type),
		Payload:         payload,
	})
	if err != nil {
		return err
	}
	if !inserted {
		record, err := s.repo.GetEvent(ctx, evt.ID)
		if err != nil {
			return err
		}
		if record.Processed {
			s.logger.Info("skipping already processed provider event",
				zap.String("provider_event_id", evt.ID))
			return nil
		}
		// Recorded but not processed: an earlier delivery failed midway,
		// so fall through and apply it now.
	}

	switch evt.Type {
	case EventCheckoutCompleted:
		err = s.applyCheckoutCompleted(ctx, evt.SessionID, evt.AmountCents)
	case EventPaymentFailed:
		err = s.closeSession(ctx, evt.SessionID, SessionFailed)
	case EventCheckoutExpired:
		err = s.closeSession(ctx, evt.SessionID, SessionExpired)
	default:
		s.logger.Info("ignoring provider event",
			zap.String("provider_event_id", evt.ID),
			zap.String("event_type", string(evt.Type)),
		)
	}
	if err != nil {
		return err
	}

	return s.repo.MarkEventProcessed(ctx, evt.ID)
}

func (s *service) VerifyCheckout(ctx context.Context, providerSessionID, actorID string) (*Session, error) {
	sess, err := s.repo.GetSessionByProviderID(ctx, providerSessionID)
	if err != nil {
		return nil, err
	}

	b, err := s.bookings.GetByID(ctx, sess.BookingID)
	if err != nil {
		return nil, err
	}
	if b.StudentID != actorID {
		return nil, ErrPermissionDenied
	}

	if sess.PaymentStatus == SessionPending {
		cs, err := s.provider.RetrieveSession(ctx, providerSessionID)
		if err != nil {
			return nil, err
		}
		switch {
		case cs.Paid:
			if err := s.applyCheckoutCompleted(ctx, providerSessionID, cs.AmountTotalCents); err != nil {
				return nil, err
			}
		case cs.Expired:
			// The expiry webhook never arrived. Close the session here so
			// the booking is not stuck behind a dead checkout.
			if err := s.closeSession(ctx, providerSessionID, SessionExpired); err != nil {
				return nil, err
			}
		}
	}

	return s.repo.GetSessionByProviderID(ctx, providerSessionID)
}

// applyCheckoutCompleted marks the session paid and confirms the
// booking. It is safe to call more than once for the same session: the
// session update only touches pending rows and booking confirmation is
// idempotent.
func (s *service) applyCheckoutCompleted(ctx context.Context, providerSessionID string, amountCents int64) error {
	sess, err := s.repo.GetSessionByProviderID(ctx, providerSessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			s.logger.Warn("checkout completed for unknown session",
				zap.String("provider_session_id", providerSessionID))
			return nil
		}
		return err
	}

	if _, err := s.repo.MarkSessionTerminal(ctx, providerSessionID, SessionPaid, &amountCents); err != nil {
		return err
	}

	b, err := s.bookings.GetByID(ctx, sess.BookingID)
	if err != nil {
		return err
	}
	if amountCents != b.TotalAmountCents {
		s.logger.Warn("paid amount does not match booking total",
			zap.String("booking_id", b.ID),
			zap.Int64("paid_cents", amountCents),
			zap.Int64("total_cents", b.TotalAmountCents),
		)
	}

	confirmed, err := s.confirmer.Confirm(ctx, sess.BookingID)
	if err != nil {
		if errors.Is(err, booking.ErrInvalidTransition) {
			// Payment arrived for a booking that was cancelled or
			// completed in the meantime. Keep the payment record for
			// manual reconciliation.
			s.logger.Warn("payment received for non-confirmable booking",
				zap.String("booking_id", sess.BookingID),
				zap.String("booking_status", string(b.Status)),
			)
			return nil
		}
		return err
	}

	if confirmed {
		s.notify(ctx, b.StudentID, "Booking confirmed",
			fmt.Sprintf("Your %s session with %s is confirmed.", b.Subject, b.TutorName),
			"/bookings/"+b.ID)
	}
	return nil
}

func (s *service) closeSession(ctx context.Context, providerSessionID string, status SessionStatus) error {
	sess, err := s.repo.GetSessionByProviderID(ctx, providerSessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			s.logger.Warn("payment event for unknown session",
				zap.String("provider_session_id", providerSessionID))
			return nil
		}
		return err
	}

	changed, err := s.repo.MarkSessionTerminal(ctx, providerSessionID, status, nil)
	if err != nil {
		return err
	}
	if !changed || status != SessionFailed {
		return nil
	}

	b, err := s.bookings.GetByID(ctx, sess.BookingID)
	if err != nil {
		return err
	}
	s.notify(ctx, b.StudentID, "Payment failed",
		fmt.Sprintf("The payment for your %s session could not be completed.", b.Subject),
		"/bookings/"+b.ID)
	return nil
}

func (s *service) notify(ctx context.Context, userID, title, message, link string) {
	if err := s.notifier.Notify(ctx, userID, title, message, link); err != nil {
		s.logger.Warn("send payment notification failed",
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}
}
