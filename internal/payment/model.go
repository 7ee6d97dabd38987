package payment

import (
	"net/http"
	"time"

	"github.com/lumabee/tutor-booking-backend/internal/pkg/apperror"
)

var (
	ErrSessionNotFound   = apperror.New(http.StatusNotFound, "payment session not found")
	ErrEventNotFound     = apperror.New(http.StatusNotFound, "provider event not found")
	ErrCheckoutInFlight  = apperror.New(http.StatusConflict, "a checkout for this booking is already in progress")
	ErrBookingNotPayable = apperror.New(http.StatusConflict, "booking is not awaiting payment")
	ErrPermissionDenied  = apperror.New(http.StatusForbidden, "permission denied")

	// ErrPaymentProvider marks failures talking to the payment provider.
	// They are transient from the client's point of view, so they map to
	// 502 rather than 500.
	ErrPaymentProvider = apperror.New(http.StatusBadGateway, "payment provider unavailable")
)

// SessionStatus tracks a checkout from creation to its terminal outcome.
// pending is the only non-terminal status.
type SessionStatus string

const (
	SessionPending SessionStatus = "pending"
	SessionPaid    SessionStatus = "paid"
	SessionFailed  SessionStatus = "failed"
	SessionExpired SessionStatus = "expired"
)

// Session is one checkout attempt at the payment provider for a booking.
type Session struct {
	ID                string
	BookingID         string
	ProviderSessionID string
	PaymentStatus     SessionStatus
	AmountPaidCents   *int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// EventRecord is the idempotency ledger entry for one provider event.
// The provider event ID is unique in the database, so a redelivered
// event can never be applied twice.
type EventRecord struct {
	ID              string
	ProviderEventID string
	EventType       string
	Payload         []byte
	Processed       bool
	ProcessedAt     *time.Time
	CreatedAt       time.Time
}

// EventType is the normalized provider event kind.
type EventType string

const (
	EventCheckoutCompleted EventType = "checkout_completed"
	EventPaymentFailed     EventType = "payment_failed"
	EventCheckoutExpired   EventType = "checkout_expired"
)

// Event is a provider webhook event normalized at the transport boundary.
type Event struct {
	ID          string
	Type        EventType
	SessionID   string
	AmountCents int64
	Payload     []byte
}
