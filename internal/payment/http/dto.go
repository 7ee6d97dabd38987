package http

import (
	"time"

	"github.com/lumabee/tutor-booking-backend/internal/payment"
)

// VerifyRequest defines query parameters for GET /v1/payments/verify.
type VerifyRequest struct {
	SessionID string `form:"session_id" binding:"required"`
}

// CheckoutResponse is returned when a checkout is opened.
type CheckoutResponse struct {
	Session     SessionResponse `json:"session"`
	CheckoutURL string          `json:"checkout_url"`
}

// SessionResponse is the shape of a payment session in API responses.
type SessionResponse struct {
	ID                string    `json:"id"`
	BookingID         string    `json:"booking_id"`
	ProviderSessionID string    `json:"provider_session_id"`
	PaymentStatus     string    `json:"payment_status"`
	AmountPaidCents   *int64    `json:"amount_paid_cents,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func NewSessionResponse(s *payment.Session) SessionResponse {
	return SessionResponse{
		ID:                s.ID,
		BookingID:         s.BookingID,
		ProviderSessionID: s.ProviderSessionID,
		PaymentStatus:     string(s.PaymentStatus),
		AmountPaidCents:   s.AmountPaidCents,
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         s.UpdatedAt,
	}
}
