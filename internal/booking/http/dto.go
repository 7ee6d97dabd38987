package http

import (
	"time"

	"github.com/lumabee/tutor-booking-backend/internal/booking"
	"github.com/lumabee/tutor-booking-backend/internal/pkg/request"
)

// CreateBookingRequest is the payload for POST /v1/bookings.
type CreateBookingRequest struct {
	TutorID       string    `json:"tutor_id" binding:"required,uuid"`
	SessionAt     time.Time `json:"session_at" binding:"required"`
	DurationHours int       `json:"duration_hours" binding:"required"`
	Subject       string    `json:"subject" binding:"required"`
	Notes         string    `json:"notes"`
}

// ListBookingsRequest defines query parameters for listing bookings.
type ListBookingsRequest struct {
	request.ListParams
	Status string `form:"status" binding:"omitempty,oneof=pending confirmed completed cancelled"`
}

// BookingResponse is the shape of booking data returned in API responses.
type BookingResponse struct {
	ID               string    `json:"id"`
	StudentID        string    `json:"student_id"`
	StudentName      string    `json:"student_name"`
	TutorID          string    `json:"tutor_id"`
	TutorName        string    `json:"tutor_name"`
	SessionAt        time.Time `json:"session_at"`
	SessionEnd       time.Time `json:"session_end"`
	DurationHours    int       `json:"duration_hours"`
	Subject          string    `json:"subject"`
	Notes            string    `json:"notes,omitempty"`
	TotalAmountCents int64     `json:"total_amount_cents"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func NewBookingResponse(b *booking.Booking) BookingResponse {
	return BookingResponse{
		ID:               b.ID,
		StudentID:        b.StudentID,
		StudentName:      b.StudentName,
		TutorID:          b.TutorID,
		TutorName:        b.TutorName,
		SessionAt:        b.SessionAt,
		SessionEnd:       b.SessionEnd(),
		DurationHours:    b.DurationHours,
		Subject:          b.Subject,
		Notes:            b.Notes,
		TotalAmountCents: b.TotalAmountCents,
		Status:           string(b.Status),
		CreatedAt:        b.CreatedAt,
		UpdatedAt:        b.UpdatedAt,
	}
}
