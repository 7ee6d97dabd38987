package booking

import (
	"net/http"
	"time"

	"github.com/lumabee/tutor-booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound          = apperror.New(http.StatusNotFound, "booking not found")
	ErrInvalidDuration   = apperror.New(http.StatusBadRequest, "duration must be between 1 and 4 hours")
	ErrSubjectRequired   = apperror.New(http.StatusBadRequest, "subject is required")
	ErrStartTimePast     = apperror.New(http.StatusBadRequest, "session time must be in the future")
	ErrSlotUnavailable   = apperror.New(http.StatusBadRequest, "the requested time is not within the tutor's availability")
	ErrTimeConflict      = apperror.New(http.StatusConflict, "the tutor already has a booking at that time")
	ErrPermissionDenied  = apperror.New(http.StatusForbidden, "permission denied")
	ErrInvalidTransition = apperror.New(http.StatusConflict, "booking status does not allow this operation")
	ErrSessionNotElapsed = apperror.New(http.StatusConflict, "session has not finished yet")
	ErrRateUnavailable   = apperror.New(http.StatusUnprocessableEntity, "tutor has no hourly rate configured")
)

// Status is the booking lifecycle state. Allowed transitions:
// pending to confirmed or cancelled, confirmed to completed or
// cancelled. completed and cancelled are terminal.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// CanTransitionTo reports whether the lifecycle permits moving to next.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusConfirmed || next == StatusCancelled
	case StatusConfirmed:
		return next == StatusCompleted || next == StatusCancelled
	default:
		return false
	}
}

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

type Booking struct {
	ID               string
	StudentID        string
	TutorID          string
	SessionAt        time.Time
	DurationHours    int
	Subject          string
	Notes            string
	TotalAmountCents int64
	Status           Status
	CreatedAt        time.Time
	UpdatedAt        time.Time

	// Joined display names, populated on reads.
	StudentName string
	TutorName   string
}

// SessionEnd is the instant the session finishes.
func (b *Booking) SessionEnd() time.Time {
	return b.SessionAt.Add(time.Duration(b.DurationHours) * time.Hour)
}

type Filter struct {
	UserID   string // matches either side of the booking
	TutorID  string
	Status   Status
	Page     int
	PageSize int
}
