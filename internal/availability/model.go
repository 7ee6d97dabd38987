package availability

import (
	"net/http"
	"time"

	"github.com/lumabee/tutor-booking-backend/internal/pkg/apperror"
)

var (
	ErrInvalidDay       = apperror.New(http.StatusBadRequest, "day of week must be between 0 (Sunday) and 6 (Saturday)")
	ErrOverlappingRules = apperror.New(http.StatusBadRequest, "availability intervals on the same day must not overlap")
	ErrTutorNotFound    = apperror.New(http.StatusNotFound, "tutor not found")
)

// Rule is one contiguous bookable interval on one weekday for one tutor.
// Times are minutes since midnight, half-open [StartMinute, EndMinute).
type Rule struct {
	ID          string
	TutorID     string
	DayOfWeek   int // 0=Sunday .. 6=Saturday
	StartMinute int
	EndMinute   int
	IsActive    bool
	CreatedAt   time.Time
}

// DefaultSlotLengthMinutes is the bookable slot granularity.
const DefaultSlotLengthMinutes = 60

// BookingWindowDays bounds how far ahead slots are resolved.
const BookingWindowDays = 30
