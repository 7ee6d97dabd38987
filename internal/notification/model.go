package notification

import (
	"net/http"
	"time"

	"github.com/lumabee/tutor-booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound         = apperror.New(http.StatusNotFound, "notification not found")
	ErrPermissionDenied = apperror.New(http.StatusForbidden, "permission denied")
)

type Notification struct {
	ID        string
	UserID    string
	Title     string
	Message   string
	Link      string
	IsRead    bool
	CreatedAt time.Time
}

type Filter struct {
	UserID     string
	UnreadOnly bool
	Page       int
	PageSize   int
}
