package http

import (
	"time"

	"github.com/lumabee/tutor-booking-backend/internal/notification"
	"github.com/lumabee/tutor-booking-backend/internal/pkg/request"
)

// ListRequest defines query parameters for listing notifications.
type ListRequest struct {
	request.ListParams
	UnreadOnly bool `form:"unread_only"`
}

// NotificationResponse is the shape of a notification in API responses.
type NotificationResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Link      string    `json:"link,omitempty"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

func NewNotificationResponse(n *notification.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        n.ID,
		Title:     n.Title,
		Message:   n.Message,
		Link:      n.Link,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
}
