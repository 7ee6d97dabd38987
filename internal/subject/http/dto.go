package http

import (
	"time"

	"github.com/lumabee/tutor-booking-backend/internal/pkg/request"
	"github.com/lumabee/tutor-booking-backend/internal/subject"
)

// ListSubjectsRequest defines query parameters for listing subjects.
type ListSubjectsRequest struct {
	request.ListParams
	Keyword string `form:"keyword"`
}

type CreateSubjectRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type SubjectResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

func NewSubjectResponse(s *subject.Subject) SubjectResponse {
	return SubjectResponse{
		ID:          s.ID,
		Name:        s.Name,
		Description: s.Description,
		CreatedAt:   s.CreatedAt,
	}
}
