package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lumabee/tutor-booking-backend/internal/pkg/apperror"
)

// ErrorResponse is the JSON body for every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Error writes the error as JSON. AppError values carry their own
// status code; anything else becomes a 500 with a generic message and
// is attached to the context for the logging middleware.
func Error(c *gin.Context, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.Code, ErrorResponse{Error: appErr.Message})
		return
	}

	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}
