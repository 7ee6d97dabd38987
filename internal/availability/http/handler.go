package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lumabee/tutor-booking-backend/internal/auth"
	"github.com/lumabee/tutor-booking-backend/internal/availability"
	"github.com/lumabee/tutor-booking-backend/internal/pkg/request"
	"github.com/lumabee/tutor-booking-backend/internal/pkg/response"
)

const dateLayout = "2006-01-02"

type Handler struct {
	service availability.Service
}

func NewHandler(service availability.Service) *Handler {
	return &Handler{service: service}
}

// GetSchedule returns a tutor's weekly recurring schedule.
func (h *Handler) GetSchedule(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	schedule, err := h.service.WeeklySchedule(c.Request.Context(), req.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewScheduleResponse(schedule))
}

// ReplaceSchedule saves a tutor's weekly schedule wholesale.
// Only the tutor may replace their own schedule.
func (h *Handler) ReplaceSchedule(c *gin.Context) {
	var uriReq request.ByIDRequest
	if err := c.ShouldBindUri(&uriReq); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	if auth.GetUserID(c) != uriReq.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "permission denied"})
		return
	}

	var req ReplaceScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	schedule, err := req.ToSchedule()
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.service.Replace(c.Request.Context(), uriReq.ID, schedule); err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewScheduleResponse(schedule))
}

// Slots resolves the bookable start times for a tutor on one date.
func (h *Handler) Slots(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	dateStr := c.Query("date")
	date, err := time.Parse(dateLayout, dateStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be in YYYY-MM-DD format"})
		return
	}

	slots, err := h.service.SlotsForDate(c.Request.Context(), req.ID, date, availability.DefaultSlotLengthMinutes)
	if err != nil {
		response.Error(c, err)
		return
	}
	if slots == nil {
		slots = []time.Time{}
	}

	c.JSON(http.StatusOK, SlotsResponse{Date: dateStr, Slots: slots})
}

// BookableDates lists the dates in the booking window on which the tutor works.
func (h *Handler) BookableDates(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	now := time.Now().UTC()
	from := now
	to := now.AddDate(0, 0, availability.BookingWindowDays)

	if v := c.Query("from"); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from must be in YYYY-MM-DD format"})
			return
		}
		from = t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "to must be in YYYY-MM-DD format"})
			return
		}
		to = t
	}

	dates, err := h.service.BookableDates(c.Request.Context(), req.ID, from, to)
	if err != nil {
		response.Error(c, err)
		return
	}

	resp := BookableDatesResponse{Dates: make([]string, len(dates))}
	for i, d := range dates {
		resp.Dates[i] = d.Format(dateLayout)
	}

	c.JSON(http.StatusOK, resp)
}
