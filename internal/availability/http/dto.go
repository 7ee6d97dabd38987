package http

import (
	"net/http"
	"time"

	"github.com/lumabee/tutor-booking-backend/internal/availability"
	"github.com/lumabee/tutor-booking-backend/internal/pkg/apperror"
	"github.com/lumabee/tutor-booking-backend/internal/pkg/timeslot"
)

// IntervalPayload is one "HH:MM"-"HH:MM" interval in a weekly schedule.
type IntervalPayload struct {
	Start string `json:"start" binding:"required"`
	End   string `json:"end" binding:"required"`
}

// DayPayload is one weekday's interval list.
type DayPayload struct {
	Day       int               `json:"day" binding:"min=0,max=6"`
	Intervals []IntervalPayload `json:"intervals" binding:"required"`
}

// ReplaceScheduleRequest is the payload for PUT /v1/tutors/:id/availability.
type ReplaceScheduleRequest struct {
	Days []DayPayload `json:"days" binding:"required"`
}

// ToSchedule parses the request into a domain schedule.
func (r *ReplaceScheduleRequest) ToSchedule() (availability.WeeklySchedule, error) {
	schedule := make(availability.WeeklySchedule)
	for _, day := range r.Days {
		for _, p := range day.Intervals {
			start, err := timeslot.MinutesSinceMidnight(p.Start)
			if err != nil {
				return nil, apperror.Wrap(err, http.StatusBadRequest, err.Error())
			}
			end, err := timeslot.MinutesSinceMidnight(p.End)
			if err != nil {
				return nil, apperror.Wrap(err, http.StatusBadRequest, err.Error())
			}
			schedule[day.Day] = append(schedule[day.Day], timeslot.Interval{Start: start, End: end})
		}
	}
	return schedule, nil
}

// ScheduleResponse is the weekly schedule rendered with "HH:MM" times.
type ScheduleResponse struct {
	Days []DayPayload `json:"days"`
}

func NewScheduleResponse(schedule availability.WeeklySchedule) ScheduleResponse {
	resp := ScheduleResponse{Days: make([]DayPayload, 0, len(schedule))}
	for day := 0; day < 7; day++ {
		intervals, ok := schedule[day]
		if !ok {
			continue
		}
		payload := DayPayload{Day: day, Intervals: make([]IntervalPayload, len(intervals))}
		for i, iv := range intervals {
			payload.Intervals[i] = IntervalPayload{
				Start: timeslot.FormatMinutes(iv.Start),
				End:   timeslot.FormatMinutes(iv.End),
			}
		}
		resp.Days = append(resp.Days, payload)
	}
	return resp
}

// SlotsResponse lists the bookable start instants for one date.
type SlotsResponse struct {
	Date  string      `json:"date"`
	Slots []time.Time `json:"slots"`
}

// BookableDatesResponse lists the dates with any availability.
type BookableDatesResponse struct {
	Dates []string `json:"dates"`
}
