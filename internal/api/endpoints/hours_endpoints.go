package endpoints

import (
	"net/http"
	"time"

	"dealer-support-chat/internal/dto"
	"dealer-support-chat/internal/hours"
)

type HoursEndpoints interface {
	BusinessHours(http.ResponseWriter, *http.Request) error
}

type hoursEndpoints struct {
	calendar *hours.Calendar
	now      func() time.Time
}

func NewHoursEndpoints(calendar *hours.Calendar, now func() time.Time) HoursEndpoints {
	if now == nil {
		now = time.Now
	}
	return &hoursEndpoints{calendar: calendar, now: now}
}

func (h *hoursEndpoints) BusinessHours(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodGet: func(w http.ResponseWriter, r *http.Request) error {
			status := h.calendar.Status(h.now())
			return WriteJSON(w, http.StatusOK, dto.BusinessHoursResponse{
				IsBusinessHours: status.IsBusinessHours,
				CurrentTime:     status.CurrentTime.Format(time.RFC3339),
				Message:         status.Message,
			})
		},
	})
}
