package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/okian/tariffa/internal/domain/calendar"
)

// HolidaysHandler lists the holidays of a year.
type HolidaysHandler struct {
	deps HolidayDependencies
	now  func() time.Time
}

// NewHolidaysHandler creates a new holidays handler.
func NewHolidaysHandler(deps HolidayDependencies) *HolidaysHandler {
	return &HolidaysHandler{deps: deps, now: time.Now}
}

type holidayResponse struct {
	Date string `json:"date"`
	Name string `json:"name"`
}

// HandleGetHolidays handles GET /v1/holidays?year=YYYY; the year defaults to the current one.
func (h *HolidaysHandler) HandleGetHolidays(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_holidays"
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", NewKind(op, ErrMethodInvalid))
		return
	}
	year := h.now().Year()
	if raw := r.URL.Query().Get("year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil || y < 1583 || y > 9999 {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		year = y
	}
	days, err := h.deps.Holidays(year)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, render(days))
}

func render(days []calendar.Holiday) []holidayResponse {
	out := make([]holidayResponse, 0, len(days))
	for _, d := range days {
		out = append(out, holidayResponse{Date: d.Date.Format("2006-01-02"), Name: d.Name})
	}
	return out
}
