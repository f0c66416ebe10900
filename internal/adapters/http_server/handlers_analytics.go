package httpserver

import (
	"fmt"
	"net/http"
	"time"

	"hoteliq/internal/app"
	"hoteliq/internal/domain"
)

const defaultLookbackDays = 30

// period reads start_date/end_date. End defaults to today and start to 30 days before end.
func (h *Handlers) period(r *http.Request) (time.Time, time.Time, error) {
	from, err := queryDay(r, "start_date")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := queryDay(r, "end_date")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end := domain.Day(h.today())
	if to != nil {
		end = *to
	}
	start := end.AddDate(0, 0, -defaultLookbackDays)
	if from != nil {
		start = *from
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("end_date before start_date: %w", domain.ErrInvalidInput)
	}
	return start, end, nil
}

func (h *Handlers) revenue(w http.ResponseWriter, r *http.Request) {
	hotelID, err := queryID(r, "hotel_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	start, end, err := h.period(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rep, err := h.A.Revenue(r.Context(), app.RevenueQuery{HotelID: hotelID, Start: &start, End: &end})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (h *Handlers) daily(w http.ResponseWriter, r *http.Request) {
	hotelID, err := pathID(r, "hotel_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	day, err := queryDay(r, "target_date")
	if err != nil {
		writeError(w, r, err)
		return
	}
	target := domain.Day(h.today())
	if day != nil {
		target = *day
	}
	stats, err := h.A.Daily(r.Context(), hotelID, target)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handlers) summary(w http.ResponseWriter, r *http.Request) {
	s, err := h.A.Summary(r.Context(), h.today())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *Handlers) dailyMetrics(w http.ResponseWriter, r *http.Request) {
	hotelID, err := pathID(r, "hotel_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	start, end, err := h.period(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out, err := h.Q.DailyMetrics(r.Context(), hotelID, start, end)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
