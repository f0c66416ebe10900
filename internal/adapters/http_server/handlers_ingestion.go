package httpserver

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"hoteliq/internal/app"
	"hoteliq/internal/domain"
)

const maxUploadBytes = 32 << 20

type uploadResponse struct {
	Filename       string         `json:"filename"`
	UploadedAt     time.Time      `json:"uploaded_at"`
	PipelineResult *app.RunResult `json:"pipeline_result"`
}

type calculateResponse struct {
	HotelID           int64  `json:"hotel_id"`
	DateRange         string `json:"date_range"`
	MetricsCalculated int    `json:"metrics_calculated"`
	Message           string `json:"message"`
}

type recomputeResponse struct {
	Job     app.JobStatus `json:"job"`
	Message string        `json:"message"`
}

// uploadCSV accepts either a multipart form with a "file" part or the CSV as the raw body.
func (h *Handlers) uploadCSV(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	var (
		src  io.Reader
		name = r.URL.Query().Get("filename")
	)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		f, hdr, err := r.FormFile("file")
		if err != nil {
			writeError(w, r, fmt.Errorf("missing file part: %w", domain.ErrInvalidInput))
			return
		}
		defer f.Close()
		name, src = hdr.Filename, f
	} else {
		src = r.Body
	}
	if name == "" {
		name = "upload.csv"
	}
	if !strings.EqualFold(filepath.Ext(name), ".csv") {
		writeError(w, r, fmt.Errorf("only CSV files are accepted: %w", domain.ErrInvalidInput))
		return
	}

	res, err := h.P.Run(r.Context(), app.Source{Kind: app.SourceCSV, Reader: src})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, uploadResponse{Filename: name, UploadedAt: h.today().UTC(), PipelineResult: res})
}

func (h *Handlers) processExisting(w http.ResponseWriter, r *http.Request) {
	hotelID, err := queryID(r, "hotel_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	start, err := queryDay(r, "start_date")
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.P.Run(r.Context(), app.Source{
		Kind:        app.SourceDatabase,
		StoreFilter: app.StoreFilter{HotelID: hotelID, StartDate: start},
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handlers) calculateMetrics(w http.ResponseWriter, r *http.Request) {
	hotelID, err := queryID(r, "hotel_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	start, err := queryDay(r, "start_date")
	if err != nil {
		writeError(w, r, err)
		return
	}
	end, err := queryDay(r, "end_date")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if hotelID == nil || start == nil || end == nil {
		writeError(w, r, fmt.Errorf("hotel_id, start_date and end_date are required: %w", domain.ErrInvalidInput))
		return
	}
	out, err := h.Calc.ComputeRange(r.Context(), *hotelID, *start, *end)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, calculateResponse{
		HotelID:           *hotelID,
		DateRange:         start.Format(domain.DateLayout) + " to " + end.Format(domain.DateLayout),
		MetricsCalculated: len(out),
		Message:           "Daily metrics calculated successfully",
	})
}

func (h *Handlers) triggerRecompute(w http.ResponseWriter, r *http.Request) {
	st, created := h.Jobs.Trigger()
	msg := "Metrics recalculation started in background"
	if !created {
		msg = "Metrics recalculation already in progress"
	}
	writeJSON(w, http.StatusAccepted, recomputeResponse{Job: st, Message: msg})
}

func (h *Handlers) recomputeStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Jobs.Status())
}

func (h *Handlers) cancelRecompute(w http.ResponseWriter, r *http.Request) {
	st, ok := h.Jobs.Cancel()
	if !ok {
		writeProblem(w, http.StatusConflict, "Conflict", "no recalculation is queued or running")
		return
	}
	writeJSON(w, http.StatusOK, recomputeResponse{Job: st, Message: "Metrics recalculation cancel requested"})
}

func (h *Handlers) dataQuality(w http.ResponseWriter, r *http.Request) {
	rep, err := h.P.Check(r.Context(), app.StoreFilter{})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (h *Handlers) featureSummary(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", app.DefaultBatchSize, 1, 10000)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out, err := h.P.Preview(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
