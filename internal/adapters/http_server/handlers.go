// internal/adapters/http_server/handlers.go
package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"hoteliq/internal/app"
)

type Handlers struct {
	Q     *app.QueryService
	C     *app.CommandService
	A     *app.AnalyticsService
	P     *app.Pipeline
	Calc  *app.MetricsCalculator
	Jobs  *app.Recomputer
	Clock func() time.Time
}

func (h *Handlers) today() time.Time {
	if h.Clock != nil {
		return h.Clock()
	}
	return time.Now()
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Route("/v1", func(r chi.Router) {
		r.Route("/hotels", func(r chi.Router) {
			r.Get("/", h.listHotels)
			r.Post("/", h.createHotel)
			r.Get("/{id}", h.getHotel)
			r.Delete("/{id}", h.deleteHotel)
		})
		r.Route("/rooms", func(r chi.Router) {
			r.Get("/", h.listRooms)
			r.Post("/", h.createRoom)
			r.Get("/{id}", h.getRoom)
		})
		r.Route("/bookings", func(r chi.Router) {
			r.Get("/", h.listBookings)
			r.Post("/", h.createBooking)
			r.Get("/{id}", h.getBooking)
			r.Patch("/{id}/cancel", h.cancelBooking)
		})
		r.Route("/analytics", func(r chi.Router) {
			r.Get("/revenue", h.revenue)
			r.Get("/daily/{hotel_id}", h.daily)
			r.Get("/summary", h.summary)
			r.Get("/metrics/{hotel_id}", h.dailyMetrics)
		})
		r.Route("/ingestion", func(r chi.Router) {
			r.Use(s.ingest)
			r.Post("/upload-csv", h.uploadCSV)
			r.Post("/process-existing", h.processExisting)
			r.Post("/calculate-metrics", h.calculateMetrics)
			r.Post("/recalculate-all", h.triggerRecompute)
			r.Get("/recalculate-all", h.recomputeStatus)
			r.Delete("/recalculate-all", h.cancelRecompute)
			r.Get("/data-quality", h.dataQuality)
			r.Get("/feature-summary", h.featureSummary)
		})
	})
}
