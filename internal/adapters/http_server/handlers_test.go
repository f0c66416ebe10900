package httpserver_test

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	httpserver "hoteliq/internal/adapters/http_server"
	"hoteliq/internal/app"
	"hoteliq/internal/domain"
	"hoteliq/internal/storage/memory"
)

var today = time.Date(2024, 3, 20, 9, 0, 0, 0, time.UTC)

type fixture struct {
	ts    *httptest.Server
	store *memory.Store
}

func newFixture(t *testing.T, opts httpserver.Options) *fixture {
	t.Helper()
	store := memory.New()
	calc := app.NewMetricsCalculator(store)
	h := &httpserver.Handlers{
		Q:     app.NewQueryService(store, nil, time.Minute),
		C:     app.NewCommandService(store, nil),
		A:     app.NewAnalyticsService(store, nil, time.Minute, app.DefaultWindowDays),
		P:     app.NewPipeline(store, 50),
		Calc:  calc,
		Jobs:  app.NewRecomputer(calc),
		Clock: func() time.Time { return today },
	}
	srv := httpserver.New(opts)
	srv.MountHandlers(h)
	ts := httptest.NewServer(srv.Mux())
	t.Cleanup(ts.Close)
	return &fixture{ts: ts, store: store}
}

func (f *fixture) do(t *testing.T, method, path, contentType string, body io.Reader, hdr ...string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, f.ts.URL+path, body)
	if err != nil {
		t.Fatal(err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp, b
}

func (f *fixture) postJSON(t *testing.T, path, body string) (*http.Response, []byte) {
	return f.do(t, http.MethodPost, path, "application/json", strings.NewReader(body))
}

func decode(t *testing.T, b []byte, dst any) {
	t.Helper()
	if err := json.Unmarshal(b, dst); err != nil {
		t.Fatalf("decode %s: %v", b, err)
	}
}

func wantStatus(t *testing.T, resp *http.Response, body []byte, want int) {
	t.Helper()
	if resp.StatusCode != want {
		t.Fatalf("%s %s: status %d want %d body=%s", resp.Request.Method, resp.Request.URL.Path, resp.StatusCode, want, body)
	}
}

func (f *fixture) seedHotelAndRoom(t *testing.T) (domain.Hotel, domain.Room) {
	t.Helper()
	resp, body := f.postJSON(t, "/v1/hotels", `{"name":"Taj Palace","location":"Mumbai","total_rooms":10,"star_rating":5}`)
	wantStatus(t, resp, body, http.StatusCreated)
	var h domain.Hotel
	decode(t, body, &h)

	resp, body = f.postJSON(t, "/v1/rooms", fmt.Sprintf(`{"hotel_id":%d,"room_number":"101","room_type":"deluxe","base_price":5000}`, h.ID))
	wantStatus(t, resp, body, http.StatusCreated)
	var r domain.Room
	decode(t, body, &r)
	if r.MaxOccupancy != 2 || !r.IsAvailable {
		t.Fatalf("room defaults not applied: %+v", r)
	}
	return h, r
}

func TestHealthz(t *testing.T) {
	f := newFixture(t, httpserver.Options{})
	resp, body := f.do(t, http.MethodGet, "/healthz", "", nil)
	wantStatus(t, resp, body, http.StatusOK)
}

func TestHotels_CRUDAndErrors(t *testing.T) {
	f := newFixture(t, httpserver.Options{})
	h, _ := f.seedHotelAndRoom(t)

	resp, body := f.postJSON(t, "/v1/hotels", `{"name":"Taj Palace","location":"Delhi","total_rooms":4}`)
	wantStatus(t, resp, body, http.StatusConflict)
	if ct := resp.Header.Get("Content-Type"); ct != "application/problem+json" {
		t.Fatalf("content type = %q", ct)
	}

	resp, body = f.postJSON(t, "/v1/hotels", `{"name":"Empty","location":"Goa","total_rooms":0}`)
	wantStatus(t, resp, body, http.StatusBadRequest)

	resp, body = f.postJSON(t, "/v1/hotels", `{"name":"Typo","location":"Goa","total_rooms":3,"stars":4}`)
	wantStatus(t, resp, body, http.StatusBadRequest)

	path := fmt.Sprintf("/v1/hotels/%d", h.ID)
	resp, body = f.do(t, http.MethodGet, path, "", nil)
	wantStatus(t, resp, body, http.StatusOK)
	etag := resp.Header.Get("ETag")
	if etag == "" {
		t.Fatal("missing ETag")
	}
	resp, body = f.do(t, http.MethodGet, path, "", nil, "If-None-Match", etag)
	wantStatus(t, resp, body, http.StatusNotModified)

	resp, body = f.do(t, http.MethodGet, "/v1/hotels/abc", "", nil)
	wantStatus(t, resp, body, http.StatusBadRequest)
	resp, body = f.do(t, http.MethodGet, "/v1/hotels/999", "", nil)
	wantStatus(t, resp, body, http.StatusNotFound)

	resp, body = f.do(t, http.MethodGet, "/v1/hotels?limit=10", "", nil)
	wantStatus(t, resp, body, http.StatusOK)
	var list []domain.Hotel
	decode(t, body, &list)
	if len(list) != 1 {
		t.Fatalf("hotels = %+v", list)
	}

	resp, body = f.do(t, http.MethodDelete, path, "", nil)
	wantStatus(t, resp, body, http.StatusNoContent)
	resp, body = f.do(t, http.MethodGet, path, "", nil)
	wantStatus(t, resp, body, http.StatusNotFound)
}

func TestBookings_CreateListCancel(t *testing.T) {
	f := newFixture(t, httpserver.Options{})
	h, r := f.seedHotelAndRoom(t)

	bad := fmt.Sprintf(`{"hotel_id":%d,"room_id":%d,"check_in_date":"2024-03-12","check_out_date":"2024-03-10","guest_name":"A","booking_price":1000,"base_price":1000}`, h.ID, r.ID)
	resp, body := f.postJSON(t, "/v1/bookings", bad)
	wantStatus(t, resp, body, http.StatusBadRequest)

	resp, body = f.postJSON(t, "/v1/bookings", fmt.Sprintf(`{"hotel_id":%d,"room_id":%d,"check_in_date":"03/10/2024","check_out_date":"2024-03-12","guest_name":"A","booking_price":1000,"base_price":1000}`, h.ID, r.ID))
	wantStatus(t, resp, body, http.StatusBadRequest)

	ok := fmt.Sprintf(`{"hotel_id":%d,"room_id":%d,"check_in_date":"2024-03-10","check_out_date":"2024-03-12","guest_name":"Asha","booking_price":1000,"base_price":1200}`, h.ID, r.ID)
	resp, body = f.postJSON(t, "/v1/bookings", ok)
	wantStatus(t, resp, body, http.StatusCreated)
	var b domain.Booking
	decode(t, body, &b)
	if b.Status != domain.StatusConfirmed || b.BookingSource != "direct" || b.NumGuests != 1 {
		t.Fatalf("booking defaults: %+v", b)
	}

	resp, body = f.postJSON(t, "/v1/bookings", ok)
	wantStatus(t, resp, body, http.StatusConflict)

	resp, body = f.do(t, http.MethodGet, fmt.Sprintf("/v1/bookings?hotel_id=%d&status=confirmed", h.ID), "", nil)
	wantStatus(t, resp, body, http.StatusOK)
	var list []domain.Booking
	decode(t, body, &list)
	if len(list) != 1 || list[0].ID != b.ID {
		t.Fatalf("bookings = %+v", list)
	}
	resp, body = f.do(t, http.MethodGet, "/v1/bookings?status=pending", "", nil)
	wantStatus(t, resp, body, http.StatusBadRequest)

	resp, body = f.do(t, http.MethodPatch, fmt.Sprintf("/v1/bookings/%d/cancel", b.ID), "", nil)
	wantStatus(t, resp, body, http.StatusOK)
	decode(t, body, &b)
	if b.Status != domain.StatusCancelled {
		t.Fatalf("status = %s", b.Status)
	}
}

func TestIngestion_UploadAndMetrics(t *testing.T) {
	f := newFixture(t, httpserver.Options{})
	h, r := f.seedHotelAndRoom(t)

	var csv strings.Builder
	csv.WriteString("hotel_id,room_id,check_in_date,check_out_date,guest_name,num_guests,booking_price,base_price,booking_source,status\n")
	for i := 0; i < 3; i++ {
		fmt.Fprintf(&csv, "%d,%d,2024-03-%02d,2024-03-%02d,Guest %d,2,4000,5000,,\n", h.ID, r.ID, 1+i*3, 3+i*3, i)
	}

	resp, body := f.do(t, http.MethodPost, "/v1/ingestion/upload-csv", "text/csv", strings.NewReader(csv.String()))
	wantStatus(t, resp, body, http.StatusOK)
	var up struct {
		Filename       string        `json:"filename"`
		PipelineResult app.RunResult `json:"pipeline_result"`
	}
	decode(t, body, &up)
	if up.Filename != "upload.csv" || !up.PipelineResult.Success || up.PipelineResult.LoadResult.Loaded != 3 {
		t.Fatalf("upload: %s", body)
	}

	var form bytes.Buffer
	mw := multipart.NewWriter(&form)
	part, _ := mw.CreateFormFile("file", "bookings.txt")
	_, _ = part.Write([]byte(csv.String()))
	_ = mw.Close()
	resp, body = f.do(t, http.MethodPost, "/v1/ingestion/upload-csv", mw.FormDataContentType(), &form)
	wantStatus(t, resp, body, http.StatusBadRequest)

	form.Reset()
	mw = multipart.NewWriter(&form)
	part, _ = mw.CreateFormFile("file", "bookings.csv")
	_, _ = part.Write([]byte(csv.String()))
	_ = mw.Close()
	resp, body = f.do(t, http.MethodPost, "/v1/ingestion/upload-csv", mw.FormDataContentType(), &form)
	wantStatus(t, resp, body, http.StatusOK)
	decode(t, body, &up)
	if up.PipelineResult.LoadResult.Skipped != 3 {
		t.Fatalf("re-upload should skip existing rows: %s", body)
	}

	resp, body = f.do(t, http.MethodPost, "/v1/ingestion/calculate-metrics?hotel_id=1", "", nil)
	wantStatus(t, resp, body, http.StatusBadRequest)

	q := fmt.Sprintf("hotel_id=%d&start_date=2024-03-01&end_date=2024-03-03", h.ID)
	resp, body = f.do(t, http.MethodPost, "/v1/ingestion/calculate-metrics?"+q, "", nil)
	wantStatus(t, resp, body, http.StatusOK)
	var calc struct {
		MetricsCalculated int    `json:"metrics_calculated"`
		DateRange         string `json:"date_range"`
	}
	decode(t, body, &calc)
	if calc.MetricsCalculated != 3 || calc.DateRange != "2024-03-01 to 2024-03-03" {
		t.Fatalf("calculate: %s", body)
	}

	resp, body = f.do(t, http.MethodGet, fmt.Sprintf("/v1/analytics/metrics/%d?start_date=2024-03-01&end_date=2024-03-31", h.ID), "", nil)
	wantStatus(t, resp, body, http.StatusOK)
	var ms []domain.DailyMetrics
	decode(t, body, &ms)
	if len(ms) != 3 || ms[0].RoomsOccupied != 1 {
		t.Fatalf("metrics: %s", body)
	}

	resp, body = f.do(t, http.MethodGet, fmt.Sprintf("/v1/analytics/revenue?hotel_id=%d&start_date=2024-03-01&end_date=2024-03-31", h.ID), "", nil)
	wantStatus(t, resp, body, http.StatusOK)
	var rev app.RevenueReport
	decode(t, body, &rev)
	if rev.TotalBookings != 3 || rev.TotalRevenue != 12000 {
		t.Fatalf("revenue: %s", body)
	}

	resp, body = f.do(t, http.MethodGet, "/v1/analytics/summary", "", nil)
	wantStatus(t, resp, body, http.StatusOK)
	var sum app.SystemSummary
	decode(t, body, &sum)
	if sum.Hotels != 1 || sum.Bookings != 3 {
		t.Fatalf("summary: %s", body)
	}

	resp, body = f.do(t, http.MethodGet, "/v1/ingestion/data-quality", "", nil)
	wantStatus(t, resp, body, http.StatusOK)
	resp, body = f.do(t, http.MethodGet, "/v1/ingestion/feature-summary?limit=2", "", nil)
	wantStatus(t, resp, body, http.StatusOK)
	var prev app.FeaturePreview
	decode(t, body, &prev)
	if len(prev.SampleRecords) != 2 {
		t.Fatalf("preview: %s", body)
	}
}

func TestIngestion_RecalculateAllWithoutWorker(t *testing.T) {
	f := newFixture(t, httpserver.Options{})

	resp, body := f.do(t, http.MethodPost, "/v1/ingestion/recalculate-all", "", nil)
	wantStatus(t, resp, body, http.StatusAccepted)
	var rr struct {
		Job app.JobStatus `json:"job"`
	}
	decode(t, body, &rr)
	if rr.Job.State != app.JobQueued || rr.Job.ID == "" {
		t.Fatalf("trigger: %s", body)
	}

	resp, body = f.do(t, http.MethodPost, "/v1/ingestion/recalculate-all", "", nil)
	wantStatus(t, resp, body, http.StatusAccepted)
	var again struct {
		Job app.JobStatus `json:"job"`
	}
	decode(t, body, &again)
	if again.Job.ID != rr.Job.ID {
		t.Fatalf("second trigger should join the queued job: %s", body)
	}

	resp, body = f.do(t, http.MethodDelete, "/v1/ingestion/recalculate-all", "", nil)
	wantStatus(t, resp, body, http.StatusOK)

	resp, body = f.do(t, http.MethodGet, "/v1/ingestion/recalculate-all", "", nil)
	wantStatus(t, resp, body, http.StatusOK)
	var st app.JobStatus
	decode(t, body, &st)
	if st.State != app.JobCancelled {
		t.Fatalf("status: %s", body)
	}

	resp, body = f.do(t, http.MethodDelete, "/v1/ingestion/recalculate-all", "", nil)
	wantStatus(t, resp, body, http.StatusConflict)
}

func TestIngestion_RateLimited(t *testing.T) {
	f := newFixture(t, httpserver.Options{IngestRPS: 0.01})

	resp, body := f.do(t, http.MethodGet, "/v1/ingestion/data-quality", "", nil)
	wantStatus(t, resp, body, http.StatusOK)
	resp, body = f.do(t, http.MethodGet, "/v1/ingestion/data-quality", "", nil)
	wantStatus(t, resp, body, http.StatusTooManyRequests)
	if resp.Header.Get("Retry-After") == "" {
		t.Fatal("missing Retry-After")
	}

	// other routes are not limited
	resp, body = f.do(t, http.MethodGet, "/v1/hotels", "", nil)
	wantStatus(t, resp, body, http.StatusOK)
}
