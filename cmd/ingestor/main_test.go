package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"hoteliq/internal/app"
	"hoteliq/internal/domain"
	"hoteliq/internal/storage/memory"
)

func seed(t *testing.T) (*memory.Store, domain.Hotel, domain.Room) {
	t.Helper()
	ctx := context.Background()
	s := memory.New()
	h, err := s.CreateHotel(ctx, domain.Hotel{Name: "Leela", Location: "Goa", TotalRooms: 4})
	if err != nil {
		t.Fatal(err)
	}
	r, err := s.CreateRoom(ctx, domain.Room{HotelID: h.ID, RoomNumber: "1", RoomType: "suite", BasePrice: 9000, MaxOccupancy: 2, IsAvailable: true})
	if err != nil {
		t.Fatal(err)
	}
	return s, h, r
}

func writeCSV(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestParseFlags(t *testing.T) {
	o, err := parseFlags([]string{"-file", "a.csv, b.csv", "-workers", "0"})
	if err != nil {
		t.Fatal(err)
	}
	if len(o.files) != 2 || o.files[1] != "b.csv" || o.workers != 1 || o.source != "csv" {
		t.Fatalf("options: %+v", o)
	}
	if _, err := parseFlags([]string{"-nope"}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("err = %v", err)
	}
}

func TestRun_CSVFilesAndValidationExit(t *testing.T) {
	s, h, r := seed(t)
	good := writeCSV(t, "good.csv", fmt.Sprintf(
		"hotel_id,room_id,check_in_date,check_out_date,guest_name,num_guests,booking_price,base_price\n"+
			"%d,%d,2024-05-01,2024-05-03,Ravi,2,8000,9000\n"+
			"%d,%d,2024-05-04,2024-05-05,Meera,1,9000,9000\n", h.ID, r.ID, h.ID, r.ID))

	var out bytes.Buffer
	if err := run(context.Background(), options{source: "csv", files: []string{good}, workers: 2}, s, 10, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	var res app.RunResult
	if err := json.Unmarshal(out.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if !res.Success || res.LoadResult.Loaded != 2 {
		t.Fatalf("result: %s", out.String())
	}

	bad := writeCSV(t, "bad.csv", "hotel_id,room_id\n1,1\n")
	out.Reset()
	err := run(context.Background(), options{source: "csv", files: []string{good, bad}, workers: 2}, s, 10, &out)
	if !errors.Is(err, domain.ErrValidationFailed) {
		t.Fatalf("expected validation failure, got %v", err)
	}
	var many []app.RunResult
	if err := json.Unmarshal(out.Bytes(), &many); err != nil {
		t.Fatal(err)
	}
	if len(many) != 2 || many[0].LoadResult.Skipped != 2 || many[1].Success {
		t.Fatalf("results: %s", out.String())
	}
}

func TestRunFiles_OverlappingFilesSkipOnSecondLoad(t *testing.T) {
	s, h, r := seed(t)
	var b strings.Builder
	b.WriteString("hotel_id,room_id,check_in_date,check_out_date,guest_name,num_guests,booking_price,base_price\n")
	day := mustDay(t, "2023-01-01")
	const n = 400
	for i := 0; i < n; i++ {
		in := day.AddDate(0, 0, i)
		fmt.Fprintf(&b, "%d,%d,%s,%s,G%d,2,8000,9000\n", h.ID, r.ID,
			in.Format(domain.DateLayout), in.AddDate(0, 0, 1).Format(domain.DateLayout), i)
	}
	first := writeCSV(t, "first.csv", b.String())
	second := writeCSV(t, "second.csv", b.String())

	results, err := runFiles(context.Background(), app.NewPipeline(s, 5), []string{first, second}, 4)
	if err != nil {
		t.Fatal(err)
	}
	a, c := results[0].LoadResult, results[1].LoadResult
	if a.Loaded != n || a.Errors != 0 {
		t.Fatalf("first: %+v", a)
	}
	if c.Skipped != c.Total || c.Total != n || c.Errors != 0 || c.FailedBatches != 0 {
		t.Fatalf("second: %+v", c)
	}
}

func TestRun_MetricsAndRecompute(t *testing.T) {
	s, h, r := seed(t)
	ctx := context.Background()
	if _, err := s.CreateBooking(ctx, domain.Booking{
		HotelID: h.ID, RoomID: r.ID,
		CheckInDate: mustDay(t, "2024-05-01"), CheckOutDate: mustDay(t, "2024-05-03"),
		GuestName: "Ravi", NumGuests: 2, BookingPrice: 8000, BasePrice: 9000,
		BookingSource: "direct", Status: domain.StatusConfirmed,
	}); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	err := run(ctx, options{metricsHotel: h.ID, from: "2024-05-01", to: "2024-05-02"}, s, 10, &out)
	if err != nil {
		t.Fatal(err)
	}
	var ms []domain.DailyMetrics
	if err := json.Unmarshal(out.Bytes(), &ms); err != nil {
		t.Fatal(err)
	}
	if len(ms) != 2 || ms[0].OccupancyRate != 25 {
		t.Fatalf("metrics: %s", out.String())
	}

	if err := run(ctx, options{metricsHotel: h.ID, from: "May 1"}, s, 10, &out); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("err = %v", err)
	}

	out.Reset()
	if err := run(ctx, options{recomputeAll: true}, s, 10, &out); err != nil {
		t.Fatal(err)
	}
	var sum app.RecomputeSummary
	if err := json.Unmarshal(out.Bytes(), &sum); err != nil {
		t.Fatal(err)
	}
	if sum.HotelsProcessed != 1 || sum.MetricsCalculated == 0 {
		t.Fatalf("summary: %s", out.String())
	}

	if err := run(ctx, options{source: "kafka"}, s, 10, &out); !errors.Is(err, domain.ErrUnsupportedSource) {
		t.Fatalf("err = %v", err)
	}
}

func mustDay(t *testing.T, s string) time.Time {
	t.Helper()
	v, err := domain.ParseDay(s)
	if err != nil {
		t.Fatal(err)
	}
	return v
}
