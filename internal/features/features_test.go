package features_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"hoteliq/internal/batch"
	"hoteliq/internal/features"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func rec(hotel, room int64, in, out string, price float64) batch.Record {
	return batch.Record{
		HotelID: hotel, RoomID: room,
		CheckIn: day(in), CheckOut: day(out),
		GuestName: "g", NumGuests: 2,
		BookingPrice: price, BasePrice: price,
		BookingSource: "direct", Status: "confirmed",
	}
}

func TestTimeFeatures(t *testing.T) {
	// 2024-01-06 is a Saturday.
	f := features.TimeFeatures(features.NewFrame([]batch.Record{rec(1, 1, "2024-01-06", "2024-01-07", 100)}))
	r := f.Rows[0]
	if r.DayOfWeek != 5 || !r.IsWeekend {
		t.Fatalf("day_of_week=%d weekend=%v", r.DayOfWeek, r.IsWeekend)
	}
	if r.Season != "winter" || !r.IsPeakSeason || !r.IsHolidaySeason {
		t.Fatalf("unexpected season flags: %+v", r)
	}
	if r.Quarter != 1 || r.WeekOfYear != 1 || r.Year != 2024 {
		t.Fatalf("quarter=%d week=%d year=%d", r.Quarter, r.WeekOfYear, r.Year)
	}

	f = features.TimeFeatures(features.NewFrame([]batch.Record{rec(1, 1, "2024-07-15", "2024-07-16", 100)}))
	if r := f.Rows[0]; r.Season != "monsoon" || r.IsPeakSeason || r.IsHolidaySeason || r.DayOfWeek != 0 {
		t.Fatalf("unexpected july flags: %+v", r)
	}
}

func TestStayAndPricing(t *testing.T) {
	r1 := rec(1, 1, "2024-03-10", "2024-03-14", 8000)
	r1.BasePrice = 10000
	r1.BookingDate = day("2024-03-08")
	r2 := rec(1, 2, "2024-03-10", "2024-05-10", 100)

	in := []batch.Record{r1, r2}
	f := features.PricingFeatures(features.NewFrame(in))
	if !f.Has(features.StageStay) {
		t.Fatal("pricing should apply stay features first")
	}

	a := f.Rows[0]
	if a.LengthOfStay != 4 || a.StayCategory == nil || *a.StayCategory != "long" {
		t.Fatalf("stay: %d %v", a.LengthOfStay, a.StayCategory)
	}
	if a.LeadTimeDays == nil || *a.LeadTimeDays != 2 || !*a.IsLastMinute {
		t.Fatalf("lead time: %v %v", a.LeadTimeDays, a.IsLastMinute)
	}
	if a.PricePerNight == nil || *a.PricePerNight != 2000 || *a.PriceCategory != "budget" {
		t.Fatalf("price per night: %v %v", a.PricePerNight, a.PriceCategory)
	}
	if a.DiscountPct != 20 {
		t.Fatalf("discount = %v", a.DiscountPct)
	}

	b := f.Rows[1]
	if b.StayCategory != nil {
		t.Fatalf("61-night stay should be unclassified, got %q", *b.StayCategory)
	}
	if b.LeadTimeDays != nil {
		t.Fatal("lead time needs a booking date")
	}

	if in[0].BookingPrice != 8000 || len(in) != 2 {
		t.Fatal("input mutated")
	}
}

func TestPricing_ZeroNightsIsGuarded(t *testing.T) {
	f := features.PricingFeatures(features.NewFrame([]batch.Record{rec(1, 1, "2024-03-10", "2024-03-10", 100)}))
	if f.Rows[0].PricePerNight != nil || f.Rows[0].PriceCategory != nil {
		t.Fatal("price per night should be absent for zero-night stays")
	}
}

func TestAggregatedFeatures(t *testing.T) {
	var recs []batch.Record
	// Out of order on purpose; the stage sorts by check-in.
	for i := 9; i >= 1; i-- {
		in := day("2024-01-01").AddDate(0, 0, i)
		r := rec(1, int64(i%2), in.Format("2006-01-02"), in.AddDate(0, 0, 1).Format("2006-01-02"), float64(i*10))
		recs = append(recs, r)
	}
	recs = append(recs, rec(2, 1, "2024-01-05", "2024-01-06", 999))

	f := features.AggregatedFeatures(features.NewFrame(recs))
	for i := 1; i < len(f.Rows); i++ {
		if f.Rows[i].CheckIn.Before(f.Rows[i-1].CheckIn) {
			t.Fatal("rows not sorted by check-in")
		}
	}

	var last features.Row
	for _, r := range f.Rows {
		if r.HotelID == 2 {
			if r.BookingCount7d != 1 || r.AvgPrice7d != 999 || r.PrevBookingPrice != nil {
				t.Fatalf("hotel 2 aggregates leaked: %+v", r)
			}
			continue
		}
		last = r
	}
	// Hotel 1 prices 10..90; last seven are 30..90.
	if last.BookingCount7d != 7 || last.AvgPrice7d != 60 {
		t.Fatalf("7d: count=%d avg=%v", last.BookingCount7d, last.AvgPrice7d)
	}
	if last.BookingCount30d != 9 || last.AvgPrice30d != 50 {
		t.Fatalf("30d: count=%d avg=%v", last.BookingCount30d, last.AvgPrice30d)
	}
	// Room 1 (odd days): 70 precedes 90.
	if last.PrevBookingPrice == nil || *last.PrevBookingPrice != 70 {
		t.Fatalf("prev price = %v", last.PrevBookingPrice)
	}
}

type capacities map[int64]int

func (c capacities) HotelCapacities(context.Context) (map[int64]int, error) { return c, nil }

type failingCapacities struct{}

func (failingCapacities) HotelCapacities(context.Context) (map[int64]int, error) {
	return nil, errors.New("boom")
}

func TestOccupancyFeatures(t *testing.T) {
	recs := []batch.Record{
		rec(1, 1, "2024-02-01", "2024-02-02", 100),
		rec(1, 2, "2024-02-01", "2024-02-03", 100),
		rec(1, 3, "2024-02-02", "2024-02-03", 100),
		rec(2, 1, "2024-02-01", "2024-02-02", 100),
		rec(3, 1, "2024-02-01", "2024-02-02", 100),
	}
	f := features.OccupancyFeatures(features.NewFrame(recs), map[int64]int{1: 3, 2: 0})

	want := []*float64{ptr(66.67), ptr(66.67), ptr(33.33), nil, nil}
	for i, w := range want {
		got := f.Rows[i].OccupancyRate
		switch {
		case w == nil && got != nil:
			t.Fatalf("row %d: expected no rate, got %v", i, *got)
		case w != nil && (got == nil || *got != *w):
			t.Fatalf("row %d: expected %v, got %v", i, *w, got)
		}
	}
	if f.Rows[3].HotelTotalRooms == nil || *f.Rows[3].HotelTotalRooms != 0 {
		t.Fatal("hotel with zero rooms should still report its capacity")
	}
	if f.Rows[4].HotelTotalRooms != nil {
		t.Fatal("unknown hotel should have no capacity")
	}
}

func ptr(f float64) *float64 { return &f }

func TestEngineerApplyAndSummarize(t *testing.T) {
	recs := []batch.Record{rec(1, 1, "2024-02-01", "2024-02-02", 100)}

	f, err := (&features.Engineer{}).Apply(context.Background(), recs)
	if err != nil {
		t.Fatal(err)
	}
	s := features.Summarize(f)
	if s.FeatureGroups["occupancy_features"] != 0 {
		t.Fatal("occupancy should be skipped without a capacity source")
	}
	if s.TotalFeatures != 12+10+4+3+5 {
		t.Fatalf("total_features = %d", s.TotalFeatures)
	}

	f, err = (&features.Engineer{Capacity: capacities{1: 10}}).Apply(context.Background(), recs)
	if err != nil {
		t.Fatal(err)
	}
	s = features.Summarize(f)
	if s.FeatureGroups["occupancy_features"] != 2 || s.TotalFeatures != 36 {
		t.Fatalf("summary: %+v", s)
	}
	if r := f.Rows[0].OccupancyRate; r == nil || *r != 10 {
		t.Fatalf("occupancy = %v", r)
	}

	if _, err := (&features.Engineer{Capacity: failingCapacities{}}).Apply(context.Background(), recs); err == nil {
		t.Fatal("expected capacity error")
	}
}
