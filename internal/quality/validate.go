// Package quality gates booking batches before they are engineered and loaded.
package quality

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"hoteliq/internal/batch"
	"hoteliq/internal/domain"
)

var numericColumns = []string{
	batch.ColHotelID, batch.ColRoomID, batch.ColNumGuests, batch.ColBookingPrice, batch.ColBasePrice,
}

// parsed holds the typed view of one row; the *OK flags are false for null or unparseable cells.
type parsed struct {
	checkIn, checkOut     time.Time
	checkInOK, checkOutOK bool
	price, base           float64
	priceOK, baseOK       bool
	guests                int64
	guestsOK              bool
	hotel, room           int64
	hotelOK, roomOK       bool
}

// Validate inspects t for structural and semantic problems.
func Validate(t *batch.Table) *Report {
	r := NewReport()

	if missing := missingColumns(t); len(missing) > 0 {
		r.AddError(fmt.Sprintf("Missing required columns: %v", missing))
		return r
	}
	r.AddInfo(fmt.Sprintf("All required columns present. Total rows: %d", t.Len()))

	if t.Len() == 0 {
		r.AddError("Batch is empty")
		r.Stats = &Stats{}
		return r
	}

	for _, col := range batch.RequiredColumns {
		if n := countNulls(t, col); n > 0 {
			r.AddError(fmt.Sprintf("Column '%s' has %d null values", col, n))
		}
	}

	rows := make([]parsed, t.Len())
	checkDates(t, rows, r)
	checkNumbers(t, rows, r)

	var badDates, badPrices, badGuests int
	for _, p := range rows {
		if p.checkInOK && p.checkOutOK && !p.checkOut.After(p.checkIn) {
			badDates++
		}
		if (p.priceOK && p.price <= 0) || (p.baseOK && p.base <= 0) {
			badPrices++
		}
		if p.guestsOK && p.guests <= 0 {
			badGuests++
		}
	}
	if badDates > 0 {
		r.AddError(fmt.Sprintf("%d bookings have check-out before/same as check-in", badDates))
	}
	if badPrices > 0 {
		r.AddError(fmt.Sprintf("%d bookings have invalid prices (<=0)", badPrices))
	}
	if badGuests > 0 {
		r.AddError(fmt.Sprintf("%d bookings have invalid guest count", badGuests))
	}
	if n := countBadStatuses(t); n > 0 {
		r.AddError(fmt.Sprintf("%d bookings have unknown status (want confirmed, cancelled or completed)", n))
	}

	if n := countDuplicates(t, rows); n > 0 {
		r.AddWarning(fmt.Sprintf("%d potential duplicate bookings detected", n))
	}
	if n := countPriceOutliers(rows); n > 0 {
		r.AddWarning(fmt.Sprintf("%d bookings with unusually high prices", n))
	}

	r.Stats = statistics(t, rows)

	if r.IsValid() {
		r.AddInfo("Data validation passed")
	}
	return r
}

func missingColumns(t *batch.Table) []string {
	var out []string
	for _, c := range batch.RequiredColumns {
		if !t.Has(c) {
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out
}

func countNulls(t *batch.Table, col string) int {
	n := 0
	for _, row := range t.Rows {
		if _, ok := row.Cell(col); !ok {
			n++
		}
	}
	return n
}

func checkDates(t *batch.Table, rows []parsed, r *Report) {
	failed := 0
	var first string
	note := func(v string) {
		if failed == 0 {
			first = v
		}
		failed++
	}
	for i, row := range t.Rows {
		if v, ok := row.Cell(batch.ColCheckIn); ok {
			if d, err := batch.ParseDate(v); err == nil {
				rows[i].checkIn, rows[i].checkInOK = d, true
			} else {
				note(v)
			}
		}
		if v, ok := row.Cell(batch.ColCheckOut); ok {
			if d, err := batch.ParseDate(v); err == nil {
				rows[i].checkOut, rows[i].checkOutOK = d, true
			} else {
				note(v)
			}
		}
		if v, ok := row.Cell(batch.ColBookingDate); ok {
			if _, err := batch.ParseTime(v); err != nil {
				note(v)
			}
		}
	}
	if failed > 0 {
		r.AddError(fmt.Sprintf("Date conversion error: %d values could not be parsed as dates (first: %q)", failed, first))
	}
}

func checkNumbers(t *batch.Table, rows []parsed, r *Report) {
	for _, col := range numericColumns {
		bad := 0
		for i, row := range t.Rows {
			v, ok := row.Cell(col)
			if !ok {
				continue
			}
			switch col {
			case batch.ColBookingPrice, batch.ColBasePrice:
				f, err := batch.ParseFloat(v)
				if err != nil {
					bad++
					continue
				}
				if col == batch.ColBookingPrice {
					rows[i].price, rows[i].priceOK = f, true
				} else {
					rows[i].base, rows[i].baseOK = f, true
				}
			default:
				n, err := batch.ParseInt(v)
				if err != nil {
					bad++
					continue
				}
				switch col {
				case batch.ColNumGuests:
					rows[i].guests, rows[i].guestsOK = n, true
				case batch.ColHotelID:
					rows[i].hotel, rows[i].hotelOK = n, true
				case batch.ColRoomID:
					rows[i].room, rows[i].roomOK = n, true
				}
			}
		}
		if bad > 0 {
			r.AddError(fmt.Sprintf("Column '%s' has %d non-numeric values", col, bad))
		}
	}
}

// countBadStatuses counts set status cells that Clean would not map to a known status.
func countBadStatuses(t *batch.Table) int {
	n := 0
	for _, row := range t.Rows {
		v := strings.TrimSpace(row[batch.ColStatus])
		if v == "" {
			continue
		}
		if !domain.BookingStatus(strings.ToLower(v)).Valid() {
			n++
		}
	}
	return n
}

// dedupKey is the (hotel_id, room_id, check_in_date) key; each part is
// normalized when it parses so "1" and "1.0" collide the way Clean sees them.
func dedupKey(row batch.Row, p parsed) string {
	h, _ := row.Cell(batch.ColHotelID)
	if p.hotelOK {
		h = strconv.FormatInt(p.hotel, 10)
	}
	rm, _ := row.Cell(batch.ColRoomID)
	if p.roomOK {
		rm = strconv.FormatInt(p.room, 10)
	}
	in, _ := row.Cell(batch.ColCheckIn)
	if p.checkInOK {
		in = p.checkIn.Format(domain.DateLayout)
	}
	return h + "|" + rm + "|" + in
}

// countDuplicates counts every row that shares its key with another row.
func countDuplicates(t *batch.Table, rows []parsed) int {
	seen := make(map[string]int, len(rows))
	for i, row := range t.Rows {
		seen[dedupKey(row, rows[i])]++
	}
	n := 0
	for _, c := range seen {
		if c > 1 {
			n += c
		}
	}
	return n
}

// countPriceOutliers flags prices above mean + 3 sample standard deviations.
func countPriceOutliers(rows []parsed) int {
	prices := pricesOf(rows)
	if len(prices) <= 1 {
		return 0
	}
	mean := meanOf(prices)
	var ss float64
	for _, p := range prices {
		ss += (p - mean) * (p - mean)
	}
	std := math.Sqrt(ss / float64(len(prices)-1))
	limit := mean + 3*std
	n := 0
	for _, p := range prices {
		if p > limit {
			n++
		}
	}
	return n
}

func statistics(t *batch.Table, rows []parsed) *Stats {
	s := &Stats{TotalRecords: t.Len()}

	var earliest, latest time.Time
	for _, p := range rows {
		if p.checkInOK && (earliest.IsZero() || p.checkIn.Before(earliest)) {
			earliest = p.checkIn
		}
		if p.checkOutOK && (latest.IsZero() || p.checkOut.After(latest)) {
			latest = p.checkOut
		}
	}
	if !earliest.IsZero() {
		e := earliest.Format(time.RFC3339)
		s.DateRange.Earliest = &e
	}
	if !latest.IsZero() {
		l := latest.Format(time.RFC3339)
		s.DateRange.Latest = &l
	}

	if prices := pricesOf(rows); len(prices) > 0 {
		sorted := append([]float64(nil), prices...)
		sort.Float64s(sorted)
		s.PriceStats = PriceStats{
			Min:    sorted[0],
			Max:    sorted[len(sorted)-1],
			Mean:   meanOf(sorted),
			Median: medianOf(sorted),
		}
	}

	hotels := map[string]struct{}{}
	rooms := map[string]struct{}{}
	for _, row := range t.Rows {
		if v, ok := row.Cell(batch.ColHotelID); ok {
			hotels[v] = struct{}{}
		}
		if v, ok := row.Cell(batch.ColRoomID); ok {
			rooms[v] = struct{}{}
		}
	}
	s.UniqueHotels = len(hotels)
	s.UniqueRooms = len(rooms)
	return s
}

func pricesOf(rows []parsed) []float64 {
	out := make([]float64, 0, len(rows))
	for _, p := range rows {
		if p.priceOK {
			out = append(out, p.price)
		}
	}
	return out
}

func meanOf(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// medianOf expects sorted input.
func medianOf(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
