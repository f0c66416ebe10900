package features

import (
	"sort"
	"time"

	"hoteliq/internal/domain"
)

// seasons follows the Indian seasonal calendar.
var seasons = map[time.Month]string{
	time.December: "winter", time.January: "winter", time.February: "winter",
	time.March: "spring", time.April: "spring", time.May: "spring",
	time.June: "monsoon", time.July: "monsoon", time.August: "monsoon",
	time.September: "autumn", time.October: "autumn", time.November: "autumn",
}

func isPeak(m time.Month) bool {
	return m >= time.October || m <= time.February
}

func isHoliday(m time.Month) bool {
	switch m {
	case time.December, time.January, time.April, time.October:
		return true
	}
	return false
}

// TimeFeatures derives calendar columns from the check-in date.
func TimeFeatures(f Frame) Frame {
	out := f.clone()
	for i := range out.Rows {
		r := &out.Rows[i]
		d := r.CheckIn
		r.DayOfWeek = (int(d.Weekday()) + 6) % 7
		r.DayOfMonth = d.Day()
		r.Month = int(d.Month())
		r.Quarter = (r.Month-1)/3 + 1
		r.Year = d.Year()
		_, r.WeekOfYear = d.ISOWeek()
		r.IsWeekend = r.DayOfWeek >= 5
		r.Season = seasons[d.Month()]
		r.IsPeakSeason = isPeak(d.Month())
		r.IsHolidaySeason = isHoliday(d.Month())
	}
	out.Stages |= StageTime
	return out
}

func stayCategory(nights int) *string {
	var c string
	switch {
	case nights <= 0 || nights > 30:
		return nil
	case nights <= 1:
		c = "short"
	case nights <= 3:
		c = "medium"
	case nights <= 7:
		c = "long"
	default:
		c = "extended"
	}
	return &c
}

// StayFeatures derives length of stay, its bucket, and booking lead time.
func StayFeatures(f Frame) Frame {
	out := f.clone()
	for i := range out.Rows {
		r := &out.Rows[i]
		r.LengthOfStay = domain.DaysBetween(r.CheckIn, r.CheckOut)
		r.StayCategory = stayCategory(r.LengthOfStay)
		r.LeadTimeDays, r.IsLastMinute = nil, nil
		if !r.BookingDate.IsZero() {
			lead := domain.FloorDays(r.BookingDate, r.CheckIn)
			last := lead <= 3
			r.LeadTimeDays, r.IsLastMinute = &lead, &last
		}
	}
	out.Stages |= StageStay
	return out
}

func priceCategory(ppn float64) *string {
	var c string
	switch {
	case ppn <= 0:
		return nil
	case ppn <= 3000:
		c = "budget"
	case ppn <= 6000:
		c = "mid_range"
	case ppn <= 10000:
		c = "premium"
	default:
		c = "luxury"
	}
	return &c
}

// PricingFeatures needs the stay stage; it applies it first when missing.
func PricingFeatures(f Frame) Frame {
	if !f.Has(StageStay) {
		f = StayFeatures(f)
	}
	out := f.clone()
	for i := range out.Rows {
		r := &out.Rows[i]
		r.PricePerNight, r.PriceCategory = nil, nil
		if r.LengthOfStay != 0 {
			ppn := r.BookingPrice / float64(r.LengthOfStay)
			r.PricePerNight = &ppn
			r.PriceCategory = priceCategory(ppn)
		}
		r.DiscountPct = 0
		if r.BasePrice != 0 {
			if d := (r.BasePrice - r.BookingPrice) / r.BasePrice * 100; d > 0 {
				r.DiscountPct = d
			}
		}
	}
	out.Stages |= StagePricing
	return out
}

// AggregatedFeatures sorts rows by check-in date (stable) and adds, per hotel,
// the mean and count of the trailing 7 and 30 bookings including the current
// one, plus the previous booking price of the same room.
func AggregatedFeatures(f Frame) Frame {
	out := f.clone()
	sort.SliceStable(out.Rows, func(i, j int) bool {
		return out.Rows[i].CheckIn.Before(out.Rows[j].CheckIn)
	})

	type roomKey struct{ hotel, room int64 }
	history := map[int64][]float64{}
	prev := map[roomKey]float64{}

	for i := range out.Rows {
		r := &out.Rows[i]
		h := append(history[r.HotelID], r.BookingPrice)
		history[r.HotelID] = h

		r.AvgPrice7d, r.BookingCount7d = trailing(h, 7)
		r.AvgPrice30d, r.BookingCount30d = trailing(h, 30)

		k := roomKey{r.HotelID, r.RoomID}
		r.PrevBookingPrice = nil
		if p, ok := prev[k]; ok {
			p := p
			r.PrevBookingPrice = &p
		}
		prev[k] = r.BookingPrice
	}
	out.Stages |= StageAggregated
	return out
}

func trailing(xs []float64, window int) (float64, int) {
	if len(xs) > window {
		xs = xs[len(xs)-window:]
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs)), len(xs)
}

// OccupancyFeatures sets, for each (hotel, check-in date) group, the share of
// the hotel's rooms booked that day. Rows of hotels missing from capacities,
// or with no rooms, get no rate.
func OccupancyFeatures(f Frame, capacities map[int64]int) Frame {
	out := f.clone()

	type dayKey struct {
		hotel int64
		day   time.Time
	}
	booked := map[dayKey]int{}
	for _, r := range out.Rows {
		booked[dayKey{r.HotelID, domain.Day(r.CheckIn)}]++
	}

	for i := range out.Rows {
		r := &out.Rows[i]
		r.HotelTotalRooms, r.OccupancyRate = nil, nil
		total, ok := capacities[r.HotelID]
		if !ok {
			continue
		}
		tr := total
		r.HotelTotalRooms = &tr
		if total <= 0 {
			continue
		}
		rate := domain.Round2(float64(booked[dayKey{r.HotelID, domain.Day(r.CheckIn)}]) / float64(total) * 100)
		r.OccupancyRate = &rate
	}
	out.Stages |= StageOccupancy
	return out
}
