// Package features derives analytic columns from cleaned booking records.
//
// Every stage takes a Frame and returns a new one; the input rows are never
// modified. Stages can run on their own or chained through Engineer.Apply.
package features

import (
	"hoteliq/internal/batch"
)

// Stage is a bit set of the feature stages applied to a frame.
type Stage uint8

const (
	StageTime Stage = 1 << iota
	StageStay
	StagePricing
	StageAggregated
	StageOccupancy
)

// Row is one record plus its engineered columns. Pointer fields are absent
// (null) when the feature is undefined for the row.
type Row struct {
	batch.Record

	DayOfWeek       int    `json:"day_of_week"`
	DayOfMonth      int    `json:"day_of_month"`
	Month           int    `json:"month"`
	Quarter         int    `json:"quarter"`
	Year            int    `json:"year"`
	WeekOfYear      int    `json:"week_of_year"`
	IsWeekend       bool   `json:"is_weekend"`
	Season          string `json:"season"`
	IsPeakSeason    bool   `json:"is_peak_season"`
	IsHolidaySeason bool   `json:"is_holiday_season"`

	LengthOfStay int     `json:"length_of_stay"`
	StayCategory *string `json:"stay_category"`
	LeadTimeDays *int    `json:"lead_time_days"`
	IsLastMinute *bool   `json:"is_last_minute"`

	PricePerNight *float64 `json:"price_per_night"`
	DiscountPct   float64  `json:"discount_pct"`
	PriceCategory *string  `json:"price_category"`

	AvgPrice7d       float64  `json:"avg_price_7d"`
	BookingCount7d   int      `json:"booking_count_7d"`
	AvgPrice30d      float64  `json:"avg_price_30d"`
	BookingCount30d  int      `json:"booking_count_30d"`
	PrevBookingPrice *float64 `json:"prev_booking_price"`

	HotelTotalRooms *int     `json:"hotel_total_rooms"`
	OccupancyRate   *float64 `json:"occupancy_rate"`
}

type Frame struct {
	Rows   []Row
	Stages Stage
}

func NewFrame(recs []batch.Record) Frame {
	rows := make([]Row, len(recs))
	for i, r := range recs {
		rows[i] = Row{Record: r}
	}
	return Frame{Rows: rows}
}

func (f Frame) Has(s Stage) bool { return f.Stages&s != 0 }

// Records strips the engineered columns.
func (f Frame) Records() []batch.Record {
	out := make([]batch.Record, len(f.Rows))
	for i, r := range f.Rows {
		out[i] = r.Record
	}
	return out
}

func (f Frame) clone() Frame {
	rows := make([]Row, len(f.Rows))
	copy(rows, f.Rows)
	return Frame{Rows: rows, Stages: f.Stages}
}

var groupColumns = []struct {
	group string
	stage Stage
	cols  []string
}{
	{"time_features", StageTime, []string{
		"day_of_week", "day_of_month", "month", "quarter", "year", "week_of_year",
		"is_weekend", "season", "is_peak_season", "is_holiday_season",
	}},
	{"stay_features", StageStay, []string{"length_of_stay", "stay_category", "lead_time_days", "is_last_minute"}},
	{"pricing_features", StagePricing, []string{"price_per_night", "discount_pct", "price_category"}},
	{"aggregated_features", StageAggregated, []string{
		"avg_price_7d", "booking_count_7d", "avg_price_30d", "booking_count_30d", "prev_booking_price",
	}},
	{"occupancy_features", StageOccupancy, []string{"hotel_total_rooms", "occupancy_rate"}},
}

// Summary is an observability view of which engineered columns a frame carries.
type Summary struct {
	TotalFeatures int                 `json:"total_features"`
	FeatureGroups map[string]int      `json:"feature_groups"`
	FeatureList   map[string][]string `json:"feature_list"`
}

func Summarize(f Frame) Summary {
	s := Summary{
		TotalFeatures: len(batch.ProjectionColumns),
		FeatureGroups: make(map[string]int, len(groupColumns)),
		FeatureList:   make(map[string][]string, len(groupColumns)),
	}
	for _, g := range groupColumns {
		cols := []string{}
		if f.Has(g.stage) {
			cols = append(cols, g.cols...)
		}
		s.FeatureList[g.group] = cols
		s.FeatureGroups[g.group] = len(cols)
		s.TotalFeatures += len(cols)
	}
	return s
}
