package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hoteliq/internal/domain"
)

const DefaultWindowDays = 180

type RevenueQuery struct {
	HotelID *int64
	Start   *time.Time
	End     *time.Time
}

type RevenueReport struct {
	TotalRevenue     float64 `json:"total_revenue"`
	TotalBookings    int     `json:"total_bookings"`
	AverageDailyRate float64 `json:"average_daily_rate"`
	OccupancyRate    float64 `json:"occupancy_rate"`
	PeriodStart      *string `json:"period_start"`
	PeriodEnd        *string `json:"period_end"`
}

type DailyStats struct {
	Date          string  `json:"date"`
	HotelID       int64   `json:"hotel_id"`
	RoomsOccupied int     `json:"rooms_occupied"`
	TotalRooms    int     `json:"total_rooms"`
	OccupancyRate float64 `json:"occupancy_rate"`
	DailyRevenue  float64 `json:"daily_revenue"`
}

type SystemSummary struct {
	domain.StoreCounts
	CurrentMonthRevenue   float64 `json:"current_month_revenue"`
	CurrentMonthOccupancy float64 `json:"current_month_occupancy"`
}

// AnalyticsService answers period and per-day revenue questions straight
// from bookings, without the materialized daily metrics.
type AnalyticsService struct {
	store      domain.Store
	windowDays int
	rt         readThrough
}

// NewAnalyticsService uses windowDays as the occupancy period when a query
// has no explicit start and end.
func NewAnalyticsService(s domain.Store, c domain.Cache, ttl time.Duration, windowDays int) *AnalyticsService {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	return &AnalyticsService{store: s, windowDays: windowDays, rt: readThrough{cache: c, ttl: ttl}}
}

func (s *AnalyticsService) Revenue(ctx context.Context, q RevenueQuery) (RevenueReport, error) {
	key := fmt.Sprintf("analytics:revenue:%s:%s:%s", optID(q.HotelID), optDay(q.Start), optDay(q.End))
	return cached(ctx, &s.rt, key, func() (RevenueReport, error) {
		return s.revenue(ctx, q)
	})
}

func (s *AnalyticsService) revenue(ctx context.Context, q RevenueQuery) (RevenueReport, error) {
	out := RevenueReport{PeriodStart: dayPtr(q.Start), PeriodEnd: dayPtr(q.End)}

	bs, err := s.store.ListBookings(ctx, domain.BookingsQuery{
		HotelID:     q.HotelID,
		Statuses:    domain.OccupyingStatuses,
		CheckInFrom: q.Start,
		CheckOutTo:  q.End,
	})
	if err != nil {
		return out, err
	}
	if len(bs) == 0 {
		return out, nil
	}

	var revenue float64
	var nights int
	for _, b := range bs {
		revenue += b.BookingPrice
		nights += b.Nights()
	}

	rooms, err := s.totalRooms(ctx, q.HotelID)
	if err != nil {
		return out, err
	}
	days := s.windowDays
	if q.Start != nil && q.End != nil {
		days = domain.DaysBetween(*q.Start, *q.End)
	}

	out.TotalRevenue = domain.Round2(revenue)
	out.TotalBookings = len(bs)
	if nights > 0 {
		out.AverageDailyRate = domain.Round2(revenue / float64(nights))
	}
	if avail := rooms * days; avail > 0 {
		out.OccupancyRate = domain.Round2(float64(nights) / float64(avail) * 100)
	}
	return out, nil
}

func (s *AnalyticsService) totalRooms(ctx context.Context, hotelID *int64) (int, error) {
	if hotelID == nil {
		return s.store.SumTotalRooms(ctx)
	}
	h, err := s.store.GetHotel(ctx, *hotelID)
	if errors.Is(err, domain.ErrNotFound) {
		return 0, fmt.Errorf("hotel %d: %w", *hotelID, domain.ErrNotFound)
	}
	return h.TotalRooms, err
}

// Daily reports occupancy and prorated revenue for one hotel night.
func (s *AnalyticsService) Daily(ctx context.Context, hotelID int64, day time.Time) (DailyStats, error) {
	day = domain.Day(day)
	rooms, err := s.totalRooms(ctx, &hotelID)
	if err != nil {
		return DailyStats{}, err
	}
	active, err := s.store.ActiveBookings(ctx, hotelID, day)
	if err != nil {
		return DailyStats{}, err
	}

	var revenue float64
	for _, b := range active {
		if n := b.Nights(); n > 0 {
			revenue += b.BookingPrice / float64(n)
		}
	}
	out := DailyStats{
		Date:          day.Format(domain.DateLayout),
		HotelID:       hotelID,
		RoomsOccupied: len(active),
		TotalRooms:    rooms,
		DailyRevenue:  domain.Round2(revenue),
	}
	if rooms > 0 {
		out.OccupancyRate = domain.Round2(float64(len(active)) / float64(rooms) * 100)
	}
	return out, nil
}

// Summary reports store totals plus month-to-date revenue and occupancy as of today.
func (s *AnalyticsService) Summary(ctx context.Context, today time.Time) (SystemSummary, error) {
	counts, err := s.store.Counts(ctx)
	if err != nil {
		return SystemSummary{}, err
	}
	today = domain.Day(today)
	first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	rev, err := s.revenue(ctx, RevenueQuery{Start: &first, End: &today})
	if err != nil {
		return SystemSummary{}, err
	}
	return SystemSummary{
		StoreCounts:           counts,
		CurrentMonthRevenue:   rev.TotalRevenue,
		CurrentMonthOccupancy: rev.OccupancyRate,
	}, nil
}

func dayPtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(domain.DateLayout)
	return &s
}

func optDay(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(domain.DateLayout)
}

func optID(id *int64) string {
	if id == nil {
		return "all"
	}
	return fmt.Sprint(*id)
}
