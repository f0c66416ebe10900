package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"hoteliq/internal/adapters/observability"
	"hoteliq/internal/domain"
)

// MetricsCalculator materializes one DailyMetrics snapshot per (hotel, date).
type MetricsCalculator struct {
	store domain.Store
	now   func() time.Time
}

func NewMetricsCalculator(s domain.Store) *MetricsCalculator {
	return &MetricsCalculator{store: s, now: time.Now}
}

// Compute recalculates and upserts the snapshot for hotelID on day.
// Revenue of a multi-night booking is split evenly over its nights.
func (c *MetricsCalculator) Compute(ctx context.Context, hotelID int64, day time.Time) (domain.DailyMetrics, error) {
	day = domain.Day(day)

	h, err := c.store.GetHotel(ctx, hotelID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.DailyMetrics{}, fmt.Errorf("hotel %d: %w", hotelID, domain.ErrNotFound)
		}
		return domain.DailyMetrics{}, err
	}

	active, err := c.store.ActiveBookings(ctx, hotelID, day)
	if err != nil {
		return domain.DailyMetrics{}, fmt.Errorf("active bookings: %w", err)
	}
	arrivals, err := c.store.CountArrivals(ctx, hotelID, day)
	if err != nil {
		return domain.DailyMetrics{}, fmt.Errorf("arrivals: %w", err)
	}

	occupied := len(active)
	available := h.TotalRooms

	var revenue float64
	for _, b := range active {
		if n := b.Nights(); n > 0 {
			revenue += b.BookingPrice / float64(n)
		}
	}

	m := domain.DailyMetrics{
		HotelID:           hotelID,
		Date:              day,
		RoomsOccupied:     occupied,
		RoomsAvailable:    available,
		TotalRevenue:      domain.Round2(revenue),
		BookingCount:      arrivals.Total,
		CancellationCount: arrivals.Cancelled,
		CalculatedAt:      c.now().UTC(),
	}
	if available > 0 {
		m.OccupancyRate = domain.Round2(float64(occupied) / float64(available) * 100)
		m.RevenuePerAvailableRoom = domain.Round2(revenue / float64(available))
	}
	if occupied > 0 {
		m.AverageDailyRate = domain.Round2(revenue / float64(occupied))
	}

	saved, err := c.store.UpsertDailyMetrics(ctx, m)
	if err != nil {
		return domain.DailyMetrics{}, fmt.Errorf("upsert daily metrics: %w", err)
	}
	observability.ObserveDailyMetrics()
	return saved, nil
}

// ComputeRange runs Compute for every day in [start, end]. The first failure
// aborts the rest of the range.
func (c *MetricsCalculator) ComputeRange(ctx context.Context, hotelID int64, start, end time.Time) ([]domain.DailyMetrics, error) {
	start, end = domain.Day(start), domain.Day(end)
	if end.Before(start) {
		return nil, fmt.Errorf("range %s..%s: %w", start.Format(domain.DateLayout), end.Format(domain.DateLayout), domain.ErrInvalidInput)
	}

	out := make([]domain.DailyMetrics, 0, domain.DaysBetween(start, end)+1)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		m, err := c.Compute(ctx, hotelID, d)
		if err != nil {
			return out, fmt.Errorf("compute %s: %w", d.Format(domain.DateLayout), err)
		}
		out = append(out, m)
	}
	return out, nil
}

type RecomputeSummary struct {
	HotelsProcessed   int    `json:"hotels_processed"`
	MetricsCalculated int    `json:"metrics_calculated"`
	Start             string `json:"start,omitempty"`
	End               string `json:"end,omitempty"`
	Message           string `json:"message,omitempty"`
}

// RecomputeAll recomputes every hotel over the span of all stored bookings.
func (c *MetricsCalculator) RecomputeAll(ctx context.Context) (RecomputeSummary, error) {
	first, last, ok, err := c.store.BookingSpan(ctx)
	if err != nil {
		return RecomputeSummary{}, fmt.Errorf("booking span: %w", err)
	}
	if !ok {
		return RecomputeSummary{Message: "no bookings found"}, nil
	}

	hotels, err := c.store.ListHotels(ctx, domain.PageQuery{})
	if err != nil {
		return RecomputeSummary{}, fmt.Errorf("list hotels: %w", err)
	}

	sum := RecomputeSummary{
		Start: first.Format(domain.DateLayout),
		End:   last.Format(domain.DateLayout),
	}
	for _, h := range hotels {
		ms, err := c.ComputeRange(ctx, h.ID, first, last)
		sum.MetricsCalculated += len(ms)
		if err != nil {
			return sum, fmt.Errorf("hotel %d: %w", h.ID, err)
		}
		sum.HotelsProcessed++
		log.Info().Int64("hotel_id", h.ID).Int("days", len(ms)).Msg("daily metrics recomputed")
	}
	sum.Message = "metrics recalculated"
	return sum, nil
}
