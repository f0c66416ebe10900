package domain

import "time"

// DailyMetrics is the materialized snapshot for one (hotel, date) cell.
type DailyMetrics struct {
	ID                      int64     `json:"id"`
	HotelID                 int64     `json:"hotel_id"`
	Date                    time.Time `json:"date"`
	OccupancyRate           float64   `json:"occupancy_rate"`
	RoomsOccupied           int       `json:"rooms_occupied"`
	RoomsAvailable          int       `json:"rooms_available"`
	TotalRevenue            float64   `json:"total_revenue"`
	AverageDailyRate        float64   `json:"average_daily_rate"`
	RevenuePerAvailableRoom float64   `json:"revenue_per_available_room"`
	BookingCount            int       `json:"booking_count"`
	CancellationCount       int       `json:"cancellation_count"`
	CalculatedAt            time.Time `json:"calculated_at"`
}

type ArrivalCounts struct {
	Total     int
	Cancelled int
}
