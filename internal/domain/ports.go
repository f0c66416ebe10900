package domain

import (
	"context"
	"time"
)

type HotelRepository interface {
	CreateHotel(ctx context.Context, h Hotel) (Hotel, error)
	GetHotel(ctx context.Context, id int64) (Hotel, error)
	GetHotelByName(ctx context.Context, name string) (Hotel, error)
	ListHotels(ctx context.Context, pg PageQuery) ([]Hotel, error)
	DeleteHotel(ctx context.Context, id int64) error
}

type RoomRepository interface {
	CreateRoom(ctx context.Context, r Room) (Room, error)
	GetRoom(ctx context.Context, id int64) (Room, error)
	ListRooms(ctx context.Context, q RoomsQuery) ([]Room, error)
}

type BookingRepository interface {
	CreateBooking(ctx context.Context, b Booking) (Booking, error)
	GetBooking(ctx context.Context, id int64) (Booking, error)
	ListBookings(ctx context.Context, q BookingsQuery) ([]Booking, error)
	UpdateBookingStatus(ctx context.Context, id int64, s BookingStatus) (Booking, error)

	// ActiveBookings returns bookings of hotelID occupying a room on the night of day
	// (check_in <= day < check_out, status confirmed or completed).
	ActiveBookings(ctx context.Context, hotelID int64, day time.Time) ([]Booking, error)
	// CountArrivals counts bookings of hotelID whose check-in is exactly day.
	CountArrivals(ctx context.Context, hotelID int64, day time.Time) (ArrivalCounts, error)
	// BookingSpan returns the earliest check-in and latest check-out over all bookings.
	// ok is false when there are no bookings.
	BookingSpan(ctx context.Context) (first, last time.Time, ok bool, err error)

	// BeginLoad opens a unit of work used by the pipeline loader for one batch.
	BeginLoad(ctx context.Context) (LoadTx, error)
}

// LoadTx is one committed-or-rolled-back batch of booking inserts.
type LoadTx interface {
	Exists(ctx context.Context, key BookingKey) (bool, error)
	Insert(ctx context.Context, b Booking) error
	Commit() error
	Rollback() error
}

type MetricsRepository interface {
	// UpsertDailyMetrics replaces the snapshot for (m.HotelID, m.Date) or inserts it.
	UpsertDailyMetrics(ctx context.Context, m DailyMetrics) (DailyMetrics, error)
	ListDailyMetrics(ctx context.Context, hotelID int64, from, to time.Time) ([]DailyMetrics, error)
}

type StatsRepository interface {
	Counts(ctx context.Context) (StoreCounts, error)
	SumTotalRooms(ctx context.Context) (int, error)
}

// Store is everything the services need from persistence.
type Store interface {
	HotelRepository
	RoomRepository
	BookingRepository
	MetricsRepository
	StatsRepository
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// Read models & queries
type PageQuery struct {
	Offset int
	Limit  int
}

type RoomsQuery struct {
	HotelID *int64
	PageQuery
}

type BookingsQuery struct {
	HotelID     *int64
	Statuses    []BookingStatus
	CheckInFrom *time.Time
	CheckOutTo  *time.Time
	PageQuery   // Limit 0 means no limit
}

type StoreCounts struct {
	Hotels         int `json:"total_hotels"`
	Rooms          int `json:"total_rooms"`
	Bookings       int `json:"total_bookings"`
	ActiveBookings int `json:"active_bookings"`
}
