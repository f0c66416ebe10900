package domain

import (
	"fmt"
	"time"
)

type BookingStatus string

const (
	StatusConfirmed BookingStatus = "confirmed"
	StatusCancelled BookingStatus = "cancelled"
	StatusCompleted BookingStatus = "completed"
)

// OccupyingStatuses are the statuses that hold a room on a night.
var OccupyingStatuses = []BookingStatus{StatusConfirmed, StatusCompleted}

func (s BookingStatus) Valid() bool {
	switch s {
	case StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

func (s BookingStatus) Occupies() bool {
	return s == StatusConfirmed || s == StatusCompleted
}

const (
	DefaultBookingSource = "direct"
	DefaultBookingStatus = StatusConfirmed
)

// Booking dates (CheckInDate, CheckOutDate) are calendar days at UTC midnight.
type Booking struct {
	ID            int64         `json:"id"`
	HotelID       int64         `json:"hotel_id"`
	RoomID        int64         `json:"room_id"`
	CheckInDate   time.Time     `json:"check_in_date"`
	CheckOutDate  time.Time     `json:"check_out_date"`
	GuestName     string        `json:"guest_name"`
	GuestEmail    string        `json:"guest_email,omitempty"`
	NumGuests     int           `json:"num_guests"`
	BookingPrice  float64       `json:"booking_price"`
	BasePrice     float64       `json:"base_price"`
	BookingDate   time.Time     `json:"booking_date"`
	BookingSource string        `json:"booking_source"`
	Status        BookingStatus `json:"status"`
}

func (b Booking) Key() BookingKey {
	return BookingKey{HotelID: b.HotelID, RoomID: b.RoomID, CheckIn: Day(b.CheckInDate)}
}

// Nights is the number of nights between check-in and check-out.
func (b Booking) Nights() int {
	return DaysBetween(b.CheckInDate, b.CheckOutDate)
}

// ActiveOn reports whether the booking occupies a room on the night of day.
func (b Booking) ActiveOn(day time.Time) bool {
	d := Day(day)
	return !Day(b.CheckInDate).After(d) && Day(b.CheckOutDate).After(d)
}

// BookingKey is the natural dedup key of a booking.
type BookingKey struct {
	HotelID int64
	RoomID  int64
	CheckIn time.Time
}

func (k BookingKey) String() string {
	return fmt.Sprintf("%d/%d/%s", k.HotelID, k.RoomID, k.CheckIn.Format(DateLayout))
}
