// Package batch holds the tabular form of booking batches as they enter the
// pipeline: raw string cells keyed by column name, plus the typed record the
// cleaner produces from them.
package batch

import (
	"time"

	"hoteliq/internal/domain"
)

const (
	ColHotelID       = "hotel_id"
	ColRoomID        = "room_id"
	ColCheckIn       = "check_in_date"
	ColCheckOut      = "check_out_date"
	ColGuestName     = "guest_name"
	ColGuestEmail    = "guest_email"
	ColNumGuests     = "num_guests"
	ColBookingPrice  = "booking_price"
	ColBasePrice     = "base_price"
	ColBookingDate   = "booking_date"
	ColBookingSource = "booking_source"
	ColStatus        = "status"
)

var RequiredColumns = []string{
	ColHotelID, ColRoomID, ColCheckIn, ColCheckOut,
	ColGuestName, ColNumGuests, ColBookingPrice, ColBasePrice,
}

var OptionalColumns = []string{
	ColGuestEmail, ColBookingSource, ColStatus, ColBookingDate,
}

// ProjectionColumns are the persisted booking fields, in store-extraction order.
var ProjectionColumns = []string{
	ColHotelID, ColRoomID, ColCheckIn, ColCheckOut,
	ColGuestName, ColGuestEmail, ColNumGuests, ColBookingPrice,
	ColBasePrice, ColBookingDate, ColBookingSource, ColStatus,
}

// Row maps column name to raw cell text. A missing key or an empty cell is null.
type Row map[string]string

// Cell returns the cell and whether it is non-null.
func (r Row) Cell(col string) (string, bool) {
	v, ok := r[col]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

type Table struct {
	Columns []string
	Rows    []Row
}

func (t *Table) Len() int { return len(t.Rows) }

func (t *Table) Has(col string) bool {
	for _, c := range t.Columns {
		if c == col {
			return true
		}
	}
	return false
}

// Head returns a table sharing t's columns with at most n rows.
func (t *Table) Head(n int) *Table {
	if n < 0 || n >= len(t.Rows) {
		return t
	}
	return &Table{Columns: t.Columns, Rows: t.Rows[:n]}
}

// Record is a cleaned, typed booking row.
type Record struct {
	HotelID       int64                `json:"hotel_id"`
	RoomID        int64                `json:"room_id"`
	CheckIn       time.Time            `json:"check_in_date"`
	CheckOut      time.Time            `json:"check_out_date"`
	GuestName     string               `json:"guest_name"`
	GuestEmail    string               `json:"guest_email"`
	NumGuests     int                  `json:"num_guests"`
	BookingPrice  float64              `json:"booking_price"`
	BasePrice     float64              `json:"base_price"`
	BookingDate   time.Time            `json:"booking_date"`
	BookingSource string               `json:"booking_source"`
	Status        domain.BookingStatus `json:"status"`
}

func (r Record) Key() domain.BookingKey {
	return domain.BookingKey{HotelID: r.HotelID, RoomID: r.RoomID, CheckIn: domain.Day(r.CheckIn)}
}
