package batch

import (
	"strconv"
	"time"

	"hoteliq/internal/domain"
)

// FromBookings projects stored bookings onto the batch columns, one row per booking.
func FromBookings(bs []domain.Booking) *Table {
	t := &Table{Columns: ProjectionColumns, Rows: make([]Row, 0, len(bs))}
	for _, b := range bs {
		row := Row{
			ColHotelID:       strconv.FormatInt(b.HotelID, 10),
			ColRoomID:        strconv.FormatInt(b.RoomID, 10),
			ColCheckIn:       b.CheckInDate.Format(domain.DateLayout),
			ColCheckOut:      b.CheckOutDate.Format(domain.DateLayout),
			ColGuestName:     b.GuestName,
			ColGuestEmail:    b.GuestEmail,
			ColNumGuests:     strconv.Itoa(b.NumGuests),
			ColBookingPrice:  strconv.FormatFloat(b.BookingPrice, 'f', -1, 64),
			ColBasePrice:     strconv.FormatFloat(b.BasePrice, 'f', -1, 64),
			ColBookingSource: b.BookingSource,
			ColStatus:        string(b.Status),
		}
		if !b.BookingDate.IsZero() {
			row[ColBookingDate] = b.BookingDate.UTC().Format(time.RFC3339)
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}
