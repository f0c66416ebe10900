package app

import (
	"context"

	"hoteliq/internal/batch"
	"hoteliq/internal/domain"
)

// bookingFromRecord keeps only the persisted booking fields of a cleaned row.
func bookingFromRecord(r batch.Record) domain.Booking {
	return domain.Booking{
		HotelID:       r.HotelID,
		RoomID:        r.RoomID,
		CheckInDate:   domain.Day(r.CheckIn),
		CheckOutDate:  domain.Day(r.CheckOut),
		GuestName:     r.GuestName,
		GuestEmail:    r.GuestEmail,
		NumGuests:     r.NumGuests,
		BookingPrice:  r.BookingPrice,
		BasePrice:     r.BasePrice,
		BookingDate:   r.BookingDate,
		BookingSource: r.BookingSource,
		Status:        r.Status,
	}
}

// hotelCapacities feeds the occupancy feature stage from the hotel table.
type hotelCapacities struct {
	hotels domain.HotelRepository
}

func (c hotelCapacities) HotelCapacities(ctx context.Context) (map[int64]int, error) {
	hs, err := c.hotels.ListHotels(ctx, domain.PageQuery{})
	if err != nil {
		return nil, err
	}
	out := make(map[int64]int, len(hs))
	for _, h := range hs {
		out[h.ID] = h.TotalRooms
	}
	return out, nil
}
