package quality

import (
	"fmt"
	"strings"
	"time"

	"hoteliq/internal/batch"
	"hoteliq/internal/domain"
)

// Clean turns a validated table into typed records: text cells are trimmed,
// optional fields default (booking_source "direct", status "confirmed",
// booking_date now), and rows repeating an earlier (hotel_id, room_id,
// check_in_date) key are dropped. Input order is preserved.
func Clean(t *batch.Table, now time.Time) ([]batch.Record, error) {
	out := make([]batch.Record, 0, t.Len())
	seen := make(map[domain.BookingKey]struct{}, t.Len())

	for i, raw := range t.Rows {
		row := trimRow(raw)
		rec, err := recordFromRow(row, now)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w: %v", i+1, domain.ErrInvalidInput, err)
		}
		k := rec.Key()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, rec)
	}
	return out, nil
}

func trimRow(r batch.Row) batch.Row {
	out := make(batch.Row, len(r))
	for k, v := range r {
		out[k] = strings.TrimSpace(v)
	}
	return out
}

func recordFromRow(row batch.Row, now time.Time) (batch.Record, error) {
	var (
		rec batch.Record
		err error
	)
	if rec.HotelID, err = batch.ParseInt(row[batch.ColHotelID]); err != nil {
		return rec, fmt.Errorf("%s: %w", batch.ColHotelID, err)
	}
	if rec.RoomID, err = batch.ParseInt(row[batch.ColRoomID]); err != nil {
		return rec, fmt.Errorf("%s: %w", batch.ColRoomID, err)
	}
	if rec.CheckIn, err = batch.ParseDate(row[batch.ColCheckIn]); err != nil {
		return rec, fmt.Errorf("%s: %w", batch.ColCheckIn, err)
	}
	if rec.CheckOut, err = batch.ParseDate(row[batch.ColCheckOut]); err != nil {
		return rec, fmt.Errorf("%s: %w", batch.ColCheckOut, err)
	}
	guests, err := batch.ParseInt(row[batch.ColNumGuests])
	if err != nil {
		return rec, fmt.Errorf("%s: %w", batch.ColNumGuests, err)
	}
	rec.NumGuests = int(guests)
	if rec.BookingPrice, err = batch.ParseFloat(row[batch.ColBookingPrice]); err != nil {
		return rec, fmt.Errorf("%s: %w", batch.ColBookingPrice, err)
	}
	if rec.BasePrice, err = batch.ParseFloat(row[batch.ColBasePrice]); err != nil {
		return rec, fmt.Errorf("%s: %w", batch.ColBasePrice, err)
	}

	rec.GuestName = row[batch.ColGuestName]
	rec.GuestEmail = row[batch.ColGuestEmail]

	rec.BookingSource = domain.DefaultBookingSource
	if v, ok := row.Cell(batch.ColBookingSource); ok {
		rec.BookingSource = v
	}
	rec.Status = domain.DefaultBookingStatus
	if v, ok := row.Cell(batch.ColStatus); ok {
		rec.Status = domain.BookingStatus(strings.ToLower(v))
	}
	rec.BookingDate = now.UTC()
	if v, ok := row.Cell(batch.ColBookingDate); ok {
		if rec.BookingDate, err = batch.ParseTime(v); err != nil {
			return rec, fmt.Errorf("%s: %w", batch.ColBookingDate, err)
		}
	}
	return rec, nil
}
