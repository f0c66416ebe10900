package app_test

import (
	"context"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"hoteliq/internal/domain"
	"hoteliq/internal/storage/memory"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

// seedStore creates one hotel with totalRooms capacity and `rooms` room rows.
func seedStore(t *testing.T, totalRooms, rooms int) (*memory.Store, domain.Hotel, []domain.Room) {
	t.Helper()
	ctx := context.Background()
	s := memory.New()
	h, err := s.CreateHotel(ctx, domain.Hotel{Name: "Oberoi", Location: "Delhi", TotalRooms: totalRooms})
	if err != nil {
		t.Fatal(err)
	}
	var rs []domain.Room
	for i := 0; i < rooms; i++ {
		r, err := s.CreateRoom(ctx, domain.Room{HotelID: h.ID, RoomNumber: "R", RoomType: "standard", BasePrice: 4000, MaxOccupancy: 2})
		if err != nil {
			t.Fatal(err)
		}
		rs = append(rs, r)
	}
	return s, h, rs
}

func addBooking(t *testing.T, s domain.Store, hotel, room int64, in, out string, price float64, st domain.BookingStatus) domain.Booking {
	t.Helper()
	b, err := s.CreateBooking(context.Background(), domain.Booking{
		HotelID: hotel, RoomID: room,
		CheckInDate: day(in), CheckOutDate: day(out),
		GuestName: "Guest", NumGuests: 2,
		BookingPrice: price, BasePrice: price,
		BookingSource: "direct", Status: st,
	})
	if err != nil {
		t.Fatal(err)
	}
	return b
}

// jsonCache is an in-memory domain.Cache that round-trips values through JSON
// like the redis adapter does.
type jsonCache struct {
	data map[string][]byte
	gets int
	hits int
}

func newJSONCache() *jsonCache { return &jsonCache{data: map[string][]byte{}} }

func (c *jsonCache) Get(_ context.Context, key string, dst any) (bool, error) {
	c.gets++
	b, ok := c.data[key]
	if !ok {
		return false, nil
	}
	c.hits++
	return true, json.Unmarshal(b, dst)
}

func (c *jsonCache) Set(_ context.Context, key string, v any, _ int) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.data[key] = b
	return nil
}

func (c *jsonCache) Del(_ context.Context, key string) error {
	delete(c.data, key)
	return nil
}

func (c *jsonCache) DelPrefix(_ context.Context, prefix string) error {
	for k := range c.data {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			delete(c.data, k)
		}
	}
	return nil
}
