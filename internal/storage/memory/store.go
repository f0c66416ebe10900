// Package memory is an in-process implementation of the domain store ports.
// It mirrors the MySQL schema constraints: unique hotel names, unique
// (hotel_id, room_id, check_in_date) bookings, foreign keys on hotel and room,
// and one metrics row per (hotel_id, date).
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"hoteliq/internal/domain"
)

type Store struct {
	mu sync.RWMutex

	hotels   map[int64]domain.Hotel
	rooms    map[int64]domain.Room
	bookings map[int64]domain.Booking
	byKey    map[domain.BookingKey]int64
	metrics  map[metricsKey]domain.DailyMetrics

	nextHotel, nextRoom, nextBooking, nextMetrics int64

	now func() time.Time
}

type metricsKey struct {
	hotel int64
	day   time.Time
}

func New() *Store {
	return &Store{
		hotels:   map[int64]domain.Hotel{},
		rooms:    map[int64]domain.Room{},
		bookings: map[int64]domain.Booking{},
		byKey:    map[domain.BookingKey]int64{},
		metrics:  map[metricsKey]domain.DailyMetrics{},
		now:      time.Now,
	}
}

/********** hotels **********/

func (s *Store) CreateHotel(_ context.Context, h domain.Hotel) (domain.Hotel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, x := range s.hotels {
		if strings.EqualFold(x.Name, h.Name) {
			return domain.Hotel{}, fmt.Errorf("hotel %q: %w", h.Name, domain.ErrConflict)
		}
	}
	s.nextHotel++
	h.ID = s.nextHotel
	if h.CreatedAt.IsZero() {
		h.CreatedAt = s.now().UTC()
	}
	s.hotels[h.ID] = h
	return h, nil
}

func (s *Store) GetHotel(_ context.Context, id int64) (domain.Hotel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.hotels[id]
	if !ok {
		return domain.Hotel{}, domain.ErrNotFound
	}
	return h, nil
}

func (s *Store) GetHotelByName(_ context.Context, name string) (domain.Hotel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, h := range s.hotels {
		if strings.EqualFold(h.Name, name) {
			return h, nil
		}
	}
	return domain.Hotel{}, domain.ErrNotFound
}

func (s *Store) ListHotels(_ context.Context, pg domain.PageQuery) ([]domain.Hotel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Hotel, 0, len(s.hotels))
	for _, h := range s.hotels {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return page(out, pg), nil
}

// DeleteHotel removes the hotel with its rooms, bookings and metrics.
func (s *Store) DeleteHotel(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.hotels[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.hotels, id)
	for rid, r := range s.rooms {
		if r.HotelID == id {
			delete(s.rooms, rid)
		}
	}
	for bid, b := range s.bookings {
		if b.HotelID == id {
			delete(s.bookings, bid)
			delete(s.byKey, b.Key())
		}
	}
	for k := range s.metrics {
		if k.hotel == id {
			delete(s.metrics, k)
		}
	}
	return nil
}

/********** rooms **********/

func (s *Store) CreateRoom(_ context.Context, r domain.Room) (domain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.hotels[r.HotelID]; !ok {
		return domain.Room{}, fmt.Errorf("hotel %d: %w", r.HotelID, domain.ErrNotFound)
	}
	s.nextRoom++
	r.ID = s.nextRoom
	s.rooms[r.ID] = r
	return r, nil
}

func (s *Store) GetRoom(_ context.Context, id int64) (domain.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rooms[id]
	if !ok {
		return domain.Room{}, domain.ErrNotFound
	}
	return r, nil
}

func (s *Store) ListRooms(_ context.Context, q domain.RoomsQuery) ([]domain.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Room
	for _, r := range s.rooms {
		if q.HotelID != nil && r.HotelID != *q.HotelID {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return page(out, q.PageQuery), nil
}

/********** bookings **********/

func (s *Store) CreateBooking(_ context.Context, b domain.Booking) (domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.insertLocked(&b); err != nil {
		return domain.Booking{}, err
	}
	return b, nil
}

// insertLocked enforces the foreign keys and the natural-key uniqueness.
func (s *Store) insertLocked(b *domain.Booking) error {
	if _, ok := s.hotels[b.HotelID]; !ok {
		return fmt.Errorf("hotel %d: %w", b.HotelID, domain.ErrNotFound)
	}
	if _, ok := s.rooms[b.RoomID]; !ok {
		return fmt.Errorf("room %d: %w", b.RoomID, domain.ErrNotFound)
	}
	k := b.Key()
	if _, dup := s.byKey[k]; dup {
		return fmt.Errorf("booking %s: %w", k, domain.ErrConflict)
	}
	s.nextBooking++
	b.ID = s.nextBooking
	b.CheckInDate = domain.Day(b.CheckInDate)
	b.CheckOutDate = domain.Day(b.CheckOutDate)
	s.bookings[b.ID] = *b
	s.byKey[k] = b.ID
	return nil
}

func (s *Store) GetBooking(_ context.Context, id int64) (domain.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bookings[id]
	if !ok {
		return domain.Booking{}, domain.ErrNotFound
	}
	return b, nil
}

func (s *Store) ListBookings(_ context.Context, q domain.BookingsQuery) ([]domain.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Booking
	for _, b := range s.bookings {
		if matches(b, q) {
			out = append(out, b)
		}
	}
	// newest check-in first, as the SQL store orders them
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CheckInDate.Equal(out[j].CheckInDate) {
			return out[i].CheckInDate.After(out[j].CheckInDate)
		}
		return out[i].ID > out[j].ID
	})
	return page(out, q.PageQuery), nil
}

func matches(b domain.Booking, q domain.BookingsQuery) bool {
	if q.HotelID != nil && b.HotelID != *q.HotelID {
		return false
	}
	if len(q.Statuses) > 0 {
		found := false
		for _, st := range q.Statuses {
			if b.Status == st {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if q.CheckInFrom != nil && b.CheckInDate.Before(domain.Day(*q.CheckInFrom)) {
		return false
	}
	if q.CheckOutTo != nil && b.CheckOutDate.After(domain.Day(*q.CheckOutTo)) {
		return false
	}
	return true
}

func (s *Store) UpdateBookingStatus(_ context.Context, id int64, st domain.BookingStatus) (domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return domain.Booking{}, domain.ErrNotFound
	}
	b.Status = st
	s.bookings[id] = b
	return b, nil
}

func (s *Store) ActiveBookings(_ context.Context, hotelID int64, day time.Time) ([]domain.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Booking
	for _, b := range s.bookings {
		if b.HotelID == hotelID && b.Status.Occupies() && b.ActiveOn(day) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) CountArrivals(_ context.Context, hotelID int64, day time.Time) (domain.ArrivalCounts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d := domain.Day(day)
	var c domain.ArrivalCounts
	for _, b := range s.bookings {
		if b.HotelID != hotelID || !b.CheckInDate.Equal(d) {
			continue
		}
		c.Total++
		if b.Status == domain.StatusCancelled {
			c.Cancelled++
		}
	}
	return c, nil
}

func (s *Store) BookingSpan(_ context.Context) (first, last time.Time, ok bool, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.bookings {
		if !ok || b.CheckInDate.Before(first) {
			first = b.CheckInDate
		}
		if !ok || b.CheckOutDate.After(last) {
			last = b.CheckOutDate
		}
		ok = true
	}
	return first, last, ok, nil
}

/********** metrics **********/

func (s *Store) UpsertDailyMetrics(_ context.Context, m domain.DailyMetrics) (domain.DailyMetrics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.hotels[m.HotelID]; !ok {
		return domain.DailyMetrics{}, fmt.Errorf("hotel %d: %w", m.HotelID, domain.ErrNotFound)
	}
	m.Date = domain.Day(m.Date)
	k := metricsKey{m.HotelID, m.Date}
	if prev, ok := s.metrics[k]; ok {
		m.ID = prev.ID
	} else {
		s.nextMetrics++
		m.ID = s.nextMetrics
	}
	s.metrics[k] = m
	return m, nil
}

func (s *Store) ListDailyMetrics(_ context.Context, hotelID int64, from, to time.Time) ([]domain.DailyMetrics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	from, to = domain.Day(from), domain.Day(to)
	var out []domain.DailyMetrics
	for k, m := range s.metrics {
		if k.hotel == hotelID && !k.day.Before(from) && !k.day.After(to) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

/********** stats **********/

func (s *Store) Counts(_ context.Context) (domain.StoreCounts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := domain.StoreCounts{Hotels: len(s.hotels), Rooms: len(s.rooms), Bookings: len(s.bookings)}
	for _, b := range s.bookings {
		if b.Status == domain.StatusConfirmed {
			c.ActiveBookings++
		}
	}
	return c, nil
}

func (s *Store) SumTotalRooms(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, h := range s.hotels {
		n += h.TotalRooms
	}
	return n, nil
}

func page[T any](xs []T, pg domain.PageQuery) []T {
	if pg.Offset > 0 {
		if pg.Offset >= len(xs) {
			return []T{}
		}
		xs = xs[pg.Offset:]
	}
	if pg.Limit > 0 && pg.Limit < len(xs) {
		xs = xs[:pg.Limit]
	}
	if xs == nil {
		return []T{}
	}
	return xs
}

var _ domain.Store = (*Store)(nil)
