package app

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"hoteliq/internal/domain"
)

// Cache key prefixes. Lists are keyed by their paging, so writes drop them by prefix.
const (
	keyHotel   = "hotel:%d"
	prefHotels = "hotels:"
	keyRoom    = "room:%d"
	prefRooms  = "rooms:"
	keyBooking = "booking:%d"
)

// prefixDeleter is implemented by caches that can drop a key family.
type prefixDeleter interface {
	DelPrefix(ctx context.Context, prefix string) error
}

// readThrough is a cache in front of store loads. A nil cache loads directly.
type readThrough struct {
	cache domain.Cache
	ttl   time.Duration
	group singleflight.Group
}

// cached serves key from the cache, collapsing concurrent misses into one load.
func cached[T any](ctx context.Context, rt *readThrough, key string, load func() (T, error)) (T, error) {
	var out T
	if rt.cache != nil {
		if ok, _ := rt.cache.Get(ctx, key, &out); ok {
			return out, nil
		}
	}
	v, err, _ := rt.group.Do(key, func() (any, error) {
		x, err := load()
		if err != nil {
			return nil, err
		}
		if rt.cache != nil {
			_ = rt.cache.Set(ctx, key, x, int(rt.ttl.Seconds()))
		}
		return x, nil
	})
	if err != nil {
		return out, err
	}
	return v.(T), nil
}

type QueryService struct {
	store domain.Store
	rt    readThrough
}

func NewQueryService(s domain.Store, c domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{store: s, rt: readThrough{cache: c, ttl: ttl}}
}

func (s *QueryService) GetHotel(ctx context.Context, id int64) (domain.Hotel, error) {
	return cached(ctx, &s.rt, fmt.Sprintf(keyHotel, id), func() (domain.Hotel, error) {
		return s.store.GetHotel(ctx, id)
	})
}

func (s *QueryService) ListHotels(ctx context.Context, pg domain.PageQuery) ([]domain.Hotel, error) {
	key := fmt.Sprintf("%s%d:%d", prefHotels, pg.Offset, pg.Limit)
	return cached(ctx, &s.rt, key, func() ([]domain.Hotel, error) {
		return s.store.ListHotels(ctx, pg)
	})
}

func (s *QueryService) GetRoom(ctx context.Context, id int64) (domain.Room, error) {
	return cached(ctx, &s.rt, fmt.Sprintf(keyRoom, id), func() (domain.Room, error) {
		return s.store.GetRoom(ctx, id)
	})
}

func (s *QueryService) ListRooms(ctx context.Context, q domain.RoomsQuery) ([]domain.Room, error) {
	hotel := "all"
	if q.HotelID != nil {
		hotel = fmt.Sprint(*q.HotelID)
	}
	key := fmt.Sprintf("%s%s:%d:%d", prefRooms, hotel, q.Offset, q.Limit)
	return cached(ctx, &s.rt, key, func() ([]domain.Room, error) {
		return s.store.ListRooms(ctx, q)
	})
}

func (s *QueryService) GetBooking(ctx context.Context, id int64) (domain.Booking, error) {
	return cached(ctx, &s.rt, fmt.Sprintf(keyBooking, id), func() (domain.Booking, error) {
		return s.store.GetBooking(ctx, id)
	})
}

// ListBookings is not cached: the pipeline writes bookings outside the command path.
func (s *QueryService) ListBookings(ctx context.Context, q domain.BookingsQuery) ([]domain.Booking, error) {
	return s.store.ListBookings(ctx, q)
}

// DailyMetrics is read through to the store since the calculator rewrites it.
func (s *QueryService) DailyMetrics(ctx context.Context, hotelID int64, from, to time.Time) ([]domain.DailyMetrics, error) {
	if _, err := s.GetHotel(ctx, hotelID); err != nil {
		return nil, err
	}
	return s.store.ListDailyMetrics(ctx, hotelID, from, to)
}
