package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"hoteliq/internal/domain"
)

type NewHotel struct {
	Name       string
	Location   string
	TotalRooms int
	StarRating *float64
}

type NewRoom struct {
	HotelID      int64
	RoomNumber   string
	RoomType     string
	BasePrice    float64
	MaxOccupancy int
	IsAvailable  bool
}

type NewBooking struct {
	HotelID       int64
	RoomID        int64
	CheckInDate   time.Time
	CheckOutDate  time.Time
	GuestName     string
	GuestEmail    string
	NumGuests     int
	BookingPrice  float64
	BasePrice     float64
	BookingSource string
}

// CommandService performs writes and drops the cache entries they invalidate.
type CommandService struct {
	store domain.Store
	cache domain.Cache
	now   func() time.Time
}

func NewCommandService(s domain.Store, c domain.Cache) *CommandService {
	return &CommandService{store: s, cache: c, now: time.Now}
}

func (s *CommandService) CreateHotel(ctx context.Context, in NewHotel) (domain.Hotel, error) {
	name := strings.TrimSpace(in.Name)
	if _, err := s.store.GetHotelByName(ctx, name); err == nil {
		return domain.Hotel{}, fmt.Errorf("hotel %q already exists: %w", name, domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return domain.Hotel{}, err
	}

	h, err := s.store.CreateHotel(ctx, domain.Hotel{
		Name:       name,
		Location:   strings.TrimSpace(in.Location),
		TotalRooms: in.TotalRooms,
		StarRating: in.StarRating,
		CreatedAt:  s.now().UTC(),
	})
	if err != nil {
		return domain.Hotel{}, err
	}
	s.invalidatePrefix(ctx, prefHotels)
	log.Info().Int64("hotel_id", h.ID).Str("name", h.Name).Msg("hotel created")
	return h, nil
}

func (s *CommandService) DeleteHotel(ctx context.Context, id int64) error {
	if err := s.store.DeleteHotel(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, fmt.Sprintf(keyHotel, id))
	s.invalidatePrefix(ctx, prefHotels)
	s.invalidatePrefix(ctx, prefRooms)
	log.Info().Int64("hotel_id", id).Msg("hotel deleted")
	return nil
}

func (s *CommandService) CreateRoom(ctx context.Context, in NewRoom) (domain.Room, error) {
	if _, err := s.store.GetHotel(ctx, in.HotelID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Room{}, fmt.Errorf("hotel %d: %w", in.HotelID, domain.ErrNotFound)
		}
		return domain.Room{}, err
	}
	r, err := s.store.CreateRoom(ctx, domain.Room{
		HotelID:      in.HotelID,
		RoomNumber:   in.RoomNumber,
		RoomType:     in.RoomType,
		BasePrice:    in.BasePrice,
		MaxOccupancy: in.MaxOccupancy,
		IsAvailable:  in.IsAvailable,
	})
	if err != nil {
		return domain.Room{}, err
	}
	s.invalidatePrefix(ctx, prefRooms)
	return r, nil
}

func (s *CommandService) CreateBooking(ctx context.Context, in NewBooking) (domain.Booking, error) {
	in.CheckInDate, in.CheckOutDate = domain.Day(in.CheckInDate), domain.Day(in.CheckOutDate)
	if !in.CheckOutDate.After(in.CheckInDate) {
		return domain.Booking{}, fmt.Errorf("check-out must be after check-in: %w", domain.ErrInvalidInput)
	}

	room, err := s.store.GetRoom(ctx, in.RoomID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Booking{}, fmt.Errorf("room %d: %w", in.RoomID, domain.ErrNotFound)
		}
		return domain.Booking{}, err
	}
	if room.HotelID != in.HotelID {
		return domain.Booking{}, fmt.Errorf("room %d does not belong to hotel %d: %w", in.RoomID, in.HotelID, domain.ErrInvalidInput)
	}

	src := strings.TrimSpace(in.BookingSource)
	if src == "" {
		src = domain.DefaultBookingSource
	}
	return s.store.CreateBooking(ctx, domain.Booking{
		HotelID:       in.HotelID,
		RoomID:        in.RoomID,
		CheckInDate:   in.CheckInDate,
		CheckOutDate:  in.CheckOutDate,
		GuestName:     strings.TrimSpace(in.GuestName),
		GuestEmail:    strings.TrimSpace(in.GuestEmail),
		NumGuests:     in.NumGuests,
		BookingPrice:  in.BookingPrice,
		BasePrice:     in.BasePrice,
		BookingDate:   s.now().UTC(),
		BookingSource: src,
		Status:        domain.DefaultBookingStatus,
	})
}

func (s *CommandService) CancelBooking(ctx context.Context, id int64) (domain.Booking, error) {
	b, err := s.store.UpdateBookingStatus(ctx, id, domain.StatusCancelled)
	if err != nil {
		return domain.Booking{}, err
	}
	s.invalidate(ctx, fmt.Sprintf(keyBooking, id))
	return b, nil
}

func (s *CommandService) invalidate(ctx context.Context, key string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, key); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache invalidation failed")
	}
}

func (s *CommandService) invalidatePrefix(ctx context.Context, prefix string) {
	pd, ok := s.cache.(prefixDeleter)
	if !ok {
		return
	}
	if err := pd.DelPrefix(ctx, prefix); err != nil {
		log.Warn().Err(err).Str("prefix", prefix).Msg("cache invalidation failed")
	}
}
