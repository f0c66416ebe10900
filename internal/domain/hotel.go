package domain

import "time"

type Hotel struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Location   string    `json:"location"`
	TotalRooms int       `json:"total_rooms"`
	StarRating *float64  `json:"star_rating,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Room belongs to exactly one hotel; the relation is the HotelID foreign key only.
type Room struct {
	ID           int64   `json:"id"`
	HotelID      int64   `json:"hotel_id"`
	RoomNumber   string  `json:"room_number"`
	RoomType     string  `json:"room_type"`
	BasePrice    float64 `json:"base_price"`
	MaxOccupancy int     `json:"max_occupancy"`
	IsAvailable  bool    `json:"is_available"`
}
