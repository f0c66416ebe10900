package httpserver

import (
	"fmt"
	"net/http"

	"hoteliq/internal/app"
	"hoteliq/internal/domain"
)

type hotelRequest struct {
	Name       string   `json:"name" validate:"required,max=255"`
	Location   string   `json:"location" validate:"required,max=255"`
	TotalRooms int      `json:"total_rooms" validate:"gt=0"`
	StarRating *float64 `json:"star_rating" validate:"omitempty,gte=0,lte=5"`
}

type roomRequest struct {
	HotelID      int64   `json:"hotel_id" validate:"gt=0"`
	RoomNumber   string  `json:"room_number" validate:"required,max=50"`
	RoomType     string  `json:"room_type" validate:"required,max=50"`
	BasePrice    float64 `json:"base_price" validate:"gt=0"`
	MaxOccupancy *int    `json:"max_occupancy" validate:"omitempty,gte=1"`
	IsAvailable  *bool   `json:"is_available"`
}

type bookingRequest struct {
	HotelID       int64   `json:"hotel_id" validate:"gt=0"`
	RoomID        int64   `json:"room_id" validate:"gt=0"`
	CheckInDate   string  `json:"check_in_date" validate:"required,datetime=2006-01-02"`
	CheckOutDate  string  `json:"check_out_date" validate:"required,datetime=2006-01-02"`
	GuestName     string  `json:"guest_name" validate:"required,max=255"`
	GuestEmail    string  `json:"guest_email" validate:"omitempty,email"`
	NumGuests     *int    `json:"num_guests" validate:"omitempty,gte=1"`
	BookingPrice  float64 `json:"booking_price" validate:"gt=0"`
	BasePrice     float64 `json:"base_price" validate:"gt=0"`
	BookingSource string  `json:"booking_source" validate:"omitempty,max=50"`
}

// ---- hotels ----

func (h *Handlers) listHotels(w http.ResponseWriter, r *http.Request) {
	pg, err := queryPage(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out, err := h.Q.ListHotels(r.Context(), pg)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCacheable(w, r, out)
}

func (h *Handlers) createHotel(w http.ResponseWriter, r *http.Request) {
	var req hotelRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	hotel, err := h.C.CreateHotel(r.Context(), app.NewHotel{
		Name:       req.Name,
		Location:   req.Location,
		TotalRooms: req.TotalRooms,
		StarRating: req.StarRating,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, hotel)
}

func (h *Handlers) getHotel(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	hotel, err := h.Q.GetHotel(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCacheable(w, r, hotel)
}

func (h *Handlers) deleteHotel(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.C.DeleteHotel(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- rooms ----

func (h *Handlers) listRooms(w http.ResponseWriter, r *http.Request) {
	hotelID, err := queryID(r, "hotel_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	pg, err := queryPage(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out, err := h.Q.ListRooms(r.Context(), domain.RoomsQuery{HotelID: hotelID, PageQuery: pg})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCacheable(w, r, out)
}

func (h *Handlers) createRoom(w http.ResponseWriter, r *http.Request) {
	var req roomRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	in := app.NewRoom{
		HotelID:      req.HotelID,
		RoomNumber:   req.RoomNumber,
		RoomType:     req.RoomType,
		BasePrice:    req.BasePrice,
		MaxOccupancy: 2,
		IsAvailable:  true,
	}
	if req.MaxOccupancy != nil {
		in.MaxOccupancy = *req.MaxOccupancy
	}
	if req.IsAvailable != nil {
		in.IsAvailable = *req.IsAvailable
	}
	room, err := h.C.CreateRoom(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, room)
}

func (h *Handlers) getRoom(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	room, err := h.Q.GetRoom(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCacheable(w, r, room)
}

// ---- bookings ----

func (h *Handlers) listBookings(w http.ResponseWriter, r *http.Request) {
	q := domain.BookingsQuery{}
	var err error
	if q.HotelID, err = queryID(r, "hotel_id"); err != nil {
		writeError(w, r, err)
		return
	}
	if st := r.URL.Query().Get("status"); st != "" {
		s := domain.BookingStatus(st)
		if !s.Valid() {
			writeError(w, r, fmt.Errorf("unknown status %q: %w", st, domain.ErrInvalidInput))
			return
		}
		q.Statuses = []domain.BookingStatus{s}
	}
	if q.CheckInFrom, err = queryDay(r, "start_date"); err != nil {
		writeError(w, r, err)
		return
	}
	if q.CheckOutTo, err = queryDay(r, "end_date"); err != nil {
		writeError(w, r, err)
		return
	}
	if q.PageQuery, err = queryPage(r); err != nil {
		writeError(w, r, err)
		return
	}
	out, err := h.Q.ListBookings(r.Context(), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) createBooking(w http.ResponseWriter, r *http.Request) {
	var req bookingRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	// the datetime tag has already checked both layouts
	in, _ := domain.ParseDay(req.CheckInDate)
	out, _ := domain.ParseDay(req.CheckOutDate)
	nb := app.NewBooking{
		HotelID:       req.HotelID,
		RoomID:        req.RoomID,
		CheckInDate:   in,
		CheckOutDate:  out,
		GuestName:     req.GuestName,
		GuestEmail:    req.GuestEmail,
		NumGuests:     1,
		BookingPrice:  req.BookingPrice,
		BasePrice:     req.BasePrice,
		BookingSource: req.BookingSource,
	}
	if req.NumGuests != nil {
		nb.NumGuests = *req.NumGuests
	}
	b, err := h.C.CreateBooking(r.Context(), nb)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (h *Handlers) getBooking(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	b, err := h.Q.GetBooking(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCacheable(w, r, b)
}

func (h *Handlers) cancelBooking(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	b, err := h.C.CancelBooking(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}
