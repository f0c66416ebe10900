package storage

import (
	"context"
	"errors"
	"testing"

	"hoteliq/internal/domain"
)

func TestOpen_Memory(t *testing.T) {
	s, c, err := Open(context.Background(), DriverMemory, "")
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	if _, err := s.CreateHotel(context.Background(), domain.Hotel{Name: "Leela", Location: "Goa", TotalRooms: 3}); err != nil {
		t.Fatal(err)
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	if _, _, err := Open(context.Background(), "sqlite", ""); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("err = %v", err)
	}
}
