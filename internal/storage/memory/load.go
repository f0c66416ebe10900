package memory

import (
	"context"
	"errors"
	"fmt"

	"hoteliq/internal/domain"
)

var errTxDone = errors.New("memory: transaction already committed or rolled back")

// loadTx stages inserts and applies them atomically on Commit.
type loadTx struct {
	s      *Store
	staged []domain.Booking
	keys   map[domain.BookingKey]struct{}
	done   bool
}

func (s *Store) BeginLoad(context.Context) (domain.LoadTx, error) {
	return &loadTx{s: s, keys: map[domain.BookingKey]struct{}{}}, nil
}

func (tx *loadTx) Exists(_ context.Context, k domain.BookingKey) (bool, error) {
	if tx.done {
		return false, errTxDone
	}
	k.CheckIn = domain.Day(k.CheckIn)
	if _, ok := tx.keys[k]; ok {
		return true, nil
	}
	tx.s.mu.RLock()
	defer tx.s.mu.RUnlock()
	_, ok := tx.s.byKey[k]
	return ok, nil
}

// Insert checks the constraints eagerly so row failures surface per row.
func (tx *loadTx) Insert(_ context.Context, b domain.Booking) error {
	if tx.done {
		return errTxDone
	}
	k := b.Key()
	if _, ok := tx.keys[k]; ok {
		return fmt.Errorf("booking %s: %w", k, domain.ErrConflict)
	}
	tx.s.mu.RLock()
	_, hotelOK := tx.s.hotels[b.HotelID]
	_, roomOK := tx.s.rooms[b.RoomID]
	_, dup := tx.s.byKey[k]
	tx.s.mu.RUnlock()
	switch {
	case !hotelOK:
		return fmt.Errorf("hotel %d: %w", b.HotelID, domain.ErrNotFound)
	case !roomOK:
		return fmt.Errorf("room %d: %w", b.RoomID, domain.ErrNotFound)
	case dup:
		return fmt.Errorf("booking %s: %w", k, domain.ErrConflict)
	}
	tx.keys[k] = struct{}{}
	tx.staged = append(tx.staged, b)
	return nil
}

func (tx *loadTx) Commit() error {
	if tx.done {
		return errTxDone
	}
	tx.done = true

	tx.s.mu.Lock()
	defer tx.s.mu.Unlock()
	// All or nothing: re-check every row before applying any.
	for _, b := range tx.staged {
		if _, dup := tx.s.byKey[b.Key()]; dup {
			return fmt.Errorf("commit booking %s: %w", b.Key(), domain.ErrConflict)
		}
		if _, ok := tx.s.hotels[b.HotelID]; !ok {
			return fmt.Errorf("commit hotel %d: %w", b.HotelID, domain.ErrNotFound)
		}
		if _, ok := tx.s.rooms[b.RoomID]; !ok {
			return fmt.Errorf("commit room %d: %w", b.RoomID, domain.ErrNotFound)
		}
	}
	for i := range tx.staged {
		if err := tx.s.insertLocked(&tx.staged[i]); err != nil {
			return err
		}
	}
	return nil
}

func (tx *loadTx) Rollback() error {
	if tx.done {
		return nil
	}
	tx.done = true
	tx.staged = nil
	return nil
}
