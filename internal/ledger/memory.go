package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/thivyan-jeyamohan/pearlora-travel-webapp-sub001/internal/model"
)

// MemoryStore keeps entries in process memory behind a lock table keyed by
// travel unit id.  Each critical section covers exactly one check-and-write.
// It backs the "memory" ledger backend and the tests.
type MemoryStore struct {
	mu    sync.Mutex // guards slots
	slots map[string]*memorySlot
}

type memorySlot struct {
	mu    sync.Mutex
	entry model.SeatLedgerEntry
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{slots: make(map[string]*memorySlot)}
}

func (s *MemoryStore) slot(id string) (*memorySlot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sl, ok := s.slots[id]
	return sl, ok
}

func (s *MemoryStore) Open(_ context.Context, id string, totalSeats int) (model.SeatLedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sl, ok := s.slots[id]; ok {
		sl.mu.Lock()
		defer sl.mu.Unlock()
		return sl.entry, nil
	}
	sl := &memorySlot{entry: model.SeatLedgerEntry{
		TravelUnitID: id,
		TotalSeats:   totalSeats,
		UpdatedAt:    time.Now().UTC(),
	}}
	s.slots[id] = sl
	return sl.entry, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (model.SeatLedgerEntry, error) {
	sl, ok := s.slot(id)
	if !ok {
		return model.SeatLedgerEntry{}, ErrNotFound
	}
	sl.mu.Lock()
	defer sl.mu.Unlock()
	return sl.entry, nil
}

func (s *MemoryStore) Reserve(_ context.Context, id string, seats int) (model.SeatLedgerEntry, error) {
	sl, ok := s.slot(id)
	if !ok {
		return model.SeatLedgerEntry{}, ErrNotFound
	}
	sl.mu.Lock()
	defer sl.mu.Unlock()
	if seats > sl.entry.TotalSeats-sl.entry.BookedSeats {
		return model.SeatLedgerEntry{}, ErrCapacityExceeded
	}
	sl.entry.BookedSeats += seats
	sl.entry.UpdatedAt = time.Now().UTC()
	return sl.entry, nil
}

func (s *MemoryStore) Release(_ context.Context, id string, seats int) (model.SeatLedgerEntry, error) {
	sl, ok := s.slot(id)
	if !ok {
		return model.SeatLedgerEntry{}, ErrNotFound
	}
	sl.mu.Lock()
	defer sl.mu.Unlock()
	if seats > sl.entry.BookedSeats {
		return model.SeatLedgerEntry{}, ErrInvalidRelease
	}
	sl.entry.BookedSeats -= seats
	sl.entry.UpdatedAt = time.Now().UTC()
	return sl.entry, nil
}

func (s *MemoryStore) Remove(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.slots, id)
	return nil
}
