package ledger

import (
	"context"

	"github.com/thivyan-jeyamohan/pearlora-travel-webapp-sub001/internal/model"
)

// Store persists one SeatLedgerEntry per travel unit.  Reserve and Release
// must each be a single guarded conditional write: the check and the
// mutation happen in one indivisible step in the backend (a conditional
// UPDATE, a Lua script, a filtered findOneAndUpdate or a per-key lock).
// Implementations return the entry as it is after the write.
//
// Error contract:
//   - ErrNotFound when no entry exists for the id.
//   - ErrCapacityExceeded / ErrInvalidRelease when the guard rejects the write.
//   - Transient(err) when the write certainly did not reach the backend.
//   - anything else is treated as a non-retryable storage failure.
type Store interface {
	// Open creates the entry with BookedSeats = 0.  Opening an existing
	// entry is a no-op and returns the stored entry unchanged.
	Open(ctx context.Context, travelUnitID string, totalSeats int) (model.SeatLedgerEntry, error)
	Get(ctx context.Context, travelUnitID string) (model.SeatLedgerEntry, error)
	Reserve(ctx context.Context, travelUnitID string, seats int) (model.SeatLedgerEntry, error)
	Release(ctx context.Context, travelUnitID string, seats int) (model.SeatLedgerEntry, error)
	// Remove deletes the entry.  Removing a missing entry is not an error.
	Remove(ctx context.Context, travelUnitID string) error
}

// CapacitySource resolves the seat capacity of a travel unit.  The ledger
// uses it to open entries lazily for units created before their entry.
// It returns ErrNotFound for unknown units.
type CapacitySource interface {
	Capacity(ctx context.Context, travelUnitID string) (int, error)
}
