// Package ledger arbitrates concurrent reserve and cancel requests against
// the seat count of each travel unit.  The atomic guard itself lives in the
// Store; this package validates input, retries transient storage failures
// with bounded exponential backoff and shields in-flight writes from callers
// that go away.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	"github.com/thivyan-jeyamohan/pearlora-travel-webapp-sub001/internal/model"
)

// MaxSeats bounds both a travel unit's capacity and the seat count of a
// single reserve or cancel.  Keeping counts this small lets every store
// compare them without overflow.
const MaxSeats = 100_000

// Config controls retries and per-attempt deadlines.
type Config struct {
	Attempts  int           // total attempts per operation, including the first
	BaseDelay time.Duration // delay before the second attempt; doubled after each failure
	MaxDelay  time.Duration // upper bound for the delay between attempts
	OpTimeout time.Duration // deadline of one store call
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Attempts:  3,
		BaseDelay: 50 * time.Millisecond,
		MaxDelay:  time.Second,
		OpTimeout: 2 * time.Second,
	}
}

// ReservationResult describes an accepted reservation.
type ReservationResult struct {
	TravelUnitID string
	Reserved     int
	Entry        model.SeatLedgerEntry
}

// AvailableSeats returns the seats left after the reservation.
func (r ReservationResult) AvailableSeats() int { return r.Entry.AvailableSeats() }

// ReleaseResult describes an accepted release.
type ReleaseResult struct {
	TravelUnitID string
	Released     int
	Entry        model.SeatLedgerEntry
}

// AvailableSeats returns the seats left after the release.
func (r ReleaseResult) AvailableSeats() int { return r.Entry.AvailableSeats() }

// Ledger is safe for concurrent use.
type Ledger struct {
	store Store
	units CapacitySource
	cfg   Config
	log   echo.Logger
}

// New returns a Ledger backed by store.  units may be nil, in which case
// entries are never opened lazily.  Zero fields in cfg fall back to
// DefaultConfig.
func New(store Store, units CapacitySource, cfg Config, logger echo.Logger) *Ledger {
	if store == nil {
		panic("nil store passed to ledger.New")
	}
	def := DefaultConfig()
	if cfg.Attempts < 1 {
		cfg.Attempts = def.Attempts
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = def.BaseDelay
	}
	if cfg.MaxDelay < cfg.BaseDelay {
		cfg.MaxDelay = cfg.BaseDelay
	}
	if cfg.OpTimeout <= 0 {
		cfg.OpTimeout = def.OpTimeout
	}
	if logger == nil {
		logger = log.New("ledger")
	}
	return &Ledger{store: store, units: units, cfg: cfg, log: logger}
}

// Reserve atomically books seats on the travel unit.  It fails with
// ErrCapacityExceeded, leaving the entry untouched, when fewer than seats
// are available.
func (l *Ledger) Reserve(ctx context.Context, travelUnitID string, seats int) (ReservationResult, error) {
	travelUnitID = strings.TrimSpace(travelUnitID)
	if err := validate(travelUnitID, seats); err != nil {
		return ReservationResult{}, err
	}
	reserve := func(ctx context.Context) (model.SeatLedgerEntry, error) {
		return l.store.Reserve(ctx, travelUnitID, seats)
	}
	entry, err := l.run(ctx, "reserve", reserve)
	if errors.Is(err, ErrNotFound) && l.units != nil {
		if err = l.openFromCatalog(ctx, travelUnitID); err == nil {
			entry, err = l.run(ctx, "reserve", reserve)
		}
	}
	if err != nil {
		return ReservationResult{}, err
	}
	return ReservationResult{TravelUnitID: travelUnitID, Reserved: seats, Entry: entry}, nil
}

// Cancel atomically releases seats on the travel unit.  It fails with
// ErrInvalidRelease, leaving the entry untouched, when seats exceeds the
// number currently booked.
func (l *Ledger) Cancel(ctx context.Context, travelUnitID string, seats int) (ReleaseResult, error) {
	travelUnitID = strings.TrimSpace(travelUnitID)
	if err := validate(travelUnitID, seats); err != nil {
		return ReleaseResult{}, err
	}
	entry, err := l.run(ctx, "cancel", func(ctx context.Context) (model.SeatLedgerEntry, error) {
		return l.store.Release(ctx, travelUnitID, seats)
	})
	if err != nil {
		return ReleaseResult{}, err
	}
	return ReleaseResult{TravelUnitID: travelUnitID, Released: seats, Entry: entry}, nil
}

// Snapshot returns the current entry for the travel unit, opening it from
// the catalog when the unit exists but has no entry yet.
func (l *Ledger) Snapshot(ctx context.Context, travelUnitID string) (model.SeatLedgerEntry, error) {
	travelUnitID = strings.TrimSpace(travelUnitID)
	if travelUnitID == "" {
		return model.SeatLedgerEntry{}, fmt.Errorf("%w: travel unit id is required", ErrInvalidRequest)
	}
	get := func(ctx context.Context) (model.SeatLedgerEntry, error) {
		return l.store.Get(ctx, travelUnitID)
	}
	entry, err := l.run(ctx, "snapshot", get)
	if errors.Is(err, ErrNotFound) && l.units != nil {
		if err = l.openFromCatalog(ctx, travelUnitID); err == nil {
			entry, err = l.run(ctx, "snapshot", get)
		}
	}
	return entry, err
}

// Open creates the entry for a new travel unit.  It is idempotent.
func (l *Ledger) Open(ctx context.Context, travelUnitID string, totalSeats int) (model.SeatLedgerEntry, error) {
	if strings.TrimSpace(travelUnitID) == "" || totalSeats < 0 || totalSeats > MaxSeats {
		return model.SeatLedgerEntry{}, fmt.Errorf("%w: travel unit id and a capacity between 0 and %d are required", ErrInvalidRequest, MaxSeats)
	}
	return l.run(ctx, "open", func(ctx context.Context) (model.SeatLedgerEntry, error) {
		return l.store.Open(ctx, travelUnitID, totalSeats)
	})
}

// Remove deletes the entry of a retired travel unit.
func (l *Ledger) Remove(ctx context.Context, travelUnitID string) error {
	_, err := l.run(ctx, "remove", func(ctx context.Context) (model.SeatLedgerEntry, error) {
		return model.SeatLedgerEntry{}, l.store.Remove(ctx, travelUnitID)
	})
	return err
}

func (l *Ledger) openFromCatalog(ctx context.Context, travelUnitID string) error {
	capacity, err := l.units.Capacity(ctx, travelUnitID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: resolve capacity: %v", ErrStorageUnavailable, err)
	}
	_, err = l.Open(ctx, travelUnitID, capacity)
	if err == nil {
		l.log.Infof("ledger: opened entry for %s lazily (total=%d)", travelUnitID, capacity)
	}
	return err
}

func validate(travelUnitID string, seats int) error {
	if travelUnitID == "" {
		return fmt.Errorf("%w: travel unit id is required", ErrInvalidRequest)
	}
	if seats <= 0 {
		return fmt.Errorf("%w: seat count must be a positive integer", ErrInvalidRequest)
	}
	if seats > MaxSeats {
		return fmt.Errorf("%w: seat count cannot exceed %d", ErrInvalidRequest, MaxSeats)
	}
	return nil
}
