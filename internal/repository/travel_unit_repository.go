package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/thivyan-jeyamohan/pearlora-travel-webapp-sub001/internal/ledger"
	"github.com/thivyan-jeyamohan/pearlora-travel-webapp-sub001/internal/model"
)

// TravelUnitRepo persists travel units in the travel_units table.  It is the
// catalog store: the ledger only reads capacities from it.
type TravelUnitRepo struct {
	db *sql.DB
}

// NewTravelUnitRepo returns a TravelUnitRepo bound to the given database.
func NewTravelUnitRepo(db *sql.DB) *TravelUnitRepo { return &TravelUnitRepo{db: db} }

// TravelUnitFilter narrows List.  Empty fields are ignored.  Limit defaults
// to 50 and is capped at 200.
type TravelUnitFilter struct {
	Origin         string
	Destination    string
	Kind           string
	DepartingAfter time.Time
	Limit          int
	Offset         int
}

const travelUnitColumns = `id, kind, name, origin, destination, capacity, departs_at, arrives_at, price_cents, created_at, updated_at`

// Create inserts u.  A UUID is generated when u.ID is empty and the
// timestamps are set on u.
func (r *TravelUnitRepo) Create(ctx context.Context, u *model.TravelUnit) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now().UTC().Truncate(time.Second)
	u.CreatedAt, u.UpdatedAt = now, now
	const q = `INSERT INTO travel_units (` + travelUnitColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q,
		u.ID, u.Kind, u.Name, u.Origin, u.Destination, u.Capacity,
		u.DepartsAt.UTC(), u.ArrivesAt.UTC(), u.PriceCents, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert travel unit: %w", err)
	}
	return nil
}

// GetByID returns the travel unit or ErrTravelUnitNotFound.
func (r *TravelUnitRepo) GetByID(ctx context.Context, id string) (*model.TravelUnit, error) {
	const q = `SELECT ` + travelUnitColumns + ` FROM travel_units WHERE id = ?`
	u, err := scanTravelUnit(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTravelUnitNotFound
		}
		return nil, fmt.Errorf("get travel unit: %w", err)
	}
	return u, nil
}

// List returns travel units matching f ordered by departure time.
func (r *TravelUnitRepo) List(ctx context.Context, f TravelUnitFilter) ([]model.TravelUnit, error) {
	where := make([]string, 0, 4)
	args := make([]interface{}, 0, 6)
	if f.Origin != "" {
		where = append(where, "origin = ?")
		args = append(args, f.Origin)
	}
	if f.Destination != "" {
		where = append(where, "destination = ?")
		args = append(args, f.Destination)
	}
	if f.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, f.Kind)
	}
	if !f.DepartingAfter.IsZero() {
		where = append(where, "departs_at >= ?")
		args = append(args, f.DepartingAfter.UTC())
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}
	q := `SELECT ` + travelUnitColumns + ` FROM travel_units`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY departs_at, id LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list travel units: %w", err)
	}
	defer rows.Close()
	units := make([]model.TravelUnit, 0)
	for rows.Next() {
		u, err := scanTravelUnit(rows)
		if err != nil {
			return nil, fmt.Errorf("scan travel unit: %w", err)
		}
		units = append(units, *u)
	}
	return units, rows.Err()
}

// Delete removes the travel unit.  It returns ErrTravelUnitNotFound when
// nothing was deleted.
func (r *TravelUnitRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM travel_units WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete travel unit: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete travel unit: %w", err)
	}
	if n == 0 {
		return ErrTravelUnitNotFound
	}
	return nil
}

// Capacity implements ledger.CapacitySource.
func (r *TravelUnitRepo) Capacity(ctx context.Context, id string) (int, error) {
	var capacity int
	err := r.db.QueryRowContext(ctx, `SELECT capacity FROM travel_units WHERE id = ?`, id).Scan(&capacity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ledger.ErrNotFound
		}
		return 0, fmt.Errorf("get capacity: %w", err)
	}
	return capacity, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTravelUnit(row rowScanner) (*model.TravelUnit, error) {
	var u model.TravelUnit
	if err := row.Scan(
		&u.ID, &u.Kind, &u.Name, &u.Origin, &u.Destination, &u.Capacity,
		&u.DepartsAt, &u.ArrivesAt, &u.PriceCents, &u.CreatedAt, &u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &u, nil
}
