package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/thivyan-jeyamohan/pearlora-travel-webapp-sub001/internal/model"
)

// BookingRepo is the booking record store.  A booking row is written once
// the ledger has accepted the reservation and is only ever updated to
// flip its status to CANCELLED.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingColumns = `id, travel_unit_id, requester_email, seats, total_cents, status, created_at, updated_at`

// Create inserts b.  ID, Status and timestamps are filled in when empty.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.Status == "" {
		b.Status = model.BookingConfirmed
	}
	now := time.Now().UTC().Truncate(time.Second)
	b.CreatedAt, b.UpdatedAt = now, now
	const q = `INSERT INTO bookings (` + bookingColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, q,
		b.ID, b.TravelUnitID, b.RequesterEmail, b.Seats, b.TotalCents, b.Status, b.CreatedAt, b.UpdatedAt,
	); err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

// GetByID returns the booking or ErrBookingNotFound.
func (r *BookingRepo) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	b, err := scanBooking(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("get booking: %w", err)
	}
	return b, nil
}

// ListByTravelUnit returns all bookings of a travel unit, newest first.
func (r *BookingRepo) ListByTravelUnit(ctx context.Context, travelUnitID string) ([]model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE travel_unit_id = ? ORDER BY created_at DESC, id`
	rows, err := r.db.QueryContext(ctx, q, travelUnitID)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()
	bookings := make([]model.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

// MarkCancelled flips a CONFIRMED booking to CANCELLED and returns it.  The
// update is conditional on the current status so two concurrent cancels
// cannot both succeed.  It returns ErrBookingNotFound or
// ErrBookingNotActive when nothing was updated.
func (r *BookingRepo) MarkCancelled(ctx context.Context, id string) (*model.Booking, error) {
	now := time.Now().UTC().Truncate(time.Second)
	const q = `UPDATE bookings SET status = ?, updated_at = ? WHERE id = ? AND status = ?`
	res, err := r.db.ExecContext(ctx, q, model.BookingCancelled, now, id, model.BookingConfirmed)
	if err != nil {
		return nil, fmt.Errorf("cancel booking: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("cancel booking: %w", err)
	}
	b, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrBookingNotActive
	}
	return b, nil
}

// Delete removes a booking row.  It is used to undo a record whose
// reservation could not be kept.
func (r *BookingRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}
	return nil
}

func scanBooking(row rowScanner) (*model.Booking, error) {
	var b model.Booking
	if err := row.Scan(
		&b.ID, &b.TravelUnitID, &b.RequesterEmail, &b.Seats, &b.TotalCents, &b.Status, &b.CreatedAt, &b.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &b, nil
}
