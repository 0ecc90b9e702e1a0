package repository

import (
    "context"
    "database/sql"
    "database/sql/driver"
    "errors"
    "fmt"
    "net"
    "time"

    "github.com/go-sql-driver/mysql"

    "github.com/thivyan-jeyamohan/pearlora-travel-webapp-sub001/internal/ledger"
    "github.com/thivyan-jeyamohan/pearlora-travel-webapp-sub001/internal/model"
)

// LedgerRepo is the MySQL ledger store.  Every mutation is a single
// conditional UPDATE whose WHERE clause carries the capacity guard, run in
// a transaction together with the read of the resulting row.  When the
// UPDATE matches nothing the row is probed to tell a missing entry from a
// violated guard.
type LedgerRepo struct {
    db *sql.DB
}

// NewLedgerRepo returns a new LedgerRepo bound to the provided database.
func NewLedgerRepo(db *sql.DB) *LedgerRepo { return &LedgerRepo{db: db} }

const (
    ledgerSelectQuery  = `SELECT travel_unit_id, total_seats, booked_seats, updated_at FROM seat_ledger WHERE travel_unit_id = ?`
    ledgerOpenQuery    = `INSERT IGNORE INTO seat_ledger (travel_unit_id, total_seats, booked_seats, updated_at) VALUES (?, ?, 0, ?)`
    ledgerReserveQuery = `UPDATE seat_ledger SET booked_seats = booked_seats + ?, updated_at = ? WHERE travel_unit_id = ? AND ? <= total_seats - booked_seats`
    ledgerReleaseQuery = `UPDATE seat_ledger SET booked_seats = booked_seats - ?, updated_at = ? WHERE travel_unit_id = ? AND booked_seats >= ?`
    ledgerExistsQuery  = `SELECT 1 FROM seat_ledger WHERE travel_unit_id = ?`
    ledgerDeleteQuery  = `DELETE FROM seat_ledger WHERE travel_unit_id = ?`
)

// Open inserts the entry unless it already exists and returns the stored
// row.  INSERT IGNORE keeps a concurrent second Open from failing.
func (r *LedgerRepo) Open(ctx context.Context, id string, totalSeats int) (model.SeatLedgerEntry, error) {
    now := time.Now().UTC()
    if _, err := r.db.ExecContext(ctx, ledgerOpenQuery, id, totalSeats, now); err != nil {
        // The insert is idempotent so any connection failure may be retried.
        return model.SeatLedgerEntry{}, classifyMySQL(err, true)
    }
    return r.Get(ctx, id)
}

// Get returns the entry or ledger.ErrNotFound.
func (r *LedgerRepo) Get(ctx context.Context, id string) (model.SeatLedgerEntry, error) {
    e, err := scanLedgerEntry(r.db.QueryRowContext(ctx, ledgerSelectQuery, id))
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return model.SeatLedgerEntry{}, ledger.ErrNotFound
        }
        return model.SeatLedgerEntry{}, classifyMySQL(err, true)
    }
    return e, nil
}

// Reserve adds seats to booked_seats when seats <= total_seats - booked_seats.
// The guard subtracts so a large seat count cannot overflow BIGINT.
func (r *LedgerRepo) Reserve(ctx context.Context, id string, seats int) (model.SeatLedgerEntry, error) {
    return r.guardedUpdate(ctx, ledgerReserveQuery, id, seats, ledger.ErrCapacityExceeded)
}

// Release subtracts seats from booked_seats when seats <= booked_seats.
func (r *LedgerRepo) Release(ctx context.Context, id string, seats int) (model.SeatLedgerEntry, error) {
    return r.guardedUpdate(ctx, ledgerReleaseQuery, id, seats, ledger.ErrInvalidRelease)
}

// Remove deletes the entry.  Removing a missing entry is not an error.
func (r *LedgerRepo) Remove(ctx context.Context, id string) error {
    if _, err := r.db.ExecContext(ctx, ledgerDeleteQuery, id); err != nil {
        return classifyMySQL(err, true)
    }
    return nil
}

func (r *LedgerRepo) guardedUpdate(ctx context.Context, query, id string, seats int, guardErr error) (model.SeatLedgerEntry, error) {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return model.SeatLedgerEntry{}, classifyMySQL(err, true)
    }
    defer tx.Rollback() // no-op after Commit

    // Until Commit the server rolls the transaction back on a dropped
    // connection, so failures up to that point leave no trace.
    res, err := tx.ExecContext(ctx, query, seats, time.Now().UTC(), id, seats)
    if err != nil {
        return model.SeatLedgerEntry{}, classifyMySQL(err, true)
    }
    affected, err := res.RowsAffected()
    if err != nil {
        return model.SeatLedgerEntry{}, classifyMySQL(err, true)
    }
    if affected == 0 {
        var one int
        err := tx.QueryRowContext(ctx, ledgerExistsQuery, id).Scan(&one)
        switch {
        case errors.Is(err, sql.ErrNoRows):
            return model.SeatLedgerEntry{}, ledger.ErrNotFound
        case err != nil:
            return model.SeatLedgerEntry{}, classifyMySQL(err, true)
        }
        return model.SeatLedgerEntry{}, guardErr
    }
    e, err := scanLedgerEntry(tx.QueryRowContext(ctx, ledgerSelectQuery, id))
    if err != nil {
        return model.SeatLedgerEntry{}, classifyMySQL(err, true)
    }
    if err := tx.Commit(); err != nil {
        // The commit may have landed; never report it as retryable.
        return model.SeatLedgerEntry{}, classifyMySQL(err, false)
    }
    return e, nil
}

func scanLedgerEntry(row rowScanner) (model.SeatLedgerEntry, error) {
    var e model.SeatLedgerEntry
    err := row.Scan(&e.TravelUnitID, &e.TotalSeats, &e.BookedSeats, &e.UpdatedAt)
    return e, err
}

// classifyMySQL marks connection level failures as transient when retrying
// cannot apply a write twice.  Everything else is returned unchanged.
func classifyMySQL(err error, retryable bool) error {
    if !retryable {
        return fmt.Errorf("mysql: %w", err)
    }
    if errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) || isDialError(err) {
        return ledger.Transient(err)
    }
    return fmt.Errorf("mysql: %w", err)
}

// isDialError reports whether err comes from failing to open a connection,
// which means nothing reached the server.
func isDialError(err error) bool {
    var opErr *net.OpError
    return errors.As(err, &opErr) && opErr.Op == "dial"
}
