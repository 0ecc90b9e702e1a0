package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema lists the tables owned by this service.  seat_ledger keeps only
// total and booked counts; availability is always computed.  The CHECK
// constraint backs the ledger's conditional updates on MySQL 8.0.16+.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS travel_units (
		id           CHAR(36)     NOT NULL PRIMARY KEY,
		kind         VARCHAR(16)  NOT NULL,
		name         VARCHAR(120) NOT NULL,
		origin       VARCHAR(120) NOT NULL,
		destination  VARCHAR(120) NOT NULL,
		capacity     INT          NOT NULL,
		departs_at   DATETIME     NOT NULL,
		arrives_at   DATETIME     NOT NULL,
		price_cents  BIGINT       NOT NULL DEFAULT 0,
		created_at   DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at   DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		INDEX idx_travel_units_route (origin, destination, departs_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS seat_ledger (
		travel_unit_id CHAR(36) NOT NULL PRIMARY KEY,
		total_seats    INT      NOT NULL,
		booked_seats   INT      NOT NULL DEFAULT 0,
		updated_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		CONSTRAINT chk_seat_ledger_bounds CHECK (booked_seats >= 0 AND booked_seats <= total_seats)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id              CHAR(36)     NOT NULL PRIMARY KEY,
		travel_unit_id  CHAR(36)     NOT NULL,
		requester_email VARCHAR(254) NOT NULL,
		seats           INT          NOT NULL,
		total_cents     BIGINT       NOT NULL,
		status          VARCHAR(16)  NOT NULL,
		created_at      DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at      DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		INDEX idx_bookings_unit (travel_unit_id, created_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates any missing tables.  Statements are idempotent so it is
// safe to run on every start.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}
