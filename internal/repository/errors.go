// Package repository holds the persistence code of the service: the MySQL
// travel unit and booking repositories and the ledger stores for MySQL,
// Redis and MongoDB.  The sentinel values below let higher layers tell
// failure scenarios apart; ledger stores report through the ledger
// package's own errors instead.
package repository

import "errors"

// ErrTravelUnitNotFound is returned when no travel unit has the given id.
// Handlers should translate this into an HTTP 404 response.
var ErrTravelUnitNotFound = errors.New("travel unit not found")

// ErrBookingNotFound is returned when no booking has the given id.
var ErrBookingNotFound = errors.New("booking not found")

// ErrBookingNotActive is returned when cancelling a booking that has
// already been cancelled.  Handlers should translate this into an HTTP
// 409 response.
var ErrBookingNotActive = errors.New("booking is not active")
