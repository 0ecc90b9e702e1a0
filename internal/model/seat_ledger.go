package model

import "time"

// SeatLedgerEntry is the authoritative seat count for one travel unit.
// Only TotalSeats and BookedSeats are persisted; availability is always
// derived so the two numbers cannot drift apart.
//
// Fields:
//  TravelUnitID – unique reference to the travel unit.
//  TotalSeats   – copy of the unit's capacity taken when the entry was opened.
//  BookedSeats  – seats currently reserved, 0 ≤ BookedSeats ≤ TotalSeats.
//  UpdatedAt    – time of the last reserve or release.
type SeatLedgerEntry struct {
    TravelUnitID string    // seat_ledger.travel_unit_id
    TotalSeats   int       // seat_ledger.total_seats
    BookedSeats  int       // seat_ledger.booked_seats
    UpdatedAt    time.Time // seat_ledger.updated_at
}

// AvailableSeats returns TotalSeats - BookedSeats.
func (e SeatLedgerEntry) AvailableSeats() int {
    return e.TotalSeats - e.BookedSeats
}
