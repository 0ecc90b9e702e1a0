package model

import "time"

// Booking statuses.
const (
    BookingConfirmed = "CONFIRMED"
    BookingCancelled = "CANCELLED"
)

// Booking is the durable record of who booked how many seats on a travel
// unit.  It is written only after the ledger accepted the reservation.
//
// Fields:
//  ID             – UUID primary key.
//  TravelUnitID   – travel unit the seats belong to.
//  RequesterEmail – contact address of the person who booked.
//  Seats          – number of seats held by this booking.
//  TotalCents     – Seats × the unit's price at booking time.
//  Status         – CONFIRMED or CANCELLED.
//  CreatedAt      – creation timestamp.
//  UpdatedAt      – last update timestamp.
type Booking struct {
    ID             string    // bookings.id
    TravelUnitID   string    // bookings.travel_unit_id
    RequesterEmail string    // bookings.requester_email
    Seats          int       // bookings.seats
    TotalCents     int64     // bookings.total_cents
    Status         string    // bookings.status
    CreatedAt      time.Time // bookings.created_at
    UpdatedAt      time.Time // bookings.updated_at
}
