package model

import "time"

// Travel unit kinds accepted by the catalog.
const (
    KindFlight = "FLIGHT"
    KindRide   = "RIDE"
    KindBus    = "BUS"
    KindTrain  = "TRAIN"
)

// TravelUnit is one bookable trip instance (a flight, a ride) with a
// fixed seat capacity and schedule.  It corresponds to a row in the
// `travel_units` table and is read-mostly: the seat ledger copies
// Capacity once and never writes back here.
//
// Fields:
//  ID          – UUID primary key.
//  Kind        – FLIGHT, RIDE, BUS or TRAIN.
//  Name        – display name or carrier reference (e.g. flight number).
//  Origin      – departure location.
//  Destination – arrival location.
//  Capacity    – total number of seats; never negative.
//  DepartsAt   – scheduled departure (UTC).
//  ArrivesAt   – scheduled arrival (UTC), strictly after DepartsAt.
//  PriceCents  – price per seat in cents.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type TravelUnit struct {
    ID          string    // travel_units.id
    Kind        string    // travel_units.kind
    Name        string    // travel_units.name
    Origin      string    // travel_units.origin
    Destination string    // travel_units.destination
    Capacity    int       // travel_units.capacity
    DepartsAt   time.Time // travel_units.departs_at
    ArrivesAt   time.Time // travel_units.arrives_at
    PriceCents  int64     // travel_units.price_cents
    CreatedAt   time.Time // travel_units.created_at
    UpdatedAt   time.Time // travel_units.updated_at
}

// ValidKind reports whether k is one of the supported travel unit kinds.
func ValidKind(k string) bool {
    switch k {
    case KindFlight, KindRide, KindBus, KindTrain:
        return true
    }
    return false
}
