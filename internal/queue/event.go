// Package queue defines the booking notification payloads exchanged over
// the message broker and the consumer that renders them.
package queue

import "time"

// Event types carried in BookingEvent.Type.
const (
    EventBookingConfirmed = "booking.confirmed"
    EventBookingCancelled = "booking.cancelled"
)

// BookingEvent is published after a booking is confirmed or cancelled.  It
// carries enough for the notification service to address the requester
// without querying the primary database.
type BookingEvent struct {
    Type           string    `json:"type"`
    BookingID      string    `json:"booking_id"`
    TravelUnitID   string    `json:"travel_unit_id"`
    RequesterEmail string    `json:"requester_email"`
    Seats          int       `json:"seats"`
    AvailableSeats int       `json:"available_seats"`
    OccurredAt     time.Time `json:"occurred_at"`
}
