package handler

import (
    "fmt"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/thivyan-jeyamohan/pearlora-travel-webapp-sub001/internal/ledger"
    "github.com/thivyan-jeyamohan/pearlora-travel-webapp-sub001/internal/service"
)

// SeatHandler serves the seat ledger endpoints.
type SeatHandler struct {
    Ledger   *ledger.Ledger
    Bookings *service.BookingService
}

// NewSeatHandler panics if a dependency is nil.
func NewSeatHandler(l *ledger.Ledger, bookings *service.BookingService) *SeatHandler {
    if l == nil || bookings == nil {
        panic("nil dependency passed to NewSeatHandler")
    }
    return &SeatHandler{Ledger: l, Bookings: bookings}
}

// reserveRequest is the body of POST /api/seats/reserve.  Pointers tell a
// missing field from a zero.
type reserveRequest struct {
    TravelUnitID   string `json:"travelUnitId"`
    RequestedSeats *int   `json:"requestedSeats"`
    RequesterEmail string `json:"requesterEmail"`
}

func (r reserveRequest) validate() string {
    switch {
    case strings.TrimSpace(r.TravelUnitID) == "":
        return "travelUnitId is required"
    case r.RequestedSeats == nil:
        return "requestedSeats is required"
    case *r.RequestedSeats <= 0:
        return "requestedSeats must be a positive integer"
    case *r.RequestedSeats > ledger.MaxSeats:
        return fmt.Sprintf("requestedSeats cannot exceed %d", ledger.MaxSeats)
    case strings.TrimSpace(r.RequesterEmail) == "":
        return "requesterEmail is required"
    }
    return ""
}

// cancelRequest is the body of POST /api/seats/cancel.
type cancelRequest struct {
    TravelUnitID   string `json:"travelUnitId"`
    SeatsToRelease *int   `json:"seatsToRelease"`
}

func (r cancelRequest) validate() string {
    switch {
    case strings.TrimSpace(r.TravelUnitID) == "":
        return "travelUnitId is required"
    case r.SeatsToRelease == nil:
        return "seatsToRelease is required"
    case *r.SeatsToRelease <= 0:
        return "seatsToRelease must be a positive integer"
    case *r.SeatsToRelease > ledger.MaxSeats:
        return fmt.Sprintf("seatsToRelease cannot exceed %d", ledger.MaxSeats)
    }
    return ""
}

// Reserve handles POST /api/seats/reserve.  It books the seats, writes the
// booking record and answers 201 with the seats left.
func (h *SeatHandler) Reserve(c echo.Context) error {
    var body reserveRequest
    if err := c.Bind(&body); err != nil {
        return badRequest(c, "invalid request body")
    }
    if msg := body.validate(); msg != "" {
        return badRequest(c, msg)
    }
    res, err := h.Bookings.Book(c.Request().Context(), service.BookRequest{
        TravelUnitID:   body.TravelUnitID,
        Seats:          *body.RequestedSeats,
        RequesterEmail: body.RequesterEmail,
    })
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusCreated, echo.Map{
        "availableSeats": res.Reservation.AvailableSeats(),
        "travelUnitId":   res.Reservation.TravelUnitID,
        "reservedSeats":  res.Reservation.Reserved,
        "bookingId":      res.Booking.ID,
    })
}

// Cancel handles POST /api/seats/cancel.
func (h *SeatHandler) Cancel(c echo.Context) error {
    var body cancelRequest
    if err := c.Bind(&body); err != nil {
        return badRequest(c, "invalid request body")
    }
    if msg := body.validate(); msg != "" {
        return badRequest(c, msg)
    }
    res, err := h.Bookings.Release(c.Request().Context(), service.ReleaseRequest{
        TravelUnitID: body.TravelUnitID,
        Seats:        *body.SeatsToRelease,
    })
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "availableSeats": res.AvailableSeats(),
        "travelUnitId":   res.TravelUnitID,
        "releasedSeats":  res.Released,
    })
}

// Get handles GET /api/seats/:travelUnitId.
func (h *SeatHandler) Get(c echo.Context) error {
    e, err := h.Ledger.Snapshot(c.Request().Context(), c.Param("travelUnitId"))
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "travelUnitId":   e.TravelUnitID,
        "totalSeats":     e.TotalSeats,
        "bookedSeats":    e.BookedSeats,
        "availableSeats": e.AvailableSeats(),
    })
}
