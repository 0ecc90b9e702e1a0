package handler

import (
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/thivyan-jeyamohan/pearlora-travel-webapp-sub001/internal/model"
    "github.com/thivyan-jeyamohan/pearlora-travel-webapp-sub001/internal/service"
)

// BookingHandler serves booking record lookups and cancellation.
type BookingHandler struct {
    Bookings *service.BookingService
}

// NewBookingHandler panics if bookings is nil.
func NewBookingHandler(bookings *service.BookingService) *BookingHandler {
    if bookings == nil {
        panic("nil booking service passed to NewBookingHandler")
    }
    return &BookingHandler{Bookings: bookings}
}

// Get handles GET /api/bookings/:id.
func (h *BookingHandler) Get(c echo.Context) error {
    b, err := h.Bookings.GetBooking(c.Request().Context(), c.Param("id"))
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, bookingJSON(b))
}

// ListForUnit handles GET /api/travel-units/:id/bookings.
func (h *BookingHandler) ListForUnit(c echo.Context) error {
    list, err := h.Bookings.ListBookings(c.Request().Context(), c.Param("id"))
    if err != nil {
        return writeError(c, err)
    }
    out := make([]echo.Map, 0, len(list))
    for i := range list {
        out = append(out, bookingJSON(&list[i]))
    }
    return c.JSON(http.StatusOK, echo.Map{"bookings": out})
}

// Cancel handles DELETE /api/bookings/:id: the booking is marked cancelled
// and its seats go back to the travel unit.
func (h *BookingHandler) Cancel(c echo.Context) error {
    b, res, err := h.Bookings.CancelBooking(c.Request().Context(), c.Param("id"))
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "booking":        bookingJSON(b),
        "availableSeats": res.AvailableSeats(),
    })
}

func bookingJSON(b *model.Booking) echo.Map {
    return echo.Map{
        "id":             b.ID,
        "travelUnitId":   b.TravelUnitID,
        "requesterEmail": b.RequesterEmail,
        "seats":          b.Seats,
        "totalCents":     b.TotalCents,
        "status":         b.Status,
        "createdAt":      b.CreatedAt.UTC().Format(time.RFC3339),
        "updatedAt":      b.UpdatedAt.UTC().Format(time.RFC3339),
    }
}
