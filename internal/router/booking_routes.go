package router

import (
    "github.com/labstack/echo/v4"

    "github.com/thivyan-jeyamohan/pearlora-travel-webapp-sub001/internal/handler"
)

// RegisterBookings registers booking record lookups and cancellation.
// Cancelling shares the seat mutation rate limiter.
func RegisterBookings(e *echo.Echo, h *handler.BookingHandler, limiter echo.MiddlewareFunc) {
    e.GET("/api/bookings/:id", h.Get)
    e.DELETE("/api/bookings/:id", h.Cancel, limiter)
    e.GET("/api/travel-units/:id/bookings", h.ListForUnit)
}
