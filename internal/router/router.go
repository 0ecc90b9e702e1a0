// Package router registers the HTTP routes of the API on an Echo instance.
package router

import (
    "github.com/labstack/echo/v4"

    "github.com/thivyan-jeyamohan/pearlora-travel-webapp-sub001/internal/handler"
)

// RegisterRoutes exposes the unauthenticated health check.
func RegisterRoutes(e *echo.Echo, health echo.HandlerFunc) {
    e.GET("/healthz", health)
}

// RegisterSeats registers the seat ledger endpoints.  The mutations sit
// behind the rate limiter; reads do not.
func RegisterSeats(e *echo.Echo, s *handler.SeatHandler, limiter echo.MiddlewareFunc) {
    g := e.Group("/api/seats")
    g.POST("/reserve", s.Reserve, limiter)
    g.POST("/cancel", s.Cancel, limiter)
    g.GET("/:travelUnitId", s.Get)
}
