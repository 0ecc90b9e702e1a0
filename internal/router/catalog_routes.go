package router

import (
    "github.com/labstack/echo/v4"

    "github.com/thivyan-jeyamohan/pearlora-travel-webapp-sub001/internal/handler"
    "github.com/thivyan-jeyamohan/pearlora-travel-webapp-sub001/internal/middleware"
    "github.com/thivyan-jeyamohan/pearlora-travel-webapp-sub001/internal/utils"
)

// RegisterCatalog registers the travel unit endpoints.  Reads are public
// and served through the response cache; creating and retiring units
// requires an OPERATOR token.
func RegisterCatalog(e *echo.Echo, h *handler.CatalogHandler, cache echo.MiddlewareFunc, jwtSecret string) {
    g := e.Group("/api/travel-units")
    g.GET("", h.List, cache)
    g.GET("/:id", h.Get, cache)

    operator := []echo.MiddlewareFunc{middleware.JWTAuth(jwtSecret), middleware.RequireRole(utils.RoleOperator)}
    g.POST("", h.Create, operator...)
    g.DELETE("/:id", h.Delete, operator...)
}
