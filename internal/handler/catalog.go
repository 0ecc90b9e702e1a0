package handler

import (
    "context"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/thivyan-jeyamohan/pearlora-travel-webapp-sub001/internal/model"
    "github.com/thivyan-jeyamohan/pearlora-travel-webapp-sub001/internal/repository"
    "github.com/thivyan-jeyamohan/pearlora-travel-webapp-sub001/internal/service"
)

// Purger drops cached catalog responses.
type Purger interface {
    Purge(ctx context.Context) error
}

// CatalogHandler serves the travel unit endpoints.  Cache may be nil.
type CatalogHandler struct {
    Catalog *service.CatalogService
    Cache   Purger
}

// NewCatalogHandler panics if catalog is nil.
func NewCatalogHandler(catalog *service.CatalogService, cache Purger) *CatalogHandler {
    if catalog == nil {
        panic("nil catalog passed to NewCatalogHandler")
    }
    return &CatalogHandler{Catalog: catalog, Cache: cache}
}

// List handles GET /api/travel-units?origin=&destination=&kind=&departingAfter=&limit=&offset=
func (h *CatalogHandler) List(c echo.Context) error {
    f := repository.TravelUnitFilter{
        Origin:      c.QueryParam("origin"),
        Destination: c.QueryParam("destination"),
        Kind:        c.QueryParam("kind"),
    }
    if v := c.QueryParam("departingAfter"); v != "" {
        t, err := time.Parse(time.RFC3339, v)
        if err != nil {
            return badRequest(c, "departingAfter must be an RFC 3339 timestamp")
        }
        f.DepartingAfter = t
    }
    var err error
    if f.Limit, err = intQuery(c, "limit"); err != nil {
        return badRequest(c, "limit must be an integer")
    }
    if f.Offset, err = intQuery(c, "offset"); err != nil {
        return badRequest(c, "offset must be an integer")
    }

    units, err := h.Catalog.List(c.Request().Context(), f)
    if err != nil {
        return writeError(c, err)
    }
    out := make([]echo.Map, 0, len(units))
    for i := range units {
        out = append(out, unitJSON(&units[i]))
    }
    return c.JSON(http.StatusOK, echo.Map{"travelUnits": out})
}

// Get handles GET /api/travel-units/:id.
func (h *CatalogHandler) Get(c echo.Context) error {
    u, err := h.Catalog.Get(c.Request().Context(), c.Param("id"))
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, unitJSON(u))
}

// Create handles POST /api/travel-units (operators only).
func (h *CatalogHandler) Create(c echo.Context) error {
    var body service.CreateTravelUnitRequest
    if err := c.Bind(&body); err != nil {
        return badRequest(c, "invalid request body")
    }
    u, err := h.Catalog.Create(c.Request().Context(), body)
    if err != nil {
        return writeError(c, err)
    }
    h.purge(c)
    return c.JSON(http.StatusCreated, unitJSON(u))
}

// Delete handles DELETE /api/travel-units/:id (operators only).  The
// unit's ledger entry is removed with it.
func (h *CatalogHandler) Delete(c echo.Context) error {
    if err := h.Catalog.Retire(c.Request().Context(), c.Param("id")); err != nil {
        return writeError(c, err)
    }
    h.purge(c)
    return c.NoContent(http.StatusNoContent)
}

func (h *CatalogHandler) purge(c echo.Context) {
    if h.Cache == nil {
        return
    }
    if err := h.Cache.Purge(context.WithoutCancel(c.Request().Context())); err != nil {
        c.Logger().Warnf("catalog cache purge failed: %v", err)
    }
}

func intQuery(c echo.Context, name string) (int, error) {
    v := c.QueryParam(name)
    if v == "" {
        return 0, nil
    }
    return strconv.Atoi(v)
}

func unitJSON(u *model.TravelUnit) echo.Map {
    return echo.Map{
        "id":          u.ID,
        "kind":        u.Kind,
        "name":        u.Name,
        "origin":      u.Origin,
        "destination": u.Destination,
        "capacity":    u.Capacity,
        "departsAt":   u.DepartsAt.UTC().Format(time.RFC3339),
        "arrivesAt":   u.ArrivesAt.UTC().Format(time.RFC3339),
        "priceCents":  u.PriceCents,
        "createdAt":   u.CreatedAt.UTC().Format(time.RFC3339),
    }
}
