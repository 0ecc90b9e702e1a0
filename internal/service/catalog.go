// Package service implements business logic, validation and orchestration
// between HTTP handlers, the seat ledger and the repositories.
package service

import (
    "context"
    "errors"
    "fmt"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/labstack/gommon/log"

    "github.com/thivyan-jeyamohan/pearlora-travel-webapp-sub001/internal/ledger"
    "github.com/thivyan-jeyamohan/pearlora-travel-webapp-sub001/internal/model"
    "github.com/thivyan-jeyamohan/pearlora-travel-webapp-sub001/internal/repository"
)

// TravelUnitStore is the catalog persistence used by CatalogService.
type TravelUnitStore interface {
    Create(ctx context.Context, u *model.TravelUnit) error
    GetByID(ctx context.Context, id string) (*model.TravelUnit, error)
    List(ctx context.Context, f repository.TravelUnitFilter) ([]model.TravelUnit, error)
    Delete(ctx context.Context, id string) error
}

// CreateTravelUnitRequest is the validated input of CatalogService.Create.
type CreateTravelUnitRequest struct {
    Kind        string    `json:"kind"`
    Name        string    `json:"name"`
    Origin      string    `json:"origin"`
    Destination string    `json:"destination"`
    Capacity    int       `json:"capacity"`
    DepartsAt   time.Time `json:"departsAt"`
    ArrivesAt   time.Time `json:"arrivesAt"`
    PriceCents  int64     `json:"priceCents"`
}

// CatalogService manages travel units and keeps the ledger in step with
// them: an entry is opened when a unit is created and removed when it is
// retired.
type CatalogService struct {
    units  TravelUnitStore
    ledger *ledger.Ledger
    log    echo.Logger
}

// NewCatalogService constructs a CatalogService.
func NewCatalogService(units TravelUnitStore, l *ledger.Ledger, logger echo.Logger) *CatalogService {
    if logger == nil {
        logger = log.New("catalog")
    }
    return &CatalogService{units: units, ledger: l, log: logger}
}

// Create validates req, stores the travel unit and opens its ledger entry.
// A failed ledger open is only logged: the entry is opened lazily on the
// first reservation instead.
func (s *CatalogService) Create(ctx context.Context, req CreateTravelUnitRequest) (*model.TravelUnit, error) {
    req.Kind = strings.ToUpper(strings.TrimSpace(req.Kind))
    req.Name = strings.TrimSpace(req.Name)
    req.Origin = strings.TrimSpace(req.Origin)
    req.Destination = strings.TrimSpace(req.Destination)
    if err := validateTravelUnit(req); err != nil {
        return nil, err
    }
    u := &model.TravelUnit{
        Kind:        req.Kind,
        Name:        req.Name,
        Origin:      req.Origin,
        Destination: req.Destination,
        Capacity:    req.Capacity,
        DepartsAt:   req.DepartsAt.UTC(),
        ArrivesAt:   req.ArrivesAt.UTC(),
        PriceCents:  req.PriceCents,
    }
    if err := s.units.Create(ctx, u); err != nil {
        return nil, fmt.Errorf("create travel unit: %w", err)
    }
    if _, err := s.ledger.Open(context.WithoutCancel(ctx), u.ID, u.Capacity); err != nil {
        s.log.Warnf("catalog: open ledger entry for %s: %v", u.ID, err)
    }
    return u, nil
}

// Get returns a single travel unit.
func (s *CatalogService) Get(ctx context.Context, id string) (*model.TravelUnit, error) {
    if strings.TrimSpace(id) == "" {
        return nil, fmt.Errorf("%w: travel unit id is required", ledger.ErrInvalidRequest)
    }
    u, err := s.units.GetByID(ctx, id)
    if err != nil {
        if errors.Is(err, repository.ErrTravelUnitNotFound) {
            return nil, ledger.ErrNotFound
        }
        return nil, err
    }
    return u, nil
}

// List returns travel units matching f.
func (s *CatalogService) List(ctx context.Context, f repository.TravelUnitFilter) ([]model.TravelUnit, error) {
    if f.Kind != "" {
        f.Kind = strings.ToUpper(f.Kind)
        if !model.ValidKind(f.Kind) {
            return nil, fmt.Errorf("%w: unknown kind %q", ledger.ErrInvalidRequest, f.Kind)
        }
    }
    return s.units.List(ctx, f)
}

// Retire deletes the travel unit and then its ledger entry.  Once the unit
// is gone the entry can no longer be reopened lazily, so a failed removal
// leaves only an unreachable row behind.
func (s *CatalogService) Retire(ctx context.Context, id string) error {
    if err := s.units.Delete(ctx, id); err != nil {
        if errors.Is(err, repository.ErrTravelUnitNotFound) {
            return ledger.ErrNotFound
        }
        return fmt.Errorf("retire travel unit: %w", err)
    }
    if err := s.ledger.Remove(context.WithoutCancel(ctx), id); err != nil {
        s.log.Errorf("catalog: remove ledger entry for %s: %v", id, err)
    }
    return nil
}

// maxPriceCents keeps price * ledger.MaxSeats well inside int64.
const maxPriceCents = 100_000_000

func validateTravelUnit(req CreateTravelUnitRequest) error {
    switch {
    case !model.ValidKind(req.Kind):
        return fmt.Errorf("%w: kind must be one of FLIGHT, RIDE, BUS, TRAIN", ledger.ErrInvalidRequest)
    case req.Name == "":
        return fmt.Errorf("%w: name is required", ledger.ErrInvalidRequest)
    case req.Origin == "" || req.Destination == "":
        return fmt.Errorf("%w: origin and destination are required", ledger.ErrInvalidRequest)
    case req.Capacity < 0:
        return fmt.Errorf("%w: capacity cannot be negative", ledger.ErrInvalidRequest)
    case req.Capacity > ledger.MaxSeats:
        return fmt.Errorf("%w: capacity cannot exceed %d", ledger.ErrInvalidRequest, ledger.MaxSeats)
    case req.DepartsAt.IsZero() || req.ArrivesAt.IsZero():
        return fmt.Errorf("%w: departsAt and arrivesAt are required", ledger.ErrInvalidRequest)
    case !req.ArrivesAt.After(req.DepartsAt):
        return fmt.Errorf("%w: arrivesAt must be after departsAt", ledger.ErrInvalidRequest)
    case req.PriceCents < 0:
        return fmt.Errorf("%w: price cannot be negative", ledger.ErrInvalidRequest)
    case req.PriceCents > maxPriceCents:
        return fmt.Errorf("%w: priceCents cannot exceed %d", ledger.ErrInvalidRequest, maxPriceCents)
    }
    return nil
}
