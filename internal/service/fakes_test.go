package service

import (
    "context"
    "sync"
    "time"

    "github.com/google/uuid"

    "github.com/thivyan-jeyamohan/pearlora-travel-webapp-sub001/internal/model"
    "github.com/thivyan-jeyamohan/pearlora-travel-webapp-sub001/internal/queue"
    "github.com/thivyan-jeyamohan/pearlora-travel-webapp-sub001/internal/repository"
)

type fakeUnits struct {
    mu    sync.Mutex
    units map[string]*model.TravelUnit
}

func newFakeUnits(units ...*model.TravelUnit) *fakeUnits {
    f := &fakeUnits{units: map[string]*model.TravelUnit{}}
    for _, u := range units {
        f.units[u.ID] = u
    }
    return f
}

func (f *fakeUnits) Create(_ context.Context, u *model.TravelUnit) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    if u.ID == "" {
        u.ID = uuid.NewString()
    }
    u.CreatedAt = time.Now().UTC()
    f.units[u.ID] = u
    return nil
}

func (f *fakeUnits) GetByID(_ context.Context, id string) (*model.TravelUnit, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    u, ok := f.units[id]
    if !ok {
        return nil, repository.ErrTravelUnitNotFound
    }
    return u, nil
}

func (f *fakeUnits) List(_ context.Context, filter repository.TravelUnitFilter) ([]model.TravelUnit, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    out := []model.TravelUnit{}
    for _, u := range f.units {
        if filter.Kind != "" && u.Kind != filter.Kind {
            continue
        }
        out = append(out, *u)
    }
    return out, nil
}

func (f *fakeUnits) Delete(_ context.Context, id string) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    if _, ok := f.units[id]; !ok {
        return repository.ErrTravelUnitNotFound
    }
    delete(f.units, id)
    return nil
}

func (f *fakeUnits) Capacity(ctx context.Context, id string) (int, error) {
    u, err := f.GetByID(ctx, id)
    if err != nil {
        return 0, err
    }
    return u.Capacity, nil
}

type fakeBookings struct {
    mu        sync.Mutex
    bookings  map[string]*model.Booking
    createErr error
    onCreate  func(ctx context.Context)
}

func newFakeBookings() *fakeBookings {
    return &fakeBookings{bookings: map[string]*model.Booking{}}
}

func (f *fakeBookings) Create(ctx context.Context, b *model.Booking) error {
    if f.onCreate != nil {
        f.onCreate(ctx)
    }
    if f.createErr != nil {
        return f.createErr
    }
    f.mu.Lock()
    defer f.mu.Unlock()
    b.ID = uuid.NewString()
    b.CreatedAt = time.Now().UTC()
    b.UpdatedAt = b.CreatedAt
    cp := *b
    f.bookings[b.ID] = &cp
    return nil
}

func (f *fakeBookings) GetByID(_ context.Context, id string) (*model.Booking, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    b, ok := f.bookings[id]
    if !ok {
        return nil, repository.ErrBookingNotFound
    }
    cp := *b
    return &cp, nil
}

func (f *fakeBookings) ListByTravelUnit(_ context.Context, id string) ([]model.Booking, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    out := []model.Booking{}
    for _, b := range f.bookings {
        if b.TravelUnitID == id {
            out = append(out, *b)
        }
    }
    return out, nil
}

func (f *fakeBookings) MarkCancelled(_ context.Context, id string) (*model.Booking, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    b, ok := f.bookings[id]
    if !ok {
        return nil, repository.ErrBookingNotFound
    }
    if b.Status != model.BookingConfirmed {
        return nil, repository.ErrBookingNotActive
    }
    b.Status = model.BookingCancelled
    b.UpdatedAt = time.Now().UTC()
    cp := *b
    return &cp, nil
}

type fakeNotifier struct {
    events chan queue.BookingEvent
}

func newFakeNotifier() *fakeNotifier {
    return &fakeNotifier{events: make(chan queue.BookingEvent, 16)}
}

func (f *fakeNotifier) Publish(_ context.Context, ev queue.BookingEvent) error {
    f.events <- ev
    return nil
}
