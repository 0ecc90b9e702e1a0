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
    "github.com/thivyan-jeyamohan/pearlora-travel-webapp-sub001/internal/queue"
    "github.com/thivyan-jeyamohan/pearlora-travel-webapp-sub001/internal/repository"
)

// BookingStore is the booking record store used by BookingService.
type BookingStore interface {
    Create(ctx context.Context, b *model.Booking) error
    GetByID(ctx context.Context, id string) (*model.Booking, error)
    ListByTravelUnit(ctx context.Context, travelUnitID string) ([]model.Booking, error)
    MarkCancelled(ctx context.Context, id string) (*model.Booking, error)
}

// TravelUnitLookup resolves the travel unit a booking is made on.
type TravelUnitLookup interface {
    GetByID(ctx context.Context, id string) (*model.TravelUnit, error)
}

// BookRequest is the input of BookingService.Book.
type BookRequest struct {
    TravelUnitID   string
    Seats          int
    RequesterEmail string
}

// ReleaseRequest is the input of BookingService.Release.
type ReleaseRequest struct {
    TravelUnitID string
    Seats        int
}

// BookResult is returned by a successful Book.
type BookResult struct {
    Booking     *model.Booking
    Reservation ledger.ReservationResult
}

// BookingService couples ledger reservations with booking records.  The two
// writes are not one transaction: when the record cannot be written the
// reservation is compensated with a ledger cancel.
type BookingService struct {
    ledger        *ledger.Ledger
    bookings      BookingStore
    units         TravelUnitLookup
    notifier      Notifier
    log           echo.Logger
    recordTimeout time.Duration
}

// NewBookingService constructs a BookingService.  notifier may be nil.
func NewBookingService(l *ledger.Ledger, bookings BookingStore, units TravelUnitLookup, notifier Notifier, logger echo.Logger) *BookingService {
    if logger == nil {
        logger = log.New("booking")
    }
    return &BookingService{
        ledger:        l,
        bookings:      bookings,
        units:         units,
        notifier:      notifier,
        log:           logger,
        recordTimeout: 5 * time.Second,
    }
}

// Book reserves seats and records the booking.  Once the ledger accepted
// the reservation every later step runs on a context detached from the
// caller, so an abandoned request either keeps both writes or has its
// reservation compensated.
func (s *BookingService) Book(ctx context.Context, req BookRequest) (*BookResult, error) {
    req.TravelUnitID = strings.TrimSpace(req.TravelUnitID)
    req.RequesterEmail = strings.ToLower(strings.TrimSpace(req.RequesterEmail))
    if req.TravelUnitID == "" {
        return nil, fmt.Errorf("%w: travelUnitId is required", ledger.ErrInvalidRequest)
    }
    if req.Seats <= 0 {
        return nil, fmt.Errorf("%w: requestedSeats must be a positive integer", ledger.ErrInvalidRequest)
    }
    if !isValidEmail(req.RequesterEmail) {
        return nil, fmt.Errorf("%w: requesterEmail is not a valid email address", ledger.ErrInvalidRequest)
    }

    unit, err := s.units.GetByID(ctx, req.TravelUnitID)
    if err != nil {
        if errors.Is(err, repository.ErrTravelUnitNotFound) {
            return nil, ledger.ErrNotFound
        }
        return nil, fmt.Errorf("%w: load travel unit", ledger.ErrStorageUnavailable)
    }

    res, err := s.ledger.Reserve(ctx, req.TravelUnitID, req.Seats)
    if err != nil {
        return nil, err
    }

    detached := context.WithoutCancel(ctx)
    b := &model.Booking{
        TravelUnitID:   req.TravelUnitID,
        RequesterEmail: req.RequesterEmail,
        Seats:          req.Seats,
        TotalCents:     unit.PriceCents * int64(req.Seats),
        Status:         model.BookingConfirmed,
    }
    if err := s.createRecord(detached, b); err != nil {
        s.log.Errorf("booking: record for %s failed: %v; releasing %d seats", req.TravelUnitID, err, req.Seats)
        s.compensate(detached, req.TravelUnitID, req.Seats)
        return nil, fmt.Errorf("%w: booking record not written", ledger.ErrStorageUnavailable)
    }

    s.notify(detached, queue.BookingEvent{
        Type:           queue.EventBookingConfirmed,
        BookingID:      b.ID,
        TravelUnitID:   b.TravelUnitID,
        RequesterEmail: b.RequesterEmail,
        Seats:          b.Seats,
        AvailableSeats: res.AvailableSeats(),
        OccurredAt:     b.CreatedAt,
    })
    return &BookResult{Booking: b, Reservation: res}, nil
}

// Release returns seats to the travel unit without touching booking records.
func (s *BookingService) Release(ctx context.Context, req ReleaseRequest) (ledger.ReleaseResult, error) {
    return s.ledger.Cancel(ctx, req.TravelUnitID, req.Seats)
}

// CancelBooking marks the booking cancelled and releases its seats.  The
// conditional status update makes sure only one of several concurrent
// cancels goes on to release.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID string) (*model.Booking, ledger.ReleaseResult, error) {
    bookingID = strings.TrimSpace(bookingID)
    if bookingID == "" {
        return nil, ledger.ReleaseResult{}, fmt.Errorf("%w: booking id is required", ledger.ErrInvalidRequest)
    }
    b, err := s.bookings.MarkCancelled(ctx, bookingID)
    if err != nil {
        if errors.Is(err, repository.ErrBookingNotFound) || errors.Is(err, repository.ErrBookingNotActive) {
            return nil, ledger.ReleaseResult{}, err
        }
        return nil, ledger.ReleaseResult{}, fmt.Errorf("%w: cancel booking", ledger.ErrStorageUnavailable)
    }

    detached := context.WithoutCancel(ctx)
    res, err := s.ledger.Cancel(detached, b.TravelUnitID, b.Seats)
    if err != nil {
        s.log.Errorf("booking: %s cancelled but releasing %d seats on %s failed: %v", b.ID, b.Seats, b.TravelUnitID, err)
        return nil, ledger.ReleaseResult{}, err
    }
    s.notify(detached, queue.BookingEvent{
        Type:           queue.EventBookingCancelled,
        BookingID:      b.ID,
        TravelUnitID:   b.TravelUnitID,
        RequesterEmail: b.RequesterEmail,
        Seats:          b.Seats,
        AvailableSeats: res.AvailableSeats(),
        OccurredAt:     b.UpdatedAt,
    })
    return b, res, nil
}

// GetBooking returns one booking record.
func (s *BookingService) GetBooking(ctx context.Context, id string) (*model.Booking, error) {
    return s.bookings.GetByID(ctx, id)
}

// ListBookings returns the bookings of a travel unit.
func (s *BookingService) ListBookings(ctx context.Context, travelUnitID string) ([]model.Booking, error) {
    if _, err := s.units.GetByID(ctx, travelUnitID); err != nil {
        if errors.Is(err, repository.ErrTravelUnitNotFound) {
            return nil, ledger.ErrNotFound
        }
        return nil, err
    }
    return s.bookings.ListByTravelUnit(ctx, travelUnitID)
}

func (s *BookingService) createRecord(ctx context.Context, b *model.Booking) error {
    ctx, cancel := context.WithTimeout(ctx, s.recordTimeout)
    defer cancel()
    return s.bookings.Create(ctx, b)
}

func (s *BookingService) compensate(ctx context.Context, travelUnitID string, seats int) {
    if _, err := s.ledger.Cancel(ctx, travelUnitID, seats); err != nil {
        // The ledger now holds seats nobody owns; operators reconcile from this line.
        s.log.Errorf("booking: compensation failed for %s (%d seats): %v", travelUnitID, seats, err)
    }
}

// notify publishes ev in the background.  Delivery failures never affect
// the booking.
func (s *BookingService) notify(ctx context.Context, ev queue.BookingEvent) {
    if s.notifier == nil {
        return
    }
    go func() {
        ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
        defer cancel()
        if err := s.notifier.Publish(ctx, ev); err != nil {
            s.log.Warnf("booking: notify %s for %s: %v", ev.Type, ev.BookingID, err)
        }
    }()
}

// isValidEmail does a basic structural check.
func isValidEmail(email string) bool {
    parts := strings.Split(email, "@")
    if len(parts) != 2 {
        return false
    }
    return len(parts[0]) > 0 && strings.Contains(parts[1], ".") && !strings.ContainsAny(email, " \t")
}
