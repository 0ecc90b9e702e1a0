package service

import (
    "context"
    "errors"
    "sync"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/thivyan-jeyamohan/pearlora-travel-webapp-sub001/internal/ledger"
    "github.com/thivyan-jeyamohan/pearlora-travel-webapp-sub001/internal/model"
    "github.com/thivyan-jeyamohan/pearlora-travel-webapp-sub001/internal/queue"
    "github.com/thivyan-jeyamohan/pearlora-travel-webapp-sub001/internal/repository"
)

type bookingFixture struct {
    svc      *BookingService
    ledger   *ledger.Ledger
    bookings *fakeBookings
    notifier *fakeNotifier
}

func newBookingFixture(t *testing.T, capacity int) bookingFixture {
    t.Helper()
    unit := &model.TravelUnit{ID: "ride-1", Kind: model.KindRide, Capacity: capacity, PriceCents: 1250}
    units := newFakeUnits(unit)
    l := ledger.New(ledger.NewMemoryStore(), units, ledger.DefaultConfig(), nil)
    bookings := newFakeBookings()
    notifier := newFakeNotifier()
    return bookingFixture{
        svc:      NewBookingService(l, bookings, units, notifier, nil),
        ledger:   l,
        bookings: bookings,
        notifier: notifier,
    }
}

func (f bookingFixture) booked(t *testing.T) int {
    t.Helper()
    e, err := f.ledger.Snapshot(context.Background(), "ride-1")
    require.NoError(t, err)
    return e.BookedSeats
}

func (f bookingFixture) nextEvent(t *testing.T) queue.BookingEvent {
    t.Helper()
    select {
    case ev := <-f.notifier.events:
        return ev
    case <-time.After(2 * time.Second):
        t.Fatal("no notification published")
        return queue.BookingEvent{}
    }
}

func TestBook_RecordsBookingAndNotifies(t *testing.T) {
    f := newBookingFixture(t, 4)

    res, err := f.svc.Book(context.Background(), BookRequest{TravelUnitID: "ride-1", Seats: 3, RequesterEmail: " Ana@Example.com "})
    require.NoError(t, err)
    assert.Equal(t, 1, res.Reservation.AvailableSeats())
    assert.Equal(t, "ana@example.com", res.Booking.RequesterEmail)
    assert.Equal(t, int64(3750), res.Booking.TotalCents)
    assert.Equal(t, model.BookingConfirmed, res.Booking.Status)
    assert.Equal(t, 3, f.booked(t))

    ev := f.nextEvent(t)
    assert.Equal(t, queue.EventBookingConfirmed, ev.Type)
    assert.Equal(t, res.Booking.ID, ev.BookingID)
    assert.Equal(t, 1, ev.AvailableSeats)
}

func TestBook_CompensatesWhenRecordFails(t *testing.T) {
    f := newBookingFixture(t, 4)
    f.bookings.createErr = errors.New("disk full")

    _, err := f.svc.Book(context.Background(), BookRequest{TravelUnitID: "ride-1", Seats: 2, RequesterEmail: "a@b.lk"})
    require.ErrorIs(t, err, ledger.ErrStorageUnavailable)
    assert.Equal(t, 0, f.booked(t), "reservation must be rolled back")
    assert.Empty(t, f.notifier.events)
}

func TestBook_RecordSurvivesAbandonedCaller(t *testing.T) {
    f := newBookingFixture(t, 4)
    ctx, cancel := context.WithCancel(context.Background())
    var recordCtxErr error
    f.bookings.onCreate = func(rctx context.Context) {
        cancel() // the client goes away after the seats were reserved
        recordCtxErr = rctx.Err()
    }

    res, err := f.svc.Book(ctx, BookRequest{TravelUnitID: "ride-1", Seats: 1, RequesterEmail: "a@b.lk"})
    require.NoError(t, err)
    assert.NoError(t, recordCtxErr)
    assert.Equal(t, 1, f.booked(t))

    stored, err := f.bookings.GetByID(context.Background(), res.Booking.ID)
    require.NoError(t, err)
    assert.Equal(t, 1, stored.Seats)
}

func TestBook_CapacityExceededWritesNothing(t *testing.T) {
    f := newBookingFixture(t, 2)

    _, err := f.svc.Book(context.Background(), BookRequest{TravelUnitID: "ride-1", Seats: 3, RequesterEmail: "a@b.lk"})
    require.ErrorIs(t, err, ledger.ErrCapacityExceeded)
    assert.Empty(t, f.bookings.bookings)
    assert.Equal(t, 0, f.booked(t))
}

func TestBook_Validation(t *testing.T) {
    f := newBookingFixture(t, 2)
    ctx := context.Background()

    _, err := f.svc.Book(ctx, BookRequest{TravelUnitID: "ride-1", Seats: 0, RequesterEmail: "a@b.lk"})
    assert.ErrorIs(t, err, ledger.ErrInvalidRequest)
    _, err = f.svc.Book(ctx, BookRequest{TravelUnitID: "ride-1", Seats: 1, RequesterEmail: "not-an-email"})
    assert.ErrorIs(t, err, ledger.ErrInvalidRequest)
    _, err = f.svc.Book(ctx, BookRequest{TravelUnitID: "", Seats: 1, RequesterEmail: "a@b.lk"})
    assert.ErrorIs(t, err, ledger.ErrInvalidRequest)
    _, err = f.svc.Book(ctx, BookRequest{TravelUnitID: "ghost", Seats: 1, RequesterEmail: "a@b.lk"})
    assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestBook_ConcurrentRequestsNeverOverbook(t *testing.T) {
    f := newBookingFixture(t, 10)

    var wg sync.WaitGroup
    var mu sync.Mutex
    ok := 0
    for i := 0; i < 20; i++ {
        wg.Add(1)
        go func() {
            defer wg.Done()
            _, err := f.svc.Book(context.Background(), BookRequest{TravelUnitID: "ride-1", Seats: 1, RequesterEmail: "a@b.lk"})
            if err == nil {
                mu.Lock()
                ok++
                mu.Unlock()
            }
        }()
    }
    wg.Wait()

    assert.Equal(t, 10, ok)
    assert.Equal(t, 10, f.booked(t))
    assert.Len(t, f.bookings.bookings, 10)
}

func TestCancelBooking_ReleasesOnce(t *testing.T) {
    f := newBookingFixture(t, 5)
    ctx := context.Background()

    res, err := f.svc.Book(ctx, BookRequest{TravelUnitID: "ride-1", Seats: 3, RequesterEmail: "a@b.lk"})
    require.NoError(t, err)
    f.nextEvent(t)

    b, rel, err := f.svc.CancelBooking(ctx, res.Booking.ID)
    require.NoError(t, err)
    assert.Equal(t, model.BookingCancelled, b.Status)
    assert.Equal(t, 5, rel.AvailableSeats())
    assert.Equal(t, queue.EventBookingCancelled, f.nextEvent(t).Type)

    _, _, err = f.svc.CancelBooking(ctx, res.Booking.ID)
    require.ErrorIs(t, err, repository.ErrBookingNotActive)
    assert.Equal(t, 0, f.booked(t))

    _, _, err = f.svc.CancelBooking(ctx, "missing")
    require.ErrorIs(t, err, repository.ErrBookingNotFound)
}

func TestRelease_RejectsOverRelease(t *testing.T) {
    f := newBookingFixture(t, 5)
    ctx := context.Background()
    _, err := f.ledger.Reserve(ctx, "ride-1", 3)
    require.NoError(t, err)

    _, err = f.svc.Release(ctx, ReleaseRequest{TravelUnitID: "ride-1", Seats: 5})
    require.ErrorIs(t, err, ledger.ErrInvalidRelease)
    assert.Equal(t, 3, f.booked(t))

    rel, err := f.svc.Release(ctx, ReleaseRequest{TravelUnitID: "ride-1", Seats: 3})
    require.NoError(t, err)
    assert.Equal(t, 5, rel.AvailableSeats())
}

func TestListBookings_UnknownUnit(t *testing.T) {
    f := newBookingFixture(t, 5)
    _, err := f.svc.ListBookings(context.Background(), "ghost")
    require.ErrorIs(t, err, ledger.ErrNotFound)
}
