package repository

import (
    "context"
    "math"
    "sync"
    "sync/atomic"
    "testing"

    "github.com/alicebob/miniredis/v2"
    "github.com/redis/go-redis/v9"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/thivyan-jeyamohan/pearlora-travel-webapp-sub001/internal/ledger"
)

func newRedisStore(t *testing.T) (*RedisLedgerStore, *miniredis.Miniredis) {
    t.Helper()
    mr := miniredis.RunT(t)
    rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
    t.Cleanup(func() { rdb.Close() })
    return NewRedisLedgerStore(rdb, "test-ledger"), mr
}

func TestRedisLedgerStore_ReserveUntilFull(t *testing.T) {
    s, mr := newRedisStore(t)
    ctx := context.Background()

    e, err := s.Open(ctx, "bus-1", 5)
    require.NoError(t, err)
    assert.Equal(t, 5, e.TotalSeats)
    assert.Equal(t, 0, e.BookedSeats)

    e, err = s.Reserve(ctx, "bus-1", 3)
    require.NoError(t, err)
    assert.Equal(t, 2, e.AvailableSeats())

    _, err = s.Reserve(ctx, "bus-1", 3)
    require.ErrorIs(t, err, ledger.ErrCapacityExceeded)

    e, err = s.Reserve(ctx, "bus-1", 2)
    require.NoError(t, err)
    assert.Equal(t, 0, e.AvailableSeats())

    assert.Equal(t, "5", mr.HGet("test-ledger:bus-1", "booked"))
}

func TestRedisLedgerStore_HugeSeatCountIsRejected(t *testing.T) {
    s, mr := newRedisStore(t)
    ctx := context.Background()

    _, err := s.Open(ctx, "bus-1", 10)
    require.NoError(t, err)
    _, err = s.Reserve(ctx, "bus-1", 1)
    require.NoError(t, err)

    _, err = s.Reserve(ctx, "bus-1", math.MaxInt)
    require.ErrorIs(t, err, ledger.ErrCapacityExceeded)
    assert.Equal(t, "1", mr.HGet("test-ledger:bus-1", "booked"))
}

func TestRedisLedgerStore_Release(t *testing.T) {
    s, _ := newRedisStore(t)
    ctx := context.Background()

    _, err := s.Open(ctx, "ride-7", 4)
    require.NoError(t, err)
    _, err = s.Reserve(ctx, "ride-7", 3)
    require.NoError(t, err)

    _, err = s.Release(ctx, "ride-7", 5)
    require.ErrorIs(t, err, ledger.ErrInvalidRelease)

    e, err := s.Get(ctx, "ride-7")
    require.NoError(t, err)
    assert.Equal(t, 3, e.BookedSeats, "rejected release must not mutate")

    e, err = s.Release(ctx, "ride-7", 3)
    require.NoError(t, err)
    assert.Equal(t, 0, e.BookedSeats)
}

func TestRedisLedgerStore_MissingEntry(t *testing.T) {
    s, _ := newRedisStore(t)
    ctx := context.Background()

    _, err := s.Get(ctx, "nope")
    require.ErrorIs(t, err, ledger.ErrNotFound)
    _, err = s.Reserve(ctx, "nope", 1)
    require.ErrorIs(t, err, ledger.ErrNotFound)
    _, err = s.Release(ctx, "nope", 1)
    require.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestRedisLedgerStore_OpenKeepsExisting(t *testing.T) {
    s, _ := newRedisStore(t)
    ctx := context.Background()

    _, err := s.Open(ctx, "f-1", 10)
    require.NoError(t, err)
    _, err = s.Reserve(ctx, "f-1", 4)
    require.NoError(t, err)

    e, err := s.Open(ctx, "f-1", 99)
    require.NoError(t, err)
    assert.Equal(t, 10, e.TotalSeats)
    assert.Equal(t, 4, e.BookedSeats)

    require.NoError(t, s.Remove(ctx, "f-1"))
    require.NoError(t, s.Remove(ctx, "f-1"))
    _, err = s.Get(ctx, "f-1")
    require.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestRedisLedgerStore_ConcurrentReservesThroughLedger(t *testing.T) {
    s, _ := newRedisStore(t)
    ctx := context.Background()
    l := ledger.New(s, nil, ledger.DefaultConfig(), nil)
    _, err := l.Open(ctx, "train-1", 10)
    require.NoError(t, err)

    var ok, full int32
    var wg sync.WaitGroup
    for i := 0; i < 20; i++ {
        wg.Add(1)
        go func() {
            defer wg.Done()
            _, err := l.Reserve(ctx, "train-1", 1)
            switch {
            case err == nil:
                atomic.AddInt32(&ok, 1)
            case assert.ErrorIs(t, err, ledger.ErrCapacityExceeded):
                atomic.AddInt32(&full, 1)
            }
        }()
    }
    wg.Wait()

    assert.EqualValues(t, 10, ok)
    assert.EqualValues(t, 10, full)
    e, err := l.Snapshot(ctx, "train-1")
    require.NoError(t, err)
    assert.Equal(t, 10, e.BookedSeats)
}

func TestRedisLedgerStore_UnreachableServerIsTransient(t *testing.T) {
    mr := miniredis.RunT(t)
    addr := mr.Addr()
    mr.Close()

    rdb := redis.NewClient(&redis.Options{Addr: addr, MaxRetries: -1})
    t.Cleanup(func() { rdb.Close() })

    _, err := NewRedisLedgerStore(rdb, "").Get(context.Background(), "x")
    require.Error(t, err)
    assert.True(t, ledger.IsTransient(err))
}
