package repository

import (
    "context"
    "errors"
    "fmt"
    "strconv"
    "time"

    "github.com/redis/go-redis/v9"

    "github.com/thivyan-jeyamohan/pearlora-travel-webapp-sub001/internal/ledger"
    "github.com/thivyan-jeyamohan/pearlora-travel-webapp-sub001/internal/model"
)

// RedisLedgerStore keeps each entry in a hash at <prefix>:<travelUnitID>
// with the fields total, booked and updated_ms.  Reserve and Release run as
// Lua scripts, so the guard and the increment execute as one command on the
// server.
type RedisLedgerStore struct {
    rdb    *redis.Client
    prefix string
}

// NewRedisLedgerStore returns a store using rdb.  An empty prefix defaults
// to "ledger".
func NewRedisLedgerStore(rdb *redis.Client, prefix string) *RedisLedgerStore {
    if prefix == "" {
        prefix = "ledger"
    }
    return &RedisLedgerStore{rdb: rdb, prefix: prefix}
}

// Script replies are {status, total, booked, updated_ms} where status is
// 1 for success, 0 for a rejected guard and -1 for a missing entry.
var (
    redisOpenScript = redis.NewScript(`
        local key = KEYS[1]
        if redis.call('EXISTS', key) == 0 then
            redis.call('HSET', key, 'total', ARGV[1], 'booked', 0, 'updated_ms', ARGV[2])
        end
        local v = redis.call('HMGET', key, 'total', 'booked', 'updated_ms')
        return { 1, tonumber(v[1]), tonumber(v[2]), tonumber(v[3]) }
    `)

    redisReserveScript = redis.NewScript(`
        local key = KEYS[1]
        local seats = tonumber(ARGV[1])
        local v = redis.call('HMGET', key, 'total', 'booked', 'updated_ms')
        if not v[1] then
            return { -1, 0, 0, 0 }
        end
        local total = tonumber(v[1])
        local booked = tonumber(v[2])
        if seats > total - booked then
            return { 0, total, booked, tonumber(v[3]) }
        end
        booked = booked + seats
        redis.call('HSET', key, 'booked', booked, 'updated_ms', ARGV[2])
        return { 1, total, booked, tonumber(ARGV[2]) }
    `)

    redisReleaseScript = redis.NewScript(`
        local key = KEYS[1]
        local seats = tonumber(ARGV[1])
        local v = redis.call('HMGET', key, 'total', 'booked', 'updated_ms')
        if not v[1] then
            return { -1, 0, 0, 0 }
        end
        local total = tonumber(v[1])
        local booked = tonumber(v[2])
        if seats > booked then
            return { 0, total, booked, tonumber(v[3]) }
        end
        booked = booked - seats
        redis.call('HSET', key, 'booked', booked, 'updated_ms', ARGV[2])
        return { 1, total, booked, tonumber(ARGV[2]) }
    `)
)

func (s *RedisLedgerStore) key(id string) string { return s.prefix + ":" + id }

func (s *RedisLedgerStore) Open(ctx context.Context, id string, totalSeats int) (model.SeatLedgerEntry, error) {
    now := time.Now().UnixMilli()
    e, err := s.runScript(ctx, redisOpenScript, id, totalSeats, now)
    if err != nil {
        return model.SeatLedgerEntry{}, err
    }
    return e, nil
}

func (s *RedisLedgerStore) Get(ctx context.Context, id string) (model.SeatLedgerEntry, error) {
    vals, err := s.rdb.HMGet(ctx, s.key(id), "total", "booked", "updated_ms").Result()
    if err != nil {
        return model.SeatLedgerEntry{}, classifyRedis(err)
    }
    if len(vals) != 3 || vals[0] == nil {
        return model.SeatLedgerEntry{}, ledger.ErrNotFound
    }
    e := model.SeatLedgerEntry{TravelUnitID: id}
    e.TotalSeats = int(asInt64(vals[0]))
    e.BookedSeats = int(asInt64(vals[1]))
    e.UpdatedAt = time.UnixMilli(asInt64(vals[2])).UTC()
    return e, nil
}

func (s *RedisLedgerStore) Reserve(ctx context.Context, id string, seats int) (model.SeatLedgerEntry, error) {
    e, err := s.runScript(ctx, redisReserveScript, id, seats, time.Now().UnixMilli())
    if errors.Is(err, errGuardRejected) {
        return model.SeatLedgerEntry{}, ledger.ErrCapacityExceeded
    }
    return e, err
}

func (s *RedisLedgerStore) Release(ctx context.Context, id string, seats int) (model.SeatLedgerEntry, error) {
    e, err := s.runScript(ctx, redisReleaseScript, id, seats, time.Now().UnixMilli())
    if errors.Is(err, errGuardRejected) {
        return model.SeatLedgerEntry{}, ledger.ErrInvalidRelease
    }
    return e, err
}

func (s *RedisLedgerStore) Remove(ctx context.Context, id string) error {
    if err := s.rdb.Del(ctx, s.key(id)).Err(); err != nil {
        return classifyRedis(err)
    }
    return nil
}

var errGuardRejected = errors.New("guard rejected")

func (s *RedisLedgerStore) runScript(ctx context.Context, script *redis.Script, id string, args ...interface{}) (model.SeatLedgerEntry, error) {
    vals, err := script.Run(ctx, s.rdb, []string{s.key(id)}, args...).Result()
    if err != nil {
        return model.SeatLedgerEntry{}, classifyRedis(err)
    }
    arr, ok := vals.([]interface{})
    if !ok || len(arr) != 4 {
        return model.SeatLedgerEntry{}, fmt.Errorf("redis ledger: unexpected script result %#v", vals)
    }
    switch asInt64(arr[0]) {
    case -1:
        return model.SeatLedgerEntry{}, ledger.ErrNotFound
    case 0:
        return model.SeatLedgerEntry{}, errGuardRejected
    }
    return model.SeatLedgerEntry{
        TravelUnitID: id,
        TotalSeats:   int(asInt64(arr[1])),
        BookedSeats:  int(asInt64(arr[2])),
        UpdatedAt:    time.UnixMilli(asInt64(arr[3])).UTC(),
    }, nil
}

// classifyRedis only marks dial failures as transient.  A timeout on an
// established connection may hide an applied script and is not retried.
func classifyRedis(err error) error {
    if isDialError(err) {
        return ledger.Transient(err)
    }
    return fmt.Errorf("redis: %w", err)
}

func asInt64(v interface{}) int64 {
    switch t := v.(type) {
    case int64:
        return t
    case int:
        return int64(t)
    case float64:
        return int64(t)
    case string:
        if n, err := strconv.ParseInt(t, 10, 64); err == nil {
            return n
        }
    }
    return 0
}
