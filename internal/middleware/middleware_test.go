package middleware

import (
    "context"
    "net/http"
    "net/http/httptest"
    "sync/atomic"
    "testing"
    "time"

    "github.com/alicebob/miniredis/v2"
    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/thivyan-jeyamohan/pearlora-travel-webapp-sub001/internal/config"
    "github.com/thivyan-jeyamohan/pearlora-travel-webapp-sub001/internal/utils"
)

func newRedis(t *testing.T) *redis.Client {
    t.Helper()
    mr := miniredis.RunT(t)
    rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
    t.Cleanup(func() { rdb.Close() })
    return rdb
}

func do(e *echo.Echo, method, target, token string) *httptest.ResponseRecorder {
    req := httptest.NewRequest(method, target, nil)
    if token != "" {
        req.Header.Set("Authorization", "Bearer "+token)
    }
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    return rec
}

func TestJWTAuthAndRole(t *testing.T) {
    const secret = "test-secret"
    e := echo.New()
    e.POST("/ops", func(c echo.Context) error {
        return c.String(http.StatusOK, subject(c))
    }, JWTAuth(secret), RequireRole(utils.RoleOperator))

    op, err := utils.NewAccessToken(secret, "ops-1", utils.RoleOperator, time.Minute)
    require.NoError(t, err)
    rider, err := utils.NewAccessToken(secret, "rider-1", "RIDER", time.Minute)
    require.NoError(t, err)
    forged, err := utils.NewAccessToken("other-secret", "ops-1", utils.RoleOperator, time.Minute)
    require.NoError(t, err)

    rec := do(e, http.MethodPost, "/ops", op.Token)
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "ops-1", rec.Body.String())

    assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodPost, "/ops", "").Code)
    assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodPost, "/ops", forged.Token).Code)

    rec = do(e, http.MethodPost, "/ops", rider.Token)
    assert.Equal(t, http.StatusForbidden, rec.Code)
    assert.Contains(t, rec.Body.String(), `"error":"Forbidden"`)
}

func TestTokenBucketBlocksAfterCapacity(t *testing.T) {
    cfg := config.RateLimitConfig{
        Enabled:        true,
        Capacity:       2,
        RefillTokens:   1,
        RefillInterval: time.Hour,
        TTL:            time.Hour,
        KeyStrategy:    "ip_route",
        Prefix:         "rl:test",
    }
    e := echo.New()
    e.POST("/api/seats/reserve", func(c echo.Context) error {
        return c.NoContent(http.StatusCreated)
    }, NewTokenBucket(cfg, newRedis(t)))

    assert.Equal(t, http.StatusCreated, do(e, http.MethodPost, "/api/seats/reserve", "").Code)
    assert.Equal(t, http.StatusCreated, do(e, http.MethodPost, "/api/seats/reserve", "").Code)

    rec := do(e, http.MethodPost, "/api/seats/reserve", "")
    assert.Equal(t, http.StatusTooManyRequests, rec.Code)
    assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
    assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestTokenBucketDisabledWithoutRedis(t *testing.T) {
    cfg := config.RateLimitConfig{Enabled: true, Capacity: 1}
    e := echo.New()
    e.GET("/x", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, NewTokenBucket(cfg, nil))

    for i := 0; i < 3; i++ {
        assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/x", "").Code)
    }
}

func TestBuildRateKeyStrategies(t *testing.T) {
    e := echo.New()
    req := httptest.NewRequest(http.MethodPost, "/api/seats/cancel", nil)
    req.RemoteAddr = "10.0.0.7:5555"
    c := e.NewContext(req, httptest.NewRecorder())
    c.SetPath("/api/seats/cancel")
    c.Set("user_id", "u-42")

    cfg := config.RateLimitConfig{Prefix: "rl"}
    cfg.KeyStrategy = "ip"
    assert.Equal(t, "rl:ip:10.0.0.7", buildRateKey(cfg, c))
    cfg.KeyStrategy = "user_route"
    assert.Equal(t, "rl:user:u-42:route:POST /api/seats/cancel", buildRateKey(cfg, c))
}

func TestResponseCacheHitAndPurge(t *testing.T) {
    rc := NewResponseCache(config.CacheConfig{Enabled: true, TTL: time.Minute, Prefix: "cache:test"}, newRedis(t))
    var calls int32
    e := echo.New()
    e.GET("/api/travel-units/:id", func(c echo.Context) error {
        atomic.AddInt32(&calls, 1)
        return c.JSON(http.StatusOK, echo.Map{"id": c.Param("id")})
    }, rc.Middleware())

    first := do(e, http.MethodGet, "/api/travel-units/a", "")
    assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
    second := do(e, http.MethodGet, "/api/travel-units/a", "")
    assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
    assert.JSONEq(t, first.Body.String(), second.Body.String())
    assert.EqualValues(t, 1, atomic.LoadInt32(&calls))

    other := do(e, http.MethodGet, "/api/travel-units/b", "")
    assert.Equal(t, "MISS", other.Header().Get("X-Cache"))
    assert.JSONEq(t, `{"id":"b"}`, other.Body.String())

    require.NoError(t, rc.Purge(context.Background()))
    assert.Equal(t, "MISS", do(e, http.MethodGet, "/api/travel-units/a", "").Header().Get("X-Cache"))
    assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestResponseCacheSkipsErrors(t *testing.T) {
    rc := NewResponseCache(config.CacheConfig{Enabled: true, TTL: time.Minute, Prefix: "cache:test"}, newRedis(t))
    e := echo.New()
    e.GET("/missing", func(c echo.Context) error {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "NotFound"})
    }, rc.Middleware())

    do(e, http.MethodGet, "/missing", "")
    assert.Equal(t, "MISS", do(e, http.MethodGet, "/missing", "").Header().Get("X-Cache"))
}

func TestPayloadRoundTrip(t *testing.T) {
    h := http.Header{"Content-Type": []string{"application/json"}}
    bs, err := encodePayload(http.StatusOK, h, []byte(`{"a":1}`))
    require.NoError(t, err)

    status, hdr, body, ok := decodePayload(bs)
    require.True(t, ok)
    assert.Equal(t, http.StatusOK, status)
    assert.Equal(t, "application/json", hdr.Get("Content-Type"))
    assert.Equal(t, `{"a":1}`, string(body))

    _, _, _, ok = decodePayload([]byte{0, 1})
    assert.False(t, ok)
}
