package main

import (
    "context"
    "database/sql"
    "errors"
    "log"
    "net/http"
    "os/signal"
    "syscall"
    "time"

    "github.com/labstack/echo/v4"
    echomw "github.com/labstack/echo/v4/middleware"
    gommonlog "github.com/labstack/gommon/log"
    "github.com/redis/go-redis/v9"
    "go.mongodb.org/mongo-driver/mongo"
    "go.mongodb.org/mongo-driver/mongo/readpref"

    "github.com/thivyan-jeyamohan/pearlora-travel-webapp-sub001/internal/config"
    "github.com/thivyan-jeyamohan/pearlora-travel-webapp-sub001/internal/database"
    "github.com/thivyan-jeyamohan/pearlora-travel-webapp-sub001/internal/handler"
    "github.com/thivyan-jeyamohan/pearlora-travel-webapp-sub001/internal/ledger"
    "github.com/thivyan-jeyamohan/pearlora-travel-webapp-sub001/internal/middleware"
    "github.com/thivyan-jeyamohan/pearlora-travel-webapp-sub001/internal/queue"
    "github.com/thivyan-jeyamohan/pearlora-travel-webapp-sub001/internal/repository"
    "github.com/thivyan-jeyamohan/pearlora-travel-webapp-sub001/internal/router"
    "github.com/thivyan-jeyamohan/pearlora-travel-webapp-sub001/internal/service"
)

func main() {
    config.LoadDotEnv()
    cfg := config.Load()
    ledgerCfg := config.LoadLedgerConfig()
    msgCfg := config.LoadMessagingConfig()

    ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
    defer stop()

    e := echo.New()
    e.HideBanner = true
    if cfg.Env == "dev" {
        e.Logger.SetLevel(gommonlog.DEBUG)
    } else {
        e.Logger.SetLevel(gommonlog.INFO)
    }
    e.Use(echomw.RequestID(), echomw.Logger(), echomw.Recover())

    // MySQL holds the catalog and booking records whatever the ledger backend.
    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatalf("database: %v", err)
    }
    defer db.Close()
    if err := database.Migrate(ctx, db); err != nil {
        log.Fatalf("migrate: %v", err)
    }

    // Redis is optional for rate limiting and caching but required when it
    // is the ledger backend.
    redisCfg := config.LoadRedisConfig()
    rdb, err := config.NewRedisClient(redisCfg)
    if err != nil {
        if ledgerCfg.Backend == config.BackendRedis {
            log.Fatalf("redis: %v", err)
        }
        e.Logger.Warnf("redis unavailable, rate limiting and caching disabled: %v", err)
        rdb = nil
    } else {
        defer rdb.Close()
    }

    units := repository.NewTravelUnitRepo(db)
    bookings := repository.NewBookingRepo(db)

    store, storeCheck, closeStore := buildStore(ledgerCfg, db, rdb, redisCfg)
    defer closeStore()
    seatLedger := ledger.New(store, units, ledger.Config{
        Attempts:  ledgerCfg.Attempts,
        BaseDelay: ledgerCfg.BaseDelay,
        MaxDelay:  ledgerCfg.MaxDelay,
        OpTimeout: ledgerCfg.OpTimeout,
    }, e.Logger)
    e.Logger.Infof("seat ledger backend: %s", ledgerCfg.Backend)

    cache := middleware.NewResponseCache(config.LoadCacheConfig(), rdb)
    limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

    catalogSvc := service.NewCatalogService(units, seatLedger, e.Logger)
    bookingSvc := service.NewBookingService(seatLedger, bookings, units, service.NewAMQPPublisher(msgCfg), e.Logger)

    router.RegisterRoutes(e, handler.Health(healthChecks(db, rdb, ledgerCfg.Backend, storeCheck)))
    router.RegisterSeats(e, handler.NewSeatHandler(seatLedger, bookingSvc), limiter)
    router.RegisterCatalog(e, handler.NewCatalogHandler(catalogSvc, cache), cache.Middleware(), cfg.JWTSecret)
    router.RegisterBookings(e, handler.NewBookingHandler(bookingSvc), limiter)

    go func() {
        if err := queue.NewConsumer(msgCfg, e.Logger).Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
            e.Logger.Errorf("notification consumer stopped: %v", err)
        }
    }()

    go func() {
        addr := ":" + cfg.Port
        log.Printf("listening on %s (env=%s)", addr, cfg.Env)
        if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
            log.Fatalf("server error: %v", err)
        }
    }()

    <-ctx.Done()
    log.Println("shutting down server")
    shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    defer cancel()
    if err := e.Shutdown(shutdownCtx); err != nil {
        log.Printf("graceful shutdown failed: %v", err)
    }
    log.Println("server stopped")
}

// buildStore returns the ledger store selected by LEDGER_BACKEND, a health
// check for a connection only that store uses (nil when it shares MySQL,
// Redis or process memory) and a function releasing whatever it opened.
func buildStore(cfg config.LedgerConfig, db *sql.DB, rdb *redis.Client, redisCfg config.RedisConfig) (ledger.Store, handler.Check, func()) {
    switch cfg.Backend {
    case config.BackendRedis:
        return repository.NewRedisLedgerStore(rdb, redisCfg.LedgerPrefix), nil, func() {}
    case config.BackendMongo:
        mongoCfg := config.LoadMongoConfig()
        client, err := database.OpenMongo(mongoCfg.URI)
        if err != nil {
            log.Fatalf("mongo: %v", err)
        }
        coll := client.Database(mongoCfg.Database).Collection(mongoCfg.Collection)
        ping := func(ctx context.Context) error { return client.Ping(ctx, readpref.Primary()) }
        return repository.NewMongoLedgerStore(coll), ping, func() { disconnect(client) }
    case config.BackendMemory:
        log.Println("warning: memory ledger backend keeps seat counts in this process only")
        return ledger.NewMemoryStore(), nil, func() {}
    default:
        return repository.NewLedgerRepo(db), nil, func() {}
    }
}

// healthChecks lists the dependencies reported by /healthz.  storeCheck is
// registered under the ledger backend's name.
func healthChecks(db *sql.DB, rdb *redis.Client, backend string, storeCheck handler.Check) map[string]handler.Check {
    checks := map[string]handler.Check{"mysql": db.PingContext}
    if rdb != nil {
        checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
    }
    if storeCheck != nil {
        checks[backend] = storeCheck
    }
    return checks
}

func disconnect(client *mongo.Client) {
    ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
    defer cancel()
    if err := client.Disconnect(ctx); err != nil {
        log.Printf("mongo disconnect: %v", err)
    }
}
