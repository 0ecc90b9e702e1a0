package config

// This file defines the Redis settings and client constructor.  Redis is
// used for distributed rate limiting, catalog response caching and, when
// LEDGER_BACKEND=redis, as the seat ledger itself.  If the server cannot be
// reached at startup the constructor returns an error and callers decide
// whether to degrade (rate limiting, caching) or abort (ledger backend).

import (
    "context"
    "crypto/tls"
    "fmt"
    "strconv"
    "strings"
    "time"

    "github.com/redis/go-redis/v9"
)

// RedisConfig is read from:
//   REDIS_HOST and REDIS_PORT – hostname and port of the Redis server
//   REDIS_ADDR – host:port shorthand (host/port take precedence when both are set)
//   REDIS_PASSWORD – optional password
//   REDIS_DB – database number (default 0)
//   REDIS_TLS – enable TLS when "true" or "1"
//   REDIS_LEDGER_PREFIX – key prefix of ledger hashes (default "ledger")
type RedisConfig struct {
    Addr         string
    Password     string
    DB           int
    TLS          bool
    LedgerPrefix string
}

func LoadRedisConfig() RedisConfig {
    addr := envStr("REDIS_ADDR", "localhost:6379")
    host, port := envStr("REDIS_HOST", ""), envStr("REDIS_PORT", "")
    if host != "" && port != "" {
        addr = host + ":" + port
    }
    dbNum, err := strconv.Atoi(envStr("REDIS_DB", "0"))
    if err != nil {
        dbNum = 0
    }
    tlsEnv := envStr("REDIS_TLS", "")
    return RedisConfig{
        Addr:         addr,
        Password:     envStr("REDIS_PASSWORD", ""),
        DB:           dbNum,
        TLS:          strings.EqualFold(tlsEnv, "true") || tlsEnv == "1",
        LedgerPrefix: envStr("REDIS_LEDGER_PREFIX", "ledger"),
    }
}

// NewRedisClient builds a client from cfg and pings it with a short
// timeout.  On failure the client is closed and the ping error returned.
func NewRedisClient(cfg RedisConfig) (*redis.Client, error) {
    var tlsConf *tls.Config
    if cfg.TLS {
        tlsConf = &tls.Config{MinVersion: tls.VersionTLS12}
    }
    client := redis.NewClient(&redis.Options{
        Addr:      cfg.Addr,
        Password:  cfg.Password,
        DB:        cfg.DB,
        TLSConfig: tlsConf,
    })
    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    if err := client.Ping(ctx).Err(); err != nil {
        _ = client.Close()
        return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
    }
    return client, nil
}
