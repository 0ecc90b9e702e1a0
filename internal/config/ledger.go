package config

import (
    "strings"
    "time"
)

// Ledger backends selectable through LEDGER_BACKEND.
const (
    BackendMySQL  = "mysql"
    BackendRedis  = "redis"
    BackendMongo  = "mongo"
    BackendMemory = "memory"
)

// LedgerConfig selects where seat counts live and how hard the ledger
// retries transient storage failures before reporting the store as
// unavailable.
type LedgerConfig struct {
    Backend   string
    Attempts  int
    BaseDelay time.Duration
    MaxDelay  time.Duration
    OpTimeout time.Duration
}

// LoadLedgerConfig reads LEDGER_* variables.  Unknown backends fall back
// to mysql.
func LoadLedgerConfig() LedgerConfig {
    cfg := LedgerConfig{
        Backend:   strings.ToLower(envStr("LEDGER_BACKEND", BackendMySQL)),
        Attempts:  envInt("LEDGER_RETRY_ATTEMPTS", 3),
        BaseDelay: envDur("LEDGER_RETRY_BASE", 50*time.Millisecond),
        MaxDelay:  envDur("LEDGER_RETRY_MAX", time.Second),
        OpTimeout: envDur("LEDGER_OP_TIMEOUT", 2*time.Second),
    }
    switch cfg.Backend {
    case BackendMySQL, BackendRedis, BackendMongo, BackendMemory:
    default:
        cfg.Backend = BackendMySQL
    }
    if cfg.Attempts < 1 { cfg.Attempts = 1 }
    if cfg.MaxDelay < cfg.BaseDelay { cfg.MaxDelay = cfg.BaseDelay }
    return cfg
}
