package config // package config loads application configuration from environment variables

import (
    "log"      // log is used to report configuration errors and halt execution
    "os"       // os provides access to environment variables

    "github.com/joho/godotenv" // godotenv loads a local .env file into the environment
)

// Config holds the core runtime configuration.  Each field corresponds to
// an environment variable.  Concern-specific settings (ledger, redis, rate
// limiting, caching, messaging) are loaded by their own Load* functions.
type Config struct {
    Env       string // application environment (e.g. "dev", "prod")
    Port      string // HTTP port to listen on
    DBUser    string // database username
    DBPass    string // database password (optional)
    DBHost    string // database host address
    DBPort    string // database port number
    DBName    string // database name
    JWTSecret string // secret used to verify operator tokens
}

// LoadDotEnv loads variables from a .env file in the working directory when
// one exists.  Variables already present in the environment win.
func LoadDotEnv() {
    if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
        log.Printf("config: ignoring .env: %v", err)
    }
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
    return Config{
        Env:       getenv("APP_ENV", "dev"),  // environment (dev/test/prod)
        Port:      getenv("APP_PORT", "8080"), // port to bind the HTTP server
        DBUser:    must("DB_USER"),           // database user
        DBPass:    os.Getenv("DB_PASS"),      // database password (empty allowed)
        DBHost:    must("DB_HOST"),           // database host
        DBPort:    getenv("DB_PORT", "3306"), // database port
        DBName:    must("DB_NAME"),           // database name
        JWTSecret: must("JWT_SECRET"),        // secret used for verifying JWTs
    }
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}
