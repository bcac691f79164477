package config // package config loads application configuration from environment variables

import (
    "log"      // log is used to report configuration errors and halt execution
    "os"       // os provides access to environment variables
    "strconv"  // strconv converts strings to other types
    "time"     // time expresses the draft freshness window
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and secrets, durations for TTLs.
type Config struct {
    Env         string        // application environment (e.g. "dev", "prod")
    Port        string        // HTTP port to listen on
    DBUser      string        // database username
    DBPass      string        // database password (optional)
    DBHost      string        // database host address
    DBPort      string        // database port number
    DBName      string        // database name
    JWTSecret   string        // secret used to verify JWTs issued by the auth service
    DraftTTL    time.Duration // freshness window for persisted selection drafts
    CheckoutURL string        // path the client is redirected to after staging succeeds
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
    return Config{
        Env:         must("APP_ENV"),      // environment (dev/test/prod)
        Port:        must("APP_PORT"),     // port to bind the HTTP server
        DBUser:      must("DB_USER"),      // database user
        DBPass:      os.Getenv("DB_PASS"), // database password (empty allowed)
        DBHost:      must("DB_HOST"),      // database host
        DBPort:      must("DB_PORT"),      // database port
        DBName:      must("DB_NAME"),      // database name
        JWTSecret:   must("JWT_SECRET"),   // shared secret for verifying access tokens
        DraftTTL:    minutes(getenv("SELECTION_DRAFT_TTL_MIN", "60")), // draft restore window
        CheckoutURL: getenv("CHECKOUT_URL", "/v1/checkout"),           // downstream checkout entry point
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

// minutes converts a decimal string into a duration of that many minutes.
// Invalid or non-positive values fall back to one hour, the default draft window.
func minutes(s string) time.Duration {
    n, err := strconv.Atoi(s)
    if err != nil || n <= 0 {
        return time.Hour
    }
    return time.Duration(n) * time.Minute
}
