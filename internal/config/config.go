package config // package config loads application configuration from environment variables

import (
    "os"      // os provides access to environment variables
    "strconv" // strconv converts strings to other types
    "time"    // time resolves the configured zone

    "github.com/sirupsen/logrus"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
    Env             string // application environment (e.g. "dev", "production")
    Port            string // HTTP port to listen on
    DBUser          string // database username
    DBPass          string // database password (optional)
    DBHost          string // database host address
    DBPort          string // database port number
    DBName          string // database name
    DBAutoMigrate   bool   // apply the embedded schema on startup
    JWTSecret       string // secret used to sign JWTs
    AccessTTLMin    int    // access token time-to-live in minutes
    RefreshTTLDays  int    // refresh token time-to-live in days
    BcryptCost      int    // bcrypt cost for password hashing
    Timezone        string // IANA zone every match schedule is read in
    UploadDir       string // root of the public disk for uploaded images
    LogLevel        string // logrus level name
    StatusSweepCron string // cron spec for the match status sweep; empty disables it
    TokenPurgeCron  string // cron spec for purging expired refresh tokens; empty disables it
    AdminEmail      string // seeded ADMIN account (optional)
    AdminPassword   string // password of the seeded ADMIN account
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
    return Config{
        Env:             must("APP_ENV"),
        Port:            must("APP_PORT"),
        DBUser:          must("DB_USER"),
        DBPass:          os.Getenv("DB_PASS"), // empty allowed
        DBHost:          must("DB_HOST"),
        DBPort:          must("DB_PORT"),
        DBName:          must("DB_NAME"),
        DBAutoMigrate:   envBool("DB_AUTO_MIGRATE", false),
        JWTSecret:       must("JWT_SECRET"),
        AccessTTLMin:    mustInt("ACCESS_TOKEN_TTL_MIN"),
        RefreshTTLDays:  mustInt("REFRESH_TOKEN_TTL_DAYS"),
        BcryptCost:      mustInt("BCRYPT_COST"),
        Timezone:        getenv("APP_TIMEZONE", "Asia/Riyadh"),
        UploadDir:       getenv("UPLOAD_DIR", "storage"),
        LogLevel:        getenv("LOG_LEVEL", "info"),
        StatusSweepCron: cronSpec("STATUS_SWEEP_CRON", "@every 1m"),
        TokenPurgeCron:  cronSpec("TOKEN_PURGE_CRON", "@daily"),
        AdminEmail:      os.Getenv("ADMIN_EMAIL"),
        AdminPassword:   os.Getenv("ADMIN_PASSWORD"),
    }
}

// Location resolves the configured time zone.  The result is threaded
// explicitly into every schedule computation.
func (c Config) Location() (*time.Location, error) {
    return time.LoadLocation(c.Timezone)
}

// cronSpec distinguishes an unset variable (use def) from one explicitly set
// to empty (disable the job).
func cronSpec(key, def string) string {
    if v, ok := os.LookupEnv(key); ok {
        return v
    }
    return def
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        logrus.Fatalf("missing required env var: %s", key)
    }
    return v
}

// mustInt is like must() but converts the retrieved string into an integer.
func mustInt(key string) int {
    s := must(key)
    n, err := strconv.Atoi(s)
    if err != nil {
        logrus.Fatalf("invalid int for %s: %q", key, s)
    }
    return n
}
