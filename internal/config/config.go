package config // package config loads application configuration from environment variables

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// ErrInvalidConfiguration is returned when a configuration value cannot be
// parsed, most notably a token TTL string with an unknown unit suffix. It is
// surfaced at startup so a bad deployment never serves a single request.
var ErrInvalidConfiguration = fmt.Errorf("invalid configuration")

// Config holds all runtime configuration values. Each field corresponds to an
// environment variable. Token TTLs are parsed from duration strings such as
// "15m", "12h" or "30d" (the "d" day suffix is accepted on top of the usual
// units).
type Config struct {
	Env           string        // application environment (e.g. "dev", "prod")
	Port          string        // HTTP port to listen on
	DBUser        string        // database username
	DBPass        string        // database password (optional)
	DBHost        string        // database host address
	DBPort        string        // database port number
	DBName        string        // database name
	JWTSecret     string        // secret used to sign JWTs
	AccessTTL     time.Duration // access token time-to-live
	RefreshTTL    time.Duration // refresh token time-to-live
	BcryptCost    int           // bcrypt cost for password hashing
	TokenHashCost int           // bcrypt cost for refresh token hashing
}

// Load reads configuration values from environment variables and returns a
// Config. Required variables are enforced by must() and missing or
// unparseable values cause the program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:           must("APP_ENV"),
		Port:          must("APP_PORT"),
		DBUser:        must("DB_USER"),
		DBPass:        os.Getenv("DB_PASS"), // empty allowed
		DBHost:        must("DB_HOST"),
		DBPort:        must("DB_PORT"),
		DBName:        must("DB_NAME"),
		JWTSecret:     must("JWT_SECRET"),
		AccessTTL:     mustTTL("ACCESS_TOKEN_TTL", "15m"),
		RefreshTTL:    mustTTL("REFRESH_TOKEN_TTL", "30d"),
		BcryptCost:    mustInt("BCRYPT_COST"),
		TokenHashCost: envInt("TOKEN_HASH_COST", 10),
	}
}

// ParseTTL converts a duration string like "30d", "12h", "45m" or "30s" into
// a time.Duration. Unlike time.ParseDuration it accepts a day suffix, since
// refresh token lifetimes are commonly configured in days. Unrecognized unit
// suffixes fail with ErrInvalidConfiguration.
func ParseTTL(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty duration", ErrInvalidConfiguration)
	}
	i := 0
	for i < len(s) && (unicode.IsDigit(rune(s[i])) || s[i] == '-') {
		i++
	}
	num, unit := s[:i], s[i:]
	n, err := strconv.Atoi(num)
	if err != nil {
		return 0, fmt.Errorf("%w: bad duration %q", ErrInvalidConfiguration, s)
	}
	switch unit {
	case "d":
		return time.Duration(n) * 24 * time.Hour, nil
	case "h":
		return time.Duration(n) * time.Hour, nil
	case "m":
		return time.Duration(n) * time.Minute, nil
	case "s":
		return time.Duration(n) * time.Second, nil
	default:
		return 0, fmt.Errorf("%w: unknown unit %q in duration %q", ErrInvalidConfiguration, unit, s)
	}
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

// mustTTL parses a duration string env var, falling back to def when unset.
// An unparseable value is fatal: serving with a wrong token lifetime is worse
// than refusing to start.
func mustTTL(key, def string) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		s = def
	}
	d, err := ParseTTL(s)
	if err != nil {
		log.Fatalf("invalid duration for %s: %v", key, err)
	}
	return d
}
