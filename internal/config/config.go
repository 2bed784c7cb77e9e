package config // package config loads application configuration from environment variables

import (
	"log"
	"os"
	"strconv"
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable. Values are read once at startup and the struct
// is treated as read-only afterwards; handlers never consult the
// environment directly.
type Config struct {
	Env             string // application environment (e.g. "dev", "prod")
	Port            string // HTTP port to listen on
	DBUser          string // database username
	DBPass          string // database password (optional)
	DBHost          string // database host address
	DBPort          string // database port number
	DBName          string // database name
	JWTSecret       string // secret used to sign access tokens
	AccessTTLMin    int    // access token time-to-live in minutes
	BcryptCost      int    // bcrypt cost for password hashing
	FrontendBaseURL string // public base URL used to build visitor links
}

// Load reads configuration from environment variables and returns a Config.
// Required variables are enforced by must() and missing values cause the
// program to exit with a fatal log message. Variables with sensible
// defaults use getenv().
func Load() Config {
	return Config{
		Env:             getenv("APP_ENV", "dev"),
		Port:            getenv("APP_PORT", "3001"),
		DBUser:          must("DB_USER"),
		DBPass:          os.Getenv("DB_PASS"), // empty allowed
		DBHost:          must("DB_HOST"),
		DBPort:          must("DB_PORT"),
		DBName:          must("DB_NAME"),
		JWTSecret:       must("JWT_SECRET"),
		AccessTTLMin:    intenv("ACCESS_TOKEN_TTL_MIN", 60),
		BcryptCost:      intenv("BCRYPT_COST", 10),
		FrontendBaseURL: getenv("FRONTEND_BASE_URL", "http://localhost:3000"),
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

// getenv returns the variable's value or def when unset/empty.
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// intenv is like getenv but converts the value to an integer. Invalid
// values are fatal rather than silently defaulted.
func intenv(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
