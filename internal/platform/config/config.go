package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	dErrors "signet/pkg/domain-errors"
)

// SameSite names accepted for the token cookies. "none" is deliberately not
// supported: both cookies stay first-party.
const (
	SameSiteStrict = "strict"
	SameSiteLax    = "lax"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	Environment     string
	LogLevel        string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration

	DatabaseURL string
	RedisAddr   string
	RedisDB     int

	Password Password
	Lockout  Lockout
	Token    Token
	Cookie   Cookie
	Cleanup  Cleanup
	Seed     Seed
}

// Password holds the hashing cost parameters and the server pepper.
type Password struct {
	Pepper      string
	MemoryKiB   uint32
	Iterations  uint32
	Parallelism uint8
}

// Lockout holds the sliding-window failure accounting parameters.
type Lockout struct {
	Window    time.Duration
	Threshold int
}

// Token holds the signing secret and the pair lifetimes.
type Token struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Cookie holds the attribute policy applied to both token cookies.
type Cookie struct {
	SameSite string
	Secure   bool
}

// Cleanup configures the expired-attempt-record worker.
type Cleanup struct {
	Interval time.Duration
	Grace    time.Duration
}

// Seed optionally bootstraps an administrator account at startup.
type Seed struct {
	AdminEmail    string
	AdminPassword string
}

// FromEnv builds a Server config from environment variables so main stays lean.
// Call Validate before serving; invalid values are a startup failure, never a
// request-time one.
func FromEnv() Server {
	return Server{
		Addr:            getEnvOrDefault("ADDR", ":8080"),
		Environment:     getEnvOrDefault("ENV", "development"),
		LogLevel:        getEnvOrDefault("LOG_LEVEL", "info"),
		RequestTimeout:  getEnvDurationOrDefault("REQUEST_TIMEOUT", 15*time.Second),
		ShutdownTimeout: getEnvDurationOrDefault("SHUTDOWN_TIMEOUT", 10*time.Second),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisAddr:   os.Getenv("REDIS_ADDR"),
		RedisDB:     getEnvIntOrDefault("REDIS_DB", 0),

		Password: Password{
			Pepper:      os.Getenv("PASSWORD_PEPPER"),
			MemoryKiB:   uint32(getEnvIntOrDefault("PASSWORD_HASH_MEMORY_KIB", 19*1024)),
			Iterations:  uint32(getEnvIntOrDefault("PASSWORD_HASH_ITERATIONS", 2)),
			Parallelism: uint8(getEnvIntOrDefault("PASSWORD_HASH_PARALLELISM", 1)),
		},
		Lockout: Lockout{
			Window:    getEnvDurationOrDefault("LOCKOUT_WINDOW", 15*time.Minute),
			Threshold: getEnvIntOrDefault("LOCKOUT_THRESHOLD", 5),
		},
		Token: Token{
			Secret:     os.Getenv("JWT_SECRET"),
			AccessTTL:  getEnvDurationOrDefault("ACCESS_TOKEN_TTL", 15*time.Minute),
			RefreshTTL: getEnvDurationOrDefault("REFRESH_TOKEN_TTL", 24*time.Hour),
		},
		Cookie: Cookie{
			SameSite: strings.ToLower(getEnvOrDefault("COOKIE_SAME_SITE", SameSiteStrict)),
			Secure:   getEnvOrDefault("COOKIE_SECURE", "true") == "true",
		},
		Cleanup: Cleanup{
			Interval: getEnvDurationOrDefault("CLEANUP_INTERVAL", 10*time.Minute),
			Grace:    getEnvDurationOrDefault("CLEANUP_GRACE", time.Hour),
		},
		Seed: Seed{
			AdminEmail:    os.Getenv("SEED_ADMIN_EMAIL"),
			AdminPassword: os.Getenv("SEED_ADMIN_PASSWORD"),
		},
	}
}

// Validate checks every parameter the authentication core depends on.
// A nil return means the config can be treated as immutable for the process
// lifetime.
func (c Server) Validate() error {
	if c.Password.Pepper == "" {
		return dErrors.New(dErrors.CodeValidation, "PASSWORD_PEPPER is required")
	}
	if c.Token.Secret == "" {
		return dErrors.New(dErrors.CodeValidation, "JWT_SECRET is required")
	}
	if len(c.Token.Secret) < 32 {
		return dErrors.New(dErrors.CodeValidation, "JWT_SECRET must be at least 32 bytes")
	}
	// argon2 requires at least 8 KiB per lane.
	if c.Password.Parallelism < 1 {
		return dErrors.New(dErrors.CodeValidation, "PASSWORD_HASH_PARALLELISM must be at least 1")
	}
	if c.Password.MemoryKiB < 8*uint32(c.Password.Parallelism) {
		return dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("PASSWORD_HASH_MEMORY_KIB must be at least %d", 8*uint32(c.Password.Parallelism)))
	}
	if c.Password.Iterations < 1 {
		return dErrors.New(dErrors.CodeValidation, "PASSWORD_HASH_ITERATIONS must be at least 1")
	}
	if c.Lockout.Window <= 0 {
		return dErrors.New(dErrors.CodeValidation, "LOCKOUT_WINDOW must be positive")
	}
	if c.Lockout.Threshold < 1 {
		return dErrors.New(dErrors.CodeValidation, "LOCKOUT_THRESHOLD must be at least 1")
	}
	if c.Token.AccessTTL <= 0 || c.Token.RefreshTTL <= 0 {
		return dErrors.New(dErrors.CodeValidation, "token lifetimes must be positive")
	}
	if c.Token.AccessTTL > c.Token.RefreshTTL {
		return dErrors.New(dErrors.CodeValidation, "ACCESS_TOKEN_TTL must not exceed REFRESH_TOKEN_TTL")
	}
	if c.Cookie.SameSite != SameSiteStrict && c.Cookie.SameSite != SameSiteLax {
		return dErrors.New(dErrors.CodeValidation, "COOKIE_SAME_SITE must be strict or lax")
	}
	if c.Cleanup.Interval <= 0 {
		return dErrors.New(dErrors.CodeValidation, "CLEANUP_INTERVAL must be positive")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	// Accept Go duration strings ("15m", "900s") and bare seconds.
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}
	return defaultValue
}
