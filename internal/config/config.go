// Package config binds command-line flags and environment variables to the
// server configuration.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
)

// Flag names.
const (
	FlagPort              = "port"
	FlagDatabasePath      = "database-path"
	FlagJWTSecret         = "jwt-secret"
	FlagBcryptCost        = "bcrypt-cost"
	FlagTimeZone          = "time-zone"
	FlagAccessTokenTTL    = "access-token-ttl"
	FlagRefreshTokenTTL   = "refresh-token-ttl"
	FlagReconcileInterval = "reconcile-interval"
	FlagRateLimitAnon     = "rate-limit-anon"
	FlagRateLimitUser     = "rate-limit-user"
	FlagLogLevel          = "log-level"
	FlagLogFile           = "log-file"
	FlagMediaURL          = "media-url"
	FlagTrustedProxies    = "trusted-proxies"
)

const (
	defaultPort            = "8080"
	defaultDatabasePath    = "lesson-loop.db"
	defaultBcryptCost      = 12
	defaultTimeZone        = "UTC"
	defaultAccessTokenTTL  = 15 * time.Minute
	defaultRefreshTokenTTL = 7 * 24 * time.Hour
	defaultRateLimitAnon   = 60
	defaultRateLimitUser   = 300

	minSecretLength = 32
	minBcryptCost   = 4
	maxBcryptCost   = 14
)

var (
	errMissingSecret = errors.New("JWT_SECRET is required")
	errShortSecret   = fmt.Errorf("JWT_SECRET must be at least %d characters for HMAC-SHA256 security", minSecretLength)
)

// Config is the resolved server configuration.
type Config struct {
	Port         string
	DatabasePath string
	JWTSecret    string
	BcryptCost   int

	TimeZone string
	// Location is loaded from TimeZone by Validate.
	Location *time.Location

	AccessTokenTTL    time.Duration
	RefreshTokenTTL   time.Duration
	ReconcileInterval time.Duration

	// Requests per minute; zero disables the limiter.
	RateLimitAnon int
	RateLimitUser int

	// TrustedProxies counts the reverse proxies whose X-Forwarded-For
	// entries are believed. Zero uses the socket address only.
	TrustedProxies int

	LogLevel string
	LogFile  string
	MediaURL string
}

// DatabaseFlag is shared by every command that opens the database.
func DatabaseFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    FlagDatabasePath,
		Usage:   "Path to the SQLite database file",
		Value:   defaultDatabasePath,
		EnvVars: []string{"DATABASE_PATH"},
	}
}

// ServeFlags returns the flags of the serve command.
func ServeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    FlagPort,
			Usage:   "HTTP listen port",
			Value:   defaultPort,
			EnvVars: []string{"PORT"},
		},
		DatabaseFlag(),
		&cli.StringFlag{
			Name:    FlagJWTSecret,
			Usage:   "HMAC secret used to sign tokens (at least 32 characters)",
			EnvVars: []string{"JWT_SECRET"},
		},
		&cli.IntFlag{
			Name:    FlagBcryptCost,
			Usage:   "bcrypt cost for password hashes",
			Value:   defaultBcryptCost,
			EnvVars: []string{"BCRYPT_COST"},
		},
		&cli.StringFlag{
			Name:    FlagTimeZone,
			Usage:   "IANA time zone that decides calendar days",
			Value:   defaultTimeZone,
			EnvVars: []string{"TIME_ZONE"},
		},
		&cli.DurationFlag{
			Name:    FlagAccessTokenTTL,
			Usage:   "Lifetime of access tokens",
			Value:   defaultAccessTokenTTL,
			EnvVars: []string{"ACCESS_TOKEN_TTL"},
		},
		&cli.DurationFlag{
			Name:    FlagRefreshTokenTTL,
			Usage:   "Lifetime of refresh tokens",
			Value:   defaultRefreshTokenTTL,
			EnvVars: []string{"REFRESH_TOKEN_TTL"},
		},
		&cli.DurationFlag{
			Name:    FlagReconcileInterval,
			Usage:   "Interval of the schedule status reconciler (0 disables it)",
			EnvVars: []string{"RECONCILE_INTERVAL"},
		},
		&cli.IntFlag{
			Name:    FlagRateLimitAnon,
			Usage:   "Anonymous requests per minute per client IP (0 disables)",
			Value:   defaultRateLimitAnon,
			EnvVars: []string{"RATE_LIMIT_ANON"},
		},
		&cli.IntFlag{
			Name:    FlagRateLimitUser,
			Usage:   "Authenticated requests per minute per user (0 disables)",
			Value:   defaultRateLimitUser,
			EnvVars: []string{"RATE_LIMIT_USER"},
		},
		&cli.StringFlag{
			Name:    FlagLogLevel,
			Usage:   "Log level: debug, info, warn or error",
			Value:   "info",
			EnvVars: []string{"LOG_LEVEL"},
		},
		&cli.StringFlag{
			Name:    FlagLogFile,
			Usage:   "Optional rotated JSON log file",
			EnvVars: []string{"LOG_FILE"},
		},
		&cli.IntFlag{
			Name:    FlagTrustedProxies,
			Usage:   "Number of reverse proxies in front of the server whose X-Forwarded-For entries are trusted",
			EnvVars: []string{"TRUSTED_PROXIES"},
		},
		&cli.StringFlag{
			Name:    FlagMediaURL,
			Usage:   "Base URL that lesson cover image paths are resolved against",
			EnvVars: []string{"MEDIA_URL"},
		},
	}
}

// FromContext reads the serve flags and validates them.
func FromContext(c *cli.Context) (*Config, error) {
	cfg := &Config{
		Port:              c.String(FlagPort),
		DatabasePath:      c.String(FlagDatabasePath),
		JWTSecret:         c.String(FlagJWTSecret),
		BcryptCost:        c.Int(FlagBcryptCost),
		TimeZone:          c.String(FlagTimeZone),
		AccessTokenTTL:    c.Duration(FlagAccessTokenTTL),
		RefreshTokenTTL:   c.Duration(FlagRefreshTokenTTL),
		ReconcileInterval: c.Duration(FlagReconcileInterval),
		RateLimitAnon:     c.Int(FlagRateLimitAnon),
		RateLimitUser:     c.Int(FlagRateLimitUser),
		TrustedProxies:    c.Int(FlagTrustedProxies),
		LogLevel:          c.String(FlagLogLevel),
		LogFile:           c.String(FlagLogFile),
		MediaURL:          c.String(FlagMediaURL),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration and loads Location.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errMissingSecret
	}
	if len(c.JWTSecret) < minSecretLength {
		return errShortSecret
	}
	if c.BcryptCost < minBcryptCost || c.BcryptCost > maxBcryptCost {
		return fmt.Errorf("BCRYPT_COST must be between %d and %d, got %d", minBcryptCost, maxBcryptCost, c.BcryptCost)
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		return errors.New("token lifetimes must be positive")
	}
	if c.ReconcileInterval < 0 {
		return errors.New("RECONCILE_INTERVAL must not be negative")
	}
	if c.RateLimitAnon < 0 || c.RateLimitUser < 0 {
		return errors.New("rate limits must not be negative")
	}
	if c.TrustedProxies < 0 {
		return errors.New("TRUSTED_PROXIES must not be negative")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}

	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return fmt.Errorf("invalid TIME_ZONE %q: %w", c.TimeZone, err)
	}
	c.Location = loc
	return nil
}

// ParseLevel maps a level name to its slog level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("invalid LOG_LEVEL %q", s)
	}
	return level, nil
}
