package config_test

import (
	"log/slog"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/urfave/cli/v2"

	"github.com/msomdec/lesson-loop/internal/config"
)

const secret = "0123456789abcdef0123456789abcdef"

// load runs a throwaway app with the serve flags and returns what
// FromContext produced.
func load(t *testing.T, args ...string) (*config.Config, error) {
	t.Helper()
	var (
		cfg    *config.Config
		cfgErr error
	)
	app := &cli.App{
		Name:  "test",
		Flags: config.ServeFlags(),
		Action: func(c *cli.Context) error {
			cfg, cfgErr = config.FromContext(c)
			return nil
		},
	}
	if err := app.Run(append([]string{"test"}, args...)); err != nil {
		t.Fatalf("app.Run: %v", err)
	}
	return cfg, cfgErr
}

func TestFromContext_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", secret)

	cfg, err := load(t)
	if err != nil {
		t.Fatalf("FromContext: %v", err)
	}

	want := &config.Config{
		Port:            "8080",
		DatabasePath:    "lesson-loop.db",
		JWTSecret:       secret,
		BcryptCost:      12,
		TimeZone:        "UTC",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
		RateLimitAnon:   60,
		RateLimitUser:   300,
		LogLevel:        "info",
	}
	if diff := cmp.Diff(want, cfg, cmpopts.IgnoreFields(config.Config{}, "Location")); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
	if cfg.Location != time.UTC {
		t.Errorf("expected UTC location, got %v", cfg.Location)
	}
}

func TestFromContext_EnvAndFlags(t *testing.T) {
	t.Setenv("JWT_SECRET", secret)
	t.Setenv("PORT", "9000")
	t.Setenv("TIME_ZONE", "Asia/Tashkent")
	t.Setenv("RECONCILE_INTERVAL", "10m")
	t.Setenv("TRUSTED_PROXIES", "1")

	cfg, err := load(t, "--port", "9100", "--bcrypt-cost", "4", "--media-url", "https://cdn.example.com/")
	if err != nil {
		t.Fatalf("FromContext: %v", err)
	}
	if cfg.Port != "9100" {
		t.Errorf("flag should win over env, got port %q", cfg.Port)
	}
	if cfg.BcryptCost != 4 {
		t.Errorf("expected bcrypt cost 4, got %d", cfg.BcryptCost)
	}
	if cfg.ReconcileInterval != 10*time.Minute {
		t.Errorf("expected reconcile interval 10m, got %v", cfg.ReconcileInterval)
	}
	if cfg.Location == nil || cfg.Location.String() != "Asia/Tashkent" {
		t.Errorf("expected Asia/Tashkent location, got %v", cfg.Location)
	}
	if cfg.TrustedProxies != 1 {
		t.Errorf("expected 1 trusted proxy, got %d", cfg.TrustedProxies)
	}
	if cfg.MediaURL != "https://cdn.example.com/" {
		t.Errorf("unexpected media url %q", cfg.MediaURL)
	}
}

func TestValidate(t *testing.T) {
	valid := func() config.Config {
		return config.Config{
			JWTSecret:       secret,
			BcryptCost:      10,
			TimeZone:        "UTC",
			AccessTokenTTL:  time.Minute,
			RefreshTokenTTL: time.Hour,
			LogLevel:        "info",
		}
	}

	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{"valid", func(*config.Config) {}, ""},
		{"missing secret", func(c *config.Config) { c.JWTSecret = "" }, "JWT_SECRET is required"},
		{"short secret", func(c *config.Config) { c.JWTSecret = "short" }, "at least 32"},
		{"bcrypt too low", func(c *config.Config) { c.BcryptCost = 3 }, "BCRYPT_COST"},
		{"bcrypt too high", func(c *config.Config) { c.BcryptCost = 15 }, "BCRYPT_COST"},
		{"bad time zone", func(c *config.Config) { c.TimeZone = "Mars/Olympus" }, "TIME_ZONE"},
		{"zero access ttl", func(c *config.Config) { c.AccessTokenTTL = 0 }, "lifetimes"},
		{"negative reconcile", func(c *config.Config) { c.ReconcileInterval = -time.Second }, "RECONCILE_INTERVAL"},
		{"negative rate", func(c *config.Config) { c.RateLimitAnon = -1 }, "rate limits"},
		{"negative trusted proxies", func(c *config.Config) { c.TrustedProxies = -1 }, "TRUSTED_PROXIES"},
		{"bad log level", func(c *config.Config) { c.LogLevel = "loud" }, "LOG_LEVEL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if cfg.Location == nil {
					t.Fatal("expected Location to be loaded")
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		got, err := config.ParseLevel(in)
		if err != nil {
			t.Fatalf("ParseLevel(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
