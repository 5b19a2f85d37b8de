package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/msomdec/lesson-loop/internal/config"
	"github.com/msomdec/lesson-loop/internal/handler"
	"github.com/msomdec/lesson-loop/internal/metrics"
	"github.com/msomdec/lesson-loop/internal/repository/sqlite"
	"github.com/msomdec/lesson-loop/internal/service"
)

const (
	limiterSweepInterval = 5 * time.Minute
	limiterIdleTTL       = 10 * time.Minute
	shutdownTimeout      = 5 * time.Second
)

func main() {
	// A missing .env file is fine; the environment may already be set.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}

	app := &cli.App{
		Name:  "lesson-loop",
		Usage: "Language-learning backend: accounts, lessons, study time and spaced revision",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API",
				Flags:  config.ServeFlags(),
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "Apply pending database migrations and exit",
				Flags:  []cli.Flag{config.DatabaseFlag()},
				Action: migrate,
			},
		},
		DefaultCommand: "serve",
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

// setupLogger installs the default logger: text to stdout, JSON to stderr
// and, when logFile is set, JSON to a rotated file. The returned rotator is
// nil without a log file.
func setupLogger(level slog.Level, logFile string) *lumberjack.Logger {
	logOpts := &slog.HandlerOptions{Level: level}
	handlers := []slog.Handler{
		slog.NewTextHandler(os.Stdout, logOpts),
		slog.NewJSONHandler(os.Stderr, logOpts),
	}

	var rotator *lumberjack.Logger
	if logFile != "" {
		rotator = &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    50, // megabytes
			MaxBackups: 5,
			MaxAge:     28, // days
			Compress:   true,
		}
		handlers = append(handlers, slog.NewJSONHandler(rotator, logOpts))
	}

	slog.SetDefault(slog.New(slog.NewMultiHandler(handlers...)))
	return rotator
}

func openDB(ctx context.Context, path string) (*sqlite.DB, error) {
	db, err := sqlite.New(path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("database migrations applied", "path", path)
	return db, nil
}

func migrate(c *cli.Context) error {
	setupLogger(slog.LevelInfo, "")
	db, err := openDB(c.Context, c.String(config.FlagDatabasePath))
	if err != nil {
		return err
	}
	return db.Close()
}

func newLimiter(perMinute int) *service.TokenBucket {
	if perMinute == 0 {
		return nil
	}
	return service.PerMinute(perMinute)
}

func serve(c *cli.Context) error {
	cfg, err := config.FromContext(c)
	if err != nil {
		return err
	}
	level, _ := config.ParseLevel(cfg.LogLevel)
	if rotator := setupLogger(level, cfg.LogFile); rotator != nil {
		defer rotator.Close()
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := openDB(ctx, cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	m := metrics.New()
	clock := service.NewClock(cfg.Location)

	authService := service.NewAuthService(db.Users(), db.RevokedTokens(), cfg.JWTSecret, cfg.BcryptCost, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	studyTime := service.NewStudyTimeService(db.StudySessions())

	deps := handler.Deps{
		Auth:        authService,
		Dashboard:   service.NewDashboardService(db.Revisions(), studyTime, m),
		Revisions:   service.NewRevisionService(db.Revisions(), db.Catalog(), clock, m),
		Sessions:    service.NewStudySessionService(db.StudySessions(), clock, m),
		Catalog:     service.NewCatalogService(db.Catalog()),
		Contacts:    service.NewContactService(db.Contacts()),
		AnonLimiter: newLimiter(cfg.RateLimitAnon),
		UserLimiter: newLimiter(cfg.RateLimitUser),

		TrustedProxies: cfg.TrustedProxies,

		Metrics:  m,
		DB:       db.SqlDB,
		Clock:    clock,
		MediaURL: cfg.MediaURL,
	}
	for _, limiter := range []*service.TokenBucket{deps.AnonLimiter, deps.UserLimiter} {
		if limiter != nil {
			go limiter.Run(ctx, limiterSweepInterval, limiterIdleTTL)
		}
	}

	if cfg.ReconcileInterval > 0 {
		reconciler := service.NewReconciler(db.Revisions(), authService, clock, cfg.ReconcileInterval, m)
		if err := reconciler.Start(); err != nil {
			return fmt.Errorf("start reconciler: %w", err)
		}
		defer reconciler.Stop()
		slog.Info("schedule reconciler started", "interval", cfg.ReconcileInterval)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler.NewServer(deps),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", srv.Addr, "time_zone", cfg.Location.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	slog.Info("server stopped")
	return nil
}
