package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/msomdec/lesson-loop/internal/domain"
	"github.com/msomdec/lesson-loop/internal/metrics"
)

// Reconciler periodically brings stored schedule statuses in line with the
// clock and drops stale token revocations. Reads sync on their own, so it
// only keeps the stored data fresh between requests.
type Reconciler struct {
	revisions domain.RevisionRepository
	auth      *AuthService
	clock     Clock
	metrics   *metrics.Metrics
	interval  time.Duration
	scheduler *gocron.Scheduler
}

// NewReconciler creates a Reconciler running every interval. auth and m may
// be nil.
func NewReconciler(revisions domain.RevisionRepository, auth *AuthService, clock Clock, interval time.Duration, m *metrics.Metrics) *Reconciler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Reconciler{
		revisions: revisions,
		auth:      auth,
		clock:     clock,
		metrics:   m,
		interval:  interval,
		scheduler: s,
	}
}

// Start schedules the job and returns without blocking. The first run
// happens immediately.
func (r *Reconciler) Start() error {
	_, err := r.scheduler.Every(r.interval).Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), r.interval)
		defer cancel()
		if _, err := r.RunOnce(ctx); err != nil {
			slog.Error("reconcile revision statuses", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule reconciler: %w", err)
	}
	r.scheduler.StartAsync()
	return nil
}

// Stop halts the scheduler. A run in progress is allowed to finish.
func (r *Reconciler) Stop() {
	r.scheduler.Stop()
}

// RunOnce syncs every open schedule at the clock's current time and
// returns how many statuses changed.
func (r *Reconciler) RunOnce(ctx context.Context) (int, error) {
	now := r.clock()

	schedules, err := r.revisions.ListOpen(ctx)
	if err != nil {
		r.metrics.ReconcileRun("error")
		return 0, fmt.Errorf("list open schedules: %w", err)
	}

	changed := 0
	for i := range schedules {
		if SyncStatus(&schedules[i], now) {
			schedules[changed] = schedules[i]
			changed++
		}
	}
	if changed > 0 {
		if err := r.revisions.UpdateStatuses(ctx, schedules[:changed], now); err != nil {
			r.metrics.ReconcileRun("error")
			return 0, fmt.Errorf("update statuses: %w", err)
		}
		for _, s := range schedules[:changed] {
			r.metrics.StatusChanged(string(s.Status))
		}
	}

	if r.auth != nil {
		purged, err := r.auth.PurgeRevoked(ctx, now)
		if err != nil {
			r.metrics.ReconcileRun("error")
			return changed, fmt.Errorf("purge revoked tokens: %w", err)
		}
		if purged > 0 {
			slog.Debug("purged expired token revocations", "count", purged)
		}
	}

	r.metrics.ReconcileRun("ok")
	slog.Info("reconciled revision statuses", "open", len(schedules), "changed", changed)
	return changed, nil
}
