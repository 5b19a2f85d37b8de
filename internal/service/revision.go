package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/msomdec/lesson-loop/internal/domain"
	"github.com/msomdec/lesson-loop/internal/metrics"
)

// RevisionService drives the spaced-repetition lifecycle of a user's lessons.
type RevisionService struct {
	revisions domain.RevisionRepository
	catalog   domain.CatalogRepository
	clock     Clock
	metrics   *metrics.Metrics
}

// NewRevisionService creates a new RevisionService. m may be nil.
func NewRevisionService(revisions domain.RevisionRepository, catalog domain.CatalogRepository, clock Clock, m *metrics.Metrics) *RevisionService {
	return &RevisionService{revisions: revisions, catalog: catalog, clock: clock, metrics: m}
}

// CompleteLesson records that the user finished the lesson identified by
// slug, creating its revision schedule or restarting it from stage 0.
func (s *RevisionService) CompleteLesson(ctx context.Context, userID, slug string) (*domain.RevisionSchedule, error) {
	lesson, err := s.catalog.GetLessonBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("get lesson: %w", err)
	}

	existing, err := s.revisions.GetByUserAndLesson(ctx, userID, lesson.ID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get schedule: %w", err)
	}

	schedule := CreateOrReset(existing, userID, lesson.ID, s.clock())
	if err := s.revisions.Save(ctx, schedule); err != nil {
		return nil, fmt.Errorf("save schedule: %w", err)
	}
	schedule.Lesson = domain.LessonRef{
		ID:             lesson.ID,
		Slug:           lesson.Slug,
		Title:          lesson.Title,
		CoverImagePath: lesson.CoverImagePath,
	}

	s.metrics.LessonCompleted()
	return schedule, nil
}

// ListDue syncs the user's open schedules against now and returns those that
// belong on today's list, soonest first.
func (s *RevisionService) ListDue(ctx context.Context, userID string, now time.Time) ([]domain.RevisionSchedule, error) {
	schedules, err := s.revisions.ListOpenByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}

	if err := syncAndPersist(ctx, s.revisions, s.metrics, schedules, now); err != nil {
		return nil, err
	}

	due := make([]domain.RevisionSchedule, 0, len(schedules))
	for _, sched := range schedules {
		if IsDueOn(&sched, now) {
			due = append(due, sched)
		}
	}
	sortByNextReview(due, now)
	return due, nil
}

// Review marks one of the user's schedules as reviewed at now. Schedules
// owned by someone else are reported as not found.
func (s *RevisionService) Review(ctx context.Context, userID, scheduleID string, now time.Time) (*domain.RevisionSchedule, error) {
	schedule, err := s.revisions.GetByID(ctx, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("get schedule: %w", err)
	}
	if schedule.UserID != userID {
		return nil, fmt.Errorf("get schedule: %w", domain.ErrNotFound)
	}

	MarkReviewed(schedule, now)
	SyncStatus(schedule, now)

	if err := s.revisions.Save(ctx, schedule); err != nil {
		return nil, fmt.Errorf("save schedule: %w", err)
	}

	s.metrics.Reviewed(string(schedule.Status))
	return schedule, nil
}

// syncAndPersist applies SyncStatus to every schedule in place and writes
// the ones whose status moved in a single transaction.
func syncAndPersist(ctx context.Context, repo domain.RevisionRepository, m *metrics.Metrics, schedules []domain.RevisionSchedule, now time.Time) error {
	var changed []domain.RevisionSchedule
	for i := range schedules {
		if SyncStatus(&schedules[i], now) {
			schedules[i].UpdatedAt = now
			changed = append(changed, schedules[i])
		}
	}
	if len(changed) == 0 {
		return nil
	}

	if err := repo.UpdateStatuses(ctx, changed, now); err != nil {
		return fmt.Errorf("update statuses: %w", err)
	}
	for _, c := range changed {
		m.StatusChanged(string(c.Status))
	}
	return nil
}

// sortByNextReview orders schedules by next review time, treating a missing
// one as now. Ties keep their input order.
func sortByNextReview(schedules []domain.RevisionSchedule, now time.Time) {
	key := func(s domain.RevisionSchedule) time.Time {
		if s.NextReviewAt == nil {
			return now
		}
		return *s.NextReviewAt
	}
	slices.SortStableFunc(schedules, func(a, b domain.RevisionSchedule) int {
		return key(a).Compare(key(b))
	})
}
