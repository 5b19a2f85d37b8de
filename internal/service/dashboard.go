package service

import (
	"context"
	"fmt"
	"time"

	"github.com/msomdec/lesson-loop/internal/domain"
	"github.com/msomdec/lesson-loop/internal/metrics"
)

// DashboardService assembles the learner's home summary.
type DashboardService struct {
	revisions domain.RevisionRepository
	studyTime *StudyTimeService
	metrics   *metrics.Metrics
}

// NewDashboardService creates a new DashboardService. m may be nil.
func NewDashboardService(revisions domain.RevisionRepository, studyTime *StudyTimeService, m *metrics.Metrics) *DashboardService {
	return &DashboardService{revisions: revisions, studyTime: studyTime, metrics: m}
}

// Build syncs every schedule of user against now, persists the status
// changes atomically and composes the dashboard.
func (s *DashboardService) Build(ctx context.Context, user *domain.User, now time.Time) (*domain.Dashboard, error) {
	schedules, err := s.revisions.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}

	if err := syncAndPersist(ctx, s.revisions, s.metrics, schedules, now); err != nil {
		return nil, err
	}

	queue := make([]domain.RevisionSchedule, 0, len(schedules))
	for _, sched := range schedules {
		if sched.Status != domain.RevisionCompleted && sched.NextReviewAt != nil {
			queue = append(queue, sched)
		}
	}
	sortByNextReview(queue, now)

	dueToday := make([]domain.RevisionSchedule, 0, len(queue))
	for _, sched := range queue {
		if IsDueOn(&sched, now) {
			dueToday = append(dueToday, sched)
		}
	}

	studyTime, err := s.studyTime.Summarize(ctx, user.ID, now)
	if err != nil {
		return nil, fmt.Errorf("summarize study time: %w", err)
	}

	return &domain.Dashboard{
		User:      user,
		StudyTime: studyTime,
		DueToday:  dueToday,
		Queue:     queue,
	}, nil
}
