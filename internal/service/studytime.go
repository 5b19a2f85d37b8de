package service

import (
	"context"
	"time"

	"github.com/msomdec/lesson-loop/internal/domain"
)

const studyWeek = 7 * 24 * time.Hour

// StudyTimeService totals the study seconds a user has logged.
type StudyTimeService struct {
	sessions domain.StudySessionRepository
}

func NewStudyTimeService(sessions domain.StudySessionRepository) *StudyTimeService {
	return &StudyTimeService{sessions: sessions}
}

// Summarize buckets the user's sessions by start time: today is now's
// calendar day, the week is the rolling seven days ending at now.
func (s *StudyTimeService) Summarize(ctx context.Context, userID string, now time.Time) (domain.StudyTimeSummary, error) {
	return s.sessions.Summarize(ctx, userID, Window(now))
}

// Window returns the bucketing bounds for now.
func Window(now time.Time) domain.StudyTimeWindow {
	today := startOfDay(now)
	return domain.StudyTimeWindow{
		TodayStart: today,
		TodayEnd:   today.AddDate(0, 0, 1),
		WeekStart:  now.Add(-studyWeek),
		Now:        now,
	}
}
