package domain

import (
	"context"
	"time"
)

// StudySession accumulates client-reported active study time.
type StudySession struct {
	ID              string     `db:"id"`
	UserID          string     `db:"user_id"`
	Context         string     `db:"context"`
	StartedAt       time.Time  `db:"started_at"`
	EndedAt         *time.Time `db:"ended_at"` // set iff !IsActive
	LastPingAt      *time.Time `db:"last_ping_at"`
	DurationSeconds int        `db:"duration_seconds"`
	IsActive        bool       `db:"is_active"`
	CreatedAt       time.Time  `db:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at"`
}

// StudyTimeSummary buckets a user's study seconds.
type StudyTimeSummary struct {
	TodaySeconds int `db:"today_seconds"`
	WeekSeconds  int `db:"week_seconds"`
	TotalSeconds int `db:"total_seconds"`
}

// StudyTimeWindow holds the bounds used to bucket sessions by start time.
// Today is the half-open range [TodayStart, TodayEnd); Week is [WeekStart, Now].
type StudyTimeWindow struct {
	TodayStart time.Time
	TodayEnd   time.Time
	WeekStart  time.Time
	Now        time.Time
}

type StudySessionRepository interface {
	Create(ctx context.Context, session *StudySession) error
	GetByID(ctx context.Context, id string) (*StudySession, error)
	// AddDuration increments duration_seconds of an active session owned by
	// userID and returns the new total. ErrNotFound if no such session.
	AddDuration(ctx context.Context, id, userID string, seconds int, at time.Time) (int, error)
	// Stop deactivates an active session owned by userID. ErrNotFound if no
	// such session.
	Stop(ctx context.Context, id, userID string, at time.Time) error
	Summarize(ctx context.Context, userID string, window StudyTimeWindow) (StudyTimeSummary, error)
}
