package domain

import (
	"context"
	"fmt"
	"time"
)

// RevisionStatus is the time-derived state of a revision schedule.
type RevisionStatus string

const (
	RevisionScheduled RevisionStatus = "scheduled"
	RevisionDue       RevisionStatus = "due"
	RevisionExpired   RevisionStatus = "expired"
	RevisionCompleted RevisionStatus = "completed"
)

func (s RevisionStatus) IsValid() bool {
	switch s {
	case RevisionScheduled, RevisionDue, RevisionExpired, RevisionCompleted:
		return true
	}
	return false
}

// MarshalText implements encoding.TextMarshaler.
func (s RevisionStatus) MarshalText() ([]byte, error) {
	if !s.IsValid() {
		return nil, fmt.Errorf("invalid revision status: %q", string(s))
	}
	return []byte(s), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *RevisionStatus) UnmarshalText(text []byte) error {
	v := RevisionStatus(text)
	if !v.IsValid() {
		return fmt.Errorf("invalid revision status: %q", text)
	}
	*s = v
	return nil
}

// RevisionSchedule tracks when a user should next revisit a completed lesson.
// There is at most one schedule per (user, lesson).
type RevisionSchedule struct {
	ID                string         `db:"id"`
	UserID            string         `db:"user_id"`
	LessonID          string         `db:"lesson_id"`
	LessonCompletedAt time.Time      `db:"lesson_completed_at"`
	Stage             int            `db:"stage"`
	NextReviewAt      *time.Time     `db:"next_review_at"` // nil iff Status == RevisionCompleted
	LastReviewedAt    *time.Time     `db:"last_reviewed_at"`
	Status            RevisionStatus `db:"status"`
	CreatedAt         time.Time      `db:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at"`

	Lesson LessonRef `db:"lesson"`
}

type RevisionRepository interface {
	GetByID(ctx context.Context, id string) (*RevisionSchedule, error)
	GetByUserAndLesson(ctx context.Context, userID, lessonID string) (*RevisionSchedule, error)
	ListByUser(ctx context.Context, userID string) ([]RevisionSchedule, error)
	ListOpenByUser(ctx context.Context, userID string) ([]RevisionSchedule, error)
	// ListOpen returns every non-completed schedule across all users.
	ListOpen(ctx context.Context) ([]RevisionSchedule, error)
	// Save inserts the schedule or, when a row already exists for its
	// (user, lesson) pair, overwrites its progress fields.
	Save(ctx context.Context, schedule *RevisionSchedule) error
	// UpdateStatuses persists status and updated_at for every schedule in a
	// single transaction.
	UpdateStatuses(ctx context.Context, schedules []RevisionSchedule, at time.Time) error
}
