package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/msomdec/lesson-loop/internal/domain"
)

const scheduleSelect = `SELECT r.id, r.user_id, r.lesson_id, r.lesson_completed_at, r.stage,
	r.next_review_at, r.last_reviewed_at, r.status, r.created_at, r.updated_at,
	l.id AS "lesson.id", l.slug AS "lesson.slug", l.title AS "lesson.title",
	l.cover_image_path AS "lesson.cover_image_path"
	FROM revision_schedules r
	JOIN lessons l ON l.id = r.lesson_id`

// RevisionRepository implements domain.RevisionRepository using SQLite.
type RevisionRepository struct {
	db *sqlx.DB
}

// NewRevisionRepository creates a new SQLite-backed RevisionRepository.
func NewRevisionRepository(db *DB) *RevisionRepository {
	return &RevisionRepository{db: db.SqlDB}
}

func (r *RevisionRepository) GetByID(ctx context.Context, id string) (*domain.RevisionSchedule, error) {
	s := &domain.RevisionSchedule{}
	if err := r.db.GetContext(ctx, s, scheduleSelect+` WHERE r.id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get revision schedule: %w", err)
	}
	return s, nil
}

func (r *RevisionRepository) GetByUserAndLesson(ctx context.Context, userID, lessonID string) (*domain.RevisionSchedule, error) {
	s := &domain.RevisionSchedule{}
	err := r.db.GetContext(ctx, s, scheduleSelect+` WHERE r.user_id = ? AND r.lesson_id = ?`, userID, lessonID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get revision schedule by lesson: %w", err)
	}
	return s, nil
}

func (r *RevisionRepository) ListByUser(ctx context.Context, userID string) ([]domain.RevisionSchedule, error) {
	var schedules []domain.RevisionSchedule
	err := r.db.SelectContext(ctx, &schedules,
		scheduleSelect+` WHERE r.user_id = ? ORDER BY r.next_review_at, r.id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list revision schedules: %w", err)
	}
	return schedules, nil
}

func (r *RevisionRepository) ListOpenByUser(ctx context.Context, userID string) ([]domain.RevisionSchedule, error) {
	var schedules []domain.RevisionSchedule
	err := r.db.SelectContext(ctx, &schedules,
		scheduleSelect+` WHERE r.user_id = ? AND r.status != ? ORDER BY r.next_review_at, r.id`,
		userID, domain.RevisionCompleted)
	if err != nil {
		return nil, fmt.Errorf("list open revision schedules: %w", err)
	}
	return schedules, nil
}

func (r *RevisionRepository) ListOpen(ctx context.Context) ([]domain.RevisionSchedule, error) {
	var schedules []domain.RevisionSchedule
	err := r.db.SelectContext(ctx, &schedules,
		scheduleSelect+` WHERE r.status != ? ORDER BY r.user_id, r.next_review_at`, domain.RevisionCompleted)
	if err != nil {
		return nil, fmt.Errorf("list all open revision schedules: %w", err)
	}
	return schedules, nil
}

func (r *RevisionRepository) Save(ctx context.Context, s *domain.RevisionSchedule) error {
	if s.ID == "" {
		s.ID = newID()
	}
	now := time.Now().UTC()

	var id string
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO revision_schedules (id, user_id, lesson_id, lesson_completed_at, stage,
		 next_review_at, last_reviewed_at, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id, lesson_id) DO UPDATE SET
		 lesson_completed_at = excluded.lesson_completed_at,
		 stage = excluded.stage,
		 next_review_at = excluded.next_review_at,
		 last_reviewed_at = excluded.last_reviewed_at,
		 status = excluded.status,
		 updated_at = excluded.updated_at
		 RETURNING id`,
		s.ID, s.UserID, s.LessonID, s.LessonCompletedAt.UTC(), s.Stage,
		utcPtr(s.NextReviewAt), utcPtr(s.LastReviewedAt), s.Status, now, now,
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("save revision schedule: %w", err)
	}

	// On conflict the existing row keeps its id and created_at.
	if err := r.db.GetContext(ctx, &s.CreatedAt, `SELECT created_at FROM revision_schedules WHERE id = ?`, id); err != nil {
		return fmt.Errorf("read saved revision schedule: %w", err)
	}
	s.ID = id
	s.UpdatedAt = now
	return nil
}

func (r *RevisionRepository) UpdateStatuses(ctx context.Context, schedules []domain.RevisionSchedule, at time.Time) error {
	if len(schedules) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, `UPDATE revision_schedules SET status = ?, updated_at = ? WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("prepare status update: %w", err)
	}
	defer stmt.Close()

	for _, s := range schedules {
		if _, err := stmt.ExecContext(ctx, s.Status, at.UTC(), s.ID); err != nil {
			return fmt.Errorf("update status of schedule %s: %w", s.ID, err)
		}
	}

	return tx.Commit()
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
