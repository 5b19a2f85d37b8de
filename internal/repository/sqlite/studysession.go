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

// StudySessionRepository implements domain.StudySessionRepository using SQLite.
type StudySessionRepository struct {
	db *sqlx.DB
}

// NewStudySessionRepository creates a new SQLite-backed StudySessionRepository.
func NewStudySessionRepository(db *DB) *StudySessionRepository {
	return &StudySessionRepository{db: db.SqlDB}
}

func (r *StudySessionRepository) Create(ctx context.Context, session *domain.StudySession) error {
	if session.ID == "" {
		session.ID = newID()
	}
	now := time.Now().UTC()
	if session.StartedAt.IsZero() {
		session.StartedAt = now
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO study_sessions (id, user_id, context, started_at, ended_at, last_ping_at,
		 duration_seconds, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID, session.UserID, session.Context, session.StartedAt.UTC(),
		utcPtr(session.EndedAt), utcPtr(session.LastPingAt),
		session.DurationSeconds, session.IsActive, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert study session: %w", err)
	}

	session.CreatedAt = now
	session.UpdatedAt = now
	return nil
}

func (r *StudySessionRepository) GetByID(ctx context.Context, id string) (*domain.StudySession, error) {
	s := &domain.StudySession{}
	err := r.db.GetContext(ctx, s,
		`SELECT id, user_id, context, started_at, ended_at, last_ping_at, duration_seconds,
		 is_active, created_at, updated_at
		 FROM study_sessions WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get study session: %w", err)
	}
	return s, nil
}

func (r *StudySessionRepository) AddDuration(ctx context.Context, id, userID string, seconds int, at time.Time) (int, error) {
	var total int
	err := r.db.QueryRowxContext(ctx,
		`UPDATE study_sessions
		 SET duration_seconds = duration_seconds + ?, last_ping_at = ?, updated_at = ?
		 WHERE id = ? AND user_id = ? AND is_active = 1
		 RETURNING duration_seconds`,
		seconds, at.UTC(), at.UTC(), id, userID,
	).Scan(&total)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		return 0, fmt.Errorf("add study session duration: %w", err)
	}
	return total, nil
}

func (r *StudySessionRepository) Stop(ctx context.Context, id, userID string, at time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE study_sessions SET is_active = 0, ended_at = ?, updated_at = ?
		 WHERE id = ? AND user_id = ? AND is_active = 1`,
		at.UTC(), at.UTC(), id, userID,
	)
	if err != nil {
		return fmt.Errorf("stop study session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *StudySessionRepository) Summarize(ctx context.Context, userID string, w domain.StudyTimeWindow) (domain.StudyTimeSummary, error) {
	var summary domain.StudyTimeSummary
	err := r.db.GetContext(ctx, &summary,
		`SELECT
		 COALESCE(SUM(CASE WHEN started_at >= ? AND started_at < ? THEN duration_seconds ELSE 0 END), 0) AS today_seconds,
		 COALESCE(SUM(CASE WHEN started_at >= ? AND started_at <= ? THEN duration_seconds ELSE 0 END), 0) AS week_seconds,
		 COALESCE(SUM(duration_seconds), 0) AS total_seconds
		 FROM study_sessions WHERE user_id = ?`,
		w.TodayStart.UTC(), w.TodayEnd.UTC(), w.WeekStart.UTC(), w.Now.UTC(), userID,
	)
	if err != nil {
		return domain.StudyTimeSummary{}, fmt.Errorf("summarize study time: %w", err)
	}
	return summary, nil
}
