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

const lessonColumns = `l.id, l.course_id, l.title, l.slug, l.cover_image_path, l.sort_order, l.created_at,
	(SELECT COUNT(*) FROM lesson_cards c WHERE c.lesson_id = l.id) AS card_count`

// CatalogRepository implements domain.CatalogRepository using SQLite.
type CatalogRepository struct {
	db *sqlx.DB
}

// NewCatalogRepository creates a new SQLite-backed CatalogRepository.
func NewCatalogRepository(db *DB) *CatalogRepository {
	return &CatalogRepository{db: db.SqlDB}
}

func (r *CatalogRepository) CreateCourse(ctx context.Context, course *domain.Course) error {
	if course.ID == "" {
		course.ID = newID()
	}
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO courses (id, title, slug, description, is_active, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		course.ID, course.Title, course.Slug, course.Description, course.IsActive, now,
	)
	if err != nil {
		return fmt.Errorf("insert course: %w", err)
	}
	course.CreatedAt = now
	return nil
}

func (r *CatalogRepository) CreateLesson(ctx context.Context, lesson *domain.Lesson) error {
	if lesson.ID == "" {
		lesson.ID = newID()
	}
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO lessons (id, course_id, title, slug, cover_image_path, sort_order, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		lesson.ID, lesson.CourseID, lesson.Title, lesson.Slug, lesson.CoverImagePath, lesson.SortOrder, now,
	)
	if err != nil {
		return fmt.Errorf("insert lesson: %w", err)
	}
	lesson.CreatedAt = now
	return nil
}

func (r *CatalogRepository) CreateCard(ctx context.Context, card *domain.LessonCard) error {
	if card.ID == "" {
		card.ID = newID()
	}
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO lesson_cards (id, lesson_id, sort_order, english, uzbek, pronunciation, mnemonic_example, translation, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		card.ID, card.LessonID, card.SortOrder, card.English, card.Uzbek,
		card.Pronunciation, card.MnemonicExample, card.Translation, now,
	)
	if err != nil {
		return fmt.Errorf("insert lesson card: %w", err)
	}
	card.CreatedAt = now
	return nil
}

func (r *CatalogRepository) ListActiveCourses(ctx context.Context) ([]domain.Course, error) {
	var courses []domain.Course
	err := r.db.SelectContext(ctx, &courses,
		`SELECT id, title, slug, description, is_active, created_at
		 FROM courses WHERE is_active = 1 ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

func (r *CatalogRepository) ListLessons(ctx context.Context) ([]domain.Lesson, error) {
	var lessons []domain.Lesson
	err := r.db.SelectContext(ctx, &lessons,
		`SELECT `+lessonColumns+` FROM lessons l ORDER BY l.sort_order, l.title`)
	if err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	return lessons, nil
}

func (r *CatalogRepository) GetLessonBySlug(ctx context.Context, slug string) (*domain.Lesson, error) {
	lesson := &domain.Lesson{}
	err := r.db.GetContext(ctx, lesson, `SELECT `+lessonColumns+` FROM lessons l WHERE l.slug = ?`, slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get lesson by slug: %w", err)
	}
	return lesson, nil
}

func (r *CatalogRepository) ListCards(ctx context.Context, lessonID string) ([]domain.LessonCard, error) {
	var cards []domain.LessonCard
	err := r.db.SelectContext(ctx, &cards,
		`SELECT id, lesson_id, sort_order, english, uzbek, pronunciation, mnemonic_example, translation, created_at
		 FROM lesson_cards WHERE lesson_id = ? ORDER BY sort_order, english`, lessonID)
	if err != nil {
		return nil, fmt.Errorf("list lesson cards: %w", err)
	}
	return cards, nil
}
