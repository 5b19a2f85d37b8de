package domain

import (
	"context"
	"time"
)

// Course groups lessons. Catalog content is managed outside this service.
type Course struct {
	ID          string    `db:"id"`
	Title       string    `db:"title"`
	Slug        string    `db:"slug"`
	Description string    `db:"description"`
	IsActive    bool      `db:"is_active"`
	CreatedAt   time.Time `db:"created_at"`
}

type Lesson struct {
	ID             string    `db:"id"`
	CourseID       string    `db:"course_id"`
	Title          string    `db:"title"`
	Slug           string    `db:"slug"`
	CoverImagePath string    `db:"cover_image_path"`
	SortOrder      int       `db:"sort_order"`
	CardCount      int       `db:"card_count"`
	CreatedAt      time.Time `db:"created_at"`
}

// LessonRef is the slim lesson view embedded in revision schedules.
type LessonRef struct {
	ID             string `db:"id"`
	Slug           string `db:"slug"`
	Title          string `db:"title"`
	CoverImagePath string `db:"cover_image_path"`
}

// LessonCard is a single vocabulary item within a lesson.
type LessonCard struct {
	ID              string    `db:"id"`
	LessonID        string    `db:"lesson_id"`
	SortOrder       int       `db:"sort_order"`
	English         string    `db:"english"`
	Uzbek           string    `db:"uzbek"`
	Pronunciation   string    `db:"pronunciation"`
	MnemonicExample string    `db:"mnemonic_example"`
	Translation     string    `db:"translation"`
	CreatedAt       time.Time `db:"created_at"`
}

// CatalogRepository reads course content. The Create methods exist for
// content tooling and tests; the HTTP surface is read-only.
type CatalogRepository interface {
	CreateCourse(ctx context.Context, course *Course) error
	CreateLesson(ctx context.Context, lesson *Lesson) error
	CreateCard(ctx context.Context, card *LessonCard) error
	ListActiveCourses(ctx context.Context) ([]Course, error)
	ListLessons(ctx context.Context) ([]Lesson, error)
	GetLessonBySlug(ctx context.Context, slug string) (*Lesson, error)
	ListCards(ctx context.Context, lessonID string) ([]LessonCard, error)
}
