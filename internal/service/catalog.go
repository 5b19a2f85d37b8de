package service

import (
	"context"
	"fmt"

	"github.com/msomdec/lesson-loop/internal/domain"
)

// CatalogService exposes the read-only course content.
type CatalogService struct {
	catalog domain.CatalogRepository
}

func NewCatalogService(catalog domain.CatalogRepository) *CatalogService {
	return &CatalogService{catalog: catalog}
}

func (s *CatalogService) ListCourses(ctx context.Context) ([]domain.Course, error) {
	return s.catalog.ListActiveCourses(ctx)
}

func (s *CatalogService) ListLessons(ctx context.Context) ([]domain.Lesson, error) {
	return s.catalog.ListLessons(ctx)
}

// ListCards returns the cards of the lesson identified by slug.
func (s *CatalogService) ListCards(ctx context.Context, slug string) ([]domain.LessonCard, error) {
	lesson, err := s.catalog.GetLessonBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("get lesson: %w", err)
	}
	return s.catalog.ListCards(ctx, lesson.ID)
}
