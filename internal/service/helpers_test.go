package service_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/msomdec/lesson-loop/internal/domain"
	"github.com/msomdec/lesson-loop/internal/repository/sqlite"
	"github.com/msomdec/lesson-loop/internal/service"
)

const testJWTSecret = "test-secret-key-for-unit-tests-0123456789"

func newTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sqlite.New(dbPath)
	if err != nil {
		t.Fatalf("New DB: %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// fixedClock returns a Clock reading *now, so tests can move time forward.
func fixedClock(now *time.Time) service.Clock {
	return func() time.Time { return *now }
}

func newTestUser(t *testing.T, db *sqlite.DB, email string) *domain.User {
	t.Helper()
	user := &domain.User{Email: email, FirstName: "Dilnoza", LastName: "Karimova", PasswordHash: "hash"}
	if err := db.Users().Create(context.Background(), user); err != nil {
		t.Fatalf("Create user: %v", err)
	}
	return user
}

func newTestLesson(t *testing.T, db *sqlite.DB, slug string) *domain.Lesson {
	t.Helper()
	ctx := context.Background()
	course := &domain.Course{Title: "Course " + slug, Slug: "course-" + slug, IsActive: true}
	if err := db.Catalog().CreateCourse(ctx, course); err != nil {
		t.Fatalf("CreateCourse: %v", err)
	}
	lesson := &domain.Lesson{CourseID: course.ID, Title: "Lesson " + slug, Slug: slug}
	if err := db.Catalog().CreateLesson(ctx, lesson); err != nil {
		t.Fatalf("CreateLesson: %v", err)
	}
	return lesson
}
