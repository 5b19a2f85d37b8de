package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/msomdec/lesson-loop/internal/domain"
	"github.com/msomdec/lesson-loop/internal/handler"
	"github.com/msomdec/lesson-loop/internal/metrics"
	"github.com/msomdec/lesson-loop/internal/repository/sqlite"
	"github.com/msomdec/lesson-loop/internal/service"
)

const testJWTSecret = "test-secret-for-handler-tests-0123456789"

// fakeClock is safe to move forward while the test server is reading it.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testEnv struct {
	db    *sqlite.DB
	srv   *httptest.Server
	clock *fakeClock
}

func newTestDeps(t *testing.T) (*sqlite.DB, handler.Deps, *fakeClock) {
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

	fc := &fakeClock{now: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}
	clock := service.Clock(fc.Now)
	m := metrics.New()

	deps := handler.Deps{
		Auth:      service.NewAuthService(db.Users(), db.RevokedTokens(), testJWTSecret, 4, 15*time.Minute, 7*24*time.Hour),
		Dashboard: service.NewDashboardService(db.Revisions(), service.NewStudyTimeService(db.StudySessions()), m),
		Revisions: service.NewRevisionService(db.Revisions(), db.Catalog(), clock, m),
		Sessions:  service.NewStudySessionService(db.StudySessions(), clock, m),
		Catalog:   service.NewCatalogService(db.Catalog()),
		Contacts:  service.NewContactService(db.Contacts()),
		Metrics:   m,
		DB:        db.SqlDB,
		Clock:     clock,
		MediaURL:  "https://cdn.example.com/media/",
	}
	return db, deps, fc
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, deps, clock := newTestDeps(t)
	srv := httptest.NewServer(handler.NewServer(deps))
	t.Cleanup(srv.Close)
	return &testEnv{db: db, srv: srv, clock: clock}
}

// do sends a JSON request and decodes a JSON response into out when non-nil.
func (e *testEnv) do(t *testing.T, method, path, token string, body, out any) *http.Response {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, rdr)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("%s %s: decode response: %v", method, path, err)
		}
	}
	return resp
}

// register creates a user through the API and returns its access and
// refresh tokens.
func (e *testEnv) register(t *testing.T, email string) (access, refresh string) {
	t.Helper()
	var out struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}
	resp := e.do(t, http.MethodPost, "/auth/register/", "", map[string]string{
		"first_name": "Jasur",
		"last_name":  "Toshev",
		"email":      email,
		"password":   "password123",
	}, &out)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d", resp.StatusCode)
	}
	return out.Access, out.Refresh
}

func (e *testEnv) createLesson(t *testing.T, slug string) *domain.Lesson {
	t.Helper()
	ctx := context.Background()
	course := &domain.Course{Title: "Course " + slug, Slug: "course-" + slug, IsActive: true}
	if err := e.db.Catalog().CreateCourse(ctx, course); err != nil {
		t.Fatalf("CreateCourse: %v", err)
	}
	lesson := &domain.Lesson{CourseID: course.ID, Title: "Lesson " + slug, Slug: slug, CoverImagePath: "lessons/" + slug + ".png"}
	if err := e.db.Catalog().CreateLesson(ctx, lesson); err != nil {
		t.Fatalf("CreateLesson: %v", err)
	}
	return lesson
}
