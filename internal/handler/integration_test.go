package handler_test

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/msomdec/lesson-loop/internal/domain"
	"github.com/msomdec/lesson-loop/internal/handler"
)

type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

func TestIntegration_AccountLifecycle(t *testing.T) {
	env := newTestEnv(t)

	access, refresh := env.register(t, "integ@example.com")

	// Duplicate registration is a conflict.
	var dup errorBody
	resp := env.do(t, http.MethodPost, "/auth/register/", "", map[string]string{
		"first_name": "Again", "email": "INTEG@example.com", "password": "password123",
	}, &dup)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate register: expected 409, got %d", resp.StatusCode)
	}

	var me handler.UserDTO
	resp = env.do(t, http.MethodGet, "/auth/me/", access, nil, &me)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("me: expected 200, got %d", resp.StatusCode)
	}
	if me.Email != "integ@example.com" || me.FirstName != "Jasur" {
		t.Fatalf("unexpected me %+v", me)
	}

	var login struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}
	resp = env.do(t, http.MethodPost, "/auth/login/", "", map[string]string{
		"email": "integ@example.com", "password": "password123",
	}, &login)
	if resp.StatusCode != http.StatusOK || login.Access == "" {
		t.Fatalf("login: expected 200 with tokens, got %d", resp.StatusCode)
	}

	resp = env.do(t, http.MethodPost, "/auth/login/", "", map[string]string{
		"email": "integ@example.com", "password": "wrong-password",
	}, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad login: expected 401, got %d", resp.StatusCode)
	}

	var rotated struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}
	resp = env.do(t, http.MethodPost, "/auth/refresh/", "", map[string]string{"refresh": refresh}, &rotated)
	if resp.StatusCode != http.StatusOK || rotated.Refresh == "" {
		t.Fatalf("refresh: expected 200, got %d", resp.StatusCode)
	}
	resp = env.do(t, http.MethodPost, "/auth/refresh/", "", map[string]string{"refresh": refresh}, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("reused refresh: expected 401, got %d", resp.StatusCode)
	}

	resp = env.do(t, http.MethodPost, "/auth/logout/", rotated.Access, map[string]string{"refresh": rotated.Refresh}, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("logout: expected 204, got %d", resp.StatusCode)
	}
	resp = env.do(t, http.MethodPost, "/auth/refresh/", "", map[string]string{"refresh": rotated.Refresh}, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("refresh after logout: expected 401, got %d", resp.StatusCode)
	}
}

func TestIntegration_RegisterValidation(t *testing.T) {
	env := newTestEnv(t)

	var body errorBody
	resp := env.do(t, http.MethodPost, "/auth/register/", "", map[string]string{
		"email": "not-an-email", "password": "short",
	}, &body)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	for _, field := range []string{"first_name", "email", "password"} {
		if body.Fields[field] == "" {
			t.Errorf("expected a field error for %s, got %v", field, body.Fields)
		}
	}
}

func TestIntegration_ProtectedRoutesRequireAuth(t *testing.T) {
	env := newTestEnv(t)

	routes := []struct{ method, path string }{
		{http.MethodPost, "/dashboard/"},
		{http.MethodGet, "/dashboard/"},
		{http.MethodPost, "/study-sessions/start/"},
		{http.MethodPost, "/study-sessions/ping/"},
		{http.MethodPost, "/study-sessions/stop/"},
		{http.MethodPost, "/lessons/greetings/complete/"},
		{http.MethodGet, "/revisions/due/"},
		{http.MethodPost, "/revisions/some-id/review/"},
		{http.MethodGet, "/lessons/greetings/cards/"},
		{http.MethodGet, "/auth/me/"},
	}
	for _, rt := range routes {
		resp := env.do(t, rt.method, rt.path, "", nil, nil)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("%s %s: expected 401, got %d", rt.method, rt.path, resp.StatusCode)
		}
	}
}

func TestIntegration_StudySessionFlow(t *testing.T) {
	env := newTestEnv(t)
	access, _ := env.register(t, "study@example.com")
	other, _ := env.register(t, "other@example.com")

	var session handler.SessionDTO
	resp := env.do(t, http.MethodPost, "/study-sessions/start/", access, map[string]string{"context": "lesson:greetings"}, &session)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("start: expected 201, got %d", resp.StatusCode)
	}
	want := handler.SessionDTO{
		ID:        session.ID,
		Context:   "lesson:greetings",
		StartedAt: "2026-03-10T09:00:00Z",
		IsActive:  true,
	}
	if diff := cmp.Diff(want, session); diff != "" {
		t.Fatalf("start response mismatch (-want +got):\n%s", diff)
	}

	// A start without a body is allowed.
	resp = env.do(t, http.MethodPost, "/study-sessions/start/", access, nil, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("start without body: expected 201, got %d", resp.StatusCode)
	}

	var ping struct {
		DurationSeconds int `json:"duration_seconds"`
	}
	for _, seconds := range []int{30, 90} {
		env.clock.Advance(time.Duration(seconds) * time.Second)
		resp = env.do(t, http.MethodPost, "/study-sessions/ping/", access, map[string]any{
			"session_id": session.ID, "active_seconds": seconds,
		}, &ping)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("ping: expected 200, got %d", resp.StatusCode)
		}
	}
	if ping.DurationSeconds != 120 {
		t.Fatalf("expected 120 seconds, got %d", ping.DurationSeconds)
	}

	for _, bad := range []map[string]any{
		{"session_id": session.ID, "active_seconds": 0},
		{"session_id": session.ID, "active_seconds": 3601},
		{"session_id": session.ID},
		{"session_id": "not-a-uuid", "active_seconds": 10},
	} {
		var body errorBody
		resp = env.do(t, http.MethodPost, "/study-sessions/ping/", access, bad, &body)
		if resp.StatusCode != http.StatusBadRequest || len(body.Fields) == 0 {
			t.Errorf("ping %v: expected 400 with field errors, got %d %+v", bad, resp.StatusCode, body)
		}
	}

	// Other users cannot see the session.
	resp = env.do(t, http.MethodPost, "/study-sessions/ping/", other, map[string]any{
		"session_id": session.ID, "active_seconds": 10,
	}, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("foreign ping: expected 404, got %d", resp.StatusCode)
	}

	resp = env.do(t, http.MethodPost, "/study-sessions/stop/", access, map[string]string{"session_id": session.ID}, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("stop: expected 204, got %d", resp.StatusCode)
	}
	resp = env.do(t, http.MethodPost, "/study-sessions/stop/", access, map[string]string{"session_id": session.ID}, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("second stop: expected 404, got %d", resp.StatusCode)
	}
	resp = env.do(t, http.MethodPost, "/study-sessions/ping/", access, map[string]any{
		"session_id": session.ID, "active_seconds": 10,
	}, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("ping after stop: expected 404, got %d", resp.StatusCode)
	}
}

func TestIntegration_RevisionFlowAndDashboard(t *testing.T) {
	env := newTestEnv(t)
	access, _ := env.register(t, "revise@example.com")
	other, _ := env.register(t, "nosy@example.com")
	lesson := env.createLesson(t, "greetings")
	if err := env.db.Catalog().CreateCard(t.Context(), &domain.LessonCard{LessonID: lesson.ID, English: "hello", Uzbek: "salom"}); err != nil {
		t.Fatalf("CreateCard: %v", err)
	}

	var sched handler.ScheduleDTO
	resp := env.do(t, http.MethodPost, "/lessons/greetings/complete/", access, nil, &sched)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("complete: expected 201, got %d", resp.StatusCode)
	}
	cover := "https://cdn.example.com/media/lessons/greetings.png"
	next := "2026-03-11T09:00:00Z"
	want := handler.ScheduleDTO{
		ID: sched.ID,
		Lesson: handler.LessonRefDTO{
			ID:         lesson.ID,
			Slug:       "greetings",
			Title:      "Lesson greetings",
			CoverImage: &cover,
		},
		Stage:             0,
		NextReviewAt:      &next,
		Status:            "scheduled",
		LessonCompletedAt: "2026-03-10T09:00:00Z",
	}
	if diff := cmp.Diff(want, sched); diff != "" {
		t.Fatalf("complete response mismatch (-want +got):\n%s", diff)
	}

	resp = env.do(t, http.MethodPost, "/lessons/no-such-lesson/complete/", access, nil, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown lesson: expected 404, got %d", resp.StatusCode)
	}

	var cards []handler.CardDTO
	resp = env.do(t, http.MethodGet, "/lessons/greetings/cards/", access, nil, &cards)
	if resp.StatusCode != http.StatusOK || len(cards) != 1 || cards[0].Uzbek != "salom" {
		t.Fatalf("cards: got %d %+v", resp.StatusCode, cards)
	}

	// Nothing due on the day of completion.
	var due []handler.ScheduleDTO
	resp = env.do(t, http.MethodGet, "/revisions/due/", access, nil, &due)
	if resp.StatusCode != http.StatusOK || len(due) != 0 {
		t.Fatalf("due on day 0: got %d %+v", resp.StatusCode, due)
	}

	// Next calendar day, past the review time.
	env.clock.Advance(25 * time.Hour)

	var dash handler.DashboardDTO
	resp = env.do(t, http.MethodPost, "/dashboard/", access, nil, &dash)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("dashboard: expected 200, got %d", resp.StatusCode)
	}
	if dash.User.Email != "revise@example.com" || dash.User.FirstName != "Jasur" {
		t.Fatalf("unexpected dashboard user %+v", dash.User)
	}
	if len(dash.RevisionTopics) != 1 || dash.RevisionTopics[0].Status != "due" {
		t.Fatalf("expected one due topic, got %+v", dash.RevisionTopics)
	}
	if len(dash.RevisionQueue) != 1 {
		t.Fatalf("expected one queued revision, got %+v", dash.RevisionQueue)
	}

	var getDash handler.DashboardDTO
	resp = env.do(t, http.MethodGet, "/dashboard/", access, nil, &getDash)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET dashboard: expected 200, got %d", resp.StatusCode)
	}
	if diff := cmp.Diff(dash, getDash, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("GET and POST dashboards differ (-post +get):\n%s", diff)
	}

	resp = env.do(t, http.MethodGet, "/revisions/due/", access, nil, &due)
	if resp.StatusCode != http.StatusOK || len(due) != 1 || due[0].ID != sched.ID {
		t.Fatalf("due on day 1: got %d %+v", resp.StatusCode, due)
	}

	resp = env.do(t, http.MethodPost, "/revisions/"+sched.ID+"/review/", other, nil, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("foreign review: expected 404, got %d", resp.StatusCode)
	}

	var reviewed handler.ScheduleDTO
	resp = env.do(t, http.MethodPost, "/revisions/"+sched.ID+"/review/", access, nil, &reviewed)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("review: expected 200, got %d", resp.StatusCode)
	}
	if reviewed.Stage != 1 || reviewed.Status != "scheduled" {
		t.Fatalf("unexpected reviewed schedule %+v", reviewed)
	}
	if reviewed.NextReviewAt == nil || *reviewed.NextReviewAt != "2026-03-14T10:00:00Z" {
		t.Fatalf("expected next review 72h after the review, got %v", reviewed.NextReviewAt)
	}
	if reviewed.LastReviewedAt == nil || *reviewed.LastReviewedAt != "2026-03-11T10:00:00Z" {
		t.Fatalf("unexpected last reviewed %v", reviewed.LastReviewedAt)
	}
}

func TestIntegration_CatalogAndContact(t *testing.T) {
	env := newTestEnv(t)
	env.createLesson(t, "animals")

	var lessons []handler.LessonDTO
	resp := env.do(t, http.MethodGet, "/lessons/", "", nil, &lessons)
	if resp.StatusCode != http.StatusOK || len(lessons) != 1 || lessons[0].Slug != "animals" {
		t.Fatalf("lessons: got %d %+v", resp.StatusCode, lessons)
	}

	var courses []handler.CourseDTO
	resp = env.do(t, http.MethodGet, "/courses/", "", nil, &courses)
	if resp.StatusCode != http.StatusOK || len(courses) != 1 {
		t.Fatalf("courses: got %d %+v", resp.StatusCode, courses)
	}

	resp = env.do(t, http.MethodPost, "/contact/", "", map[string]string{
		"name": "Malika", "phone": "+998901112233", "message": "Hello",
	}, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("contact: expected 201, got %d", resp.StatusCode)
	}

	var body errorBody
	resp = env.do(t, http.MethodPost, "/contact/", "", map[string]string{"message": "no name"}, &body)
	if resp.StatusCode != http.StatusBadRequest || body.Fields["name"] == "" || body.Fields["phone"] == "" {
		t.Fatalf("invalid contact: got %d %+v", resp.StatusCode, body)
	}
}

func TestIntegration_MetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)

	env.do(t, http.MethodGet, "/healthz", "", nil, nil)
	resp, err := http.Get(env.srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("metrics: expected 200, got %d", resp.StatusCode)
	}
}

func TestIntegration_ContactStoresSocketAddress(t *testing.T) {
	env := newTestEnv(t)

	req, err := http.NewRequest(http.MethodPost, env.srv.URL+"/contact/",
		strings.NewReader(`{"name":"Malika","phone":"+998901112233"}`))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-For", "203.0.113.77")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST /contact/: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("contact: expected 201, got %d", resp.StatusCode)
	}

	var ip string
	if err := env.db.SqlDB.Get(&ip, `SELECT ip_address FROM contact_messages`); err != nil {
		t.Fatalf("read ip_address: %v", err)
	}
	if ip != "127.0.0.1" {
		t.Fatalf("expected the socket address to be stored, got %q", ip)
	}
}

func TestIntegration_LogoutMalformedToken(t *testing.T) {
	env := newTestEnv(t)
	access, _ := env.register(t, "garbled@example.com")

	var body errorBody
	resp := env.do(t, http.MethodPost, "/auth/logout/", access, map[string]string{"refresh": "not-a-jwt"}, &body)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if !strings.Contains(body.Error, "invalid refresh token") {
		t.Fatalf("unexpected error %q", body.Error)
	}
}
