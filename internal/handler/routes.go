package handler

import (
	"net/http"

	"github.com/msomdec/lesson-loop/internal/metrics"
	"github.com/msomdec/lesson-loop/internal/service"
)

// Deps carries everything the HTTP layer needs.
type Deps struct {
	Auth      *service.AuthService
	Dashboard *service.DashboardService
	Revisions *service.RevisionService
	Sessions  *service.StudySessionService
	Catalog   *service.CatalogService
	Contacts  *service.ContactService

	// AnonLimiter and UserLimiter may be nil to disable throttling.
	AnonLimiter *service.TokenBucket
	UserLimiter *service.TokenBucket

	// TrustedProxies is the number of reverse proxies in front of the
	// server whose X-Forwarded-For entries are believed.
	TrustedProxies int

	Metrics  *metrics.Metrics
	DB       Pinger
	Clock    service.Clock
	MediaURL string
}

// RegisterRoutes sets up all HTTP routes on the given mux.
func RegisterRoutes(mux *http.ServeMux, d Deps) {
	throttled := func(h http.HandlerFunc) http.Handler {
		return Throttle(d.AnonLimiter, d.UserLimiter, d.Metrics, h)
	}
	protected := func(h http.HandlerFunc) http.Handler {
		return RequireAuth(d.Auth, throttled(h))
	}

	mux.HandleFunc("GET /healthz", HandleHealthz)
	if d.DB != nil {
		mux.HandleFunc("GET /readyz", HandleReadyz(d.DB))
	}
	if d.Metrics != nil {
		mux.Handle("GET /metrics", d.Metrics.Handler())
	}

	auth := NewAuthHandler(d.Auth)
	mux.Handle("POST /auth/register/{$}", throttled(auth.HandleRegister))
	mux.Handle("POST /auth/login/{$}", throttled(auth.HandleLogin))
	mux.Handle("POST /auth/refresh/{$}", throttled(auth.HandleRefresh))
	mux.Handle("POST /auth/logout/{$}", protected(auth.HandleLogout))
	mux.Handle("GET /auth/me/{$}", protected(auth.HandleMe))

	dashboard := NewDashboardHandler(d.Dashboard, d.Clock, d.MediaURL)
	mux.Handle("POST /dashboard/{$}", protected(dashboard.HandleDashboard))
	mux.Handle("GET /dashboard/{$}", protected(dashboard.HandleDashboard))

	sessions := NewStudySessionHandler(d.Sessions)
	mux.Handle("POST /study-sessions/start/{$}", protected(sessions.HandleStart))
	mux.Handle("POST /study-sessions/ping/{$}", protected(sessions.HandlePing))
	mux.Handle("POST /study-sessions/stop/{$}", protected(sessions.HandleStop))

	revisions := NewRevisionHandler(d.Revisions, d.Clock, d.MediaURL)
	mux.Handle("POST /lessons/{slug}/complete/{$}", protected(revisions.HandleCompleteLesson))
	mux.Handle("GET /revisions/due/{$}", protected(revisions.HandleListDue))
	mux.Handle("POST /revisions/{id}/review/{$}", protected(revisions.HandleReview))

	catalog := NewCatalogHandler(d.Catalog, d.MediaURL)
	mux.Handle("GET /courses/{$}", throttled(catalog.HandleListCourses))
	mux.Handle("GET /lessons/{$}", throttled(catalog.HandleListLessons))
	mux.Handle("GET /lessons/{slug}/cards/{$}", protected(catalog.HandleListCards))

	contacts := NewContactHandler(d.Contacts)
	mux.Handle("POST /contact/{$}", throttled(contacts.HandleCreate))
}

// NewServer builds the full handler chain: routes wrapped in security
// headers, request observation and client IP resolution. RealIP copies the
// request, so it stays outside Observe, which reads the pattern the mux
// sets on its own request.
func NewServer(d Deps) http.Handler {
	mux := http.NewServeMux()
	RegisterRoutes(mux, d)
	return RealIP(d.TrustedProxies, Observe(d.Metrics, SecurityHeaders(mux)))
}
