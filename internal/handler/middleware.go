package handler

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/msomdec/lesson-loop/internal/domain"
	"github.com/msomdec/lesson-loop/internal/metrics"
	"github.com/msomdec/lesson-loop/internal/service"
)

type contextKey string

const userContextKey contextKey = "user"

// UserFromContext extracts the authenticated user from the request context.
// Returns nil if no user is authenticated.
func UserFromContext(ctx context.Context) *domain.User {
	user, _ := ctx.Value(userContextKey).(*domain.User)
	return user
}

// RequireAuth is middleware that protects routes requiring authentication.
// It reads the bearer token from the Authorization header, validates it,
// loads the user and injects it into the request context.
func RequireAuth(auth *service.AuthService, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := authenticateRequest(r, auth)
		switch {
		case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrNotFound):
			w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
			writeError(w, http.StatusUnauthorized, "authentication credentials were not provided or are invalid")
			return
		case err != nil:
			writeServiceError(w, "authenticate request", err)
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func authenticateRequest(r *http.Request, auth *service.AuthService) (*domain.User, error) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return nil, domain.ErrUnauthorized
	}

	userID, err := auth.ValidateAccessToken(strings.TrimSpace(token))
	if err != nil {
		return nil, err
	}

	return auth.GetUserByID(r.Context(), userID)
}

// Throttle rejects requests over budget with 429. Authenticated requests
// draw from the user's bucket, anonymous ones from the client IP's.
func Throttle(anon, user *service.TokenBucket, m *metrics.Metrics, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limiter, key, scope := anon, "ip:"+clientIP(r), "anon"
		if u := UserFromContext(r.Context()); u != nil {
			limiter, key, scope = user, "user:"+u.ID, "user"
		}
		if limiter == nil {
			next.ServeHTTP(w, r)
			return
		}

		ok, retryAfter := limiter.Allow(key)
		if !ok {
			m.Throttled(scope)
			if retryAfter > 0 {
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
			}
			writeError(w, http.StatusTooManyRequests, "request was throttled")
			return
		}
		next.ServeHTTP(w, r)
	})
}

const clientIPContextKey contextKey = "client_ip"

// RealIP resolves the client address once per request. With zero trusted
// proxies only the socket address counts. Otherwise X-Forwarded-For is read
// from the right, skipping one hop per trusted proxy, so entries the client
// wrote itself are never picked while the chain is long enough.
func RealIP(trustedProxies int, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := resolveClientIP(r, trustedProxies)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), clientIPContextKey, ip)))
	})
}

func resolveClientIP(r *http.Request, trustedProxies int) string {
	remote := remoteHost(r)
	if trustedProxies <= 0 {
		return remote
	}

	var chain []string
	for hop := range strings.SplitSeq(r.Header.Get("X-Forwarded-For"), ",") {
		if hop = strings.TrimSpace(hop); hop != "" {
			chain = append(chain, hop)
		}
	}
	chain = append(chain, remote)

	idx := len(chain) - 1 - trustedProxies
	if idx < 0 {
		idx = 0
	}
	return chain[idx]
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// clientIP returns the address resolved by RealIP, or the socket address
// when the request did not pass through it.
func clientIP(r *http.Request) string {
	if ip, ok := r.Context().Value(clientIPContextKey).(string); ok {
		return ip
	}
	return remoteHost(r)
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *statusRecorder) Unwrap() http.ResponseWriter {
	return rec.ResponseWriter
}

// Observe logs every request and records it in m. It must wrap the mux so
// the matched route pattern is known once the handler returns.
func Observe(m *metrics.Metrics, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		done := m.RequestStarted()

		defer func() {
			if p := recover(); p != nil {
				slog.Error("panic serving request", "method", r.Method, "path", r.URL.Path, "panic", p)
				rec.status = http.StatusInternalServerError
				writeError(rec, http.StatusInternalServerError, "internal server error")
			}

			route := r.Pattern
			if route == "" {
				route = "unmatched"
			}
			elapsed := time.Since(start)
			done()
			m.RequestServed(route, r.Method, rec.status, elapsed)
			slog.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"route", route,
				"status", rec.status,
				"duration", elapsed,
			)
		}()

		next.ServeHTTP(rec, r)
	})
}

// SecurityHeaders sets conservative response headers for a JSON API.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "same-origin")
		h.Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}
