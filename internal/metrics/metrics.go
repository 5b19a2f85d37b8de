// Package metrics holds the Prometheus collectors exported on /metrics.
//
// A nil *Metrics is valid and records nothing, so services can be built
// without instrumentation in tests.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "lessonloop"

type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal          *prometheus.CounterVec
	httpRequestsActive         prometheus.Gauge
	httpRequestDurationSeconds *prometheus.HistogramVec
	httpThrottledTotal         *prometheus.CounterVec

	lessonCompletionsTotal prometheus.Counter
	reviewsTotal           *prometheus.CounterVec
	statusTransitionsTotal *prometheus.CounterVec
	sessionPingsTotal      prometheus.Counter
	studySecondsTotal      prometheus.Counter
	sessionsStartedTotal   prometheus.Counter
	sessionsStoppedTotal   prometheus.Counter
	reconcileRunsTotal     *prometheus.CounterVec
}

// New creates a Metrics with its own registry, including Go runtime and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests.",
		}, []string{"route", "method", "status"}),
		httpRequestsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_active",
			Help:      "Number of in-flight HTTP requests.",
		}),
		httpRequestDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"route", "method", "status"}),
		httpThrottledTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_throttled_total",
			Help:      "Requests rejected by the rate limiter.",
		}, []string{"scope"}),
		lessonCompletionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lesson_completions_total",
			Help:      "Lessons marked complete, creating or resetting a revision schedule.",
		}),
		reviewsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "revision_reviews_total",
			Help:      "Revision reviews by resulting status.",
		}, []string{"status"}),
		statusTransitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "revision_status_transitions_total",
			Help:      "Revision schedule status changes persisted by time-based sync.",
		}, []string{"to"}),
		sessionPingsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "study_session_pings_total",
			Help:      "Accepted study session pings.",
		}),
		studySecondsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "study_seconds_total",
			Help:      "Active study seconds credited through pings.",
		}),
		sessionsStartedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "study_sessions_started_total",
			Help:      "Study sessions started.",
		}),
		sessionsStoppedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "study_sessions_stopped_total",
			Help:      "Study sessions stopped.",
		}),
		reconcileRunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_runs_total",
			Help:      "Background status reconciliation runs by outcome.",
		}, []string{"outcome"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestsActive,
		m.httpRequestDurationSeconds,
		m.httpThrottledTotal,
		m.lessonCompletionsTotal,
		m.reviewsTotal,
		m.statusTransitionsTotal,
		m.sessionPingsTotal,
		m.studySecondsTotal,
		m.sessionsStartedTotal,
		m.sessionsStoppedTotal,
		m.reconcileRunsTotal,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RequestStarted marks a request in flight and returns a func that ends it.
func (m *Metrics) RequestStarted() func() {
	if m == nil {
		return func() {}
	}
	m.httpRequestsActive.Inc()
	return m.httpRequestsActive.Dec
}

// RequestServed records a finished request under its route pattern.
func (m *Metrics) RequestServed(route, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.httpRequestsTotal.WithLabelValues(route, method, code).Inc()
	m.httpRequestDurationSeconds.WithLabelValues(route, method, code).Observe(elapsed.Seconds())
}

func (m *Metrics) Throttled(scope string) {
	if m == nil {
		return
	}
	m.httpThrottledTotal.WithLabelValues(scope).Inc()
}

func (m *Metrics) LessonCompleted() {
	if m == nil {
		return
	}
	m.lessonCompletionsTotal.Inc()
}

func (m *Metrics) Reviewed(status string) {
	if m == nil {
		return
	}
	m.reviewsTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) StatusChanged(to string) {
	if m == nil {
		return
	}
	m.statusTransitionsTotal.WithLabelValues(to).Inc()
}

func (m *Metrics) SessionStarted() {
	if m == nil {
		return
	}
	m.sessionsStartedTotal.Inc()
}

func (m *Metrics) SessionPinged(seconds int) {
	if m == nil {
		return
	}
	m.sessionPingsTotal.Inc()
	m.studySecondsTotal.Add(float64(seconds))
}

func (m *Metrics) SessionStopped() {
	if m == nil {
		return
	}
	m.sessionsStoppedTotal.Inc()
}

func (m *Metrics) ReconcileRun(outcome string) {
	if m == nil {
		return
	}
	m.reconcileRunsTotal.WithLabelValues(outcome).Inc()
}
