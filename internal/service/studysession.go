package service

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/msomdec/lesson-loop/internal/domain"
	"github.com/msomdec/lesson-loop/internal/metrics"
)

const (
	MinPingSeconds   = 1
	MaxPingSeconds   = 3600
	MaxContextLength = 255
)

// StudySessionService handles the start/ping/stop lifecycle of study sessions.
// Sessions have no idle timeout; they stay active until stopped.
type StudySessionService struct {
	sessions domain.StudySessionRepository
	clock    Clock
	metrics  *metrics.Metrics
}

// NewStudySessionService creates a new StudySessionService. m may be nil.
func NewStudySessionService(sessions domain.StudySessionRepository, clock Clock, m *metrics.Metrics) *StudySessionService {
	return &StudySessionService{sessions: sessions, clock: clock, metrics: m}
}

// Start opens a new active session for the user.
func (s *StudySessionService) Start(ctx context.Context, userID, label string) (*domain.StudySession, error) {
	if utf8.RuneCountInString(label) > MaxContextLength {
		return nil, fmt.Errorf("%w: context must be at most %d characters", domain.ErrInvalidInput, MaxContextLength)
	}

	now := s.clock()
	session := &domain.StudySession{
		UserID:     userID,
		Context:    label,
		StartedAt:  now,
		LastPingAt: &now,
		IsActive:   true,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.metrics.SessionStarted()
	return session, nil
}

// Ping credits activeSeconds to an active session owned by the user and
// returns the new total.
func (s *StudySessionService) Ping(ctx context.Context, userID, sessionID string, activeSeconds int) (int, error) {
	if activeSeconds < MinPingSeconds || activeSeconds > MaxPingSeconds {
		return 0, fmt.Errorf("%w: active_seconds must be between %d and %d", domain.ErrInvalidInput, MinPingSeconds, MaxPingSeconds)
	}

	total, err := s.sessions.AddDuration(ctx, sessionID, userID, activeSeconds, s.clock())
	if err != nil {
		return 0, fmt.Errorf("ping session: %w", err)
	}

	s.metrics.SessionPinged(activeSeconds)
	return total, nil
}

// Stop ends an active session owned by the user.
func (s *StudySessionService) Stop(ctx context.Context, userID, sessionID string) error {
	if err := s.sessions.Stop(ctx, sessionID, userID, s.clock()); err != nil {
		return fmt.Errorf("stop session: %w", err)
	}
	s.metrics.SessionStopped()
	return nil
}
