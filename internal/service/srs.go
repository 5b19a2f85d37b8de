package service

import (
	"time"

	"github.com/msomdec/lesson-loop/internal/domain"
)

// Intervals is the spaced-repetition ladder: Intervals[i] is the wait before
// the review that follows stage i.
var Intervals = [...]time.Duration{
	24 * time.Hour,
	72 * time.Hour,
	7 * 24 * time.Hour,
	14 * 24 * time.Hour,
	28 * 24 * time.Hour,
}

// MaxStage is the last stage; reviewing at MaxStage completes the schedule.
const MaxStage = len(Intervals) - 1

// SyncStatus derives the status of s from its next review time relative to
// now and reports whether it changed. Completed schedules are never touched.
// Calendar days are taken in now's location.
func SyncStatus(s *domain.RevisionSchedule, now time.Time) bool {
	if s.Status == domain.RevisionCompleted {
		return false
	}

	var status domain.RevisionStatus
	switch {
	case s.NextReviewAt == nil:
		status = domain.RevisionCompleted
	case dateBefore(s.NextReviewAt.In(now.Location()), now):
		status = domain.RevisionExpired
	case !s.NextReviewAt.After(now):
		status = domain.RevisionDue
	default:
		status = domain.RevisionScheduled
	}

	if status == s.Status {
		return false
	}
	s.Status = status
	return true
}

// CreateOrReset restarts the ladder for a lesson the user just completed.
// A nil existing schedule yields a fresh one.
func CreateOrReset(existing *domain.RevisionSchedule, userID, lessonID string, completedAt time.Time) *domain.RevisionSchedule {
	s := existing
	if s == nil {
		s = &domain.RevisionSchedule{UserID: userID, LessonID: lessonID}
	}
	next := completedAt.Add(Intervals[0])
	s.LessonCompletedAt = completedAt
	s.Stage = 0
	s.LastReviewedAt = nil
	s.NextReviewAt = &next
	s.Status = domain.RevisionScheduled
	return s
}

// MarkReviewed advances s one stage, or completes it when already at
// MaxStage. The caller re-syncs status afterwards.
func MarkReviewed(s *domain.RevisionSchedule, reviewedAt time.Time) {
	s.LastReviewedAt = &reviewedAt
	if s.Stage >= MaxStage {
		s.Status = domain.RevisionCompleted
		s.NextReviewAt = nil
		return
	}
	s.Stage++
	next := reviewedAt.Add(Intervals[s.Stage])
	s.NextReviewAt = &next
	s.Status = domain.RevisionScheduled
}

// IsDueOn reports whether s belongs on the day's revision list: it is due or
// expired, or its next review falls on or before now's calendar day.
func IsDueOn(s *domain.RevisionSchedule, now time.Time) bool {
	if s.Status == domain.RevisionCompleted || s.NextReviewAt == nil {
		return false
	}
	if s.Status == domain.RevisionDue || s.Status == domain.RevisionExpired {
		return true
	}
	return !dateBefore(now, s.NextReviewAt.In(now.Location()))
}

// dateBefore reports whether a's calendar date precedes b's, both read in
// their own locations.
func dateBefore(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	if ay != by {
		return ay < by
	}
	if am != bm {
		return am < bm
	}
	return ad < bd
}

// startOfDay returns midnight of t's calendar day in t's location.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
