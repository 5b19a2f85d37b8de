package handler

import (
	"strings"
	"time"

	"github.com/msomdec/lesson-loop/internal/domain"
	"github.com/msomdec/lesson-loop/internal/service"
)

// Requests.

type registerRequest struct {
	FirstName string `json:"first_name" validate:"required,max=150"`
	LastName  string `json:"last_name" validate:"max=150"`
	Email     string `json:"email" validate:"required,email,max=254"`
	Password  string `json:"password" validate:"required,min=8,max=128"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	Refresh string `json:"refresh" validate:"required"`
}

type startSessionRequest struct {
	Context string `json:"context" validate:"max=255"`
}

type pingSessionRequest struct {
	SessionID     string `json:"session_id" validate:"required,uuid_any"`
	ActiveSeconds *int   `json:"active_seconds" validate:"required,min=1,max=3600"`
}

type stopSessionRequest struct {
	SessionID string `json:"session_id" validate:"required,uuid_any"`
}

type contactRequest struct {
	Name    string `json:"name" validate:"required,max=120"`
	Phone   string `json:"phone" validate:"required,max=32"`
	Message string `json:"message" validate:"max=2000"`
}

// Responses.

// UserDTO is the JSON representation of a user.
type UserDTO struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func toUserDTO(u *domain.User) UserDTO {
	return UserDTO{ID: u.ID, Email: u.Email, FirstName: u.FirstName, LastName: u.LastName}
}

type authResponse struct {
	User    UserDTO `json:"user"`
	Access  string  `json:"access"`
	Refresh string  `json:"refresh"`
}

type tokenResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

func toTokenResponse(p service.TokenPair) tokenResponse {
	return tokenResponse{Access: p.Access, Refresh: p.Refresh}
}

// LessonRefDTO is the lesson summary embedded in a revision schedule.
type LessonRefDTO struct {
	ID         string  `json:"id"`
	Slug       string  `json:"slug"`
	Title      string  `json:"title"`
	CoverImage *string `json:"cover_image"`
}

// ScheduleDTO is the JSON representation of a revision schedule.
type ScheduleDTO struct {
	ID                string       `json:"id"`
	Lesson            LessonRefDTO `json:"lesson"`
	Stage             int          `json:"stage"`
	NextReviewAt      *string      `json:"next_review_at"`
	Status            string       `json:"status"`
	LessonCompletedAt string       `json:"lesson_completed_at"`
	LastReviewedAt    *string      `json:"last_reviewed_at"`
}

// SessionDTO is the JSON representation of a study session.
type SessionDTO struct {
	ID              string  `json:"id"`
	Context         string  `json:"context"`
	StartedAt       string  `json:"started_at"`
	EndedAt         *string `json:"ended_at"`
	DurationSeconds int     `json:"duration_seconds"`
	IsActive        bool    `json:"is_active"`
}

type dashboardUserDTO struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

type studyTimeDTO struct {
	TodaySeconds int `json:"today_seconds"`
	WeekSeconds  int `json:"week_seconds"`
	TotalSeconds int `json:"total_seconds"`
}

// DashboardDTO is the JSON representation of the learner dashboard.
type DashboardDTO struct {
	User           dashboardUserDTO `json:"user"`
	StudyTime      studyTimeDTO     `json:"study_time"`
	RevisionTopics []ScheduleDTO    `json:"revision_topics"`
	RevisionQueue  []ScheduleDTO    `json:"revision_queue"`
}

type CourseDTO struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

type LessonDTO struct {
	ID         string  `json:"id"`
	CourseID   string  `json:"course_id"`
	Title      string  `json:"title"`
	Slug       string  `json:"slug"`
	CoverImage *string `json:"cover_image"`
	Order      int     `json:"order"`
	CardCount  int     `json:"card_count"`
}

type CardDTO struct {
	ID              string `json:"id"`
	Order           int    `json:"order"`
	English         string `json:"english"`
	Uzbek           string `json:"uzbek"`
	Pronunciation   string `json:"pronunciation"`
	MnemonicExample string `json:"mnemonic_example"`
	Translation     string `json:"translation"`
}

// Converters.

// mediaURL turns a stored media path into a public URL, or nil when empty.
type mediaURL string

func (m mediaURL) resolve(path string) *string {
	if path == "" {
		return nil
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return &path
	}
	u := strings.TrimSuffix(string(m), "/") + "/" + strings.TrimPrefix(path, "/")
	return &u
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func (m mediaURL) toScheduleDTO(s domain.RevisionSchedule) ScheduleDTO {
	return ScheduleDTO{
		ID: s.ID,
		Lesson: LessonRefDTO{
			ID:         s.Lesson.ID,
			Slug:       s.Lesson.Slug,
			Title:      s.Lesson.Title,
			CoverImage: m.resolve(s.Lesson.CoverImagePath),
		},
		Stage:             s.Stage,
		NextReviewAt:      formatTimePtr(s.NextReviewAt),
		Status:            string(s.Status),
		LessonCompletedAt: formatTime(s.LessonCompletedAt),
		LastReviewedAt:    formatTimePtr(s.LastReviewedAt),
	}
}

func (m mediaURL) toScheduleDTOs(schedules []domain.RevisionSchedule) []ScheduleDTO {
	dtos := make([]ScheduleDTO, len(schedules))
	for i, s := range schedules {
		dtos[i] = m.toScheduleDTO(s)
	}
	return dtos
}

func toSessionDTO(s *domain.StudySession) SessionDTO {
	return SessionDTO{
		ID:              s.ID,
		Context:         s.Context,
		StartedAt:       formatTime(s.StartedAt),
		EndedAt:         formatTimePtr(s.EndedAt),
		DurationSeconds: s.DurationSeconds,
		IsActive:        s.IsActive,
	}
}

func (m mediaURL) toDashboardDTO(d *domain.Dashboard) DashboardDTO {
	return DashboardDTO{
		User: dashboardUserDTO{
			FirstName: d.User.FirstName,
			LastName:  d.User.LastName,
			Email:     d.User.Email,
		},
		StudyTime: studyTimeDTO{
			TodaySeconds: d.StudyTime.TodaySeconds,
			WeekSeconds:  d.StudyTime.WeekSeconds,
			TotalSeconds: d.StudyTime.TotalSeconds,
		},
		RevisionTopics: m.toScheduleDTOs(d.DueToday),
		RevisionQueue:  m.toScheduleDTOs(d.Queue),
	}
}

func toCourseDTOs(courses []domain.Course) []CourseDTO {
	dtos := make([]CourseDTO, len(courses))
	for i, c := range courses {
		dtos[i] = CourseDTO{ID: c.ID, Title: c.Title, Slug: c.Slug, Description: c.Description}
	}
	return dtos
}

func (m mediaURL) toLessonDTOs(lessons []domain.Lesson) []LessonDTO {
	dtos := make([]LessonDTO, len(lessons))
	for i, l := range lessons {
		dtos[i] = LessonDTO{
			ID:         l.ID,
			CourseID:   l.CourseID,
			Title:      l.Title,
			Slug:       l.Slug,
			CoverImage: m.resolve(l.CoverImagePath),
			Order:      l.SortOrder,
			CardCount:  l.CardCount,
		}
	}
	return dtos
}

func toCardDTOs(cards []domain.LessonCard) []CardDTO {
	dtos := make([]CardDTO, len(cards))
	for i, c := range cards {
		dtos[i] = CardDTO{
			ID:              c.ID,
			Order:           c.SortOrder,
			English:         c.English,
			Uzbek:           c.Uzbek,
			Pronunciation:   c.Pronunciation,
			MnemonicExample: c.MnemonicExample,
			Translation:     c.Translation,
		}
	}
	return dtos
}
