package handler

import (
	"net/http"

	"github.com/msomdec/lesson-loop/internal/service"
)

// RevisionHandler handles lesson completion and revision HTTP requests.
type RevisionHandler struct {
	revisions *service.RevisionService
	clock     service.Clock
	media     mediaURL
}

// NewRevisionHandler creates a new RevisionHandler.
func NewRevisionHandler(revisions *service.RevisionService, clock service.Clock, mediaBase string) *RevisionHandler {
	return &RevisionHandler{revisions: revisions, clock: clock, media: mediaURL(mediaBase)}
}

// HandleCompleteLesson starts or restarts the revision ladder for a lesson.
func (h *RevisionHandler) HandleCompleteLesson(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	schedule, err := h.revisions.CompleteLesson(r.Context(), user.ID, r.PathValue("slug"))
	if err != nil {
		writeServiceError(w, "complete lesson", err)
		return
	}

	writeJSON(w, http.StatusCreated, h.media.toScheduleDTO(*schedule))
}

// HandleListDue lists the caller's revisions due today or overdue.
func (h *RevisionHandler) HandleListDue(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	due, err := h.revisions.ListDue(r.Context(), user.ID, h.clock())
	if err != nil {
		writeServiceError(w, "list due revisions", err)
		return
	}

	writeJSON(w, http.StatusOK, h.media.toScheduleDTOs(due))
}

// HandleReview records a review of one of the caller's schedules.
func (h *RevisionHandler) HandleReview(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	schedule, err := h.revisions.Review(r.Context(), user.ID, r.PathValue("id"), h.clock())
	if err != nil {
		writeServiceError(w, "review schedule", err)
		return
	}

	writeJSON(w, http.StatusOK, h.media.toScheduleDTO(*schedule))
}
