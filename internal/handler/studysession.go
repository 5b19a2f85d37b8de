package handler

import (
	"net/http"

	"github.com/msomdec/lesson-loop/internal/service"
)

// StudySessionHandler handles study session HTTP requests.
type StudySessionHandler struct {
	sessions *service.StudySessionService
}

// NewStudySessionHandler creates a new StudySessionHandler.
func NewStudySessionHandler(sessions *service.StudySessionService) *StudySessionHandler {
	return &StudySessionHandler{sessions: sessions}
}

// HandleStart opens a new study session.
func (h *StudySessionHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req startSessionRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	session, err := h.sessions.Start(r.Context(), user.ID, req.Context)
	if err != nil {
		writeServiceError(w, "start study session", err)
		return
	}

	writeJSON(w, http.StatusCreated, toSessionDTO(session))
}

// HandlePing credits active seconds to an open session.
func (h *StudySessionHandler) HandlePing(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req pingSessionRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	total, err := h.sessions.Ping(r.Context(), user.ID, req.SessionID, *req.ActiveSeconds)
	if err != nil {
		writeServiceError(w, "ping study session", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"duration_seconds": total})
}

// HandleStop closes an open session.
func (h *StudySessionHandler) HandleStop(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req stopSessionRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	if err := h.sessions.Stop(r.Context(), user.ID, req.SessionID); err != nil {
		writeServiceError(w, "stop study session", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
