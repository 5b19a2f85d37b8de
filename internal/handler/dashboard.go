package handler

import (
	"net/http"

	"github.com/msomdec/lesson-loop/internal/service"
)

// DashboardHandler serves the learner dashboard.
type DashboardHandler struct {
	dashboard *service.DashboardService
	clock     service.Clock
	media     mediaURL
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(dashboard *service.DashboardService, clock service.Clock, mediaBase string) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard, clock: clock, media: mediaURL(mediaBase)}
}

// HandleDashboard syncs the caller's revision schedules and returns the
// dashboard payload.
func (h *DashboardHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	dashboard, err := h.dashboard.Build(r.Context(), user, h.clock())
	if err != nil {
		writeServiceError(w, "build dashboard", err)
		return
	}

	writeJSON(w, http.StatusOK, h.media.toDashboardDTO(dashboard))
}
