package handler

import (
	"net/http"

	"github.com/msomdec/lesson-loop/internal/service"
)

// CatalogHandler serves read-only course content.
type CatalogHandler struct {
	catalog *service.CatalogService
	media   mediaURL
}

func NewCatalogHandler(catalog *service.CatalogService, mediaBase string) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, media: mediaURL(mediaBase)}
}

func (h *CatalogHandler) HandleListCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := h.catalog.ListCourses(r.Context())
	if err != nil {
		writeServiceError(w, "list courses", err)
		return
	}
	writeJSON(w, http.StatusOK, toCourseDTOs(courses))
}

func (h *CatalogHandler) HandleListLessons(w http.ResponseWriter, r *http.Request) {
	lessons, err := h.catalog.ListLessons(r.Context())
	if err != nil {
		writeServiceError(w, "list lessons", err)
		return
	}
	writeJSON(w, http.StatusOK, h.media.toLessonDTOs(lessons))
}

func (h *CatalogHandler) HandleListCards(w http.ResponseWriter, r *http.Request) {
	cards, err := h.catalog.ListCards(r.Context(), r.PathValue("slug"))
	if err != nil {
		writeServiceError(w, "list lesson cards", err)
		return
	}
	writeJSON(w, http.StatusOK, toCardDTOs(cards))
}
