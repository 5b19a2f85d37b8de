package handler

import (
	"net/http"

	"github.com/msomdec/lesson-loop/internal/service"
)

// ContactHandler accepts anonymous contact form submissions.
type ContactHandler struct {
	contacts *service.ContactService
}

func NewContactHandler(contacts *service.ContactService) *ContactHandler {
	return &ContactHandler{contacts: contacts}
}

func (h *ContactHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	msg, err := h.contacts.Create(r.Context(), req.Name, req.Phone, req.Message, clientIP(r), r.UserAgent())
	if err != nil {
		writeServiceError(w, "create contact message", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"id":      msg.ID,
		"name":    msg.Name,
		"phone":   msg.Phone,
		"message": msg.Message,
	})
}
