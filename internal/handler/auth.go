package handler

import (
	"net/http"

	"github.com/msomdec/lesson-loop/internal/service"
)

// AuthHandler handles account and token HTTP requests.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// HandleRegister creates an account and returns it with a token pair.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	user, pair, err := h.auth.Register(r.Context(), req.Email, req.FirstName, req.LastName, req.Password)
	if err != nil {
		writeServiceError(w, "register user", err)
		return
	}

	writeJSON(w, http.StatusCreated, authResponse{User: toUserDTO(user), Access: pair.Access, Refresh: pair.Refresh})
}

// HandleLogin exchanges credentials for a token pair.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	user, pair, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, "login", err)
		return
	}

	writeJSON(w, http.StatusOK, authResponse{User: toUserDTO(user), Access: pair.Access, Refresh: pair.Refresh})
}

// HandleRefresh rotates a refresh token.
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	pair, err := h.auth.Refresh(r.Context(), req.Refresh)
	if err != nil {
		writeServiceError(w, "refresh token", err)
		return
	}

	writeJSON(w, http.StatusOK, toTokenResponse(pair))
}

// HandleLogout revokes the caller's refresh token.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req refreshRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	if err := h.auth.Logout(r.Context(), user.ID, req.Refresh); err != nil {
		writeServiceError(w, "logout", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleMe returns the authenticated user.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(user))
}
