package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"smartclass/internal/board"
	"smartclass/internal/model"
	"smartclass/internal/service"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authSvc *service.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authSvc *service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// Login handles POST /v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.authSvc.Login(req.Username, req.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Helper functions
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// writeServiceError maps service sentinel errors to HTTP statuses
func writeServiceError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrLectureNotFound),
		errors.Is(err, service.ErrGroupNotFound),
		errors.Is(err, service.ErrClassroomNotFound),
		errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrDiagramNotFound),
		errors.Is(err, board.ErrShapeNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrClassroomNotLive),
		errors.Is(err, service.ErrClassroomClosed):
		status = http.StatusConflict
	case errors.Is(err, service.ErrTitleRequired),
		errors.Is(err, service.ErrNameRequired),
		errors.Is(err, service.ErrTranscriptRequired),
		errors.Is(err, service.ErrDrawingRequired),
		errors.Is(err, service.ErrConceptRequired),
		errors.Is(err, service.ErrSessionIDRequired),
		errors.Is(err, service.ErrNoTranscript),
		errors.Is(err, service.ErrInvalidMessage):
		status = http.StatusBadRequest
	}
	writeError(w, status, err.Error())
}
