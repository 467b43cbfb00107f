package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"smartclass/internal/model"
	"smartclass/internal/service"
	"smartclass/internal/transport/rest/middleware"
)

// ClassroomHandler handles live classroom endpoints
type ClassroomHandler struct {
	classroomSvc *service.ClassroomService
}

// NewClassroomHandler creates a new classroom handler
func NewClassroomHandler(classroomSvc *service.ClassroomService) *ClassroomHandler {
	return &ClassroomHandler{classroomSvc: classroomSvc}
}

// Create handles POST /v1/classrooms
func (h *ClassroomHandler) Create(w http.ResponseWriter, r *http.Request) {
	teacherID := middleware.GetTeacherID(r.Context())
	if teacherID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req model.CreateClassroomRequest
	// An empty body starts an untitled classroom
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	classroom, err := h.classroomSvc.Create(r.Context(), teacherID, &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, classroom)
}

// Get handles GET /v1/classrooms/{id}
func (h *ClassroomHandler) Get(w http.ResponseWriter, r *http.Request) {
	classroom, err := h.classroomSvc.Get(r.Context(), middleware.GetTeacherID(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, classroom)
}

// End handles POST /v1/classrooms/{id}/end
func (h *ClassroomHandler) End(w http.ResponseWriter, r *http.Request) {
	if err := h.classroomSvc.End(r.Context(), middleware.GetTeacherID(r.Context()), mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": string(model.ClassroomEnded)})
}

// State handles GET /v1/classrooms/{id}/state
func (h *ClassroomHandler) State(w http.ResponseWriter, r *http.Request) {
	state, err := h.classroomSvc.State(r.Context(), middleware.GetTeacherID(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, state)
}

// Canvas handles GET /v1/classrooms/{id}/canvas
func (h *ClassroomHandler) Canvas(w http.ResponseWriter, r *http.Request) {
	ops, err := h.classroomSvc.Canvas(r.Context(), middleware.GetTeacherID(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"ops": ops})
}

// Context handles GET /v1/classrooms/{id}/context
func (h *ClassroomHandler) Context(w http.ResponseWriter, r *http.Request) {
	fused, err := h.classroomSvc.Context(r.Context(), middleware.GetTeacherID(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}

	// context is null until the first board or speech event
	writeJSON(w, http.StatusOK, map[string]interface{}{"context": fused})
}

// Suggestions handles GET /v1/classrooms/{id}/suggestions
func (h *ClassroomHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	suggestions, err := h.classroomSvc.Suggestions(r.Context(), middleware.GetTeacherID(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"suggestions": suggestions})
}

// Keywords handles GET /v1/classrooms/{id}/keywords
func (h *ClassroomHandler) Keywords(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if s := r.URL.Query().Get("top"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			limit = n
		}
	}

	keywords, err := h.classroomSvc.Keywords(r.Context(), middleware.GetTeacherID(r.Context()), mux.Vars(r)["id"], limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"keywords": keywords})
}

// Dismiss handles DELETE /v1/classrooms/{id}/suggestions/{sid}
func (h *ClassroomHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.classroomSvc.Dismiss(r.Context(), middleware.GetTeacherID(r.Context()), vars["id"], vars["sid"]); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ActionRequest is the request body for a suggestion button press
type ActionRequest struct {
	Action string `json:"action"`
}

// Act handles POST /v1/classrooms/{id}/suggestions/{sid}/actions
func (h *ClassroomHandler) Act(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var req ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Action == "" {
		writeError(w, http.StatusBadRequest, "action is required")
		return
	}

	if err := h.classroomSvc.Act(r.Context(), middleware.GetTeacherID(r.Context()), vars["id"], vars["sid"], req.Action); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "applied"})
}
