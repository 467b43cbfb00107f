package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"smartclass/internal/model"
	"smartclass/internal/service"
	"smartclass/internal/transport/rest/middleware"
)

// LectureHandler handles lecture plan and group endpoints
type LectureHandler struct {
	lectureSvc *service.LectureService
	groupSvc   *service.GroupService
}

// NewLectureHandler creates a new lecture handler
func NewLectureHandler(lectureSvc *service.LectureService, groupSvc *service.GroupService) *LectureHandler {
	return &LectureHandler{
		lectureSvc: lectureSvc,
		groupSvc:   groupSvc,
	}
}

// CreateLecture handles POST /v1/lectures
func (h *LectureHandler) CreateLecture(w http.ResponseWriter, r *http.Request) {
	var lecture model.Lecture
	if err := json.NewDecoder(r.Body).Decode(&lecture); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id, err := h.lectureSvc.Create(r.Context(), middleware.GetTeacherID(r.Context()), &lecture)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// ListLectures handles GET /v1/lectures
func (h *LectureHandler) ListLectures(w http.ResponseWriter, r *http.Request) {
	lectures, err := h.lectureSvc.List(r.Context(), middleware.GetTeacherID(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if lectures == nil {
		lectures = []*model.Lecture{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"lectures": lectures})
}

// GetLecture handles GET /v1/lectures/{id}
func (h *LectureHandler) GetLecture(w http.ResponseWriter, r *http.Request) {
	lecture, err := h.lectureSvc.Get(r.Context(), middleware.GetTeacherID(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, lecture)
}

// UpdateLecture handles PUT /v1/lectures/{id}
func (h *LectureHandler) UpdateLecture(w http.ResponseWriter, r *http.Request) {
	var lecture model.Lecture
	if err := json.NewDecoder(r.Body).Decode(&lecture); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	lecture.ID = mux.Vars(r)["id"]

	if err := h.lectureSvc.Update(r.Context(), middleware.GetTeacherID(r.Context()), &lecture); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, lecture)
}

// DeleteLecture handles DELETE /v1/lectures/{id}
func (h *LectureHandler) DeleteLecture(w http.ResponseWriter, r *http.Request) {
	if err := h.lectureSvc.Delete(r.Context(), middleware.GetTeacherID(r.Context()), mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CreateGroup handles POST /v1/groups
func (h *LectureHandler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var group model.Group
	if err := json.NewDecoder(r.Body).Decode(&group); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id, err := h.groupSvc.Create(r.Context(), middleware.GetTeacherID(r.Context()), &group)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// ListGroups handles GET /v1/groups
func (h *LectureHandler) ListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.groupSvc.List(r.Context(), middleware.GetTeacherID(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if groups == nil {
		groups = []*model.Group{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"groups": groups})
}

// GetGroup handles GET /v1/groups/{id}
func (h *LectureHandler) GetGroup(w http.ResponseWriter, r *http.Request) {
	group, err := h.groupSvc.Get(r.Context(), middleware.GetTeacherID(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, group)
}

// UpdateGroup handles PUT /v1/groups/{id}
func (h *LectureHandler) UpdateGroup(w http.ResponseWriter, r *http.Request) {
	var group model.Group
	if err := json.NewDecoder(r.Body).Decode(&group); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	group.ID = mux.Vars(r)["id"]

	if err := h.groupSvc.Update(r.Context(), middleware.GetTeacherID(r.Context()), &group); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, group)
}

// DeleteGroup handles DELETE /v1/groups/{id}
func (h *LectureHandler) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	if err := h.groupSvc.Delete(r.Context(), middleware.GetTeacherID(r.Context()), mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
