package handler

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"smartclass/internal/model"
	"smartclass/internal/suggest"
)

// DiagramHandler serves the diagram library
type DiagramHandler struct {
	catalog []model.DiagramData
}

// NewDiagramHandler creates a new diagram handler
func NewDiagramHandler(catalog []model.DiagramData) *DiagramHandler {
	return &DiagramHandler{catalog: catalog}
}

// List handles GET /v1/diagrams, optionally filtered by ?q=
func (h *DiagramHandler) List(w http.ResponseWriter, r *http.Request) {
	diagrams := h.catalog
	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		diagrams = suggest.SearchCatalog(h.catalog, q)
	}
	if diagrams == nil {
		diagrams = []model.DiagramData{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"diagrams": diagrams})
}

// Get handles GET /v1/diagrams/{id}
func (h *DiagramHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	for _, d := range h.catalog {
		if d.ID == id {
			writeJSON(w, http.StatusOK, d)
			return
		}
	}

	writeError(w, http.StatusNotFound, "diagram not found")
}
