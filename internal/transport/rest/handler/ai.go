package handler

import (
	"encoding/json"
	"net/http"

	"smartclass/internal/model"
	"smartclass/internal/service"
	"smartclass/internal/transport/rest/middleware"
)

// AIHandler handles the generative assistant endpoints
type AIHandler struct {
	assistant *service.AssistantService
}

// NewAIHandler creates a new AI handler
func NewAIHandler(assistant *service.AssistantService) *AIHandler {
	return &AIHandler{assistant: assistant}
}

// AnalyzeSpeech handles POST /v1/ai/analyze-speech
func (h *AIHandler) AnalyzeSpeech(w http.ResponseWriter, r *http.Request) {
	var req model.SpeechAnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.assistant.AnalyzeSpeech(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// AnalyzeDrawing handles POST /v1/ai/analyze-drawing
func (h *AIHandler) AnalyzeDrawing(w http.ResponseWriter, r *http.Request) {
	var req model.DrawingAnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.assistant.AnalyzeDrawing(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// SuggestVisual handles POST /v1/ai/suggest-visual
func (h *AIHandler) SuggestVisual(w http.ResponseWriter, r *http.Request) {
	var req model.VisualSuggestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.assistant.SuggestVisual(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// GenerateSummary handles POST /v1/ai/generate-summary
func (h *AIHandler) GenerateSummary(w http.ResponseWriter, r *http.Request) {
	var req model.SummaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	summary, err := h.assistant.GenerateSummary(r.Context(), middleware.GetTeacherID(r.Context()), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"summary": summary})
}
