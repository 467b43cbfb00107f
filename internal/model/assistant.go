package model

// SpeechAnalysisRequest is the body of POST /ai/analyze-speech
type SpeechAnalysisRequest struct {
	Transcript string                 `json:"transcript"`
	Context    map[string]interface{} `json:"context,omitempty"`
}

// SpeechAnalysis is the assistant's reading of a transcript
type SpeechAnalysis struct {
	CurrentTopic     string   `json:"currentTopic"`
	TeachingPhase    string   `json:"teachingPhase"`
	KeyConcepts      []string `json:"keyConcepts"`
	SuggestedVisuals []string `json:"suggestedVisuals"`
	NeedsAssistance  bool     `json:"needsAssistance"`
	AssistanceReason *string  `json:"assistanceReason"`
}

// DrawingAnalysisRequest is the body of POST /ai/analyze-drawing
type DrawingAnalysisRequest struct {
	Strokes [][]Point `json:"strokes"`
	Context string    `json:"context,omitempty"`
}

// DrawingAnalysis describes what the teacher appears to be drawing
type DrawingAnalysis struct {
	DetectedType              string  `json:"detectedType"`
	Confidence                float64 `json:"confidence"`
	Suggestion                string  `json:"suggestion"`
	ShouldOfferPerfectVersion bool    `json:"shouldOfferPerfectVersion"`
}

// VisualSuggestionRequest is the body of POST /ai/suggest-visual
type VisualSuggestionRequest struct {
	Concept string `json:"concept"`
	Context string `json:"context,omitempty"`
}

// VisualSuggestion is the recommended kind of visual aid for a concept
type VisualSuggestion struct {
	VisualType  string   `json:"visualType"` // diagram, chart, illustration, formula, timeline
	Description string   `json:"description"`
	Elements    []string `json:"elements"`
	Reasoning   string   `json:"reasoning"`
}

// SummaryRequest is the body of POST /ai/generate-summary
type SummaryRequest struct {
	SessionID string `json:"sessionId"`
}

// KeywordCount is how often a keyword was heard in a classroom
type KeywordCount struct {
	Keyword string `json:"keyword"`
	Count   int    `json:"count"`
}
