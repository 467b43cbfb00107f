package model

// TeachingPhase is the coarse stage of the lecture inferred from speech
type TeachingPhase string

const (
	PhaseIntroduction TeachingPhase = "introduction"
	PhaseExplanation  TeachingPhase = "explanation"
	PhaseExample      TeachingPhase = "example"
	PhaseReview       TeachingPhase = "review"
	PhaseAssessment   TeachingPhase = "assessment"
)

// AssistanceType is the kind of help a suggestion offers
type AssistanceType string

const (
	AssistDiagram       AssistanceType = "diagram"
	AssistCorrection    AssistanceType = "correction"
	AssistExample       AssistanceType = "example"
	AssistClarification AssistanceType = "clarification"
	AssistNone          AssistanceType = "none"
)

// UrgencyLevel orders suggestions for presentation
type UrgencyLevel string

const (
	UrgencyImmediate UrgencyLevel = "immediate"
	UrgencyHelpful   UrgencyLevel = "helpful"
	UrgencyOptional  UrgencyLevel = "optional"
)

// Tier returns the ranking weight of the urgency (immediate=3, helpful=2, optional=1)
func (u UrgencyLevel) Tier() int {
	switch u {
	case UrgencyImmediate:
		return 3
	case UrgencyHelpful:
		return 2
	case UrgencyOptional:
		return 1
	}
	return 0
}

// Utterance is one finalized speech recognition result
type Utterance struct {
	Text       string   `json:"text" bson:"text"`
	Timestamp  int64    `json:"timestamp" bson:"timestamp"` // unix ms
	Confidence float64  `json:"confidence" bson:"confidence"`
	Keywords   []string `json:"keywords" bson:"keywords"`
}

// VisualAid is the verdict of the visual-aid heuristic for one utterance
type VisualAid struct {
	Should     bool           `json:"should"`
	Type       AssistanceType `json:"type"`
	Content    string         `json:"content"`
	Confidence float64        `json:"confidence"`
	Urgency    UrgencyLevel   `json:"urgency"`
}

// VisualAidSuggestion is the visual-aid part of a SpeechIntent
type VisualAidSuggestion struct {
	Confidence      float64        `json:"confidence"`
	Type            AssistanceType `json:"type"`
	SpecificContent string         `json:"specificContent"`
	Urgency         UrgencyLevel   `json:"urgency"`
}

// SpeechIntent is derived from the latest utterance and never persisted
type SpeechIntent struct {
	Transcript          string              `json:"transcript"`
	Timestamp           int64               `json:"timestamp"`
	DetectedTopic       string              `json:"detectedTopic"`
	TeachingPhase       TeachingPhase       `json:"teachingPhase"`
	VisualAidSuggestion VisualAidSuggestion `json:"visualAidSuggestion"`
}
