package model

// Action strings carried by suggestion buttons
const (
	ActionDismiss           = "dismiss"
	ActionDisplayDiagram    = "display-diagram"
	ActionCorrectShape      = "correct-shape"
	ActionGenerateExample   = "generate-example"
	ActionShowClarification = "show-clarification"
)

// SuggestionAction is one proactive suggestion shown to the teacher
type SuggestionAction struct {
	ID         string              `json:"id"`
	Type       AssistanceType      `json:"type"`
	Message    string              `json:"message"`
	Confidence float64             `json:"confidence"` // 0-1
	Urgency    UrgencyLevel        `json:"urgency"`
	Timestamp  int64               `json:"timestamp"`
	Actions    []ActionButton      `json:"actions"`
	Reasoning  string              `json:"reasoning,omitempty"`
	Metadata   *SuggestionMetadata `json:"metadata,omitempty"`
}

// ActionButton is a button on a suggestion card
type ActionButton struct {
	Label   string `json:"label"`
	Action  string `json:"action"`
	Primary bool   `json:"primary,omitempty"`
}

// SuggestionMetadata carries rule-specific payloads
type SuggestionMetadata struct {
	Diagram   *DiagramData `json:"diagram,omitempty"`
	IsDynamic bool         `json:"isDynamic,omitempty"`
	ShapeID   string       `json:"shapeId,omitempty"`
}

// DiagramData is a diagram catalog entry, static or synthesized on demand
type DiagramData struct {
	ID          string   `json:"id" yaml:"id"`
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description" yaml:"description"`
	Category    string   `json:"category" yaml:"category"`
	Tags        []string `json:"tags" yaml:"tags"`
	ImageURL    string   `json:"imageUrl" yaml:"imageUrl"`
	SVGContent  string   `json:"svgContent,omitempty" yaml:"svgContent,omitempty"`
}
