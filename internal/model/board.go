package model

// Point is a canvas-local position in pixels
type Point struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// ShapeType is the coarse classification of a closed path
type ShapeType string

const (
	ShapeCircle    ShapeType = "circle"
	ShapeRectangle ShapeType = "rectangle"
	ShapeLine      ShapeType = "line"
	ShapePolygon   ShapeType = "polygon"
	ShapeFreeform  ShapeType = "freeform"
	ShapeHexagon   ShapeType = "hexagon"
	ShapeTriangle  ShapeType = "triangle"
)

// BoardEventType tags the variant carried by a BoardEvent
type BoardEventType string

const (
	BoardEventStroke BoardEventType = "stroke"
	BoardEventShape  BoardEventType = "shape"
	BoardEventText   BoardEventType = "text"
)

// Stroke is freehand ink that did not close into a shape
type Stroke struct {
	Timestamp int64   `json:"timestamp"`
	Points    []Point `json:"points"`
	Color     string  `json:"color"`
	Thickness float64 `json:"thickness"`
}

// Shape is a closed, simplified path with a detected type
type Shape struct {
	ID        string    `json:"id"`
	Timestamp int64     `json:"timestamp"`
	ShapeType ShapeType `json:"shapeType"`
	Points    []Point   `json:"points"` // simplified, at least 3
	IsClosed  bool      `json:"isClosed"`
	Color     string    `json:"color"`
	Thickness float64   `json:"thickness"`
}

// TextNote is text placed on the board
type TextNote struct {
	Timestamp int64   `json:"timestamp"`
	Text      string  `json:"text"`
	Position  Point   `json:"position"`
	FontSize  float64 `json:"fontSize"`
	Color     string  `json:"color"`
}

// BoardEvent is a tagged union of Stroke, Shape and TextNote.
// Exactly one of the variant pointers matches Type.
type BoardEvent struct {
	Type   BoardEventType `json:"type"`
	Stroke *Stroke        `json:"stroke,omitempty"`
	Shape  *Shape         `json:"shape,omitempty"`
	Text   *TextNote      `json:"text,omitempty"`
}

// NewStrokeEvent wraps a stroke
func NewStrokeEvent(s Stroke) BoardEvent {
	return BoardEvent{Type: BoardEventStroke, Stroke: &s}
}

// NewShapeEvent wraps a shape
func NewShapeEvent(s Shape) BoardEvent {
	return BoardEvent{Type: BoardEventShape, Shape: &s}
}

// NewTextEvent wraps a text note
func NewTextEvent(t TextNote) BoardEvent {
	return BoardEvent{Type: BoardEventText, Text: &t}
}

// Timestamp returns the creation time (unix ms) of the wrapped variant
func (e BoardEvent) Timestamp() int64 {
	switch e.Type {
	case BoardEventStroke:
		if e.Stroke != nil {
			return e.Stroke.Timestamp
		}
	case BoardEventShape:
		if e.Shape != nil {
			return e.Shape.Timestamp
		}
	case BoardEventText:
		if e.Text != nil {
			return e.Text.Timestamp
		}
	}
	return 0
}

// ShapeAnalysis is the derived geometry report for one shape
type ShapeAnalysis struct {
	Regularity          float64   `json:"regularity"` // 0-1, 1 is a perfect regular polygon
	ShapeType           ShapeType `json:"shapeType"`
	SuggestedCorrection string    `json:"suggestedCorrection,omitempty"`
	Confidence          float64   `json:"confidence"`
}
