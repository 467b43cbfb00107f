// Package board turns pointer input into strokes and detected shapes and
// keeps the board's canvas and undo history.
package board

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"smartclass/internal/model"
	"smartclass/internal/shape"
)

// Tool is the active drawing tool
type Tool string

const (
	ToolPen    Tool = "pen"
	ToolEraser Tool = "eraser"
	ToolText   Tool = "text"
)

const (
	DefaultColor     = "#60a5fa"
	DefaultLineWidth = 3.0

	// ClosureTolerance is the max start/end distance for a path to count as closed
	ClosureTolerance = 30.0
	// SimplifyTolerance is the Douglas-Peucker tolerance for closed paths
	SimplifyTolerance = 15.0

	eraserWidthFactor = 3
	eventRetention    = 30 * time.Second
	imageLoadTimeout  = 30 * time.Second
	circleSegments    = 32
)

var ErrShapeNotFound = errors.New("shape not found")

// Command kinds sent to the rendering surface
const (
	CmdSegment = "segment"
	CmdClear   = "clear"
	CmdImage   = "image"
	CmdRestore = "restore"
	CmdPath    = "path"
)

// Command mirrors a canvas mutation to the board surface
type Command struct {
	Kind     string        `json:"kind"`
	Mode     CompositeMode `json:"mode,omitempty"`
	Color    string        `json:"color,omitempty"`
	Width    float64       `json:"width,omitempty"`
	From     *model.Point  `json:"from,omitempty"`
	To       *model.Point  `json:"to,omitempty"`
	Points   []model.Point `json:"points,omitempty"`
	Image    *ImageRef     `json:"image,omitempty"`
	Position *model.Point  `json:"position,omitempty"`
	Size     *Size         `json:"size,omitempty"`
	Ops      []Op          `json:"ops,omitempty"`
}

// Renderer receives canvas mutations for the board surface
type Renderer interface {
	Render(cmd Command)
}

// Options wires a Session to its collaborators. Zero fields get defaults.
type Options struct {
	Loader      ImageLoader
	Renderer    Renderer
	HistorySize int
	// Post runs fn on the goroutine that owns the session. Image loads
	// complete through it; without Post their completions are dropped.
	Post  func(fn func())
	Now   func() time.Time
	NewID func() string
}

// Session is the capture state of one board. It is not safe for concurrent
// use; all calls must come from the owning goroutine.
type Session struct {
	logger   *zap.Logger
	canvas   *Canvas
	history  *History
	loader   ImageLoader
	renderer Renderer
	post     func(fn func())
	now      func() time.Time
	newID    func() string
	onEvent  func(model.BoardEvent)

	tool  Tool
	color string
	width float64

	drawing bool
	mode    CompositeMode
	stroke  []model.Point
	last    model.Point

	events []model.BoardEvent

	// generation invalidates image loads started before a Clear
	generation uint64
}

func NewSession(logger *zap.Logger, opts Options) *Session {
	s := &Session{
		logger:   logger,
		canvas:   NewCanvas(),
		history:  NewHistory(opts.HistorySize),
		loader:   opts.Loader,
		renderer: opts.Renderer,
		post:     opts.Post,
		now:      opts.Now,
		newID:    opts.NewID,
		tool:     ToolPen,
		color:    DefaultColor,
		width:    DefaultLineWidth,
	}
	if s.loader == nil {
		s.loader = NewHTTPImageLoader(imageLoadTimeout)
	}
	if s.post == nil {
		s.post = func(func()) {
			logger.Warn("image load completed with no owner to post to, dropping")
		}
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = func() string { return uuid.New().String() }
	}
	s.history.Push(s.canvas.Snapshot())
	return s
}

// OnEvent registers the handler for emitted board events
func (s *Session) OnEvent(fn func(model.BoardEvent)) {
	s.onEvent = fn
}

// PointerDown starts a new stroke at p
func (s *Session) PointerDown(p model.Point) {
	s.drawing = true
	s.stroke = []model.Point{p}
	s.last = p

	color, width := s.color, s.width
	if s.tool == ToolEraser {
		s.mode = ModeErase
		width = s.width * eraserWidthFactor
	} else {
		s.mode = ModeDraw
	}
	s.canvas.BeginPath(p, s.mode, color, width)
}

// PointerMove extends the active stroke and renders the new segment
func (s *Session) PointerMove(p model.Point) {
	if !s.drawing {
		return
	}
	s.stroke = append(s.stroke, p)
	s.canvas.LineTo(p)

	from, to := s.last, p
	s.last = p
	width := s.width
	if s.mode == ModeErase {
		width = s.width * eraserWidthFactor
	}
	s.render(Command{Kind: CmdSegment, Mode: s.mode, Color: s.color, Width: width, From: &from, To: &to})
}

// PointerUp finishes the stroke: the canvas state is saved and a pen path
// of more than two points becomes a Shape when it closes, else a Stroke.
func (s *Session) PointerUp() {
	if !s.drawing {
		return
	}
	s.drawing = false
	s.canvas.EndPath()
	s.saveState()

	points := s.stroke
	s.stroke = nil
	s.mode = ModeDraw

	if len(points) <= 2 || s.tool != ToolPen {
		return
	}

	ts := s.now().UnixMilli()
	if shp, ok := s.detectShape(points, ts); ok {
		s.logger.Debug("shape detected",
			zap.String("shapeType", string(shp.ShapeType)),
			zap.Int("vertices", len(shp.Points)))
		s.emit(model.NewShapeEvent(shp))
		return
	}

	s.emit(model.NewStrokeEvent(model.Stroke{
		Timestamp: ts,
		Points:    points,
		Color:     s.color,
		Thickness: s.width,
	}))
}

// PointerLeave ends the stroke like PointerUp
func (s *Session) PointerLeave() {
	s.PointerUp()
}

// Touch input follows the same path as pointer input.
func (s *Session) TouchStart(p model.Point) { s.PointerDown(p) }
func (s *Session) TouchMove(p model.Point)  { s.PointerMove(p) }
func (s *Session) TouchEnd()                { s.PointerUp() }

// PlaceText puts a text note on the board and emits it
func (s *Session) PlaceText(text string, pos model.Point, fontSize float64) {
	s.emit(model.NewTextEvent(model.TextNote{
		Timestamp: s.now().UnixMilli(),
		Text:      text,
		Position:  pos,
		FontSize:  fontSize,
		Color:     s.color,
	}))
}

func (s *Session) detectShape(points []model.Point, ts int64) (model.Shape, bool) {
	first, last := points[0], points[len(points)-1]
	if math.Hypot(last.X-first.X, last.Y-first.Y) >= ClosureTolerance {
		return model.Shape{}, false
	}

	simplified := shape.Simplify(points, SimplifyTolerance)
	// the closing vertex duplicates the start
	if n := len(simplified); n > 3 {
		end := simplified[n-1]
		if math.Hypot(end.X-simplified[0].X, end.Y-simplified[0].Y) < ClosureTolerance {
			simplified = simplified[:n-1]
		}
	}
	if len(simplified) < 3 {
		return model.Shape{}, false
	}

	return model.Shape{
		ID:        s.newID(),
		Timestamp: ts,
		ShapeType: guessShapeType(len(simplified)),
		Points:    simplified,
		IsClosed:  true,
		Color:     s.color,
		Thickness: s.width,
	}, true
}

// guessShapeType is the capture-time vertex-count guess; shape.DetectShapeType
// refines it during analysis.
func guessShapeType(vertices int) model.ShapeType {
	switch {
	case vertices == 3:
		return model.ShapeTriangle
	case vertices == 4:
		return model.ShapeRectangle
	case vertices == 6:
		return model.ShapeHexagon
	case vertices >= 8:
		return model.ShapeCircle
	}
	return model.ShapePolygon
}

func (s *Session) emit(e model.BoardEvent) {
	s.events = append(s.events, e)
	s.cleanupOldEvents()
	if s.onEvent != nil {
		s.onEvent(e)
	}
}

func (s *Session) cleanupOldEvents() {
	cutoff := s.now().Add(-eventRetention).UnixMilli()
	kept := s.events[:0]
	for _, e := range s.events {
		if e.Timestamp() > cutoff {
			kept = append(kept, e)
		}
	}
	s.events = kept
}

// RecentEvents returns emitted events newer than window
func (s *Session) RecentEvents(window time.Duration) []model.BoardEvent {
	cutoff := s.now().Add(-window).UnixMilli()
	var out []model.BoardEvent
	for _, e := range s.events {
		if e.Timestamp() > cutoff {
			out = append(out, e)
		}
	}
	return out
}

// Clear wipes the canvas and saves the empty state. Image loads still in
// flight are dropped when they complete.
func (s *Session) Clear() {
	s.generation++
	s.drawing = false
	s.stroke = nil
	s.canvas.Clear()
	s.saveState()
	s.render(Command{Kind: CmdClear})
}

// DisplayImage loads url in the background and draws it at pos once loaded.
// There is no completion signal; failures are logged.
func (s *Session) DisplayImage(url string, pos model.Point, size Size) {
	gen := s.generation
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), imageLoadTimeout)
		defer cancel()
		img, err := s.loader.Load(ctx, url)
		s.post(func() {
			if err != nil {
				s.logger.Warn("image load failed", zap.String("url", url), zap.Error(err))
				return
			}
			if gen != s.generation {
				s.logger.Debug("dropping stale image load", zap.String("url", url))
				return
			}
			s.canvas.DrawImage(img, pos, size)
			s.saveState()
			s.render(Command{Kind: CmdImage, Image: &img, Position: &pos, Size: &size})
		})
	}()
}

// CorrectShape replaces a recently emitted shape with a regular polygon of
// the same vertex count (circles get a smooth polygon) around its centroid.
func (s *Session) CorrectShape(id string) (model.Shape, error) {
	idx := -1
	for i, e := range s.events {
		if e.Type == model.BoardEventShape && e.Shape != nil && e.Shape.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return model.Shape{}, ErrShapeNotFound
	}
	target := s.events[idx].Shape

	c := shape.Centroid(target.Points)
	radius := 0.0
	for _, p := range target.Points {
		radius += math.Hypot(p.X-c.X, p.Y-c.Y)
	}
	radius /= float64(len(target.Points))

	n := len(target.Points)
	if target.ShapeType == model.ShapeCircle {
		n = circleSegments
	}
	phase := math.Atan2(target.Points[0].Y-c.Y, target.Points[0].X-c.X)
	perfect := shape.RegularPolygon(c, radius, n, phase)
	closed := append(append([]model.Point(nil), perfect...), perfect[0])

	s.canvas.AddPath(target.Points, ModeErase, "", target.Thickness*eraserWidthFactor)
	s.canvas.AddPath(closed, ModeDraw, target.Color, target.Thickness)
	s.saveState()
	s.render(Command{Kind: CmdRestore, Ops: s.canvas.Ops()})

	corrected := *target
	corrected.Points = perfect
	// the buffered event now describes what is on the canvas
	s.events[idx].Shape = &corrected
	return corrected, nil
}

// Undo restores the previous canvas state; no-op at the oldest state.
func (s *Session) Undo() bool {
	snap, ok := s.history.Undo()
	if !ok {
		return false
	}
	s.canvas.Restore(snap)
	s.render(Command{Kind: CmdRestore, Ops: snap.Ops()})
	return true
}

// Redo reapplies the next canvas state; no-op at the newest state.
func (s *Session) Redo() bool {
	snap, ok := s.history.Redo()
	if !ok {
		return false
	}
	s.canvas.Restore(snap)
	s.render(Command{Kind: CmdRestore, Ops: snap.Ops()})
	return true
}

func (s *Session) CanUndo() bool { return s.history.CanUndo() }
func (s *Session) CanRedo() bool { return s.history.CanRedo() }

func (s *Session) SetTool(t Tool) {
	s.tool = t
	s.logger.Debug("tool changed", zap.String("tool", string(t)))
}

func (s *Session) SetColor(color string) {
	s.color = color
}

func (s *Session) SetLineWidth(width float64) {
	if width > 0 {
		s.width = width
	}
}

func (s *Session) Tool() Tool         { return s.tool }
func (s *Session) Color() string      { return s.color }
func (s *Session) LineWidth() float64 { return s.width }

// Canvas exposes the display list for read-only inspection
func (s *Session) Canvas() []Op { return s.canvas.Ops() }

func (s *Session) saveState() {
	s.history.Push(s.canvas.Snapshot())
}

func (s *Session) render(cmd Command) {
	if s.renderer != nil {
		s.renderer.Render(cmd)
	}
}
