package board

import "smartclass/internal/model"

// CompositeMode selects how a path is applied to the canvas
type CompositeMode string

const (
	ModeDraw  CompositeMode = "source-over"
	ModeErase CompositeMode = "destination-out"
)

type OpKind string

const (
	OpPath  OpKind = "path"
	OpImage OpKind = "image"
)

// Size is a width/height pair in canvas pixels
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Op is one entry of the canvas display list
type Op struct {
	Kind     OpKind        `json:"kind"`
	Mode     CompositeMode `json:"mode,omitempty"`
	Points   []model.Point `json:"points,omitempty"`
	Color    string        `json:"color,omitempty"`
	Width    float64       `json:"width,omitempty"`
	Image    *ImageRef     `json:"image,omitempty"`
	Position model.Point   `json:"position"`
	Size     Size          `json:"size"`
}

// Snapshot is an immutable copy of the canvas display list
type Snapshot struct {
	ops []Op
}

// Ops returns a copy of the snapshot's display list
func (s Snapshot) Ops() []Op {
	return cloneOps(s.ops)
}

// Len is the number of ops in the snapshot
func (s Snapshot) Len() int {
	return len(s.ops)
}

// Canvas is the server-side vector display list of one board.
// Paths are built incrementally between BeginPath and EndPath.
type Canvas struct {
	ops  []Op
	open *Op
}

func NewCanvas() *Canvas {
	return &Canvas{}
}

func (c *Canvas) BeginPath(p model.Point, mode CompositeMode, color string, width float64) {
	c.EndPath()
	c.open = &Op{Kind: OpPath, Mode: mode, Points: []model.Point{p}, Color: color, Width: width}
}

// LineTo extends the open path; it is a no-op when no path is open.
func (c *Canvas) LineTo(p model.Point) {
	if c.open == nil {
		return
	}
	c.open.Points = append(c.open.Points, p)
}

// EndPath commits the open path to the display list
func (c *Canvas) EndPath() {
	if c.open == nil {
		return
	}
	c.ops = append(c.ops, *c.open)
	c.open = nil
}

// AddPath commits a complete path in one step
func (c *Canvas) AddPath(points []model.Point, mode CompositeMode, color string, width float64) {
	c.EndPath()
	pts := make([]model.Point, len(points))
	copy(pts, points)
	c.ops = append(c.ops, Op{Kind: OpPath, Mode: mode, Points: pts, Color: color, Width: width})
}

func (c *Canvas) DrawImage(img ImageRef, pos model.Point, size Size) {
	c.EndPath()
	c.ops = append(c.ops, Op{Kind: OpImage, Image: &img, Position: pos, Size: size})
}

func (c *Canvas) Clear() {
	c.open = nil
	c.ops = nil
}

func (c *Canvas) Snapshot() Snapshot {
	return Snapshot{ops: cloneOps(c.ops)}
}

func (c *Canvas) Restore(s Snapshot) {
	c.open = nil
	c.ops = cloneOps(s.ops)
}

func (c *Canvas) Ops() []Op {
	return cloneOps(c.ops)
}

func cloneOps(ops []Op) []Op {
	if ops == nil {
		return nil
	}
	out := make([]Op, len(ops))
	for i, op := range ops {
		out[i] = op
		if op.Points != nil {
			out[i].Points = append([]model.Point(nil), op.Points...)
		}
		if op.Image != nil {
			img := *op.Image
			out[i].Image = &img
		}
	}
	return out
}
