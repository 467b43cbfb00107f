package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"smartclass/internal/board"
	"smartclass/internal/model"
	"smartclass/internal/service"
	"smartclass/internal/shape"
	"smartclass/internal/suggest"
)

const (
	stepDrawPolygon = "draw_polygon"
	imageSettle     = 100 * time.Millisecond
)

var (
	scriptPath  string
	onlyTypes   []string
	acceptFirst bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Replay a scripted lecture through one classroom offline",
	Long: `Runs a classroom without MongoDB, Redis or network access and feeds it a
script of board client messages, printing every outbound message as a
JSON line. Without --script a short benzene lecture is replayed.

Script format (YAML):
  steps:
    - type: utterance
      payload: {text: "today we will look at benzene", confidence: 0.9}
    - type: draw_polygon
      payload: {x: 300, y: 300, radius: 100, sides: 6, wobble: 0.3}
      wait_ms: 50`,
	RunE: runSimulate,
}

func init() {
	simulateCmd.Flags().StringVarP(&scriptPath, "script", "s", "", "YAML lecture script")
	simulateCmd.Flags().StringSliceVar(&onlyTypes, "only", nil, "print only these message types")
	simulateCmd.Flags().BoolVar(&acceptFirst, "accept", false, "apply the first action of the top suggestion at the end")
}

type script struct {
	Steps []scriptStep `yaml:"steps"`
}

type scriptStep struct {
	Type    string                 `yaml:"type"`
	Payload map[string]interface{} `yaml:"payload"`
	WaitMS  int                    `yaml:"wait_ms"`
}

type polygonStroke struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"radius"`
	Sides  int     `json:"sides"`
	Wobble float64 `json:"wobble"`
}

const defaultScript = `
steps:
  - type: speech_support
    payload: {supported: true}
  - type: start_listening
  - type: utterance
    payload: {text: "Today we will learn about aromatic compounds", confidence: 0.93}
  - type: utterance
    payload: {text: "Now let's look at the benzene molecule and its six carbon atoms", confidence: 0.91}
  - type: draw_polygon
    payload: {x: 300, y: 300, radius: 120, sides: 6, wobble: 0.35}
  - type: utterance
    payload: {text: "Can you show me a volcano", confidence: 0.88}
`

func loadScript(path string) (*script, error) {
	data := []byte(defaultScript)
	if path != "" {
		var err error
		if data, err = os.ReadFile(path); err != nil {
			return nil, fmt.Errorf("read script: %w", err)
		}
	}
	var s script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	return &s, nil
}

// printer writes each outbound message as one JSON line
type printer struct {
	mu   sync.Mutex
	out  io.Writer
	only []string
}

func (p *printer) BroadcastToClassroom(classroomID, msgType string, payload interface{}) {
	if len(p.only) > 0 && !slices.Contains(p.only, msgType) {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	line, err := json.Marshal(map[string]interface{}{"type": msgType, "payload": payload})
	if err != nil {
		fmt.Fprintf(p.out, "{\"type\":%q,\"error\":%q}\n", msgType, err.Error())
		return
	}
	fmt.Fprintln(p.out, string(line))
}

func (p *printer) DisconnectClassroom(string) {}

// offlineLoader pretends every image is available
type offlineLoader struct{}

func (offlineLoader) Load(_ context.Context, url string) (board.ImageRef, error) {
	return board.ImageRef{URL: url, ContentType: "image/jpeg"}, nil
}

func runSimulate(cmd *cobra.Command, args []string) error {
	sc, err := loadScript(scriptPath)
	if err != nil {
		return err
	}
	catalog, err := suggest.LoadCatalog(loaded.Catalog.Path)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	rt := service.NewRuntime(logger, model.Classroom{
		ID:        "SIMULATE",
		TeacherID: "simulator",
		Status:    model.ClassroomLive,
		CreatedAt: time.Now(),
	}, service.RuntimeOptions{
		Pipeline:    loaded.Pipeline,
		Catalog:     catalog,
		Broadcaster: &printer{out: cmd.OutOrStdout(), only: onlyTypes},
		Loader:      offlineLoader{},
	})
	rt.Start()
	defer rt.Stop()

	for i, step := range sc.Steps {
		if err := runStep(ctx, rt, step); err != nil {
			return fmt.Errorf("step %d (%s): %w", i+1, step.Type, err)
		}
		if step.WaitMS > 0 {
			time.Sleep(time.Duration(step.WaitMS) * time.Millisecond)
		}
	}

	suggestions, err := rt.Suggestions(ctx)
	if err != nil {
		return err
	}
	logger.Info("script finished", zap.Int("steps", len(sc.Steps)), zap.Int("suggestions", len(suggestions)))

	if acceptFirst && len(suggestions) > 0 && len(suggestions[0].Actions) > 0 {
		top := suggestions[0]
		if err := rt.Act(ctx, top.ID, top.Actions[0].Action); err != nil {
			return fmt.Errorf("apply %q: %w", top.Actions[0].Action, err)
		}
		// diagram images are loaded off the loop and posted back
		time.Sleep(imageSettle)
		ops, err := rt.Canvas(ctx)
		if err != nil {
			return err
		}
		logger.Info("suggestion applied", zap.String("action", top.Actions[0].Action), zap.Int("canvasOps", len(ops)))
	}
	return nil
}

func runStep(ctx context.Context, rt *service.Runtime, step scriptStep) error {
	if step.Type == stepDrawPolygon {
		var p polygonStroke
		if err := remarshal(step.Payload, &p); err != nil {
			return err
		}
		return drawStroke(ctx, rt, wobblyPolygon(p))
	}

	var payload json.RawMessage
	if step.Payload != nil {
		data, err := json.Marshal(step.Payload)
		if err != nil {
			return err
		}
		payload = data
	}
	return rt.Dispatch(ctx, step.Type, payload)
}

func drawStroke(ctx context.Context, rt *service.Runtime, points []model.Point) error {
	for i, pt := range points {
		msgType := service.MsgPointerMove
		if i == 0 {
			msgType = service.MsgPointerDown
		}
		payload, _ := json.Marshal(pt)
		if err := rt.Dispatch(ctx, msgType, payload); err != nil {
			return err
		}
	}
	return rt.Dispatch(ctx, service.MsgPointerUp, nil)
}

// wobblyPolygon traces a hand-drawn looking polygon: alternate vertices are
// pulled in by the wobble factor and each edge is sampled densely.
func wobblyPolygon(p polygonStroke) []model.Point {
	const samplesPerEdge = 8
	vertices := shape.RegularPolygon(model.Point{X: p.X, Y: p.Y}, p.Radius, p.Sides, 0)
	for i := range vertices {
		if i%2 == 1 {
			vertices[i].X = p.X + (vertices[i].X-p.X)*(1-p.Wobble)
			vertices[i].Y = p.Y + (vertices[i].Y-p.Y)*(1-p.Wobble)
		}
	}

	var points []model.Point
	for i, a := range vertices {
		b := vertices[(i+1)%len(vertices)]
		for s := 0; s < samplesPerEdge; s++ {
			t := float64(s) / samplesPerEdge
			points = append(points, model.Point{X: a.X + (b.X-a.X)*t, Y: a.Y + (b.Y-a.Y)*t})
		}
	}
	if len(vertices) > 0 {
		points = append(points, vertices[0])
	}
	return points
}

func remarshal(in map[string]interface{}, out interface{}) error {
	data, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
