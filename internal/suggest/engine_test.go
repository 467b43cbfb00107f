package suggest

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"smartclass/internal/model"
)

var start = time.UnixMilli(1_700_000_000_000)

type testClock struct{ t time.Time }

func (c *testClock) now() time.Time { return c.t }

func newEngine(opts Options) (*Engine, *testClock) {
	clock := &testClock{t: start}
	opts.Now = clock.now
	opts.NewToken = func() string { return "tok" }
	return NewEngine(zap.NewNop(), nil, opts), clock
}

func intentContext(kind model.AssistanceType, content string, confidence float64, urgency model.UrgencyLevel) model.FusedContext {
	return model.FusedContext{
		Speech: model.SpeechContext{
			CurrentTopic: "general",
			Intent: &model.SpeechIntent{
				VisualAidSuggestion: model.VisualAidSuggestion{
					Type:            kind,
					SpecificContent: content,
					Confidence:      confidence,
					Urgency:         urgency,
				},
			},
		},
	}
}

func irregularHexagon() model.Shape {
	return model.Shape{
		ID:        "shape-a",
		ShapeType: model.ShapeHexagon,
		IsClosed:  true,
		Points: []model.Point{
			{X: 0, Y: 0}, {X: 200, Y: 0}, {X: 210, Y: 10}, {X: 200, Y: 20}, {X: 0, Y: 20}, {X: -10, Y: 10},
		},
	}
}

func TestGenerate_CatalogDiagram(t *testing.T) {
	e, _ := newEngine(Options{})
	got := e.Generate(intentContext(model.AssistDiagram, "benzene diagram", 0.85, model.UrgencyOptional))

	require.Len(t, got, 1)
	s := got[0]
	assert.Equal(t, "suggestion-0", s.ID)
	assert.Equal(t, model.AssistDiagram, s.Type)
	assert.Equal(t, "Show Benzene Ring Structure?", s.Message)
	assert.Equal(t, 0.85, s.Confidence)
	assert.Equal(t, start.UnixMilli(), s.Timestamp)
	require.Len(t, s.Actions, 2)
	assert.Equal(t, model.ActionButton{Label: "Show Diagram", Action: "display-diagram:benzene-structure", Primary: true}, s.Actions[0])
	assert.Equal(t, model.ActionButton{Label: "Dismiss", Action: "dismiss"}, s.Actions[1])
	require.NotNil(t, s.Metadata)
	assert.False(t, s.Metadata.IsDynamic)
	assert.Equal(t, "benzene-structure", s.Metadata.Diagram.ID)
}

func TestGenerate_FirstCatalogMatchWins(t *testing.T) {
	e, _ := newEngine(Options{})
	// "biology" is a tag of several entries; catalog order decides
	got := e.Generate(intentContext(model.AssistDiagram, "Biology", 0.9, model.UrgencyImmediate))
	require.Len(t, got, 1)
	assert.Equal(t, "apple-fruit", got[0].Metadata.Diagram.ID)
}

func TestGenerate_DynamicDiagram(t *testing.T) {
	e, _ := newEngine(Options{})
	got := e.Generate(intentContext(model.AssistDiagram, "volcano", 0.9, model.UrgencyImmediate))

	require.Len(t, got, 1)
	s := got[0]
	assert.Equal(t, "Generate Volcano image?", s.Message)
	assert.Equal(t, "Generate Image", s.Actions[0].Label)
	assert.Equal(t, "display-diagram:dynamic-tok", s.Actions[0].Action)
	assert.Equal(t, "I can generate a volcano image to help visualize this concept.", s.Reasoning)

	d := s.Metadata.Diagram
	require.NotNil(t, d)
	assert.True(t, s.Metadata.IsDynamic)
	assert.Equal(t, "dynamic-tok", d.ID)
	assert.Equal(t, "Volcano", d.Title)
	assert.Equal(t, "AI-generated image of volcano", d.Description)
	assert.Equal(t, CategoryDynamic, d.Category)
	assert.Equal(t, []string{"volcano"}, d.Tags)
	assert.Equal(t, "/placeholder.svg?height=400&width=400&query=realistic%20volcano%20illustration%20for%20teaching", d.ImageURL)

	// dynamic entries are not added to the catalog
	_, ok := e.DiagramByID("dynamic-tok")
	assert.False(t, ok)
}

func TestGenerate_ShapeCorrection(t *testing.T) {
	e, _ := newEngine(Options{EnableShapeCorrection: true})
	ctx := model.FusedContext{
		Speech: model.SpeechContext{
			CurrentTopic:      "chemistry",
			RecentTranscripts: []model.Utterance{{Text: "this is the benzene ring"}},
		},
		Board: model.BoardContext{CurrentShapes: []model.Shape{irregularHexagon()}},
	}

	got := e.Generate(ctx)
	require.Len(t, got, 1)
	s := got[0]
	assert.Equal(t, model.AssistCorrection, s.Type)
	assert.Equal(t, "Improve hexagon shape?", s.Message)
	assert.Equal(t, 0.94, s.Confidence)
	assert.Equal(t, model.UrgencyHelpful, s.Urgency)
	assert.Equal(t, "correct-shape:shape-a", s.Actions[0].Action)
	assert.Equal(t, "Keep As Is", s.Actions[1].Label)
	assert.Contains(t, s.Reasoning, "(39% regular)")
	assert.Equal(t, "shape-a", s.Metadata.ShapeID)
}

func TestGenerate_ShapeCorrectionDisabled(t *testing.T) {
	e, _ := newEngine(Options{EnableShapeCorrection: false})
	ctx := model.FusedContext{
		Speech: model.SpeechContext{RecentTranscripts: []model.Utterance{{Text: "benzene"}}},
		Board:  model.BoardContext{CurrentShapes: []model.Shape{irregularHexagon()}},
	}
	assert.Empty(t, e.Generate(ctx))
}

func TestGenerate_ShapeWithoutSubjectIsLeftAlone(t *testing.T) {
	e, _ := newEngine(Options{EnableShapeCorrection: true})
	ctx := model.FusedContext{
		Speech: model.SpeechContext{CurrentTopic: "general"},
		Board:  model.BoardContext{CurrentShapes: []model.Shape{irregularHexagon()}},
	}
	assert.Empty(t, e.Generate(ctx))
}

func TestGenerate_ExampleAndClarification(t *testing.T) {
	e, _ := newEngine(Options{})

	got := e.Generate(intentContext(model.AssistExample, "visual example", 0.75, model.UrgencyHelpful))
	require.Len(t, got, 1)
	assert.Equal(t, "Add a visual example?", got[0].Message)
	assert.Equal(t, model.ActionGenerateExample, got[0].Actions[0].Action)
	assert.Equal(t, "Not Now", got[0].Actions[1].Label)

	got = e.Generate(intentContext(model.AssistClarification, "explanation diagram", 0.7, model.UrgencyHelpful))
	require.Len(t, got, 1)
	assert.Equal(t, "Add clarifying diagram?", got[0].Message)
	assert.Equal(t, model.ActionShowClarification, got[0].Actions[0].Action)
	assert.Equal(t, "Skip", got[0].Actions[1].Label)
	// ids keep counting across calls
	assert.Equal(t, "suggestion-1", got[0].ID)
}

func TestGenerate_NoIntentNoShapes(t *testing.T) {
	e, _ := newEngine(Options{})
	got := e.Generate(model.FusedContext{})
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestGenerate_UrgencyBeatsConfidence(t *testing.T) {
	e, _ := newEngine(Options{EnableShapeCorrection: true})
	ctx := intentContext(model.AssistDiagram, "benzene", 0.85, model.UrgencyOptional)
	ctx.Speech.RecentTranscripts = []model.Utterance{{Text: "benzene"}}
	ctx.Board.CurrentShapes = []model.Shape{irregularHexagon()}

	got := e.Generate(ctx)
	require.Len(t, got, 2)
	assert.Equal(t, model.AssistCorrection, got[0].Type)
	assert.Equal(t, model.AssistDiagram, got[1].Type)
}

func TestPublish_KeepsTopThreeOfFiveOptional(t *testing.T) {
	e, _ := newEngine(Options{})
	var candidates []model.SuggestionAction
	for i, c := range []float64{0.72, 0.95, 0.81, 0.88, 0.75} {
		candidates = append(candidates, model.SuggestionAction{
			ID:         fmt.Sprintf("c%d", i),
			Confidence: c,
			Urgency:    model.UrgencyOptional,
		})
	}

	got := e.publish(candidates)
	require.Len(t, got, 3)
	assert.Equal(t, []float64{0.95, 0.88, 0.81}, []float64{got[0].Confidence, got[1].Confidence, got[2].Confidence})
	assert.Len(t, e.Active(), 3)
}

func TestPublish_ConfidenceThreshold(t *testing.T) {
	e, _ := newEngine(Options{ConfidenceThreshold: 0.8})
	got := e.publish([]model.SuggestionAction{
		{ID: "low", Confidence: 0.7, Urgency: model.UrgencyImmediate},
		{ID: "high", Confidence: 0.9, Urgency: model.UrgencyOptional},
	})
	require.Len(t, got, 1)
	assert.Equal(t, "high", got[0].ID)
}

func TestRank_StableForTies(t *testing.T) {
	s := []model.SuggestionAction{
		{ID: "a", Confidence: 0.8, Urgency: model.UrgencyHelpful},
		{ID: "b", Confidence: 0.8, Urgency: model.UrgencyHelpful},
		{ID: "c", Confidence: 0.5, Urgency: model.UrgencyImmediate},
	}
	Rank(s)
	assert.Equal(t, "c", s[0].ID)
	assert.Equal(t, "a", s[1].ID)
	assert.Equal(t, "b", s[2].ID)
}

func TestDismissAndExpiry(t *testing.T) {
	e, clock := newEngine(Options{SuggestionTimeout: 15 * time.Second})
	e.Generate(intentContext(model.AssistExample, "visual example", 0.75, model.UrgencyHelpful))
	first := e.Active()
	require.Len(t, first, 1)

	_, ok := e.Find(first[0].ID)
	assert.True(t, ok)

	e.Dismiss("unknown")
	assert.Len(t, e.Active(), 1)
	e.Dismiss(first[0].ID)
	assert.Empty(t, e.Active())

	e.Generate(intentContext(model.AssistExample, "visual example", 0.75, model.UrgencyHelpful))
	clock.t = clock.t.Add(14 * time.Second)
	assert.Len(t, e.Active(), 1)
	clock.t = clock.t.Add(time.Second)
	assert.Empty(t, e.Active())
}

func TestDiagramByID(t *testing.T) {
	e, _ := newEngine(Options{})
	d, ok := e.DiagramByID("water-cycle")
	require.True(t, ok)
	assert.Equal(t, "Water Cycle", d.Title)

	_, ok = e.DiagramByID("nope")
	assert.False(t, ok)
	assert.Len(t, e.Catalog(), 6)
}

func TestParseAction(t *testing.T) {
	verb, arg := ParseAction("display-diagram:cell-structure")
	assert.Equal(t, model.ActionDisplayDiagram, verb)
	assert.Equal(t, "cell-structure", arg)

	verb, arg = ParseAction("dismiss")
	assert.Equal(t, model.ActionDismiss, verb)
	assert.Empty(t, arg)
}

func TestLoadCatalog(t *testing.T) {
	dir := t.TempDir()

	def, err := LoadCatalog("")
	require.NoError(t, err)
	assert.Len(t, def, 6)

	path := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`diagrams:
  - id: volcano
    title: Volcano Cross Section
    description: Layers of a stratovolcano
    category: geology
    tags: [volcano, magma]
    imageUrl: /volcano.png
`), 0o644))

	got, err := LoadCatalog(path)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, []string{"volcano", "magma"}, got[0].Tags)

	e := NewEngine(zap.NewNop(), got, Options{})
	assert.Len(t, e.SearchDiagrams("magma chamber"), 1)

	dup := filepath.Join(dir, "dup.yaml")
	require.NoError(t, os.WriteFile(dup, []byte("diagrams:\n  - id: a\n  - id: a\n"), 0o644))
	_, err = LoadCatalog(dup)
	assert.Error(t, err)

	_, err = LoadCatalog(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestCapitalize_FirstLetterOnly(t *testing.T) {
	assert.Equal(t, "Lava lamp", capitalize("lava lamp"))
	assert.Equal(t, "Émile", capitalize("émile"))
	assert.Equal(t, "", capitalize(""))
}
