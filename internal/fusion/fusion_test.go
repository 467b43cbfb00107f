package fusion

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartclass/internal/model"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }
func (c *clock) ms() int64               { return c.t.UnixMilli() }

func newFusion() (*Fusion, *clock) {
	c := &clock{t: time.UnixMilli(1_700_000_000_000)}
	return New(Windows{}, c.now), c
}

func hexagon(ts int64) model.BoardEvent {
	return model.NewShapeEvent(model.Shape{
		ID:        "s1",
		Timestamp: ts,
		ShapeType: model.ShapeHexagon,
		Points:    []model.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 15, Y: 8}, {X: 10, Y: 16}, {X: 0, Y: 16}, {X: -5, Y: 8}},
		IsClosed:  true,
	})
}

func TestFusion_NoContextBeforeUpdate(t *testing.T) {
	f, _ := newFusion()
	_, ok := f.Context()
	assert.False(t, ok)
}

func TestFusion_SpeechUpdate(t *testing.T) {
	f, c := newFusion()
	ctx := f.UpdateSpeech(model.Utterance{Text: "Today we will study benzene", Timestamp: c.ms()})

	require.NotNil(t, ctx.Speech.Intent)
	assert.Equal(t, "chemistry", ctx.Speech.CurrentTopic)
	assert.Equal(t, "chemistry", ctx.Analysis.Topic)
	assert.Equal(t, model.PhaseIntroduction, ctx.Analysis.TeachingPhase)
	assert.Len(t, ctx.Speech.RecentTranscripts, 1)
	assert.Empty(t, ctx.Board.RecentEvents)
	assert.Zero(t, ctx.Board.LastActivity)
	assert.Equal(t, c.ms(), ctx.Timestamp)

	stored, ok := f.Context()
	require.True(t, ok)
	assert.Equal(t, ctx, stored)
}

func TestFusion_BoardOnlyDefaults(t *testing.T) {
	f, c := newFusion()
	ctx := f.UpdateBoard(hexagon(c.ms()))

	assert.Nil(t, ctx.Speech.Intent)
	assert.Equal(t, "general", ctx.Speech.CurrentTopic)
	assert.Equal(t, model.PhaseExplanation, ctx.Analysis.TeachingPhase)
	require.Len(t, ctx.Board.CurrentShapes, 1)
	assert.Equal(t, c.ms(), ctx.Board.LastActivity)
}

func TestFusion_IntentUsesLatestUtterance(t *testing.T) {
	f, c := newFusion()
	f.UpdateSpeech(model.Utterance{Text: "the circuit has a resistor", Timestamp: c.ms()})
	c.advance(time.Second)
	ctx := f.UpdateSpeech(model.Utterance{Text: "remember the cell membrane", Timestamp: c.ms()})

	assert.Equal(t, "remember the cell membrane", ctx.Speech.Intent.Transcript)
	assert.Equal(t, "biology", ctx.Analysis.Topic)
	assert.Equal(t, model.PhaseReview, ctx.Analysis.TeachingPhase)
	assert.Len(t, ctx.Speech.RecentTranscripts, 2)
}

func TestFusion_WindowsAreStrict(t *testing.T) {
	f, c := newFusion()
	f.UpdateBoard(hexagon(c.ms()))

	// exactly at the 10s boundary the shape is out of the board window
	c.advance(10 * time.Second)
	ctx := f.UpdateSpeech(model.Utterance{Text: "hello", Timestamp: c.ms()})
	assert.Empty(t, ctx.Board.CurrentShapes)
	assert.Zero(t, ctx.Board.LastActivity)

	c.advance(30 * time.Second)
	ctx = f.UpdateBoard(model.NewStrokeEvent(model.Stroke{Timestamp: c.ms()}))
	assert.Nil(t, ctx.Speech.Intent)
	assert.Equal(t, "general", ctx.Analysis.Topic)
}

func TestFusion_StaleSpeechAfterRetention(t *testing.T) {
	f, c := newFusion()
	f.UpdateSpeech(model.Utterance{Text: "benzene ring", Timestamp: c.ms()})

	c.advance(60 * time.Second)
	ctx := f.UpdateBoard(model.NewStrokeEvent(model.Stroke{Timestamp: c.ms()}))
	assert.Empty(t, ctx.Speech.RecentTranscripts)
	assert.Empty(t, f.RecentSpeechText(time.Hour))
}

func TestFusion_RecentSpeechText(t *testing.T) {
	f, c := newFusion()
	f.UpdateSpeech(model.Utterance{Text: "first", Timestamp: c.ms()})
	c.advance(20 * time.Second)
	f.UpdateSpeech(model.Utterance{Text: "second", Timestamp: c.ms()})
	c.advance(15 * time.Second)
	f.UpdateSpeech(model.Utterance{Text: "third", Timestamp: c.ms()})

	assert.Equal(t, "second third", f.RecentSpeechText(30*time.Second))
	assert.Equal(t, "first second third", f.RecentSpeechText(time.Minute))
}

func TestFusion_ContextIsReplacedWholesale(t *testing.T) {
	f, c := newFusion()
	first := f.UpdateSpeech(model.Utterance{Text: "benzene", Timestamp: c.ms()})
	c.advance(time.Second)
	f.UpdateBoard(hexagon(c.ms()))

	// earlier snapshots are not mutated by later updates
	assert.Empty(t, first.Board.RecentEvents)
	assert.Len(t, first.Speech.RecentTranscripts, 1)
}

func TestFusion_ReplaceShape(t *testing.T) {
	f, c := newFusion()
	f.UpdateBoard(hexagon(c.ms()))
	before, _ := f.Context()

	perfect := *hexagon(c.ms()).Shape
	perfect.Points = []model.Point{{X: 10, Y: 0}, {X: 5, Y: 8.66}, {X: -5, Y: 8.66}, {X: -10, Y: 0}, {X: -5, Y: -8.66}, {X: 5, Y: -8.66}}

	ctx, ok := f.ReplaceShape(perfect)
	require.True(t, ok)
	require.Len(t, ctx.Board.CurrentShapes, 1)
	assert.Equal(t, perfect.Points, ctx.Board.CurrentShapes[0].Points)
	assert.Equal(t, "s1", ctx.Board.CurrentShapes[0].ID)

	// earlier snapshots keep their own shape
	assert.NotEqual(t, perfect.Points, before.Board.CurrentShapes[0].Points)

	_, ok = f.ReplaceShape(model.Shape{ID: "missing"})
	assert.False(t, ok)
}
