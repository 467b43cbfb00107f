package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"smartclass/internal/config"
	"smartclass/internal/model"
)

func newAssistant(gen TextGenerator) (*AssistantService, *fakeSessionRepo) {
	cfg := *config.DefaultAIConfig()
	if gen != nil {
		cfg.APIKey = "test-key"
	}
	sessions := newFakeSessionRepo()
	return NewAssistantService(zap.NewNop(), cfg, gen, sessions, nil), sessions
}

func TestAssistant_RequiredInputs(t *testing.T) {
	a, _ := newAssistant(nil)
	ctx := context.Background()

	_, err := a.AnalyzeSpeech(ctx, &model.SpeechAnalysisRequest{Transcript: "  "})
	assert.ErrorIs(t, err, ErrTranscriptRequired)
	_, err = a.AnalyzeDrawing(ctx, &model.DrawingAnalysisRequest{})
	assert.ErrorIs(t, err, ErrDrawingRequired)
	_, err = a.SuggestVisual(ctx, &model.VisualSuggestionRequest{})
	assert.ErrorIs(t, err, ErrConceptRequired)
	_, err = a.GenerateSummary(ctx, "t1", &model.SummaryRequest{})
	assert.ErrorIs(t, err, ErrSessionIDRequired)
}

func TestAssistant_SpeechHeuristics(t *testing.T) {
	a, _ := newAssistant(nil)

	got, err := a.AnalyzeSpeech(context.Background(), &model.SpeechAnalysisRequest{
		Transcript: "Now let's draw a cell and look at the mitochondria",
	})
	require.NoError(t, err)

	assert.Equal(t, "biology", got.CurrentTopic)
	assert.Equal(t, []string{"cell", "mitochondria"}, got.KeyConcepts)
	assert.True(t, got.NeedsAssistance)
	require.NotNil(t, got.AssistanceReason)
	require.NotEmpty(t, got.SuggestedVisuals)
	assert.Equal(t, "cell", got.SuggestedVisuals[0])
}

func TestAssistant_SpeechUsesModel(t *testing.T) {
	gen := &fakeGenerator{text: "```json\n{\"currentTopic\":\"optics\",\"teachingPhase\":\"example\",\"keyConcepts\":[\"lens\"],\"suggestedVisuals\":[],\"needsAssistance\":false,\"assistanceReason\":null}\n```"}
	a, _ := newAssistant(gen)

	got, err := a.AnalyzeSpeech(context.Background(), &model.SpeechAnalysisRequest{
		Transcript: "a convex lens bends light",
		Context:    map[string]interface{}{"topic": "physics"},
	})
	require.NoError(t, err)
	assert.Equal(t, "optics", got.CurrentTopic)
	assert.Nil(t, got.AssistanceReason)

	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], `"a convex lens bends light"`)
	assert.Contains(t, gen.prompts[0], `{"topic":"physics"}`)
	assert.Equal(t, []string{"gemini-2.0-flash"}, gen.models)
}

func TestAssistant_FallsBackOnModelFailure(t *testing.T) {
	ctx := context.Background()
	for name, gen := range map[string]*fakeGenerator{
		"error":    {err: errors.New("quota exceeded")},
		"not json": {text: "I think it is about cells"},
	} {
		t.Run(name, func(t *testing.T) {
			a, _ := newAssistant(gen)
			got, err := a.AnalyzeSpeech(ctx, &model.SpeechAnalysisRequest{Transcript: "the cell membrane"})
			require.NoError(t, err)
			assert.Equal(t, "biology", got.CurrentTopic)
		})
	}
}

func TestAssistant_DrawingHeuristics(t *testing.T) {
	a, _ := newAssistant(nil)
	ctx := context.Background()

	open, err := a.AnalyzeDrawing(ctx, &model.DrawingAnalysisRequest{
		Strokes: [][]model.Point{{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 200, Y: 0}}},
	})
	require.NoError(t, err)
	assert.Equal(t, "freehand", open.DetectedType)
	assert.False(t, open.ShouldOfferPerfectVersion)

	square, err := a.AnalyzeDrawing(ctx, &model.DrawingAnalysisRequest{
		Strokes: [][]model.Point{{{X: 5, Y: 5}}, squarePath()},
	})
	require.NoError(t, err)
	assert.Equal(t, "rectangle", square.DetectedType)
	assert.False(t, square.ShouldOfferPerfectVersion)

	tiny, err := a.AnalyzeDrawing(ctx, &model.DrawingAnalysisRequest{Strokes: [][]model.Point{{{X: 1, Y: 1}}}})
	require.NoError(t, err)
	assert.Equal(t, "illustration", tiny.DetectedType)
}

func TestAssistant_VisualHeuristics(t *testing.T) {
	a, _ := newAssistant(nil)
	ctx := context.Background()

	tests := []struct {
		concept string
		want    string
	}{
		{"benzene", "diagram"},
		{"quadratic formula", "formula"},
		{"printing press history", "timeline"},
		{"population growth", "chart"},
		{"lighthouse", "illustration"},
	}
	for _, tt := range tests {
		t.Run(tt.concept, func(t *testing.T) {
			got, err := a.SuggestVisual(ctx, &model.VisualSuggestionRequest{Concept: tt.concept})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.VisualType)
			assert.NotEmpty(t, got.Elements)
		})
	}
}

func TestAssistant_GenerateSummary(t *testing.T) {
	ctx := context.Background()

	t.Run("heuristic", func(t *testing.T) {
		a, sessions := newAssistant(nil)
		id, _ := sessions.Create(ctx, &model.LectureSession{
			TeacherID:  "t1",
			Title:      "Cells",
			Transcript: "the cell has a nucleus. every cell has mitochondria",
			StartedAt:  time.Now(),
		})

		summary, err := a.GenerateSummary(ctx, "t1", &model.SummaryRequest{SessionID: id})
		require.NoError(t, err)
		assert.Contains(t, summary, `"Cells"`)
		assert.Contains(t, summary, "biology (cell, mitochondria)")
		assert.Equal(t, summary, sessions.get(id).Summary)
	})

	t.Run("model", func(t *testing.T) {
		gen := &fakeGenerator{text: "Students learned about cells."}
		a, sessions := newAssistant(gen)
		id, _ := sessions.Create(ctx, &model.LectureSession{TeacherID: "t1", Title: "Cells", Transcript: "cells"})

		summary, err := a.GenerateSummary(ctx, "t1", &model.SummaryRequest{SessionID: id})
		require.NoError(t, err)
		assert.Equal(t, "Students learned about cells.", summary)
		assert.Contains(t, gen.prompts[0], "Lecture Title: Cells")
	})

	t.Run("not found or not owned", func(t *testing.T) {
		a, sessions := newAssistant(nil)
		id, _ := sessions.Create(ctx, &model.LectureSession{TeacherID: "t2", Transcript: "x"})

		_, err := a.GenerateSummary(ctx, "t1", &model.SummaryRequest{SessionID: id})
		assert.ErrorIs(t, err, ErrSessionNotFound)
		_, err = a.GenerateSummary(ctx, "t1", &model.SummaryRequest{SessionID: "missing"})
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("empty transcript", func(t *testing.T) {
		a, sessions := newAssistant(nil)
		id, _ := sessions.Create(ctx, &model.LectureSession{TeacherID: "t1"})

		_, err := a.GenerateSummary(ctx, "t1", &model.SummaryRequest{SessionID: id})
		assert.ErrorIs(t, err, ErrNoTranscript)
	})
}
