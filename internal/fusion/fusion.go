// Package fusion combines recent speech and board activity into a single
// lecture context.
package fusion

import (
	"strings"
	"time"

	"smartclass/internal/model"
	"smartclass/internal/speech"
)

const (
	DefaultSpeechWindow = 30 * time.Second
	DefaultBoardWindow  = 10 * time.Second
	DefaultRetention    = 60 * time.Second
)

// Windows sets how far back each buffer is read and kept
type Windows struct {
	Speech    time.Duration
	Board     time.Duration
	Retention time.Duration
}

func DefaultWindows() Windows {
	return Windows{Speech: DefaultSpeechWindow, Board: DefaultBoardWindow, Retention: DefaultRetention}
}

// Fusion keeps rolling buffers of utterances and board events and rebuilds
// the fused context on every update. Not safe for concurrent use.
type Fusion struct {
	windows Windows
	now     func() time.Time

	utterances []model.Utterance
	events     []model.BoardEvent
	current    *model.FusedContext
}

func New(windows Windows, now func() time.Time) *Fusion {
	def := DefaultWindows()
	if windows.Speech <= 0 {
		windows.Speech = def.Speech
	}
	if windows.Board <= 0 {
		windows.Board = def.Board
	}
	if windows.Retention <= 0 {
		windows.Retention = def.Retention
	}
	if now == nil {
		now = time.Now
	}
	return &Fusion{windows: windows, now: now}
}

func (f *Fusion) UpdateSpeech(u model.Utterance) model.FusedContext {
	f.utterances = append(f.utterances, u)
	f.cleanupOldData()
	return f.updateContext()
}

func (f *Fusion) UpdateBoard(e model.BoardEvent) model.FusedContext {
	f.events = append(f.events, e)
	f.cleanupOldData()
	return f.updateContext()
}

// ReplaceShape swaps the buffered shape with the same ID for shp and
// rebuilds the context. False when no buffered shape has that ID.
func (f *Fusion) ReplaceShape(shp model.Shape) (model.FusedContext, bool) {
	found := false
	for i, e := range f.events {
		if e.Type == model.BoardEventShape && e.Shape != nil && e.Shape.ID == shp.ID {
			replaced := shp
			f.events[i].Shape = &replaced
			found = true
		}
	}
	if !found {
		return model.FusedContext{}, false
	}
	f.cleanupOldData()
	return f.updateContext(), true
}

// Context returns the latest fused context; false before the first update.
func (f *Fusion) Context() (model.FusedContext, bool) {
	if f.current == nil {
		return model.FusedContext{}, false
	}
	return *f.current, true
}

// RecentSpeechText joins the utterances newer than window with spaces
func (f *Fusion) RecentSpeechText(window time.Duration) string {
	recent := f.recentTranscripts(window)
	texts := make([]string, len(recent))
	for i, u := range recent {
		texts[i] = u.Text
	}
	return strings.Join(texts, " ")
}

func (f *Fusion) updateContext() model.FusedContext {
	transcripts := f.recentTranscripts(f.windows.Speech)
	events := f.recentEvents(f.windows.Board)

	var intent *model.SpeechIntent
	if len(transcripts) > 0 {
		latest := transcripts[len(transcripts)-1]
		in := speech.AnalyzeSpeech(latest, transcripts)
		intent = &in
	}

	topic := speech.DefaultTopic
	phase := model.PhaseExplanation
	if intent != nil {
		if intent.DetectedTopic != "" {
			topic = intent.DetectedTopic
		}
		if intent.TeachingPhase != "" {
			phase = intent.TeachingPhase
		}
	}

	shapes := []model.Shape{}
	for _, e := range events {
		if e.Type == model.BoardEventShape && e.Shape != nil {
			shapes = append(shapes, *e.Shape)
		}
	}

	var lastActivity int64
	if len(events) > 0 {
		lastActivity = events[len(events)-1].Timestamp()
	}

	ctx := model.FusedContext{
		Timestamp: f.now().UnixMilli(),
		Speech: model.SpeechContext{
			RecentTranscripts: transcripts,
			CurrentTopic:      topic,
			Intent:            intent,
		},
		Board: model.BoardContext{
			RecentEvents:  events,
			CurrentShapes: shapes,
			LastActivity:  lastActivity,
		},
		Analysis: model.AnalysisSummary{
			Topic:            topic,
			TeachingPhase:    phase,
			SuggestedActions: []model.SuggestionAction{},
		},
	}
	f.current = &ctx
	return ctx
}

// recentTranscripts returns a fresh slice so published contexts never alias
// the buffer.
func (f *Fusion) recentTranscripts(window time.Duration) []model.Utterance {
	cutoff := f.now().Add(-window).UnixMilli()
	out := []model.Utterance{}
	for _, u := range f.utterances {
		if u.Timestamp > cutoff {
			out = append(out, u)
		}
	}
	return out
}

func (f *Fusion) recentEvents(window time.Duration) []model.BoardEvent {
	cutoff := f.now().Add(-window).UnixMilli()
	out := []model.BoardEvent{}
	for _, e := range f.events {
		if e.Timestamp() > cutoff {
			out = append(out, e)
		}
	}
	return out
}

func (f *Fusion) cleanupOldData() {
	cutoff := f.now().Add(-f.windows.Retention).UnixMilli()

	utterances := f.utterances[:0]
	for _, u := range f.utterances {
		if u.Timestamp > cutoff {
			utterances = append(utterances, u)
		}
	}
	f.utterances = utterances

	events := f.events[:0]
	for _, e := range f.events {
		if e.Timestamp() > cutoff {
			events = append(events, e)
		}
	}
	f.events = events
}
