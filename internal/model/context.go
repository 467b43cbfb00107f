package model

// FusedContext is the unified snapshot of recent speech and board activity.
// It is rebuilt wholesale on every input and treated as immutable afterwards.
type FusedContext struct {
	Timestamp int64           `json:"timestamp"`
	Speech    SpeechContext   `json:"speech"`
	Board     BoardContext    `json:"board"`
	Analysis  AnalysisSummary `json:"analysis"`
}

// SpeechContext is the speech half of a FusedContext
type SpeechContext struct {
	RecentTranscripts []Utterance   `json:"recentTranscripts"` // 30s window
	CurrentTopic      string        `json:"currentTopic"`
	Intent            *SpeechIntent `json:"intent"` // nil when no recent speech
}

// BoardContext is the board half of a FusedContext
type BoardContext struct {
	RecentEvents  []BoardEvent `json:"recentEvents"`  // 10s window
	CurrentShapes []Shape      `json:"currentShapes"` // shape entries of RecentEvents
	LastActivity  int64        `json:"lastActivity"`  // 0 when no recent events
}

// AnalysisSummary is the derived summary of a FusedContext
type AnalysisSummary struct {
	Topic            string             `json:"topic"`
	TeachingPhase    TeachingPhase      `json:"teachingPhase"`
	SuggestedActions []SuggestionAction `json:"suggestedActions"`
}
