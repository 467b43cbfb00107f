package config

import "time"

// GeminiModels defines which Gemini models to use for different tasks
type GeminiModels struct {
	// SpeechAnalysis is for free-form transcript analysis (needs to be fast)
	SpeechAnalysis string `json:"speechAnalysis" toml:"speech_analysis"`

	// DrawingAnalysis is for describing what the teacher drew
	DrawingAnalysis string `json:"drawingAnalysis" toml:"drawing_analysis"`

	// VisualSuggestion picks the best visual type for a concept
	VisualSuggestion string `json:"visualSuggestion" toml:"visual_suggestion"`

	// Summary is for post-lecture summaries (quality over speed)
	Summary string `json:"summary" toml:"summary"`
}

// AIConfig holds all AI-related configuration
type AIConfig struct {
	APIKey    string       `json:"-" toml:"-"` // Never serialize
	Models    GeminiModels `json:"models" toml:"models"`
	TimeoutMS int          `json:"timeoutMs" toml:"timeout_ms"`
}

// DefaultAIConfig returns the default AI configuration
func DefaultAIConfig() *AIConfig {
	return &AIConfig{
		Models: GeminiModels{
			SpeechAnalysis:   "gemini-2.0-flash",
			DrawingAnalysis:  "gemini-2.0-flash",
			VisualSuggestion: "gemini-2.0-flash",
			Summary:          "gemini-2.0-flash",
		},
		TimeoutMS: 10000, // 10 second default timeout
	}
}

// IsEnabled returns true if the AI API is configured
func (c *AIConfig) IsEnabled() bool {
	return c.APIKey != ""
}

// Timeout returns the per-call deadline
func (c *AIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}
