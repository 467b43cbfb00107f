// Package speech classifies lecture utterances with keyword and pattern
// heuristics: domain keywords, teaching phase and visual-aid intent.
package speech

import (
	"regexp"
	"slices"
	"strings"

	"smartclass/internal/model"
)

const (
	DefaultTopic = "general"

	requestConfidence       = 0.9
	keywordConfidence       = 0.85
	exampleConfidence       = 0.75
	clarificationConfidence = 0.7
)

// requestPatterns detect explicit asks for a visual ("draw a X", "can you show me a X").
// The first capture group is the requested object.
var requestPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)turn (?:this|it) into (?:a |an )?(\w+)`),
	regexp.MustCompile(`(?i)make (?:this|it) (?:a |an )?(\w+)`),
	regexp.MustCompile(`(?i)draw (?:a |an )?(\w+)`),
	regexp.MustCompile(`(?i)show (?:me )?(?:a |an )?(\w+)`),
	regexp.MustCompile(`(?i)can (?:you |I )?(?:have|get|generate|create|show|make|draw) (?:me )?(?:a |an )?(\w+)`),
	regexp.MustCompile(`(?i)(?:please |could you )?(?:generate|create|show|display|make) (?:me )?(?:a |an )?(\w+)`),
	regexp.MustCompile(`(?i)(?:I want|I need|give me) (?:a |an )?(\w+)`),
}

// ExtractKeywords returns the dictionary terms contained in text, matched
// case-insensitively, deduplicated in dictionary order.
func ExtractKeywords(text string) []string {
	lower := strings.ToLower(text)
	keywords := []string{}
	for _, cat := range DiagramKeywords {
		for _, kw := range cat.Keywords {
			if strings.Contains(lower, strings.ToLower(kw)) && !slices.Contains(keywords, kw) {
				keywords = append(keywords, kw)
			}
		}
	}
	return keywords
}

// DetectTeachingPhase returns the first phase whose phrase occurs in text,
// defaulting to explanation.
func DetectTeachingPhase(text string) model.TeachingPhase {
	lower := strings.ToLower(text)
	for _, p := range phaseKeywords {
		for _, phrase := range p.Phrases {
			if strings.Contains(lower, phrase) {
				return p.Phase
			}
		}
	}
	return model.PhaseExplanation
}

// DetermineUrgency grades how soon a keyword-triggered diagram is needed
func DetermineUrgency(text string) model.UrgencyLevel {
	lower := strings.ToLower(text)
	if strings.Contains(lower, "now") || strings.Contains(lower, "let's") || strings.Contains(lower, "next") {
		return model.UrgencyImmediate
	}
	if strings.Contains(lower, "also") || strings.Contains(lower, "additionally") {
		return model.UrgencyHelpful
	}
	return model.UrgencyOptional
}

// ShouldSuggestVisualAid runs the three-tier heuristic over an utterance:
// explicit requests, then dictionary keywords (u.Keywords), then example and
// clarification phrasing. The first tier that matches wins.
func ShouldSuggestVisualAid(u model.Utterance) model.VisualAid {
	for _, re := range requestPatterns {
		m := re.FindStringSubmatch(u.Text)
		if len(m) > 1 && m[1] != "" {
			return model.VisualAid{
				Should:     true,
				Type:       model.AssistDiagram,
				Content:    m[1],
				Confidence: requestConfidence,
				Urgency:    model.UrgencyImmediate,
			}
		}
	}

	for _, cat := range DiagramKeywords {
		for _, kw := range cat.Keywords {
			if slices.Contains(u.Keywords, kw) {
				return model.VisualAid{
					Should:     true,
					Type:       model.AssistDiagram,
					Content:    kw + " diagram",
					Confidence: keywordConfidence,
					Urgency:    DetermineUrgency(u.Text),
				}
			}
		}
	}

	lower := strings.ToLower(u.Text)
	if strings.Contains(lower, "for example") || strings.Contains(lower, "for instance") {
		return model.VisualAid{
			Should:     true,
			Type:       model.AssistExample,
			Content:    "visual example",
			Confidence: exampleConfidence,
			Urgency:    model.UrgencyHelpful,
		}
	}
	if strings.Contains(lower, "what is") || strings.Contains(lower, "how does") {
		return model.VisualAid{
			Should:     true,
			Type:       model.AssistClarification,
			Content:    "explanation diagram",
			Confidence: clarificationConfidence,
			Urgency:    model.UrgencyHelpful,
		}
	}

	return model.VisualAid{Type: model.AssistNone, Urgency: model.UrgencyOptional}
}

// DetectTopic returns the category of the first dictionary keyword present
// in keywords, or DefaultTopic.
func DetectTopic(keywords []string) string {
	for _, cat := range DiagramKeywords {
		for _, kw := range cat.Keywords {
			if slices.Contains(keywords, kw) {
				return cat.Name
			}
		}
	}
	return DefaultTopic
}

// AnalyzeSpeech derives the intent of the latest utterance. recent is the
// caller's speech window; the heuristics only read the latest utterance.
func AnalyzeSpeech(u model.Utterance, recent []model.Utterance) model.SpeechIntent {
	keywords := ExtractKeywords(u.Text)
	u.Keywords = keywords
	aid := ShouldSuggestVisualAid(u)

	return model.SpeechIntent{
		Transcript:    u.Text,
		Timestamp:     u.Timestamp,
		DetectedTopic: DetectTopic(keywords),
		TeachingPhase: DetectTeachingPhase(u.Text),
		VisualAidSuggestion: model.VisualAidSuggestion{
			Confidence:      aid.Confidence,
			Type:            aid.Type,
			SpecificContent: aid.Content,
			Urgency:         aid.Urgency,
		},
	}
}
