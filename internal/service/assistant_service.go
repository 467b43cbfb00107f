package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"smartclass/internal/board"
	"smartclass/internal/config"
	"smartclass/internal/model"
	"smartclass/internal/repository"
	"smartclass/internal/shape"
	"smartclass/internal/speech"
	"smartclass/internal/suggest"
)

var (
	ErrTranscriptRequired = errors.New("transcript is required")
	ErrDrawingRequired    = errors.New("drawing data is required")
	ErrConceptRequired    = errors.New("concept is required")
	ErrSessionIDRequired  = errors.New("session ID is required")
	ErrSessionNotFound    = errors.New("session not found")
	ErrNoTranscript       = errors.New("no transcript available")
)

const (
	needsAssistanceConfidence = 0.8
	summaryKeywordLimit       = 5
)

// AssistantService answers free-form lecture questions with Gemini, falling
// back to the local heuristics when no API key is configured or a call fails.
type AssistantService struct {
	logger      *zap.Logger
	config      config.AIConfig
	generator   TextGenerator
	sessionRepo repository.SessionRepo
	catalog     []model.DiagramData
}

// NewAssistantService creates a new assistant. generator may be nil.
func NewAssistantService(logger *zap.Logger, cfg config.AIConfig, generator TextGenerator, sessionRepo repository.SessionRepo, catalog []model.DiagramData) *AssistantService {
	if catalog == nil {
		catalog = suggest.DefaultCatalog()
	}
	return &AssistantService{
		logger:      logger,
		config:      cfg,
		generator:   generator,
		sessionRepo: sessionRepo,
		catalog:     catalog,
	}
}

func (s *AssistantService) enabled() bool {
	return s.generator != nil && s.config.IsEnabled()
}

// generateJSON calls the model and decodes its JSON answer into v
func (s *AssistantService) generateJSON(ctx context.Context, modelName, prompt string, v interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout())
	defer cancel()

	text, err := s.generator.Generate(ctx, modelName, prompt, true)
	if err != nil {
		return err
	}
	text = strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(text), "```json"), "```")
	return json.Unmarshal([]byte(strings.TrimSpace(text)), v)
}

// AnalyzeSpeech reads topic, phase and visual needs from a transcript
func (s *AssistantService) AnalyzeSpeech(ctx context.Context, req *model.SpeechAnalysisRequest) (*model.SpeechAnalysis, error) {
	if strings.TrimSpace(req.Transcript) == "" {
		return nil, ErrTranscriptRequired
	}
	if !s.enabled() {
		return s.mockSpeechAnalysis(req), nil
	}

	var result model.SpeechAnalysis
	if err := s.generateJSON(ctx, s.config.Models.SpeechAnalysis, s.buildSpeechPrompt(req), &result); err != nil {
		s.logger.Warn("speech analysis fell back to heuristics", zap.Error(err))
		return s.mockSpeechAnalysis(req), nil
	}
	return &result, nil
}

// AnalyzeDrawing guesses what the teacher is drawing
func (s *AssistantService) AnalyzeDrawing(ctx context.Context, req *model.DrawingAnalysisRequest) (*model.DrawingAnalysis, error) {
	if len(req.Strokes) == 0 {
		return nil, ErrDrawingRequired
	}
	if !s.enabled() {
		return s.mockDrawingAnalysis(req), nil
	}

	var result model.DrawingAnalysis
	if err := s.generateJSON(ctx, s.config.Models.DrawingAnalysis, s.buildDrawingPrompt(req), &result); err != nil {
		s.logger.Warn("drawing analysis fell back to heuristics", zap.Error(err))
		return s.mockDrawingAnalysis(req), nil
	}
	return &result, nil
}

// SuggestVisual picks the best kind of visual aid for a concept
func (s *AssistantService) SuggestVisual(ctx context.Context, req *model.VisualSuggestionRequest) (*model.VisualSuggestion, error) {
	if strings.TrimSpace(req.Concept) == "" {
		return nil, ErrConceptRequired
	}
	if !s.enabled() {
		return s.mockVisualSuggestion(req), nil
	}

	var result model.VisualSuggestion
	if err := s.generateJSON(ctx, s.config.Models.VisualSuggestion, s.buildVisualPrompt(req), &result); err != nil {
		s.logger.Warn("visual suggestion fell back to heuristics", zap.Error(err))
		return s.mockVisualSuggestion(req), nil
	}
	return &result, nil
}

// GenerateSummary summarizes a lecture session transcript and stores the
// summary on the session.
func (s *AssistantService) GenerateSummary(ctx context.Context, teacherID string, req *model.SummaryRequest) (string, error) {
	if req.SessionID == "" {
		return "", ErrSessionIDRequired
	}
	session, err := s.sessionRepo.GetByID(ctx, req.SessionID)
	if err != nil {
		return "", fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil || session.TeacherID != teacherID {
		return "", ErrSessionNotFound
	}
	if strings.TrimSpace(session.Transcript) == "" {
		return "", ErrNoTranscript
	}

	summary := ""
	if s.enabled() {
		genCtx, cancel := context.WithTimeout(ctx, s.config.Timeout())
		summary, err = s.generator.Generate(genCtx, s.config.Models.Summary, s.buildSummaryPrompt(session), false)
		cancel()
		if err != nil {
			s.logger.Warn("summary fell back to heuristics", zap.String("session", session.ID), zap.Error(err))
		}
	}
	if summary == "" {
		summary = s.mockSummary(session)
	}

	if err := s.sessionRepo.SetSummary(ctx, session.ID, summary); err != nil {
		return "", fmt.Errorf("failed to store summary: %w", err)
	}
	return summary, nil
}

// Prompts

func (s *AssistantService) buildSpeechPrompt(req *model.SpeechAnalysisRequest) string {
	previous := "None"
	if len(req.Context) > 0 {
		if data, err := json.Marshal(req.Context); err == nil {
			previous = string(data)
		}
	}
	return fmt.Sprintf(`You are an AI teaching assistant analyzing a classroom lecture in real-time.

Current transcript: %q

Previous context: %s

Analyze the speech and provide:
1. Current topic being discussed
2. Teaching phase (introduction, explanation, example, review, assessment)
3. Key concepts mentioned
4. Suggested visual aids or diagrams that would help
5. Whether the teacher seems to need assistance

Respond in JSON format:
{
  "currentTopic": "string",
  "teachingPhase": "string",
  "keyConcepts": ["string"],
  "suggestedVisuals": ["string"],
  "needsAssistance": boolean,
  "assistanceReason": "string or null"
}`, req.Transcript, previous)
}

func (s *AssistantService) buildDrawingPrompt(req *model.DrawingAnalysisRequest) string {
	drawingContext := req.Context
	if drawingContext == "" {
		drawingContext = "Unknown"
	}
	return fmt.Sprintf(`You are an AI teaching assistant analyzing a teacher's whiteboard drawing.

Drawing context: %s
Number of strokes: %d
Points per stroke: %s

Based on the drawing activity, determine if the teacher is trying to draw:
- A geometric shape (circle, square, triangle, etc.)
- A diagram (flowchart, mind map, etc.)
- A graph or chart
- Mathematical notation
- Other illustration

If the drawing appears irregular or hand-drawn, suggest if a perfect/clean version would be helpful.

Respond in JSON format:
{
  "detectedType": "string",
  "confidence": number (0-1),
  "suggestion": "string describing what could be improved",
  "shouldOfferPerfectVersion": boolean
}`, drawingContext, len(req.Strokes), strokeSizes(req.Strokes))
}

func (s *AssistantService) buildVisualPrompt(req *model.VisualSuggestionRequest) string {
	visualContext := req.Context
	if visualContext == "" {
		visualContext = "General teaching"
	}
	return fmt.Sprintf(`You are an AI teaching assistant helping to create visual aids for classroom teaching.

Concept to visualize: %q
Context: %s

Suggest the best type of visual aid for this concept. Choose from:
- diagram (for processes, relationships, structures)
- chart (for data, comparisons, trends)
- illustration (for objects, scenes, examples)
- formula (for mathematical expressions)
- timeline (for sequences, history)

Respond in JSON format:
{
  "visualType": "string",
  "description": "string describing what should be shown",
  "elements": ["key elements to include"],
  "reasoning": "why this visual type is best"
}`, req.Concept, visualContext)
}

func (s *AssistantService) buildSummaryPrompt(session *model.LectureSession) string {
	return fmt.Sprintf(`You are an AI teaching assistant. Summarize the following lecture transcript into a clear, concise summary that captures the main topics, key concepts, and important points discussed.

Lecture Title: %s
Transcript:
%s

Provide a well-structured summary in 2-4 paragraphs that a teacher could use for review or share with students.`, session.Title, session.Transcript)
}

func strokeSizes(strokes [][]model.Point) string {
	sizes := make([]string, len(strokes))
	for i, st := range strokes {
		sizes[i] = fmt.Sprint(len(st))
	}
	return strings.Join(sizes, ", ")
}

// Heuristic fallbacks

func (s *AssistantService) mockSpeechAnalysis(req *model.SpeechAnalysisRequest) *model.SpeechAnalysis {
	intent := speech.AnalyzeSpeech(model.Utterance{Text: req.Transcript, Confidence: 1}, nil)
	keywords := speech.ExtractKeywords(req.Transcript)

	visuals := []string{}
	if c := intent.VisualAidSuggestion.SpecificContent; c != "" {
		visuals = append(visuals, c)
	}
	for _, d := range suggest.SearchCatalog(s.catalog, strings.Join(keywords, " ")) {
		visuals = append(visuals, d.Title)
	}

	result := &model.SpeechAnalysis{
		CurrentTopic:     intent.DetectedTopic,
		TeachingPhase:    string(intent.TeachingPhase),
		KeyConcepts:      keywords,
		SuggestedVisuals: visuals,
		NeedsAssistance:  intent.VisualAidSuggestion.Confidence >= needsAssistanceConfidence,
	}
	if result.NeedsAssistance {
		reason := fmt.Sprintf("The teacher appears to want a %s", intent.VisualAidSuggestion.Type)
		result.AssistanceReason = &reason
	}
	return result
}

func (s *AssistantService) mockDrawingAnalysis(req *model.DrawingAnalysisRequest) *model.DrawingAnalysis {
	var longest []model.Point
	for _, st := range req.Strokes {
		if len(st) > len(longest) {
			longest = st
		}
	}
	if len(longest) < 2 {
		return &model.DrawingAnalysis{
			DetectedType: "illustration",
			Confidence:   0.3,
			Suggestion:   "Not enough ink to tell what is being drawn",
		}
	}

	first, last := longest[0], longest[len(longest)-1]
	if math.Hypot(last.X-first.X, last.Y-first.Y) > board.ClosureTolerance {
		return &model.DrawingAnalysis{
			DetectedType: "freehand",
			Confidence:   0.5,
			Suggestion:   "Open strokes look like handwriting or a sketch",
		}
	}

	points := shape.Simplify(longest, board.SimplifyTolerance)
	if len(points) > 3 {
		end := points[len(points)-1]
		if math.Hypot(end.X-first.X, end.Y-first.Y) <= board.ClosureTolerance {
			points = points[:len(points)-1]
		}
	}
	analysis := shape.AnalyzeShape(model.Shape{Points: points, IsClosed: true}, req.Context)

	suggestion := analysis.SuggestedCorrection
	irregular := analysis.Regularity < shape.RegularityThreshold
	if suggestion == "" {
		if irregular {
			suggestion = fmt.Sprintf("The %s is %.0f%% regular; a clean version could help", analysis.ShapeType, analysis.Regularity*100)
		} else {
			suggestion = fmt.Sprintf("The %s already looks clean", analysis.ShapeType)
		}
	}
	return &model.DrawingAnalysis{
		DetectedType:              string(analysis.ShapeType),
		Confidence:                analysis.Confidence,
		Suggestion:                suggestion,
		ShouldOfferPerfectVersion: irregular,
	}
}

var visualTypeHints = []struct {
	visualType string
	terms      []string
}{
	{"formula", []string{"equation", "formula", "theorem", "derivative", "integral", "="}},
	{"timeline", []string{"history", "timeline", "war", "century", "era", "revolution"}},
	{"chart", []string{"data", "trend", "compare", "comparison", "growth", "statistics", "percent"}},
}

func (s *AssistantService) mockVisualSuggestion(req *model.VisualSuggestionRequest) *model.VisualSuggestion {
	if matches := suggest.SearchCatalog(s.catalog, req.Concept); len(matches) > 0 {
		d := matches[0]
		return &model.VisualSuggestion{
			VisualType:  "diagram",
			Description: d.Description,
			Elements:    d.Tags,
			Reasoning:   fmt.Sprintf("The %q diagram from the library covers this concept", d.Title),
		}
	}

	concept := strings.ToLower(req.Concept)
	for _, hint := range visualTypeHints {
		for _, term := range hint.terms {
			if strings.Contains(concept, term) {
				return &model.VisualSuggestion{
					VisualType:  hint.visualType,
					Description: fmt.Sprintf("A %s of %s", hint.visualType, req.Concept),
					Elements:    strings.Fields(req.Concept),
					Reasoning:   fmt.Sprintf("%q suggests a %s", term, hint.visualType),
				}
			}
		}
	}

	return &model.VisualSuggestion{
		VisualType:  "illustration",
		Description: fmt.Sprintf("An illustration of %s", req.Concept),
		Elements:    strings.Fields(req.Concept),
		Reasoning:   "No structure or data was mentioned, so a plain illustration fits best",
	}
}

func (s *AssistantService) mockSummary(session *model.LectureSession) string {
	counts := map[string]int{}
	lower := strings.ToLower(session.Transcript)
	for _, kw := range speech.ExtractKeywords(session.Transcript) {
		counts[kw] = strings.Count(lower, kw)
	}
	keywords := make([]string, 0, len(counts))
	for kw := range counts {
		keywords = append(keywords, kw)
	}
	sort.SliceStable(keywords, func(i, j int) bool {
		if counts[keywords[i]] != counts[keywords[j]] {
			return counts[keywords[i]] > counts[keywords[j]]
		}
		return keywords[i] < keywords[j]
	})
	if len(keywords) > summaryKeywordLimit {
		keywords = keywords[:summaryKeywordLimit]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Summary of %q.", session.Title)
	if len(keywords) > 0 {
		fmt.Fprintf(&b, " The lecture centred on %s (%s).",
			speech.DetectTopic(keywords), strings.Join(keywords, ", "))
	}
	words := len(strings.Fields(session.Transcript))
	fmt.Fprintf(&b, " The transcript runs %d words.", words)
	return b.String()
}
