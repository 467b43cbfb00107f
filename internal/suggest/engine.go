// Package suggest turns a fused lecture context into a short ranked list of
// proactive suggestions.
package suggest

import (
	"fmt"
	"math"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"smartclass/internal/model"
	"smartclass/internal/shape"
)

const (
	DefaultMaxSuggestions = 3
	DynamicPrefix         = "dynamic-"
	CategoryDynamic       = "dynamic"
)

// Options tunes the engine. Zero values fall back to defaults; the two
// switches must be set explicitly.
type Options struct {
	MaxSuggestions        int
	ConfidenceThreshold   float64
	SuggestionTimeout     time.Duration
	EnableShapeCorrection bool
	Now                   func() time.Time
	NewToken              func() string
}

// Engine evaluates the suggestion rules and holds the active suggestion set.
// Not safe for concurrent use.
type Engine struct {
	logger  *zap.Logger
	opts    Options
	catalog []model.DiagramData

	active  []model.SuggestionAction
	counter int
}

func NewEngine(logger *zap.Logger, catalog []model.DiagramData, opts Options) *Engine {
	if opts.MaxSuggestions <= 0 {
		opts.MaxSuggestions = DefaultMaxSuggestions
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewToken == nil {
		opts.NewToken = func() string { return uuid.New().String() }
	}
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &Engine{logger: logger, opts: opts, catalog: catalog}
}

// Generate runs every rule against ctx, ranks the results and makes the top
// entries the new active set.
func (e *Engine) Generate(ctx model.FusedContext) []model.SuggestionAction {
	e.logger.Debug("generating suggestions",
		zap.Bool("hasIntent", ctx.Speech.Intent != nil),
		zap.Int("shapes", len(ctx.Board.CurrentShapes)),
		zap.String("topic", ctx.Speech.CurrentTopic))

	var suggestions []model.SuggestionAction
	if s, ok := e.diagramSuggestion(ctx); ok {
		suggestions = append(suggestions, s)
	}
	if e.opts.EnableShapeCorrection {
		suggestions = append(suggestions, e.shapeCorrections(ctx)...)
	}
	if s, ok := e.exampleSuggestion(ctx); ok {
		suggestions = append(suggestions, s)
	}
	if s, ok := e.clarificationSuggestion(ctx); ok {
		suggestions = append(suggestions, s)
	}

	return e.publish(suggestions)
}

// publish filters, ranks and caps candidates and makes them the active set
func (e *Engine) publish(suggestions []model.SuggestionAction) []model.SuggestionAction {
	if e.opts.ConfidenceThreshold > 0 {
		suggestions = slices.DeleteFunc(suggestions, func(s model.SuggestionAction) bool {
			return s.Confidence < e.opts.ConfidenceThreshold
		})
	}

	Rank(suggestions)
	if len(suggestions) > e.opts.MaxSuggestions {
		suggestions = suggestions[:e.opts.MaxSuggestions]
	}
	if suggestions == nil {
		suggestions = []model.SuggestionAction{}
	}

	e.active = suggestions
	e.logger.Debug("generated suggestions", zap.Int("count", len(suggestions)))
	return slices.Clone(suggestions)
}

// Rank orders suggestions by urgency tier, then confidence, both descending.
// Equal entries keep their rule order.
func Rank(suggestions []model.SuggestionAction) {
	slices.SortStableFunc(suggestions, func(a, b model.SuggestionAction) int {
		if d := b.Urgency.Tier() - a.Urgency.Tier(); d != 0 {
			return d
		}
		switch {
		case b.Confidence > a.Confidence:
			return 1
		case b.Confidence < a.Confidence:
			return -1
		}
		return 0
	})
}

// Active returns the active set, minus entries older than the suggestion
// timeout when one is configured.
func (e *Engine) Active() []model.SuggestionAction {
	if e.opts.SuggestionTimeout > 0 {
		cutoff := e.opts.Now().Add(-e.opts.SuggestionTimeout).UnixMilli()
		e.active = slices.DeleteFunc(e.active, func(s model.SuggestionAction) bool {
			return s.Timestamp <= cutoff
		})
	}
	return slices.Clone(e.active)
}

// Find returns an active suggestion by id
func (e *Engine) Find(id string) (model.SuggestionAction, bool) {
	for _, s := range e.active {
		if s.ID == id {
			return s, true
		}
	}
	return model.SuggestionAction{}, false
}

// Dismiss removes one suggestion from the active set; unknown ids are ignored.
func (e *Engine) Dismiss(id string) {
	e.active = slices.DeleteFunc(e.active, func(s model.SuggestionAction) bool {
		return s.ID == id
	})
}

// DiagramByID looks up a catalog entry
func (e *Engine) DiagramByID(id string) (model.DiagramData, bool) {
	for _, d := range e.catalog {
		if d.ID == id {
			return d, true
		}
	}
	return model.DiagramData{}, false
}

// Catalog returns a copy of the diagram library
func (e *Engine) Catalog() []model.DiagramData {
	return slices.Clone(e.catalog)
}

// SearchDiagrams returns catalog entries matching any whitespace-separated
// term of query, in catalog order.
func (e *Engine) SearchDiagrams(query string) []model.DiagramData {
	return SearchCatalog(e.catalog, query)
}

// SearchCatalog is SearchDiagrams over an arbitrary catalog
func SearchCatalog(catalog []model.DiagramData, query string) []model.DiagramData {
	keywords := strings.Fields(strings.ToLower(query))
	var out []model.DiagramData
	for _, d := range catalog {
		if matchesAny(d, keywords) {
			out = append(out, d)
		}
	}
	return out
}

func matchesAny(d model.DiagramData, keywords []string) bool {
	title := strings.ToLower(d.Title)
	description := strings.ToLower(d.Description)
	for _, kw := range keywords {
		if slices.Contains(d.Tags, kw) || strings.Contains(title, kw) || strings.Contains(description, kw) {
			return true
		}
	}
	return false
}

func (e *Engine) diagramSuggestion(ctx model.FusedContext) (model.SuggestionAction, bool) {
	intent := ctx.Speech.Intent
	if intent == nil || intent.VisualAidSuggestion.Type != model.AssistDiagram {
		return model.SuggestionAction{}, false
	}

	aid := intent.VisualAidSuggestion
	searchTerm := strings.ToLower(aid.SpecificContent)

	var diagram model.DiagramData
	dynamic := false
	if matches := e.SearchDiagrams(searchTerm); len(matches) > 0 {
		diagram = matches[0]
	} else {
		diagram = e.dynamicDiagram(searchTerm)
		dynamic = true
		e.logger.Debug("no catalog match, using dynamic image", zap.String("query", searchTerm))
	}

	s := model.SuggestionAction{
		ID:         e.nextID(),
		Type:       model.AssistDiagram,
		Confidence: aid.Confidence,
		Urgency:    aid.Urgency,
		Timestamp:  e.opts.Now().UnixMilli(),
		Metadata:   &model.SuggestionMetadata{Diagram: &diagram, IsDynamic: dynamic},
	}
	primary := model.ActionButton{
		Label:   "Show Diagram",
		Action:  model.ActionDisplayDiagram + ":" + diagram.ID,
		Primary: true,
	}
	if dynamic {
		primary.Label = "Generate Image"
		s.Message = fmt.Sprintf("Generate %s image?", diagram.Title)
		s.Reasoning = fmt.Sprintf("I can generate a %s image to help visualize this concept.", searchTerm)
	} else {
		s.Message = fmt.Sprintf("Show %s?", diagram.Title)
		s.Reasoning = fmt.Sprintf("Detected %q in speech. This diagram could help visualize the concept.", aid.SpecificContent)
	}
	s.Actions = []model.ActionButton{primary, {Label: "Dismiss", Action: model.ActionDismiss}}
	return s, true
}

func (e *Engine) dynamicDiagram(searchTerm string) model.DiagramData {
	query := "realistic " + searchTerm + " illustration for teaching"
	return model.DiagramData{
		ID:          DynamicPrefix + e.opts.NewToken(),
		Title:       capitalize(searchTerm),
		Description: "AI-generated image of " + searchTerm,
		Category:    CategoryDynamic,
		Tags:        strings.Fields(searchTerm),
		ImageURL:    "/placeholder.svg?height=400&width=400&query=" + strings.ReplaceAll(url.QueryEscape(query), "+", "%20"),
	}
}

func (e *Engine) shapeCorrections(ctx model.FusedContext) []model.SuggestionAction {
	// Matched against the topic plus the recent transcript, not the topic
	// alone: the topic is a category name and never mentions benzene or circle.
	subject := ctx.Speech.CurrentTopic
	for _, u := range ctx.Speech.RecentTranscripts {
		subject += " " + u.Text
	}

	var out []model.SuggestionAction
	for _, shp := range ctx.Board.CurrentShapes {
		analysis := shape.AnalyzeShape(shp, subject)
		if analysis.Regularity >= shape.RegularityThreshold || analysis.SuggestedCorrection == "" {
			continue
		}
		out = append(out, model.SuggestionAction{
			ID:         e.nextID(),
			Type:       model.AssistCorrection,
			Message:    fmt.Sprintf("Improve %s shape?", analysis.ShapeType),
			Confidence: analysis.Confidence,
			Urgency:    model.UrgencyHelpful,
			Timestamp:  e.opts.Now().UnixMilli(),
			Actions: []model.ActionButton{
				{Label: "Perfect Shape", Action: model.ActionCorrectShape + ":" + shp.ID, Primary: true},
				{Label: "Keep As Is", Action: model.ActionDismiss},
			},
			Reasoning: fmt.Sprintf("The %s appears irregular (%d%% regular). A perfect shape would be clearer for students.",
				analysis.ShapeType, int(math.Round(analysis.Regularity*100))),
			Metadata: &model.SuggestionMetadata{ShapeID: shp.ID},
		})
	}
	return out
}

func (e *Engine) exampleSuggestion(ctx model.FusedContext) (model.SuggestionAction, bool) {
	intent := ctx.Speech.Intent
	if intent == nil || intent.VisualAidSuggestion.Type != model.AssistExample {
		return model.SuggestionAction{}, false
	}
	return model.SuggestionAction{
		ID:         e.nextID(),
		Type:       model.AssistExample,
		Message:    "Add a visual example?",
		Confidence: intent.VisualAidSuggestion.Confidence,
		Urgency:    intent.VisualAidSuggestion.Urgency,
		Timestamp:  e.opts.Now().UnixMilli(),
		Actions: []model.ActionButton{
			{Label: "Generate Example", Action: model.ActionGenerateExample, Primary: true},
			{Label: "Not Now", Action: model.ActionDismiss},
		},
		Reasoning: "You mentioned providing an example. A visual aid could make it more concrete for students.",
	}, true
}

func (e *Engine) clarificationSuggestion(ctx model.FusedContext) (model.SuggestionAction, bool) {
	intent := ctx.Speech.Intent
	if intent == nil || intent.VisualAidSuggestion.Type != model.AssistClarification {
		return model.SuggestionAction{}, false
	}
	return model.SuggestionAction{
		ID:         e.nextID(),
		Type:       model.AssistClarification,
		Message:    "Add clarifying diagram?",
		Confidence: intent.VisualAidSuggestion.Confidence,
		Urgency:    intent.VisualAidSuggestion.Urgency,
		Timestamp:  e.opts.Now().UnixMilli(),
		Actions: []model.ActionButton{
			{Label: "Show Diagram", Action: model.ActionShowClarification, Primary: true},
			{Label: "Skip", Action: model.ActionDismiss},
		},
		Reasoning: "A visual explanation could help clarify this concept for students.",
	}, true
}

func (e *Engine) nextID() string {
	id := fmt.Sprintf("suggestion-%d", e.counter)
	e.counter++
	return id
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	return strings.ToUpper(string(r[0])) + string(r[1:])
}

// ParseAction splits a button action into its verb and argument,
// e.g. "display-diagram:cell-structure".
func ParseAction(action string) (verb, arg string) {
	verb, arg, _ = strings.Cut(action, ":")
	return verb, arg
}
