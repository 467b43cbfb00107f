package speech

import "smartclass/internal/model"

// Category groups domain terms that benefit from a diagram
type Category struct {
	Name     string
	Keywords []string
}

// DiagramKeywords is the ordered category dictionary; order decides topic ties.
var DiagramKeywords = []Category{
	{Name: "chemistry", Keywords: []string{"benzene", "molecule", "atom", "compound", "reaction", "periodic table"}},
	{Name: "biology", Keywords: []string{
		"cell", "photosynthesis", "mitochondria", "DNA", "ecosystem", "organ",
		"apple", "fruit", "plant", "leaf", "tree",
	}},
	{Name: "physics", Keywords: []string{"circuit", "force", "energy", "wave", "atom", "electricity"}},
	{Name: "electronics", Keywords: []string{"microcontroller", "arduino", "circuit", "transistor", "resistor", "capacitor"}},
	{Name: "mathematics", Keywords: []string{"graph", "function", "triangle", "circle", "polygon", "coordinate"}},
	{Name: "computer_science", Keywords: []string{"algorithm", "data structure", "flowchart", "binary tree", "network"}},
}

type phasePhrases struct {
	Phase   model.TeachingPhase
	Phrases []string
}

// phaseKeywords is checked in order; the first phase with a matching phrase wins.
var phaseKeywords = []phasePhrases{
	{Phase: model.PhaseIntroduction, Phrases: []string{"today we will", "let's learn", "next topic", "now we'll discuss"}},
	{Phase: model.PhaseExplanation, Phrases: []string{"this means", "in other words", "for example", "because"}},
	{Phase: model.PhaseExample, Phrases: []string{"for instance", "let me show", "here's an example", "imagine"}},
	{Phase: model.PhaseReview, Phrases: []string{"remember", "as we learned", "to summarize", "in conclusion"}},
	{Phase: model.PhaseAssessment, Phrases: []string{"quiz", "test", "question", "what is", "can you tell me"}},
}
