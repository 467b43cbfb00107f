package suggest

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"smartclass/internal/model"
)

// DefaultCatalog is the built-in diagram library
func DefaultCatalog() []model.DiagramData {
	return []model.DiagramData{
		{
			ID:          "apple-fruit",
			Title:       "Apple Fruit",
			Description: "Realistic apple with stem and leaf",
			Category:    "biology",
			Tags:        []string{"apple", "fruit", "biology", "plant"},
			ImageURL:    "/realistic-red-apple-with-stem-and-leaf.jpg",
		},
		{
			ID:          "benzene-structure",
			Title:       "Benzene Ring Structure",
			Description: "Perfect hexagonal benzene molecule with alternating double bonds",
			Category:    "chemistry",
			Tags:        []string{"benzene", "organic chemistry", "aromatic", "hexagon"},
			ImageURL:    "/benzene-ring-structure-diagram.jpg",
		},
		{
			ID:          "cell-structure",
			Title:       "Animal Cell Structure",
			Description: "Detailed diagram of animal cell with organelles",
			Category:    "biology",
			Tags:        []string{"cell", "biology", "organelles", "mitochondria"},
			ImageURL:    "/animal-cell-structure-diagram.jpg",
		},
		{
			ID:          "circuit-diagram",
			Title:       "Basic Circuit Diagram",
			Description: "Simple electrical circuit with battery, resistor, and LED",
			Category:    "electronics",
			Tags:        []string{"circuit", "electronics", "electricity", "resistor"},
			ImageURL:    "/basic-electrical-circuit-diagram.jpg",
		},
		{
			ID:          "photosynthesis",
			Title:       "Photosynthesis Process",
			Description: "Visual representation of photosynthesis in plants",
			Category:    "biology",
			Tags:        []string{"photosynthesis", "plants", "biology", "chloroplast"},
			ImageURL:    "/photosynthesis-process-diagram.jpg",
		},
		{
			ID:          "water-cycle",
			Title:       "Water Cycle",
			Description: "Complete water cycle showing evaporation, condensation, and precipitation",
			Category:    "science",
			Tags:        []string{"water", "cycle", "evaporation", "precipitation"},
			ImageURL:    "/water-cycle-diagram.png",
		},
	}
}

type catalogFile struct {
	Diagrams []model.DiagramData `yaml:"diagrams"`
}

// LoadCatalog reads a YAML diagram library. An empty path yields the
// built-in catalog.
func LoadCatalog(path string) ([]model.DiagramData, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}

	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}

	seen := make(map[string]bool, len(f.Diagrams))
	for i, d := range f.Diagrams {
		if d.ID == "" {
			return nil, fmt.Errorf("catalog %s: entry %d has no id", path, i)
		}
		if seen[d.ID] {
			return nil, fmt.Errorf("catalog %s: duplicate id %q", path, d.ID)
		}
		seen[d.ID] = true
	}
	return f.Diagrams, nil
}
