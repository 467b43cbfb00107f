package shape

import (
	"math"
	"strings"

	"smartclass/internal/model"
)

// RegularityThreshold is the score below which a shape is offered a correction
const RegularityThreshold = 0.85

const (
	circleMinPoints     = 8
	circleVarianceLimit = 0.1
	defaultConfidence   = 0.8
)

// DetectShapeType maps a vertex count to a shape type. This is a coarse
// heuristic, not shape recognition: any 3-point path is a triangle.
func DetectShapeType(points []model.Point) model.ShapeType {
	switch n := len(points); {
	case n < 3:
		return model.ShapeLine
	case n == 3:
		return model.ShapeTriangle
	case n == 4:
		return model.ShapeRectangle
	case n == 6:
		return model.ShapeHexagon
	}
	if IsCircle(points) {
		return model.ShapeCircle
	}
	return model.ShapePolygon
}

// IsCircle reports whether at least 8 points sit at a near-constant distance
// from their centroid.
func IsCircle(points []model.Point) bool {
	if len(points) < circleMinPoints {
		return false
	}

	c := Centroid(points)
	distances := make([]float64, len(points))
	for i, p := range points {
		distances[i] = distance(p, c)
	}

	avg := mean(distances)
	if avg == 0 {
		return false
	}
	return variance(distances)/(avg*avg) < circleVarianceLimit
}

// Centroid is the arithmetic mean of the points
func Centroid(points []model.Point) model.Point {
	if len(points) == 0 {
		return model.Point{}
	}
	var c model.Point
	for _, p := range points {
		c.X += p.X
		c.Y += p.Y
	}
	c.X /= float64(len(points))
	c.Y /= float64(len(points))
	return c
}

// AnalyzeShape scores the shape and, when the lecture context names the
// shape's subject, proposes a correction for irregular drawings.
func AnalyzeShape(s model.Shape, context string) model.ShapeAnalysis {
	regularity := CalculateRegularity(s.Points)
	detected := DetectShapeType(s.Points)

	analysis := model.ShapeAnalysis{
		Regularity: regularity,
		ShapeType:  detected,
		Confidence: defaultConfidence,
	}

	ctx := strings.ToLower(context)
	switch {
	case strings.Contains(ctx, "benzene") && detected == model.ShapeHexagon:
		if regularity < RegularityThreshold {
			analysis.SuggestedCorrection = "Show perfect benzene structure"
			analysis.Confidence = 0.94
		}
	case strings.Contains(ctx, "circle") && detected == model.ShapeCircle:
		if regularity < RegularityThreshold {
			analysis.SuggestedCorrection = "Show perfect circle"
			analysis.Confidence = 0.9
		}
	}
	return analysis
}

// RegularPolygon returns n vertices of a regular polygon centred on c with
// circumradius r, starting at angle phase (radians).
func RegularPolygon(c model.Point, r float64, n int, phase float64) []model.Point {
	if n < 3 {
		return nil
	}
	points := make([]model.Point, n)
	for i := range points {
		theta := phase + 2*math.Pi*float64(i)/float64(n)
		points[i] = model.Point{X: c.X + r*math.Cos(theta), Y: c.Y + r*math.Sin(theta)}
	}
	return points
}
