// Package shape classifies and scores freehand closed paths.
// All functions are pure and total over their input.
package shape

import (
	"math"

	"smartclass/internal/model"
)

const (
	sideWeight  = 0.6
	angleWeight = 0.4
)

// CalculateRegularity scores how close a polygon is to its regular form, in [0,1].
// Fewer than 3 points score 0.
func CalculateRegularity(points []model.Point) float64 {
	n := len(points)
	if n < 3 {
		return 0
	}

	sides := sideLengths(points)
	angles := interiorAngles(points)

	avgSide := mean(sides)
	sideRegularity := 0.0
	if avgSide > 0 {
		sideRegularity = 1 - math.Min(variance(sides)/(avgSide*avgSide), 1)
	}

	expectedAngle := float64(n-2) * 180 / float64(n)
	angleRegularity := 1 - math.Min(variance(angles)/(expectedAngle*expectedAngle), 1)

	return sideRegularity*sideWeight + angleRegularity*angleWeight
}

// sideLengths includes the closing edge from the last point back to the first.
func sideLengths(points []model.Point) []float64 {
	sides := make([]float64, len(points))
	for i := range points {
		sides[i] = distance(points[i], points[(i+1)%len(points)])
	}
	return sides
}

func interiorAngles(points []model.Point) []float64 {
	n := len(points)
	angles := make([]float64, n)
	for i := range points {
		prev := points[(i-1+n)%n]
		next := points[(i+1)%n]
		angles[i] = angleAt(prev, points[i], next)
	}
	return angles
}

// angleAt returns the angle in degrees at vertex b between rays b->a and b->c.
func angleAt(a, b, c model.Point) float64 {
	v1x, v1y := a.X-b.X, a.Y-b.Y
	v2x, v2y := c.X-b.X, c.Y-b.Y

	mag := math.Hypot(v1x, v1y) * math.Hypot(v2x, v2y)
	if mag == 0 {
		return 0
	}
	cos := (v1x*v2x + v1y*v2y) / mag
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos) * 180 / math.Pi
}

func distance(a, b model.Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// variance is the population variance.
func variance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	sum := 0.0
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return sum / float64(len(values))
}
