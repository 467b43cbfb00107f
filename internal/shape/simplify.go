package shape

import (
	"math"

	"smartclass/internal/model"
)

// Simplify reduces a path with the Douglas-Peucker algorithm: the point
// farthest from the first-last chord is kept when it lies more than tolerance
// away, and both halves are simplified recursively.
func Simplify(points []model.Point, tolerance float64) []model.Point {
	if len(points) <= 2 {
		out := make([]model.Point, len(points))
		copy(out, points)
		return out
	}

	first, last := points[0], points[len(points)-1]
	maxDistance, index := 0.0, 0
	for i := 1; i < len(points)-1; i++ {
		d := PerpendicularDistance(points[i], first, last)
		if d > maxDistance {
			maxDistance = d
			index = i
		}
	}

	if maxDistance > tolerance {
		left := Simplify(points[:index+1], tolerance)
		right := Simplify(points[index:], tolerance)
		return append(left[:len(left)-1], right...)
	}
	return []model.Point{first, last}
}

// PerpendicularDistance is the distance from p to the infinite line through
// a and b, or to a itself when a and b coincide.
func PerpendicularDistance(p, a, b model.Point) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	length := math.Hypot(dx, dy)
	if length == 0 {
		return distance(p, a)
	}
	return math.Abs(dy*p.X-dx*p.Y+b.X*a.Y-b.Y*a.X) / length
}
