package gesture

import (
	"math"

	"github.com/ayusman/madhubani/internal/detector"
)

// Point is a 2D position in pixels. Whether it lives in screen space or
// world space depends on context; the two are related by canvas.Transform
// and are never mixed implicitly.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Dist returns the Euclidean distance between two points.
func Dist(a, b Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Midpoint returns the point halfway between a and b.
func Midpoint(a, b Point) Point {
	return Point{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
}

// LandmarkToScreen maps a normalized landmark to screen pixels, mirroring
// horizontally so the view behaves like a mirror.
func LandmarkToScreen(p detector.Point3D, width, height int) Point {
	return Point{
		X: (1 - p.X) * float64(width),
		Y: p.Y * float64(height),
	}
}
