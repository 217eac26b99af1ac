// Package canvas owns the drawing surface: the world/screen view transform,
// the stroke model, and the layer compositor that rasterizes both onto the
// camera frame.
package canvas

import "github.com/ayusman/madhubani/internal/gesture"

// Zoom scale bounds. Every write to the scale is clamped to this range.
const (
	MinScale = 0.5
	MaxScale = 3.0
)

// Transform maps between world space, where strokes are stored, and screen
// space, where gestures and rendering live. Strokes stay visually anchored
// under zoom because only the transform changes.
type Transform struct {
	scale   float64
	offsetX float64
	offsetY float64
}

// NewTransform returns an identity transform at scale 1.
func NewTransform() *Transform {
	return &Transform{scale: 1}
}

// Scale returns the current zoom scale.
func (t *Transform) Scale() float64 {
	return t.scale
}

// SetScale sets the zoom scale, clamped to [MinScale, MaxScale].
func (t *Transform) SetScale(s float64) {
	switch {
	case s < MinScale:
		t.scale = MinScale
	case s > MaxScale:
		t.scale = MaxScale
	default:
		t.scale = s
	}
}

// ZoomBy adjusts the scale by delta, clamped like SetScale.
func (t *Transform) ZoomBy(delta float64) {
	t.SetScale(t.scale + delta)
}

// Offset returns the current pan offset. No gesture drives it; it stays
// where it was last set.
func (t *Transform) Offset() (x, y float64) {
	return t.offsetX, t.offsetY
}

// SetOffset sets the pan offset.
func (t *Transform) SetOffset(x, y float64) {
	t.offsetX = x
	t.offsetY = y
}

// ToWorld converts a screen-space point to world space.
func (t *Transform) ToWorld(p gesture.Point) gesture.Point {
	return gesture.Point{
		X: (p.X - t.offsetX) / t.scale,
		Y: (p.Y - t.offsetY) / t.scale,
	}
}

// ToScreen converts a world-space point to screen space.
func (t *Transform) ToScreen(p gesture.Point) gesture.Point {
	return gesture.Point{
		X: p.X*t.scale + t.offsetX,
		Y: p.Y*t.scale + t.offsetY,
	}
}
