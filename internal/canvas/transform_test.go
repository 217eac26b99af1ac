package canvas

import (
	"math"
	"testing"

	"github.com/ayusman/madhubani/internal/gesture"
)

func TestTransformDefaults(t *testing.T) {
	tf := NewTransform()
	if tf.Scale() != 1 {
		t.Errorf("expected scale 1, got %v", tf.Scale())
	}
	if x, y := tf.Offset(); x != 0 || y != 0 {
		t.Errorf("expected zero offset, got (%v, %v)", x, y)
	}
	p := gesture.Point{X: 123, Y: 456}
	if got := tf.ToWorld(p); got != p {
		t.Errorf("expected identity mapping, got %+v", got)
	}
}

func TestScaleClamping(t *testing.T) {
	tests := []struct {
		set  float64
		want float64
	}{
		{0.1, MinScale},
		{0.5, 0.5},
		{1.7, 1.7},
		{3.0, 3.0},
		{12, MaxScale},
		{-4, MinScale},
	}
	for _, tt := range tests {
		tf := NewTransform()
		tf.SetScale(tt.set)
		if tf.Scale() != tt.want {
			t.Errorf("SetScale(%v): expected %v, got %v", tt.set, tt.want, tf.Scale())
		}
	}
}

func TestZoomByStaysClamped(t *testing.T) {
	tf := NewTransform()
	deltas := []float64{0.4, 0.9, 2.5, -1.1, -9, 0.05, 7, -0.2}
	for _, d := range deltas {
		tf.ZoomBy(d)
		if s := tf.Scale(); s < MinScale || s > MaxScale {
			t.Fatalf("scale %v escaped [%v, %v] after delta %v", s, MinScale, MaxScale, d)
		}
	}
}

func TestWorldScreenMapping(t *testing.T) {
	tf := NewTransform()
	tf.SetScale(2)
	tf.SetOffset(10, 20)

	world := tf.ToWorld(gesture.Point{X: 110, Y: 220})
	if world.X != 50 || world.Y != 100 {
		t.Errorf("expected world (50, 100), got (%v, %v)", world.X, world.Y)
	}

	screen := tf.ToScreen(gesture.Point{X: 50, Y: 100})
	if screen.X != 110 || screen.Y != 220 {
		t.Errorf("expected screen (110, 220), got (%v, %v)", screen.X, screen.Y)
	}
}

func TestWorldScreenRoundTrip(t *testing.T) {
	tf := NewTransform()
	tf.SetScale(1.75)
	tf.SetOffset(-33, 12.5)

	points := []gesture.Point{
		{X: 0, Y: 0},
		{X: 640, Y: 480},
		{X: -17.2, Y: 301.9},
	}
	for _, p := range points {
		back := tf.ToScreen(tf.ToWorld(p))
		if math.Abs(back.X-p.X) > 1e-9 || math.Abs(back.Y-p.Y) > 1e-9 {
			t.Errorf("round trip moved %+v to %+v", p, back)
		}
	}
}
