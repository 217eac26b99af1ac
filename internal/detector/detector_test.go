package detector

import (
	"errors"
	"math"
	"testing"
)

func pixelDist(a, b Point3D, w, h float64) float64 {
	dx := (a.X - b.X) * w
	dy := (a.Y - b.Y) * h
	return math.Sqrt(dx*dx + dy*dy)
}

func TestMockDetector(t *testing.T) {
	t.Run("returns configured hands", func(t *testing.T) {
		d := NewMockDetector()
		d.SetHands([]HandLandmarks{PinchHand(0.5, 0.5)})

		hands, err := d.Detect(nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(hands) != 1 {
			t.Fatalf("expected 1 hand, got %d", len(hands))
		}
	})

	t.Run("empty result is not an error", func(t *testing.T) {
		d := NewMockDetector()
		hands, err := d.Detect(nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(hands) != 0 {
			t.Errorf("expected no hands, got %d", len(hands))
		}
	})

	t.Run("queued responses consumed in order", func(t *testing.T) {
		d := NewMockDetector()
		d.SetHands([]HandLandmarks{FistHand(0.5, 0.5)})
		d.QueueHands([]HandLandmarks{PinchHand(0.2, 0.2)})
		d.QueueHands(nil)

		first, _ := d.Detect(nil)
		if len(first) != 1 {
			t.Fatalf("expected queued hand first, got %d hands", len(first))
		}
		second, _ := d.Detect(nil)
		if len(second) != 0 {
			t.Fatalf("expected queued empty response, got %d hands", len(second))
		}
		third, _ := d.Detect(nil)
		if len(third) != 1 {
			t.Fatalf("expected fallback to static hands, got %d", len(third))
		}
		if d.Calls() != 3 {
			t.Errorf("expected 3 calls, got %d", d.Calls())
		}
	})

	t.Run("configured error", func(t *testing.T) {
		d := NewMockDetector()
		want := errors.New("camera unplugged")
		d.SetError(want)

		_, err := d.Detect(nil)
		if !errors.Is(err, want) {
			t.Errorf("expected configured error, got %v", err)
		}

		d.SetError(nil)
		if _, err := d.Detect(nil); err != nil {
			t.Errorf("expected error cleared, got %v", err)
		}
	})

	t.Run("close", func(t *testing.T) {
		d := NewMockDetector()
		if d.Closed() {
			t.Fatal("expected detector open before Close")
		}
		if err := d.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
		if !d.Closed() {
			t.Error("expected detector closed after Close")
		}
	})
}

func TestPoseFixtureGeometry(t *testing.T) {
	const w, h = 640.0, 480.0

	t.Run("pinch tips nearly touch", func(t *testing.T) {
		hand := PinchHand(0.5, 0.5)
		d := pixelDist(hand.Points[ThumbTip], hand.Points[IndexTip], w, h)
		if d >= 40 {
			t.Errorf("expected thumb-index distance under 40px, got %.1f", d)
		}
	})

	t.Run("open palm reaches past the wrist", func(t *testing.T) {
		hand := OpenPalmHand(0.58, 0.35)
		d := pixelDist(hand.Points[Wrist], hand.Points[IndexTip], w, h)
		if d <= 100 {
			t.Errorf("expected wrist-index distance over 100px, got %.1f", d)
		}
		thumb := pixelDist(hand.Points[ThumbTip], hand.Points[IndexTip], w, h)
		if thumb < 40 {
			t.Errorf("open palm must not read as a pinch, thumb-index %.1f", thumb)
		}
	})

	t.Run("v sign fingers spread", func(t *testing.T) {
		hand := VSignHand(0.56, 0.40)
		spread := pixelDist(hand.Points[IndexTip], hand.Points[MiddleTip], w, h)
		if spread <= 40 {
			t.Errorf("expected index-middle spread over 40px, got %.1f", spread)
		}
	})

	t.Run("fist stays compact", func(t *testing.T) {
		hand := FistHand(0.5, 0.7)
		reach := pixelDist(hand.Points[Wrist], hand.Points[IndexTip], w, h)
		if reach >= 100 {
			t.Errorf("expected curled index under 100px from wrist, got %.1f", reach)
		}
		thumb := pixelDist(hand.Points[ThumbTip], hand.Points[IndexTip], w, h)
		if thumb < 40 {
			t.Errorf("fist must not read as a pinch, thumb-index %.1f", thumb)
		}
	})

	t.Run("all landmarks placed", func(t *testing.T) {
		hands := map[string]HandLandmarks{
			"pinch": PinchHand(0.5, 0.5),
			"palm":  OpenPalmHand(0.5, 0.4),
			"vsign": VSignHand(0.5, 0.4),
			"fist":  FistHand(0.5, 0.6),
		}
		for name, hand := range hands {
			seen := make(map[Point3D]int)
			for i := 0; i < NumLandmarks; i++ {
				seen[hand.Points[i]]++
			}
			if len(seen) != NumLandmarks {
				t.Errorf("%s: expected %d distinct landmarks, got %d", name, NumLandmarks, len(seen))
			}
		}
	})
}

func TestJSONHandConversion(t *testing.T) {
	t.Run("short point list does not panic", func(t *testing.T) {
		h := jsonHand{
			Points:     []jsonPoint{{X: 0.1, Y: 0.2, Z: 0.0}},
			Handedness: "Left",
			Score:      0.9,
		}
		lm := h.toHandLandmarks()
		if lm.Points[Wrist].X != 0.1 {
			t.Errorf("expected wrist X 0.1, got %v", lm.Points[Wrist].X)
		}
		if lm.Points[IndexTip] != (Point3D{}) {
			t.Errorf("expected missing landmarks zeroed, got %+v", lm.Points[IndexTip])
		}
		if lm.Handedness != "Left" || lm.Score != 0.9 {
			t.Errorf("expected metadata carried, got %q %.2f", lm.Handedness, lm.Score)
		}
	})

	t.Run("extra points ignored", func(t *testing.T) {
		pts := make([]jsonPoint, NumLandmarks+4)
		for i := range pts {
			pts[i] = jsonPoint{X: float64(i), Y: float64(i), Z: 0}
		}
		lm := jsonHand{Points: pts}.toHandLandmarks()
		if lm.Points[PinkyTip].X != float64(PinkyTip) {
			t.Errorf("expected last landmark from index %d, got %v", PinkyTip, lm.Points[PinkyTip].X)
		}
	})
}

func TestNewMediaPipeDetectorWithoutScript(t *testing.T) {
	if findPoseScript() != "" {
		t.Skip("pose service installed on this machine")
	}
	if _, err := NewMediaPipeDetector(DefaultConfig()); err == nil {
		t.Error("expected error when pose_service.py is absent")
	}
}
