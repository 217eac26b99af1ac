// Package gesture turns per-frame hand landmarks into discrete drawing
// gestures. Classification is a pure function of a single frame; the only
// state carried between frames is the previous two-hand span, threaded
// explicitly by the caller.
package gesture

import "github.com/ayusman/madhubani/internal/detector"

// Classification thresholds, in screen pixels at the video's native
// resolution.
const (
	// PinchMaxDist is the largest thumb-to-index distance that still
	// counts as a pinch.
	PinchMaxDist = 40.0
	// PalmMinReach is the minimum wrist-to-index distance for an open
	// palm, rejecting hands too close to the camera edge or too small.
	PalmMinReach = 100.0
	// VSignMinSpread is the minimum index-to-middle tip distance for a
	// V sign.
	VSignMinSpread = 40.0
	// ExtendedRatio scales the index fingertip's wrist distance to form
	// the per-finger extension threshold.
	ExtendedRatio = 0.8
	// ZoomSpeed converts a change in two-hand span (pixels) into a change
	// in zoom scale.
	ZoomSpeed = 0.005
)

// Kind identifies a recognized gesture.
type Kind int

const (
	Unknown Kind = iota
	Pinch
	OpenPalm
	VSign
	TwoHandZoom
)

func (k Kind) String() string {
	switch k {
	case Pinch:
		return "pinch"
	case OpenPalm:
		return "open_palm"
	case VSign:
		return "v_sign"
	case TwoHandZoom:
		return "two_hand_zoom"
	default:
		return "unknown"
	}
}

// Gesture is the classification of one frame, with the payload fields valid
// for its Kind.
type Gesture struct {
	Kind Kind `json:"kind"`

	// PinchPoint is the screen-space midpoint of thumb and index tips.
	// Valid only when Kind is Pinch.
	PinchPoint Point `json:"pinch_point,omitempty"`

	// Cursor is the screen-space index fingertip, published whenever
	// exactly one hand is in view, whatever the gesture.
	Cursor      Point `json:"cursor,omitempty"`
	CursorValid bool  `json:"cursor_valid"`

	// Span is the index-to-index distance between two hands. ZoomDelta is
	// the scale change derived from the span's movement since the previous
	// two-hand frame, zero on re-entry. Valid only for TwoHandZoom.
	Span      float64 `json:"span,omitempty"`
	ZoomDelta float64 `json:"zoom_delta,omitempty"`
}

// ZoomMemory is the span carried between consecutive two-hand frames. The
// zero value means no previous span, so the next two-hand frame applies no
// delta.
type ZoomMemory struct {
	Span  float64
	Valid bool
}

// Classify maps the frame's landmarks to exactly one gesture. Two detected
// hands always classify as TwoHandZoom regardless of finger poses; a single
// hand is tested against pinch, open palm, and V sign in that order, first
// match winning. The returned ZoomMemory must be passed back on the next
// call; it is cleared whenever fewer than two hands are seen.
func Classify(hands []detector.HandLandmarks, width, height int, prev ZoomMemory) (Gesture, ZoomMemory) {
	switch {
	case len(hands) >= 2:
		return classifyTwoHands(&hands[0], &hands[1], width, height, prev)
	case len(hands) == 1:
		return classifyOneHand(&hands[0], width, height), ZoomMemory{}
	default:
		return Gesture{Kind: Unknown}, ZoomMemory{}
	}
}

func classifyTwoHands(a, b *detector.HandLandmarks, width, height int, prev ZoomMemory) (Gesture, ZoomMemory) {
	tipA := LandmarkToScreen(a.Points[detector.IndexTip], width, height)
	tipB := LandmarkToScreen(b.Points[detector.IndexTip], width, height)
	span := Dist(tipA, tipB)

	g := Gesture{Kind: TwoHandZoom, Span: span}
	if prev.Valid {
		g.ZoomDelta = (span - prev.Span) * ZoomSpeed
	}
	return g, ZoomMemory{Span: span, Valid: true}
}

func classifyOneHand(hand *detector.HandLandmarks, width, height int) Gesture {
	wrist := LandmarkToScreen(hand.Points[detector.Wrist], width, height)
	thumb := LandmarkToScreen(hand.Points[detector.ThumbTip], width, height)
	index := LandmarkToScreen(hand.Points[detector.IndexTip], width, height)
	middle := LandmarkToScreen(hand.Points[detector.MiddleTip], width, height)
	ring := LandmarkToScreen(hand.Points[detector.RingTip], width, height)
	pinky := LandmarkToScreen(hand.Points[detector.PinkyTip], width, height)

	// A finger counts as extended when its tip is farther from the wrist
	// than 0.8x the index tip's own wrist distance. The thumb is never
	// tested this way; pinch uses an absolute distance instead.
	indexReach := Dist(index, wrist)
	extended := func(tip Point) bool {
		return Dist(tip, wrist) > ExtendedRatio*indexReach
	}

	g := Gesture{Cursor: index, CursorValid: true}
	switch {
	case Dist(thumb, index) < PinchMaxDist && !extended(middle):
		g.Kind = Pinch
		g.PinchPoint = Midpoint(thumb, index)
	case extended(middle) && extended(ring) && extended(pinky) && indexReach > PalmMinReach:
		g.Kind = OpenPalm
	case Dist(index, middle) > VSignMinSpread && !extended(ring) && !extended(pinky):
		g.Kind = VSign
	default:
		g.Kind = Unknown
	}
	return g
}
