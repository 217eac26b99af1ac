package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a Detector that returns canned landmarks for testing.
type MockDetector struct {
	mu     sync.Mutex
	hands  []HandLandmarks
	queue  [][]HandLandmarks
	err    error
	calls  int
	closed bool
}

// NewMockDetector creates a mock detector with no hands in view.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the response returned by every subsequent Detect call,
// until overridden or a queued response takes precedence.
func (d *MockDetector) SetHands(hands []HandLandmarks) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.hands = hands
}

// QueueHands appends a one-shot response. Queued responses are consumed in
// order before the static SetHands response is used.
func (d *MockDetector) QueueHands(hands []HandLandmarks) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.queue = append(d.queue, hands)
}

// SetError makes Detect return err until cleared with SetError(nil).
func (d *MockDetector) SetError(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.err = err
}

// Detect returns the configured landmarks.
func (d *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.calls++
	if d.err != nil {
		return nil, d.err
	}
	if len(d.queue) > 0 {
		hands := d.queue[0]
		d.queue = d.queue[1:]
		return hands, nil
	}
	return d.hands, nil
}

// Calls reports how many times Detect has been invoked.
func (d *MockDetector) Calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

// Close marks the detector closed.
func (d *MockDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (d *MockDetector) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// Pose fixtures below place a full 21-point hand at a normalized anchor
// position. Coordinates are chosen so the geometric tests in the gesture
// package hold at 640x480 and any larger frame.

// PinchHand returns a hand pinching with the thumb and index tips nearly
// touching, centered at the normalized point (x, y).
func PinchHand(x, y float64) HandLandmarks {
	h := HandLandmarks{Handedness: "Right", Score: 0.97}
	pts := map[int][2]float64{
		Wrist:     {x + 0.02, y + 0.30},
		ThumbCMC:  {x + 0.035, y + 0.24},
		ThumbMCP:  {x + 0.03, y + 0.17},
		ThumbIP:   {x + 0.02, y + 0.09},
		ThumbTip:  {x + 0.015, y + 0.005},
		IndexMCP:  {x - 0.01, y + 0.16},
		IndexPIP:  {x - 0.015, y + 0.10},
		IndexDIP:  {x - 0.015, y + 0.04},
		IndexTip:  {x - 0.015, y - 0.005},
		MiddleMCP: {x, y + 0.17},
		MiddlePIP: {x + 0.005, y + 0.11},
		MiddleDIP: {x + 0.01, y + 0.12},
		MiddleTip: {x + 0.01, y + 0.13},
		RingMCP:   {x + 0.015, y + 0.18},
		RingPIP:   {x + 0.025, y + 0.12},
		RingDIP:   {x + 0.03, y + 0.13},
		RingTip:   {x + 0.035, y + 0.14},
		PinkyMCP:  {x + 0.03, y + 0.20},
		PinkyPIP:  {x + 0.045, y + 0.15},
		PinkyDIP:  {x + 0.055, y + 0.155},
		PinkyTip:  {x + 0.06, y + 0.16},
	}
	fillPoints(&h, pts)
	return h
}

// OpenPalmHand returns a hand with all fingers spread, index tip at the
// normalized point (x, y).
func OpenPalmHand(x, y float64) HandLandmarks {
	h := HandLandmarks{Handedness: "Right", Score: 0.98}
	pts := map[int][2]float64{
		Wrist:     {x - 0.08, y + 0.45},
		ThumbCMC:  {x - 0.13, y + 0.40},
		ThumbMCP:  {x - 0.17, y + 0.34},
		ThumbIP:   {x - 0.20, y + 0.30},
		ThumbTip:  {x - 0.22, y + 0.27},
		IndexMCP:  {x - 0.06, y + 0.17},
		IndexPIP:  {x - 0.04, y + 0.10},
		IndexDIP:  {x - 0.02, y + 0.05},
		IndexTip:  {x, y},
		MiddleMCP: {x - 0.105, y + 0.16},
		MiddlePIP: {x - 0.10, y + 0.08},
		MiddleDIP: {x - 0.095, y + 0.02},
		MiddleTip: {x - 0.09, y - 0.03},
		RingMCP:   {x - 0.15, y + 0.17},
		RingPIP:   {x - 0.155, y + 0.09},
		RingDIP:   {x - 0.16, y + 0.03},
		RingTip:   {x - 0.165, y - 0.01},
		PinkyMCP:  {x - 0.195, y + 0.19},
		PinkyPIP:  {x - 0.21, y + 0.12},
		PinkyDIP:  {x - 0.215, y + 0.07},
		PinkyTip:  {x - 0.22, y + 0.04},
	}
	fillPoints(&h, pts)
	return h
}

// VSignHand returns a hand with index and middle fingers raised and spread,
// index tip at the normalized point (x, y).
func VSignHand(x, y float64) HandLandmarks {
	h := HandLandmarks{Handedness: "Right", Score: 0.96}
	pts := map[int][2]float64{
		Wrist:     {x - 0.06, y + 0.40},
		ThumbCMC:  {x - 0.01, y + 0.33},
		ThumbMCP:  {x + 0.02, y + 0.28},
		ThumbIP:   {x + 0.045, y + 0.25},
		ThumbTip:  {x + 0.06, y + 0.22},
		IndexMCP:  {x - 0.035, y + 0.24},
		IndexPIP:  {x - 0.02, y + 0.16},
		IndexDIP:  {x - 0.01, y + 0.08},
		IndexTip:  {x, y},
		MiddleMCP: {x - 0.075, y + 0.24},
		MiddlePIP: {x - 0.09, y + 0.16},
		MiddleDIP: {x - 0.105, y + 0.08},
		MiddleTip: {x - 0.12, y},
		RingMCP:   {x - 0.11, y + 0.25},
		RingPIP:   {x - 0.105, y + 0.20},
		RingDIP:   {x - 0.10, y + 0.22},
		RingTip:   {x - 0.10, y + 0.24},
		PinkyMCP:  {x - 0.145, y + 0.27},
		PinkyPIP:  {x - 0.14, y + 0.22},
		PinkyDIP:  {x - 0.14, y + 0.24},
		PinkyTip:  {x - 0.14, y + 0.26},
	}
	fillPoints(&h, pts)
	return h
}

// FistHand returns a closed fist with the wrist at the normalized point
// (x, y). It matches none of the recognized poses.
func FistHand(x, y float64) HandLandmarks {
	h := HandLandmarks{Handedness: "Right", Score: 0.95}
	pts := map[int][2]float64{
		Wrist:     {x, y},
		ThumbCMC:  {x + 0.03, y - 0.05},
		ThumbMCP:  {x + 0.05, y - 0.08},
		ThumbIP:   {x + 0.06, y - 0.065},
		ThumbTip:  {x + 0.07, y - 0.05},
		IndexMCP:  {x - 0.015, y - 0.155},
		IndexPIP:  {x - 0.012, y - 0.125},
		IndexDIP:  {x - 0.012, y - 0.10},
		IndexTip:  {x - 0.01, y - 0.08},
		MiddleMCP: {x + 0.005, y - 0.16},
		MiddlePIP: {x + 0.006, y - 0.13},
		MiddleDIP: {x + 0.006, y - 0.105},
		MiddleTip: {x + 0.005, y - 0.085},
		RingMCP:   {x + 0.023, y - 0.15},
		RingPIP:   {x + 0.024, y - 0.12},
		RingDIP:   {x + 0.022, y - 0.10},
		RingTip:   {x + 0.02, y - 0.08},
		PinkyMCP:  {x + 0.04, y - 0.135},
		PinkyPIP:  {x + 0.042, y - 0.11},
		PinkyDIP:  {x + 0.04, y - 0.09},
		PinkyTip:  {x + 0.035, y - 0.07},
	}
	fillPoints(&h, pts)
	return h
}

func fillPoints(h *HandLandmarks, pts map[int][2]float64) {
	for idx, p := range pts {
		h.Points[idx] = Point3D{X: p[0], Y: p[1], Z: 0}
	}
}
