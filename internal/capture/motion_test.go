package capture

import (
	"testing"

	"gocv.io/x/gocv"
)

func TestNewMotionDetector(t *testing.T) {
	md := NewMotionDetector(2.5)
	defer md.Close()

	if md.threshold != 2.5 {
		t.Errorf("threshold = %f, want 2.5", md.threshold)
	}
	if md.initialized {
		t.Error("detector should not hold a baseline before the first frame")
	}
}

func TestMotionDetector_FirstFrameSeedsBaseline(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	md := NewMotionDetector(1.0)
	defer md.Close()

	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()

	detected, changePercent := md.Detect(&frame)
	if detected {
		t.Error("first frame should not detect motion")
	}
	if changePercent != 0 {
		t.Errorf("first frame changePercent = %f, want 0", changePercent)
	}
	if !md.initialized {
		t.Error("detector should hold a baseline after the first frame")
	}
}

func TestMotionDetector_IdenticalFrames(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	md := NewMotionDetector(1.0)
	defer md.Close()

	a := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer a.Close()
	b := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer b.Close()

	md.Detect(&a)
	if detected, changePercent := md.Detect(&b); detected {
		t.Errorf("identical frames should not detect motion, changePercent = %f", changePercent)
	}
}

func TestMotionDetector_FullFrameChange(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	md := NewMotionDetector(1.0)
	defer md.Close()

	black := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer black.Close()
	white := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer white.Close()
	white.SetTo(gocv.NewScalar(255, 255, 255, 0))

	md.Detect(&black)
	detected, changePercent := md.Detect(&white)
	if !detected {
		t.Errorf("black to white should detect motion, changePercent = %f", changePercent)
	}
	if changePercent < 50.0 {
		t.Errorf("changePercent = %f, expected > 50 for a full-frame change", changePercent)
	}
}

func TestMotionDetector_UnreachableThreshold(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	// changePercent tops out at 100, so a threshold above that never trips.
	md := NewMotionDetector(150.0)
	defer md.Close()

	black := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer black.Close()
	white := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer white.Close()
	white.SetTo(gocv.NewScalar(255, 255, 255, 0))

	md.Detect(&black)
	if detected, changePercent := md.Detect(&white); detected {
		t.Errorf("threshold 150 should never trip, changePercent = %f", changePercent)
	}
}

func TestMotionDetector_Reset(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	md := NewMotionDetector(1.0)
	defer md.Close()

	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()

	md.Detect(&frame)
	if !md.initialized {
		t.Fatal("detector should hold a baseline after the first Detect")
	}

	md.Reset()
	if md.initialized {
		t.Error("detector should not hold a baseline after Reset")
	}
	if !md.prevGray.Empty() {
		t.Error("prevGray should be empty after Reset")
	}

	if detected, _ := md.Detect(&frame); detected {
		t.Error("first frame after Reset should seed, not detect")
	}
}

func TestMotionDetector_SetThreshold(t *testing.T) {
	md := NewMotionDetector(1.0)
	defer md.Close()

	md.SetThreshold(5.0)
	if md.threshold != 5.0 {
		t.Errorf("threshold = %f, want 5.0 after SetThreshold", md.threshold)
	}

	md.SetThreshold(0)
	if md.threshold != 5.0 {
		t.Errorf("threshold = %f, SetThreshold(0) should be ignored", md.threshold)
	}

	md.SetThreshold(-1.0)
	if md.threshold != 5.0 {
		t.Errorf("threshold = %f, negative thresholds should be ignored", md.threshold)
	}
}

func TestMotionDetector_CloseIsReusable(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	md := NewMotionDetector(1.0)

	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()

	md.Detect(&frame)
	md.Close()
	md.Close()

	if detected, _ := md.Detect(&frame); detected {
		t.Error("first frame after Close should seed, not detect")
	}
	md.Close()
}
