package app

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/madhubani/internal/canvas"
	"github.com/ayusman/madhubani/internal/capture"
	"github.com/ayusman/madhubani/internal/detector"
	"github.com/ayusman/madhubani/internal/gesture"
	"github.com/ayusman/madhubani/internal/menu"
	"github.com/ayusman/madhubani/internal/store"
)

func newTestApp(t *testing.T, config Config) (*App, *detector.MockDetector) {
	t.Helper()

	a := New(config)
	mock := detector.NewMockDetector()
	a.SetDetector(mock)
	return a, mock
}

func testFrame(t *testing.T) *gocv.Mat {
	t.Helper()

	mat := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	t.Cleanup(func() { mat.Close() })
	return &mat
}

func TestStep_PinchDrawsAndPublishes(t *testing.T) {
	a, mock := newTestApp(t, Config{})
	mock.SetHands([]detector.HandLandmarks{detector.PinchHand(0.5, 0.5)})

	frame := testFrame(t)
	var zoom gesture.ZoomMemory
	for i := 0; i < 3; i++ {
		zoom = a.step(frame, zoom)
	}

	state := a.LatestState()
	if state.Mode != "drawing" {
		t.Errorf("expected mode drawing, got %s", state.Mode)
	}
	if state.Points != 3 {
		t.Errorf("expected 3 points, got %d", state.Points)
	}
	if state.Strokes != 0 {
		t.Errorf("expected 0 finalized strokes, got %d", state.Strokes)
	}
	if state.Cursor == nil {
		t.Error("expected a published cursor for a single hand")
	}

	buf, seq := a.LatestFrame()
	if seq != 3 {
		t.Errorf("expected frame sequence 3, got %d", seq)
	}
	if len(buf) < 2 || buf[0] != 0xff || buf[1] != 0xd8 {
		t.Error("expected published frame to be JPEG encoded")
	}

	frames, strokes, dissolves := a.Counters()
	if frames != 3 || strokes != 0 || dissolves != 0 {
		t.Errorf("expected counters 3/0/0, got %d/%d/%d", frames, strokes, dissolves)
	}
}

func TestStep_HandLossFinalizesStroke(t *testing.T) {
	a, mock := newTestApp(t, Config{})
	frame := testFrame(t)

	var zoom gesture.ZoomMemory
	mock.SetHands([]detector.HandLandmarks{detector.PinchHand(0.5, 0.5)})
	zoom = a.step(frame, zoom)
	zoom = a.step(frame, zoom)

	mock.SetHands(nil)
	a.step(frame, zoom)

	state := a.LatestState()
	if state.Mode != "idle" {
		t.Errorf("expected mode idle after hand loss, got %s", state.Mode)
	}
	if state.Strokes != 1 {
		t.Errorf("expected 1 finalized stroke, got %d", state.Strokes)
	}

	_, strokes, _ := a.Counters()
	if strokes != 1 {
		t.Errorf("expected stroke counter 1, got %d", strokes)
	}
}

func TestStep_DetectorErrorTreatedAsNoHands(t *testing.T) {
	a, mock := newTestApp(t, Config{})
	frame := testFrame(t)

	var zoom gesture.ZoomMemory
	mock.SetHands([]detector.HandLandmarks{detector.PinchHand(0.5, 0.5)})
	zoom = a.step(frame, zoom)

	mock.SetError(errors.New("pose service down"))
	a.step(frame, zoom)

	state := a.LatestState()
	if state.Mode != "idle" {
		t.Errorf("expected mode idle after detector error, got %s", state.Mode)
	}
	if state.Strokes != 1 {
		t.Errorf("expected the active stroke to finalize, got %d strokes", state.Strokes)
	}

	frames, _, _ := a.Counters()
	if frames != 2 {
		t.Errorf("expected both frames counted, got %d", frames)
	}
}

func TestStep_VSignDissolves(t *testing.T) {
	a, mock := newTestApp(t, Config{})
	frame := testFrame(t)

	var zoom gesture.ZoomMemory
	mock.SetHands([]detector.HandLandmarks{detector.PinchHand(0.5, 0.5)})
	for i := 0; i < 3; i++ {
		zoom = a.step(frame, zoom)
	}
	mock.SetHands([]detector.HandLandmarks{detector.FistHand(0.5, 0.5)})
	zoom = a.step(frame, zoom)

	mock.SetHands([]detector.HandLandmarks{detector.VSignHand(0.5, 0.5)})
	a.step(frame, zoom)

	state := a.LatestState()
	if state.Strokes != 0 || state.Points != 0 {
		t.Errorf("expected empty board after dissolve, got %d strokes %d points", state.Strokes, state.Points)
	}
	if state.Particles != 2 {
		t.Errorf("expected 2 particles from a 3 point stroke, got %d", state.Particles)
	}

	_, _, dissolves := a.Counters()
	if dissolves != 1 {
		t.Errorf("expected dissolve counter 1, got %d", dissolves)
	}
}

func TestQueuedEventsApplyAtNextTick(t *testing.T) {
	a, _ := newTestApp(t, Config{})

	width := 9.0
	if err := a.UpdateSettings(menu.Update{Width: &width}); err != nil {
		t.Fatalf("UpdateSettings() error = %v", err)
	}

	if got := a.board.Style().Width; got != 4 {
		t.Errorf("expected update to stay queued, style width changed to %v", got)
	}

	a.drainEvents()

	if got := a.board.Style().Width; got != 9 {
		t.Errorf("expected width 9 after drain, got %v", got)
	}
}

func TestUpdateSettings_RejectsInvalid(t *testing.T) {
	a, _ := newTestApp(t, Config{})

	bad := "not-a-color"
	if err := a.UpdateSettings(menu.Update{Color: &bad}); err == nil {
		t.Fatal("expected validation error for bad color")
	}

	a.drainEvents()
	if got := a.board.Style().Color; got != canvas.DefaultStyle().Color {
		t.Errorf("expected style untouched, got color %s", got)
	}
}

func TestMenuSelectionThroughDwell(t *testing.T) {
	a, mock := newTestApp(t, Config{DwellTime: 60 * time.Millisecond})
	frame := testFrame(t)

	// Selections arrive on the dwell timer goroutine.
	var mu sync.Mutex
	var selected []string
	a.OnSelection(func(r menu.Region) {
		mu.Lock()
		selected = append(selected, r.ID)
		mu.Unlock()
	})

	// Index tip at screen (56, 164), the center of the eraser region in the
	// default layout.
	palm := detector.OpenPalmHand(1-56.0/640, 164.0/480)
	mock.SetHands([]detector.HandLandmarks{palm})

	var zoom gesture.ZoomMemory
	zoom = a.step(frame, zoom)

	if state := a.LatestState(); state.Mode != "menu_open" {
		t.Fatalf("expected mode menu_open, got %s", state.Mode)
	}

	time.Sleep(150 * time.Millisecond)

	mu.Lock()
	got := append([]string(nil), selected...)
	mu.Unlock()
	if len(got) != 1 || got[0] != "tool-eraser" {
		t.Fatalf("expected one tool-eraser selection, got %v", got)
	}

	// The selection applies at the start of the next tick.
	a.drainEvents()
	a.step(frame, zoom)

	state := a.LatestState()
	if state.Style.Tool != canvas.ToolEraser {
		t.Errorf("expected eraser selected, got %s", state.Style.Tool)
	}
	if state.Mode != "menu_open" {
		t.Errorf("expected menu to stay open after selection, got %s", state.Mode)
	}
}

func TestCloseMenuEvent(t *testing.T) {
	a, mock := newTestApp(t, Config{})
	frame := testFrame(t)

	mock.SetHands([]detector.HandLandmarks{detector.OpenPalmHand(0.5, 0.4)})
	var zoom gesture.ZoomMemory
	zoom = a.step(frame, zoom)

	if state := a.LatestState(); state.Mode != "menu_open" {
		t.Fatalf("expected mode menu_open, got %s", state.Mode)
	}

	a.CloseMenu()
	a.drainEvents()

	mock.SetHands(nil)
	a.step(frame, zoom)

	if state := a.LatestState(); state.Mode != "idle" {
		t.Errorf("expected mode idle after close event, got %s", state.Mode)
	}
}

func TestStylePersistsAcrossApps(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := store.New(dbPath)
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer st.Close()

	a1, _ := newTestApp(t, Config{Store: st})
	color := "#dc2626"
	if err := a1.UpdateSettings(menu.Update{Color: &color}); err != nil {
		t.Fatalf("UpdateSettings() error = %v", err)
	}
	a1.drainEvents()

	a2, _ := newTestApp(t, Config{Store: st})
	if err := a2.LoadStyle(); err != nil {
		t.Fatalf("LoadStyle() error = %v", err)
	}
	if got := a2.LatestState().Style.Color; got != color {
		t.Errorf("expected restored color %s, got %s", color, got)
	}
}

func TestApp_Pipeline_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := store.New(dbPath)
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer st.Close()

	a := New(Config{Store: st})

	mat := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer mat.Close()
	mockCamera := capture.NewMockCamera([]*gocv.Mat{&mat}, true)
	a.SetCamera(mockCamera)

	mock := detector.NewMockDetector()
	mock.SetHands([]detector.HandLandmarks{detector.PinchHand(0.5, 0.5)})
	a.SetDetector(mock)

	if err := a.Start(); err != nil {
		t.Fatalf("app.Start() error = %v", err)
	}

	time.Sleep(500 * time.Millisecond)
	a.Stop()

	frames, _, _ := a.Counters()
	if frames == 0 {
		t.Error("expected the pipeline to process frames")
	}
	if mockCamera.IsOpen() {
		t.Error("expected camera closed after Stop")
	}

	sessions, err := st.Sessions().Recent(1)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("expected 1 session record, got %d", len(sessions))
	}
	if sessions[0].EndedAt == nil {
		t.Error("expected session record closed")
	}
	if sessions[0].Frames != frames {
		t.Errorf("expected session frames %d, got %d", frames, sessions[0].Frames)
	}
}
