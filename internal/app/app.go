// Package app provides the main application logic for the Madhubani drawing surface.
package app

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/ayusman/madhubani/internal/board"
	"github.com/ayusman/madhubani/internal/canvas"
	"github.com/ayusman/madhubani/internal/capture"
	"github.com/ayusman/madhubani/internal/detector"
	"github.com/ayusman/madhubani/internal/menu"
	"github.com/ayusman/madhubani/internal/store"
)

// Pipeline timing constants.
const (
	// IdleFPS is the frame rate when no motion is detected.
	IdleFPS = 5
	// ActiveFPS is the frame rate while motion is present.
	ActiveFPS = 15
	// IdleTimeoutMs is the time in milliseconds to wait before switching back to idle mode.
	IdleTimeoutMs = 2000
	// StreamJPEGQuality is the encode quality for published frames.
	StreamJPEGQuality = 80
	// eventQueueSize caps the cross-boundary actions buffered between frames.
	eventQueueSize = 64
)

// Config holds configuration options for the application.
type Config struct {
	Store        *store.Store
	CameraID     int
	MotionThresh float64
	DwellTime    time.Duration
}

// App owns the frame loop that turns camera frames into board state. The
// loop goroutine is the only writer to the board, the compositor, and the
// zoom memory; everything arriving from other goroutines (HTTP, WebSocket,
// dwell timers, the tray) goes through the event queue and is applied at
// the start of the next tick.
type App struct {
	config   Config
	camera   capture.Camera
	motion   *capture.MotionDetector
	detector detector.Detector
	board    *board.Board
	comp     *canvas.Compositor
	dwell    *menu.Engine

	enabled bool
	mu      sync.RWMutex
	stopCh  chan struct{}
	events  chan func()

	onSelection func(menu.Region)

	// Published copies read by HTTP and WebSocket handlers.
	stateMu   sync.RWMutex
	lastState board.Snapshot
	lastFrame []byte
	frameSeq  uint64
	frames    int64
	strokes   int64
	dissolves int64

	sessionID int64
}

// New creates a new App instance with the given configuration.
func New(config Config) *App {
	motionThreshold := config.MotionThresh
	if motionThreshold <= 0 {
		motionThreshold = 1.0 // Default threshold: 1% pixel change
	}

	a := &App{
		config:  config,
		camera:  capture.NewCamera(config.CameraID),
		motion:  capture.NewMotionDetector(motionThreshold),
		board:   board.New(),
		comp:    canvas.NewCompositor(capture.DefaultWidth, capture.DefaultHeight),
		enabled: true,
		stopCh:  nil,
		events:  make(chan func(), eventQueueSize),
	}

	a.dwell = menu.NewEngine(config.DwellTime, a.handleSelection)
	a.dwell.SetRegions(menu.DefaultRegions())

	// Try MediaPipe first, fall back to mock detector
	if mp, err := detector.NewMediaPipeDetector(detector.DefaultConfig()); err == nil {
		a.detector = mp
		log.Println("Using MediaPipe hand detection")
	} else {
		log.Printf("MediaPipe not available (%v), using mock detector", err)
		a.detector = detector.NewMockDetector()
	}

	a.lastState = a.board.Snapshot()
	return a
}

// SetEnabled enables or disables frame processing. While disabled the loop
// keeps ticking and applying queued events but skips capture entirely.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// IsEnabled returns whether frame processing is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// SetDetector sets the hand detector implementation to use.
func (a *App) SetDetector(d detector.Detector) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.detector = d
}

// SetCamera replaces the capture source. Must be called before Start.
func (a *App) SetCamera(c capture.Camera) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.camera = c
}

// LoadStyle restores the persisted pen settings into the board. A missing
// row keeps the default style.
func (a *App) LoadStyle() error {
	if a.config.Store == nil {
		return nil
	}

	style, err := a.config.Store.Settings().Style()
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	a.board.SetStyle(style)
	a.publishState(a.board.Snapshot())
	return nil
}

// OnSelection registers a callback invoked whenever a dwell selection
// fires. The callback runs on the dwell timer goroutine and must not block.
func (a *App) OnSelection(fn func(menu.Region)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onSelection = fn
}

// OnHover registers a callback invoked when the menu cursor enters or
// leaves a region. The callback runs on the frame loop goroutine.
func (a *App) OnHover(fn func(id string, active bool)) {
	a.dwell.SetHoverFunc(fn)
}

// UpdateSettings validates a pen settings change and queues it for the next
// frame tick. Validation errors are returned immediately; a valid update is
// also persisted once applied.
func (a *App) UpdateSettings(u menu.Update) error {
	if err := u.Validate(); err != nil {
		return err
	}
	a.enqueue(func() {
		a.applyStyle(u.Apply(a.board.Style()))
	})
	return nil
}

// CloseMenu queues the menu close for the next frame tick. Closing also
// cancels any pending dwell selection.
func (a *App) CloseMenu() {
	a.enqueue(func() {
		a.dwell.Reset()
		a.board.CloseMenu()
	})
}

// SetRegions queues a replacement menu layout for the next frame tick.
func (a *App) SetRegions(regions []menu.Region) {
	a.enqueue(func() {
		a.dwell.SetRegions(regions)
	})
}

// Regions returns the current menu layout.
func (a *App) Regions() []menu.Region {
	return a.dwell.Regions()
}

// LatestState returns the most recently published board snapshot.
func (a *App) LatestState() board.Snapshot {
	a.stateMu.RLock()
	defer a.stateMu.RUnlock()
	return a.lastState
}

// LatestFrame returns the most recently composited JPEG frame and its
// sequence number. The buffer is written once per tick and never mutated
// afterwards, so callers may hold it across frames.
func (a *App) LatestFrame() ([]byte, uint64) {
	a.stateMu.RLock()
	defer a.stateMu.RUnlock()
	return a.lastFrame, a.frameSeq
}

// Counters returns the frames processed, strokes finalized, and dissolves
// fired since the pipeline started.
func (a *App) Counters() (frames, strokes, dissolves int64) {
	a.stateMu.RLock()
	defer a.stateMu.RUnlock()
	return a.frames, a.strokes, a.dissolves
}

// Start begins the frame loop.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Don't start if already running
	if a.stopCh != nil {
		return nil
	}

	// Open the camera
	if err := a.camera.Open(); err != nil {
		return err
	}

	// Set initial FPS to idle mode
	a.camera.SetFPS(IdleFPS)

	a.stateMu.Lock()
	a.frames, a.strokes, a.dissolves = 0, 0, 0
	a.stateMu.Unlock()

	if a.config.Store != nil {
		id, err := a.config.Store.Sessions().Begin()
		if err != nil {
			log.Printf("Error opening session record: %v", err)
		} else {
			a.sessionID = id
		}
	}

	// Create stop channel and start the pipeline
	a.stopCh = make(chan struct{})
	go a.runPipeline(a.stopCh)

	log.Println("Drawing pipeline started")
	return nil
}

// Stop halts the frame loop, releases capture resources, and closes the
// session record.
func (a *App) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Signal the pipeline to stop
	if a.stopCh != nil {
		close(a.stopCh)
		a.stopCh = nil
	}

	// Cancel any pending dwell selection
	a.dwell.Reset()

	// Close the camera
	if err := a.camera.Close(); err != nil {
		log.Printf("Error closing camera: %v", err)
	}

	// Close motion detector
	a.motion.Close()

	// Close the hand detector if set
	if a.detector != nil {
		if err := a.detector.Close(); err != nil {
			log.Printf("Error closing detector: %v", err)
		}
	}

	a.recordSession()

	log.Println("Drawing pipeline stopped")
}

// recordSession writes the final counters to the open session row.
func (a *App) recordSession() {
	if a.config.Store == nil || a.sessionID == 0 {
		return
	}

	frames, strokes, dissolves := a.Counters()
	if err := a.config.Store.Sessions().Finish(a.sessionID, frames, strokes, dissolves); err != nil {
		log.Printf("Error closing session record: %v", err)
	}
	a.sessionID = 0
}

// handleSelection receives fired dwell selections on the timer goroutine
// and queues the resulting settings change for the next frame tick.
func (a *App) handleSelection(sel menu.Selection) {
	u, err := sel.Update()
	if err != nil {
		log.Printf("Ignoring menu selection %s: %v", sel.Region.ID, err)
		return
	}

	a.enqueue(func() {
		a.applyStyle(u.Apply(a.board.Style()))
	})

	a.mu.RLock()
	cb := a.onSelection
	a.mu.RUnlock()
	if cb != nil {
		cb(sel.Region)
	}
}

// applyStyle sets the live pen settings and persists them. Runs on the
// frame loop goroutine.
func (a *App) applyStyle(style canvas.Style) {
	a.board.SetStyle(style)
	if a.config.Store != nil {
		if err := a.config.Store.Settings().SaveStyle(style); err != nil {
			log.Printf("Error saving pen style: %v", err)
		}
	}
}

// enqueue buffers an action for the next frame tick without blocking the
// caller.
func (a *App) enqueue(fn func()) {
	select {
	case a.events <- fn:
	default:
		log.Printf("Event queue full, dropping queued action")
	}
}

// drainEvents applies every queued action. Called at the start of each
// frame tick.
func (a *App) drainEvents() {
	for {
		select {
		case fn := <-a.events:
			fn()
		default:
			return
		}
	}
}

// publishState replaces the published snapshot.
func (a *App) publishState(snap board.Snapshot) {
	a.stateMu.Lock()
	a.lastState = snap
	a.stateMu.Unlock()
}

// Camera returns the camera instance.
func (a *App) Camera() capture.Camera {
	return a.camera
}

// MotionDetector returns the motion detector instance.
func (a *App) MotionDetector() *capture.MotionDetector {
	return a.motion
}

// Detector returns the hand detector.
func (a *App) Detector() detector.Detector {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.detector
}
