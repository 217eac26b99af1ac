package app

import (
	"log"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/madhubani/internal/board"
	"github.com/ayusman/madhubani/internal/canvas"
	"github.com/ayusman/madhubani/internal/gesture"
)

// runPipeline is the frame loop. Each tick:
//
// 1. Apply queued cross-boundary events (settings, menu close, layouts)
// 2. Read a frame and let motion pick the frame rate
// 3. Detect hands and classify the frame's gesture
// 4. Step the board state machine and the particle simulation
// 5. Track the menu cursor while the menu is open
// 6. Render, composite, and publish the frame
//
// Motion only governs the frame rate. Detection still runs on still
// frames: a pinch held perfectly still has to keep its stroke alive, so
// stillness must never read as an empty frame.
func (a *App) runPipeline(stopCh <-chan struct{}) {
	// Zoom span memory threaded through classification frame to frame.
	var zoom gesture.ZoomMemory

	activeMode := false
	lastMotionTime := time.Now()
	frameInterval := time.Second / time.Duration(IdleFPS)

	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			a.drainEvents()

			// Skip capture entirely while disabled
			if !a.IsEnabled() {
				continue
			}

			frame, err := a.camera.ReadFrame()
			if err != nil {
				log.Printf("Error reading frame: %v", err)
				continue
			}

			motionDetected, _ := a.motion.Detect(frame)
			if motionDetected {
				lastMotionTime = time.Now()

				if !activeMode {
					activeMode = true
					a.camera.SetFPS(ActiveFPS)
					frameInterval = time.Second / time.Duration(ActiveFPS)
					ticker.Reset(frameInterval)
					log.Println("Switched to active frame rate")
				}
			} else if activeMode {
				if time.Since(lastMotionTime) > time.Duration(IdleTimeoutMs)*time.Millisecond {
					activeMode = false
					a.camera.SetFPS(IdleFPS)
					frameInterval = time.Second / time.Duration(IdleFPS)
					ticker.Reset(frameInterval)
					log.Println("Switched to idle frame rate")
				}
			}

			zoom = a.step(frame, zoom)
			frame.Close()
		}
	}
}

// step processes one captured frame and returns the zoom memory for the
// next tick.
func (a *App) step(frame *gocv.Mat, zoom gesture.ZoomMemory) gesture.ZoomMemory {
	width, height := frame.Cols(), frame.Rows()
	if w, h := a.comp.Size(); w != width || h != height {
		if err := a.comp.Resize(width, height); err != nil {
			log.Printf("Error resizing compositor to %dx%d: %v", width, height, err)
			return zoom
		}
	}

	hands, err := a.Detector().Detect(frame)
	if err != nil {
		// A failed detection counts as a frame with no hands.
		log.Printf("Error detecting hands: %v", err)
		hands = nil
	}

	g, next := gesture.Classify(hands, width, height, zoom)

	hadInk := a.board.Model().PointCount() > 0
	strokesBefore := len(a.board.Model().Strokes())

	a.board.Step(g)

	finalized := len(a.board.Model().Strokes()) > strokesBefore
	dissolved := g.Kind == gesture.VSign && hadInk

	if a.board.Mode() == board.MenuOpen {
		cur, ok := a.board.Cursor()
		a.dwell.Track(cur, ok)
	}

	a.board.StepParticles()

	snap := a.board.Snapshot()
	jpeg := a.render(frame, g)

	a.stateMu.Lock()
	a.lastState = snap
	if jpeg != nil {
		a.lastFrame = jpeg
		a.frameSeq++
	}
	a.frames++
	if finalized {
		a.strokes++
	}
	if dissolved {
		a.dissolves++
	}
	a.stateMu.Unlock()

	return next
}

// render repaints the drawing layers and flattens them over the camera
// frame. A failure skips only this frame's image; board state has already
// advanced.
func (a *App) render(frame *gocv.Mat, g gesture.Gesture) []byte {
	model := a.board.Model()
	err := a.comp.RenderContent(model.Strokes(), model.Active(), a.board.Style(), a.board.Effects().Particles(), a.board.View())
	if err != nil {
		log.Printf("Error rendering content: %v", err)
		return nil
	}

	overlay := canvas.OverlayState{}
	if g.Kind == gesture.Pinch && a.board.Mode() == board.Drawing {
		overlay.PinchPoint = g.PinchPoint
		overlay.PinchShown = true
		overlay.PinchColor = a.board.Style().Color
	}
	if a.board.Mode() == board.MenuOpen {
		if cur, ok := a.board.Cursor(); ok {
			overlay.Cursor = cur
			overlay.CursorShown = true
		}
	}
	if err := a.comp.RenderOverlay(overlay); err != nil {
		log.Printf("Error rendering overlay: %v", err)
		return nil
	}

	img, err := frame.ToImage()
	if err != nil {
		log.Printf("Error converting frame: %v", err)
		return nil
	}

	jpeg, err := a.comp.ComposeJPEG(img, StreamJPEGQuality)
	if err != nil {
		log.Printf("Error encoding frame: %v", err)
		return nil
	}
	return jpeg
}
