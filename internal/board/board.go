// Package board drives the interaction state machine. One Step per frame
// consumes the classified gesture and mutates the stroke model, view
// transform, and particle system the board owns. Nothing here locks: the
// frame loop is the only writer, and cross-boundary actions such as menu
// events are queued by the caller and applied between frames.
package board

import (
	"github.com/ayusman/madhubani/internal/canvas"
	"github.com/ayusman/madhubani/internal/effects"
	"github.com/ayusman/madhubani/internal/gesture"
)

// Mode is the interaction state.
type Mode int

const (
	Idle Mode = iota
	Drawing
	MenuOpen
)

func (m Mode) String() string {
	switch m {
	case Drawing:
		return "drawing"
	case MenuOpen:
		return "menu_open"
	default:
		return "idle"
	}
}

// Board owns all mutable drawing state for one surface.
type Board struct {
	mode      Mode
	view      *canvas.Transform
	strokes   *canvas.Model
	particles *effects.System
	style     canvas.Style

	cursor   gesture.Point
	cursorOK bool
}

// New returns an idle board with an identity view and the default pen.
func New() *Board {
	return &Board{
		view:      canvas.NewTransform(),
		strokes:   canvas.NewModel(),
		particles: effects.NewSystem(),
		style:     canvas.DefaultStyle(),
	}
}

// Step applies one frame's gesture.
//
// Two-hand zoom adjusts only the view scale; it neither finalizes the
// in-progress stroke nor changes the mode, so a zoom in the middle of a
// drawing motion does not break the stroke. Open palm latches the menu
// open, and nothing but an explicit CloseMenu reopens drawing. A V sign
// dissolves the drawing in any mode, including while the menu stays open.
func (b *Board) Step(g gesture.Gesture) {
	b.cursor = g.Cursor
	b.cursorOK = g.CursorValid

	if g.Kind == gesture.TwoHandZoom {
		b.view.ZoomBy(g.ZoomDelta)
		return
	}

	if b.mode != MenuOpen {
		switch g.Kind {
		case gesture.Pinch:
			b.strokes.Append(b.view.ToWorld(g.PinchPoint))
			b.mode = Drawing
		case gesture.OpenPalm:
			b.strokes.Finalize(b.style)
			b.mode = MenuOpen
		default:
			b.strokes.Finalize(b.style)
			b.mode = Idle
		}
	}

	if g.Kind == gesture.VSign {
		b.dissolve()
	}
}

// StepParticles advances the dissolve simulation one tick. The frame loop
// calls this after Step, before rendering.
func (b *Board) StepParticles() {
	b.particles.Step()
}

// dissolve turns every stroke into falling particles and clears the model.
// Particle positions are fixed in screen space under the transform at the
// moment of the burst; later zooming does not move them.
func (b *Board) dissolve() {
	for _, s := range b.strokes.Strokes() {
		b.particles.Burst(b.toScreen(s.Points), s.Style.Color, s.Style.Width)
	}
	if active := b.strokes.Active(); len(active) > 0 {
		b.particles.Burst(b.toScreen(active), b.style.Color, b.style.Width)
	}
	b.strokes.Clear()
}

func (b *Board) toScreen(points []gesture.Point) []gesture.Point {
	out := make([]gesture.Point, len(points))
	for i, p := range points {
		out[i] = b.view.ToScreen(p)
	}
	return out
}

// CloseMenu exits the menu. No gesture closes an open menu; the close
// arrives from the UI as a queued event.
func (b *Board) CloseMenu() {
	if b.mode == MenuOpen {
		b.mode = Idle
	}
}

// Mode returns the current interaction state.
func (b *Board) Mode() Mode {
	return b.mode
}

// Style returns the live pen settings applied to new strokes.
func (b *Board) Style() canvas.Style {
	return b.style
}

// SetStyle replaces the live pen settings. The in-progress stroke picks up
// the new style because style is only captured at finalization.
func (b *Board) SetStyle(s canvas.Style) {
	b.style = s
}

// Cursor returns the menu cursor position and whether one is available
// this frame.
func (b *Board) Cursor() (gesture.Point, bool) {
	return b.cursor, b.cursorOK
}

// View returns the owned world/screen transform.
func (b *Board) View() *canvas.Transform {
	return b.view
}

// Model returns the owned stroke model.
func (b *Board) Model() *canvas.Model {
	return b.strokes
}

// Effects returns the owned particle system.
func (b *Board) Effects() *effects.System {
	return b.particles
}

// Snapshot is the serializable summary published to clients each frame.
type Snapshot struct {
	Mode      string         `json:"mode"`
	Scale     float64        `json:"scale"`
	Style     canvas.Style   `json:"style"`
	Strokes   int            `json:"strokes"`
	Points    int            `json:"points"`
	Particles int            `json:"particles"`
	Cursor    *gesture.Point `json:"cursor,omitempty"`
}

// Snapshot captures the board's current public state.
func (b *Board) Snapshot() Snapshot {
	s := Snapshot{
		Mode:      b.mode.String(),
		Scale:     b.view.Scale(),
		Style:     b.style,
		Strokes:   len(b.strokes.Strokes()),
		Points:    b.strokes.PointCount(),
		Particles: b.particles.Len(),
	}
	if b.cursorOK {
		c := b.cursor
		s.Cursor = &c
	}
	return s
}
