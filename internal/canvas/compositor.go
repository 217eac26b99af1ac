package canvas

import (
	"bytes"
	"fmt"
	"image"

	"github.com/gogpu/gg"

	"github.com/ayusman/madhubani/internal/effects"
	"github.com/ayusman/madhubani/internal/gesture"
)

// Compositor rasterizes the drawing onto two layers sized to the video
// resolution: a content layer for strokes and particles, and an overlay
// layer for cursor and gesture indicators. Both are flattened over the
// camera frame each tick.
type Compositor struct {
	width  int
	height int

	content *gg.Context
	scratch *gg.Context
	overlay *gg.Context
}

// NewCompositor creates transparent layers at the given resolution.
func NewCompositor(width, height int) *Compositor {
	return &Compositor{
		width:   width,
		height:  height,
		content: gg.NewContext(width, height),
		scratch: gg.NewContext(width, height),
		overlay: gg.NewContext(width, height),
	}
}

// Size returns the current layer dimensions.
func (c *Compositor) Size() (width, height int) {
	return c.width, c.height
}

// Resize matches all layers to a new video resolution. Rendered content is
// dropped; the next RenderContent repaints it. Resizing to the current size
// is a no-op.
func (c *Compositor) Resize(width, height int) error {
	if err := c.content.Resize(width, height); err != nil {
		return fmt.Errorf("resize content layer: %w", err)
	}
	if err := c.scratch.Resize(width, height); err != nil {
		return fmt.Errorf("resize scratch layer: %w", err)
	}
	if err := c.overlay.Resize(width, height); err != nil {
		return fmt.Errorf("resize overlay layer: %w", err)
	}
	c.width = width
	c.height = height
	return nil
}

// RenderContent repaints the content layer: finalized strokes in draw
// order, then the in-progress stroke, then live particles on top.
func (c *Compositor) RenderContent(strokes []Stroke, active []gesture.Point, activeStyle Style, particles []effects.Particle, view *Transform) error {
	c.content.Clear()
	for _, s := range strokes {
		if err := c.renderStroke(s.Points, s.Style, view); err != nil {
			return fmt.Errorf("render stroke %s: %w", s.ID, err)
		}
	}
	if err := c.renderStroke(active, activeStyle, view); err != nil {
		return fmt.Errorf("render active stroke: %w", err)
	}
	return c.renderParticles(particles)
}

// renderStroke draws one smoothed stroke. Each interior point becomes the
// control point of a quadratic segment ending at the midpoint to its
// successor, rounding corners without leaving the recorded path far behind.
// Fewer than two points render nothing.
//
// Pen strokes paint straight onto the content layer. Eraser strokes are
// rasterized on the scratch layer and their coverage knocked out of the
// content pixels, so the destructive mode can never leak into a later
// stroke.
func (c *Compositor) renderStroke(points []gesture.Point, style Style, view *Transform) error {
	if len(points) < 2 {
		return nil
	}

	target := c.content
	if style.Tool == ToolEraser {
		target = c.scratch
		target.Clear()
		target.SetRGBA(0, 0, 0, 1)
	} else {
		target.SetHexColor(style.Color)
	}
	target.SetLineWidth(style.Width * view.Scale())
	target.SetLineCap(gg.LineCapRound)
	target.SetLineJoin(gg.LineJoinRound)

	pts := make([]gesture.Point, len(points))
	for i, p := range points {
		pts[i] = view.ToScreen(p)
	}

	target.MoveTo(pts[0].X, pts[0].Y)
	for i := 1; i < len(pts)-1; i++ {
		mid := gesture.Midpoint(pts[i], pts[i+1])
		target.QuadraticTo(pts[i].X, pts[i].Y, mid.X, mid.Y)
	}
	last := pts[len(pts)-1]
	target.LineTo(last.X, last.Y)
	if err := target.Stroke(); err != nil {
		return err
	}

	if style.Tool == ToolEraser {
		eraseCoverage(c.content.ResizeTarget(), c.scratch.ResizeTarget())
	}
	return nil
}

func (c *Compositor) renderParticles(particles []effects.Particle) error {
	for _, p := range particles {
		col := gg.Hex(p.Color)
		c.content.SetRGBA(col.R, col.G, col.B, p.Life)
		r := p.Size / 2
		if r < 1.5 {
			r = 1.5
		}
		c.content.DrawCircle(p.X, p.Y, r)
		if err := c.content.Fill(); err != nil {
			return fmt.Errorf("render particle: %w", err)
		}
	}
	return nil
}

// eraseCoverage scales content pixels down by the scratch layer's painted
// alpha, leaving transparent holes where the eraser passed.
func eraseCoverage(content, scratch *gg.Pixmap) {
	dst := content.Data()
	src := scratch.Data()
	n := len(dst)
	if len(src) < n {
		n = len(src)
	}
	for i := 0; i+3 < n; i += 4 {
		a := uint32(src[i+3])
		if a == 0 {
			continue
		}
		keep := 255 - a
		dst[i+0] = uint8(uint32(dst[i+0]) * keep / 255)
		dst[i+1] = uint8(uint32(dst[i+1]) * keep / 255)
		dst[i+2] = uint8(uint32(dst[i+2]) * keep / 255)
		dst[i+3] = uint8(uint32(dst[i+3]) * keep / 255)
	}
}

// OverlayState selects which indicators RenderOverlay draws.
type OverlayState struct {
	PinchPoint gesture.Point
	PinchShown bool
	PinchColor string

	Cursor      gesture.Point
	CursorShown bool
}

// RenderOverlay repaints the indicator layer: a dot where pinched ink
// lands, and a ring around the menu cursor while the menu is open.
func (c *Compositor) RenderOverlay(state OverlayState) error {
	c.overlay.Clear()

	if state.PinchShown {
		c.overlay.SetHexColor(state.PinchColor)
		c.overlay.DrawCircle(state.PinchPoint.X, state.PinchPoint.Y, 5)
		if err := c.overlay.Fill(); err != nil {
			return fmt.Errorf("render pinch marker: %w", err)
		}
		c.overlay.SetRGBA(1, 1, 1, 0.9)
		c.overlay.SetLineWidth(1.5)
		c.overlay.DrawCircle(state.PinchPoint.X, state.PinchPoint.Y, 7)
		if err := c.overlay.Stroke(); err != nil {
			return fmt.Errorf("render pinch ring: %w", err)
		}
	}

	if state.CursorShown {
		c.overlay.SetRGBA(1, 1, 1, 0.9)
		c.overlay.SetLineWidth(2)
		c.overlay.DrawCircle(state.Cursor.X, state.Cursor.Y, 10)
		if err := c.overlay.Stroke(); err != nil {
			return fmt.Errorf("render cursor ring: %w", err)
		}
		c.overlay.SetRGBA(1, 1, 1, 0.9)
		c.overlay.DrawCircle(state.Cursor.X, state.Cursor.Y, 3)
		if err := c.overlay.Fill(); err != nil {
			return fmt.Errorf("render cursor dot: %w", err)
		}
	}

	return nil
}

// Compose flattens the content and overlay layers over a camera frame and
// returns the result.
func (c *Compositor) Compose(frame image.Image) image.Image {
	base := gg.NewContextForImage(frame)
	c.drawLayers(base)
	return base.Image()
}

// ComposeJPEG flattens like Compose and encodes the result for streaming.
func (c *Compositor) ComposeJPEG(frame image.Image, quality int) ([]byte, error) {
	base := gg.NewContextForImage(frame)
	c.drawLayers(base)
	var buf bytes.Buffer
	if err := base.EncodeJPEG(&buf, quality); err != nil {
		return nil, fmt.Errorf("encode composed frame: %w", err)
	}
	return buf.Bytes(), nil
}

func (c *Compositor) drawLayers(base *gg.Context) {
	opts := gg.DrawImageOptions{Opacity: 1, BlendMode: gg.BlendNormal}
	base.DrawImageEx(gg.ImageBufFromImage(c.content.Image()), opts)
	base.DrawImageEx(gg.ImageBufFromImage(c.overlay.Image()), opts)
}

// ContentImage returns a copy of the content layer.
func (c *Compositor) ContentImage() image.Image {
	return c.content.Image()
}

// OverlayImage returns a copy of the overlay layer.
func (c *Compositor) OverlayImage() image.Image {
	return c.overlay.Image()
}
