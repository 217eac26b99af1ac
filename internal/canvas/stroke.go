package canvas

import (
	"github.com/google/uuid"

	"github.com/ayusman/madhubani/internal/gesture"
)

// Tool selects how a stroke composites onto the canvas.
type Tool string

const (
	ToolPen    Tool = "pen"
	ToolEraser Tool = "eraser"
)

// Valid reports whether t is a known tool.
func (t Tool) Valid() bool {
	return t == ToolPen || t == ToolEraser
}

// Style is the pen configuration applied to a stroke when it is finalized.
type Style struct {
	Tool  Tool    `json:"tool"`
	Color string  `json:"color"`
	Width float64 `json:"width"`
}

// DefaultStyle is a medium blue pen.
func DefaultStyle() Style {
	return Style{Tool: ToolPen, Color: "#2563eb", Width: 4}
}

// Stroke is a finished run of ink. Points are world space and the stroke is
// never mutated after finalization; the whole list is only ever cleared by
// a dissolve.
type Stroke struct {
	ID     string          `json:"id"`
	Points []gesture.Point `json:"points"`
	Style  Style           `json:"style"`
}

// Model owns the finalized strokes and the single in-progress stroke fed by
// consecutive pinch frames. It is mutated only from the frame loop.
type Model struct {
	strokes []Stroke
	active  []gesture.Point
}

// NewModel returns an empty stroke model.
func NewModel() *Model {
	return &Model{}
}

// Append adds a world-space point to the in-progress stroke.
func (m *Model) Append(p gesture.Point) {
	m.active = append(m.active, p)
}

// Active returns the in-progress stroke's points. The slice is owned by the
// model and valid until the next Append, Finalize, or Clear.
func (m *Model) Active() []gesture.Point {
	return m.active
}

// Finalize closes the in-progress stroke under the given style and appends
// it to the finalized list. It reports false when there is nothing to
// finalize.
func (m *Model) Finalize(style Style) (Stroke, bool) {
	if len(m.active) == 0 {
		return Stroke{}, false
	}
	s := Stroke{
		ID:     uuid.NewString(),
		Points: m.active,
		Style:  style,
	}
	m.strokes = append(m.strokes, s)
	m.active = nil
	return s, true
}

// Strokes returns the finalized strokes in draw order.
func (m *Model) Strokes() []Stroke {
	return m.strokes
}

// Clear drops every finalized stroke and the in-progress stroke. Only a
// dissolve calls this.
func (m *Model) Clear() {
	m.strokes = nil
	m.active = nil
}

// PointCount reports the total points held, finalized plus in progress.
func (m *Model) PointCount() int {
	n := len(m.active)
	for _, s := range m.strokes {
		n += len(s.Points)
	}
	return n
}
