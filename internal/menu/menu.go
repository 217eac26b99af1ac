// Package menu implements the hands-free settings menu: a registry of
// hit-testable regions and the dwell engine that selects them after a
// steady hover. The menu's visual presentation lives with the client; only
// element bounds and selection semantics live here.
package menu

import (
	"fmt"
	"strconv"

	"github.com/ayusman/madhubani/internal/canvas"
	"github.com/ayusman/madhubani/internal/gesture"
)

// RegionType says what a selectable region changes.
type RegionType string

const (
	RegionTool  RegionType = "tool"
	RegionSize  RegionType = "size"
	RegionColor RegionType = "color"
)

// Rect is an axis-aligned screen-space box.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Contains reports whether p lies inside the box. The right and bottom
// edges are exclusive so adjacent regions never both claim a point.
func (r Rect) Contains(p gesture.Point) bool {
	return p.X >= r.X && p.X < r.X+r.W && p.Y >= r.Y && p.Y < r.Y+r.H
}

// Region is one selectable menu element.
type Region struct {
	ID     string     `json:"id"`
	Type   RegionType `json:"type"`
	Value  string     `json:"value"`
	Bounds Rect       `json:"bounds"`
}

// Update is a partial settings change. Nil fields leave the current value
// untouched.
type Update struct {
	Tool  *canvas.Tool `json:"tool,omitempty"`
	Color *string      `json:"color,omitempty"`
	Width *float64     `json:"width,omitempty"`
}

// Apply merges the update into a style and returns the result.
func (u Update) Apply(s canvas.Style) canvas.Style {
	if u.Tool != nil {
		s.Tool = *u.Tool
	}
	if u.Color != nil {
		s.Color = *u.Color
	}
	if u.Width != nil {
		s.Width = *u.Width
	}
	return s
}

// Validate rejects updates that would leave the style unusable.
func (u Update) Validate() error {
	if u.Tool != nil && !u.Tool.Valid() {
		return fmt.Errorf("unknown tool %q", *u.Tool)
	}
	if u.Color != nil && !validHexColor(*u.Color) {
		return fmt.Errorf("invalid color %q", *u.Color)
	}
	if u.Width != nil && (*u.Width <= 0 || *u.Width > 64) {
		return fmt.Errorf("width %v out of range (0, 64]", *u.Width)
	}
	return nil
}

func validHexColor(s string) bool {
	if len(s) != 7 || s[0] != '#' {
		return false
	}
	for _, c := range s[1:] {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

// Selection is a fired dwell choice.
type Selection struct {
	Region Region `json:"region"`
}

// Update converts the selected region into the settings change it stands
// for.
func (s Selection) Update() (Update, error) {
	switch s.Region.Type {
	case RegionTool:
		tool := canvas.Tool(s.Region.Value)
		if !tool.Valid() {
			return Update{}, fmt.Errorf("region %s: unknown tool %q", s.Region.ID, s.Region.Value)
		}
		return Update{Tool: &tool}, nil
	case RegionSize:
		w, err := strconv.ParseFloat(s.Region.Value, 64)
		if err != nil || w <= 0 {
			return Update{}, fmt.Errorf("region %s: invalid size %q", s.Region.ID, s.Region.Value)
		}
		return Update{Width: &w}, nil
	case RegionColor:
		if !validHexColor(s.Region.Value) {
			return Update{}, fmt.Errorf("region %s: invalid color %q", s.Region.ID, s.Region.Value)
		}
		c := s.Region.Value
		return Update{Color: &c}, nil
	default:
		return Update{}, fmt.Errorf("region %s: unknown type %q", s.Region.ID, s.Region.Type)
	}
}

// DefaultRegions is the built-in menu layout, used until a client registers
// its own. Two tools down the left edge, four pen sizes beside them, and a
// six-color palette along the top.
func DefaultRegions() []Region {
	regions := []Region{
		{ID: "tool-pen", Type: RegionTool, Value: string(canvas.ToolPen), Bounds: Rect{X: 20, Y: 80, W: 72, H: 48}},
		{ID: "tool-eraser", Type: RegionTool, Value: string(canvas.ToolEraser), Bounds: Rect{X: 20, Y: 140, W: 72, H: 48}},
	}

	sizes := []string{"2", "4", "8", "14"}
	for i, v := range sizes {
		regions = append(regions, Region{
			ID:     "size-" + v,
			Type:   RegionSize,
			Value:  v,
			Bounds: Rect{X: 112, Y: 80 + float64(i)*56, W: 48, H: 48},
		})
	}

	colors := []string{"#2563eb", "#dc2626", "#16a34a", "#eab308", "#f8fafc", "#111111"}
	for i, v := range colors {
		regions = append(regions, Region{
			ID:     "color-" + v[1:],
			Type:   RegionColor,
			Value:  v,
			Bounds: Rect{X: 180 + float64(i)*56, Y: 20, W: 48, H: 48},
		})
	}
	return regions
}
