package menu

import (
	"sync"
	"time"

	"github.com/ayusman/madhubani/internal/gesture"
)

// DefaultDwell is how long the cursor must hover a region before it fires.
const DefaultDwell = 800 * time.Millisecond

// Engine turns a stream of cursor positions into at most one selection per
// continuous hover. A fresh timer is armed when the cursor enters a region;
// leaving the region, losing the cursor, or replacing the region layout
// cancels it. After a selection fires, the cursor must leave and re-enter
// before the region can fire again.
//
// The timer callback is the one piece of this system that runs off the
// frame loop, so the engine is safe for that single extra goroutine. The
// select callback should hand the event back to the frame loop rather than
// mutate shared state directly.
type Engine struct {
	mu       sync.Mutex
	dwell    time.Duration
	regions  []Region
	hovered  string
	timer    *time.Timer
	gen      uint64
	onSelect func(Selection)
	onHover  func(id string, active bool)
}

// NewEngine creates a dwell engine firing onSelect after each completed
// hover. A zero dwell falls back to DefaultDwell.
func NewEngine(dwell time.Duration, onSelect func(Selection)) *Engine {
	if dwell <= 0 {
		dwell = DefaultDwell
	}
	return &Engine{dwell: dwell, onSelect: onSelect}
}

// SetHoverFunc installs a callback for hover start and end, used for visual
// feedback. Call before the first Track.
func (e *Engine) SetHoverFunc(f func(id string, active bool)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onHover = f
}

// SetRegions replaces the hit-testable layout. If the currently hovered
// region is gone from the new layout, its pending timer is cancelled.
func (e *Engine) SetRegions(regions []Region) {
	e.mu.Lock()
	e.regions = make([]Region, len(regions))
	copy(e.regions, regions)

	var ended string
	if e.hovered != "" && e.findLocked(e.hovered) == nil {
		ended = e.hovered
		e.clearLocked()
	}
	hover := e.onHover
	e.mu.Unlock()

	if ended != "" && hover != nil {
		hover(ended, false)
	}
}

// Regions returns a copy of the current layout.
func (e *Engine) Regions() []Region {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Region, len(e.regions))
	copy(out, e.regions)
	return out
}

// Track feeds one frame's cursor. ok is false when no cursor is available
// this frame, which counts as hovering nothing: the hover session ends and
// any pending timer is cancelled.
func (e *Engine) Track(cursor gesture.Point, ok bool) {
	e.mu.Lock()

	var hit *Region
	if ok {
		for i := range e.regions {
			if e.regions[i].Bounds.Contains(cursor) {
				hit = &e.regions[i]
				break
			}
		}
	}

	var started, ended string
	switch {
	case hit == nil:
		if e.hovered != "" {
			ended = e.hovered
			e.clearLocked()
		}
	case hit.ID == e.hovered:
		// Same region: the armed timer keeps running, or has already
		// fired for this hover session.
	default:
		if e.hovered != "" {
			ended = e.hovered
		}
		e.clearLocked()
		e.hovered = hit.ID
		started = hit.ID

		e.gen++
		gen := e.gen
		region := *hit
		e.timer = time.AfterFunc(e.dwell, func() {
			e.fire(gen, region)
		})
	}
	hover := e.onHover
	e.mu.Unlock()

	if hover != nil {
		if ended != "" {
			hover(ended, false)
		}
		if started != "" {
			hover(started, true)
		}
	}
}

// Reset ends the current hover session, guaranteeing no pending timer can
// fire afterwards. Called when the menu closes or the surface shuts down.
func (e *Engine) Reset() {
	e.mu.Lock()
	var ended string
	if e.hovered != "" {
		ended = e.hovered
	}
	e.clearLocked()
	hover := e.onHover
	e.mu.Unlock()

	if ended != "" && hover != nil {
		hover(ended, false)
	}
}

// fire delivers a selection if its hover session is still the live one.
func (e *Engine) fire(gen uint64, region Region) {
	e.mu.Lock()
	if gen != e.gen || e.hovered != region.ID {
		e.mu.Unlock()
		return
	}
	e.timer = nil
	cb := e.onSelect
	e.mu.Unlock()

	if cb != nil {
		cb(Selection{Region: region})
	}
}

// clearLocked cancels the pending timer and forgets the hovered region.
// Bumping the generation kills any timer callback already in flight.
func (e *Engine) clearLocked() {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.hovered = ""
	e.gen++
}

func (e *Engine) findLocked(id string) *Region {
	for i := range e.regions {
		if e.regions[i].ID == id {
			return &e.regions[i]
		}
	}
	return nil
}
