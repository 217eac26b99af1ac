// Package effects runs the particle simulation behind the dissolve
// transition. Particles are spawned in bulk when strokes dissolve and die
// individually; the live set only shrinks until the next burst.
package effects

import (
	"math/rand"
	"time"

	"github.com/ayusman/madhubani/internal/gesture"
)

// Simulation constants, applied once per tick.
const (
	// Gravity is added to a particle's vertical velocity every tick.
	Gravity = 0.05
	// LifeDecay is subtracted from a particle's life every tick.
	LifeDecay = 0.01
)

// Particle is one fading fleck of dissolved ink. Positions and velocities
// are in screen pixels; the effect is deliberately decoupled from any later
// pan or zoom of the drawing itself.
type Particle struct {
	X, Y  float64
	VX    float64
	VY    float64
	Color string
	Size  float64
	Life  float64

	age int
}

// System owns the live particle set. It is not safe for concurrent use;
// the frame loop is its only caller.
type System struct {
	particles []Particle
	rng       *rand.Rand
}

// NewSystem creates an empty particle system.
func NewSystem() *System {
	return &System{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// Burst spawns particles from every second point of a dissolving stroke,
// keeping the particle count bounded on long strokes. Each particle starts
// at full life with a random sideways drift and a downward bias.
func (s *System) Burst(points []gesture.Point, color string, size float64) {
	for i := 0; i < len(points); i += 2 {
		s.particles = append(s.particles, Particle{
			X:     points[i].X,
			Y:     points[i].Y,
			VX:    s.rng.Float64()*2 - 1,
			VY:    1 + s.rng.Float64()*2,
			Color: color,
			Size:  size,
			Life:  1.0,
		})
	}
}

// Step advances the simulation one tick: positions move by velocity,
// gravity pulls the fall speed up, and life fades linearly. Particles whose
// life has run out are dropped.
//
// Life is recomputed from the particle's age rather than decremented, so a
// full-life particle expires after exactly 100 ticks instead of lingering
// on accumulated rounding error.
func (s *System) Step() {
	live := s.particles[:0]
	for _, p := range s.particles {
		p.X += p.VX
		p.Y += p.VY
		p.VY += Gravity
		p.age++
		p.Life = 1 - LifeDecay*float64(p.age)
		if p.Life > 0 {
			live = append(live, p)
		}
	}
	s.particles = live
}

// Particles returns the live set, ordered oldest burst first. The slice is
// owned by the system and valid until the next Step or Burst.
func (s *System) Particles() []Particle {
	return s.particles
}

// Len reports the number of live particles.
func (s *System) Len() int {
	return len(s.particles)
}
