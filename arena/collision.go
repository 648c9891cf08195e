package arena

import (
	"math"
	"math/rand/v2"
)

// MaxPasses bounds the work of one collision Step.
const MaxPasses = 10

// gap is added to each push so resolved bodies do not touch.
const gap = 0.01

// CollisionManager pushes overlapping bodies apart.
type CollisionManager struct {
	bodies []Body
	order  []int
	seed   uint64
	rng    *rand.Rand
	passes int
}

// NewCollisionManager creates a manager over bodies.
func NewCollisionManager(seed uint64, bodies ...Body) *CollisionManager {
	m := &CollisionManager{bodies: bodies, seed: seed}
	m.Reset()
	return m
}

// Add registers another body.
func (m *CollisionManager) Add(b Body) {
	m.bodies = append(m.bodies, b)
	m.order = append(m.order, len(m.bodies)-1)
}

// Passes returns the number of passes the last Step ran.
func (m *CollisionManager) Passes() int { return m.passes }

// Step runs up to MaxPasses passes over every pair in a freshly shuffled
// order. A pass that pushes nothing ends the loop; overlap may remain after
// the last pass.
func (m *CollisionManager) Step(dt float64) {
	m.passes = 0
	for m.passes < MaxPasses {
		m.passes++
		m.rng.Shuffle(len(m.order), func(i, j int) {
			m.order[i], m.order[j] = m.order[j], m.order[i]
		})
		if !m.pass() {
			return
		}
	}
}

func (m *CollisionManager) pass() bool {
	pushed := false
	for i, ai := range m.order {
		for _, bi := range m.order[i+1:] {
			a, b := m.bodies[ai], m.bodies[bi]
			ax, ay := a.Position()
			bx, by := b.Position()
			dx, dy := ax-bx, ay-by
			sep := math.Hypot(dx, dy) - (a.Radius() + b.Radius())
			if sep >= 0 {
				continue
			}
			angle := math.Atan2(dy, dx)
			d := math.Abs(sep)/2 + gap
			a.Teleport(ax+d*math.Cos(angle), ay+d*math.Sin(angle))
			b.Teleport(bx-d*math.Cos(angle), by-d*math.Sin(angle))
			a.RegisterBump()
			b.RegisterBump()
			pushed = true
		}
	}
	return pushed
}

// Reset reseeds the shuffle.
func (m *CollisionManager) Reset() {
	m.passes = 0
	m.rng = rand.New(rand.NewPCG(m.seed, m.seed+1))
	m.order = make([]int, len(m.bodies))
	for i := range m.order {
		m.order[i] = i
	}
}
