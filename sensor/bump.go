package sensor

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Bump reports contact events. A registered bump is reported on the next Step
// and then cleared. With a non-zero flip probability the reading is inverted
// at random.
type Bump struct {
	base
	bumped bool
	pFlip  float64
	seed   uint64
	flip   distuv.Bernoulli
}

// NewBump creates a bump sensor.
func NewBump(pFlip float64, seed uint64, opts Options) (*Bump, error) {
	b, err := newBase(opts, "bump")
	if err != nil {
		return nil, err
	}
	s := &Bump{base: b, pFlip: pFlip, seed: seed}
	s.reseed()
	return s, nil
}

func (s *Bump) reseed() {
	s.flip = distuv.Bernoulli{P: s.pFlip, Src: rand.NewPCG(s.seed, s.seed+1)}
}

// RegisterBump flags a contact for the next Step.
func (s *Bump) RegisterBump() { s.bumped = true }

// Bumped reports whether a contact is pending.
func (s *Bump) Bumped() bool { return s.bumped }

// Step implements Sensor. The output is 1 for contact and 0 otherwise, before
// noise and delay.
func (s *Bump) Step(dt float64) float64 {
	s.Record()
	if s.pFlip > 0 && s.flip.Rand() == 1 {
		s.bumped = !s.bumped
	}
	raw := 0.0
	if s.bumped {
		raw = 1
	}
	out := s.Emit(raw, dt)
	s.bumped = false
	return out
}

// Reset implements Sensor.
func (s *Bump) Reset() {
	s.base.Reset()
	s.bumped = false
	s.reseed()
}
