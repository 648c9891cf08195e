package noise

import "github.com/ojrac/opensimplex-go"

// Simplex is temporally coherent noise: the output drifts smoothly with
// simulated time instead of jumping independently every step.
type Simplex struct {
	seed      int64
	src       opensimplex.Noise
	amplitude float64
	frequency float64
	t         float64
	samples   []float64
}

// NewSimplex creates a coherent noise source with output in
// [-amplitude, amplitude] varying at roughly frequency cycles per unit time.
func NewSimplex(amplitude, frequency float64, seed int64) *Simplex {
	return &Simplex{
		seed:      seed,
		src:       opensimplex.New(seed),
		amplitude: amplitude,
		frequency: frequency,
		samples:   []float64{0},
	}
}

// Step advances the internal clock by dt and returns one sample.
func (s *Simplex) Step(dt float64) float64 {
	s.t += dt
	v := s.amplitude * s.src.Eval2(s.t*s.frequency, 0)
	s.samples = append(s.samples, v)
	return v
}

// Reset rewinds the clock and clears the history.
func (s *Simplex) Reset() {
	s.src = opensimplex.New(s.seed)
	s.t = 0
	s.samples = []float64{0}
}

// Samples returns the sample history.
func (s *Simplex) Samples() []float64 { return s.samples }
