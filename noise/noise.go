// Package noise provides resettable noise sources used by motors, sensors,
// controllers and disturbances.
//
// A Source owns its own time semantics: Step(dt) returns one raw sample that
// callers add without further scaling.
package noise

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Source produces one sample per step and can be reset between runs.
type Source interface {
	Step(dt float64) float64
	Reset()
}

// base records sample history and owns a reseedable RNG.
type base struct {
	seed    uint64
	rng     *rand.Rand
	samples []float64
}

func newBase(seed uint64) base {
	return base{seed: seed, rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)), samples: []float64{0}}
}

func (b *base) record(v float64) float64 {
	b.samples = append(b.samples, v)
	return v
}

func (b *base) reset() {
	b.rng = rand.New(rand.NewPCG(b.seed, b.seed^0x9e3779b97f4a7c15))
	b.samples = []float64{0}
}

// Samples returns the sample history, seeded with a leading zero.
func (b *base) Samples() []float64 { return b.samples }

// White draws uniformly distributed samples in [Min, Max].
type White struct {
	base
	dist distuv.Uniform
}

// NewWhite creates a uniform white noise source. The bounds may be given in
// either order.
func NewWhite(minVal, maxVal float64, seed uint64) *White {
	if minVal > maxVal {
		minVal, maxVal = maxVal, minVal
	}
	w := &White{base: newBase(seed)}
	w.dist = distuv.Uniform{Min: minVal, Max: maxVal, Src: w.rng}
	return w
}

// Step returns one sample.
func (w *White) Step(dt float64) float64 {
	if w.dist.Min == w.dist.Max {
		return w.record(w.dist.Min)
	}
	return w.record(w.dist.Rand())
}

// Reset reseeds the source and clears its history.
func (w *White) Reset() {
	w.reset()
	w.dist.Src = w.rng
}

// Gaussian draws normally distributed samples.
type Gaussian struct {
	base
	dist distuv.Normal
}

// NewGaussian creates a gaussian noise source.
func NewGaussian(mean, sigma float64, seed uint64) *Gaussian {
	g := &Gaussian{base: newBase(seed)}
	g.dist = distuv.Normal{Mu: mean, Sigma: sigma, Src: g.rng}
	return g
}

// Step returns one sample.
func (g *Gaussian) Step(dt float64) float64 {
	if g.dist.Sigma == 0 {
		return g.record(g.dist.Mu)
	}
	return g.record(g.dist.Rand())
}

// Reset reseeds the source and clears its history.
func (g *Gaussian) Reset() {
	g.reset()
	g.dist.Src = g.rng
}

// Brown is a random walk: each step moves the output by a uniform amount in
// [-StepSize, StepSize].
type Brown struct {
	base
	stepSize float64
	value    float64
}

// NewBrown creates a brown noise source.
func NewBrown(stepSize float64, seed uint64) *Brown {
	return &Brown{base: newBase(seed), stepSize: stepSize}
}

// Step returns one sample.
func (b *Brown) Step(dt float64) float64 {
	if b.stepSize != 0 {
		b.value += (b.rng.Float64()*2 - 1) * b.stepSize
	}
	return b.record(b.value)
}

// Reset returns the walk to zero.
func (b *Brown) Reset() {
	b.reset()
	b.value = 0
}

// Spike emits a positive or negative spike with probability P per step,
// otherwise zero. Positive and negative spikes are equally likely.
type Spike struct {
	base
	p        float64
	pos, neg float64
}

// NewSpike creates a spike noise source.
func NewSpike(p, pos, neg float64, seed uint64) *Spike {
	return &Spike{base: newBase(seed), p: p, pos: pos, neg: neg}
}

// Step returns one sample.
func (s *Spike) Step(dt float64) float64 {
	if s.p <= 0 || s.rng.Float64() >= s.p {
		return s.record(0)
	}
	if s.rng.Float64() < 0.5 {
		return s.record(s.pos)
	}
	return s.record(s.neg)
}

// Reset reseeds the source and clears its history.
func (s *Spike) Reset() { s.reset() }

// Composite sums the output of several sources.
type Composite struct {
	sources []Source
	samples []float64
}

// NewComposite creates a source that adds every given source per step.
func NewComposite(sources ...Source) *Composite {
	return &Composite{sources: sources, samples: []float64{0}}
}

// Maker builds the white + brown + spike combination used for motor
// disturbances. white is [max, min]; spike is [p, pos, neg]. Zero-valued
// parameters produce silent components.
func Maker(white [2]float64, brownStep float64, spike [3]float64, seed uint64) *Composite {
	return NewComposite(
		NewWhite(white[1], white[0], seed),
		NewBrown(brownStep, seed+1),
		NewSpike(spike[0], spike[1], spike[2], seed+2),
	)
}

// Step returns the sum of one sample from every source.
func (c *Composite) Step(dt float64) float64 {
	var v float64
	for _, s := range c.sources {
		v += s.Step(dt)
	}
	c.samples = append(c.samples, v)
	return v
}

// Reset resets every source.
func (c *Composite) Reset() {
	for _, s := range c.sources {
		s.Reset()
	}
	c.samples = []float64{0}
}

// Samples returns the summed sample history.
func (c *Composite) Samples() []float64 { return c.samples }

// Sampler is implemented by sources that keep a sample history.
type Sampler interface {
	Samples() []float64
}

// History returns the sample history of src, or nil if it keeps none.
func History(src Source) []float64 {
	if s, ok := src.(Sampler); ok {
		return s.Samples()
	}
	return nil
}
