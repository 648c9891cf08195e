package sensor

import (
	"errors"
	"fmt"
)

// ErrNegativeDelay is returned when a delay block is configured with fewer
// than zero steps.
var ErrNegativeDelay = errors.New("delay steps must be >= 0")

// Delay is a fixed-latency ring buffer. The value pushed at step i is emitted
// at step i+N; the first N outputs are zero. A zero-length delay passes values
// straight through.
type Delay struct {
	buf  []float64
	w, r int
	outs []float64
}

// NewDelay creates a delay of n steps.
func NewDelay(n int) (*Delay, error) {
	if n < 0 {
		return nil, fmt.Errorf("delay of %d: %w", n, ErrNegativeDelay)
	}
	d := &Delay{buf: make([]float64, n)}
	d.Reset()
	return d, nil
}

// Steps returns the latency N.
func (d *Delay) Steps() int { return len(d.buf) }

// Push writes v and returns the value written N pushes earlier.
func (d *Delay) Push(v float64) float64 {
	out := v
	if n := len(d.buf); n > 0 {
		out = d.buf[d.r]
		d.buf[d.w] = v
		d.w = (d.w + 1) % n
		d.r = (d.r + 1) % n
	}
	d.outs = append(d.outs, out)
	return out
}

// Outputs returns every emitted value, seeded with a leading zero.
func (d *Delay) Outputs() []float64 { return d.outs }

// Reset zeroes the buffer and rewinds both cursors.
func (d *Delay) Reset() {
	clear(d.buf)
	d.w, d.r = 0, 0
	d.outs = []float64{0}
}
