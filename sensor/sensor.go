// Package sensor implements the sensor signal pipeline and the concrete
// sensors agents carry.
//
// Every sensor computes a raw value and hands it to its Signal, which adds one
// noise sample, passes the result through an optional Delay and records the
// emitted activation. Noise is always applied upstream of the delay.
package sensor

import (
	"fmt"
	"math"

	"github.com/pthm-cable/sandbox/entity"
	"github.com/pthm-cable/sandbox/noise"
	"github.com/pthm-cable/sandbox/stimuli"
	"github.com/pthm-cable/sandbox/telemetry"
)

// Sensor is the interface every concrete sensor satisfies.
type Sensor interface {
	Name() string
	// Step records the sensor pose, computes a new activation and returns it.
	Step(dt float64) float64
	Activation() float64
	Activations() []float64
	// Place moves the sensor for the next Step.
	Place(x, y, theta float64)
	// Anchor moves the sensor and rewrites its newest pose history entry.
	Anchor(x, y, theta float64)
	Reset()
	Series() telemetry.Series
}

// Options are the settings shared by all sensors.
type Options struct {
	Name       string
	Noise      noise.Source // may be nil
	DelaySteps int
	Disabled   bool
	Pose       entity.Pose
}

// Signal is the shared post-processing stage: noise, then delay, then history.
type Signal struct {
	noise       noise.Source
	delay       *Delay
	activation  float64
	activations []float64
}

// NewSignal creates a signal stage.
func NewSignal(src noise.Source, delaySteps int) (Signal, error) {
	s := Signal{noise: src}
	if delaySteps != 0 {
		d, err := NewDelay(delaySteps)
		if err != nil {
			return Signal{}, err
		}
		s.delay = d
	}
	s.Reset()
	return s, nil
}

// Emit post-processes one raw value and returns the resulting activation.
func (s *Signal) Emit(raw, dt float64) float64 {
	v := raw
	if s.noise != nil {
		v += s.noise.Step(dt)
	}
	if s.delay != nil {
		v = s.delay.Push(v)
	}
	s.activation = v
	s.activations = append(s.activations, v)
	return v
}

// Activation returns the latest emitted value.
func (s *Signal) Activation() float64 { return s.activation }

// Activations returns the activation history.
func (s *Signal) Activations() []float64 { return s.activations }

// Reset clears the history and resets the noise source and delay.
func (s *Signal) Reset() {
	s.activation = 0
	s.activations = []float64{0}
	if s.noise != nil {
		s.noise.Reset()
	}
	if s.delay != nil {
		s.delay.Reset()
	}
}

func (s *Signal) series() telemetry.Series {
	out := telemetry.Series{}
	out.Put("activation", s.activations)
	if h := noise.History(s.noise); h != nil {
		out.Put("noise", h)
	}
	return out
}

// base carries the pose, signal and enable flag common to all sensors.
type base struct {
	entity.Entity
	Signal
	name           string
	enabled        bool
	initialEnabled bool
}

func newBase(opts Options, defaultName string) (base, error) {
	sig, err := NewSignal(opts.Noise, opts.DelaySteps)
	if err != nil {
		return base{}, fmt.Errorf("sensor %q: %w", opts.Name, err)
	}
	name := opts.Name
	if name == "" {
		name = defaultName
	}
	return base{
		Entity:         entity.New(opts.Pose),
		Signal:         sig,
		name:           name,
		enabled:        !opts.Disabled,
		initialEnabled: !opts.Disabled,
	}, nil
}

// positioned fills in a pose for sensors that need one.
func positioned(opts Options) Options {
	if !opts.Pose.HasPosition {
		opts.Pose = entity.AtHeading(opts.Pose.X, opts.Pose.Y, opts.Pose.Theta)
	}
	return opts
}

func (b *base) Name() string { return b.name }

// Enabled reports whether the sensor is detecting. Disabled sensors emit
// zero raw values.
func (b *base) Enabled() bool { return b.enabled }

// SetEnabled switches detection on or off.
func (b *base) SetEnabled(on bool) { b.enabled = on }

func (b *base) Place(x, y, theta float64) {
	b.X, b.Y, b.Theta = x, y, theta
}

func (b *base) Anchor(x, y, theta float64) {
	b.Overwrite(x, y)
	b.OverwriteHeading(theta)
}

func (b *base) Reset() {
	b.Entity.Reset()
	b.Signal.Reset()
	b.enabled = b.initialEnabled
}

func (b *base) Series() telemetry.Series {
	s := b.series()
	if b.HasPosition() {
		s.Put("x", b.Xs())
		s.Put("y", b.Ys())
	}
	if b.HasHeading() {
		s.Put("theta", b.Thetas())
	}
	return s
}

// FOV is an angular field of view centred on a sensor's heading.
// A zero Width means the full circle.
type FOV struct {
	Width float64
}

// Contains reports whether a direction lies within the field of view of a
// sensor facing heading.
func (f FOV) Contains(heading, direction float64) bool {
	w := f.Width
	if w <= 0 {
		w = 2 * math.Pi
	}
	return math.Abs(stimuli.AngleDifference(direction, heading)) <= w/2
}
