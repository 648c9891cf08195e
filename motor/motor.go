// Package motor implements a first-order-lag actuator with saturation,
// direction reversal and additive noise.
package motor

import (
	"math"

	"github.com/pthm-cable/sandbox/noise"
	"github.com/pthm-cable/sandbox/telemetry"
)

// Config is the immutable construction record of a Motor.
type Config struct {
	Name     string
	MaxSpeed float64 // sign is ignored
	Inertia  float64 // 0 = instantaneous response; negative values clamp to 0
	Reversed bool
}

// Motor converts speed commands into actual speeds.
type Motor struct {
	cfg   Config
	noise noise.Source

	speed    float64
	maxSpeed float64
	inertia  float64 // denominator, always >= 1
	reversed bool

	speeds    []float64
	reverseds []bool
}

// New creates a motor. src may be nil.
func New(cfg Config, src noise.Source) *Motor {
	if cfg.Name == "" {
		cfg.Name = "motor"
	}
	m := &Motor{cfg: cfg, noise: src}
	m.Reset()
	return m
}

// Step applies one speed command and returns the resulting speed.
func (m *Motor) Step(command, dt float64) float64 {
	if m.reversed {
		command = -command
	}
	m.speed += (command - m.speed) / m.inertia
	if m.noise != nil {
		m.speed += m.noise.Step(dt)
	}
	m.speed = saturate(m.speed, m.maxSpeed)

	m.speeds = append(m.speeds, m.speed)
	m.reverseds = append(m.reverseds, m.reversed)
	return m.speed
}

func saturate(v, limit float64) float64 {
	if v > 0 {
		return math.Min(v, limit)
	}
	return math.Max(v, -limit)
}

// Reset restores speed, direction, limits and the noise source.
func (m *Motor) Reset() {
	m.speed = 0
	m.maxSpeed = math.Abs(m.cfg.MaxSpeed)
	m.inertia = math.Max(0, m.cfg.Inertia) + 1
	m.reversed = m.cfg.Reversed
	m.speeds = []float64{0}
	m.reverseds = []bool{m.reversed}
	if m.noise != nil {
		m.noise.Reset()
	}
}

// Name returns the motor's name.
func (m *Motor) Name() string { return m.cfg.Name }

// Speed returns the current speed.
func (m *Motor) Speed() float64 { return m.speed }

// MaxSpeed returns the current saturation limit.
func (m *Motor) MaxSpeed() float64 { return m.maxSpeed }

// Reversed reports whether commands are currently negated.
func (m *Motor) Reversed() bool { return m.reversed }

// Speeds returns the speed history.
func (m *Motor) Speeds() []float64 { return m.speeds }

// AdjustSpeed adds delta to the live speed without recording a step.
func (m *Motor) AdjustSpeed(delta float64) { m.speed += delta }

// SetReversed changes the direction flag.
func (m *Motor) SetReversed(r bool) { m.reversed = r }

// SetMaxSpeed changes the saturation limit.
func (m *Motor) SetMaxSpeed(v float64) { m.maxSpeed = math.Abs(v) }

// SetInertia changes the inertia coefficient. Negative values clamp to 0.
func (m *Motor) SetInertia(coeff float64) { m.inertia = math.Max(0, coeff) + 1 }

// Series returns the motor histories.
func (m *Motor) Series() telemetry.Series {
	s := telemetry.Series{}
	s.Put("speed", m.speeds)
	s.PutBools("reversed", m.reverseds)
	if h := noise.History(m.noise); h != nil {
		s.Put("noise", h)
	}
	return s
}
