package stimuli

import "math"

// Locator is anything with a position, typically an agent.
type Locator interface {
	Position() (x, y float64)
}

// ShyLights switches a light off whenever an agent comes within Radius of it,
// and back on once it has been off for longer than Delay.
type ShyLights struct {
	reg    *Registry
	lights []Handle
	agents []Locator
	radius float64
	delay  float64
	timers []float64
}

// NewShyLights creates a shy light manager.
func NewShyLights(reg *Registry, lights []Handle, agents []Locator, radius, delay float64) *ShyLights {
	return &ShyLights{
		reg:    reg,
		lights: lights,
		agents: agents,
		radius: radius,
		delay:  delay,
		timers: make([]float64, len(lights)),
	}
}

// Step updates every light.
func (m *ShyLights) Step(dt float64) {
	for i, h := range m.lights {
		l := m.reg.Light(h)
		if l == nil {
			continue
		}
		if l.On {
			lx, ly, _ := m.reg.Position(h)
			for _, a := range m.agents {
				x, y := a.Position()
				if math.Hypot(x-lx, y-ly) < m.radius {
					l.On = false
					m.timers[i] = 0
				}
			}
			continue
		}
		m.timers[i] += dt
		if m.timers[i] > m.delay {
			l.On = true
		}
	}
}

// Reset zeroes the timers.
func (m *ShyLights) Reset() { clear(m.timers) }

// MerryGoRound keeps exactly one of its lights on and moves to the next one
// every Period.
type MerryGoRound struct {
	reg     *Registry
	lights  []Handle
	period  float64
	first   int
	current int
	timer   float64
}

// NewMerryGoRound creates a merry-go-round starting at lights[first].
func NewMerryGoRound(reg *Registry, lights []Handle, period float64, first int) *MerryGoRound {
	if first < 0 || first >= len(lights) {
		first = 0
	}
	m := &MerryGoRound{reg: reg, lights: lights, period: period, first: first}
	m.Reset()
	return m
}

// Current returns the index of the lit light.
func (m *MerryGoRound) Current() int { return m.current }

// Step advances the rotation.
func (m *MerryGoRound) Step(dt float64) {
	if len(m.lights) == 0 {
		return
	}
	m.timer += dt
	if m.timer > m.period {
		m.reg.SetOn(m.lights[m.current], false)
		m.current = (m.current + 1) % len(m.lights)
		m.reg.SetOn(m.lights[m.current], true)
		m.timer = 0
	}
}

// Reset lights the first light only.
func (m *MerryGoRound) Reset() {
	m.current = m.first
	m.timer = 0
	for i, h := range m.lights {
		m.reg.SetOn(h, i == m.first)
	}
}

// FadingLights drains each light's brightness in proportion to the light the
// agents receive from it. A light whose brightness drops below 0.01 switches
// off.
type FadingLights struct {
	reg    *Registry
	lights []Handle
	agents []Locator
	rate   float64
}

// NewFadingLights creates a fading light manager.
func NewFadingLights(reg *Registry, lights []Handle, agents []Locator, rate float64) *FadingLights {
	return &FadingLights{reg: reg, lights: lights, agents: agents, rate: rate}
}

// Step drains every light.
func (m *FadingLights) Step(dt float64) {
	for _, h := range m.lights {
		l := m.reg.Light(h)
		if l == nil {
			continue
		}
		lx, ly, _ := m.reg.Position(h)
		pos := Position{X: lx, Y: ly}
		for _, a := range m.agents {
			x, y := a.Position()
			l.Brightness -= dt * m.rate * l.BrightnessAt(pos, x, y)
			l.Brightness = math.Max(0, l.Brightness)
			if l.Brightness < 0.01 {
				l.On = false
			}
		}
	}
}

// Reset is a no-op; the registry restores brightness.
func (m *FadingLights) Reset() {}
