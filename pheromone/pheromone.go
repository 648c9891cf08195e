// Package pheromone manages decaying trail markers. Markers are ordinary
// lights in the stimulus registry, labelled Label, whose brightness scales
// with their remaining quantity, so any light sensor can detect them.
package pheromone

import (
	"github.com/pthm-cable/sandbox/stimuli"
	"github.com/pthm-cable/sandbox/telemetry"
)

// Label is the registry label of every marker.
const Label = "pheromone"

// Config holds the marker settings.
type Config struct {
	DecayRate  float64 // quantity lost per unit time
	Brightness float64
	Gradient   float64
	Model      stimuli.Model
}

// DefaultConfig returns the usual marker settings.
func DefaultConfig() Config {
	return Config{DecayRate: 0.01, Brightness: 1, Gradient: 0.01, Model: stimuli.InverseSquare}
}

// Manager owns every marker it drops.
type Manager struct {
	cfg     Config
	reg     *stimuli.Registry
	markers []stimuli.Handle
	counts  []float64
}

// New creates a manager dropping markers into reg.
func New(reg *stimuli.Registry, cfg Config) *Manager {
	return &Manager{cfg: cfg, reg: reg, counts: []float64{0}}
}

// DropAt adds a full marker at (x, y).
func (m *Manager) DropAt(x, y float64) {
	h := m.reg.Add(stimuli.LightSpec{
		X:          x,
		Y:          y,
		Brightness: m.cfg.Brightness,
		Gradient:   m.cfg.Gradient,
		Model:      m.cfg.Model,
		Colour:     "orange",
		Label:      Label,
	})
	m.markers = append(m.markers, h)
}

// Len returns the number of live markers.
func (m *Manager) Len() int { return len(m.markers) }

// Quantities returns the remaining quantity of every marker, oldest first.
func (m *Manager) Quantities() []float64 {
	out := make([]float64, 0, len(m.markers))
	for _, h := range m.markers {
		out = append(out, m.reg.Light(h).Quantity)
	}
	return out
}

// Step decays every marker and removes the exhausted ones.
func (m *Manager) Step(dt float64) {
	kept := m.markers[:0]
	for _, h := range m.markers {
		l := m.reg.Light(h)
		if l == nil {
			continue
		}
		l.Quantity -= dt * m.cfg.DecayRate
		if l.Quantity > 0 {
			kept = append(kept, h)
			continue
		}
		m.reg.Remove(h)
	}
	clear(m.markers[len(kept):])
	m.markers = kept
	m.counts = append(m.counts, float64(len(m.markers)))
}

// Reset removes every marker.
func (m *Manager) Reset() {
	for _, h := range m.markers {
		m.reg.Remove(h)
	}
	m.markers = nil
	m.counts = []float64{0}
}

// Series returns the marker count history.
func (m *Manager) Series() telemetry.Series {
	s := telemetry.Series{}
	s.Put("count", m.counts)
	return s
}
