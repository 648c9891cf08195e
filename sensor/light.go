package sensor

import (
	"math"

	"github.com/pthm-cable/sandbox/stimuli"
)

// Light sums the brightness of every registry light that matches its label
// and lies within its field of view.
type Light struct {
	base
	FOV
	reg          *stimuli.Registry
	label        string
	initialLabel string
}

// NewLight creates a light sensor. An empty label detects every light.
func NewLight(reg *stimuli.Registry, label string, fov FOV, opts Options) (*Light, error) {
	b, err := newBase(positioned(opts), "light")
	if err != nil {
		return nil, err
	}
	return &Light{base: b, FOV: fov, reg: reg, label: label, initialLabel: label}, nil
}

// Step implements Sensor.
func (s *Light) Step(dt float64) float64 {
	s.Record()
	raw := 0.0
	if s.enabled {
		s.reg.Each(s.label, func(_ stimuli.Handle, pos stimuli.Position, l *stimuli.Light) {
			toSource := math.Atan2(pos.Y-s.Y, pos.X-s.X)
			if s.Contains(s.Theta, toSource) {
				raw += l.BrightnessAt(pos, s.X, s.Y)
			}
		})
	}
	return s.Emit(raw, dt)
}

// Label returns the label filter.
func (s *Light) Label() string { return s.label }

// SetLabel changes the label filter.
func (s *Light) SetLabel(label string) { s.label = label }

// Reset implements Sensor.
func (s *Light) Reset() {
	s.base.Reset()
	s.label = s.initialLabel
}
