package pheromone

import (
	"math"
	"testing"

	"github.com/pthm-cable/sandbox/stimuli"
)

func TestDecayAndPrune(t *testing.T) {
	reg := stimuli.NewRegistry()
	cfg := DefaultConfig()
	cfg.DecayRate = 1
	m := New(reg, cfg)
	m.DropAt(0, 0)
	m.Step(0.5)
	m.DropAt(1, 1)

	prev := m.Len()
	for i := 0; i < 5; i++ {
		m.Step(0.3)
		for _, q := range m.Quantities() {
			if q <= 0 {
				t.Fatalf("step %d: marker with quantity %v survived", i, q)
			}
		}
		if m.Len() > prev {
			t.Fatalf("marker count grew from %d to %d", prev, m.Len())
		}
		prev = m.Len()
	}
	if m.Len() != 0 || reg.Len() != 0 {
		t.Errorf("markers = %d, registry = %d, want both empty", m.Len(), reg.Len())
	}
}

func TestMarkersAreLights(t *testing.T) {
	reg := stimuli.NewRegistry()
	m := New(reg, DefaultConfig())
	m.DropAt(0, 0)
	m.Step(10)
	hs := reg.Handles(Label)
	if len(hs) != 1 {
		t.Fatalf("pheromone lights = %d, want 1", len(hs))
	}
	// quantity 0.9 scales the inverse-square brightness at the source
	if got := reg.BrightnessOf(hs[0], 0, 0); math.Abs(got-0.9) > 1e-12 {
		t.Errorf("brightness = %v, want 0.9", got)
	}
}

func TestReset(t *testing.T) {
	reg := stimuli.NewRegistry()
	keep := reg.Add(stimuli.LightSpec{Label: "yellow"})
	m := New(reg, DefaultConfig())
	for i := 0; i < 4; i++ {
		m.DropAt(float64(i), 0)
	}
	m.Reset()
	m.Reset()
	if m.Len() != 0 || reg.Len() != 1 || !reg.Valid(keep) {
		t.Errorf("markers = %d, registry = %d after reset", m.Len(), reg.Len())
	}
	if got := len(m.Series()["count"]); got != 1 {
		t.Errorf("count history = %d, want 1", got)
	}
}
