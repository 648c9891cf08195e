package disturbance

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pthm-cable/sandbox/noise"
	"github.com/pthm-cable/sandbox/stimuli"
)

type speed struct{ v float64 }

func (s *speed) AdjustSpeed(d float64) { s.v += d }

type layout struct{ angles []float64 }

func (l *layout) SensorAngle(i int) (float64, bool) {
	if i < 0 || i >= len(l.angles) || math.IsNaN(l.angles[i]) {
		return 0, false
	}
	return l.angles[i], true
}

func (l *layout) SetSensorAngle(i int, a float64) {
	if _, ok := l.SensorAngle(i); ok {
		l.angles[i] = a
	}
}

type params struct{ p []float64 }

func (p *params) Params() []float64     { return append([]float64(nil), p.p...) }
func (p *params) SetParams(v []float64) { p.p = append([]float64(nil), v...) }

func TestMotorNoiseOnlyWhileEnabled(t *testing.T) {
	target := &speed{}
	d, err := NewMotorNoise("noise", target, noise.NewWhite(1, 1, 0), Schedule{Start: []float64{2}, Stop: []float64{4}})
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		d.Step(1)
	}
	// enabled on clocks 3 and 4
	if target.v != 2 {
		t.Errorf("accumulated noise = %v, want 2", target.v)
	}
}

func TestMotorNoiseNeedsSource(t *testing.T) {
	if _, err := NewMotorNoise("noise", &speed{}, nil, Always()); !errors.Is(err, ErrNoNoise) {
		t.Errorf("err = %v, want ErrNoNoise", err)
	}
}

func TestMovingSensors(t *testing.T) {
	l := &layout{angles: []float64{math.NaN(), 0.5, -0.5}}
	d := NewMovingSensors("move", l, []int{0, 1, 2}, DefaultMaxMove, 1, Always())
	for i := 0; i < 5; i++ {
		d.Step(0.1)
	}
	if l.angles[1] == 0.5 || l.angles[2] == -0.5 {
		t.Error("angles did not move")
	}
	if math.Abs(l.angles[1]-0.5) > 5*DefaultMaxMove+1e-12 {
		t.Errorf("angle drifted %v, more than five steps allow", l.angles[1]-0.5)
	}
	if !math.IsNaN(l.angles[0]) {
		t.Error("centred sensor was moved")
	}
	d.Reset()
	if l.angles[1] != 0.5 || l.angles[2] != -0.5 {
		t.Errorf("angles after reset = %v", l.angles)
	}
}

func TestSensoryInversionFiresOnce(t *testing.T) {
	l := &layout{angles: []float64{0.5, -0.5}}
	d := NewSensoryInversion("invert", l, 0, 1, Schedule{Start: []float64{0.5}})
	for i := 0; i < 10; i++ {
		d.Step(0.1)
	}
	if l.angles[0] != -0.5 || l.angles[1] != 0.5 {
		t.Errorf("angles = %v, want swapped exactly once", l.angles)
	}
	if d.Enabled() {
		t.Error("one-shot disturbance still enabled")
	}
	d.Reset()
	if l.angles[0] != 0.5 {
		t.Errorf("angles after reset = %v", l.angles)
	}
}

func TestParameterDisturbance(t *testing.T) {
	p := &params{p: []float64{5, 5, 5}}
	d := NewParameter("params", p, 3, Schedule{Start: []float64{0}})
	d.Step(0.1)
	for _, v := range p.p {
		if v < -ParameterRange || v > ParameterRange {
			t.Errorf("param %v outside [-2, 2]", v)
		}
	}
	if d.Enabled() {
		t.Error("parameter disturbance should disable itself")
	}
	d.Reset()
	if p.p[0] != 5 {
		t.Errorf("params after reset = %v, want restored", p.p)
	}
}

func TestParameterResetRestoresOnlyWhatItOverwrote(t *testing.T) {
	tests := []struct {
		name  string
		start []float64
		want  []float64
	}{
		{"fires", []float64{0}, []float64{7, 8}},
		{"never fires", []float64{10}, []float64{7, 8}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := &params{p: []float64{1, 1}}
			d := NewParameter("params", p, 3, Schedule{Start: tc.start})
			// Params learned before the shot must survive a reset.
			p.SetParams([]float64{7, 8})
			d.Step(0.1)
			d.Reset()
			if diff := cmp.Diff(tc.want, p.p); diff != "" {
				t.Errorf("params after reset (-want +got):\n%s", diff)
			}
			d.Reset()
			if diff := cmp.Diff(tc.want, p.p); diff != "" {
				t.Errorf("params after second reset (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLightSwitcher(t *testing.T) {
	reg := stimuli.NewRegistry()
	red := reg.Add(stimuli.LightSpec{Label: "red"})
	yellow := reg.Add(stimuli.LightSpec{Label: "yellow"})
	green := reg.Add(stimuli.LightSpec{Label: "green"})
	d := NewLightSwitcher("switch", reg, "red", "yellow", Schedule{Start: []float64{0}})

	for i := 0; i < 3; i++ {
		d.Step(0.1)
	}
	if reg.Label(red) != "yellow" || reg.Label(yellow) != "red" || reg.Label(green) != "green" {
		t.Errorf("labels = %s, %s, %s", reg.Label(red), reg.Label(yellow), reg.Label(green))
	}
	d.Reset()
	if reg.Label(red) != "red" || reg.Label(yellow) != "yellow" {
		t.Error("reset did not restore labels")
	}
}
