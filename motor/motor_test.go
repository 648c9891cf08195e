package motor

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/pthm-cable/sandbox/noise"
)

func TestStepWithoutInertiaSaturates(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		command float64
		want    float64
	}{
		{"saturates positive", Config{MaxSpeed: 2}, 5, 2},
		{"saturates negative", Config{MaxSpeed: 2}, -5, -2},
		{"within range", Config{MaxSpeed: 2}, 1.5, 1.5},
		{"negative max speed uses magnitude", Config{MaxSpeed: -2}, 5, 2},
		{"reversed", Config{MaxSpeed: 2, Reversed: true}, 1, -1},
		{"reversed saturates", Config{MaxSpeed: 2, Reversed: true}, 5, -2},
		{"negative inertia clamps", Config{MaxSpeed: 3, Inertia: -4}, 1, 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := New(tc.cfg, nil)
			got := m.Step(tc.command, 0.1)
			if math.Abs(got-tc.want) > 1e-12 {
				t.Errorf("Step(%v) = %v, want %v", tc.command, got, tc.want)
			}
		})
	}
}

func TestInertiaLag(t *testing.T) {
	m := New(Config{MaxSpeed: 100, Inertia: 1}, nil)
	// denominator 2: each step closes half the gap
	want := []float64{5, 7.5, 8.75}
	for i, w := range want {
		if got := m.Step(10, 0.1); math.Abs(got-w) > 1e-12 {
			t.Errorf("step %d: speed = %v, want %v", i, got, w)
		}
	}
}

func TestNoiseIsNotScaledByDt(t *testing.T) {
	m := New(Config{MaxSpeed: 10}, noise.NewWhite(0.5, 0.5, 1))
	if got := m.Step(1, 0.001); math.Abs(got-1.5) > 1e-12 {
		t.Errorf("speed = %v, want 1.5", got)
	}
}

func TestHistories(t *testing.T) {
	m := New(Config{MaxSpeed: 2}, nil)
	for i := 0; i < 5; i++ {
		m.Step(1, 0.1)
	}
	if len(m.Speeds()) != 6 {
		t.Errorf("speed history length = %d, want 6", len(m.Speeds()))
	}
	if len(m.Series()["reversed"]) != 6 {
		t.Errorf("reversed history length = %d, want 6", len(m.Series()["reversed"]))
	}
}

func TestResetIdempotent(t *testing.T) {
	m := New(Config{MaxSpeed: 2, Inertia: 3}, noise.NewGaussian(0, 0.1, 4))
	for i := 0; i < 10; i++ {
		m.Step(3, 0.1)
	}
	m.SetMaxSpeed(9)
	m.SetReversed(true)
	m.SetInertia(0)

	m.Reset()
	once := m.Series()
	m.Reset()
	twice := m.Series()
	if diff := cmp.Diff(once, twice); diff != "" {
		t.Errorf("second reset changed state (-once +twice):\n%s", diff)
	}
	if m.MaxSpeed() != 2 || m.Reversed() || m.Speed() != 0 {
		t.Errorf("reset did not restore construction values: max=%v reversed=%v speed=%v",
			m.MaxSpeed(), m.Reversed(), m.Speed())
	}
	// inertia restored: coefficient 3 -> denominator 4
	if got := m.Step(4, 0.1); math.Abs(got-1) > 0.5 {
		t.Errorf("first step after reset = %v, want about 1", got)
	}
}
