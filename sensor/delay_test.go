package sensor

import (
	"errors"
	"testing"

	"github.com/pthm-cable/sandbox/noise"
)

func TestDelayLatency(t *testing.T) {
	for _, n := range []int{0, 1, 2, 5} {
		d, err := NewDelay(n)
		if err != nil {
			t.Fatalf("NewDelay(%d): %v", n, err)
		}
		for i := 0; i < 20; i++ {
			v := float64(i + 1)
			got := d.Push(v)
			want := 0.0
			if i >= n {
				want = float64(i - n + 1)
			}
			if got != want {
				t.Errorf("N=%d step %d: output = %v, want %v", n, i, got, want)
			}
		}
	}
}

func TestNegativeDelayRejected(t *testing.T) {
	if _, err := NewDelay(-1); !errors.Is(err, ErrNegativeDelay) {
		t.Errorf("err = %v, want ErrNegativeDelay", err)
	}
	if _, err := NewCompass(Options{DelaySteps: -3}); !errors.Is(err, ErrNegativeDelay) {
		t.Errorf("sensor err = %v, want ErrNegativeDelay", err)
	}
}

func TestDelayReset(t *testing.T) {
	d, _ := NewDelay(2)
	d.Push(5)
	d.Push(6)
	d.Reset()
	if got := d.Push(7); got != 0 {
		t.Errorf("first output after reset = %v, want 0", got)
	}
	if len(d.Outputs()) != 2 {
		t.Errorf("outputs length = %d, want 2", len(d.Outputs()))
	}
}

func TestNoiseAppliedBeforeDelay(t *testing.T) {
	sig, err := NewSignal(noise.NewWhite(1, 1, 0), 1)
	if err != nil {
		t.Fatal(err)
	}
	if got := sig.Emit(10, 0.1); got != 0 {
		t.Errorf("first emission = %v, want 0 from the empty buffer", got)
	}
	if got := sig.Emit(20, 0.1); got != 11 {
		t.Errorf("second emission = %v, want noisy first value 11", got)
	}
	if got := len(sig.Activations()); got != 3 {
		t.Errorf("history length = %d, want 3", got)
	}
}
