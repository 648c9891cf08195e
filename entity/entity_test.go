package entity

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestHistoryLengthTracksSteps(t *testing.T) {
	tests := []struct {
		name       string
		pose       Pose
		wantXs     int
		wantThetas int
	}{
		{"position and heading", AtHeading(1, 2, 0.5), 4, 4},
		{"position only", At(1, 2), 4, 0},
		{"untracked", Pose{}, 0, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := New(tc.pose)
			for range 3 {
				e.X++
				e.Theta += 0.1
				e.Record()
			}
			if len(e.Xs()) != tc.wantXs || len(e.Ys()) != tc.wantXs {
				t.Errorf("position history lengths = %d/%d, want %d", len(e.Xs()), len(e.Ys()), tc.wantXs)
			}
			if len(e.Thetas()) != tc.wantThetas {
				t.Errorf("heading history length = %d, want %d", len(e.Thetas()), tc.wantThetas)
			}
			if tc.pose.HasPosition && e.Steps() != 3 {
				t.Errorf("steps = %d, want 3", e.Steps())
			}
		})
	}
}

func TestOverwriteDoesNotAppend(t *testing.T) {
	e := New(AtHeading(0, 0, 0))
	e.X = 1
	e.Record()
	e.Overwrite(5, 6)
	e.OverwriteHeading(1.5)

	if diff := cmp.Diff([]float64{0, 5}, e.Xs()); diff != "" {
		t.Errorf("xs mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{0, 1.5}, e.Thetas()); diff != "" {
		t.Errorf("thetas mismatch (-want +got):\n%s", diff)
	}
	if x, y := e.Position(); x != 5 || y != 6 {
		t.Errorf("position = (%v, %v), want (5, 6)", x, y)
	}
}

func TestResetReturnsToConstructionPose(t *testing.T) {
	e := New(AtHeading(1, 2, 0.3))
	for range 5 {
		e.X, e.Y, e.Theta = e.X+1, e.Y-1, e.Theta+0.2
		e.Record()
	}
	e.Reset()
	first := []float64{e.X, e.Y, e.Theta}
	firstXs := append([]float64(nil), e.Xs()...)
	e.Reset()

	if diff := cmp.Diff([]float64{1, 2, 0.3}, first); diff != "" {
		t.Errorf("pose after reset (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(firstXs, e.Xs()); diff != "" {
		t.Errorf("second reset differs (-first +second):\n%s", diff)
	}
	if e.Steps() != 0 {
		t.Errorf("steps = %d, want 0", e.Steps())
	}
}

func TestHooks(t *testing.T) {
	e := New(At(0, 0))
	var runs []int
	e.SetInitFunc(func(e *Entity, run int) {
		runs = append(runs, run)
		e.Overwrite(float64(run), 0)
	})
	e.SetPerturbFunc(func(e *Entity) { e.Overwrite(e.X, 9) })

	for range 3 {
		e.Reset()
		e.InitConditions()
		e.Perturb()
	}
	if diff := cmp.Diff([]int{0, 1, 2}, runs); diff != "" {
		t.Errorf("init run indices (-want +got):\n%s", diff)
	}
	if x, y := e.Position(); x != 2 || y != 9 {
		t.Errorf("position = (%v, %v), want (2, 9)", x, y)
	}

	plain := New(At(1, 1))
	plain.Perturb()
	plain.InitConditions()
	if x, y := plain.Position(); x != 1 || y != 1 {
		t.Errorf("hookless entity moved to (%v, %v)", x, y)
	}
}
