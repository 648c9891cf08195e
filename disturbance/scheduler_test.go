package disturbance

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestScheduleWindow(t *testing.T) {
	s := NewScheduler(Schedule{Start: []float64{10}, Stop: []float64{20}})
	if s.Enabled() {
		t.Fatal("scheduler with start times must begin disabled")
	}
	for step := 1; step <= 25; step++ {
		s.Advance(1)
		want := step >= 11 && step < 21
		if s.Enabled() != want {
			t.Errorf("clock %d: enabled = %v, want %v", step, s.Enabled(), want)
		}
	}
	if start, stop := s.Pending(); start != 0 || stop != 0 {
		t.Errorf("pending = %d, %d, want both empty", start, stop)
	}
}

func TestScheduleInitialState(t *testing.T) {
	tests := []struct {
		name  string
		sched Schedule
		want  bool
	}{
		{"enabled without start times", Schedule{Enabled: true}, true},
		{"disabled without start times", Schedule{}, false},
		{"start times win", Schedule{Start: []float64{1}, Enabled: true}, false},
		{"always", Always(), true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sc := NewScheduler(tc.sched)
			if got := sc.Enabled(); got != tc.want {
				t.Errorf("enabled = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestStopTimesOnlyConsumedWhileEnabled(t *testing.T) {
	s := NewScheduler(Schedule{Start: []float64{5}, Stop: []float64{2, 8}})
	for i := 0; i < 10; i++ {
		s.Advance(1)
	}
	// the stop at 2 is still queued when the window opens at clock 6, so it
	// closes the window on the next step
	if s.Enabled() {
		t.Error("expected disabled after the first stop time fired")
	}
	if _, stop := s.Pending(); stop != 1 {
		t.Errorf("pending stops = %d, want 1", stop)
	}
}

func TestSchedulerReset(t *testing.T) {
	s := NewScheduler(Schedule{Start: []float64{1, 3}, Stop: []float64{2}})
	for i := 0; i < 5; i++ {
		s.Advance(1)
		s.record()
	}
	s.Reset()
	once := s.Series()
	s.Reset()
	if diff := cmp.Diff(once, s.Series()); diff != "" {
		t.Errorf("second reset changed state (-once +twice):\n%s", diff)
	}
	if s.Clock() != 0 || s.Enabled() {
		t.Errorf("clock=%v enabled=%v after reset", s.Clock(), s.Enabled())
	}
	if start, stop := s.Pending(); start != 2 || stop != 1 {
		t.Errorf("pending = %d, %d, want 2, 1", start, stop)
	}
}
