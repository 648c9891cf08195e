// Package disturbance perturbs motors, sensors, controllers and lights during
// a run according to a start/stop schedule.
package disturbance

import (
	"slices"

	"github.com/pthm-cable/sandbox/telemetry"
)

// Source is a scheduled disturbance.
type Source interface {
	Name() string
	Step(dt float64)
	Enabled() bool
	Reset()
	Series() telemetry.Series
}

// Schedule is the construction record of a Scheduler.
type Schedule struct {
	Start []float64
	Stop  []float64
	// Enabled is the initial state when Start is empty. With start times the
	// scheduler always begins disabled.
	Enabled bool
}

// Scheduler is a two-state machine driven by an internal clock. While
// enabled it disables once the clock passes the next stop time; while
// disabled it enables once the clock passes the next start time. Each time is
// used once.
type Scheduler struct {
	sched   Schedule
	enabled bool
	t       float64
	start   []float64
	stop    []float64
	history []bool
}

// NewScheduler creates a scheduler.
func NewScheduler(s Schedule) Scheduler {
	sc := Scheduler{sched: s}
	sc.Reset()
	return sc
}

// Always returns a schedule that is enabled from the start and never stops.
func Always() Schedule { return Schedule{Enabled: true} }

// Advance moves the clock forward by dt and applies at most one transition.
func (s *Scheduler) Advance(dt float64) {
	s.t += dt
	if s.enabled {
		if len(s.stop) > 0 && s.t > s.stop[0] {
			s.enabled = false
			s.stop = s.stop[1:]
		}
	} else if len(s.start) > 0 && s.t > s.start[0] {
		s.enabled = true
		s.start = s.start[1:]
	}
}

// Enabled reports the current state.
func (s *Scheduler) Enabled() bool { return s.enabled }

// Disable forces the disabled state. One-shot disturbances call it right
// after applying themselves.
func (s *Scheduler) Disable() { s.enabled = false }

// Clock returns the elapsed time.
func (s *Scheduler) Clock() float64 { return s.t }

// Pending returns the number of unused start and stop times.
func (s *Scheduler) Pending() (start, stop int) { return len(s.start), len(s.stop) }

// record appends the state after a step. Concrete sources call it last.
func (s *Scheduler) record() { s.history = append(s.history, s.enabled) }

// Reset restores both queues, the clock and the initial state.
func (s *Scheduler) Reset() {
	s.t = 0
	s.start = slices.Clone(s.sched.Start)
	s.stop = slices.Clone(s.sched.Stop)
	s.enabled = s.sched.Enabled && len(s.sched.Start) == 0
	s.history = []bool{s.enabled}
}

// Series returns the enabled history.
func (s *Scheduler) Series() telemetry.Series {
	out := telemetry.Series{}
	out.PutBools("enabled", s.history)
	return out
}
