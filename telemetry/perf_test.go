package telemetry

import (
	"math"
	"testing"
	"time"
)

// steppedClock returns a clock that advances by the next offset in steps,
// cycling, on every call.
func steppedClock(steps ...time.Duration) func() time.Time {
	now := time.Unix(0, 0)
	i := 0
	return func() time.Time {
		now = now.Add(steps[i%len(steps)])
		i++
		return now
	}
}

func TestPerfCollectorPhases(t *testing.T) {
	pc := NewPerfCollector(10)
	// StartTick, StartPhase(arenas), StartPhase(agents), EndTick.
	pc.now = steppedClock(0, 0, 20*time.Microsecond, 300*time.Microsecond)
	for range 5 {
		pc.StartTick()
		pc.StartPhase(PhaseArenas)
		pc.StartPhase(PhaseAgents)
		pc.EndTick()
	}

	stats := pc.Stats()
	want := 320 * time.Microsecond
	if stats.AvgTickDuration != want || stats.MinTickDuration != want || stats.MaxTickDuration != want {
		t.Errorf("tick durations avg=%v min=%v max=%v, want %v", stats.AvgTickDuration, stats.MinTickDuration, stats.MaxTickDuration, want)
	}
	tests := []struct {
		phase string
		avg   time.Duration
		pct   float64
	}{
		{PhaseArenas, 20 * time.Microsecond, 6.25},
		{PhaseAgents, 300 * time.Microsecond, 93.75},
	}
	for _, tc := range tests {
		if got := stats.PhaseAvg[tc.phase]; got != tc.avg {
			t.Errorf("%s avg = %v, want %v", tc.phase, got, tc.avg)
		}
		if got := stats.PhasePct[tc.phase]; math.Abs(got-tc.pct) > 1e-9 {
			t.Errorf("%s share = %v%%, want %v%%", tc.phase, got, tc.pct)
		}
	}
	if got := stats.TicksPerSecond; math.Abs(got-3125) > 1e-6 {
		t.Errorf("ticks per second = %v, want 3125", got)
	}
}

func TestPerfCollectorWindowWraps(t *testing.T) {
	pc := NewPerfCollector(3)
	var ticks []time.Duration
	for i := range 10 {
		ticks = append(ticks, 0, 0, time.Duration(i+1)*time.Millisecond)
	}
	pc.now = steppedClock(ticks...)
	for range 10 {
		pc.StartTick()
		pc.StartPhase(PhaseArenas)
		pc.EndTick()
	}
	if pc.count != 3 {
		t.Errorf("count = %d, want 3", pc.count)
	}
	// Only ticks 8, 9 and 10 ms remain in the window.
	stats := pc.Stats()
	if stats.MinTickDuration != 8*time.Millisecond || stats.MaxTickDuration != 10*time.Millisecond {
		t.Errorf("min/max = %v/%v, want 8ms/10ms", stats.MinTickDuration, stats.MaxTickDuration)
	}
	if stats.AvgTickDuration != 9*time.Millisecond {
		t.Errorf("avg = %v, want 9ms", stats.AvgTickDuration)
	}
}

func TestPerfCollectorEmptyAndReset(t *testing.T) {
	pc := NewPerfCollector(4)
	stats := pc.Stats()
	if stats.AvgTickDuration != 0 || stats.PhaseAvg == nil || stats.PhasePct == nil {
		t.Errorf("empty stats = %+v", stats)
	}

	pc.StartTick()
	pc.StartPhase(PhaseAgents)
	pc.EndTick()
	pc.Reset()
	if stats := pc.Stats(); stats.AvgTickDuration != 0 || len(stats.PhaseAvg) != 0 {
		t.Errorf("stats after reset = %+v, want empty", stats)
	}
}

func TestPerfStatsToCSV(t *testing.T) {
	s := PerfStats{
		AvgTickDuration: 1500 * time.Microsecond,
		PhasePct:        map[string]float64{PhaseDisturbances: 12.5},
	}
	row := s.ToCSV(2, 40)
	if row.Run != 2 || row.WindowEnd != 40 || row.AvgTickUS != 1500 || row.DisturbancesPct != 12.5 {
		t.Errorf("row = %+v", row)
	}
}
