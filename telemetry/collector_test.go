package telemetry

import (
	"math"
	"testing"
)

func TestCollectorWindow(t *testing.T) {
	c := NewCollector(10, 0.1)
	c.Record(NewDeathEvent(3, "robot_0"))
	c.Record(NewConsumeEvent(4, "food_0", 2.5))
	c.Record(NewConsumeEvent(6, "food_0", -1))
	c.Record(NewDisturbanceEvent(7, "swap", true))

	if c.ShouldFlush(9) {
		t.Error("flushed before the window closed")
	}
	if !c.ShouldFlush(10) {
		t.Fatal("window did not close at tick 10")
	}
	s := c.Flush(2, 10, 1, []float64{0, 1})
	if s.Run != 2 || s.Deaths != 1 || s.Consumed != 2 || s.Disturbances != 1 || s.Alive != 1 {
		t.Errorf("stats = %+v", s)
	}
	if math.Abs(s.ConsumedEnergy-1.5) > 1e-12 || math.Abs(s.SimTimeSec-1) > 1e-12 {
		t.Errorf("consumed energy = %v, sim time = %v", s.ConsumedEnergy, s.SimTimeSec)
	}
	if math.Abs(s.EnergyMean-0.5) > 1e-12 {
		t.Errorf("energy mean = %v, want 0.5", s.EnergyMean)
	}

	next := c.Flush(2, 20, 1, []float64{1})
	if next.WindowStartTick != 10 || next.Deaths != 0 || next.Consumed != 0 {
		t.Errorf("counters not cleared: %+v", next)
	}
}

func TestEventTypeString(t *testing.T) {
	if got := NewDisturbanceEvent(0, "d", false).Type.String(); got != "disturbance_off" {
		t.Errorf("String() = %q", got)
	}
}

func TestLifetimeTracker(t *testing.T) {
	lt := NewLifetimeTracker()
	lt.Reset(3)
	lt.Register("b", 1)
	lt.Register("a", 1)
	lt.UpdateEnergy("a", 1.5)
	lt.UpdateEnergy("a", 0.2)
	lt.UpdateSurvivalTime("a", 5, 0.1)
	lt.RecordDeath("b", 4, 0.1)
	lt.UpdateSurvivalTime("b", 8, 0.1)

	all := lt.All()
	if len(all) != 2 || all[0].Agent != "a" || all[1].Agent != "b" {
		t.Fatalf("All() = %+v", all)
	}
	a, b := all[0], all[1]
	if a.Run != 3 || a.PeakEnergy != 1.5 || a.FinalEnergy != 0.2 || !a.Alive {
		t.Errorf("a = %+v", a)
	}
	if math.Abs(a.SurvivalTimeSec-0.5) > 1e-12 {
		t.Errorf("a survival = %v, want 0.5", a.SurvivalTimeSec)
	}
	// death freezes the survival time
	if b.Alive || math.Abs(b.SurvivalTimeSec-0.4) > 1e-12 {
		t.Errorf("b = %+v", b)
	}
}

func TestPathLength(t *testing.T) {
	if got := PathLength([]float64{0, 3, 3}, []float64{0, 4, 0}); math.Abs(got-9) > 1e-12 {
		t.Errorf("PathLength = %v, want 9", got)
	}
	if got := PathLength([]float64{1}, []float64{1}); got != 0 {
		t.Errorf("single point PathLength = %v, want 0", got)
	}
}
