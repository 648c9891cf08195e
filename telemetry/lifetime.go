package telemetry

import (
	"math"
	"slices"
	"strings"
)

// LifetimeStats summarizes one agent over one run.
type LifetimeStats struct {
	Run             int     `csv:"run"`
	Agent           string  `csv:"agent"`
	Alive           bool    `csv:"alive"`
	SurvivalTimeSec float64 `csv:"survival_time"`
	PeakEnergy      float64 `csv:"peak_energy"`
	FinalEnergy     float64 `csv:"final_energy"`
	PathLength      float64 `csv:"path_length"`
	FinalX          float64 `csv:"final_x"`
	FinalY          float64 `csv:"final_y"`
	// LightDistance is the final distance to the nearest lit light, or -1
	// when no light is lit.
	LightDistance float64 `csv:"light_distance"`
}

// LifetimeTracker manages per-agent lifetime statistics for one run.
type LifetimeTracker struct {
	run   int
	stats map[string]*LifetimeStats
}

// NewLifetimeTracker creates a new lifetime tracker.
func NewLifetimeTracker() *LifetimeTracker {
	return &LifetimeTracker{
		stats: make(map[string]*LifetimeStats),
	}
}

// Register starts tracking an agent with its initial energy.
func (lt *LifetimeTracker) Register(agent string, energy float64) {
	lt.stats[agent] = &LifetimeStats{
		Run:         lt.run,
		Agent:       agent,
		Alive:       true,
		PeakEnergy:  energy,
		FinalEnergy: energy,
	}
}

// Get returns the lifetime stats for an agent, or nil if not found.
func (lt *LifetimeTracker) Get(agent string) *LifetimeStats {
	return lt.stats[agent]
}

// UpdateEnergy tracks peak and latest energy.
func (lt *LifetimeTracker) UpdateEnergy(agent string, energy float64) {
	if s := lt.stats[agent]; s != nil {
		s.PeakEnergy = math.Max(s.PeakEnergy, energy)
		s.FinalEnergy = energy
	}
}

// UpdateSurvivalTime sets the survival time of a living agent from the
// current tick.
func (lt *LifetimeTracker) UpdateSurvivalTime(agent string, currentTick int, dt float64) {
	if s := lt.stats[agent]; s != nil && s.Alive {
		s.SurvivalTimeSec = float64(currentTick) * dt
	}
}

// RecordDeath freezes the survival time of an agent.
func (lt *LifetimeTracker) RecordDeath(agent string, tick int, dt float64) {
	if s := lt.stats[agent]; s != nil && s.Alive {
		s.Alive = false
		s.SurvivalTimeSec = float64(tick) * dt
	}
}

// All returns all tracked stats ordered by agent name.
func (lt *LifetimeTracker) All() []LifetimeStats {
	out := make([]LifetimeStats, 0, len(lt.stats))
	for _, s := range lt.stats {
		out = append(out, *s)
	}
	slices.SortFunc(out, func(a, b LifetimeStats) int { return strings.Compare(a.Agent, b.Agent) })
	return out
}

// Count returns the number of tracked agents.
func (lt *LifetimeTracker) Count() int {
	return len(lt.stats)
}

// Reset drops every agent and starts tracking run.
func (lt *LifetimeTracker) Reset(run int) {
	lt.run = run
	clear(lt.stats)
}

// PathLength returns the length of the polyline through xs and ys.
func PathLength(xs, ys []float64) float64 {
	var d float64
	for i := 1; i < len(xs) && i < len(ys); i++ {
		d += math.Hypot(xs[i]-xs[i-1], ys[i]-ys[i-1])
	}
	return d
}
