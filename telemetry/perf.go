package telemetry

import (
	"log/slog"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Phase names for the simulation step. The component group phases match the
// names accepted in the step order.
const (
	PhaseArenas        = "arenas"
	PhaseAgents        = "agents"
	PhaseConsumables   = "consumables"
	PhasePheromones    = "pheromones"
	PhaseLightManagers = "light_managers"
	PhaseDisturbances  = "disturbances"
	PhaseTelemetry     = "telemetry"
)

// Phases lists every phase in default step order.
var Phases = []string{
	PhaseArenas, PhaseAgents, PhaseConsumables, PhasePheromones,
	PhaseLightManagers, PhaseDisturbances, PhaseTelemetry,
}

// PerfCollector keeps a ring of the last window tick timings, in nanoseconds,
// with one column per phase.
type PerfCollector struct {
	window int
	next   int
	count  int

	ticks  []float64
	phases map[string][]float64

	current    map[string]time.Duration
	tickStart  time.Time
	phaseStart time.Time
	phase      string

	now func() time.Time
}

// NewPerfCollector creates a collector averaging over window ticks.
func NewPerfCollector(window int) *PerfCollector {
	if window < 1 {
		window = 60
	}
	return &PerfCollector{
		window:  window,
		ticks:   make([]float64, window),
		phases:  make(map[string][]float64),
		current: make(map[string]time.Duration),
		now:     time.Now,
	}
}

// StartTick begins timing a tick.
func (p *PerfCollector) StartTick() {
	p.tickStart = p.now()
	clear(p.current)
	p.phase = ""
}

// StartPhase closes the running phase, if any, and opens phase.
func (p *PerfCollector) StartPhase(phase string) {
	now := p.now()
	p.closePhase(now)
	p.phaseStart = now
	p.phase = phase
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.phase != "" {
		p.current[p.phase] += now.Sub(p.phaseStart)
	}
}

// EndTick closes the tick and stores it in the ring.
func (p *PerfCollector) EndTick() {
	now := p.now()
	p.closePhase(now)
	p.phase = ""

	for name := range p.current {
		if _, ok := p.phases[name]; !ok {
			p.phases[name] = make([]float64, p.window)
		}
	}
	for name, col := range p.phases {
		col[p.next] = float64(p.current[name])
	}
	p.ticks[p.next] = float64(now.Sub(p.tickStart))

	p.next = (p.next + 1) % p.window
	p.count = min(p.count+1, p.window)
}

// PerfStats holds aggregated timings over the window.
type PerfStats struct {
	AvgTickDuration time.Duration
	MinTickDuration time.Duration
	MaxTickDuration time.Duration

	PhaseAvg map[string]time.Duration
	PhasePct map[string]float64 // share of the average tick, in percent

	TicksPerSecond float64
}

// Stats aggregates the samples currently in the window.
func (p *PerfCollector) Stats() PerfStats {
	st := PerfStats{
		PhaseAvg: make(map[string]time.Duration),
		PhasePct: make(map[string]float64),
	}
	if p.count == 0 {
		return st
	}
	ticks := p.ticks[:p.count]
	avg := stat.Mean(ticks, nil)
	st.AvgTickDuration = time.Duration(avg)
	st.MinTickDuration = time.Duration(floats.Min(ticks))
	st.MaxTickDuration = time.Duration(floats.Max(ticks))
	if avg > 0 {
		st.TicksPerSecond = float64(time.Second) / avg
	}
	for name, col := range p.phases {
		m := stat.Mean(col[:p.count], nil)
		st.PhaseAvg[name] = time.Duration(m)
		if avg > 0 {
			st.PhasePct[name] = m / avg * 100
		}
	}
	return st
}

// Reset drops every sample and phase column.
func (p *PerfCollector) Reset() {
	p.next, p.count = 0, 0
	clear(p.phases)
	clear(p.current)
	p.phase = ""
}

// LogStats logs the window summary, with phases above 0.1% in step order.
func (s PerfStats) LogStats(logger *slog.Logger) {
	attrs := []any{
		"avg_tick_us", s.AvgTickDuration.Microseconds(),
		"min_tick_us", s.MinTickDuration.Microseconds(),
		"max_tick_us", s.MaxTickDuration.Microseconds(),
		"ticks_per_sec", int(s.TicksPerSecond),
	}
	for _, phase := range Phases {
		if pct := s.PhasePct[phase]; pct > 0.1 {
			attrs = append(attrs, phase+"_pct", float64(int(pct*10))/10)
		}
	}
	logger.Info("perf", attrs...)
}

// PerfStatsCSV is one row of perf.csv.
type PerfStatsCSV struct {
	Run              int     `csv:"run"`
	WindowEnd        int     `csv:"window_end"`
	AvgTickUS        int64   `csv:"avg_tick_us"`
	MinTickUS        int64   `csv:"min_tick_us"`
	MaxTickUS        int64   `csv:"max_tick_us"`
	TicksPerSec      float64 `csv:"ticks_per_sec"`
	ArenasPct        float64 `csv:"arenas_pct"`
	AgentsPct        float64 `csv:"agents_pct"`
	ConsumablesPct   float64 `csv:"consumables_pct"`
	PheromonesPct    float64 `csv:"pheromones_pct"`
	LightManagersPct float64 `csv:"light_managers_pct"`
	DisturbancesPct  float64 `csv:"disturbances_pct"`
	TelemetryPct     float64 `csv:"telemetry_pct"`
}

// ToCSV flattens s into a perf.csv row.
func (s PerfStats) ToCSV(run, windowEnd int) PerfStatsCSV {
	return PerfStatsCSV{
		Run:              run,
		WindowEnd:        windowEnd,
		AvgTickUS:        s.AvgTickDuration.Microseconds(),
		MinTickUS:        s.MinTickDuration.Microseconds(),
		MaxTickUS:        s.MaxTickDuration.Microseconds(),
		TicksPerSec:      s.TicksPerSecond,
		ArenasPct:        s.PhasePct[PhaseArenas],
		AgentsPct:        s.PhasePct[PhaseAgents],
		ConsumablesPct:   s.PhasePct[PhaseConsumables],
		PheromonesPct:    s.PhasePct[PhasePheromones],
		LightManagersPct: s.PhasePct[PhaseLightManagers],
		DisturbancesPct:  s.PhasePct[PhaseDisturbances],
		TelemetryPct:     s.PhasePct[PhaseTelemetry],
	}
}
