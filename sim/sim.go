// Package sim drives a complete scenario: it owns every component, steps them
// in a fixed group order, resets and perturbs them between runs, and feeds
// the telemetry layer.
package sim

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"

	"github.com/pthm-cable/sandbox/agent"
	"github.com/pthm-cable/sandbox/disturbance"
	"github.com/pthm-cable/sandbox/pheromone"
	"github.com/pthm-cable/sandbox/stimuli"
	"github.com/pthm-cable/sandbox/telemetry"
)

// Component groups, in default step order.
const (
	GroupArenas        = telemetry.PhaseArenas
	GroupAgents        = telemetry.PhaseAgents
	GroupConsumables   = telemetry.PhaseConsumables
	GroupPheromones    = telemetry.PhasePheromones
	GroupLightManagers = telemetry.PhaseLightManagers
	GroupDisturbances  = telemetry.PhaseDisturbances
)

// DefaultOrder is the group step order used when Options.Order is empty.
var DefaultOrder = []string{
	GroupArenas, GroupAgents, GroupConsumables,
	GroupPheromones, GroupLightManagers, GroupDisturbances,
}

var (
	// ErrBadStep is returned for a non-positive time step.
	ErrBadStep = errors.New("time step must be > 0")
	// ErrUnknownGroup is returned for an order entry that names no group.
	ErrUnknownGroup = errors.New("unknown component group")
)

// Stepper is a component advanced once per tick and restored between runs.
type Stepper interface {
	Step(dt float64)
	Reset()
}

// Options configures a Simulation.
type Options struct {
	Logger *slog.Logger             // defaults to slog.Default()
	Output *telemetry.OutputManager // nil disables file output
	Order  []string                 // group step order; empty means DefaultOrder

	// WindowTicks is the length of a telemetry stats window.
	WindowTicks int
	WriteSeries bool
	// LogStats logs every stats window at Info level.
	LogStats bool
	// NoPerturb skips the perturb hooks before each run.
	NoPerturb bool
}

// Simulation owns every component of a scenario.
type Simulation struct {
	dt     float64
	ticks  int
	logger *slog.Logger
	output *telemetry.OutputManager
	order  []string
	opts   Options

	lights        *stimuli.Registry
	targets       []stimuli.Handle
	arenas        []Stepper
	agents        []*agent.Agent
	consumables   []*observed
	pheromones    *pheromone.Manager
	lightManagers []Stepper
	disturbances  []disturbance.Source

	tick    int
	run     int
	alive   []bool
	enabled []bool

	collector *telemetry.Collector
	lifetimes *telemetry.LifetimeTracker
	perf      *telemetry.PerfCollector
}

// New creates an empty simulation of ticks steps of length dt per run.
// lights is the registry every light-bearing component shares.
func New(dt float64, ticks int, lights *stimuli.Registry, opts Options) (*Simulation, error) {
	if dt <= 0 || math.IsNaN(dt) {
		return nil, fmt.Errorf("sim: dt %v: %w", dt, ErrBadStep)
	}
	order := opts.Order
	if len(order) == 0 {
		order = DefaultOrder
	}
	for _, g := range order {
		if !slices.Contains(DefaultOrder, g) {
			return nil, fmt.Errorf("sim: %q: %w", g, ErrUnknownGroup)
		}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if lights == nil {
		lights = stimuli.NewRegistry()
	}
	return &Simulation{
		dt:        dt,
		ticks:     ticks,
		logger:    logger,
		output:    opts.Output,
		order:     slices.Clone(order),
		opts:      opts,
		lights:    lights,
		collector: telemetry.NewCollector(opts.WindowTicks, dt),
		lifetimes: telemetry.NewLifetimeTracker(),
		perf:      telemetry.NewPerfCollector(max(opts.WindowTicks, 1)),
	}, nil
}

// AddArena adds a boundary or collision manager.
func (s *Simulation) AddArena(a Stepper) { s.arenas = append(s.arenas, a) }

// AddAgent adds an agent.
func (s *Simulation) AddAgent(a *agent.Agent) {
	s.agents = append(s.agents, a)
	s.alive = append(s.alive, a.Alive())
	s.lifetimes.Register(a.Name(), a.Energy())
}

// AddConsumable adds a consumable and returns the view agents should eat
// through, so that consumption is reported to telemetry.
func (s *Simulation) AddConsumable(c *stimuli.Consumable, name string) agent.Consumable {
	o := &observed{Consumable: c, name: name, sim: s}
	s.consumables = append(s.consumables, o)
	return o
}

// SetPheromones installs the pheromone manager.
func (s *Simulation) SetPheromones(m *pheromone.Manager) { s.pheromones = m }

// AddLightManager adds a light manager.
func (s *Simulation) AddLightManager(m Stepper) { s.lightManagers = append(s.lightManagers, m) }

// AddDisturbance adds a disturbance source.
func (s *Simulation) AddDisturbance(d disturbance.Source) {
	s.disturbances = append(s.disturbances, d)
	s.enabled = append(s.enabled, d.Enabled())
}

// SetTargets sets the lights that final light distances are measured to.
func (s *Simulation) SetTargets(h ...stimuli.Handle) { s.targets = h }

// Lights returns the stimulus registry.
func (s *Simulation) Lights() *stimuli.Registry { return s.lights }

// Agents returns every agent in step order.
func (s *Simulation) Agents() []*agent.Agent { return s.agents }

// Agent returns the agent called name.
func (s *Simulation) Agent(name string) (*agent.Agent, bool) {
	for _, a := range s.agents {
		if a.Name() == name {
			return a, true
		}
	}
	return nil, false
}

// Disturbances returns every disturbance source.
func (s *Simulation) Disturbances() []disturbance.Source { return s.disturbances }

// Pheromones returns the pheromone manager, or nil.
func (s *Simulation) Pheromones() *pheromone.Manager { return s.pheromones }

// DT returns the time step.
func (s *Simulation) DT() float64 { return s.dt }

// Ticks returns the number of steps per run.
func (s *Simulation) Ticks() int { return s.ticks }

// Tick returns the number of steps completed in the current run.
func (s *Simulation) Tick() int { return s.tick }

// Step advances every component group by one tick in the configured order.
func (s *Simulation) Step() {
	s.perf.StartTick()
	for _, g := range s.order {
		s.perf.StartPhase(g)
		s.stepGroup(g)
	}
	s.perf.StartPhase(telemetry.PhaseTelemetry)
	s.tick++
	s.observe()
	s.perf.EndTick()
}

func (s *Simulation) stepGroup(g string) {
	switch g {
	case GroupArenas:
		for _, a := range s.arenas {
			a.Step(s.dt)
		}
	case GroupAgents:
		for _, a := range s.agents {
			a.Step(s.dt)
		}
	case GroupConsumables:
		for _, c := range s.consumables {
			c.Step(s.dt)
		}
	case GroupPheromones:
		if s.pheromones != nil {
			s.pheromones.Step(s.dt)
		}
	case GroupLightManagers:
		for _, m := range s.lightManagers {
			m.Step(s.dt)
		}
	case GroupDisturbances:
		for _, d := range s.disturbances {
			d.Step(s.dt)
		}
	}
}

// observe turns state changes of the last tick into telemetry events.
func (s *Simulation) observe() {
	for i, a := range s.agents {
		if s.alive[i] && !a.Alive() {
			s.alive[i] = false
			s.collector.Record(telemetry.NewDeathEvent(s.tick, a.Name()))
			s.lifetimes.RecordDeath(a.Name(), s.tick, s.dt)
			s.logger.Info("agent died", "run", s.run, "tick", s.tick, "agent", a.Name())
		}
		s.lifetimes.UpdateEnergy(a.Name(), a.Energy())
		s.lifetimes.UpdateSurvivalTime(a.Name(), s.tick, s.dt)
	}
	for i, d := range s.disturbances {
		if on := d.Enabled(); on != s.enabled[i] {
			s.enabled[i] = on
			s.collector.Record(telemetry.NewDisturbanceEvent(s.tick, d.Name(), on))
			s.logger.Debug("disturbance switched", "run", s.run, "tick", s.tick, "disturbance", d.Name(), "enabled", on)
		}
	}
	if s.collector.ShouldFlush(s.tick) {
		s.flushWindow()
	}
}

func (s *Simulation) flushWindow() {
	energies := make([]float64, len(s.agents))
	alive := 0
	for i, a := range s.agents {
		energies[i] = a.Energy()
		if a.Alive() {
			alive++
		}
	}
	stats := s.collector.Flush(s.run, s.tick, alive, energies)
	perfStats := s.perf.Stats()
	if s.opts.LogStats {
		stats.LogStats(s.logger)
		perfStats.LogStats(s.logger)
	}
	if err := s.output.WriteTelemetry(stats); err != nil {
		s.logger.Error("failed to write telemetry", "error", err)
	}
	if err := s.output.WritePerf(perfStats, s.run, stats.WindowEndTick); err != nil {
		s.logger.Error("failed to write perf", "error", err)
	}
}

// Reset restores every component for run. The light registry is restored
// first so that components resetting their own lights have the last word.
func (s *Simulation) Reset(run int) {
	s.lights.Reset()
	for _, a := range s.arenas {
		a.Reset()
	}
	for _, a := range s.agents {
		a.Reset()
	}
	for _, c := range s.consumables {
		c.Reset()
	}
	if s.pheromones != nil {
		s.pheromones.Reset()
	}
	for _, m := range s.lightManagers {
		m.Reset()
	}
	for _, d := range s.disturbances {
		d.Reset()
	}

	s.tick = 0
	s.run = run
	s.collector.Reset()
	s.perf.Reset()
	s.lifetimes.Reset(run)
	for i, a := range s.agents {
		s.alive[i] = a.Alive()
		s.lifetimes.Register(a.Name(), a.Energy())
	}
	for i, d := range s.disturbances {
		s.enabled[i] = d.Enabled()
	}
}

// InitConditions runs every agent's init hook.
func (s *Simulation) InitConditions() {
	for _, a := range s.agents {
		a.InitConditions()
	}
}

// Perturb runs every agent's perturb hook.
func (s *Simulation) Perturb() {
	for _, a := range s.agents {
		a.Perturb()
	}
}

// Series returns every history of the current run, keyed by component.
func (s *Simulation) Series() telemetry.Series {
	out := telemetry.Series{}
	for _, a := range s.agents {
		out.Merge(telemetry.Key("agent", a.Name()), a.Series())
	}
	for _, c := range s.consumables {
		out.Merge(telemetry.Key("consumable", c.name), c.Series())
	}
	if s.pheromones != nil {
		out.Merge("pheromones", s.pheromones.Series())
	}
	for _, d := range s.disturbances {
		out.Merge(telemetry.Key("disturbance", d.Name()), d.Series())
	}
	return out
}

// LightDistance returns the distance from (x, y) to the nearest lit target
// light, or -1 when none is lit.
func (s *Simulation) LightDistance(x, y float64) float64 {
	best := -1.0
	for _, h := range s.targets {
		l := s.lights.Light(h)
		if l == nil || !l.On {
			continue
		}
		lx, ly, _ := s.lights.Position(h)
		if d := math.Hypot(x-lx, y-ly); best < 0 || d < best {
			best = d
		}
	}
	return best
}

// observed reports consumption by any agent to the simulation.
type observed struct {
	*stimuli.Consumable
	name string
	sim  *Simulation
}

func (o *observed) Consume() float64 {
	if o.Depleted() {
		return 0
	}
	yield := o.Consumable.Consume()
	o.sim.collector.Record(telemetry.NewConsumeEvent(o.sim.tick+1, o.name, yield))
	o.sim.logger.Debug("consumed", "run", o.sim.run, "tick", o.sim.tick+1, "consumable", o.name, "yield", yield)
	return yield
}
