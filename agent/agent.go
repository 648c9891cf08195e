// Package agent implements the sensorimotor tick shared by every mobile body.
//
// An Agent owns its pose, energy and sensors and runs one fixed-order step:
// drop pheromones, sense, decide, act, integrate, spend energy, record, and
// propagate the new pose. The shape-specific parts are delegated to a
// BodyPlan.
package agent

import (
	"fmt"
	"math"

	"github.com/pthm-cable/sandbox/entity"
	"github.com/pthm-cable/sandbox/noise"
	"github.com/pthm-cable/sandbox/sensor"
	"github.com/pthm-cable/sandbox/stimuli"
	"github.com/pthm-cable/sandbox/telemetry"
)

// BodyPlan is the shape-specific strategy an Agent delegates to.
type BodyPlan interface {
	// Attach is called once by New, after the energy and bump sensors exist.
	Attach(a *Agent) error
	Sense(a *Agent, dt float64) []float64
	Decide(a *Agent, activations []float64, dt float64) []float64
	Act(a *Agent, commands []float64, dt float64) []float64
	Integrate(a *Agent, applied []float64, dt float64)
	UpdatePose(a *Agent)
	// Actuators is the length every command vector must have.
	Actuators() int
	Reset(a *Agent)
	Series() telemetry.Series
}

// PheromoneSink receives trail markers.
type PheromoneSink interface {
	DropAt(x, y float64)
}

// Consumable is an item an agent can eat by coming within its radius.
type Consumable interface {
	Position() (x, y float64)
	Radius() float64
	Consume() float64
}

// Config is the construction record of an Agent.
type Config struct {
	Name   string
	X, Y   float64
	Theta  float64
	Radius float64 // defaults to 1

	InitialEnergy float64 // defaults to 1
	MaxEnergy     float64 // defaults to InitialEnergy
	ActionCost    float64 // energy per unit of |applied value| per unit time
	MetabolicCost float64 // energy per unit time
	EnergyNoise   noise.Source

	BumpFlip float64 // probability per step that the bump reading inverts
	BumpSeed uint64

	Pheromones   PheromoneSink
	DropInterval float64 // defaults to 0.5

	Consumables []Consumable

	// Lights and Light attach a light to the body. Both must be set.
	Lights *stimuli.Registry
	Light  *stimuli.LightSpec
}

func (c Config) withDefaults() Config {
	if c.Name == "" {
		c.Name = "agent"
	}
	if c.Radius <= 0 {
		c.Radius = 1
	}
	if c.InitialEnergy <= 0 {
		c.InitialEnergy = 1
	}
	if c.MaxEnergy <= 0 {
		c.MaxEnergy = c.InitialEnergy
	}
	if c.DropInterval <= 0 {
		c.DropInterval = 0.5
	}
	return c
}

// Agent is a mobile body.
type Agent struct {
	entity.Entity
	cfg  Config
	plan BodyPlan

	sensors []sensor.Sensor
	energyS *sensor.Energy
	bump    *sensor.Bump
	light   stimuli.Handle
	lit     bool

	alive    bool
	energy   float64
	energies []float64
	timer    float64
}

// New creates an agent and attaches its body plan.
func New(cfg Config, plan BodyPlan) (*Agent, error) {
	cfg = cfg.withDefaults()
	a := &Agent{
		Entity: entity.New(entity.AtHeading(cfg.X, cfg.Y, cfg.Theta)),
		cfg:    cfg,
		plan:   plan,
	}
	var err error
	if a.energyS, err = sensor.NewEnergy(a, sensor.Options{Name: "energy", Noise: cfg.EnergyNoise}); err != nil {
		return nil, fmt.Errorf("agent %q: %w", cfg.Name, err)
	}
	if a.bump, err = sensor.NewBump(cfg.BumpFlip, cfg.BumpSeed, sensor.Options{Name: "bump"}); err != nil {
		return nil, fmt.Errorf("agent %q: %w", cfg.Name, err)
	}
	a.sensors = []sensor.Sensor{a.energyS, a.bump}
	if cfg.Lights != nil && cfg.Light != nil {
		spec := *cfg.Light
		spec.X, spec.Y, spec.Theta = cfg.X, cfg.Y, cfg.Theta
		a.light = cfg.Lights.Add(spec)
		a.lit = true
	}
	a.resetState()
	if err := plan.Attach(a); err != nil {
		return nil, fmt.Errorf("agent %q: %w", cfg.Name, err)
	}
	a.propagate()
	return a, nil
}

// Step runs one sensorimotor tick.
func (a *Agent) Step(dt float64) {
	if a.cfg.Pheromones != nil {
		a.timer += dt
		if a.timer >= a.cfg.DropInterval {
			a.timer = 0
			a.cfg.Pheromones.DropAt(a.X, a.Y)
		}
	}

	activations := a.plan.Sense(a, dt)
	commands := a.plan.Decide(a, activations, dt)
	if n := a.plan.Actuators(); len(commands) != n {
		panic(fmt.Sprintf("agent %q: %d commands for %d actuators", a.cfg.Name, len(commands), n))
	}
	applied := a.plan.Act(a, commands, dt)

	if a.alive {
		a.plan.Integrate(a, applied, dt)
		a.updateEnergy(applied, dt)
	}

	a.Record()
	a.energies = append(a.energies, a.energy)
	a.propagate()
}

func (a *Agent) updateEnergy(applied []float64, dt float64) {
	for _, v := range applied {
		a.energy -= math.Abs(v) * dt * a.cfg.ActionCost
	}
	a.energy -= dt * a.cfg.MetabolicCost
	a.energy = clamp(a.energy, 0, a.cfg.MaxEnergy)
	if a.energy <= 0 {
		a.alive = false
		return
	}

	if len(a.cfg.Consumables) == 0 {
		return
	}
	for _, c := range a.cfg.Consumables {
		cx, cy := c.Position()
		if math.Hypot(a.X-cx, a.Y-cy) < c.Radius() {
			a.energy += c.Consume()
		}
	}
	a.energy = clamp(a.energy, 0, a.cfg.MaxEnergy)
	if a.energy <= 0 {
		a.alive = false
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}

// StepSensors steps every sensor in order and returns their activations.
func (a *Agent) StepSensors(dt float64) []float64 {
	out := make([]float64, len(a.sensors))
	for i, s := range a.sensors {
		out[i] = s.Step(dt)
	}
	return out
}

// AddSensors appends sensors after the energy and bump sensors.
func (a *Agent) AddSensors(s ...sensor.Sensor) {
	a.sensors = append(a.sensors, s...)
}

// Sensors returns the ordered sensor list. Index 0 is energy, index 1 bump.
func (a *Agent) Sensors() []sensor.Sensor { return a.sensors }

// Teleport moves the agent without counting a step and refreshes everything
// attached to it. It is the only way a body should be relocated.
func (a *Agent) Teleport(x, y float64) {
	a.Overwrite(x, y)
	a.propagate()
}

// SetHeading turns the agent in place without counting a step.
func (a *Agent) SetHeading(theta float64) {
	a.OverwriteHeading(theta)
	a.propagate()
}

func (a *Agent) propagate() {
	a.plan.UpdatePose(a)
	if a.lit {
		a.cfg.Lights.Aim(a.light, a.X, a.Y, a.Theta)
	}
}

// RegisterBump flags a contact for the bump sensor's next reading.
func (a *Agent) RegisterBump() { a.bump.RegisterBump() }

// Name returns the agent's name.
func (a *Agent) Name() string { return a.cfg.Name }

// Radius returns the body radius.
func (a *Agent) Radius() float64 { return a.cfg.Radius }

// Alive reports whether the agent still moves and spends energy.
func (a *Agent) Alive() bool { return a.alive }

// Energy returns the current energy level.
func (a *Agent) Energy() float64 { return a.energy }

// MaxEnergy returns the energy ceiling.
func (a *Agent) MaxEnergy() float64 { return a.cfg.MaxEnergy }

// Energies returns the energy history.
func (a *Agent) Energies() []float64 { return a.energies }

// Plan returns the body plan.
func (a *Agent) Plan() BodyPlan { return a.plan }

// Light returns the handle of the carried light, if any.
func (a *Agent) Light() (stimuli.Handle, bool) { return a.light, a.lit }

// Perturb runs the perturb hook and refreshes attached sub-systems. Only call
// it between runs.
func (a *Agent) Perturb() {
	a.Entity.Perturb()
	a.propagate()
}

// InitConditions runs the init hook and refreshes attached sub-systems.
func (a *Agent) InitConditions() {
	a.Entity.InitConditions()
	a.propagate()
}

func (a *Agent) resetState() {
	a.alive = true
	a.energy = a.cfg.InitialEnergy
	a.energies = []float64{a.energy}
	a.timer = 0
}

// Reset restores the agent, its sensors and its body plan.
func (a *Agent) Reset() {
	a.Entity.Reset()
	a.resetState()
	for _, s := range a.sensors {
		s.Reset()
	}
	a.plan.Reset(a)
	a.propagate()
}

// Series returns every history the agent and its parts record.
func (a *Agent) Series() telemetry.Series {
	s := telemetry.Series{}
	s.Put("x", a.Xs())
	s.Put("y", a.Ys())
	s.Put("theta", a.Thetas())
	s.Put("energy", a.energies)
	for i, sn := range a.sensors {
		s.Merge(telemetry.Key("sensor", fmt.Sprintf("%d_%s", i, sn.Name())), sn.Series())
	}
	for k, v := range a.plan.Series() {
		s[k] = v
	}
	return s
}
