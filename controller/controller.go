// Package controller implements the decision block agents use to turn sensor
// activations into actuator commands.
//
// A Controller runs an externally supplied step function. It records every
// input, output, parameter vector and internal state, optionally adapts its
// parameters on a timer and adds per-output noise.
package controller

import (
	"errors"
	"fmt"
	"slices"

	"github.com/pthm-cable/sandbox/noise"
	"github.com/pthm-cable/sandbox/telemetry"
)

// ErrNoStepFunc is returned when a controller has nothing to run.
var ErrNoStepFunc = errors.New("controller needs a step function")

// StepFunc maps inputs to commands. params is a copy the function may modify
// freely. state is nil for stateless controllers; the returned state replaces
// it otherwise.
type StepFunc func(dt float64, inputs, params, state []float64, extras ...any) (commands, newState []float64)

// AdaptFunc returns a new parameter vector from the full histories.
type AdaptFunc func(dt float64, inputs, commands, params [][]float64) []float64

// Config is the construction record of a Controller.
type Config struct {
	Inputs   int
	Commands int
	Step     StepFunc
	Params   []float64
	// State is the initial internal state. nil makes the controller stateless.
	State []float64

	Adapt         AdaptFunc
	AdaptDisabled bool
	TestInterval  float64

	// Noise[i] is added to command i. Entries beyond the command count and
	// nil entries are ignored.
	Noise []noise.Source

	// KeepParamsOnReset preserves the live parameters (for example, adapted
	// ones) across Reset. By default Reset restores Params.
	KeepParamsOnReset bool
}

// Controller is the decision block.
type Controller struct {
	cfg Config

	params       []float64
	state        []float64
	adaptEnabled bool
	t            float64

	inputs   [][]float64
	commands [][]float64
	paramsH  [][]float64
	states   [][]float64
}

// New creates a controller.
func New(cfg Config) (*Controller, error) {
	if cfg.Step == nil {
		return nil, ErrNoStepFunc
	}
	if cfg.Commands <= 0 {
		return nil, fmt.Errorf("controller commands = %d, want > 0", cfg.Commands)
	}
	c := &Controller{cfg: cfg, params: slices.Clone(cfg.Params)}
	c.Reset()
	return c, nil
}

// Step runs one decision.
func (c *Controller) Step(dt float64, inputs []float64, extras ...any) []float64 {
	c.t += dt
	c.inputs = append(c.inputs, slices.Clone(inputs))

	if c.cfg.Adapt != nil && c.adaptEnabled && c.t >= c.cfg.TestInterval {
		c.t = 0
		c.params = c.cfg.Adapt(dt, c.inputs, c.commands, c.paramsH)
	}
	if c.params != nil {
		c.paramsH = append(c.paramsH, slices.Clone(c.params))
	}

	commands, state := c.cfg.Step(dt, inputs, slices.Clone(c.params), c.state, extras...)
	if len(commands) != c.cfg.Commands {
		panic(fmt.Sprintf("controller: step function returned %d commands, want %d", len(commands), c.cfg.Commands))
	}
	if c.state != nil {
		c.state = slices.Clone(state)
		c.states = append(c.states, slices.Clone(state))
	}
	for i, src := range c.cfg.Noise {
		if src == nil || i >= len(commands) {
			continue
		}
		commands[i] += src.Step(dt)
	}
	c.commands = append(c.commands, slices.Clone(commands))
	return commands
}

// Params returns a copy of the live parameter vector.
func (c *Controller) Params() []float64 { return slices.Clone(c.params) }

// SetParams replaces the live parameter vector.
func (c *Controller) SetParams(p []float64) { c.params = slices.Clone(p) }

// ParamCount returns the length of the parameter vector.
func (c *Controller) ParamCount() int { return len(c.params) }

// State returns a copy of the internal state, nil when stateless.
func (c *Controller) State() []float64 { return slices.Clone(c.state) }

// AdaptEnabled reports whether adaptation may run.
func (c *Controller) AdaptEnabled() bool { return c.adaptEnabled }

// SetAdaptEnabled switches adaptation on or off.
func (c *Controller) SetAdaptEnabled(on bool) { c.adaptEnabled = on }

// Inputs returns the input history.
func (c *Controller) Inputs() [][]float64 { return c.inputs }

// Commands returns the command history.
func (c *Controller) Commands() [][]float64 { return c.commands }

// ParamsHistory returns the parameter history.
func (c *Controller) ParamsHistory() [][]float64 { return c.paramsH }

// States returns the state history.
func (c *Controller) States() [][]float64 { return c.states }

// Reset clears the histories to their initial entries and rewinds the
// adaptation clock.
func (c *Controller) Reset() {
	if !c.cfg.KeepParamsOnReset {
		c.params = slices.Clone(c.cfg.Params)
	}
	c.state = slices.Clone(c.cfg.State)
	c.adaptEnabled = !c.cfg.AdaptDisabled
	c.t = 0

	c.inputs = [][]float64{make([]float64, c.cfg.Inputs)}
	c.commands = [][]float64{make([]float64, c.cfg.Commands)}
	c.paramsH = nil
	if c.params != nil {
		c.paramsH = [][]float64{slices.Clone(c.params)}
	}
	c.states = nil
	if c.state != nil {
		c.states = [][]float64{slices.Clone(c.state)}
	}
	for _, src := range c.cfg.Noise {
		if src != nil {
			src.Reset()
		}
	}
}

// Series flattens the histories into per-element sequences.
func (c *Controller) Series() telemetry.Series {
	s := telemetry.Series{}
	flatten(s, "input", c.inputs)
	flatten(s, "command", c.commands)
	flatten(s, "param", c.paramsH)
	flatten(s, "state", c.states)
	return s
}

func flatten(s telemetry.Series, prefix string, hist [][]float64) {
	if len(hist) == 0 {
		return
	}
	width := 0
	for _, row := range hist {
		width = max(width, len(row))
	}
	for i := 0; i < width; i++ {
		col := make([]float64, len(hist))
		for j, row := range hist {
			if i < len(row) {
				col[j] = row[i]
			}
		}
		s[telemetry.Key(prefix, fmt.Sprint(i))] = col
	}
}
