package main

import (
	"fmt"

	"github.com/pthm-cable/sandbox/agent"
	"github.com/pthm-cable/sandbox/config"
	"github.com/pthm-cable/sandbox/controller"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Starting value, taken from the base config
}

// ParamVector holds the controller parameters of one robot.
type ParamVector struct {
	Robot int // index into config.Robots
	Specs []ParamSpec
}

// bounds per controller type, in parameter order.
var controllerSpecs = map[string][]ParamSpec{
	"braitenberg": {
		{Name: "left_from_left", Min: -30, Max: 30},
		{Name: "left_from_right", Min: -30, Max: 30},
		{Name: "left_bias", Min: -1, Max: 1},
		{Name: "right_from_left", Min: -30, Max: 30},
		{Name: "right_from_right", Min: -30, Max: 30},
		{Name: "right_bias", Min: -1, Max: 1},
	},
	"fixed": {
		{Name: "left_speed", Min: -1, Max: 1},
		{Name: "right_speed", Min: -1, Max: 1},
	},
	"heading": {
		{Name: "target_heading", Min: -3.2, Max: 3.2},
		{Name: "kp", Min: 0, Max: 10},
		{Name: "ki", Min: 0, Max: 2},
		{Name: "kd", Min: 0, Max: 2},
		{Name: "forward_speed", Min: 0, Max: 1},
	},
}

// networkSpecs bounds every weight and bias of a network controller.
func networkSpecs(r config.RobotConfig) []ParamSpec {
	n := config.NetworkParams(agent.FixedSensors+len(r.Sensors), r.Controller.Hidden)
	specs := make([]ParamSpec, n)
	for i := range specs {
		specs[i] = ParamSpec{Name: fmt.Sprintf("w%d", i), Min: -5, Max: 5}
	}
	return specs
}

// NewParamVector creates the parameter set for the controller of robot name
// in cfg. Defaults start from the configured params, clamped into bounds.
func NewParamVector(cfg *config.Config, name string) (*ParamVector, error) {
	idx, ok := cfg.Derived.RobotIndex[name]
	if !ok {
		return nil, fmt.Errorf("unknown robot %q", name)
	}
	ctrl := cfg.Robots[idx].Controller
	base, ok := controllerSpecs[ctrl.Type]
	if ctrl.Type == "network" {
		base, ok = networkSpecs(cfg.Robots[idx]), true
	}
	if !ok {
		return nil, fmt.Errorf("robot %q: no parameter bounds for controller %q", name, ctrl.Type)
	}
	pv := &ParamVector{Robot: idx, Specs: make([]ParamSpec, len(base))}
	copy(pv.Specs, base)
	start := pv.ExtractFromConfig(cfg)
	if ctrl.Type == "network" && len(start) == 0 {
		start = controller.XavierParams(agent.FixedSensors+len(cfg.Robots[idx].Sensors), ctrl.Hidden, 1)
	}
	current := pv.Clamp(start)
	for i := range pv.Specs {
		pv.Specs[i].Default = current[i]
	}
	return pv, nil
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds. Missing values take the lower
// bound.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		val := spec.Min
		if i < len(v) {
			val = min(max(v[i], spec.Min), spec.Max)
		}
		clamped[i] = val
	}
	return clamped
}

// ApplyToConfig writes clamped parameter values into the robot's controller.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	cfg.Robots[pv.Robot].Controller.Params = pv.Clamp(values)
}

// ExtractFromConfig returns the robot's current controller parameters.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	return append([]float64(nil), cfg.Robots[pv.Robot].Controller.Params...)
}
