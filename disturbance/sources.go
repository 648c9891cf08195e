package disturbance

import (
	"errors"
	"math"
	"slices"

	"github.com/pthm-cable/sandbox/noise"
	"github.com/pthm-cable/sandbox/stimuli"
)

// SpeedAdjuster is a target whose live speed can be nudged.
type SpeedAdjuster interface {
	AdjustSpeed(delta float64)
}

// SensorLayout is a target whose sensor mounting angles can be changed.
type SensorLayout interface {
	SensorAngle(i int) (float64, bool)
	SetSensorAngle(i int, angle float64)
}

// ParameterSetter is a target whose parameter vector can be replaced.
type ParameterSetter interface {
	Params() []float64
	SetParams(p []float64)
}

// Labeller is a target whose stimulus labels can be rewritten.
type Labeller interface {
	Handles(label string) []stimuli.Handle
	SetLabel(h stimuli.Handle, label string)
}

// ErrNoNoise is returned for a motor noise disturbance without a noise source.
var ErrNoNoise = errors.New("disturbance: motor noise needs a noise source")

// MotorNoise adds noise to a motor's speed while enabled.
type MotorNoise struct {
	Scheduler
	name   string
	target SpeedAdjuster
	noise  noise.Source
}

// NewMotorNoise creates a motor noise disturbance.
func NewMotorNoise(name string, target SpeedAdjuster, src noise.Source, s Schedule) (*MotorNoise, error) {
	if src == nil {
		return nil, ErrNoNoise
	}
	return &MotorNoise{Scheduler: NewScheduler(s), name: name, target: target, noise: src}, nil
}

func (d *MotorNoise) Name() string { return d.name }

func (d *MotorNoise) Step(dt float64) {
	d.Advance(dt)
	if d.enabled {
		d.target.AdjustSpeed(d.noise.Step(dt))
	}
	d.record()
}

func (d *MotorNoise) Reset() {
	d.Scheduler.Reset()
	d.noise.Reset()
}

// DefaultMaxMove is the default jitter bound of MovingSensors.
const DefaultMaxMove = math.Pi / 36

// MovingSensors jitters sensor mounting angles while enabled.
type MovingSensors struct {
	Scheduler
	name    string
	target  SensorLayout
	indices []int
	initial []float64
	noise   *noise.White
}

// NewMovingSensors creates a moving sensors disturbance over the given sensor
// indices.
func NewMovingSensors(name string, target SensorLayout, indices []int, maxMove float64, seed uint64, s Schedule) *MovingSensors {
	d := &MovingSensors{
		Scheduler: NewScheduler(s),
		name:      name,
		target:    target,
		indices:   indices,
		noise:     noise.NewWhite(-maxMove, maxMove, seed),
	}
	d.initial = snapshotAngles(target, indices)
	return d
}

func (d *MovingSensors) Name() string { return d.name }

func (d *MovingSensors) Step(dt float64) {
	d.Advance(dt)
	if d.enabled {
		for _, i := range d.indices {
			if a, ok := d.target.SensorAngle(i); ok {
				d.target.SetSensorAngle(i, a+d.noise.Step(dt))
			}
		}
	}
	d.record()
}

func (d *MovingSensors) Reset() {
	d.Scheduler.Reset()
	d.noise.Reset()
	restoreAngles(d.target, d.indices, d.initial)
}

// SensoryInversion swaps the mounting angles of two sensors once.
type SensoryInversion struct {
	Scheduler
	name    string
	target  SensorLayout
	pair    [2]int
	initial []float64
}

// NewSensoryInversion creates a one-shot inversion of sensors a and b.
func NewSensoryInversion(name string, target SensorLayout, a, b int, s Schedule) *SensoryInversion {
	d := &SensoryInversion{Scheduler: NewScheduler(s), name: name, target: target, pair: [2]int{a, b}}
	d.initial = snapshotAngles(target, d.pair[:])
	return d
}

func (d *SensoryInversion) Name() string { return d.name }

func (d *SensoryInversion) Step(dt float64) {
	d.Advance(dt)
	if d.enabled {
		a, okA := d.target.SensorAngle(d.pair[0])
		b, okB := d.target.SensorAngle(d.pair[1])
		if okA && okB {
			d.target.SetSensorAngle(d.pair[0], b)
			d.target.SetSensorAngle(d.pair[1], a)
		}
		d.Disable()
	}
	d.record()
}

func (d *SensoryInversion) Reset() {
	d.Scheduler.Reset()
	restoreAngles(d.target, d.pair[:], d.initial)
}

// Parameter replaces a controller's parameters with uniform random values
// once. Reset puts back only the vector the shot overwrote, so a target that
// never got hit keeps whatever it carried into the run.
type Parameter struct {
	Scheduler
	name        string
	target      ParameterSetter
	overwritten []float64 // nil until the shot fires
	noise       *noise.White
}

// ParameterRange bounds the values Parameter draws.
const ParameterRange = 2.0

// NewParameter creates a one-shot parameter disturbance.
func NewParameter(name string, target ParameterSetter, seed uint64, s Schedule) *Parameter {
	return &Parameter{
		Scheduler: NewScheduler(s),
		name:      name,
		target:    target,
		noise:     noise.NewWhite(-ParameterRange, ParameterRange, seed),
	}
}

func (d *Parameter) Name() string { return d.name }

func (d *Parameter) Step(dt float64) {
	d.Advance(dt)
	if d.enabled {
		d.overwritten = slices.Clone(d.target.Params())
		p := make([]float64, len(d.overwritten))
		for i := range p {
			p[i] = d.noise.Step(dt)
		}
		d.target.SetParams(p)
		d.Disable()
	}
	d.record()
}

func (d *Parameter) Reset() {
	d.Scheduler.Reset()
	d.noise.Reset()
	if d.overwritten != nil {
		d.target.SetParams(d.overwritten)
		d.overwritten = nil
	}
}

// LightSwitcher swaps two stimulus labels once, so sensors tuned to one group
// start seeing the other.
type LightSwitcher struct {
	Scheduler
	name    string
	target  Labeller
	a, b    string
	swapped map[stimuli.Handle]string
}

// NewLightSwitcher creates a one-shot label swap between a and b.
func NewLightSwitcher(name string, target Labeller, a, b string, s Schedule) *LightSwitcher {
	return &LightSwitcher{
		Scheduler: NewScheduler(s),
		name:      name,
		target:    target,
		a:         a,
		b:         b,
		swapped:   make(map[stimuli.Handle]string),
	}
}

func (d *LightSwitcher) Name() string { return d.name }

func (d *LightSwitcher) Step(dt float64) {
	d.Advance(dt)
	if d.enabled {
		as, bs := d.target.Handles(d.a), d.target.Handles(d.b)
		for _, h := range as {
			d.relabel(h, d.a, d.b)
		}
		for _, h := range bs {
			d.relabel(h, d.b, d.a)
		}
		d.Disable()
	}
	d.record()
}

func (d *LightSwitcher) relabel(h stimuli.Handle, from, to string) {
	if _, seen := d.swapped[h]; !seen {
		d.swapped[h] = from
	}
	d.target.SetLabel(h, to)
}

func (d *LightSwitcher) Reset() {
	d.Scheduler.Reset()
	for h, label := range d.swapped {
		d.target.SetLabel(h, label)
	}
	clear(d.swapped)
}

func snapshotAngles(t SensorLayout, indices []int) []float64 {
	out := make([]float64, len(indices))
	for k, i := range indices {
		out[k], _ = t.SensorAngle(i)
	}
	return out
}

func restoreAngles(t SensorLayout, indices []int, angles []float64) {
	for k, i := range indices {
		t.SetSensorAngle(i, angles[k])
	}
}
