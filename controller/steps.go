package controller

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/pthm-cable/sandbox/stimuli"
)

// BraitenbergParams is the parameter count of Braitenberg.
const BraitenbergParams = 6

// Braitenberg returns a two-input, two-output linear network reading the
// sensors at inputs[first] and inputs[first+1]. params are
// [left<-left, left<-right, left bias, right<-left, right<-right, right bias].
func Braitenberg(first int) StepFunc {
	return func(dt float64, inputs, params, state []float64, _ ...any) ([]float64, []float64) {
		l, r := inputs[first], inputs[first+1]
		left := l*params[0] + r*params[1] + params[2]
		right := l*params[3] + r*params[4] + params[5]
		return []float64{left, right}, nil
	}
}

// Fixed returns its parameters as commands.
func Fixed() StepFunc {
	return func(dt float64, inputs, params, state []float64, _ ...any) ([]float64, []float64) {
		return params, nil
	}
}

// HeadingParams is the parameter count of HeadingPID.
const HeadingParams = 5

// HeadingPID steers towards a compass heading with a differential drive.
// params are [target heading, kp, ki, kd, forward speed]; the controller state
// must be [integral, previous error].
func HeadingPID(compass int) StepFunc {
	return func(dt float64, inputs, params, state []float64, _ ...any) ([]float64, []float64) {
		err := stimuli.AngleDifference(params[0], inputs[compass])
		u, integral := pidTerm(params[1], params[2], params[3], err, state[1], state[0], dt)
		return []float64{params[4] - u, params[4] + u}, []float64{integral, err}
	}
}

// RandomParams returns an adaptation function that redraws every parameter
// uniformly from [lo, hi]. The random sequence continues across runs.
func RandomParams(n int, lo, hi float64, seed uint64) AdaptFunc {
	dist := distuv.Uniform{Min: lo, Max: hi, Src: rand.NewPCG(seed, seed+1)}
	return func(dt float64, inputs, commands, params [][]float64) []float64 {
		p := make([]float64, n)
		for i := range p {
			p[i] = dist.Rand()
		}
		return p
	}
}
