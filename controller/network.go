package controller

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// NetworkParams returns the parameter count of a Network with the given input
// and hidden layer sizes: hidden weights and biases, then output weights and
// biases for the two wheel commands.
func NetworkParams(inputs, hidden int) int {
	return hidden*inputs + hidden + 2*hidden + 2
}

// Network returns a two-layer feedforward network over every input with a
// tanh hidden layer and tanh outputs. params are laid out row-major as
// W1 (hidden x inputs), B1, W2 (2 x hidden), B2.
func Network(inputs, hidden int) StepFunc {
	return func(dt float64, in, params, state []float64, _ ...any) ([]float64, []float64) {
		off := 0
		take := func(n int) []float64 {
			p := params[off : off+n]
			off += n
			return p
		}
		w1 := mat.NewDense(hidden, inputs, take(hidden*inputs))
		b1 := take(hidden)
		w2 := mat.NewDense(2, hidden, take(2*hidden))
		b2 := take(2)

		var h mat.VecDense
		h.MulVec(w1, mat.NewVecDense(inputs, in[:inputs]))
		for i := range hidden {
			h.SetVec(i, math.Tanh(h.AtVec(i)+b1[i]))
		}
		var out mat.VecDense
		out.MulVec(w2, &h)
		return []float64{
			math.Tanh(out.AtVec(0) + b2[0]),
			math.Tanh(out.AtVec(1) + b2[1]),
		}, nil
	}
}

// XavierParams returns Network parameters with normally distributed weights
// scaled by layer fan-in and zero biases.
func XavierParams(inputs, hidden int, seed uint64) []float64 {
	src := rand.NewPCG(seed, seed+1)
	p := make([]float64, 0, NetworkParams(inputs, hidden))
	w1 := distuv.Normal{Mu: 0, Sigma: math.Sqrt(2 / float64(inputs)), Src: src}
	for range hidden * inputs {
		p = append(p, w1.Rand())
	}
	p = append(p, make([]float64, hidden)...)
	w2 := distuv.Normal{Mu: 0, Sigma: math.Sqrt(2 / float64(hidden)), Src: src}
	for range 2 * hidden {
		p = append(p, w2.Rand())
	}
	return append(p, 0, 0)
}

// Mutate returns an adaptation function that perturbs the current parameters
// with Gaussian noise of the given sigma.
func Mutate(sigma float64, seed uint64) AdaptFunc {
	dist := distuv.Normal{Mu: 0, Sigma: sigma, Src: rand.NewPCG(seed, seed+1)}
	return func(dt float64, inputs, commands, params [][]float64) []float64 {
		if len(params) == 0 {
			return nil
		}
		cur := params[len(params)-1]
		p := make([]float64, len(cur))
		for i, v := range cur {
			p[i] = v + dist.Rand()
		}
		return p
	}
}
