package initwfn

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// fromRander returns a Gorgonia InitWFn which fills each tensor with
// samples from the distribution that dist returns for the tensor's
// shape. All samples are drawn from src, so two initializers over
// equally seeded sources produce equal weights.
func fromRander(name string, src rand.Source,
	dist func(src rand.Source, s []int) distuv.Rander) G.InitWFn {
	return func(dt tensor.Dtype, s ...int) interface{} {
		r := dist(src, s)
		size := tensor.Shape(s).TotalSize()

		switch dt {
		case tensor.Float64:
			values := make([]float64, size)
			for i := range values {
				values[i] = r.Rand()
			}
			return values

		case tensor.Float32:
			values := make([]float32, size)
			for i := range values {
				values[i] = float32(r.Rand())
			}
			return values
		}

		panic(fmt.Sprintf("%v: unsupported dtype %v", name, dt))
	}
}

// uniform returns a distribution over [-√3σ, √3σ), which has standard
// deviation σ
func uniform(src rand.Source, stddev float64) distuv.Rander {
	limit := math.Sqrt(3.0) * stddev
	return distuv.Uniform{Min: -limit, Max: limit, Src: src}
}

// normal returns a zero mean normal distribution
func normal(src rand.Source, stddev float64) distuv.Rander {
	return distuv.Normal{Mu: 0, Sigma: stddev, Src: src}
}

// glorotStdDev returns the standard deviation of Glorot initialization
// for a tensor of shape s
func glorotStdDev(gain float64, s []int) float64 {
	var n1, n2 int
	fieldSize := 1
	switch len(s) {
	case 0:
		panic("glorot: tensor must have at least one dimension")
	case 1:
		n1, n2 = 1, s[0]
	default:
		n1, n2 = s[0], s[1]
		for _, v := range s[2:] {
			fieldSize *= v
		}
	}

	return gain * math.Sqrt(2.0/float64((n1+n2)*fieldSize))
}

// heStdDev returns the standard deviation of He initialization for a
// tensor of shape s
func heStdDev(gain float64, s []int) float64 {
	fanIn := 1.0
	switch len(s) {
	case 0, 1:
		panic("he: tensor must have at least two dimensions")
	case 2:
		fanIn = float64(s[0])
	default:
		for _, v := range s[1:] {
			fanIn *= float64(v)
		}
	}

	return gain * math.Sqrt(1.0/fanIn)
}
