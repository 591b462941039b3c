package initwfn

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
	G "gorgonia.org/gorgonia"
)

// ScaledConfig implements a configuration of the weight initializers
// which scale their samples by the fan-in and fan-out of each layer:
// Glorot (Xavier) and He (Kaiming), each drawing from either a uniform
// or a normal distribution.
type ScaledConfig struct {
	Algorithm Type `json:"-"`
	Gain      float64
}

// NewGlorotU returns a new Glorot Uniform weight initializer
func NewGlorotU(gain float64) (*InitWFn, error) {
	return newInitWFn(ScaledConfig{Algorithm: GlorotU, Gain: gain})
}

// NewGlorotN returns a new Glorot Normal weight initializer.
func NewGlorotN(gain float64) (*InitWFn, error) {
	return newInitWFn(ScaledConfig{Algorithm: GlorotN, Gain: gain})
}

// NewHeU returns a new He Uniform weight initializer
func NewHeU(gain float64) (*InitWFn, error) {
	return newInitWFn(ScaledConfig{Algorithm: HeU, Gain: gain})
}

// NewHeN returns a new He Normal weight initializer
func NewHeN(gain float64) (*InitWFn, error) {
	return newInitWFn(ScaledConfig{Algorithm: HeN, Gain: gain})
}

// Type returns the type of initialization algorithm described by
// the configuration.
func (s ScaledConfig) Type() Type {
	return s.Algorithm
}

// Validate returns an error if the configuration cannot create a
// weight initializer
func (s ScaledConfig) Validate() error {
	switch s.Algorithm {
	case GlorotU, GlorotN, HeU, HeN:
	default:
		return fmt.Errorf("validate: no such scaled initializer %q",
			s.Algorithm)
	}

	if s.Gain <= 0 {
		return fmt.Errorf("validate: gain must be positive\n\twant(>0)"+
			"\n\thave(%v)", s.Gain)
	}
	return nil
}

// Create returns the weight initialization algorithm as a Gorgonia
// InitWFn which draws its samples from src
func (s ScaledConfig) Create(src rand.Source) G.InitWFn {
	gain := s.Gain
	var dist func(rand.Source, []int) distuv.Rander
	switch s.Algorithm {
	case GlorotN:
		dist = func(src rand.Source, shape []int) distuv.Rander {
			return normal(src, glorotStdDev(gain, shape))
		}
	case HeU:
		dist = func(src rand.Source, shape []int) distuv.Rander {
			return uniform(src, heStdDev(gain, shape))
		}
	case HeN:
		dist = func(src rand.Source, shape []int) distuv.Rander {
			return normal(src, heStdDev(gain, shape))
		}
	default:
		dist = func(src rand.Source, shape []int) distuv.Rander {
			return uniform(src, glorotStdDev(gain, shape))
		}
	}

	return fromRander(string(s.Algorithm), src, dist)
}

// withType sets the algorithm of a decoded configuration
func (s ScaledConfig) withType(t Type) Config {
	s.Algorithm = t
	return s
}
