package initwfn

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
	G "gorgonia.org/gorgonia"
)

// GaussianConfig implements a configuration of a weight initializer
// that draws weights from a gaussian distribution
type GaussianConfig struct {
	Mean, StdDev float64
}

// NewGaussian returns a new gaussian weight initializer
func NewGaussian(mean, stddev float64) (*InitWFn, error) {
	return newInitWFn(GaussianConfig{Mean: mean, StdDev: stddev})
}

// Type returns the type of initialization algorithm described by
// the configuration.
func (g GaussianConfig) Type() Type {
	return Gaussian
}

// Validate returns an error if the configuration cannot create a
// weight initializer
func (g GaussianConfig) Validate() error {
	if g.StdDev <= 0 {
		return fmt.Errorf("validate: standard deviation must be positive"+
			"\n\twant(>0)\n\thave(%v)", g.StdDev)
	}
	return nil
}

// Create returns the weight initialization algorithm as a Gorgonia
// InitWFn which draws its samples from src
func (g GaussianConfig) Create(src rand.Source) G.InitWFn {
	dist := distuv.Normal{Mu: g.Mean, Sigma: g.StdDev, Src: src}
	return fromRander(string(Gaussian), src,
		func(rand.Source, []int) distuv.Rander { return dist })
}

func (g GaussianConfig) withType(Type) Config {
	return g
}
