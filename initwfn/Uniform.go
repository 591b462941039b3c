package initwfn

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
	G "gorgonia.org/gorgonia"
)

// UniformConfig implements a configuration of a weight initializer
// that draws weights from the uniform distribution on [Low, High)
type UniformConfig struct {
	Low, High float64
}

// NewUniform returns a new uniform weight initializer
func NewUniform(low, high float64) (*InitWFn, error) {
	return newInitWFn(UniformConfig{Low: low, High: high})
}

// Type returns the type of initialization algorithm described by
// the configuration.
func (u UniformConfig) Type() Type {
	return Uniform
}

// Validate returns an error if the configuration cannot create a
// weight initializer
func (u UniformConfig) Validate() error {
	if !(u.Low < u.High) {
		return fmt.Errorf("validate: empty interval\n\twant(low < high)"+
			"\n\thave(low = %v, high = %v)", u.Low, u.High)
	}
	return nil
}

// Create returns the weight initialization algorithm as a Gorgonia
// InitWFn which draws its samples from src
func (u UniformConfig) Create(src rand.Source) G.InitWFn {
	dist := distuv.Uniform{Min: u.Low, Max: u.High, Src: src}
	return fromRander(string(Uniform), src,
		func(rand.Source, []int) distuv.Rander { return dist })
}

func (u UniformConfig) withType(Type) Config {
	return u
}
