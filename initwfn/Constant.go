package initwfn

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	G "gorgonia.org/gorgonia"
)

// ConstantConfig implements a configuration of a weight initializer
// that initializes all weights to a constant value. Zeroes and Ones
// are constant initializers with the value fixed.
type ConstantConfig struct {
	Kind  Type `json:"-"`
	Value float64
}

// NewZeroes returns a new weight intializer which sets all weights to 0
func NewZeroes() (*InitWFn, error) {
	return newInitWFn(ConstantConfig{Kind: Zeroes})
}

// NewOnes returns a new weight intializer which sets all weights to 1
func NewOnes() (*InitWFn, error) {
	return newInitWFn(ConstantConfig{Kind: Ones, Value: 1})
}

// NewConstant returns a new weight intializer which sets all weights
// to value
func NewConstant(value float64) (*InitWFn, error) {
	return newInitWFn(ConstantConfig{Kind: Constant, Value: value})
}

// Type returns the type of the weight initializer created using this
// config
func (c ConstantConfig) Type() Type {
	return c.Kind
}

// Validate returns an error if the configuration cannot create a
// weight initializer
func (c ConstantConfig) Validate() error {
	if math.IsNaN(c.Value) || math.IsInf(c.Value, 0) {
		return fmt.Errorf("validate: constant must be finite\n\thave(%v)",
			c.Value)
	}

	switch {
	case c.Kind == Zeroes && c.Value != 0:
		return fmt.Errorf("validate: zeroes initializer with value %v",
			c.Value)
	case c.Kind == Ones && c.Value != 1:
		return fmt.Errorf("validate: ones initializer with value %v",
			c.Value)
	case c.Kind != Zeroes && c.Kind != Ones && c.Kind != Constant:
		return fmt.Errorf("validate: no such constant initializer %q",
			c.Kind)
	}
	return nil
}

// Create creates the Gorgonia weight initializer from this
// initializer config. Constant initializers draw no samples, so src is
// unused.
func (c ConstantConfig) Create(src rand.Source) G.InitWFn {
	switch c.Kind {
	case Zeroes:
		return G.Zeroes()
	case Ones:
		return G.Ones()
	default:
		return G.ValuesOf(c.Value)
	}
}

// withType sets the kind of a decoded configuration, filling in the
// value fixed by the kind
func (c ConstantConfig) withType(t Type) Config {
	c.Kind = t
	switch t {
	case Zeroes:
		c.Value = 0
	case Ones:
		c.Value = 1
	}
	return c
}
