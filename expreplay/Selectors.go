package expreplay

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/sampleuv"
)

// SelectorType determines how a Selector chooses data from an
// experience replay buffer
type SelectorType string

// Available Selector types
const (
	Uniform SelectorType = "Uniform"
	Fifo    SelectorType = "Fifo"
)

// Selector implements functionality for choosing which data should be
// sampled from an experience replay buffer
type Selector interface {
	// choose selects n distinct positions in a buffer holding size
	// elements, where position 0 is the oldest element. The caller
	// guarantees that 0 < n <= size.
	choose(n, size int) []int
}

// CreateSelector is a factory for creating Selectors
func CreateSelector(t SelectorType, seed uint64) (Selector, error) {
	switch t {
	case Uniform, "":
		return NewUniformSelector(seed), nil

	case Fifo:
		return NewFifoSelector(), nil
	}

	return nil, fmt.Errorf("createselector: no such selector type %v", t)
}

// uniformSelector is a Selector which selects data from an experience
// replay buffer uniformly randomly without replacement
type uniformSelector struct {
	src rand.Source
}

// NewUniformSelector returns a new Selector which selects data uniformly
// randomly, without replacement, from an experience replay buffer
func NewUniformSelector(seed uint64) Selector {
	return &uniformSelector{src: rand.NewSource(seed)}
}

// choose selects a number of indices at which to draw data from the
// buffer
func (u *uniformSelector) choose(n, size int) []int {
	selected := make([]int, n)
	sampleuv.WithoutReplacement(selected, size, u.src)
	return selected
}

// fifoSelector is a Selector which selects data from an experience
// replay buffer as first-in-first-out.
type fifoSelector struct{}

// NewFifoSelector returns a new Selector which draws data from an
// experience replay buffer in as FiFo.
func NewFifoSelector() Selector {
	return fifoSelector{}
}

// choose selects the n oldest positions in the buffer
func (f fifoSelector) choose(n, size int) []int {
	selected := make([]int, n)
	for i := range selected {
		selected[i] = i
	}
	return selected
}
