// Package network implements neural network function approximators
// using Gorgonia.
package network

import (
	"errors"

	G "gorgonia.org/gorgonia"
)

// ErrDimensionMismatch is returned when an input or parameter does not
// have the shape a network expects.
var ErrDimensionMismatch = errors.New("dimension mismatch")

// NeuralNet implements a neural network which populates a
// computational graph. A NeuralNet does not run its own graph, an
// external VM must be used to run the forward pass.
type NeuralNet interface {
	Graph() *G.ExprGraph
	Clone() (NeuralNet, error)
	CloneWithBatch(int) (NeuralNet, error)
	BatchSize() int
	Features() int
	Outputs() int
	SetInput([]float64) error
	Set(NeuralNet) error
	Learnables() G.Nodes
	Model() []G.ValueGrad
	Output() G.Value
	Prediction() *G.Node
}
