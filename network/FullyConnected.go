package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Layer implements a single layer of a neural network
type Layer interface {
	fwd(*G.Node) (*G.Node, error)
	CloneTo(*G.ExprGraph) Layer
	Weights() *G.Node
	Bias() *G.Node
	Activation() *Activation
}

// fcLayer implements a fully connected layer of a feed forward neural
// network
type fcLayer struct {
	weights *G.Node
	bias    *G.Node
	act     *Activation
}

// addfcLayers adds fully connected layers to a computational graph.
// Layer i has hiddenSizes[i] units, a bias unit if biases[i] is true
// and activation activations[i]. Weights are initialized with init and
// biases are initialized to zero.
func addfcLayers(g *G.ExprGraph, hiddenSizes []int, biases []bool,
	activations []*Activation, init G.InitWFn, features int, prefix,
	suffix string) []Layer {
	layers := make([]Layer, 0, len(hiddenSizes))

	in := features
	for i, out := range hiddenSizes {
		weights := G.NewMatrix(
			g,
			tensor.Float64,
			G.WithShape(in, out),
			G.WithName(fmt.Sprintf("%sL%dW%s", prefix, i, suffix)),
			G.WithInit(init),
		)

		var bias *G.Node
		if biases[i] {
			bias = G.NewMatrix(
				g,
				tensor.Float64,
				G.WithShape(1, out),
				G.WithName(fmt.Sprintf("%sL%dB%s", prefix, i, suffix)),
				G.WithInit(G.Zeroes()),
			)
		}

		layers = append(layers, &fcLayer{
			weights: weights,
			bias:    bias,
			act:     activations[i],
		})
		in = out
	}

	return layers
}

// Fwd adds the forward pass of the fcLayer to the computational graph
func (f *fcLayer) fwd(x *G.Node) (*G.Node, error) {
	if f.Weights() != nil {
		x = G.Must(G.Mul(x, f.Weights()))
	}
	if f.Bias() != nil {
		// Broadcast the bias weights to all samples along the batch
		// dimension
		x = G.Must(G.BroadcastAdd(x, f.Bias(), nil, []byte{0}))
	}
	if f.Activation() == nil || f.Activation().IsNil() {
		return x, nil
	}
	return f.Activation().fwd(x)
}

// CloneTo clones an fcLayer to a new computational graph. The weights
// of the clone are deep copies of the weights of the receiver.
func (f *fcLayer) CloneTo(g *G.ExprGraph) Layer {
	var newWeights, newBias *G.Node

	if f.Weights() != nil {
		newWeights = cloneLearnableTo(f.Weights(), g)
	}
	if f.Bias() != nil {
		newBias = cloneLearnableTo(f.Bias(), g)
	}

	return &fcLayer{
		weights: newWeights,
		bias:    newBias,
		act:     f.act,
	}
}

// Activation returns the activation of the layer
func (f *fcLayer) Activation() *Activation {
	return f.act
}

// Bias returns the bias node of the layer, or nil if the layer has no
// bias unit
func (f *fcLayer) Bias() *G.Node {
	return f.bias
}

// Weights returns the weight node of the layer
func (f *fcLayer) Weights() *G.Node {
	return f.weights
}

// cloneLearnableTo creates a new matrix node in g with the same name,
// shape and a copy of the value of node.
func cloneLearnableTo(node *G.Node, g *G.ExprGraph) *G.Node {
	value, err := cloneValue(node.Value())
	if err != nil {
		panic(fmt.Sprintf("cloneto: could not clone %v: %v", node.Name(),
			err))
	}

	return G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(node.Shape()...),
		G.WithName(node.Name()),
		G.WithValue(value),
	)
}

// cloneValue returns a deep copy of a node value as a *tensor.Dense
func cloneValue(v G.Value) (*tensor.Dense, error) {
	dense, ok := v.(*tensor.Dense)
	if !ok {
		return nil, fmt.Errorf("clonevalue: expected *tensor.Dense, got %T",
			v)
	}
	return dense.Clone().(*tensor.Dense), nil
}
