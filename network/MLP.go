package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// mlp implements a fully connected multi-layered perceptron with one
// output node per predicted value. For action-value estimation the
// network has one output per action.
type mlp struct {
	g      *G.ExprGraph
	layers []Layer
	input  *G.Node

	features int
	outputs  int
	batch    int

	// Computed lazily
	learnables G.Nodes
	model      []G.ValueGrad

	prediction *G.Node
	predVal    G.Value
}

// NewMLP creates and returns a new multi-layered perceptron with
// outputs output nodes. The graph parameter g is populated with the
// MLP, which takes batch observations of features values each as
// input.
//
// The MLP has len(hiddenSizes) + 1 layers. For index i, hiddenSizes[i]
// is the number of nodes in hidden layer i, biases[i] is whether the
// layer has a bias unit and activations[i] is its activation. A final
// linear layer with a bias unit maps the last hidden layer to the
// outputs. The parameter init determines the weight initialization
// scheme. The caller's slices are never modified.
func NewMLP(features, batch, outputs int, g *G.ExprGraph,
	hiddenSizes []int, biases []bool, init G.InitWFn,
	activations []*Activation) (NeuralNet, error) {
	if features < 1 || batch < 1 || outputs < 1 {
		return nil, fmt.Errorf("newMLP: features, batch and outputs must "+
			"be positive\n\thave(%d, %d, %d)", features, batch, outputs)
	}

	if len(hiddenSizes) != len(activations) {
		return nil, fmt.Errorf("newMLP: invalid number of activations"+
			"\n\twant(%d)\n\thave(%d)", len(hiddenSizes), len(activations))
	}

	if len(hiddenSizes) != len(biases) {
		return nil, fmt.Errorf("newMLP: invalid number of biases"+
			"\n\twant(%d)\n\thave(%d)", len(hiddenSizes), len(biases))
	}

	for i, size := range hiddenSizes {
		if size < 1 {
			return nil, fmt.Errorf("newMLP: hidden layer %d must have "+
				"positive size\n\thave(%d)", i, size)
		}
	}

	sizes := append(append([]int{}, hiddenSizes...), outputs)
	bias := append(append([]bool{}, biases...), true)
	acts := append(append([]*Activation{}, activations...), Identity())

	layers := addfcLayers(g, sizes, bias, acts, init, features, "", "")

	net, err := assemble(g, layers, features, outputs, batch)
	if err != nil {
		return nil, fmt.Errorf("newMLP: %v", err)
	}
	return net, nil
}

// assemble adds an input node of batch observations to g and connects
// it through layers, which must already live in g.
func assemble(g *G.ExprGraph, layers []Layer, features, outputs,
	batch int) (*mlp, error) {
	input := G.NewMatrix(g, tensor.Float64, G.WithShape(batch, features),
		G.WithName("input"), G.WithInit(G.Zeroes()))

	net := &mlp{
		g:        g,
		layers:   layers,
		input:    input,
		features: features,
		outputs:  outputs,
		batch:    batch,
	}
	if err := net.fwd(); err != nil {
		return nil, err
	}
	return net, nil
}

// Graph returns the computational graph of the MLP
func (m *mlp) Graph() *G.ExprGraph {
	return m.g
}

// Clone clones the MLP into a new graph
func (m *mlp) Clone() (NeuralNet, error) {
	return m.CloneWithBatch(m.batch)
}

// CloneWithBatch clones the MLP with a new input batch size. The clone
// lives in a new computational graph and its weights are copies of the
// receiver's weights.
func (m *mlp) CloneWithBatch(batch int) (NeuralNet, error) {
	if batch < 1 {
		return nil, fmt.Errorf("cloneWithBatch: batch size must be "+
			"positive\n\thave(%v)", batch)
	}

	g := G.NewGraph()
	layers := make([]Layer, len(m.layers))
	for i, l := range m.layers {
		layers[i] = l.CloneTo(g)
	}

	net, err := assemble(g, layers, m.features, m.outputs, batch)
	if err != nil {
		return nil, fmt.Errorf("cloneWithBatch: %v", err)
	}
	return net, nil
}

// BatchSize returns the number of observations input to the network
// at once
func (m *mlp) BatchSize() int {
	return m.batch
}

// Features returns the number of features in a single observation
func (m *mlp) Features() int {
	return m.features
}

// Outputs returns the number of outputs for a single observation
func (m *mlp) Outputs() int {
	return m.outputs
}

// SetInput sets the value of the input node before running the forward
// pass. The input is copied and must hold BatchSize() observations in
// row major order.
func (m *mlp) SetInput(input []float64) error {
	if want := m.features * m.batch; len(input) != want {
		return fmt.Errorf("setInput: %w: invalid number of inputs"+
			"\n\twant(%v)\n\thave(%v)", ErrDimensionMismatch, want,
			len(input))
	}

	backing := make([]float64, len(input))
	copy(backing, input)
	return G.Let(m.input, tensor.New(
		tensor.WithBacking(backing),
		tensor.WithShape(m.batch, m.features),
	))
}

// Set sets the weights of the MLP to copies of the weights of another
// NeuralNet with the same architecture.
func (m *mlp) Set(source NeuralNet) error {
	sourceNodes := source.Learnables()
	nodes := m.Learnables()
	if len(sourceNodes) != len(nodes) {
		return fmt.Errorf("set: %w: invalid number of learnables"+
			"\n\twant(%v)\n\thave(%v)", ErrDimensionMismatch, len(nodes),
			len(sourceNodes))
	}

	for i, node := range nodes {
		if !node.Shape().Eq(sourceNodes[i].Shape()) {
			return fmt.Errorf("set: %w: learnable %v\n\twant(%v)\n\thave(%v)",
				ErrDimensionMismatch, i, node.Shape(), sourceNodes[i].Shape())
		}

		value, err := cloneValue(sourceNodes[i].Value())
		if err != nil {
			return fmt.Errorf("set: %v", err)
		}
		if err := G.Let(node, value); err != nil {
			return fmt.Errorf("set: %v", err)
		}
	}
	return nil
}

// Learnables returns the weights and biases of each layer, in order
func (m *mlp) Learnables() G.Nodes {
	if m.learnables == nil {
		m.learnables = make(G.Nodes, 0, 2*len(m.layers))
		for _, l := range m.layers {
			m.learnables = append(m.learnables, l.Weights())
			if bias := l.Bias(); bias != nil {
				m.learnables = append(m.learnables, bias)
			}
		}
	}
	return m.learnables
}

// Model returns the learnables nodes with their gradients.
func (m *mlp) Model() []G.ValueGrad {
	if m.model == nil {
		learnables := m.Learnables()
		m.model = make([]G.ValueGrad, len(learnables))
		for i, node := range learnables {
			m.model[i] = node
		}
	}
	return m.model
}

// fwd adds the forward pass of the MLP on its input node to the graph
func (m *mlp) fwd() error {
	pred := m.input
	var err error
	for i, l := range m.layers {
		if pred, err = l.fwd(pred); err != nil {
			return fmt.Errorf("fwd: could not compute forward pass of "+
				"layer %v: %v", i, err)
		}
	}

	m.prediction = pred
	G.Read(m.prediction, &m.predVal)

	return nil
}

// Output returns the output of the MLP computed on the last run of its
// graph, of shape (BatchSize(), Outputs())
func (m *mlp) Output() G.Value {
	return m.predVal
}

// Prediction returns the node of the computational graph that stores
// the output of the MLP
func (m *mlp) Prediction() *G.Node {
	return m.prediction
}
