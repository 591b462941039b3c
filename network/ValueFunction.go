package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// evaluator pairs a NeuralNet with the VM that runs its graph
type evaluator struct {
	net NeuralNet
	vm  G.VM
}

// ValueFunction approximates action values with a NeuralNet. Unlike a
// bare NeuralNet, a ValueFunction owns the VMs needed to run its
// graph, so it can be queried directly for action values.
//
// Each distinct batch size that is evaluated gets its own copy of the
// network, compiled on first use. All copies share the same parameter
// values: SetParameters writes to every copy.
type ValueFunction struct {
	evaluators map[int]*evaluator
	base       *evaluator
}

// NewValueFunction returns a new ValueFunction backed by an MLP. The
// MLP has the hidden layers described by hiddenSizes, biases and
// activations, followed by a linear output layer with one unit per
// action. See NewMLP.
func NewValueFunction(features, actions int, hiddenSizes []int,
	biases []bool, init G.InitWFn,
	activations []*Activation) (*ValueFunction, error) {
	g := G.NewGraph()
	net, err := NewMLP(features, 1, actions, g, hiddenSizes, biases,
		init, activations)
	if err != nil {
		return nil, fmt.Errorf("newvaluefunction: %v", err)
	}

	return newValueFunction(net), nil
}

// NewValueFunctionFrom returns a new ValueFunction whose network is a
// copy of net.
func NewValueFunctionFrom(net NeuralNet) (*ValueFunction, error) {
	clone, err := net.CloneWithBatch(1)
	if err != nil {
		return nil, fmt.Errorf("newvaluefunctionfrom: %v", err)
	}
	return newValueFunction(clone), nil
}

func newValueFunction(net NeuralNet) *ValueFunction {
	base := &evaluator{net: net, vm: G.NewTapeMachine(net.Graph())}
	return &ValueFunction{
		evaluators: map[int]*evaluator{1: base},
		base:       base,
	}
}

// Network returns the batch size 1 network that the ValueFunction
// evaluates.
func (v *ValueFunction) Network() NeuralNet {
	return v.base.net
}

// Features returns the length of state vectors the ValueFunction
// accepts.
func (v *ValueFunction) Features() int {
	return v.base.net.Features()
}

// Outputs returns the number of action values predicted for each
// state.
func (v *ValueFunction) Outputs() int {
	return v.base.net.Outputs()
}

// Evaluate returns the action values of a single state.
func (v *ValueFunction) Evaluate(state []float64) ([]float64, error) {
	values, err := v.EvaluateBatch([][]float64{state})
	if err != nil {
		return nil, err
	}
	return values[0], nil
}

// EvaluateBatch returns the action values of each state in states.
func (v *ValueFunction) EvaluateBatch(states [][]float64) ([][]float64,
	error) {
	if len(states) == 0 {
		return [][]float64{}, nil
	}

	features := v.Features()
	input := make([]float64, 0, len(states)*features)
	for i, state := range states {
		if len(state) != features {
			return nil, fmt.Errorf("evaluate: %w: state %v\n\twant(%v)"+
				"\n\thave(%v)", ErrDimensionMismatch, i, features, len(state))
		}
		input = append(input, state...)
	}

	e, err := v.evaluator(len(states))
	if err != nil {
		return nil, fmt.Errorf("evaluate: %v", err)
	}

	if err := e.net.SetInput(input); err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}
	if err := e.vm.RunAll(); err != nil {
		return nil, fmt.Errorf("evaluate: could not run network: %v", err)
	}
	defer e.vm.Reset()

	output, ok := e.net.Output().Data().([]float64)
	if !ok {
		return nil, fmt.Errorf("evaluate: unexpected network output type %T",
			e.net.Output().Data())
	}

	outputs := v.Outputs()
	values := make([][]float64, len(states))
	for i := range values {
		values[i] = make([]float64, outputs)
		copy(values[i], output[i*outputs:(i+1)*outputs])
	}
	return values, nil
}

// evaluator returns the evaluator for a batch size, compiling a new
// one if needed.
func (v *ValueFunction) evaluator(batch int) (*evaluator, error) {
	if e, ok := v.evaluators[batch]; ok {
		return e, nil
	}

	net, err := v.base.net.CloneWithBatch(batch)
	if err != nil {
		return nil, err
	}
	e := &evaluator{net: net, vm: G.NewTapeMachine(net.Graph())}
	v.evaluators[batch] = e
	return e, nil
}

// Parameters returns deep copies of the weights and biases of the
// ValueFunction, ordered from the input layer to the output layer.
func (v *ValueFunction) Parameters() []*tensor.Dense {
	learnables := v.base.net.Learnables()
	params := make([]*tensor.Dense, len(learnables))
	for i, node := range learnables {
		value, err := cloneValue(node.Value())
		if err != nil {
			panic(fmt.Sprintf("parameters: %v", err))
		}
		params[i] = value
	}
	return params
}

// SetParameters overwrites the parameters of the ValueFunction with
// copies of params. The params must have the order, shapes and dtypes
// returned by Parameters. On error, no parameters are changed.
func (v *ValueFunction) SetParameters(params []*tensor.Dense) error {
	learnables := v.base.net.Learnables()
	if len(params) != len(learnables) {
		return fmt.Errorf("setparameters: %w: invalid number of parameters"+
			"\n\twant(%v)\n\thave(%v)", ErrDimensionMismatch, len(learnables),
			len(params))
	}
	for i, node := range learnables {
		if params[i] == nil || !node.Shape().Eq(params[i].Shape()) {
			var have tensor.Shape
			if params[i] != nil {
				have = params[i].Shape()
			}
			return fmt.Errorf("setparameters: %w: parameter %v"+
				"\n\twant(%v)\n\thave(%v)", ErrDimensionMismatch, i,
				node.Shape(), have)
		}
		if !node.Dtype().Eq(params[i].Dtype()) {
			return fmt.Errorf("setparameters: parameter %v has dtype %v"+
				"\n\twant(%v)", i, params[i].Dtype(), node.Dtype())
		}
	}

	// Stage the old values so that a failed write can be undone
	var nodes []*G.Node
	var old, next []G.Value
	for _, e := range v.evaluators {
		for i, node := range e.net.Learnables() {
			nodes = append(nodes, node)
			old = append(old, node.Value())
			next = append(next, params[i].Clone().(*tensor.Dense))
		}
	}

	for i, node := range nodes {
		if err := G.Let(node, next[i]); err != nil {
			for j := 0; j < i; j++ {
				G.Let(nodes[j], old[j])
			}
			return fmt.Errorf("setparameters: %v", err)
		}
	}
	return nil
}

// Set sets the parameters of the ValueFunction to those of a NeuralNet
// with the same architecture.
func (v *ValueFunction) Set(source NeuralNet) error {
	learnables := source.Learnables()
	params := make([]*tensor.Dense, len(learnables))
	for i, node := range learnables {
		value, err := cloneValue(node.Value())
		if err != nil {
			return fmt.Errorf("set: %v", err)
		}
		params[i] = value
	}
	return v.SetParameters(params)
}

// Clone returns a new ValueFunction with the same architecture and a
// copy of the receiver's parameters.
func (v *ValueFunction) Clone() (*ValueFunction, error) {
	return NewValueFunctionFrom(v.base.net)
}

// Close releases the VMs of the ValueFunction
func (v *ValueFunction) Close() error {
	var err error
	for batch, e := range v.evaluators {
		if closeErr := e.vm.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close: batch %v: %v", batch, closeErr)
		}
	}
	return err
}
