package network

import (
	"encoding/json"
	"fmt"

	G "gorgonia.org/gorgonia"
)

// Names of the available activations
const (
	reluName     = "relu"
	tanhName     = "tanh"
	sigmoidName  = "sigmoid"
	identityName = "identity"
	nilName      = "nil"
)

// activations maps the name of each Activation to its constructor
var activations = map[string]func() *Activation{
	reluName:     ReLU,
	tanhName:     TanH,
	sigmoidName:  Sigmoid,
	identityName: Identity,
	nilName:      Nil,
}

// Activation represents an activation function applied elementwise to
// the output of a layer. Activations are JSON encoded by name.
type Activation struct {
	name string
	f    func(x *G.Node) (*G.Node, error)
}

func (a *Activation) fwd(x *G.Node) (*G.Node, error) {
	return a.f(x)
}

// String implements the Stringer interface
func (a *Activation) String() string {
	return a.name
}

// IsIdentity returns whether or not the Activation is the identity
// function.
func (a *Activation) IsIdentity() bool {
	return a.name == identityName
}

// IsNil returns whether the Activation applies no function at all
func (a *Activation) IsNil() bool {
	return a.f == nil
}

// MarshalJSON implements the json.Marshaler interface
func (a *Activation) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.name)
}

// UnmarshalJSON implements the json.Unmarshaler interface
func (a *Activation) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return fmt.Errorf("unmarshaljson: %v", err)
	}

	create, ok := activations[name]
	if !ok {
		return fmt.Errorf("unmarshaljson: illegal Activation type %q", name)
	}
	*a = *create()
	return nil
}

// Nil returns an *Activation which leaves its layer's output unchanged
// and adds no node to the graph
func Nil() *Activation {
	return &Activation{name: nilName}
}

// Identity returns an identity *Activation
func Identity() *Activation {
	return &Activation{
		name: identityName,
		f: func(x *G.Node) (*G.Node, error) {
			return x, nil
		},
	}
}

// ReLU returns a ReLU *Activation
func ReLU() *Activation {
	return &Activation{name: reluName, f: G.Rectify}
}

// TanH returns a tanh *Activation
func TanH() *Activation {
	return &Activation{name: tanhName, f: G.Tanh}
}

// Sigmoid returns a logistic sigmoid *Activation
func Sigmoid() *Activation {
	return &Activation{name: sigmoidName, f: G.Sigmoid}
}
