// Package policy implements policies using function approximation using
// Gorgonia. Many of these policies use nonlinear function
// aprpoximation.
package policy

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"

	"github.com/samuelfneumann/flapq/network"
)

// EGreedy implements an epsilon greedy policy over the action values
// predicted by a network.ValueFunction. Given N actions, the value
// function produces N outputs, each predicting the value of a distinct
// action.
//
// With probability epsilon, a uniformly random action is selected.
// Otherwise the action of maximum value is selected, with ties broken
// in favour of the lowest action index. In evaluation mode the policy
// always acts greedily.
type EGreedy struct {
	*network.ValueFunction
	epsilon float64
	eval    bool

	rng  *rand.Rand
	seed uint64
}

// NewEGreedy returns a new EGreedy policy over the action values of
// vf. The seed determines the random sequence of exploratory actions.
func NewEGreedy(epsilon float64, vf *network.ValueFunction,
	seed uint64) (*EGreedy, error) {
	if epsilon < 0 || epsilon > 1 {
		return nil, fmt.Errorf("newegreedy: epsilon must be in [0, 1]"+
			"\n\thave(%v)", epsilon)
	}
	if vf == nil {
		return nil, fmt.Errorf("newegreedy: nil value function")
	}

	return &EGreedy{
		ValueFunction: vf,
		epsilon:       epsilon,
		rng:           rand.New(rand.NewSource(seed)),
		seed:          seed,
	}, nil
}

// SetEpsilon sets the value for epsilon in the epsilon greedy policy,
// clipped to [0, 1].
func (e *EGreedy) SetEpsilon(ε float64) {
	e.epsilon = math.Max(0, math.Min(ε, 1))
}

// Epsilon gets the value of epsilon for the policy.
func (e *EGreedy) Epsilon() float64 {
	return e.epsilon
}

// SelectAction selects an action in a state according to the epsilon
// greedy policy.
func (e *EGreedy) SelectAction(state []float64) (int, error) {
	if e.eval {
		return e.Greedy(state)
	}

	if len(state) != e.Features() {
		return 0, fmt.Errorf("selectaction: %w\n\twant(%v)\n\thave(%v)",
			network.ErrDimensionMismatch, e.Features(), len(state))
	}

	// With probability epsilon return a random action
	if probability := e.rng.Float64(); probability < e.epsilon {
		return e.rng.Intn(e.numActions()), nil
	}

	return e.Greedy(state)
}

// Greedy returns the action of maximum value in a state. If multiple
// actions have the maximum value, the one with the lowest index is
// returned.
func (e *EGreedy) Greedy(state []float64) (int, error) {
	actionValues, err := e.Evaluate(state)
	if err != nil {
		return 0, fmt.Errorf("greedy: %w", err)
	}

	return floats.MaxIdx(actionValues), nil
}

// Eval sets the policy into evaluation mode
func (e *EGreedy) Eval() {
	e.eval = true
}

// Train sets the policy into training mode
func (e *EGreedy) Train() {
	e.eval = false
}

// IsEval returns whether the policy is in evaluation mode
func (e *EGreedy) IsEval() bool {
	return e.eval
}

// numActions returns the number of actions that the policy chooses
// between.
func (e *EGreedy) numActions() int {
	return e.Outputs()
}
