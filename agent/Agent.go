// Package agent defines an agent interface
package agent

import (
	"github.com/samuelfneumann/flapq/timestep"
)

// Agent determines the implementation details of an agent or algorithm
//
// An Agent is composed of a Learner, which learns weights, and a Policy
// which chooses actions in each state. The Policy chooses which actions
// are taken, and the Learner uses these actions to update the Policy.
type Agent interface {
	Learner
	Policy
}

// A Closer is an agent that must be closed after it is done learning
type Closer interface {
	Agent
	Close() error
}

// Learner implements a learning algorithm that defines how weights are
// updated.
type Learner interface {
	// Remember stores a transition for later learning
	Remember(t timestep.Transition) error

	// Buffered returns the number of transitions stored for learning
	Buffered() int

	// BatchSize returns the number of transitions used in each update
	BatchSize() int

	// Learn performs a single update to the learner. If too few
	// transitions have been stored, Learn does nothing.
	Learn() error

	// Loss returns the loss of the most recent update
	Loss() float64

	// SyncTarget copies the learned weights into the target weights
	SyncTarget() error

	// DecayEpsilon decays the exploration rate of the behaviour policy
	DecayEpsilon()

	// Epsilon returns the current exploration rate
	Epsilon() float64
}

// TdErrorer is a Learner that can return the TdError of some transition
type TdErrorer interface {
	Learner

	// TdError returns the TD error on a transition
	TdError(t timestep.Transition) (float64, error)
}

// Policy represents a policy that an agent can have.
//
// Policies determine how agents select actions given a state
// observation. In evaluation mode, a Policy always acts greedily.
type Policy interface {
	SelectAction(state []float64) (int, error)
	Greedy(state []float64) (int, error)
	Eval()        // Set policy to evaluation mode
	Train()       // Set policy to training mode
	IsEval() bool // Indicates if in evaluation mode
}

// EGreedyPolicy implements an epsilon greedy policy, where the epsilon
// value can be set and retrieved.
type EGreedyPolicy interface {
	Policy
	SetEpsilon(float64)
	Epsilon() float64
}
