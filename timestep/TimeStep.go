// Package timestep implements timesteps of an offline pass over
// recorded game play, as well as the transitions built from them.
package timestep

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// StepType denotes the type of step that a TimeStep can be, either the
// first step of a pass, a middle step, or a last step
type StepType int

const (
	First StepType = iota
	Mid
	Last
)

func (s StepType) String() string {
	switch s {
	case First:
		return "First"
	case Last:
		return "Last"
	default:
		return "Mid"
	}
}

// TimeStep packages together a single step of an offline pass over a
// dataset of recorded game play.
//
// Action is the action that was logged in the dataset at this step and
// Greedy is the action that the agent would have taken greedily in the
// same state. If a learning update was performed at this step, Learned
// is true and Loss holds the loss of that update.
type TimeStep struct {
	stepType    StepType
	Reward      float64
	Observation mat.Vector
	Number      int

	Action  int
	Greedy  int
	Loss    float64
	Learned bool
}

// New returns a new TimeStep
func New(t StepType, r float64, o mat.Vector, n int) TimeStep {
	return TimeStep{stepType: t, Reward: r, Observation: o, Number: n}
}

// StepType returns the type of the TimeStep
func (t *TimeStep) StepType() StepType {
	return t.stepType
}

// First returns whether a TimeStep is the first in a pass
func (t *TimeStep) First() bool {
	return t.stepType == First
}

// Mid returns whether a TimeStep is a middle step in a pass
func (t *TimeStep) Mid() bool {
	return t.stepType == Mid
}

// Last returns whether a TimeStep is the last step in a pass
func (t *TimeStep) Last() bool {
	return t.stepType == Last
}

// Correct returns whether the agent's greedy action matches the logged
// action.
func (t *TimeStep) Correct() bool {
	return t.Action == t.Greedy
}

func (t TimeStep) String() string {
	str := "TimeStep | Type: %v  |  Reward:  %.2f  |  Action: %v  |  " +
		"Greedy: %v  |  Step Number:  %v"

	return fmt.Sprintf(str, t.stepType, t.Reward, t.Action, t.Greedy,
		t.Number)
}
