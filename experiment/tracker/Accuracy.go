package tracker

import (
	"github.com/samuelfneumann/flapq/timestep"
)

// Accuracy tracks and saves, for each pass over a dataset, the
// fraction of timesteps on which the agent's greedy action matched the
// logged action.
//
// The denominator is the number of timesteps in the pass. A pass over
// N records has N-1 timesteps, since the last record only serves as
// the next state of the step before it, so this is N-1 rather than N.
//
// Accuracy measures agreement with the logged behaviour only. An agent
// learning from the logged rewards may legitimately disagree with it.
type Accuracy struct {
	correct    int
	steps      int
	accuracies []float64
	filename   string
}

// NewAccuracy returns a new Accuracy Tracker which will save its data
// at the specified location filename
func NewAccuracy(filename string) *Accuracy {
	return &Accuracy{filename: filename}
}

// Track counts whether the greedy action matched the logged action on
// a timestep. When the timestep is the last in a pass, the accuracy of
// the pass is cached.
func (a *Accuracy) Track(t timestep.TimeStep) {
	a.steps++
	if t.Correct() {
		a.correct++
	}

	if t.Last() {
		a.accuracies = append(a.accuracies,
			float64(a.correct)/float64(a.steps))
		a.correct, a.steps = 0, 0
	}
}

// Data returns the accuracy of each finished pass
func (a *Accuracy) Data() []float64 {
	return copyData(a.accuracies)
}

// Save saves the data tracked by the Accuracy Tracker to disk.
func (a *Accuracy) Save() error {
	return save(a.filename, a.accuracies)
}
