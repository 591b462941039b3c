package tracker

import (
	"fmt"

	ts "github.com/samuelfneumann/flapq/timestep"
)

// Return tracks and saves the total reward of each pass over a dataset.
// When the driver emits a TimeStep, this Tracker will extract the
// reward and accumulate the return for each pass in the experiment.
//
// Note: A pass must finish for this Tracker to save its data.
// If the last pass in an experiment does not finish, that pass's
// return will not be saved.
type Return struct {
	lastTimeStep  int
	currentReturn float64
	passReturns   []float64
	filename      string
}

// NewReturn creates and returns a new *Return Tracker which will save
// its data at the specified location filename
func NewReturn(filename string) *Return {
	return &Return{lastTimeStep: -1, filename: filename}
}

// Track tracks the reward seen on a timestep. By calling this method
// on every timestep, the Tracker accumulates all rewards seen in the
// pass, and saves the cumulative reward for that pass once the last
// timestep of the pass is tracked.
//
// Track panics if it is called for non-sequential timesteps
func (r *Return) Track(step ts.TimeStep) {
	// Ensure that Track is called on sequential timesteps
	if r.lastTimeStep+1 != step.Number {
		panic(fmt.Sprintf("track: last two timesteps tracked are not "+
			"sequential: timestep %v --> timestep %v were tracked",
			r.lastTimeStep, step.Number))
	}

	r.currentReturn += step.Reward
	r.lastTimeStep = step.Number

	if step.Last() {
		// Pass has ended, save the return and begin tracking the
		// return for a new pass
		r.passReturns = append(r.passReturns, r.currentReturn)
		r.currentReturn = 0.0
		r.lastTimeStep = -1
	}
}

// Data returns the total reward of each finished pass
func (r *Return) Data() []float64 {
	return copyData(r.passReturns)
}

// Save saves the data tracked by the Return Tracker to disk.
func (r *Return) Save() error {
	return save(r.filename, r.passReturns)
}
