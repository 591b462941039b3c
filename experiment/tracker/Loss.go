package tracker

import (
	"math"

	"github.com/samuelfneumann/flapq/timestep"
)

// Loss tracks and saves the mean loss of the learning updates performed
// in each pass over a dataset. A pass in which no update was performed
// has a mean loss of NaN.
type Loss struct {
	total    float64
	updates  int
	losses   []float64
	filename string
}

// NewLoss returns a new Loss Tracker which will save its data at the
// specified location filename
func NewLoss(filename string) *Loss {
	return &Loss{filename: filename}
}

// Track accumulates the loss of the update performed on a timestep, if
// any.
func (l *Loss) Track(t timestep.TimeStep) {
	if t.Learned {
		l.total += t.Loss
		l.updates++
	}

	if t.Last() {
		mean := math.NaN()
		if l.updates > 0 {
			mean = l.total / float64(l.updates)
		}
		l.losses = append(l.losses, mean)
		l.total, l.updates = 0, 0
	}
}

// Data returns the mean loss of each finished pass
func (l *Loss) Data() []float64 {
	return copyData(l.losses)
}

// Save saves the data tracked by the Loss Tracker to disk.
func (l *Loss) Save() error {
	return save(l.filename, l.losses)
}
