package tracker

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	ts "github.com/samuelfneumann/flapq/timestep"
)

// pass returns the timesteps of a single pass with the given rewards
func pass(rewards []float64, correct []bool, losses []float64) []ts.TimeStep {
	steps := make([]ts.TimeStep, len(rewards))
	for i, r := range rewards {
		stepType := ts.Mid
		switch i {
		case 0:
			stepType = ts.First
		case len(rewards) - 1:
			stepType = ts.Last
		}

		steps[i] = ts.New(stepType, r, nil, i)
		steps[i].Action = 1
		if correct[i] {
			steps[i].Greedy = 1
		}
		if losses != nil && !math.IsNaN(losses[i]) {
			steps[i].Learned = true
			steps[i].Loss = losses[i]
		}
	}
	return steps
}

func trackAll(steps []ts.TimeStep, trackers ...Tracker) {
	for _, step := range steps {
		for _, t := range trackers {
			t.Track(step)
		}
	}
}

func TestTrackers(t *testing.T) {
	ret := NewReturn("")
	acc := NewAccuracy("")
	loss := NewLoss("")

	nan := math.NaN()
	trackAll(pass([]float64{1, 2, 3, 4}, []bool{true, false, true, true},
		[]float64{nan, nan, 0.5, 1.5}), ret, acc, loss)
	trackAll(pass([]float64{-1, 0}, []bool{false, false}, nil), ret, acc,
		loss)

	require.Equal(t, []float64{10, -1}, ret.Data())
	// Each pass is divided by its own number of timesteps
	require.Equal(t, []float64{0.75, 0}, acc.Data())

	losses := loss.Data()
	require.Len(t, losses, 2)
	require.InDelta(t, 1.0, losses[0], 1e-12)
	require.True(t, math.IsNaN(losses[1]))
}

func TestReturnUnfinishedPass(t *testing.T) {
	ret := NewReturn("")
	steps := pass([]float64{1, 2, 3}, []bool{true, true, true}, nil)
	trackAll(steps[:2], ret)
	require.Empty(t, ret.Data())
}

func TestReturnPanicsOnNonSequential(t *testing.T) {
	ret := NewReturn("")
	steps := pass([]float64{1, 2, 3}, []bool{true, true, true}, nil)
	ret.Track(steps[0])
	require.Panics(t, func() { ret.Track(steps[2]) })
}

func TestSaveLoad(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "return.bin")
	ret := NewReturn(filename)
	trackAll(pass([]float64{1, 2}, []bool{true, true}, nil), ret)
	trackAll(pass([]float64{3, 4}, []bool{true, true}, nil), ret)
	require.NoError(t, ret.Save())

	data, err := LoadData(filename)
	require.NoError(t, err)
	require.Equal(t, []float64{3, 7}, data)

	_, err = LoadData(filepath.Join(t.TempDir(), "missing.bin"))
	require.Error(t, err)

	require.Error(t, NewAccuracy("").Save())
}

func TestMovingAverage(t *testing.T) {
	data := []float64{1, 2, 3, 4, 5}
	require.Equal(t, []float64{1, 1.5, 2, 3, 4},
		MovingAverage(data, 3))
	require.Equal(t, data, MovingAverage(data, 1))
	require.Equal(t, []float64{1, 1.5, 2, 2.5, 3},
		MovingAverage(data, Window))
	require.Empty(t, MovingAverage(nil, Window))
}
