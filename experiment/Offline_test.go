package experiment

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorgonia.org/tensor"

	"github.com/samuelfneumann/flapq/agent/nonlinear/discrete/deepq"
	"github.com/samuelfneumann/flapq/dataset"
	"github.com/samuelfneumann/flapq/experiment/tracker"
)

func testRecords(n int) []dataset.Record {
	records := make([]dataset.Record, n)
	for i := range records {
		f := float64(i%5) / 5
		records[i] = dataset.Record{
			Features: []float64{f, 1 - f, 0.5 * f},
			Action:   i % 2,
			Reward:   float64(i%3) - 0.5,
		}
	}
	return records
}

func testAgent(t *testing.T) *deepq.DeepQ {
	t.Helper()
	c := deepq.DefaultConfig()
	c.PolicyLayers = []int{8}
	c.BatchSize = 4
	c.ExpReplay.MaxReplayCapacity = 100

	a, err := deepq.New(3, 2, c, 7)
	require.NoError(t, err)
	return a
}

func equalParams(a, b []*tensor.Dense) bool {
	for i := range a {
		ad := a[i].Data().([]float64)
		bd := b[i].Data().([]float64)
		for j := range ad {
			if ad[j] != bd[j] {
				return false
			}
		}
	}
	return len(a) == len(b)
}

func TestNewOfflineErrors(t *testing.T) {
	a := testAgent(t)
	defer a.Close()

	_, err := NewOffline(a, testRecords(1), DefaultConfig())
	require.Error(t, err)

	c := DefaultConfig()
	c.Passes = 0
	_, err = NewOffline(a, testRecords(10), c)
	require.Error(t, err)

	c = DefaultConfig()
	c.SyncInterval = 0
	_, err = NewOffline(a, testRecords(10), c)
	require.Error(t, err)
}

func TestRun(t *testing.T) {
	a := testAgent(t)
	records := testRecords(10)
	c := DefaultConfig()
	c.Passes = 3

	e, err := NewOffline(a, records, c)
	require.NoError(t, err)
	defer e.Close()

	results, err := e.Run()
	require.NoError(t, err)
	require.Equal(t, 3, results.Len())

	// The last record only serves as the next state of the step before
	wantReward := 0.0
	for _, r := range records[:len(records)-1] {
		wantReward += r.Reward
	}

	epsilon := 1.0
	for p := 0; p < 3; p++ {
		require.InDelta(t, wantReward, results.TotalReward[p], 1e-12)
		require.InDelta(t, wantReward, results.AverageReward[p], 1e-12)
		require.GreaterOrEqual(t, results.Accuracy[p], 0.0)
		require.LessOrEqual(t, results.Accuracy[p], 1.0)
		require.False(t, math.IsNaN(results.MeanLoss[p]))

		epsilon *= 0.995
		require.InDelta(t, epsilon, results.Epsilon[p], 1e-12)
	}

	// Buffer holds one transition per step of each pass
	require.Equal(t, 27, a.Buffered())
	require.Equal(t, 3*9-3, a.GradientSteps())
}

func TestRunPassSyncsTargetOnInterval(t *testing.T) {
	a := testAgent(t)
	c := DefaultConfig()
	c.Passes = 3

	e, err := NewOffline(a, testRecords(12), c)
	require.NoError(t, err)
	defer e.Close()

	initial := a.TargetParameters()

	require.NoError(t, e.RunPass(0))
	synced := a.TargetParameters()
	require.False(t, equalParams(initial, synced))
	require.True(t, equalParams(a.PolicyParameters(), synced))

	// Passes 1 and 2 are not multiples of the sync interval
	require.NoError(t, e.RunPass(1))
	require.NoError(t, e.RunPass(2))
	require.True(t, equalParams(synced, a.TargetParameters()))
	require.False(t, equalParams(a.PolicyParameters(), a.TargetParameters()))

	c.SyncInterval = 1
	e2, err := NewOffline(a, testRecords(12), c)
	require.NoError(t, err)
	require.NoError(t, e2.RunPass(3))
	require.True(t, equalParams(a.PolicyParameters(), a.TargetParameters()))
}

func TestEvaluate(t *testing.T) {
	a := testAgent(t)
	records := testRecords(10)
	e, err := NewOffline(a, records, DefaultConfig())
	require.NoError(t, err)
	defer e.Close()

	correct := 0
	for _, r := range records {
		greedy, err := a.Greedy(r.Features)
		require.NoError(t, err)
		if greedy == r.Action {
			correct++
		}
	}

	acc, err := e.Evaluate(records)
	require.NoError(t, err)
	require.InDelta(t, float64(correct)/float64(len(records)), acc, 1e-12)
	require.False(t, a.IsEval())

	_, err = e.Evaluate(nil)
	require.Error(t, err)
}

func TestRegisteredTrackers(t *testing.T) {
	a := testAgent(t)
	c := DefaultConfig()
	c.Passes = 2
	filename := filepath.Join(t.TempDir(), "accuracy.bin")

	e, err := NewOffline(a, testRecords(8), c)
	require.NoError(t, err)
	defer e.Close()
	e.Register(tracker.NewAccuracy(filename))

	results, err := e.Run()
	require.NoError(t, err)
	require.NoError(t, e.Save())

	data, err := tracker.LoadData(filename)
	require.NoError(t, err)
	require.Equal(t, results.Accuracy, data)
}

func TestLoadSettings(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(filename, []byte(`{
		"Experiment": {"Passes": 2},
		"Agent": {"BatchSize": 4, "Gamma": 0.9}
	}`), 0o644))

	s, err := LoadSettings(filename)
	require.NoError(t, err)
	require.Equal(t, 2, s.Experiment.Passes)
	require.Equal(t, 10, s.Experiment.SyncInterval)
	require.Equal(t, 4, s.Agent.BatchSize)
	require.Equal(t, 0.9, s.Agent.Gamma)
	require.Equal(t, []int{64}, s.Agent.PolicyLayers)

	e, err := s.CreateExp(testRecords(10), 2, 1)
	require.NoError(t, err)
	defer e.Close()

	results, err := e.Run()
	require.NoError(t, err)
	require.Equal(t, 2, results.Len())

	require.NoError(t, os.WriteFile(filename,
		[]byte(`{"Experiment": {"SyncInterval": 0}}`), 0o644))
	_, err = LoadSettings(filename)
	require.Error(t, err)

	_, err = LoadSettings(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}
