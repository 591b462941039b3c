package deepq

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"gorgonia.org/tensor"

	"github.com/samuelfneumann/flapq/solver"
	ts "github.com/samuelfneumann/flapq/timestep"
)

const features = 4

func newTestAgent(t testing.TB, c Config) *DeepQ {
	t.Helper()
	d, err := New(features, 2, c, 42)
	require.NoError(t, err)
	return d
}

func testTransition(i int, done bool) ts.Transition {
	f := float64(i%7) / 7
	return ts.NewTransition(
		[]float64{f, -f, 0.5 * f, 1 - f},
		i%2,
		float64(i%3)-1,
		[]float64{f + 0.1, -f, 0.5 * f, 1 - f},
		done,
	)
}

func equalParams(a, b []*tensor.Dense) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Shape().Eq(b[i].Shape()) {
			return false
		}
		ad := a[i].Data().([]float64)
		bd := b[i].Data().([]float64)
		for j := range ad {
			if ad[j] != bd[j] {
				return false
			}
		}
	}
	return true
}

func TestNewTargetCopiesPolicy(t *testing.T) {
	d := newTestAgent(t, DefaultConfig())
	defer d.Close()

	require.True(t, equalParams(d.PolicyParameters(), d.TargetParameters()))
	require.Equal(t, 1.0, d.Epsilon())
	require.Equal(t, 32, d.BatchSize())
	require.Equal(t, 0, d.Buffered())
}

func TestSameSeedReproducible(t *testing.T) {
	a := newTestAgent(t, DefaultConfig())
	defer a.Close()
	b := newTestAgent(t, DefaultConfig())
	defer b.Close()

	require.True(t, equalParams(a.PolicyParameters(), b.PolicyParameters()))
	require.True(t, equalParams(a.TargetParameters(), b.TargetParameters()))

	// Equal seeds sample equal batches, so learning stays in lockstep
	for i := 0; i < 40; i++ {
		require.NoError(t, a.Remember(testTransition(i, i%10 == 9)))
		require.NoError(t, b.Remember(testTransition(i, i%10 == 9)))
	}
	for i := 0; i < 3; i++ {
		require.NoError(t, a.Learn())
		require.NoError(t, b.Learn())
	}
	require.True(t, equalParams(a.PolicyParameters(), b.PolicyParameters()))

	state := []float64{0.2, -0.2, 0.1, 0.8}
	for i := 0; i < 20; i++ {
		actA, err := a.SelectAction(state)
		require.NoError(t, err)
		actB, err := b.SelectAction(state)
		require.NoError(t, err)
		require.Equal(t, actA, actB)
	}

	c, err := New(features, 2, DefaultConfig(), 43)
	require.NoError(t, err)
	defer c.Close()
	require.False(t, equalParams(a.PolicyParameters(), c.PolicyParameters()))
}

func TestLearnRequiresFullBatch(t *testing.T) {
	d := newTestAgent(t, DefaultConfig())
	defer d.Close()

	initial := d.PolicyParameters()
	for i := 0; i < 31; i++ {
		require.NoError(t, d.Remember(testTransition(i, false)))
	}
	require.NoError(t, d.Learn())
	require.Equal(t, 0, d.GradientSteps())
	require.True(t, equalParams(initial, d.PolicyParameters()))

	require.NoError(t, d.Remember(testTransition(31, true)))
	require.NoError(t, d.Learn())
	require.Equal(t, 1, d.GradientSteps())
	require.False(t, equalParams(initial, d.PolicyParameters()))

	// The target network is never trained
	require.True(t, equalParams(initial, d.TargetParameters()))
	require.False(t, math.IsNaN(d.Loss()))
	require.Greater(t, d.Loss(), 0.0)
}

func TestUpdateTarget(t *testing.T) {
	require.Equal(t, 1.0, UpdateTarget(1.0, 0.99, []float64{5, 7}, true))
	require.Equal(t, 1.0, UpdateTarget(1.0, 0.99, []float64{math.NaN()},
		true))
	require.InDelta(t, 1.0+0.99*7, UpdateTarget(1.0, 0.99,
		[]float64{5, 7}, false), 1e-12)
	require.InDelta(t, -1.0+0.5*-2, UpdateTarget(-1.0, 0.5,
		[]float64{-3, -2}, false), 1e-12)
}

func TestSyncTarget(t *testing.T) {
	d := newTestAgent(t, DefaultConfig())
	defer d.Close()

	for i := 0; i < 40; i++ {
		require.NoError(t, d.Remember(testTransition(i, i%10 == 9)))
	}
	for i := 0; i < 5; i++ {
		require.NoError(t, d.Learn())
	}
	require.False(t, equalParams(d.PolicyParameters(), d.TargetParameters()))

	require.NoError(t, d.SyncTarget())
	require.True(t, equalParams(d.PolicyParameters(), d.TargetParameters()))

	states := [][]float64{{0, 0, 0, 0}, {1, -1, 0.5, 0.2}}
	want, err := d.Policy().EvaluateBatch(states)
	require.NoError(t, err)
	have, err := d.Target().EvaluateBatch(states)
	require.NoError(t, err)
	require.Equal(t, want, have)

	// The target holds a snapshot, not a reference, of the policy
	synced := d.TargetParameters()
	require.NoError(t, d.Learn())
	require.True(t, equalParams(synced, d.TargetParameters()))
	require.False(t, equalParams(synced, d.PolicyParameters()))
}

func TestDecayEpsilon(t *testing.T) {
	d := newTestAgent(t, DefaultConfig())
	defer d.Close()

	prev := d.Epsilon()
	d.DecayEpsilon()
	require.InDelta(t, 0.995, d.Epsilon(), 1e-12)

	for i := 0; i < 2000; i++ {
		d.DecayEpsilon()
		require.LessOrEqual(t, d.Epsilon(), prev)
		require.GreaterOrEqual(t, d.Epsilon(), 0.01)
		prev = d.Epsilon()
	}
	require.Equal(t, 0.01, d.Epsilon())
}

func TestSelectActionGreedyAtZeroEpsilon(t *testing.T) {
	c := DefaultConfig()
	c.Epsilon = 0.0
	c.EpsilonMin = 0.0
	d := newTestAgent(t, c)
	defer d.Close()

	state := []float64{0.3, -0.2, 0.1, 0.9}
	values, err := d.Policy().Evaluate(state)
	require.NoError(t, err)
	want := 0
	if values[1] > values[0] {
		want = 1
	}

	for i := 0; i < 50; i++ {
		action, err := d.SelectAction(state)
		require.NoError(t, err)
		require.Equal(t, want, action)
	}

	greedy, err := d.Greedy(state)
	require.NoError(t, err)
	require.Equal(t, want, greedy)
}

func TestEvalMode(t *testing.T) {
	d := newTestAgent(t, DefaultConfig())
	defer d.Close()

	state := []float64{0.3, -0.2, 0.1, 0.9}
	greedy, err := d.Greedy(state)
	require.NoError(t, err)

	d.Eval()
	require.True(t, d.IsEval())
	for i := 0; i < 50; i++ {
		action, err := d.SelectAction(state)
		require.NoError(t, err)
		require.Equal(t, greedy, action)
	}
	d.Train()
	require.False(t, d.IsEval())
}

func TestRememberErrors(t *testing.T) {
	d := newTestAgent(t, DefaultConfig())
	defer d.Close()

	bad := testTransition(0, false)
	bad.Action = 2
	require.Error(t, d.Remember(bad))

	bad = testTransition(0, false)
	bad.State = bad.State[:2]
	require.Error(t, d.Remember(bad))
	require.Equal(t, 0, d.Buffered())
}

func TestTdErrorTerminal(t *testing.T) {
	d := newTestAgent(t, DefaultConfig())
	defer d.Close()

	tr := testTransition(3, true)
	tr.Reward = 1.0
	values, err := d.Policy().Evaluate(tr.State)
	require.NoError(t, err)

	tdError, err := d.TdError(tr)
	require.NoError(t, err)
	require.InDelta(t, 1.0-values[tr.Action], tdError, 1e-12)
}

func TestLearnFitsTerminalReward(t *testing.T) {
	c := DefaultConfig()
	c.BatchSize = 8
	adam, err := solver.NewDefaultAdam(0.01, 1)
	require.NoError(t, err)
	c.Solver = adam

	d := newTestAgent(t, c)
	defer d.Close()

	tr := ts.NewTransition([]float64{0.5, 0.5, 0.5, 0.5}, 0, 1.0,
		[]float64{0, 0, 0, 0}, true)
	for i := 0; i < 8; i++ {
		require.NoError(t, d.Remember(tr))
	}
	for i := 0; i < 500; i++ {
		require.NoError(t, d.Learn())
	}

	values, err := d.Policy().Evaluate(tr.State)
	require.NoError(t, err)
	require.InDelta(t, 1.0, values[0], 0.1)
	require.Less(t, d.Loss(), 0.01)
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	tests := []func(c *Config){
		func(c *Config) { c.Biases = nil },
		func(c *Config) { c.Activations = nil },
		func(c *Config) { c.Solver = nil },
		func(c *Config) { c.InitWFn = nil },
		func(c *Config) { c.BatchSize = 0 },
		func(c *Config) { c.ExpReplay.MaxReplayCapacity = 16 },
		func(c *Config) { c.Gamma = 1.5 },
		func(c *Config) { c.EpsilonMin = -0.1 },
		func(c *Config) { c.Epsilon = 0.001 },
		func(c *Config) { c.EpsilonDecay = 0 },
	}
	for i, modify := range tests {
		c := DefaultConfig()
		modify(&c)
		require.Error(t, c.Validate(), "case %d", i)

		_, err := New(features, 2, c, 1)
		require.Error(t, err, "case %d", i)
	}
}

func TestConfigJSON(t *testing.T) {
	c := DefaultConfig()
	data, err := json.Marshal(c)
	require.NoError(t, err)

	var decoded Config
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.NoError(t, decoded.Validate())
	require.Equal(t, c.PolicyLayers, decoded.PolicyLayers)
	require.Equal(t, c.Biases, decoded.Biases)
	require.Equal(t, "relu", decoded.Activations[0].String())
	require.Equal(t, c.Solver.Config, decoded.Solver.Config)
	require.Equal(t, c.InitWFn.Config, decoded.InitWFn.Config)
	require.Equal(t, c.ExpReplay, decoded.ExpReplay)
	require.Equal(t, c.BatchSize, decoded.BatchSize)
	require.Equal(t, c.Gamma, decoded.Gamma)
	require.Equal(t, c.EpsilonDecay, decoded.EpsilonDecay)

	a, err := decoded.CreateAgent(features, 2, 1)
	require.NoError(t, err)
	require.True(t, decoded.ValidAgent(a))
	require.NoError(t, a.(*DeepQ).Close())
}

func BenchmarkLearn(b *testing.B) {
	d := newTestAgent(b, DefaultConfig())
	defer d.Close()

	for i := 0; i < 1000; i++ {
		require.NoError(b, d.Remember(testTransition(i, i%50 == 49)))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := d.Learn(); err != nil {
			b.Fatal(err)
		}
	}
}
