package policy

import (
	"testing"

	"github.com/stretchr/testify/require"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/samuelfneumann/flapq/network"
)

// newFixedValueFunction returns a linear value function over 2
// features whose action values are (x0, x1) for state x.
func newFixedValueFunction(t *testing.T) *network.ValueFunction {
	t.Helper()
	vf, err := network.NewValueFunction(2, 2, []int{}, []bool{}, G.Zeroes(),
		[]*network.Activation{})
	require.NoError(t, err)

	weights := tensor.New(tensor.WithShape(2, 2),
		tensor.WithBacking([]float64{1, 0, 0, 1}))
	bias := tensor.New(tensor.WithShape(1, 2),
		tensor.WithBacking([]float64{0, 0}))
	require.NoError(t, vf.SetParameters([]*tensor.Dense{weights, bias}))
	return vf
}

func TestGreedyArgmax(t *testing.T) {
	vf := newFixedValueFunction(t)
	p, err := NewEGreedy(0.0, vf, 1)
	require.NoError(t, err)

	action, err := p.Greedy([]float64{1, 2})
	require.NoError(t, err)
	require.Equal(t, 1, action)

	action, err = p.Greedy([]float64{3, -2})
	require.NoError(t, err)
	require.Equal(t, 0, action)

	// Ties go to the first action
	action, err = p.Greedy([]float64{0.5, 0.5})
	require.NoError(t, err)
	require.Equal(t, 0, action)
}

func TestSelectActionZeroEpsilonIsGreedy(t *testing.T) {
	vf := newFixedValueFunction(t)
	p, err := NewEGreedy(0.0, vf, 1)
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		action, err := p.SelectAction([]float64{0, 1})
		require.NoError(t, err)
		require.Equal(t, 1, action)
	}
}

func TestSelectActionExplores(t *testing.T) {
	vf := newFixedValueFunction(t)
	p, err := NewEGreedy(1.0, vf, 3)
	require.NoError(t, err)

	counts := make([]int, 2)
	for i := 0; i < 1000; i++ {
		action, err := p.SelectAction([]float64{0, 1})
		require.NoError(t, err)
		counts[action]++
	}
	require.Greater(t, counts[0], 350)
	require.Greater(t, counts[1], 350)

	p.Eval()
	require.True(t, p.IsEval())
	for i := 0; i < 100; i++ {
		action, err := p.SelectAction([]float64{0, 1})
		require.NoError(t, err)
		require.Equal(t, 1, action)
	}
	p.Train()
	require.False(t, p.IsEval())
}

func TestSelectActionSeeded(t *testing.T) {
	p1, err := NewEGreedy(0.5, newFixedValueFunction(t), 11)
	require.NoError(t, err)
	p2, err := NewEGreedy(0.5, newFixedValueFunction(t), 11)
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		a1, err := p1.SelectAction([]float64{1, 0})
		require.NoError(t, err)
		a2, err := p2.SelectAction([]float64{1, 0})
		require.NoError(t, err)
		require.Equal(t, a1, a2)
	}
}

func TestEGreedyErrors(t *testing.T) {
	vf := newFixedValueFunction(t)
	_, err := NewEGreedy(1.5, vf, 1)
	require.Error(t, err)
	_, err = NewEGreedy(0.1, nil, 1)
	require.Error(t, err)

	p, err := NewEGreedy(0.1, vf, 1)
	require.NoError(t, err)
	_, err = p.SelectAction([]float64{1})
	require.Error(t, err)

	p.SetEpsilon(0.3)
	require.Equal(t, 0.3, p.Epsilon())
	p.SetEpsilon(1.7)
	require.Equal(t, 1.0, p.Epsilon())
}
