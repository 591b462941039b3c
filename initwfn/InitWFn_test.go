package initwfn

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"gorgonia.org/tensor"
)

func TestInitWFnJSON(t *testing.T) {
	glorot, err := NewGlorotU(1.0)
	require.NoError(t, err)

	data, err := json.Marshal(glorot)
	require.NoError(t, err)

	var decoded InitWFn
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, GlorotU, decoded.Type)
	require.Equal(t, ScaledConfig{Algorithm: GlorotU, Gain: 1.0},
		decoded.Config)
	require.NotNil(t, decoded.InitWFn(1))
}

func TestInitWFnUnmarshalTypes(t *testing.T) {
	tests := []struct {
		in   string
		want Config
	}{
		{`{"Type": "HeN", "Config": {"Gain": 2}}`,
			ScaledConfig{Algorithm: HeN, Gain: 2}},
		{`{"Type": "Zeroes", "Config": {}}`, ConstantConfig{Kind: Zeroes}},
		{`{"Type": "Ones"}`, ConstantConfig{Kind: Ones, Value: 1}},
		{`{"Type": "Constant", "Config": {"Value": 0.5}}`,
			ConstantConfig{Kind: Constant, Value: 0.5}},
		{`{"Type": "Uniform", "Config": {"Low": -1, "High": 1}}`,
			UniformConfig{Low: -1, High: 1}},
		{`{"Type": "Gaussian", "Config": {"Mean": 0, "StdDev": 0.1}}`,
			GaussianConfig{Mean: 0, StdDev: 0.1}},
	}

	for _, test := range tests {
		var init InitWFn
		require.NoError(t, json.Unmarshal([]byte(test.in), &init), test.in)
		require.Equal(t, test.want, init.Config)
	}
}

func TestInitWFnUnmarshalErrors(t *testing.T) {
	var init InitWFn
	require.Error(t, json.Unmarshal([]byte(`{"Type": "Bogus"}`), &init))
	require.Error(t, json.Unmarshal([]byte(`{"Config": {}}`), &init))
	require.Error(t, json.Unmarshal(
		[]byte(`{"Type": "GlorotU", "Config": {"Gain": 0}}`), &init))
	require.Error(t, json.Unmarshal(
		[]byte(`{"Type": "Uniform", "Config": {"Low": 1, "High": 1}}`), &init))
}

func TestValidate(t *testing.T) {
	_, err := NewHeU(-1)
	require.Error(t, err)
	_, err = NewGaussian(0, 0)
	require.Error(t, err)
	_, err = NewUniform(0.5, -0.5)
	require.Error(t, err)
	_, err = NewConstant(math.Inf(1))
	require.Error(t, err)

	for _, create := range []func() (*InitWFn, error){
		NewZeroes, NewOnes,
		func() (*InitWFn, error) { return NewGlorotN(1) },
		func() (*InitWFn, error) { return NewHeN(2) },
		func() (*InitWFn, error) { return NewGaussian(0, 0.1) },
	} {
		init, err := create()
		require.NoError(t, err)
		require.NotNil(t, init.InitWFn(1))
	}
}

func TestOnesInit(t *testing.T) {
	init, err := NewOnes()
	require.NoError(t, err)

	values := init.InitWFn(1)(tensor.Float64, 3).([]float64)
	require.Equal(t, []float64{1, 1, 1}, values)
}

func TestConstantInit(t *testing.T) {
	init, err := NewConstant(0.25)
	require.NoError(t, err)

	values := init.InitWFn(1)(tensor.Float64, 2, 2).([]float64)
	require.Equal(t, []float64{0.25, 0.25, 0.25, 0.25}, values)
}

func TestSeededInit(t *testing.T) {
	for _, create := range []func() (*InitWFn, error){
		func() (*InitWFn, error) { return NewGlorotU(1) },
		func() (*InitWFn, error) { return NewGlorotN(1) },
		func() (*InitWFn, error) { return NewHeU(2) },
		func() (*InitWFn, error) { return NewHeN(2) },
		func() (*InitWFn, error) { return NewUniform(-1, 1) },
		func() (*InitWFn, error) { return NewGaussian(0, 0.1) },
	} {
		init, err := create()
		require.NoError(t, err)

		a := init.InitWFn(7)(tensor.Float64, 4, 3).([]float64)
		b := init.InitWFn(7)(tensor.Float64, 4, 3).([]float64)
		c := init.InitWFn(8)(tensor.Float64, 4, 3).([]float64)
		require.Len(t, a, 12)
		require.Equal(t, a, b, init.Type)
		require.NotEqual(t, a, c, init.Type)
	}
}

func TestScaledInitRange(t *testing.T) {
	init, err := NewGlorotU(1)
	require.NoError(t, err)

	// Glorot uniform samples lie within ±√(6 / (fanIn + fanOut))
	limit := math.Sqrt(6.0 / (10 + 20))
	values := init.InitWFn(3)(tensor.Float64, 10, 20).([]float64)
	for _, v := range values {
		require.LessOrEqual(t, math.Abs(v), limit)
	}

	init, err = NewHeU(1)
	require.NoError(t, err)
	limit = math.Sqrt(3.0 / 10)
	values = init.InitWFn(3)(tensor.Float64, 10, 20).([]float64)
	for _, v := range values {
		require.LessOrEqual(t, math.Abs(v), limit)
	}

	f32 := init.InitWFn(3)(tensor.Float32, 2, 2).([]float32)
	require.Len(t, f32, 4)
}
