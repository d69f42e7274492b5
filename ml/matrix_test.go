package ml

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSigmoid_Range(t *testing.T) {
	// 37 is roughly where exp(-t) vanishes next to 1, and exp(t) itself
	// underflows below about -745; both regimes must stay inside (0, 1).
	inputs := []float64{-1000, -745, -50, -1, -1e-9, 0, 1e-9, 1, 37, 50, 745, 1000}
	for _, in := range inputs {
		s := Sigmoid(in)
		require.False(t, math.IsNaN(s), "Sigmoid(%v) is NaN", in)
		assert.Greater(t, s, 0.0, "Sigmoid(%v) must be > 0", in)
		assert.Less(t, s, 1.0, "Sigmoid(%v) must be < 1", in)
	}

	assert.Equal(t, 0.5, Sigmoid(0))
	assert.InDelta(t, 0.7310585786, Sigmoid(1), 1e-9)
}

func TestSigmoidPrime(t *testing.T) {
	// f'(t) = f(t) * (1 - f(t)), maximal at t = 0
	assert.InDelta(t, 0.25, SigmoidPrime(0), 1e-12)
	for _, in := range []float64{-3, -0.5, 0.7, 4} {
		s := Sigmoid(in)
		assert.InDelta(t, s*(1-s), SigmoidPrime(in), 1e-12)
	}
}

func TestAddVector_Broadcast(t *testing.T) {
	m := NewMatrixFromSlice(2, 3, []float64{1, 2, 3, 4, 5, 6})
	v := NewMatrixFromSlice(1, 3, []float64{10, 20, 30})

	m.AddVector(v)

	want := []float64{11, 22, 33, 14, 25, 36}
	for i, w := range want {
		assert.Equal(t, w, m.data[i])
	}
}

func TestAddVector_ShapeMismatchPanics(t *testing.T) {
	m := NewMatrix(2, 3)

	assert.Panics(t, func() {
		m.AddVector(NewMatrix(1, 2)) // too short: must not recycle
	})
	assert.Panics(t, func() {
		m.AddVector(NewMatrix(2, 3)) // not a row vector
	})
}

func TestColumnSumsInto(t *testing.T) {
	m := NewMatrixFromSlice(3, 2, []float64{1, 10, 2, 20, 3, 30})
	dst := NewMatrix(1, 2)

	m.ColumnSumsInto(dst)

	assert.Equal(t, []float64{6, 60}, dst.data)

	assert.Panics(t, func() {
		m.ColumnSumsInto(NewMatrix(1, 3))
	})
}

func TestNewMatrixFromSlice_LengthChecked(t *testing.T) {
	assert.Panics(t, func() {
		NewMatrixFromSlice(2, 2, []float64{1, 2, 3})
	})
}

func TestRandomizeUniform_SeededAndInRange(t *testing.T) {
	a := NewMatrix(4, 3)
	b := NewMatrix(4, 3)
	a.RandomizeUniform(rand.New(rand.NewPCG(1, 0)))
	b.RandomizeUniform(rand.New(rand.NewPCG(1, 0)))

	assert.Equal(t, a.data, b.data, "same seed must produce the same draws")
	for _, v := range a.data {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.Less(t, v, 1.0)
	}
}

func TestFlatten(t *testing.T) {
	flat := Flatten([][]float64{
		{1, 2, 3},
		{4, 5, 6},
	})
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, flat)

	assert.Nil(t, Flatten(nil))
	assert.Nil(t, Flatten([][]float64{}))
}

func TestMatMulGo_MatchesGonum(t *testing.T) {
	rng := rand.New(rand.NewPCG(2, 0))
	a := NewMatrix(7, 5)
	b := NewMatrix(5, 9)
	a.RandomizeUniform(rng)
	b.RandomizeUniform(rng)

	outGo := NewMatrix(7, 9)
	outBlas := NewMatrix(7, 9)
	MatMulGo(a, b, outGo)
	MatMul(a.dense, b.dense, outBlas)

	for i := range outGo.data {
		assert.InDelta(t, outBlas.data[i], outGo.data[i], 1e-12)
	}
}
