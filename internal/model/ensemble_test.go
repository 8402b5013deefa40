package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// stepData builds a step function: y=10 for x<50, y=100 for x>=50. Any tree
// of depth >= 1 separates the two regimes exactly.
func stepData() (*mat.Dense, []float64) {
	var data []float64
	var y []float64
	for i := 0; i < 100; i++ {
		data = append(data, float64(i))
		if i < 50 {
			y = append(y, 10)
		} else {
			y = append(y, 100)
		}
	}
	return mat.NewDense(100, 1, data), y
}

func TestRandomForestStepFunction(t *testing.T) {
	X, y := stepData()

	f := NewRandomForest()
	require.NoError(t, f.Fit(X, y))

	low, err := f.Predict([]float64{10})
	require.NoError(t, err)
	assert.InDelta(t, 10, low, 5)

	high, err := f.Predict([]float64{90})
	require.NoError(t, err)
	assert.InDelta(t, 100, high, 5)
}

// The fixed seed makes retraining on identical data reproduce identical
// predictions.
func TestRandomForestDeterministic(t *testing.T) {
	X, y := stepData()

	a := NewRandomForest()
	require.NoError(t, a.Fit(X, y))
	b := NewRandomForest()
	require.NoError(t, b.Fit(X, y))

	for _, x := range []float64{5, 42, 49.5, 77} {
		pa, err := a.Predict([]float64{x})
		require.NoError(t, err)
		pb, err := b.Predict([]float64{x})
		require.NoError(t, err)
		assert.Equal(t, pa, pb, "x=%v", x)
	}
}

func TestGradientBoostingStepFunction(t *testing.T) {
	X, y := stepData()

	g := NewGradientBoosting()
	require.NoError(t, g.Fit(X, y))

	low, err := g.Predict([]float64{10})
	require.NoError(t, err)
	assert.InDelta(t, 10, low, 2)

	high, err := g.Predict([]float64{90})
	require.NoError(t, err)
	assert.InDelta(t, 100, high, 2)
}

func TestEnsemblesConstantTarget(t *testing.T) {
	X := mat.NewDense(10, 1, []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9})
	y := []float64{42, 42, 42, 42, 42, 42, 42, 42, 42, 42}

	for _, newModel := range Candidates() {
		m := newModel()
		if m.NeedsScaling() {
			continue
		}
		require.NoError(t, m.Fit(X, y))
		pred, err := m.Predict([]float64{3})
		require.NoError(t, err)
		assert.InDelta(t, 42, pred, 1e-6, m.Name())
	}
}

func TestPredictBeforeFit(t *testing.T) {
	_, err := NewRandomForest().Predict([]float64{1})
	assert.ErrorIs(t, err, errNotFitted)
	_, err = NewGradientBoosting().Predict([]float64{1})
	assert.ErrorIs(t, err, errNotFitted)
}
