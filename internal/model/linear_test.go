package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// linearData builds y = 3*x0 - 2*x1 + 5 over a small grid.
func linearData() (*mat.Dense, []float64) {
	var data []float64
	var y []float64
	for i := 0; i < 10; i++ {
		for j := 0; j < 10; j++ {
			x0, x1 := float64(i), float64(j)
			data = append(data, x0, x1)
			y = append(y, 3*x0-2*x1+5)
		}
	}
	return mat.NewDense(len(y), 2, data), y
}

func TestRidgeRecoversLinearRelation(t *testing.T) {
	X, y := linearData()

	r := NewRidge(1e-6)
	require.NoError(t, r.Fit(X, y))

	assert.InDelta(t, 3.0, r.Weights[0], 1e-3)
	assert.InDelta(t, -2.0, r.Weights[1], 1e-3)
	assert.InDelta(t, 5.0, r.Intercept, 1e-2)

	pred, err := r.Predict([]float64{4, 7})
	require.NoError(t, err)
	assert.InDelta(t, 3*4-2*7+5, pred, 1e-2)
}

func TestRidgeShrinksWeights(t *testing.T) {
	X, y := linearData()

	weak := NewRidge(1e-6)
	require.NoError(t, weak.Fit(X, y))
	strong := NewRidge(1e5)
	require.NoError(t, strong.Fit(X, y))

	assert.Less(t, strong.Weights[0], weak.Weights[0])
}

func TestLassoRecoversLinearRelation(t *testing.T) {
	X, y := linearData()

	l := NewLasso(1e-4)
	require.NoError(t, l.Fit(X, y))

	pred, err := l.Predict([]float64{4, 7})
	require.NoError(t, err)
	assert.InDelta(t, 3*4-2*7+5, pred, 0.1)
}

// Strong L1 regularization must drive an irrelevant feature's weight to
// exactly zero, not just near it.
func TestLassoSparsity(t *testing.T) {
	var data []float64
	var y []float64
	for i := 0; i < 50; i++ {
		x0 := float64(i)
		noise := float64(i%3) - 1
		data = append(data, x0, noise)
		y = append(y, 2*x0)
	}
	X := mat.NewDense(50, 2, data)

	l := NewLasso(5.0)
	require.NoError(t, l.Fit(X, y))
	assert.Equal(t, 0.0, l.Weights[1])
}

func TestLinearPredictErrors(t *testing.T) {
	r := NewRidge(1.0)
	_, err := r.Predict([]float64{1})
	assert.ErrorIs(t, err, errNotFitted)

	X, y := linearData()
	require.NoError(t, r.Fit(X, y))
	_, err = r.Predict([]float64{1, 2, 3})
	assert.Error(t, err)
}
