package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestStandardScaler(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{
		1, 5,
		2, 5,
		3, 5,
		4, 5,
	})

	s := NewStandardScaler()
	scaled, err := s.FitTransform(X)
	require.NoError(t, err)

	assert.InDelta(t, 2.5, s.Means[0], 1e-9)
	// Zero-variance column: centered only, divisor forced to 1.
	assert.Equal(t, 1.0, s.Stds[1])
	for i := 0; i < 4; i++ {
		assert.Equal(t, 0.0, scaled.At(i, 1))
	}

	// Scaled first column has zero mean.
	var sum float64
	for i := 0; i < 4; i++ {
		sum += scaled.At(i, 0)
	}
	assert.InDelta(t, 0.0, sum, 1e-9)
}

func TestScalerTransformVector(t *testing.T) {
	X := mat.NewDense(3, 1, []float64{10, 20, 30})
	s := NewStandardScaler()
	s.Fit(X)

	out, err := s.TransformVector([]float64{20})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, out[0], 1e-9)

	_, err = s.TransformVector([]float64{1, 2})
	assert.Error(t, err)
}
