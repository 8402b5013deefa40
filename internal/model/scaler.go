package model

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// StandardScaler centers each column to zero mean and unit variance. Columns
// with zero variance pass through centered only.
type StandardScaler struct {
	Means []float64 `json:"means"`
	Stds  []float64 `json:"stds"`
}

// NewStandardScaler creates an unfitted scaler.
func NewStandardScaler() *StandardScaler {
	return &StandardScaler{}
}

// Fit learns per-column means and standard deviations.
func (s *StandardScaler) Fit(X *mat.Dense) {
	rows, cols := X.Dims()
	s.Means = make([]float64, cols)
	s.Stds = make([]float64, cols)

	col := make([]float64, rows)
	for j := 0; j < cols; j++ {
		mat.Col(col, j, X)
		mean, std := stat.MeanStdDev(col, nil)
		s.Means[j] = mean
		if std > 0 {
			s.Stds[j] = std
		} else {
			s.Stds[j] = 1
		}
	}
}

// Transform returns a scaled copy of X.
func (s *StandardScaler) Transform(X *mat.Dense) (*mat.Dense, error) {
	rows, cols := X.Dims()
	if cols != len(s.Means) {
		return nil, fmt.Errorf("scaler fitted on %d columns, got %d", len(s.Means), cols)
	}

	out := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out.Set(i, j, (X.At(i, j)-s.Means[j])/s.Stds[j])
		}
	}
	return out, nil
}

// FitTransform fits the scaler and returns the scaled matrix.
func (s *StandardScaler) FitTransform(X *mat.Dense) (*mat.Dense, error) {
	s.Fit(X)
	return s.Transform(X)
}

// TransformVector scales a single feature vector.
func (s *StandardScaler) TransformVector(x []float64) ([]float64, error) {
	if len(x) != len(s.Means) {
		return nil, fmt.Errorf("scaler fitted on %d columns, got %d", len(s.Means), len(x))
	}
	out := make([]float64, len(x))
	for j := range x {
		out[j] = (x[j] - s.Means[j]) / s.Stds[j]
	}
	return out, nil
}
