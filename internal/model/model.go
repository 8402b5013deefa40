// Package model provides the candidate regressors the training step fits,
// the input scaler shared by the linear family, and the evaluation metrics
// used for model selection.
package model

import (
	"encoding/json"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Canonical model names, matching the names recorded in artifact metadata.
const (
	NameRandomForest     = "Random Forest"
	NameGradientBoosting = "Gradient Boosting"
	NameRidge            = "Ridge Regression"
	NameLasso            = "Lasso Regression"
)

// Regressor is a trainable point-prediction model.
type Regressor interface {
	Name() string

	// Fit trains on a design matrix X (rows are samples) and target y.
	Fit(X *mat.Dense, y []float64) error

	// Predict returns the prediction for one feature vector.
	Predict(x []float64) (float64, error)

	// NeedsScaling reports whether the model expects scaled inputs
	// (linear family) or raw inputs (tree ensembles).
	NeedsScaling() bool
}

// Candidates returns fresh instances of every candidate model, keyed by name.
// Hyperparameters are fixed; there is no search.
func Candidates() map[string]func() Regressor {
	return map[string]func() Regressor{
		NameRandomForest:     func() Regressor { return NewRandomForest() },
		NameGradientBoosting: func() Regressor { return NewGradientBoosting() },
		NameRidge:            func() Regressor { return NewRidge(1.0) },
		NameLasso:            func() Regressor { return NewLasso(1.0) },
	}
}

// envelope is the serialized form of a trained regressor.
type envelope struct {
	Name   string          `json:"name"`
	Params json.RawMessage `json:"params"`
}

// Marshal serializes a trained regressor for the model registry.
func Marshal(r Regressor) ([]byte, error) {
	params, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal model params: %w", err)
	}
	return json.Marshal(envelope{Name: r.Name(), Params: params})
}

// Unmarshal restores a trained regressor from its serialized form.
func Unmarshal(data []byte) (Regressor, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshal model envelope: %w", err)
	}

	var r Regressor
	switch env.Name {
	case NameRandomForest:
		r = &RandomForest{}
	case NameGradientBoosting:
		r = &GradientBoosting{}
	case NameRidge:
		r = &Ridge{}
	case NameLasso:
		r = &Lasso{}
	default:
		return nil, fmt.Errorf("unknown model name %q", env.Name)
	}
	if err := json.Unmarshal(env.Params, r); err != nil {
		return nil, fmt.Errorf("unmarshal %s params: %w", env.Name, err)
	}
	return r, nil
}

// row extracts one sample from a design matrix.
func row(X *mat.Dense, i int) []float64 {
	_, cols := X.Dims()
	out := make([]float64, cols)
	mat.Row(out, i, X)
	return out
}
