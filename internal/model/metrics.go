package model

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// RMSE returns the root-mean-squared error between truth and predictions.
func RMSE(y, pred []float64) float64 {
	var sum float64
	for i := range y {
		d := y[i] - pred[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(y)))
}

// MAE returns the mean absolute error.
func MAE(y, pred []float64) float64 {
	var sum float64
	for i := range y {
		sum += math.Abs(y[i] - pred[i])
	}
	return sum / float64(len(y))
}

// R2 returns the coefficient of determination.
func R2(y, pred []float64) float64 {
	mean := stat.Mean(y, nil)
	var ssRes, ssTot float64
	for i := range y {
		ssRes += (y[i] - pred[i]) * (y[i] - pred[i])
		ssTot += (y[i] - mean) * (y[i] - mean)
	}
	if ssTot == 0 {
		return 0
	}
	return 1 - ssRes/ssTot
}

// PredictAll runs the model over every row of X.
func PredictAll(r Regressor, X *mat.Dense) ([]float64, error) {
	rows, _ := X.Dims()
	out := make([]float64, rows)
	for i := 0; i < rows; i++ {
		p, err := r.Predict(row(X, i))
		if err != nil {
			return nil, fmt.Errorf("predict row %d: %w", i, err)
		}
		out[i] = p
	}
	return out, nil
}

// CrossValRMSE computes k-fold cross-validated RMSE on contiguous folds,
// fitting a fresh model per fold. The result is informational only and does
// not drive model selection.
func CrossValRMSE(newModel func() Regressor, X *mat.Dense, y []float64, k int) (float64, error) {
	rows, cols := X.Dims()
	if k < 2 || rows < k {
		return 0, fmt.Errorf("cross-validation needs at least %d samples, got %d", k, rows)
	}

	var sumRMSE float64
	for fold := 0; fold < k; fold++ {
		lo := fold * rows / k
		hi := (fold + 1) * rows / k

		trainRows := rows - (hi - lo)
		trainX := mat.NewDense(trainRows, cols, nil)
		trainY := make([]float64, 0, trainRows)
		ri := 0
		for i := 0; i < rows; i++ {
			if i >= lo && i < hi {
				continue
			}
			trainX.SetRow(ri, row(X, i))
			trainY = append(trainY, y[i])
			ri++
		}

		m := newModel()
		if err := m.Fit(trainX, trainY); err != nil {
			return 0, fmt.Errorf("cross-validation fold %d: %w", fold, err)
		}

		holdY := y[lo:hi]
		preds := make([]float64, 0, hi-lo)
		for i := lo; i < hi; i++ {
			p, err := m.Predict(row(X, i))
			if err != nil {
				return 0, fmt.Errorf("cross-validation fold %d: %w", fold, err)
			}
			preds = append(preds, p)
		}
		sumRMSE += RMSE(holdY, preds)
	}
	return sumRMSE / float64(k), nil
}

// OverfitRatio is the advisory threshold: a model whose train RMSE falls
// below this fraction of its test RMSE is flagged as likely overfitting.
const OverfitRatio = 0.7

// LikelyOverfit reports the advisory overfitting diagnostic.
func LikelyOverfit(trainRMSE, testRMSE float64) bool {
	return trainRMSE < OverfitRatio*testRMSE
}
