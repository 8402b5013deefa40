package model

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

var errNotFitted = errors.New("model is not fitted")

// Ridge is L2-regularized linear regression solved in closed form via the
// normal equations, with an unpenalized intercept.
type Ridge struct {
	Alpha     float64   `json:"alpha"`
	Weights   []float64 `json:"weights"`
	Intercept float64   `json:"intercept"`
}

// NewRidge creates a Ridge model with the given regularization strength.
func NewRidge(alpha float64) *Ridge {
	return &Ridge{Alpha: alpha}
}

func (r *Ridge) Name() string       { return NameRidge }
func (r *Ridge) NeedsScaling() bool { return true }

func (r *Ridge) Fit(X *mat.Dense, y []float64) error {
	rows, cols := X.Dims()
	if rows != len(y) {
		return fmt.Errorf("ridge: %d samples but %d targets", rows, len(y))
	}

	// Center columns and target so the intercept stays unpenalized.
	xMeans := make([]float64, cols)
	col := make([]float64, rows)
	Xc := mat.NewDense(rows, cols, nil)
	for j := 0; j < cols; j++ {
		mat.Col(col, j, X)
		xMeans[j] = stat.Mean(col, nil)
		for i := 0; i < rows; i++ {
			Xc.Set(i, j, X.At(i, j)-xMeans[j])
		}
	}
	yMean := stat.Mean(y, nil)
	yc := mat.NewVecDense(rows, nil)
	for i, v := range y {
		yc.SetVec(i, v-yMean)
	}

	// Solve (Xc'Xc + alpha*I) w = Xc'y.
	var gram mat.Dense
	gram.Mul(Xc.T(), Xc)
	for j := 0; j < cols; j++ {
		gram.Set(j, j, gram.At(j, j)+r.Alpha)
	}
	var xty mat.VecDense
	xty.MulVec(Xc.T(), yc)

	w := mat.NewVecDense(cols, nil)
	if err := w.SolveVec(&gram, &xty); err != nil {
		return fmt.Errorf("ridge: solve normal equations: %w", err)
	}

	r.Weights = make([]float64, cols)
	for j := 0; j < cols; j++ {
		r.Weights[j] = w.AtVec(j)
	}
	r.Intercept = yMean - floats.Dot(r.Weights, xMeans)
	return nil
}

func (r *Ridge) Predict(x []float64) (float64, error) {
	if r.Weights == nil {
		return 0, errNotFitted
	}
	if len(x) != len(r.Weights) {
		return 0, fmt.Errorf("ridge: fitted on %d features, got %d", len(r.Weights), len(x))
	}
	return r.Intercept + floats.Dot(r.Weights, x), nil
}

// Lasso is L1-regularized linear regression fitted by cyclic coordinate
// descent on centered data.
type Lasso struct {
	Alpha     float64   `json:"alpha"`
	MaxIter   int       `json:"maxIter"`
	Tol       float64   `json:"tol"`
	Weights   []float64 `json:"weights"`
	Intercept float64   `json:"intercept"`
}

// NewLasso creates a Lasso model with the given regularization strength.
func NewLasso(alpha float64) *Lasso {
	return &Lasso{Alpha: alpha, MaxIter: 1000, Tol: 1e-4}
}

func (l *Lasso) Name() string       { return NameLasso }
func (l *Lasso) NeedsScaling() bool { return true }

func (l *Lasso) Fit(X *mat.Dense, y []float64) error {
	rows, cols := X.Dims()
	if rows != len(y) {
		return fmt.Errorf("lasso: %d samples but %d targets", rows, len(y))
	}

	xMeans := make([]float64, cols)
	colBuf := make([]float64, rows)
	Xc := mat.NewDense(rows, cols, nil)
	colNormSq := make([]float64, cols)
	for j := 0; j < cols; j++ {
		mat.Col(colBuf, j, X)
		xMeans[j] = stat.Mean(colBuf, nil)
		for i := 0; i < rows; i++ {
			v := X.At(i, j) - xMeans[j]
			Xc.Set(i, j, v)
			colNormSq[j] += v * v
		}
	}
	yMean := stat.Mean(y, nil)

	w := make([]float64, cols)
	residual := make([]float64, rows)
	for i := range residual {
		residual[i] = y[i] - yMean
	}

	// The same scaling of the penalty as scikit-learn: alpha * n_samples.
	threshold := l.Alpha * float64(rows)

	for iter := 0; iter < l.MaxIter; iter++ {
		maxDelta := 0.0
		for j := 0; j < cols; j++ {
			if colNormSq[j] == 0 {
				continue
			}

			// rho = Xc_j . (residual + w_j * Xc_j)
			rho := 0.0
			for i := 0; i < rows; i++ {
				rho += Xc.At(i, j) * (residual[i] + w[j]*Xc.At(i, j))
			}

			newW := softThreshold(rho, threshold) / colNormSq[j]
			if delta := newW - w[j]; delta != 0 {
				for i := 0; i < rows; i++ {
					residual[i] -= delta * Xc.At(i, j)
				}
				if math.Abs(delta) > maxDelta {
					maxDelta = math.Abs(delta)
				}
				w[j] = newW
			}
		}
		if maxDelta < l.Tol {
			break
		}
	}

	l.Weights = w
	l.Intercept = yMean - floats.Dot(w, xMeans)
	return nil
}

func (l *Lasso) Predict(x []float64) (float64, error) {
	if l.Weights == nil {
		return 0, errNotFitted
	}
	if len(x) != len(l.Weights) {
		return 0, fmt.Errorf("lasso: fitted on %d features, got %d", len(l.Weights), len(x))
	}
	return l.Intercept + floats.Dot(l.Weights, x), nil
}

func softThreshold(v, t float64) float64 {
	switch {
	case v > t:
		return v - t
	case v < -t:
		return v + t
	default:
		return 0
	}
}
