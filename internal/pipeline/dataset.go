package pipeline

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/aqimet/aqipipe/internal/feature"
)

// Dataset is a supervised (X, y) pair plus the exact ordered feature-column
// list that X was built with.
type Dataset struct {
	X       *mat.Dense
	Y       []float64
	Columns []string
}

// BuildSupervised frames the history as a supervised problem for a forecast
// horizon of H hours: y[t] = aqi[t+H] in sort order. The final H rows (whose
// shifted target is undefined) and any row with a missing feature value are
// dropped.
func BuildSupervised(records []feature.Record, horizon int) (*Dataset, error) {
	if horizon <= 0 {
		return nil, fmt.Errorf("horizon must be positive, got %d", horizon)
	}

	rows := make([]feature.Record, len(records))
	copy(rows, records)
	feature.SortByTimestamp(rows)
	rows = feature.DedupeKeepLast(rows)

	cols := feature.FeatureColumns(rows)
	if len(cols) == 0 {
		return nil, fmt.Errorf("no feature columns available")
	}

	var data []float64
	var y []float64
	for i := 0; i+horizon < len(rows); i++ {
		target, ok := rows[i+horizon].Get(feature.TargetColumn)
		if !ok {
			continue
		}

		vec := make([]float64, 0, len(cols))
		complete := true
		for _, col := range cols {
			v, ok := rows[i].Get(col)
			if !ok {
				complete = false
				break
			}
			vec = append(vec, v)
		}
		if !complete {
			continue
		}

		data = append(data, vec...)
		y = append(y, target)
	}

	if len(y) == 0 {
		return nil, fmt.Errorf("no complete samples for horizon %dh", horizon)
	}
	return &Dataset{
		X:       mat.NewDense(len(y), len(cols), data),
		Y:       y,
		Columns: cols,
	}, nil
}

// SplitChronological holds out the trailing fraction of rows as the test set,
// preserving timestamp order so no future rows leak into training.
func (d *Dataset) SplitChronological(testFraction float64) (trainX *mat.Dense, testX *mat.Dense, trainY, testY []float64, err error) {
	rows, cols := d.X.Dims()
	split := rows - int(float64(rows)*testFraction)
	if split <= 0 || split >= rows {
		return nil, nil, nil, nil, fmt.Errorf("cannot split %d samples with test fraction %.2f", rows, testFraction)
	}

	trainX = mat.NewDense(split, cols, nil)
	testX = mat.NewDense(rows-split, cols, nil)
	rowBuf := make([]float64, cols)
	for i := 0; i < rows; i++ {
		mat.Row(rowBuf, i, d.X)
		if i < split {
			trainX.SetRow(i, rowBuf)
		} else {
			testX.SetRow(i-split, rowBuf)
		}
	}
	return trainX, testX, d.Y[:split], d.Y[split:], nil
}
