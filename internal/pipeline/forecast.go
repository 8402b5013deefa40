package pipeline

import (
	"fmt"
	"sort"
	"time"

	"github.com/aqimet/aqipipe/internal/feature"
	"github.com/aqimet/aqipipe/internal/registry"
)

// ColumnState classifies one schema column against the current record.
type ColumnState int

const (
	// ColumnPresent: the record carries a value for the column.
	ColumnPresent ColumnState = iota
	// ColumnMissing: the column is in the model schema but absent from the
	// record; its value is zero-filled and the gap is reported.
	ColumnMissing
)

// PredictionInput is the explicit, inspectable model input built from the
// latest record and the persisted feature-column list. The zero-fill for
// missing columns is a visible default policy, not a silent side effect.
type PredictionInput struct {
	Values []float64
	States map[string]ColumnState

	// MissingColumns lists schema columns absent from the record, in schema
	// order. Non-empty means the prediction runs in degraded mode.
	MissingColumns []string

	// ExtraColumns lists record columns outside the model schema. They are
	// ignored at prediction time.
	ExtraColumns []string
}

// BuildPredictionInput aligns a record with the ordered feature-column list.
func BuildPredictionInput(r feature.Record, columns []string) PredictionInput {
	in := PredictionInput{
		Values: make([]float64, len(columns)),
		States: make(map[string]ColumnState, len(columns)),
	}

	schema := make(map[string]bool, len(columns))
	for i, col := range columns {
		schema[col] = true
		if v, ok := r.Get(col); ok {
			in.Values[i] = v
			in.States[col] = ColumnPresent
		} else {
			in.Values[i] = 0
			in.States[col] = ColumnMissing
			in.MissingColumns = append(in.MissingColumns, col)
		}
	}

	for col := range r.Fields {
		if !schema[col] && !feature.Excluded(col) {
			in.ExtraColumns = append(in.ExtraColumns, col)
		}
	}
	sort.Strings(in.ExtraColumns)
	return in
}

// ForecastPoint is one predicted hourly value.
type ForecastPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Hour      int       `json:"hour"`
	AQI       float64   `json:"aqi"`
}

// Forecaster produces forward AQI sequences from a persisted bundle.
type Forecaster struct {
	Bundle registry.Bundle
}

// Forecast produces n sequential hourly predictions starting one hour after
// `from`.
//
// The same feature vector (the latest observed record) is fed to the model at
// every step; lag and rolling features are not recomputed as if each
// prediction were a new observation. Models sensitive to time-of-day or lag
// inputs therefore tend to repeat a similar value across the horizon; the
// dashboard surfaces this as a known limitation.
//
// Predictions are floored at zero. The returned PredictionInput exposes any
// schema columns that had to be zero-filled so callers can surface the
// degraded mode.
func (f *Forecaster) Forecast(latest feature.Record, from time.Time, n int) ([]ForecastPoint, PredictionInput, error) {
	if n <= 0 {
		return nil, PredictionInput{}, fmt.Errorf("forecast hours must be positive, got %d", n)
	}

	in := BuildPredictionInput(latest, f.Bundle.FeatureColumns)

	vec := in.Values
	if f.Bundle.Model.NeedsScaling() {
		scaled, err := f.Bundle.Scaler.TransformVector(vec)
		if err != nil {
			return nil, in, fmt.Errorf("scale prediction input: %w", err)
		}
		vec = scaled
	}

	points := make([]ForecastPoint, 0, n)
	for h := 1; h <= n; h++ {
		pred, err := f.Bundle.Model.Predict(vec)
		if err != nil {
			return nil, in, fmt.Errorf("predict hour %d: %w", h, err)
		}
		if pred < 0 {
			pred = 0
		}
		points = append(points, ForecastPoint{
			Timestamp: from.Add(time.Duration(h) * time.Hour).UTC(),
			Hour:      h,
			AQI:       pred,
		})
	}
	return points, in, nil
}

// DailyAggregate summarizes forecast points falling on one calendar date.
type DailyAggregate struct {
	Date string  `json:"date"`
	Mean float64 `json:"mean"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

// AggregateDaily buckets forecast points by UTC date and reports mean/min/max
// per day, ordered by date.
func AggregateDaily(points []ForecastPoint) []DailyAggregate {
	type acc struct {
		sum, min, max float64
		n             int
	}
	byDate := make(map[string]*acc)
	for _, p := range points {
		k := p.Timestamp.UTC().Format("2006-01-02")
		a, ok := byDate[k]
		if !ok {
			a = &acc{min: p.AQI, max: p.AQI}
			byDate[k] = a
		}
		a.sum += p.AQI
		a.n++
		if p.AQI < a.min {
			a.min = p.AQI
		}
		if p.AQI > a.max {
			a.max = p.AQI
		}
	}

	dates := make([]string, 0, len(byDate))
	for k := range byDate {
		dates = append(dates, k)
	}
	sort.Strings(dates)

	out := make([]DailyAggregate, 0, len(dates))
	for _, k := range dates {
		a := byDate[k]
		out = append(out, DailyAggregate{
			Date: k,
			Mean: a.sum / float64(a.n),
			Min:  a.min,
			Max:  a.max,
		})
	}
	return out
}
