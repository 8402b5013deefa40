package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/aqimet/aqipipe/internal/feature"
	"github.com/aqimet/aqipipe/internal/registry"
)

// constModel always predicts the same value.
type constModel struct {
	value  float64
	scaled bool
}

func (m *constModel) Name() string                         { return "const" }
func (m *constModel) Fit(X *mat.Dense, y []float64) error  { return nil }
func (m *constModel) Predict(x []float64) (float64, error) { return m.value, nil }
func (m *constModel) NeedsScaling() bool                   { return m.scaled }

func TestBuildPredictionInput(t *testing.T) {
	r := feature.NewRecord(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), "karachi")
	r.Set("aqi", 125)
	r.Set("pm25", 80)
	r.Set("nh3", 5)
	r.Set("latitude", 24.86) // excluded, so never "extra"

	in := BuildPredictionInput(r, []string{"aqi", "pm25", "aqi_lag_1h"})

	assert.Equal(t, []float64{125, 80, 0}, in.Values)
	assert.Equal(t, ColumnPresent, in.States["aqi"])
	assert.Equal(t, ColumnMissing, in.States["aqi_lag_1h"])
	assert.Equal(t, []string{"aqi_lag_1h"}, in.MissingColumns)
	assert.Equal(t, []string{"nh3"}, in.ExtraColumns)
}

// A single observed record and a constant model still yield a full 72-hour
// horizon, one point per hour.
func TestForecastFullHorizon(t *testing.T) {
	latest := feature.NewRecord(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), "karachi")
	latest.Set("aqi", 125)

	f := Forecaster{Bundle: registry.Bundle{
		Model:          &constModel{value: 130},
		FeatureColumns: []string{"aqi"},
	}}

	from := time.Date(2026, 2, 2, 12, 0, 0, 0, time.UTC)
	points, in, err := f.Forecast(latest, from, 72)
	require.NoError(t, err)
	assert.Empty(t, in.MissingColumns)

	require.Len(t, points, 72)
	assert.Equal(t, 1, points[0].Hour)
	assert.Equal(t, from.Add(time.Hour), points[0].Timestamp)
	assert.Equal(t, 72, points[71].Hour)
	assert.Equal(t, from.Add(72*time.Hour), points[71].Timestamp)
	for _, p := range points {
		assert.Equal(t, 130.0, p.AQI)
	}
}

// Negative raw predictions are floored at zero.
func TestForecastFloorsAtZero(t *testing.T) {
	latest := feature.NewRecord(time.Now().UTC(), "karachi")
	latest.Set("aqi", 10)

	f := Forecaster{Bundle: registry.Bundle{
		Model:          &constModel{value: -40},
		FeatureColumns: []string{"aqi"},
	}}

	points, _, err := f.Forecast(latest, time.Now().UTC(), 12)
	require.NoError(t, err)
	for _, p := range points {
		assert.Equal(t, 0.0, p.AQI)
	}
}

func TestForecastInvalidHours(t *testing.T) {
	f := Forecaster{Bundle: registry.Bundle{
		Model:          &constModel{value: 1},
		FeatureColumns: []string{"aqi"},
	}}
	_, _, err := f.Forecast(feature.NewRecord(time.Now().UTC(), "karachi"), time.Now().UTC(), 0)
	assert.Error(t, err)
}

func TestAggregateDaily(t *testing.T) {
	base := time.Date(2026, 2, 1, 22, 0, 0, 0, time.UTC)
	points := []ForecastPoint{
		{Timestamp: base, Hour: 1, AQI: 100},
		{Timestamp: base.Add(time.Hour), Hour: 2, AQI: 120},
		{Timestamp: base.Add(2 * time.Hour), Hour: 3, AQI: 150}, // crosses midnight
		{Timestamp: base.Add(3 * time.Hour), Hour: 4, AQI: 130},
	}

	daily := AggregateDaily(points)
	require.Len(t, daily, 2)

	assert.Equal(t, "2026-02-01", daily[0].Date)
	assert.InDelta(t, 110.0, daily[0].Mean, 1e-9)
	assert.Equal(t, 100.0, daily[0].Min)
	assert.Equal(t, 120.0, daily[0].Max)

	assert.Equal(t, "2026-02-02", daily[1].Date)
	assert.InDelta(t, 140.0, daily[1].Mean, 1e-9)
}
