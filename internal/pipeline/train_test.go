package pipeline

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqimet/aqipipe/internal/feature"
	"github.com/aqimet/aqipipe/internal/registry"
	"github.com/aqimet/aqipipe/internal/store"
)

// seedHistory fills the store with n hourly records carrying a daily AQI
// cycle plus the full engineered feature set.
func seedHistory(t *testing.T, st store.FeatureStore, n int) {
	t.Helper()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	records := make([]feature.Record, n)
	for i := 0; i < n; i++ {
		ts := base.Add(time.Duration(i) * time.Hour)
		r := feature.NewRecord(ts, "karachi")
		aqiVal := 150 + 50*math.Sin(2*math.Pi*float64(i)/24)
		r.Set(feature.TargetColumn, aqiVal)
		r.Set("pm25", aqiVal*0.6)
		r.Set("pm10", aqiVal*1.1)
		r.Set("temperature", 25+5*math.Sin(2*math.Pi*float64(i)/24))
		r.Set("humidity", 60)
		for col, v := range feature.TimeFeatures(ts) {
			r.Set(col, v)
		}
		records[i] = r
	}
	engineered := feature.EngineerFeatures(records, feature.TargetColumn)
	require.NoError(t, st.Insert(context.Background(), engineered))
}

func TestTrainerInsufficientData(t *testing.T) {
	st := store.NewMemoryStore()
	trainer := Trainer{Store: st, Registry: registry.NewFilesystemRegistry(t.TempDir(), registry.DefaultModelName)}

	_, err := trainer.Run(context.Background(), 24)
	assert.ErrorIs(t, err, ErrInsufficientData)

	seedHistory(t, st, 50)
	_, err = trainer.Run(context.Background(), 24)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestTrainerRun(t *testing.T) {
	if testing.Short() {
		t.Skip("full candidate training is slow")
	}

	st := store.NewMemoryStore()
	reg := registry.NewFilesystemRegistry(t.TempDir(), registry.DefaultModelName)
	seedHistory(t, st, 200)

	trainer := Trainer{Store: st, Registry: reg}
	report, err := trainer.Run(context.Background(), 24)
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 24, report.Horizon)
	require.Len(t, report.Results, 4)
	assert.Equal(t, 1, report.Version)

	// The winner carries the lowest held-out RMSE.
	lowest := math.Inf(1)
	var bestRMSE float64
	for _, res := range report.Results {
		lowest = math.Min(lowest, res.TestRMSE)
		if res.Name == report.BestName {
			bestRMSE = res.TestRMSE
		}
	}
	assert.Equal(t, lowest, bestRMSE)

	// The persisted bundle serves predictions immediately.
	bundle, err := reg.LoadLatest()
	require.NoError(t, err)
	assert.Equal(t, report.BestName, bundle.Metadata.ModelName)
	assert.Equal(t, 24, bundle.Metadata.HorizonHours)
	assert.NotEmpty(t, bundle.FeatureColumns)

	latest, err := st.Latest(context.Background())
	require.NoError(t, err)
	points, _, err := (&Forecaster{Bundle: bundle}).Forecast(latest, time.Now().UTC(), 24)
	require.NoError(t, err)
	assert.Len(t, points, 24)
	for _, p := range points {
		assert.GreaterOrEqual(t, p.AQI, 0.0)
	}
}
