package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/aqimet/aqipipe/internal/feature"
	"github.com/aqimet/aqipipe/internal/model"
	"github.com/aqimet/aqipipe/internal/registry"
	"github.com/aqimet/aqipipe/internal/store"
)

// trainedRegistry saves a bundle whose ridge model reproduces its single
// input column, so the forecast tracks the latest aqi value.
func trainedRegistry(t *testing.T) *registry.FilesystemRegistry {
	t.Helper()

	X := mat.NewDense(4, 1, []float64{100, 150, 200, 250})
	y := []float64{100, 150, 200, 250}

	scaler := model.NewStandardScaler()
	scaled, err := scaler.FitTransform(X)
	require.NoError(t, err)

	r := model.NewRidge(1e-9)
	require.NoError(t, r.Fit(scaled, y))

	reg := registry.NewFilesystemRegistry(t.TempDir(), registry.DefaultModelName)
	_, err = reg.Save(registry.Bundle{
		Model:          r,
		Scaler:         scaler,
		FeatureColumns: []string{"aqi"},
		Metadata: registry.Metadata{
			ModelName:    model.NameRidge,
			HorizonHours: 24,
			TrainedAt:    time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		},
	})
	require.NoError(t, err)
	return reg
}

func TestForecastView(t *testing.T) {
	st := store.NewMemoryStore()
	latest := feature.NewRecord(time.Now().UTC(), "karachi")
	latest.Set("aqi", 220)
	require.NoError(t, st.Insert(context.Background(), []feature.Record{latest}))

	svc := NewService(st, trainedRegistry(t))
	view, err := svc.Forecast(context.Background(), 48)
	require.NoError(t, err)

	assert.Equal(t, model.NameRidge, view.ModelName)
	assert.Equal(t, 24, view.Horizon)
	require.Len(t, view.Points, 48)
	assert.Empty(t, view.MissingColumns)

	// The static feature vector makes the model repeat the same prediction.
	first := view.Points[0].AQI
	assert.InDelta(t, 220, first, 1)
	for _, p := range view.Points {
		assert.Equal(t, first, p.AQI)
	}

	assert.InDelta(t, first, view.Avg24h, 1e-9)
	assert.Equal(t, first, view.Peak)
	assert.Equal(t, first, view.Lowest)
	assert.NotEmpty(t, view.Daily)

	// 220 crosses the hazardous threshold at the very first point.
	require.NotNil(t, view.Alert)
	assert.Equal(t, "hazardous", view.Alert.Level)
	assert.Equal(t, view.Points[0].Timestamp, view.Alert.Timestamp)
}

// A record missing model-schema columns still produces a forecast, but the
// gap is reported.
func TestForecastReportsMissingColumns(t *testing.T) {
	st := store.NewMemoryStore()
	latest := feature.NewRecord(time.Now().UTC(), "karachi")
	latest.Set("pm25", 80) // no aqi column
	require.NoError(t, st.Insert(context.Background(), []feature.Record{latest}))

	svc := NewService(st, trainedRegistry(t))
	view, err := svc.Forecast(context.Background(), 24)
	require.NoError(t, err)
	assert.Equal(t, []string{"aqi"}, view.MissingColumns)
}

func TestForecastUnavailableStates(t *testing.T) {
	// No model trained.
	svc := NewService(store.NewMemoryStore(), registry.NewFilesystemRegistry(t.TempDir(), registry.DefaultModelName))
	_, err := svc.Forecast(context.Background(), 24)
	assert.ErrorIs(t, err, ErrUnavailable)

	// Model trained but no data ingested.
	svc = NewService(store.NewMemoryStore(), trainedRegistry(t))
	_, err = svc.Forecast(context.Background(), 24)
	assert.ErrorIs(t, err, ErrUnavailable)
}
