// Package dashboard assembles the read-side views the dashboard API serves:
// current conditions, model forecasts, and recent history.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aqimet/aqipipe/internal/aqi"
	"github.com/aqimet/aqipipe/internal/feature"
	"github.com/aqimet/aqipipe/internal/pipeline"
	"github.com/aqimet/aqipipe/internal/registry"
	"github.com/aqimet/aqipipe/internal/store"
)

// ErrUnavailable signals that the model or data needed for a view is absent.
// The API layer degrades to a clear error state instead of partial output.
var ErrUnavailable = errors.New("dashboard data unavailable")

// Service reads the latest record and the model artifact to build dashboard
// views. The registry handle is injected by the caller; nothing connects
// lazily on first use.
type Service struct {
	store    store.FeatureStore
	registry *registry.FilesystemRegistry
}

// NewService creates a dashboard Service.
func NewService(st store.FeatureStore, reg *registry.FilesystemRegistry) *Service {
	return &Service{store: st, registry: reg}
}

// CurrentStatus is the latest observed air quality.
type CurrentStatus struct {
	Timestamp   time.Time        `json:"timestamp"`
	AQI         float64          `json:"aqi"`
	Category    aqi.CategoryInfo `json:"category"`
	Alert       string           `json:"alert,omitempty"`
	PM25        *float64         `json:"pm25,omitempty"`
	Temperature *float64         `json:"temperature,omitempty"`
	Humidity    *float64         `json:"humidity,omitempty"`
}

// Current returns the latest record's status view.
func (s *Service) Current(ctx context.Context) (CurrentStatus, error) {
	latest, err := s.store.Latest(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return CurrentStatus{}, fmt.Errorf("%w: no observations ingested yet", ErrUnavailable)
		}
		return CurrentStatus{}, err
	}

	cur, _ := latest.Get(feature.TargetColumn)
	status := CurrentStatus{
		Timestamp: latest.Timestamp,
		AQI:       cur,
		Category:  aqi.Category(cur),
		Alert:     aqi.AlertLevel(cur),
	}
	opt := func(col string) *float64 {
		if v, ok := latest.Get(col); ok {
			return &v
		}
		return nil
	}
	status.PM25 = opt("pm25")
	status.Temperature = opt("temperature")
	status.Humidity = opt("humidity")
	return status, nil
}

// ForecastAlert describes the first forecasted threshold crossing.
type ForecastAlert struct {
	Level     string    `json:"level"`
	Timestamp time.Time `json:"timestamp"`
	AQI       float64   `json:"aqi"`
}

// ForecastView is the full forecast payload: hourly points, daily
// aggregates, summary statistics and degraded-mode reporting.
type ForecastView struct {
	GeneratedAt time.Time                 `json:"generatedAt"`
	ModelName   string                    `json:"modelName"`
	Horizon     int                       `json:"horizonHours"`
	TrainedAt   time.Time                 `json:"trainedAt"`
	Points      []pipeline.ForecastPoint  `json:"points"`
	Daily       []pipeline.DailyAggregate `json:"daily"`
	Alert       *ForecastAlert            `json:"alert,omitempty"`

	Avg24h float64 `json:"avg24h"`
	Peak   float64 `json:"peak"`
	Lowest float64 `json:"lowest"`

	// MissingColumns lists model-schema columns absent from the latest
	// record and zero-filled for prediction. Non-empty means degraded mode.
	MissingColumns []string `json:"missingColumns,omitempty"`
}

// Forecast loads the persisted bundle and latest record and produces an
// hours-long forward sequence.
func (s *Service) Forecast(ctx context.Context, hours int) (ForecastView, error) {
	bundle, err := s.registry.LoadLatest()
	if err != nil {
		if errors.Is(err, registry.ErrNoModel) {
			return ForecastView{}, fmt.Errorf("%w: no trained model; run the training step first", ErrUnavailable)
		}
		return ForecastView{}, err
	}

	latest, err := s.store.Latest(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ForecastView{}, fmt.Errorf("%w: no observations ingested yet", ErrUnavailable)
		}
		return ForecastView{}, err
	}

	now := time.Now().UTC()
	forecaster := pipeline.Forecaster{Bundle: bundle}
	points, input, err := forecaster.Forecast(latest, now, hours)
	if err != nil {
		return ForecastView{}, err
	}

	view := ForecastView{
		GeneratedAt:    now,
		ModelName:      bundle.Metadata.ModelName,
		Horizon:        bundle.Metadata.HorizonHours,
		TrainedAt:      bundle.Metadata.TrainedAt,
		Points:         points,
		Daily:          pipeline.AggregateDaily(points),
		MissingColumns: input.MissingColumns,
	}

	view.Peak = points[0].AQI
	view.Lowest = points[0].AQI
	var sum24 float64
	n24 := 0
	for _, p := range points {
		if p.AQI > view.Peak {
			view.Peak = p.AQI
		}
		if p.AQI < view.Lowest {
			view.Lowest = p.AQI
		}
		if p.Hour <= 24 {
			sum24 += p.AQI
			n24++
		}
	}
	if n24 > 0 {
		view.Avg24h = sum24 / float64(n24)
	}

	for _, p := range points {
		if level := aqi.AlertLevel(p.AQI); level != "" {
			view.Alert = &ForecastAlert{Level: level, Timestamp: p.Timestamp, AQI: p.AQI}
			break
		}
	}
	return view, nil
}

// HistoryPoint is one historical AQI observation.
type HistoryPoint struct {
	Timestamp time.Time `json:"timestamp"`
	AQI       float64   `json:"aqi"`
}

// History returns observed AQI for the trailing number of days (default
// dashboard view is 7).
func (s *Service) History(ctx context.Context, days int) ([]HistoryPoint, error) {
	since := time.Now().UTC().AddDate(0, 0, -days)
	records, err := s.store.ReadSince(ctx, since)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: insufficient historical data", ErrUnavailable)
		}
		return nil, err
	}

	out := make([]HistoryPoint, 0, len(records))
	for _, r := range records {
		if v, ok := r.Get(feature.TargetColumn); ok {
			out = append(out, HistoryPoint{Timestamp: r.Timestamp, AQI: v})
		}
	}
	return out, nil
}
