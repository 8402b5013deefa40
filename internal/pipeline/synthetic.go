package pipeline

import (
	"context"
	"fmt"
	"log"
	"math"
	"math/rand"
	"time"

	"github.com/aqimet/aqipipe/internal/feature"
	"github.com/aqimet/aqipipe/internal/store"
)

// syntheticSeed fixes the generator so repeated seeding on the same day
// produces the same series.
const syntheticSeed = 42

// Synthesizer seeds the feature store with a plausible hourly AQI history:
// a daily and a monthly sine cycle around a base level, gaussian noise,
// clamping, and correlated pollutant and weather readings. It exists so the
// training and serving steps can be exercised without an API key or a long
// collection run.
type Synthesizer struct {
	Store  store.FeatureStore
	Backup *store.Backup
	City   City

	// Seed overrides the fixed generator seed when non-zero.
	Seed int64
}

// Run generates days*24 hourly records ending at the current hour, saves the
// raw series to a local CSV, derives the series features and uploads the
// batch.
func (s *Synthesizer) Run(ctx context.Context, days int) error {
	if days <= 0 {
		return fmt.Errorf("synthetic days must be positive, got %d", days)
	}

	seed := s.Seed
	if seed == 0 {
		seed = syntheticSeed
	}
	rng := rand.New(rand.NewSource(seed))

	total := days * samplesPerDay
	start := time.Now().UTC().Truncate(time.Hour).Add(-time.Duration(total-1) * time.Hour)
	log.Printf("INFO: generating %d synthetic records (%d days, hourly)", total, days)

	records := make([]feature.Record, total)
	minAQI, maxAQI := math.Inf(1), math.Inf(-1)
	var sumAQI float64
	for i := 0; i < total; i++ {
		ts := start.Add(time.Duration(i) * time.Hour)
		records[i] = s.synthesize(rng, ts)

		v, _ := records[i].Get(feature.TargetColumn)
		minAQI = math.Min(minAQI, v)
		maxAQI = math.Max(maxAQI, v)
		sumAQI += v
	}
	log.Printf("INFO: synthetic aqi range %.1f - %.1f, mean %.1f", minAQI, maxAQI, sumAQI/float64(total))

	if s.Backup != nil {
		path, err := s.Backup.Write(store.BackupPrefixSynthetic, records)
		if err != nil {
			return fmt.Errorf("save synthetic series: %w", err)
		}
		log.Printf("INFO: saved raw series to %s", path)
	}

	engineered := feature.EngineerFeatures(records, feature.TargetColumn)
	if err := s.Store.EnsureGroup(ctx); err != nil {
		return err
	}
	if err := s.Store.Insert(ctx, engineered); err != nil {
		return fmt.Errorf("upload synthetic batch: %w", err)
	}
	log.Printf("INFO: uploaded %d synthetic records", len(engineered))
	return nil
}

// synthesize builds one hourly record. The AQI follows
// base + daily cycle + monthly cycle + noise, clamped to [10, 300], and is
// re-encoded onto the provider's 1-5 scale; pollutants correlate with it.
func (s *Synthesizer) synthesize(rng *rand.Rand, ts time.Time) feature.Record {
	hourCycle := 20 * math.Sin(2*math.Pi*float64(ts.Hour())/24)
	dayCycle := 15 * math.Sin(2*math.Pi*float64(ts.Day())/30)
	aqi := clamp(100+hourCycle+dayCycle+rng.NormFloat64()*10, 10, 300)

	r := feature.NewRecord(ts, s.City.Name)
	r.Set(feature.TargetColumn, aqi)
	r.Set("aqi_openweather", float64(openWeatherIndex(aqi)))

	pm25 := math.Max(0, aqi*0.4+rng.NormFloat64()*5)
	pm10 := math.Max(0, pm25*2+rng.NormFloat64()*10)
	r.Set("pm25", pm25)
	r.Set("pm10", pm10)
	r.Set("o3", uniform(rng, 20, 100))
	r.Set("no2", uniform(rng, 10, 80))
	r.Set("so2", uniform(rng, 5, 50))
	// CO in mg/m3, matching the unit the live client stores.
	r.Set("co", uniform(rng, 0.2, 0.8))
	r.Set("no", uniform(rng, 5, 30))
	r.Set("nh3", uniform(rng, 1, 20))

	temp := 25 + 5*math.Sin(2*math.Pi*float64(ts.Hour())/24) + rng.NormFloat64()*2
	r.Set("temperature", temp)
	r.Set("feels_like", temp+uniform(rng, -2, 2))
	r.Set("humidity", clamp(50+20*math.Sin(2*math.Pi*float64(ts.Hour()+6)/24)+rng.NormFloat64()*5, 0, 100))
	r.Set("pressure", 1013+uniform(rng, -10, 10))
	r.Set("wind_speed", math.Abs(3+rng.NormFloat64()*2))
	r.Set("wind_deg", uniform(rng, 0, 360))
	r.Set("clouds", uniform(rng, 0, 100))

	r.Set("latitude", s.City.Latitude)
	r.Set("longitude", s.City.Longitude)

	for col, v := range feature.TimeFeatures(ts) {
		r.Set(col, v)
	}
	return r
}

// openWeatherIndex re-encodes an EPA-scale value onto the provider's 1-5
// categorical index.
func openWeatherIndex(aqi float64) int {
	switch {
	case aqi <= 50:
		return 1
	case aqi <= 100:
		return 2
	case aqi <= 150:
		return 3
	case aqi <= 200:
		return 4
	default:
		return 5
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}
