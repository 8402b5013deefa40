package feature

import (
	"fmt"
	"sort"
	"time"

	"github.com/aqimet/aqipipe/internal/aqi"
)

// TargetColumn is the quantity the pipeline predicts and derives series
// features over.
const TargetColumn = "aqi"

// Observation is a single raw snapshot from the upstream provider. Pointer
// fields are nullable: a nil means the value was absent from the response.
type Observation struct {
	Timestamp time.Time
	City      string

	// AQIIndex is the provider's categorical 1-5 index; 0 means absent.
	AQIIndex int

	// Pollutant concentrations in ug/m3, except CO which is unit-normalized
	// to mg/m3 by the client.
	PM25 *float64
	PM10 *float64
	O3   *float64
	NO2  *float64
	SO2  *float64
	CO   *float64
	NO   *float64
	NH3  *float64

	Temperature *float64
	FeelsLike   *float64
	Humidity    *float64
	Pressure    *float64
	WindSpeed   *float64
	WindDeg     *float64
	Clouds      *float64

	Latitude  float64
	Longitude float64
}

// Assemble merges an observation's raw fields with the time encoder's output
// into one flat record. Series-derived columns are not part of the result;
// they are appended later by EngineerFeatures once historical context is
// available. A record without them is a legitimate partial state.
func Assemble(obs Observation) Record {
	r := NewRecord(obs.Timestamp, obs.City)

	r.Set(TargetColumn, aqi.ConvertOpenWeatherIndex(obs.AQIIndex))
	if obs.AQIIndex >= 1 && obs.AQIIndex <= 5 {
		r.Set("aqi_openweather", float64(obs.AQIIndex))
	}

	setIf := func(col string, v *float64) {
		if v != nil {
			r.Set(col, *v)
		}
	}
	setIf("pm25", obs.PM25)
	setIf("pm10", obs.PM10)
	setIf("o3", obs.O3)
	setIf("no2", obs.NO2)
	setIf("so2", obs.SO2)
	setIf("co", obs.CO)
	setIf("no", obs.NO)
	setIf("nh3", obs.NH3)
	setIf("temperature", obs.Temperature)
	setIf("feels_like", obs.FeelsLike)
	setIf("humidity", obs.Humidity)
	setIf("pressure", obs.Pressure)
	setIf("wind_speed", obs.WindSpeed)
	setIf("wind_deg", obs.WindDeg)
	setIf("clouds", obs.Clouds)

	r.Set("latitude", obs.Latitude)
	r.Set("longitude", obs.Longitude)

	for col, v := range TimeFeatures(obs.Timestamp) {
		r.Set(col, v)
	}
	return r
}

// excluded columns are never model input.
var excluded = map[string]bool{
	"timestamp": true,
	"city":      true,
	"target":    true,
	"latitude":  true,
	"longitude": true,
}

// Excluded reports whether a column is on the canonical exclusion list.
func Excluded(col string) bool {
	return excluded[col]
}

// baseOrder is the canonical ordering of raw and time columns.
var baseOrder = []string{
	"aqi", "aqi_openweather",
	"pm25", "pm10", "o3", "no2", "so2", "co", "no", "nh3",
	"temperature", "feels_like", "humidity", "pressure",
	"wind_speed", "wind_deg", "clouds",
	"latitude", "longitude",
	"hour", "day_of_week", "day_of_month", "month", "year",
	"is_weekend", "is_rush_hour", "season",
	"hour_sin", "hour_cos", "month_sin", "month_cos",
}

// derivedOrder returns the canonical ordering of series-derived columns for a
// target column, matching the order EngineerFeatures generates them in.
func derivedOrder(col string) []string {
	var out []string
	for _, lag := range DefaultLags {
		out = append(out, fmt.Sprintf("%s_lag_%dh", col, lag))
	}
	for _, w := range DefaultWindows {
		for _, s := range []string{"mean", "std", "min", "max"} {
			out = append(out, fmt.Sprintf("%s_rolling_%s_%dh", col, s, w))
		}
	}
	out = append(out,
		col+"_change", col+"_change_rate", col+"_change_3h", col+"_change_24h",
		"pm25_pm10_ratio", "temp_humidity_interaction",
	)
	return out
}

// Columns returns the union of columns present across records, in canonical
// order. Columns outside the canonical registry are appended sorted, so the
// result is deterministic for any input.
func Columns(records []Record) []string {
	present := make(map[string]bool)
	for _, r := range records {
		for col := range r.Fields {
			present[col] = true
		}
	}

	canonical := append(append([]string{}, baseOrder...), derivedOrder(TargetColumn)...)
	var out []string
	for _, col := range canonical {
		if present[col] {
			out = append(out, col)
			delete(present, col)
		}
	}

	var rest []string
	for col := range present {
		rest = append(rest, col)
	}
	sort.Strings(rest)
	return append(out, rest...)
}

// FeatureColumns returns the ordered model-input column set: every column
// present across the records except those on the exclusion list.
func FeatureColumns(records []Record) []string {
	var out []string
	for _, col := range Columns(records) {
		if !Excluded(col) {
			out = append(out, col)
		}
	}
	return out
}
