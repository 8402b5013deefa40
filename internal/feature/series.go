package feature

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// Default lag and window sets, in hours.
var (
	DefaultLags    = []int{1, 3, 6, 12, 24}
	DefaultWindows = []int{3, 6, 12, 24}
)

// LagFeatures appends `{col}_lag_{L}h` columns to a chronologically ordered
// series. The input is re-sorted ascending by timestamp before computing;
// callers must not rely on the previous order being preserved.
func LagFeatures(records []Record, col string, lags []int) []Record {
	out := sortedCopy(records)
	for _, lag := range lags {
		name := fmt.Sprintf("%s_lag_%dh", col, lag)
		for i := range out {
			if i < lag {
				continue
			}
			if v, ok := out[i-lag].Get(col); ok {
				out[i].Set(name, v)
			}
		}
	}
	return out
}

// RollingFeatures appends rolling mean/std/min/max columns for each window
// size, computed over a trailing window of up to W rows including the current
// row. A single available row still yields mean/min/max (min_periods one);
// the standard deviation needs at least two samples and is left missing
// otherwise.
func RollingFeatures(records []Record, col string, windows []int) []Record {
	out := sortedCopy(records)
	for _, w := range windows {
		meanCol := fmt.Sprintf("%s_rolling_mean_%dh", col, w)
		stdCol := fmt.Sprintf("%s_rolling_std_%dh", col, w)
		minCol := fmt.Sprintf("%s_rolling_min_%dh", col, w)
		maxCol := fmt.Sprintf("%s_rolling_max_%dh", col, w)

		for i := range out {
			start := i - w + 1
			if start < 0 {
				start = 0
			}
			var vals []float64
			for j := start; j <= i; j++ {
				if v, ok := out[j].Get(col); ok {
					vals = append(vals, v)
				}
			}
			if len(vals) == 0 {
				continue
			}
			mean, std := stat.MeanStdDev(vals, nil)
			out[i].Set(meanCol, mean)
			if len(vals) >= 2 {
				out[i].Set(stdCol, std)
			}
			mn, mx := vals[0], vals[0]
			for _, v := range vals[1:] {
				if v < mn {
					mn = v
				}
				if v > mx {
					mx = v
				}
			}
			out[i].Set(minCol, mn)
			out[i].Set(maxCol, mx)
		}
	}
	return out
}

// ChangeFeatures appends first-difference and rate-of-change columns:
// `{col}_change` (diff from previous row), `{col}_change_rate` (fractional
// change, missing when the previous value is zero or absent),
// `{col}_change_3h` and `{col}_change_24h` (differences 3 and 24 rows back).
func ChangeFeatures(records []Record, col string) []Record {
	out := sortedCopy(records)

	diff := func(name string, steps int) {
		for i := steps; i < len(out); i++ {
			cur, okCur := out[i].Get(col)
			prev, okPrev := out[i-steps].Get(col)
			if okCur && okPrev {
				out[i].Set(name, cur-prev)
			}
		}
	}

	diff(col+"_change", 1)
	diff(col+"_change_3h", 3)
	diff(col+"_change_24h", 24)

	rateCol := col + "_change_rate"
	for i := 1; i < len(out); i++ {
		cur, okCur := out[i].Get(col)
		prev, okPrev := out[i-1].Get(col)
		if okCur && okPrev && prev != 0 {
			out[i].Set(rateCol, (cur-prev)/prev)
		}
	}
	return out
}

// interactionFeatures appends same-row derived columns: the PM2.5/PM10 ratio
// and the temperature-humidity product, when their inputs are present.
func interactionFeatures(records []Record) []Record {
	for i := range records {
		r := records[i]
		if pm25, ok := r.Get("pm25"); ok {
			if pm10, ok := r.Get("pm10"); ok {
				r.Set("pm25_pm10_ratio", pm25/(pm10+1e-6))
			}
		}
		if temp, ok := r.Get("temperature"); ok {
			if hum, ok := r.Get("humidity"); ok {
				r.Set("temp_humidity_interaction", temp*hum)
			}
		}
	}
	return records
}

// EngineerFeatures runs the full series-derivation chain over a combined
// history: lags, rolling statistics, change rates and same-row interactions,
// all computed over the target column after re-sorting by timestamp.
func EngineerFeatures(records []Record, col string) []Record {
	out := LagFeatures(records, col, DefaultLags)
	out = RollingFeatures(out, col, DefaultWindows)
	out = ChangeFeatures(out, col)
	return interactionFeatures(out)
}

func sortedCopy(records []Record) []Record {
	out := make([]Record, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	SortByTimestamp(out)
	return out
}
