package feature

import (
	"math"
	"time"
)

// Rush-hour buckets: morning and evening commute.
var rushHours = map[int]bool{7: true, 8: true, 9: true, 17: true, 18: true, 19: true}

// TimeFeatures derives the calendar and cyclical features for a timestamp.
// day_of_week follows the 0=Monday..6=Sunday convention; season is the fixed
// Northern-Hemisphere mapping (0=Winter, 1=Spring, 2=Summer, 3=Fall).
func TimeFeatures(t time.Time) map[string]float64 {
	hour := t.Hour()
	month := int(t.Month())
	dow := (int(t.Weekday()) + 6) % 7 // Go weeks start on Sunday

	f := map[string]float64{
		"hour":         float64(hour),
		"day_of_week":  float64(dow),
		"day_of_month": float64(t.Day()),
		"month":        float64(month),
		"year":         float64(t.Year()),
		"is_weekend":   0,
		"is_rush_hour": 0,
		"season":       float64(Season(month)),
		"hour_sin":     math.Sin(2 * math.Pi * float64(hour) / 24),
		"hour_cos":     math.Cos(2 * math.Pi * float64(hour) / 24),
		"month_sin":    math.Sin(2 * math.Pi * float64(month) / 12),
		"month_cos":    math.Cos(2 * math.Pi * float64(month) / 12),
	}
	if dow >= 5 {
		f["is_weekend"] = 1
	}
	if rushHours[hour] {
		f["is_rush_hour"] = 1
	}
	return f
}

// Season maps a month to a season code: 0=Winter (Dec-Feb), 1=Spring
// (Mar-May), 2=Summer (Jun-Aug), 3=Fall (Sep-Nov).
func Season(month int) int {
	switch month {
	case 12, 1, 2:
		return 0
	case 3, 4, 5:
		return 1
	case 6, 7, 8:
		return 2
	default:
		return 3
	}
}
