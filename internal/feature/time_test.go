package feature

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimeFeaturesCyclicalIdentity(t *testing.T) {
	for hour := 0; hour < 24; hour++ {
		ts := time.Date(2026, 7, 15, hour, 0, 0, 0, time.UTC)
		f := TimeFeatures(ts)
		assert.InDelta(t, 1.0, f["hour_sin"]*f["hour_sin"]+f["hour_cos"]*f["hour_cos"], 1e-9, "hour %d", hour)
		assert.InDelta(t, 1.0, f["month_sin"]*f["month_sin"]+f["month_cos"]*f["month_cos"], 1e-9)
	}
}

func TestTimeFeaturesCalendar(t *testing.T) {
	// 2026-03-07 is a Saturday.
	f := TimeFeatures(time.Date(2026, 3, 7, 8, 0, 0, 0, time.UTC))
	assert.Equal(t, 8.0, f["hour"])
	assert.Equal(t, 5.0, f["day_of_week"]) // Monday=0, so Saturday=5
	assert.Equal(t, 7.0, f["day_of_month"])
	assert.Equal(t, 3.0, f["month"])
	assert.Equal(t, 2026.0, f["year"])
	assert.Equal(t, 1.0, f["is_weekend"])
	assert.Equal(t, 1.0, f["is_rush_hour"])
	assert.Equal(t, 1.0, f["season"]) // March is Spring

	// 2026-03-09 is a Monday; 13:00 is outside both commute windows.
	f = TimeFeatures(time.Date(2026, 3, 9, 13, 0, 0, 0, time.UTC))
	assert.Equal(t, 0.0, f["day_of_week"])
	assert.Equal(t, 0.0, f["is_weekend"])
	assert.Equal(t, 0.0, f["is_rush_hour"])
}

func TestRushHourBuckets(t *testing.T) {
	rush := map[int]bool{7: true, 8: true, 9: true, 17: true, 18: true, 19: true}
	for hour := 0; hour < 24; hour++ {
		f := TimeFeatures(time.Date(2026, 1, 5, hour, 0, 0, 0, time.UTC))
		want := 0.0
		if rush[hour] {
			want = 1.0
		}
		assert.Equal(t, want, f["is_rush_hour"], "hour %d", hour)
	}
}

func TestSeason(t *testing.T) {
	cases := map[int]int{
		12: 0, 1: 0, 2: 0, // Winter
		3: 1, 4: 1, 5: 1, // Spring
		6: 2, 7: 2, 8: 2, // Summer
		9: 3, 10: 3, 11: 3, // Fall
	}
	for month, want := range cases {
		assert.Equal(t, want, Season(month), "month %d", month)
	}
}
