package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqimet/aqipipe/internal/feature"
)

func aqiSeries(t *testing.T, n int) []feature.Record {
	t.Helper()
	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	out := make([]feature.Record, n)
	for i := 0; i < n; i++ {
		r := feature.NewRecord(base.Add(time.Duration(i)*time.Hour), "karachi")
		r.Set(feature.TargetColumn, float64(100+i))
		out[i] = r
	}
	return out
}

// A 30-row history with a 24-hour horizon leaves exactly 6 rows whose shifted
// target exists.
func TestBuildSupervisedTargetShift(t *testing.T) {
	ds, err := BuildSupervised(aqiSeries(t, 30), 24)
	require.NoError(t, err)

	rows, cols := ds.X.Dims()
	assert.Equal(t, 6, rows)
	assert.Equal(t, 1, cols)
	assert.Equal(t, []string{"aqi"}, ds.Columns)

	// y[t] = aqi[t+24]: row 0 has aqi=100 and target aqi[24]=124.
	assert.Equal(t, 100.0, ds.X.At(0, 0))
	assert.Equal(t, 124.0, ds.Y[0])
	assert.Equal(t, 105.0, ds.X.At(5, 0))
	assert.Equal(t, 129.0, ds.Y[5])
}

func TestBuildSupervisedDropsIncompleteRows(t *testing.T) {
	records := aqiSeries(t, 10)
	// One row carries an extra column; the nine rows lacking it are dropped.
	records[4].Set("pm25", 80)

	ds, err := BuildSupervised(records, 1)
	require.NoError(t, err)
	rows, _ := ds.X.Dims()
	assert.Equal(t, 1, rows)
	assert.Equal(t, 104.0, ds.X.At(0, 0))
}

func TestBuildSupervisedErrors(t *testing.T) {
	_, err := BuildSupervised(aqiSeries(t, 10), 0)
	assert.Error(t, err)

	// Horizon longer than the series leaves no samples.
	_, err = BuildSupervised(aqiSeries(t, 10), 24)
	assert.Error(t, err)
}

func TestSplitChronological(t *testing.T) {
	ds, err := BuildSupervised(aqiSeries(t, 34), 24)
	require.NoError(t, err)
	rows, _ := ds.X.Dims()
	require.Equal(t, 10, rows)

	trainX, testX, trainY, testY, err := ds.SplitChronological(0.2)
	require.NoError(t, err)

	trainRows, _ := trainX.Dims()
	testRows, _ := testX.Dims()
	assert.Equal(t, 8, trainRows)
	assert.Equal(t, 2, testRows)
	assert.Len(t, trainY, 8)
	assert.Len(t, testY, 2)

	// The test set is the trailing block: no future rows leak into training.
	assert.Equal(t, ds.Y[8], testY[0])
	assert.Equal(t, trainX.At(7, 0), ds.X.At(7, 0))
	assert.Equal(t, testX.At(0, 0), ds.X.At(8, 0))
}

func TestSplitChronologicalTooSmall(t *testing.T) {
	ds, err := BuildSupervised(aqiSeries(t, 26), 24)
	require.NoError(t, err)

	_, _, _, _, err = ds.SplitChronological(0.2)
	assert.Error(t, err)
}
