package collector

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqimet/aqipipe/internal/feature"
	"github.com/aqimet/aqipipe/internal/pipeline"
	"github.com/aqimet/aqipipe/internal/store"
)

// countingSource fails every other fetch so the run log shows both outcomes.
type countingSource struct {
	calls atomic.Int64
}

func (c *countingSource) FetchObservation(ctx context.Context, city string, lat, lon float64) (feature.Observation, error) {
	n := c.calls.Add(1)
	if n%2 == 0 {
		return feature.Observation{}, errors.New("upstream hiccup")
	}
	return feature.Observation{
		Timestamp: time.Now().UTC().Add(time.Duration(n) * time.Second),
		City:      city,
		AQIIndex:  2,
		Latitude:  lat,
		Longitude: lon,
	}, nil
}

func TestCollectorRunsToCompletion(t *testing.T) {
	src := &countingSource{}
	st := store.NewMemoryStore()
	ing := &pipeline.Ingestor{
		Source: src,
		Store:  st,
		Backup: store.NewBackup(t.TempDir()),
		City:   pipeline.City{Name: "karachi", Latitude: 24.8607, Longitude: 67.0011},
	}

	c := New(ing, 50*time.Millisecond)
	require.NoError(t, c.Run(context.Background(), 200*time.Millisecond))

	// 200ms / 50ms = 4 runs; every other one fails and collection continues.
	assert.GreaterOrEqual(t, src.calls.Load(), int64(4))

	rows, err := st.ReadAll(context.Background())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(rows), 2)
}

// With an interval far shorter than a run, ticks keep landing after the run
// target is reached and before the scheduler stops; the completion signal
// must tolerate firing more than once.
func TestCollectorTicksPastCompletion(t *testing.T) {
	src := &countingSource{}
	ing := &pipeline.Ingestor{
		Source: src,
		Store:  store.NewMemoryStore(),
		Backup: store.NewBackup(t.TempDir()),
		City:   pipeline.City{Name: "karachi"},
	}

	for i := 0; i < 20; i++ {
		c := New(ing, time.Millisecond)
		require.NoError(t, c.Run(context.Background(), 3*time.Millisecond))
	}
	assert.GreaterOrEqual(t, src.calls.Load(), int64(60))
}

func TestCollectorStopsOnCancel(t *testing.T) {
	src := &countingSource{}
	ing := &pipeline.Ingestor{
		Source: src,
		Store:  store.NewMemoryStore(),
		Backup: store.NewBackup(t.TempDir()),
		City:   pipeline.City{Name: "karachi"},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := New(ing, time.Hour)
	err := c.Run(ctx, 24*time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
}
