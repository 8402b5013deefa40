// Package collector provides the continuous-collection mode: a scheduler
// that re-runs the ingestion step at a fixed interval for a bounded duration.
// Each run is independent; a failed run is logged and the next attempt is
// simply the next tick.
package collector

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/aqimet/aqipipe/internal/pipeline"
)

// Collector periodically runs an ingestion step.
type Collector struct {
	scheduler *gocron.Scheduler
	ingestor  *pipeline.Ingestor
	interval  time.Duration

	runs     int
	failures int
}

// New creates a Collector running the ingestor every interval.
func New(ingestor *pipeline.Ingestor, interval time.Duration) *Collector {
	return &Collector{
		scheduler: gocron.NewScheduler(time.UTC),
		ingestor:  ingestor,
		interval:  interval,
	}
}

// Run collects for the given duration, executing the first run immediately,
// then stops the scheduler. The context bounds each individual ingestion; a
// cancelled context stops collection early. Data already persisted by earlier
// runs stays persisted.
func (c *Collector) Run(ctx context.Context, duration time.Duration) error {
	total := int(duration / c.interval)
	if total < 1 {
		total = 1
	}
	log.Printf("INFO: continuous collection: %d runs, every %s, for %s", total, c.interval, duration)

	// Ticks can still fire between reaching the run target and the scheduler
	// stopping, so the done signal must be idempotent.
	done := make(chan struct{})
	var finish sync.Once

	job, err := c.scheduler.Every(c.interval).StartImmediately().Do(func() {
		c.runs++
		log.Printf("INFO: collection %d/%d", c.runs, total)

		runCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		if err := c.ingestor.Run(runCtx); err != nil {
			c.failures++
			log.Printf("WARN: collection %d failed: %v", c.runs, err)
		}

		if c.runs >= total {
			finish.Do(func() { close(done) })
		}
	})
	if err != nil {
		return err
	}
	job.SingletonMode() // overlapping runs are not safe against each other

	c.scheduler.StartAsync()
	defer c.scheduler.Stop()

	select {
	case <-done:
	case <-ctx.Done():
		log.Printf("WARN: collection stopped early: %v", ctx.Err())
		return ctx.Err()
	}

	log.Printf("INFO: collection complete: %d runs, %d failures", c.runs, c.failures)
	return nil
}
