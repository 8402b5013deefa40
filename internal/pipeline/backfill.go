package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/aqimet/aqipipe/internal/feature"
	"github.com/aqimet/aqipipe/internal/store"
)

// samplesPerDay is the hourly collection cadence backfill assumes.
const samplesPerDay = 24

// Backfiller repeatedly samples the live API to build up initial history.
// Intended for one-time setup only; each sample is a fresh snapshot, so short
// delays produce near-duplicate readings.
type Backfiller struct {
	Source ObservationSource
	Store  store.FeatureStore
	Backup *store.Backup
	City   City

	// Delay between samples. Backfilling real hourly data means one hour;
	// tests and quick runs use shorter delays.
	Delay time.Duration
}

// Run collects days*24 samples, saving a progress CSV every 24 samples, then
// derives series features over the whole batch and uploads it. A failed
// sample is logged and skipped; cancellation uploads what was collected so
// far before returning the context error.
func (b *Backfiller) Run(ctx context.Context, days int) error {
	if days <= 0 {
		return fmt.Errorf("backfill days must be positive, got %d", days)
	}

	total := days * samplesPerDay
	log.Printf("INFO: backfilling %d days (%d collections, ~%s apart)", days, total, b.Delay)

	var collected []feature.Record
	var cancelled error

	for i := 0; i < total; i++ {
		log.Printf("INFO: collection %d/%d", i+1, total)

		obs, err := b.Source.FetchObservation(ctx, b.City.Name, b.City.Latitude, b.City.Longitude)
		if err != nil {
			log.Printf("WARN: collection %d failed: %v", i+1, err)
		} else {
			collected = append(collected, feature.Assemble(obs))
		}

		if (i+1)%samplesPerDay == 0 && len(collected) > 0 {
			path, err := b.Backup.Write(store.BackupPrefixBackfill, collected)
			if err != nil {
				return fmt.Errorf("save backfill progress: %w", err)
			}
			log.Printf("INFO: progress saved to %s (%d records)", path, len(collected))
		}

		if i == total-1 {
			break
		}
		select {
		case <-ctx.Done():
			cancelled = ctx.Err()
		case <-time.After(b.Delay):
		}
		if cancelled != nil {
			log.Printf("WARN: backfill interrupted; uploading %d collected records", len(collected))
			break
		}
	}

	if len(collected) == 0 {
		return fmt.Errorf("backfill collected no records")
	}

	engineered := feature.EngineerFeatures(collected, feature.TargetColumn)
	if err := b.Store.EnsureGroup(ctx); err != nil {
		return err
	}
	if err := b.Store.Insert(ctx, engineered); err != nil {
		return fmt.Errorf("upload backfill batch: %w", err)
	}
	log.Printf("INFO: backfill complete, uploaded %d records", len(engineered))

	return cancelled
}
