// Package pipeline wires the ingestion, training and forecasting steps
// together. Steps receive their collaborators (API client, feature store,
// model registry, backup writer) explicitly; nothing connects lazily or
// shares state across invocations.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/aqimet/aqipipe/internal/feature"
	"github.com/aqimet/aqipipe/internal/store"
)

// ObservationSource fetches one raw snapshot for a coordinate.
type ObservationSource interface {
	FetchObservation(ctx context.Context, city string, lat, lon float64) (feature.Observation, error)
}

// City identifies the tracked location.
type City struct {
	Name      string
	Latitude  float64
	Longitude float64
}

// Ingestor runs the ingestion step: fetch one observation, assemble its
// feature record, re-derive series features over the combined history, and
// persist the latest row.
type Ingestor struct {
	Source ObservationSource
	Store  store.FeatureStore
	Backup *store.Backup
	City   City
}

// Run executes a single ingestion. A failed fetch abandons the step; a failed
// store write falls back to a local CSV backup so the observation is not
// lost. Errors are returned for the caller to report; there is no retry here.
func (in *Ingestor) Run(ctx context.Context) error {
	log.Printf("INFO: fetching data for %s", in.City.Name)

	obs, err := in.Source.FetchObservation(ctx, in.City.Name, in.City.Latitude, in.City.Longitude)
	if err != nil {
		return fmt.Errorf("fetch observation: %w", err)
	}

	record := feature.Assemble(obs)
	aqiVal, _ := record.Get(feature.TargetColumn)
	log.Printf("INFO: assembled record at %s (aqi=%.0f)", record.Timestamp.Format("2006-01-02 15:04:05"), aqiVal)

	if err := in.Store.EnsureGroup(ctx); err != nil {
		return err
	}

	// Re-derive series features over the combined history. With no prior
	// rows the new record simply lacks series columns, which is a legitimate
	// partial state.
	upload := record
	history, err := in.Store.ReadAll(ctx)
	switch {
	case errors.Is(err, store.ErrNotFound):
		log.Printf("INFO: no historical data yet; uploading basic features only")
	case err != nil:
		log.Printf("WARN: could not fetch historical data (%v); uploading basic features only", err)
	default:
		combined := append(history, record)
		feature.SortByTimestamp(combined)
		combined = feature.DedupeKeepLast(combined)
		combined = feature.EngineerFeatures(combined, feature.TargetColumn)
		upload = combined[len(combined)-1]
	}

	if err := in.Store.Insert(ctx, []feature.Record{upload}); err != nil {
		path, backupErr := in.Backup.Write(store.BackupPrefixIngest, []feature.Record{upload})
		if backupErr != nil {
			// The backup path must never fail silently.
			return errors.Join(
				fmt.Errorf("upload to feature store: %w", err),
				fmt.Errorf("write local backup: %w", backupErr),
			)
		}
		log.Printf("WARN: feature store upload failed (%v); saved backup to %s", err, path)
		return nil
	}

	log.Printf("INFO: uploaded 1 row to feature store")
	return nil
}
