package store

import (
	"context"
	"errors"
	"time"

	"github.com/aqimet/aqipipe/internal/feature"
)

var (
	// ErrNotFound is returned when the feature group holds no rows.
	ErrNotFound = errors.New("no feature data available")
)

// Default identity of the pipeline's feature group.
const (
	DefaultGroupName = "aqi_features"
	DefaultVersion   = 1
)

// FeatureStore is a named, versioned collection of feature records keyed by
// timestamp. The ingestion and training steps are its only writers/readers.
// Insert semantics are upsert: a duplicate timestamp keeps the most recently
// written record.
type FeatureStore interface {
	// EnsureGroup creates the feature group if it does not exist.
	EnsureGroup(ctx context.Context) error

	// Insert upserts rows into the group.
	Insert(ctx context.Context, rows []feature.Record) error

	// ReadAll returns the full group contents sorted ascending by timestamp.
	ReadAll(ctx context.Context) ([]feature.Record, error)

	// ReadSince returns rows at or after the given instant, sorted ascending.
	ReadSince(ctx context.Context, since time.Time) ([]feature.Record, error)

	// Latest returns the most recent row, or ErrNotFound.
	Latest(ctx context.Context) (feature.Record, error)

	// Delete drops the group and all its rows.
	Delete(ctx context.Context) error
}
