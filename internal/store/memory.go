package store

import (
	"context"
	"sync"
	"time"

	"github.com/aqimet/aqipipe/internal/feature"
)

// MemoryStore is a concurrency-safe in-memory FeatureStore. It backs tests
// and dry runs; the pipeline proper uses the SQLite store.
type MemoryStore struct {
	mu sync.RWMutex

	// key: UTC timestamp, value: record (upsert keep-last)
	rows map[time.Time]feature.Record
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[time.Time]feature.Record)}
}

func (s *MemoryStore) EnsureGroup(ctx context.Context) error { return nil }

func (s *MemoryStore) Insert(ctx context.Context, rows []feature.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range rows {
		s.rows[r.Timestamp.UTC()] = r.Clone()
	}
	return nil
}

func (s *MemoryStore) ReadAll(ctx context.Context) ([]feature.Record, error) {
	return s.ReadSince(ctx, time.Time{})
}

func (s *MemoryStore) ReadSince(ctx context.Context, since time.Time) ([]feature.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []feature.Record
	for ts, r := range s.rows {
		if ts.Before(since.UTC()) {
			continue
		}
		out = append(out, r.Clone())
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	feature.SortByTimestamp(out)
	return out, nil
}

func (s *MemoryStore) Latest(ctx context.Context) (feature.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest feature.Record
	found := false
	for _, r := range s.rows {
		if !found || r.Timestamp.After(latest.Timestamp) {
			latest = r
			found = true
		}
	}
	if !found {
		return feature.Record{}, ErrNotFound
	}
	return latest.Clone(), nil
}

func (s *MemoryStore) Delete(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = make(map[time.Time]feature.Record)
	return nil
}
