package store

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aqimet/aqipipe/internal/feature"
)

// Backup prefixes distinguish ingest-failure backups from backfill progress
// snapshots.
const (
	BackupPrefixIngest    = "backup"
	BackupPrefixBackfill  = "backfill_progress"
	BackupPrefixSynthetic = "synthetic_data"
)

// Backup writes and reads local timestamped CSV files. It is the last-resort
// persistence path when the feature store is unreachable, so Write keeps its
// own failure modes simple: create directory, create file, flush, report.
type Backup struct {
	dir string
}

// NewBackup creates a Backup rooted at dir.
func NewBackup(dir string) *Backup {
	return &Backup{dir: dir}
}

// Write saves records to `<dir>/<prefix>_<timestamp>.csv` and returns the
// file path. The header is timestamp, city, then the union of feature columns
// in canonical order; missing values are empty cells.
func (b *Backup) Write(prefix string, records []feature.Record) (string, error) {
	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}

	name := fmt.Sprintf("%s_%s.csv", prefix, time.Now().UTC().Format("20060102_150405"))
	path := filepath.Join(b.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create backup file: %w", err)
	}
	defer f.Close()

	cols := feature.Columns(records)
	w := csv.NewWriter(f)

	header := append([]string{"timestamp", "city"}, cols...)
	if err := w.Write(header); err != nil {
		return "", fmt.Errorf("write backup header: %w", err)
	}

	for _, r := range records {
		row := make([]string, 0, len(header))
		row = append(row, r.Timestamp.UTC().Format(time.RFC3339), r.City)
		for _, col := range cols {
			if v, ok := r.Get(col); ok {
				row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
			} else {
				row = append(row, "")
			}
		}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("write backup row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush backup file: %w", err)
	}
	return path, nil
}

// Latest returns the path of the newest backup file with the given prefix.
func (b *Backup) Latest(prefix string) (string, error) {
	entries, err := os.ReadDir(b.dir)
	if err != nil {
		return "", fmt.Errorf("read backup dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), prefix+"_") && strings.HasSuffix(e.Name(), ".csv") {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return "", fmt.Errorf("no %s files found in %s", prefix, b.dir)
	}
	sort.Strings(names)
	return filepath.Join(b.dir, names[len(names)-1]), nil
}

// Read loads a backup CSV back into feature records.
func (b *Backup) Read(path string) ([]feature.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open backup file: %w", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse backup file: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("backup file %s has no data rows", path)
	}

	header := rows[0]
	if len(header) < 2 || header[0] != "timestamp" || header[1] != "city" {
		return nil, fmt.Errorf("backup file %s has an unexpected header", path)
	}

	records := make([]feature.Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		ts, err := time.Parse(time.RFC3339, row[0])
		if err != nil {
			return nil, fmt.Errorf("parse backup timestamp %q: %w", row[0], err)
		}
		r := feature.NewRecord(ts.UTC(), row[1])
		for i := 2; i < len(row) && i < len(header); i++ {
			if row[i] == "" {
				continue
			}
			v, err := strconv.ParseFloat(row[i], 64)
			if err != nil {
				return nil, fmt.Errorf("parse backup value %q for %s: %w", row[i], header[i], err)
			}
			r.Set(header[i], v)
		}
		records = append(records, r)
	}
	return records, nil
}
