package feature

import (
	"sort"
	"time"
)

// Record is one flat feature row keyed by timestamp. A column that is absent
// from Fields is a missing value; nothing is ever stored as NaN.
type Record struct {
	Timestamp time.Time          `json:"timestamp"`
	City      string             `json:"city"`
	Fields    map[string]float64 `json:"fields"`
}

// NewRecord creates an empty record for a timestamp and city.
func NewRecord(ts time.Time, city string) Record {
	return Record{Timestamp: ts, City: city, Fields: make(map[string]float64)}
}

// Get returns a column value and whether it is present.
func (r Record) Get(col string) (float64, bool) {
	v, ok := r.Fields[col]
	return v, ok
}

// Set stores a column value.
func (r Record) Set(col string, v float64) {
	r.Fields[col] = v
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	out := Record{Timestamp: r.Timestamp, City: r.City, Fields: make(map[string]float64, len(r.Fields))}
	for k, v := range r.Fields {
		out.Fields[k] = v
	}
	return out
}

// SortByTimestamp sorts records ascending by timestamp in place. Sorting is
// stable so that, among duplicate timestamps, later-written rows stay last.
func SortByTimestamp(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp.Before(records[j].Timestamp)
	})
}

// DedupeKeepLast removes duplicate timestamps from a sorted slice, keeping the
// most recently appended record for each timestamp.
func DedupeKeepLast(records []Record) []Record {
	if len(records) == 0 {
		return records
	}
	out := make([]Record, 0, len(records))
	for i, r := range records {
		if i+1 < len(records) && records[i+1].Timestamp.Equal(r.Timestamp) {
			continue
		}
		out = append(out, r)
	}
	return out
}
