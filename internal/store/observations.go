// Package store holds the process-wide collection of user-submitted weather
// observations. The store is append-only: records are never updated or
// deleted, and state is lost on restart by design.
package store

import (
	"sort"
	"sync"
	"time"

	"climagrid/internal/geo"
	"climagrid/internal/types"
)

// QueryFilter selects observations from the store. All set conditions are
// AND-ed together. Now is supplied by the caller so query results are
// deterministic under test.
type QueryFilter struct {
	// Center, when non-nil, restricts results to observations within
	// RadiusKm of it.
	Center *types.Coordinate
	// Metric, when non-nil, restricts results to a single metric.
	Metric *types.Metric
	// MaxAgeHours excludes observations older than Now minus this many hours.
	MaxAgeHours int
	// RadiusKm is the great-circle cutoff applied when Center is set.
	RadiusKm float64
	// Now anchors the age window.
	Now time.Time
}

// ObservationStore is a concurrency-safe, in-memory, append-only collection
// of observation records. A single mutex guards mutation; queries copy the
// matching records so callers never alias internal state.
type ObservationStore struct {
	mu      sync.RWMutex
	records []types.ObservationRecord
}

// NewObservationStore creates an empty store.
func NewObservationStore() *ObservationStore {
	return &ObservationStore{}
}

// Append adds a record in arrival order. It never rejects a well-formed
// record and never blocks beyond lock acquisition.
func (s *ObservationStore) Append(rec types.ObservationRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
}

// Len returns the number of stored records.
func (s *ObservationStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Query returns the records matching the filter, sorted ascending by
// observation timestamp. The sort is stable, so records sharing a timestamp
// keep their arrival order. Result size is unbounded beyond what the filter
// implies.
func (s *ObservationStore) Query(filter QueryFilter) []types.ObservationRecord {
	cutoff := filter.Now.Add(-time.Duration(filter.MaxAgeHours) * time.Hour)

	s.mu.RLock()
	matches := make([]types.ObservationRecord, 0)
	for _, rec := range s.records {
		if filter.Metric != nil && rec.Metric != *filter.Metric {
			continue
		}
		if rec.Timestamp.Before(cutoff) {
			continue
		}
		if filter.Center != nil && geo.DistanceKm(*filter.Center, rec.Coordinate()) > filter.RadiusKm {
			continue
		}
		matches = append(matches, rec)
	}
	s.mu.RUnlock()

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Timestamp.Before(matches[j].Timestamp)
	})

	return matches
}
