// Package memory provides an in-process RecordStore used for tests and
// single-node deployments (STORE_DRIVER=memory, the default).
package memory

import (
	"context"
	"sync"

	"github.com/IDEMSInternational/epicsa-climate-records/internal/domain"
)

// Compile-time contract assertion.
var _ domain.RecordStore = (*Store)(nil)

// Store keeps records in a slice so submission order is insertion order,
// with a UUID index for point reads.
type Store struct {
	mu      sync.RWMutex
	records []domain.ClimateRecord
	index   map[string]int
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{index: make(map[string]int)}
}

func (s *Store) Create(_ context.Context, rec domain.ClimateRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index[rec.UUID] = len(s.records)
	s.records = append(s.records, rec)
	return nil
}

func (s *Store) Get(_ context.Context, uuid string) (domain.ClimateRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[uuid]
	if !ok {
		return domain.ClimateRecord{}, false, nil
	}
	return s.records[i], true, nil
}

// Merge applies the patch in place. An unknown UUID is a silent no-op,
// matching the store contract.
func (s *Store) Merge(_ context.Context, uuid string, patch domain.RecordPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[uuid]
	if !ok {
		return nil
	}
	rec := &s.records[i]
	if patch.IsConfirmed != nil {
		rec.IsConfirmed = *patch.IsConfirmed
	}
	if patch.ConfirmationTimestamp != nil {
		ts := *patch.ConfirmationTimestamp
		rec.ConfirmationTimestamp = &ts
	}
	if patch.IsObsolete != nil {
		rec.IsObsolete = *patch.IsObsolete
	}
	if patch.ObsoletedBy != nil {
		rec.ObsoletedBy = *patch.ObsoletedBy
	}
	return nil
}

func (s *Store) Query(_ context.Context, filter domain.RecordFilter, tailLimit int) ([]domain.ClimateRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.ClimateRecord
	for _, rec := range s.records {
		if matches(rec, filter) {
			out = append(out, rec)
		}
	}
	if tailLimit > 0 && len(out) > tailLimit {
		out = out[len(out)-tailLimit:]
	}
	return out, nil
}

func (s *Store) Ping(_ context.Context) error { return nil }

func matches(rec domain.ClimateRecord, f domain.RecordFilter) bool {
	if f.ContactUUID != nil && rec.ContactUUID != *f.ContactUUID {
		return false
	}
	if f.Date != nil && rec.Date != *f.Date {
		return false
	}
	if f.MeasurementType != nil && rec.MeasurementType != *f.MeasurementType {
		return false
	}
	if f.LiveOnly && rec.IsObsolete {
		return false
	}
	return true
}
