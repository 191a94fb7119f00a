package store

import (
	"context"
	"sort"
	"sync"

	"origen/internal/verification/models"
	id "origen/pkg/domain"
	"origen/pkg/platform/sentinel"
)

type verificationKey struct {
	personID id.PersonID
	field    models.Field
}

// InMemory mirrors the Postgres conditional upsert under one mutex.
type InMemory struct {
	mu      sync.RWMutex
	records map[verificationKey]*models.DataVerification
}

func NewInMemory() *InMemory {
	return &InMemory{records: make(map[verificationKey]*models.DataVerification)}
}

func (s *InMemory) Upsert(_ context.Context, record *models.DataVerification) (*models.DataVerification, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := verificationKey{personID: record.PersonID, field: record.Field}
	existing, ok := s.records[key]
	if ok && existing.IsLocked && !record.Method.IsOfficial() {
		clone := cloneRecord(existing)
		return &clone, false, nil
	}

	stored := cloneRecord(record)
	if ok {
		stored.ID = existing.ID
		stored.CreatedAt = existing.CreatedAt
	}
	s.records[key] = &stored
	clone := cloneRecord(&stored)
	return &clone, true, nil
}

func (s *InMemory) Find(_ context.Context, personID id.PersonID, field models.Field) (*models.DataVerification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[verificationKey{personID: personID, field: field}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := cloneRecord(record)
	return &clone, nil
}

func (s *InMemory) ListByPerson(_ context.Context, personID id.PersonID) ([]models.DataVerification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var records []models.DataVerification
	for key, record := range s.records {
		if key.personID == personID {
			records = append(records, cloneRecord(record))
		}
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Field < records[j].Field
	})
	return records, nil
}

func cloneRecord(record *models.DataVerification) models.DataVerification {
	clone := *record
	if record.Metadata != nil {
		clone.Metadata = make(map[string]string, len(record.Metadata))
		for k, v := range record.Metadata {
			clone.Metadata[k] = v
		}
	}
	return clone
}
