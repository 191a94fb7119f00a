// Package store persists staff records.
package store

import (
	"context"
	"strings"
	"sync"

	"origen/internal/staff/models"
	id "origen/pkg/domain"
	"origen/pkg/platform/sentinel"
)

// StaffStore is the persistence port for staff records.
type StaffStore interface {
	Create(ctx context.Context, staff *models.Staff) error
	FindByID(ctx context.Context, staffID id.StaffID) (*models.Staff, error)
	FindByEmail(ctx context.Context, email string) (*models.Staff, error)
	CountByTenant(ctx context.Context, tenantID id.TenantID) (int, error)
}

// InMemory keeps staff records in process memory for unit tests and local
// development.
type InMemory struct {
	mu      sync.RWMutex
	byID    map[id.StaffID]*models.Staff
	byEmail map[string]id.StaffID
}

func NewInMemory() *InMemory {
	return &InMemory{
		byID:    make(map[id.StaffID]*models.Staff),
		byEmail: make(map[string]id.StaffID),
	}
}

func (s *InMemory) Create(_ context.Context, staff *models.Staff) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	email := strings.ToLower(staff.Email)
	if _, exists := s.byEmail[email]; exists {
		return sentinel.ErrAlreadyUsed
	}
	clone := *staff
	s.byID[staff.ID] = &clone
	s.byEmail[email] = staff.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, staffID id.StaffID) (*models.Staff, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	staff, ok := s.byID[staffID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *staff
	return &clone, nil
}

func (s *InMemory) FindByEmail(_ context.Context, email string) (*models.Staff, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	staffID, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *s.byID[staffID]
	return &clone, nil
}

func (s *InMemory) CountByTenant(_ context.Context, tenantID id.TenantID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, staff := range s.byID {
		if staff.TenantID == tenantID {
			count++
		}
	}
	return count, nil
}
