package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"origen/internal/application/models"
	id "origen/pkg/domain"
	"origen/pkg/platform/sentinel"
)

// InMemory keeps applications and history in process memory. It mirrors the
// Postgres store's transactional behavior: Execute holds the store mutex
// across validate+mutate, and a failed history append discards the mutation.
type InMemory struct {
	mu      sync.Mutex
	apps    map[id.ApplicationID]*models.Application
	history map[id.ApplicationID][]models.StatusHistoryEntry
	nextID  int64

	// historyErr, when set, fails the next history append inside Execute.
	// Test hook for exercising rollback behavior.
	historyErr error
}

func NewInMemory() *InMemory {
	return &InMemory{
		apps:    make(map[id.ApplicationID]*models.Application),
		history: make(map[id.ApplicationID][]models.StatusHistoryEntry),
		nextID:  1,
	}
}

// FailNextHistoryAppend makes the next Execute that produces a history entry
// fail after mutation, simulating a mid-transaction persistence fault.
func (s *InMemory) FailNextHistoryAppend(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.historyErr = err
}

func (s *InMemory) Create(_ context.Context, app *models.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.apps[app.ID]; exists {
		return sentinel.ErrAlreadyUsed
	}
	clone := *app
	s.apps[app.ID] = &clone
	return nil
}

func (s *InMemory) FindByID(_ context.Context, appID id.ApplicationID) (*models.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	app, ok := s.apps[appID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *app
	return &clone, nil
}

func (s *InMemory) FindByTenantAndID(_ context.Context, tenantID id.TenantID, appID id.ApplicationID) (*models.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	app, ok := s.apps[appID]
	if !ok || app.TenantID != tenantID {
		return nil, sentinel.ErrNotFound
	}
	clone := *app
	return &clone, nil
}

func (s *InMemory) Execute(_ context.Context, appID id.ApplicationID, fn TransitionFunc) (*models.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.apps[appID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}

	// Work on a copy so a failing callback or history append leaves the
	// stored record untouched (rollback semantics).
	working := *current
	entry, err := fn(&working)
	if err != nil {
		return nil, err
	}

	if entry != nil {
		if s.historyErr != nil {
			err := s.historyErr
			s.historyErr = nil
			return nil, err
		}
		entry.ID = s.nextID
		s.nextID++
		entry.ApplicationID = appID
		if entry.CreatedAt.IsZero() {
			entry.CreatedAt = time.Now()
		}
		s.history[appID] = append(s.history[appID], *entry)
	}

	s.apps[appID] = &working
	result := working
	return &result, nil
}

func (s *InMemory) ListHistory(_ context.Context, appID id.ApplicationID) ([]models.StatusHistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := s.history[appID]
	out := make([]models.StatusHistoryEntry, len(entries))
	copy(out, entries)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *InMemory) CountByTenant(_ context.Context, tenantID id.TenantID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, app := range s.apps {
		if app.TenantID == tenantID {
			count++
		}
	}
	return count, nil
}
