package store

import (
	"context"
	"sync"
	"time"

	"origen/internal/person/models"
	id "origen/pkg/domain"
	"origen/pkg/platform/sentinel"
)

// InMemoryPersons keeps person records in process memory.
type InMemoryPersons struct {
	mu      sync.RWMutex
	persons map[id.PersonID]*models.Person
}

func NewInMemoryPersons() *InMemoryPersons {
	return &InMemoryPersons{persons: make(map[id.PersonID]*models.Person)}
}

func (s *InMemoryPersons) Create(_ context.Context, person *models.Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.persons[person.ID]; exists {
		return sentinel.ErrAlreadyUsed
	}
	clone := *person
	s.persons[person.ID] = &clone
	return nil
}

func (s *InMemoryPersons) FindByID(_ context.Context, personID id.PersonID) (*models.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	person, ok := s.persons[personID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *person
	return &clone, nil
}

func (s *InMemoryPersons) MarkKYCVerified(_ context.Context, personID id.PersonID, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	person, ok := s.persons[personID]
	if !ok {
		return false, sentinel.ErrNotFound
	}
	if person.KYCStatus == models.KYCVerified {
		return false, nil
	}
	person.KYCStatus = models.KYCVerified
	person.KYCVerifiedAt = &at
	person.UpdatedAt = at
	return true, nil
}

func (s *InMemoryPersons) SetContactVerified(_ context.Context, personID id.PersonID, contact Contact, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	person, ok := s.persons[personID]
	if !ok {
		return sentinel.ErrNotFound
	}
	switch contact {
	case ContactPhone:
		person.PhoneVerifiedAt = &at
	case ContactEmail:
		person.EmailVerifiedAt = &at
	}
	person.UpdatedAt = at
	return nil
}

// InMemoryIdentifications keeps versioned identification records in memory.
type InMemoryIdentifications struct {
	mu       sync.RWMutex
	byPerson map[id.PersonID][]*models.Identification
	byID     map[id.IdentificationID]*models.Identification
}

func NewInMemoryIdentifications() *InMemoryIdentifications {
	return &InMemoryIdentifications{
		byPerson: make(map[id.PersonID][]*models.Identification),
		byID:     make(map[id.IdentificationID]*models.Identification),
	}
}

func (s *InMemoryIdentifications) Append(_ context.Context, ident *models.Identification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	version := 0
	for _, existing := range s.byPerson[ident.PersonID] {
		if existing.Type == ident.Type && existing.Version > version {
			version = existing.Version
		}
	}
	ident.Version = version + 1
	clone := *ident
	s.byPerson[ident.PersonID] = append(s.byPerson[ident.PersonID], &clone)
	s.byID[ident.ID] = &clone
	return nil
}

func (s *InMemoryIdentifications) FindCurrentByType(_ context.Context, personID id.PersonID, identType models.IdentificationType) (*models.Identification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var current *models.Identification
	for _, ident := range s.byPerson[personID] {
		if ident.Type != identType {
			continue
		}
		if current == nil || ident.Version > current.Version {
			current = ident
		}
	}
	if current == nil {
		return nil, sentinel.ErrNotFound
	}
	clone := *current
	return &clone, nil
}

func (s *InMemoryIdentifications) MarkVerified(_ context.Context, identID id.IdentificationID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ident, ok := s.byID[identID]
	if !ok {
		return sentinel.ErrNotFound
	}
	ident.Status = models.IdentificationVerified
	ident.VerifiedAt = &at
	return nil
}

// InMemoryAccounts keeps account records in memory.
type InMemoryAccounts struct {
	mu       sync.RWMutex
	accounts map[id.AccountID]*models.Account
}

func NewInMemoryAccounts() *InMemoryAccounts {
	return &InMemoryAccounts{accounts: make(map[id.AccountID]*models.Account)}
}

func (s *InMemoryAccounts) Create(_ context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[account.ID]; exists {
		return sentinel.ErrAlreadyUsed
	}
	clone := *account
	s.accounts[account.ID] = &clone
	return nil
}

func (s *InMemoryAccounts) FindByID(_ context.Context, accountID id.AccountID) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[accountID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *account
	return &clone, nil
}

func (s *InMemoryAccounts) SetContactVerified(_ context.Context, accountID id.AccountID, contact Contact, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[accountID]
	if !ok {
		return sentinel.ErrNotFound
	}
	switch contact {
	case ContactPhone:
		account.PhoneVerifiedAt = &at
	case ContactEmail:
		account.EmailVerifiedAt = &at
	}
	account.UpdatedAt = at
	return nil
}
