// Package service manages person, identification and account records.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"origen/internal/person/models"
	"origen/internal/person/store"
	id "origen/pkg/domain"
	dErrors "origen/pkg/domain-errors"
	"origen/pkg/platform/sentinel"
	"origen/pkg/requestcontext"
)

// Service manages applicant identity records.
type Service struct {
	persons  store.PersonStore
	idents   store.IdentificationStore
	accounts store.AccountStore
	logger   *slog.Logger
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func New(persons store.PersonStore, idents store.IdentificationStore, accounts store.AccountStore, opts ...Option) (*Service, error) {
	if persons == nil || idents == nil || accounts == nil {
		return nil, errors.New("person, identification and account stores are required")
	}
	s := &Service{persons: persons, idents: idents, accounts: accounts}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// CreatePersonInput carries the optional identity attributes beyond the
// required names.
type CreatePersonInput struct {
	FirstName string
	LastName1 string
	LastName2 string
	BirthDate string
	CURP      string
	RFC       string
	Email     string
	Phone     string
}

func (s *Service) CreatePerson(ctx context.Context, tenantID id.TenantID, input CreatePersonInput) (*models.Person, error) {
	now := requestcontext.Now(ctx)
	person, err := models.NewPerson(id.PersonID(uuid.New()), tenantID, input.FirstName, input.LastName1, now)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, dErrors.MessageOf(err))
		}
		return nil, err
	}
	person.LastName2 = strings.TrimSpace(input.LastName2)
	person.BirthDate = strings.TrimSpace(input.BirthDate)
	person.CURP = strings.ToUpper(strings.TrimSpace(input.CURP))
	person.RFC = strings.ToUpper(strings.TrimSpace(input.RFC))
	person.Email = strings.ToLower(strings.TrimSpace(input.Email))
	person.Phone = strings.TrimSpace(input.Phone)

	if err := s.persons.Create(ctx, person); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create person")
	}

	// Denormalized identifiers also become versioned identification records
	// so the verification cascade has something to mark.
	for identType, value := range map[models.IdentificationType]string{
		models.IdentificationCURP: person.CURP,
		models.IdentificationRFC:  person.RFC,
	} {
		if value == "" {
			continue
		}
		if err := s.appendIdentification(ctx, person.ID, identType, value); err != nil {
			return nil, err
		}
	}
	return person, nil
}

func (s *Service) GetPerson(ctx context.Context, personID id.PersonID) (*models.Person, error) {
	person, err := s.persons.FindByID(ctx, personID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "person not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load person")
	}
	return person, nil
}

// AddIdentification appends the next version of an identification record.
func (s *Service) AddIdentification(ctx context.Context, personID id.PersonID, identType models.IdentificationType, value string) (*models.Identification, error) {
	value = strings.ToUpper(strings.TrimSpace(value))
	if value == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "identification value is required")
	}
	if _, err := s.GetPerson(ctx, personID); err != nil {
		return nil, err
	}
	ident := &models.Identification{
		ID:        id.IdentificationID(uuid.New()),
		PersonID:  personID,
		Type:      identType,
		Value:     value,
		Status:    models.IdentificationPending,
		CreatedAt: requestcontext.Now(ctx),
	}
	if err := s.idents.Append(ctx, ident); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store identification")
	}
	return ident, nil
}

func (s *Service) appendIdentification(ctx context.Context, personID id.PersonID, identType models.IdentificationType, value string) error {
	ident := &models.Identification{
		ID:        id.IdentificationID(uuid.New()),
		PersonID:  personID,
		Type:      identType,
		Value:     value,
		Status:    models.IdentificationPending,
		CreatedAt: requestcontext.Now(ctx),
	}
	if err := s.idents.Append(ctx, ident); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store identification")
	}
	return nil
}

// CreateAccount registers an account, optionally linked to a person.
func (s *Service) CreateAccount(ctx context.Context, tenantID id.TenantID, personID *id.PersonID, email, phone string) (*models.Account, error) {
	if tenantID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "tenant id is required")
	}
	now := requestcontext.Now(ctx)
	account := &models.Account{
		ID:        id.AccountID(uuid.New()),
		TenantID:  tenantID,
		PersonID:  personID,
		Email:     strings.ToLower(strings.TrimSpace(email)),
		Phone:     strings.TrimSpace(phone),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create account")
	}
	return account, nil
}
