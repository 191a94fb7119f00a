// Package store persists person, identification and account records.
package store

import (
	"context"
	"time"

	"origen/internal/person/models"
	id "origen/pkg/domain"
)

// Contact names the coarse verified-at stamps on persons and accounts.
type Contact string

const (
	ContactPhone Contact = "phone"
	ContactEmail Contact = "email"
)

// PersonStore is the persistence port for person records.
type PersonStore interface {
	Create(ctx context.Context, person *models.Person) error
	FindByID(ctx context.Context, personID id.PersonID) (*models.Person, error)
	// MarkKYCVerified stamps the one-way pending to verified transition.
	// Returns false when the person was already verified.
	MarkKYCVerified(ctx context.Context, personID id.PersonID, at time.Time) (bool, error)
	SetContactVerified(ctx context.Context, personID id.PersonID, contact Contact, at time.Time) error
}

// IdentificationStore is the identity-record port consumed by the
// verification cascade.
type IdentificationStore interface {
	// Append stores the record as the next version for (person, type).
	Append(ctx context.Context, ident *models.Identification) error
	// FindCurrentByType returns the highest-version record for the type.
	FindCurrentByType(ctx context.Context, personID id.PersonID, identType models.IdentificationType) (*models.Identification, error)
	MarkVerified(ctx context.Context, identID id.IdentificationID, at time.Time) error
}

// AccountStore resolves account references and keeps the account-level
// coarse contact stamps.
type AccountStore interface {
	Create(ctx context.Context, account *models.Account) error
	FindByID(ctx context.Context, accountID id.AccountID) (*models.Account, error)
	SetContactVerified(ctx context.Context, accountID id.AccountID, contact Contact, at time.Time) error
}
