// Package models holds the applicant identity records consumed by the
// verification engine.
package models

import (
	"strings"
	"time"

	id "origen/pkg/domain"
	dErrors "origen/pkg/domain-errors"
)

// KYCStatus is the person-level compliance state. The transition is one-way:
// once verified, it never reverts automatically.
type KYCStatus string

const (
	KYCPending  KYCStatus = "pending"
	KYCVerified KYCStatus = "verified"
)

// Person is the unit of verification. CURP and RFC are denormalized from the
// current identification records for query convenience.
type Person struct {
	ID              id.PersonID  `json:"id"`
	TenantID        id.TenantID  `json:"tenant_id"`
	FirstName       string       `json:"first_name"`
	LastName1       string       `json:"last_name_1"`
	LastName2       string       `json:"last_name_2,omitempty"`
	BirthDate       string       `json:"birth_date,omitempty"`
	CURP            string       `json:"curp,omitempty"`
	RFC             string       `json:"rfc,omitempty"`
	Email           string       `json:"email,omitempty"`
	Phone           string       `json:"phone,omitempty"`
	EmailVerifiedAt *time.Time   `json:"email_verified_at,omitempty"`
	PhoneVerifiedAt *time.Time   `json:"phone_verified_at,omitempty"`
	KYCStatus       KYCStatus    `json:"kyc_status"`
	KYCVerifiedAt   *time.Time   `json:"kyc_verified_at,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// NewPerson constructs a person with KYC pending.
func NewPerson(personID id.PersonID, tenantID id.TenantID, firstName, lastName1 string, now time.Time) (*Person, error) {
	firstName = strings.TrimSpace(firstName)
	lastName1 = strings.TrimSpace(lastName1)
	if firstName == "" || lastName1 == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "person requires a first name and first surname")
	}
	if tenantID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "person requires a tenant")
	}
	return &Person{
		ID:        personID,
		TenantID:  tenantID,
		FirstName: firstName,
		LastName1: lastName1,
		KYCStatus: KYCPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// IdentificationType names the government identifier an identification
// record carries.
type IdentificationType string

const (
	IdentificationCURP IdentificationType = "CURP"
	IdentificationRFC  IdentificationType = "RFC"
	IdentificationINE  IdentificationType = "INE"
)

// IdentificationStatus is the record-level verification state.
type IdentificationStatus string

const (
	IdentificationPending  IdentificationStatus = "pending"
	IdentificationVerified IdentificationStatus = "verified"
)

// Identification is one versioned identity document record. Uploads are
// append-only: a replacement creates the next version, and the highest
// version is the current record.
type Identification struct {
	ID         id.IdentificationID  `json:"id"`
	PersonID   id.PersonID          `json:"person_id"`
	Type       IdentificationType   `json:"type"`
	Value      string               `json:"value"`
	Status     IdentificationStatus `json:"status"`
	Version    int                  `json:"version"`
	VerifiedAt *time.Time           `json:"verified_at,omitempty"`
	CreatedAt  time.Time            `json:"created_at"`
}

// Account wraps an optional person for channels that onboard with contact
// details before a full identity record exists.
type Account struct {
	ID              id.AccountID `json:"id"`
	TenantID        id.TenantID  `json:"tenant_id"`
	PersonID        *id.PersonID `json:"person_id,omitempty"`
	Email           string       `json:"email,omitempty"`
	Phone           string       `json:"phone,omitempty"`
	EmailVerifiedAt *time.Time   `json:"email_verified_at,omitempty"`
	PhoneVerifiedAt *time.Time   `json:"phone_verified_at,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// EntityRef identifies the subject of a verification: either a person
// directly, or an account that may or may not wrap one.
type EntityRef interface {
	isEntityRef()
}

// PersonRef targets a person directly.
type PersonRef struct {
	PersonID id.PersonID
}

func (PersonRef) isEntityRef() {}

// AccountRef targets an account; resolution follows its person link.
type AccountRef struct {
	AccountID id.AccountID
}

func (AccountRef) isEntityRef() {}
