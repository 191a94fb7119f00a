// Package domain holds the shared identifier types used across modules.
//
// Each identifier is a distinct named type over uuid.UUID so the compiler
// rejects cross-entity mixups (passing a StaffID where a PersonID is
// expected). Parse functions enforce the trust-boundary invariant: IDs must
// be valid, non-empty, non-nil UUIDs.
package domain

import (
	"github.com/google/uuid"

	dErrors "origen/pkg/domain-errors"
)

type (
	// TenantID identifies a lender organization.
	TenantID uuid.UUID
	// ApplicationID identifies a loan application.
	ApplicationID uuid.UUID
	// PersonID identifies an applicant person, the unit of KYC verification.
	PersonID uuid.UUID
	// AccountID identifies a login account that may wrap a person.
	AccountID uuid.UUID
	// StaffID identifies a staff actor.
	StaffID uuid.UUID
	// ProductID identifies a loan product.
	ProductID uuid.UUID
	// IdentificationID identifies one version of an identity document record.
	IdentificationID uuid.UUID
	// VerificationID identifies a field-level verification record.
	VerificationID uuid.UUID
)

func (id TenantID) String() string         { return uuid.UUID(id).String() }
func (id ApplicationID) String() string    { return uuid.UUID(id).String() }
func (id PersonID) String() string         { return uuid.UUID(id).String() }
func (id AccountID) String() string        { return uuid.UUID(id).String() }
func (id StaffID) String() string          { return uuid.UUID(id).String() }
func (id ProductID) String() string        { return uuid.UUID(id).String() }
func (id IdentificationID) String() string { return uuid.UUID(id).String() }
func (id VerificationID) String() string   { return uuid.UUID(id).String() }

func (id TenantID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id ApplicationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id PersonID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id AccountID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id StaffID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id ProductID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }

func parseUUID(raw, what string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" is required")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" must be a valid UUID")
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" must not be the nil UUID")
	}
	return parsed, nil
}

// ParseTenantID validates and converts a raw string into a TenantID.
func ParseTenantID(raw string) (TenantID, error) {
	parsed, err := parseUUID(raw, "tenant id")
	if err != nil {
		return TenantID{}, err
	}
	return TenantID(parsed), nil
}

// ParseApplicationID validates and converts a raw string into an ApplicationID.
func ParseApplicationID(raw string) (ApplicationID, error) {
	parsed, err := parseUUID(raw, "application id")
	if err != nil {
		return ApplicationID{}, err
	}
	return ApplicationID(parsed), nil
}

// ParsePersonID validates and converts a raw string into a PersonID.
func ParsePersonID(raw string) (PersonID, error) {
	parsed, err := parseUUID(raw, "person id")
	if err != nil {
		return PersonID{}, err
	}
	return PersonID(parsed), nil
}

// ParseAccountID validates and converts a raw string into an AccountID.
func ParseAccountID(raw string) (AccountID, error) {
	parsed, err := parseUUID(raw, "account id")
	if err != nil {
		return AccountID{}, err
	}
	return AccountID(parsed), nil
}

// ParseStaffID validates and converts a raw string into a StaffID.
func ParseStaffID(raw string) (StaffID, error) {
	parsed, err := parseUUID(raw, "staff id")
	if err != nil {
		return StaffID{}, err
	}
	return StaffID(parsed), nil
}

// ParseProductID validates and converts a raw string into a ProductID.
func ParseProductID(raw string) (ProductID, error) {
	parsed, err := parseUUID(raw, "product id")
	if err != nil {
		return ProductID{}, err
	}
	return ProductID(parsed), nil
}
