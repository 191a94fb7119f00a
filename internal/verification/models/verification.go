// Package models defines field-level verification records and the closed
// method and field vocabularies the lock rules are keyed on.
package models

import (
	"time"

	personmodels "origen/internal/person/models"
	personstore "origen/internal/person/store"
	id "origen/pkg/domain"
	dErrors "origen/pkg/domain-errors"
)

// Method names how a field value was verified. Unknown values are rejected
// at the boundary by ParseMethod.
type Method string

const (
	MethodOTP       Method = "otp"
	MethodRENAPO    Method = "renapo"
	MethodSAT       Method = "sat"
	MethodINEOCR    Method = "ine_ocr"
	MethodFaceMatch Method = "face_match"
	MethodManual    Method = "manual"
	MethodDocument  Method = "document"
)

// officialMethods are government-registry backed. Only these may overwrite a
// locked field.
var officialMethods = map[Method]bool{
	MethodRENAPO: true,
	MethodSAT:    true,
}

// automatedMethods are machine-verified and lock the field on write.
var automatedMethods = map[Method]bool{
	MethodOTP:       true,
	MethodRENAPO:    true,
	MethodSAT:       true,
	MethodINEOCR:    true,
	MethodFaceMatch: true,
}

var allMethods = []Method{
	MethodOTP, MethodRENAPO, MethodSAT, MethodINEOCR,
	MethodFaceMatch, MethodManual, MethodDocument,
}

// ParseMethod validates a raw method string.
func ParseMethod(raw string) (Method, error) {
	for _, m := range allMethods {
		if string(m) == raw {
			return m, nil
		}
	}
	return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown verification method %q", raw)
}

// IsOfficial reports whether the method is backed by an official registry.
func (m Method) IsOfficial() bool { return officialMethods[m] }

// Locks reports whether a write with this method locks the field.
func (m Method) Locks() bool { return automatedMethods[m] }

// Field names a verifiable attribute of a person.
type Field string

const (
	FieldCURP           Field = "curp"
	FieldRFC            Field = "rfc"
	FieldFirstName      Field = "first_name"
	FieldLastName1      Field = "last_name_1"
	FieldLastName2      Field = "last_name_2"
	FieldBirthDate      Field = "birth_date"
	FieldPhone          Field = "phone"
	FieldEmail          Field = "email"
	FieldAddress        Field = "address"
	FieldINEDocument    Field = "ine_document"
	FieldSelfieDocument Field = "selfie_document"
	FieldProofOfAddress Field = "proof_of_address"
)

// KYCCriticalFields must all be verified for the person-level KYC stamp.
var KYCCriticalFields = []Field{FieldCURP, FieldFirstName, FieldLastName1, FieldBirthDate}

// fieldIdentifications maps fields to the identification record type they
// verify, for the cascade step.
var fieldIdentifications = map[Field]personmodels.IdentificationType{
	FieldCURP:        personmodels.IdentificationCURP,
	FieldRFC:         personmodels.IdentificationRFC,
	FieldINEDocument: personmodels.IdentificationINE,
}

// fieldContacts maps fields to the coarse contact stamps on persons and
// accounts.
var fieldContacts = map[Field]personstore.Contact{
	FieldPhone: personstore.ContactPhone,
	FieldEmail: personstore.ContactEmail,
}

var allFields = []Field{
	FieldCURP, FieldRFC, FieldFirstName, FieldLastName1, FieldLastName2,
	FieldBirthDate, FieldPhone, FieldEmail, FieldAddress,
	FieldINEDocument, FieldSelfieDocument, FieldProofOfAddress,
}

// ParseField validates a raw field name.
func ParseField(raw string) (Field, error) {
	for _, f := range allFields {
		if string(f) == raw {
			return f, nil
		}
	}
	return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown verification field %q", raw)
}

// AllFields returns the closed field vocabulary.
func AllFields() []Field {
	return append([]Field(nil), allFields...)
}

// IsKYCCritical reports membership in the critical-field set.
func (f Field) IsKYCCritical() bool {
	for _, c := range KYCCriticalFields {
		if f == c {
			return true
		}
	}
	return false
}

// IdentificationType returns the identification record type this field
// verifies, if any.
func (f Field) IdentificationType() (personmodels.IdentificationType, bool) {
	t, ok := fieldIdentifications[f]
	return t, ok
}

// Contact returns the coarse contact stamp this field maps to, if any.
func (f Field) Contact() (personstore.Contact, bool) {
	c, ok := fieldContacts[f]
	return c, ok
}

// VerificationStatus is the record-level state. There is no rejected state
// at field level; document rejection lives in the document workflow.
type VerificationStatus string

const (
	StatusPending  VerificationStatus = "PENDING"
	StatusVerified VerificationStatus = "VERIFIED"
)

// DataVerification is the current verification record for (person, field).
type DataVerification struct {
	ID         id.VerificationID  `json:"id"`
	PersonID   id.PersonID        `json:"person_id"`
	Field      Field              `json:"field"`
	Value      string             `json:"value"`
	Method     Method             `json:"method"`
	Status     VerificationStatus `json:"status"`
	IsVerified bool               `json:"is_verified"`
	IsLocked   bool               `json:"is_locked"`
	Metadata   map[string]string  `json:"metadata,omitempty"`
	Notes      string             `json:"notes,omitempty"`
	VerifiedAt time.Time          `json:"verified_at"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

// FieldSummary is the per-field detail inside a Summary.
type FieldSummary struct {
	Verified   bool       `json:"verified"`
	Locked     bool       `json:"locked"`
	Method     Method     `json:"method,omitempty"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
}

// Summary aggregates a person's verification state.
type Summary struct {
	Total    int                    `json:"total"`
	Verified int                    `json:"verified"`
	Locked   int                    `json:"locked"`
	Pending  int                    `json:"pending"`
	Fields   map[Field]FieldSummary `json:"fields"`
}
