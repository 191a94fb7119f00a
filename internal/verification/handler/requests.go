package handler

import (
	"origen/internal/verification/models"
	"origen/internal/verification/service"
)

// VerifyRequest is the payload for POST /persons/{personID}/verifications.
type VerifyRequest struct {
	Field    string            `json:"field"`
	Value    string            `json:"value"`
	Method   string            `json:"method"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Notes    string            `json:"notes,omitempty"`
}

func (r VerifyRequest) ParsedField() (models.Field, error) {
	return models.ParseField(r.Field)
}

func (r VerifyRequest) ParsedMethod() (models.Method, error) {
	return models.ParseMethod(r.Method)
}

// INEDocumentRequest carries the OCR payload from an INE front scan.
type INEDocumentRequest struct {
	CURP      string `json:"curp,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName1 string `json:"last_name_1,omitempty"`
	LastName2 string `json:"last_name_2,omitempty"`
	BirthDate string `json:"birth_date,omitempty"`
}

func (r INEDocumentRequest) OCR() service.INEOCRResult {
	return service.INEOCRResult{
		CURP:      r.CURP,
		FirstName: r.FirstName,
		LastName1: r.LastName1,
		LastName2: r.LastName2,
		BirthDate: r.BirthDate,
	}
}

// SelfieDocumentRequest carries the face-match outcome.
type SelfieDocumentRequest struct {
	MatchScore float64 `json:"match_score"`
}

// ProofOfAddressRequest carries the extracted address.
type ProofOfAddressRequest struct {
	Address string `json:"address"`
}

// LockedFieldsResponse lists the person's locked fields.
type LockedFieldsResponse struct {
	Fields []models.Field `json:"fields"`
}
