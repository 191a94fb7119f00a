// Package registry provides official-source lookups: RENAPO for CURP
// records and SAT for RFC status. These are the only methods allowed to
// overwrite locked verification fields.
package registry

import (
	"context"
	"time"
)

// CURPRecord is the person data RENAPO returns for a CURP.
type CURPRecord struct {
	CURP      string    `json:"curp"`
	FirstName string    `json:"first_name"`
	LastName1 string    `json:"last_name_1"`
	LastName2 string    `json:"last_name_2,omitempty"`
	BirthDate string    `json:"birth_date"`
	Valid     bool      `json:"valid"`
	CheckedAt time.Time `json:"checked_at"`
}

// RFCRecord is the taxpayer status SAT returns for an RFC.
type RFCRecord struct {
	RFC       string    `json:"rfc"`
	Active    bool      `json:"active"`
	CheckedAt time.Time `json:"checked_at"`
}

// RENAPOProvider resolves a CURP against the national population registry.
type RENAPOProvider interface {
	LookupCURP(ctx context.Context, curp string) (*CURPRecord, error)
}

// SATProvider resolves an RFC against the tax authority.
type SATProvider interface {
	LookupRFC(ctx context.Context, rfc string) (*RFCRecord, error)
}
