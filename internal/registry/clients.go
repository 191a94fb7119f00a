package registry

import (
	"context"
	"fmt"
	"strings"
	"time"

	dErrors "origen/pkg/domain-errors"
)

// StubRENAPO is a deterministic in-process RENAPO client. Seeded records
// take precedence; unseeded structurally valid CURPs resolve to a record
// derived from the CURP itself so local flows are reproducible.
type StubRENAPO struct {
	records map[string]CURPRecord
}

func NewStubRENAPO(seed ...CURPRecord) *StubRENAPO {
	records := make(map[string]CURPRecord, len(seed))
	for _, record := range seed {
		records[record.CURP] = record
	}
	return &StubRENAPO{records: records}
}

func (s *StubRENAPO) LookupCURP(_ context.Context, curp string) (*CURPRecord, error) {
	curp = strings.ToUpper(strings.TrimSpace(curp))
	if len(curp) != 18 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "curp must be 18 characters")
	}
	if record, ok := s.records[curp]; ok {
		copied := record
		copied.CheckedAt = time.Now()
		return &copied, nil
	}
	// Positions 4-9 carry the birth date as YYMMDD.
	yy, mm, dd := curp[4:6], curp[6:8], curp[8:10]
	return &CURPRecord{
		CURP:      curp,
		FirstName: "PERSONA",
		LastName1: string(curp[0]) + string(curp[1]),
		BirthDate: fmt.Sprintf("19%s-%s-%s", yy, mm, dd),
		Valid:     true,
		CheckedAt: time.Now(),
	}, nil
}

// StubSAT is a deterministic in-process SAT client. Structurally valid RFCs
// (12 or 13 characters) resolve as active taxpayers.
type StubSAT struct {
	inactive map[string]bool
}

func NewStubSAT(inactiveRFCs ...string) *StubSAT {
	inactive := make(map[string]bool, len(inactiveRFCs))
	for _, rfc := range inactiveRFCs {
		inactive[strings.ToUpper(rfc)] = true
	}
	return &StubSAT{inactive: inactive}
}

func (s *StubSAT) LookupRFC(_ context.Context, rfc string) (*RFCRecord, error) {
	rfc = strings.ToUpper(strings.TrimSpace(rfc))
	if len(rfc) != 12 && len(rfc) != 13 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "rfc must be 12 or 13 characters")
	}
	return &RFCRecord{
		RFC:       rfc,
		Active:    !s.inactive[rfc],
		CheckedAt: time.Now(),
	}, nil
}
