package models

import (
	"time"

	id "origen/pkg/domain"
	dErrors "origen/pkg/domain-errors"
)

// ApplicantKind distinguishes person and company applicants.
type ApplicantKind string

const (
	ApplicantPerson  ApplicantKind = "person"
	ApplicantCompany ApplicantKind = "company"
)

// CounterOffer is the structured counter-proposal a reviewer can attach
// before moving an application to COUNTER_OFFERED.
type CounterOffer struct {
	Amount float64 `json:"amount"`
	Rate   float64 `json:"rate"`
	Term   int     `json:"term"`
	Notes  string  `json:"notes,omitempty"`
}

// Assignment records which staff member owns the review and who assigned it.
type Assignment struct {
	StaffID    id.StaffID `json:"staff_id"`
	AssignedBy id.StaffID `json:"assigned_by"`
	AssignedAt time.Time  `json:"assigned_at"`
}

// Decision carries the approval terms. A zero Amount means "default to the
// requested amount" when the application is approved.
type Decision struct {
	Amount float64 `json:"amount,omitempty"`
	Rate   float64 `json:"rate,omitempty"`
	Term   int     `json:"term,omitempty"`
}

// Application is the aggregate root for one loan request.
//
// Invariants:
//   - Status is always a member of the closed status set
//   - Every status change goes through the transition matrix and produces
//     exactly one history entry in the same transaction
//   - Applications are never deleted, only moved to a terminal status
type Application struct {
	ID            id.ApplicationID `json:"id"`
	TenantID      id.TenantID      `json:"tenant_id"`
	ApplicantKind ApplicantKind    `json:"applicant_kind"`
	PersonID      id.PersonID      `json:"person_id,omitempty"`
	ProductID     id.ProductID     `json:"product_id"`

	RequestedAmount float64 `json:"requested_amount"`
	RequestedTerm   int     `json:"requested_term"`

	Status Status `json:"status"`

	ApprovedAmount  float64 `json:"approved_amount,omitempty"`
	ApprovedRate    float64 `json:"approved_rate,omitempty"`
	ApprovedTerm    int     `json:"approved_term,omitempty"`
	RejectionReason string  `json:"rejection_reason,omitempty"`

	CounterOffer *CounterOffer `json:"counter_offer,omitempty"`
	Assignment   *Assignment   `json:"assignment,omitempty"`

	RiskLevel string            `json:"risk_level,omitempty"`
	Checklist map[string]bool   `json:"checklist,omitempty"`
	RiskData  map[string]string `json:"risk_data,omitempty"`

	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
	ApprovedAt  *time.Time `json:"approved_at,omitempty"`
	RejectedAt  *time.Time `json:"rejected_at,omitempty"`
	DisbursedAt *time.Time `json:"disbursed_at,omitempty"`
	SyncedAt    *time.Time `json:"synced_at,omitempty"`
	ExternalRef string     `json:"external_ref,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewApplication constructs a DRAFT application, validating invariants.
func NewApplication(appID id.ApplicationID, tenantID id.TenantID, personID id.PersonID, productID id.ProductID, amount float64, term int, now time.Time) (*Application, error) {
	if tenantID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "application requires a tenant")
	}
	if amount <= 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "requested amount must be positive")
	}
	if term <= 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "requested term must be positive")
	}
	return &Application{
		ID:              appID,
		TenantID:        tenantID,
		ApplicantKind:   ApplicantPerson,
		PersonID:        personID,
		ProductID:       productID,
		RequestedAmount: amount,
		RequestedTerm:   term,
		Status:          StatusDraft,
		Checklist:       map[string]bool{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// CanTransitionTo checks matrix reachability plus the cross-field guard
// rules. Returns a coded error naming both statuses when refused.
func (a *Application) CanTransitionTo(target Status) error {
	if !CanTransition(a.Status, target) {
		return dErrors.Newf(dErrors.CodeInvariantViolation,
			"invalid transition from %s to %s", a.Status, target)
	}
	return guardTransition(a.Status, target)
}

// ApplyTransition mutates the status and its status-specific side effects.
// Callers must have validated the transition with CanTransitionTo; the two
// halves exist separately so stores can hold a lock across validate+mutate.
func (a *Application) ApplyTransition(target Status, now time.Time) {
	a.Status = target
	a.UpdatedAt = now
	switch target {
	case StatusSubmitted:
		t := now
		a.SubmittedAt = &t
	case StatusApproved:
		t := now
		a.ApprovedAt = &t
		if a.ApprovedAmount == 0 {
			a.ApprovedAmount = a.RequestedAmount
		}
		if a.ApprovedTerm == 0 {
			a.ApprovedTerm = a.RequestedTerm
		}
	case StatusRejected:
		t := now
		a.RejectedAt = &t
	case StatusDisbursed:
		t := now
		a.DisbursedAt = &t
	}
}

// IsTerminal reports whether the application sits in a terminal status.
func (a *Application) IsTerminal() bool { return a.Status.IsTerminal() }

// IsActive reports whether the application sits in an in-flight review state.
func (a *Application) IsActive() bool { return a.Status.IsActive() }

// IsStale reports whether an in-flight application has seen no updates for
// longer than the threshold.
func (a *Application) IsStale(now time.Time, threshold time.Duration) bool {
	return a.IsActive() && now.Sub(a.UpdatedAt) > threshold
}
