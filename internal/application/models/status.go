package models

import (
	dErrors "origen/pkg/domain-errors"
)

// Status is the closed set of loan application states.
type Status string

const (
	StatusDraft              Status = "DRAFT"
	StatusSubmitted          Status = "SUBMITTED"
	StatusInReview           Status = "IN_REVIEW"
	StatusDocsPending        Status = "DOCS_PENDING"
	StatusCorrectionsPending Status = "CORRECTIONS_PENDING"
	StatusCounterOffered     Status = "COUNTER_OFFERED"
	StatusApproved           Status = "APPROVED"
	StatusRejected           Status = "REJECTED"
	StatusCancelled          Status = "CANCELLED"
	StatusDisbursed          Status = "DISBURSED"
	StatusActive             Status = "ACTIVE"
	StatusCompleted          Status = "COMPLETED"
	StatusDefault            Status = "DEFAULT"
	StatusSynced             Status = "SYNCED"
)

// AllStatuses lists every status, useful for exhaustive table-driven tests.
var AllStatuses = []Status{
	StatusDraft, StatusSubmitted, StatusInReview, StatusDocsPending,
	StatusCorrectionsPending, StatusCounterOffered, StatusApproved,
	StatusRejected, StatusCancelled, StatusDisbursed, StatusActive,
	StatusCompleted, StatusDefault, StatusSynced,
}

// transitions is the source of truth for reachability: current status to the
// set of allowed next statuses. Statuses absent from a row (and terminal
// statuses, which have no row) reject every transition.
var transitions = map[Status][]Status{
	StatusDraft:              {StatusSubmitted, StatusCancelled},
	StatusSubmitted:          {StatusInReview, StatusDocsPending, StatusCancelled},
	StatusInReview:           {StatusDocsPending, StatusCorrectionsPending, StatusCounterOffered, StatusApproved, StatusRejected, StatusCancelled},
	StatusDocsPending:        {StatusInReview, StatusCorrectionsPending, StatusCancelled},
	StatusCorrectionsPending: {StatusInReview, StatusCancelled},
	StatusCounterOffered:     {StatusInReview, StatusApproved, StatusRejected, StatusCancelled},
	StatusApproved:           {StatusDisbursed, StatusCancelled},
	StatusDisbursed:          {StatusActive},
	StatusActive:             {StatusCompleted, StatusDefault},
	StatusDefault:            {StatusActive},
}

// restrictedStatuses require the elevated approve/reject capability.
var restrictedStatuses = map[Status]struct{}{
	StatusApproved:  {},
	StatusRejected:  {},
	StatusCancelled: {},
	StatusDisbursed: {},
	StatusActive:    {},
	StatusCompleted: {},
	StatusDefault:   {},
}

// terminalStatuses have no outgoing transitions.
var terminalStatuses = map[Status]struct{}{
	StatusRejected:  {},
	StatusCancelled: {},
	StatusCompleted: {},
	StatusSynced:    {},
}

// activeStatuses are the in-flight review states used for staleness checks.
var activeStatuses = map[Status]struct{}{
	StatusSubmitted:          {},
	StatusInReview:           {},
	StatusDocsPending:        {},
	StatusCorrectionsPending: {},
	StatusCounterOffered:     {},
}

var validStatuses = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(AllStatuses))
	for _, s := range AllStatuses {
		set[s] = struct{}{}
	}
	return set
}()

// ParseStatus validates a raw status string at the boundary, rejecting
// unknown values before they reach business logic.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if _, ok := validStatuses[s]; !ok {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown application status %q", raw)
	}
	return s, nil
}

// CanTransition reports whether target is reachable from current in one step.
func CanTransition(current, target Status) bool {
	for _, next := range transitions[current] {
		if next == target {
			return true
		}
	}
	return false
}

// AllowedNext returns a copy of the matrix row for the given status.
func AllowedNext(current Status) []Status {
	row := transitions[current]
	out := make([]Status, len(row))
	copy(out, row)
	return out
}

// IsRestricted reports whether moving an application into this status
// requires the elevated approve/reject capability.
func (s Status) IsRestricted() bool {
	_, ok := restrictedStatuses[s]
	return ok
}

// IsTerminal reports whether the status admits no further transitions.
func (s Status) IsTerminal() bool {
	_, ok := terminalStatuses[s]
	return ok
}

// IsActive reports whether the status counts as in-flight review work.
func (s Status) IsActive() bool {
	_, ok := activeStatuses[s]
	return ok
}

// guardTransition applies the cross-field rules that the matrix alone cannot
// express. The matrix is keyed only on the current status, so these re-assert
// the required predecessor even when reachability already holds. Returns a
// human-readable reason when the transition must be refused.
func guardTransition(current, target Status) error {
	switch target {
	case StatusDisbursed:
		if current != StatusApproved {
			return dErrors.Newf(dErrors.CodeInvariantViolation,
				"application can only be disbursed from APPROVED, current status is %s", current)
		}
	case StatusActive:
		if current != StatusDisbursed && current != StatusDefault {
			return dErrors.Newf(dErrors.CodeInvariantViolation,
				"application can only become ACTIVE after disbursement, current status is %s", current)
		}
	case StatusCompleted, StatusDefault:
		if current != StatusActive {
			return dErrors.Newf(dErrors.CodeInvariantViolation,
				"application can only reach %s from ACTIVE, current status is %s", target, current)
		}
	}
	return nil
}
