package models

import (
	"strings"
	"time"

	id "origen/pkg/domain"
	dErrors "origen/pkg/domain-errors"
)

// Capability names. Capabilities gate engine operations; roles are only a
// convenient bundle of capabilities at creation time.
const (
	// CapChangeStatus is the baseline capability for non-restricted
	// status transitions.
	CapChangeStatus = "applications.status.change"
	// CapApproveReject is the elevated capability required for restricted
	// statuses (approve, reject, cancel, disburse and the servicing states).
	CapApproveReject = "applications.approve"
	// CapAssign allows routing applications to reviewers.
	CapAssign = "applications.assign"
	// CapVerifyFields allows writing field-level verifications.
	CapVerifyFields = "verifications.write"
)

// Role bundles for staff creation.
var RoleCapabilities = map[string][]string{
	"analyst":    {CapChangeStatus, CapVerifyFields},
	"supervisor": {CapChangeStatus, CapApproveReject, CapAssign, CapVerifyFields},
	"admin":      {CapChangeStatus, CapApproveReject, CapAssign, CapVerifyFields},
}

// Staff is one back-office operator scoped to a tenant.
type Staff struct {
	ID           id.StaffID `json:"id"`
	TenantID     id.TenantID `json:"tenant_id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Role         string     `json:"role"`
	Capabilities []string   `json:"capabilities"`
	SecretHash   string     `json:"-"`
	Active       bool       `json:"active"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// HasCapability reports membership in the staff member's capability set.
func (s *Staff) HasCapability(capability string) bool {
	for _, c := range s.Capabilities {
		if c == capability {
			return true
		}
	}
	return false
}

// NewStaff constructs an active staff member from a role bundle.
func NewStaff(staffID id.StaffID, tenantID id.TenantID, name, email, role, secretHash string, now time.Time) (*Staff, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "staff name cannot be empty")
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "staff email must be valid")
	}
	caps, ok := RoleCapabilities[role]
	if !ok {
		return nil, dErrors.Newf(dErrors.CodeInvariantViolation, "unknown staff role %q", role)
	}
	return &Staff{
		ID:           staffID,
		TenantID:     tenantID,
		Name:         name,
		Email:        email,
		Role:         role,
		Capabilities: append([]string(nil), caps...),
		SecretHash:   secretHash,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}
