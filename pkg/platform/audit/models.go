package audit

import (
	"context"
	"time"

	id "origen/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with legal/regulatory significance.
	// These require tamper-proof storage and long retention.
	// Examples: approvals, rejections, disbursements, KYC completion.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers events relevant to security monitoring.
	// Examples: permission denials, blocked verification overwrites.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers events useful for debugging and operational
	// visibility. These can be sampled with shorter retention.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	TenantID  id.TenantID
	// Subject identifies the entity acted upon (application id, person id).
	Subject string
	Action  string
	// ActorID tracks who performed the action; ActorType distinguishes
	// staff, applicant, and system actors.
	ActorID   string
	ActorType string
	Decision  string
	Reason    string
	RequestID string
	// Detail carries action-specific fields (old/new status, field name,
	// verification method). Values must be JSON-serializable.
	Detail map[string]any
}

// Store is the append-only audit sink. The Postgres implementation writes a
// transactional outbox row so the event commits atomically with the
// triggering mutation.
type Store interface {
	Append(ctx context.Context, event Event) error
}

type AuditEvent string

const (
	// Application lifecycle events
	EventApplicationSubmitted     AuditEvent = "application_submitted"
	EventApplicationStatusChanged AuditEvent = "application_status_changed"
	EventApplicationApproved      AuditEvent = "application_approved"
	EventApplicationRejected      AuditEvent = "application_rejected"
	EventApplicationCancelled     AuditEvent = "application_cancelled"
	EventApplicationDisbursed     AuditEvent = "application_disbursed"
	EventApplicationAssigned      AuditEvent = "application_assigned"
	EventCounterOfferSent         AuditEvent = "counter_offer_sent"
	EventStatusChangeDenied       AuditEvent = "status_change_denied"

	// Verification events
	EventFieldVerified             AuditEvent = "field_verified"
	EventFieldVerificationBlocked  AuditEvent = "field_verification_blocked"
	EventIdentificationVerified    AuditEvent = "identification_verified"
	EventKYCCompleted              AuditEvent = "kyc_completed"
	EventRegistryLookupPerformed   AuditEvent = "registry_lookup_performed"
	EventDocumentVerificationSaved AuditEvent = "document_verification_saved"

	// Tenant and staff events
	EventTenantCreated     AuditEvent = "tenant_created"
	EventTenantDeactivated AuditEvent = "tenant_deactivated"
	EventTenantReactivated AuditEvent = "tenant_reactivated"
	EventStaffCreated      AuditEvent = "staff_created"
)

// eventCategories maps each audit event to its category.
// Compliance: legal/regulatory significance, long retention required.
// Security: security monitoring and alerting.
// Operations: debugging and operational visibility, can be sampled.
var eventCategories = map[AuditEvent]EventCategory{
	EventApplicationSubmitted:   CategoryCompliance,
	EventApplicationApproved:    CategoryCompliance,
	EventApplicationRejected:    CategoryCompliance,
	EventApplicationDisbursed:   CategoryCompliance,
	EventKYCCompleted:           CategoryCompliance,
	EventFieldVerified:          CategoryCompliance,
	EventIdentificationVerified: CategoryCompliance,

	EventStatusChangeDenied:       CategorySecurity,
	EventFieldVerificationBlocked: CategorySecurity,
	EventTenantDeactivated:        CategorySecurity,

	EventApplicationStatusChanged:  CategoryOperations,
	EventApplicationCancelled:      CategoryOperations,
	EventApplicationAssigned:       CategoryOperations,
	EventCounterOfferSent:          CategoryOperations,
	EventRegistryLookupPerformed:   CategoryOperations,
	EventDocumentVerificationSaved: CategoryOperations,
	EventTenantCreated:             CategoryOperations,
	EventTenantReactivated:         CategoryOperations,
	EventStaffCreated:              CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}
