// Package service implements the verification lock engine. All field writes
// flow through Verify; the lock rule is enforced by the store's atomic
// conditional upsert, and the KYC cascade runs once at the end of each
// applied write.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	personmodels "origen/internal/person/models"
	personstore "origen/internal/person/store"
	vmetrics "origen/internal/verification/metrics"
	"origen/internal/verification/models"
	"origen/internal/verification/store"
	id "origen/pkg/domain"
	dErrors "origen/pkg/domain-errors"
	audit "origen/pkg/platform/audit"
	"origen/pkg/platform/sentinel"
	"origen/pkg/requestcontext"
)

// AuditPublisher is the append-only audit sink.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service is the verification lock engine.
type Service struct {
	verifications store.VerificationStore
	persons       personstore.PersonStore
	idents        personstore.IdentificationStore
	accounts      personstore.AccountStore
	logger        *slog.Logger
	auditor       AuditPublisher
	metrics       *vmetrics.Metrics
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.auditor = publisher }
}

func WithMetrics(m *vmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(verifications store.VerificationStore, persons personstore.PersonStore, idents personstore.IdentificationStore, accounts personstore.AccountStore, opts ...Option) (*Service, error) {
	if verifications == nil {
		return nil, errors.New("verification store is required")
	}
	if persons == nil || idents == nil || accounts == nil {
		return nil, errors.New("person, identification and account stores are required")
	}
	s := &Service{
		verifications: verifications,
		persons:       persons,
		idents:        idents,
		accounts:      accounts,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Verify writes one field verification. A locked field rejects non-official
// methods silently: the existing record comes back unchanged, by policy, not
// as an error. An account entity with no linked person only receives coarse
// contact stamps and yields a nil record.
func (s *Service) Verify(ctx context.Context, entity personmodels.EntityRef, field models.Field, value string, method models.Method, metadata map[string]string, notes string) (*models.DataVerification, error) {
	personID, resolved, err := s.resolve(ctx, entity, field)
	if err != nil {
		return nil, err
	}
	if !resolved {
		return nil, nil
	}

	person, err := s.persons.FindByID(ctx, personID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "person not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load person")
	}

	now := requestcontext.Now(ctx)
	if notes == "" {
		notes = fmt.Sprintf("Field %s verified via %s", field, method)
	}
	merged := make(map[string]string, len(metadata)+1)
	for k, v := range metadata {
		merged[k] = v
	}
	merged["verified_at"] = now.UTC().Format(time.RFC3339)

	record := &models.DataVerification{
		ID:         id.VerificationID(uuid.New()),
		PersonID:   personID,
		Field:      field,
		Value:      value,
		Method:     method,
		Status:     models.StatusVerified,
		IsVerified: true,
		IsLocked:   method.Locks(),
		Metadata:   merged,
		Notes:      notes,
		VerifiedAt: now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	current, applied, err := s.verifications.Upsert(ctx, record)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "verification store failure")
	}
	if !applied {
		s.recordLockedNoop(field, method)
		s.emitAudit(ctx, audit.Event{
			Action:   string(audit.EventFieldVerificationBlocked),
			TenantID: person.TenantID,
			Subject:  personID.String(),
			Reason:   "field is locked",
			Detail:   map[string]any{"field": string(field), "method": string(method)},
		})
		return current, nil
	}

	s.recordApplied(field, method)
	s.cascade(ctx, person, field, now)
	s.emitAudit(ctx, audit.Event{
		Action:   string(audit.EventFieldVerified),
		TenantID: person.TenantID,
		Subject:  personID.String(),
		Detail: map[string]any{
			"field":  string(field),
			"method": string(method),
			"locked": current.IsLocked,
		},
	})
	if s.logger != nil {
		s.logger.InfoContext(ctx, "field verified",
			"person_id", personID,
			"field", field,
			"method", method,
			"locked", current.IsLocked,
			"request_id", requestcontext.RequestID(ctx),
			"log_type", "audit",
		)
	}
	return current, nil
}

// resolve maps an entity reference to the person under verification. An
// account without a person still receives the coarse phone/email stamps.
func (s *Service) resolve(ctx context.Context, entity personmodels.EntityRef, field models.Field) (id.PersonID, bool, error) {
	switch ref := entity.(type) {
	case personmodels.PersonRef:
		return ref.PersonID, true, nil
	case personmodels.AccountRef:
		account, err := s.accounts.FindByID(ctx, ref.AccountID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return id.PersonID{}, false, dErrors.New(dErrors.CodeNotFound, "account not found")
			}
			return id.PersonID{}, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
		}
		if account.PersonID != nil {
			return *account.PersonID, true, nil
		}
		if contact, ok := field.Contact(); ok {
			if err := s.accounts.SetContactVerified(ctx, ref.AccountID, contact, requestcontext.Now(ctx)); err != nil {
				return id.PersonID{}, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to stamp account contact")
			}
		}
		return id.PersonID{}, false, nil
	default:
		return id.PersonID{}, false, dErrors.New(dErrors.CodeInvalidInput, "unknown entity reference")
	}
}

// cascade propagates an applied verification to related records: coarse
// contact stamps, the matching identification record, and the one-way
// person-level KYC status.
func (s *Service) cascade(ctx context.Context, person *personmodels.Person, field models.Field, now time.Time) {
	if contact, ok := field.Contact(); ok {
		if err := s.persons.SetContactVerified(ctx, person.ID, contact, now); err != nil {
			s.logError(ctx, "contact stamp failed", person.ID, err)
		}
	}

	if identType, ok := field.IdentificationType(); ok {
		ident, err := s.idents.FindCurrentByType(ctx, person.ID, identType)
		switch {
		case err == nil && ident.Status != personmodels.IdentificationVerified:
			if err := s.idents.MarkVerified(ctx, ident.ID, now); err != nil {
				s.logError(ctx, "identification mark failed", person.ID, err)
			} else {
				s.emitAudit(ctx, audit.Event{
					Action:   string(audit.EventIdentificationVerified),
					TenantID: person.TenantID,
					Subject:  person.ID.String(),
					Detail:   map[string]any{"type": string(identType), "version": ident.Version},
				})
			}
		case err != nil && !errors.Is(err, sentinel.ErrNotFound):
			s.logError(ctx, "identification lookup failed", person.ID, err)
		}
	}

	if field.IsKYCCritical() {
		s.reevaluateKYCStatus(ctx, person, now)
	}
}

// reevaluateKYCStatus is the single entry point for the person-level KYC
// stamp: when every critical field holds a verified record, the person flips
// pending to verified exactly once and never reverts.
func (s *Service) reevaluateKYCStatus(ctx context.Context, person *personmodels.Person, now time.Time) {
	for _, critical := range models.KYCCriticalFields {
		record, err := s.verifications.Find(ctx, person.ID, critical)
		if err != nil {
			if !errors.Is(err, sentinel.ErrNotFound) {
				s.logError(ctx, "kyc reevaluation lookup failed", person.ID, err)
			}
			return
		}
		if !record.IsVerified {
			return
		}
	}

	flipped, err := s.persons.MarkKYCVerified(ctx, person.ID, now)
	if err != nil {
		s.logError(ctx, "kyc stamp failed", person.ID, err)
		return
	}
	if !flipped {
		return
	}
	if s.metrics != nil {
		s.metrics.RecordKYCCompleted()
	}
	s.emitAudit(ctx, audit.Event{
		Action:   string(audit.EventKYCCompleted),
		TenantID: person.TenantID,
		Subject:  person.ID.String(),
	})
}

// IsLocked reports whether the field's current record is locked.
func (s *Service) IsLocked(ctx context.Context, personID id.PersonID, field models.Field) (bool, error) {
	record, err := s.verifications.Find(ctx, personID, field)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, nil
		}
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "verification store failure")
	}
	return record.IsLocked, nil
}

// IsVerified reports whether a verified record exists for the field.
func (s *Service) IsVerified(ctx context.Context, personID id.PersonID, field models.Field) (bool, error) {
	record, err := s.verifications.Find(ctx, personID, field)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, nil
		}
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "verification store failure")
	}
	return record.IsVerified, nil
}

// LockedFields lists the fields whose current records are locked.
func (s *Service) LockedFields(ctx context.Context, personID id.PersonID) ([]models.Field, error) {
	records, err := s.verifications.ListByPerson(ctx, personID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "verification store failure")
	}
	locked := make([]models.Field, 0)
	for _, record := range records {
		if record.IsLocked {
			locked = append(locked, record.Field)
		}
	}
	return locked, nil
}

// Summary aggregates the person's verification state over the full field
// vocabulary. Fields with no record count as pending.
func (s *Service) Summary(ctx context.Context, personID id.PersonID) (*models.Summary, error) {
	records, err := s.verifications.ListByPerson(ctx, personID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "verification store failure")
	}

	summary := &models.Summary{
		Total:  len(models.AllFields()),
		Fields: make(map[models.Field]models.FieldSummary, len(models.AllFields())),
	}
	byField := make(map[models.Field]models.DataVerification, len(records))
	for _, record := range records {
		byField[record.Field] = record
	}
	for _, field := range models.AllFields() {
		record, ok := byField[field]
		if !ok || !record.IsVerified {
			summary.Pending++
			summary.Fields[field] = models.FieldSummary{}
			continue
		}
		summary.Verified++
		if record.IsLocked {
			summary.Locked++
		}
		verifiedAt := record.VerifiedAt
		summary.Fields[field] = models.FieldSummary{
			Verified:   true,
			Locked:     record.IsLocked,
			Method:     record.Method,
			VerifiedAt: &verifiedAt,
		}
	}
	return summary, nil
}

// HasCompletedKYC reports whether every KYC-critical field holds a verified
// record.
func (s *Service) HasCompletedKYC(ctx context.Context, personID id.PersonID) (bool, error) {
	for _, critical := range models.KYCCriticalFields {
		verified, err := s.IsVerified(ctx, personID, critical)
		if err != nil {
			return false, err
		}
		if !verified {
			return false, nil
		}
	}
	return true, nil
}

// INEOCRResult is the structured payload extracted from an INE front scan.
type INEOCRResult struct {
	CURP      string `json:"curp,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName1 string `json:"last_name_1,omitempty"`
	LastName2 string `json:"last_name_2,omitempty"`
	BirthDate string `json:"birth_date,omitempty"`
}

// SelfieResult is the face-match outcome for a selfie document.
type SelfieResult struct {
	MatchScore float64 `json:"match_score"`
}

// ProofOfAddressResult is the extracted address from a proof-of-address
// document.
type ProofOfAddressResult struct {
	Address string `json:"address"`
}

// verifyDocument records the document-level verification with a JSON-encoded
// structured value.
func (s *Service) verifyDocument(ctx context.Context, entity personmodels.EntityRef, field models.Field, method models.Method, payload any) (*models.DataVerification, error) {
	value, err := json.Marshal(payload)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "failed to encode document payload")
	}
	record, err := s.Verify(ctx, entity, field, string(value), method, nil, "")
	if err != nil {
		return nil, err
	}
	if record != nil {
		s.emitAudit(ctx, audit.Event{
			Action:  string(audit.EventDocumentVerificationSaved),
			Subject: record.PersonID.String(),
			Detail:  map[string]any{"field": string(field)},
		})
	}
	return record, nil
}

// VerifyINEDocument records the INE document verification and batch-applies
// the OCR-derived fields, each through the full lock check.
func (s *Service) VerifyINEDocument(ctx context.Context, entity personmodels.EntityRef, ocr INEOCRResult) (*models.DataVerification, error) {
	record, err := s.verifyDocument(ctx, entity, models.FieldINEDocument, models.MethodINEOCR, ocr)
	if err != nil || record == nil {
		return record, err
	}

	derived := []struct {
		field models.Field
		value string
	}{
		{models.FieldCURP, ocr.CURP},
		{models.FieldFirstName, ocr.FirstName},
		{models.FieldLastName1, ocr.LastName1},
		{models.FieldLastName2, ocr.LastName2},
		{models.FieldBirthDate, ocr.BirthDate},
	}
	for _, d := range derived {
		if d.value == "" {
			continue
		}
		if _, err := s.Verify(ctx, entity, d.field, d.value, models.MethodINEOCR, nil, ""); err != nil {
			return nil, err
		}
	}
	return record, nil
}

// VerifySelfieDocument records a face-match verification for the selfie
// document.
func (s *Service) VerifySelfieDocument(ctx context.Context, entity personmodels.EntityRef, result SelfieResult) (*models.DataVerification, error) {
	return s.verifyDocument(ctx, entity, models.FieldSelfieDocument, models.MethodFaceMatch, result)
}

// VerifyProofOfAddress records the proof-of-address document and the derived
// address field. Document uploads are human-reviewed, so neither write locks.
func (s *Service) VerifyProofOfAddress(ctx context.Context, entity personmodels.EntityRef, result ProofOfAddressResult) (*models.DataVerification, error) {
	record, err := s.verifyDocument(ctx, entity, models.FieldProofOfAddress, models.MethodDocument, result)
	if err != nil || record == nil {
		return record, err
	}
	if result.Address != "" {
		if _, err := s.Verify(ctx, entity, models.FieldAddress, result.Address, models.MethodDocument, nil, ""); err != nil {
			return nil, err
		}
	}
	return record, nil
}

func (s *Service) recordApplied(field models.Field, method models.Method) {
	if s.metrics != nil {
		s.metrics.RecordApplied(string(field), string(method))
	}
}

func (s *Service) recordLockedNoop(field models.Field, method models.Method) {
	if s.metrics != nil {
		s.metrics.RecordLockedNoop(string(field), string(method))
	}
}

func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Emit(ctx, event); err != nil && s.logger != nil {
		s.logger.ErrorContext(ctx, "audit emit failed",
			"action", event.Action,
			"subject", event.Subject,
			"error", err,
		)
	}
}

func (s *Service) logError(ctx context.Context, msg string, personID id.PersonID, err error) {
	if s.logger != nil {
		s.logger.ErrorContext(ctx, msg, "person_id", personID, "error", err)
	}
}
