// Package service manages staff accounts and is the store-backed permission
// provider for the status transition and verification engines.
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	appservice "origen/internal/application/service"
	"origen/internal/platform/token"
	"origen/internal/staff/models"
	"origen/internal/staff/secrets"
	"origen/internal/staff/store"
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

// Service manages staff records, credentials and capability checks.
type Service struct {
	staff   store.StaffStore
	tokens  *token.Manager
	logger  *slog.Logger
	auditor AuditPublisher
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.auditor = publisher }
}

func New(staff store.StaffStore, tokens *token.Manager, opts ...Option) (*Service, error) {
	if staff == nil {
		return nil, errors.New("staff store is required")
	}
	if tokens == nil {
		return nil, errors.New("token manager is required")
	}
	s := &Service{staff: staff, tokens: tokens}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Can implements the engines' permission provider. Staff actors are checked
// against their stored record so revocations take effect immediately;
// applicant and system actors are checked against their token claims only.
func (s *Service) Can(ctx context.Context, actor appservice.Actor, capability string) (bool, error) {
	if actor.Type != requestcontext.ActorStaff {
		for _, c := range actor.Capabilities {
			if c == capability {
				return true, nil
			}
		}
		return false, nil
	}
	if actor.ID.IsNil() {
		return false, nil
	}
	staff, err := s.staff.FindByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, nil
		}
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load staff record")
	}
	if !staff.Active {
		return false, nil
	}
	return staff.HasCapability(capability), nil
}

// CreateStaff registers a new staff member and returns the record together
// with the generated one-time secret. The secret is never persisted in
// plaintext.
func (s *Service) CreateStaff(ctx context.Context, tenantID id.TenantID, name, email, role string) (*models.Staff, string, error) {
	if tenantID.IsNil() {
		return nil, "", dErrors.New(dErrors.CodeValidation, "tenant id is required")
	}

	secret, err := secrets.Generate()
	if err != nil {
		return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate secret")
	}
	hash, err := secrets.Hash(secret)
	if err != nil {
		return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash secret")
	}

	now := requestcontext.Now(ctx)
	staff, err := models.NewStaff(id.StaffID(uuid.New()), tenantID, name, email, role, hash, now)
	if err != nil {
		return nil, "", err
	}

	if err := s.staff.Create(ctx, staff); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, "", dErrors.New(dErrors.CodeConflict, "staff email is already registered")
		}
		return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to create staff")
	}

	s.emitAudit(ctx, audit.Event{
		Action:   string(audit.EventStaffCreated),
		TenantID: staff.TenantID,
		Subject:  staff.ID.String(),
		ActorID:  requestcontext.ActorID(ctx).String(),
		Detail:   map[string]any{"role": staff.Role, "email": staff.Email},
	})
	return staff, secret, nil
}

// Login verifies credentials and mints an access token carrying the staff
// member's current capability set. Lookup and verification failures collapse
// into one unauthorized error so the response does not leak which accounts
// exist.
func (s *Service) Login(ctx context.Context, email, secret string) (string, *models.Staff, error) {
	staff, err := s.staff.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
		}
		return "", nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load staff record")
	}
	if !staff.Active {
		return "", nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}
	if err := secrets.Verify(secret, staff.SecretHash); err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvalidInput) {
			return "", nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
		}
		return "", nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to verify credentials")
	}

	accessToken, err := s.tokens.Mint(staff.ID, staff.TenantID,
		string(requestcontext.ActorStaff), staff.Capabilities, requestcontext.Now(ctx))
	if err != nil {
		return "", nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to mint token")
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "staff login",
			"staff_id", staff.ID,
			"tenant_id", staff.TenantID,
			"log_type", "audit",
		)
	}
	return accessToken, staff, nil
}

// Get fetches one staff record.
func (s *Service) Get(ctx context.Context, staffID id.StaffID) (*models.Staff, error) {
	staff, err := s.staff.FindByID(ctx, staffID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "staff not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load staff record")
	}
	return staff, nil
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
