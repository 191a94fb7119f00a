// Package service orchestrates tenant lifecycle management.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	tenantmetrics "origen/internal/tenant/metrics"
	"origen/internal/tenant/models"
	"origen/internal/tenant/store"
	id "origen/pkg/domain"
	dErrors "origen/pkg/domain-errors"
	audit "origen/pkg/platform/audit"
	"origen/pkg/platform/sentinel"
	"origen/pkg/requestcontext"
)

// ApplicationCounter reports how many applications a tenant holds.
type ApplicationCounter interface {
	CountByTenant(ctx context.Context, tenantID id.TenantID) (int, error)
}

// StaffCounter reports how many staff a tenant holds.
type StaffCounter interface {
	CountByTenant(ctx context.Context, tenantID id.TenantID) (int, error)
}

// AuditPublisher is the append-only audit sink.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service orchestrates tenant lifecycle management.
type Service struct {
	tenants      store.TenantStore
	applications ApplicationCounter
	staff        StaffCounter
	logger       *slog.Logger
	auditor      AuditPublisher
	metrics      *tenantmetrics.Metrics
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.auditor = publisher }
}

func WithMetrics(m *tenantmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(tenants store.TenantStore, applications ApplicationCounter, staff StaffCounter, opts ...Option) (*Service, error) {
	if tenants == nil {
		return nil, errors.New("tenant store is required")
	}
	s := &Service{tenants: tenants, applications: applications, staff: staff}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Service) CreateTenant(ctx context.Context, name string) (*models.Tenant, error) {
	name = strings.TrimSpace(name)

	tenant, err := models.NewTenant(id.TenantID(uuid.New()), name, requestcontext.Now(ctx))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, dErrors.MessageOf(err))
		}
		return nil, err
	}

	if err := s.tenants.CreateIfNameAvailable(ctx, tenant); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "tenant name must be unique")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create tenant")
	}

	s.emitAudit(ctx, audit.Event{
		Action:   string(audit.EventTenantCreated),
		TenantID: tenant.ID,
		Subject:  tenant.ID.String(),
	})
	if s.metrics != nil {
		s.metrics.RecordCreated()
	}
	return tenant, nil
}

// GetTenant fetches tenant metadata with its scoped record counts.
func (s *Service) GetTenant(ctx context.Context, tenantID id.TenantID) (*models.TenantDetails, error) {
	tenant, err := s.tenants.FindByID(ctx, tenantID)
	if err != nil {
		return nil, wrapTenantErr(err)
	}

	details := &models.TenantDetails{Tenant: *tenant}
	if s.applications != nil {
		if details.ApplicationCount, err = s.applications.CountByTenant(ctx, tenantID); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count applications")
		}
	}
	if s.staff != nil {
		if details.StaffCount, err = s.staff.CountByTenant(ctx, tenantID); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count staff")
		}
	}
	return details, nil
}

// GetTenantByName retrieves a tenant by name (case-insensitive).
func (s *Service) GetTenantByName(ctx context.Context, name string) (*models.Tenant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "tenant name is required")
	}
	tenant, err := s.tenants.FindByName(ctx, name)
	if err != nil {
		return nil, wrapTenantErr(err)
	}
	return tenant, nil
}

// DeactivateTenant transitions a tenant to inactive status. The store's
// Execute method holds the lock during both validation and mutation.
func (s *Service) DeactivateTenant(ctx context.Context, tenantID id.TenantID) (*models.Tenant, error) {
	now := requestcontext.Now(ctx)
	tenant, err := s.tenants.Execute(ctx, tenantID,
		func(t *models.Tenant) error {
			if err := t.CanDeactivate(); err != nil {
				return dErrors.New(dErrors.CodeConflict, "tenant is already inactive")
			}
			return nil
		},
		func(t *models.Tenant) {
			t.ApplyDeactivation(now)
		},
	)
	if err != nil {
		return nil, wrapTenantErr(err)
	}

	s.emitAudit(ctx, audit.Event{
		Action:   string(audit.EventTenantDeactivated),
		TenantID: tenant.ID,
		Subject:  tenant.ID.String(),
	})
	if s.metrics != nil {
		s.metrics.RecordLifecycle("deactivated")
	}
	return tenant, nil
}

// ReactivateTenant transitions a tenant back to active status.
func (s *Service) ReactivateTenant(ctx context.Context, tenantID id.TenantID) (*models.Tenant, error) {
	now := requestcontext.Now(ctx)
	tenant, err := s.tenants.Execute(ctx, tenantID,
		func(t *models.Tenant) error {
			if err := t.CanReactivate(); err != nil {
				return dErrors.New(dErrors.CodeConflict, "tenant is already active")
			}
			return nil
		},
		func(t *models.Tenant) {
			t.ApplyReactivation(now)
		},
	)
	if err != nil {
		return nil, wrapTenantErr(err)
	}

	s.emitAudit(ctx, audit.Event{
		Action:   string(audit.EventTenantReactivated),
		TenantID: tenant.ID,
		Subject:  tenant.ID.String(),
	})
	if s.metrics != nil {
		s.metrics.RecordLifecycle("reactivated")
	}
	return tenant, nil
}

// RequireActive rejects mutations against an inactive tenant.
func (s *Service) RequireActive(ctx context.Context, tenantID id.TenantID) error {
	tenant, err := s.tenants.FindByID(ctx, tenantID)
	if err != nil {
		return wrapTenantErr(err)
	}
	if !tenant.IsActive() {
		return dErrors.New(dErrors.CodeForbidden, "tenant is inactive")
	}
	return nil
}

func wrapTenantErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "tenant not found")
	case dErrors.HasCode(err, dErrors.CodeConflict),
		dErrors.HasCode(err, dErrors.CodeInvariantViolation):
		return err
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "tenant store failure")
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
