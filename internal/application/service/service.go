// Package service implements the status transition engine for loan
// applications. All status mutations flow through ChangeStatus or one of the
// named convenience operations; the transition matrix in the models package
// is the single source of truth for reachability.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	appmetrics "origen/internal/application/metrics"
	"origen/internal/application/models"
	"origen/internal/application/store"
	staffmodels "origen/internal/staff/models"
	id "origen/pkg/domain"
	dErrors "origen/pkg/domain-errors"
	audit "origen/pkg/platform/audit"
	"origen/pkg/platform/sentinel"
	"origen/pkg/platform/tx"
	"origen/pkg/requestcontext"
)

// Actor identifies who requests a transition, with the capability claims the
// permission provider evaluates.
type Actor struct {
	ID           id.StaffID
	Type         requestcontext.ActorType
	Capabilities []string
}

// ActorFromContext rebuilds the acting identity placed by the auth middleware.
func ActorFromContext(ctx context.Context) Actor {
	return Actor{
		ID:           requestcontext.ActorID(ctx),
		Type:         requestcontext.Actor(ctx),
		Capabilities: requestcontext.Capabilities(ctx),
	}
}

// PermissionProvider decides whether an actor holds a capability. The staff
// service is the store-backed implementation; tests swap in fakes.
type PermissionProvider interface {
	Can(ctx context.Context, actor Actor, capability string) (bool, error)
}

// AuditPublisher is the append-only audit sink.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service is the status transition engine.
type Service struct {
	apps       store.ApplicationStore
	perms      PermissionProvider
	runner     tx.Runner
	logger     *slog.Logger
	auditor    AuditPublisher
	metrics    *appmetrics.Metrics
	staleAfter time.Duration
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.auditor = publisher }
}

func WithMetrics(m *appmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithTxRunner makes mutations and their audit events commit in one database
// transaction. The default pass-through runner suits in-memory stores.
func WithTxRunner(r tx.Runner) Option {
	return func(s *Service) {
		if r != nil {
			s.runner = r
		}
	}
}

// WithStaleThreshold overrides the default 8h staleness window.
func WithStaleThreshold(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.staleAfter = d
		}
	}
}

// New constructs the engine. The permission provider is required; every
// other collaborator is optional.
func New(apps store.ApplicationStore, perms PermissionProvider, opts ...Option) (*Service, error) {
	if apps == nil {
		return nil, errors.New("application store is required")
	}
	if perms == nil {
		return nil, errors.New("permission provider is required")
	}
	s := &Service{
		apps:       apps,
		perms:      perms,
		runner:     tx.PassthroughRunner{},
		staleAfter: 8 * time.Hour,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// runTransition runs the store mutation and the audit emission inside one
// runner transaction. With the SQL runner the outbox row commits or rolls
// back together with the application row and its history entry.
func (s *Service) runTransition(ctx context.Context, appID id.ApplicationID, fn store.TransitionFunc, emit func(txCtx context.Context, app *models.Application)) (*models.Application, error) {
	var app *models.Application
	err := s.runner.RunInTx(ctx, func(txCtx context.Context) error {
		var execErr error
		app, execErr = s.apps.Execute(txCtx, appID, fn)
		if execErr != nil {
			return execErr
		}
		if emit != nil {
			emit(txCtx, app)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return app, nil
}

// requiredCapability maps a target status to the capability tier it demands.
func requiredCapability(target models.Status) string {
	if target.IsRestricted() {
		return staffmodels.CapApproveReject
	}
	return staffmodels.CapChangeStatus
}

// Create registers a new DRAFT application.
func (s *Service) Create(ctx context.Context, tenantID id.TenantID, personID id.PersonID, productID id.ProductID, amount float64, term int) (*models.Application, error) {
	now := requestcontext.Now(ctx)
	app, err := models.NewApplication(id.ApplicationID(uuid.New()), tenantID, personID, productID, amount, term, now)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, dErrors.MessageOf(err))
		}
		return nil, err
	}
	if err := s.apps.Create(ctx, app); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create application")
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "application created",
			"application_id", app.ID,
			"tenant_id", app.TenantID,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	return app, nil
}

// ChangeStatus validates permissions and reachability, then atomically
// mutates the application and appends one history entry. Permission and
// transition failures are pure validation errors; nothing is mutated.
func (s *Service) ChangeStatus(ctx context.Context, appID id.ApplicationID, target models.Status, actor Actor, reason string, metadata map[string]string) (*models.Application, error) {
	start := time.Now()
	defer s.observeChangeStatus(start)

	// Permission first, before any state is inspected.
	if err := s.checkPermission(ctx, actor, target); err != nil {
		s.recordDenied("permission")
		s.emitDenied(ctx, appID, target, actor, "permission_denied")
		return nil, err
	}

	now := requestcontext.Now(ctx)
	var oldStatus models.Status
	app, err := s.runTransition(ctx, appID, func(a *models.Application) (*models.StatusHistoryEntry, error) {
		if err := a.CanTransitionTo(target); err != nil {
			return nil, err
		}
		oldStatus = a.Status
		a.ApplyTransition(target, now)
		return &models.StatusHistoryEntry{
			ApplicationID: appID,
			OldStatus:     oldStatus,
			NewStatus:     target,
			ActorID:       actor.ID.String(),
			ActorType:     string(actor.Type),
			Reason:        reason,
			Metadata:      metadata,
			CreatedAt:     now,
		}, nil
	}, func(txCtx context.Context, a *models.Application) {
		s.emitTransition(txCtx, a, oldStatus, actor, reason)
	})
	if err != nil {
		return nil, s.translateTransitionErr(ctx, err, appID, target, actor)
	}

	s.recordTransition(oldStatus, target)
	s.logTransition(ctx, app, oldStatus, actor)
	return app, nil
}

// Approve sets the decision terms and transitions to APPROVED. A zero
// decision amount defaults to the requested amount during ApplyTransition.
func (s *Service) Approve(ctx context.Context, appID id.ApplicationID, actor Actor, decision models.Decision, reason string) (*models.Application, error) {
	if err := s.checkPermission(ctx, actor, models.StatusApproved); err != nil {
		s.recordDenied("permission")
		return nil, err
	}
	if decision.Amount < 0 || decision.Rate < 0 || decision.Term < 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "approval terms must not be negative")
	}

	now := requestcontext.Now(ctx)
	var oldStatus models.Status
	app, err := s.runTransition(ctx, appID, func(a *models.Application) (*models.StatusHistoryEntry, error) {
		if err := a.CanTransitionTo(models.StatusApproved); err != nil {
			return nil, err
		}
		oldStatus = a.Status
		a.ApprovedAmount = decision.Amount
		a.ApprovedRate = decision.Rate
		a.ApprovedTerm = decision.Term
		a.ApplyTransition(models.StatusApproved, now)
		return &models.StatusHistoryEntry{
			ApplicationID: appID,
			OldStatus:     oldStatus,
			NewStatus:     models.StatusApproved,
			ActorID:       actor.ID.String(),
			ActorType:     string(actor.Type),
			Reason:        reason,
			CreatedAt:     now,
		}, nil
	}, func(txCtx context.Context, a *models.Application) {
		s.emitTransition(txCtx, a, oldStatus, actor, reason)
	})
	if err != nil {
		return nil, s.translateTransitionErr(ctx, err, appID, models.StatusApproved, actor)
	}

	s.recordTransition(oldStatus, models.StatusApproved)
	return app, nil
}

// Reject records the rejection reason and transitions to REJECTED.
func (s *Service) Reject(ctx context.Context, appID id.ApplicationID, actor Actor, reason string) (*models.Application, error) {
	if reason == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "rejection reason is required")
	}
	if err := s.checkPermission(ctx, actor, models.StatusRejected); err != nil {
		s.recordDenied("permission")
		return nil, err
	}

	now := requestcontext.Now(ctx)
	var oldStatus models.Status
	app, err := s.runTransition(ctx, appID, func(a *models.Application) (*models.StatusHistoryEntry, error) {
		if err := a.CanTransitionTo(models.StatusRejected); err != nil {
			return nil, err
		}
		oldStatus = a.Status
		a.RejectionReason = reason
		a.ApplyTransition(models.StatusRejected, now)
		return &models.StatusHistoryEntry{
			ApplicationID: appID,
			OldStatus:     oldStatus,
			NewStatus:     models.StatusRejected,
			ActorID:       actor.ID.String(),
			ActorType:     string(actor.Type),
			Reason:        reason,
			CreatedAt:     now,
		}, nil
	}, func(txCtx context.Context, a *models.Application) {
		s.emitTransition(txCtx, a, oldStatus, actor, reason)
	})
	if err != nil {
		return nil, s.translateTransitionErr(ctx, err, appID, models.StatusRejected, actor)
	}

	s.recordTransition(oldStatus, models.StatusRejected)
	return app, nil
}

// Cancel transitions to CANCELLED with an optional reason.
func (s *Service) Cancel(ctx context.Context, appID id.ApplicationID, actor Actor, reason string) (*models.Application, error) {
	return s.ChangeStatus(ctx, appID, models.StatusCancelled, actor, reason, nil)
}

// Assign records review ownership. Assignment does not change status and
// produces no history entry; it is audited separately.
func (s *Service) Assign(ctx context.Context, appID id.ApplicationID, staffID id.StaffID, actor Actor) (*models.Application, error) {
	allowed, err := s.perms.Can(ctx, actor, staffmodels.CapAssign)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check assign permission")
	}
	if !allowed {
		return nil, dErrors.New(dErrors.CodeForbidden, "actor may not assign applications")
	}
	if staffID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "staff id is required")
	}

	now := requestcontext.Now(ctx)
	app, err := s.runTransition(ctx, appID, func(a *models.Application) (*models.StatusHistoryEntry, error) {
		if a.IsTerminal() {
			return nil, dErrors.Newf(dErrors.CodeInvariantViolation,
				"cannot assign an application in terminal status %s", a.Status)
		}
		a.Assignment = &models.Assignment{
			StaffID:    staffID,
			AssignedBy: actor.ID,
			AssignedAt: now,
		}
		a.UpdatedAt = now
		return nil, nil
	}, func(txCtx context.Context, a *models.Application) {
		s.emitAudit(txCtx, audit.Event{
			Action:   string(audit.EventApplicationAssigned),
			TenantID: a.TenantID,
			Subject:  a.ID.String(),
			ActorID:  actor.ID.String(),
			Detail:   map[string]any{"assigned_to": staffID.String()},
		})
	})
	if err != nil {
		return nil, s.translateStoreErr(err)
	}
	return app, nil
}

// SendCounterOffer stores the counter-proposal payload and transitions the
// application to COUNTER_OFFERED in one atomic step.
func (s *Service) SendCounterOffer(ctx context.Context, appID id.ApplicationID, actor Actor, offer models.CounterOffer) (*models.Application, error) {
	if err := s.checkPermission(ctx, actor, models.StatusCounterOffered); err != nil {
		s.recordDenied("permission")
		return nil, err
	}
	if offer.Amount <= 0 || offer.Term <= 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "counter offer requires a positive amount and term")
	}

	now := requestcontext.Now(ctx)
	var oldStatus models.Status
	app, err := s.runTransition(ctx, appID, func(a *models.Application) (*models.StatusHistoryEntry, error) {
		if err := a.CanTransitionTo(models.StatusCounterOffered); err != nil {
			return nil, err
		}
		oldStatus = a.Status
		a.CounterOffer = &offer
		a.ApplyTransition(models.StatusCounterOffered, now)
		return &models.StatusHistoryEntry{
			ApplicationID: appID,
			OldStatus:     oldStatus,
			NewStatus:     models.StatusCounterOffered,
			ActorID:       actor.ID.String(),
			ActorType:     string(actor.Type),
			Reason:        offer.Notes,
			CreatedAt:     now,
		}, nil
	}, func(txCtx context.Context, a *models.Application) {
		s.emitAudit(txCtx, audit.Event{
			Action:   string(audit.EventCounterOfferSent),
			TenantID: a.TenantID,
			Subject:  a.ID.String(),
			ActorID:  actor.ID.String(),
			Detail: map[string]any{
				"amount": offer.Amount,
				"rate":   offer.Rate,
				"term":   offer.Term,
			},
		})
	})
	if err != nil {
		return nil, s.translateTransitionErr(ctx, err, appID, models.StatusCounterOffered, actor)
	}

	s.recordTransition(oldStatus, models.StatusCounterOffered)
	return app, nil
}

// AllowedNextStatuses returns the matrix row for the application's current
// status, filtered by the actor's permission for each candidate.
func (s *Service) AllowedNextStatuses(ctx context.Context, appID id.ApplicationID, actor Actor) ([]models.Status, error) {
	app, err := s.apps.FindByID(ctx, appID)
	if err != nil {
		return nil, s.translateStoreErr(err)
	}

	allowed := make([]models.Status, 0)
	for _, candidate := range models.AllowedNext(app.Status) {
		ok, err := s.perms.Can(ctx, actor, requiredCapability(candidate))
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check permission")
		}
		if ok {
			allowed = append(allowed, candidate)
		}
	}
	return allowed, nil
}

// Get fetches one application.
func (s *Service) Get(ctx context.Context, appID id.ApplicationID) (*models.Application, error) {
	app, err := s.apps.FindByID(ctx, appID)
	if err != nil {
		return nil, s.translateStoreErr(err)
	}
	return app, nil
}

// History lists the append-only transition log for an application.
func (s *Service) History(ctx context.Context, appID id.ApplicationID) ([]models.StatusHistoryEntry, error) {
	if _, err := s.apps.FindByID(ctx, appID); err != nil {
		return nil, s.translateStoreErr(err)
	}
	entries, err := s.apps.ListHistory(ctx, appID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list status history")
	}
	return entries, nil
}

// IsStale reports whether an in-flight application has been idle past the
// configured threshold.
func (s *Service) IsStale(ctx context.Context, appID id.ApplicationID) (bool, error) {
	app, err := s.apps.FindByID(ctx, appID)
	if err != nil {
		return false, s.translateStoreErr(err)
	}
	return app.IsStale(requestcontext.Now(ctx), s.staleAfter), nil
}

func (s *Service) checkPermission(ctx context.Context, actor Actor, target models.Status) error {
	allowed, err := s.perms.Can(ctx, actor, requiredCapability(target))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check permission")
	}
	if !allowed {
		return dErrors.Newf(dErrors.CodeForbidden,
			"actor lacks permission to move applications to %s", target)
	}
	return nil
}

// translateTransitionErr maps store and validation failures from Execute
// into coded errors, emitting denial telemetry for transition refusals.
func (s *Service) translateTransitionErr(ctx context.Context, err error, appID id.ApplicationID, target models.Status, actor Actor) error {
	if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
		s.recordDenied("invalid_transition")
		s.emitDenied(ctx, appID, target, actor, "invalid_transition")
		return err
	}
	return s.translateStoreErr(err)
}

func (s *Service) translateStoreErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "application not found")
	case dErrors.HasCode(err, dErrors.CodeInvariantViolation),
		dErrors.HasCode(err, dErrors.CodeValidation),
		dErrors.HasCode(err, dErrors.CodeForbidden):
		return err
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "application store failure")
	}
}

func (s *Service) emitTransition(ctx context.Context, app *models.Application, oldStatus models.Status, actor Actor, reason string) {
	action := audit.EventApplicationStatusChanged
	switch app.Status {
	case models.StatusSubmitted:
		action = audit.EventApplicationSubmitted
	case models.StatusApproved:
		action = audit.EventApplicationApproved
	case models.StatusRejected:
		action = audit.EventApplicationRejected
	case models.StatusCancelled:
		action = audit.EventApplicationCancelled
	case models.StatusDisbursed:
		action = audit.EventApplicationDisbursed
	}
	s.emitAudit(ctx, audit.Event{
		Action:   string(action),
		TenantID: app.TenantID,
		Subject:  app.ID.String(),
		ActorID:  actor.ID.String(),
		Reason:   reason,
		Detail: map[string]any{
			"old_status": string(oldStatus),
			"new_status": string(app.Status),
		},
	})
}

func (s *Service) emitDenied(ctx context.Context, appID id.ApplicationID, target models.Status, actor Actor, reason string) {
	s.emitAudit(ctx, audit.Event{
		Action:  string(audit.EventStatusChangeDenied),
		Subject: appID.String(),
		ActorID: actor.ID.String(),
		Reason:  reason,
		Detail:  map[string]any{"target_status": string(target)},
	})
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

func (s *Service) logTransition(ctx context.Context, app *models.Application, oldStatus models.Status, actor Actor) {
	if s.logger == nil {
		return
	}
	s.logger.InfoContext(ctx, "application status changed",
		"application_id", app.ID,
		"old_status", oldStatus,
		"new_status", app.Status,
		"actor_id", actor.ID,
		"actor_type", actor.Type,
		"request_id", requestcontext.RequestID(ctx),
		"log_type", "audit",
	)
}

func (s *Service) recordTransition(from, to models.Status) {
	if s.metrics != nil {
		s.metrics.RecordTransition(string(from), string(to))
	}
}

func (s *Service) recordDenied(reason string) {
	if s.metrics != nil {
		s.metrics.RecordDenied(reason)
	}
}

func (s *Service) observeChangeStatus(start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveChangeStatus(start)
	}
}
