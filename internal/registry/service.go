package registry

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	personmodels "origen/internal/person/models"
	personstore "origen/internal/person/store"
	vmodels "origen/internal/verification/models"
	id "origen/pkg/domain"
	dErrors "origen/pkg/domain-errors"
	audit "origen/pkg/platform/audit"
	"origen/pkg/platform/sentinel"
)

// FieldVerifier is the verification engine surface the registry feeds.
type FieldVerifier interface {
	Verify(ctx context.Context, entity personmodels.EntityRef, field vmodels.Field, value string, method vmodels.Method, metadata map[string]string, notes string) (*vmodels.DataVerification, error)
}

// AuditPublisher is the append-only audit sink.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service runs official-source lookups and feeds the results through the
// verification engine, which is the official-override path for locked
// fields.
type Service struct {
	renapo   RENAPOProvider
	sat      SATProvider
	cache    *RedisCache
	verifier FieldVerifier
	persons  personstore.PersonStore
	logger   *slog.Logger
	auditor  AuditPublisher
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.auditor = publisher }
}

// WithCache installs the TTL-bound read-through lookup cache.
func WithCache(cache *RedisCache) Option {
	return func(s *Service) { s.cache = cache }
}

func New(renapo RENAPOProvider, sat SATProvider, verifier FieldVerifier, persons personstore.PersonStore, opts ...Option) (*Service, error) {
	if renapo == nil || sat == nil {
		return nil, errors.New("renapo and sat providers are required")
	}
	if verifier == nil {
		return nil, errors.New("field verifier is required")
	}
	if persons == nil {
		return nil, errors.New("person store is required")
	}
	s := &Service{renapo: renapo, sat: sat, verifier: verifier, persons: persons}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// VerifyCURP looks up the CURP with RENAPO, cross-checks the person's RFC
// with SAT when present, and writes the confirmed fields through the
// verification engine with official methods.
func (s *Service) VerifyCURP(ctx context.Context, personID id.PersonID, curp string) (*CURPRecord, error) {
	curp = strings.ToUpper(strings.TrimSpace(curp))
	if curp == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "curp is required")
	}

	person, err := s.persons.FindByID(ctx, personID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "person not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load person")
	}

	var curpRecord *CURPRecord
	var rfcRecord *RFCRecord
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		record, err := s.lookupCURP(gctx, curp)
		if err != nil {
			return err
		}
		curpRecord = record
		return nil
	})
	if person.RFC != "" {
		rfc := person.RFC
		g.Go(func() error {
			record, err := s.lookupRFC(gctx, rfc)
			if err != nil {
				return err
			}
			rfcRecord = record
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.emitAudit(ctx, audit.Event{
		Action:   string(audit.EventRegistryLookupPerformed),
		TenantID: person.TenantID,
		Subject:  personID.String(),
		Detail: map[string]any{
			"curp_valid":  curpRecord.Valid,
			"sat_checked": rfcRecord != nil,
		},
	})

	if !curpRecord.Valid {
		return curpRecord, dErrors.New(dErrors.CodeValidation, "curp was not found in RENAPO")
	}

	entity := personmodels.PersonRef{PersonID: personID}
	confirmed := []struct {
		field vmodels.Field
		value string
	}{
		{vmodels.FieldCURP, curpRecord.CURP},
		{vmodels.FieldFirstName, curpRecord.FirstName},
		{vmodels.FieldLastName1, curpRecord.LastName1},
		{vmodels.FieldLastName2, curpRecord.LastName2},
		{vmodels.FieldBirthDate, curpRecord.BirthDate},
	}
	for _, c := range confirmed {
		if c.value == "" {
			continue
		}
		if _, err := s.verifier.Verify(ctx, entity, c.field, c.value, vmodels.MethodRENAPO, nil, ""); err != nil {
			return nil, err
		}
	}
	if rfcRecord != nil && rfcRecord.Active {
		if _, err := s.verifier.Verify(ctx, entity, vmodels.FieldRFC, rfcRecord.RFC, vmodels.MethodSAT, nil, ""); err != nil {
			return nil, err
		}
	}
	return curpRecord, nil
}

// lookupCURP reads through the cache when one is configured. Cache failures
// degrade to a direct provider call.
func (s *Service) lookupCURP(ctx context.Context, curp string) (*CURPRecord, error) {
	if s.cache != nil {
		record, err := s.cache.FindCURP(ctx, curp)
		if err == nil {
			return record, nil
		}
		if !errors.Is(err, sentinel.ErrNotFound) {
			s.logCacheError(ctx, err)
		}
	}
	record, err := s.renapo.LookupCURP(ctx, curp)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SaveCURP(ctx, record); err != nil {
			s.logCacheError(ctx, err)
		}
	}
	return record, nil
}

func (s *Service) lookupRFC(ctx context.Context, rfc string) (*RFCRecord, error) {
	if s.cache != nil {
		record, err := s.cache.FindRFC(ctx, rfc)
		if err == nil {
			return record, nil
		}
		if !errors.Is(err, sentinel.ErrNotFound) {
			s.logCacheError(ctx, err)
		}
	}
	record, err := s.sat.LookupRFC(ctx, rfc)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SaveRFC(ctx, record); err != nil {
			s.logCacheError(ctx, err)
		}
	}
	return record, nil
}

func (s *Service) logCacheError(ctx context.Context, err error) {
	if s.logger != nil {
		s.logger.WarnContext(ctx, "registry cache failure", "error", err)
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
