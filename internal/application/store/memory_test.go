package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"origen/internal/application/models"
	id "origen/pkg/domain"
	"origen/pkg/platform/sentinel"
)

type ApplicationStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func TestApplicationStoreSuite(t *testing.T) {
	suite.Run(t, new(ApplicationStoreSuite))
}

func (s *ApplicationStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func (s *ApplicationStoreSuite) newApp(tenantID id.TenantID) *models.Application {
	app, err := models.NewApplication(
		id.ApplicationID(uuid.New()), tenantID,
		id.PersonID(uuid.New()), id.ProductID(uuid.New()),
		25000, 18, time.Now(),
	)
	s.Require().NoError(err)
	return app
}

func (s *ApplicationStoreSuite) TestCreateAndFind() {
	s.Run("creates and finds by ID", func() {
		app := s.newApp(id.TenantID(uuid.New()))
		s.Require().NoError(s.store.Create(s.ctx, app))

		found, err := s.store.FindByID(s.ctx, app.ID)
		s.Require().NoError(err)
		s.Equal(app.ID, found.ID)
		s.Equal(models.StatusDraft, found.Status)
	})

	s.Run("rejects duplicate ID", func() {
		app := s.newApp(id.TenantID(uuid.New()))
		s.Require().NoError(s.store.Create(s.ctx, app))
		s.ErrorIs(s.store.Create(s.ctx, app), sentinel.ErrAlreadyUsed)
	})

	s.Run("returns ErrNotFound for unknown ID", func() {
		_, err := s.store.FindByID(s.ctx, id.ApplicationID(uuid.New()))
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("FindByTenantAndID enforces tenant scope", func() {
		tenantID := id.TenantID(uuid.New())
		app := s.newApp(tenantID)
		s.Require().NoError(s.store.Create(s.ctx, app))

		found, err := s.store.FindByTenantAndID(s.ctx, tenantID, app.ID)
		s.Require().NoError(err)
		s.Equal(app.ID, found.ID)

		_, err = s.store.FindByTenantAndID(s.ctx, id.TenantID(uuid.New()), app.ID)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *ApplicationStoreSuite) TestExecute() {
	s.Run("commits mutation and history together", func() {
		app := s.newApp(id.TenantID(uuid.New()))
		s.Require().NoError(s.store.Create(s.ctx, app))

		updated, err := s.store.Execute(s.ctx, app.ID, func(a *models.Application) (*models.StatusHistoryEntry, error) {
			a.ApplyTransition(models.StatusSubmitted, time.Now())
			return &models.StatusHistoryEntry{
				OldStatus: models.StatusDraft,
				NewStatus: models.StatusSubmitted,
			}, nil
		})
		s.Require().NoError(err)
		s.Equal(models.StatusSubmitted, updated.Status)

		entries, err := s.store.ListHistory(s.ctx, app.ID)
		s.Require().NoError(err)
		s.Require().Len(entries, 1)
		s.Equal(models.StatusDraft, entries[0].OldStatus)
		s.Equal(models.StatusSubmitted, entries[0].NewStatus)
	})

	s.Run("callback error leaves record untouched", func() {
		app := s.newApp(id.TenantID(uuid.New()))
		s.Require().NoError(s.store.Create(s.ctx, app))

		boom := errors.New("refused")
		_, err := s.store.Execute(s.ctx, app.ID, func(a *models.Application) (*models.StatusHistoryEntry, error) {
			a.Status = models.StatusApproved
			return nil, boom
		})
		s.Require().ErrorIs(err, boom)

		found, err := s.store.FindByID(s.ctx, app.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusDraft, found.Status)
	})

	s.Run("history append failure rolls back the mutation", func() {
		app := s.newApp(id.TenantID(uuid.New()))
		s.Require().NoError(s.store.Create(s.ctx, app))

		boom := errors.New("history write failed")
		s.store.FailNextHistoryAppend(boom)
		_, err := s.store.Execute(s.ctx, app.ID, func(a *models.Application) (*models.StatusHistoryEntry, error) {
			a.ApplyTransition(models.StatusSubmitted, time.Now())
			return &models.StatusHistoryEntry{OldStatus: models.StatusDraft, NewStatus: models.StatusSubmitted}, nil
		})
		s.Require().ErrorIs(err, boom)

		found, err := s.store.FindByID(s.ctx, app.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusDraft, found.Status)

		entries, err := s.store.ListHistory(s.ctx, app.ID)
		s.Require().NoError(err)
		s.Empty(entries)
	})

	s.Run("nil history entry commits without a log row", func() {
		app := s.newApp(id.TenantID(uuid.New()))
		s.Require().NoError(s.store.Create(s.ctx, app))

		now := time.Now()
		_, err := s.store.Execute(s.ctx, app.ID, func(a *models.Application) (*models.StatusHistoryEntry, error) {
			a.Assignment = &models.Assignment{StaffID: id.StaffID(uuid.New()), AssignedAt: now}
			return nil, nil
		})
		s.Require().NoError(err)

		entries, err := s.store.ListHistory(s.ctx, app.ID)
		s.Require().NoError(err)
		s.Empty(entries)
	})
}

func (s *ApplicationStoreSuite) TestHistoryOrdering() {
	app := s.newApp(id.TenantID(uuid.New()))
	s.Require().NoError(s.store.Create(s.ctx, app))

	steps := []models.Status{models.StatusSubmitted, models.StatusInReview, models.StatusApproved}
	prev := models.StatusDraft
	for _, next := range steps {
		target := next
		from := prev
		_, err := s.store.Execute(s.ctx, app.ID, func(a *models.Application) (*models.StatusHistoryEntry, error) {
			a.ApplyTransition(target, time.Now())
			return &models.StatusHistoryEntry{OldStatus: from, NewStatus: target}, nil
		})
		s.Require().NoError(err)
		prev = next
	}

	entries, err := s.store.ListHistory(s.ctx, app.ID)
	s.Require().NoError(err)
	s.Require().Len(entries, 3)
	for i, next := range steps {
		s.Equal(next, entries[i].NewStatus)
	}
	s.Less(entries[0].ID, entries[1].ID)
	s.Less(entries[1].ID, entries[2].ID)
}

func (s *ApplicationStoreSuite) TestCountByTenant() {
	tenantA := id.TenantID(uuid.New())
	tenantB := id.TenantID(uuid.New())
	for range 3 {
		s.Require().NoError(s.store.Create(s.ctx, s.newApp(tenantA)))
	}
	s.Require().NoError(s.store.Create(s.ctx, s.newApp(tenantB)))

	count, err := s.store.CountByTenant(s.ctx, tenantA)
	s.Require().NoError(err)
	s.Equal(3, count)

	count, err = s.store.CountByTenant(s.ctx, tenantB)
	s.Require().NoError(err)
	s.Equal(1, count)
}
