// Package store persists loan applications and their status history.
//
// Mutating operations use the Execute callback pattern: the store holds the
// row lock (mutex in memory, SELECT ... FOR UPDATE in Postgres) across
// validation and mutation, so a transition is always validated against the
// current committed status. The history entry returned by the callback is
// appended in the same transaction; no status change is observable without
// its history record.
package store

import (
	"context"

	"origen/internal/application/models"
	id "origen/pkg/domain"
)

// TransitionFunc validates and applies one mutation against the locked
// application. Returning an error aborts with full rollback. Returning a
// non-nil history entry appends it atomically with the mutation.
type TransitionFunc func(app *models.Application) (*models.StatusHistoryEntry, error)

// ApplicationStore is the persistence port for the status engine.
type ApplicationStore interface {
	Create(ctx context.Context, app *models.Application) error
	FindByID(ctx context.Context, appID id.ApplicationID) (*models.Application, error)
	FindByTenantAndID(ctx context.Context, tenantID id.TenantID, appID id.ApplicationID) (*models.Application, error)
	// Execute loads the application under a row lock, applies fn, persists
	// the result, and appends the returned history entry atomically.
	Execute(ctx context.Context, appID id.ApplicationID, fn TransitionFunc) (*models.Application, error)
	ListHistory(ctx context.Context, appID id.ApplicationID) ([]models.StatusHistoryEntry, error)
	CountByTenant(ctx context.Context, tenantID id.TenantID) (int, error)
}
