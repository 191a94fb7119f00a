// Package store persists tenant records.
package store

import (
	"context"

	"origen/internal/tenant/models"
	id "origen/pkg/domain"
)

// TenantStore is the persistence port for tenants. Execute holds the row
// lock across validate and mutate so lifecycle toggles serialize.
type TenantStore interface {
	// CreateIfNameAvailable inserts the tenant unless the name is taken
	// (case-insensitive). Returns sentinel.ErrAlreadyUsed on collision.
	CreateIfNameAvailable(ctx context.Context, tenant *models.Tenant) error
	FindByID(ctx context.Context, tenantID id.TenantID) (*models.Tenant, error)
	FindByName(ctx context.Context, name string) (*models.Tenant, error)
	Execute(ctx context.Context, tenantID id.TenantID, validate func(*models.Tenant) error, mutate func(*models.Tenant)) (*models.Tenant, error)
	Count(ctx context.Context) (int, error)
}
