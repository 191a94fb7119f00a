package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"origen/internal/tenant/models"
	id "origen/pkg/domain"
	"origen/pkg/platform/sentinel"
)

// Postgres persists tenants in PostgreSQL. Name uniqueness is enforced by a
// unique index on LOWER(name).
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) CreateIfNameAvailable(ctx context.Context, tenant *models.Tenant) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tenants (id, name, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`, uuid.UUID(tenant.ID), tenant.Name, tenant.Status, tenant.CreatedAt, tenant.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert tenant: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, tenantID id.TenantID) (*models.Tenant, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, status, created_at, updated_at
		FROM tenants WHERE id = $1
	`, uuid.UUID(tenantID))
	return scanTenant(row)
}

func (s *Postgres) FindByName(ctx context.Context, name string) (*models.Tenant, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, status, created_at, updated_at
		FROM tenants WHERE LOWER(name) = LOWER($1)
	`, name)
	return scanTenant(row)
}

// Execute locks the tenant row for the duration of validate and mutate so
// concurrent lifecycle toggles serialize on the current status.
func (s *Postgres) Execute(ctx context.Context, tenantID id.TenantID, validate func(*models.Tenant) error, mutate func(*models.Tenant)) (*models.Tenant, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `
		SELECT id, name, status, created_at, updated_at
		FROM tenants WHERE id = $1
		FOR UPDATE
	`, uuid.UUID(tenantID))
	tenant, err := scanTenant(row)
	if err != nil {
		return nil, err
	}

	if err := validate(tenant); err != nil {
		return nil, err
	}
	mutate(tenant)

	_, err = tx.ExecContext(ctx, `
		UPDATE tenants SET name = $2, status = $3, updated_at = $4 WHERE id = $1
	`, uuid.UUID(tenant.ID), tenant.Name, tenant.Status, tenant.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("update tenant: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tenant update: %w", err)
	}
	return tenant, nil
}

func (s *Postgres) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tenants`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count tenants: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTenant(row rowScanner) (*models.Tenant, error) {
	var tenant models.Tenant
	var tenantUUID uuid.UUID
	err := row.Scan(&tenantUUID, &tenant.Name, &tenant.Status, &tenant.CreatedAt, &tenant.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan tenant: %w", err)
	}
	tenant.ID = id.TenantID(tenantUUID)
	return &tenant, nil
}
