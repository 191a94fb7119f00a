package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"origen/internal/staff/models"
	id "origen/pkg/domain"
	"origen/pkg/platform/sentinel"
)

// Postgres persists staff records in PostgreSQL.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const staffColumns = `id, tenant_id, name, email, role, capabilities, secret_hash, active, created_at, updated_at`

func (s *Postgres) Create(ctx context.Context, staff *models.Staff) error {
	query := `
		INSERT INTO staff (` + staffColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(staff.ID), uuid.UUID(staff.TenantID), staff.Name,
		strings.ToLower(staff.Email), staff.Role, pq.Array(staff.Capabilities),
		staff.SecretHash, staff.Active, staff.CreatedAt, staff.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert staff: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, staffID id.StaffID) (*models.Staff, error) {
	query := `SELECT ` + staffColumns + ` FROM staff WHERE id = $1`
	return scanStaff(s.db.QueryRowContext(ctx, query, uuid.UUID(staffID)))
}

func (s *Postgres) FindByEmail(ctx context.Context, email string) (*models.Staff, error) {
	query := `SELECT ` + staffColumns + ` FROM staff WHERE email = $1`
	return scanStaff(s.db.QueryRowContext(ctx, query, strings.ToLower(email)))
}

func (s *Postgres) CountByTenant(ctx context.Context, tenantID id.TenantID) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM staff WHERE tenant_id = $1`, uuid.UUID(tenantID),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count staff: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStaff(row rowScanner) (*models.Staff, error) {
	var staff models.Staff
	var staffUUID, tenantUUID uuid.UUID
	var capabilities pq.StringArray
	err := row.Scan(&staffUUID, &tenantUUID, &staff.Name, &staff.Email, &staff.Role,
		&capabilities, &staff.SecretHash, &staff.Active, &staff.CreatedAt, &staff.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan staff: %w", err)
	}
	staff.ID = id.StaffID(staffUUID)
	staff.TenantID = id.TenantID(tenantUUID)
	staff.Capabilities = capabilities
	return &staff, nil
}
