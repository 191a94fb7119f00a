package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"origen/internal/application/models"
	id "origen/pkg/domain"
	"origen/pkg/platform/sentinel"
	txcontext "origen/pkg/platform/tx"
)

// Postgres persists applications in PostgreSQL. Execute locks the row with
// SELECT ... FOR UPDATE so concurrent transitions serialize on the database
// row; the loser re-validates against the committed status instead of
// clobbering it. When the context carries a transaction (pkg/platform/tx)
// Execute joins it, so the caller can commit the mutation together with other
// tx-aware writes such as the audit outbox.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const applicationColumns = `
	id, tenant_id, applicant_kind, person_id, product_id,
	requested_amount, requested_term, status,
	approved_amount, approved_rate, approved_term, rejection_reason,
	counter_offer, assigned_staff_id, assigned_by, assigned_at,
	risk_level, checklist, risk_data,
	submitted_at, approved_at, rejected_at, disbursed_at, synced_at,
	external_ref, created_at, updated_at`

func (s *Postgres) Create(ctx context.Context, app *models.Application) error {
	counterOffer, err := marshalNullable(app.CounterOffer)
	if err != nil {
		return fmt.Errorf("marshal counter offer: %w", err)
	}
	checklist, err := json.Marshal(app.Checklist)
	if err != nil {
		return fmt.Errorf("marshal checklist: %w", err)
	}
	riskData, err := json.Marshal(app.RiskData)
	if err != nil {
		return fmt.Errorf("marshal risk data: %w", err)
	}

	var assignedStaff, assignedBy any
	var assignedAt any
	if app.Assignment != nil {
		assignedStaff = uuid.UUID(app.Assignment.StaffID)
		assignedBy = uuid.UUID(app.Assignment.AssignedBy)
		assignedAt = app.Assignment.AssignedAt
	}

	query := `
		INSERT INTO applications (` + applicationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		        $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27)
	`
	_, err = s.db.ExecContext(ctx, query,
		uuid.UUID(app.ID), uuid.UUID(app.TenantID), string(app.ApplicantKind),
		nullableUUID(uuid.UUID(app.PersonID)), nullableUUID(uuid.UUID(app.ProductID)),
		app.RequestedAmount, app.RequestedTerm, string(app.Status),
		app.ApprovedAmount, app.ApprovedRate, app.ApprovedTerm, app.RejectionReason,
		counterOffer, assignedStaff, assignedBy, assignedAt,
		app.RiskLevel, checklist, riskData,
		app.SubmittedAt, app.ApprovedAt, app.RejectedAt, app.DisbursedAt, app.SyncedAt,
		app.ExternalRef, app.CreatedAt, app.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert application: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, appID id.ApplicationID) (*models.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE id = $1`
	return scanApplication(s.db.QueryRowContext(ctx, query, uuid.UUID(appID)))
}

func (s *Postgres) FindByTenantAndID(ctx context.Context, tenantID id.TenantID, appID id.ApplicationID) (*models.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE tenant_id = $1 AND id = $2`
	return scanApplication(s.db.QueryRowContext(ctx, query, uuid.UUID(tenantID), uuid.UUID(appID)))
}

func (s *Postgres) Execute(ctx context.Context, appID id.ApplicationID, fn TransitionFunc) (*models.Application, error) {
	sqlTx, joined := txcontext.From(ctx)
	if !joined {
		var err error
		sqlTx, err = s.db.BeginTx(ctx, nil)
		if err != nil {
			return nil, fmt.Errorf("begin transition tx: %w", err)
		}
		// The joined case leaves commit and rollback to the transaction owner.
		defer func() { _ = sqlTx.Rollback() }()
	}

	query := `SELECT ` + applicationColumns + ` FROM applications WHERE id = $1 FOR UPDATE`
	app, err := scanApplication(sqlTx.QueryRowContext(ctx, query, uuid.UUID(appID)))
	if err != nil {
		return nil, err
	}

	entry, err := fn(app)
	if err != nil {
		return nil, err
	}

	if err := updateApplication(ctx, sqlTx, app); err != nil {
		return nil, err
	}

	if entry != nil {
		metadata, err := json.Marshal(entry.Metadata)
		if err != nil {
			return nil, fmt.Errorf("marshal history metadata: %w", err)
		}
		historyQuery := `
			INSERT INTO application_status_history
				(application_id, old_status, new_status, actor_id, actor_type, reason, metadata, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`
		if _, err := sqlTx.ExecContext(ctx, historyQuery,
			uuid.UUID(appID), string(entry.OldStatus), string(entry.NewStatus),
			entry.ActorID, entry.ActorType, entry.Reason, metadata, entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("insert status history: %w", err)
		}
	}

	if !joined {
		if err := sqlTx.Commit(); err != nil {
			return nil, fmt.Errorf("commit transition tx: %w", err)
		}
	}
	return app, nil
}

func updateApplication(ctx context.Context, sqlTx *sql.Tx, app *models.Application) error {
	counterOffer, err := marshalNullable(app.CounterOffer)
	if err != nil {
		return fmt.Errorf("marshal counter offer: %w", err)
	}
	checklist, err := json.Marshal(app.Checklist)
	if err != nil {
		return fmt.Errorf("marshal checklist: %w", err)
	}
	riskData, err := json.Marshal(app.RiskData)
	if err != nil {
		return fmt.Errorf("marshal risk data: %w", err)
	}

	var assignedStaff, assignedBy any
	var assignedAt any
	if app.Assignment != nil {
		assignedStaff = uuid.UUID(app.Assignment.StaffID)
		assignedBy = uuid.UUID(app.Assignment.AssignedBy)
		assignedAt = app.Assignment.AssignedAt
	}

	query := `
		UPDATE applications SET
			status = $2,
			approved_amount = $3, approved_rate = $4, approved_term = $5,
			rejection_reason = $6, counter_offer = $7,
			assigned_staff_id = $8, assigned_by = $9, assigned_at = $10,
			risk_level = $11, checklist = $12, risk_data = $13,
			submitted_at = $14, approved_at = $15, rejected_at = $16,
			disbursed_at = $17, synced_at = $18, external_ref = $19,
			updated_at = $20
		WHERE id = $1
	`
	_, err = sqlTx.ExecContext(ctx, query,
		uuid.UUID(app.ID), string(app.Status),
		app.ApprovedAmount, app.ApprovedRate, app.ApprovedTerm,
		app.RejectionReason, counterOffer,
		assignedStaff, assignedBy, assignedAt,
		app.RiskLevel, checklist, riskData,
		app.SubmittedAt, app.ApprovedAt, app.RejectedAt,
		app.DisbursedAt, app.SyncedAt, app.ExternalRef,
		app.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update application: %w", err)
	}
	return nil
}

func (s *Postgres) ListHistory(ctx context.Context, appID id.ApplicationID) ([]models.StatusHistoryEntry, error) {
	query := `
		SELECT id, application_id, old_status, new_status, actor_id, actor_type, reason, metadata, created_at
		FROM application_status_history
		WHERE application_id = $1
		ORDER BY id
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(appID))
	if err != nil {
		return nil, fmt.Errorf("list status history: %w", err)
	}
	defer rows.Close()

	var entries []models.StatusHistoryEntry
	for rows.Next() {
		var entry models.StatusHistoryEntry
		var appUUID uuid.UUID
		var oldStatus, newStatus string
		var metadata []byte
		if err := rows.Scan(&entry.ID, &appUUID, &oldStatus, &newStatus,
			&entry.ActorID, &entry.ActorType, &entry.Reason, &metadata, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan status history: %w", err)
		}
		entry.ApplicationID = id.ApplicationID(appUUID)
		entry.OldStatus = models.Status(oldStatus)
		entry.NewStatus = models.Status(newStatus)
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &entry.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal history metadata: %w", err)
			}
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (s *Postgres) CountByTenant(ctx context.Context, tenantID id.TenantID) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM applications WHERE tenant_id = $1`, uuid.UUID(tenantID),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count applications: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApplication(row rowScanner) (*models.Application, error) {
	var app models.Application
	var appUUID, tenantUUID uuid.UUID
	var personUUID, productUUID uuid.NullUUID
	var applicantKind, status string
	var counterOffer, checklist, riskData []byte
	var assignedStaff, assignedBy uuid.NullUUID
	var assignedAt sql.NullTime

	err := row.Scan(
		&appUUID, &tenantUUID, &applicantKind, &personUUID, &productUUID,
		&app.RequestedAmount, &app.RequestedTerm, &status,
		&app.ApprovedAmount, &app.ApprovedRate, &app.ApprovedTerm, &app.RejectionReason,
		&counterOffer, &assignedStaff, &assignedBy, &assignedAt,
		&app.RiskLevel, &checklist, &riskData,
		&app.SubmittedAt, &app.ApprovedAt, &app.RejectedAt, &app.DisbursedAt, &app.SyncedAt,
		&app.ExternalRef, &app.CreatedAt, &app.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan application: %w", err)
	}

	app.ID = id.ApplicationID(appUUID)
	app.TenantID = id.TenantID(tenantUUID)
	app.ApplicantKind = models.ApplicantKind(applicantKind)
	app.Status = models.Status(status)
	if personUUID.Valid {
		app.PersonID = id.PersonID(personUUID.UUID)
	}
	if productUUID.Valid {
		app.ProductID = id.ProductID(productUUID.UUID)
	}
	if len(counterOffer) > 0 {
		var offer models.CounterOffer
		if err := json.Unmarshal(counterOffer, &offer); err != nil {
			return nil, fmt.Errorf("unmarshal counter offer: %w", err)
		}
		app.CounterOffer = &offer
	}
	if len(checklist) > 0 {
		if err := json.Unmarshal(checklist, &app.Checklist); err != nil {
			return nil, fmt.Errorf("unmarshal checklist: %w", err)
		}
	}
	if len(riskData) > 0 {
		if err := json.Unmarshal(riskData, &app.RiskData); err != nil {
			return nil, fmt.Errorf("unmarshal risk data: %w", err)
		}
	}
	if assignedStaff.Valid && assignedAt.Valid {
		assignment := models.Assignment{
			StaffID:    id.StaffID(assignedStaff.UUID),
			AssignedAt: assignedAt.Time,
		}
		if assignedBy.Valid {
			assignment.AssignedBy = id.StaffID(assignedBy.UUID)
		}
		app.Assignment = &assignment
	}
	return &app, nil
}

func marshalNullable(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch typed := v.(type) {
	case *models.CounterOffer:
		if typed == nil {
			return nil, nil
		}
	}
	return json.Marshal(v)
}

func nullableUUID(u uuid.UUID) any {
	if u == uuid.Nil {
		return nil
	}
	return u
}
