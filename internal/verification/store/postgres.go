package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"origen/internal/verification/models"
	id "origen/pkg/domain"
	"origen/pkg/platform/sentinel"
)

// Postgres persists verification records in PostgreSQL.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const verificationColumns = `id, person_id, field_name, value, method, status,
	is_verified, is_locked, metadata, notes, verified_at, created_at, updated_at`

// Upsert applies the lock rule inside the statement itself: the conditional
// DO UPDATE only fires when the row is unlocked or the incoming method is
// official, so a concurrent manual writer can never slip past the lock.
// RETURNING yields no row when the update was suppressed; the unchanged row
// is then fetched separately.
func (s *Postgres) Upsert(ctx context.Context, record *models.DataVerification) (*models.DataVerification, bool, error) {
	metadata, err := json.Marshal(record.Metadata)
	if err != nil {
		return nil, false, fmt.Errorf("marshal metadata: %w", err)
	}

	query := `
		INSERT INTO data_verifications (` + verificationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (person_id, field_name) DO UPDATE SET
			value = EXCLUDED.value,
			method = EXCLUDED.method,
			status = EXCLUDED.status,
			is_verified = EXCLUDED.is_verified,
			is_locked = EXCLUDED.is_locked,
			metadata = EXCLUDED.metadata,
			notes = EXCLUDED.notes,
			verified_at = EXCLUDED.verified_at,
			updated_at = EXCLUDED.updated_at
		WHERE data_verifications.is_locked = FALSE
			OR EXCLUDED.method IN ('renapo', 'sat')
		RETURNING ` + verificationColumns

	row := s.db.QueryRowContext(ctx, query,
		uuid.UUID(record.ID), uuid.UUID(record.PersonID), record.Field,
		record.Value, record.Method, record.Status,
		record.IsVerified, record.IsLocked, metadata, record.Notes,
		record.VerifiedAt, record.CreatedAt, record.UpdatedAt,
	)
	current, err := scanVerification(row)
	if err == nil {
		return current, true, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, false, err
	}

	existing, err := s.Find(ctx, record.PersonID, record.Field)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (s *Postgres) Find(ctx context.Context, personID id.PersonID, field models.Field) (*models.DataVerification, error) {
	query := `SELECT ` + verificationColumns + ` FROM data_verifications
		WHERE person_id = $1 AND field_name = $2`
	return scanVerification(s.db.QueryRowContext(ctx, query, uuid.UUID(personID), field))
}

func (s *Postgres) ListByPerson(ctx context.Context, personID id.PersonID) ([]models.DataVerification, error) {
	query := `SELECT ` + verificationColumns + ` FROM data_verifications
		WHERE person_id = $1 ORDER BY field_name`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(personID))
	if err != nil {
		return nil, fmt.Errorf("list verifications: %w", err)
	}
	defer rows.Close()

	var records []models.DataVerification
	for rows.Next() {
		record, err := scanVerification(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	return records, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVerification(row rowScanner) (*models.DataVerification, error) {
	var record models.DataVerification
	var recordUUID, personUUID uuid.UUID
	var metadata []byte
	var notes sql.NullString
	err := row.Scan(&recordUUID, &personUUID, &record.Field, &record.Value,
		&record.Method, &record.Status, &record.IsVerified, &record.IsLocked,
		&metadata, &notes, &record.VerifiedAt, &record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan verification: %w", err)
	}
	record.ID = id.VerificationID(recordUUID)
	record.PersonID = id.PersonID(personUUID)
	record.Notes = notes.String
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &record.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal verification metadata: %w", err)
		}
	}
	return &record, nil
}
