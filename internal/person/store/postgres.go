package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"origen/internal/person/models"
	id "origen/pkg/domain"
	"origen/pkg/platform/sentinel"
)

// PostgresPersons persists person records in PostgreSQL.
type PostgresPersons struct {
	db *sql.DB
}

func NewPostgresPersons(db *sql.DB) *PostgresPersons {
	return &PostgresPersons{db: db}
}

const personColumns = `id, tenant_id, first_name, last_name_1, last_name_2, birth_date,
	curp, rfc, email, phone, email_verified_at, phone_verified_at,
	kyc_status, kyc_verified_at, created_at, updated_at`

func (s *PostgresPersons) Create(ctx context.Context, person *models.Person) error {
	query := `
		INSERT INTO persons (` + personColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(person.ID), uuid.UUID(person.TenantID),
		person.FirstName, person.LastName1, person.LastName2, person.BirthDate,
		person.CURP, person.RFC, person.Email, person.Phone,
		person.EmailVerifiedAt, person.PhoneVerifiedAt,
		person.KYCStatus, person.KYCVerifiedAt, person.CreatedAt, person.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert person: %w", err)
	}
	return nil
}

func (s *PostgresPersons) FindByID(ctx context.Context, personID id.PersonID) (*models.Person, error) {
	query := `SELECT ` + personColumns + ` FROM persons WHERE id = $1`
	row := s.db.QueryRowContext(ctx, query, uuid.UUID(personID))

	var person models.Person
	var personUUID, tenantUUID uuid.UUID
	var lastName2, birthDate, curp, rfc, email, phone sql.NullString
	var emailVerifiedAt, phoneVerifiedAt, kycVerifiedAt sql.NullTime
	err := row.Scan(&personUUID, &tenantUUID,
		&person.FirstName, &person.LastName1, &lastName2, &birthDate,
		&curp, &rfc, &email, &phone,
		&emailVerifiedAt, &phoneVerifiedAt,
		&person.KYCStatus, &kycVerifiedAt, &person.CreatedAt, &person.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan person: %w", err)
	}
	person.ID = id.PersonID(personUUID)
	person.TenantID = id.TenantID(tenantUUID)
	person.LastName2 = lastName2.String
	person.BirthDate = birthDate.String
	person.CURP = curp.String
	person.RFC = rfc.String
	person.Email = email.String
	person.Phone = phone.String
	person.EmailVerifiedAt = timePtr(emailVerifiedAt)
	person.PhoneVerifiedAt = timePtr(phoneVerifiedAt)
	person.KYCVerifiedAt = timePtr(kycVerifiedAt)
	return &person, nil
}

// MarkKYCVerified stamps the one-way transition in a single conditional
// update so concurrent cascades flip the status at most once.
func (s *PostgresPersons) MarkKYCVerified(ctx context.Context, personID id.PersonID, at time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE persons
		SET kyc_status = $2, kyc_verified_at = $3, updated_at = $3
		WHERE id = $1 AND kyc_status = $4
	`, uuid.UUID(personID), models.KYCVerified, at, models.KYCPending)
	if err != nil {
		return false, fmt.Errorf("mark kyc verified: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark kyc verified: %w", err)
	}
	return affected == 1, nil
}

func (s *PostgresPersons) SetContactVerified(ctx context.Context, personID id.PersonID, contact Contact, at time.Time) error {
	column, err := contactColumn(contact)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE persons SET `+column+` = $2, updated_at = $2 WHERE id = $1`,
		uuid.UUID(personID), at)
	if err != nil {
		return fmt.Errorf("set contact verified: %w", err)
	}
	return requireOneRow(res)
}

// PostgresIdentifications persists versioned identification records.
type PostgresIdentifications struct {
	db *sql.DB
}

func NewPostgresIdentifications(db *sql.DB) *PostgresIdentifications {
	return &PostgresIdentifications{db: db}
}

func (s *PostgresIdentifications) Append(ctx context.Context, ident *models.Identification) error {
	// The subselect assigns the next version under the (person, type, version)
	// unique constraint; a concurrent duplicate insert surfaces as 23505.
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO identifications (id, person_id, type, value, status, version, verified_at, created_at)
		VALUES ($1, $2, $3, $4, $5,
			(SELECT COALESCE(MAX(version), 0) + 1 FROM identifications WHERE person_id = $2 AND type = $3),
			$6, $7)
		RETURNING version
	`, uuid.UUID(ident.ID), uuid.UUID(ident.PersonID), ident.Type, ident.Value,
		ident.Status, ident.VerifiedAt, ident.CreatedAt,
	).Scan(&ident.Version)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert identification: %w", err)
	}
	return nil
}

func (s *PostgresIdentifications) FindCurrentByType(ctx context.Context, personID id.PersonID, identType models.IdentificationType) (*models.Identification, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, person_id, type, value, status, version, verified_at, created_at
		FROM identifications
		WHERE person_id = $1 AND type = $2
		ORDER BY version DESC
		LIMIT 1
	`, uuid.UUID(personID), identType)

	var ident models.Identification
	var identUUID, personUUID uuid.UUID
	var verifiedAt sql.NullTime
	err := row.Scan(&identUUID, &personUUID, &ident.Type, &ident.Value,
		&ident.Status, &ident.Version, &verifiedAt, &ident.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan identification: %w", err)
	}
	ident.ID = id.IdentificationID(identUUID)
	ident.PersonID = id.PersonID(personUUID)
	ident.VerifiedAt = timePtr(verifiedAt)
	return &ident, nil
}

func (s *PostgresIdentifications) MarkVerified(ctx context.Context, identID id.IdentificationID, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE identifications SET status = $2, verified_at = $3 WHERE id = $1`,
		uuid.UUID(identID), models.IdentificationVerified, at)
	if err != nil {
		return fmt.Errorf("mark identification verified: %w", err)
	}
	return requireOneRow(res)
}

// PostgresAccounts persists account records.
type PostgresAccounts struct {
	db *sql.DB
}

func NewPostgresAccounts(db *sql.DB) *PostgresAccounts {
	return &PostgresAccounts{db: db}
}

func (s *PostgresAccounts) Create(ctx context.Context, account *models.Account) error {
	var personID any
	if account.PersonID != nil {
		personID = uuid.UUID(*account.PersonID)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (id, tenant_id, person_id, email, phone,
			email_verified_at, phone_verified_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, uuid.UUID(account.ID), uuid.UUID(account.TenantID), personID,
		account.Email, account.Phone,
		account.EmailVerifiedAt, account.PhoneVerifiedAt,
		account.CreatedAt, account.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (s *PostgresAccounts) FindByID(ctx context.Context, accountID id.AccountID) (*models.Account, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, person_id, email, phone,
			email_verified_at, phone_verified_at, created_at, updated_at
		FROM accounts WHERE id = $1
	`, uuid.UUID(accountID))

	var account models.Account
	var accountUUID, tenantUUID uuid.UUID
	var personUUID uuid.NullUUID
	var email, phone sql.NullString
	var emailVerifiedAt, phoneVerifiedAt sql.NullTime
	err := row.Scan(&accountUUID, &tenantUUID, &personUUID, &email, &phone,
		&emailVerifiedAt, &phoneVerifiedAt, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}
	account.ID = id.AccountID(accountUUID)
	account.TenantID = id.TenantID(tenantUUID)
	if personUUID.Valid {
		personID := id.PersonID(personUUID.UUID)
		account.PersonID = &personID
	}
	account.Email = email.String
	account.Phone = phone.String
	account.EmailVerifiedAt = timePtr(emailVerifiedAt)
	account.PhoneVerifiedAt = timePtr(phoneVerifiedAt)
	return &account, nil
}

func (s *PostgresAccounts) SetContactVerified(ctx context.Context, accountID id.AccountID, contact Contact, at time.Time) error {
	column, err := contactColumn(contact)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE accounts SET `+column+` = $2, updated_at = $2 WHERE id = $1`,
		uuid.UUID(accountID), at)
	if err != nil {
		return fmt.Errorf("set contact verified: %w", err)
	}
	return requireOneRow(res)
}

func contactColumn(contact Contact) (string, error) {
	switch contact {
	case ContactPhone:
		return "phone_verified_at", nil
	case ContactEmail:
		return "email_verified_at", nil
	default:
		return "", fmt.Errorf("unknown contact kind %q", contact)
	}
}

func requireOneRow(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
