//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	personmodels "origen/internal/person/models"
	personstore "origen/internal/person/store"
	tenantmodels "origen/internal/tenant/models"
	tenantstore "origen/internal/tenant/store"
	"origen/internal/verification/models"
	id "origen/pkg/domain"
	"origen/pkg/platform/sentinel"
	"origen/pkg/testutil/containers"
)

type PostgresVerificationSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *Postgres
	ctx   context.Context

	personID id.PersonID
}

func TestPostgresVerificationSuite(t *testing.T) {
	s := new(PostgresVerificationSuite)
	s.pg = containers.GetPostgres(t)
	suite.Run(t, s)
}

func (s *PostgresVerificationSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = NewPostgres(s.pg.DB)
	s.Require().NoError(s.pg.TruncateTables(s.ctx,
		"data_verifications", "persons", "tenants"))

	tenantID := id.TenantID(uuid.New())
	tenant, err := tenantmodels.NewTenant(tenantID, "Verification Lender", time.Now())
	s.Require().NoError(err)
	s.Require().NoError(tenantstore.NewPostgres(s.pg.DB).CreateIfNameAvailable(s.ctx, tenant))

	s.personID = id.PersonID(uuid.New())
	person, err := personmodels.NewPerson(s.personID, tenantID, "Maria", "Lopez", time.Now())
	s.Require().NoError(err)
	s.Require().NoError(personstore.NewPostgresPersons(s.pg.DB).Create(s.ctx, person))
}

func (s *PostgresVerificationSuite) newRecord(field models.Field, value string, method models.Method) *models.DataVerification {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &models.DataVerification{
		ID:         id.VerificationID(uuid.New()),
		PersonID:   s.personID,
		Field:      field,
		Value:      value,
		Method:     method,
		Status:     models.StatusVerified,
		IsVerified: true,
		IsLocked:   method.Locks(),
		Metadata:   map[string]string{"verified_at": now.Format(time.RFC3339)},
		Notes:      "integration",
		VerifiedAt: now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// TestConditionalUpsert exercises the single-statement lock rule: the update
// arm only fires when the row is unlocked or the incoming method is official.
func (s *PostgresVerificationSuite) TestConditionalUpsert() {
	s.Run("insert applies and round-trips", func() {
		record := s.newRecord(models.FieldCURP, "LOMA900101MDFLRR08", models.MethodINEOCR)
		current, applied, err := s.store.Upsert(s.ctx, record)
		s.Require().NoError(err)
		s.True(applied)
		s.Equal(record.Value, current.Value)
		s.True(current.IsLocked)
		s.NotEmpty(current.Metadata["verified_at"], "metadata survives the JSONB round trip")
	})
}

func (s *PostgresVerificationSuite) TestLockRule() {
	locked := s.newRecord(models.FieldCURP, "ORIGINAL", models.MethodOTP)
	_, applied, err := s.store.Upsert(s.ctx, locked)
	s.Require().NoError(err)
	s.Require().True(applied)

	s.Run("non-official write against a locked row is suppressed", func() {
		attempt := s.newRecord(models.FieldCURP, "TAMPERED", models.MethodManual)
		current, applied, err := s.store.Upsert(s.ctx, attempt)
		s.Require().NoError(err)
		s.False(applied)
		s.Equal("ORIGINAL", current.Value)
		s.Equal(models.MethodOTP, current.Method)
	})

	s.Run("official write overrides the lock", func() {
		official := s.newRecord(models.FieldCURP, "OFFICIAL", models.MethodRENAPO)
		current, applied, err := s.store.Upsert(s.ctx, official)
		s.Require().NoError(err)
		s.True(applied)
		s.Equal("OFFICIAL", current.Value)
		s.Equal(models.MethodRENAPO, current.Method)
	})

	s.Run("updates keep the original row identity", func() {
		found, err := s.store.Find(s.ctx, s.personID, models.FieldCURP)
		s.Require().NoError(err)
		s.Equal(locked.ID, found.ID, "the ON CONFLICT update must not replace the row ID")
	})
}

func (s *PostgresVerificationSuite) TestFindAndList() {
	s.Run("missing record returns ErrNotFound", func() {
		_, err := s.store.Find(s.ctx, s.personID, models.FieldRFC)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("lists only the person's records", func() {
		for _, field := range []models.Field{models.FieldPhone, models.FieldEmail} {
			_, _, err := s.store.Upsert(s.ctx, s.newRecord(field, "v", models.MethodOTP))
			s.Require().NoError(err)
		}

		records, err := s.store.ListByPerson(s.ctx, s.personID)
		s.Require().NoError(err)
		s.Len(records, 2)

		records, err = s.store.ListByPerson(s.ctx, id.PersonID(uuid.New()))
		s.Require().NoError(err)
		s.Empty(records)
	})
}
