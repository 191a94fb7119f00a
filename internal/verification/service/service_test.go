package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	personmodels "origen/internal/person/models"
	personstore "origen/internal/person/store"
	"origen/internal/verification/models"
	"origen/internal/verification/store"
	id "origen/pkg/domain"
	dErrors "origen/pkg/domain-errors"
	audit "origen/pkg/platform/audit"
	auditpublisher "origen/pkg/platform/audit/publisher"
	auditmemory "origen/pkg/platform/audit/store/memory"
	"origen/pkg/requestcontext"
)

type VerificationEngineSuite struct {
	suite.Suite
	verifications *store.InMemory
	persons       *personstore.InMemoryPersons
	idents        *personstore.InMemoryIdentifications
	accounts      *personstore.InMemoryAccounts
	events        *auditmemory.Store
	service       *Service
	ctx           context.Context
	now           time.Time

	tenantID id.TenantID
	personID id.PersonID
}

func TestVerificationEngineSuite(t *testing.T) {
	suite.Run(t, new(VerificationEngineSuite))
}

func (s *VerificationEngineSuite) SetupTest() {
	s.verifications = store.NewInMemory()
	s.persons = personstore.NewInMemoryPersons()
	s.idents = personstore.NewInMemoryIdentifications()
	s.accounts = personstore.NewInMemoryAccounts()
	s.events = auditmemory.New()
	s.now = time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)

	var err error
	s.service, err = New(s.verifications, s.persons, s.idents, s.accounts,
		WithAuditPublisher(auditpublisher.New(s.events)),
	)
	s.Require().NoError(err)

	s.tenantID = id.TenantID(uuid.New())
	s.personID = id.PersonID(uuid.New())
	person, err := personmodels.NewPerson(s.personID, s.tenantID, "Maria", "Lopez", s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.persons.Create(s.ctx, person))
}

func (s *VerificationEngineSuite) SetupSubTest() {
	s.SetupTest()
}

func (s *VerificationEngineSuite) personRef() personmodels.PersonRef {
	return personmodels.PersonRef{PersonID: s.personID}
}

func (s *VerificationEngineSuite) verify(field models.Field, value string, method models.Method) *models.DataVerification {
	record, err := s.service.Verify(s.ctx, s.personRef(), field, value, method, nil, "")
	s.Require().NoError(err)
	return record
}

func (s *VerificationEngineSuite) TestVerify() {
	s.Run("manual write stays unlocked", func() {
		record := s.verify(models.FieldAddress, "Calle 5 #10", models.MethodManual)
		s.Require().NotNil(record)
		s.True(record.IsVerified)
		s.False(record.IsLocked)
		s.Equal(models.StatusVerified, record.Status)
	})

	s.Run("automated write locks the field", func() {
		record := s.verify(models.FieldPhone, "+525512345678", models.MethodOTP)
		s.True(record.IsLocked)
	})

	s.Run("default notes name the field and method", func() {
		record := s.verify(models.FieldEmail, "maria@example.com", models.MethodOTP)
		s.Equal("Field email verified via otp", record.Notes)
	})

	s.Run("metadata carries the verification timestamp", func() {
		record, err := s.service.Verify(s.ctx, s.personRef(), models.FieldLastName2, "Garcia", models.MethodManual,
			map[string]string{"source": "back-office"}, "checked against contract")
		s.Require().NoError(err)
		s.Equal("back-office", record.Metadata["source"])
		s.Equal(s.now.UTC().Format(time.RFC3339), record.Metadata["verified_at"])
		s.Equal("checked against contract", record.Notes)
	})

	s.Run("unknown person returns not found", func() {
		_, err := s.service.Verify(s.ctx, personmodels.PersonRef{PersonID: id.PersonID(uuid.New())},
			models.FieldCURP, "X", models.MethodManual, nil, "")
		s.Require().Error(err)
		s.Equal(dErrors.CodeNotFound, dErrors.CodeOf(err))
	})
}

func (s *VerificationEngineSuite) TestLockRule() {
	s.Run("locked field silently ignores non-official rewrites", func() {
		locked := s.verify(models.FieldPhone, "+525500000001", models.MethodOTP)
		s.Require().True(locked.IsLocked)

		current, err := s.service.Verify(s.ctx, s.personRef(), models.FieldPhone, "+525599999999", models.MethodManual, nil, "")
		s.Require().NoError(err, "suppressed write is a policy outcome, not an error")
		s.Equal("+525500000001", current.Value)

		blocked := s.events.ByAction(string(audit.EventFieldVerificationBlocked))
		s.Require().Len(blocked, 1)
		s.Equal(s.personID.String(), blocked[0].Subject)
	})

	s.Run("official method overrides the lock", func() {
		s.verify(models.FieldCURP, "wrong-ocr-value", models.MethodINEOCR)

		current := s.verify(models.FieldCURP, "LOMA900101MDFLRR08", models.MethodRENAPO)
		s.Equal("LOMA900101MDFLRR08", current.Value)
		s.Equal(models.MethodRENAPO, current.Method)
		s.True(current.IsLocked)
	})

	s.Run("suppressed writes are idempotent", func() {
		s.verify(models.FieldBirthDate, "1990-01-01", models.MethodRENAPO)
		for range 3 {
			current, err := s.service.Verify(s.ctx, s.personRef(), models.FieldBirthDate, "2000-12-31", models.MethodManual, nil, "")
			s.Require().NoError(err)
			s.Equal("1990-01-01", current.Value)
		}
		s.Len(s.events.ByAction(string(audit.EventFieldVerificationBlocked)), 3)
	})
}

func (s *VerificationEngineSuite) TestKYCCascade() {
	s.Run("non-critical fields never trigger the stamp", func() {
		s.verify(models.FieldEmail, "maria@example.com", models.MethodOTP)
		s.verify(models.FieldPhone, "+525512345678", models.MethodOTP)
		s.verify(models.FieldAddress, "Calle 5", models.MethodManual)

		person, err := s.persons.FindByID(s.ctx, s.personID)
		s.Require().NoError(err)
		s.Equal(personmodels.KYCPending, person.KYCStatus)
	})

	s.Run("all critical fields flip the person exactly once", func() {
		s.verify(models.FieldCURP, "LOMA900101MDFLRR08", models.MethodRENAPO)
		s.verify(models.FieldFirstName, "Maria", models.MethodRENAPO)
		s.verify(models.FieldLastName1, "Lopez", models.MethodRENAPO)

		person, err := s.persons.FindByID(s.ctx, s.personID)
		s.Require().NoError(err)
		s.Equal(personmodels.KYCPending, person.KYCStatus, "incomplete critical set must not flip KYC")

		s.verify(models.FieldBirthDate, "1990-01-01", models.MethodRENAPO)

		person, err = s.persons.FindByID(s.ctx, s.personID)
		s.Require().NoError(err)
		s.Equal(personmodels.KYCVerified, person.KYCStatus)
		s.Require().NotNil(person.KYCVerifiedAt)
		s.Len(s.events.ByAction(string(audit.EventKYCCompleted)), 1)

		// Re-verifying a critical field must not emit a second completion.
		s.verify(models.FieldFirstName, "MARIA", models.MethodRENAPO)
		s.Len(s.events.ByAction(string(audit.EventKYCCompleted)), 1)
	})
}

func (s *VerificationEngineSuite) TestContactAndIdentificationCascade() {
	s.Run("phone verification stamps the person contact", func() {
		s.verify(models.FieldPhone, "+525512345678", models.MethodOTP)

		person, err := s.persons.FindByID(s.ctx, s.personID)
		s.Require().NoError(err)
		s.Require().NotNil(person.PhoneVerifiedAt)
		s.Equal(s.now, *person.PhoneVerifiedAt)
	})

	s.Run("curp verification marks the current identification", func() {
		ident := &personmodels.Identification{
			ID:        id.IdentificationID(uuid.New()),
			PersonID:  s.personID,
			Type:      personmodels.IdentificationCURP,
			Value:     "LOMA900101MDFLRR08",
			Status:    personmodels.IdentificationPending,
			CreatedAt: s.now,
		}
		s.Require().NoError(s.idents.Append(s.ctx, ident))

		s.verify(models.FieldCURP, "LOMA900101MDFLRR08", models.MethodRENAPO)

		current, err := s.idents.FindCurrentByType(s.ctx, s.personID, personmodels.IdentificationCURP)
		s.Require().NoError(err)
		s.Equal(personmodels.IdentificationVerified, current.Status)
		s.Require().NotNil(current.VerifiedAt)
		s.Len(s.events.ByAction(string(audit.EventIdentificationVerified)), 1)
	})

	s.Run("missing identification record is not an error", func() {
		record := s.verify(models.FieldRFC, "LOMA900101AB1", models.MethodSAT)
		s.NotNil(record)
	})
}

func (s *VerificationEngineSuite) TestAccountResolution() {
	s.Run("account with a linked person verifies the person", func() {
		accountID := id.AccountID(uuid.New())
		personID := s.personID
		s.Require().NoError(s.accounts.Create(s.ctx, &personmodels.Account{
			ID: accountID, TenantID: s.tenantID, PersonID: &personID,
		}))

		record, err := s.service.Verify(s.ctx, personmodels.AccountRef{AccountID: accountID},
			models.FieldEmail, "maria@example.com", models.MethodOTP, nil, "")
		s.Require().NoError(err)
		s.Require().NotNil(record)
		s.Equal(s.personID, record.PersonID)
	})

	s.Run("account without a person only gets the contact stamp", func() {
		accountID := id.AccountID(uuid.New())
		s.Require().NoError(s.accounts.Create(s.ctx, &personmodels.Account{
			ID: accountID, TenantID: s.tenantID, Email: "lead@example.com",
		}))

		record, err := s.service.Verify(s.ctx, personmodels.AccountRef{AccountID: accountID},
			models.FieldEmail, "lead@example.com", models.MethodOTP, nil, "")
		s.Require().NoError(err)
		s.Nil(record)

		account, err := s.accounts.FindByID(s.ctx, accountID)
		s.Require().NoError(err)
		s.Require().NotNil(account.EmailVerifiedAt)
	})

	s.Run("unknown account returns not found", func() {
		_, err := s.service.Verify(s.ctx, personmodels.AccountRef{AccountID: id.AccountID(uuid.New())},
			models.FieldEmail, "x", models.MethodOTP, nil, "")
		s.Require().Error(err)
		s.Equal(dErrors.CodeNotFound, dErrors.CodeOf(err))
	})
}

func (s *VerificationEngineSuite) TestQueries() {
	s.Run("IsLocked and IsVerified default to false with no record", func() {
		locked, err := s.service.IsLocked(s.ctx, s.personID, models.FieldCURP)
		s.Require().NoError(err)
		s.False(locked)

		verified, err := s.service.IsVerified(s.ctx, s.personID, models.FieldCURP)
		s.Require().NoError(err)
		s.False(verified)
	})

	s.Run("LockedFields lists only locked records", func() {
		s.verify(models.FieldPhone, "+525512345678", models.MethodOTP)
		s.verify(models.FieldAddress, "Calle 5", models.MethodManual)

		locked, err := s.service.LockedFields(s.ctx, s.personID)
		s.Require().NoError(err)
		s.Equal([]models.Field{models.FieldPhone}, locked)
	})

	s.Run("Summary counts missing fields as pending", func() {
		s.verify(models.FieldCURP, "LOMA900101MDFLRR08", models.MethodRENAPO)
		s.verify(models.FieldAddress, "Calle 5", models.MethodManual)

		summary, err := s.service.Summary(s.ctx, s.personID)
		s.Require().NoError(err)
		s.Equal(len(models.AllFields()), summary.Total)
		s.GreaterOrEqual(summary.Verified, 2)
		s.Equal(summary.Total-summary.Verified, summary.Pending)
		s.True(summary.Fields[models.FieldCURP].Verified)
		s.True(summary.Fields[models.FieldCURP].Locked)
		s.False(summary.Fields[models.FieldAddress].Locked)
		s.False(summary.Fields[models.FieldRFC].Verified)
	})

	s.Run("HasCompletedKYC tracks the critical set", func() {
		done, err := s.service.HasCompletedKYC(s.ctx, s.personID)
		s.Require().NoError(err)
		s.False(done)

		s.verify(models.FieldCURP, "LOMA900101MDFLRR08", models.MethodRENAPO)
		s.verify(models.FieldFirstName, "Maria", models.MethodRENAPO)
		s.verify(models.FieldLastName1, "Lopez", models.MethodRENAPO)
		s.verify(models.FieldBirthDate, "1990-01-01", models.MethodRENAPO)

		done, err = s.service.HasCompletedKYC(s.ctx, s.personID)
		s.Require().NoError(err)
		s.True(done)
	})
}

func (s *VerificationEngineSuite) TestDocumentFlows() {
	s.Run("INE document batch-applies OCR fields", func() {
		record, err := s.service.VerifyINEDocument(s.ctx, s.personRef(), INEOCRResult{
			CURP:      "LOMA900101MDFLRR08",
			FirstName: "Maria",
			LastName1: "Lopez",
			BirthDate: "1990-01-01",
		})
		s.Require().NoError(err)
		s.Require().NotNil(record)
		s.Equal(models.FieldINEDocument, record.Field)
		s.True(record.IsLocked)

		// The OCR-derived fields complete the critical set, so the batch
		// flips the person-level KYC stamp.
		person, err := s.persons.FindByID(s.ctx, s.personID)
		s.Require().NoError(err)
		s.Equal(personmodels.KYCVerified, person.KYCStatus)

		curp, err := s.verifications.Find(s.ctx, s.personID, models.FieldCURP)
		s.Require().NoError(err)
		s.Equal(models.MethodINEOCR, curp.Method)

		s.Len(s.events.ByAction(string(audit.EventDocumentVerificationSaved)), 1)
	})

	s.Run("empty OCR fields are skipped", func() {
		_, err := s.service.VerifyINEDocument(s.ctx, s.personRef(), INEOCRResult{CURP: "LOMA900101MDFLRR08"})
		s.Require().NoError(err)

		_, err = s.verifications.Find(s.ctx, s.personID, models.FieldLastName2)
		s.Require().Error(err)
	})

	s.Run("selfie document records the face match", func() {
		record, err := s.service.VerifySelfieDocument(s.ctx, s.personRef(), SelfieResult{MatchScore: 0.97})
		s.Require().NoError(err)
		s.Equal(models.FieldSelfieDocument, record.Field)
		s.Equal(models.MethodFaceMatch, record.Method)
		s.True(record.IsLocked)
	})

	s.Run("proof of address derives the address field unlocked", func() {
		record, err := s.service.VerifyProofOfAddress(s.ctx, s.personRef(), ProofOfAddressResult{Address: "Av. Reforma 100"})
		s.Require().NoError(err)
		s.Equal(models.FieldProofOfAddress, record.Field)
		s.False(record.IsLocked)

		address, err := s.verifications.Find(s.ctx, s.personID, models.FieldAddress)
		s.Require().NoError(err)
		s.Equal("Av. Reforma 100", address.Value)
		s.False(address.IsLocked)
	})
}
