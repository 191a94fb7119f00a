package store

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"origen/internal/verification/models"
	id "origen/pkg/domain"
	"origen/pkg/platform/sentinel"
)

type VerificationStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func TestVerificationStoreSuite(t *testing.T) {
	suite.Run(t, new(VerificationStoreSuite))
}

func (s *VerificationStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func (s *VerificationStoreSuite) newRecord(personID id.PersonID, field models.Field, method models.Method) *models.DataVerification {
	now := time.Now()
	return &models.DataVerification{
		ID:         id.VerificationID(uuid.New()),
		PersonID:   personID,
		Field:      field,
		Value:      "value-" + string(field),
		Method:     method,
		Status:     models.StatusVerified,
		IsVerified: true,
		IsLocked:   method.Locks(),
		VerifiedAt: now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func (s *VerificationStoreSuite) TestUpsert() {
	personID := id.PersonID(uuid.New())

	s.Run("first write applies", func() {
		record := s.newRecord(personID, models.FieldCURP, models.MethodManual)
		current, applied, err := s.store.Upsert(s.ctx, record)
		s.Require().NoError(err)
		s.True(applied)
		s.Equal(record.Value, current.Value)
		s.False(current.IsLocked)
	})

	s.Run("unlocked field accepts any overwrite", func() {
		record := s.newRecord(personID, models.FieldCURP, models.MethodOTP)
		record.Value = "overwritten"
		current, applied, err := s.store.Upsert(s.ctx, record)
		s.Require().NoError(err)
		s.True(applied)
		s.Equal("overwritten", current.Value)
		s.True(current.IsLocked, "automated write locks the field")
	})

	s.Run("locked field suppresses non-official writes", func() {
		record := s.newRecord(personID, models.FieldCURP, models.MethodManual)
		record.Value = "attacker"
		current, applied, err := s.store.Upsert(s.ctx, record)
		s.Require().NoError(err)
		s.False(applied)
		s.Equal("overwritten", current.Value, "existing record must come back unchanged")
		s.True(current.IsLocked)
	})

	s.Run("locked field accepts official overrides", func() {
		record := s.newRecord(personID, models.FieldCURP, models.MethodRENAPO)
		record.Value = "official"
		current, applied, err := s.store.Upsert(s.ctx, record)
		s.Require().NoError(err)
		s.True(applied)
		s.Equal("official", current.Value)
		s.Equal(models.MethodRENAPO, current.Method)
	})
}

func (s *VerificationStoreSuite) TestUpsertPreservesIdentity() {
	personID := id.PersonID(uuid.New())

	first := s.newRecord(personID, models.FieldEmail, models.MethodManual)
	stored, applied, err := s.store.Upsert(s.ctx, first)
	s.Require().NoError(err)
	s.Require().True(applied)

	second := s.newRecord(personID, models.FieldEmail, models.MethodOTP)
	updated, applied, err := s.store.Upsert(s.ctx, second)
	s.Require().NoError(err)
	s.Require().True(applied)

	s.Equal(stored.ID, updated.ID, "updates keep the original record ID")
	s.Equal(stored.CreatedAt, updated.CreatedAt, "updates keep the original creation time")
}

func (s *VerificationStoreSuite) TestFind() {
	personID := id.PersonID(uuid.New())

	_, err := s.store.Find(s.ctx, personID, models.FieldCURP)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	record := s.newRecord(personID, models.FieldCURP, models.MethodRENAPO)
	_, _, err = s.store.Upsert(s.ctx, record)
	s.Require().NoError(err)

	found, err := s.store.Find(s.ctx, personID, models.FieldCURP)
	s.Require().NoError(err)
	s.Equal(models.FieldCURP, found.Field)

	// Records are clones; mutating the result must not leak into the store.
	found.Value = "mutated"
	again, err := s.store.Find(s.ctx, personID, models.FieldCURP)
	s.Require().NoError(err)
	s.NotEqual("mutated", again.Value)
}

func (s *VerificationStoreSuite) TestListByPerson() {
	personID := id.PersonID(uuid.New())
	other := id.PersonID(uuid.New())

	for _, field := range []models.Field{models.FieldPhone, models.FieldCURP, models.FieldEmail} {
		_, _, err := s.store.Upsert(s.ctx, s.newRecord(personID, field, models.MethodManual))
		s.Require().NoError(err)
	}
	_, _, err := s.store.Upsert(s.ctx, s.newRecord(other, models.FieldCURP, models.MethodManual))
	s.Require().NoError(err)

	records, err := s.store.ListByPerson(s.ctx, personID)
	s.Require().NoError(err)
	s.Require().Len(records, 3)
	for _, record := range records {
		s.Equal(personID, record.PersonID)
	}
	s.True(records[0].Field < records[1].Field && records[1].Field < records[2].Field,
		"records sorted by field name")
}

// TestConcurrentWritesAgainstLockedRow hammers a locked field with parallel
// manual writes: every one is suppressed and the stored record never changes.
func (s *VerificationStoreSuite) TestConcurrentWritesAgainstLockedRow() {
	personID := id.PersonID(uuid.New())

	locked := s.newRecord(personID, models.FieldCURP, models.MethodOTP)
	locked.Value = "original"
	_, applied, err := s.store.Upsert(s.ctx, locked)
	s.Require().NoError(err)
	s.Require().True(applied)

	const writers = 8
	results := make([]bool, writers)
	var wg sync.WaitGroup
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			attempt := s.newRecord(personID, models.FieldCURP, models.MethodManual)
			attempt.Value = fmt.Sprintf("tampered-%d", i)
			_, ok, err := s.store.Upsert(s.ctx, attempt)
			s.NoError(err)
			results[i] = ok
		}()
	}
	wg.Wait()

	for i, ok := range results {
		s.False(ok, "writer %d must be suppressed", i)
	}

	current, err := s.store.Find(s.ctx, personID, models.FieldCURP)
	s.Require().NoError(err)
	s.Equal("original", current.Value)
	s.Equal(models.MethodOTP, current.Method)
	s.True(current.IsLocked)
}
