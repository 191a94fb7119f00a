package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"origen/internal/person/models"
	id "origen/pkg/domain"
	"origen/pkg/platform/sentinel"
)

type PersonStoreSuite struct {
	suite.Suite
	persons *InMemoryPersons
	idents  *InMemoryIdentifications
	ctx     context.Context
}

func TestPersonStoreSuite(t *testing.T) {
	suite.Run(t, new(PersonStoreSuite))
}

func (s *PersonStoreSuite) SetupTest() {
	s.persons = NewInMemoryPersons()
	s.idents = NewInMemoryIdentifications()
	s.ctx = context.Background()
}

func (s *PersonStoreSuite) newPerson() *models.Person {
	person, err := models.NewPerson(id.PersonID(uuid.New()), id.TenantID(uuid.New()), "Juan", "Perez", time.Now())
	s.Require().NoError(err)
	s.Require().NoError(s.persons.Create(s.ctx, person))
	return person
}

func (s *PersonStoreSuite) TestMarkKYCVerified() {
	person := s.newPerson()
	at := time.Now()

	s.Run("flips pending to verified", func() {
		flipped, err := s.persons.MarkKYCVerified(s.ctx, person.ID, at)
		s.Require().NoError(err)
		s.True(flipped)

		found, err := s.persons.FindByID(s.ctx, person.ID)
		s.Require().NoError(err)
		s.Equal(models.KYCVerified, found.KYCStatus)
		s.Require().NotNil(found.KYCVerifiedAt)
	})

	s.Run("second call reports no flip", func() {
		flipped, err := s.persons.MarkKYCVerified(s.ctx, person.ID, at.Add(time.Hour))
		s.Require().NoError(err)
		s.False(flipped)

		// The original stamp survives.
		found, err := s.persons.FindByID(s.ctx, person.ID)
		s.Require().NoError(err)
		s.Equal(at, *found.KYCVerifiedAt)
	})

	s.Run("unknown person errors", func() {
		_, err := s.persons.MarkKYCVerified(s.ctx, id.PersonID(uuid.New()), at)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *PersonStoreSuite) TestSetContactVerified() {
	person := s.newPerson()
	at := time.Now()

	s.Require().NoError(s.persons.SetContactVerified(s.ctx, person.ID, ContactPhone, at))
	s.Require().NoError(s.persons.SetContactVerified(s.ctx, person.ID, ContactEmail, at))

	found, err := s.persons.FindByID(s.ctx, person.ID)
	s.Require().NoError(err)
	s.NotNil(found.PhoneVerifiedAt)
	s.NotNil(found.EmailVerifiedAt)
}

func (s *PersonStoreSuite) TestIdentificationVersioning() {
	person := s.newPerson()

	s.Run("appends assign increasing versions per type", func() {
		first := &models.Identification{ID: id.IdentificationID(uuid.New()), PersonID: person.ID, Type: models.IdentificationCURP, Value: "A"}
		second := &models.Identification{ID: id.IdentificationID(uuid.New()), PersonID: person.ID, Type: models.IdentificationCURP, Value: "B"}
		other := &models.Identification{ID: id.IdentificationID(uuid.New()), PersonID: person.ID, Type: models.IdentificationRFC, Value: "R"}

		s.Require().NoError(s.idents.Append(s.ctx, first))
		s.Require().NoError(s.idents.Append(s.ctx, second))
		s.Require().NoError(s.idents.Append(s.ctx, other))

		s.Equal(1, first.Version)
		s.Equal(2, second.Version)
		s.Equal(1, other.Version, "versions are scoped per identification type")
	})

	s.Run("FindCurrentByType returns the highest version", func() {
		current, err := s.idents.FindCurrentByType(s.ctx, person.ID, models.IdentificationCURP)
		s.Require().NoError(err)
		s.Equal("B", current.Value)
		s.Equal(2, current.Version)
	})

	s.Run("missing type returns ErrNotFound", func() {
		_, err := s.idents.FindCurrentByType(s.ctx, person.ID, models.IdentificationINE)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("MarkVerified stamps the record", func() {
		current, err := s.idents.FindCurrentByType(s.ctx, person.ID, models.IdentificationCURP)
		s.Require().NoError(err)

		at := time.Now()
		s.Require().NoError(s.idents.MarkVerified(s.ctx, current.ID, at))

		again, err := s.idents.FindCurrentByType(s.ctx, person.ID, models.IdentificationCURP)
		s.Require().NoError(err)
		s.Equal(models.IdentificationVerified, again.Status)
		s.Require().NotNil(again.VerifiedAt)
	})
}
