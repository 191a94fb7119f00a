// Package store persists field-level verification records. The upsert is a
// single atomic conditional statement so the lock check and the write cannot
// race.
package store

import (
	"context"

	"origen/internal/verification/models"
	id "origen/pkg/domain"
)

// VerificationStore is the persistence port for verification records.
type VerificationStore interface {
	// Upsert writes the record for (person, field) unless the existing row
	// is locked and the incoming method is not official. It returns the
	// current row either way; applied is false when the lock suppressed the
	// write.
	Upsert(ctx context.Context, record *models.DataVerification) (current *models.DataVerification, applied bool, err error)
	Find(ctx context.Context, personID id.PersonID, field models.Field) (*models.DataVerification, error)
	ListByPerson(ctx context.Context, personID id.PersonID) ([]models.DataVerification, error)
}
