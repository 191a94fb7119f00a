package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "origen/pkg/domain"
	dErrors "origen/pkg/domain-errors"
)

func newDraft(t *testing.T) *Application {
	t.Helper()
	app, err := NewApplication(
		id.ApplicationID(uuid.New()),
		id.TenantID(uuid.New()),
		id.PersonID(uuid.New()),
		id.ProductID(uuid.New()),
		50000, 24, time.Now(),
	)
	require.NoError(t, err)
	return app
}

func TestNewApplication(t *testing.T) {
	t.Run("starts in DRAFT", func(t *testing.T) {
		app := newDraft(t)
		assert.Equal(t, StatusDraft, app.Status)
		assert.Equal(t, ApplicantPerson, app.ApplicantKind)
		assert.NotNil(t, app.Checklist)
	})

	t.Run("rejects missing tenant", func(t *testing.T) {
		_, err := NewApplication(id.ApplicationID(uuid.New()), id.TenantID{}, id.PersonID(uuid.New()), id.ProductID(uuid.New()), 1000, 12, time.Now())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	t.Run("rejects non-positive amount and term", func(t *testing.T) {
		_, err := NewApplication(id.ApplicationID(uuid.New()), id.TenantID(uuid.New()), id.PersonID(uuid.New()), id.ProductID(uuid.New()), 0, 12, time.Now())
		require.Error(t, err)
		_, err = NewApplication(id.ApplicationID(uuid.New()), id.TenantID(uuid.New()), id.PersonID(uuid.New()), id.ProductID(uuid.New()), 1000, -1, time.Now())
		require.Error(t, err)
	})
}

func TestCanTransitionTo(t *testing.T) {
	app := newDraft(t)

	require.NoError(t, app.CanTransitionTo(StatusSubmitted))

	err := app.CanTransitionTo(StatusApproved)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	assert.Contains(t, err.Error(), "invalid transition from DRAFT to APPROVED")
}

func TestApplyTransitionSideEffects(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

	t.Run("SUBMITTED stamps SubmittedAt", func(t *testing.T) {
		app := newDraft(t)
		app.ApplyTransition(StatusSubmitted, now)
		require.NotNil(t, app.SubmittedAt)
		assert.Equal(t, now, *app.SubmittedAt)
		assert.Equal(t, now, app.UpdatedAt)
	})

	t.Run("APPROVED defaults decision terms from request", func(t *testing.T) {
		app := newDraft(t)
		app.Status = StatusInReview
		app.ApplyTransition(StatusApproved, now)
		require.NotNil(t, app.ApprovedAt)
		assert.Equal(t, app.RequestedAmount, app.ApprovedAmount)
		assert.Equal(t, app.RequestedTerm, app.ApprovedTerm)
	})

	t.Run("APPROVED keeps explicit decision terms", func(t *testing.T) {
		app := newDraft(t)
		app.Status = StatusInReview
		app.ApprovedAmount = 30000
		app.ApprovedTerm = 12
		app.ApplyTransition(StatusApproved, now)
		assert.Equal(t, float64(30000), app.ApprovedAmount)
		assert.Equal(t, 12, app.ApprovedTerm)
	})

	t.Run("REJECTED stamps RejectedAt", func(t *testing.T) {
		app := newDraft(t)
		app.Status = StatusInReview
		app.ApplyTransition(StatusRejected, now)
		require.NotNil(t, app.RejectedAt)
	})

	t.Run("DISBURSED stamps DisbursedAt", func(t *testing.T) {
		app := newDraft(t)
		app.Status = StatusApproved
		app.ApplyTransition(StatusDisbursed, now)
		require.NotNil(t, app.DisbursedAt)
	})
}

func TestIsStale(t *testing.T) {
	now := time.Now()
	threshold := 8 * time.Hour

	app := newDraft(t)
	app.Status = StatusInReview
	app.UpdatedAt = now.Add(-9 * time.Hour)
	assert.True(t, app.IsStale(now, threshold))

	app.UpdatedAt = now.Add(-time.Hour)
	assert.False(t, app.IsStale(now, threshold))

	// Terminal and pre-submission states never count as stale.
	app.Status = StatusDraft
	app.UpdatedAt = now.Add(-48 * time.Hour)
	assert.False(t, app.IsStale(now, threshold))

	app.Status = StatusRejected
	assert.False(t, app.IsStale(now, threshold))
}
