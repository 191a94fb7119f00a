package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "origen/pkg/domain-errors"
)

// TestMatrixClosure verifies every transition row points at known statuses,
// so reachability never leaves the closed status set.
func TestMatrixClosure(t *testing.T) {
	valid := make(map[Status]bool, len(AllStatuses))
	for _, s := range AllStatuses {
		valid[s] = true
	}
	for from, row := range transitions {
		assert.True(t, valid[from], "matrix row keyed on unknown status %s", from)
		for _, to := range row {
			assert.True(t, valid[to], "transition %s -> %s targets unknown status", from, to)
		}
	}
}

// TestTerminalStatusesHaveNoOutgoing verifies terminal statuses reject every
// transition, including self-transitions.
func TestTerminalStatusesHaveNoOutgoing(t *testing.T) {
	for _, from := range AllStatuses {
		if !from.IsTerminal() {
			continue
		}
		for _, to := range AllStatuses {
			assert.False(t, CanTransition(from, to),
				"terminal status %s must not reach %s", from, to)
		}
	}
}

// TestSyncedIsUnreachable verifies no matrix row targets SYNCED; it is set
// only by the external sync bookkeeping, never by a status change.
func TestSyncedIsUnreachable(t *testing.T) {
	for _, from := range AllStatuses {
		assert.False(t, CanTransition(from, StatusSynced),
			"SYNCED must not be reachable from %s", from)
	}
}

// TestCanTransition checks every (from, to) status pair against an
// independently written copy of the transition matrix, so any drift in either
// direction (a lost edge or an extra one) fails loudly.
func TestCanTransition(t *testing.T) {
	expected := map[Status]map[Status]bool{
		StatusDraft:              {StatusSubmitted: true, StatusCancelled: true},
		StatusSubmitted:          {StatusInReview: true, StatusDocsPending: true, StatusCancelled: true},
		StatusInReview:           {StatusDocsPending: true, StatusCorrectionsPending: true, StatusCounterOffered: true, StatusApproved: true, StatusRejected: true, StatusCancelled: true},
		StatusDocsPending:        {StatusInReview: true, StatusCorrectionsPending: true, StatusCancelled: true},
		StatusCorrectionsPending: {StatusInReview: true, StatusCancelled: true},
		StatusCounterOffered:     {StatusInReview: true, StatusApproved: true, StatusRejected: true, StatusCancelled: true},
		StatusApproved:           {StatusDisbursed: true, StatusCancelled: true},
		StatusDisbursed:          {StatusActive: true},
		StatusActive:             {StatusCompleted: true, StatusDefault: true},
		StatusDefault:            {StatusActive: true},
	}

	for _, from := range AllStatuses {
		for _, to := range AllStatuses {
			assert.Equal(t, expected[from][to], CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestGuardTransition(t *testing.T) {
	t.Run("DISBURSED requires APPROVED", func(t *testing.T) {
		require.NoError(t, guardTransition(StatusApproved, StatusDisbursed))
		err := guardTransition(StatusInReview, StatusDisbursed)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	t.Run("ACTIVE requires DISBURSED or DEFAULT", func(t *testing.T) {
		require.NoError(t, guardTransition(StatusDisbursed, StatusActive))
		require.NoError(t, guardTransition(StatusDefault, StatusActive))
		require.Error(t, guardTransition(StatusApproved, StatusActive))
	})

	t.Run("COMPLETED and DEFAULT require ACTIVE", func(t *testing.T) {
		require.NoError(t, guardTransition(StatusActive, StatusCompleted))
		require.NoError(t, guardTransition(StatusActive, StatusDefault))
		require.Error(t, guardTransition(StatusDisbursed, StatusCompleted))
		require.Error(t, guardTransition(StatusDisbursed, StatusDefault))
	})
}

func TestParseStatus(t *testing.T) {
	for _, s := range AllStatuses {
		parsed, err := ParseStatus(string(s))
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}

	_, err := ParseStatus("PENDING")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	_, err = ParseStatus("draft")
	require.Error(t, err, "status parsing is case-sensitive")
}

func TestRestrictedStatuses(t *testing.T) {
	restricted := []Status{
		StatusApproved, StatusRejected, StatusCancelled, StatusDisbursed,
		StatusActive, StatusCompleted, StatusDefault,
	}
	for _, s := range restricted {
		assert.True(t, s.IsRestricted(), "%s should require the elevated capability", s)
	}
	for _, s := range []Status{StatusDraft, StatusSubmitted, StatusInReview, StatusDocsPending, StatusCorrectionsPending, StatusCounterOffered, StatusSynced} {
		assert.False(t, s.IsRestricted(), "%s should use the baseline capability", s)
	}
}

func TestAllowedNextReturnsCopy(t *testing.T) {
	row := AllowedNext(StatusDraft)
	require.NotEmpty(t, row)
	row[0] = StatusSynced
	assert.NotContains(t, AllowedNext(StatusDraft), StatusSynced)
}
