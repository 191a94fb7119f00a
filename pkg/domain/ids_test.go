package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "origen/pkg/domain-errors"
)

func TestParseApplicationID(t *testing.T) {
	t.Run("valid UUID round-trips", func(t *testing.T) {
		raw := uuid.New().String()
		parsed, err := ParseApplicationID(raw)
		require.NoError(t, err)
		assert.Equal(t, raw, parsed.String())
	})

	t.Run("rejects empty, malformed and nil UUIDs", func(t *testing.T) {
		for _, raw := range []string{"", "not-a-uuid", uuid.Nil.String()} {
			_, err := ParseApplicationID(raw)
			require.Error(t, err, "input %q", raw)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
		}
	})
}

func TestIsNil(t *testing.T) {
	assert.True(t, TenantID{}.IsNil())
	assert.True(t, StaffID{}.IsNil())
	assert.False(t, TenantID(uuid.New()).IsNil())
}

func TestTypedIDsAreDistinct(t *testing.T) {
	// Identical underlying UUIDs still print the same, but the named types
	// keep the compiler from mixing them; this just pins the String format.
	raw := uuid.New()
	assert.Equal(t, raw.String(), PersonID(raw).String())
	assert.Equal(t, raw.String(), VerificationID(raw).String())
}
