package token

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "origen/pkg/domain"
	dErrors "origen/pkg/domain-errors"
)

func TestMintAndValidate(t *testing.T) {
	manager := NewManager("signing-key", time.Hour)
	staffID := id.StaffID(uuid.New())
	tenantID := id.TenantID(uuid.New())
	now := time.Now()

	tokenString, err := manager.Mint(staffID, tenantID, "staff", []string{"applications.status.change"}, now)
	require.NoError(t, err)

	claims, err := manager.Validate(tokenString)
	require.NoError(t, err)
	assert.Equal(t, staffID.String(), claims.Subject)
	assert.Equal(t, tenantID.String(), claims.TenantID)
	assert.Equal(t, "staff", claims.ActorType)
	assert.Equal(t, []string{"applications.status.change"}, claims.Capabilities)
	assert.Equal(t, "origen", claims.Issuer)
}

func TestValidateRejections(t *testing.T) {
	manager := NewManager("signing-key", time.Hour)
	staffID := id.StaffID(uuid.New())
	tenantID := id.TenantID(uuid.New())

	t.Run("wrong signing key", func(t *testing.T) {
		other := NewManager("different-key", time.Hour)
		tokenString, err := other.Mint(staffID, tenantID, "staff", nil, time.Now())
		require.NoError(t, err)

		_, err = manager.Validate(tokenString)
		require.Error(t, err)
		assert.Equal(t, dErrors.CodeUnauthorized, dErrors.CodeOf(err))
	})

	t.Run("expired token", func(t *testing.T) {
		tokenString, err := manager.Mint(staffID, tenantID, "staff", nil, time.Now().Add(-2*time.Hour))
		require.NoError(t, err)

		_, err = manager.Validate(tokenString)
		require.Error(t, err)
		assert.Equal(t, dErrors.CodeUnauthorized, dErrors.CodeOf(err))
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := manager.Validate("not.a.token")
		require.Error(t, err)
		assert.Equal(t, dErrors.CodeUnauthorized, dErrors.CodeOf(err))
	})
}

func TestDefaultTTL(t *testing.T) {
	manager := NewManager("signing-key", 0)
	assert.Equal(t, time.Hour, manager.ttl)
}
