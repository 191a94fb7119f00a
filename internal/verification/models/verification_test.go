package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	personmodels "origen/internal/person/models"
	personstore "origen/internal/person/store"
	dErrors "origen/pkg/domain-errors"
)

func TestParseMethod(t *testing.T) {
	for _, m := range allMethods {
		parsed, err := ParseMethod(string(m))
		require.NoError(t, err)
		assert.Equal(t, m, parsed)
	}

	_, err := ParseMethod("biometrics")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestParseField(t *testing.T) {
	for _, f := range AllFields() {
		parsed, err := ParseField(string(f))
		require.NoError(t, err)
		assert.Equal(t, f, parsed)
	}

	_, err := ParseField("middle_name")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestMethodClassification(t *testing.T) {
	cases := []struct {
		method   Method
		official bool
		locks    bool
	}{
		{MethodOTP, false, true},
		{MethodRENAPO, true, true},
		{MethodSAT, true, true},
		{MethodINEOCR, false, true},
		{MethodFaceMatch, false, true},
		{MethodManual, false, false},
		{MethodDocument, false, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.official, tc.method.IsOfficial(), "%s official", tc.method)
		assert.Equal(t, tc.locks, tc.method.Locks(), "%s locks", tc.method)
	}
}

func TestKYCCriticalFields(t *testing.T) {
	for _, f := range []Field{FieldCURP, FieldFirstName, FieldLastName1, FieldBirthDate} {
		assert.True(t, f.IsKYCCritical(), "%s should be KYC critical", f)
	}
	for _, f := range []Field{FieldRFC, FieldLastName2, FieldPhone, FieldEmail, FieldAddress} {
		assert.False(t, f.IsKYCCritical(), "%s should not be KYC critical", f)
	}
}

func TestFieldMappings(t *testing.T) {
	t.Run("identification types", func(t *testing.T) {
		identType, ok := FieldCURP.IdentificationType()
		require.True(t, ok)
		assert.Equal(t, personmodels.IdentificationCURP, identType)

		identType, ok = FieldRFC.IdentificationType()
		require.True(t, ok)
		assert.Equal(t, personmodels.IdentificationRFC, identType)

		identType, ok = FieldINEDocument.IdentificationType()
		require.True(t, ok)
		assert.Equal(t, personmodels.IdentificationINE, identType)

		_, ok = FieldFirstName.IdentificationType()
		assert.False(t, ok)
	})

	t.Run("contact stamps", func(t *testing.T) {
		contact, ok := FieldPhone.Contact()
		require.True(t, ok)
		assert.Equal(t, personstore.ContactPhone, contact)

		contact, ok = FieldEmail.Contact()
		require.True(t, ok)
		assert.Equal(t, personstore.ContactEmail, contact)

		_, ok = FieldCURP.Contact()
		assert.False(t, ok)
	})
}
