package users_test

import (
	"encoding/json"
	"testing"

	"github.com/jrsteele09/go-inventory-console/users"
	"github.com/stretchr/testify/require"
)

func TestProfile_AssignedOfficeShapes(t *testing.T) {
	raw := `{
		"username": "jo",
		"email": "jo@example.com",
		"assigned_offices": [3, "7", "Registry", {"id": 9, "name": "Finance"}]
	}`

	var p users.Profile
	require.NoError(t, json.Unmarshal([]byte(raw), &p))
	require.Equal(t, []users.OfficeRef{
		{ID: 3},
		{ID: 7},
		{Name: "Registry"},
		{ID: 9, Name: "Finance"},
	}, p.AssignedOffices)

	require.Equal(t, "Office #3", p.AssignedOffices[0].Display())
	require.Equal(t, "Finance", p.AssignedOffices[3].Display())
}

func TestOfficeRef_Invalid(t *testing.T) {
	var o users.OfficeRef
	require.Error(t, json.Unmarshal([]byte(`true`), &o))
}

func TestStaffUser_DisplayName(t *testing.T) {
	require.Equal(t, "Ada Lovelace", users.StaffUser{Username: "ada", FirstName: "Ada", LastName: "Lovelace"}.DisplayName())
	require.Equal(t, "ada", users.StaffUser{Username: "ada"}.DisplayName())
}

func TestValidatePasswordStrength(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		require.NoError(t, users.ValidatePasswordStrength("Secret123"))
	})
	t.Run("TooShort", func(t *testing.T) {
		require.ErrorContains(t, users.ValidatePasswordStrength("Ab1"), "8 characters")
	})
	t.Run("NoUpper", func(t *testing.T) {
		require.ErrorContains(t, users.ValidatePasswordStrength("secret123"), "uppercase")
	})
	t.Run("NoNumber", func(t *testing.T) {
		require.ErrorContains(t, users.ValidatePasswordStrength("SecretSecret"), "number")
	})
}
