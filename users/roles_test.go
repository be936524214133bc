package users_test

import (
	"testing"

	"github.com/jrsteele09/go-inventory-console/users"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	for _, r := range users.Roles {
		got, err := users.ParseRole(string(r))
		require.NoError(t, err)
		require.Equal(t, r, got)
	}

	_, err := users.ParseRole("Admin")
	require.Error(t, err)
	_, err = users.ParseRole("")
	require.Error(t, err)
}

func TestRole_IsAdmin(t *testing.T) {
	require.True(t, users.RoleSuperAdmin.IsAdmin())
	require.True(t, users.RoleAdmin.IsAdmin())
	require.False(t, users.RoleStaff.IsAdmin())
	require.False(t, users.Role("").IsAdmin())
}

func TestRole_Label(t *testing.T) {
	require.Equal(t, "Super Admin", users.RoleSuperAdmin.Label())
	require.Equal(t, "Unknown", users.Role("janitor").Label())
}
