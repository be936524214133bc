package guard_test

import (
	"testing"

	"github.com/jrsteele09/go-inventory-console/guard"
	"github.com/jrsteele09/go-inventory-console/users"
	"github.com/stretchr/testify/require"
)

func TestCanAccess(t *testing.T) {
	tests := []struct {
		name   string
		screen guard.Screen
		p      guard.Principal
		want   guard.Decision
	}{
		{"public for anonymous", guard.ScreenLogin, guard.Anonymous, guard.Allow},
		{"public for signed in", guard.ScreenUnauthorized, guard.Signed(users.RoleStaff), guard.Allow},
		{"anonymous on guarded", guard.ScreenInventory, guard.Anonymous, guard.RedirectTo(guard.RouteLogin)},
		{"staff on admin dashboard", guard.ScreenAdminDashboard, guard.Signed(users.RoleStaff), guard.RedirectTo(guard.RouteUnauthorized)},
		{"admin on admin dashboard", guard.ScreenAdminDashboard, guard.Signed(users.RoleAdmin), guard.Allow},
		{"super admin on user management", guard.ScreenUserManagement, guard.Signed(users.RoleSuperAdmin), guard.Allow},
		{"admin on staff dashboard", guard.ScreenStaffDashboard, guard.Signed(users.RoleAdmin), guard.RedirectTo(guard.RouteUnauthorized)},
		{"staff on inventory", guard.ScreenInventory, guard.Signed(users.RoleStaff), guard.Allow},
		{"staff on broadsheet", guard.ScreenBroadsheet, guard.Signed(users.RoleStaff), guard.RedirectTo(guard.RouteUnauthorized)},
		{"unknown screen", guard.Screen("secret"), guard.Signed(users.RoleSuperAdmin), guard.RedirectTo(guard.RouteUnauthorized)},
		{"unknown role", guard.ScreenProfile, guard.Signed(users.Role("janitor")), guard.RedirectTo(guard.RouteUnauthorized)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, guard.CanAccess(tt.screen, tt.p))
		})
	}
}

func TestCanAccess_Deterministic(t *testing.T) {
	p := guard.Signed(users.RoleAdmin)
	first := guard.CanAccess(guard.ScreenItems, p)
	for range 10 {
		require.Equal(t, first, guard.CanAccess(guard.ScreenItems, p))
	}
}

func TestDefaultRoute(t *testing.T) {
	require.Equal(t, guard.RouteAdminDashboard, guard.DefaultRoute(users.RoleSuperAdmin))
	require.Equal(t, guard.RouteAdminDashboard, guard.DefaultRoute(users.RoleAdmin))
	require.Equal(t, guard.RouteStaffDashboard, guard.DefaultRoute(users.RoleStaff))
	require.Equal(t, guard.RouteLogin, guard.DefaultRoute(""))
}

func TestDefaultRoute_IsAccessible(t *testing.T) {
	for _, role := range users.Roles {
		screen, ok := guard.ScreenFor(guard.DefaultRoute(role))
		require.True(t, ok)
		require.True(t, guard.CanAccess(screen, guard.Signed(role)).Allowed, role)
	}
}

func TestVisible(t *testing.T) {
	staff := guard.Visible(users.RoleStaff)
	require.Equal(t, []guard.Screen{
		guard.ScreenStaffDashboard,
		guard.ScreenInventory,
		guard.ScreenInventoryTools,
		guard.ScreenReports,
		guard.ScreenProfile,
	}, staff)

	admin := guard.Visible(users.RoleAdmin)
	require.Contains(t, admin, guard.ScreenBroadsheet)
	require.NotContains(t, admin, guard.ScreenStaffDashboard)
}

func TestRules(t *testing.T) {
	require.Nil(t, guard.Rules(guard.ScreenLogin))
	roles := guard.Rules(guard.ScreenOffices)
	require.ElementsMatch(t, []users.Role{users.RoleSuperAdmin, users.RoleAdmin}, roles)

	roles[0] = users.RoleStaff
	require.Equal(t, guard.RedirectTo(guard.RouteUnauthorized), guard.CanAccess(guard.ScreenOffices, guard.Signed(users.RoleStaff)))
}

func TestScreen_Path(t *testing.T) {
	require.Equal(t, guard.RouteBroadsheet, guard.ScreenBroadsheet.Path())
	require.Equal(t, guard.Route(""), guard.Screen("nope").Path())
	require.True(t, guard.IsPublic(guard.ScreenRegister))
}
