// Package guard decides which screens a principal may see. It only shapes the
// console's navigation; the backend enforces authorization on every call.
package guard

import (
	"slices"

	"github.com/jrsteele09/go-inventory-console/users"
)

// Principal is what the guard needs to know about the current session
type Principal struct {
	Authenticated bool
	Role          users.Role
}

// Anonymous is the principal of a signed-out session
var Anonymous = Principal{}

// Signed returns an authenticated principal with role
func Signed(role users.Role) Principal {
	return Principal{Authenticated: true, Role: role}
}

// Decision is either Allow or a redirect target
type Decision struct {
	Allowed  bool
	Redirect Route
}

// Allow lets the screen render
var Allow = Decision{Allowed: true}

// RedirectTo sends the browser to route instead
func RedirectTo(route Route) Decision {
	return Decision{Redirect: route}
}

var (
	allRoles   = []users.Role{users.RoleSuperAdmin, users.RoleAdmin, users.RoleStaff}
	adminRoles = []users.Role{users.RoleSuperAdmin, users.RoleAdmin}
	staffRoles = []users.Role{users.RoleStaff}
)

// public screens render for everyone and have no rule
var public = map[Screen]bool{
	ScreenLogin:        true,
	ScreenRegister:     true,
	ScreenUnauthorized: true,
}

// rules maps every guarded screen to the roles allowed to see it
var rules = map[Screen][]users.Role{
	ScreenAdminDashboard: adminRoles,
	ScreenStaffDashboard: staffRoles,
	ScreenProfile:        allRoles,
	ScreenUserManagement: adminRoles,
	ScreenOffices:        adminRoles,
	ScreenOfficeAssign:   adminRoles,
	ScreenItems:          adminRoles,
	ScreenInventory:      allRoles,
	ScreenInventoryTools: allRoles,
	ScreenBroadsheet:     adminRoles,
	ScreenReports:        allRoles,
}

// sidebar order
var navigation = []Screen{
	ScreenAdminDashboard,
	ScreenStaffDashboard,
	ScreenUserManagement,
	ScreenOffices,
	ScreenOfficeAssign,
	ScreenItems,
	ScreenInventory,
	ScreenInventoryTools,
	ScreenBroadsheet,
	ScreenReports,
	ScreenProfile,
}

// IsPublic reports whether screen renders without a session
func IsPublic(screen Screen) bool {
	return public[screen]
}

// Rules returns a copy of the roles allowed on screen, nil for public or unknown screens
func Rules(screen Screen) []users.Role {
	return slices.Clone(rules[screen])
}

// CanAccess decides whether p may see screen
func CanAccess(screen Screen, p Principal) Decision {
	if public[screen] {
		return Allow
	}
	if !p.Authenticated {
		return RedirectTo(RouteLogin)
	}
	allowed, ok := rules[screen]
	if !ok {
		return RedirectTo(RouteUnauthorized)
	}
	if slices.Contains(allowed, p.Role) {
		return Allow
	}
	return RedirectTo(RouteUnauthorized)
}

// DefaultRoute is where a freshly established session lands
func DefaultRoute(role users.Role) Route {
	switch role {
	case users.RoleSuperAdmin, users.RoleAdmin:
		return RouteAdminDashboard
	case users.RoleStaff:
		return RouteStaffDashboard
	}
	return RouteLogin
}

// Visible lists the screens role can navigate to, in sidebar order
func Visible(role users.Role) []Screen {
	p := Signed(role)
	var screens []Screen
	for _, screen := range navigation {
		if CanAccess(screen, p).Allowed {
			screens = append(screens, screen)
		}
	}
	return screens
}
