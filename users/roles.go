package users

import "fmt"

// Role represents the coarse authorization tier decoded from the access token.
// It only decides which screens the console renders; the backend enforces access.
type Role string

const (
	RoleSuperAdmin Role = "super_admin" // Full control including user management
	RoleAdmin      Role = "admin"       // Manages offices, items and inventory
	RoleStaff      Role = "staff"       // Works with the inventory of assigned offices
)

// Roles lists every known role, highest privilege first
var Roles = []Role{RoleSuperAdmin, RoleAdmin, RoleStaff}

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleStaff:
		return true
	}
	return false
}

// IsAdmin is true for admin and super_admin
func (r Role) IsAdmin() bool {
	return r == RoleSuperAdmin || r == RoleAdmin
}

func (r Role) String() string {
	return string(r)
}

// Label is the human readable role name used by the console
func (r Role) Label() string {
	switch r {
	case RoleSuperAdmin:
		return "Super Admin"
	case RoleAdmin:
		return "Admin"
	case RoleStaff:
		return "Staff"
	}
	return "Unknown"
}

// ParseRole converts a claim value into a Role
func ParseRole(value string) (Role, error) {
	r := Role(value)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", value)
	}
	return r, nil
}
