package guard

// Screen identifies a view of the console
type Screen string

// Route is a navigable path
type Route string

// Screens
const (
	ScreenLogin          Screen = "login"
	ScreenRegister       Screen = "register"
	ScreenUnauthorized   Screen = "unauthorized"
	ScreenAdminDashboard Screen = "admin_dashboard"
	ScreenStaffDashboard Screen = "staff_dashboard"
	ScreenProfile        Screen = "profile"
	ScreenUserManagement Screen = "user_management"
	ScreenOffices        Screen = "offices"
	ScreenOfficeAssign   Screen = "office_assignment"
	ScreenItems          Screen = "item_register"
	ScreenInventory      Screen = "inventory"
	ScreenInventoryTools Screen = "inventory_tools"
	ScreenBroadsheet     Screen = "broadsheet"
	ScreenReports        Screen = "reports"
)

// Route path constants
// All console routes are defined here to ensure consistency and prevent typos
const (
	// Public
	RouteLogin        Route = "/login"
	RouteRegister     Route = "/register"
	RouteUnauthorized Route = "/unauthorized"

	// Dashboards
	RouteAdminDashboard Route = "/admin/dashboard"
	RouteStaffDashboard Route = "/staff/dashboard"
	RouteProfile        Route = "/profile"

	// Management
	RouteUsers        Route = "/users"
	RouteOffices      Route = "/offices"
	RouteOfficeAssign Route = "/offices/assign"
	RouteItems        Route = "/items"

	// Inventory
	RouteInventory      Route = "/inventory"
	RouteInventoryTools Route = "/inventory/tools"
	RouteBroadsheet     Route = "/inventory/broadsheet"
	RouteReports        Route = "/reports"
)

var screenRoutes = map[Screen]Route{
	ScreenLogin:          RouteLogin,
	ScreenRegister:       RouteRegister,
	ScreenUnauthorized:   RouteUnauthorized,
	ScreenAdminDashboard: RouteAdminDashboard,
	ScreenStaffDashboard: RouteStaffDashboard,
	ScreenProfile:        RouteProfile,
	ScreenUserManagement: RouteUsers,
	ScreenOffices:        RouteOffices,
	ScreenOfficeAssign:   RouteOfficeAssign,
	ScreenItems:          RouteItems,
	ScreenInventory:      RouteInventory,
	ScreenInventoryTools: RouteInventoryTools,
	ScreenBroadsheet:     RouteBroadsheet,
	ScreenReports:        RouteReports,
}

var screenTitles = map[Screen]string{
	ScreenLogin:          "Sign in",
	ScreenRegister:       "Register",
	ScreenUnauthorized:   "Unauthorized",
	ScreenAdminDashboard: "Dashboard",
	ScreenStaffDashboard: "Dashboard",
	ScreenProfile:        "Profile",
	ScreenUserManagement: "Users",
	ScreenOffices:        "Offices",
	ScreenOfficeAssign:   "Office Assignment",
	ScreenItems:          "Item Register",
	ScreenInventory:      "Inventory",
	ScreenInventoryTools: "Import / Export",
	ScreenBroadsheet:     "Broadsheet",
	ScreenReports:        "Reports",
}

// Path returns the route of the screen, or "" when the screen is unknown
func (s Screen) Path() Route {
	return screenRoutes[s]
}

// Title is the heading shown for the screen
func (s Screen) Title() string {
	return screenTitles[s]
}

// ScreenFor looks up the screen mounted at route
func ScreenFor(route Route) (Screen, bool) {
	for screen, r := range screenRoutes {
		if r == route {
			return screen, true
		}
	}
	return "", false
}

func (r Route) String() string {
	return string(r)
}
