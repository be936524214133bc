package server

import (
	"net/http"

	"github.com/jrsteele09/go-inventory-console/guard"
)

// Action routes posted by the console forms
const (
	RouteLogout          = "/logout"
	RouteOfficeUpdate    = "/offices/{id}/update"
	RouteOfficeDelete    = "/offices/{id}/delete"
	RouteItemUpdate      = "/items/{id}/update"
	RouteItemDelete      = "/items/{id}/delete"
	RouteRecordUpdate    = "/inventory/{id}/update"
	RouteRecordDelete    = "/inventory/{id}/delete"
	RouteUserUpdate      = "/users/{id}/update"
	RouteUserDelete      = "/users/{id}/delete"
	RouteAssignRemove    = "/offices/assign/remove"
	RouteImport          = "/inventory/tools/import"
	RouteTemplate        = "/inventory/tools/template"
	RouteExport          = "/inventory/tools/export"
	RouteBroadsheetFile  = "/inventory/broadsheet/download"
	RouteStatic          = "/static/{file}"
	defaultMaxUploadSize = 10 << 20
)

// guarded runs h behind the console chain and the route guard for screen
func (s *Server) guarded(screen guard.Screen, h http.HandlerFunc) http.HandlerFunc {
	return ChainMiddleware(h, s.HTMLMiddleWare(s.RequireScreen(screen))...)
}

func (s *Server) initRoutes() {
	s.RegisterRouteFunc("GET /{$}", ChainMiddleware(s.IndexHandler(), s.HTMLMiddleWare()...))

	// Public
	s.RegisterRouteFunc("GET "+guard.RouteLogin.String(), s.guarded(guard.ScreenLogin, s.LoginPageHandler()))
	s.RegisterRouteFunc("POST "+guard.RouteLogin.String(), s.guarded(guard.ScreenLogin, s.LoginSubmissionHandler()))
	s.RegisterRouteFunc("GET "+guard.RouteRegister.String(), s.guarded(guard.ScreenRegister, s.RegisterPageHandler()))
	s.RegisterRouteFunc("POST "+guard.RouteRegister.String(), s.guarded(guard.ScreenRegister, s.RegisterSubmissionHandler()))
	s.RegisterRouteFunc("GET "+guard.RouteUnauthorized.String(), s.guarded(guard.ScreenUnauthorized, s.UnauthorizedHandler()))
	s.RegisterRouteFunc("POST "+RouteLogout, ChainMiddleware(s.LogoutHandler(), s.HTMLMiddleWare()...))

	// Dashboards and profile
	s.RegisterRouteFunc("GET "+guard.RouteAdminDashboard.String(), s.guarded(guard.ScreenAdminDashboard, s.DashboardHandler(guard.ScreenAdminDashboard)))
	s.RegisterRouteFunc("GET "+guard.RouteStaffDashboard.String(), s.guarded(guard.ScreenStaffDashboard, s.DashboardHandler(guard.ScreenStaffDashboard)))
	s.RegisterRouteFunc("GET "+guard.RouteProfile.String(), s.guarded(guard.ScreenProfile, s.ProfileHandler()))
	s.RegisterRouteFunc("GET "+guard.RouteReports.String(), s.guarded(guard.ScreenReports, s.ReportsHandler()))

	// User management
	s.RegisterRouteFunc("GET "+guard.RouteUsers.String(), s.guarded(guard.ScreenUserManagement, s.UsersPageHandler()))
	s.RegisterRouteFunc("POST "+guard.RouteUsers.String(), s.guarded(guard.ScreenUserManagement, s.UserCreateHandler()))
	s.RegisterRouteFunc("POST "+RouteUserUpdate, s.guarded(guard.ScreenUserManagement, s.UserUpdateHandler()))
	s.RegisterRouteFunc("POST "+RouteUserDelete, s.guarded(guard.ScreenUserManagement, s.UserDeleteHandler()))

	// Offices
	s.RegisterRouteFunc("GET "+guard.RouteOffices.String(), s.guarded(guard.ScreenOffices, s.OfficesPageHandler()))
	s.RegisterRouteFunc("POST "+guard.RouteOffices.String(), s.guarded(guard.ScreenOffices, s.OfficeCreateHandler()))
	s.RegisterRouteFunc("POST "+RouteOfficeUpdate, s.guarded(guard.ScreenOffices, s.OfficeUpdateHandler()))
	s.RegisterRouteFunc("POST "+RouteOfficeDelete, s.guarded(guard.ScreenOffices, s.OfficeDeleteHandler()))
	s.RegisterRouteFunc("GET "+guard.RouteOfficeAssign.String(), s.guarded(guard.ScreenOfficeAssign, s.AssignPageHandler()))
	s.RegisterRouteFunc("POST "+guard.RouteOfficeAssign.String(), s.guarded(guard.ScreenOfficeAssign, s.AssignHandler()))
	s.RegisterRouteFunc("POST "+RouteAssignRemove, s.guarded(guard.ScreenOfficeAssign, s.AssignRemoveHandler()))

	// Item register
	s.RegisterRouteFunc("GET "+guard.RouteItems.String(), s.guarded(guard.ScreenItems, s.ItemsPageHandler()))
	s.RegisterRouteFunc("POST "+guard.RouteItems.String(), s.guarded(guard.ScreenItems, s.ItemCreateHandler()))
	s.RegisterRouteFunc("POST "+RouteItemUpdate, s.guarded(guard.ScreenItems, s.ItemUpdateHandler()))
	s.RegisterRouteFunc("POST "+RouteItemDelete, s.guarded(guard.ScreenItems, s.ItemDeleteHandler()))

	// Inventory
	s.RegisterRouteFunc("GET "+guard.RouteInventory.String(), s.guarded(guard.ScreenInventory, s.InventoryPageHandler()))
	s.RegisterRouteFunc("POST "+guard.RouteInventory.String(), s.guarded(guard.ScreenInventory, s.RecordCreateHandler()))
	s.RegisterRouteFunc("POST "+RouteRecordUpdate, s.guarded(guard.ScreenInventory, s.RecordUpdateHandler()))
	s.RegisterRouteFunc("POST "+RouteRecordDelete, s.guarded(guard.ScreenInventory, s.RecordDeleteHandler()))

	// Inventory tools and broadsheet
	s.RegisterRouteFunc("GET "+guard.RouteInventoryTools.String(), s.guarded(guard.ScreenInventoryTools, s.ToolsPageHandler()))
	s.RegisterRouteFunc("GET "+RouteTemplate, s.guarded(guard.ScreenInventoryTools, s.TemplateDownloadHandler()))
	s.RegisterRouteFunc("GET "+RouteExport, s.guarded(guard.ScreenInventoryTools, s.ExportDownloadHandler()))
	s.RegisterRouteFunc("POST "+RouteImport, s.guarded(guard.ScreenInventoryTools, s.ImportHandler()))
	s.RegisterRouteFunc("GET "+guard.RouteBroadsheet.String(), s.guarded(guard.ScreenBroadsheet, s.BroadsheetPageHandler()))
	s.RegisterRouteFunc("GET "+RouteBroadsheetFile, s.guarded(guard.ScreenBroadsheet, s.BroadsheetDownloadHandler()))

	s.RegisterRouteFunc("GET "+RouteStatic, ChainMiddleware(s.serveFileHandler(), s.StaticMiddleware()...))
}
