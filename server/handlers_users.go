package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-inventory-console/guard"
	"github.com/jrsteele09/go-inventory-console/users"
)

type UsersPageData struct {
	Users []users.StaffUser
	Roles []users.Role
	// CanGrantSuperAdmin is true when the signed-in user may create super admins
	CanGrantSuperAdmin bool
}

func (s *Server) UsersPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		console := consoleFrom(r.Context())
		page := UsersPageData{
			Roles:              users.Roles,
			CanGrantSuperAdmin: console.Session.Principal().Role == users.RoleSuperAdmin,
		}

		list, err := console.Inventory.Staff.List(r.Context())
		if err != nil {
			s.failPage(w, r, err, guard.ScreenUserManagement, "users.html", page)
			return
		}
		page.Users = list
		s.render(w, r, http.StatusOK, guard.ScreenUserManagement, "users.html", page)
	}
}

func (s *Server) UserCreateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		back := guard.RouteUsers.String()
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}
		reg := registrationFromForm(r)
		if reg.Role == "" {
			reg.Role = users.RoleStaff
		}

		created, err := consoleFrom(r.Context()).Inventory.Staff.Create(r.Context(), reg)
		if err != nil {
			s.failAction(w, r, err, back)
			return
		}
		s.succeed(w, r, fmt.Sprintf("User %q created.", created.Username), back)
	}
}

func (s *Server) UserUpdateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		back := guard.RouteUsers.String()
		id, err := pathID(r)
		if err != nil {
			s.failAction(w, r, err, back)
			return
		}
		in := users.StaffUpdate{
			Username:     strings.TrimSpace(r.PostFormValue("username")),
			FirstName:    strings.TrimSpace(r.PostFormValue("first_name")),
			LastName:     strings.TrimSpace(r.PostFormValue("last_name")),
			Email:        strings.TrimSpace(r.PostFormValue("email")),
			Organization: strings.TrimSpace(r.PostFormValue("organization")),
			Role:         users.Role(r.PostFormValue("role")),
		}

		updated, err := consoleFrom(r.Context()).Inventory.Staff.Update(r.Context(), id, in)
		if err != nil {
			s.failAction(w, r, err, back)
			return
		}
		s.succeed(w, r, fmt.Sprintf("User %q updated.", updated.Username), back)
	}
}

func (s *Server) UserDeleteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		back := guard.RouteUsers.String()
		id, err := pathID(r)
		if err != nil {
			s.failAction(w, r, err, back)
			return
		}
		if err := consoleFrom(r.Context()).Inventory.Staff.Delete(r.Context(), id); err != nil {
			s.failAction(w, r, err, back)
			return
		}
		s.succeed(w, r, "User deleted.", back)
	}
}
