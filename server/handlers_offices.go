package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/jrsteele09/go-inventory-console/guard"
	"github.com/jrsteele09/go-inventory-console/inventory"
	"github.com/jrsteele09/go-inventory-console/users"
)

type OfficesPageData struct {
	Offices []inventory.Office
}

func officeFromForm(r *http.Request) inventory.OfficeInput {
	return inventory.OfficeInput{
		Name:       strings.TrimSpace(r.PostFormValue("name")),
		Department: strings.TrimSpace(r.PostFormValue("department")),
	}
}

func (s *Server) OfficesPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		offices, err := consoleFrom(r.Context()).Inventory.Offices.List(r.Context())
		if err != nil {
			s.failPage(w, r, err, guard.ScreenOffices, "offices.html", OfficesPageData{})
			return
		}
		s.render(w, r, http.StatusOK, guard.ScreenOffices, "offices.html", OfficesPageData{Offices: offices})
	}
}

func (s *Server) OfficeCreateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		back := guard.RouteOffices.String()
		office, err := consoleFrom(r.Context()).Inventory.Offices.Create(r.Context(), officeFromForm(r))
		if err != nil {
			s.failAction(w, r, err, back)
			return
		}
		s.succeed(w, r, fmt.Sprintf("Office %q created.", office.Name), back)
	}
}

func (s *Server) OfficeUpdateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		back := guard.RouteOffices.String()
		id, err := pathID(r)
		if err != nil {
			s.failAction(w, r, err, back)
			return
		}
		office, err := consoleFrom(r.Context()).Inventory.Offices.Update(r.Context(), id, officeFromForm(r))
		if err != nil {
			s.failAction(w, r, err, back)
			return
		}
		s.succeed(w, r, fmt.Sprintf("Office %q updated.", office.Name), back)
	}
}

func (s *Server) OfficeDeleteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		back := guard.RouteOffices.String()
		id, err := pathID(r)
		if err != nil {
			s.failAction(w, r, err, back)
			return
		}
		if err := consoleFrom(r.Context()).Inventory.Offices.Delete(r.Context(), id); err != nil {
			s.failAction(w, r, err, back)
			return
		}
		s.succeed(w, r, "Office deleted.", back)
	}
}

type AssignPageData struct {
	Staff     []users.StaffUser
	Selected  users.StaffUser
	Current   []users.OfficeRef
	Available []inventory.Office
	// CurrentIDs pre-checks the assignment form
	CurrentIDs []int
}

// AssignPageHandler shows the staff list and, for ?user=, that user's offices
func (s *Server) AssignPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc := consoleFrom(r.Context()).Inventory
		page := AssignPageData{}

		staff, err := svc.Staff.List(r.Context())
		if err != nil {
			s.failPage(w, r, err, guard.ScreenOfficeAssign, "assign.html", page)
			return
		}
		page.Staff = staff

		userID, _ := strconv.Atoi(r.URL.Query().Get("user"))
		for _, u := range staff {
			if u.ID == userID {
				page.Selected = u
			}
		}
		if page.Selected.ID == 0 {
			s.render(w, r, http.StatusOK, guard.ScreenOfficeAssign, "assign.html", page)
			return
		}

		current, err := svc.Assignments.Get(r.Context(), userID)
		if err != nil {
			s.failPage(w, r, err, guard.ScreenOfficeAssign, "assign.html", page)
			return
		}
		offices, err := svc.Offices.List(r.Context())
		if err != nil {
			s.failPage(w, r, err, guard.ScreenOfficeAssign, "assign.html", page)
			return
		}

		page.Current = current
		for _, ref := range current {
			page.CurrentIDs = append(page.CurrentIDs, ref.ID)
		}
		page.Selected.AssignedOffices = current
		page.Available = inventory.Available(offices, page.Selected, staff)
		s.render(w, r, http.StatusOK, guard.ScreenOfficeAssign, "assign.html", page)
	}
}

// AssignHandler makes the user's assignment match the submitted office_ids
func (s *Server) AssignHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		back := guard.RouteOfficeAssign.String()
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}
		userID, err := formInt(r, "user_id", "user")
		if err != nil {
			s.failAction(w, r, err, back)
			return
		}
		back += "?user=" + strconv.Itoa(userID)

		wanted, err := formInts(r, "office_ids")
		if err != nil {
			s.failAction(w, r, err, back)
			return
		}

		svc := consoleFrom(r.Context()).Inventory
		current, err := svc.Assignments.Get(r.Context(), userID)
		if err != nil {
			s.failAction(w, r, err, back)
			return
		}

		add, drop := inventory.Diff(current, wanted)
		if len(add) > 0 {
			if _, err := svc.Assignments.Assign(r.Context(), userID, add); err != nil {
				s.failAction(w, r, err, back)
				return
			}
		}
		for _, officeID := range drop {
			if _, err := svc.Assignments.Remove(r.Context(), userID, officeID); err != nil {
				s.failAction(w, r, err, back)
				return
			}
		}
		s.succeed(w, r, fmt.Sprintf("Assignments updated: %d added, %d removed.", len(add), len(drop)), back)
	}
}

func (s *Server) AssignRemoveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		back := guard.RouteOfficeAssign.String()
		userID, err := formInt(r, "user_id", "user")
		if err != nil {
			s.failAction(w, r, err, back)
			return
		}
		back += "?user=" + strconv.Itoa(userID)
		officeID, err := formInt(r, "office_id", "office")
		if err != nil {
			s.failAction(w, r, err, back)
			return
		}

		res, err := consoleFrom(r.Context()).Inventory.Assignments.Remove(r.Context(), userID, officeID)
		if err != nil {
			s.failAction(w, r, err, back)
			return
		}
		message := "Office removed from user."
		if res.Message != "" {
			message = res.Message
		}
		s.succeed(w, r, message, back)
	}
}
