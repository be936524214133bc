package server

import (
	"net/http"
	"time"

	"github.com/jrsteele09/go-inventory-console/guard"
	"github.com/jrsteele09/go-inventory-console/inventory"
	"github.com/jrsteele09/go-inventory-console/users"
)

type DashboardPageData struct {
	Admin   bool
	Profile users.Profile
	Offices []inventory.Office
	Stats   inventory.Stats
}

// DashboardHandler renders either dashboard; both load profile, offices and stats together
func (s *Server) DashboardHandler(screen guard.Screen) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		console := consoleFrom(r.Context())
		empty := DashboardPageData{Admin: screen == guard.ScreenAdminDashboard}

		data, err := console.Inventory.Dashboard(r.Context())
		if err != nil {
			s.failPage(w, r, err, screen, "dashboard.html", empty)
			return
		}

		page := empty
		page.Offices = data.Offices
		if data.Profile != nil {
			page.Profile = *data.Profile
		}
		if data.Stats != nil {
			page.Stats = *data.Stats
		}
		s.render(w, r, http.StatusOK, screen, "dashboard.html", page)
	}
}

type ProfilePageData struct {
	Profile     users.Profile
	Role        users.Role
	TokenValid  bool
	TokenExpiry time.Time
}

func (s *Server) ProfileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		console := consoleFrom(r.Context())
		page := ProfilePageData{Role: console.Session.Principal().Role}

		profile, err := console.Inventory.Staff.Profile(r.Context())
		if err != nil {
			s.failPage(w, r, err, guard.ScreenProfile, "profile.html", page)
			return
		}
		page.Profile = *profile

		// Role and expiry as the console reads them from the current access token
		if access, err := console.Session.AccessToken(r.Context()); err == nil {
			if claims, err := s.decoder.Decode(access); err == nil {
				tok := claims.OAuth2Token(access)
				page.TokenValid = tok.Valid()
				page.TokenExpiry = tok.Expiry
			}
		}
		s.render(w, r, http.StatusOK, guard.ScreenProfile, "profile.html", page)
	}
}

type ReportsPageData struct {
	Stats   inventory.Stats
	Records inventory.Page[inventory.Record]
	Page    int
}

// ReportsHandler shows the inventory totals with one page of records
func (s *Server) ReportsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		console := consoleFrom(r.Context())
		page := ReportsPageData{Page: pageParam(r)}

		stats, err := console.Inventory.Records.Stats(r.Context())
		if err != nil {
			s.failPage(w, r, err, guard.ScreenReports, "reports.html", page)
			return
		}
		page.Stats = *stats

		records, err := console.Inventory.Records.List(r.Context(), page.Page)
		if err != nil {
			s.failPage(w, r, err, guard.ScreenReports, "reports.html", page)
			return
		}
		page.Records = *records
		s.render(w, r, http.StatusOK, guard.ScreenReports, "reports.html", page)
	}
}
