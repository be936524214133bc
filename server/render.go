package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/jrsteele09/go-inventory-console/apiclient"
	"github.com/jrsteele09/go-inventory-console/guard"
	apperrors "github.com/jrsteele09/go-inventory-console/internal/errors"
	"github.com/jrsteele09/go-inventory-console/server/consolesession"
	"github.com/jrsteele09/go-inventory-console/token"
	"github.com/jrsteele09/go-inventory-console/users"
)

//go:embed templates/*
var templateFiles embed.FS

const contentTypeHTML = "text/html; charset=utf-8"

var pageNames = []string{
	"login.html",
	"register.html",
	"unauthorized.html",
	"dashboard.html",
	"profile.html",
	"users.html",
	"offices.html",
	"assign.html",
	"items.html",
	"inventory.html",
	"tools.html",
	"broadsheet.html",
	"reports.html",
}

// pages holds every page template, each parsed together with the layout
type pages struct {
	byName map[string]*template.Template
}

var templateFuncs = template.FuncMap{
	"roleLabel": func(r users.Role) string { return r.Label() },
	"add":       func(a, b int) int { return a + b },
	// Replaced per render with the console's token
	"xsrfField": func() template.HTML { return "" },
	"contains": func(ids []int, id int) bool {
		for _, v := range ids {
			if v == id {
				return true
			}
		}
		return false
	},
}

func parsePages() (*pages, error) {
	p := &pages{byName: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		tmpl, err := template.New("layout.html").Funcs(templateFuncs).ParseFS(templateFiles, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", name, err)
		}
		p.byName[name] = tmpl
	}
	return p, nil
}

type navLink struct {
	Path   string
	Title  string
	Active bool
}

// pageData is what layout.html renders around every page
type pageData struct {
	AppName  string
	Title    string
	SignedIn bool
	Username string
	Role     users.Role
	Nav      []navLink
	Flash    *consolesession.Flash
	Data     any

	XSRFToken string
}

func (s *Server) newPageData(r *http.Request, screen guard.Screen, data any) pageData {
	console := consoleFrom(r.Context())
	snap := console.Session.Snapshot()
	pd := pageData{
		AppName:  s.config.GetAppName(),
		Title:    screen.Title(),
		SignedIn: snap.Principal().Authenticated,
		Role:     snap.Role,
		Flash:    console.TakeFlash(),
		Data:     data,
	}
	token, err := s.xsrfToken(console.ID)
	if err != nil {
		s.logger.Err(err).Msg("issuing XSRF token")
	}
	pd.XSRFToken = token
	if pd.SignedIn {
		if claims := s.claims(r); claims != nil {
			pd.Username = claims.Username
		}
		for _, visible := range guard.Visible(snap.Role) {
			pd.Nav = append(pd.Nav, navLink{Path: visible.Path().String(), Title: visible.Title(), Active: visible == screen})
		}
	}
	return pd
}

// claims decodes the console's current access token, nil when signed out
func (s *Server) claims(r *http.Request) *token.Claims {
	access, err := consoleFrom(r.Context()).Session.AccessToken(r.Context())
	if err != nil || access == "" {
		return nil
	}
	claims, err := s.decoder.Decode(access)
	if err != nil {
		return nil
	}
	return claims
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, screen guard.Screen, name string, data any) {
	s.renderPage(w, status, name, s.newPageData(r, screen, data))
}

func (s *Server) renderPage(w http.ResponseWriter, status int, name string, pd pageData) {
	master, ok := s.pages.byName[name]
	if !ok {
		s.logger.Error().Str("template", name).Msg("unknown template")
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}
	// The parsed pages are never executed, so each render can clone one and bind its token
	tmpl, err := master.Clone()
	if err != nil {
		s.logger.Err(err).Str("template", name).Msg("Failed to clone template")
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}
	tmpl.Funcs(template.FuncMap{"xsrfField": func() template.HTML { return xsrfField(pd.XSRFToken) }})

	// Rendered to a buffer so a template error never leaves half a page
	var buf bytes.Buffer
	if err = tmpl.ExecuteTemplate(&buf, "layout.html", pd); err != nil {
		s.logger.Err(err).Str("template", name).Msg("Failed to render template")
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentTypeHTML)
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// interrupt redirects when err ended the session or hit a role the backend
// refused. It reports whether the response has been written.
func (s *Server) interrupt(w http.ResponseWriter, r *http.Request, err error) bool {
	console := consoleFrom(r.Context())
	switch {
	case apperrors.Is(err, apperrors.ErrSessionExpired), apperrors.Is(err, apperrors.ErrSessionEnded):
		console.TakeNavigation()
		redirect(w, r, loginURL(console))
		return true
	case apperrors.Is(err, apperrors.ErrForbiddenRole):
		redirect(w, r, guard.RouteUnauthorized.String())
		return true
	}
	return false
}

// failAction handles an error from a form action: it redirects to the login
// or unauthorized page, or flashes the message and goes back.
func (s *Server) failAction(w http.ResponseWriter, r *http.Request, err error, back string) {
	s.logger.Warn().Err(err).Str("path", r.URL.Path).Msg("console action failed")
	if s.interrupt(w, r, err) {
		return
	}
	consoleFrom(r.Context()).SetFlash(consolesession.FlashError, apiclient.UserMessage(err))
	redirect(w, r, back)
}

// failPage handles an error while loading a page. Transient failures render
// the page empty with the message.
func (s *Server) failPage(w http.ResponseWriter, r *http.Request, err error, screen guard.Screen, name string, empty any) {
	s.logger.Warn().Err(err).Str("path", r.URL.Path).Msg("console page failed")
	if s.interrupt(w, r, err) {
		return
	}
	pd := s.newPageData(r, screen, empty)
	pd.Flash = &consolesession.Flash{Kind: consolesession.FlashError, Message: apiclient.UserMessage(err)}
	s.renderPage(w, http.StatusOK, name, pd)
}

// succeed flashes message and redirects to back
func (s *Server) succeed(w http.ResponseWriter, r *http.Request, message, back string) {
	consoleFrom(r.Context()).SetFlash(consolesession.FlashSuccess, message)
	redirect(w, r, back)
}
