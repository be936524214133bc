package server

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/jrsteele09/go-inventory-console/apiclient"
	"github.com/jrsteele09/go-inventory-console/guard"
	apperrors "github.com/jrsteele09/go-inventory-console/internal/errors"
	"github.com/jrsteele09/go-inventory-console/internal/utils"
	"github.com/jrsteele09/go-inventory-console/users"
)

// LoginPageData contains data for rendering the login page
type LoginPageData struct {
	Username string // Preserve username on error
	Error    string
	Notice   string
}

// IndexHandler lands the browser on its role's default screen
func (s *Server) IndexHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		console := consoleFrom(r.Context())
		principal := console.Session.Principal()
		if !principal.Authenticated {
			redirect(w, r, loginURL(console))
			return
		}
		redirect(w, r, guard.DefaultRoute(principal.Role).String())
	}
}

// LoginPageHandler displays the login page (GET /login)
func (s *Server) LoginPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		console := consoleFrom(r.Context())
		if principal := console.Session.Principal(); principal.Authenticated {
			redirect(w, r, guard.DefaultRoute(principal.Role).String())
			return
		}

		data := LoginPageData{Username: r.URL.Query().Get("username")}
		switch {
		case console.Session.Snapshot().SessionExpired || r.URL.Query().Get("notice") == NoticeExpired:
			data.Notice = "Your session has expired. Please sign in again."
			console.Session.ClearNotice()
		case r.URL.Query().Get("notice") == "registered":
			data.Notice = "Your account has been created. You can now sign in."
		}
		s.render(w, r, http.StatusOK, guard.ScreenLogin, "login.html", data)
	}
}

// LoginSubmissionHandler processes the login form. A credential error is shown inline.
func (s *Server) LoginSubmissionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		console := consoleFrom(r.Context())

		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}
		username := strings.TrimSpace(r.PostFormValue("username"))
		password := r.PostFormValue("password")

		renderError := func(status int, message string) {
			s.render(w, r, status, guard.ScreenLogin, "login.html", LoginPageData{Username: username, Error: message})
		}

		if username == "" || password == "" {
			renderError(http.StatusBadRequest, "Username and password are required.")
			return
		}

		role, err := console.Session.Login(r.Context(), username, password)
		switch {
		case err == nil:
		case apperrors.Is(err, apperrors.ErrAlreadySignedIn):
			redirect(w, r, guard.DefaultRoute(console.Session.Principal().Role).String())
			return
		case apperrors.Is(err, apperrors.ErrInvalidCredentials):
			var httpErr *apiclient.HTTPError
			message := "Invalid username or password."
			if apperrors.As(err, &httpErr) && httpErr.Message != "" {
				message = httpErr.Message
			}
			renderError(http.StatusUnauthorized, message)
			return
		case apperrors.Is(err, apperrors.ErrInvalidToken):
			renderError(http.StatusBadGateway, "The server issued a session the console cannot use. Please contact an administrator.")
			return
		default:
			s.logger.Warn().Err(err).Msg("login failed")
			renderError(http.StatusBadGateway, apiclient.UserMessage(err))
			return
		}

		target := guard.DefaultRoute(role)
		if route, ok := console.TakeNavigation(); ok {
			target = route
		}
		redirect(w, r, target.String())
	}
}

func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		console := consoleFrom(r.Context())
		if err := console.Session.Logout(r.Context()); err != nil {
			s.logger.Err(err).Msg("logout")
		}
		console.TakeNavigation()
		redirect(w, r, guard.RouteLogin.String())
	}
}

type RegisterPageData struct {
	Form  users.Registration
	Error string
}

func (s *Server) RegisterPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.render(w, r, http.StatusOK, guard.ScreenRegister, "register.html", RegisterPageData{})
	}
}

// RegisterSubmissionHandler self-registers a staff account
func (s *Server) RegisterSubmissionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}
		reg := registrationFromForm(r)
		reg.Role = users.RoleStaff

		if r.PostFormValue("password") != r.PostFormValue("confirm_password") {
			reg.Password = ""
			s.render(w, r, http.StatusBadRequest, guard.ScreenRegister, "register.html", RegisterPageData{Form: reg, Error: "Passwords do not match."})
			return
		}

		if _, err := s.auth.Register(r.Context(), reg); err != nil {
			reg.Password = ""
			s.render(w, r, http.StatusBadRequest, guard.ScreenRegister, "register.html", RegisterPageData{Form: reg, Error: apiclient.UserMessage(err)})
			return
		}
		redirect(w, r, guard.RouteLogin.String()+"?notice=registered&username="+url.QueryEscape(reg.Username))
	}
}

func (s *Server) UnauthorizedHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal := consoleFrom(r.Context()).Session.Principal()
		back := guard.RouteLogin
		if principal.Authenticated {
			back = guard.DefaultRoute(principal.Role)
		}
		s.render(w, r, http.StatusForbidden, guard.ScreenUnauthorized, "unauthorized.html", map[string]string{"Back": back.String()})
	}
}

func registrationFromForm(r *http.Request) users.Registration {
	return users.Registration{
		Username:  strings.TrimSpace(r.PostFormValue("username")),
		FirstName: strings.TrimSpace(r.PostFormValue("first_name")),
		LastName:  strings.TrimSpace(r.PostFormValue("last_name")),
		Email:     strings.TrimSpace(r.PostFormValue("email")),
		Password:  r.PostFormValue("password"),
		Role:      users.Role(r.PostFormValue("role")),

		Organization: utils.PtrOrNil(strings.TrimSpace(r.PostFormValue("organization"))),
	}
}
