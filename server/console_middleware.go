package server

import (
	"context"
	"net/http"
	"net/url"

	"github.com/jrsteele09/go-inventory-console/guard"
	"github.com/jrsteele09/go-inventory-console/server/consolesession"
)

type contextKey string

const contextKeyConsole contextKey = "console"

// NoticeExpired is the login page notice after a forced sign-out
const NoticeExpired = "expired"

func consoleFrom(ctx context.Context) *consolesession.Console {
	c, _ := ctx.Value(contextKeyConsole).(*consolesession.Console)
	return c
}

// ConsoleMiddleware loads the browser's console session, creating one and
// setting its cookie on first contact. A pending forced sign-out is delivered
// here as a redirect to the login page.
func (s *Server) ConsoleMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			console *consolesession.Console
			err     error
		)
		if id, ok := s.consoleID(r); ok {
			console, err = s.consoles.Open(r.Context(), id)
		} else {
			console, err = s.consoles.Create(r.Context())
			if err == nil {
				err = s.setConsoleCookie(w, r, console.ID)
			}
		}
		if err != nil {
			s.logger.Error().Err(err).Msg("loading console session")
			http.Error(w, "500 - Console session unavailable", http.StatusInternalServerError)
			return
		}

		if route, ok := console.TakeNavigation(); ok && route == guard.RouteLogin && r.Method == http.MethodGet {
			if screen, known := guard.ScreenFor(guard.Route(r.URL.Path)); !known || !guard.IsPublic(screen) {
				redirect(w, r, loginURL(console))
				return
			}
		}

		next(w, r.WithContext(context.WithValue(r.Context(), contextKeyConsole, console)))
	}
}

// RequireScreen applies the route guard for screen to the console's principal
func (s *Server) RequireScreen(screen guard.Screen) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			console := consoleFrom(r.Context())
			decision := guard.CanAccess(screen, console.Session.Principal())
			if decision.Allowed {
				next(w, r)
				return
			}

			target := decision.Redirect.String()
			if decision.Redirect == guard.RouteLogin {
				target = loginURL(console)
			}
			s.logger.Debug().
				Str("screen", string(screen)).
				Str("role", console.Session.Principal().Role.String()).
				Str("redirect", target).
				Msg("route guard redirect")
			redirect(w, r, target)
		}
	}
}

// loginURL carries the expired notice while the console still holds it
func loginURL(console *consolesession.Console) string {
	if console.Session.Snapshot().SessionExpired {
		return guard.RouteLogin.String() + "?" + url.Values{"notice": {NoticeExpired}}.Encode()
	}
	return guard.RouteLogin.String()
}

// redirect answers with 303 so a redirected form post is followed by a GET
func redirect(w http.ResponseWriter, r *http.Request, path string) {
	http.Redirect(w, r, path, http.StatusSeeOther)
}
