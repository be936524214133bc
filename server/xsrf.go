package server

import (
	"html"
	"html/template"
	"net/http"
	"strings"
	"time"
)

type xsrfKey string

const (
	xsrfCodecName  = "XSRF-TOKEN"
	xsrfHeaderName = "X-XSRF-TOKEN"
	xsrfFormField  = "xsrf_token"

	// Keys inside the encoded token
	xsrfConsoleID  xsrfKey = "console"
	xsrfExpiration xsrfKey = "expiration"
)

// safeMethods are idempotent methods as defined by RFC 7231 section 4.2.2
var safeMethods = methods{http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace}

type methods []string

func (vals methods) contain(s string) bool {
	for _, v := range vals {
		if v == s {
			return true
		}
	}
	return false
}

// xsrfToken issues a token bound to the console. It is rendered into every
// form and lives as long as the console cookie.
func (s *Server) xsrfToken(consoleID string) (string, error) {
	return s.cookies.Encode(xsrfCodecName, map[xsrfKey]string{
		xsrfConsoleID:  consoleID,
		xsrfExpiration: s.now().Add(s.config.GetSessionMaxAge()).Format(time.UnixDate),
	})
}

// xsrfField renders the hidden form input carrying token
func xsrfField(token string) template.HTML {
	return template.HTML(`<input type="hidden" name="` + xsrfFormField + `" value="` + html.EscapeString(token) + `">`)
}

func (s *Server) hasValidXSRFToken(r *http.Request, consoleID string) bool {
	raw := r.Header.Get(xsrfHeaderName)
	if raw == "" {
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			// Parsed here with the upload limit so the import handler sees the same form
			_ = r.ParseMultipartForm(defaultMaxUploadSize)
		}
		raw = r.PostFormValue(xsrfFormField)
	}
	if raw == "" {
		return false
	}

	value := make(map[xsrfKey]string)
	if err := s.cookies.Decode(xsrfCodecName, raw, &value); err != nil {
		s.logger.Debug().Err(err).Msg("decoding XSRF token")
		return false
	}
	exp, err := time.Parse(time.UnixDate, value[xsrfExpiration])
	if err != nil || s.now().After(exp) {
		return false
	}
	return value[xsrfConsoleID] == consoleID
}

// XSRFMiddleware rejects unsafe requests that do not carry the console's
// token. It runs after ConsoleMiddleware.
func (s *Server) XSRFMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if safeMethods.contain(r.Method) {
			next(w, r)
			return
		}

		console := consoleFrom(r.Context())
		r.Body = http.MaxBytesReader(w, r.Body, defaultMaxUploadSize)
		if !s.hasValidXSRFToken(r, console.ID) {
			s.logger.Warn().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("origin", r.Header.Get("Origin")).
				Msg("rejected request without a valid XSRF token")
			http.Error(w, "403 - Invalid XSRF token", http.StatusForbidden)
			return
		}
		next(w, r)
	}
}
