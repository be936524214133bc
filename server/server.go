// Package server is the server-rendered admin console. Each browser gets one
// console session holding its session controller and API client.
package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/jrsteele09/go-inventory-console/apiclient"
	"github.com/jrsteele09/go-inventory-console/internal/config"
	"github.com/jrsteele09/go-inventory-console/server/consolesession"
	"github.com/jrsteele09/go-inventory-console/token"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Server struct {
	env      string // Environment (e.g., "DEV", "PROD")
	mux      *http.ServeMux
	routes   []string
	config   config.Config
	consoles consolesession.Repo
	cookies  *securecookie.SecureCookie
	auth     *apiclient.AuthAPI
	pages    *pages
	decoder  *token.Decoder
	logger   zerolog.Logger
	now      func() time.Time
}

type Option func(*Server)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

func New(cfg config.Config, consoles consolesession.Repo, options ...Option) (*Server, error) {
	s := &Server{
		env:      cfg.GetEnv(),
		mux:      http.NewServeMux(),
		config:   cfg,
		consoles: consoles,
		decoder:  token.NewDecoder(),
		logger:   log.Logger,
		now:      time.Now,
	}
	for _, opt := range options {
		opt(s)
	}

	cookies, err := newCookieCodec(cfg, cfg.GetSessionMaxAge())
	if err != nil {
		return nil, fmt.Errorf("[Server New] cookie keys: %w", err)
	}
	s.cookies = cookies

	pages, err := parsePages()
	if err != nil {
		return nil, fmt.Errorf("[Server New] templates: %w", err)
	}
	s.pages = pages
	s.auth = apiclient.NewAuthAPI(cfg, apiclient.WithAuthLogger(s.logger))

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

// RunEvictor drops idle consoles every interval until ctx is done
func (s *Server) RunEvictor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.consoles.Evict(ctx, s.config.GetSessionMaxAge())
		}
	}
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			s.logRoute(parts[0], parts[1])
		} else {
			s.logRoute("", parts[0])
		}
	}
}

func (s *Server) logRoute(method, path string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ansiReset
	} else {
		displayMethod = ansiGray + paddedMethod + ansiReset
	}
	s.logger.Debug().Msgf("[%-19s] %s", displayMethod, path)
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
