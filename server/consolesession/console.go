// Package consolesession keeps one session controller, API client and
// resource service per browser.
package consolesession

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/jrsteele09/go-inventory-console/apiclient"
	"github.com/jrsteele09/go-inventory-console/guard"
	"github.com/jrsteele09/go-inventory-console/internal/config"
	apperrors "github.com/jrsteele09/go-inventory-console/internal/errors"
	"github.com/jrsteele09/go-inventory-console/inventory"
	"github.com/jrsteele09/go-inventory-console/session"
	"github.com/jrsteele09/go-inventory-console/token"
	"github.com/jrsteele09/go-inventory-console/tokenstore"
	"github.com/rs/zerolog"
)

// Flash kinds
const (
	FlashSuccess = "success"
	FlashError   = "danger"
	FlashInfo    = "info"
)

// Flash is a one-shot message shown on the next rendered page
type Flash struct {
	Kind    string
	Message string
}

// Console is everything the web console keeps for one browser
type Console struct {
	ID        string
	Session   *session.Controller
	Client    *apiclient.Client
	Inventory *inventory.Service

	mu         sync.Mutex
	navigation guard.Route
	flash      *Flash
	lastSeen   time.Time
}

// navigate records a forced navigation from the controller. The next request
// of this browser consumes it.
func (c *Console) navigate(route guard.Route) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.navigation = route
}

// TakeNavigation returns and clears the pending forced navigation
func (c *Console) TakeNavigation() (guard.Route, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	route := c.navigation
	c.navigation = ""
	return route, route != ""
}

func (c *Console) SetFlash(kind, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flash = &Flash{Kind: kind, Message: message}
}

// TakeFlash returns and clears the pending flash message, nil when there is none
func (c *Console) TakeFlash() *Flash {
	c.mu.Lock()
	defer c.mu.Unlock()
	f := c.flash
	c.flash = nil
	return f
}

func (c *Console) touch(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastSeen = now
}

func (c *Console) LastSeen() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSeen
}

// Factory builds the console for id. It restores any session left in the
// console's token store.
type Factory func(ctx context.Context, id string) (*Console, error)

// StoreFactory returns the token store backing console id
type StoreFactory func(id string) tokenstore.Store

// MemoryStores gives every console its own in-memory store
func MemoryStores(string) tokenstore.Store {
	return tokenstore.NewMemory()
}

// NewFactory wires a session controller, API client and inventory service
// around the store of each console. Consoles share one connection pool.
func NewFactory(cfg config.APIConfig, stores StoreFactory, logger zerolog.Logger) Factory {
	hc := &http.Client{Timeout: cfg.GetRequestTimeout()}
	auth := apiclient.NewAuthAPI(cfg, apiclient.WithAuthHTTPClient(hc), apiclient.WithAuthLogger(logger))
	decoder := token.NewDecoder()

	return func(ctx context.Context, id string) (*Console, error) {
		c := &Console{ID: id}
		log := logger.With().Str("console", shortID(id)).Logger()

		c.Session = session.New(stores(id), auth, decoder,
			session.WithNavigator(session.NavigatorFunc(c.navigate)),
			session.WithLogger(log),
			session.WithRefreshTimeout(cfg.GetRefreshTimeout()),
		)
		c.Client = apiclient.New(cfg.GetAPIBaseURL(), c.Session,
			apiclient.WithHTTPClient(hc),
			apiclient.WithLogger(log),
		)
		c.Inventory = inventory.NewService(c.Client)

		// An invalid stored token has already been cleared; the console starts signed out
		if err := c.Session.Start(ctx); err != nil && !apperrors.Is(err, apperrors.ErrInvalidToken) {
			return nil, err
		}
		return c, nil
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
