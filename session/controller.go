// Package session holds the client-side session state machine. It mediates
// login, logout and silent refresh and is the only writer of the token store.
package session

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	apperrors "github.com/jrsteele09/go-inventory-console/internal/errors"
	"github.com/jrsteele09/go-inventory-console/guard"
	"github.com/jrsteele09/go-inventory-console/tokenstore"
	"github.com/jrsteele09/go-inventory-console/users"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

const defaultRefreshTimeout = 10 * time.Second

// Controller owns the current session. Every state change and every token
// store write happens under mu.
type Controller struct {
	store   tokenstore.Store
	auth    Authenticator
	decoder Decoder

	navigator      Navigator
	listeners      []Listener
	logger         zerolog.Logger
	refreshTimeout time.Duration
	now            func() time.Time

	mu    sync.Mutex
	state State
	role  users.Role
	// expiredNotice is shown on the login screen after a forced sign out
	expiredNotice bool
	// epoch changes whenever a session begins or ends
	epoch uint64
	// alive is cancelled when the current epoch ends
	alive  context.Context
	cancel context.CancelCauseFunc
	// queued side effects run once mu is released
	queued []func()

	flight singleflight.Group
}

type Option func(*Controller)

func WithNavigator(n Navigator) Option {
	return func(c *Controller) {
		c.navigator = n
	}
}

func WithListener(l Listener) Option {
	return func(c *Controller) {
		c.listeners = append(c.listeners, l)
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithRefreshTimeout bounds the shared refresh call
func WithRefreshTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.refreshTimeout = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

func New(store tokenstore.Store, auth Authenticator, decoder Decoder, options ...Option) *Controller {
	c := &Controller{
		store:          store,
		auth:           auth,
		decoder:        decoder,
		navigator:      NavigatorFunc(func(guard.Route) {}),
		logger:         zerolog.Nop(),
		refreshTimeout: defaultRefreshTimeout,
		now:            time.Now,
		state:          Anonymous,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Start restores a session persisted by a previous run. A stored token whose
// role decodes and matches the stored role is trusted optimistically without a
// network call; the first unauthorized response drives the refresh path.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.unlock()

	if c.state != Anonymous {
		return fmt.Errorf("[Controller Start] from %s: %w", c.state, apperrors.ErrInvalidTransition)
	}

	creds, err := c.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("[Controller Start] loading credentials: %w", err)
	}
	if creds.AccessToken == "" {
		if !creds.Empty() {
			// Leftovers without an access token cannot form a session
			if err := c.store.Clear(ctx); err != nil {
				return fmt.Errorf("[Controller Start] clearing partial credentials: %w", err)
			}
		}
		return nil
	}

	claims, err := c.decoder.Decode(creds.AccessToken)
	if err != nil {
		c.expireLocked(ctx, "stored token undecodable")
		return fmt.Errorf("[Controller Start] %w: %w", apperrors.ErrInvalidToken, err)
	}
	if claims.Role != creds.Role {
		c.expireLocked(ctx, "stored role does not match token")
		return fmt.Errorf("[Controller Start] %w: stored %q, token %q", apperrors.ErrInvalidToken, creds.Role, claims.Role)
	}

	c.beginLocked(claims.Role, "restored")
	return nil
}

// Login moves Anonymous through Authenticating to Authenticated. The network
// call runs without holding the lock; a logout in the meantime wins.
func (c *Controller) Login(ctx context.Context, username, password string) (users.Role, error) {
	c.mu.Lock()
	switch c.state {
	case Authenticating:
		c.unlock()
		return "", apperrors.ErrLoginInProgress
	case Authenticated, Refreshing:
		c.unlock()
		return "", apperrors.ErrAlreadySignedIn
	}
	c.setStateLocked(Authenticating, "", "login")
	epoch := c.epoch
	c.unlock()

	pair, err := c.auth.IssueTokens(ctx, username, password)

	c.mu.Lock()
	defer c.unlock()

	if c.epoch != epoch || c.state != Authenticating {
		return "", apperrors.ErrSessionEnded
	}
	if err != nil {
		c.setStateLocked(Anonymous, "", "login failed")
		return "", fmt.Errorf("[Controller Login] %w", err)
	}

	claims, err := c.decoder.Decode(pair.Access)
	if err != nil {
		c.expireLocked(ctx, "issued token undecodable")
		return "", fmt.Errorf("[Controller Login] %w: %w", apperrors.ErrInvalidToken, err)
	}

	creds := tokenstore.Credentials{AccessToken: pair.Access, RefreshToken: pair.Refresh, Role: claims.Role}
	if err := c.store.Save(ctx, creds); err != nil {
		c.setStateLocked(Anonymous, "", "persist failed")
		return "", fmt.Errorf("[Controller Login] saving credentials: %w", err)
	}

	c.expiredNotice = false
	c.beginLocked(claims.Role, "login")
	return claims.Role, nil
}

// Logout clears the store unconditionally and returns to Anonymous. Logging
// out while Anonymous does nothing.
func (c *Controller) Logout(ctx context.Context) error {
	c.mu.Lock()
	defer c.unlock()

	if c.state == Anonymous {
		return nil
	}

	err := c.store.Clear(ctx)
	c.endEpochLocked(apperrors.ErrSessionEnded)
	c.expiredNotice = false
	c.setStateLocked(Anonymous, "", "logout")
	c.navigateLocked(guard.RouteLogin)

	if err != nil {
		return fmt.Errorf("[Controller Logout] clearing credentials: %w", err)
	}
	return nil
}

// Expire signals that the backend rejected a request even after a refresh.
// Any live session ends as Expired.
func (c *Controller) Expire(ctx context.Context) {
	c.mu.Lock()
	defer c.unlock()

	if !c.state.live() {
		return
	}
	c.expireLocked(ctx, "unauthorized after refresh")
}

// Refresh mints a new access token. Concurrent calls for the same session
// share one refresh call. rejected is the token the caller saw fail; when the
// stored token already differs, it is returned without a network call.
// On failure the session has been expired and ErrSessionExpired is returned.
func (c *Controller) Refresh(ctx context.Context, rejected string) (string, error) {
	c.mu.Lock()
	if !c.state.live() {
		c.unlock()
		return "", apperrors.ErrSessionExpired
	}
	epoch := c.epoch
	alive := c.alive
	if rejected != "" {
		if creds, err := c.store.Load(ctx); err == nil && creds.AccessToken != "" && creds.AccessToken != rejected {
			c.unlock()
			return creds.AccessToken, nil
		}
	}
	c.unlock()

	// The shared call must not die with whichever caller started it
	detached := context.WithoutCancel(ctx)
	ch := c.flight.DoChan(strconv.FormatUint(epoch, 10), func() (any, error) {
		return c.refresh(detached, alive, epoch)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (c *Controller) refresh(ctx context.Context, alive context.Context, epoch uint64) (string, error) {
	c.mu.Lock()
	if c.epoch != epoch {
		c.unlock()
		return "", apperrors.ErrSessionEnded
	}
	creds, err := c.store.Load(ctx)
	if err != nil {
		c.expireLocked(ctx, "credentials unreadable")
		c.unlock()
		return "", fmt.Errorf("%w: %w", apperrors.ErrSessionExpired, err)
	}
	if creds.RefreshToken == "" {
		c.expireLocked(ctx, "no refresh token")
		c.unlock()
		return "", fmt.Errorf("%w: %w", apperrors.ErrSessionExpired, apperrors.ErrNoRefreshToken)
	}
	role := c.role
	c.setStateLocked(Refreshing, role, "unauthorized response")
	c.unlock()

	callCtx, cancel := context.WithTimeout(ctx, c.refreshTimeout)
	defer cancel()
	stop := context.AfterFunc(alive, cancel)
	defer stop()

	access, err := c.auth.RefreshAccess(callCtx, creds.RefreshToken)

	c.mu.Lock()
	defer c.unlock()

	if c.epoch != epoch {
		c.logger.Debug().Msg("discarding refresh result for ended session")
		return "", apperrors.ErrSessionEnded
	}
	if err != nil {
		c.expireLocked(ctx, "refresh failed")
		return "", fmt.Errorf("%w: %w", apperrors.ErrSessionExpired, err)
	}

	claims, err := c.decoder.Decode(access)
	if err != nil {
		c.expireLocked(ctx, "refreshed token undecodable")
		return "", fmt.Errorf("%w: %w: %w", apperrors.ErrSessionExpired, apperrors.ErrInvalidToken, err)
	}
	if claims.Role != role {
		c.logger.Warn().Str("from", role.String()).Str("to", claims.Role.String()).Msg("role changed on refresh")
		c.expireLocked(ctx, "role changed")
		return "", fmt.Errorf("%w: %w", apperrors.ErrSessionExpired, apperrors.ErrRoleChanged)
	}

	if err := c.store.SetAccessToken(ctx, access, role); err != nil {
		c.expireLocked(ctx, "persist failed")
		return "", fmt.Errorf("%w: saving access token: %w", apperrors.ErrSessionExpired, err)
	}

	c.setStateLocked(Authenticated, role, "refreshed")
	return access, nil
}

// AccessToken returns the stored access token of a live session, or "" when
// there is none.
func (c *Controller) AccessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.unlock()

	if !c.state.live() {
		return "", nil
	}
	creds, err := c.store.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("[Controller AccessToken] %w", err)
	}
	return creds.AccessToken, nil
}

// Bind derives a context that is also cancelled, with cause ErrSessionEnded,
// when the current session ends. Without a live session it only wraps ctx.
func (c *Controller) Bind(ctx context.Context) (context.Context, context.CancelFunc) {
	c.mu.Lock()
	alive := c.alive
	c.mu.Unlock()

	bound, cancel := context.WithCancelCause(ctx)
	if alive == nil {
		return bound, func() { cancel(nil) }
	}
	stop := context.AfterFunc(alive, func() {
		cancel(apperrors.ErrSessionEnded)
	})
	return bound, func() {
		stop()
		cancel(nil)
	}
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		State:          c.state,
		Role:           c.role,
		SessionExpired: c.expiredNotice,
		Epoch:          c.epoch,
	}
}

// Principal is shorthand for Snapshot().Principal()
func (c *Controller) Principal() guard.Principal {
	return c.Snapshot().Principal()
}

// ClearNotice drops the session expired notice once it has been shown
func (c *Controller) ClearNotice() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expiredNotice = false
}

// beginLocked enters Authenticated with a fresh epoch and lands on the role's default route
func (c *Controller) beginLocked(role users.Role, reason string) {
	c.endEpochLocked(apperrors.ErrSessionEnded)
	c.alive, c.cancel = context.WithCancelCause(context.Background())
	c.setStateLocked(Authenticated, role, reason)
	c.navigateLocked(guard.DefaultRoute(role))
}

// expireLocked clears the store and passes through Expired to Anonymous
func (c *Controller) expireLocked(ctx context.Context, reason string) {
	if err := c.store.Clear(ctx); err != nil {
		c.logger.Error().Err(err).Msg("clearing credentials on expiry")
	}
	c.endEpochLocked(apperrors.ErrSessionExpired)
	c.expiredNotice = true
	c.setStateLocked(Expired, "", reason)
	c.setStateLocked(Anonymous, "", "expired")
	c.navigateLocked(guard.RouteLogin)
}

func (c *Controller) endEpochLocked(cause error) {
	c.epoch++
	if c.cancel != nil {
		c.cancel(cause)
	}
	c.alive, c.cancel = nil, nil
}

func (c *Controller) setStateLocked(to State, role users.Role, reason string) {
	t := Transition{From: c.state, To: to, Role: role, Reason: reason, At: c.now()}
	c.state = to
	c.role = role

	c.logger.Info().
		Str("from", t.From.String()).
		Str("to", t.To.String()).
		Str("role", role.String()).
		Str("reason", reason).
		Msg("session transition")

	for _, l := range c.listeners {
		c.queued = append(c.queued, func() { l(t) })
	}
}

func (c *Controller) navigateLocked(route guard.Route) {
	n := c.navigator
	c.queued = append(c.queued, func() { n.Navigate(route) })
}

// unlock releases mu and then runs the side effects queued while it was held
func (c *Controller) unlock() {
	queued := c.queued
	c.queued = nil
	c.mu.Unlock()
	for _, fn := range queued {
		fn()
	}
}
