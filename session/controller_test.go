package session_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	apperrors "github.com/jrsteele09/go-inventory-console/internal/errors"
	"github.com/jrsteele09/go-inventory-console/guard"
	"github.com/jrsteele09/go-inventory-console/session"
	"github.com/jrsteele09/go-inventory-console/token"
	"github.com/jrsteele09/go-inventory-console/tokenstore"
	"github.com/jrsteele09/go-inventory-console/users"
	"github.com/stretchr/testify/require"
)

func accessFor(t *testing.T, role users.Role, n int) string {
	t.Helper()
	s, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.MapClaims{
		"role": string(role),
		"jti":  n,
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("test"))
	require.NoError(t, err)
	return s
}

type fakeAuth struct {
	issue   func(ctx context.Context, username, password string) (session.TokenPair, error)
	refresh func(ctx context.Context, refreshToken string) (string, error)

	issueCalls   atomic.Int32
	refreshCalls atomic.Int32
}

func (f *fakeAuth) IssueTokens(ctx context.Context, username, password string) (session.TokenPair, error) {
	f.issueCalls.Add(1)
	return f.issue(ctx, username, password)
}

func (f *fakeAuth) RefreshAccess(ctx context.Context, refreshToken string) (string, error) {
	f.refreshCalls.Add(1)
	return f.refresh(ctx, refreshToken)
}

type recorder struct {
	mu          sync.Mutex
	routes      []guard.Route
	transitions []session.Transition
}

func (r *recorder) Navigate(route guard.Route) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, route)
}

func (r *recorder) listen(t session.Transition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transitions = append(r.transitions, t)
}

func (r *recorder) Routes() []guard.Route {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]guard.Route(nil), r.routes...)
}

func (r *recorder) Path() []session.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	var states []session.State
	for _, t := range r.transitions {
		states = append(states, t.To)
	}
	return states
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes, r.transitions = nil, nil
}

type fixture struct {
	ctrl  *session.Controller
	store *tokenstore.Memory
	auth  *fakeAuth
	rec   *recorder
}

func newFixture(t *testing.T, role users.Role, options ...session.Option) *fixture {
	t.Helper()
	f := &fixture{store: tokenstore.NewMemory(), rec: &recorder{}}
	f.auth = &fakeAuth{
		issue: func(_ context.Context, username, password string) (session.TokenPair, error) {
			if password != "secret" {
				return session.TokenPair{}, apperrors.ErrInvalidCredentials
			}
			return session.TokenPair{Access: accessFor(t, role, 1), Refresh: "refresh-1"}, nil
		},
		refresh: func(_ context.Context, refreshToken string) (string, error) {
			return accessFor(t, role, 2), nil
		},
	}
	f.ctrl = session.New(f.store, f.auth, token.NewDecoder(), append([]session.Option{
		session.WithNavigator(f.rec),
		session.WithListener(f.rec.listen),
	}, options...)...)
	return f
}

func (f *fixture) login(t *testing.T) {
	t.Helper()
	_, err := f.ctrl.Login(context.Background(), "user", "secret")
	require.NoError(t, err)
	f.rec.reset()
}

func TestLogin(t *testing.T) {
	t.Run("super admin lands on the admin dashboard", func(t *testing.T) {
		f := newFixture(t, users.RoleSuperAdmin)

		role, err := f.ctrl.Login(context.Background(), "root", "secret")
		require.NoError(t, err)
		require.Equal(t, users.RoleSuperAdmin, role)

		snap := f.ctrl.Snapshot()
		require.Equal(t, session.Authenticated, snap.State)
		require.Equal(t, users.RoleSuperAdmin, snap.Role)
		require.Equal(t, []session.State{session.Authenticating, session.Authenticated}, f.rec.Path())
		require.Equal(t, []guard.Route{guard.RouteAdminDashboard}, f.rec.Routes())

		creds, err := f.store.Load(context.Background())
		require.NoError(t, err)
		require.Equal(t, "refresh-1", creds.RefreshToken)
		require.Equal(t, users.RoleSuperAdmin, creds.Role)
		require.NotEmpty(t, creds.AccessToken)
	})

	t.Run("staff is refused office management", func(t *testing.T) {
		f := newFixture(t, users.RoleStaff)
		f.login(t)

		decision := guard.CanAccess(guard.ScreenOffices, f.ctrl.Principal())
		require.Equal(t, guard.RedirectTo(guard.RouteUnauthorized), decision)
	})

	t.Run("invalid credentials persist nothing", func(t *testing.T) {
		f := newFixture(t, users.RoleAdmin)

		_, err := f.ctrl.Login(context.Background(), "user", "wrong")
		require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
		require.Equal(t, session.Anonymous, f.ctrl.Snapshot().State)
		require.Equal(t, []session.State{session.Authenticating, session.Anonymous}, f.rec.Path())
		require.Empty(t, f.rec.Routes())

		creds, err := f.store.Load(context.Background())
		require.NoError(t, err)
		require.True(t, creds.Empty())
	})

	t.Run("undecodable token never authenticates", func(t *testing.T) {
		f := newFixture(t, users.RoleAdmin)
		f.auth.issue = func(context.Context, string, string) (session.TokenPair, error) {
			return session.TokenPair{Access: "garbage", Refresh: "r"}, nil
		}

		_, err := f.ctrl.Login(context.Background(), "user", "secret")
		require.ErrorIs(t, err, apperrors.ErrInvalidToken)
		require.Equal(t, session.Anonymous, f.ctrl.Snapshot().State)
		require.Equal(t, []session.State{session.Authenticating, session.Expired, session.Anonymous}, f.rec.Path())

		creds, err := f.store.Load(context.Background())
		require.NoError(t, err)
		require.True(t, creds.Empty())
	})

	t.Run("already signed in", func(t *testing.T) {
		f := newFixture(t, users.RoleAdmin)
		f.login(t)

		_, err := f.ctrl.Login(context.Background(), "user", "secret")
		require.ErrorIs(t, err, apperrors.ErrAlreadySignedIn)
		require.Equal(t, int32(1), f.auth.issueCalls.Load())
	})

	t.Run("logout during login wins", func(t *testing.T) {
		f := newFixture(t, users.RoleAdmin)
		entered := make(chan struct{})
		release := make(chan struct{})
		f.auth.issue = func(context.Context, string, string) (session.TokenPair, error) {
			close(entered)
			<-release
			return session.TokenPair{Access: accessFor(t, users.RoleAdmin, 1), Refresh: "r"}, nil
		}

		errCh := make(chan error, 1)
		go func() {
			_, err := f.ctrl.Login(context.Background(), "user", "secret")
			errCh <- err
		}()
		<-entered
		require.NoError(t, f.ctrl.Logout(context.Background()))
		close(release)

		require.ErrorIs(t, <-errCh, apperrors.ErrSessionEnded)
		require.Equal(t, session.Anonymous, f.ctrl.Snapshot().State)
		creds, err := f.store.Load(context.Background())
		require.NoError(t, err)
		require.True(t, creds.Empty())
	})
}

func TestLogout(t *testing.T) {
	t.Run("clears the store", func(t *testing.T) {
		f := newFixture(t, users.RoleAdmin)
		f.login(t)

		require.NoError(t, f.ctrl.Logout(context.Background()))
		require.Equal(t, session.Anonymous, f.ctrl.Snapshot().State)
		require.Equal(t, []guard.Route{guard.RouteLogin}, f.rec.Routes())
		require.False(t, f.ctrl.Snapshot().SessionExpired)

		creds, err := f.store.Load(context.Background())
		require.NoError(t, err)
		require.True(t, creds.Empty())
	})

	t.Run("anonymous logout is a no-op", func(t *testing.T) {
		f := newFixture(t, users.RoleAdmin)
		before := f.ctrl.Snapshot()

		require.NoError(t, f.ctrl.Logout(context.Background()))
		require.NoError(t, f.ctrl.Logout(context.Background()))
		require.Equal(t, before, f.ctrl.Snapshot())
		require.Empty(t, f.rec.Routes())
		require.Empty(t, f.rec.Path())
	})
}

func TestStart(t *testing.T) {
	t.Run("optimistic restore", func(t *testing.T) {
		f := newFixture(t, users.RoleStaff)
		require.NoError(t, f.store.Save(context.Background(), tokenstore.Credentials{
			AccessToken:  accessFor(t, users.RoleStaff, 9),
			RefreshToken: "r",
			Role:         users.RoleStaff,
		}))

		require.NoError(t, f.ctrl.Start(context.Background()))
		require.Equal(t, session.Authenticated, f.ctrl.Snapshot().State)
		require.Equal(t, users.RoleStaff, f.ctrl.Snapshot().Role)
		require.Equal(t, []guard.Route{guard.RouteStaffDashboard}, f.rec.Routes())
		require.Zero(t, f.auth.issueCalls.Load())
		require.Zero(t, f.auth.refreshCalls.Load())
	})

	t.Run("empty store stays anonymous", func(t *testing.T) {
		f := newFixture(t, users.RoleStaff)
		require.NoError(t, f.ctrl.Start(context.Background()))
		require.Equal(t, session.Anonymous, f.ctrl.Snapshot().State)
		require.Empty(t, f.rec.Routes())
	})

	t.Run("role mismatch expires", func(t *testing.T) {
		f := newFixture(t, users.RoleStaff)
		require.NoError(t, f.store.Save(context.Background(), tokenstore.Credentials{
			AccessToken: accessFor(t, users.RoleStaff, 9),
			Role:        users.RoleSuperAdmin,
		}))

		require.ErrorIs(t, f.ctrl.Start(context.Background()), apperrors.ErrInvalidToken)
		snap := f.ctrl.Snapshot()
		require.Equal(t, session.Anonymous, snap.State)
		require.True(t, snap.SessionExpired)
		require.Equal(t, []guard.Route{guard.RouteLogin}, f.rec.Routes())

		creds, err := f.store.Load(context.Background())
		require.NoError(t, err)
		require.True(t, creds.Empty())
	})

	t.Run("undecodable stored token expires", func(t *testing.T) {
		f := newFixture(t, users.RoleStaff)
		require.NoError(t, f.store.Save(context.Background(), tokenstore.Credentials{AccessToken: "x.y.z", Role: users.RoleStaff}))

		require.ErrorIs(t, f.ctrl.Start(context.Background()), apperrors.ErrInvalidToken)
		require.Equal(t, []session.State{session.Expired, session.Anonymous}, f.rec.Path())
	})

	t.Run("refresh token alone is discarded", func(t *testing.T) {
		f := newFixture(t, users.RoleStaff)
		require.NoError(t, f.store.Save(context.Background(), tokenstore.Credentials{RefreshToken: "r"}))

		require.NoError(t, f.ctrl.Start(context.Background()))
		creds, err := f.store.Load(context.Background())
		require.NoError(t, err)
		require.True(t, creds.Empty())
	})
}

func TestRefresh(t *testing.T) {
	t.Run("success keeps the role and does not navigate", func(t *testing.T) {
		f := newFixture(t, users.RoleAdmin)
		f.login(t)
		old, err := f.ctrl.AccessToken(context.Background())
		require.NoError(t, err)

		access, err := f.ctrl.Refresh(context.Background(), old)
		require.NoError(t, err)
		require.NotEqual(t, old, access)
		require.Equal(t, []session.State{session.Refreshing, session.Authenticated}, f.rec.Path())
		require.Empty(t, f.rec.Routes())

		creds, err := f.store.Load(context.Background())
		require.NoError(t, err)
		require.Equal(t, access, creds.AccessToken)
		require.Equal(t, "refresh-1", creds.RefreshToken)
	})

	t.Run("failure expires the session", func(t *testing.T) {
		f := newFixture(t, users.RoleAdmin)
		f.login(t)
		f.auth.refresh = func(context.Context, string) (string, error) {
			return "", apperrors.ErrInvalidCredentials
		}

		_, err := f.ctrl.Refresh(context.Background(), "")
		require.ErrorIs(t, err, apperrors.ErrSessionExpired)

		snap := f.ctrl.Snapshot()
		require.Equal(t, session.Anonymous, snap.State)
		require.True(t, snap.SessionExpired)
		require.Equal(t, []session.State{session.Refreshing, session.Expired, session.Anonymous}, f.rec.Path())
		require.Equal(t, []guard.Route{guard.RouteLogin}, f.rec.Routes())

		creds, err := f.store.Load(context.Background())
		require.NoError(t, err)
		require.True(t, creds.Empty())
	})

	t.Run("role change forces logout", func(t *testing.T) {
		f := newFixture(t, users.RoleAdmin)
		f.login(t)
		f.auth.refresh = func(context.Context, string) (string, error) {
			return accessFor(t, users.RoleSuperAdmin, 3), nil
		}

		_, err := f.ctrl.Refresh(context.Background(), "")
		require.ErrorIs(t, err, apperrors.ErrSessionExpired)
		require.ErrorIs(t, err, apperrors.ErrRoleChanged)
		require.Equal(t, session.Anonymous, f.ctrl.Snapshot().State)
	})

	t.Run("anonymous cannot refresh", func(t *testing.T) {
		f := newFixture(t, users.RoleAdmin)
		_, err := f.ctrl.Refresh(context.Background(), "")
		require.ErrorIs(t, err, apperrors.ErrSessionExpired)
		require.Zero(t, f.auth.refreshCalls.Load())
	})

	t.Run("concurrent refreshes share one call", func(t *testing.T) {
		f := newFixture(t, users.RoleAdmin)
		f.login(t)
		old, err := f.ctrl.AccessToken(context.Background())
		require.NoError(t, err)

		entered := make(chan struct{})
		release := make(chan struct{})
		var once sync.Once
		f.auth.refresh = func(context.Context, string) (string, error) {
			once.Do(func() { close(entered) })
			<-release
			return accessFor(t, users.RoleAdmin, 4), nil
		}

		const callers = 8
		results := make(chan string, callers)
		var wg sync.WaitGroup
		for range callers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				access, err := f.ctrl.Refresh(context.Background(), old)
				if err == nil {
					results <- access
				}
			}()
		}
		<-entered
		close(release)
		wg.Wait()
		close(results)

		var got []string
		for access := range results {
			got = append(got, access)
		}
		require.Len(t, got, callers)
		for _, access := range got {
			require.Equal(t, got[0], access)
		}
		require.Equal(t, int32(1), f.auth.refreshCalls.Load())
	})

	t.Run("logout during refresh is not undone", func(t *testing.T) {
		f := newFixture(t, users.RoleAdmin)
		f.login(t)

		entered := make(chan struct{})
		f.auth.refresh = func(ctx context.Context, _ string) (string, error) {
			close(entered)
			<-ctx.Done()
			return "", ctx.Err()
		}

		errCh := make(chan error, 1)
		go func() {
			_, err := f.ctrl.Refresh(context.Background(), "")
			errCh <- err
		}()
		<-entered
		require.NoError(t, f.ctrl.Logout(context.Background()))

		require.ErrorIs(t, <-errCh, apperrors.ErrSessionEnded)
		require.Equal(t, session.Anonymous, f.ctrl.Snapshot().State)
		require.False(t, f.ctrl.Snapshot().SessionExpired)

		creds, err := f.store.Load(context.Background())
		require.NoError(t, err)
		require.True(t, creds.Empty())
	})
}

func TestExpire(t *testing.T) {
	f := newFixture(t, users.RoleStaff)
	f.login(t)

	f.ctrl.Expire(context.Background())
	require.Equal(t, session.Anonymous, f.ctrl.Snapshot().State)
	require.True(t, f.ctrl.Snapshot().SessionExpired)
	require.Equal(t, []guard.Route{guard.RouteLogin}, f.rec.Routes())

	f.rec.reset()
	f.ctrl.Expire(context.Background())
	require.Empty(t, f.rec.Path())

	f.ctrl.ClearNotice()
	require.False(t, f.ctrl.Snapshot().SessionExpired)
}

func TestBind(t *testing.T) {
	f := newFixture(t, users.RoleStaff)
	f.login(t)

	bound, cancel := f.ctrl.Bind(context.Background())
	defer cancel()
	require.NoError(t, bound.Err())

	require.NoError(t, f.ctrl.Logout(context.Background()))
	select {
	case <-bound.Done():
	case <-time.After(time.Second):
		t.Fatal("bound context not cancelled by logout")
	}
	require.ErrorIs(t, context.Cause(bound), apperrors.ErrSessionEnded)

	anonymous, cancelAnon := f.ctrl.Bind(context.Background())
	defer cancelAnon()
	require.NoError(t, anonymous.Err())
}

func TestListenerMayReadController(t *testing.T) {
	store := tokenstore.NewMemory()
	auth := &fakeAuth{
		issue: func(context.Context, string, string) (session.TokenPair, error) {
			return session.TokenPair{Access: accessFor(t, users.RoleAdmin, 1), Refresh: "r"}, nil
		},
	}

	var ctrl *session.Controller
	var seen []session.State
	ctrl = session.New(store, auth, token.NewDecoder(), session.WithListener(func(session.Transition) {
		seen = append(seen, ctrl.Snapshot().State)
	}))

	_, err := ctrl.Login(context.Background(), "u", "p")
	require.NoError(t, err)
	require.Equal(t, []session.State{session.Authenticating, session.Authenticated}, seen)
}

func TestTransitionTime(t *testing.T) {
	at := time.Now().Truncate(time.Second)
	f := newFixture(t, users.RoleStaff, session.WithClock(func() time.Time { return at }))

	_, err := f.ctrl.Login(context.Background(), "user", "secret")
	require.NoError(t, err)

	f.rec.mu.Lock()
	defer f.rec.mu.Unlock()
	require.Len(t, f.rec.transitions, 2)
	for _, tr := range f.rec.transitions {
		require.Equal(t, at, tr.At)
	}
}
