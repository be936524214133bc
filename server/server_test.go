package server_test

import (
	"html"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/go-inventory-console/apistub"
	"github.com/jrsteele09/go-inventory-console/internal/config"
	"github.com/jrsteele09/go-inventory-console/server"
	"github.com/jrsteele09/go-inventory-console/server/consolesession"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type browser struct {
	t      *testing.T
	base   string
	client *http.Client
	// token is the XSRF token from the last rendered page
	token string
}

var tokenPattern = regexp.MustCompile(`name="xsrf_token" value="([^"]+)"`)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newConsole(t *testing.T, options ...server.Option) (*apistub.Stub, *browser) {
	t.Helper()
	stub := apistub.New()
	api := httptest.NewServer(stub)
	t.Cleanup(api.Close)

	t.Setenv("API_BASE_URL", api.URL)
	t.Setenv("ENV", "TEST")
	cfg := config.New()

	repo := consolesession.NewInMemoryRepo(consolesession.NewFactory(cfg, consolesession.MemoryStores, zerolog.Nop()))
	srv, err := server.New(cfg, repo, append([]server.Option{server.WithLogger(zerolog.Nop())}, options...)...)
	require.NoError(t, err)

	console := httptest.NewServer(srv)
	t.Cleanup(console.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return stub, &browser{t: t, base: console.URL, client: &http.Client{Jar: jar}}
}

func (b *browser) read(resp *http.Response, err error) (*http.Response, string) {
	b.t.Helper()
	require.NoError(b.t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(b.t, err)
	if m := tokenPattern.FindStringSubmatch(string(body)); m != nil {
		b.token = html.UnescapeString(m[1])
	}
	return resp, string(body)
}

func (b *browser) get(path string) (*http.Response, string) {
	b.t.Helper()
	return b.read(b.client.Get(b.base + path))
}

// post submits form with the token of the last page, as the rendered form would
func (b *browser) post(path string, form url.Values) (*http.Response, string) {
	b.t.Helper()
	require.NotEmpty(b.t, b.token, "no page with a form has been loaded")
	withToken := url.Values{"xsrf_token": {b.token}}
	for k, v := range form {
		withToken[k] = v
	}
	return b.postRaw(path, withToken, nil)
}

func (b *browser) postRaw(path string, form url.Values, header http.Header) (*http.Response, string) {
	b.t.Helper()
	req, err := http.NewRequest(http.MethodPost, b.base+path, strings.NewReader(form.Encode()))
	require.NoError(b.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for k, v := range header {
		req.Header[k] = v
	}
	return b.read(b.client.Do(req))
}

func (b *browser) login(username, password string) (*http.Response, string) {
	b.t.Helper()
	b.get("/login")
	return b.post("/login", url.Values{"username": {username}, "password": {password}})
}

func TestAnonymousRedirectsToLogin(t *testing.T) {
	_, b := newConsole(t)

	for _, path := range []string{"/", "/admin/dashboard", "/inventory"} {
		resp, body := b.get(path)
		require.Equal(t, http.StatusOK, resp.StatusCode, path)
		require.Equal(t, "/login", resp.Request.URL.Path, path)
		require.Contains(t, body, `action="/login"`)
	}
}

func TestLogin(t *testing.T) {
	t.Run("bad credentials stay on the form", func(t *testing.T) {
		_, b := newConsole(t)
		resp, body := b.login("admin", "wrong")
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		require.Contains(t, body, "No active account found with the given credentials")
		require.Contains(t, body, `value="admin"`)
	})

	t.Run("admin lands on the admin dashboard", func(t *testing.T) {
		_, b := newConsole(t)
		resp, body := b.login("admin", apistub.DefaultPassword)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, "/admin/dashboard", resp.Request.URL.Path)
		require.Contains(t, body, "Sign out")
		require.Contains(t, body, `href="/users"`)

		// The login page bounces a signed-in browser home
		resp, _ = b.get("/login")
		require.Equal(t, "/admin/dashboard", resp.Request.URL.Path)
	})

	t.Run("staff lands on the staff dashboard", func(t *testing.T) {
		_, b := newConsole(t)
		resp, body := b.login("staff", apistub.DefaultPassword)
		require.Equal(t, "/staff/dashboard", resp.Request.URL.Path)
		require.NotContains(t, body, `href="/users"`)
	})
}

func TestRouteGuard(t *testing.T) {
	_, b := newConsole(t)
	b.login("staff", apistub.DefaultPassword)

	resp, body := b.get("/users")
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.Equal(t, "/unauthorized", resp.Request.URL.Path)
	require.Contains(t, body, `href="/staff/dashboard"`)

	resp, _ = b.get("/inventory")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "/inventory", resp.Request.URL.Path)
}

func TestTransparentRefresh(t *testing.T) {
	stub, b := newConsole(t)
	b.login("admin", apistub.DefaultPassword)

	stub.ExpireAccessTokens()
	resp, body := b.get("/admin/dashboard")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "/admin/dashboard", resp.Request.URL.Path)
	require.Contains(t, body, "Total items")
	require.Equal(t, 1, stub.RefreshCalls())
}

func TestForcedSignOut(t *testing.T) {
	stub, b := newConsole(t)
	b.login("admin", apistub.DefaultPassword)

	stub.ExpireAccessTokens()
	stub.RevokeRefreshTokens()

	resp, body := b.get("/offices")
	require.Equal(t, "/login", resp.Request.URL.Path)
	require.Equal(t, "expired", resp.Request.URL.Query().Get("notice"))
	require.Contains(t, body, "Your session has expired")

	// The notice is shown once
	_, body = b.get("/login")
	require.NotContains(t, body, "Your session has expired")

	// Signing in again clears the notice
	resp, body = b.login("admin", apistub.DefaultPassword)
	require.Equal(t, "/admin/dashboard", resp.Request.URL.Path)
	require.NotContains(t, body, "Your session has expired")
}

func TestOfficeActions(t *testing.T) {
	_, b := newConsole(t)
	b.login("admin", apistub.DefaultPassword)

	resp, body := b.post("/offices", url.Values{"name": {"Stores"}, "department": {"Logistics"}})
	require.Equal(t, "/offices", resp.Request.URL.Path)
	require.Contains(t, body, "alert-success")
	require.Contains(t, body, "Stores")

	resp, body = b.post("/offices", url.Values{"name": {"Stores"}})
	require.Equal(t, "/offices", resp.Request.URL.Path)
	require.Contains(t, body, "alert-danger")
	require.Contains(t, body, "already exists")

	// Flashes are shown once
	_, body = b.get("/offices")
	require.NotContains(t, body, "alert-danger")
}

func TestLogout(t *testing.T) {
	_, b := newConsole(t)
	b.login("admin", apistub.DefaultPassword)

	resp, body := b.post("/logout", nil)
	require.Equal(t, "/login", resp.Request.URL.Path)
	require.NotContains(t, body, "Sign out")
	require.NotContains(t, body, "Your session has expired")

	resp, _ = b.get("/admin/dashboard")
	require.Equal(t, "/login", resp.Request.URL.Path)
}

func TestTemplateDownload(t *testing.T) {
	_, b := newConsole(t)
	b.login("admin", apistub.DefaultPassword)

	// Seeded ids are shared across accounts and offices: Registry is 4
	resp, body := b.get("/inventory/tools/template?office_id=4")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, `attachment; filename="office_4_template.xlsx"`, resp.Header.Get("Content-Disposition"))
	require.True(t, strings.HasPrefix(body, "item_id,"), body)
}

func TestStaticAssets(t *testing.T) {
	_, b := newConsole(t)
	resp, body := b.get("/static/console.css")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, ".sidebar")
}

func TestUserManagement(t *testing.T) {
	_, b := newConsole(t)
	b.login("admin", apistub.DefaultPassword)

	_, body := b.get("/users")
	require.Contains(t, body, "Stu Staff")
	require.Contains(t, body, `action="/users/3/update" class="row"><input type="hidden" name="xsrf_token"`)

	resp, body := b.post("/users/3/update", url.Values{
		"username": {"staff"}, "email": {"staff@example.com"}, "first_name": {"Stu"}, "last_name": {"Staff"}, "role": {"admin"},
	})
	require.Equal(t, "/users", resp.Request.URL.Path)
	require.Contains(t, body, `User &#34;staff&#34; updated.`)
}

func TestXSRF(t *testing.T) {
	t.Run("cross site post is rejected", func(t *testing.T) {
		_, b := newConsole(t)
		b.login("admin", apistub.DefaultPassword)
		_, body := b.get("/offices")
		require.Contains(t, body, `action="/offices/4/delete"`)

		resp, body := b.postRaw("/offices/4/delete", url.Values{}, http.Header{"Origin": {"https://evil.example"}})
		require.Equal(t, http.StatusForbidden, resp.StatusCode)
		require.Contains(t, body, "Invalid XSRF token")

		_, body = b.get("/offices")
		require.Contains(t, body, `value="Registry"`)
	})

	t.Run("logout needs the token", func(t *testing.T) {
		_, b := newConsole(t)
		b.login("admin", apistub.DefaultPassword)

		resp, _ := b.postRaw("/logout", nil, nil)
		require.Equal(t, http.StatusForbidden, resp.StatusCode)
		resp, _ = b.get("/admin/dashboard")
		require.Equal(t, "/admin/dashboard", resp.Request.URL.Path)
	})

	t.Run("token from another console is rejected", func(t *testing.T) {
		_, b := newConsole(t)
		b.login("admin", apistub.DefaultPassword)

		other := &browser{t: t, base: b.base, client: &http.Client{}}
		other.get("/login")
		require.NotEqual(t, b.token, other.token)

		resp, _ := b.postRaw("/offices", url.Values{"name": {"Stores"}, "xsrf_token": {other.token}}, nil)
		require.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("token header is accepted", func(t *testing.T) {
		_, b := newConsole(t)
		b.login("admin", apistub.DefaultPassword)

		resp, body := b.postRaw("/offices", url.Values{"name": {"Stores"}}, http.Header{"X-Xsrf-Token": {b.token}})
		require.Equal(t, "/offices", resp.Request.URL.Path)
		require.Contains(t, body, "alert-success")
	})

	t.Run("expired token is rejected", func(t *testing.T) {
		clk := &clock{now: time.Now()}
		_, b := newConsole(t, server.WithClock(clk.Now))
		b.login("admin", apistub.DefaultPassword)

		clk.Advance(9 * time.Hour)
		resp, _ := b.post("/offices", url.Values{"name": {"Stores"}})
		require.Equal(t, http.StatusForbidden, resp.StatusCode)
	})
}
