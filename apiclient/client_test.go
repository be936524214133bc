package apiclient_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/jrsteele09/go-inventory-console/apiclient"
	apperrors "github.com/jrsteele09/go-inventory-console/internal/errors"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	mu           sync.Mutex
	access       string
	refreshTo    string
	refreshErr   error
	refreshCalls atomic.Int32
	expireCalls  atomic.Int32
}

func (f *fakeSession) AccessToken(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.access, nil
}

func (f *fakeSession) Refresh(_ context.Context, _ string) (string, error) {
	f.refreshCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.refreshErr != nil {
		f.access = ""
		return "", f.refreshErr
	}
	f.access = f.refreshTo
	return f.access, nil
}

func (f *fakeSession) Expire(context.Context) {
	f.expireCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.access = ""
}

func (f *fakeSession) Bind(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithCancel(ctx)
}

// scripted answers each request with the next status in statuses, then 200
func scripted(t *testing.T, statuses ...int) (*httptest.Server, *[]*http.Request) {
	t.Helper()
	var (
		mu   sync.Mutex
		seen []*http.Request
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		n := len(seen)
		body, _ := io.ReadAll(r.Body)
		clone := r.Clone(context.Background())
		clone.Body = io.NopCloser(strings.NewReader(string(body)))
		seen = append(seen, clone)
		mu.Unlock()

		status := http.StatusOK
		if n < len(statuses) {
			status = statuses[n]
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status == http.StatusOK {
			_, _ = w.Write([]byte(`{"ok":true}`))
		} else {
			_, _ = w.Write([]byte(`{"detail":"Given token not valid for any token type"}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &seen
}

func TestClient_Do(t *testing.T) {
	t.Run("attaches the bearer token", func(t *testing.T) {
		srv, seen := scripted(t)
		sess := &fakeSession{access: "tok-1"}
		c := apiclient.New(srv.URL, sess)

		var out struct{ OK bool }
		require.NoError(t, c.GetJSON(context.Background(), "/api/offices/", nil, &out))
		require.True(t, out.OK)
		require.Len(t, *seen, 1)
		require.Equal(t, "Bearer tok-1", (*seen)[0].Header.Get("Authorization"))
		require.NotEmpty(t, (*seen)[0].Header.Get(apiclient.HeaderRequestID))
		require.Zero(t, sess.refreshCalls.Load())
	})

	t.Run("sends without a token", func(t *testing.T) {
		srv, seen := scripted(t)
		c := apiclient.New(srv.URL, &fakeSession{})

		require.NoError(t, c.GetJSON(context.Background(), "/api/offices/", nil, nil))
		require.Empty(t, (*seen)[0].Header.Get("Authorization"))
	})

	t.Run("refreshes once and retries", func(t *testing.T) {
		srv, seen := scripted(t, http.StatusUnauthorized)
		sess := &fakeSession{access: "old", refreshTo: "new"}
		c := apiclient.New(srv.URL, sess)

		body := map[string]any{"name": "Registry", "department": "Records"}
		var out struct{ OK bool }
		require.NoError(t, c.SendJSON(context.Background(), http.MethodPost, "/api/offices/", body, &out))
		require.True(t, out.OK)

		require.Equal(t, int32(1), sess.refreshCalls.Load())
		require.Len(t, *seen, 2)
		require.Equal(t, "Bearer old", (*seen)[0].Header.Get("Authorization"))
		require.Equal(t, "Bearer new", (*seen)[1].Header.Get("Authorization"))
		require.Equal(t, (*seen)[0].Header.Get(apiclient.HeaderRequestID), (*seen)[1].Header.Get(apiclient.HeaderRequestID))

		first, _ := io.ReadAll((*seen)[0].Body)
		second, _ := io.ReadAll((*seen)[1].Body)
		require.JSONEq(t, `{"name":"Registry","department":"Records"}`, string(first))
		require.Equal(t, string(first), string(second))
	})

	t.Run("unauthorized twice never loops", func(t *testing.T) {
		srv, seen := scripted(t, http.StatusUnauthorized, http.StatusUnauthorized, http.StatusUnauthorized)
		sess := &fakeSession{access: "old", refreshTo: "new"}
		c := apiclient.New(srv.URL, sess)

		err := c.GetJSON(context.Background(), "/api/inventory/", nil, nil)
		require.ErrorIs(t, err, apperrors.ErrSessionExpired)
		require.Equal(t, int32(1), sess.refreshCalls.Load())
		require.Equal(t, int32(1), sess.expireCalls.Load())
		require.Len(t, *seen, 2)
	})

	t.Run("refresh failure is terminal", func(t *testing.T) {
		srv, seen := scripted(t, http.StatusUnauthorized)
		sess := &fakeSession{access: "old", refreshErr: apperrors.ErrSessionExpired}
		c := apiclient.New(srv.URL, sess)

		err := c.GetJSON(context.Background(), "/api/inventory/", nil, nil)
		require.ErrorIs(t, err, apperrors.ErrSessionExpired)
		require.Len(t, *seen, 1)
		require.Zero(t, sess.expireCalls.Load())
	})

	t.Run("refresh transport error still expires", func(t *testing.T) {
		srv, _ := scripted(t, http.StatusUnauthorized)
		sess := &fakeSession{access: "old", refreshErr: apperrors.ErrNetwork}
		c := apiclient.New(srv.URL, sess)

		err := c.GetJSON(context.Background(), "/api/inventory/", nil, nil)
		require.ErrorIs(t, err, apperrors.ErrSessionExpired)
		require.ErrorIs(t, err, apperrors.ErrNetwork)
	})

	t.Run("other statuses pass through", func(t *testing.T) {
		srv, seen := scripted(t, http.StatusInternalServerError)
		sess := &fakeSession{access: "tok"}
		c := apiclient.New(srv.URL, sess)

		err := c.GetJSON(context.Background(), "/api/inventory/", nil, nil)
		var httpErr *apiclient.HTTPError
		require.ErrorAs(t, err, &httpErr)
		require.Equal(t, http.StatusInternalServerError, httpErr.Status)
		require.True(t, httpErr.ServerError())
		require.Len(t, *seen, 1)
		require.Zero(t, sess.refreshCalls.Load())
	})

	t.Run("network failure", func(t *testing.T) {
		srv, _ := scripted(t)
		srv.Close()
		c := apiclient.New(srv.URL, &fakeSession{access: "tok"})

		err := c.GetJSON(context.Background(), "/api/offices/", nil, nil)
		require.ErrorIs(t, err, apperrors.ErrNetwork)
	})

	t.Run("malformed body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html>`))
		}))
		defer srv.Close()
		c := apiclient.New(srv.URL, &fakeSession{})

		var out map[string]any
		err := c.GetJSON(context.Background(), "/api/offices/", nil, &out)
		require.ErrorIs(t, err, apperrors.ErrMalformedResponse)
	})
}

func TestHTTPError_Message(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"detail", http.StatusNotFound, `{"detail":"Not found."}`, "Not found."},
		{"message", http.StatusBadRequest, `{"message":"Office exists"}`, "Office exists"},
		{"field list", http.StatusBadRequest, `{"name":["office with this name already exists."]}`, "name: office with this name already exists."},
		{"non field", http.StatusBadRequest, `{"non_field_errors":["Pick one"]}`, "Pick one"},
		{"plain text", http.StatusConflict, `duplicate`, "duplicate"},
		{"html", http.StatusBadGateway, `<html>bad</html>`, "Bad Gateway"},
		{"empty", http.StatusForbidden, ``, "Forbidden"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			err := apiclient.New(srv.URL, &fakeSession{}).GetJSON(context.Background(), "/x/", nil, nil)
			var httpErr *apiclient.HTTPError
			require.ErrorAs(t, err, &httpErr)
			require.Equal(t, tt.want, httpErr.Message)
		})
	}
}

func TestHTTPError_Is(t *testing.T) {
	require.ErrorIs(t, &apiclient.HTTPError{Status: http.StatusNotFound}, apperrors.ErrNotFound)
	require.ErrorIs(t, &apiclient.HTTPError{Status: http.StatusBadRequest}, apperrors.ErrValidation)
	require.ErrorIs(t, &apiclient.HTTPError{Status: http.StatusForbidden}, apperrors.ErrForbiddenRole)
	require.NotErrorIs(t, &apiclient.HTTPError{Status: http.StatusTeapot}, apperrors.ErrNotFound)
}

func TestUserMessage(t *testing.T) {
	require.Equal(t, "name: taken", apiclient.UserMessage(&apiclient.HTTPError{Status: 400, Message: "name: taken"}))
	require.Contains(t, apiclient.UserMessage(&apiclient.HTTPError{Status: 503, Message: "down"}), "server had a problem")
	require.Contains(t, apiclient.UserMessage(apperrors.ErrNetwork), "could not be reached")
	require.Empty(t, apiclient.UserMessage(nil))
}

func TestClient_Upload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "4", r.URL.Query().Get("office_id"))
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		data, _ := io.ReadAll(file)
		_ = json.NewEncoder(w).Encode(map[string]any{"name": header.Filename, "size": len(data)})
	}))
	defer srv.Close()

	c := apiclient.New(srv.URL, &fakeSession{access: "tok"})
	var out struct {
		Name string `json:"name"`
		Size int    `json:"size"`
	}
	err := c.Upload(context.Background(), "/api/import/", map[string][]string{"office_id": {"4"}}, "file", "stock.xlsx", strings.NewReader("abcdef"), &out)
	require.NoError(t, err)
	require.Equal(t, "stock.xlsx", out.Name)
	require.Equal(t, 6, out.Size)
}
