// Package apiclient talks to the inventory REST backend. Client carries the
// session's bearer token and runs the refresh protocol on 401.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/go-inventory-console/internal/errors"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

const (
	HeaderRequestID   = "X-Request-ID"
	defaultTimeout    = 15 * time.Second
	maxResponseLength = 64 << 20
)

// Session is the part of the session controller the client needs
type Session interface {
	AccessToken(ctx context.Context) (string, error)
	Refresh(ctx context.Context, rejected string) (string, error)
	Expire(ctx context.Context)
	Bind(ctx context.Context) (context.Context, context.CancelFunc)
}

// Request is one API call. Body is held in memory so it can be resent once.
type Request struct {
	Method      string
	Path        string
	Query       url.Values
	Body        []byte
	ContentType string
	Header      http.Header
}

// Response is a fully read 2xx response
type Response struct {
	Status    int
	Header    http.Header
	Body      []byte
	RequestID string
}

// pendingRequest tracks one call through the refresh protocol
type pendingRequest struct {
	*Request
	requestID string
	retried   bool
}

type Client struct {
	baseURL string
	http    *http.Client
	session Session
	logger  zerolog.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http = &http.Client{Timeout: d, Transport: c.http.Transport}
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func New(baseURL string, session Session, options ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		session: session,
		logger:  zerolog.Nop(),
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Do sends req with the current access token. A 401 triggers one refresh and
// one resend; a second 401 expires the session. Non-2xx statuses come back as
// *HTTPError.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	// Refresh and Expire get the caller's context; the bound one dies with the session
	parent := ctx
	ctx, cancel := c.session.Bind(ctx)
	defer cancel()

	pending := &pendingRequest{Request: req, requestID: uuid.NewString()}

	access, err := c.session.AccessToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("[Client Do] %w", err)
	}

	resp, err := c.send(ctx, pending, access)
	if err != nil {
		return nil, err
	}

	if resp.Status == http.StatusUnauthorized && !pending.retried {
		pending.retried = true
		c.logger.Debug().Str("request_id", pending.requestID).Str("path", req.Path).Msg("unauthorized, refreshing")

		fresh, err := c.session.Refresh(parent, access)
		if err != nil {
			switch {
			case apperrors.Is(err, apperrors.ErrSessionExpired):
			case apperrors.Is(err, apperrors.ErrSessionEnded):
				return nil, apperrors.ErrSessionEnded
			case parent.Err() != nil:
				return nil, parent.Err()
			default:
				err = fmt.Errorf("%w: %w", apperrors.ErrSessionExpired, err)
			}
			c.logger.Info().Err(err).Str("request_id", pending.requestID).Msg("refresh failed")
			return nil, err
		}

		resp, err = c.send(ctx, pending, fresh)
		if err != nil {
			return nil, err
		}
		if resp.Status == http.StatusUnauthorized {
			c.logger.Info().Str("request_id", pending.requestID).Msg("unauthorized after refresh")
			c.session.Expire(parent)
			return nil, apperrors.ErrSessionExpired
		}
	}

	if resp.Status < 200 || resp.Status > 299 {
		httpErr := newHTTPError(resp)
		c.logger.Debug().
			Int("status", resp.Status).
			Str("request_id", pending.requestID).
			Str("path", req.Path).
			Msg(httpErr.Message)
		return nil, httpErr
	}
	return resp, nil
}

func (c *Client) send(ctx context.Context, pending *pendingRequest, access string) (*Response, error) {
	httpReq, err := buildRequest(ctx, c.baseURL, pending.Request, pending.requestID)
	if err != nil {
		return nil, err
	}
	if access != "" {
		(&oauth2.Token{AccessToken: access, TokenType: "Bearer"}).SetAuthHeader(httpReq)
	}
	return roundTrip(ctx, c.http, httpReq, pending.requestID)
}

func buildRequest(ctx context.Context, baseURL string, req *Request, requestID string) (*http.Request, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	target := baseURL + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("[apiclient] building %s %s: %w", method, req.Path, err)
	}
	for key, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}
	if req.ContentType != "" {
		httpReq.Header.Set("Content-Type", req.ContentType)
	}
	if httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", "application/json")
	}
	httpReq.Header.Set(HeaderRequestID, requestID)
	return httpReq, nil
}

func roundTrip(ctx context.Context, hc *http.Client, httpReq *http.Request, requestID string) (*Response, error) {
	httpResp, err := hc.Do(httpReq)
	if err != nil {
		if cause := context.Cause(ctx); apperrors.Is(cause, apperrors.ErrSessionEnded) || apperrors.Is(cause, apperrors.ErrSessionExpired) {
			return nil, apperrors.ErrSessionEnded
		}
		return nil, fmt.Errorf("%w: %s %s: %w", apperrors.ErrNetwork, httpReq.Method, httpReq.URL.Path, err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseLength))
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", apperrors.ErrNetwork, httpReq.URL.Path, err)
	}
	return &Response{
		Status:    httpResp.StatusCode,
		Header:    httpResp.Header,
		Body:      data,
		RequestID: requestID,
	}, nil
}

// GetJSON fetches path and decodes the JSON body into out
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, out any) error {
	resp, err := c.Do(ctx, &Request{Method: http.MethodGet, Path: path, Query: query})
	if err != nil {
		return err
	}
	return decode(resp, out)
}

// SendJSON sends in as a JSON body and decodes the reply into out. Either may be nil.
func (c *Client) SendJSON(ctx context.Context, method, path string, in, out any) error {
	req := &Request{Method: method, Path: path}
	if in != nil {
		body, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("[Client SendJSON] encoding %s: %w", path, err)
		}
		req.Body = body
		req.ContentType = "application/json"
	}

	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	return decode(resp, out)
}

// Download fetches a binary payload
func (c *Client) Download(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, &Request{
		Method: http.MethodGet,
		Path:   path,
		Query:  query,
		Header: http.Header{"Accept": []string{"*/*"}},
	})
}

// Upload posts content as the multipart file field and decodes the reply into out
func (c *Client) Upload(ctx context.Context, path string, query url.Values, field, filename string, content io.Reader, out any) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, filename)
	if err != nil {
		return fmt.Errorf("[Client Upload] %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return fmt.Errorf("[Client Upload] reading %s: %w", filename, err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("[Client Upload] %w", err)
	}

	resp, err := c.Do(ctx, &Request{
		Method:      http.MethodPost,
		Path:        path,
		Query:       query,
		Body:        buf.Bytes(),
		ContentType: mw.FormDataContentType(),
	})
	if err != nil {
		return err
	}
	return decode(resp, out)
}

func decode(resp *Response, out any) error {
	if out == nil || len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrMalformedResponse, err)
	}
	return nil
}
