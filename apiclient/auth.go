package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-inventory-console/internal/config"
	apperrors "github.com/jrsteele09/go-inventory-console/internal/errors"
	"github.com/jrsteele09/go-inventory-console/internal/validation"
	"github.com/jrsteele09/go-inventory-console/session"
	"github.com/jrsteele09/go-inventory-console/users"
	"github.com/rs/zerolog"
)

const PathRegister = "/api/users/register/"

var _ session.Authenticator = (*AuthAPI)(nil)

// AuthAPI calls the unauthenticated endpoints. It never carries a bearer
// token and never refreshes.
type AuthAPI struct {
	baseURL     string
	tokenPath   string
	refreshPath string
	http        *http.Client
	logger      zerolog.Logger
}

type AuthOption func(*AuthAPI)

func WithAuthHTTPClient(hc *http.Client) AuthOption {
	return func(a *AuthAPI) {
		a.http = hc
	}
}

func WithAuthLogger(logger zerolog.Logger) AuthOption {
	return func(a *AuthAPI) {
		a.logger = logger
	}
}

func NewAuthAPI(cfg config.APIConfig, options ...AuthOption) *AuthAPI {
	a := &AuthAPI{
		baseURL:     strings.TrimRight(cfg.GetAPIBaseURL(), "/"),
		tokenPath:   cfg.GetTokenPath(),
		refreshPath: cfg.GetRefreshPath(),
		http:        &http.Client{Timeout: cfg.GetRequestTimeout()},
		logger:      zerolog.Nop(),
	}
	for _, opt := range options {
		opt(a)
	}
	return a
}

type credentialsRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

type refreshResponse struct {
	Access string `json:"access"`
}

// IssueTokens posts the credentials to the token endpoint. 400 and 401 both
// mean the credentials were rejected.
func (a *AuthAPI) IssueTokens(ctx context.Context, username, password string) (session.TokenPair, error) {
	in := credentialsRequest{Username: strings.TrimSpace(username), Password: password}
	if err := validation.Struct(in); err != nil {
		return session.TokenPair{}, fmt.Errorf("%w: %w", apperrors.ErrInvalidCredentials, err)
	}

	var pair session.TokenPair
	err := a.post(ctx, a.tokenPath, in, &pair)
	if err != nil {
		var httpErr *HTTPError
		if apperrors.As(err, &httpErr) && (httpErr.Status == http.StatusUnauthorized || httpErr.Status == http.StatusBadRequest) {
			return session.TokenPair{}, fmt.Errorf("%w: %w", apperrors.ErrInvalidCredentials, httpErr)
		}
		return session.TokenPair{}, err
	}
	if pair.Access == "" || pair.Refresh == "" {
		return session.TokenPair{}, fmt.Errorf("%w: token response missing access or refresh", apperrors.ErrMalformedResponse)
	}
	return pair, nil
}

// RefreshAccess exchanges the refresh token for a new access token
func (a *AuthAPI) RefreshAccess(ctx context.Context, refreshToken string) (string, error) {
	var out refreshResponse
	if err := a.post(ctx, a.refreshPath, refreshRequest{Refresh: refreshToken}, &out); err != nil {
		return "", err
	}
	if out.Access == "" {
		return "", fmt.Errorf("%w: refresh response missing access", apperrors.ErrMalformedResponse)
	}
	return out.Access, nil
}

// Register creates an account from the public registration form
func (a *AuthAPI) Register(ctx context.Context, reg users.Registration) (*users.StaffUser, error) {
	if err := validation.Struct(reg); err != nil {
		return nil, err
	}
	if err := users.ValidatePasswordStrength(reg.Password); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}

	var created users.StaffUser
	if err := a.post(ctx, PathRegister, reg, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (a *AuthAPI) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("[AuthAPI] encoding %s: %w", path, err)
	}

	requestID := uuid.NewString()
	httpReq, err := buildRequest(ctx, a.baseURL, &Request{
		Method:      http.MethodPost,
		Path:        path,
		Body:        body,
		ContentType: "application/json",
	}, requestID)
	if err != nil {
		return err
	}

	resp, err := roundTrip(ctx, a.http, httpReq, requestID)
	if err != nil {
		return err
	}
	if resp.Status < 200 || resp.Status > 299 {
		httpErr := newHTTPError(resp)
		a.logger.Debug().Int("status", resp.Status).Str("request_id", requestID).Str("path", path).Msg(httpErr.Message)
		return httpErr
	}
	return decode(resp, out)
}
