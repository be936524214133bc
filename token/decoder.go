package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-inventory-console/internal/utils"
	"github.com/jrsteele09/go-inventory-console/users"
	"golang.org/x/oauth2"
)

var (
	// ErrUndecodable is returned for empty or malformed access tokens
	ErrUndecodable = errors.New("access token cannot be decoded")
	// ErrMissingRole is returned when the token carries no role claim
	ErrMissingRole = errors.New("access token has no role claim")
	// ErrUnknownRole is returned when the role claim is not a known role
	ErrUnknownRole = errors.New("access token has an unknown role")
)

// Claims are the parts of the access token the console reads for routing.
// They are never verified here: the signature is the backend's concern.
type Claims struct {
	Role      users.Role
	Subject   string
	Username  string
	ExpiresAt time.Time // Zero when the token has no exp claim
}

// Expired reports whether the exp claim is in the past at now
func (c *Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// OAuth2Token renders the access token as a bearer oauth2.Token with the exp claim as expiry
func (c *Claims) OAuth2Token(accessToken string) *oauth2.Token {
	return &oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		Expiry:      c.ExpiresAt,
	}
}

// Decoder reads claims from access tokens without verifying the signature
type Decoder struct {
	parser    *jwtlib.Parser
	roleClaim string
}

type DecoderOption func(*Decoder)

// WithRoleClaim overrides the claim name holding the role (default "role")
func WithRoleClaim(name string) DecoderOption {
	return func(d *Decoder) {
		d.roleClaim = name
	}
}

func NewDecoder(options ...DecoderOption) *Decoder {
	d := &Decoder{
		parser:    jwtlib.NewParser(),
		roleClaim: "role",
	}
	for _, opt := range options {
		opt(d)
	}
	return d
}

// Decode parses the token payload and extracts the role. A token without a
// usable role is an error: the console never holds a role-less session.
func (d *Decoder) Decode(accessToken string) (*Claims, error) {
	if strings.TrimSpace(accessToken) == "" {
		return nil, ErrUndecodable
	}

	parsed, _, err := d.parser.ParseUnverified(accessToken, jwtlib.MapClaims{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}

	claims, ok := parsed.Claims.(jwtlib.MapClaims)
	if !ok {
		return nil, ErrUndecodable
	}

	role, err := d.role(claims)
	if err != nil {
		return nil, err
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		// Simple JWT backends put the user id in user_id
		if uid, ok := claims["user_id"]; ok {
			sub = fmt.Sprint(uid)
		}
	}
	username, _ := claims["username"].(string)

	result := &Claims{
		Role:     role,
		Subject:  sub,
		Username: username,
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		result.ExpiresAt = exp.Time
	}
	return result, nil
}

func (d *Decoder) role(claims jwtlib.MapClaims) (users.Role, error) {
	if raw, ok := claims[d.roleClaim]; ok {
		value, _ := raw.(string)
		if value == "" {
			return "", ErrMissingRole
		}
		role, err := users.ParseRole(value)
		if err != nil {
			return "", fmt.Errorf("%w: %q", ErrUnknownRole, value)
		}
		return role, nil
	}

	// Fallback for issuers that emit a roles array
	if raw, ok := claims["roles"].([]any); ok {
		for _, value := range utils.ToStringSlice(raw) {
			if role, err := users.ParseRole(value); err == nil {
				return role, nil
			}
		}
		return "", ErrUnknownRole
	}

	return "", ErrMissingRole
}
