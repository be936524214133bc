package tokenstore

import (
	"context"

	"github.com/jrsteele09/go-inventory-console/users"
)

// Credentials are the three values a console session persists between requests
type Credentials struct {
	AccessToken  string     `json:"access_token,omitempty"`
	RefreshToken string     `json:"refresh_token,omitempty"`
	Role         users.Role `json:"role,omitempty"`
}

// Empty reports whether nothing is stored
func (c Credentials) Empty() bool {
	return c.AccessToken == "" && c.RefreshToken == "" && c.Role == ""
}

// Store is a plain key-value accessor for the session credentials. It holds no
// logic; the session controller decides what to write and when.
type Store interface {
	// Load returns the stored credentials, or empty credentials when nothing is stored
	Load(ctx context.Context) (Credentials, error)
	// Save replaces all stored credentials
	Save(ctx context.Context, creds Credentials) error
	// SetAccessToken replaces the access token and role, keeping the refresh token
	SetAccessToken(ctx context.Context, accessToken string, role users.Role) error
	// Clear removes everything
	Clear(ctx context.Context) error
}
