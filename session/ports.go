package session

import (
	"context"

	"github.com/jrsteele09/go-inventory-console/guard"
	"github.com/jrsteele09/go-inventory-console/token"
)

// TokenPair is what the token issuance endpoint returns
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Authenticator talks to the backend token endpoints
type Authenticator interface {
	// IssueTokens exchanges credentials for a token pair. Rejected credentials
	// must be reported as ErrInvalidCredentials.
	IssueTokens(ctx context.Context, username, password string) (TokenPair, error)
	// RefreshAccess mints a new access token from a refresh token
	RefreshAccess(ctx context.Context, refreshToken string) (string, error)
}

// Decoder reads claims from an access token
type Decoder interface {
	Decode(accessToken string) (*token.Claims, error)
}

// Navigator receives the forced navigations the controller decides on
type Navigator interface {
	Navigate(route guard.Route)
}

// NavigatorFunc adapts a function to Navigator
type NavigatorFunc func(route guard.Route)

func (f NavigatorFunc) Navigate(route guard.Route) {
	f(route)
}

// Listener observes transitions. It runs after the controller lock is released
// so it may call back into the controller.
type Listener func(Transition)
