package session

import (
	"time"

	"github.com/jrsteele09/go-inventory-console/guard"
	"github.com/jrsteele09/go-inventory-console/users"
)

// State is a node of the session state machine
type State int

const (
	Anonymous      State = iota // No tokens
	Authenticating              // Login call in flight
	Authenticated               // Tokens present with a decoded role
	Refreshing                  // Refresh call in flight
	Expired                     // Refresh failed or token unusable; passes straight to Anonymous
)

func (s State) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	case Refreshing:
		return "refreshing"
	case Expired:
		return "expired"
	}
	return "unknown"
}

// live reports whether the state holds a usable session
func (s State) live() bool {
	return s == Authenticated || s == Refreshing
}

// Transition is emitted to listeners for every state change
type Transition struct {
	From   State
	To     State
	Role   users.Role
	Reason string
	At     time.Time
}

// Snapshot is a consistent read of the controller state
type Snapshot struct {
	State State
	Role  users.Role
	// SessionExpired stays set from an expiry until the notice is shown or the next successful login
	SessionExpired bool
	Epoch          uint64
}

// Principal converts the snapshot for the route guard
func (s Snapshot) Principal() guard.Principal {
	if !s.State.live() {
		return guard.Anonymous
	}
	return guard.Signed(s.Role)
}
