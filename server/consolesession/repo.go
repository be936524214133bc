package consolesession

import (
	"context"
	"time"
)

// Repo holds the live console sessions of one process
type Repo interface {
	// Create opens a console under a fresh id
	Create(ctx context.Context) (*Console, error)
	// Open returns the live console for id, restoring it from its token store when needed
	Open(ctx context.Context, id string) (*Console, error)
	// Get returns the live console for id or ErrConsoleNotFound
	Get(id string) (*Console, error)
	Delete(ctx context.Context, id string) error
	// Evict signs out and drops consoles idle for longer than maxIdle
	Evict(ctx context.Context, maxIdle time.Duration) int
	Len() int
}
