package consolesession

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/go-inventory-console/internal/errors"
	"github.com/rs/zerolog"
)

var _ Repo = (*InMemoryRepo)(nil)

// InMemoryRepo is an in-memory implementation of Repo
type InMemoryRepo struct {
	mu       sync.RWMutex
	consoles map[string]*Console
	build    Factory
	now      func() time.Time
	logger   zerolog.Logger
}

type Option func(*InMemoryRepo)

func WithClock(now func() time.Time) Option {
	return func(r *InMemoryRepo) {
		r.now = now
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(r *InMemoryRepo) {
		r.logger = logger
	}
}

// NewInMemoryRepo creates a new in-memory console repository
func NewInMemoryRepo(build Factory, options ...Option) *InMemoryRepo {
	r := &InMemoryRepo{
		consoles: make(map[string]*Console),
		build:    build,
		now:      time.Now,
		logger:   zerolog.Nop(),
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

func (r *InMemoryRepo) Create(ctx context.Context) (*Console, error) {
	return r.Open(ctx, uuid.NewString())
}

func (r *InMemoryRepo) Open(ctx context.Context, id string) (*Console, error) {
	if id == "" {
		return nil, fmt.Errorf("console id is required")
	}

	if c, err := r.Get(id); err == nil {
		c.touch(r.now())
		return c, nil
	}

	// Built outside the lock: restoring may read a remote store
	built, err := r.build(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("[InMemoryRepo Open] %s: %w", shortID(id), err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.consoles[id]; ok {
		existing.touch(r.now())
		return existing, nil
	}
	built.touch(r.now())
	r.consoles[id] = built
	r.logger.Debug().Str("console", shortID(id)).Int("live", len(r.consoles)).Msg("console opened")
	return built, nil
}

func (r *InMemoryRepo) Get(id string) (*Console, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.consoles[id]
	if !ok {
		return nil, apperrors.ErrConsoleNotFound
	}
	return c, nil
}

// Delete signs the console out and drops it. A missing console is not an error.
func (r *InMemoryRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	c, ok := r.consoles[id]
	delete(r.consoles, id)
	r.mu.Unlock()

	if !ok {
		return nil
	}
	if err := c.Session.Logout(ctx); err != nil {
		return fmt.Errorf("[InMemoryRepo Delete] %s: %w", shortID(id), err)
	}
	return nil
}

func (r *InMemoryRepo) Evict(ctx context.Context, maxIdle time.Duration) int {
	cutoff := r.now().Add(-maxIdle)

	r.mu.Lock()
	var idle []*Console
	for id, c := range r.consoles {
		if c.LastSeen().Before(cutoff) {
			idle = append(idle, c)
			delete(r.consoles, id)
		}
	}
	r.mu.Unlock()

	for _, c := range idle {
		if err := c.Session.Logout(ctx); err != nil {
			r.logger.Warn().Err(err).Str("console", shortID(c.ID)).Msg("failed to clear evicted console")
		}
	}
	if len(idle) > 0 {
		r.logger.Info().Int("evicted", len(idle)).Msg("evicted idle consoles")
	}
	return len(idle)
}

func (r *InMemoryRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.consoles)
}
