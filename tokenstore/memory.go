package tokenstore

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-inventory-console/users"
)

var _ Store = (*Memory)(nil)

// Memory is an in-process Store. Each console session gets its own.
type Memory struct {
	mu    sync.RWMutex
	creds Credentials
}

func NewMemory() *Memory {
	return &Memory{}
}

// NewMemoryWith returns a Memory pre-populated with creds
func NewMemoryWith(creds Credentials) *Memory {
	return &Memory{creds: creds}
}

func (m *Memory) Load(_ context.Context) (Credentials, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.creds, nil
}

func (m *Memory) Save(_ context.Context, creds Credentials) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds = creds
	return nil
}

func (m *Memory) SetAccessToken(_ context.Context, accessToken string, role users.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds.AccessToken = accessToken
	m.creds.Role = role
	return nil
}

func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds = Credentials{}
	return nil
}
