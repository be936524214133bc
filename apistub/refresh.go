package apistub

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
)

type storedRefreshToken struct {
	Token  string
	UserID int
	Iat    time.Time
}

// refreshManager issues opaque refresh tokens, one per user
type refreshManager struct {
	mu     sync.Mutex
	byTok  map[string]*storedRefreshToken
	byUser map[int]string
	ttl    time.Duration
	now    func() time.Time
}

func newRefreshManager(ttl time.Duration, now func() time.Time) *refreshManager {
	return &refreshManager{
		byTok:  make(map[string]*storedRefreshToken),
		byUser: make(map[int]string),
		ttl:    ttl,
		now:    now,
	}
}

// Create replaces any existing refresh token of the user
func (m *refreshManager) Create(userID int) (string, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	tokenStr := hex.EncodeToString(tokenBytes)

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.byUser[userID]; ok {
		delete(m.byTok, existing)
	}
	m.byTok[tokenStr] = &storedRefreshToken{Token: tokenStr, UserID: userID, Iat: m.now()}
	m.byUser[userID] = tokenStr
	return tokenStr, nil
}

// Lookup returns the user of a live refresh token
func (m *refreshManager) Lookup(token string) (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rt, ok := m.byTok[token]
	if !ok {
		return 0, false
	}
	if m.now().Sub(rt.Iat) > m.ttl {
		delete(m.byTok, token)
		delete(m.byUser, rt.UserID)
		return 0, false
	}
	return rt.UserID, true
}

func (m *refreshManager) RevokeAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byTok = make(map[string]*storedRefreshToken)
	m.byUser = make(map[int]string)
}
