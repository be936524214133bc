package config

import "time"

const (
	TokenStoreMemory   = "memory"
	TokenStoreFile     = "file"
	TokenStorePostgres = "postgres"
)

type SessionConfig interface {
	GetTokenStore() string
	GetDatabaseURL() string
	GetSessionDir() string
	GetSessionMaxAge() time.Duration
}

type Session struct {
	src *source
}

var _ SessionConfig = Session{}

// GetTokenStore selects where console credentials live (memory, file or postgres)
func (s Session) GetTokenStore() string {
	return s.src.get("TOKEN_STORE", "store", TokenStoreMemory)
}

func (s Session) GetDatabaseURL() string {
	return s.src.get("DATABASE_URL", "database_url", "")
}

// GetSessionDir holds one credentials file per console for the file store.
// Empty means next to the default session file.
func (s Session) GetSessionDir() string {
	return s.src.get("SESSION_DIR", "session_dir", "")
}

// GetSessionMaxAge is the idle time after which a console session is evicted
func (s Session) GetSessionMaxAge() time.Duration {
	return s.src.duration("SESSION_MAX_AGE", "session_max_age", 8*time.Hour)
}
