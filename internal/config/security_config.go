package config

type SecurityConfig interface {
	GetCookieHashKey() string
	GetCookieBlockKey() string
	GetCookieSecure() bool
}

type Security struct {
	src *source
}

var _ SecurityConfig = Security{}

// GetCookieHashKey returns the hex encoded HMAC key for the console cookie.
// Empty means a random key is generated at startup.
func (s Security) GetCookieHashKey() string {
	return s.src.get("COOKIE_HASH_KEY", "cookie_hash_key", "")
}

// GetCookieBlockKey returns the hex encoded AES key for the console cookie
func (s Security) GetCookieBlockKey() string {
	return s.src.get("COOKIE_BLOCK_KEY", "cookie_block_key", "")
}

func (s Security) GetCookieSecure() bool {
	return s.src.boolean("COOKIE_SECURE", "cookie_secure", false)
}
