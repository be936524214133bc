package server

import (
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/jrsteele09/go-inventory-console/internal/config"
)

// consoleCookieName holds the securecookie encoded console session id
const consoleCookieName = "inventory_console"

// newCookieCodec builds the codec from hex keys. Missing keys are generated,
// which signs every browser out when the process restarts.
func newCookieCodec(cfg config.SecurityConfig, maxAge time.Duration) (*securecookie.SecureCookie, error) {
	hashKey, err := cookieKey(cfg.GetCookieHashKey(), 64)
	if err != nil {
		return nil, fmt.Errorf("hash key: %w", err)
	}
	blockKey, err := cookieKey(cfg.GetCookieBlockKey(), 32)
	if err != nil {
		return nil, fmt.Errorf("block key: %w", err)
	}
	codec := securecookie.New(hashKey, blockKey)
	codec.MaxAge(int(maxAge / time.Second))
	return codec, nil
}

func cookieKey(encoded string, size int) ([]byte, error) {
	if encoded == "" {
		return securecookie.GenerateRandomKey(size), nil
	}
	key, err := hex.DecodeString(encoded)
	if err != nil {
		return nil, err
	}
	switch len(key) {
	case 16, 24, 32, 64:
		return key, nil
	}
	return nil, fmt.Errorf("key must be 16, 24, 32 or 64 bytes, got %d", len(key))
}

func (s *Server) setConsoleCookie(w http.ResponseWriter, r *http.Request, consoleID string) error {
	encoded, err := s.cookies.Encode(consoleCookieName, consoleID)
	if err != nil {
		return fmt.Errorf("encoding console cookie: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     consoleCookieName,
		Value:    encoded,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.config.GetCookieSecure() || getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.config.GetSessionMaxAge() / time.Second),
	})
	return nil
}

// consoleID returns the id carried by the request's console cookie
func (s *Server) consoleID(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(consoleCookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	var id string
	if err := s.cookies.Decode(consoleCookieName, cookie.Value, &id); err != nil {
		s.logger.Debug().Err(err).Msg("discarding console cookie")
		return "", false
	}
	return id, id != ""
}
