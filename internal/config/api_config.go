package config

import (
	"strings"
	"time"
)

type API struct {
	src *source
}

var _ APIConfig = API{}

// GetAPIBaseURL returns the inventory backend base URL without a trailing slash
func (a API) GetAPIBaseURL() string {
	return strings.TrimRight(a.src.get("API_BASE_URL", "api_base_url", "http://127.0.0.1:8000"), "/")
}

func (a API) GetTokenPath() string {
	return a.src.get("TOKEN_PATH", "token_path", "/api/token/")
}

func (a API) GetRefreshPath() string {
	return a.src.get("REFRESH_PATH", "refresh_path", "/api/token/refresh/")
}

func (a API) GetRequestTimeout() time.Duration {
	return a.src.duration("REQUEST_TIMEOUT", "request_timeout", 15*time.Second)
}

// GetRefreshTimeout bounds a single token refresh call shared by all waiters
func (a API) GetRefreshTimeout() time.Duration {
	return a.src.duration("REFRESH_TIMEOUT", "refresh_timeout", 10*time.Second)
}
