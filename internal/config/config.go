package config

import "time"

type Config interface {
	EnvConfig
	APIConfig
	SessionConfig
	SecurityConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
}

type APIConfig interface {
	GetAPIBaseURL() string
	GetTokenPath() string
	GetRefreshPath() string
	GetRequestTimeout() time.Duration
	GetRefreshTimeout() time.Duration
}

type mainConfig struct {
	EnvVars
	API
	Session
	Security
}

// New returns a Config backed by environment variables only.
func New() Config {
	return newMainConfig(&source{})
}

// Load returns a Config backed by environment variables with the YAML file at
// path as a fallback layer. An empty path behaves like New.
func Load(path string) (Config, error) {
	src, err := loadSource(path)
	if err != nil {
		return nil, err
	}
	return newMainConfig(src), nil
}

func newMainConfig(src *source) Config {
	return mainConfig{
		EnvVars:  EnvVars{src: src},
		API:      API{src: src},
		Session:  Session{src: src},
		Security: Security{src: src},
	}
}
