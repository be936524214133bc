package config

import (
	"fmt"
	"os"
	"strings"
)

const (
	portEnvVar    = "PORT"
	appNameVar    = "APP_NAME"
	envVar        = "ENV"
	logLevelVar   = "LOG_LEVEL"
	configFileVar = "INVENTORY_CONFIG"
)

type EnvVars struct {
	src *source
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetPort() string {
	port := e.src.get(portEnvVar, "port", "8080")
	if !strings.HasPrefix(port, ":") {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (e EnvVars) GetAppName() string {
	return e.src.get(appNameVar, "app_name", "Inventory Console")
}

func (e EnvVars) GetEnv() string {
	return e.src.get(envVar, "env", "DEV")
}

func (e EnvVars) GetLogLevel() string {
	return e.src.get(logLevelVar, "log_level", "info")
}

// ConfigFilePath returns the overlay file named by INVENTORY_CONFIG, if any
func ConfigFilePath() string {
	return os.Getenv(configFileVar)
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
