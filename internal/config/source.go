package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// source resolves a setting from the environment first, then the YAML
// overlay file, then the default.
type source struct {
	file map[string]string
}

func loadSource(path string) (*source, error) {
	if path == "" {
		return &source{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	var values map[string]any
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	file := make(map[string]string, len(values))
	for k, v := range values {
		if v == nil {
			continue
		}
		file[k] = fmt.Sprint(v)
	}
	return &source{file: file}, nil
}

func (s *source) get(envVar, fileKey, defaultValue string) string {
	if value := os.Getenv(envVar); value != "" {
		return value
	}
	if s != nil {
		if value, ok := s.file[fileKey]; ok && value != "" {
			return value
		}
	}
	return defaultValue
}

func (s *source) duration(envVar, fileKey string, defaultValue time.Duration) time.Duration {
	raw := s.get(envVar, fileKey, "")
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}

func (s *source) boolean(envVar, fileKey string, defaultValue bool) bool {
	raw := s.get(envVar, fileKey, "")
	if raw == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return defaultValue
	}
	return b
}
