package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/jrsteele09/go-inventory-console/users"
)

var _ Store = (*File)(nil)

// File keeps credentials in a JSON file readable only by the owner.
// A missing file means nothing is stored.
type File struct {
	path string
	mu   sync.Mutex
}

func NewFile(path string) *File {
	return &File{path: path}
}

// DefaultFilePath checks INVENTORY_SESSION_FILE first, then falls back to
// $XDG_CONFIG_HOME/inventory-console/session.json.
func DefaultFilePath() string {
	if envPath := os.Getenv("INVENTORY_SESSION_FILE"); envPath != "" {
		return envPath
	}

	configDirectory := os.Getenv("XDG_CONFIG_HOME")
	if configDirectory == "" {
		homeDirectory, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), "inventory-console-session.json")
		}
		configDirectory = filepath.Join(homeDirectory, ".config")
	}
	return filepath.Join(configDirectory, "inventory-console", "session.json")
}

func (f *File) Path() string {
	return f.path
}

func (f *File) Load(_ context.Context) (Credentials, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.read()
}

func (f *File) Save(_ context.Context, creds Credentials) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.write(creds)
}

func (f *File) SetAccessToken(_ context.Context, accessToken string, role users.Role) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	creds, err := f.read()
	if err != nil {
		return err
	}
	creds.AccessToken = accessToken
	creds.Role = role
	return f.write(creds)
}

func (f *File) Clear(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing session file %s: %w", f.path, err)
	}
	return nil
}

func (f *File) read() (Credentials, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Credentials{}, nil
		}
		return Credentials{}, fmt.Errorf("reading session file %s: %w", f.path, err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return Credentials{}, fmt.Errorf("parsing session file %s: %w", f.path, err)
	}
	return creds, nil
}

func (f *File) write(creds Credentials) error {
	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling session: %w", err)
	}
	data = append(data, '\n')

	directory := filepath.Dir(f.path)
	if err := os.MkdirAll(directory, 0700); err != nil {
		return fmt.Errorf("creating session directory %s: %w", directory, err)
	}

	// Write then rename so a crash never leaves a half-written file
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("writing session file %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replacing session file %s: %w", f.path, err)
	}
	return nil
}
