package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/glabrego/skyline-cli/internal/bsky"
)

// Config holds runtime settings for the client.
type Config struct {
	ServiceURL  string
	SessionPath string
	DBPath      string
	LogPath     string
}

func LoadFromEnv() (Config, error) {
	cfg := Config{
		ServiceURL:  os.Getenv("SKYLINE_SERVICE_URL"),
		SessionPath: os.Getenv("SKYLINE_SESSION_PATH"),
		DBPath:      os.Getenv("SKYLINE_DB_PATH"),
		LogPath:     os.Getenv("SKYLINE_LOG_PATH"),
	}

	if cfg.ServiceURL == "" {
		cfg.ServiceURL = bsky.DefaultServiceURL
	}
	if cfg.SessionPath == "" {
		cfg.SessionPath = "session.json"
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "skyline.db"
	}
	if cfg.LogPath == "" {
		cfg.LogPath = "skyline.log"
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.ServiceURL == "" {
		return errors.New("ServiceURL is required")
	}
	if c.ServiceURL[len(c.ServiceURL)-1] == '/' {
		return fmt.Errorf("ServiceURL must not end with '/': %s", c.ServiceURL)
	}
	if c.SessionPath == "" {
		return errors.New("SessionPath is required")
	}
	if c.DBPath == "" {
		return errors.New("DBPath is required")
	}
	return nil
}

// sessionFile is the persisted session artifact. Only the refresh credential
// and identity fields are kept; access tokens are short-lived and refetched.
type sessionFile struct {
	Handle     string `json:"handle"`
	DID        string `json:"did"`
	RefreshJWT string `json:"refreshJwt"`
}

// LoadSession reads the persisted session. A missing, unreadable or corrupt
// file yields an empty session and no error: the client then simply starts
// logged out.
func LoadSession(path string) bsky.Session {
	data, err := os.ReadFile(path)
	if err != nil {
		return bsky.Session{}
	}
	var file sessionFile
	if err := json.Unmarshal(data, &file); err != nil {
		return bsky.Session{}
	}
	if file.RefreshJWT == "" {
		return bsky.Session{}
	}
	return bsky.Session{Handle: file.Handle, DID: file.DID, RefreshJWT: file.RefreshJWT}
}

// SaveSession writes the session artifact with owner-only permissions.
func SaveSession(path string, session bsky.Session) error {
	file := sessionFile{
		Handle:     session.Handle,
		DID:        session.DID,
		RefreshJWT: session.RefreshJWT,
	}
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create session dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}

// ClearSession removes the persisted session on logout. Absence is fine.
func ClearSession(path string) error {
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}
