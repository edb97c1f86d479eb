package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/glabrego/skyline-cli/internal/bsky"
)

func TestLoadFromEnvDefaults(t *testing.T) {
	t.Setenv("SKYLINE_SERVICE_URL", "")
	t.Setenv("SKYLINE_SESSION_PATH", "")
	t.Setenv("SKYLINE_DB_PATH", "")
	t.Setenv("SKYLINE_LOG_PATH", "")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ServiceURL != bsky.DefaultServiceURL {
		t.Fatalf("expected default service url, got %q", cfg.ServiceURL)
	}
	if cfg.SessionPath != "session.json" || cfg.DBPath != "skyline.db" || cfg.LogPath != "skyline.log" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadFromEnvRejectsTrailingSlash(t *testing.T) {
	t.Setenv("SKYLINE_SERVICE_URL", "https://pds.example/")

	if _, err := LoadFromEnv(); err == nil {
		t.Fatal("expected error for trailing slash")
	}
}

func TestSessionRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	session := bsky.Session{DID: "did:plc:me", Handle: "alice.bsky.social", AccessJWT: "short-lived", RefreshJWT: "r1"}

	if err := SaveSession(path, session); err != nil {
		t.Fatalf("save: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("expected 0600 permissions, got %o", perm)
	}

	loaded := LoadSession(path)
	if loaded.Handle != "alice.bsky.social" || loaded.DID != "did:plc:me" || loaded.RefreshJWT != "r1" {
		t.Fatalf("unexpected session: %+v", loaded)
	}
	if loaded.AccessJWT != "" {
		t.Fatal("access token must not be persisted")
	}
}

func TestLoadSessionToleratesMissingAndCorrupt(t *testing.T) {
	if s := LoadSession(filepath.Join(t.TempDir(), "absent.json")); s != (bsky.Session{}) {
		t.Fatalf("expected empty session for missing file, got %+v", s)
	}

	corrupt := filepath.Join(t.TempDir(), "corrupt.json")
	if err := os.WriteFile(corrupt, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if s := LoadSession(corrupt); s != (bsky.Session{}) {
		t.Fatalf("expected empty session for corrupt file, got %+v", s)
	}

	// a file without a refresh credential is as good as no session
	empty := filepath.Join(t.TempDir(), "norefresh.json")
	if err := os.WriteFile(empty, []byte(`{"handle":"alice.bsky.social"}`), 0o600); err != nil {
		t.Fatal(err)
	}
	if s := LoadSession(empty); s != (bsky.Session{}) {
		t.Fatalf("expected empty session without refresh jwt, got %+v", s)
	}
}

func TestClearSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := SaveSession(path, bsky.Session{RefreshJWT: "r1"}); err != nil {
		t.Fatal(err)
	}
	if err := ClearSession(path); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("expected session file removed")
	}
	if err := ClearSession(path); err != nil {
		t.Fatalf("clearing an absent session must succeed: %v", err)
	}
}
