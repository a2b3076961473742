package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew_Defaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := New(dir)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if cfg.Dir != dir {
		t.Errorf("Dir = %q, want %q", cfg.Dir, dir)
	}
	if cfg.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL = %q, want %q", cfg.BaseURL, DefaultBaseURL)
	}
	if cfg.Storage.Driver != "file" || cfg.Storage.RedisPrefix != "taskctl:" {
		t.Errorf("Storage = %+v", cfg.Storage)
	}
	if cfg.Debug || cfg.Quiet || cfg.AutoLogoutOnAuthFailure {
		t.Errorf("unexpected flags set: %+v", cfg)
	}
}

func TestNew_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	yaml := `base_url: https://tasks.example.com/api/
storage:
  driver: sqlite
  path: /tmp/other.db
auto_logout_on_auth_failure: true
`
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := New(dir)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if cfg.BaseURL != "https://tasks.example.com/api" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.Storage.Driver != "sqlite" || cfg.SessionDBPath() != "/tmp/other.db" {
		t.Errorf("Storage = %+v", cfg.Storage)
	}
	if !cfg.AutoLogoutOnAuthFailure {
		t.Error("AutoLogoutOnAuthFailure not read from file")
	}
}

func TestNew_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("base_url: http://file/api\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TASKCTL_BASE_URL", "http://env/api")
	t.Setenv("TASKCTL_STORAGE_DRIVER", "redis")
	t.Setenv("TASKCTL_STORAGE_REDIS_URL", "redis://localhost:6379/1")

	cfg, err := New(dir)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if cfg.BaseURL != "http://env/api" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.Storage.Driver != "redis" || cfg.Storage.RedisURL != "redis://localhost:6379/1" {
		t.Errorf("Storage = %+v", cfg.Storage)
	}
}

func TestNew_InvalidConfigFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("base_url: [unclosed\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := New(dir); err == nil || !strings.HasPrefix(err.Error(), "invalid config file") {
		t.Errorf("New() error = %v, want invalid config file", err)
	}
}

func TestDefaultConfigDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	if got := DefaultConfigDir(); got != filepath.Join("/xdg", AppName) {
		t.Errorf("DefaultConfigDir() = %q", got)
	}

	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("HOME", home)
	if got := DefaultConfigDir(); got != filepath.Join(home, ".config", AppName) {
		t.Errorf("DefaultConfigDir() = %q", got)
	}
}

func TestSessionPaths(t *testing.T) {
	cfg := &Config{Dir: "/cfg"}
	if got := cfg.SessionFilePath(); got != filepath.Join("/cfg", SessionFile) {
		t.Errorf("SessionFilePath() = %q", got)
	}
	if got := cfg.SessionDBPath(); got != filepath.Join("/cfg", SessionDB) {
		t.Errorf("SessionDBPath() = %q", got)
	}

	cfg.Storage.Path = "/elsewhere/s"
	if cfg.SessionFilePath() != "/elsewhere/s" || cfg.SessionDBPath() != "/elsewhere/s" {
		t.Error("Storage.Path should override both session paths")
	}
}

func TestLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger := (&Config{}).Logger(&buf)
	logger.Debug("hidden")
	logger.Warn("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Errorf("default logger output = %q", buf.String())
	}

	buf.Reset()
	logger = (&Config{Debug: true}).Logger(&buf)
	logger.Debug("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Errorf("debug logger output = %q", buf.String())
	}
}
