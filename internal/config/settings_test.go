package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load(): %v", err)
	}
	if cfg.Server.Addr() != "127.0.0.1:8000" {
		t.Errorf("default addr = %q", cfg.Server.Addr())
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("default logging = %+v", cfg.Logging)
	}
	if cfg.Archive.Enabled || cfg.Tracing.Enabled {
		t.Error("archive and tracing should be disabled by default")
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  host: 0.0.0.0
  port: 9100
logging:
  level: debug
  format: text
archive:
  enabled: true
  path: /tmp/runs.db
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load(): %v", err)
	}
	if cfg.Server.Addr() != "0.0.0.0:9100" {
		t.Errorf("addr = %q", cfg.Server.Addr())
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "text" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
	if !cfg.Archive.Enabled || cfg.Archive.Path != "/tmp/runs.db" {
		t.Errorf("archive = %+v", cfg.Archive)
	}
}

func TestLoadBrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: [broken"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("broken YAML accepted")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("FLUXGO_SERVER_PORT", "9999")
	t.Setenv("FLUXGO_LOGGING_LEVEL", "warning")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load(): %v", err)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("env port override ignored, port = %d", cfg.Server.Port)
	}
	if cfg.Logging.Level != "warning" {
		t.Errorf("env level override ignored, level = %q", cfg.Logging.Level)
	}
}
