package logger

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFileSinkWritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "engine.log")
	s := New(Config{FilePath: path, Component: "test"})
	s.Info("workflow finished", "workflow", "demo", "status", "COMPLETED")
	s.Close()

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}

	var record map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(raw))), &record); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if record["msg"] != "workflow finished" || record["component"] != "test" {
		t.Errorf("record = %v", record)
	}
	if record["workflow"] != "demo" {
		t.Errorf("attribute lost: %v", record)
	}
}

func TestLevelFiltering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.log")
	s := New(Config{FilePath: path, Level: "error"})
	s.Info("suppressed")
	s.Error("kept")
	s.Close()

	raw, _ := os.ReadFile(path)
	if strings.Contains(string(raw), "suppressed") {
		t.Error("info record passed an error-level filter")
	}
	if !strings.Contains(string(raw), "kept") {
		t.Error("error record missing")
	}
}

func TestWithAddsAttributes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.log")
	s := New(Config{FilePath: path})
	s.With("run_id", "abc-123").Info("hello")
	s.Close()

	raw, _ := os.ReadFile(path)
	if !strings.Contains(string(raw), "abc-123") {
		t.Error("child logger dropped its attribute")
	}
}
