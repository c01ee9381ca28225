package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected default config to validate, got %v", err)
	}
}

func TestValidateRejectsBadLogLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogLevel = "verbose"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected an error for an unrecognized log level")
	}
}

func TestValidateRejectsZeroBufferPoolFrames(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Storage.BufferPoolFrames = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected an error for a zero-frame buffer pool")
	}
}

func TestLoadFromFlagsOverridesOnlyNonEmpty(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LoadFromFlags("", "debug")
	if cfg.DataDir != "./data" {
		t.Fatalf("expected DataDir unchanged by an empty flag, got %q", cfg.DataDir)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected LogLevel overridden to debug, got %q", cfg.LogLevel)
	}
}

func TestGetDatabasePathJoinsDataDirAndFile(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = "/var/lib/tinydb"
	cfg.Storage.DatabaseFile = "main.db"
	want := filepath.Join("/var/lib/tinydb", "main.db")
	if got := cfg.GetDatabasePath(); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestLoadFromFileLayersOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	partial := map[string]any{"log_level": "error"}
	data, err := json.Marshal(partial)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if cfg.LogLevel != "error" {
		t.Fatalf("expected log_level overridden from file, got %q", cfg.LogLevel)
	}
	if cfg.Storage.BufferPoolFrames != 64 {
		t.Fatalf("expected default buffer pool frames preserved, got %d", cfg.Storage.BufferPoolFrames)
	}
}
