package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("expected no error for missing file, got %v", err)
	}
	if cfg.Practice.Difficulty != nil {
		t.Fatalf("expected empty config")
	}
}

func TestLoadConfigValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[practice]
ops = ["add", "root"]
difficulty = "hard"
duration = 90

[renderer]
kind = "remote"
timeout = "2s"

[log]
level = "debug"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Practice.Ops == nil || len(*cfg.Practice.Ops) != 2 || (*cfg.Practice.Ops)[1] != "root" {
		t.Fatalf("unexpected ops: %v", cfg.Practice.Ops)
	}
	if cfg.Practice.Difficulty == nil || *cfg.Practice.Difficulty != "hard" {
		t.Fatalf("unexpected difficulty")
	}
	if cfg.Practice.Duration == nil || *cfg.Practice.Duration != 90 {
		t.Fatalf("unexpected duration")
	}
	if cfg.Practice.Countdown != nil {
		t.Fatalf("countdown should be unset")
	}
	if cfg.Renderer.Kind == nil || *cfg.Renderer.Kind != "remote" {
		t.Fatalf("unexpected renderer kind")
	}
	if cfg.Log.Level == nil || *cfg.Log.Level != "debug" {
		t.Fatalf("unexpected log level")
	}
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[practice]\nwords = 10\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadConfig(path); err == nil || !strings.Contains(err.Error(), "practice.words") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestNewLoggerWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "tuimath.log")
	log, closer, err := NewLogger("info", path)
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	log.Debug("hidden")
	log.Info("renderer loaded")
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "renderer loaded") || strings.Contains(string(data), "hidden") {
		t.Fatalf("unexpected log contents: %s", data)
	}
	if _, _, err := NewLogger("loud", ""); err == nil {
		t.Fatalf("expected invalid level error")
	}
}

func TestXDGPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/cfg")
	t.Setenv("XDG_DATA_HOME", "/data")
	t.Setenv("XDG_CACHE_HOME", "/cache")
	if got := DefaultConfigPath(); got != filepath.Join("/cfg", "tuimath", "config.toml") {
		t.Fatalf("unexpected config path %q", got)
	}
	if got := DefaultLogPath(); got != filepath.Join("/data", "tuimath", "tuimath.log") {
		t.Fatalf("unexpected log path %q", got)
	}
	if got := DefaultRendererCacheDir(); got != filepath.Join("/cache", "tuimath", "typeset") {
		t.Fatalf("unexpected cache dir %q", got)
	}
}
