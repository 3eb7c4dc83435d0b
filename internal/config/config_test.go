package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dgallion1/navflat/internal/flatten"
	"github.com/dgallion1/navflat/internal/menutree"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != "8090" {
		t.Errorf("expected port 8090, got %q", cfg.Server.Port)
	}
	if cfg.Server.MaxUploadBytes != 5<<20 {
		t.Errorf("unexpected upload cap %d", cfg.Server.MaxUploadBytes)
	}
	if cfg.Store.TTL != time.Hour || cfg.Store.CleanupInterval != 5*time.Minute || cfg.Store.MaxMenus != 1000 {
		t.Errorf("unexpected store config %+v", cfg.Store)
	}
	want := FlattenSettings{KeyField: "id", OnCycle: "fail", Strategy: "stack"}
	if cfg.Flatten != want {
		t.Errorf("got %+v, want %+v", cfg.Flatten, want)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
	if err := cfg.ValidateServer(); err == nil {
		t.Error("server validation should require an api key")
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "navflat.yaml")
	yaml := `server:
  port: "9000"
  api_key: from-file
store:
  ttl: 30m
flatten:
  key_field: label
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("NAVFLAT_SERVER_API_KEY", "from-env")
	t.Setenv("NAVFLAT_FLATTEN_STRATEGY", "worklist")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != "9000" {
		t.Errorf("expected port from file, got %q", cfg.Server.Port)
	}
	if cfg.Server.APIKey != "from-env" {
		t.Errorf("expected env to win over file, got %q", cfg.Server.APIKey)
	}
	if cfg.Store.TTL != 30*time.Minute {
		t.Errorf("expected ttl 30m, got %v", cfg.Store.TTL)
	}
	if cfg.Flatten.KeyField != "label" || cfg.Flatten.Strategy != "worklist" {
		t.Errorf("unexpected flatten settings %+v", cfg.Flatten)
	}
	if err := cfg.ValidateServer(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidate_RejectsBadValues(t *testing.T) {
	base, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port", func(c *Config) { c.Server.Port = "http" }},
		{"upload", func(c *Config) { c.Server.MaxUploadBytes = 0 }},
		{"concurrency", func(c *Config) { c.Server.BatchConcurrency = 0 }},
		{"ttl", func(c *Config) { c.Store.TTL = 0 }},
		{"key field", func(c *Config) { c.Flatten.KeyField = "route" }},
		{"on cycle", func(c *Config) { c.Flatten.OnCycle = "ignore" }},
		{"strategy", func(c *Config) { c.Flatten.Strategy = "bfs" }},
		{"log level", func(c *Config) { c.Log.Level = "trace" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestFlattenSettings_Build(t *testing.T) {
	s := FlattenSettings{KeyField: "id", OnCycle: "fail", Strategy: "stack"}.
		Override("label", "skip", "recursive")

	var report []*menutree.CyclicStructureError
	cfg, err := s.Build(&report)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.KeyField != menutree.KeyLabel || cfg.Strategy != flatten.StrategyRecursive {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.OnCycle == nil {
		t.Fatal("expected a skip handler")
	}

	loop := &menutree.TreeNode{Label: "Loop"}
	loop.Children = []*menutree.TreeNode{loop}
	flat, err := flatten.Flatten(menutree.Forest{loop}, cfg)
	if err != nil {
		t.Fatalf("skip handler should not fail: %v", err)
	}
	if len(flat) != 1 || len(report) != 1 {
		t.Errorf("expected 1 record and 1 reported cycle, got %d and %d", len(flat), len(report))
	}

	if s.Override("", "", "") != s {
		t.Error("empty overrides should change nothing")
	}
	if _, err := (FlattenSettings{OnCycle: "ignore"}).Build(nil); err == nil {
		t.Error("expected error for unknown on_cycle")
	}
	if _, err := (FlattenSettings{Strategy: "bfs"}).Build(nil); err == nil {
		t.Error("expected error for unknown strategy")
	}
}

func TestLogConfig_SlogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
	}
	for name, want := range tests {
		if got := (LogConfig{Level: name}).SlogLevel(); got != want {
			t.Errorf("SlogLevel(%q) = %v, want %v", name, got, want)
		}
	}
}
