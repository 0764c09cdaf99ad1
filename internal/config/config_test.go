package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseDefaultConfig(t *testing.T) {
	cfg, err := parse(DefaultConfigYAML)
	if err != nil {
		t.Fatalf("failed to parse default config: %v", err)
	}

	if cfg.Source.URL == "" {
		t.Error("expected source url to be populated")
	}
	if cfg.Source.Timeout != 30*time.Second {
		t.Errorf("expected 30s timeout, got %v", cfg.Source.Timeout)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("expected port 8000, got %d", cfg.Server.Port)
	}
	if cfg.View.Theme != "light" {
		t.Errorf("expected theme 'light', got %q", cfg.View.Theme)
	}
	if cfg.Cache.Backend != "memory" {
		t.Errorf("expected memory cache, got %q", cfg.Cache.Backend)
	}
	if cfg.Notes["intensity"] == "" {
		t.Error("expected intensity note")
	}
}

func TestParseMinimalConfig(t *testing.T) {
	data := []byte(`
source:
  file: /tmp/data.json
server:
  port: 9000
view:
  theme: dark
`)
	cfg, err := parse(data)
	if err != nil {
		t.Fatalf("failed to parse minimal config: %v", err)
	}

	if cfg.Source.File != "/tmp/data.json" {
		t.Errorf("expected file source, got %q", cfg.Source.File)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Server.Port)
	}
	if cfg.View.Theme != "dark" {
		t.Errorf("expected theme 'dark', got %q", cfg.View.Theme)
	}
	// Defaults should still be set for unspecified fields
	if cfg.View.PageSize != 5 {
		t.Errorf("expected default page size 5, got %d", cfg.View.PageSize)
	}
	if cfg.Source.UserAgent != "vizboard/1.0" {
		t.Errorf("expected default user agent, got %q", cfg.Source.UserAgent)
	}
}

func TestParseRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"theme":         "view:\n  theme: neon\n",
		"page size":     "view:\n  page_size: 0\n",
		"unknown view":  "view:\n  page_sizes:\n    bogus: 3\n",
		"override size": "view:\n  page_sizes:\n    topics: -1\n",
	}
	for name, data := range cases {
		if _, err := parse([]byte(data)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, DefaultConfigYAML, 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Cache.MaxEntries != 512 {
		t.Errorf("expected max_entries 512 from file, got %d", cfg.Cache.MaxEntries)
	}
}

func TestResolveConfigPathExplicitMissing(t *testing.T) {
	if _, err := ResolveConfigPath(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing explicit config")
	}
}

func TestGetDataDir(t *testing.T) {
	cfg := &Config{}
	defaultDir := cfg.GetDataDir()
	if defaultDir == "" {
		t.Error("expected non-empty default data dir")
	}

	cfg.Output.DataDir = "/custom/path"
	if cfg.GetDataDir() != "/custom/path" {
		t.Errorf("expected '/custom/path', got %q", cfg.GetDataDir())
	}
}

func TestViewsApplyPageSizes(t *testing.T) {
	cfg, err := parse(DefaultConfigYAML)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	for _, v := range cfg.Views() {
		if !v.Paged {
			continue
		}
		want := 5
		if v.Name == "relevance" {
			want = 10
		}
		if v.PageSize != want {
			t.Errorf("view %s: expected page size %d, got %d", v.Name, want, v.PageSize)
		}
	}
}

func TestCacheAndSourceOptions(t *testing.T) {
	cfg, err := parse([]byte("cache:\n  backend: redis\n  redis_url: redis://cache:6379/1\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	opts := cfg.CacheOptions()
	if opts.Backend != "redis" || opts.RedisURL != "redis://cache:6379/1" {
		t.Errorf("unexpected cache options: %+v", opts)
	}
	if opts.TTL != 10*time.Minute {
		t.Errorf("expected default ttl, got %v", opts.TTL)
	}
	if cfg.SourceOptions().Timeout != 30*time.Second {
		t.Errorf("expected default source timeout, got %v", cfg.SourceOptions().Timeout)
	}
}
