package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	t.Setenv("TMDB_API_KEY", "test-key")

	missing := filepath.Join(t.TempDir(), "config.toml")
	cfg, resolvedPath, exists, err := Load(missing)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected exists=false for missing config file")
	}
	if resolvedPath != missing {
		t.Fatalf("resolved path = %q, want %q", resolvedPath, missing)
	}
	if cfg.TMDB.APIKey != "test-key" {
		t.Fatalf("api key = %q, want env fallback", cfg.TMDB.APIKey)
	}
	if cfg.Download.Workers != 1 {
		t.Fatalf("workers = %d, want 1", cfg.Download.Workers)
	}
	if cfg.Matching.AcceptScore != 0.5 || cfg.Matching.SecondQueryScore != 0.6 {
		t.Fatalf("unexpected matching thresholds: %+v", cfg.Matching)
	}
	if !filepath.IsAbs(cfg.Paths.StateDir) {
		t.Fatalf("state dir not expanded: %q", cfg.Paths.StateDir)
	}
}

func TestLoadAppliesOverrides(t *testing.T) {
	t.Setenv("TMDB_API_KEY", "")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
state_dir = "` + filepath.ToSlash(filepath.Join(dir, "state")) + `"

[tmdb]
api_key = "file-key"
base_url = "https://tmdb.example/3/"

[download]
workers = 3

[breaker]
cooldown_seconds = 120
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists=true")
	}
	if cfg.TMDB.APIKey != "file-key" {
		t.Fatalf("api key = %q", cfg.TMDB.APIKey)
	}
	if cfg.TMDB.BaseURL != "https://tmdb.example/3" {
		t.Fatalf("base url not normalized: %q", cfg.TMDB.BaseURL)
	}
	if cfg.Download.Workers != 3 {
		t.Fatalf("workers = %d, want 3", cfg.Download.Workers)
	}
	if cfg.Breaker.CooldownSeconds != 120 {
		t.Fatalf("cooldown = %d, want 120", cfg.Breaker.CooldownSeconds)
	}
	if cfg.Scan.MaxPages != defaultMaxPages {
		t.Fatalf("omitted key lost its default: %d", cfg.Scan.MaxPages)
	}
	if got := cfg.LedgerPath(); got != filepath.Join(dir, "state", "downloaded.json") {
		t.Fatalf("ledger path = %q", got)
	}
}

func TestValidateRequiresAPIKey(t *testing.T) {
	t.Setenv("TMDB_API_KEY", "")

	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatal(err)
	}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error for empty api key")
	}
	if !strings.Contains(err.Error(), "tmdb.api_key") {
		t.Fatalf("error does not name the offending key: %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"score above one", func(c *Config) { c.Matching.AcceptScore = 1.5 }},
		{"negative penalty", func(c *Config) { c.Matching.YearPenalty = -0.1 }},
		{"zero workers", func(c *Config) { c.Download.Workers = 0 }},
		{"max wait below initial", func(c *Config) { c.Download.RetryMaxWait = 5 }},
		{"zero threshold", func(c *Config) { c.Breaker.FailureThreshold = 0 }},
		{"zero empty-page stop", func(c *Config) { c.Scan.EmptyPageStop = 0 }},
		{"bad log format", func(c *Config) { c.Logging.Format = "yaml" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			cfg.TMDB.APIKey = "key"
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestExpandPathTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	got, err := ExpandPath("~/stills")
	if err != nil {
		t.Fatal(err)
	}
	if got != filepath.Join(home, "stills") {
		t.Fatalf("expanded = %q", got)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := CreateSample(path); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "[matching]") {
		t.Fatal("sample config missing matching section")
	}
}
