package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const validConfig = `
service = "pulseboard"
version = "1.2.3"

[log]
level = "debug"

[metrics]
enabled = true
port = "9090"

[store]
backend = "memory"

[guard]
failure_threshold = 5
open_duration = "45s"

[[feeds]]
name = "world-news"
kind = "rss"
url = "https://feeds.example.com/world.xml"
every = "2m"
cache_ttl = "5m"
persist = true

[[feeds]]
name = "fx"
kind = "quotes"
url = "https://quotes.example.com/api"
symbols = ["EURUSD", "USDJPY"]

[[feeds]]
name = "quakes"
kind = "quakes"
url = "https://quakes.example.com/feed.geojson"
min_magnitude = 4.5
`

func TestLoad(t *testing.T) {
	path := writeConfig(t, validConfig)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Service != "pulseboard" {
		t.Errorf("Service = %q", cfg.Service)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q", cfg.Log.Level)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Port != "9090" {
		t.Errorf("Metrics = %+v", cfg.Metrics)
	}
	if cfg.Store.Backend != "memory" {
		t.Errorf("Store.Backend = %q", cfg.Store.Backend)
	}
	if cfg.Guard.FailureThreshold != 5 {
		t.Errorf("Guard.FailureThreshold = %d", cfg.Guard.FailureThreshold)
	}
	if cfg.Guard.OpenDuration != 45*time.Second {
		t.Errorf("Guard.OpenDuration = %v", cfg.Guard.OpenDuration)
	}

	if len(cfg.Feeds) != 3 {
		t.Fatalf("len(Feeds) = %d, want 3", len(cfg.Feeds))
	}
	rss := cfg.Feeds[0]
	if rss.Name != "world-news" || rss.Kind != "rss" || !rss.Persist {
		t.Errorf("feed[0] = %+v", rss)
	}
	if rss.Every != 2*time.Minute || rss.CacheTTL != 5*time.Minute {
		t.Errorf("feed[0] durations: every=%v cache_ttl=%v", rss.Every, rss.CacheTTL)
	}
	if got := cfg.Feeds[1].Symbols; len(got) != 2 || got[0] != "EURUSD" {
		t.Errorf("feed[1].Symbols = %v", got)
	}
	if cfg.Feeds[2].MinMagnitude != 4.5 {
		t.Errorf("feed[2].MinMagnitude = %v", cfg.Feeds[2].MinMagnitude)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			"missing service",
			`
[[feeds]]
name = "a"
kind = "rss"
url = "https://example.com/feed"
`,
		},
		{
			"unknown feed kind",
			`
service = "pulseboard"

[[feeds]]
name = "a"
kind = "soap"
url = "https://example.com/feed"
`,
		},
		{
			"feed without name",
			`
service = "pulseboard"

[[feeds]]
kind = "rss"
url = "https://example.com/feed"
`,
		},
		{
			"bad feed url",
			`
service = "pulseboard"

[[feeds]]
name = "a"
kind = "rss"
url = "not a url"
`,
		},
		{
			"unknown store backend",
			`
service = "pulseboard"

[store]
backend = "sqlite"
`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			if _, err := Load(path); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestValidateMinimal(t *testing.T) {
	cfg := &Config{Service: "pulseboard"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("minimal config must validate: %v", err)
	}
}
