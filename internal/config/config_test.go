package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Fetch.MinHTMLBytes != 1000 {
		t.Fatalf("expected default min_html_bytes 1000, got %d", cfg.Fetch.MinHTMLBytes)
	}
	if cfg.Render.Engine != "chromedp" {
		t.Fatalf("expected default render engine chromedp, got %q", cfg.Render.Engine)
	}
	if cfg.Keywords.TopN != 20 || cfg.Keywords.MinLength != 4 {
		t.Fatalf("unexpected keyword defaults: %+v", cfg.Keywords)
	}
	if cfg.Infer.ModelThreshold != 2 {
		t.Fatalf("expected model threshold 2, got %d", cfg.Infer.ModelThreshold)
	}
	if cfg.FetchTimeout().Seconds() != 15 {
		t.Fatalf("expected 15s fetch timeout, got %s", cfg.FetchTimeout())
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 9090
fetch:
  min_html_bytes: 2048
render:
  engine: playwright
  timeout_seconds: 45
infer:
  traffic:
    high_pages: 5000
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Fatalf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Fetch.MinHTMLBytes != 2048 {
		t.Fatalf("expected min_html_bytes 2048, got %d", cfg.Fetch.MinHTMLBytes)
	}
	if cfg.Render.Engine != "playwright" || cfg.RenderTimeout().Seconds() != 45 || cfg.LaunchTimeout().Seconds() != 15 {
		t.Fatalf("unexpected render config: %+v", cfg.Render)
	}
	if cfg.Infer.Traffic.HighPages != 5000 || cfg.Infer.Traffic.MidPages != 200 {
		t.Fatalf("unexpected traffic thresholds: %+v", cfg.Infer.Traffic)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("SITEAUDIT_KEYWORDS_TOP_N", "5")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Keywords.TopN != 5 {
		t.Fatalf("expected env override top_n 5, got %d", cfg.Keywords.TopN)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	base, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port", func(c *Config) { c.Server.Port = 0 }},
		{"auth without key", func(c *Config) { c.Auth.Enabled = true; c.Auth.APIKey = "" }},
		{"engine", func(c *Config) { c.Render.Engine = "lynx" }},
		{"threshold", func(c *Config) { c.Infer.ModelThreshold = 0 }},
		{"traffic ordering", func(c *Config) { c.Infer.Traffic.MidPages = c.Infer.Traffic.HighPages + 1 }},
	}
	for _, tt := range tests {
		cfg := base
		tt.mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", tt.name)
		}
	}
}
