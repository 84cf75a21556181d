package config

import (
	"path/filepath"
	"testing"
	"time"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	dir := t.TempDir()
	return &Config{
		Port:          "8080",
		SQLiteDBPath:  filepath.Join(dir, "lapor.db"),
		ReportsDir:    filepath.Join(dir, "reports"),
		UploadsDir:    filepath.Join(dir, "uploads"),
		Renderer:      RendererTypst,
		TypstBin:      "typst",
		TypstRoot:     ".",
		GotenbergURL:  "http://localhost:3000",
		RenderTimeout: 30 * time.Second,
		SyncBatchSize: 10,
		SyncInterval:  30 * time.Second,
	}
}

func TestValidateOK(t *testing.T) {
	cfg := testConfig(t)
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Port = "http" }},
		{"port out of range", func(c *Config) { c.Port = "70000" }},
		{"unknown renderer", func(c *Config) { c.Renderer = "latex" }},
		{"bad gotenberg url", func(c *Config) { c.Renderer = RendererGotenberg; c.GotenbergURL = "::" }},
		{"render timeout too small", func(c *Config) { c.RenderTimeout = time.Millisecond }},
		{"bad amqp scheme", func(c *Config) { c.AMQPURL = "http://localhost" }},
		{"amqp queue missing", func(c *Config) { c.AMQPURL = "amqp://localhost"; c.AMQPQueue = "" }},
		{"batch size zero", func(c *Config) { c.SyncBatchSize = 0 }},
		{"sync interval too small", func(c *Config) { c.SyncInterval = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig(t)
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.Port == "" || cfg.Renderer == "" {
		t.Fatalf("defaults must be populated, got %+v", cfg)
	}
	if cfg.Renderer != RendererTypst {
		t.Fatalf("default renderer is typst, got %q", cfg.Renderer)
	}
}
