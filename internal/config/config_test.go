package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "WORKER_COUNT", "MAX_QUEUE_SIZE", "JOB_TTL", "FOOTNOTE_ID_PREFIX", "STATS_WINDOW", "LOG_LEVEL", "DOCEDIT_API_KEY"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	if cfg.Port != "8090" {
		t.Errorf("expected port 8090, got %q", cfg.Port)
	}
	if cfg.WorkerCount != 4 || cfg.MaxQueueSize != 100 {
		t.Errorf("expected 4 workers and queue 100, got %d and %d", cfg.WorkerCount, cfg.MaxQueueSize)
	}
	if cfg.JobTTL != time.Hour || cfg.StatsWindow != time.Hour {
		t.Errorf("expected one hour TTL and window, got %s and %s", cfg.JobTTL, cfg.StatsWindow)
	}
	if cfg.FootnoteIDPrefix != "fn-" {
		t.Errorf("expected prefix fn-, got %q", cfg.FootnoteIDPrefix)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected defaults to validate, got %v", err)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("WORKER_COUNT", "9")
	t.Setenv("MAX_QUEUE_SIZE", "-1")
	t.Setenv("JOB_TTL", "90s")
	t.Setenv("PDF_FALLBACK_PDFTOTEXT", "false")
	t.Setenv("FOOTNOTE_ID_PREFIX", "note-")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := Load()
	if cfg.WorkerCount != 9 {
		t.Errorf("expected 9 workers, got %d", cfg.WorkerCount)
	}
	if cfg.MaxQueueSize != 100 {
		t.Errorf("expected non-positive queue size to fall back to 100, got %d", cfg.MaxQueueSize)
	}
	if cfg.JobTTL != 90*time.Second {
		t.Errorf("expected 90s TTL, got %s", cfg.JobTTL)
	}
	if cfg.PDFFallbackPdftotext {
		t.Error("expected pdftotext fallback disabled")
	}
	if cfg.FootnoteIDPrefix != "note-" {
		t.Errorf("expected prefix note-, got %q", cfg.FootnoteIDPrefix)
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Errorf("expected debug level, got %s", cfg.SlogLevel())
	}
}

func TestValidate(t *testing.T) {
	base := Config{Port: "8090", FootnoteIDPrefix: "fn-", LogLevel: "info"}
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"ok", func(*Config) {}, false},
		{"no port", func(c *Config) { c.Port = "" }, true},
		{"blank prefix", func(c *Config) { c.FootnoteIDPrefix = "  " }, true},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, true},
		{"warn level", func(c *Config) { c.LogLevel = "WARN" }, false},
	}
	for _, tt := range tests {
		cfg := base
		tt.mutate(&cfg)
		err := cfg.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: expected error=%v, got %v", tt.name, tt.wantErr, err)
		}
	}
}
