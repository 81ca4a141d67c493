package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadEnvOnlyDefaults(t *testing.T) {
	cfg, err := Load("", true)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.API.BaseURL != "http://localhost:8000/api" {
		t.Fatalf("base_url=%q", cfg.API.BaseURL)
	}
	if cfg.UI.NotificationDelay != 5*time.Second {
		t.Fatalf("notification_delay=%v want=5s", cfg.UI.NotificationDelay)
	}
	if cfg.UI.NotificationTransition != 300*time.Millisecond {
		t.Fatalf("notification_transition=%v want=300ms", cfg.UI.NotificationTransition)
	}
	if cfg.UI.PollInterval != 30*time.Second {
		t.Fatalf("poll_interval=%v want=30s", cfg.UI.PollInterval)
	}
	if cfg.UI.GatewayTestDelay != 3*time.Second {
		t.Fatalf("gateway_test_delay=%v want=3s", cfg.UI.GatewayTestDelay)
	}
	if cfg.API.Timeout != 0 {
		t.Fatalf("timeout=%v want=0", cfg.API.Timeout)
	}
	if cfg.UI.BotCapacity != 5 || cfg.API.LogsLimit != 100 {
		t.Fatalf("capacity=%d logs_limit=%d", cfg.UI.BotCapacity, cfg.API.LogsLimit)
	}
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := "server:\n  http_addr: \":9999\"\nui:\n  notification_delay: 3s\napi:\n  base_url: http://backend/api\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("BP_API_LOGS_LIMIT", "25")

	cfg, err := Load(path, false)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.HTTPAddr != ":9999" {
		t.Fatalf("http_addr=%q", cfg.Server.HTTPAddr)
	}
	if cfg.UI.NotificationDelay != 3*time.Second {
		t.Fatalf("notification_delay=%v want=3s", cfg.UI.NotificationDelay)
	}
	if cfg.API.BaseURL != "http://backend/api" {
		t.Fatalf("base_url=%q", cfg.API.BaseURL)
	}
	if cfg.API.LogsLimit != 25 {
		t.Fatalf("logs_limit=%d want=25", cfg.API.LogsLimit)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), false); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
