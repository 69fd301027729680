package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.App.Port != "8080" {
		t.Errorf("default port = %s, want 8080", cfg.App.Port)
	}
	if cfg.AI.ModerationFailClosed {
		t.Error("moderation must default to fail-open")
	}
	if cfg.AI.ModerationThreshold != 0.7 {
		t.Errorf("moderation threshold = %v, want 0.7", cfg.AI.ModerationThreshold)
	}
	if cfg.AI.MisuseFlagThreshold != 3 {
		t.Errorf("misuse flag threshold = %v, want 3", cfg.AI.MisuseFlagThreshold)
	}
	if cfg.WebSearch.Enabled {
		t.Error("web search must default to disabled")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_PORT", "9999")
	t.Setenv("AI_MODERATION_FAIL_CLOSED", "true")
	t.Setenv("NOTIFY_WORKERS", "8")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.App.Port != "9999" {
		t.Errorf("port = %s, want 9999", cfg.App.Port)
	}
	if !cfg.AI.ModerationFailClosed {
		t.Error("fail-closed override ignored")
	}
	if cfg.Notification.Workers != 8 {
		t.Errorf("workers = %d, want 8", cfg.Notification.Workers)
	}
}

func TestLoad_InvalidRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "not-a-number")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid REDIS_DB")
	}
}

func TestAIConfig_TimeoutFloor(t *testing.T) {
	if got := (AIConfig{TimeoutSeconds: 0}).Timeout(); got != 30*time.Second {
		t.Errorf("zero timeout = %v, want 30s", got)
	}
	if got := (AIConfig{TimeoutSeconds: 5}).Timeout(); got != 5*time.Second {
		t.Errorf("timeout = %v, want 5s", got)
	}
}

func TestAppConfig_Addr(t *testing.T) {
	addr := AppConfig{Host: "127.0.0.1", Port: "8080"}.Addr()
	if addr != "127.0.0.1:8080" {
		t.Errorf("addr = %s", addr)
	}
}
