package config

import (
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("GEMINI_API_KEY", "test-key")
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":3000" {
		t.Fatalf("addr=%q, want :3000", cfg.Addr)
	}
	if cfg.Model != DefaultModel {
		t.Fatalf("model=%q", cfg.Model)
	}
	if cfg.AuthMode != AuthModeDisabled {
		t.Fatalf("auth_mode=%q, want disabled", cfg.AuthMode)
	}
	if cfg.AdminUsername != "admin" || cfg.AdminPassword != "admin123" {
		t.Fatalf("admin=%q/%q", cfg.AdminUsername, cfg.AdminPassword)
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Fatalf("ttl=%v, want 24h", cfg.SessionTTL)
	}
	if cfg.TTSMaxChunkChars != 500 {
		t.Fatalf("chunk chars=%d, want 500", cfg.TTSMaxChunkChars)
	}
}

func TestLoadFromEnv_MissingAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	if _, err := LoadFromEnv(); err == nil {
		t.Fatal("expected error without GEMINI_API_KEY")
	}
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "8080")
	t.Setenv("VB_MODEL", "custom-model")
	t.Setenv("VB_AUTH_MODE", "required")
	t.Setenv("ADMIN_PASSWORD", "hunter2")
	t.Setenv("VB_SESSION_TTL", "1h")
	t.Setenv("VB_TTS_MAX_CHUNK_CHARS", "120")
	t.Setenv("VB_CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Fatalf("addr=%q", cfg.Addr)
	}
	if cfg.Model != "custom-model" {
		t.Fatalf("model=%q", cfg.Model)
	}
	if cfg.AuthMode != AuthModeRequired {
		t.Fatalf("auth_mode=%q", cfg.AuthMode)
	}
	if cfg.SessionTTL != time.Hour {
		t.Fatalf("ttl=%v", cfg.SessionTTL)
	}
	if cfg.TTSMaxChunkChars != 120 {
		t.Fatalf("chunk chars=%d", cfg.TTSMaxChunkChars)
	}
	if len(cfg.CORSAllowedOrigins) != 2 {
		t.Fatalf("origins=%v", cfg.CORSAllowedOrigins)
	}
	if _, ok := cfg.CORSAllowedOrigins["https://b.example"]; !ok {
		t.Fatalf("origins=%v, want b.example allowlisted", cfg.CORSAllowedOrigins)
	}
}

func TestLoadFromEnv_InvalidAuthMode(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("VB_AUTH_MODE", "maybe")
	if _, err := LoadFromEnv(); err == nil {
		t.Fatal("expected error for invalid auth mode")
	}
}

func TestLoadFromEnv_RequiredNeedsPassword(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("VB_AUTH_MODE", "required")
	t.Setenv("ADMIN_PASSWORD", "   ")
	if _, err := LoadFromEnv(); err == nil {
		t.Fatal("expected error when required mode has no password")
	}
}

func TestLoadFromEnv_BlankPasswordIsNotDefaulted(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ADMIN_PASSWORD", "   ")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AdminPassword != "" {
		t.Fatalf("password=%q, want blank to stay blank when the variable is set", cfg.AdminPassword)
	}
}

func TestLoadFromEnv_BadDurationFallsBack(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("VB_SESSION_TTL", "not-a-duration")
	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Fatalf("ttl=%v, want default on parse failure", cfg.SessionTTL)
	}
}
