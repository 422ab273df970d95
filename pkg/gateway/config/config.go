package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type AuthMode string

const (
	AuthModeRequired AuthMode = "required"
	AuthModeDisabled AuthMode = "disabled"
)

const DefaultModel = "gemini-2.5-flash-native-audio-preview-12-2025"

type Config struct {
	Addr string

	// Upstream credential. The process refuses to start without it.
	GeminiAPIKey string
	Model        string

	// Admin login for the gated TTS mode.
	AuthMode      AuthMode
	AdminUsername string
	AdminPassword string
	SessionTTL    time.Duration

	// Chunked TTS mode.
	TTSMaxChunkChars int

	// CORS (empty => disabled).
	CORSAllowedOrigins map[string]struct{}

	// Live WebSocket tuning.
	WSPingInterval     time.Duration
	WSWriteTimeout     time.Duration
	WSHandshakeTimeout time.Duration
	WSMaxMessageBytes  int64
	InboundQueueSize   int

	// Operational defaults.
	ReadHeaderTimeout   time.Duration
	ShutdownGracePeriod time.Duration
}

func LoadFromEnv() (Config, error) {
	cfg := Config{
		Addr:                ":" + envOr("PORT", "3000"),
		GeminiAPIKey:        strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		Model:               envOr("VB_MODEL", DefaultModel),
		AuthMode:            AuthMode(envOr("VB_AUTH_MODE", string(AuthModeDisabled))),
		AdminUsername:       envOr("ADMIN_USERNAME", "admin"),
		AdminPassword:       envSetOr("ADMIN_PASSWORD", "admin123"),
		SessionTTL:          envDurationOr("VB_SESSION_TTL", 24*time.Hour),
		TTSMaxChunkChars:    envIntOr("VB_TTS_MAX_CHUNK_CHARS", 500),
		CORSAllowedOrigins:  make(map[string]struct{}),
		WSPingInterval:      envDurationOr("VB_WS_PING_INTERVAL", 20*time.Second),
		WSWriteTimeout:      envDurationOr("VB_WS_WRITE_TIMEOUT", 5*time.Second),
		WSHandshakeTimeout:  envDurationOr("VB_WS_HANDSHAKE_TIMEOUT", 5*time.Second),
		WSMaxMessageBytes:   envInt64Or("VB_WS_MAX_MESSAGE_BYTES", 1<<20), // 1 MiB of base64 PCM
		InboundQueueSize:    envIntOr("VB_INBOUND_QUEUE_SIZE", 64),
		ReadHeaderTimeout:   envDurationOr("VB_READ_HEADER_TIMEOUT", 10*time.Second),
		ShutdownGracePeriod: envDurationOr("VB_SHUTDOWN_GRACE_PERIOD", 30*time.Second),
	}

	if cfg.GeminiAPIKey == "" {
		return Config{}, fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}

	switch cfg.AuthMode {
	case AuthModeRequired, AuthModeDisabled:
	default:
		return Config{}, fmt.Errorf("VB_AUTH_MODE must be one of required|disabled")
	}

	for _, origin := range splitCSV(os.Getenv("VB_CORS_ORIGINS")) {
		cfg.CORSAllowedOrigins[origin] = struct{}{}
	}

	if strings.TrimSpace(cfg.Model) == "" {
		return Config{}, fmt.Errorf("VB_MODEL must not be empty")
	}
	if cfg.SessionTTL <= 0 {
		return Config{}, fmt.Errorf("VB_SESSION_TTL must be > 0")
	}
	if cfg.TTSMaxChunkChars <= 0 {
		return Config{}, fmt.Errorf("VB_TTS_MAX_CHUNK_CHARS must be > 0")
	}
	if cfg.WSPingInterval <= 0 {
		return Config{}, fmt.Errorf("VB_WS_PING_INTERVAL must be > 0")
	}
	if cfg.WSWriteTimeout <= 0 {
		return Config{}, fmt.Errorf("VB_WS_WRITE_TIMEOUT must be > 0")
	}
	if cfg.WSHandshakeTimeout <= 0 {
		return Config{}, fmt.Errorf("VB_WS_HANDSHAKE_TIMEOUT must be > 0")
	}
	if cfg.WSMaxMessageBytes <= 0 {
		return Config{}, fmt.Errorf("VB_WS_MAX_MESSAGE_BYTES must be > 0")
	}
	if cfg.InboundQueueSize <= 0 {
		return Config{}, fmt.Errorf("VB_INBOUND_QUEUE_SIZE must be > 0")
	}
	if cfg.ReadHeaderTimeout <= 0 {
		return Config{}, fmt.Errorf("VB_READ_HEADER_TIMEOUT must be > 0")
	}
	if cfg.ShutdownGracePeriod <= 0 {
		return Config{}, fmt.Errorf("VB_SHUTDOWN_GRACE_PERIOD must be > 0")
	}
	if cfg.AuthMode == AuthModeRequired && strings.TrimSpace(cfg.AdminPassword) == "" {
		return Config{}, fmt.Errorf("ADMIN_PASSWORD must not be empty when VB_AUTH_MODE=required")
	}

	return cfg, nil
}

func envOr(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

// envSetOr falls back to the default only when the variable is unset.
// A set-but-blank value stays blank so validation can reject it.
func envSetOr(key, def string) string {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	return strings.TrimSpace(v)
}

func envIntOr(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func envInt64Or(key string, def int64) int64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func envDurationOr(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return d
}

func splitCSV(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
