package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vango-go/voicebridge/pkg/gateway/config"
)

func validConfig() config.Config {
	return config.Config{
		Addr:                ":3000",
		GeminiAPIKey:        "test-key",
		Model:               config.DefaultModel,
		AuthMode:            config.AuthModeDisabled,
		AdminUsername:       "admin",
		AdminPassword:       "admin123",
		SessionTTL:          24 * time.Hour,
		TTSMaxChunkChars:    500,
		CORSAllowedOrigins:  map[string]struct{}{},
		WSPingInterval:      20 * time.Second,
		WSWriteTimeout:      5 * time.Second,
		WSHandshakeTimeout:  5 * time.Second,
		WSMaxMessageBytes:   1 << 20,
		InboundQueueSize:    64,
		ReadHeaderTimeout:   10 * time.Second,
		ShutdownGracePeriod: 30 * time.Second,
	}
}

func TestHealthHandler(t *testing.T) {
	w := httptest.NewRecorder()
	HealthHandler{Model: "test-model"}.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, want 200", w.Code)
	}
	var body struct {
		Status string `json:"status"`
		Model  string `json:"model"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "ok" || body.Model != "test-model" {
		t.Fatalf("body=%+v", body)
	}
}

func TestReadyHandler_OK(t *testing.T) {
	w := httptest.NewRecorder()
	ReadyHandler{Config: validConfig()}.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, want 200, body=%s", w.Code, w.Body.String())
	}
}

func TestReadyHandler_BadConfig(t *testing.T) {
	cfg := validConfig()
	cfg.GeminiAPIKey = ""
	cfg.TTSMaxChunkChars = 0

	w := httptest.NewRecorder()
	ReadyHandler{Config: cfg}.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d, want 500", w.Code)
	}
	var body struct {
		OK     bool     `json:"ok"`
		Issues []string `json:"issues"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.OK || len(body.Issues) < 2 {
		t.Fatalf("body=%+v, want issues for key and chunk size", body)
	}
}
