package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"

	"github.com/arogyaai/reception-platform/internal/dialog"
	"github.com/arogyaai/reception-platform/internal/directory"
	"github.com/arogyaai/reception-platform/internal/http/handlers"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	sessions := dialog.NewRedisSessionStore(client, 0)
	transcripts := dialog.NewRedisTranscriptStore(client, 0, nil)
	engine := dialog.NewEngine(directory.Default(), dialog.NewComposer())
	service := dialog.NewCallService(dialog.CallServiceConfig{
		Engine:      engine,
		Sessions:    sessions,
		Transcripts: transcripts,
	})

	return New(&Config{
		VoiceWebhook: handlers.NewVoiceWebhookHandler(handlers.VoiceWebhookHandlerConfig{
			Service:  service,
			Sessions: sessions,
		}),
		AdminCalls:     handlers.NewAdminCallsHandler(transcripts, nil, sessions, nil),
		AdminJWTSecret: "router-test-secret",
	})
}

func adminToken(t *testing.T) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "admin",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte("router-test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestRouterHealth(t *testing.T) {
	h := newTestRouter(t)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status body = %q, want ok", body["status"])
	}
}

func TestRouterVoiceTurn(t *testing.T) {
	h := newTestRouter(t)

	event := map[string]any{
		"conversation_id": "rt-call-1",
		"payload": map[string]any{
			"tool_call_id": "tc-1",
			"arguments":    map[string]string{"transcript": "I need a cardiology appointment"},
		},
	}
	body, _ := json.Marshal(event)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/voice/turn", bytes.NewReader(body))
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var resp handlers.VoiceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ToolCallID != "tc-1" {
		t.Errorf("tool_call_id = %q, want tc-1", resp.ToolCallID)
	}
	if resp.Response == "" {
		t.Error("empty spoken response")
	}
}

func TestRouterAdminRequiresToken(t *testing.T) {
	h := newTestRouter(t)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/calls/some-call", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestRouterAdminWithToken(t *testing.T) {
	h := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/admin/calls/absent-call", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken(t))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	// Auth passed; the call simply does not exist.
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
