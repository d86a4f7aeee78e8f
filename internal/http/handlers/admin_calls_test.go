package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/arogyaai/reception-platform/internal/dialog"
)

func newAdminTestDeps(t *testing.T) (dialog.SessionStore, dialog.TranscriptStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return dialog.NewRedisSessionStore(client, 0), dialog.NewRedisTranscriptStore(client, 0, nil)
}

func adminRouter(h *AdminCallsHandler) http.Handler {
	r := chi.NewRouter()
	r.Get("/admin/calls/{callID}", h.HandleGetCall)
	r.Get("/admin/calls/{callID}/transcript", h.HandleGetTranscript)
	return r
}

func TestAdminGetCallFromSession(t *testing.T) {
	sessions, transcripts := newAdminTestDeps(t)
	ctx := context.Background()

	sess := &dialog.Session{
		CallID:   "call-1",
		Mode:     dialog.ModeHospital,
		State:    dialog.StateCollectPhone,
		Language: dialog.LangHindi,
		Slots: dialog.Slots{
			PatientName: "Rohit Narwal",
			DoctorName:  "Dr Neha Sharma",
			Department:  "Cardiology",
		},
	}
	if err := sessions.Save(ctx, sess); err != nil {
		t.Fatalf("save session: %v", err)
	}
	entries := []dialog.TranscriptEntry{
		{Role: "user", Content: "I want to see Dr Neha Sharma", Timestamp: time.Now().UTC()},
		{Role: "assistant", Content: "What is the patient's name?", Timestamp: time.Now().UTC()},
	}
	for _, e := range entries {
		if err := transcripts.Append(ctx, "call-1", e); err != nil {
			t.Fatalf("append transcript: %v", err)
		}
	}

	h := NewAdminCallsHandler(transcripts, nil, sessions, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/calls/call-1", nil)
	adminRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var resp CallDetailResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.CallID != "call-1" {
		t.Errorf("call_id = %q", resp.CallID)
	}
	if resp.State != "collect_phone" {
		t.Errorf("state = %q, want collect_phone", resp.State)
	}
	if resp.Language != "hi" {
		t.Errorf("language = %q, want hi", resp.Language)
	}
	if resp.Slots.PatientName != "Rohit Narwal" {
		t.Errorf("patient name = %q", resp.Slots.PatientName)
	}
	if len(resp.Transcript) != 2 {
		t.Fatalf("transcript length = %d, want 2", len(resp.Transcript))
	}
	if resp.Transcript[0].Role != "user" || resp.Transcript[1].Role != "assistant" {
		t.Errorf("transcript roles = %q, %q", resp.Transcript[0].Role, resp.Transcript[1].Role)
	}
}

func TestAdminGetCallNotFound(t *testing.T) {
	sessions, transcripts := newAdminTestDeps(t)
	h := NewAdminCallsHandler(transcripts, nil, sessions, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/calls/no-such-call", nil)
	adminRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestAdminGetTranscript(t *testing.T) {
	sessions, transcripts := newAdminTestDeps(t)
	ctx := context.Background()

	if err := transcripts.Append(ctx, "call-2", dialog.TranscriptEntry{
		Role: "user", Content: "hello", Timestamp: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("append transcript: %v", err)
	}

	h := NewAdminCallsHandler(transcripts, nil, sessions, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/calls/call-2/transcript", nil)
	adminRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp struct {
		CallID     string         `json:"call_id"`
		Transcript []TurnResponse `json:"transcript"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.CallID != "call-2" {
		t.Errorf("call_id = %q", resp.CallID)
	}
	if len(resp.Transcript) != 1 || resp.Transcript[0].Content != "hello" {
		t.Errorf("transcript = %+v", resp.Transcript)
	}
}

func TestAdminGetTranscriptEmpty(t *testing.T) {
	sessions, transcripts := newAdminTestDeps(t)
	h := NewAdminCallsHandler(transcripts, nil, sessions, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/calls/call-3/transcript", nil)
	adminRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp struct {
		Transcript []TurnResponse `json:"transcript"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Transcript) != 0 {
		t.Errorf("transcript = %+v, want empty", resp.Transcript)
	}
}
