package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"github.com/arogyaai/reception-platform/internal/dialog"
)

func dialLive(t *testing.T, h *LiveListenHandler, callID string) *websocket.Conn {
	t.Helper()
	r := chi.NewRouter()
	r.Get("/admin/calls/{callID}/live", h.HandleLive)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/admin/calls/" + callID + "/live"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEntry(t *testing.T, conn *websocket.Conn) dialog.TranscriptEntry {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var entry dialog.TranscriptEntry
	if err := conn.ReadJSON(&entry); err != nil {
		t.Fatalf("read entry: %v", err)
	}
	return entry
}

func TestLiveListenStreamsPublishedEntries(t *testing.T) {
	hub := dialog.NewTranscriptHub()
	h := NewLiveListenHandler(hub, nil, nil)

	conn := dialLive(t, h, "live-1")

	hub.Publish("live-1", dialog.TranscriptEntry{
		Role: "user", Content: "hello", Timestamp: time.Now().UTC(),
	})
	entry := readEntry(t, conn)
	if entry.Role != "user" || entry.Content != "hello" {
		t.Errorf("entry = %+v", entry)
	}

	hub.Publish("live-1", dialog.TranscriptEntry{
		Role: "assistant", Content: "Which department?", Timestamp: time.Now().UTC(),
	})
	entry = readEntry(t, conn)
	if entry.Role != "assistant" {
		t.Errorf("entry = %+v", entry)
	}
}

func TestLiveListenReplaysStoredTranscript(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	hub := dialog.NewTranscriptHub()
	transcripts := dialog.NewRedisTranscriptStore(client, 0, hub)
	ctx := context.Background()
	if err := transcripts.Append(ctx, "live-2", dialog.TranscriptEntry{
		Role: "user", Content: "earlier turn", Timestamp: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("append: %v", err)
	}

	h := NewLiveListenHandler(hub, transcripts, nil)
	conn := dialLive(t, h, "live-2")

	entry := readEntry(t, conn)
	if entry.Content != "earlier turn" {
		t.Errorf("replayed entry = %+v", entry)
	}
}

func TestLiveListenWithoutHubUnavailable(t *testing.T) {
	h := NewLiveListenHandler(nil, nil, nil)
	r := chi.NewRouter()
	r.Get("/admin/calls/{callID}/live", h.HandleLive)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/calls/x/live", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}
