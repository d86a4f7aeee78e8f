package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/arogyaai/reception-platform/internal/dialog"
	"github.com/arogyaai/reception-platform/pkg/logging"
)

// LiveListenHandler streams a call's transcript to admin websocket clients
// as the turns happen. It replays the transcript so far, then relays hub
// entries until the client disconnects.
type LiveListenHandler struct {
	hub         *dialog.TranscriptHub
	transcripts dialog.TranscriptStore
	upgrader    websocket.Upgrader
	logger      *logging.Logger
}

// NewLiveListenHandler creates the live-listen handler.
func NewLiveListenHandler(hub *dialog.TranscriptHub, transcripts dialog.TranscriptStore, logger *logging.Logger) *LiveListenHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &LiveListenHandler{
		hub:         hub,
		transcripts: transcripts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 4 * 1024,
			// Auth happens in the AdminJWT middleware before the upgrade.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger: logger,
	}
}

// HandleLive handles GET /admin/calls/{callID}/live.
func (h *LiveListenHandler) HandleLive(w http.ResponseWriter, r *http.Request) {
	callID := chi.URLParam(r, "callID")
	if callID == "" {
		http.Error(w, "call id required", http.StatusBadRequest)
		return
	}
	if h.hub == nil {
		http.Error(w, "live listening disabled", http.StatusServiceUnavailable)
		return
	}

	// Subscribe before the replay so no entry falls between the two.
	entries, cancel := h.hub.Subscribe(callID)
	defer cancel()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("live: upgrade failed", "error", err, "call_id", callID)
		return
	}
	defer conn.Close()

	h.logger.Info("live: listener attached", "call_id", callID)

	if h.transcripts != nil {
		replay, err := h.transcripts.Get(r.Context(), callID)
		if err != nil {
			h.logger.Warn("live: replay failed", "error", err, "call_id", callID)
		}
		for _, entry := range replay {
			if err := conn.WriteJSON(entry); err != nil {
				return
			}
		}
	}

	// Reader goroutine: we never expect client messages, but reading is how
	// the websocket learns about a close.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case entry, ok := <-entries:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(entry); err != nil {
				return
			}
		case <-done:
			return
		case <-r.Context().Done():
			return
		}
	}
}
