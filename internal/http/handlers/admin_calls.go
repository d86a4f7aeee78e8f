package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/arogyaai/reception-platform/internal/dialog"
	"github.com/arogyaai/reception-platform/pkg/logging"
)

// AdminCallsHandler serves call transcripts and outcomes to the admin UI.
// Recent calls come from the Redis transcript store; older calls fall back
// to the Postgres audit tables.
type AdminCallsHandler struct {
	transcripts dialog.TranscriptStore
	audit       *dialog.AuditStore
	sessions    dialog.SessionStore
	logger      *logging.Logger
}

// NewAdminCallsHandler creates the admin calls handler.
func NewAdminCallsHandler(transcripts dialog.TranscriptStore, audit *dialog.AuditStore, sessions dialog.SessionStore, logger *logging.Logger) *AdminCallsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminCallsHandler{
		transcripts: transcripts,
		audit:       audit,
		sessions:    sessions,
		logger:      logger,
	}
}

// CallDetailResponse is the admin view of one call.
type CallDetailResponse struct {
	CallID     string         `json:"call_id"`
	Mode       string         `json:"mode"`
	State      string         `json:"state"`
	Language   string         `json:"language"`
	Slots      dialog.Slots   `json:"slots"`
	Transcript []TurnResponse `json:"transcript"`
}

// TurnResponse is one transcript line.
type TurnResponse struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// HandleGetCall handles GET /admin/calls/{callID}.
func (h *AdminCallsHandler) HandleGetCall(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	callID := chi.URLParam(r, "callID")
	if callID == "" {
		http.Error(w, "call id required", http.StatusBadRequest)
		return
	}

	resp := CallDetailResponse{CallID: callID, Transcript: []TurnResponse{}}

	if h.sessions != nil {
		sess, err := h.sessions.Get(ctx, callID)
		if err != nil {
			h.logger.Error("admin: session lookup failed", "error", err, "call_id", callID)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if sess != nil {
			resp.Mode = string(sess.Mode)
			resp.State = string(sess.State)
			resp.Language = string(sess.Language)
			resp.Slots = sess.Slots
		}
	}
	if resp.State == "" && h.audit != nil {
		rec, err := h.audit.GetCall(ctx, callID)
		if err != nil {
			h.logger.Error("admin: audit lookup failed", "error", err, "call_id", callID)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if rec != nil {
			resp.Mode = rec.Mode
			resp.State = rec.FinalState
			resp.Language = rec.Language
			resp.Slots = dialog.Slots{
				PatientName:    rec.PatientName,
				Phone:          rec.Phone,
				DoctorName:     rec.DoctorName,
				Department:     rec.Department,
				PreferredTime:  rec.PreferredTime,
				ConfirmationID: rec.ConfirmationID,
			}
		}
	}
	if resp.State == "" {
		http.Error(w, "call not found", http.StatusNotFound)
		return
	}

	entries := h.loadTranscript(r, callID)
	for _, e := range entries {
		resp.Transcript = append(resp.Transcript, TurnResponse{
			Role:      e.Role,
			Content:   e.Content,
			Timestamp: e.Timestamp.Format(time.RFC3339),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// HandleGetTranscript handles GET /admin/calls/{callID}/transcript.
func (h *AdminCallsHandler) HandleGetTranscript(w http.ResponseWriter, r *http.Request) {
	callID := chi.URLParam(r, "callID")
	if callID == "" {
		http.Error(w, "call id required", http.StatusBadRequest)
		return
	}

	entries := h.loadTranscript(r, callID)
	out := make([]TurnResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, TurnResponse{
			Role:      e.Role,
			Content:   e.Content,
			Timestamp: e.Timestamp.Format(time.RFC3339),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"call_id":    callID,
		"transcript": out,
	})
}

func (h *AdminCallsHandler) loadTranscript(r *http.Request, callID string) []dialog.TranscriptEntry {
	ctx := r.Context()
	if h.transcripts != nil {
		entries, err := h.transcripts.Get(ctx, callID)
		if err == nil && len(entries) > 0 {
			return entries
		}
		if err != nil {
			h.logger.Warn("admin: transcript read failed", "error", err, "call_id", callID)
		}
	}
	if h.audit != nil {
		entries, err := h.audit.ListTurns(ctx, callID)
		if err != nil {
			h.logger.Warn("admin: audit turns read failed", "error", err, "call_id", callID)
			return nil
		}
		return entries
	}
	return nil
}
