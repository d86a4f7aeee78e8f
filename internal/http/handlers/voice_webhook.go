package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/arogyaai/reception-platform/internal/dialog"
	"github.com/arogyaai/reception-platform/pkg/logging"
)

// ----- carrier Voice AI webhook event types -----

// VoiceEvent is the top-level webhook payload. The carrier's AI assistant
// invokes our endpoint as a webhook tool with the caller's latest
// speech-to-text transcript; we return the text its TTS engine speaks back.
type VoiceEvent struct {
	// AssistantID is the carrier AI assistant that originated the event.
	AssistantID string `json:"assistant_id,omitempty"`
	// ConversationID groups turns within a single call.
	ConversationID string `json:"conversation_id,omitempty"`
	// EventType identifies the webhook event (e.g. "tool_call").
	EventType string `json:"event_type,omitempty"`
	// From is the caller's phone number (E.164).
	From string `json:"from,omitempty"`
	// To is the hospital number that received the call (E.164).
	To string `json:"to,omitempty"`
	// Payload holds the tool-specific data.
	Payload VoicePayload `json:"payload,omitempty"`
}

// VoicePayload carries the tool invocation details.
type VoicePayload struct {
	ToolName string `json:"tool_name,omitempty"`
	// ToolCallID must be echoed back so the carrier can correlate the result.
	ToolCallID string `json:"tool_call_id,omitempty"`
	// Arguments carries named arguments from the carrier's LLM; we expect
	// "transcript" with the caller's latest utterance.
	Arguments map[string]string `json:"arguments,omitempty"`
}

// VoiceResponse is the JSON body returned to the carrier.
type VoiceResponse struct {
	ToolCallID string `json:"tool_call_id"`
	// Response is the text the carrier TTS speaks to the caller.
	Response string `json:"response"`
	// Language is the BCP-47 synthesis tag ("hi-IN" or "en-IN").
	Language string `json:"language,omitempty"`
	// Action is set to "transfer" or "end_call" when the call should leave
	// the assistant.
	Action string `json:"action,omitempty"`
	// TransferTo is the live line to dial when Action is "transfer".
	TransferTo string `json:"transfer_to,omitempty"`
}

// VoiceErrorResponse is returned when the event itself cannot be processed.
type VoiceErrorResponse struct {
	ToolCallID string `json:"tool_call_id,omitempty"`
	Error      string `json:"error"`
}

// ----- handler -----

// VoiceWebhookHandler adapts the carrier's Voice AI webhook to the dialogue
// service.
type VoiceWebhookHandler struct {
	service  dialog.Service
	sessions dialog.SessionStore
	composer *dialog.Composer

	assistantID    string
	webhookSecret  string
	transferTarget string
	logger         *logging.Logger
}

// VoiceWebhookHandlerConfig configures the VoiceWebhookHandler.
type VoiceWebhookHandlerConfig struct {
	Service  dialog.Service
	Sessions dialog.SessionStore
	Composer *dialog.Composer
	// AssistantID, when set, rejects events from any other assistant.
	AssistantID string
	// WebhookSecret, when set, must match the X-Webhook-Secret header.
	WebhookSecret string
	// TransferTarget is the live line for escalations. Empty means no live
	// line is available and transfers end the call with a fixed message.
	TransferTarget string
	Logger         *logging.Logger
}

// NewVoiceWebhookHandler creates the webhook handler.
func NewVoiceWebhookHandler(cfg VoiceWebhookHandlerConfig) *VoiceWebhookHandler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Composer == nil {
		cfg.Composer = dialog.NewComposer()
	}
	return &VoiceWebhookHandler{
		service:        cfg.Service,
		sessions:       cfg.Sessions,
		composer:       cfg.Composer,
		assistantID:    cfg.AssistantID,
		webhookSecret:  cfg.WebhookSecret,
		transferTarget: cfg.TransferTarget,
		logger:         cfg.Logger,
	}
}

// HandleTurn is the HTTP handler for POST /webhooks/voice/turn.
func (h *VoiceWebhookHandler) HandleTurn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.webhookSecret != "" && r.Header.Get("X-Webhook-Secret") != h.webhookSecret {
		h.logger.Warn("voice: webhook secret mismatch")
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		h.logger.Error("voice: failed to read body", "error", err)
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	var event VoiceEvent
	if err := json.Unmarshal(body, &event); err != nil {
		h.logger.Error("voice: failed to parse event", "error", err)
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	h.logger.Info("voice: received event",
		"event_type", event.EventType,
		"assistant_id", event.AssistantID,
		"conversation_id", event.ConversationID,
		"from", event.From,
		"tool_name", event.Payload.ToolName,
	)

	if h.assistantID != "" && event.AssistantID != h.assistantID {
		h.logger.Warn("voice: assistant ID mismatch",
			"expected", h.assistantID, "got", event.AssistantID)
		h.writeError(w, event.Payload.ToolCallID, "unauthorized", http.StatusForbidden)
		return
	}

	callID := event.ConversationID
	if callID == "" {
		callID = fmt.Sprintf("voice:%s", strings.TrimPrefix(event.From, "+"))
	}
	lang := h.callLanguage(r, callID)

	// Empty transcript is the transport's case, not the engine's: re-prompt
	// without consuming a dialogue turn.
	transcript := strings.TrimSpace(event.Payload.Arguments["transcript"])
	if transcript == "" {
		h.writeResponse(w, VoiceResponse{
			ToolCallID: event.Payload.ToolCallID,
			Response:   h.composer.NoSpeech(lang),
			Language:   lang.TTSTag(),
		})
		return
	}

	res, err := h.service.ProcessTurn(ctx, dialog.TurnRequest{
		CallID:    callID,
		Utterance: transcript,
		From:      event.From,
		To:        event.To,
	})
	if err != nil {
		h.logger.Error("voice: turn processing failed", "error", err, "call_id", callID)
		h.writeResponse(w, VoiceResponse{
			ToolCallID: event.Payload.ToolCallID,
			Response:   h.composer.Apology(lang),
			Language:   lang.TTSTag(),
		})
		return
	}

	out := VoiceResponse{
		ToolCallID: event.Payload.ToolCallID,
		Response:   res.SpokenText,
		Language:   res.Language.TTSTag(),
	}
	if res.Transfer {
		if h.transferTarget != "" {
			out.Action = "transfer"
			out.TransferTo = h.transferTarget
		} else {
			// No live line configured: substitute the fixed message and
			// end the call gracefully.
			out.Response = h.composer.TransferUnavailable(res.Language)
			out.Action = "end_call"
		}
	}
	h.writeResponse(w, out)
}

// callLanguage peeks at the sticky session language so fixed transport
// prompts (no-speech, apology) match the caller's language.
func (h *VoiceWebhookHandler) callLanguage(r *http.Request, callID string) dialog.Language {
	if h.sessions == nil {
		return dialog.LangEnglish
	}
	sess, err := h.sessions.Get(r.Context(), callID)
	if err != nil || sess == nil || sess.Language != dialog.LangHindi {
		return dialog.LangEnglish
	}
	return dialog.LangHindi
}

func (h *VoiceWebhookHandler) writeResponse(w http.ResponseWriter, resp VoiceResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}

func (h *VoiceWebhookHandler) writeError(w http.ResponseWriter, toolCallID, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(VoiceErrorResponse{ToolCallID: toolCallID, Error: msg})
}
