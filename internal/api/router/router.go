package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/arogyaai/reception-platform/internal/http/handlers"
	httpmiddleware "github.com/arogyaai/reception-platform/internal/http/middleware"
	"github.com/arogyaai/reception-platform/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger *logging.Logger

	VoiceWebhook *handlers.VoiceWebhookHandler
	AdminCalls   *handlers.AdminCallsHandler
	LiveListen   *handlers.LiveListenHandler

	// AdminJWTSecret gates the /admin routes; leave empty to disable them.
	AdminJWTSecret string
	MetricsHandler http.Handler

	// WebhookRatePerSecond caps the carrier webhook rate per source IP.
	// Zero disables rate limiting.
	WebhookRatePerSecond float64
	WebhookBurst         int
}

// New creates a Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints: health, metrics, and the carrier webhook.
	r.Group(func(public chi.Router) {
		public.Get("/health", handleHealth)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.VoiceWebhook != nil {
			public.Group(func(hook chi.Router) {
				if cfg.WebhookRatePerSecond > 0 {
					hook.Use(httpmiddleware.RateLimit(cfg.WebhookRatePerSecond, cfg.WebhookBurst))
				}
				hook.Post("/webhooks/voice/turn", cfg.VoiceWebhook.HandleTurn)
			})
		}
	})

	// Admin endpoints behind JWT auth.
	if cfg.AdminJWTSecret != "" {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminJWTSecret))
			if cfg.AdminCalls != nil {
				admin.Get("/calls/{callID}", cfg.AdminCalls.HandleGetCall)
				admin.Get("/calls/{callID}/transcript", cfg.AdminCalls.HandleGetTranscript)
			}
			if cfg.LiveListen != nil {
				admin.Get("/calls/{callID}/live", cfg.LiveListen.HandleLive)
			}
		})
	}

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
