package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/arogyaai/reception-platform/cmd/mainconfig"
	"github.com/arogyaai/reception-platform/internal/api/router"
	appconfig "github.com/arogyaai/reception-platform/internal/config"
	"github.com/arogyaai/reception-platform/internal/dialog"
	"github.com/arogyaai/reception-platform/internal/directory"
	"github.com/arogyaai/reception-platform/internal/http/handlers"
	"github.com/arogyaai/reception-platform/internal/observability/metrics"
	"github.com/arogyaai/reception-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting reception-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	// Doctor directory: built-in hospital roster, or a JSON file override.
	dir := directory.Default()
	if cfg.DirectoryFile != "" {
		loaded, err := directory.LoadFile(cfg.DirectoryFile)
		if err != nil {
			logger.Error("failed to load directory file", "error", err, "path", cfg.DirectoryFile)
			os.Exit(1)
		}
		dir = loaded
	}

	rdb := redis.NewClient(redisOptions(cfg))
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		logger.Error("redis ping failed", "error", err, "addr", cfg.RedisAddr)
		os.Exit(1)
	}
	defer rdb.Close()

	hub := dialog.NewTranscriptHub()
	sessions := dialog.NewRedisSessionStore(rdb, cfg.SessionTTL)
	transcripts := dialog.NewRedisTranscriptStore(rdb, cfg.SessionTTL, hub)

	// Postgres audit trail is optional; without it calls live in Redis only.
	var db *sql.DB
	if cfg.DatabaseURL != "" {
		var err error
		db, err = sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			logger.Error("database ping failed", "error", err)
			os.Exit(1)
		}
	}
	audit := dialog.NewAuditStore(db)

	// Bedrock powers response polish and general-mode answers when enabled.
	var llm dialog.LLMClient
	if cfg.PolishEnabled || cfg.BedrockModelID != "" {
		awsCfg, err := mainconfig.LoadAWSConfig(context.Background(), cfg)
		if err != nil {
			logger.Error("failed to load AWS config", "error", err)
			os.Exit(1)
		}
		llm = dialog.NewBedrockLLMClient(bedrockruntime.NewFromConfig(awsCfg))
	}
	var polisher *dialog.Polisher
	if cfg.PolishEnabled && llm != nil {
		polisher = dialog.NewPolisher(llm, cfg.BedrockModelID, 0, logger)
	}
	var answerer dialog.Answerer = &dialog.StaticAnswerer{}
	if llm != nil {
		answerer = dialog.NewLLMAnswerer(llm, cfg.BedrockModelID, 0, logger)
	}

	voiceMetrics := metrics.NewVoiceMetrics(nil)

	composer := dialog.NewComposer()
	engine := dialog.NewEngine(dir, composer)
	service := dialog.NewCallService(dialog.CallServiceConfig{
		Engine:      engine,
		Sessions:    sessions,
		Transcripts: transcripts,
		Audit:       audit,
		Polisher:    polisher,
		Answerer:    answerer,
		Metrics:     voiceMetrics,
		Log:         logger,
		DefaultMode: dialog.ParseMode(cfg.DefaultMode),
		DefaultLang: dialog.ParseLanguage(cfg.DefaultLanguage),
	})

	voiceWebhook := handlers.NewVoiceWebhookHandler(handlers.VoiceWebhookHandlerConfig{
		Service:        service,
		Sessions:       sessions,
		Composer:       composer,
		AssistantID:    cfg.CarrierAssistantID,
		WebhookSecret:  cfg.CarrierWebhookSecret,
		TransferTarget: cfg.TransferTarget,
		Logger:         logger,
	})
	adminCalls := handlers.NewAdminCallsHandler(transcripts, audit, sessions, logger)
	liveListen := handlers.NewLiveListenHandler(hub, transcripts, logger)

	r := router.New(&router.Config{
		Logger:               logger,
		VoiceWebhook:         voiceWebhook,
		AdminCalls:           adminCalls,
		LiveListen:           liveListen,
		AdminJWTSecret:       cfg.AdminJWTSecret,
		MetricsHandler:       promhttp.Handler(),
		WebhookRatePerSecond: 20,
		WebhookBurst:         40,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

func redisOptions(cfg *appconfig.Config) *redis.Options {
	opts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return opts
}
