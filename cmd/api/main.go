// Package main is the entry point for the API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/capitalize-ai/fitness-coach/internal/coach"
	"github.com/capitalize-ai/fitness-coach/internal/config"
	"github.com/capitalize-ai/fitness-coach/internal/handler"
	"github.com/capitalize-ai/fitness-coach/internal/llm"
	natsclient "github.com/capitalize-ai/fitness-coach/internal/nats"
	"github.com/capitalize-ai/fitness-coach/internal/service"
	"github.com/capitalize-ai/fitness-coach/internal/store"
	"github.com/capitalize-ai/fitness-coach/pkg/logger"
	"github.com/capitalize-ai/fitness-coach/pkg/tracing"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	log.Info("starting API server")

	// Initialize tracing if enabled
	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "fitness-coach-api", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	st, err := store.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		log.Fatal("failed to open database", zap.Error(err))
	}
	defer st.Close()

	llmClient, err := newLLMClient(cfg)
	if err != nil {
		log.Fatal("failed to create LLM client", zap.Error(err))
	}
	log.Info("completion client ready", zap.String("provider", llmClient.Name()))

	// NATS is optional for the API: without it, pending actions can still be
	// confirmed in conversation but not queued for the worker.
	var (
		queue  handler.ActionQueue
		health handler.Connectivity
	)
	natsClient, err := natsclient.Connect(ctx, natsclient.Config{
		URL:      cfg.NATSURL,
		CAFile:   cfg.NATSCAFile,
		CertFile: cfg.NATSCertFile,
		KeyFile:  cfg.NATSKeyFile,
		Token:    cfg.NATSToken,
	}, log)
	if err != nil {
		log.Warn("NATS unavailable, action queue disabled", zap.Error(err))
	} else {
		defer natsClient.Close()
		streamManager := natsclient.NewStreamManager(natsClient)
		if err := streamManager.EnsureStream(ctx); err != nil {
			log.Fatal("failed to ensure stream", zap.Error(err))
		}
		queue, health = streamManager, natsClient
	}

	// Initialize services
	conversationSvc := service.NewConversationService(st, log)
	messageSvc := service.NewMessageService(st, conversationSvc)
	logSvc := service.NewLogService(st)
	planSvc := service.NewPlanService(st, llmClient, service.PlanOptions{
		Model:       cfg.CoachModel,
		MaxTokens:   cfg.CoachMaxTokens * 2,
		Temperature: cfg.CoachTemperature,
		Timeout:     cfg.CompletionTimeout,
	}, log)

	coachSvc := coach.NewService(coach.Deps{
		LLM:           llmClient,
		Assembler:     coach.NewAssembler(st, log),
		Executor:      coach.NewExecutor(coach.NewCollaborator(cfg.CollaboratorBaseURL, cfg.CollaboratorTimeout), st),
		Ledger:        coach.NewLedger(st, log),
		Conversations: conversationSvc,
		Messages:      messageSvc,
	}, coach.Options{
		Model:             cfg.CoachModel,
		MaxTokens:         cfg.CoachMaxTokens,
		Temperature:       cfg.CoachTemperature,
		CompletionTimeout: cfg.CompletionTimeout,
		PendingTTL:        cfg.PendingActionTTL,
	}, log)

	router := handler.NewRouter(handler.Handlers{
		Health:        handler.NewHealthHandler(st, health, log),
		Coach:         handler.NewCoachHandler(coachSvc, st, queue, log),
		Conversations: handler.NewConversationHandler(messageSvc, log),
		Logs:          handler.NewLogHandler(logSvc, log),
		Plans:         handler.NewPlanHandler(planSvc, log),
	}, handler.RouterConfig{
		JWTSecret:         cfg.JWTSecret,
		RateLimitRequests: cfg.RateLimitRequests,
		RateLimitWindow:   cfg.RateLimitWindow,
		AllowedOrigins:    cfg.CORSAllowedOrigins,
		RequestTimeout:    cfg.ServerWriteTimeout,
	}, log)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}

// newLLMClient builds the preferred provider, falling back to the other one when only
// its key is configured.
func newLLMClient(cfg *config.Config) (llm.Client, error) {
	keys := map[llm.Provider]string{
		llm.ProviderOpenAI:    cfg.OpenAIAPIKey,
		llm.ProviderAnthropic: cfg.AnthropicAPIKey,
	}
	preferred := llm.Provider(cfg.DefaultLLM)
	order := []llm.Provider{preferred, llm.ProviderOpenAI, llm.ProviderAnthropic}
	for _, p := range order {
		key := keys[p]
		if key == "" {
			continue
		}
		baseURL := ""
		if p == llm.ProviderOpenAI {
			baseURL = cfg.OpenAIBaseURL
		}
		return llm.NewClient(p, key, baseURL)
	}
	return nil, config.ErrMissingCompletionKey
}
