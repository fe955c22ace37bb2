// Package main is the entry point for the action worker. It drains confirmed coach
// actions from the JetStream work queue and executes each one exactly once.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/capitalize-ai/fitness-coach/internal/coach"
	"github.com/capitalize-ai/fitness-coach/internal/config"
	"github.com/capitalize-ai/fitness-coach/internal/middleware"
	natsclient "github.com/capitalize-ai/fitness-coach/internal/nats"
	"github.com/capitalize-ai/fitness-coach/internal/store"
	"github.com/capitalize-ai/fitness-coach/internal/worker"
	"github.com/capitalize-ai/fitness-coach/pkg/logger"
	"github.com/capitalize-ai/fitness-coach/pkg/tracing"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "fitness-coach-worker", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(context.Background(), tp)
		}
	}

	st, err := store.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		log.Fatal("failed to open database", zap.Error(err))
	}
	defer st.Close()

	natsClient, err := natsclient.Connect(ctx, natsclient.Config{
		URL:      cfg.NATSURL,
		CAFile:   cfg.NATSCAFile,
		CertFile: cfg.NATSCertFile,
		KeyFile:  cfg.NATSKeyFile,
		Token:    cfg.NATSToken,
	}, log)
	if err != nil {
		log.Fatal("failed to connect to NATS", zap.Error(err))
	}
	defer natsClient.Close()

	streamManager := natsclient.NewStreamManager(natsClient)
	if err := streamManager.EnsureStream(ctx); err != nil {
		log.Fatal("failed to ensure stream", zap.Error(err))
	}
	cons, err := streamManager.Consumer(ctx, cfg.WorkerDurableName, cfg.WorkerMaxDeliver)
	if err != nil {
		log.Fatal("failed to create consumer", zap.Error(err))
	}

	issue := func(userID, email string) (string, error) {
		return middleware.IssueToken(cfg.JWTSecret, userID, email, cfg.JWTExpiration)
	}
	processor := worker.NewProcessor(
		st,
		coach.NewExecutor(coach.NewCollaborator(cfg.CollaboratorBaseURL, cfg.CollaboratorTimeout), st),
		coach.NewLedger(st, log),
		coach.NewSnapshotter(coach.NewAssembler(st, log), st),
		issue,
		log,
	)

	log.Info("starting worker",
		zap.String("durable", cfg.WorkerDurableName),
		zap.Int("max_deliver", cfg.WorkerMaxDeliver),
	)
	if err := worker.NewConsumer(cons, processor, log).Run(ctx); err != nil {
		log.Error("worker exited", zap.Error(err))
	}
	log.Info("worker stopped")
}
