// Command worker consumes item domain events and, when Temporal is enabled,
// hosts the categorization workflow and activity.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/secondlife-exchange/exchange/pkg/app"
	"github.com/secondlife-exchange/exchange/pkg/cache"
	"github.com/secondlife-exchange/exchange/pkg/config"
	"github.com/secondlife-exchange/exchange/pkg/database"
	"github.com/secondlife-exchange/exchange/pkg/events"
	"github.com/secondlife-exchange/exchange/pkg/logger"
	"github.com/secondlife-exchange/exchange/pkg/telemetry"
	"github.com/secondlife-exchange/exchange/pkg/workflows"
	itemServices "github.com/secondlife-exchange/exchange/services/item/application/services"
	itemSubscribers "github.com/secondlife-exchange/exchange/services/item/application/subscribers"
	itemWorkflows "github.com/secondlife-exchange/exchange/services/item/application/workflows"
)

func main() {
	if err := run(); err != nil {
		slog.Error("worker exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := config.ValidateForProduction(cfg); err != nil {
		return fmt.Errorf("validate production config: %w", err)
	}

	log := logger.New(cfg).With("process", "worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	otelShutdown, _, err := telemetry.Setup(ctx, cfg)
	if err != nil {
		return fmt.Errorf("setup telemetry: %w", err)
	}
	defer otelShutdown(context.WithoutCancel(ctx)) //nolint:errcheck

	if err := telemetry.SetupSentry(cfg); err != nil {
		log.Warn("failed to setup sentry, continuing without crash reporting", "error", err)
	}
	defer telemetry.SentryFlush()

	pool, err := database.NewPool(ctx, cfg.DatabaseURL, log)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	// EventBus.Close waits for in-flight handlers before returning.
	eventBus, err := events.NewEventBus(pool.DB(), cfg.ServiceName, log)
	if err != nil {
		return fmt.Errorf("setup event bus: %w", err)
	}
	defer eventBus.Close() //nolint:errcheck

	redisClient, err := cache.NewRedisClient(cfg)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer redisClient.Close() //nolint:errcheck

	var temporalClient *workflows.TemporalClient
	if cfg.TemporalEnabled {
		temporalClient, err = workflows.NewTemporalClient(ctx, cfg.TemporalHostPort, cfg.TemporalNamespace, log)
		if err != nil {
			return fmt.Errorf("connect temporal: %w", err)
		}
		defer temporalClient.Close()
	}

	a := &app.Application{
		Config:         cfg,
		Db:             pool,
		Logger:         log,
		EventBus:       eventBus,
		Redis:          redisClient,
		TemporalClient: temporalClient,
	}
	items := itemServices.New(a)

	if err := itemSubscribers.Register(ctx, a, items); err != nil {
		return fmt.Errorf("register subscribers: %w", err)
	}

	if temporalClient != nil {
		w := temporalClient.NewWorker(cfg.TemporalTaskQueue)
		itemWorkflows.Register(w, items.Categorization)
		if err := w.Start(); err != nil {
			return fmt.Errorf("start temporal worker: %w", err)
		}
		defer w.Stop()
		log.Info("temporal worker started", "task_queue", cfg.TemporalTaskQueue)
	}

	log.Info("worker running", "ai_enabled", items.Categorization.Enabled(), "temporal_enabled", temporalClient != nil)
	<-ctx.Done()
	log.Info("shutting down")
	return nil
}
