package app

import (
	"github.com/gorilla/sessions"

	"github.com/secondlife-exchange/exchange/pkg/cache"
	"github.com/secondlife-exchange/exchange/pkg/config"
	"github.com/secondlife-exchange/exchange/pkg/database"
	"github.com/secondlife-exchange/exchange/pkg/events"
	"github.com/secondlife-exchange/exchange/pkg/logger"
	"github.com/secondlife-exchange/exchange/pkg/workflows"
)

// Application holds shared infrastructure dependencies for all services.
// It is built once at startup and passed to every bounded context's route
// and subscriber registration; services keep no package-level state.
//
// Logging: app.Logger is backed by a trace-aware handler. Use slog's context
// methods and trace_id, span_id, and request_id are injected automatically:
//
//	app.Logger.InfoContext(ctx, "item listed", "item_id", id)
//	app.Logger.ErrorContext(ctx, "failed to save", "error", err)
//
// Use app.Logger.Info/Error (no context) only for startup and shutdown messages.
type Application struct {
	Config         *config.Config
	Db             *database.Database
	Logger         logger.Logger
	EventBus       *events.EventBus
	Redis          *cache.RedisClient
	TemporalClient *workflows.TemporalClient // nil unless TEMPORAL_ENABLED
	SessionStore   sessions.Store            // Redis-backed session store; nil in worker process
}
