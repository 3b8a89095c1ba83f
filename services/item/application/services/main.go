package services

import (
	"github.com/secondlife-exchange/exchange/pkg/app"
	"github.com/secondlife-exchange/exchange/pkg/cache"
	"github.com/secondlife-exchange/exchange/services/item/infrastructure/ai"
	"github.com/secondlife-exchange/exchange/services/item/infrastructure/persistence/postgres"
)

// Services is the application-layer service container for this bounded context.
// It wires domain services with their infrastructure implementations.
type Services struct {
	Item           *ItemService
	Categorization *CategorizationService
}

// New wires all item application services with infrastructure from the Application container.
func New(a *app.Application) *Services {
	repo := postgres.NewItemRepository(a.Db, a.EventBus)

	var itemCache ItemCache
	if a.Redis != nil {
		itemCache = cache.NewItemCache(a.Redis)
	}
	itemSvc := NewItemService(repo, itemCache, a.Logger)

	var categorizer Categorizer
	if a.Config.AIEnabled() {
		categorizer = ai.NewGeminiCategorizer(ai.Config{
			APIKey:            a.Config.GeminiAPIKey,
			Model:             a.Config.GeminiModel,
			BaseURL:           a.Config.GeminiBaseURL,
			Timeout:           a.Config.GeminiTimeout,
			RequestsPerMinute: a.Config.AIRequestsPerMinute,
		}, a.Logger.With("component", "gemini"))
	}

	var starter WorkflowStarter
	if a.TemporalClient != nil {
		starter = a.TemporalClient
	}

	return &Services{
		Item:           itemSvc,
		Categorization: NewCategorizationService(itemSvc, categorizer, starter, a.Config.TemporalTaskQueue, a.Logger),
	}
}
