// Package subscribers consumes item domain events in the worker process.
package subscribers

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/secondlife-exchange/exchange/pkg/app"
	"github.com/secondlife-exchange/exchange/pkg/events"
	"github.com/secondlife-exchange/exchange/pkg/logger"
	"github.com/secondlife-exchange/exchange/services/item/application/services"
	itemdomain "github.com/secondlife-exchange/exchange/services/item/domain"
	itemevents "github.com/secondlife-exchange/exchange/services/item/domain/events"
)

type subscription struct {
	topic   string
	handler events.Handler
}

// Register subscribes the item handlers on a.EventBus. Subscriber errors are
// logged until ctx is cancelled.
func Register(ctx context.Context, a *app.Application, svcs *services.Services) error {
	subs := []subscription{
		{itemevents.TopicItemCreated, HandleItemCreated(svcs, a.Logger)},
		{itemevents.TopicItemStatusChanged, HandleItemStatusChanged(a.Logger)},
	}

	topics := make([]string, 0, len(subs))
	for _, s := range subs {
		errCh, err := a.EventBus.Subscribe(ctx, s.topic, s.handler)
		if err != nil {
			return fmt.Errorf("subscribe %s: %w", s.topic, err)
		}

		// Drain subscriber errors in background so the channel never blocks.
		go func(topic string) {
			for err := range errCh {
				a.Logger.ErrorContext(ctx, "subscriber error", "topic", topic, "error", err)
			}
		}(s.topic)
		topics = append(topics, s.topic)
	}

	a.Logger.Info("event subscribers registered", "topics", topics)
	return nil
}

// HandleItemCreated warms the read-model cache and requests AI
// categorization. Handlers must be idempotent: the bus retries on failure.
func HandleItemCreated(svcs *services.Services, log logger.Logger) events.Handler {
	return func(ctx context.Context, msg *message.Message) error {
		evt, err := events.DecodeEvent[itemevents.ItemCreatedEvent](msg)
		if err != nil {
			return err
		}

		if err := svcs.Item.WarmCache(ctx, evt.ItemID); err != nil {
			if errors.Is(err, itemdomain.ErrItemNotFound) {
				log.InfoContext(ctx, "item deleted before processing, skipping", "item_id", evt.ItemID)
				return nil
			}
			// Cache warming is best-effort; log but do not fail the handler.
			log.WarnContext(ctx, "cache warm failed for item.created", "item_id", evt.ItemID, "error", err)
		}

		return svcs.Categorization.Request(ctx, services.CategorizeRequest{
			ItemID:      evt.ItemID,
			Title:       evt.Title,
			Description: evt.Description,
		})
	}
}

// HandleItemStatusChanged records status transitions in the worker log.
func HandleItemStatusChanged(log logger.Logger) events.Handler {
	return func(ctx context.Context, msg *message.Message) error {
		evt, err := events.DecodeEvent[itemevents.ItemStatusChangedEvent](msg)
		if err != nil {
			return err
		}
		log.InfoContext(ctx, "item status changed",
			"item_id", evt.ItemID,
			"owner_id", evt.OwnerID,
			"from", evt.From,
			"to", evt.To,
		)
		return nil
	}
}
