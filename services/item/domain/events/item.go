package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	// TopicItemCreated is the Watermill topic published when an Item is listed.
	TopicItemCreated = "item.created"

	// TopicItemStatusChanged is published when an owner changes an Item's status.
	TopicItemStatusChanged = "item.status_changed"

	// ItemCreatedVersion and ItemStatusChangedVersion are the current payload
	// schema versions; increment on breaking changes.
	ItemCreatedVersion       = 1
	ItemStatusChangedVersion = 1
)

// ItemCreatedEvent is published after a new Item is persisted.
// The worker consumes it to warm the cache and request AI categorization.
type ItemCreatedEvent struct {
	EventID     uuid.UUID `json:"event_id"`
	Version     int       `json:"version"`
	ItemID      uuid.UUID `json:"item_id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// ItemStatusChangedEvent is published after a status transition is persisted.
type ItemStatusChangedEvent struct {
	EventID    uuid.UUID `json:"event_id"`
	Version    int       `json:"version"`
	ItemID     uuid.UUID `json:"item_id"`
	OwnerID    uuid.UUID `json:"owner_id"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	OccurredAt time.Time `json:"occurred_at"`
}
