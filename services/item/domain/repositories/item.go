package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/secondlife-exchange/exchange/services/item/domain/models"
)

// QueryOpts contains pagination parameters for list queries.
type QueryOpts struct {
	Limit  int // Maximum number of records to return
	Offset int // Number of records to skip
}

// BrowseFilter narrows a catalogue browse. Zero values mean "any".
// Browse always restricts to AVAILABLE items.
type BrowseFilter struct {
	Category  models.Category
	Condition models.Condition
	Query     string // case-insensitive substring of title or description
}

// ItemRepository is the persistence interface for the Item aggregate.
// The domain layer owns this interface; infrastructure implements it.
type ItemRepository interface {
	// Save inserts a new Item and records an ItemCreatedEvent atomically.
	Save(ctx context.Context, item *models.Item) error

	GetByID(ctx context.Context, id uuid.UUID) (*models.Item, error)

	// Browse returns one page of AVAILABLE items, newest first, and the
	// total count matching filter (ignoring pagination).
	Browse(ctx context.Context, filter BrowseFilter, opts QueryOpts) ([]*models.Item, int, error)

	// UpdateStatus persists item.Status and records an ItemStatusChangedEvent
	// from the previous status atomically.
	UpdateStatus(ctx context.Context, item *models.Item, from models.Status) error

	// UpdateCategorization persists the AI-derived fields (category, tags, summary).
	UpdateCategorization(ctx context.Context, item *models.Item) error

	// IncrementPopularity adds delta to the popularity score, capped at
	// models.MaxPopularity.
	IncrementPopularity(ctx context.Context, id uuid.UUID, delta int) error

	// Delete removes an item by ID. Returns ErrItemNotFound if absent.
	Delete(ctx context.Context, id uuid.UUID) error
}
