// Package memory is an in-process ItemRepository for tests and local tooling.
// It records the events the Postgres repository would publish.
package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	itemdomain "github.com/secondlife-exchange/exchange/services/item/domain"
	"github.com/secondlife-exchange/exchange/services/item/domain/events"
	"github.com/secondlife-exchange/exchange/services/item/domain/models"
	"github.com/secondlife-exchange/exchange/services/item/domain/repositories"
)

// ItemRepository implements repositories.ItemRepository over a map.
type ItemRepository struct {
	mu     sync.RWMutex
	items  map[uuid.UUID]models.Item
	events []any
}

var _ repositories.ItemRepository = (*ItemRepository)(nil)

// NewItemRepository returns an empty repository.
func NewItemRepository() *ItemRepository {
	return &ItemRepository{items: map[uuid.UUID]models.Item{}}
}

// Events returns the events recorded so far, oldest first.
func (r *ItemRepository) Events() []any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.events)
}

func (r *ItemRepository) Save(_ context.Context, item *models.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[item.ID]; ok {
		return fmt.Errorf("%w: %s", itemdomain.ErrItemAlreadyExists, item.ID)
	}
	r.items[item.ID] = clone(item)
	r.events = append(r.events, events.ItemCreatedEvent{
		EventID:     uuid.New(),
		Version:     events.ItemCreatedVersion,
		ItemID:      item.ID,
		OwnerID:     item.OwnerID,
		Title:       item.Title.String(),
		Description: item.Description,
		Category:    string(item.Category),
		OccurredAt:  item.CreatedAt,
	})
	return nil
}

func (r *ItemRepository) GetByID(_ context.Context, id uuid.UUID) (*models.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.items[id]
	if !ok {
		return nil, itemdomain.ErrItemNotFound
	}
	out := clone(&item)
	return &out, nil
}

func (r *ItemRepository) Browse(_ context.Context, filter repositories.BrowseFilter, opts repositories.QueryOpts) ([]*models.Item, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	q := strings.ToLower(strings.TrimSpace(filter.Query))
	var matched []*models.Item
	for _, item := range r.items {
		if item.Status != models.StatusAvailable ||
			(filter.Category != "" && item.Category != filter.Category) ||
			(filter.Condition != "" && item.Condition != filter.Condition) {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(item.Title.String()), q) &&
			!strings.Contains(strings.ToLower(item.Description), q) {
			continue
		}
		c := clone(&item)
		matched = append(matched, &c)
	}

	slices.SortFunc(matched, func(a, b *models.Item) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})

	total := len(matched)
	start := min(max(opts.Offset, 0), total)
	end := total
	if opts.Limit > 0 {
		end = min(start+opts.Limit, total)
	}
	page := matched[start:end]
	if page == nil {
		page = []*models.Item{}
	}
	return page, total, nil
}

func (r *ItemRepository) UpdateStatus(_ context.Context, item *models.Item, from models.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[item.ID]
	if !ok {
		return itemdomain.ErrItemNotFound
	}
	if stored.Status != from {
		return fmt.Errorf("%w: item is %s", itemdomain.ErrInvalidStatusTransition, stored.Status)
	}
	stored.Status = item.Status
	stored.UpdatedAt = item.UpdatedAt
	r.items[item.ID] = stored
	r.events = append(r.events, events.ItemStatusChangedEvent{
		EventID:    uuid.New(),
		Version:    events.ItemStatusChangedVersion,
		ItemID:     item.ID,
		OwnerID:    item.OwnerID,
		From:       string(from),
		To:         string(item.Status),
		OccurredAt: item.UpdatedAt,
	})
	return nil
}

func (r *ItemRepository) UpdateCategorization(_ context.Context, item *models.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[item.ID]
	if !ok {
		return itemdomain.ErrItemNotFound
	}
	stored.Category = item.Category
	stored.Tags = slices.Clone(item.Tags)
	stored.AISummary = item.AISummary
	stored.UpdatedAt = item.UpdatedAt
	r.items[item.ID] = stored
	return nil
}

func (r *ItemRepository) IncrementPopularity(_ context.Context, id uuid.UUID, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[id]
	if !ok {
		return itemdomain.ErrItemNotFound
	}
	stored.PopularityScore = min(max(stored.PopularityScore+delta, 0), models.MaxPopularity)
	r.items[id] = stored
	return nil
}

func (r *ItemRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return itemdomain.ErrItemNotFound
	}
	delete(r.items, id)
	return nil
}

func clone(item *models.Item) models.Item {
	c := *item
	c.Tags = slices.Clone(item.Tags)
	if c.Tags == nil {
		c.Tags = []string{}
	}
	return c
}
