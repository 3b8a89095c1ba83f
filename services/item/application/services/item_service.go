package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	pkgcache "github.com/secondlife-exchange/exchange/pkg/cache"
	"github.com/secondlife-exchange/exchange/pkg/logger"
	itemdomain "github.com/secondlife-exchange/exchange/services/item/domain"
	"github.com/secondlife-exchange/exchange/services/item/domain/models"
	"github.com/secondlife-exchange/exchange/services/item/domain/repositories"
	domainsvcs "github.com/secondlife-exchange/exchange/services/item/domain/services"
)

const cacheWriteTimeout = 2 * time.Second

// ItemCache is the read-model cache used by ItemService.
// *pkgcache.ItemCache satisfies it.
type ItemCache interface {
	Get(ctx context.Context, id string) (*pkgcache.CachedItem, error)
	Set(ctx context.Context, id string, v *pkgcache.CachedItem) error
	Delete(ctx context.Context, id string) error
}

// CreateItemInput carries the owner-supplied fields of a new listing.
type CreateItemInput struct {
	Title       string
	Description string
	Category    string
	Condition   string
	Tags        []string
	Country     string
}

// ItemService orchestrates the item catalogue.
// Event publishing is handled by the repository layer (outbox pattern).
// Reads are served from Redis cache when available.
type ItemService struct {
	repo  repositories.ItemRepository
	cache ItemCache
	log   logger.Logger
	now   func() time.Time
}

// NewItemService returns an ItemService wired with the given repository and cache.
// A nil cache disables caching.
func NewItemService(repo repositories.ItemRepository, itemCache ItemCache, log logger.Logger) *ItemService {
	return &ItemService{repo: repo, cache: itemCache, log: log, now: time.Now}
}

// Create validates and persists an Item. The repository publishes ItemCreatedEvent.
func (s *ItemService) Create(ctx context.Context, ownerID uuid.UUID, in CreateItemInput) (*models.Item, error) {
	title, err := models.NewItemTitle(in.Title)
	if err != nil {
		return nil, err
	}
	category, err := models.ParseCategory(in.Category)
	if err != nil {
		return nil, err
	}
	condition, err := models.ParseCondition(in.Condition)
	if err != nil {
		return nil, err
	}

	item, err := models.NewItem(models.NewItemParams{
		OwnerID:     ownerID,
		Title:       title,
		Description: in.Description,
		Category:    category,
		Condition:   condition,
		Tags:        in.Tags,
		Country:     in.Country,
	})
	if err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}

	if err := domainsvcs.ValidateItemForCreation(item); err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, item); err != nil {
		return nil, fmt.Errorf("save item: %w", err)
	}

	s.log.InfoContext(ctx, "item listed", "item_id", item.ID, "owner_id", ownerID, "category", item.Category)
	return item, nil
}

// GetByID retrieves an Item using a read-through cache pattern:
//  1. Check Redis cache first.
//  2. On cache miss (or cache error), query Postgres and warm the cache.
//
// Every successful view bumps popularity by one. A failed bump is logged and
// does not fail the read.
func (s *ItemService) GetByID(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	item, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.repo.IncrementPopularity(ctx, id, 1); err != nil {
		s.log.WarnContext(ctx, "popularity bump failed", "item_id", id, "error", err)
	}
	return item, nil
}

func (s *ItemService) load(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, id.String())
		if err == nil {
			return fromCached(cached), nil
		}
		if !errors.Is(err, redis.Nil) {
			s.log.WarnContext(ctx, "item cache read failed", "item_id", id, "error", err)
		}
	}

	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	s.writeCache(ctx, item)
	return item, nil
}

// Browse returns a page of AVAILABLE items matching filter plus the total count.
func (s *ItemService) Browse(ctx context.Context, filter repositories.BrowseFilter, opts repositories.QueryOpts) ([]*models.Item, int, error) {
	items, total, err := s.repo.Browse(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("browse items: %w", err)
	}
	return items, total, nil
}

// ChangeStatus moves an item to status on behalf of actor, who must own it.
// The repository publishes ItemStatusChangedEvent.
func (s *ItemService) ChangeStatus(ctx context.Context, actor, id uuid.UUID, status string) (*models.Item, error) {
	next, err := models.ParseStatus(status)
	if err != nil {
		return nil, err
	}

	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}

	from := item.Status
	if err := item.ChangeStatus(actor, next, s.now()); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateStatus(ctx, item, from); err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}

	s.evict(ctx, id)
	s.log.InfoContext(ctx, "item status changed", "item_id", id, "from", from, "to", next)
	return item, nil
}

// Delete removes an item owned by actor.
func (s *ItemService) Delete(ctx context.Context, actor, id uuid.UUID) error {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get item: %w", err)
	}
	if !item.IsOwnedBy(actor) {
		return itemdomain.ErrNotItemOwner
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	s.evict(ctx, id)
	return nil
}

// ApplyCategorization merges an AI suggestion into the stored item.
// Returns the updated item and whether anything changed.
func (s *ItemService) ApplyCategorization(ctx context.Context, id uuid.UUID, c models.Categorization) (*models.Item, bool, error) {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, false, fmt.Errorf("get item: %w", err)
	}
	if !item.ApplyCategorization(c, s.now()) {
		return item, false, nil
	}
	if err := s.repo.UpdateCategorization(ctx, item); err != nil {
		return nil, false, fmt.Errorf("update categorization: %w", err)
	}
	s.writeCache(ctx, item)
	return item, true, nil
}

// WarmCache loads id from Postgres into the cache.
func (s *ItemService) WarmCache(ctx context.Context, id uuid.UUID) error {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get item: %w", err)
	}
	s.writeCache(ctx, item)
	return nil
}

func (s *ItemService) writeCache(ctx context.Context, item *models.Item) {
	if s.cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cacheWriteTimeout)
	defer cancel()
	if err := s.cache.Set(ctx, item.ID.String(), toCached(item)); err != nil {
		s.log.WarnContext(ctx, "item cache write failed", "item_id", item.ID, "error", err)
	}
}

func (s *ItemService) evict(ctx context.Context, id uuid.UUID) {
	if s.cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cacheWriteTimeout)
	defer cancel()
	if err := s.cache.Delete(ctx, id.String()); err != nil {
		s.log.WarnContext(ctx, "item cache eviction failed", "item_id", id, "error", err)
	}
}

func toCached(i *models.Item) *pkgcache.CachedItem {
	return &pkgcache.CachedItem{
		ID:              i.ID,
		OwnerID:         i.OwnerID,
		Title:           i.Title.String(),
		Description:     i.Description,
		Category:        string(i.Category),
		Condition:       string(i.Condition),
		Status:          string(i.Status),
		Tags:            i.Tags,
		PopularityScore: i.PopularityScore,
		Country:         i.Country,
		AISummary:       i.AISummary,
		CreatedAt:       i.CreatedAt,
		UpdatedAt:       i.UpdatedAt,
	}
}

func fromCached(c *pkgcache.CachedItem) *models.Item {
	tags := c.Tags
	if tags == nil {
		tags = []string{}
	}
	return &models.Item{
		ID:              c.ID,
		OwnerID:         c.OwnerID,
		Title:           models.ItemTitle(c.Title),
		Description:     c.Description,
		Category:        models.Category(c.Category),
		Condition:       models.Condition(c.Condition),
		Status:          models.Status(c.Status),
		Tags:            tags,
		PopularityScore: c.PopularityScore,
		Country:         c.Country,
		AISummary:       c.AISummary,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}
