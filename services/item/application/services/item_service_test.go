package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	pkgcache "github.com/secondlife-exchange/exchange/pkg/cache"
	"github.com/secondlife-exchange/exchange/pkg/logger"
	itemdomain "github.com/secondlife-exchange/exchange/services/item/domain"
	"github.com/secondlife-exchange/exchange/services/item/domain/events"
	"github.com/secondlife-exchange/exchange/services/item/domain/models"
	"github.com/secondlife-exchange/exchange/services/item/domain/repositories"
	"github.com/secondlife-exchange/exchange/services/item/infrastructure/persistence/memory"
)

type fakeItemCache struct {
	mu      sync.Mutex
	entries map[string]pkgcache.CachedItem
	err     error
}

func newFakeItemCache() *fakeItemCache {
	return &fakeItemCache{entries: map[string]pkgcache.CachedItem{}}
}

func (c *fakeItemCache) Get(_ context.Context, id string) (*pkgcache.CachedItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	v, ok := c.entries[id]
	if !ok {
		return nil, redis.Nil
	}
	return &v, nil
}

func (c *fakeItemCache) Set(_ context.Context, id string, v *pkgcache.CachedItem) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[id] = *v
	return nil
}

func (c *fakeItemCache) Delete(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
	return nil
}

func (c *fakeItemCache) has(id uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[id.String()]
	return ok
}

func newTestItemService(c *fakeItemCache) (*ItemService, *memory.ItemRepository) {
	repo := memory.NewItemRepository()
	var ic ItemCache
	if c != nil {
		ic = c
	}
	return NewItemService(repo, ic, logger.Nop()), repo
}

func validInput() CreateItemInput {
	return CreateItemInput{
		Title:       "Vintage film camera",
		Description: "  Works perfectly.  ",
		Category:    "electronics",
		Condition:   "GOOD",
		Tags:        []string{"Camera", "camera", "film"},
		Country:     "fr",
	}
}

func TestItemService_Create(t *testing.T) {
	svc, repo := newTestItemService(nil)
	owner := uuid.New()

	item, err := svc.Create(context.Background(), owner, validInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item.OwnerID != owner || item.Status != models.StatusAvailable {
		t.Errorf("item = %+v", item)
	}
	if item.Category != models.CategoryElectronics || item.Country != "FR" || item.Description != "Works perfectly." {
		t.Errorf("fields not normalized: %+v", item)
	}
	if len(item.Tags) != 2 || item.Tags[0] != "camera" {
		t.Errorf("tags = %v", item.Tags)
	}

	evts := repo.Events()
	if len(evts) != 1 {
		t.Fatalf("expected one event, got %d", len(evts))
	}
	if evt, ok := evts[0].(events.ItemCreatedEvent); !ok || evt.ItemID != item.ID {
		t.Fatalf("event = %#v", evts[0])
	}
}

func TestItemService_CreateValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*CreateItemInput)
		wantErr error
	}{
		{"empty title", func(in *CreateItemInput) { in.Title = "" }, itemdomain.ErrInvalidItem},
		{"double space title", func(in *CreateItemInput) { in.Title = "Film  camera" }, itemdomain.ErrInvalidItem},
		{"unknown category", func(in *CreateItemInput) { in.Category = "VEHICLES" }, itemdomain.ErrInvalidCategory},
		{"unknown condition", func(in *CreateItemInput) { in.Condition = "BROKEN" }, itemdomain.ErrInvalidCondition},
		{"tag too long", func(in *CreateItemInput) { in.Tags = []string{"abcdefghijklmnopqrstuvwxyz012345"} }, itemdomain.ErrInvalidItem},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newTestItemService(nil)
			in := validInput()
			tt.mutate(&in)
			if _, err := svc.Create(context.Background(), uuid.New(), in); !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if len(repo.Events()) != 0 {
				t.Fatal("invalid items must not be saved")
			}
		})
	}
}

func TestItemService_GetByIDReadThroughAndPopularity(t *testing.T) {
	c := newFakeItemCache()
	svc, repo := newTestItemService(c)
	ctx := context.Background()

	item, err := svc.Create(ctx, uuid.New(), validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := svc.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != item.ID || !c.has(item.ID) {
		t.Fatal("first read should populate the cache")
	}

	if _, err := svc.GetByID(ctx, item.ID); err != nil {
		t.Fatalf("cached get: %v", err)
	}
	stored, _ := repo.GetByID(ctx, item.ID)
	if stored.PopularityScore != 2 {
		t.Fatalf("popularity = %d, want 2", stored.PopularityScore)
	}

	if _, err := svc.GetByID(ctx, uuid.New()); !errors.Is(err, itemdomain.ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
}

func TestItemService_GetByIDCacheErrorFallsBack(t *testing.T) {
	c := newFakeItemCache()
	svc, _ := newTestItemService(c)
	item, err := svc.Create(context.Background(), uuid.New(), validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	c.err = errors.New("redis down")
	if _, err := svc.GetByID(context.Background(), item.ID); err != nil {
		t.Fatalf("cache failure must fall back to the repository: %v", err)
	}
}

func TestItemService_ChangeStatus(t *testing.T) {
	c := newFakeItemCache()
	svc, repo := newTestItemService(c)
	ctx := context.Background()
	owner := uuid.New()

	item, err := svc.Create(ctx, owner, validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.GetByID(ctx, item.ID); err != nil {
		t.Fatalf("warm: %v", err)
	}

	if _, err := svc.ChangeStatus(ctx, uuid.New(), item.ID, "RESERVED"); !errors.Is(err, itemdomain.ErrNotItemOwner) {
		t.Fatalf("stranger: expected ErrNotItemOwner, got %v", err)
	}
	if _, err := svc.ChangeStatus(ctx, owner, item.ID, "SOLD"); !errors.Is(err, itemdomain.ErrInvalidStatus) {
		t.Fatalf("unknown status: expected ErrInvalidStatus, got %v", err)
	}

	updated, err := svc.ChangeStatus(ctx, owner, item.ID, "reserved")
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if updated.Status != models.StatusReserved {
		t.Fatalf("status = %s", updated.Status)
	}
	if c.has(item.ID) {
		t.Fatal("status change must evict the cached item")
	}

	evts := repo.Events()
	changed, ok := evts[len(evts)-1].(events.ItemStatusChangedEvent)
	if !ok || changed.From != "AVAILABLE" || changed.To != "RESERVED" {
		t.Fatalf("last event = %#v", evts[len(evts)-1])
	}

	if _, err := svc.ChangeStatus(ctx, owner, item.ID, "RESERVED"); !errors.Is(err, itemdomain.ErrInvalidStatusTransition) {
		t.Fatalf("same status: expected ErrInvalidStatusTransition, got %v", err)
	}
}

func TestItemService_Delete(t *testing.T) {
	svc, _ := newTestItemService(nil)
	ctx := context.Background()
	owner := uuid.New()
	item, err := svc.Create(ctx, owner, validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.Delete(ctx, uuid.New(), item.ID); !errors.Is(err, itemdomain.ErrNotItemOwner) {
		t.Fatalf("expected ErrNotItemOwner, got %v", err)
	}
	if err := svc.Delete(ctx, owner, item.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.GetByID(ctx, item.ID); !errors.Is(err, itemdomain.ErrItemNotFound) {
		t.Fatalf("deleted item still readable: %v", err)
	}
}

func TestItemService_Browse(t *testing.T) {
	svc, _ := newTestItemService(nil)
	ctx := context.Background()
	for _, cat := range []string{"BOOKS", "BOOKS", "ART"} {
		in := validInput()
		in.Category = cat
		if _, err := svc.Create(ctx, uuid.New(), in); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	items, total, err := svc.Browse(ctx, repositories.BrowseFilter{Category: models.CategoryBooks}, repositories.QueryOpts{Limit: 1})
	if err != nil {
		t.Fatalf("browse: %v", err)
	}
	if total != 2 || len(items) != 1 {
		t.Fatalf("total=%d len=%d", total, len(items))
	}
}

func TestItemService_ApplyCategorization(t *testing.T) {
	svc, repo := newTestItemService(nil)
	svc.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }
	ctx := context.Background()

	in := validInput()
	in.Category = "OTHER"
	item, err := svc.Create(ctx, uuid.New(), in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, changed, err := svc.ApplyCategorization(ctx, item.ID, models.Categorization{
		Category: models.CategoryElectronics,
		Tags:     []string{"35mm"},
		Summary:  "A film camera.",
	})
	if err != nil || !changed {
		t.Fatalf("apply: changed=%v err=%v", changed, err)
	}
	if updated.Category != models.CategoryElectronics || updated.AISummary != "A film camera." {
		t.Fatalf("updated = %+v", updated)
	}

	stored, _ := repo.GetByID(ctx, item.ID)
	if len(stored.Tags) != 3 || !stored.UpdatedAt.Equal(svc.now()) {
		t.Fatalf("stored = %+v", stored)
	}

	_, changed, err = svc.ApplyCategorization(ctx, item.ID, models.Categorization{Summary: "A film camera."})
	if err != nil || changed {
		t.Fatalf("re-applying the same suggestion: changed=%v err=%v", changed, err)
	}
}
