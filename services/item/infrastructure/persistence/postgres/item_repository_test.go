package postgres

import (
	"context"
	"errors"
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/secondlife-exchange/exchange/pkg/database"
	"github.com/secondlife-exchange/exchange/pkg/logger"
	"github.com/secondlife-exchange/exchange/pkg/migrator"
	itemdomain "github.com/secondlife-exchange/exchange/services/item/domain"
	"github.com/secondlife-exchange/exchange/services/item/domain/models"
	"github.com/secondlife-exchange/exchange/services/item/domain/repositories"
)

func TestBrowseWhere(t *testing.T) {
	tests := []struct {
		name      string
		filter    repositories.BrowseFilter
		wantWhere string
		wantArgs  []any
	}{
		{
			name:      "available only",
			wantWhere: "status = $1",
			wantArgs:  []any{"AVAILABLE"},
		},
		{
			name:      "category and condition",
			filter:    repositories.BrowseFilter{Category: models.CategoryBooks, Condition: models.ConditionGood},
			wantWhere: "status = $1 AND category = $2 AND condition = $3",
			wantArgs:  []any{"AVAILABLE", "BOOKS", "GOOD"},
		},
		{
			name:      "query escapes wildcards",
			filter:    repositories.BrowseFilter{Query: " 50%_off "},
			wantWhere: "status = $1 AND (title ILIKE $2 OR description ILIKE $2)",
			wantArgs:  []any{"AVAILABLE", `%50\%\_off%`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, args := browseWhere(tt.filter)
			if where != tt.wantWhere {
				t.Errorf("where = %q, want %q", where, tt.wantWhere)
			}
			if !reflect.DeepEqual(args, tt.wantArgs) {
				t.Errorf("args = %v, want %v", args, tt.wantArgs)
			}
		})
	}
}

func TestEncodeTags(t *testing.T) {
	got, err := encodeTags(nil)
	if err != nil || got != "[]" {
		t.Fatalf("encodeTags(nil) = %q, %v", got, err)
	}
	got, _ = encodeTags([]string{"a", "b"})
	if got != `["a","b"]` {
		t.Fatalf("got %q", got)
	}
}

// setupRepo connects to DATABASE_URL and applies the item migrations.
// Skipped when DATABASE_URL is not set.
func setupRepo(t *testing.T) *ItemRepository {
	t.Helper()
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set; skipping integration test")
	}
	ctx := context.Background()
	if err := migrator.RunMigrations(ctx, url, "item", os.DirFS("../../../../../migrations/item")); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	db, err := database.NewPool(ctx, url, logger.Nop())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(db.Close)
	return NewItemRepository(db, nil)
}

func newTestItem(t *testing.T, title string) *models.Item {
	t.Helper()
	item, err := models.NewItem(models.NewItemParams{
		OwnerID:   uuid.New(),
		Title:     models.ItemTitle(title),
		Category:  models.CategoryMusic,
		Condition: models.ConditionLikeNew,
		Tags:      []string{"vinyl"},
		Country:   "FR",
	})
	if err != nil {
		t.Fatal(err)
	}
	return item
}

func TestItemRepositoryIntegration(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	item := newTestItem(t, "Integration turntable "+uuid.NewString()[:8])
	if err := repo.Save(ctx, item); err != nil {
		t.Fatalf("Save: %v", err)
	}
	t.Cleanup(func() { _ = repo.Delete(context.Background(), item.ID) })

	t.Run("duplicate save", func(t *testing.T) {
		if err := repo.Save(ctx, item); !errors.Is(err, itemdomain.ErrItemAlreadyExists) {
			t.Fatalf("expected ErrItemAlreadyExists, got %v", err)
		}
	})

	t.Run("get by id", func(t *testing.T) {
		got, err := repo.GetByID(ctx, item.ID)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if got.Title != item.Title || !reflect.DeepEqual(got.Tags, item.Tags) || got.Country != "FR" {
			t.Fatalf("got %+v", got)
		}
	})

	t.Run("browse by query", func(t *testing.T) {
		items, total, err := repo.Browse(ctx, repositories.BrowseFilter{Query: item.Title.String()}, repositories.QueryOpts{Limit: 10})
		if err != nil {
			t.Fatalf("Browse: %v", err)
		}
		if total != 1 || len(items) != 1 || items[0].ID != item.ID {
			t.Fatalf("got total=%d items=%d", total, len(items))
		}
	})

	t.Run("popularity capped", func(t *testing.T) {
		if err := repo.IncrementPopularity(ctx, item.ID, 150); err != nil {
			t.Fatalf("IncrementPopularity: %v", err)
		}
		got, _ := repo.GetByID(ctx, item.ID)
		if got.PopularityScore != models.MaxPopularity {
			t.Fatalf("popularity = %d", got.PopularityScore)
		}
	})

	t.Run("status change guarded by previous status", func(t *testing.T) {
		if err := item.ChangeStatus(item.OwnerID, models.StatusReserved, time.Now()); err != nil {
			t.Fatal(err)
		}
		if err := repo.UpdateStatus(ctx, item, models.StatusAvailable); err != nil {
			t.Fatalf("UpdateStatus: %v", err)
		}
		if err := repo.UpdateStatus(ctx, item, models.StatusAvailable); !errors.Is(err, itemdomain.ErrInvalidStatusTransition) {
			t.Fatalf("expected ErrInvalidStatusTransition, got %v", err)
		}
	})

	t.Run("missing item", func(t *testing.T) {
		if _, err := repo.GetByID(ctx, uuid.New()); !errors.Is(err, itemdomain.ErrItemNotFound) {
			t.Fatalf("expected ErrItemNotFound, got %v", err)
		}
		if err := repo.Delete(ctx, uuid.New()); !errors.Is(err, itemdomain.ErrItemNotFound) {
			t.Fatalf("expected ErrItemNotFound, got %v", err)
		}
	})
}
