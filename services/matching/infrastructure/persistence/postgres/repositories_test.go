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
	itemmodels "github.com/secondlife-exchange/exchange/services/item/domain/models"
	matchingdomain "github.com/secondlife-exchange/exchange/services/matching/domain"
	"github.com/secondlife-exchange/exchange/services/matching/domain/models"
)

func TestEnumConversion(t *testing.T) {
	in := []string{"BOOKS", "TOYS"}
	cats := toEnum[itemmodels.Category](in)
	if cats[1] != itemmodels.CategoryToys {
		t.Fatalf("got %v", cats)
	}
	if !reflect.DeepEqual(fromEnum(cats), in) {
		t.Fatalf("round trip = %v", fromEnum(cats))
	}
	if got := fromEnum[itemmodels.Category](nil); got == nil || len(got) != 0 {
		t.Fatalf("fromEnum(nil) = %#v, want empty slice", got)
	}
}

// setupDB connects to DATABASE_URL and applies both contexts' migrations.
// Skipped when DATABASE_URL is not set.
func setupDB(t *testing.T) *database.Database {
	t.Helper()
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set; skipping integration test")
	}
	ctx := context.Background()
	for _, name := range []string{"item", "matching"} {
		if err := migrator.RunMigrations(ctx, url, name, os.DirFS("../../../../../migrations/"+name)); err != nil {
			t.Fatalf("migrate %s: %v", name, err)
		}
	}
	db, err := database.NewPool(ctx, url, logger.Nop())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(db.Close)
	return db
}

func TestPreferencesRepositoryIntegration(t *testing.T) {
	db := setupDB(t)
	repo := NewPreferencesRepository(db.Pool())
	ctx := context.Background()
	userID := uuid.New()
	t.Cleanup(func() {
		_, _ = db.Pool().Exec(context.Background(), `DELETE FROM user_preferences WHERE user_id = $1`, userID)
	})

	if _, err := repo.Get(ctx, userID); !errors.Is(err, matchingdomain.ErrPreferencesNotFound) {
		t.Fatalf("expected ErrPreferencesNotFound, got %v", err)
	}

	t0 := time.Now().UTC().Truncate(time.Microsecond)
	p := models.DefaultPreferences(userID)
	p.PreferredCategories = []itemmodels.Category{"BOOKS"}
	p.PreferredConditions = []itemmodels.Condition{"NEW"}
	p.Country = "FR"
	p.CreatedAt, p.UpdatedAt = t0, t0
	if err := repo.Upsert(ctx, p); err != nil {
		t.Fatalf("insert: %v", err)
	}

	p.DislikedCategories = []itemmodels.Category{"TOYS"}
	p.PreferredCategories = []itemmodels.Category{}
	p.UpdatedAt = t0.Add(time.Minute)
	if err := repo.Upsert(ctx, p); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := repo.Get(ctx, userID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.PreferredCategories) != 0 || !reflect.DeepEqual(got.DislikedCategories, []itemmodels.Category{"TOYS"}) {
		t.Fatalf("got %+v", got)
	}
	if !got.CreatedAt.Equal(t0) || !got.UpdatedAt.Equal(t0.Add(time.Minute)) {
		t.Fatalf("timestamps %v %v", got.CreatedAt, got.UpdatedAt)
	}
}

func TestCandidateRepositoryIntegration(t *testing.T) {
	db := setupDB(t)
	repo := NewCandidateRepository(db.Pool())
	ctx := context.Background()

	me, other := uuid.New(), uuid.New()
	now := time.Now().UTC()
	insert := func(owner uuid.UUID, status string, age time.Duration) uuid.UUID {
		id := uuid.New()
		_, err := db.Pool().Exec(ctx, `
			INSERT INTO items (id, owner_id, title, category, condition, status, tags, created_at, updated_at)
			VALUES ($1, $2, 'Candidate', 'BOOKS', 'GOOD', $3, '["novel"]', $4, $4)`,
			id, owner, status, now.Add(-age))
		if err != nil {
			t.Fatalf("insert: %v", err)
		}
		t.Cleanup(func() { _, _ = db.Pool().Exec(context.Background(), `DELETE FROM items WHERE id = $1`, id) })
		return id
	}

	older := insert(other, "AVAILABLE", time.Hour)
	newer := insert(other, "AVAILABLE", time.Minute)
	insert(other, "RESERVED", time.Second)
	insert(me, "AVAILABLE", time.Second)

	items, err := repo.AvailableExcludingOwner(ctx, me, 1000)
	if err != nil {
		t.Fatalf("query: %v", err)
	}

	pos := map[uuid.UUID]int{}
	for i, item := range items {
		if item.OwnerID == me || item.Status != itemmodels.StatusAvailable {
			t.Fatalf("ineligible candidate %+v", item)
		}
		pos[item.ID] = i
	}
	pn, okN := pos[newer]
	po, okO := pos[older]
	if !okN || !okO || pn > po {
		t.Fatalf("expected newer before older, got positions %d %d", pn, po)
	}
	if items[pn].Tags[0] != "novel" {
		t.Fatalf("tags = %v", items[pn].Tags)
	}
}
