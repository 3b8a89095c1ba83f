package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	pkgcache "github.com/secondlife-exchange/exchange/pkg/cache"
	itemmodels "github.com/secondlife-exchange/exchange/services/item/domain/models"
	matchingdomain "github.com/secondlife-exchange/exchange/services/matching/domain"
	"github.com/secondlife-exchange/exchange/services/matching/domain/models"
)

type fakePrefsRepo struct {
	mu      sync.Mutex
	rows    map[uuid.UUID]models.Preferences
	upserts int
	err     error
	// afterGet runs once, after a Get has read its row.
	afterGet func()
}

func newFakePrefsRepo() *fakePrefsRepo {
	return &fakePrefsRepo{rows: map[uuid.UUID]models.Preferences{}}
}

func (r *fakePrefsRepo) Get(_ context.Context, userID uuid.UUID) (*models.Preferences, error) {
	r.mu.Lock()
	if r.err != nil {
		r.mu.Unlock()
		return nil, r.err
	}
	p, ok := r.rows[userID]
	hook := r.afterGet
	r.afterGet = nil
	r.mu.Unlock()

	if hook != nil {
		hook()
	}
	if !ok {
		return nil, matchingdomain.ErrPreferencesNotFound
	}
	return &p, nil
}

func (r *fakePrefsRepo) Upsert(_ context.Context, p *models.Preferences) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upserts++
	r.rows[p.UserID] = *p
	return nil
}

// fakePrefsCache mimics JSONCache: tombstones read as misses and block
// fills until cleared with expire.
type fakePrefsCache struct {
	mu         sync.Mutex
	entries    map[string]pkgcache.CachedPreferences
	tombstones map[string]bool
	deletes    int
}

func newFakePrefsCache() *fakePrefsCache {
	return &fakePrefsCache{
		entries:    map[string]pkgcache.CachedPreferences{},
		tombstones: map[string]bool{},
	}
}

func (c *fakePrefsCache) Get(_ context.Context, id string) (*pkgcache.CachedPreferences, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[id]
	if !ok {
		return nil, redis.Nil
	}
	return &v, nil
}

func (c *fakePrefsCache) Fill(_ context.Context, id string, v *pkgcache.CachedPreferences) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[id]; ok || c.tombstones[id] {
		return false, nil
	}
	c.entries[id] = *v
	return true, nil
}

func (c *fakePrefsCache) Invalidate(_ context.Context, id string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deletes++
	delete(c.entries, id)
	c.tombstones[id] = true
	return nil
}

func (c *fakePrefsCache) expire(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.tombstones, id)
}

type fakeCandidates struct {
	items    []*itemmodels.Item
	err      error
	gotOwner uuid.UUID
	gotLimit int
}

func (f *fakeCandidates) AvailableExcludingOwner(_ context.Context, ownerID uuid.UUID, limit int) ([]*itemmodels.Item, error) {
	f.gotOwner, f.gotLimit = ownerID, limit
	if f.err != nil {
		return nil, f.err
	}
	return f.items, nil
}

type stubPrefs struct {
	prefs *models.Preferences
	err   error
}

func (s stubPrefs) Get(_ context.Context, userID uuid.UUID) (*models.Preferences, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.prefs == nil {
		return models.DefaultPreferences(userID), nil
	}
	return s.prefs, nil
}
