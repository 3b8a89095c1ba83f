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
	itemmodels "github.com/secondlife-exchange/exchange/services/item/domain/models"
	matchingdomain "github.com/secondlife-exchange/exchange/services/matching/domain"
	"github.com/secondlife-exchange/exchange/services/matching/domain/models"
	"github.com/secondlife-exchange/exchange/services/matching/domain/repositories"
)

const (
	cacheWriteTimeout = 2 * time.Second

	// invalidationHold outlives cacheWriteTimeout so a fill that read the
	// row before a Save cannot land after the Save's invalidation.
	invalidationHold = 5 * time.Second
)

// PreferencesCache is the read-model cache used by PreferencesService.
// *pkgcache.PreferencesCache satisfies it.
type PreferencesCache interface {
	Get(ctx context.Context, id string) (*pkgcache.CachedPreferences, error)
	Fill(ctx context.Context, id string, v *pkgcache.CachedPreferences) (bool, error)
	Invalidate(ctx context.Context, id string, hold time.Duration) error
}

// PreferencesService reads and upserts user matching preferences.
type PreferencesService struct {
	repo  repositories.PreferencesRepository
	cache PreferencesCache
	log   logger.Logger
	now   func() time.Time
}

// NewPreferencesService returns a PreferencesService. A nil cache disables caching.
func NewPreferencesService(repo repositories.PreferencesRepository, prefsCache PreferencesCache, log logger.Logger) *PreferencesService {
	return &PreferencesService{repo: repo, cache: prefsCache, log: log, now: time.Now}
}

// Get returns the stored preferences of userID, or the default empty profile
// when none were saved yet. It never reports ErrPreferencesNotFound.
func (s *PreferencesService) Get(ctx context.Context, userID uuid.UUID) (*models.Preferences, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, userID.String())
		if err == nil {
			return fromCached(cached), nil
		}
		if !errors.Is(err, redis.Nil) {
			s.log.WarnContext(ctx, "preferences cache read failed", "user_id", userID, "error", err)
		}
	}

	p, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p.IsStored() {
		s.writeCache(ctx, p)
	}
	return p, nil
}

// Save merges patch into the current preferences of userID and upserts the
// result. The first save creates the record. Two concurrent partial saves for
// the same user are last-writer-wins: one patch may be lost.
func (s *PreferencesService) Save(ctx context.Context, userID uuid.UUID, patch models.PreferencesPatch) (*models.Preferences, error) {
	p, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	created := !p.IsStored()
	if err := p.Apply(patch, s.now()); err != nil {
		return nil, err
	}
	if err := s.repo.Upsert(ctx, p); err != nil {
		return nil, fmt.Errorf("save preferences: %w", err)
	}

	s.evict(ctx, userID)
	s.log.InfoContext(ctx, "preferences saved",
		"user_id", userID,
		"created", created,
		"preferred", len(p.PreferredCategories),
		"disliked", len(p.DislikedCategories),
	)
	return p, nil
}

func (s *PreferencesService) load(ctx context.Context, userID uuid.UUID) (*models.Preferences, error) {
	p, err := s.repo.Get(ctx, userID)
	switch {
	case errors.Is(err, matchingdomain.ErrPreferencesNotFound):
		return models.DefaultPreferences(userID), nil
	case err != nil:
		return nil, fmt.Errorf("get preferences: %w", err)
	}
	return p, nil
}

func (s *PreferencesService) writeCache(ctx context.Context, p *models.Preferences) {
	if s.cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cacheWriteTimeout)
	defer cancel()
	if _, err := s.cache.Fill(ctx, p.UserID.String(), toCached(p)); err != nil {
		s.log.WarnContext(ctx, "preferences cache write failed", "user_id", p.UserID, "error", err)
	}
}

func (s *PreferencesService) evict(ctx context.Context, userID uuid.UUID) {
	if s.cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cacheWriteTimeout)
	defer cancel()
	if err := s.cache.Invalidate(ctx, userID.String(), invalidationHold); err != nil {
		s.log.WarnContext(ctx, "preferences cache eviction failed", "user_id", userID, "error", err)
	}
}

func toCached(p *models.Preferences) *pkgcache.CachedPreferences {
	return &pkgcache.CachedPreferences{
		UserID:              p.UserID,
		PreferredCategories: toStrings(p.PreferredCategories),
		DislikedCategories:  toStrings(p.DislikedCategories),
		PreferredConditions: toStrings(p.PreferredConditions),
		Country:             p.Country,
		CreatedAt:           p.CreatedAt,
		UpdatedAt:           p.UpdatedAt,
	}
}

func fromCached(c *pkgcache.CachedPreferences) *models.Preferences {
	return &models.Preferences{
		UserID:              c.UserID,
		PreferredCategories: fromStrings[itemmodels.Category](c.PreferredCategories),
		DislikedCategories:  fromStrings[itemmodels.Category](c.DislikedCategories),
		PreferredConditions: fromStrings[itemmodels.Condition](c.PreferredConditions),
		Country:             c.Country,
		CreatedAt:           c.CreatedAt,
		UpdatedAt:           c.UpdatedAt,
	}
}

func toStrings[T ~string](in []T) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = string(v)
	}
	return out
}

func fromStrings[T ~string](in []string) []T {
	out := make([]T, len(in))
	for i, v := range in {
		out[i] = T(v)
	}
	return out
}
