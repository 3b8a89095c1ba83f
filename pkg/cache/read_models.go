package cache

import (
	"time"

	"github.com/google/uuid"
)

const (
	// ItemCacheTTL is the time-to-live for cached items.
	ItemCacheTTL = 24 * time.Hour

	// PreferencesCacheTTL is the time-to-live for cached user preferences.
	PreferencesCacheTTL = time.Hour
)

// CachedItem is the denormalized item read model stored in Redis.
type CachedItem struct {
	ID              uuid.UUID `json:"id"`
	OwnerID         uuid.UUID `json:"owner_id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Category        string    `json:"category"`
	Condition       string    `json:"condition"`
	Status          string    `json:"status"`
	Tags            []string  `json:"tags"`
	PopularityScore int       `json:"popularity_score"`
	Country         string    `json:"country,omitempty"`
	AISummary       string    `json:"ai_summary,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// CachedPreferences is the user preferences read model stored in Redis.
type CachedPreferences struct {
	UserID              uuid.UUID `json:"user_id"`
	PreferredCategories []string  `json:"preferred_categories"`
	DislikedCategories  []string  `json:"disliked_categories"`
	PreferredConditions []string  `json:"preferred_conditions"`
	Country             string    `json:"country,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// ItemCache caches items by ID. Key format: "item:{itemID}".
type ItemCache = JSONCache[CachedItem]

// PreferencesCache caches preferences by user ID. Key format: "prefs:{userID}".
type PreferencesCache = JSONCache[CachedPreferences]

// NewItemCache creates the item read-model cache.
func NewItemCache(r *RedisClient) *ItemCache {
	return NewJSONCache[CachedItem](r, "item", ItemCacheTTL)
}

// NewPreferencesCache creates the preferences read-model cache.
func NewPreferencesCache(r *RedisClient) *PreferencesCache {
	return NewJSONCache[CachedPreferences](r, "prefs", PreferencesCacheTTL)
}
