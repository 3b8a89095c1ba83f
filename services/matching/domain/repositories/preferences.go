package repositories

import (
	"context"

	"github.com/google/uuid"

	itemmodels "github.com/secondlife-exchange/exchange/services/item/domain/models"
	"github.com/secondlife-exchange/exchange/services/matching/domain/models"
)

// PreferencesRepository persists one Preferences record per user.
type PreferencesRepository interface {
	// Get returns ErrPreferencesNotFound when the user has no record.
	Get(ctx context.Context, userID uuid.UUID) (*models.Preferences, error)

	// Upsert inserts or replaces the user's record.
	Upsert(ctx context.Context, prefs *models.Preferences) error
}

// CandidateRepository reads recommendation candidates from the item catalogue.
type CandidateRepository interface {
	// AvailableExcludingOwner returns at most limit AVAILABLE items not owned
	// by ownerID, most recently listed first.
	AvailableExcludingOwner(ctx context.Context, ownerID uuid.UUID, limit int) ([]*itemmodels.Item, error)
}
