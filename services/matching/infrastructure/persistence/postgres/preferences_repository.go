package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	itemmodels "github.com/secondlife-exchange/exchange/services/item/domain/models"
	matchingdomain "github.com/secondlife-exchange/exchange/services/matching/domain"
	"github.com/secondlife-exchange/exchange/services/matching/domain/models"
)

// PreferencesRepository implements repositories.PreferencesRepository on the
// user_preferences table using native pgx arrays.
type PreferencesRepository struct {
	pool *pgxpool.Pool
}

// NewPreferencesRepository returns a PreferencesRepository on pool.
func NewPreferencesRepository(pool *pgxpool.Pool) *PreferencesRepository {
	return &PreferencesRepository{pool: pool}
}

// Get loads the preferences of userID or returns ErrPreferencesNotFound.
func (r *PreferencesRepository) Get(ctx context.Context, userID uuid.UUID) (*models.Preferences, error) {
	var (
		preferred, disliked, conditions []string
		country                         string
		createdAt, updatedAt            time.Time
	)
	err := r.pool.QueryRow(ctx, `
		SELECT preferred_categories, disliked_categories, preferred_conditions, country, created_at, updated_at
		FROM user_preferences WHERE user_id = $1`, userID,
	).Scan(&preferred, &disliked, &conditions, &country, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, matchingdomain.ErrPreferencesNotFound
		}
		return nil, fmt.Errorf("query preferences: %w", err)
	}

	return &models.Preferences{
		UserID:              userID,
		PreferredCategories: toEnum[itemmodels.Category](preferred),
		DislikedCategories:  toEnum[itemmodels.Category](disliked),
		PreferredConditions: toEnum[itemmodels.Condition](conditions),
		Country:             country,
		CreatedAt:           createdAt.UTC(),
		UpdatedAt:           updatedAt.UTC(),
	}, nil
}

// Upsert inserts the record or replaces every field except created_at.
func (r *PreferencesRepository) Upsert(ctx context.Context, p *models.Preferences) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO user_preferences
			(user_id, preferred_categories, disliked_categories, preferred_conditions, country, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE SET
			preferred_categories = EXCLUDED.preferred_categories,
			disliked_categories  = EXCLUDED.disliked_categories,
			preferred_conditions = EXCLUDED.preferred_conditions,
			country              = EXCLUDED.country,
			updated_at           = EXCLUDED.updated_at`,
		p.UserID,
		fromEnum(p.PreferredCategories),
		fromEnum(p.DislikedCategories),
		fromEnum(p.PreferredConditions),
		p.Country,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert preferences: %w", err)
	}
	return nil
}

func toEnum[T ~string](in []string) []T {
	out := make([]T, len(in))
	for i, s := range in {
		out[i] = T(s)
	}
	return out
}

func fromEnum[T ~string](in []T) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = string(v)
	}
	return out
}
