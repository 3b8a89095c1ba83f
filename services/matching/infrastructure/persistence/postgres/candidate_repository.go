package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	itemmodels "github.com/secondlife-exchange/exchange/services/item/domain/models"
)

// CandidateRepository reads recommendation candidates straight from the
// items table owned by the item bounded context.
type CandidateRepository struct {
	pool *pgxpool.Pool
}

// NewCandidateRepository returns a CandidateRepository on pool.
func NewCandidateRepository(pool *pgxpool.Pool) *CandidateRepository {
	return &CandidateRepository{pool: pool}
}

// AvailableExcludingOwner returns up to limit AVAILABLE items not owned by
// ownerID, newest first.
func (r *CandidateRepository) AvailableExcludingOwner(ctx context.Context, ownerID uuid.UUID, limit int) ([]*itemmodels.Item, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, owner_id, title, description, category, condition, status,
		       tags, popularity_score, country, ai_summary, created_at, updated_at
		FROM items
		WHERE status = $1 AND owner_id <> $2
		ORDER BY created_at DESC, id ASC
		LIMIT $3`,
		string(itemmodels.StatusAvailable), ownerID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query candidates: %w", err)
	}

	items, err := pgx.CollectRows(rows, scanCandidate)
	if err != nil {
		return nil, fmt.Errorf("scan candidates: %w", err)
	}
	return items, nil
}

func scanCandidate(row pgx.CollectableRow) (*itemmodels.Item, error) {
	var (
		item                         itemmodels.Item
		title, category, cond, state string
		createdAt, updatedAt         time.Time
	)
	if err := row.Scan(
		&item.ID, &item.OwnerID, &title, &item.Description, &category, &cond, &state,
		&item.Tags, &item.PopularityScore, &item.Country, &item.AISummary, &createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}
	item.Title = itemmodels.ItemTitle(title)
	item.Category = itemmodels.Category(category)
	item.Condition = itemmodels.Condition(cond)
	item.Status = itemmodels.Status(state)
	item.CreatedAt = createdAt.UTC()
	item.UpdatedAt = updatedAt.UTC()
	return &item, nil
}
