package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/secondlife-exchange/exchange/pkg/database"
	"github.com/secondlife-exchange/exchange/pkg/events"
	itemdomain "github.com/secondlife-exchange/exchange/services/item/domain"
	domainevents "github.com/secondlife-exchange/exchange/services/item/domain/events"
	"github.com/secondlife-exchange/exchange/services/item/domain/models"
	"github.com/secondlife-exchange/exchange/services/item/domain/repositories"
)

const itemColumns = `id, owner_id, title, description, category, condition, status,
	tags, popularity_score, country, ai_summary, created_at, updated_at`

// ItemRepository implements repositories.ItemRepository against PostgreSQL.
// Writes run in database/sql transactions so the outbox publisher can share them.
type ItemRepository struct {
	db  *database.Database
	bus *events.EventBus
}

// NewItemRepository returns an ItemRepository backed by the given database
// and event bus. A nil bus disables event publishing.
func NewItemRepository(database *database.Database, bus *events.EventBus) *ItemRepository {
	return &ItemRepository{db: database, bus: bus}
}

// Save persists a new Item and publishes an ItemCreatedEvent within the same transaction.
// Returns ErrItemAlreadyExists on unique constraint violations.
func (r *ItemRepository) Save(ctx context.Context, item *models.Item) error {
	tags, err := encodeTags(item.Tags)
	if err != nil {
		return err
	}

	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO items (`+itemColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb, $9, $10, $11, $12, $13)`,
			item.ID, item.OwnerID, item.Title.String(), item.Description,
			string(item.Category), string(item.Condition), string(item.Status),
			tags, item.PopularityScore, item.Country, item.AISummary,
			item.CreatedAt, item.UpdatedAt,
		)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return itemdomain.ErrItemAlreadyExists
			}
			return fmt.Errorf("insert item: %w", err)
		}

		if r.bus == nil {
			return nil
		}
		event := domainevents.ItemCreatedEvent{
			EventID:     uuid.New(),
			Version:     domainevents.ItemCreatedVersion,
			ItemID:      item.ID,
			OwnerID:     item.OwnerID,
			Title:       item.Title.String(),
			Description: item.Description,
			Category:    string(item.Category),
			OccurredAt:  item.CreatedAt,
		}
		if err := r.bus.PublishInTx(ctx, tx, domainevents.TopicItemCreated, event.EventID, event.Version, event); err != nil {
			return fmt.Errorf("publish item created: %w", err)
		}
		return nil
	})
}

// GetByID retrieves an Item by ID. Returns ErrItemNotFound if not found.
func (r *ItemRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	row := r.db.DB().QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1`, id)
	item, err := scanItem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, itemdomain.ErrItemNotFound
		}
		return nil, fmt.Errorf("query item: %w", err)
	}
	return item, nil
}

// Browse returns a page of AVAILABLE items matching filter, newest first,
// and the total matching count.
func (r *ItemRepository) Browse(ctx context.Context, filter repositories.BrowseFilter, opts repositories.QueryOpts) ([]*models.Item, int, error) {
	where, args := browseWhere(filter)

	var total int
	if err := r.db.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM items WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count items: %w", err)
	}

	pageArgs := append(args, opts.Limit, opts.Offset)
	rows, err := r.db.DB().QueryContext(ctx, fmt.Sprintf(
		`SELECT %s FROM items WHERE %s ORDER BY created_at DESC, id ASC LIMIT $%d OFFSET $%d`,
		itemColumns, where, len(args)+1, len(args)+2,
	), pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	items := make([]*models.Item, 0, opts.Limit)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate items: %w", err)
	}
	return items, total, nil
}

// browseWhere builds the WHERE clause and positional args for filter.
func browseWhere(filter repositories.BrowseFilter) (string, []any) {
	clauses := []string{"status = $1"}
	args := []any{string(models.StatusAvailable)}

	if filter.Category != "" {
		args = append(args, string(filter.Category))
		clauses = append(clauses, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.Condition != "" {
		args = append(args, string(filter.Condition))
		clauses = append(clauses, fmt.Sprintf("condition = $%d", len(args)))
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		args = append(args, "%"+escapeLike(q)+"%")
		clauses = append(clauses, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}
	return strings.Join(clauses, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }

// UpdateStatus persists a status transition guarded by the previous status,
// and publishes an ItemStatusChangedEvent in the same transaction.
func (r *ItemRepository) UpdateStatus(ctx context.Context, item *models.Item, from models.Status) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE items SET status = $2, updated_at = $3 WHERE id = $1 AND status = $4`,
			item.ID, string(item.Status), item.UpdatedAt, string(from),
		)
		if err != nil {
			return fmt.Errorf("update item status: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return fmt.Errorf("update item status: %w", err)
		} else if n == 0 {
			return fmt.Errorf("%w: item %s is no longer %s", itemdomain.ErrInvalidStatusTransition, item.ID, from)
		}

		if r.bus == nil {
			return nil
		}
		event := domainevents.ItemStatusChangedEvent{
			EventID:    uuid.New(),
			Version:    domainevents.ItemStatusChangedVersion,
			ItemID:     item.ID,
			OwnerID:    item.OwnerID,
			From:       string(from),
			To:         string(item.Status),
			OccurredAt: item.UpdatedAt,
		}
		if err := r.bus.PublishInTx(ctx, tx, domainevents.TopicItemStatusChanged, event.EventID, event.Version, event); err != nil {
			return fmt.Errorf("publish status changed: %w", err)
		}
		return nil
	})
}

// UpdateCategorization persists category, tags and AI summary.
func (r *ItemRepository) UpdateCategorization(ctx context.Context, item *models.Item) error {
	tags, err := encodeTags(item.Tags)
	if err != nil {
		return err
	}
	res, err := r.db.DB().ExecContext(ctx,
		`UPDATE items SET category = $2, tags = $3::jsonb, ai_summary = $4, updated_at = $5 WHERE id = $1`,
		item.ID, string(item.Category), tags, item.AISummary, item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update categorization: %w", err)
	}
	return requireAffected(res)
}

// IncrementPopularity adds delta to popularity_score, capped at MaxPopularity.
func (r *ItemRepository) IncrementPopularity(ctx context.Context, id uuid.UUID, delta int) error {
	res, err := r.db.DB().ExecContext(ctx,
		`UPDATE items SET popularity_score = LEAST(popularity_score + $2, $3) WHERE id = $1`,
		id, delta, models.MaxPopularity,
	)
	if err != nil {
		return fmt.Errorf("increment popularity: %w", err)
	}
	return requireAffected(res)
}

// Delete removes an item by ID.
func (r *ItemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.DB().ExecContext(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return itemdomain.ErrItemNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*models.Item, error) {
	var (
		item                         models.Item
		title, category, cond, state string
		tags                         []byte
		createdAt, updatedAt         time.Time
	)
	if err := row.Scan(
		&item.ID, &item.OwnerID, &title, &item.Description, &category, &cond, &state,
		&tags, &item.PopularityScore, &item.Country, &item.AISummary, &createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}

	item.Title = models.ItemTitle(title)
	item.Category = models.Category(category)
	item.Condition = models.Condition(cond)
	item.Status = models.Status(state)
	item.CreatedAt = createdAt.UTC()
	item.UpdatedAt = updatedAt.UTC()
	if err := json.Unmarshal(tags, &item.Tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	if item.Tags == nil {
		item.Tags = []string{}
	}
	return &item, nil
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("encode tags: %w", err)
	}
	return string(b), nil
}
