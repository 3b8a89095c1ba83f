package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	itemdomain "github.com/secondlife-exchange/exchange/services/item/domain"
)

// MaxPopularity caps PopularityScore.
const MaxPopularity = 100

// Item is the listing aggregate for this bounded context.
type Item struct {
	ID              uuid.UUID
	OwnerID         uuid.UUID
	Title           ItemTitle
	Description     string
	Category        Category
	Condition       Condition
	Status          Status
	Tags            []string
	PopularityScore int // 0..MaxPopularity
	Country         string
	AISummary       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewItemParams carries the owner-supplied fields of a new listing.
type NewItemParams struct {
	OwnerID     uuid.UUID
	Title       ItemTitle
	Description string
	Category    Category
	Condition   Condition
	Tags        []string
	Country     string
}

// NewItem constructs an AVAILABLE Item with generated ID and current timestamp.
func NewItem(p NewItemParams) (*Item, error) {
	if !p.Category.Valid() {
		return nil, fmt.Errorf("%w: %q", itemdomain.ErrInvalidCategory, p.Category)
	}
	if !p.Condition.Valid() {
		return nil, fmt.Errorf("%w: %q", itemdomain.ErrInvalidCondition, p.Condition)
	}
	tags, err := NormalizeTags(p.Tags)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Item{
		ID:          uuid.New(),
		OwnerID:     p.OwnerID,
		Title:       p.Title,
		Description: strings.TrimSpace(p.Description),
		Category:    p.Category,
		Condition:   p.Condition,
		Status:      StatusAvailable,
		Tags:        tags,
		Country:     strings.ToUpper(strings.TrimSpace(p.Country)),
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// IsOwnedBy reports whether userID owns the item.
func (i *Item) IsOwnedBy(userID uuid.UUID) bool {
	return i.OwnerID == userID
}

// ChangeStatus moves the item to next, enforcing ownership and the status
// lifecycle.
func (i *Item) ChangeStatus(actor uuid.UUID, next Status, now time.Time) error {
	if !i.IsOwnedBy(actor) {
		return itemdomain.ErrNotItemOwner
	}
	if !next.Valid() {
		return fmt.Errorf("%w: %q", itemdomain.ErrInvalidStatus, next)
	}
	if !i.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", itemdomain.ErrInvalidStatusTransition, i.Status, next)
	}
	i.Status = next
	i.UpdatedAt = now.UTC()
	return nil
}

// Categorization is an AI suggestion for an item.
type Categorization struct {
	Category Category
	Tags     []string
	Summary  string
}

// ApplyCategorization merges s into the item. Suggested tags are appended up
// to MaxTags, the summary replaces AISummary when non-empty, and the category
// is only replaced when the owner picked OTHER. Reports whether anything changed.
func (i *Item) ApplyCategorization(s Categorization, now time.Time) bool {
	changed := false

	merged := MergeTags(i.Tags, s.Tags)
	if len(merged) != len(i.Tags) {
		i.Tags = merged
		changed = true
	}

	if summary := strings.TrimSpace(s.Summary); summary != "" && summary != i.AISummary {
		i.AISummary = summary
		changed = true
	}

	if i.Category == CategoryOther && s.Category.Valid() && s.Category != CategoryOther {
		i.Category = s.Category
		changed = true
	}

	if changed {
		i.UpdatedAt = now.UTC()
	}
	return changed
}
