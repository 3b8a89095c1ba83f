package models

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	itemmodels "github.com/secondlife-exchange/exchange/services/item/domain/models"
	matchingdomain "github.com/secondlife-exchange/exchange/services/matching/domain"
)

// Preferences is the per-user matching profile. Sets are kept deduplicated
// and sorted; a nil slice never leaves this package.
type Preferences struct {
	UserID              uuid.UUID
	PreferredCategories []itemmodels.Category
	DislikedCategories  []itemmodels.Category
	PreferredConditions []itemmodels.Condition
	Country             string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// DefaultPreferences is the empty profile served before a user saves anything.
func DefaultPreferences(userID uuid.UUID) *Preferences {
	return &Preferences{
		UserID:              userID,
		PreferredCategories: []itemmodels.Category{},
		DislikedCategories:  []itemmodels.Category{},
		PreferredConditions: []itemmodels.Condition{},
	}
}

// IsStored reports whether the preferences were loaded from storage rather
// than defaulted.
func (p *Preferences) IsStored() bool {
	return !p.CreatedAt.IsZero()
}

// PrefersCategory reports whether c is a preferred category.
func (p *Preferences) PrefersCategory(c itemmodels.Category) bool {
	return slices.Contains(p.PreferredCategories, c)
}

// DislikesCategory reports whether c is a disliked category.
func (p *Preferences) DislikesCategory(c itemmodels.Category) bool {
	return slices.Contains(p.DislikedCategories, c)
}

// PrefersCondition reports whether c is a preferred condition.
func (p *Preferences) PrefersCondition(c itemmodels.Condition) bool {
	return slices.Contains(p.PreferredConditions, c)
}

// PreferencesPatch is a partial update. A nil field keeps the stored value;
// a non-nil field replaces it (an empty slice clears the set, an empty
// country clears the country).
type PreferencesPatch struct {
	PreferredCategories *[]itemmodels.Category
	DislikedCategories  *[]itemmodels.Category
	PreferredConditions *[]itemmodels.Condition
	Country             *string
}

// Apply merges patch into p and re-establishes the invariants. On error p is
// left unchanged.
func (p *Preferences) Apply(patch PreferencesPatch, now time.Time) error {
	next := *p

	if patch.PreferredCategories != nil {
		next.PreferredCategories = *patch.PreferredCategories
	}
	if patch.DislikedCategories != nil {
		next.DislikedCategories = *patch.DislikedCategories
	}
	if patch.PreferredConditions != nil {
		next.PreferredConditions = *patch.PreferredConditions
	}
	if patch.Country != nil {
		next.Country = strings.ToUpper(strings.TrimSpace(*patch.Country))
	}

	if err := next.normalize(); err != nil {
		return err
	}

	if next.CreatedAt.IsZero() {
		next.CreatedAt = now.UTC()
	}
	next.UpdatedAt = now.UTC()
	*p = next
	return nil
}

func (p *Preferences) normalize() error {
	for _, c := range p.PreferredCategories {
		if !c.Valid() {
			return fmt.Errorf("%w: unknown category %q", matchingdomain.ErrInvalidPreferences, c)
		}
	}
	for _, c := range p.DislikedCategories {
		if !c.Valid() {
			return fmt.Errorf("%w: unknown category %q", matchingdomain.ErrInvalidPreferences, c)
		}
	}
	for _, c := range p.PreferredConditions {
		if !c.Valid() {
			return fmt.Errorf("%w: unknown condition %q", matchingdomain.ErrInvalidPreferences, c)
		}
	}

	p.PreferredCategories = sortedSet(p.PreferredCategories)
	p.DislikedCategories = sortedSet(p.DislikedCategories)
	p.PreferredConditions = sortedSet(p.PreferredConditions)

	for _, c := range p.PreferredCategories {
		if slices.Contains(p.DislikedCategories, c) {
			return fmt.Errorf("%w: %s", matchingdomain.ErrConflictingPreferences, c)
		}
	}
	return nil
}

// sortedSet returns a sorted copy of in without duplicates, never nil.
func sortedSet[T ~string](in []T) []T {
	out := slices.Clone(in)
	if out == nil {
		out = []T{}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
