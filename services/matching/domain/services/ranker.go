package services

import (
	"cmp"
	"slices"

	"github.com/secondlife-exchange/exchange/services/matching/domain/models"
)

const (
	// DefaultLimit and MaxLimit bound a recommendations page.
	DefaultLimit = 20
	MaxLimit     = 100
)

// Rank sorts recs in place: score descending, then newest item first, then
// item ID ascending so equal inputs always produce the same order.
func Rank(recs []models.Recommendation) {
	slices.SortFunc(recs, func(a, b models.Recommendation) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		if c := b.Item.CreatedAt.Compare(a.Item.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.Item.ID.String(), b.Item.ID.String())
	})
}

// Paginate returns the window [offset, offset+limit) of recs. A non-positive
// limit means DefaultLimit, limits above MaxLimit are capped and a negative
// offset is treated as zero. The result is never nil.
func Paginate(recs []models.Recommendation, limit, offset int) []models.Recommendation {
	if limit <= 0 {
		limit = DefaultLimit
	}
	limit = min(limit, MaxLimit)
	offset = max(offset, 0)

	if offset >= len(recs) {
		return []models.Recommendation{}
	}
	end := min(offset+limit, len(recs))
	return recs[offset:end]
}
