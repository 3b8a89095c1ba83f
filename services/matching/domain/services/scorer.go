// Package services holds the pure scoring and ranking logic of the matching
// bounded context. Nothing here performs I/O or reads the clock.
package services

import (
	"math"
	"strings"
	"time"

	itemmodels "github.com/secondlife-exchange/exchange/services/item/domain/models"
	"github.com/secondlife-exchange/exchange/services/matching/domain/models"
)

// Reason descriptions shown to users.
const (
	ReasonCategory    = "Catégorie préférée"
	ReasonCondition   = "État préféré"
	ReasonPopular     = "Objet populaire"
	ReasonRecentWeek  = "Ajouté récemment"
	ReasonRecentMonth = "Ajouté ce mois-ci"
	ReasonCountry     = "Dans votre pays"

	maxScore = 100
	day      = 24 * time.Hour
)

// Weights are the points each signal contributes.
type Weights struct {
	Category      int // category is preferred
	Condition     int // condition is preferred
	PopularityMax int // scaled linearly by popularity 0..100
	RecentWeek    int // listed within 7 days
	RecentMonth   int // listed within 30 days
	Country       int // item country equals the user's country
}

// DefaultWeights are the production weights.
var DefaultWeights = Weights{
	Category:      30,
	Condition:     20,
	PopularityMax: 20,
	RecentWeek:    10,
	RecentMonth:   5,
	Country:       10,
}

// Scorer turns a candidate and a preference profile into a Recommendation.
type Scorer struct {
	w Weights
}

// NewScorer returns a Scorer using w.
func NewScorer(w Weights) *Scorer {
	return &Scorer{w: w}
}

// Eligible reports whether item may be recommended to the owner of prefs:
// it is AVAILABLE, belongs to someone else and is not in a disliked category.
func Eligible(prefs *models.Preferences, item *itemmodels.Item) bool {
	return item.Status == itemmodels.StatusAvailable &&
		item.OwnerID != prefs.UserID &&
		!prefs.DislikesCategory(item.Category)
}

// Score evaluates item against prefs at instant now. The second result is
// false when the item is not eligible.
//
// Reasons are emitted in a fixed order (category, condition, popularity,
// recency, country) and only when they contribute points.
func (s *Scorer) Score(prefs *models.Preferences, item *itemmodels.Item, now time.Time) (models.Recommendation, bool) {
	if !Eligible(prefs, item) {
		return models.Recommendation{}, false
	}

	reasons := make([]models.Reason, 0, 5)
	add := func(points int, desc string) {
		if points > 0 {
			reasons = append(reasons, models.Reason{Score: points, Description: desc})
		}
	}

	if prefs.PrefersCategory(item.Category) {
		add(s.w.Category, ReasonCategory)
	}
	if prefs.PrefersCondition(item.Condition) {
		add(s.w.Condition, ReasonCondition)
	}
	add(s.popularityPoints(item.PopularityScore), ReasonPopular)

	switch age := now.Sub(item.CreatedAt); {
	case age <= 7*day:
		add(s.w.RecentWeek, ReasonRecentWeek)
	case age <= 30*day:
		add(s.w.RecentMonth, ReasonRecentMonth)
	}

	if prefs.Country != "" && strings.EqualFold(prefs.Country, item.Country) {
		add(s.w.Country, ReasonCountry)
	}

	total := 0
	for _, r := range reasons {
		total += r.Score
	}
	score := min(max(total, 0), maxScore)

	return models.Recommendation{
		Item:    item,
		Score:   score,
		Tier:    models.TierFor(score),
		Reasons: reasons,
	}, true
}

func (s *Scorer) popularityPoints(popularity int) int {
	p := min(max(popularity, 0), itemmodels.MaxPopularity)
	return int(math.Round(float64(p) / float64(itemmodels.MaxPopularity) * float64(s.w.PopularityMax)))
}
