package models

import (
	itemmodels "github.com/secondlife-exchange/exchange/services/item/domain/models"
)

// Reason explains one contribution to a recommendation score.
type Reason struct {
	Score       int
	Description string
}

// Recommendation is a scored candidate. It is computed per request and never stored.
type Recommendation struct {
	Item    *itemmodels.Item
	Score   int // clamp(sum(Reasons.Score), 0, 100)
	Tier    Tier
	Reasons []Reason
}

// Tier is the human-readable match quality label shown next to a score.
type Tier string

const (
	TierExcellent Tier = "Excellent match"
	TierGood      Tier = "Bon match"
	TierFair      Tier = "Correct match"
	TierWeak      Tier = "Faible match"
)

// TierFor maps a 0-100 score to its Tier.
func TierFor(score int) Tier {
	switch {
	case score >= 80:
		return TierExcellent
	case score >= 60:
		return TierGood
	case score >= 40:
		return TierFair
	default:
		return TierWeak
	}
}
