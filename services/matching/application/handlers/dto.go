package handlers

import (
	"time"

	"github.com/google/uuid"

	pkgvalidator "github.com/secondlife-exchange/exchange/pkg/validator"
	itemmodels "github.com/secondlife-exchange/exchange/services/item/domain/models"
	"github.com/secondlife-exchange/exchange/services/matching/domain/models"
)

func init() {
	for tag, valid := range map[string]func(string) bool{
		"category":  itemmodels.IsCategory,
		"condition": itemmodels.IsCondition,
	} {
		if err := pkgvalidator.RegisterEnum(tag, valid); err != nil {
			panic(err)
		}
	}
}

// ReasonResponse is one scored contribution to a recommendation.
type ReasonResponse struct {
	Score       int    `json:"score"       example:"30"`
	Description string `json:"description" example:"Catégorie préférée"`
} // @name ReasonResponse

// RecommendedItem is the listing shown inside a recommendation.
type RecommendedItem struct {
	ID              uuid.UUID `json:"id"              example:"123e4567-e89b-12d3-a456-426614174000"`
	OwnerID         uuid.UUID `json:"ownerId"         example:"550e8400-e29b-41d4-a716-446655440000"`
	Title           string    `json:"title"           example:"Vintage film camera"`
	Description     string    `json:"description"`
	Category        string    `json:"category"        example:"ELECTRONICS"`
	Condition       string    `json:"condition"       example:"GOOD"`
	Tags            []string  `json:"tags"`
	PopularityScore int       `json:"popularityScore" example:"42"`
	Country         string    `json:"country,omitempty" example:"FR"`
	CreatedAt       time.Time `json:"createdAt"       example:"2024-01-15T10:30:00Z"`
} // @name RecommendedItem

// RecommendationResponse is a scored item.
type RecommendationResponse struct {
	Item    RecommendedItem  `json:"item"`
	Score   int              `json:"score"   example:"60"`
	Tier    string           `json:"tier"    example:"Bon match"`
	Reasons []ReasonResponse `json:"reasons"`
} // @name RecommendationResponse

// RecommendationListResponse is one page of recommendations.
type RecommendationListResponse struct {
	Recommendations []RecommendationResponse `json:"recommendations"`
	Total           int                      `json:"total" example:"12"`
} // @name RecommendationListResponse

// PreferencesBody is the public representation of a user's preferences.
type PreferencesBody struct {
	PreferredCategories []string   `json:"preferredCategories"`
	DislikedCategories  []string   `json:"dislikedCategories"`
	PreferredConditions []string   `json:"preferredConditions"`
	Country             string     `json:"country,omitempty" example:"FR"`
	UpdatedAt           *time.Time `json:"updatedAt,omitempty"`
} // @name PreferencesBody

// PreferencesResponse wraps the preferences of the caller.
type PreferencesResponse struct {
	Preferences PreferencesBody `json:"preferences"`
} // @name PreferencesResponse

// ToRecommendationResponse maps a scored recommendation to JSON.
func ToRecommendationResponse(r models.Recommendation) RecommendationResponse {
	reasons := make([]ReasonResponse, len(r.Reasons))
	for i, reason := range r.Reasons {
		reasons[i] = ReasonResponse{Score: reason.Score, Description: reason.Description}
	}
	tags := r.Item.Tags
	if tags == nil {
		tags = []string{}
	}
	return RecommendationResponse{
		Item: RecommendedItem{
			ID:              r.Item.ID,
			OwnerID:         r.Item.OwnerID,
			Title:           r.Item.Title.String(),
			Description:     r.Item.Description,
			Category:        string(r.Item.Category),
			Condition:       string(r.Item.Condition),
			Tags:            tags,
			PopularityScore: r.Item.PopularityScore,
			Country:         r.Item.Country,
			CreatedAt:       r.Item.CreatedAt,
		},
		Score:   r.Score,
		Tier:    string(r.Tier),
		Reasons: reasons,
	}
}

// ToPreferencesResponse maps preferences to JSON. UpdatedAt is omitted for
// the default profile.
func ToPreferencesResponse(p *models.Preferences) PreferencesResponse {
	body := PreferencesBody{
		PreferredCategories: enumStrings(p.PreferredCategories),
		DislikedCategories:  enumStrings(p.DislikedCategories),
		PreferredConditions: enumStrings(p.PreferredConditions),
		Country:             p.Country,
	}
	if p.IsStored() {
		updated := p.UpdatedAt
		body.UpdatedAt = &updated
	}
	return PreferencesResponse{Preferences: body}
}

func enumStrings[T ~string](in []T) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = string(v)
	}
	return out
}
