package handlers

import (
	"time"

	"github.com/google/uuid"

	pkgvalidator "github.com/secondlife-exchange/exchange/pkg/validator"
	"github.com/secondlife-exchange/exchange/services/item/domain/models"
)

func init() {
	for tag, valid := range map[string]func(string) bool{
		"category":  models.IsCategory,
		"condition": models.IsCondition,
		"status":    models.IsStatus,
	} {
		if err := pkgvalidator.RegisterEnum(tag, valid); err != nil {
			panic(err)
		}
	}
}

// ItemResponse is the public representation of a listing.
type ItemResponse struct {
	ID              uuid.UUID `json:"id"              example:"123e4567-e89b-12d3-a456-426614174000"`
	OwnerID         uuid.UUID `json:"ownerId"         example:"550e8400-e29b-41d4-a716-446655440000"`
	Title           string    `json:"title"           example:"Vintage film camera"`
	Description     string    `json:"description"     example:"Works perfectly, comes with strap."`
	Category        string    `json:"category"        example:"ELECTRONICS"`
	Condition       string    `json:"condition"       example:"GOOD"`
	Status          string    `json:"status"          example:"AVAILABLE"`
	Tags            []string  `json:"tags"`
	PopularityScore int       `json:"popularityScore" example:"42"`
	Country         string    `json:"country,omitempty"   example:"FR"`
	AISummary       string    `json:"aiSummary,omitempty" example:"A 35mm film camera from the 80s."`
	CreatedAt       time.Time `json:"createdAt"       example:"2024-01-15T10:30:00Z"`
	UpdatedAt       time.Time `json:"updatedAt"       example:"2024-01-15T10:30:00Z"`
} // @name ItemResponse

// ItemListResponse is one page of a catalogue browse.
type ItemListResponse struct {
	Items []ItemResponse `json:"items"`
	Total int            `json:"total" example:"57"`
} // @name ItemListResponse

// ToItemResponse maps a domain Item to its JSON representation.
func ToItemResponse(i *models.Item) ItemResponse {
	tags := i.Tags
	if tags == nil {
		tags = []string{}
	}
	return ItemResponse{
		ID:              i.ID,
		OwnerID:         i.OwnerID,
		Title:           i.Title.String(),
		Description:     i.Description,
		Category:        string(i.Category),
		Condition:       string(i.Condition),
		Status:          string(i.Status),
		Tags:            tags,
		PopularityScore: i.PopularityScore,
		Country:         i.Country,
		AISummary:       i.AISummary,
		CreatedAt:       i.CreatedAt,
		UpdatedAt:       i.UpdatedAt,
	}
}
