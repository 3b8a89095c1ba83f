// Package services contains stateless domain services for the item bounded context.
// Domain services enforce business rules that operate purely on domain types
// and have zero external dependencies beyond stdlib and the domain layer.
package services

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	itemdomain "github.com/secondlife-exchange/exchange/services/item/domain"
	"github.com/secondlife-exchange/exchange/services/item/domain/models"
)

// ValidateTitle enforces business rules for ItemTitle beyond the length
// constraints enforced by the ItemTitle constructor.
//
// Business rules:
//   - No leading or trailing whitespace
//   - No control characters (Unicode category Cc)
//   - No consecutive spaces
//   - Must not be only whitespace characters
func ValidateTitle(title models.ItemTitle) error {
	s := title.String()

	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("title must not be only whitespace")
	}

	if s != strings.TrimSpace(s) {
		return fmt.Errorf("title must not have leading or trailing whitespace")
	}

	for _, r := range s {
		if unicode.IsControl(r) {
			return fmt.Errorf("title must not contain control characters")
		}
	}

	if strings.Contains(s, "  ") {
		return fmt.Errorf("title must not contain consecutive spaces")
	}

	return nil
}

// ValidateItemForCreation performs cross-field validation on an Item built
// via models.NewItem before it is persisted. Every failure wraps ErrInvalidItem.
func ValidateItemForCreation(item *models.Item) error {
	if item == nil {
		return fmt.Errorf("%w: item cannot be nil", itemdomain.ErrInvalidItem)
	}

	if err := ValidateTitle(item.Title); err != nil {
		return fmt.Errorf("%w: %w", itemdomain.ErrInvalidItem, err)
	}

	if utf8.RuneCountInString(item.Description) > models.MaxDescriptionLength {
		return fmt.Errorf("%w: description must not exceed %d characters", itemdomain.ErrInvalidItem, models.MaxDescriptionLength)
	}

	if item.OwnerID == uuid.Nil {
		return fmt.Errorf("%w: owner_id must be set", itemdomain.ErrInvalidItem)
	}

	if item.ID == uuid.Nil {
		return fmt.Errorf("%w: id must be set", itemdomain.ErrInvalidItem)
	}

	if item.Status != models.StatusAvailable {
		return fmt.Errorf("%w: new items must be AVAILABLE, got %s", itemdomain.ErrInvalidItem, item.Status)
	}

	return nil
}
