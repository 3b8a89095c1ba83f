package models

import (
	"fmt"
	"strings"
	"unicode/utf8"

	itemdomain "github.com/secondlife-exchange/exchange/services/item/domain"
)

// ItemTitle is a value object representing a valid listing title.
// Encapsulates the length rule: 1 <= runes <= 120.
type ItemTitle string

const (
	minItemTitleLength = 1
	maxItemTitleLength = 120

	// MaxDescriptionLength bounds the free-text description, in runes.
	MaxDescriptionLength = 2000
)

// NewItemTitle constructs a valid ItemTitle or returns an error if constraints are violated.
func NewItemTitle(s string) (ItemTitle, error) {
	n := utf8.RuneCountInString(s)
	if n < minItemTitleLength {
		return "", fmt.Errorf("%w: title must be at least %d character", itemdomain.ErrInvalidItem, minItemTitleLength)
	}
	if n > maxItemTitleLength {
		return "", fmt.Errorf("%w: title must not exceed %d characters", itemdomain.ErrInvalidItem, maxItemTitleLength)
	}
	return ItemTitle(s), nil
}

// String returns the underlying string value.
func (t ItemTitle) String() string {
	return string(t)
}

// Contains reports whether the title contains q, ignoring case.
func (t ItemTitle) Contains(q string) bool {
	return strings.Contains(strings.ToLower(string(t)), strings.ToLower(q))
}
