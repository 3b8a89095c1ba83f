package models

import (
	"fmt"
	"strings"

	itemdomain "github.com/secondlife-exchange/exchange/services/item/domain"
)

// Category is the closed set of item categories.
type Category string

const (
	CategoryElectronics Category = "ELECTRONICS"
	CategoryBooks       Category = "BOOKS"
	CategoryClothing    Category = "CLOTHING"
	CategoryFurniture   Category = "FURNITURE"
	CategorySports      Category = "SPORTS"
	CategoryToys        Category = "TOYS"
	CategoryHome        Category = "HOME"
	CategoryGarden      Category = "GARDEN"
	CategoryMusic       Category = "MUSIC"
	CategoryArt         Category = "ART"
	CategoryOther       Category = "OTHER"
)

// Categories lists every Category in declaration order.
var Categories = []Category{
	CategoryElectronics, CategoryBooks, CategoryClothing, CategoryFurniture,
	CategorySports, CategoryToys, CategoryHome, CategoryGarden,
	CategoryMusic, CategoryArt, CategoryOther,
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryElectronics, CategoryBooks, CategoryClothing, CategoryFurniture,
		CategorySports, CategoryToys, CategoryHome, CategoryGarden,
		CategoryMusic, CategoryArt, CategoryOther:
		return true
	}
	return false
}

// ParseCategory accepts the canonical upper-case name, case-insensitively.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToUpper(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", itemdomain.ErrInvalidCategory, s)
	}
	return c, nil
}

// IsCategory reports whether s is the exact name of a category.
func IsCategory(s string) bool { return Category(s).Valid() }

// Condition describes the physical state of an item.
type Condition string

const (
	ConditionNew     Condition = "NEW"
	ConditionLikeNew Condition = "LIKE_NEW"
	ConditionGood    Condition = "GOOD"
	ConditionFair    Condition = "FAIR"
	ConditionPoor    Condition = "POOR"
)

// Conditions lists every Condition from best to worst.
var Conditions = []Condition{ConditionNew, ConditionLikeNew, ConditionGood, ConditionFair, ConditionPoor}

// Valid reports whether c is a known condition.
func (c Condition) Valid() bool {
	switch c {
	case ConditionNew, ConditionLikeNew, ConditionGood, ConditionFair, ConditionPoor:
		return true
	}
	return false
}

// ParseCondition accepts the canonical upper-case name, case-insensitively.
func ParseCondition(s string) (Condition, error) {
	c := Condition(strings.ToUpper(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", itemdomain.ErrInvalidCondition, s)
	}
	return c, nil
}

// IsCondition reports whether s is the exact name of a condition.
func IsCondition(s string) bool { return Condition(s).Valid() }

// Status is the lifecycle state of a listing.
type Status string

const (
	StatusAvailable Status = "AVAILABLE"
	StatusReserved  Status = "RESERVED"
	StatusExchanged Status = "EXCHANGED"
	StatusArchived  Status = "ARCHIVED"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusAvailable, StatusReserved, StatusExchanged, StatusArchived:
		return true
	}
	return false
}

// ParseStatus accepts the canonical upper-case name, case-insensitively.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("%w: %q", itemdomain.ErrInvalidStatus, s)
	}
	return st, nil
}

// IsStatus reports whether s is the exact name of a status.
func IsStatus(s string) bool { return Status(s).Valid() }

// CanTransitionTo reports whether a listing in status s may move to next.
//
//	AVAILABLE -> RESERVED | EXCHANGED | ARCHIVED
//	RESERVED  -> AVAILABLE | EXCHANGED | ARCHIVED
//	EXCHANGED -> ARCHIVED
//	ARCHIVED  -> (terminal)
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusAvailable:
		return next == StatusReserved || next == StatusExchanged || next == StatusArchived
	case StatusReserved:
		return next == StatusAvailable || next == StatusExchanged || next == StatusArchived
	case StatusExchanged:
		return next == StatusArchived
	case StatusArchived:
		return false
	}
	return false
}
