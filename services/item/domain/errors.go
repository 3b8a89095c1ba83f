package domain

import "errors"

// Sentinel errors for the item domain. Use errors.Is() to check these.
var (
	// ErrItemNotFound indicates the requested item does not exist.
	ErrItemNotFound = errors.New("item not found")

	// ErrItemAlreadyExists indicates an item with the same ID already exists.
	ErrItemAlreadyExists = errors.New("item already exists")

	// ErrInvalidItem indicates an item field violates domain constraints.
	ErrInvalidItem = errors.New("invalid item")

	// ErrInvalidCategory, ErrInvalidCondition and ErrInvalidStatus are
	// returned when parsing a value outside the closed enumerations.
	ErrInvalidCategory  = errors.New("invalid category")
	ErrInvalidCondition = errors.New("invalid condition")
	ErrInvalidStatus    = errors.New("invalid status")

	// ErrNotItemOwner indicates the caller tried to modify someone else's item.
	ErrNotItemOwner = errors.New("not the owner of this item")

	// ErrInvalidStatusTransition indicates the requested status change is not allowed.
	ErrInvalidStatusTransition = errors.New("invalid status transition")
)
