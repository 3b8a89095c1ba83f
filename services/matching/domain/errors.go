package domain

import "errors"

// Sentinel errors for the matching domain. Use errors.Is() to check these.
var (
	// ErrPreferencesNotFound indicates the user has never saved preferences.
	// The application layer turns it into the default empty preferences.
	ErrPreferencesNotFound = errors.New("preferences not found")

	// ErrInvalidPreferences indicates a preferences field violates domain constraints.
	ErrInvalidPreferences = errors.New("invalid preferences")

	// ErrConflictingPreferences indicates a category is both preferred and disliked.
	ErrConflictingPreferences = errors.New("category cannot be both preferred and disliked")
)
