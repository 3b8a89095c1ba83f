package models

import (
	"fmt"
	"strings"
	"unicode/utf8"

	itemdomain "github.com/secondlife-exchange/exchange/services/item/domain"
)

const (
	// MaxTags is the maximum number of tags on a listing.
	MaxTags = 10

	maxTagLength = 30
)

// NormalizeTags lower-cases and trims each tag, drops duplicates keeping the
// first occurrence, and enforces the per-tag length and MaxTags limits.
func NormalizeTags(tags []string) ([]string, error) {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, raw := range tags {
		tag := strings.ToLower(strings.TrimSpace(raw))
		n := utf8.RuneCountInString(tag)
		if n == 0 || n > maxTagLength {
			return nil, fmt.Errorf("%w: tag %q must be 1-%d characters", itemdomain.ErrInvalidItem, raw, maxTagLength)
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	if len(out) > MaxTags {
		return nil, fmt.Errorf("%w: at most %d tags allowed", itemdomain.ErrInvalidItem, MaxTags)
	}
	return out, nil
}

// MergeTags appends suggested tags to existing ones, skipping duplicates and
// invalid suggestions, until MaxTags is reached. existing is never reordered.
func MergeTags(existing, suggested []string) []string {
	out := make([]string, 0, MaxTags)
	seen := make(map[string]struct{}, MaxTags)
	add := func(raw string) {
		tag := strings.ToLower(strings.TrimSpace(raw))
		if n := utf8.RuneCountInString(tag); n == 0 || n > maxTagLength {
			return
		}
		if _, dup := seen[tag]; dup || len(out) >= MaxTags {
			return
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	for _, t := range existing {
		add(t)
	}
	for _, t := range suggested {
		add(t)
	}
	return out
}
