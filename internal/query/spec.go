package query

import (
	"fmt"

	"github.com/hashmind/hashmind/internal/hashtag"
)

// SortOrder selects how filtered posts are ranked.
type SortOrder string

const (
	// SortNewest orders by creation time descending, ties by id descending.
	SortNewest SortOrder = "newest"
	// SortPopular orders by net vote score descending, ties by time then id.
	SortPopular SortOrder = "popular"
	// SortControversial orders by controversy score descending: high total
	// engagement with a near-even vote split ranks highest.
	SortControversial SortOrder = "controversial"
)

// DefaultLimit applies when a spec carries no positive limit.
const DefaultLimit = 20

// ParseSortOrder maps a wire value onto a SortOrder.
func ParseSortOrder(s string) (SortOrder, error) {
	switch SortOrder(s) {
	case SortNewest, SortPopular, SortControversial:
		return SortOrder(s), nil
	case "":
		return SortNewest, nil
	default:
		return "", fmt.Errorf("invalid sort order: %q", s)
	}
}

// Spec is the caller-supplied filter for one query call. The engine holds no
// memory of prior specs; persistence of a user's selection is the caller's
// concern.
type Spec struct {
	// Tags is the hashtag OR-set. Empty means no hashtag restriction.
	Tags []string
	// FriendsOnly restricts results to authors the observer follows.
	FriendsOnly bool
	// ObserverID identifies the requesting account; required when
	// FriendsOnly is set.
	ObserverID int64
	// Sort selects the ranking. Zero value means SortNewest.
	Sort SortOrder
	// Limit caps the result count. Non-positive means DefaultLimit.
	Limit int
}

// normalized returns a copy with tags lowercased and deduplicated
// (first-seen order), the sort defaulted, and the limit clamped. The engine
// never caps below a caller's positive limit.
func (s Spec) normalized() (Spec, error) {
	out := s

	if len(s.Tags) > 0 {
		seen := make(map[string]struct{}, len(s.Tags))
		tags := make([]string, 0, len(s.Tags))
		for _, tag := range s.Tags {
			name := hashtag.Normalize(tag)
			if name == "" {
				continue
			}
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			tags = append(tags, name)
		}
		out.Tags = tags
	}

	if out.Sort == "" {
		out.Sort = SortNewest
	}
	switch out.Sort {
	case SortNewest, SortPopular, SortControversial:
	default:
		return Spec{}, fmt.Errorf("invalid sort order: %q", out.Sort)
	}

	if out.Limit <= 0 {
		out.Limit = DefaultLimit
	}

	if out.FriendsOnly && out.ObserverID == 0 {
		return Spec{}, fmt.Errorf("friends-only filter requires an observer id")
	}

	return out, nil
}
