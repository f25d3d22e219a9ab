package feed

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/erazemk/najdeno/internal/model"
)

// Filter selects items from the feed.
type Filter struct {
	Category string
	Search   string
}

// Apply returns the items that pass f, in their original order. items is not
// modified.
//
// Category "all" (or empty) passes everything, "claimed" passes claimed
// items, and any other value must equal the item's category. Blank search
// text passes everything; otherwise the text, as typed, must occur in the
// name or the description, ignoring case.
func Apply(items []model.Item, f Filter) []model.Item {
	active := strings.TrimSpace(f.Search) != ""
	// Casers carry state and are not safe for concurrent use.
	fold := cases.Fold()
	needle := fold.String(f.Search)

	out := make([]model.Item, 0, len(items))
	for _, item := range items {
		if !matchCategory(item, f.Category) {
			continue
		}
		if active &&
			!strings.Contains(fold.String(item.Name), needle) &&
			!strings.Contains(fold.String(item.Description), needle) {
			continue
		}
		out = append(out, item)
	}
	return out
}

func matchCategory(item model.Item, category string) bool {
	switch category {
	case "", model.FilterAll:
		return true
	case model.FilterClaimed:
		return item.Claimed
	default:
		return item.Category == category
	}
}
