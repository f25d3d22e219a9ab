package model

// Item categories.
const (
	CategoryElectronics = "electronics"
	CategoryDocuments   = "documents"
	CategoryClothing    = "clothing"
	CategoryAccessories = "accessories"
	CategoryOther       = "other"
)

// Feed filter keys that are not item categories.
const (
	FilterAll     = "all"
	FilterClaimed = "claimed"
)

// Categories lists the item categories in display order.
var Categories = []string{
	CategoryElectronics,
	CategoryDocuments,
	CategoryClothing,
	CategoryAccessories,
	CategoryOther,
}

// FilterKey is a selectable feed filter with its display label.
type FilterKey struct {
	Key   string
	Label string
}

// FilterKeys lists every feed filter in the order the feed shows them.
var FilterKeys = []FilterKey{
	{FilterAll, "All"},
	{FilterClaimed, "Found"},
	{CategoryElectronics, "Electronics"},
	{CategoryDocuments, "Documents"},
	{CategoryClothing, "Clothing"},
	{CategoryAccessories, "Accessories"},
	{CategoryOther, "Other"},
}

// ValidCategory reports whether c is an item category.
func ValidCategory(c string) bool {
	for _, cat := range Categories {
		if cat == c {
			return true
		}
	}
	return false
}

// ValidFilter reports whether key is a feed filter key.
func ValidFilter(key string) bool {
	for _, f := range FilterKeys {
		if f.Key == key {
			return true
		}
	}
	return false
}

// FilterLabel returns the display label for a filter key, or the key itself.
func FilterLabel(key string) string {
	for _, f := range FilterKeys {
		if f.Key == key {
			return f.Label
		}
	}
	return key
}
