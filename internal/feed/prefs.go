package feed

import (
	"context"
	"errors"
	"log/slog"

	"github.com/erazemk/najdeno/internal/kv"
	"github.com/erazemk/najdeno/internal/model"
)

// CategoryKey is the storage key of the active feed category.
const CategoryKey = "activeCategory"

// Prefs persists the feed's active category. Failures are logged and ignored.
type Prefs struct {
	KV kv.KV
}

// SaveCategory stores category if it is a known filter key.
func (p *Prefs) SaveCategory(ctx context.Context, category string) {
	if p == nil || p.KV == nil || !model.ValidFilter(category) {
		return
	}
	if err := p.KV.Set(ctx, CategoryKey, category); err != nil {
		slog.Debug("saving category", "error", err)
	}
}

// RestoreCategory returns the stored category, or "all".
func (p *Prefs) RestoreCategory(ctx context.Context) string {
	if p == nil || p.KV == nil {
		return model.FilterAll
	}
	category, err := p.KV.Get(ctx, CategoryKey)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			slog.Debug("restoring category", "error", err)
		}
		return model.FilterAll
	}
	if !model.ValidFilter(category) {
		return model.FilterAll
	}
	return category
}
