// Package feed holds the paginated item collection shown in the feed.
package feed

import (
	"context"
	"log/slog"
	"sync"

	"github.com/erazemk/najdeno/internal/model"
)

// Lister fetches one page of items.
type Lister interface {
	ListItems(ctx context.Context, page int) (*model.Page, error)
}

// Controller accumulates pages of items, de-duplicated by id in first-seen
// order. At most one fetch runs at a time; a Reset or LoadMore issued while
// another is in flight does nothing.
//
// The mutex guards the fields only. Fetches run without holding it.
type Controller struct {
	lister Lister

	mu      sync.Mutex
	items   []model.Item
	seen    map[int64]struct{}
	page    int
	hasMore bool
	loading bool
}

// NewController returns an empty controller. Call Reset to load the first page.
func NewController(lister Lister) *Controller {
	return &Controller{
		lister: lister,
		seen:   make(map[int64]struct{}),
		page:   1,
	}
}

// Reset fetches the first page and replaces the collection with it.
func (c *Controller) Reset(ctx context.Context) error {
	if !c.begin(false) {
		return nil
	}
	defer c.end()

	p, err := c.lister.ListItems(ctx, 1)
	if err != nil {
		slog.Warn("loading feed", "page", 1, "error", err)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
	c.seen = make(map[int64]struct{})
	c.merge(p)
	c.page = 1
	c.hasMore = p.HasNext()
	return nil
}

// LoadMore fetches the page after the current one and appends the items not
// already present. It does nothing when the server announced no further page.
func (c *Controller) LoadMore(ctx context.Context) error {
	if !c.begin(true) {
		return nil
	}
	defer c.end()

	c.mu.Lock()
	next := c.page + 1
	c.mu.Unlock()

	p, err := c.lister.ListItems(ctx, next)
	if err != nil {
		slog.Warn("loading feed", "page", next, "error", err)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.merge(p)
	c.page = next
	c.hasMore = p.HasNext()
	return nil
}

// begin claims the loading flag. It reports false if a fetch is already in
// flight, or if needMore is set and there is nothing more to fetch.
func (c *Controller) begin(needMore bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loading || (needMore && !c.hasMore) {
		return false
	}
	c.loading = true
	return true
}

func (c *Controller) end() {
	c.mu.Lock()
	c.loading = false
	c.mu.Unlock()
}

// merge appends unseen items of p. c.mu must be held.
func (c *Controller) merge(p *model.Page) {
	if p == nil {
		return
	}
	for _, item := range p.Results {
		if _, dup := c.seen[item.ID]; dup {
			continue
		}
		c.seen[item.ID] = struct{}{}
		c.items = append(c.items, item)
	}
}

// Items returns a copy of the loaded collection.
func (c *Controller) Items() []model.Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.Item, len(c.items))
	copy(out, c.items)
	return out
}

// Page returns the number of the last page loaded.
func (c *Controller) Page() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.page
}

// HasMore reports whether the server announced another page.
func (c *Controller) HasMore() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hasMore
}

// Loading reports whether a fetch is in flight.
func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// View returns the loaded items that pass f.
func (c *Controller) View(f Filter) []model.Item {
	return Apply(c.Items(), f)
}
