package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/erazemk/najdeno/internal/model"
)

// fakeLister serves canned pages and counts fetches per page.
type fakeLister struct {
	mu    sync.Mutex
	pages map[int]*model.Page
	errs  map[int]error
	calls map[int]int

	// When set, fetches of blockPage signal entered and wait for release.
	blockPage int
	entered   chan struct{}
	release   chan struct{}
}

func newFakeLister() *fakeLister {
	return &fakeLister{
		pages: make(map[int]*model.Page),
		errs:  make(map[int]error),
		calls: make(map[int]int),
	}
}

func (f *fakeLister) ListItems(ctx context.Context, page int) (*model.Page, error) {
	f.mu.Lock()
	f.calls[page]++
	p, err := f.pages[page], f.errs[page]
	block := f.blockPage == page && f.entered != nil
	f.mu.Unlock()

	if block {
		close(f.entered)
		<-f.release
	}
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("no page %d", page)
	}
	return p, nil
}

func (f *fakeLister) callCount(page int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[page]
}

func items(ids ...int64) []model.Item {
	out := make([]model.Item, len(ids))
	for i, id := range ids {
		out[i] = model.Item{ID: id, Name: fmt.Sprintf("item %d", id)}
	}
	return out
}

func page(next bool, ids ...int64) *model.Page {
	p := &model.Page{Results: items(ids...), Count: len(ids)}
	if next {
		u := "http://testserver/api/items/?page=next"
		p.Next = &u
	}
	return p
}

func ids(items []model.Item) []int64 {
	out := make([]int64, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestResetLoadsFirstPage(t *testing.T) {
	l := newFakeLister()
	l.pages[1] = page(true, 1, 2, 3)
	c := NewController(l)

	if err := c.Reset(context.Background()); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if got := ids(c.Items()); !equalIDs(got, []int64{1, 2, 3}) {
		t.Errorf("unexpected items %v", got)
	}
	if c.Page() != 1 || !c.HasMore() || c.Loading() {
		t.Errorf("unexpected state page=%d hasMore=%v loading=%v", c.Page(), c.HasMore(), c.Loading())
	}
}

func TestLoadMoreDeduplicatesInArrivalOrder(t *testing.T) {
	l := newFakeLister()
	l.pages[1] = page(true, 5, 4, 3)
	// New items shift older ones onto the next page.
	l.pages[2] = page(true, 3, 2, 1)
	l.pages[3] = page(false, 1, 0, 5, -1)
	c := NewController(l)
	ctx := context.Background()

	if err := c.Reset(ctx); err != nil {
		t.Fatal(err)
	}
	for c.HasMore() {
		if err := c.LoadMore(ctx); err != nil {
			t.Fatalf("LoadMore: %v", err)
		}
	}

	want := []int64{5, 4, 3, 2, 1, 0, -1}
	if got := ids(c.Items()); !equalIDs(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if c.Page() != 3 {
		t.Errorf("expected page 3, got %d", c.Page())
	}
}

func TestLoadMoreNoopWithoutMore(t *testing.T) {
	l := newFakeLister()
	l.pages[1] = page(false, 1)
	c := NewController(l)

	// Nothing loaded yet.
	if err := c.LoadMore(context.Background()); err != nil {
		t.Fatal(err)
	}
	if l.callCount(2) != 0 {
		t.Error("LoadMore before Reset should not fetch")
	}

	c.Reset(context.Background())
	if err := c.LoadMore(context.Background()); err != nil {
		t.Fatal(err)
	}
	if l.callCount(2) != 0 {
		t.Error("LoadMore without next should not fetch")
	}
}

func TestResetReplacesCollection(t *testing.T) {
	l := newFakeLister()
	l.pages[1] = page(true, 1, 2)
	l.pages[2] = page(false, 3)
	c := NewController(l)
	ctx := context.Background()

	c.Reset(ctx)
	c.LoadMore(ctx)

	l.mu.Lock()
	l.pages[1] = page(false, 9, 2, 9)
	l.mu.Unlock()

	if err := c.Reset(ctx); err != nil {
		t.Fatal(err)
	}
	if got := ids(c.Items()); !equalIDs(got, []int64{9, 2}) {
		t.Errorf("expected fresh page only, got %v", got)
	}
	if c.Page() != 1 || c.HasMore() {
		t.Errorf("unexpected state page=%d hasMore=%v", c.Page(), c.HasMore())
	}

	// No leftovers from before the reset in any view.
	for _, it := range c.View(Filter{Category: model.FilterAll}) {
		if it.ID == 1 || it.ID == 3 {
			t.Errorf("stale item %d after reset", it.ID)
		}
	}
}

func TestFailureLeavesStateIntact(t *testing.T) {
	l := newFakeLister()
	l.pages[1] = page(true, 1, 2)
	loadErr := errors.New("Failed to load items (500)")
	l.errs[2] = loadErr
	c := NewController(l)
	ctx := context.Background()

	c.Reset(ctx)
	if err := c.LoadMore(ctx); !errors.Is(err, loadErr) {
		t.Fatalf("expected load error, got %v", err)
	}
	if got := ids(c.Items()); !equalIDs(got, []int64{1, 2}) {
		t.Errorf("items changed after failure: %v", got)
	}
	if c.Page() != 1 || !c.HasMore() || c.Loading() {
		t.Errorf("state changed after failure: page=%d hasMore=%v loading=%v", c.Page(), c.HasMore(), c.Loading())
	}

	l.errs[1] = loadErr
	if err := c.Reset(ctx); !errors.Is(err, loadErr) {
		t.Fatalf("expected reset error, got %v", err)
	}
	if got := ids(c.Items()); !equalIDs(got, []int64{1, 2}) {
		t.Errorf("items changed after failed reset: %v", got)
	}
	if c.Loading() {
		t.Error("loading flag not cleared after failed reset")
	}

	// The failed page is retried on the next call.
	delete(l.errs, 2)
	l.pages[2] = page(false, 3)
	if err := c.LoadMore(ctx); err != nil {
		t.Fatal(err)
	}
	if c.Page() != 2 || l.callCount(2) != 2 {
		t.Errorf("expected retry of page 2, page=%d calls=%d", c.Page(), l.callCount(2))
	}
}

func TestConcurrentLoadMoreFetchesOnce(t *testing.T) {
	l := newFakeLister()
	l.pages[1] = page(true, 1)
	l.pages[2] = page(false, 2)
	c := NewController(l)
	ctx := context.Background()
	c.Reset(ctx)

	l.mu.Lock()
	l.blockPage = 2
	l.entered = make(chan struct{})
	l.release = make(chan struct{})
	l.mu.Unlock()

	done := make(chan error)
	go func() { done <- c.LoadMore(ctx) }()
	<-l.entered

	if !c.Loading() {
		t.Error("expected loading while fetch is pending")
	}
	if err := c.LoadMore(ctx); err != nil {
		t.Errorf("second LoadMore: %v", err)
	}
	if err := c.Reset(ctx); err != nil {
		t.Errorf("Reset during load: %v", err)
	}

	close(l.release)
	if err := <-done; err != nil {
		t.Fatalf("first LoadMore: %v", err)
	}

	if n := l.callCount(2); n != 1 {
		t.Errorf("expected one page 2 fetch, got %d", n)
	}
	if n := l.callCount(1); n != 1 {
		t.Errorf("reset during load should not fetch, page 1 fetched %d times", n)
	}
	if got := ids(c.Items()); !equalIDs(got, []int64{1, 2}) {
		t.Errorf("unexpected items %v", got)
	}
}

func TestItemsReturnsCopy(t *testing.T) {
	l := newFakeLister()
	l.pages[1] = page(false, 1)
	c := NewController(l)
	c.Reset(context.Background())

	got := c.Items()
	got[0].Name = "changed"
	if c.Items()[0].Name == "changed" {
		t.Error("Items should return a copy")
	}
}
