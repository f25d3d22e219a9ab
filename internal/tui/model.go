// Package tui is the interactive feed browser.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/erazemk/najdeno/internal/feed"
	"github.com/erazemk/najdeno/internal/format"
	"github.com/erazemk/najdeno/internal/model"
)

// Feed is the feed state the browser renders.
type Feed interface {
	Reset(ctx context.Context) error
	LoadMore(ctx context.Context) error
	View(f feed.Filter) []model.Item
	HasMore() bool
}

type loadedMsg struct {
	err error
}

// Model is the Bubble Tea model of the feed browser.
type Model struct {
	ctx   context.Context
	feed  Feed
	prefs *feed.Prefs

	category string
	search   textinput.Model
	help     help.Model

	visible   []model.Item
	cursor    int
	detail    bool
	searching bool
	loading   bool
	err       error
	width     int
	height    int

	now func() time.Time
}

// New returns a browser over f. The active category is restored from prefs.
func New(ctx context.Context, f Feed, prefs *feed.Prefs) Model {
	ti := textinput.New()
	ti.Prompt = "/ "
	ti.Placeholder = "Search name or description"
	ti.CharLimit = 120

	return Model{
		ctx:      ctx,
		feed:     f,
		prefs:    prefs,
		category: prefs.RestoreCategory(ctx),
		loading:  true,
		search:   ti,
		help:     help.New(),
		now:      time.Now,
	}
}

// Run starts the browser and blocks until the user quits.
func Run(ctx context.Context, f Feed, prefs *feed.Prefs) error {
	p := tea.NewProgram(New(ctx, f, prefs), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return m.reset()
}

func (m Model) reset() tea.Cmd {
	f, ctx := m.feed, m.ctx
	return func() tea.Msg {
		return loadedMsg{err: f.Reset(ctx)}
	}
}

func (m Model) loadMore() tea.Cmd {
	f, ctx := m.feed, m.ctx
	return func() tea.Msg {
		return loadedMsg{err: f.LoadMore(ctx)}
	}
}

func (m Model) filter() feed.Filter {
	return feed.Filter{Category: m.category, Search: m.search.Value()}
}

// refresh recomputes the visible items and keeps the cursor in range.
func (m *Model) refresh() {
	m.visible = m.feed.View(m.filter())
	if m.cursor >= len(m.visible) {
		m.cursor = max(len(m.visible)-1, 0)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil
	case loadedMsg:
		m.loading = false
		m.err = msg.err
		m.refresh()
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.searching {
			return m.updateSearch(msg)
		}
		if m.detail {
			return m.updateDetail(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searching = false
		m.search.Blur()
		return m, nil
	case "esc":
		m.searching = false
		m.search.Blur()
		m.search.SetValue("")
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.cursor = 0
	m.refresh()
	return m, cmd
}

func (m Model) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Back), key.Matches(msg, keys.Open):
		m.detail = false
	}
	return m, nil
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, keys.Down):
		if m.cursor < len(m.visible)-1 {
			m.cursor++
		}
		// An empty view may hide loaded items, so the next page is still fetched.
		atEnd := len(m.visible) == 0 || m.cursor == len(m.visible)-1
		if atEnd && m.feed.HasMore() && !m.loading {
			m.loading = true
			return m, m.loadMore()
		}
	case key.Matches(msg, keys.Open):
		if len(m.visible) > 0 {
			m.detail = true
		}
	case key.Matches(msg, keys.NextTab):
		m.cycleCategory(1)
	case key.Matches(msg, keys.PrevTab):
		m.cycleCategory(-1)
	case key.Matches(msg, keys.Search):
		m.searching = true
		return m, m.search.Focus()
	case key.Matches(msg, keys.Refresh):
		if !m.loading {
			m.loading = true
			return m, m.reset()
		}
	case key.Matches(msg, keys.Back):
		if m.search.Value() != "" {
			m.search.SetValue("")
			m.refresh()
		}
	}
	return m, nil
}

func (m *Model) cycleCategory(step int) {
	idx := 0
	for i, f := range model.FilterKeys {
		if f.Key == m.category {
			idx = i
			break
		}
	}
	n := len(model.FilterKeys)
	m.category = model.FilterKeys[(idx+step+n)%n].Key
	m.prefs.SaveCategory(m.ctx, m.category)
	m.cursor = 0
	m.refresh()
}

func (m Model) View() string {
	if m.detail && m.cursor < len(m.visible) {
		return m.viewDetail(m.visible[m.cursor])
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Lost & found") + "\n\n")
	b.WriteString(m.viewTabs() + "\n")
	if m.searching || m.search.Value() != "" {
		b.WriteString(m.search.View() + "\n")
	}
	b.WriteString("\n")

	switch {
	case len(m.visible) == 0 && m.loading:
		b.WriteString(mutedStyle.Render("Loading…") + "\n")
	case len(m.visible) == 0:
		b.WriteString(mutedStyle.Render("No items found.") + "\n")
	default:
		start, rows := m.window()
		for i, item := range rows {
			b.WriteString(m.viewRow(item, start+i) + "\n")
		}
	}

	b.WriteString("\n")
	if m.loading && len(m.visible) > 0 {
		b.WriteString(mutedStyle.Render("Loading more…") + "\n")
	}
	if m.err != nil {
		b.WriteString(errorStyle.Render(m.err.Error()) + "\n")
	}
	b.WriteString(m.help.View(keys))
	return b.String()
}

func (m Model) viewTabs() string {
	tabs := make([]string, 0, len(model.FilterKeys))
	for _, f := range model.FilterKeys {
		style := tabStyle
		if f.Key == m.category {
			style = activeTab
		}
		tabs = append(tabs, style.Render(f.Label))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

// window returns the index of the first row that fits the terminal with the
// cursor visible, and the rows from there.
func (m Model) window() (int, []model.Item) {
	rows := len(m.visible)
	if m.height > 0 {
		rows = max(m.height-10, 1)
	}
	start := 0
	if m.cursor >= rows {
		start = m.cursor - rows + 1
	}
	end := min(start+rows, len(m.visible))
	return start, m.visible[start:end]
}

func (m Model) viewRow(item model.Item, i int) string {
	meta := mutedStyle.Render(fmt.Sprintf("%s · %s", model.FilterLabel(item.Category), format.Date(item.DateFound)))
	line := fmt.Sprintf("%s  %s", item.Name, meta)
	if item.Claimed {
		line += " " + claimedStyle.Render("claimed")
	}
	if i == m.cursor {
		return selectedStyle.Render("> ") + line
	}
	return "  " + line
}

func (m Model) viewDetail(item model.Item) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(item.Name))
	if item.Claimed {
		b.WriteString("  " + claimedStyle.Render("claimed"))
	}
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "%s %s\n", accentStyle.Render("Category:"), model.FilterLabel(item.Category))
	fmt.Fprintf(&b, "%s %s\n", accentStyle.Render("Found:   "), format.Date(item.DateFound))
	if item.CreatedAt != nil {
		fmt.Fprintf(&b, "%s %s\n", accentStyle.Render("Posted:  "), format.TimeAgo(*item.CreatedAt, m.now()))
	}
	if item.UserName != "" {
		fmt.Fprintf(&b, "%s %s\n", accentStyle.Render("By:      "), item.UserName)
	}
	if item.Image != "" {
		fmt.Fprintf(&b, "%s %s\n", accentStyle.Render("Image:   "), item.Image)
	}

	b.WriteString("\n")
	if item.Description != "" {
		b.WriteString(item.Description + "\n")
	} else {
		b.WriteString(mutedStyle.Render("No description.") + "\n")
	}
	b.WriteString("\n" + mutedStyle.Render("esc back · q quit"))
	return detailStyle.Render(b.String())
}
