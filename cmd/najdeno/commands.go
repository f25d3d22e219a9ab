package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"

	"github.com/erazemk/najdeno/internal/client"
	"github.com/erazemk/najdeno/internal/feed"
	"github.com/erazemk/najdeno/internal/format"
	"github.com/erazemk/najdeno/internal/imaging"
	"github.com/erazemk/najdeno/internal/model"
	"github.com/erazemk/najdeno/internal/tui"
)

type itemID struct {
	ID int64 `positional-arg-name:"id" description:"Item id"`
}

type feedCommand struct {
	Category string `long:"category" description:"Filter: all, claimed, electronics, documents, clothing, accessories or other"`
	Search   string `long:"search" description:"Only items whose name or description contains this text"`
	Pages    int    `long:"pages" default:"1" description:"Number of pages to load"`
}

func (c *feedCommand) Execute(args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	category := c.Category
	if category == "" {
		category = a.prefs.RestoreCategory(rootCtx)
	} else if !model.ValidFilter(category) {
		return fmt.Errorf("unknown category %q", category)
	} else {
		a.prefs.SaveCategory(rootCtx, category)
	}

	if err := a.feed.Reset(rootCtx); err != nil {
		return err
	}
	for i := 1; i < c.Pages && a.feed.HasMore(); i++ {
		if err := a.feed.LoadMore(rootCtx); err != nil {
			return err
		}
	}

	items := a.feed.View(feed.Filter{Category: category, Search: c.Search})
	if len(items) == 0 {
		fmt.Fprintln(out, "No items found.")
		return nil
	}
	fmt.Fprintln(out, itemTable(items))
	if a.feed.HasMore() {
		fmt.Fprintf(out, "Showing %d items from %d page(s); use --pages to load more.\n", len(items), a.feed.Page())
	}
	return nil
}

func itemTable(items []model.Item) string {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		status := "lost"
		if item.Claimed {
			status = "claimed"
		}
		rows = append(rows, []string{
			strconv.FormatInt(item.ID, 10),
			item.Name,
			model.FilterLabel(item.Category),
			format.Date(item.DateFound),
			status,
		})
	}
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "NAME", "CATEGORY", "FOUND", "STATUS").
		Rows(rows...).
		String()
}

type showCommand struct {
	Args itemID `positional-args:"yes" required:"yes"`
}

func (c *showCommand) Execute(args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	item, err := a.api.GetItem(rootCtx, c.Args.ID)
	if err != nil {
		return err
	}
	printItem(item)
	return nil
}

func printItem(item *model.Item) {
	status := "Not claimed"
	if item.Claimed {
		status = "Claimed"
	}
	fmt.Fprintf(out, "#%d %s\n", item.ID, item.Name)
	fmt.Fprintf(out, "  Category:   %s\n", model.FilterLabel(item.Category))
	fmt.Fprintf(out, "  Date found: %s\n", format.Date(item.DateFound))
	fmt.Fprintf(out, "  Status:     %s\n", status)
	if item.UserName != "" {
		fmt.Fprintf(out, "  Posted by:  %s\n", item.UserName)
	}
	if item.CreatedAt != nil {
		fmt.Fprintf(out, "  Posted:     %s\n", format.TimeAgo(*item.CreatedAt, time.Now()))
	}
	if item.Image != "" {
		fmt.Fprintf(out, "  Image:      %s\n", item.Image)
	}
	if item.Description != "" {
		fmt.Fprintf(out, "\n%s\n", item.Description)
	}
}

type postCommand struct {
	Name        string `long:"name" required:"yes" description:"What was found"`
	Category    string `long:"category" required:"yes" description:"electronics, documents, clothing, accessories or other"`
	Description string `long:"description" description:"Where and how it was found"`
	Date        string `long:"date" description:"Date found as YYYY-MM-DD (default: today)"`
	Image       string `long:"image" description:"Photo of the item (JPEG or PNG)"`
	Raw         bool   `long:"raw" description:"Upload the photo as is instead of downscaling it"`
}

func (c *postCommand) Execute(args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	image, err := c.payload()
	if err != nil {
		return err
	}

	item, err := a.service.PostItem(rootCtx, model.NewItem{
		Name:        c.Name,
		Category:    c.Category,
		Description: c.Description,
		DateFound:   c.Date,
	}, image)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Posted item #%d.\n", item.ID)
	printItem(item)
	return nil
}

// payload prepares the photo for upload. A missing --image yields nil so the
// service reports it.
func (c *postCommand) payload() (*client.ImagePayload, error) {
	if c.Image == "" {
		return nil, nil
	}
	if c.Raw {
		return client.FromLocalPath(c.Image, filepath.Base(c.Image), ""), nil
	}

	res, err := imaging.ProcessFile(c.Image)
	if err != nil {
		if errors.Is(err, imaging.ErrUnsupportedFormat) {
			return nil, fmt.Errorf("%s: only JPEG and PNG photos can be posted", c.Image)
		}
		return nil, err
	}
	name := strings.TrimSuffix(filepath.Base(c.Image), filepath.Ext(c.Image)) + ".jpg"
	fmt.Fprintf(out, "Prepared %s: %dx%d, %s (from %s)\n",
		name, res.Width, res.Height, humanize.Bytes(uint64(len(res.Data))), humanize.Bytes(uint64(res.InputSize)))
	return client.FromBinaryData(res.Data, name, res.MIME), nil
}

type claimCommand struct {
	Unclaim bool   `long:"unclaim" description:"Clear the claimed flag instead of setting it"`
	Args    itemID `positional-args:"yes" required:"yes"`
}

func (c *claimCommand) Execute(args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	item, err := a.service.SetClaimed(rootCtx, c.Args.ID, !c.Unclaim)
	if err != nil {
		return err
	}
	if item.Claimed {
		fmt.Fprintf(out, "Item #%d marked as claimed.\n", item.ID)
	} else {
		fmt.Fprintf(out, "Item #%d marked as not claimed.\n", item.ID)
	}
	return nil
}

type pingCommand struct{}

func (c *pingCommand) Execute(args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	res := a.service.Ping(rootCtx)
	if !res.OK {
		if res.Error != "" {
			return fmt.Errorf("%s is not reachable: %s", a.cfg.APIURL, res.Error)
		}
		return fmt.Errorf("%s answered with status %d", a.cfg.APIURL, res.Status)
	}
	fmt.Fprintf(out, "%s is up (status %d).\n", a.cfg.APIURL, res.Status)
	return nil
}

type logoutCommand struct{}

func (c *logoutCommand) Execute(args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	a.session.Logout(rootCtx)
	fmt.Fprintln(out, "Signed out.")
	return nil
}

type browseCommand struct{}

func (c *browseCommand) Execute(args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	return tui.Run(rootCtx, a.feed, a.prefs)
}
