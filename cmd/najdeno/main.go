// Command najdeno browses and posts to a lost & found feed.
package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"

	"github.com/erazemk/najdeno/internal/config"
)

var version = "dev"

var (
	opts    config.Options
	rootCtx = context.Background()
	out     io.Writer = os.Stdout
)

func newParser() (*flags.Parser, error) {
	p := config.NewParser(&opts)
	p.CommandHandler = runCommand
	commands := []struct {
		name, short, long string
		data              any
	}{
		{"feed", "List items", "Load the feed and print the items that pass the category and search filters.", &feedCommand{}},
		{"show", "Show one item", "Print the details of the item with the given id.", &showCommand{}},
		{"post", "Post a found item", "Sign in if needed and post a new item with a photo.", &postCommand{}},
		{"claim", "Mark an item as claimed", "Set or clear the claimed flag of an item. Requires a staff account.", &claimCommand{}},
		{"ping", "Check the API", "Send a request to the API and report whether it answered.", &pingCommand{}},
		{"logout", "Forget the saved token", "Clear the session token kept in local state.", &logoutCommand{}},
		{"browse", "Browse the feed interactively", "Open the terminal feed browser.", &browseCommand{}},
	}
	for _, c := range commands {
		if _, err := p.AddCommand(c.name, c.short, c.long, c.data); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	rootCtx = ctx

	p, err := newParser()
	if err != nil {
		panic(err)
	}

	if _, err := p.Parse(); err != nil {
		// go-flags has already printed the error.
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			return
		}
		stop()
		os.Exit(1)
	}
}
