package main

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/erazemk/najdeno/internal/api"
	"github.com/erazemk/najdeno/internal/config"
	"github.com/erazemk/najdeno/internal/db"
)

func startBackend(t *testing.T) string {
	t.Helper()
	server := httptest.NewServer(api.NewRouter(db.NewTestDB(t), "test-secret", api.Options{PageSize: 2}))
	t.Cleanup(server.Close)
	return server.URL
}

// run parses and executes args as the command line, returning the output.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	var buf bytes.Buffer
	out = &buf
	opts = config.Options{}
	t.Cleanup(func() { out = os.Stdout })

	p, err := newParser()
	if err != nil {
		t.Fatalf("newParser: %v", err)
	}
	_, err = p.ParseArgs(args)
	return buf.String(), err
}

func writePNG(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	path := filepath.Join(t.TempDir(), "wallet.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestPostThenFeed(t *testing.T) {
	url := startBackend(t)
	state := filepath.Join(t.TempDir(), "state.sqlite3")
	photo := writePNG(t, 2000, 1000)

	output, err := run(t, "--api-url", url, "--state", state,
		"post", "--name", "Black wallet", "--category", "accessories",
		"--description", "Near the library", "--date", "2025-03-01", "--image", photo)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if !strings.Contains(output, "1280x640") {
		t.Errorf("expected downscaled dimensions in output:\n%s", output)
	}
	if !strings.Contains(output, "Posted item #1.") || !strings.Contains(output, "Mar 1, 2025") {
		t.Errorf("unexpected post output:\n%s", output)
	}
	if !strings.Contains(output, url+"/media/items/1.jpg") {
		t.Errorf("expected absolute image URL in output:\n%s", output)
	}

	output, err = run(t, "--api-url", url, "--state", state, "feed", "--search", "LIBRARY")
	if err != nil {
		t.Fatalf("feed: %v", err)
	}
	if !strings.Contains(output, "Black wallet") || !strings.Contains(output, "Accessories") {
		t.Errorf("unexpected feed output:\n%s", output)
	}

	output, err = run(t, "--api-url", url, "--state", state, "show", "1")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if !strings.Contains(output, "Near the library") || !strings.Contains(output, "Posted by:  demo") {
		t.Errorf("unexpected show output:\n%s", output)
	}
}

func TestPostWithoutImage(t *testing.T) {
	url := startBackend(t)

	_, err := run(t, "--api-url", url, "--ephemeral",
		"post", "--name", "Umbrella", "--category", "other")
	if err == nil || err.Error() != "Please select an image before posting." {
		t.Errorf("expected image required error, got %v", err)
	}
}

func TestClaimRequiresStaff(t *testing.T) {
	url := startBackend(t)
	photo := writePNG(t, 10, 10)

	if _, err := run(t, "--api-url", url, "--ephemeral",
		"post", "--name", "Scarf", "--category", "clothing", "--image", photo, "--raw"); err != nil {
		t.Fatalf("post: %v", err)
	}

	_, err := run(t, "--api-url", url, "--ephemeral", "claim", "1")
	if err == nil || err.Error() != "Admin required to update claimed status." {
		t.Errorf("expected staff error, got %v", err)
	}
}

func TestFeedUnknownCategory(t *testing.T) {
	url := startBackend(t)

	_, err := run(t, "--api-url", url, "--ephemeral", "feed", "--category", "pets")
	if err == nil || !strings.Contains(err.Error(), "unknown category") {
		t.Errorf("expected unknown category error, got %v", err)
	}
}

func TestFeedEmpty(t *testing.T) {
	url := startBackend(t)

	output, err := run(t, "--api-url", url, "--ephemeral", "feed")
	if err != nil {
		t.Fatalf("feed: %v", err)
	}
	if !strings.Contains(output, "No items found.") {
		t.Errorf("unexpected output:\n%s", output)
	}
}

func TestPing(t *testing.T) {
	url := startBackend(t)

	output, err := run(t, "--api-url", url, "--ephemeral", "ping")
	if err != nil {
		t.Fatalf("ping: %v", err)
	}
	if !strings.Contains(output, "status 200") {
		t.Errorf("unexpected output: %q", output)
	}

	server := httptest.NewServer(nil)
	deadURL := server.URL
	server.Close()
	if _, err := run(t, "--api-url", deadURL, "--ephemeral", "ping"); err == nil ||
		!strings.Contains(err.Error(), "Network request failed") {
		t.Errorf("expected network error, got %v", err)
	}
}
