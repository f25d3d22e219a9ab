package service_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/najdeno/internal/api"
	"github.com/erazemk/najdeno/internal/client"
	"github.com/erazemk/najdeno/internal/db"
	"github.com/erazemk/najdeno/internal/feed"
	"github.com/erazemk/najdeno/internal/kv"
	"github.com/erazemk/najdeno/internal/model"
	"github.com/erazemk/najdeno/internal/service"
	"github.com/erazemk/najdeno/internal/session"
	"github.com/erazemk/najdeno/internal/store"
	"github.com/erazemk/najdeno/internal/tokenstore"
)

// startBackend runs the dev backend with a page size of 2 and a staff
// account "admin"/"staffpass".
func startBackend(t *testing.T) *httptest.Server {
	t.Helper()
	database := db.NewTestDB(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("staffpass"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.CreateUser(context.Background(), database, "admin", string(hash), true); err != nil {
		t.Fatalf("creating staff user: %v", err)
	}

	server := httptest.NewServer(api.NewRouter(database, "e2e-secret", api.Options{PageSize: 2}))
	t.Cleanup(server.Close)
	return server
}

func testPhoto(t *testing.T) *client.ImagePayload {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	img.Set(1, 1, color.RGBA{G: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return client.FromBinaryData(buf.Bytes(), "photo.png", "")
}

type stack struct {
	api     *client.Client
	tokens  *tokenstore.Store
	session *session.Manager
	feed    *feed.Controller
	service *service.Service
}

func newStack(t *testing.T, baseURL string, creds model.Credentials) *stack {
	t.Helper()
	c := client.New(baseURL)
	tokens := tokenstore.New(kv.NewSQLite(db.NewTestLocalDB(t)))
	sess := session.New(c, tokens, creds)
	f := feed.NewController(c)
	return &stack{
		api:     c,
		tokens:  tokens,
		session: sess,
		feed:    f,
		service: service.New(c, sess, f),
	}
}

func TestPostAndPaginate(t *testing.T) {
	server := startBackend(t)
	s := newStack(t, server.URL, model.Credentials{Username: "demo", Password: "demo123"})
	ctx := context.Background()

	for _, name := range []string{"Umbrella", "Student ID", "Black wallet"} {
		item, err := s.service.PostItem(ctx, model.NewItem{
			Name:      name,
			Category:  model.CategoryAccessories,
			DateFound: "2025-03-01",
		}, testPhoto(t))
		if err != nil {
			t.Fatalf("posting %s: %v", name, err)
		}
		if item.UserName != "demo" {
			t.Errorf("expected item owned by demo, got %q", item.UserName)
		}
	}

	// PostItem reloads the feed: the first page holds the two newest items.
	items := s.feed.Items()
	if len(items) != 2 || items[0].Name != "Black wallet" || items[1].Name != "Student ID" {
		t.Fatalf("unexpected first page: %+v", items)
	}
	if !s.feed.HasMore() {
		t.Fatal("expected another page")
	}

	if err := s.feed.LoadMore(ctx); err != nil {
		t.Fatalf("LoadMore: %v", err)
	}
	items = s.feed.Items()
	if len(items) != 3 || items[2].Name != "Umbrella" {
		t.Fatalf("unexpected items after load more: %+v", items)
	}
	if s.feed.HasMore() || s.feed.Page() != 2 {
		t.Errorf("expected last page 2, got page %d hasMore %v", s.feed.Page(), s.feed.HasMore())
	}

	// Image paths come back server-relative and are resolved against the API origin.
	if want := server.URL + "/media/items/3.jpg"; items[0].Image != want {
		t.Errorf("expected image %q, got %q", want, items[0].Image)
	}
	resp, err := http.Get(items[0].Image)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "image/jpeg" {
		t.Errorf("unexpected image response: %d %s", resp.StatusCode, resp.Header.Get("Content-Type"))
	}

	// The token was persisted on first use.
	saved, ok := s.tokens.Load(ctx)
	if !ok || saved != s.session.Token() {
		t.Errorf("expected persisted token to match session token")
	}
}

func TestServerValidationMessages(t *testing.T) {
	server := startBackend(t)
	s := newStack(t, server.URL, model.Credentials{Username: "demo", Password: "demo123"})
	ctx := context.Background()

	token, err := s.session.EnsureAuthenticated(ctx)
	if err != nil {
		t.Fatalf("EnsureAuthenticated: %v", err)
	}

	_, err = s.api.CreateItem(ctx, token, model.NewItem{Category: model.CategoryOther, DateFound: "2025-03-01"}, testPhoto(t))
	var reqErr *client.RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("expected RequestError, got %v", err)
	}
	if reqErr.Status != http.StatusBadRequest || reqErr.Error() != "name: This field is required." {
		t.Errorf("unexpected validation error: %d %q", reqErr.Status, reqErr.Error())
	}

	_, err = s.api.CreateItem(ctx, token, model.NewItem{Category: "pets", DateFound: "2025-03-01"}, testPhoto(t))
	want := "name: This field is required.\ncategory: \"pets\" is not a valid choice."
	if !errors.As(err, &reqErr) || reqErr.Error() != want {
		t.Errorf("expected fields in form order %q, got %v", want, err)
	}

	_, err = s.api.CreateItem(ctx, "not-a-token", model.NewItem{Name: "Keys", Category: model.CategoryOther, DateFound: "2025-03-01"}, testPhoto(t))
	if !errors.As(err, &reqErr) || reqErr.Error() != "Invalid token." {
		t.Errorf("expected Invalid token., got %v", err)
	}
}

func TestClaimedRequiresStaff(t *testing.T) {
	server := startBackend(t)
	ctx := context.Background()

	user := newStack(t, server.URL, model.Credentials{Username: "demo", Password: "demo123"})
	item, err := user.service.PostItem(ctx, model.NewItem{
		Name:     "Blue scarf",
		Category: model.CategoryClothing,
	}, testPhoto(t))
	if err != nil {
		t.Fatalf("PostItem: %v", err)
	}

	if _, err := user.service.SetClaimed(ctx, item.ID, true); err == nil ||
		err.Error() != "Admin required to update claimed status." {
		t.Errorf("expected staff error, got %v", err)
	}

	// Registering an existing account fails, so the session falls back to login.
	staff := newStack(t, server.URL, model.Credentials{Username: "admin", Password: "staffpass"})
	updated, err := staff.service.SetClaimed(ctx, item.ID, true)
	if err != nil {
		t.Fatalf("SetClaimed as staff: %v", err)
	}
	if !updated.Claimed {
		t.Error("expected item to be claimed")
	}

	if err := staff.feed.Reset(ctx); err != nil {
		t.Fatal(err)
	}
	claimed := staff.feed.View(feed.Filter{Category: model.FilterClaimed})
	if len(claimed) != 1 || claimed[0].ID != item.ID {
		t.Errorf("expected claimed filter to show the item, got %+v", claimed)
	}
}

func TestWrongPasswordSurfacesLoginError(t *testing.T) {
	server := startBackend(t)
	s := newStack(t, server.URL, model.Credentials{Username: "admin", Password: "wrong"})

	_, err := s.session.EnsureAuthenticated(context.Background())
	var authErr *client.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %v", err)
	}
	if authErr.Error() != "Invalid credentials" {
		t.Errorf("expected login error message, got %q", authErr.Error())
	}
	if s.session.Token() != "" {
		t.Error("expected no token after failed sign-in")
	}
}
