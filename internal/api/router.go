package api

import (
	"database/sql"
	"net/http"
	"strings"
)

// DefaultPageSize is the number of items per list page.
const DefaultPageSize = 10

// DefaultMediaBase is the path prefix image URLs are served under.
const DefaultMediaBase = "/media"

// Options tune the API router.
type Options struct {
	// PageSize is the number of items per page. Zero means DefaultPageSize.
	PageSize int
	// MediaBase prefixes item image URLs. It may be a path or an absolute
	// URL. Empty means DefaultMediaBase.
	MediaBase string
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, jwtSecret string, opts Options) http.Handler {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.MediaBase == "" {
		opts.MediaBase = DefaultMediaBase
	}
	opts.MediaBase = strings.TrimRight(opts.MediaBase, "/")

	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	itemsHandler := &ItemsHandler{DB: db, PageSize: opts.PageSize, MediaBase: opts.MediaBase}

	tokenAuth := TokenAuth(jwtSecret)

	// Public: account endpoints.
	mux.HandleFunc("POST /api/items/register/{$}", authHandler.Register)
	mux.HandleFunc("POST /api/items/login/{$}", authHandler.Login)

	// Items: read (anyone), write (token).
	mux.HandleFunc("GET /api/items/{$}", itemsHandler.List)
	mux.Handle("POST /api/items/{$}", tokenAuth(http.HandlerFunc(itemsHandler.Create)))
	mux.HandleFunc("GET /api/items/{id}/{$}", itemsHandler.Get)
	mux.Handle("PATCH /api/items/{id}/{$}", tokenAuth(http.HandlerFunc(itemsHandler.UpdateClaimed)))

	// Item photos.
	mux.HandleFunc("GET /media/items/{file}", itemsHandler.GetImage)

	return mux
}
