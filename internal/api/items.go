package api

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"

	"github.com/erazemk/najdeno/internal/imaging"
	"github.com/erazemk/najdeno/internal/model"
	"github.com/erazemk/najdeno/internal/store"
)

// maxUploadSize limits the size of an item creation request.
const maxUploadSize = 10 << 20

// maxNameLength is the longest accepted item name.
const maxNameLength = 120

// ItemsHandler handles the item endpoints.
type ItemsHandler struct {
	DB        *sql.DB
	PageSize  int
	MediaBase string
}

// List handles GET /api/items/?page=N.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			jsonDetail(w, http.StatusNotFound, "Invalid page.")
			return
		}
		page = n
	}

	offset := (page - 1) * h.PageSize
	items, total, err := store.ListItems(r.Context(), h.DB, h.PageSize, offset)
	if err != nil {
		slog.Error("listing items", "error", err)
		jsonDetail(w, http.StatusInternalServerError, "Internal server error.")
		return
	}
	if page > 1 && offset >= total {
		jsonDetail(w, http.StatusNotFound, "Invalid page.")
		return
	}

	if items == nil {
		items = []model.Item{}
	}
	for i := range items {
		h.present(&items[i])
	}

	resp := model.Page{Count: total, Results: items}
	if offset+len(items) < total {
		next := pageURL(r, page+1)
		resp.Next = &next
	}
	if page > 1 {
		prev := pageURL(r, page-1)
		resp.Previous = &prev
	}
	jsonResponse(w, http.StatusOK, resp)
}

// pageURL returns the absolute URL of the given list page. The first page
// carries no page parameter.
func pageURL(r *http.Request, page int) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if fwd := r.Header.Get("X-Forwarded-Proto"); fwd != "" {
		scheme = fwd
	}

	q := r.URL.Query()
	if page == 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(page))
	}
	u := url.URL{Scheme: scheme, Host: r.Host, Path: r.URL.Path, RawQuery: q.Encode()}
	return u.String()
}

// present fills the response-only fields of an item.
func (h *ItemsHandler) present(item *model.Item) {
	if item.HasImage {
		item.Image = fmt.Sprintf("%s/items/%d.jpg", h.MediaBase, item.ID)
	}
}

// Get handles GET /api/items/{id}/.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, ok := h.loadItem(w, r)
	if !ok {
		return
	}
	h.present(item)
	jsonResponse(w, http.StatusOK, item)
}

// loadItem resolves the {id} path value. It writes the error response and
// reports false when there is no such item.
func (h *ItemsHandler) loadItem(w http.ResponseWriter, r *http.Request) (*model.Item, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonDetail(w, http.StatusNotFound, "Not found.")
		return nil, false
	}

	item, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("getting item", "id", id, "error", err)
		jsonDetail(w, http.StatusInternalServerError, "Internal server error.")
		return nil, false
	}
	if item == nil {
		jsonDetail(w, http.StatusNotFound, "Not found.")
		return nil, false
	}
	return item, true
}

// Create handles POST /api/items/.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		unauthorized(w, "Authentication credentials were not provided.")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonDetail(w, http.StatusRequestEntityTooLarge, "Request body too large.")
			return
		}
		jsonDetail(w, http.StatusBadRequest, "Multipart form parse error.")
		return
	}

	fields := model.NewItem{
		Name:        strings.TrimSpace(r.FormValue("name")),
		Category:    r.FormValue("category"),
		Description: r.FormValue("description"),
		DateFound:   r.FormValue("date_found"),
	}

	var errs fieldErrors
	switch {
	case fields.Name == "":
		errs.add("name", "This field is required.")
	case utf8.RuneCountInString(fields.Name) > maxNameLength:
		errs.add("name", fmt.Sprintf("Ensure this field has no more than %d characters.", maxNameLength))
	}
	switch {
	case fields.Category == "":
		errs.add("category", "This field is required.")
	case !model.ValidCategory(fields.Category):
		errs.add("category", fmt.Sprintf(`"%s" is not a valid choice.`, fields.Category))
	}
	if fields.DateFound == "" {
		errs.add("date_found", "This field is required.")
	} else if _, err := time.Parse(model.DateLayout, fields.DateFound); err != nil {
		errs.add("date_found", "Date has wrong format. Use one of these formats instead: YYYY-MM-DD.")
	}

	var processed *imaging.ProcessResult
	file, _, err := r.FormFile("image")
	if err != nil {
		errs.add("image", "Image is required for a new lost item.")
	} else {
		defer file.Close()
		processed, err = imaging.Process(file)
		if err != nil {
			slog.Debug("rejected upload", "error", err)
			errs.add("image", "Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
		}
	}

	if !errs.empty() {
		slog.Warn("item rejected", "user", claims.Username, "fields", errs.fields())
		jsonResponse(w, http.StatusBadRequest, errs)
		return
	}

	item, err := store.CreateItem(r.Context(), h.DB, claims.UserID, fields, processed.Data, processed.MIME)
	if err != nil {
		slog.Error("creating item", "error", err)
		jsonDetail(w, http.StatusInternalServerError, "Internal server error.")
		return
	}

	slog.Info("item created", "id", item.ID, "user", claims.Username,
		"image", humanize.Bytes(uint64(len(processed.Data))))
	h.present(item)
	jsonResponse(w, http.StatusCreated, item)
}

// UpdateClaimed handles PATCH /api/items/{id}/. Only staff may change the
// claimed flag.
func (h *ItemsHandler) UpdateClaimed(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		unauthorized(w, "Authentication credentials were not provided.")
		return
	}

	item, ok := h.loadItem(w, r)
	if !ok {
		return
	}

	if !claims.Staff {
		jsonDetail(w, http.StatusForbidden, "Admin required to update claimed status.")
		return
	}

	claimed, ok := readClaimed(r)
	if !ok {
		var errs fieldErrors
		errs.add("claimed", "Invalid value")
		jsonResponse(w, http.StatusBadRequest, errs)
		return
	}

	if _, err := store.SetItemClaimed(r.Context(), h.DB, item.ID, claimed); err != nil {
		slog.Error("updating claimed", "id", item.ID, "error", err)
		jsonDetail(w, http.StatusInternalServerError, "Internal server error.")
		return
	}
	item.Claimed = claimed

	slog.Info("claimed status updated", "id", item.ID, "claimed", claimed, "user", claims.Username)
	h.present(item)
	jsonResponse(w, http.StatusOK, item)
}

// readClaimed reads the claimed field from a JSON body or form values.
func readClaimed(r *http.Request) (bool, bool) {
	var value any
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var body map[string]any
		if err := decodeJSON(r, &body); err != nil {
			return false, false
		}
		value = body["claimed"]
	} else {
		if err := r.ParseMultipartForm(1 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			return false, false
		}
		if vs, ok := r.Form["claimed"]; ok && len(vs) > 0 {
			value = vs[0]
		}
	}

	switch v := value.(type) {
	case bool:
		return v, true
	case float64:
		switch v {
		case 1:
			return true, true
		case 0:
			return false, true
		}
	case string:
		switch v {
		case "true", "True", "1":
			return true, true
		case "false", "False", "0":
			return false, true
		}
	}
	return false, false
}

// GetImage handles GET /media/items/{id}.jpg.
func (h *ItemsHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	name, ok := strings.CutSuffix(r.PathValue("file"), ".jpg")
	if !ok {
		http.NotFound(w, r)
		return
	}
	id, err := strconv.ParseInt(name, 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	data, mime, err := store.GetItemImage(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("getting image", "id", id, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if data == nil {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(data)
}
