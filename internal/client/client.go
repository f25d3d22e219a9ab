// Package client talks to the lost & found REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/erazemk/najdeno/internal/model"
)

// DefaultTimeout bounds a whole request made with the default HTTP client.
const DefaultTimeout = 30 * time.Second

// maxErrorBody caps how much of an error response is read for flattening.
const maxErrorBody = 1 << 20

// Client is an API client bound to one backend base URL.
type Client struct {
	baseURL   string
	origin    string
	http      *http.Client
	userAgent string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// New returns a client for the API at baseURL.
func New(baseURL string, opts ...Option) *Client {
	base := strings.TrimRight(baseURL, "/")
	c := &Client{
		baseURL: base,
		origin:  originOf(base),
		http:    &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured API base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Origin returns the scheme and host that relative image paths resolve against.
func (c *Client) Origin() string {
	return c.origin
}

func originOf(base string) string {
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return base
	}
	return u.Scheme + "://" + u.Host
}

// ListItems fetches one page of the item feed.
func (c *Client) ListItems(ctx context.Context, page int) (*model.Page, error) {
	const op = "list items"
	resp, err := c.do(ctx, op, http.MethodGet, "/api/items/?page="+strconv.Itoa(page), nil, "", "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := c.readSuccess(op, resp, "Failed to load items")
	if err != nil {
		return nil, err
	}

	p, err := decodePage(body)
	if err != nil {
		return nil, fmt.Errorf("decoding items: %w", err)
	}
	for i := range p.Results {
		c.normalize(&p.Results[i])
	}
	return p, nil
}

// decodePage accepts the paginated envelope and, for backends without
// pagination, a bare array of items.
func decodePage(body []byte) (*model.Page, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []model.Item
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, err
		}
		return &model.Page{Results: items, Count: len(items)}, nil
	}

	var p model.Page
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetItem fetches a single item.
func (c *Client) GetItem(ctx context.Context, id int64) (*model.Item, error) {
	const op = "get item"
	resp, err := c.do(ctx, op, http.MethodGet, itemPath(id), nil, "", "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return c.decodeItem(op, resp, "Failed to load item")
}

// CreateItem posts a new item. The image is optional at this layer.
func (c *Client) CreateItem(ctx context.Context, token string, fields model.NewItem, image *ImagePayload) (*model.Item, error) {
	const op = "create item"
	form := []formField{
		{"name", fields.Name},
		{"category", fields.Category},
		{"date_found", fields.DateFound},
	}
	if fields.Description != "" {
		form = append(form, formField{"description", fields.Description})
	}

	body, contentType, err := multipartBody(form, image)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, op, http.MethodPost, "/api/items/", body, contentType, token)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return c.decodeItem(op, resp, "Failed to create item")
}

// UpdateClaimed sets the claimed flag of an item.
func (c *Client) UpdateClaimed(ctx context.Context, token string, id int64, claimed bool) (*model.Item, error) {
	const op = "update claimed"
	body, contentType, err := multipartBody([]formField{{"claimed", strconv.FormatBool(claimed)}}, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, op, http.MethodPatch, itemPath(id), body, contentType, token)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return c.decodeItem(op, resp, "Failed to update claimed")
}

// Register creates an account and returns its token.
func (c *Client) Register(ctx context.Context, username, password string) (*model.AuthResponse, error) {
	return c.authenticate(ctx, "register", "/api/items/register/", username, password, "Registration failed")
}

// Login returns a token for an existing account.
func (c *Client) Login(ctx context.Context, username, password string) (*model.AuthResponse, error) {
	return c.authenticate(ctx, "login", "/api/items/login/", username, password, "Login failed")
}

func (c *Client) authenticate(ctx context.Context, op, path, username, password, fallback string) (*model.AuthResponse, error) {
	payload, err := json.Marshal(model.Credentials{Username: username, Password: password})
	if err != nil {
		return nil, fmt.Errorf("encoding credentials: %w", err)
	}

	resp, err := c.do(ctx, op, http.MethodPost, path, bytes.NewReader(payload), "application/json", "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return nil, &NetworkError{Op: op, Err: err}
	}
	if !success(resp.StatusCode) {
		return nil, &AuthError{Op: op, Status: resp.StatusCode, Message: errorMessage(resp.StatusCode, body, fallback)}
	}

	var ar model.AuthResponse
	if err := json.Unmarshal(body, &ar); err != nil || ar.Token == "" {
		return nil, &AuthError{Op: op, Status: resp.StatusCode, Message: fallback}
	}
	return &ar, nil
}

// Ping checks that the API answers. It never fails; transport errors are reported in the
// result.
func (c *Client) Ping(ctx context.Context) model.PingResult {
	resp, err := c.do(ctx, "ping", http.MethodGet, "/api/items/", nil, "", "")
	if err != nil {
		return model.PingResult{Error: err.Error()}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return model.PingResult{OK: success(resp.StatusCode), Status: resp.StatusCode}
}

// do sends a request. Transport failures are returned as *NetworkError; any
// response, successful or not, is returned to the caller.
func (c *Client) do(ctx context.Context, op, method, path string, body io.Reader, contentType, token string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		if rc, ok := body.(io.Closer); ok {
			rc.Close()
		}
		return nil, fmt.Errorf("building %s request: %w", op, err)
	}

	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		slog.Debug("request failed", "op", op, "method", method, "url", req.URL.String(), "error", err)
		return nil, &NetworkError{Op: op, Err: err}
	}
	slog.Debug("request", "op", op, "method", method, "url", req.URL.String(),
		"status", resp.StatusCode, "duration", time.Since(start).Round(time.Millisecond))
	return resp, nil
}

// readSuccess returns the body of a successful response, or a *RequestError
// carrying the flattened message of a failed one.
func (c *Client) readSuccess(op string, resp *http.Response, fallback string) ([]byte, error) {
	if !success(resp.StatusCode) {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &RequestError{Op: op, Status: resp.StatusCode, Message: errorMessage(resp.StatusCode, body, fallback)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Op: op, Err: err}
	}
	return body, nil
}

func (c *Client) decodeItem(op string, resp *http.Response, fallback string) (*model.Item, error) {
	body, err := c.readSuccess(op, resp, fallback)
	if err != nil {
		return nil, err
	}

	var item model.Item
	if err := json.Unmarshal(body, &item); err != nil {
		return nil, fmt.Errorf("decoding item: %w", err)
	}
	c.normalize(&item)
	return &item, nil
}

func (c *Client) normalize(item *model.Item) {
	item.Image = ResolveImageURL(c.origin, item.Image)
}

func itemPath(id int64) string {
	return "/api/items/" + strconv.FormatInt(id, 10) + "/"
}

func success(status int) bool {
	return status >= 200 && status < 300
}

type formField struct {
	name  string
	value string
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// multipartBody streams a multipart form through a pipe. The image, if any,
// is opened up front so a missing file is reported before any request is made.
func multipartBody(fields []formField, image *ImagePayload) (io.ReadCloser, string, error) {
	var (
		src  io.ReadCloser
		mime string
	)
	if image != nil {
		var err error
		src, mime, err = image.open()
		if err != nil {
			return nil, "", err
		}
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		err := writeForm(mw, fields, image, src, mime)
		if cerr := mw.Close(); err == nil {
			err = cerr
		}
		pw.CloseWithError(err)
	}()

	return pr, mw.FormDataContentType(), nil
}

func writeForm(mw *multipart.Writer, fields []formField, image *ImagePayload, src io.ReadCloser, mime string) error {
	if src != nil {
		defer src.Close()
	}

	for _, f := range fields {
		if err := mw.WriteField(f.name, f.value); err != nil {
			return fmt.Errorf("writing field %s: %w", f.name, err)
		}
	}
	if src == nil {
		return nil
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="image"; filename="%s"`, quoteEscaper.Replace(image.Name())))
	h.Set("Content-Type", mime)
	part, err := mw.CreatePart(h)
	if err != nil {
		return fmt.Errorf("creating image part: %w", err)
	}
	if _, err := io.Copy(part, src); err != nil {
		return fmt.Errorf("writing image: %w", err)
	}
	return nil
}
