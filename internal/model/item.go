package model

import (
	"time"

	"github.com/google/uuid"
)

// Item represents a found item posted to the feed.
type Item struct {
	ID          int64      `json:"id"`
	UUID        uuid.UUID  `json:"uuid"`
	Name        string     `json:"name"`
	Category    string     `json:"category"`
	Description string     `json:"description"`
	DateFound   string     `json:"date_found"`
	Image       string     `json:"image,omitempty"`
	Claimed     bool       `json:"claimed"`
	UserName    string     `json:"user_name"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`

	// HasImage is set by the backend store when an image is attached.
	HasImage bool `json:"-"`
}

// Page is one page of the paginated item list.
type Page struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []Item  `json:"results"`
}

// HasNext reports whether the server announced another page.
func (p *Page) HasNext() bool {
	return p != nil && p.Next != nil && *p.Next != ""
}

// NewItem holds the form fields of an item creation request.
type NewItem struct {
	Name        string
	Category    string
	Description string
	DateFound   string
}

// DateLayout is the wire format of date_found.
const DateLayout = "2006-01-02"
