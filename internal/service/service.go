// Package service implements the item actions that need a session: posting a
// new item and changing its claimed flag.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/erazemk/najdeno/internal/client"
	"github.com/erazemk/najdeno/internal/model"
)

// Validation errors returned by PostItem before any request is made.
var (
	ErrNameRequired    = errors.New("name is required")
	ErrImageRequired   = errors.New("image is required")
	ErrInvalidCategory = errors.New("invalid category")
	ErrInvalidDate     = errors.New("date found is not in YYYY-MM-DD format")
)

// API is the subset of the API client used by the service.
type API interface {
	CreateItem(ctx context.Context, token string, fields model.NewItem, image *client.ImagePayload) (*model.Item, error)
	UpdateClaimed(ctx context.Context, token string, id int64, claimed bool) (*model.Item, error)
	Ping(ctx context.Context) model.PingResult
}

// Session hands out a valid token.
type Session interface {
	EnsureAuthenticated(ctx context.Context) (string, error)
}

// Reloader reloads the feed after a change.
type Reloader interface {
	Reset(ctx context.Context) error
}

// Service runs authenticated item actions.
type Service struct {
	api  API
	sess Session
	feed Reloader

	// Now returns the current time. It defaults to time.Now.
	Now func() time.Time
}

// New returns a service. feed may be nil when no feed is shown.
func New(api API, sess Session, feed Reloader) *Service {
	return &Service{api: api, sess: sess, feed: feed, Now: time.Now}
}

// PostItem validates fields, signs in if needed, creates the item and
// reloads the feed. An empty date defaults to today.
func (s *Service) PostItem(ctx context.Context, fields model.NewItem, image *client.ImagePayload) (*model.Item, error) {
	fields.Name = strings.TrimSpace(fields.Name)
	fields.Description = strings.TrimSpace(fields.Description)
	fields.DateFound = strings.TrimSpace(fields.DateFound)
	if fields.DateFound == "" {
		fields.DateFound = s.Now().Format(model.DateLayout)
	}

	if err := validate(fields, image); err != nil {
		return nil, err
	}

	token, err := s.sess.EnsureAuthenticated(ctx)
	if err != nil {
		return nil, err
	}

	item, err := s.api.CreateItem(ctx, token, fields, image)
	if err != nil {
		return nil, err
	}
	slog.Info("item posted", "id", item.ID, "name", item.Name)

	if s.feed != nil {
		if err := s.feed.Reset(ctx); err != nil {
			slog.Warn("reloading feed after post", "error", err)
		}
	}
	return item, nil
}

func validate(fields model.NewItem, image *client.ImagePayload) error {
	if fields.Name == "" {
		return ErrNameRequired
	}
	if !model.ValidCategory(fields.Category) {
		return fmt.Errorf("%w (%q)", ErrInvalidCategory, fields.Category)
	}
	if _, err := time.Parse(model.DateLayout, fields.DateFound); err != nil {
		return ErrInvalidDate
	}
	if image == nil {
		return ErrImageRequired
	}
	return nil
}

// SetClaimed marks an item as claimed or unclaimed.
func (s *Service) SetClaimed(ctx context.Context, id int64, claimed bool) (*model.Item, error) {
	token, err := s.sess.EnsureAuthenticated(ctx)
	if err != nil {
		return nil, err
	}

	item, err := s.api.UpdateClaimed(ctx, token, id, claimed)
	if err != nil {
		return nil, err
	}
	slog.Info("claimed status updated", "id", id, "claimed", claimed)
	return item, nil
}

// Ping checks that the API answers.
func (s *Service) Ping(ctx context.Context) model.PingResult {
	return s.api.Ping(ctx)
}
