// Package tokenstore persists the session token on the device.
//
// The store is a durability optimization only. Storage failures are logged
// and treated as "no token", so callers never handle them.
package tokenstore

import (
	"context"
	"errors"
	"log/slog"

	"github.com/erazemk/najdeno/internal/kv"
)

// Key is the storage key holding the raw token string.
const Key = "authToken"

// Store keeps a single token in a KV. A Store with a nil KV does nothing.
type Store struct {
	KV kv.KV
}

// New returns a token store over store.
func New(store kv.KV) *Store {
	return &Store{KV: store}
}

// Save persists token.
func (s *Store) Save(ctx context.Context, token string) {
	if s == nil || s.KV == nil {
		return
	}
	if err := s.KV.Set(ctx, Key, token); err != nil {
		slog.Debug("saving token", "error", err)
	}
}

// Load returns the persisted token, if any.
func (s *Store) Load(ctx context.Context) (string, bool) {
	if s == nil || s.KV == nil {
		return "", false
	}
	token, err := s.KV.Get(ctx, Key)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			slog.Debug("loading token", "error", err)
		}
		return "", false
	}
	if token == "" {
		return "", false
	}
	return token, true
}

// Clear removes the persisted token.
func (s *Store) Clear(ctx context.Context) {
	if s == nil || s.KV == nil {
		return
	}
	if err := s.KV.Delete(ctx, Key); err != nil {
		slog.Debug("clearing token", "error", err)
	}
}
