// Package session establishes and holds the client's auth token.
package session

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/erazemk/najdeno/internal/model"
)

// Authenticator obtains tokens from the backend.
type Authenticator interface {
	Register(ctx context.Context, username, password string) (*model.AuthResponse, error)
	Login(ctx context.Context, username, password string) (*model.AuthResponse, error)
}

// TokenStore persists the token between runs. Implementations swallow their
// own failures.
type TokenStore interface {
	Save(ctx context.Context, token string)
	Load(ctx context.Context) (string, bool)
	Clear(ctx context.Context)
}

// Manager owns the session token for one identity.
type Manager struct {
	auth   Authenticator
	tokens TokenStore
	creds  model.Credentials

	mu    sync.Mutex
	token string

	flight singleflight.Group
}

// New returns a manager that authenticates as creds. tokens may be nil.
func New(auth Authenticator, tokens TokenStore, creds model.Credentials) *Manager {
	return &Manager{auth: auth, tokens: tokens, creds: creds}
}

// Token returns the in-memory token, or "" when none is held.
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

// EnsureAuthenticated returns a token, establishing one if needed: the
// in-memory token, then the persisted token, then a fresh registration, then
// a login. Register and login are each tried at most once per call, and
// concurrent callers share a single attempt.
func (m *Manager) EnsureAuthenticated(ctx context.Context) (string, error) {
	if token := m.Token(); token != "" {
		return token, nil
	}

	v, err, shared := m.flight.Do("authenticate", func() (any, error) {
		if token := m.Token(); token != "" {
			return token, nil
		}
		return m.establish(ctx)
	})
	if err != nil {
		return "", err
	}
	if shared {
		slog.Debug("joined in-flight authentication")
	}
	return v.(string), nil
}

func (m *Manager) establish(ctx context.Context) (string, error) {
	if m.tokens != nil {
		if token, ok := m.tokens.Load(ctx); ok {
			m.setToken(token)
			slog.Debug("using persisted token")
			return token, nil
		}
	}

	resp, err := m.auth.Register(ctx, m.creds.Username, m.creds.Password)
	if err == nil {
		slog.Info("registered", "username", m.creds.Username)
		return m.adopt(ctx, resp.Token), nil
	}
	slog.Debug("register failed, trying login", "username", m.creds.Username, "error", err)

	resp, err = m.auth.Login(ctx, m.creds.Username, m.creds.Password)
	if err != nil {
		slog.Warn("login failed", "username", m.creds.Username, "error", err)
		return "", err
	}
	slog.Info("logged in", "username", m.creds.Username)
	return m.adopt(ctx, resp.Token), nil
}

func (m *Manager) adopt(ctx context.Context, token string) string {
	m.setToken(token)
	if m.tokens != nil {
		m.tokens.Save(ctx, token)
	}
	return token
}

func (m *Manager) setToken(token string) {
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
}

// Logout forgets the token in memory and in the token store.
func (m *Manager) Logout(ctx context.Context) {
	m.setToken("")
	if m.tokens != nil {
		m.tokens.Clear(ctx)
	}
}
