package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/campusbid/stallbid/internal/config"
	"github.com/campusbid/stallbid/internal/domain"
)

// Authenticator performs a credential login against the backend.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (domain.Session, error)
}

// Manager holds the live session and serves as the token source for API
// requests. An expired or absent session yields an empty token, which sends
// requests unauthenticated.
type Manager struct {
	store  domain.SessionStore
	logger *slog.Logger

	mu   sync.RWMutex
	sess domain.Session
}

// NewManager creates a Manager. store may be nil when persistence is not
// configured; the session then lives only in memory.
func NewManager(store domain.SessionStore, logger *slog.Logger) *Manager {
	return &Manager{
		store:  store,
		logger: logger.With(slog.String("component", "session")),
	}
}

// Token implements the API client's token source.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.sess.Valid(time.Now()) {
		return ""
	}
	return m.sess.Token
}

// Current returns the session and whether it is currently valid.
func (m *Manager) Current() (domain.Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sess, m.sess.Valid(time.Now())
}

// Set installs a session and persists it when a store is configured.
func (m *Manager) Set(ctx context.Context, sess domain.Session) error {
	m.mu.Lock()
	m.sess = sess
	m.mu.Unlock()

	if m.store == nil {
		return nil
	}
	if err := m.store.Save(ctx, sess); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	return nil
}

// Clear drops the in-memory session and removes the persisted one.
func (m *Manager) Clear(ctx context.Context) error {
	m.mu.Lock()
	m.sess = domain.Session{}
	m.mu.Unlock()

	if m.store == nil {
		return nil
	}
	return m.store.Clear(ctx)
}

// Resolve establishes a session from config, preferring the cheapest source:
// a raw token needs no round trip, a persisted session needs no login, and a
// credential login is the fallback. Resolve is called once at startup.
func (m *Manager) Resolve(ctx context.Context, cfg config.SessionConfig, auth Authenticator) error {
	if cfg.Token != "" {
		m.mu.Lock()
		m.sess = domain.Session{Token: cfg.Token}
		m.mu.Unlock()
		m.logger.Info("using configured bearer token")
		return nil
	}

	if m.store != nil {
		sess, err := m.store.Load(ctx)
		switch {
		case err == nil && sess.Valid(time.Now()):
			m.mu.Lock()
			m.sess = sess
			m.mu.Unlock()
			m.logger.Info("restored persisted session",
				slog.String("user", sess.User.Email),
				slog.Time("expires_at", sess.ExpiresAt),
			)
			return nil
		case err == nil:
			m.logger.Info("persisted session expired, logging in again")
		case err != domain.ErrNoSession:
			m.logger.Warn("persisted session unreadable", slog.String("error", err.Error()))
		}
	}

	if cfg.Email == "" {
		return fmt.Errorf("resolve session: %w", domain.ErrNoSession)
	}
	if auth == nil {
		return fmt.Errorf("resolve session: no authenticator for credential login")
	}

	sess, err := auth.Login(ctx, cfg.Email, cfg.Password)
	if err != nil {
		return fmt.Errorf("resolve session: %w", err)
	}
	m.logger.Info("logged in", slog.String("user", sess.User.Email))
	return m.Set(ctx, sess)
}
