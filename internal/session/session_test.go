package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/campusbid/stallbid/internal/config"
	"github.com/campusbid/stallbid/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.enc")
	store := NewFileStore(path, "pw")
	ctx := context.Background()

	sess := domain.Session{
		Token:     "jwt-abc",
		User:      domain.User{ID: 21, Name: "Priya", Email: "priya@campus.edu", Role: domain.RoleStudent},
		ExpiresAt: time.Date(2025, 3, 2, 12, 0, 0, 0, time.UTC),
	}
	if err := store.Save(ctx, sess); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(raw) == 0 {
		t.Fatal("session file not written")
	}
	for _, secret := range []string{"jwt-abc", "priya@campus.edu"} {
		if strings.Contains(string(raw), secret) {
			t.Errorf("session file leaks %q in plaintext", secret)
		}
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got.Token != sess.Token || got.User.ID != 21 || !got.ExpiresAt.Equal(sess.ExpiresAt) {
		t.Errorf("loaded session = %+v", got)
	}
}

func TestFileStoreMissingFileIsNoSession(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "absent.enc"), "pw")
	if _, err := store.Load(context.Background()); !errors.Is(err, domain.ErrNoSession) {
		t.Errorf("Load = %v, want ErrNoSession", err)
	}
	// Clearing an absent file is not an error.
	if err := store.Clear(context.Background()); err != nil {
		t.Errorf("Clear: %v", err)
	}
}

type stubAuth struct {
	sess  domain.Session
	err   error
	calls int
}

func (a *stubAuth) Login(ctx context.Context, email, password string) (domain.Session, error) {
	a.calls++
	return a.sess, a.err
}

func TestResolvePrefersConfiguredToken(t *testing.T) {
	auth := &stubAuth{}
	m := NewManager(nil, discardLogger())
	err := m.Resolve(context.Background(), config.SessionConfig{Token: "tok-raw"}, auth)
	if err != nil {
		t.Fatal(err)
	}
	if m.Token() != "tok-raw" {
		t.Errorf("Token = %q", m.Token())
	}
	if auth.calls != 0 {
		t.Errorf("login called %d times for a raw token", auth.calls)
	}
}

func TestResolveRestoresPersistedSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.enc")
	store := NewFileStore(path, "pw")
	persisted := domain.Session{Token: "jwt-old", ExpiresAt: time.Now().Add(time.Hour)}
	if err := store.Save(context.Background(), persisted); err != nil {
		t.Fatal(err)
	}

	auth := &stubAuth{}
	m := NewManager(store, discardLogger())
	if err := m.Resolve(context.Background(), config.SessionConfig{Email: "x@y", Password: "p"}, auth); err != nil {
		t.Fatal(err)
	}
	if m.Token() != "jwt-old" {
		t.Errorf("Token = %q, want restored session", m.Token())
	}
	if auth.calls != 0 {
		t.Errorf("login called despite valid persisted session")
	}
}

func TestResolveFallsBackToLogin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.enc")
	store := NewFileStore(path, "pw")

	fresh := domain.Session{Token: "jwt-new", ExpiresAt: time.Now().Add(time.Hour)}
	auth := &stubAuth{sess: fresh}
	m := NewManager(store, discardLogger())
	if err := m.Resolve(context.Background(), config.SessionConfig{Email: "x@y", Password: "p"}, auth); err != nil {
		t.Fatal(err)
	}
	if m.Token() != "jwt-new" {
		t.Errorf("Token = %q", m.Token())
	}

	// The fresh login must have been persisted for the next run.
	got, err := store.Load(context.Background())
	if err != nil || got.Token != "jwt-new" {
		t.Errorf("persisted session = %+v, err %v", got, err)
	}
}

func TestTokenEmptyWhenExpired(t *testing.T) {
	m := NewManager(nil, discardLogger())
	_ = m.Set(context.Background(), domain.Session{Token: "jwt", ExpiresAt: time.Now().Add(-time.Minute)})
	if m.Token() != "" {
		t.Errorf("Token = %q, want empty for expired session", m.Token())
	}
}
