// Package session manages the authenticated backend session: resolving it
// from config, keeping it in memory for request signing, and persisting it
// encrypted between runs.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/campusbid/stallbid/internal/crypto"
	"github.com/campusbid/stallbid/internal/domain"
)

// FileStore persists the session as an encrypted JSON file.
type FileStore struct {
	path     string
	password string
}

// NewFileStore creates a store writing to path, sealed with password.
func NewFileStore(path, password string) *FileStore {
	return &FileStore{path: path, password: password}
}

// Load reads and decrypts the stored session. A missing file maps to
// domain.ErrNoSession.
func (s *FileStore) Load(ctx context.Context) (domain.Session, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.Session{}, domain.ErrNoSession
		}
		return domain.Session{}, fmt.Errorf("session: read %s: %w", s.path, err)
	}

	plain, err := crypto.Open(data, s.password)
	if err != nil {
		return domain.Session{}, fmt.Errorf("session: unseal %s: %w", s.path, err)
	}

	var sess domain.Session
	if err := json.Unmarshal(plain, &sess); err != nil {
		return domain.Session{}, fmt.Errorf("session: decode %s: %w", s.path, err)
	}
	return sess, nil
}

// Save seals and writes the session. The file is created with 0600 and the
// parent directory is created if needed.
func (s *FileStore) Save(ctx context.Context, sess domain.Session) error {
	plain, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("session: encode: %w", err)
	}

	sealed, err := crypto.Seal(plain, s.password)
	if err != nil {
		return fmt.Errorf("session: seal: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("session: create dir %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(s.path, sealed, 0o600); err != nil {
		return fmt.Errorf("session: write %s: %w", s.path, err)
	}
	return nil
}

// Clear removes the stored session file.
func (s *FileStore) Clear(ctx context.Context) error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("session: remove %s: %w", s.path, err)
	}
	return nil
}
