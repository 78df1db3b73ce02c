package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/campusbid/stallbid/internal/domain"
	"github.com/redis/go-redis/v9"
)

// defaultSessionTTL bounds how long a session without a backend expiry
// survives in Redis.
const defaultSessionTTL = 24 * time.Hour

// SessionStore implements domain.SessionStore on Redis, as an alternative to
// the encrypted file store for deployments that already run Redis. The key
// expires with the session so a stale token is never restored.
type SessionStore struct {
	rdb *redis.Client
	key string
}

// NewSessionStore creates a SessionStore backed by the given Client. The key
// is namespaced per bidder account so multiple clients can share one Redis.
func NewSessionStore(c *Client, account string) *SessionStore {
	if account == "" {
		account = "default"
	}
	return &SessionStore{
		rdb: c.Underlying(),
		key: "session:" + account,
	}
}

// Load retrieves the persisted session.
func (ss *SessionStore) Load(ctx context.Context) (domain.Session, error) {
	data, err := ss.rdb.Get(ctx, ss.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Session{}, domain.ErrNoSession
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("redis: load session: %w", err)
	}

	var sess domain.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return domain.Session{}, fmt.Errorf("redis: decode session: %w", err)
	}
	return sess, nil
}

// Save persists the session with a TTL matching its expiry.
func (ss *SessionStore) Save(ctx context.Context, sess domain.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("redis: marshal session: %w", err)
	}

	ttl := defaultSessionTTL
	if !sess.ExpiresAt.IsZero() {
		ttl = time.Until(sess.ExpiresAt)
		if ttl <= 0 {
			return fmt.Errorf("redis: save session: already expired")
		}
	}

	if err := ss.rdb.Set(ctx, ss.key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis: save session: %w", err)
	}
	return nil
}

// Clear removes the persisted session. Clearing an absent session is not an
// error.
func (ss *SessionStore) Clear(ctx context.Context) error {
	if err := ss.rdb.Del(ctx, ss.key).Err(); err != nil {
		return fmt.Errorf("redis: clear session: %w", err)
	}
	return nil
}

var _ domain.SessionStore = (*SessionStore)(nil)
