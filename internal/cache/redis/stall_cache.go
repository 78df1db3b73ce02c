package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/campusbid/stallbid/internal/domain"
	"github.com/redis/go-redis/v9"
)

// stallTTL keeps cached snapshots short-lived; the poll loop refreshes them
// far more often than this.
const stallTTL = 30 * time.Second

// StallCache implements domain.StallCache using Redis hashes with JSON-
// serialized stall snapshots and a secondary stall-number index.
//
// Key schema:
//
//	stall:{id}     - hash with field "data" containing JSON
//	stall:no:{no}  - string value of the stall ID
type StallCache struct {
	rdb *redis.Client
}

// NewStallCache creates a StallCache backed by the given Client.
func NewStallCache(c *Client) *StallCache {
	return &StallCache{rdb: c.Underlying()}
}

func stallKey(id int64) string { return "stall:" + strconv.FormatInt(id, 10) }
func stallNoKey(no int) string { return "stall:no:" + strconv.Itoa(no) }

// Set stores a stall snapshot with a short TTL and indexes its stall number.
func (sc *StallCache) Set(ctx context.Context, stall domain.Stall) error {
	data, err := json.Marshal(stall)
	if err != nil {
		return fmt.Errorf("redis: marshal stall %d: %w", stall.ID, err)
	}

	key := stallKey(stall.ID)

	pipe := sc.rdb.TxPipeline()
	pipe.HSet(ctx, key, "data", data)
	pipe.Expire(ctx, key, stallTTL)
	if stall.Number > 0 {
		pipe.Set(ctx, stallNoKey(stall.Number), stall.ID, stallTTL)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set stall %d: %w", stall.ID, err)
	}
	return nil
}

// Get retrieves a stall snapshot by ID.
// It returns domain.ErrNotFound when the key does not exist.
func (sc *StallCache) Get(ctx context.Context, id int64) (domain.Stall, error) {
	data, err := sc.rdb.HGet(ctx, stallKey(id), "data").Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Stall{}, domain.ErrNotFound
		}
		return domain.Stall{}, fmt.Errorf("redis: get stall %d: %w", id, err)
	}

	var stall domain.Stall
	if err := json.Unmarshal(data, &stall); err != nil {
		return domain.Stall{}, fmt.Errorf("redis: unmarshal stall %d: %w", id, err)
	}
	return stall, nil
}

// GetByNumber looks up a stall by its campus stall number.
// It returns domain.ErrNotFound if the number mapping or stall is absent.
func (sc *StallCache) GetByNumber(ctx context.Context, number int) (domain.Stall, error) {
	id, err := sc.rdb.Get(ctx, stallNoKey(number)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Stall{}, domain.ErrNotFound
		}
		return domain.Stall{}, fmt.Errorf("redis: get stall by number %d: %w", number, err)
	}

	return sc.Get(ctx, id)
}

// Invalidate removes a stall snapshot and its number index entry.
func (sc *StallCache) Invalidate(ctx context.Context, id int64) error {
	stall, err := sc.Get(ctx, id)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("redis: invalidate stall %d: %w", id, err)
	}

	pipe := sc.rdb.TxPipeline()
	pipe.Del(ctx, stallKey(id))
	if err == nil && stall.Number > 0 {
		pipe.Del(ctx, stallNoKey(stall.Number))
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: invalidate stall %d: %w", id, err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.StallCache = (*StallCache)(nil)
