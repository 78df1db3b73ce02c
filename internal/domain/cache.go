package domain

import (
	"context"
	"time"
)

// StallCache provides fast stall snapshot lookups for read surfaces that
// should not hit the backend on every request.
type StallCache interface {
	Set(ctx context.Context, stall Stall) error
	Get(ctx context.Context, id int64) (Stall, error)
	Invalidate(ctx context.Context, id int64) error
}

// RateLimiter provides distributed rate limiting.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// SignalBus provides pub/sub fan-out of view-state and bid events.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}
