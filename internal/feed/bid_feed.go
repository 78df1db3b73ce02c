// Package feed bridges the backend's WebSocket bid push into the watch
// layer. The feed is an accelerator: pushed bids overlay the view between
// polls, while the poller stays the authoritative resync path, so feed
// errors degrade to poll latency rather than breaking the watch.
package feed

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/campusbid/stallbid/internal/domain"
	"github.com/campusbid/stallbid/internal/platform/stallapi"
)

// reconnectDelay is the pause between reconnect attempts.
const reconnectDelay = 2 * time.Second

// BidHandler is called for each bid pushed on a subscribed stall topic.
type BidHandler func(domain.Bid)

// BidFeed connects to the backend WebSocket, subscribes to the bid topics of
// the given stalls, and invokes the handler on each pushed bid. It reconnects
// on disconnect and restores its subscriptions.
type BidFeed struct {
	wsURL     string
	stallIDs  []int64
	onBid     BidHandler
	logger    *slog.Logger
	closeOnce sync.Once
	done      chan struct{}
}

// NewBidFeed creates a feed for the given stall IDs.
func NewBidFeed(wsURL string, stallIDs []int64, onBid BidHandler, logger *slog.Logger) *BidFeed {
	return &BidFeed{
		wsURL:    wsURL,
		stallIDs: stallIDs,
		onBid:    onBid,
		logger:   logger.With(slog.String("component", "bid_feed")),
		done:     make(chan struct{}),
	}
}

// Run connects, subscribes to the configured stall topics, and runs until
// ctx is cancelled. Reconnects with a fixed delay on disconnect.
func (f *BidFeed) Run(ctx context.Context) error {
	if len(f.stallIDs) == 0 {
		f.logger.Info("no stalls to subscribe, exiting")
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-f.done:
			return nil
		default:
		}

		err := f.runConnection(ctx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		f.logger.Warn("bid feed disconnected, reconnecting", slog.String("error", err.Error()))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-f.done:
			return nil
		case <-time.After(reconnectDelay):
		}
	}
}

// runConnection holds one connection until it drops or ctx is cancelled.
// Returns nil only when the feed was closed deliberately.
func (f *BidFeed) runConnection(ctx context.Context) error {
	client := stallapi.NewWSClient(f.wsURL)
	defer client.Close()

	client.OnBid(func(bid domain.Bid) {
		if f.onBid != nil {
			f.onBid(bid)
		}
	})

	connCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	err := client.Connect(connCtx)
	cancel()
	if err != nil {
		return err
	}

	for _, id := range f.stallIDs {
		if err := client.Subscribe(id); err != nil {
			return err
		}
	}
	f.logger.Info("bid feed subscribed", slog.Int("stalls", len(f.stallIDs)))

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-f.done:
		return nil
	case <-client.Lost():
		return domain.ErrWSDisconnect
	}
}

// Close stops the feed.
func (f *BidFeed) Close() {
	f.closeOnce.Do(func() { close(f.done) })
}
