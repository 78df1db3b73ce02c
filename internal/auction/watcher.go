package auction

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/campusbid/stallbid/internal/domain"
)

// Fetcher retrieves a stall snapshot and its bid history from the backend.
type Fetcher interface {
	GetStall(ctx context.Context, stallID int64) (domain.Stall, error)
	GetBidHistory(ctx context.Context, stallID int64) ([]domain.Bid, error)
}

// Watcher drives the live view of one stall: it polls the backend on a
// fixed interval, feeds each snapshot through the Reconciler, and publishes
// the resulting view state to subscribers. Polling stops once the view
// reaches its terminal phase; teardown is by context cancellation.
type Watcher struct {
	stallID  int64
	fetcher  Fetcher
	rec      *Reconciler
	interval time.Duration
	clock    clockwork.Clock
	logger   *slog.Logger

	mu    sync.RWMutex
	state ViewState

	refreshCh chan struct{}

	subMu sync.Mutex
	subs  map[chan ViewState]struct{}
}

// NewWatcher creates a Watcher for the given stall. interval is the poll
// period; the clock is injectable so tests can advance time.
func NewWatcher(stallID int64, fetcher Fetcher, rec *Reconciler, interval time.Duration, clock clockwork.Clock, logger *slog.Logger) *Watcher {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Watcher{
		stallID:   stallID,
		fetcher:   fetcher,
		rec:       rec,
		interval:  interval,
		clock:     clock,
		logger:    logger.With(slog.String("component", "watcher"), slog.Int64("stall_id", stallID)),
		state:     NewViewState(),
		refreshCh: make(chan struct{}, 1),
		subs:      make(map[chan ViewState]struct{}),
	}
}

// StallID returns the watched stall's ID.
func (w *Watcher) StallID() int64 { return w.stallID }

// State returns a copy of the current view state.
func (w *Watcher) State() ViewState {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state
}

// Subscribe registers for view-state updates. The returned cancel func must
// be called to release the subscription. Slow subscribers miss intermediate
// states rather than blocking the poll loop.
func (w *Watcher) Subscribe() (<-chan ViewState, func()) {
	ch := make(chan ViewState, 8)
	w.subMu.Lock()
	w.subs[ch] = struct{}{}
	w.subMu.Unlock()

	cancel := func() {
		w.subMu.Lock()
		defer w.subMu.Unlock()
		if _, ok := w.subs[ch]; ok {
			delete(w.subs, ch)
			close(ch)
		}
	}
	return ch, cancel
}

// Refresh forces one out-of-cycle fetch on the next loop iteration. Used
// after a successful bid submission so the view resyncs from the backend
// instead of trusting the submission response.
func (w *Watcher) Refresh() {
	select {
	case w.refreshCh <- struct{}{}:
	default:
	}
}

// Run polls until the context is cancelled or the auction reaches its
// terminal phase. On entering the terminal phase one final settle fetch is
// made (so the closing snapshot, winner, and full history are captured) and
// Run returns nil.
func (w *Watcher) Run(ctx context.Context) error {
	// Initial fetch moves the view out of LOADING.
	w.syncOnce(ctx)
	if w.State().Phase == PhaseEnded {
		w.settle(ctx)
		return nil
	}

	ticker := w.clock.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watcher stopped")
			return ctx.Err()
		case <-ticker.Chan():
		case <-w.refreshCh:
		}

		w.syncOnce(ctx)
		if w.State().Phase == PhaseEnded {
			w.settle(ctx)
			return nil
		}
	}
}

// syncOnce fetches the snapshot and history and reconciles them into the
// current state. A failed fetch leaves the previous state untouched: a
// transient blip must not blank a live view.
func (w *Watcher) syncOnce(ctx context.Context) {
	stall, err := w.fetcher.GetStall(ctx, w.stallID)
	if err != nil {
		w.logger.Warn("stall fetch failed, keeping stale view", slog.String("error", err.Error()))
		return
	}

	history, err := w.fetcher.GetBidHistory(ctx, w.stallID)
	if err != nil {
		w.logger.Warn("history fetch failed, keeping stale view", slog.String("error", err.Error()))
		return
	}

	w.mu.Lock()
	prev := w.state
	next := w.rec.Reconcile(prev, stall, history, w.clock.Now())
	w.state = next
	w.mu.Unlock()

	if prev.Phase != next.Phase {
		w.logger.Info("auction phase changed",
			slog.String("from", string(prev.Phase)),
			slog.String("to", string(next.Phase)),
		)
	}
	w.publish(next)
}

// settle performs the final fetch after the auction ends.
func (w *Watcher) settle(ctx context.Context) {
	w.logger.Info("auction ended, settling")
	w.syncOnce(ctx)
}

// ApplyPush overlays a pushed bid onto the current snapshot and schedules a
// forced refresh. The overlay keeps the view responsive between polls; the
// refresh makes the backend's ordering win shortly after.
func (w *Watcher) ApplyPush(bid domain.Bid) {
	w.mu.Lock()
	prev := w.state
	if prev.Phase == PhaseLoading || prev.Phase == PhaseEnded {
		w.mu.Unlock()
		return
	}

	stall := prev.Stall
	if bid.Amount > stall.CurrentHighestBid {
		stall.CurrentHighestBid = bid.Amount
		stall.TotalBids++
	}
	history := append([]domain.Bid{bid}, prev.History...)
	next := w.rec.Reconcile(prev, stall, history, w.clock.Now())
	w.state = next
	w.mu.Unlock()

	w.publish(next)
	w.Refresh()
}

func (w *Watcher) publish(state ViewState) {
	w.subMu.Lock()
	defer w.subMu.Unlock()
	for ch := range w.subs {
		select {
		case ch <- state:
		default:
		}
	}
}
