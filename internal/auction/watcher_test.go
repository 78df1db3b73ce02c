package auction

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/campusbid/stallbid/internal/domain"
)

// stubFetcher serves scripted snapshots and signals every fetch attempt.
type stubFetcher struct {
	mu      sync.Mutex
	stall   domain.Stall
	history []domain.Bid
	err     error
	calls   int
	fetched chan struct{}
}

func newStubFetcher(stall domain.Stall, history []domain.Bid) *stubFetcher {
	return &stubFetcher{
		stall:   stall,
		history: history,
		fetched: make(chan struct{}, 32),
	}
}

func (f *stubFetcher) set(stall domain.Stall, history []domain.Bid, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stall = stall
	f.history = history
	f.err = err
}

func (f *stubFetcher) GetStall(ctx context.Context, stallID int64) (domain.Stall, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	defer func() { f.fetched <- struct{}{} }()
	if f.err != nil {
		return domain.Stall{}, f.err
	}
	return f.stall, nil
}

func (f *stubFetcher) GetBidHistory(ctx context.Context, stallID int64) ([]domain.Bid, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.history, nil
}

func (f *stubFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func waitFetch(t *testing.T, f *stubFetcher) {
	t.Helper()
	select {
	case <-f.fetched:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a fetch")
	}
}

func TestWatcherStopsAfterAuctionEnds(t *testing.T) {
	clock := clockwork.NewFakeClock()
	end := clock.Now().Add(-time.Second)
	fetcher := newStubFetcher(activeStall(8500, end), nil)

	w := NewWatcher(7, fetcher, NewReconciler(100, 10), 2*time.Second, clock, discardLogger())

	done := make(chan error, 1)
	go func() { done <- w.Run(context.Background()) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run = %v, want nil on terminal phase", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after the auction ended")
	}

	// Initial sync plus the final settle fetch, nothing after.
	if got := fetcher.callCount(); got != 2 {
		t.Errorf("fetch count = %d, want 2 (initial + settle)", got)
	}
	if w.State().Phase != PhaseEnded {
		t.Errorf("phase = %s, want ENDED", w.State().Phase)
	}
}

func TestWatcherKeepsStaleViewOnFetchFailure(t *testing.T) {
	clock := clockwork.NewFakeClock()
	end := clock.Now().Add(time.Hour)
	fetcher := newStubFetcher(activeStall(8500, end), []domain.Bid{
		{ID: 3, BidderID: 21, BidderName: "Priya", Amount: 8500, Rank: 1},
	})

	w := NewWatcher(7, fetcher, NewReconciler(100, 10), 2*time.Second, clock, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	waitFetch(t, fetcher)
	if got := w.State().MinBidAmount; got != 8600 {
		t.Fatalf("MinBidAmount after first sync = %d, want 8600", got)
	}

	// All later fetches fail; the view must stay on the last good snapshot.
	fetcher.set(domain.Stall{}, nil, errors.New("connection refused"))

	clock.BlockUntil(1)
	clock.Advance(2 * time.Second)
	waitFetch(t, fetcher)

	state := w.State()
	if state.Phase != PhaseReady || state.MinBidAmount != 8600 || len(state.History) != 1 {
		t.Errorf("stale view lost on failure: %+v", state)
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Run = %v, want context.Canceled", err)
	}
}

func TestWatcherRefreshForcesOutOfCycleFetch(t *testing.T) {
	clock := clockwork.NewFakeClock()
	end := clock.Now().Add(time.Hour)
	fetcher := newStubFetcher(activeStall(8500, end), nil)

	w := NewWatcher(7, fetcher, NewReconciler(100, 10), time.Hour, clock, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	waitFetch(t, fetcher)

	// A successful submit would raise the server-side highest bid and then
	// force this refresh; no clock advance is involved.
	fetcher.set(activeStall(9000, end), nil, nil)
	w.Refresh()
	waitFetch(t, fetcher)

	if got := w.State().MinBidAmount; got != 9100 {
		t.Errorf("MinBidAmount after forced refresh = %d, want 9100", got)
	}

	cancel()
	<-done
}

func TestWatcherPublishesUpdates(t *testing.T) {
	clock := clockwork.NewFakeClock()
	end := clock.Now().Add(time.Hour)
	fetcher := newStubFetcher(activeStall(8500, end), nil)

	w := NewWatcher(7, fetcher, NewReconciler(100, 10), 2*time.Second, clock, discardLogger())
	updates, unsubscribe := w.Subscribe()
	defer unsubscribe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	select {
	case state := <-updates:
		if state.Phase != PhaseReady || state.MinBidAmount != 8600 {
			t.Errorf("first update = %+v", state)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no update published after first sync")
	}

	cancel()
	<-done
}

func TestWatcherApplyPushOverlaysAndSchedulesRefresh(t *testing.T) {
	clock := clockwork.NewFakeClock()
	end := clock.Now().Add(time.Hour)
	fetcher := newStubFetcher(activeStall(8500, end), nil)

	w := NewWatcher(7, fetcher, NewReconciler(100, 10), time.Hour, clock, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	waitFetch(t, fetcher)

	w.ApplyPush(domain.Bid{ID: 9, BidderID: 33, BidderName: "Arun", Amount: 8700})

	// The overlay is immediate.
	state := w.State()
	if state.MinBidAmount != 8800 {
		t.Errorf("MinBidAmount after push = %d, want 8800", state.MinBidAmount)
	}
	if len(state.History) != 1 || state.History[0].ID != 9 {
		t.Errorf("pushed bid missing from history: %+v", state.History)
	}

	// And the backend resync it scheduled still happens.
	waitFetch(t, fetcher)

	cancel()
	<-done
}
