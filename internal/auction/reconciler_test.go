package auction

import (
	"reflect"
	"testing"
	"time"

	"github.com/campusbid/stallbid/internal/domain"
)

func activeStall(highest int64, end time.Time) domain.Stall {
	return domain.Stall{
		ID:                7,
		Name:              "North Lawn 12",
		BasePrice:         5000,
		CurrentHighestBid: highest,
		Status:            domain.StallStatusActive,
		BiddingEnd:        &end,
	}
}

func TestReconcileMinBidAmount(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	end := now.Add(time.Hour)
	rec := NewReconciler(100, 10)

	// No bids yet: base price 5000 floors the minimum.
	state := rec.Reconcile(NewViewState(), activeStall(0, end), nil, now)
	if state.MinBidAmount != 5100 {
		t.Errorf("MinBidAmount = %d, want 5100", state.MinBidAmount)
	}

	// Highest bid 8500.
	state = rec.Reconcile(state, activeStall(8500, end), nil, now)
	if state.MinBidAmount != 8600 {
		t.Errorf("MinBidAmount = %d, want 8600", state.MinBidAmount)
	}
}

func TestReconcileIdempotent(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	end := now.Add(30 * time.Minute)
	rec := NewReconciler(100, 10)

	history := []domain.Bid{
		{ID: 3, StallID: 7, BidderID: 21, BidderName: "Priya", Amount: 8500, Rank: 1},
		{ID: 2, StallID: 7, BidderID: 33, BidderName: "Arun", Amount: 8200, Rank: 2},
	}
	stall := activeStall(8500, end)

	once := rec.Reconcile(NewViewState(), stall, history, now)
	twice := rec.Reconcile(once, stall, history, now)

	if !reflect.DeepEqual(once, twice) {
		t.Errorf("reconcile not idempotent:\nonce  = %+v\ntwice = %+v", once, twice)
	}
}

func TestReconcileNeverLowersBidInput(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	end := now.Add(time.Hour)
	rec := NewReconciler(100, 10)

	state := rec.Reconcile(NewViewState(), activeStall(8500, end), nil, now)
	if state.BidInput != 8600 {
		t.Fatalf("initial BidInput = %d, want 8600", state.BidInput)
	}

	// User typed a larger amount; a fresh snapshot with a lower minimum must
	// not overwrite it downward.
	state.BidInput = 9500
	state = rec.Reconcile(state, activeStall(8700, end), nil, now)
	if state.BidInput != 9500 {
		t.Errorf("BidInput = %d, want staged 9500 preserved", state.BidInput)
	}

	// A higher minimum raises it.
	state = rec.Reconcile(state, activeStall(9600, end), nil, now)
	if state.BidInput != 9700 {
		t.Errorf("BidInput = %d, want raised to 9700", state.BidInput)
	}
}

func TestReconcilePhases(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := NewReconciler(100, 10)

	// ACTIVE with end one second in the past is ended.
	end := now.Add(-time.Second)
	state := rec.Reconcile(NewViewState(), activeStall(8500, end), nil, now)
	if state.Phase != PhaseEnded || !state.AuctionEnded {
		t.Errorf("past deadline: phase = %s, ended = %v", state.Phase, state.AuctionEnded)
	}
	if state.Countdown.Display != "Ended" {
		t.Errorf("Countdown.Display = %q, want Ended", state.Countdown.Display)
	}

	// ENDED is sticky even if a stale snapshot claims otherwise.
	futureEnd := now.Add(time.Hour)
	state = rec.Reconcile(state, activeStall(8500, futureEnd), nil, now)
	if state.Phase != PhaseEnded {
		t.Errorf("ended phase not sticky: phase = %s", state.Phase)
	}

	// AVAILABLE stall is not started.
	start := now.Add(time.Hour)
	avail := domain.Stall{ID: 7, BasePrice: 5000, Status: domain.StallStatusAvailable, BiddingStart: &start}
	state = rec.Reconcile(NewViewState(), avail, nil, now)
	if state.Phase != PhaseNotStarted || !state.AuctionNotStarted {
		t.Errorf("upcoming: phase = %s, notStarted = %v", state.Phase, state.AuctionNotStarted)
	}

	// Polling detects the start boundary: same stall flipped ACTIVE.
	live := avail
	live.Status = domain.StallStatusActive
	liveEnd := now.Add(2 * time.Hour)
	live.BiddingEnd = &liveEnd
	state = rec.Reconcile(state, live, nil, now)
	if state.Phase != PhaseReady {
		t.Errorf("after start boundary: phase = %s, want READY", state.Phase)
	}
}

func TestReconcileCapsHistory(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	end := now.Add(time.Hour)
	rec := NewReconciler(100, 3)

	history := make([]domain.Bid, 8)
	for i := range history {
		history[i] = domain.Bid{ID: int64(100 - i), Amount: int64(9000 - i*100)}
	}

	state := rec.Reconcile(NewViewState(), activeStall(9000, end), history, now)
	if len(state.History) != 3 {
		t.Fatalf("len(History) = %d, want 3", len(state.History))
	}
	if state.History[0].ID != 100 {
		t.Errorf("History[0].ID = %d, want newest first", state.History[0].ID)
	}

	// The capped copy must not alias the fetched slice.
	history[0].Amount = 1
	if state.History[0].Amount == 1 {
		t.Error("History aliases the fetched slice")
	}
}
