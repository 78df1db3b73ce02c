package auction

import (
	"time"

	"github.com/campusbid/stallbid/internal/domain"
)

// Reconciler merges freshly fetched snapshots into view state. It is a pure
// merge: the fetched snapshot and history replace the previous ones
// wholesale, since the backend is authoritative and per-entry diffing would
// only re-derive what the server already decided. Transport-agnostic: the
// poller and the WebSocket push feed both funnel into the same merge.
type Reconciler struct {
	increment    int64
	historyLimit int
}

// NewReconciler creates a Reconciler. Non-positive arguments fall back to
// the defaults (increment 100, history capped at 10).
func NewReconciler(increment int64, historyLimit int) *Reconciler {
	if increment <= 0 {
		increment = DefaultIncrement
	}
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	return &Reconciler{
		increment:    increment,
		historyLimit: historyLimit,
	}
}

// Increment returns the fixed bid step.
func (r *Reconciler) Increment() int64 { return r.increment }

// Reconcile computes the next view state from a snapshot and its bid
// history. It is idempotent: applying the same (stall, history, now) twice
// yields an identical state. prev contributes only the staged bid input
// (never lowered) and phase stickiness (ENDED is terminal).
func (r *Reconciler) Reconcile(prev ViewState, stall domain.Stall, history []domain.Bid, now time.Time) ViewState {
	next := ViewState{
		Stall:    stall,
		History:  capHistory(history, r.historyLimit),
		SyncedAt: now,
	}

	next.Countdown = FormatCountdown(stall.Status, stall.BiddingStart, stall.BiddingEnd, now)
	next.AuctionEnded = next.Countdown.Ended
	next.AuctionNotStarted = !next.AuctionEnded &&
		(stall.Status == domain.StallStatusAvailable || stall.Status == domain.StallStatusBooked)

	// Once ended, always ended: a stale snapshot arriving after the
	// transition must not reopen the view.
	if prev.Phase == PhaseEnded {
		next.AuctionEnded = true
	}

	switch {
	case next.AuctionEnded:
		next.Phase = PhaseEnded
	case next.AuctionNotStarted:
		next.Phase = PhaseNotStarted
	default:
		next.Phase = PhaseReady
	}

	next.MinBidAmount = stall.HighestOrBase() + r.increment

	// Raise the staged input to the new minimum, but never overwrite a
	// larger amount the user already typed.
	next.BidInput = prev.BidInput
	if next.BidInput < next.MinBidAmount {
		next.BidInput = next.MinBidAmount
	}

	return next
}

// capHistory copies at most limit bids from the fetched history, which the
// backend reports newest first.
func capHistory(history []domain.Bid, limit int) []domain.Bid {
	if len(history) > limit {
		history = history[:limit]
	}
	out := make([]domain.Bid, len(history))
	copy(out, history)
	return out
}
