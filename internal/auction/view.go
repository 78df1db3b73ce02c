package auction

import (
	"time"

	"github.com/campusbid/stallbid/internal/domain"
)

// DefaultIncrement is the fixed step added to the current highest bid (or
// base price) to obtain the minimum acceptable next bid.
const DefaultIncrement int64 = 100

// DefaultHistoryLimit caps the bid history kept in view state, newest first.
const DefaultHistoryLimit = 10

// Phase is the lifecycle phase of a live-auction view.
type Phase string

const (
	// PhaseLoading is the initial state before the first successful fetch.
	PhaseLoading Phase = "LOADING"
	// PhaseNotStarted means the bidding window has not opened yet.
	PhaseNotStarted Phase = "NOT_STARTED"
	// PhaseReady means the auction is live and accepting bids.
	PhaseReady Phase = "READY"
	// PhaseEnded is terminal: the window closed or the backend reported
	// CLOSED. Polling stops after one final settle fetch.
	PhaseEnded Phase = "ENDED"
)

// ViewState is the derived, client-only state of one live-auction view. It
// is rebuilt from scratch on every watch and never persisted; the Reconcile
// merge is its single writer.
type ViewState struct {
	Phase Phase

	// Stall is the most recent snapshot. Zero-valued while Phase is LOADING.
	Stall domain.Stall

	// History holds the most recent accepted bids, newest first, capped at
	// HistoryLimit.
	History []domain.Bid

	// MinBidAmount is the floor for the next valid bid.
	MinBidAmount int64

	// BidInput is the staged amount for the next submission. It tracks
	// MinBidAmount upward but is never lowered, so a larger amount the user
	// already typed survives reconciliation.
	BidInput int64

	Countdown Countdown

	AuctionEnded      bool
	AuctionNotStarted bool

	// SyncedAt is the instant of the snapshot this state was derived from.
	SyncedAt time.Time
}

// NewViewState returns the initial pre-fetch state.
func NewViewState() ViewState {
	return ViewState{Phase: PhaseLoading}
}

// HighestBid returns the current highest bid from the snapshot, falling back
// to the top of the history when the snapshot has not caught up yet.
func (v ViewState) HighestBid() int64 {
	highest := v.Stall.CurrentHighestBid
	if len(v.History) > 0 && v.History[0].Amount > highest {
		highest = v.History[0].Amount
	}
	return highest
}

// LeadingBidder returns the bidder ID of the top-of-history bid, or zero
// when no bid has been observed.
func (v ViewState) LeadingBidder() int64 {
	if len(v.History) == 0 {
		return 0
	}
	return v.History[0].BidderID
}
