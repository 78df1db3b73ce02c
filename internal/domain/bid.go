package domain

import "time"

// BidStatus is the server-derived standing of a bid within its stall's
// auction. It changes asynchronously (e.g. ACTIVE -> OUTBID) and is only
// ever observed via re-fetch, never computed locally.
type BidStatus string

const (
	BidStatusActive BidStatus = "ACTIVE"
	BidStatusWon    BidStatus = "WON"
	BidStatusLost   BidStatus = "LOST"
	BidStatusOutbid BidStatus = "OUTBID"
)

// Bid is a single accepted bid as reported by the backend. Immutable from
// the client's perspective apart from Status and Rank.
type Bid struct {
	ID         int64
	StallID    int64
	StallName  string
	BidderID   int64
	BidderName string
	Amount     int64
	PlacedAt   time.Time
	Status     BidStatus
	Rank       int
}

// BidRequest is the payload for placing a bid.
type BidRequest struct {
	StallID  int64
	BidderID int64
	Amount   int64
}

// BidResult is the backend's envelope for a bid submission. The backend is
// the sole arbiter of acceptance; Success false with a Message means the bid
// was rejected by a business rule (stale minimum, closed auction, ...).
type BidResult struct {
	Success bool
	Message string
	Bid     *Bid
}
