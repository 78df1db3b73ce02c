package domain

import (
	"context"
	"time"
)

// ListOpts provides pagination and time filtering for list queries.
type ListOpts struct {
	Limit  int
	Offset int
	Since  *time.Time
	Until  *time.Time
}

// BidStore archives bids observed while watching auctions. Bids are keyed by
// the backend's bid ID, so re-archiving an already-seen history is a no-op.
type BidStore interface {
	UpsertBatch(ctx context.Context, bids []Bid) error
	ListByStall(ctx context.Context, stallID int64, opts ListOpts) ([]Bid, error)
	HighestByStall(ctx context.Context, stallID int64) (Bid, error)
	Count(ctx context.Context, stallID int64) (int64, error)
}

// ResultStore archives declared auction outcomes.
type ResultStore interface {
	Upsert(ctx context.Context, res BiddingResult) error
	GetByStall(ctx context.Context, stallID int64) (BiddingResult, error)
	ListRecent(ctx context.Context, limit int) ([]BiddingResult, error)
}

// SessionStore persists the authentication session between runs.
type SessionStore interface {
	Load(ctx context.Context) (Session, error)
	Save(ctx context.Context, s Session) error
	Clear(ctx context.Context) error
}
