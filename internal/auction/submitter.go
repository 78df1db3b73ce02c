package auction

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/campusbid/stallbid/internal/domain"
)

// BidPlacer submits a bid to the backend.
type BidPlacer interface {
	PlaceBid(ctx context.Context, req domain.BidRequest) (domain.BidResult, error)
}

// ViewSource is the slice of Watcher the submitter depends on.
type ViewSource interface {
	StallID() int64
	State() ViewState
	Refresh()
}

// Submitter validates and submits bids for one watched stall. Client-side
// validation is best effort only: the backend may still reject a locally
// valid bid that lost a race. A single-flight guard makes a second Place
// while one is outstanding a local no-op, so a double click cannot produce
// two POSTs.
type Submitter struct {
	view       ViewSource
	placer     BidPlacer
	limiter    domain.RateLimiter
	bidderID   int64
	rateLimit  int
	ratePeriod time.Duration
	logger     *slog.Logger

	inFlight atomic.Bool
}

// NewSubmitter creates a Submitter placing bids as bidderID. limiter may be
// nil to disable submission rate limiting.
func NewSubmitter(view ViewSource, placer BidPlacer, limiter domain.RateLimiter, bidderID int64, logger *slog.Logger) *Submitter {
	return &Submitter{
		view:       view,
		placer:     placer,
		limiter:    limiter,
		bidderID:   bidderID,
		rateLimit:  5,
		ratePeriod: 10 * time.Second,
		logger:     logger.With(slog.String("component", "submitter"), slog.Int64("stall_id", view.StallID())),
	}
}

// WithRatePolicy overrides the default submission rate limit of 5 bids per
// 10 seconds. No-op when either value is non-positive.
func (s *Submitter) WithRatePolicy(limit int, period time.Duration) *Submitter {
	if limit > 0 && period > 0 {
		s.rateLimit = limit
		s.ratePeriod = period
	}
	return s
}

// InFlight reports whether a submission is currently outstanding.
func (s *Submitter) InFlight() bool {
	return s.inFlight.Load()
}

// Place validates amount against the current view and submits it. Local
// rejections (too low, wrong phase, already in flight) cost zero network
// calls. On success the result is NOT treated as the new authoritative
// highest bid; instead a forced refresh resyncs the view from the backend.
// On backend rejection the server's message is preserved verbatim in the
// returned error and a refresh is still forced, since a rejection usually
// means the local minimum was stale.
func (s *Submitter) Place(ctx context.Context, amount int64) (domain.BidResult, error) {
	state := s.view.State()

	switch state.Phase {
	case PhaseEnded:
		return domain.BidResult{}, domain.ErrAuctionEnded
	case PhaseNotStarted, PhaseLoading:
		return domain.BidResult{}, domain.ErrAuctionNotStarted
	}

	if amount < state.MinBidAmount {
		return domain.BidResult{}, fmt.Errorf(
			"minimum bid amount is %d: %w", state.MinBidAmount, domain.ErrBidTooLow)
	}

	if !s.inFlight.CompareAndSwap(false, true) {
		return domain.BidResult{}, domain.ErrBidInFlight
	}
	defer s.inFlight.Store(false)

	if s.limiter != nil {
		key := fmt.Sprintf("bids:%d:%d", s.bidderID, s.view.StallID())
		allowed, err := s.limiter.Allow(ctx, key, s.rateLimit, s.ratePeriod)
		if err != nil {
			return domain.BidResult{}, fmt.Errorf("submitter: rate limiter: %w", err)
		}
		if !allowed {
			return domain.BidResult{}, domain.ErrRateLimited
		}
	}

	req := domain.BidRequest{
		StallID:  s.view.StallID(),
		BidderID: s.bidderID,
		Amount:   amount,
	}

	result, err := s.placer.PlaceBid(ctx, req)
	if err != nil {
		s.logger.Warn("bid rejected",
			slog.Int64("amount", amount),
			slog.String("error", err.Error()),
		)
		// Resync: a rejection usually means another bidder won the race and
		// the local minimum is stale.
		s.view.Refresh()
		return result, err
	}

	s.logger.Info("bid placed", slog.Int64("amount", amount))

	// The backend owns bid ordering; fetch fresh state instead of trusting
	// the submission response.
	s.view.Refresh()
	return result, nil
}
