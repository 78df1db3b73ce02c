package auction

import (
	"context"
	"errors"
	"log/slog"

	"github.com/campusbid/stallbid/internal/domain"
)

// Placer submits a bid at the given amount. Satisfied by Submitter.
type Placer interface {
	Place(ctx context.Context, amount int64) (domain.BidResult, error)
}

// AutoBidder keeps the configured bidder in the lead by answering every
// overbid with the current minimum, up to a hard cap. It reacts only to
// reconciled view states, so it inherits the watcher's pacing and never
// bids faster than the view updates.
type AutoBidder struct {
	placer   Placer
	bidderID int64
	max      int64
	logger   *slog.Logger
}

// NewAutoBidder creates an AutoBidder. maxAmount is the highest amount it
// will ever submit; bidderID identifies our own bids in the history.
func NewAutoBidder(placer Placer, bidderID, maxAmount int64, logger *slog.Logger) *AutoBidder {
	return &AutoBidder{
		placer:   placer,
		bidderID: bidderID,
		max:      maxAmount,
		logger:   logger.With(slog.String("component", "autobidder")),
	}
}

// Run consumes updates until the channel closes or ctx is cancelled.
func (ab *AutoBidder) Run(ctx context.Context, updates <-chan ViewState) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case state, ok := <-updates:
			if !ok {
				return nil
			}
			ab.react(ctx, state)
		}
	}
}

// react places the minimum counter-bid when someone else holds the lead.
func (ab *AutoBidder) react(ctx context.Context, state ViewState) {
	if state.Phase != PhaseReady {
		return
	}
	if leader := state.LeadingBidder(); leader == 0 || leader == ab.bidderID {
		return
	}
	if state.MinBidAmount > ab.max {
		ab.logger.Info("cap reached, conceding the lead",
			slog.Int64("min_bid", state.MinBidAmount),
			slog.Int64("cap", ab.max),
		)
		return
	}

	result, err := ab.placer.Place(ctx, state.MinBidAmount)
	switch {
	case err == nil:
		ab.logger.Info("counter-bid placed",
			slog.Int64("amount", state.MinBidAmount),
			slog.Bool("accepted", result.Success),
		)
	case errors.Is(err, domain.ErrBidInFlight),
		errors.Is(err, domain.ErrBidTooLow),
		errors.Is(err, domain.ErrBidRejected):
		// Lost a race; the forced refresh brings the next state and with it
		// the next chance to counter.
		ab.logger.Debug("counter-bid not placed", slog.String("reason", err.Error()))
	case errors.Is(err, domain.ErrAuctionEnded), errors.Is(err, domain.ErrAuctionNotStarted):
	default:
		ab.logger.Warn("counter-bid failed",
			slog.Int64("amount", state.MinBidAmount),
			slog.String("error", err.Error()),
		)
	}
}
