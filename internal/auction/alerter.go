package auction

import (
	"context"
	"fmt"
	"log/slog"
)

// Notifier delivers an alert on an external channel.
type Notifier interface {
	Notify(ctx context.Context, event, title, message string) error
}

// Alert event names, matched against the configured notify event filter.
const (
	EventOutbid        = "outbid"
	EventAuctionEnding = "auction_ending"
	EventAuctionEnded  = "auction_ended"
)

// Alerter consumes the stream of view states for one stall and raises
// notifications on the transitions a bidder cares about: losing the lead,
// the window entering its final hour, and the auction ending.
type Alerter struct {
	notifier Notifier
	bidderID int64
	logger   *slog.Logger

	prev         ViewState
	warnedEnding bool
}

// NewAlerter creates an Alerter for the given bidder. bidderID may be zero
// for a pure observer; outbid alerts are then suppressed.
func NewAlerter(notifier Notifier, bidderID int64, logger *slog.Logger) *Alerter {
	return &Alerter{
		notifier: notifier,
		bidderID: bidderID,
		logger:   logger.With(slog.String("component", "alerter")),
		prev:     NewViewState(),
	}
}

// Run consumes updates until the channel closes or ctx is cancelled.
func (a *Alerter) Run(ctx context.Context, updates <-chan ViewState) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case state, ok := <-updates:
			if !ok {
				return nil
			}
			a.observe(ctx, state)
		}
	}
}

// observe diffs the new state against the previous one and emits alerts.
func (a *Alerter) observe(ctx context.Context, state ViewState) {
	defer func() { a.prev = state }()

	if a.prev.Phase == PhaseLoading {
		return
	}

	stall := state.Stall

	// Outbid: we held the lead and no longer do.
	if a.bidderID != 0 &&
		a.prev.LeadingBidder() == a.bidderID &&
		state.LeadingBidder() != a.bidderID &&
		state.LeadingBidder() != 0 {
		a.send(ctx, EventOutbid,
			fmt.Sprintf("Outbid on %s", stall.Name),
			fmt.Sprintf("%s is leading at %d (minimum next bid %d)",
				state.History[0].BidderName, state.HighestBid(), state.MinBidAmount))
	}

	// Final hour, once per watch.
	if !a.warnedEnding && state.Phase == PhaseReady && state.Countdown.Urgent {
		a.warnedEnding = true
		a.send(ctx, EventAuctionEnding,
			fmt.Sprintf("Auction ending soon: %s", stall.Name),
			fmt.Sprintf("%s left, highest bid %d", state.Countdown.Display, state.HighestBid()))
	}

	// Terminal transition.
	if a.prev.Phase != PhaseEnded && state.Phase == PhaseEnded {
		msg := fmt.Sprintf("final bid %d after %d bids", state.HighestBid(), stall.TotalBids)
		if stall.Winner != nil {
			msg = fmt.Sprintf("won by %s at %d", stall.Winner.Name, state.HighestBid())
		}
		a.send(ctx, EventAuctionEnded,
			fmt.Sprintf("Auction ended: %s", stall.Name), msg)
	}
}

func (a *Alerter) send(ctx context.Context, event, title, message string) {
	if a.notifier == nil {
		return
	}
	if err := a.notifier.Notify(ctx, event, title, message); err != nil {
		a.logger.Warn("alert delivery failed",
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
	}
}
