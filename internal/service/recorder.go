// Package service holds the sinks that turn watched auction state into
// side effects: cache writes, archive rows, pub/sub events, and the final
// blob record when an auction closes.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/campusbid/stallbid/internal/auction"
	s3blob "github.com/campusbid/stallbid/internal/blob/s3"
	"github.com/campusbid/stallbid/internal/domain"
)

// ResultFetcher loads the declared outcome for a closed stall from the
// backend.
type ResultFetcher interface {
	GetResultByStall(ctx context.Context, stallID int64) (domain.BiddingResult, error)
}

// Archiver writes the final auction record and the bid log to blob storage.
type Archiver interface {
	ArchiveAuction(ctx context.Context, rec s3blob.AuctionRecord) (string, error)
	ArchiveBidLog(ctx context.Context, stallID int64, bids []domain.Bid, month time.Time) (int64, error)
}

// Recorder consumes the view-state stream of one watched stall and records
// it: stall snapshots go to the cache, newly observed bids to the bid store,
// and every update onto the signal bus. When the auction ends it fetches the
// declared result, stores it, and writes the final record to blob storage.
//
// Every sink is optional; a nil sink disables that side effect, so the
// recorder degrades cleanly when Redis, Postgres, or S3 are not configured.
// Sink errors are logged and never interrupt the watch.
type Recorder struct {
	stallID  int64
	cache    domain.StallCache
	bids     domain.BidStore
	results  domain.ResultStore
	bus      domain.SignalBus
	fetcher  ResultFetcher
	archiver Archiver
	logger   *slog.Logger

	seenBids map[int64]bool
	allBids  []domain.Bid
	finished bool
}

// RecorderSinks bundles the optional destinations a Recorder writes to.
type RecorderSinks struct {
	Cache    domain.StallCache
	Bids     domain.BidStore
	Results  domain.ResultStore
	Bus      domain.SignalBus
	Fetcher  ResultFetcher
	Archiver Archiver
}

// NewRecorder creates a Recorder for the given stall.
func NewRecorder(stallID int64, sinks RecorderSinks, logger *slog.Logger) *Recorder {
	return &Recorder{
		stallID:  stallID,
		cache:    sinks.Cache,
		bids:     sinks.Bids,
		results:  sinks.Results,
		bus:      sinks.Bus,
		fetcher:  sinks.Fetcher,
		archiver: sinks.Archiver,
		logger:   logger.With(slog.String("component", "recorder"), slog.Int64("stall_id", stallID)),
		seenBids: make(map[int64]bool),
	}
}

// Run consumes updates until the channel closes or ctx is cancelled.
func (r *Recorder) Run(ctx context.Context, updates <-chan auction.ViewState) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case state, ok := <-updates:
			if !ok {
				return nil
			}
			r.record(ctx, state)
		}
	}
}

// record applies one view state to every configured sink.
func (r *Recorder) record(ctx context.Context, state auction.ViewState) {
	if state.Phase == auction.PhaseLoading {
		return
	}

	if r.cache != nil && state.Stall.ID != 0 {
		if err := r.cache.Set(ctx, state.Stall); err != nil {
			r.logger.WarnContext(ctx, "recorder: cache stall failed",
				slog.String("error", err.Error()),
			)
		}
	}

	r.recordBids(ctx, state.History)
	r.publishUpdate(ctx, state)

	if state.Phase == auction.PhaseEnded && !r.finished {
		r.finished = true
		r.finish(ctx, state)
	}
}

// recordBids archives history entries not seen before and announces them on
// the bus. Synthesized bid IDs (non-positive) have no stable identity and
// are skipped.
func (r *Recorder) recordBids(ctx context.Context, history []domain.Bid) {
	var fresh []domain.Bid
	for _, b := range history {
		if b.ID <= 0 || r.seenBids[b.ID] {
			continue
		}
		r.seenBids[b.ID] = true
		fresh = append(fresh, b)
	}
	if len(fresh) == 0 {
		return
	}
	r.allBids = append(r.allBids, fresh...)

	if r.bids != nil {
		if err := r.bids.UpsertBatch(ctx, fresh); err != nil {
			r.logger.WarnContext(ctx, "recorder: archive bids failed",
				slog.Int("count", len(fresh)),
				slog.String("error", err.Error()),
			)
		}
	}

	if r.bus != nil {
		for _, b := range fresh {
			evt, _ := json.Marshal(map[string]any{
				"event":       "bid",
				"stall_id":    b.StallID,
				"bid_id":      b.ID,
				"bidder_name": b.BidderName,
				"amount":      b.Amount,
				"placed_at":   b.PlacedAt.Format(time.RFC3339Nano),
			})
			if err := r.bus.Publish(ctx, "bids", evt); err != nil {
				r.logger.WarnContext(ctx, "recorder: publish bid event failed",
					slog.String("error", err.Error()),
				)
				break
			}
		}
	}
}

// publishUpdate announces the new view state on the stall's own channel.
func (r *Recorder) publishUpdate(ctx context.Context, state auction.ViewState) {
	if r.bus == nil {
		return
	}
	evt, _ := json.Marshal(map[string]any{
		"event":       "stall_update",
		"stall_id":    r.stallID,
		"phase":       string(state.Phase),
		"highest_bid": state.HighestBid(),
		"min_bid":     state.MinBidAmount,
		"total_bids":  state.Stall.TotalBids,
		"countdown":   state.Countdown.Display,
	})
	channel := fmt.Sprintf("stall:%d", r.stallID)
	if err := r.bus.Publish(ctx, channel, evt); err != nil {
		r.logger.WarnContext(ctx, "recorder: publish stall update failed",
			slog.String("error", err.Error()),
		)
	}
}

// finish records the terminal state of the auction: the declared result,
// the blob archive of the full auction, and the monthly bid log.
func (r *Recorder) finish(ctx context.Context, state auction.ViewState) {
	result := r.fetchResult(ctx)

	if r.results != nil && result != nil {
		if err := r.results.Upsert(ctx, *result); err != nil {
			r.logger.WarnContext(ctx, "recorder: store result failed",
				slog.String("error", err.Error()),
			)
		}
	}

	if r.bus != nil && result != nil {
		evt, _ := json.Marshal(map[string]any{
			"event":       "result_declared",
			"stall_id":    result.StallID,
			"winner_name": result.WinnerName,
			"winning_bid": result.WinningBid,
		})
		if err := r.bus.Publish(ctx, "results", evt); err != nil {
			r.logger.WarnContext(ctx, "recorder: publish result failed",
				slog.String("error", err.Error()),
			)
		}
	}

	if r.archiver != nil {
		rec := s3blob.AuctionRecord{
			Stall:      state.Stall,
			History:    state.History,
			Result:     result,
			ArchivedAt: time.Now().UTC(),
		}
		key, err := r.archiver.ArchiveAuction(ctx, rec)
		if err != nil {
			r.logger.WarnContext(ctx, "recorder: archive auction failed",
				slog.String("error", err.Error()),
			)
		} else {
			r.logger.InfoContext(ctx, "recorder: auction archived", slog.String("key", key))
		}

		month := time.Now().UTC()
		if state.Stall.BiddingEnd != nil {
			month = *state.Stall.BiddingEnd
		}
		if _, err := r.archiver.ArchiveBidLog(ctx, r.stallID, r.allBids, month); err != nil {
			r.logger.WarnContext(ctx, "recorder: archive bid log failed",
				slog.String("error", err.Error()),
			)
		}
	}
}

// fetchResult loads the declared outcome, tolerating backends that have not
// declared one yet.
func (r *Recorder) fetchResult(ctx context.Context) *domain.BiddingResult {
	if r.fetcher == nil {
		return nil
	}
	result, err := r.fetcher.GetResultByStall(ctx, r.stallID)
	if err != nil {
		r.logger.WarnContext(ctx, "recorder: fetch result failed",
			slog.String("error", err.Error()),
		)
		return nil
	}
	return &result
}
