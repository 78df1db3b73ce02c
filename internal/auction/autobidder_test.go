package auction

import (
	"context"
	"testing"

	"github.com/campusbid/stallbid/internal/domain"
)

// recordingPlacer captures the amounts handed to Place.
type recordingPlacer struct {
	amounts []int64
	err     error
}

func (p *recordingPlacer) Place(ctx context.Context, amount int64) (domain.BidResult, error) {
	p.amounts = append(p.amounts, amount)
	return domain.BidResult{Success: true}, p.err
}

func contested(minBid, leader int64) ViewState {
	return ViewState{
		Phase:        PhaseReady,
		MinBidAmount: minBid,
		History:      []domain.Bid{{ID: 5, BidderID: leader, Amount: minBid - 100}},
	}
}

func TestAutoBidderCountersWhenOutbid(t *testing.T) {
	placer := &recordingPlacer{}
	ab := NewAutoBidder(placer, 21, 10_000, discardLogger())

	ab.react(context.Background(), contested(8600, 33))

	if len(placer.amounts) != 1 || placer.amounts[0] != 8600 {
		t.Fatalf("placed %v, want one bid of 8600", placer.amounts)
	}
}

func TestAutoBidderStaysQuietWhileLeading(t *testing.T) {
	placer := &recordingPlacer{}
	ab := NewAutoBidder(placer, 21, 10_000, discardLogger())

	ab.react(context.Background(), contested(8600, 21))

	if len(placer.amounts) != 0 {
		t.Fatalf("placed %v while leading, want none", placer.amounts)
	}
}

func TestAutoBidderNeverOpensTheBidding(t *testing.T) {
	placer := &recordingPlacer{}
	ab := NewAutoBidder(placer, 21, 10_000, discardLogger())

	ab.react(context.Background(), ViewState{Phase: PhaseReady, MinBidAmount: 5100})

	if len(placer.amounts) != 0 {
		t.Fatalf("placed %v on an empty history, want none", placer.amounts)
	}
}

func TestAutoBidderRespectsCap(t *testing.T) {
	placer := &recordingPlacer{}
	ab := NewAutoBidder(placer, 21, 8_500, discardLogger())

	ab.react(context.Background(), contested(8600, 33))

	if len(placer.amounts) != 0 {
		t.Fatalf("placed %v above the cap, want none", placer.amounts)
	}
}

func TestAutoBidderIgnoresNonReadyPhases(t *testing.T) {
	placer := &recordingPlacer{}
	ab := NewAutoBidder(placer, 21, 10_000, discardLogger())

	ended := contested(8600, 33)
	ended.Phase = PhaseEnded
	ab.react(context.Background(), ended)

	notStarted := contested(8600, 33)
	notStarted.Phase = PhaseNotStarted
	ab.react(context.Background(), notStarted)

	if len(placer.amounts) != 0 {
		t.Fatalf("placed %v outside READY, want none", placer.amounts)
	}
}

func TestAutoBidderSwallowsRaceErrors(t *testing.T) {
	placer := &recordingPlacer{err: domain.ErrBidInFlight}
	ab := NewAutoBidder(placer, 21, 10_000, discardLogger())

	ab.react(context.Background(), contested(8600, 33))
	ab.react(context.Background(), contested(8700, 33))

	if len(placer.amounts) != 2 {
		t.Fatalf("placed %v, want it to keep trying across updates", placer.amounts)
	}
}
