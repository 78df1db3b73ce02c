package service

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/campusbid/stallbid/internal/auction"
	s3blob "github.com/campusbid/stallbid/internal/blob/s3"
	"github.com/campusbid/stallbid/internal/domain"
)

type fakeBidStore struct {
	batches [][]domain.Bid
}

func (f *fakeBidStore) UpsertBatch(ctx context.Context, bids []domain.Bid) error {
	f.batches = append(f.batches, bids)
	return nil
}

func (f *fakeBidStore) ListByStall(ctx context.Context, stallID int64, opts domain.ListOpts) ([]domain.Bid, error) {
	return nil, nil
}

func (f *fakeBidStore) HighestByStall(ctx context.Context, stallID int64) (domain.Bid, error) {
	return domain.Bid{}, domain.ErrNotFound
}

func (f *fakeBidStore) Count(ctx context.Context, stallID int64) (int64, error) {
	return 0, nil
}

type fakeBus struct {
	published map[string][][]byte
}

func (f *fakeBus) Publish(ctx context.Context, channel string, payload []byte) error {
	if f.published == nil {
		f.published = make(map[string][][]byte)
	}
	f.published[channel] = append(f.published[channel], payload)
	return nil
}

func (f *fakeBus) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	ch := make(chan []byte)
	close(ch)
	return ch, nil
}

type fakeResultStore struct {
	stored []domain.BiddingResult
}

func (f *fakeResultStore) Upsert(ctx context.Context, res domain.BiddingResult) error {
	f.stored = append(f.stored, res)
	return nil
}

func (f *fakeResultStore) GetByStall(ctx context.Context, stallID int64) (domain.BiddingResult, error) {
	return domain.BiddingResult{}, domain.ErrNotFound
}

func (f *fakeResultStore) ListRecent(ctx context.Context, limit int) ([]domain.BiddingResult, error) {
	return nil, nil
}

type fakeFetcher struct {
	result domain.BiddingResult
	err    error
	calls  int
}

func (f *fakeFetcher) GetResultByStall(ctx context.Context, stallID int64) (domain.BiddingResult, error) {
	f.calls++
	return f.result, f.err
}

type fakeArchiver struct {
	auctions []s3blob.AuctionRecord
	bidLogs  [][]domain.Bid
}

func (f *fakeArchiver) ArchiveAuction(ctx context.Context, rec s3blob.AuctionRecord) (string, error) {
	f.auctions = append(f.auctions, rec)
	return "auctions/7/test.json", nil
}

func (f *fakeArchiver) ArchiveBidLog(ctx context.Context, stallID int64, bids []domain.Bid, month time.Time) (int64, error) {
	f.bidLogs = append(f.bidLogs, bids)
	return int64(len(bids)), nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func readyState(bids ...domain.Bid) auction.ViewState {
	return auction.ViewState{
		Phase: auction.PhaseReady,
		Stall: domain.Stall{
			ID:                7,
			Name:              "Juice Corner",
			BasePrice:         5000,
			CurrentHighestBid: topAmount(bids),
			TotalBids:         len(bids),
			Status:            domain.StallStatusActive,
		},
		History:      bids,
		MinBidAmount: topAmount(bids) + 100,
	}
}

func topAmount(bids []domain.Bid) int64 {
	if len(bids) == 0 {
		return 0
	}
	return bids[0].Amount
}

func TestRecorderArchivesOnlyUnseenBids(t *testing.T) {
	store := &fakeBidStore{}
	rec := NewRecorder(7, RecorderSinks{Bids: store}, testLogger())

	b1 := domain.Bid{ID: 1, StallID: 7, Amount: 5100}
	b2 := domain.Bid{ID: 2, StallID: 7, Amount: 5200}
	synthetic := domain.Bid{ID: -1, StallID: 7, Amount: 5300}

	rec.record(context.Background(), readyState(b1))
	rec.record(context.Background(), readyState(b2, b1))
	rec.record(context.Background(), readyState(synthetic, b2, b1))

	if len(store.batches) != 2 {
		t.Fatalf("batches = %d, want 2", len(store.batches))
	}
	if len(store.batches[0]) != 1 || store.batches[0][0].ID != 1 {
		t.Errorf("first batch = %+v, want bid 1", store.batches[0])
	}
	if len(store.batches[1]) != 1 || store.batches[1][0].ID != 2 {
		t.Errorf("second batch = %+v, want bid 2", store.batches[1])
	}
}

func TestRecorderPublishesStallAndBidEvents(t *testing.T) {
	bus := &fakeBus{}
	rec := NewRecorder(7, RecorderSinks{Bus: bus}, testLogger())

	rec.record(context.Background(), readyState(domain.Bid{ID: 1, StallID: 7, Amount: 5100}))

	if got := len(bus.published["stall:7"]); got != 1 {
		t.Fatalf("stall:7 events = %d, want 1", got)
	}
	if got := len(bus.published["bids"]); got != 1 {
		t.Fatalf("bids events = %d, want 1", got)
	}

	var update map[string]any
	if err := json.Unmarshal(bus.published["stall:7"][0], &update); err != nil {
		t.Fatalf("unmarshal stall update: %v", err)
	}
	if update["event"] != "stall_update" {
		t.Errorf("event = %v, want stall_update", update["event"])
	}
	if update["highest_bid"] != float64(5100) {
		t.Errorf("highest_bid = %v, want 5100", update["highest_bid"])
	}
}

func TestRecorderIgnoresLoadingState(t *testing.T) {
	bus := &fakeBus{}
	store := &fakeBidStore{}
	rec := NewRecorder(7, RecorderSinks{Bus: bus, Bids: store}, testLogger())

	rec.record(context.Background(), auction.NewViewState())

	if len(bus.published) != 0 {
		t.Errorf("published %d channels on loading state, want 0", len(bus.published))
	}
	if len(store.batches) != 0 {
		t.Errorf("archived %d batches on loading state, want 0", len(store.batches))
	}
}

func TestRecorderFinishesOnceOnAuctionEnd(t *testing.T) {
	results := &fakeResultStore{}
	fetcher := &fakeFetcher{result: domain.BiddingResult{
		StallID:    7,
		WinnerName: "Asha",
		WinningBid: 6200,
	}}
	archiver := &fakeArchiver{}
	bus := &fakeBus{}
	rec := NewRecorder(7, RecorderSinks{
		Results:  results,
		Fetcher:  fetcher,
		Archiver: archiver,
		Bus:      bus,
	}, testLogger())

	bid := domain.Bid{ID: 3, StallID: 7, Amount: 6200}
	rec.record(context.Background(), readyState(bid))

	ended := readyState(bid)
	ended.Phase = auction.PhaseEnded
	rec.record(context.Background(), ended)
	rec.record(context.Background(), ended)

	if fetcher.calls != 1 {
		t.Errorf("result fetches = %d, want 1", fetcher.calls)
	}
	if len(results.stored) != 1 || results.stored[0].WinnerName != "Asha" {
		t.Errorf("stored results = %+v, want one by Asha", results.stored)
	}
	if len(archiver.auctions) != 1 {
		t.Fatalf("archived auctions = %d, want 1", len(archiver.auctions))
	}
	if archiver.auctions[0].Result == nil || archiver.auctions[0].Result.WinningBid != 6200 {
		t.Errorf("archived result = %+v, want winning bid 6200", archiver.auctions[0].Result)
	}
	if len(archiver.bidLogs) != 1 || len(archiver.bidLogs[0]) != 1 {
		t.Errorf("bid logs = %+v, want one log with one bid", archiver.bidLogs)
	}
	if got := len(bus.published["results"]); got != 1 {
		t.Errorf("results events = %d, want 1", got)
	}
}

func TestRecorderToleratesMissingResult(t *testing.T) {
	results := &fakeResultStore{}
	fetcher := &fakeFetcher{err: domain.ErrNotFound}
	archiver := &fakeArchiver{}
	rec := NewRecorder(7, RecorderSinks{
		Results:  results,
		Fetcher:  fetcher,
		Archiver: archiver,
	}, testLogger())

	ended := readyState(domain.Bid{ID: 4, StallID: 7, Amount: 5500})
	ended.Phase = auction.PhaseEnded
	rec.record(context.Background(), ended)

	if len(results.stored) != 0 {
		t.Errorf("stored %d results, want 0", len(results.stored))
	}
	if len(archiver.auctions) != 1 {
		t.Fatalf("archived auctions = %d, want 1", len(archiver.auctions))
	}
	if archiver.auctions[0].Result != nil {
		t.Errorf("archived result = %+v, want nil", archiver.auctions[0].Result)
	}
}
