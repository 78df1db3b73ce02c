package s3blob

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/campusbid/stallbid/internal/domain"
)

type capturedPut struct {
	path        string
	contentType string
	body        []byte
}

type fakeWriter struct {
	puts []capturedPut
}

func (w *fakeWriter) Put(ctx context.Context, path string, data io.Reader, contentType string) error {
	body, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	w.puts = append(w.puts, capturedPut{path: path, contentType: contentType, body: body})
	return nil
}

func TestArchiveAuctionWritesTimestampedKey(t *testing.T) {
	w := &fakeWriter{}
	arch := NewAuctionArchiver(w)

	at := time.Date(2025, 3, 1, 18, 0, 15, 0, time.UTC)
	rec := AuctionRecord{
		Stall: domain.Stall{ID: 7, Name: "North Lawn 12", CurrentHighestBid: 9200, Status: domain.StallStatusClosed},
		History: []domain.Bid{
			{ID: 41, BidderName: "Priya", Amount: 9200, Rank: 1},
		},
		ArchivedAt: at,
	}

	path, err := arch.ArchiveAuction(context.Background(), rec)
	if err != nil {
		t.Fatal(err)
	}
	if path != "auctions/7/20250301T180015Z.json" {
		t.Errorf("path = %q", path)
	}
	if len(w.puts) != 1 {
		t.Fatalf("puts = %d", len(w.puts))
	}
	if w.puts[0].contentType != "application/json" {
		t.Errorf("content type = %q", w.puts[0].contentType)
	}

	var got AuctionRecord
	if err := json.Unmarshal(w.puts[0].body, &got); err != nil {
		t.Fatal(err)
	}
	if got.Stall.ID != 7 || len(got.History) != 1 || got.History[0].Amount != 9200 {
		t.Errorf("archived record = %+v", got)
	}
}

func TestArchiveBidLogSkipsEmptyBatch(t *testing.T) {
	w := &fakeWriter{}
	arch := NewAuctionArchiver(w)

	n, err := arch.ArchiveBidLog(context.Background(), 7, nil, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 || len(w.puts) != 0 {
		t.Errorf("empty batch still uploaded: n=%d puts=%d", n, len(w.puts))
	}
}

func TestArchiveBidLogWritesJSONL(t *testing.T) {
	w := &fakeWriter{}
	arch := NewAuctionArchiver(w)

	bids := []domain.Bid{
		{ID: 41, Amount: 8500},
		{ID: 42, Amount: 8600},
	}
	month := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	n, err := arch.ArchiveBidLog(context.Background(), 7, bids, month)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("n = %d", n)
	}
	if w.puts[0].path != "archive/bids/7/2025-03.jsonl" {
		t.Errorf("path = %q", w.puts[0].path)
	}
	lines := strings.Split(strings.TrimSpace(string(w.puts[0].body)), "\n")
	if len(lines) != 2 {
		t.Errorf("jsonl lines = %d", len(lines))
	}
}

type fakeReader struct {
	infos []domain.BlobInfo
	blobs map[string]string
	gets  []string
}

func (r *fakeReader) Get(ctx context.Context, path string) (io.ReadCloser, error) {
	r.gets = append(r.gets, path)
	body, ok := r.blobs[path]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

func (r *fakeReader) List(ctx context.Context, prefix string) ([]domain.BlobInfo, error) {
	var out []domain.BlobInfo
	for _, info := range r.infos {
		if strings.HasPrefix(info.Path, prefix) {
			out = append(out, info)
		}
	}
	return out, nil
}

func TestLatestAuctionPicksNewestArchive(t *testing.T) {
	newest := `{"stall":{"ID":7,"Name":"North Lawn 12"},"history":[{"ID":41,"Amount":9200}]}`
	r := &fakeReader{
		infos: []domain.BlobInfo{
			{Path: "auctions/7/20250101T090000Z.json"},
			{Path: "auctions/7/20250301T180015Z.json"},
			{Path: "auctions/7/20250215T120000Z.json"},
			{Path: "auctions/9/20260101T000000Z.json"},
		},
		blobs: map[string]string{
			"auctions/7/20250301T180015Z.json": newest,
		},
	}
	arch := NewAuctionArchiver(&fakeWriter{}).WithReader(r)

	rec, err := arch.LatestAuction(context.Background(), 7)
	if err != nil {
		t.Fatal(err)
	}
	if len(r.gets) != 1 || r.gets[0] != "auctions/7/20250301T180015Z.json" {
		t.Errorf("gets = %v", r.gets)
	}
	if rec.Stall.ID != 7 || len(rec.History) != 1 || rec.History[0].Amount != 9200 {
		t.Errorf("record = %+v", rec)
	}
}

func TestLatestAuctionWithoutArchives(t *testing.T) {
	arch := NewAuctionArchiver(&fakeWriter{}).WithReader(&fakeReader{})

	_, err := arch.LatestAuction(context.Background(), 7)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestListAuctionArchivesScopedToStall(t *testing.T) {
	r := &fakeReader{
		infos: []domain.BlobInfo{
			{Path: "auctions/7/20250101T090000Z.json", Size: 812},
			{Path: "auctions/71/20250101T090000Z.json"},
		},
	}
	arch := NewAuctionArchiver(&fakeWriter{}).WithReader(r)

	infos, err := arch.ListAuctionArchives(context.Background(), 7)
	if err != nil {
		t.Fatal(err)
	}
	if len(infos) != 1 || infos[0].Path != "auctions/7/20250101T090000Z.json" {
		t.Errorf("infos = %+v", infos)
	}
}
