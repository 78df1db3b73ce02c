package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/campusbid/stallbid/internal/domain"
)

// errNoReader is returned by the read-back methods of an archiver built
// without a reader.
var errNoReader = errors.New("s3blob: archiver has no reader configured")

// AuctionRecord is the cold-storage artifact written when an auction closes:
// the final stall snapshot, the full bid history as observed, and the
// declared result when one is available.
type AuctionRecord struct {
	Stall      domain.Stall          `json:"stall"`
	History    []domain.Bid          `json:"history"`
	Result     *domain.BiddingResult `json:"result,omitempty"`
	ArchivedAt time.Time             `json:"archivedAt"`
}

// AuctionArchiver uploads closed-auction records and bid-log dumps to the
// blob store, and reads them back for the dashboard. Archives are
// write-once; a re-archive of the same auction lands under a new
// timestamped key rather than overwriting.
type AuctionArchiver struct {
	writer domain.BlobWriter
	reader domain.BlobReader
}

// NewAuctionArchiver creates an AuctionArchiver backed by the given writer.
func NewAuctionArchiver(writer domain.BlobWriter) *AuctionArchiver {
	return &AuctionArchiver{writer: writer}
}

// WithReader attaches a blob reader, enabling the archive read-back
// methods. Returns the archiver for chaining.
func (a *AuctionArchiver) WithReader(reader domain.BlobReader) *AuctionArchiver {
	a.reader = reader
	return a
}

// ArchiveAuction serializes the record and uploads it under
// auctions/{stallID}/{timestamp}.json. It returns the object key.
func (a *AuctionArchiver) ArchiveAuction(ctx context.Context, rec AuctionRecord) (string, error) {
	if rec.ArchivedAt.IsZero() {
		rec.ArchivedAt = time.Now().UTC()
	}

	buf, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", fmt.Errorf("s3blob: archive auction %d marshal: %w", rec.Stall.ID, err)
	}

	path := auctionPath(rec.Stall.ID, rec.ArchivedAt)
	if err := a.writer.Put(ctx, path, bytes.NewReader(buf), "application/json"); err != nil {
		return "", fmt.Errorf("s3blob: archive auction %d upload: %w", rec.Stall.ID, err)
	}
	return path, nil
}

// ArchiveBidLog uploads a JSONL dump of bids for one stall, partitioned by
// the month the dump covers. It returns the number of records written; an
// empty batch uploads nothing.
func (a *AuctionArchiver) ArchiveBidLog(ctx context.Context, stallID int64, bids []domain.Bid, month time.Time) (int64, error) {
	if len(bids) == 0 {
		return 0, nil
	}

	buf, err := marshalJSONL(bids)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive bid log %d marshal: %w", stallID, err)
	}

	path := fmt.Sprintf("archive/bids/%d/%s.jsonl", stallID, month.Format("2006-01"))
	if err := a.writer.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson"); err != nil {
		return 0, fmt.Errorf("s3blob: archive bid log %d upload: %w", stallID, err)
	}
	return int64(len(bids)), nil
}

// ListAuctionArchives returns metadata for every archived record of one
// stall. Keys embed the archive timestamp, so lexical order of the paths is
// chronological.
func (a *AuctionArchiver) ListAuctionArchives(ctx context.Context, stallID int64) ([]domain.BlobInfo, error) {
	if a.reader == nil {
		return nil, errNoReader
	}
	infos, err := a.reader.List(ctx, fmt.Sprintf("auctions/%d/", stallID))
	if err != nil {
		return nil, fmt.Errorf("s3blob: list archives %d: %w", stallID, err)
	}
	return infos, nil
}

// LatestAuction loads the most recently archived record for one stall.
// Returns domain.ErrNotFound when the stall has never been archived.
func (a *AuctionArchiver) LatestAuction(ctx context.Context, stallID int64) (AuctionRecord, error) {
	var rec AuctionRecord
	if a.reader == nil {
		return rec, errNoReader
	}

	infos, err := a.ListAuctionArchives(ctx, stallID)
	if err != nil {
		return rec, err
	}
	var latest string
	for _, info := range infos {
		if strings.HasSuffix(info.Path, ".json") && info.Path > latest {
			latest = info.Path
		}
	}
	if latest == "" {
		return rec, fmt.Errorf("s3blob: latest auction %d: %w", stallID, domain.ErrNotFound)
	}

	body, err := a.reader.Get(ctx, latest)
	if err != nil {
		return rec, fmt.Errorf("s3blob: latest auction %d read %s: %w", stallID, latest, err)
	}
	defer body.Close()

	if err := json.NewDecoder(body).Decode(&rec); err != nil {
		return rec, fmt.Errorf("s3blob: latest auction %d decode %s: %w", stallID, latest, err)
	}
	return rec, nil
}

// auctionPath builds the S3 key for a closed-auction record.
//
//	auctions/7/20250301T180015Z.json
func auctionPath(stallID int64, at time.Time) string {
	return fmt.Sprintf("auctions/%d/%s.json", stallID, at.UTC().Format("20060102T150405Z"))
}

// marshalJSONL serialises a slice of values as newline-delimited JSON (JSONL).
// Each element is marshalled as a single compact JSON line followed by '\n'.
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}
