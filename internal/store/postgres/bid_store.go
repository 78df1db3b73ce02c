package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campusbid/stallbid/internal/domain"
)

// BidStore implements domain.BidStore using PostgreSQL.
type BidStore struct {
	pool *pgxpool.Pool
}

// NewBidStore creates a new BidStore backed by the given connection pool.
func NewBidStore(pool *pgxpool.Pool) *BidStore {
	return &BidStore{pool: pool}
}

const bidSelectCols = `bid_id, stall_id, stall_name, bidder_id, bidder_name,
	amount, status, bid_rank, placed_at`

func scanBidRows(rows pgx.Rows) ([]domain.Bid, error) {
	var bids []domain.Bid
	for rows.Next() {
		var b domain.Bid
		if err := rows.Scan(
			&b.ID, &b.StallID, &b.StallName, &b.BidderID, &b.BidderName,
			&b.Amount, &b.Status, &b.Rank, &b.PlacedAt,
		); err != nil {
			return nil, err
		}
		bids = append(bids, b)
	}
	return bids, rows.Err()
}

// UpsertBatch archives a batch of bids using pgx Batch. Re-archiving an
// already-seen bid updates its status and rank, so a bid that goes from
// ACTIVE to OUTBID is reflected on the next sync. Bids with synthesized
// (non-positive) IDs are skipped: they have no stable identity to key on.
func (s *BidStore) UpsertBatch(ctx context.Context, bids []domain.Bid) error {
	batch := &pgx.Batch{}
	const query = `
		INSERT INTO bids (
			bid_id, stall_id, stall_name, bidder_id, bidder_name,
			amount, status, bid_rank, placed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (bid_id) DO UPDATE SET
			status = EXCLUDED.status,
			bid_rank = EXCLUDED.bid_rank`

	queued := 0
	for _, b := range bids {
		if b.ID <= 0 {
			continue
		}
		batch.Queue(query,
			b.ID, b.StallID, b.StallName, b.BidderID, b.BidderName,
			b.Amount, b.Status, b.Rank, b.PlacedAt,
		)
		queued++
	}
	if queued == 0 {
		return nil
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < queued; i++ {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("postgres: upsert bid batch (item %d): %w", i, err)
		}
	}
	return nil
}

// ListByStall returns archived bids for a stall, highest amount first.
func (s *BidStore) ListByStall(ctx context.Context, stallID int64, opts domain.ListOpts) ([]domain.Bid, error) {
	query := `SELECT ` + bidSelectCols + ` FROM bids WHERE stall_id = $1`
	args := []any{stallID}

	if opts.Since != nil {
		args = append(args, *opts.Since)
		query += fmt.Sprintf(" AND placed_at >= $%d", len(args))
	}
	if opts.Until != nil {
		args = append(args, *opts.Until)
		query += fmt.Sprintf(" AND placed_at < $%d", len(args))
	}

	query += " ORDER BY amount DESC, placed_at DESC"

	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if opts.Offset > 0 {
		args = append(args, opts.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list bids for stall %d: %w", stallID, err)
	}
	defer rows.Close()

	bids, err := scanBidRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan bids for stall %d: %w", stallID, err)
	}
	return bids, nil
}

// HighestByStall returns the highest archived bid for a stall. It returns
// domain.ErrNotFound when no bids have been archived for it.
func (s *BidStore) HighestByStall(ctx context.Context, stallID int64) (domain.Bid, error) {
	query := `SELECT ` + bidSelectCols + ` FROM bids
		WHERE stall_id = $1
		ORDER BY amount DESC, placed_at DESC
		LIMIT 1`

	var b domain.Bid
	err := s.pool.QueryRow(ctx, query, stallID).Scan(
		&b.ID, &b.StallID, &b.StallName, &b.BidderID, &b.BidderName,
		&b.Amount, &b.Status, &b.Rank, &b.PlacedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Bid{}, domain.ErrNotFound
		}
		return domain.Bid{}, fmt.Errorf("postgres: highest bid for stall %d: %w", stallID, err)
	}
	return b, nil
}

// Count returns the number of archived bids for a stall.
func (s *BidStore) Count(ctx context.Context, stallID int64) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM bids WHERE stall_id = $1", stallID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("postgres: count bids for stall %d: %w", stallID, err)
	}
	return count, nil
}

// Compile-time interface check.
var _ domain.BidStore = (*BidStore)(nil)
