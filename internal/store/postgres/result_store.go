package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campusbid/stallbid/internal/domain"
)

// ResultStore implements domain.ResultStore using PostgreSQL.
type ResultStore struct {
	pool *pgxpool.Pool
}

// NewResultStore creates a new ResultStore backed by the given connection pool.
func NewResultStore(pool *pgxpool.Pool) *ResultStore {
	return &ResultStore{pool: pool}
}

const resultSelectCols = `result_id, stall_id, stall_name, stall_no,
	winner_id, winner_name, winner_email, winning_bid, base_price,
	total_bids, payment, declared_at, closed_at`

// Upsert archives a declared auction outcome. A stall has at most one
// result; re-archiving replaces the stored row, so a payment status change
// is picked up on the next sync.
func (s *ResultStore) Upsert(ctx context.Context, res domain.BiddingResult) error {
	const query = `
		INSERT INTO results (
			result_id, stall_id, stall_name, stall_no,
			winner_id, winner_name, winner_email, winning_bid, base_price,
			total_bids, payment, declared_at, closed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (stall_id) DO UPDATE SET
			winner_id = EXCLUDED.winner_id,
			winner_name = EXCLUDED.winner_name,
			winner_email = EXCLUDED.winner_email,
			winning_bid = EXCLUDED.winning_bid,
			total_bids = EXCLUDED.total_bids,
			payment = EXCLUDED.payment,
			declared_at = EXCLUDED.declared_at,
			closed_at = EXCLUDED.closed_at`

	_, err := s.pool.Exec(ctx, query,
		res.ID, res.StallID, res.StallName, res.StallNumber,
		res.WinnerID, res.WinnerName, res.WinnerEmail, res.WinningBid, res.BasePrice,
		res.TotalBids, res.Payment, res.DeclaredAt, res.ClosedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: upsert result for stall %d: %w", res.StallID, err)
	}
	return nil
}

// GetByStall returns the archived result for a stall, or domain.ErrNotFound.
func (s *ResultStore) GetByStall(ctx context.Context, stallID int64) (domain.BiddingResult, error) {
	query := `SELECT ` + resultSelectCols + ` FROM results WHERE stall_id = $1`

	var r domain.BiddingResult
	err := s.pool.QueryRow(ctx, query, stallID).Scan(
		&r.ID, &r.StallID, &r.StallName, &r.StallNumber,
		&r.WinnerID, &r.WinnerName, &r.WinnerEmail, &r.WinningBid, &r.BasePrice,
		&r.TotalBids, &r.Payment, &r.DeclaredAt, &r.ClosedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.BiddingResult{}, domain.ErrNotFound
		}
		return domain.BiddingResult{}, fmt.Errorf("postgres: result for stall %d: %w", stallID, err)
	}
	return r, nil
}

// ListRecent returns the most recently declared results.
func (s *ResultStore) ListRecent(ctx context.Context, limit int) ([]domain.BiddingResult, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT ` + resultSelectCols + ` FROM results
		ORDER BY declared_at DESC
		LIMIT $1`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list recent results: %w", err)
	}
	defer rows.Close()

	var results []domain.BiddingResult
	for rows.Next() {
		var r domain.BiddingResult
		if err := rows.Scan(
			&r.ID, &r.StallID, &r.StallName, &r.StallNumber,
			&r.WinnerID, &r.WinnerName, &r.WinnerEmail, &r.WinningBid, &r.BasePrice,
			&r.TotalBids, &r.Payment, &r.DeclaredAt, &r.ClosedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan result: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list recent results: %w", err)
	}
	return results, nil
}

// Compile-time interface check.
var _ domain.ResultStore = (*ResultStore)(nil)
