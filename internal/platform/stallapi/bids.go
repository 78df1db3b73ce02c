package stallapi

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/campusbid/stallbid/internal/domain"
)

// PlaceBid submits a bid. The backend is the sole arbiter of acceptance: a
// BidResult with Success false (or a non-2xx status) means rejection, and
// the backend's message is preserved verbatim in the wrap so callers can
// surface it unchanged.
func (c *Client) PlaceBid(ctx context.Context, req domain.BidRequest) (domain.BidResult, error) {
	body := map[string]any{
		"stallId":     req.StallID,
		"bidderId":    req.BidderID,
		"biddedPrice": req.Amount,
	}

	var api apiBidResult
	if err := c.postJSON(ctx, "/bids/place", body, &api); err != nil {
		return domain.BidResult{}, fmt.Errorf("place bid: %w", err)
	}

	result := api.toDomain()
	if !result.Success {
		return result, fmt.Errorf("place bid: %s: %w", result.Message, domain.ErrBidRejected)
	}
	return result, nil
}

// GetBidHistory returns the accepted bids for a stall, newest first as the
// backend reports them. Malformed records are dropped with a logged reason
// rather than failing the whole fetch.
func (c *Client) GetBidHistory(ctx context.Context, stallID int64) ([]domain.Bid, error) {
	var apiBids []apiBid
	if err := c.getJSON(ctx, fmt.Sprintf("/bids/stall/%d/history", stallID), &apiBids); err != nil {
		return nil, fmt.Errorf("bid history for stall %d: %w", stallID, err)
	}
	return normalizeBids(apiBids, c.logger), nil
}

// normalizeBids converts raw history records into domain bids, dropping any
// record that fails validation.
func normalizeBids(records []apiBid, logger *slog.Logger) []domain.Bid {
	bids := make([]domain.Bid, 0, len(records))
	for i := range records {
		bid, err := records[i].toDomain(i)
		if err != nil {
			if logger != nil {
				logger.Warn("dropping malformed bid record",
					slog.Int("index", i),
					slog.String("reason", err.Error()),
				)
			}
			continue
		}
		bids = append(bids, bid)
	}
	return bids
}

// GetHighestBid returns the current highest bid amount and bidder name for a
// stall.
func (c *Client) GetHighestBid(ctx context.Context, stallID int64) (int64, string, error) {
	var resp struct {
		Amount     flexAmount `json:"amount"`
		BidderName string     `json:"bidderName"`
	}
	if err := c.getJSON(ctx, fmt.Sprintf("/bids/stall/%d/highest", stallID), &resp); err != nil {
		return 0, "", fmt.Errorf("highest bid for stall %d: %w", stallID, err)
	}
	return int64(resp.Amount), resp.BidderName, nil
}

// GetTotalBids returns the number of accepted bids for a stall.
func (c *Client) GetTotalBids(ctx context.Context, stallID int64) (int, error) {
	var resp struct {
		Count int `json:"count"`
	}
	if err := c.getJSON(ctx, fmt.Sprintf("/bids/stall/%d/count", stallID), &resp); err != nil {
		return 0, fmt.Errorf("bid count for stall %d: %w", stallID, err)
	}
	return resp.Count, nil
}

// GetMyBids returns all bids placed by the given user.
func (c *Client) GetMyBids(ctx context.Context, userID int64) ([]domain.Bid, error) {
	var apiBids []apiBid
	if err := c.getJSON(ctx, fmt.Sprintf("/bids/user/%d", userID), &apiBids); err != nil {
		return nil, fmt.Errorf("bids for user %d: %w", userID, err)
	}
	return normalizeBids(apiBids, c.logger), nil
}

// GetWinningBids returns the user's bids that won their auctions.
func (c *Client) GetWinningBids(ctx context.Context, userID int64) ([]domain.Bid, error) {
	var apiBids []apiBid
	if err := c.getJSON(ctx, fmt.Sprintf("/bids/user/%d/won", userID), &apiBids); err != nil {
		return nil, fmt.Errorf("winning bids for user %d: %w", userID, err)
	}
	return normalizeBids(apiBids, c.logger), nil
}

// GetAllBids returns every bid on the platform. Admin only.
func (c *Client) GetAllBids(ctx context.Context) ([]domain.Bid, error) {
	var apiBids []apiBid
	if err := c.getJSON(ctx, "/bids/all", &apiBids); err != nil {
		return nil, fmt.Errorf("all bids: %w", err)
	}
	return normalizeBids(apiBids, c.logger), nil
}

// DeclareWinner asks the backend to declare the winner for a stall. Admin
// only; winner determination itself is entirely server-side.
func (c *Client) DeclareWinner(ctx context.Context, stallID int64) error {
	if err := c.postJSON(ctx, fmt.Sprintf("/bids/stall/%d/declare-winner", stallID), struct{}{}, nil); err != nil {
		return fmt.Errorf("declare winner for stall %d: %w", stallID, err)
	}
	return nil
}
