package stallapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/campusbid/stallbid/internal/domain"
)

// GetStall returns a single stall snapshot by its ID.
func (c *Client) GetStall(ctx context.Context, stallID int64) (domain.Stall, error) {
	var api apiStall
	if err := c.getJSON(ctx, fmt.Sprintf("/stalls/%d", stallID), &api); err != nil {
		return domain.Stall{}, fmt.Errorf("get stall %d: %w", stallID, err)
	}
	return api.toDomain(), nil
}

// GetStallByNumber returns a stall snapshot by its stall number.
func (c *Client) GetStallByNumber(ctx context.Context, stallNo int) (domain.Stall, error) {
	var api apiStall
	if err := c.getJSON(ctx, fmt.Sprintf("/stalls/number/%d", stallNo), &api); err != nil {
		return domain.Stall{}, fmt.Errorf("get stall number %d: %w", stallNo, err)
	}
	return api.toDomain(), nil
}

// ListStalls returns all stalls.
func (c *Client) ListStalls(ctx context.Context) ([]domain.Stall, error) {
	return c.listStalls(ctx, "/stalls")
}

// ListActiveStalls returns stalls whose auction is currently running.
func (c *Client) ListActiveStalls(ctx context.Context) ([]domain.Stall, error) {
	return c.listStalls(ctx, "/stalls/active")
}

// ListAvailableStalls returns stalls whose auction has not started.
func (c *Client) ListAvailableStalls(ctx context.Context) ([]domain.Stall, error) {
	return c.listStalls(ctx, "/stalls/available")
}

// ListClosedStalls returns stalls whose auction has ended.
func (c *Client) ListClosedStalls(ctx context.Context) ([]domain.Stall, error) {
	return c.listStalls(ctx, "/stalls/closed")
}

// ListStallsByStatus returns stalls in the given lifecycle status.
func (c *Client) ListStallsByStatus(ctx context.Context, status domain.StallStatus) ([]domain.Stall, error) {
	return c.listStalls(ctx, "/stalls/status/"+url.PathEscape(string(status)))
}

// StallCounts returns the number of stalls per status.
func (c *Client) StallCounts(ctx context.Context) (map[string]int, error) {
	var counts map[string]int
	if err := c.getJSON(ctx, "/stalls/counts", &counts); err != nil {
		return nil, fmt.Errorf("stall counts: %w", err)
	}
	return counts, nil
}

func (c *Client) listStalls(ctx context.Context, path string) ([]domain.Stall, error) {
	var apiStalls []apiStall
	if err := c.getJSON(ctx, path, &apiStalls); err != nil {
		return nil, fmt.Errorf("list stalls %s: %w", path, err)
	}
	stalls := make([]domain.Stall, 0, len(apiStalls))
	for i := range apiStalls {
		stalls = append(stalls, apiStalls[i].toDomain())
	}
	return stalls, nil
}

// CreateStallRequest carries the fields for scheduling a new stall. Admin
// only; the backend rejects unauthorized callers.
type CreateStallRequest struct {
	Number        int
	Name          string
	Description   string
	Location      string
	Category      string
	Image         string
	BasePrice     int64
	OriginalPrice int64
	MaxBidders    int
	BiddingStart  time.Time
	BiddingEnd    time.Time
}

// CreateStall schedules a new stall auction.
func (c *Client) CreateStall(ctx context.Context, req CreateStallRequest) (domain.Stall, error) {
	body := map[string]any{
		"stallNo":          req.Number,
		"stallName":        req.Name,
		"description":      req.Description,
		"location":         req.Location,
		"category":         req.Category,
		"image":            req.Image,
		"basePrice":        req.BasePrice,
		"originalPrice":    req.OriginalPrice,
		"maxBidders":       req.MaxBidders,
		"biddingStartTime": req.BiddingStart.UTC().Format(time.RFC3339),
		"biddingEndTime":   req.BiddingEnd.UTC().Format(time.RFC3339),
	}
	var api apiStall
	if err := c.postJSON(ctx, "/stalls", body, &api); err != nil {
		return domain.Stall{}, fmt.Errorf("create stall: %w", err)
	}
	return api.toDomain(), nil
}

// UpdateStall applies a partial update to a stall. fields uses the backend's
// own field names (stallName, description, basePrice, ...).
func (c *Client) UpdateStall(ctx context.Context, stallID int64, fields map[string]any) (domain.Stall, error) {
	body, err := c.do(ctx, http.MethodPut, fmt.Sprintf("/stalls/%d", stallID), fields)
	if err != nil {
		return domain.Stall{}, fmt.Errorf("update stall %d: %w", stallID, err)
	}
	var api apiStall
	if err := decode(body, &api); err != nil {
		return domain.Stall{}, fmt.Errorf("update stall %d: %w", stallID, err)
	}
	return api.toDomain(), nil
}

// DeleteStall removes a stall.
func (c *Client) DeleteStall(ctx context.Context, stallID int64) error {
	if _, err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/stalls/%d", stallID), nil); err != nil {
		return fmt.Errorf("delete stall %d: %w", stallID, err)
	}
	return nil
}

// StartBidding moves a stall to ACTIVE.
func (c *Client) StartBidding(ctx context.Context, stallID int64) error {
	if err := c.postJSON(ctx, fmt.Sprintf("/stalls/%d/start-bidding", stallID), struct{}{}, nil); err != nil {
		return fmt.Errorf("start bidding for stall %d: %w", stallID, err)
	}
	return nil
}

// StopBidding moves a stall to CLOSED.
func (c *Client) StopBidding(ctx context.Context, stallID int64) error {
	if err := c.postJSON(ctx, fmt.Sprintf("/stalls/%d/stop-bidding", stallID), struct{}{}, nil); err != nil {
		return fmt.Errorf("stop bidding for stall %d: %w", stallID, err)
	}
	return nil
}
