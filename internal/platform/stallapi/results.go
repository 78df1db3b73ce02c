package stallapi

import (
	"context"
	"fmt"

	"github.com/campusbid/stallbid/internal/domain"
)

// ListResults returns all declared auction results.
func (c *Client) ListResults(ctx context.Context) ([]domain.BiddingResult, error) {
	var apiResults []apiResult
	if err := c.getJSON(ctx, "/results", &apiResults); err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	results := make([]domain.BiddingResult, 0, len(apiResults))
	for i := range apiResults {
		results = append(results, apiResults[i].toDomain())
	}
	return results, nil
}

// GetResultByStall returns the declared result for a single stall.
func (c *Client) GetResultByStall(ctx context.Context, stallID int64) (domain.BiddingResult, error) {
	var api apiResult
	if err := c.getJSON(ctx, fmt.Sprintf("/results/stall/%d", stallID), &api); err != nil {
		return domain.BiddingResult{}, fmt.Errorf("result for stall %d: %w", stallID, err)
	}
	return api.toDomain(), nil
}

// ResultSummary returns platform-wide auction statistics.
func (c *Client) ResultSummary(ctx context.Context) (domain.ResultSummary, error) {
	var api apiResultSummary
	if err := c.getJSON(ctx, "/results/summary", &api); err != nil {
		return domain.ResultSummary{}, fmt.Errorf("result summary: %w", err)
	}
	return api.toDomain(), nil
}
